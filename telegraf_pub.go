package main

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"dht22dec/decoder"
	"dht22dec/shared"
	"dht22dec/utils"

	"github.com/charmbracelet/log"
)

var (
	tagEscaper    = strings.NewReplacer(",", `\,`, "=", `\=`, " ", `\ `)
	stringEscaper = strings.NewReplacer(`"`, `\"`, `\`, `\\`)
)

// receive decoded uplinks on the channel and publish them to the Telegraf server
func startPublisher(ctx context.Context, wg *sync.WaitGroup, telegrafURL string, telegrafChannel chan shared.TelegrafChannelMessage) {
	defer wg.Done()

	client := &http.Client{Timeout: 10 * time.Second}

	for {

		select {
		case msg := <-telegrafChannel:
			line, err := lineProtocol(msg, time.Now())
			if err != nil {
				log.Error("no metric published", "err", err, "type", fmt.Sprintf("%T", msg))
				continue
			}

			if telegrafURL == "" {
				log.Debugf("telegraf disabled, dropping: %s", line)
				continue
			}

			if err := postLine(ctx, client, telegrafURL, line); err != nil {
				log.Warnf("FAILED metric published to Telegraf Line: [%s], %s", utils.ReplaceBinaryWithHex(line), err)
				continue
			}
			log.Infof("metric published to Telegraf: %s", utils.ReplaceBinaryWithHex(line))

		case <-ctx.Done():
			log.Info("Publisher received shutdown signal (cancelled).")
			return
		}
	}
}

// create and send request to the telegraf server
func postLine(ctx context.Context, client *http.Client, telegrafURL, line string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, telegrafURL, bytes.NewBufferString(line))
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "text/plain")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("error posting to Telegraf: %w", err)
	}
	// drain so the keep-alive connection goes back to the pool
	_, _ = io.Copy(io.Discard, resp.Body)
	if err := resp.Body.Close(); err != nil {
		log.Error("Error failed to close Request Body:", "err", err)
	}

	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegraf answered %s", resp.Status)
	}
	return nil
}

// lineProtocol renders a decoded uplink as one InfluxDB line. now is used
// when the uplink carries no receive time.
func lineProtocol(msg shared.TelegrafChannelMessage, now time.Time) (string, error) {
	up, ok := msg.(shared.DecodedUplink)
	if !ok {
		return "", shared.ErrUnknownMessageType
	}

	ts := up.Envelope.ReceivedAt
	if ts.IsZero() {
		ts = now
	}
	device := tagEscaper.Replace(up.Envelope.Device)

	switch r := up.Result.(type) {
	case *decoder.Reading:
		fields := []string{
			"temperature=" + formatFloat(r.Temperature),
			"humidity=" + formatFloat(r.Humidity),
			"temperature_valid=" + strconv.FormatBool(r.TemperatureValid),
			"humidity_valid=" + strconv.FormatBool(r.HumidityValid),
			fmt.Sprintf("status_byte=%di", r.StatusByte),
			fmt.Sprintf("sensor_id=%di", r.SensorID),
			fmt.Sprintf("bytes_received=%di", r.BytesReceived),
			fmt.Sprintf("fcnt=%di", up.Envelope.FCnt),
			fmt.Sprintf("warnings=%di", len(r.Warnings)),
		}
		if r.RSSI != nil {
			fields = append(fields, "rssi="+formatFloat(*r.RSSI))
		}
		if r.SNR != nil {
			fields = append(fields, "snr="+formatFloat(*r.SNR))
		}
		return fmt.Sprintf("dht22,device=%s,sensor_type=%s %s %d",
			device, tagEscaper.Replace(string(r.SensorType)), strings.Join(fields, ","), ts.UnixNano()), nil

	case *decoder.Degraded:
		return fmt.Sprintf("dht22_short,device=%s bytes_received=%di,raw=\"%s\",warning=\"%s\" %d",
			device, len(r.Raw), hex.EncodeToString(r.Raw), stringEscaper.Replace(r.Warning), ts.UnixNano()), nil

	case *decoder.Fatal:
		return fmt.Sprintf("dht22_error,device=%s error=\"%s\" %d",
			device, stringEscaper.Replace(strings.Join(r.Errors, "; ")), ts.UnixNano()), nil

	default:
		return "", shared.ErrUnknownMessageType
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
