package plugins

import (
	"encoding/hex"
	"fmt"
	"strings"

	"dht22dec/decoder"
	"dht22dec/shared"

	"github.com/charmbracelet/log"
	"google.golang.org/protobuf/encoding/protojson"
)

// Emit logs a decoded uplink, queues it for Telegraf and, when a decoded
// topic is configured, republishes the decoder output as JSON.
func Emit(ctx *shared.MqttMessageHandlerContext, env shared.Envelope, res decoder.Result) error {
	switch r := res.(type) {
	case *decoder.Fatal:
		log.Warn("uplink carried no data", "device", env.Device, "topic", env.Topic, "errors", r.Errors)
	case *decoder.Degraded:
		log.Warn(r.Warning, "device", env.Device, "raw", hex.EncodeToString(r.Raw))
	case *decoder.Reading:
		for _, w := range r.Warnings {
			log.Warn(w, "device", env.Device, "temperature", r.Temperature, "humidity", r.Humidity, "status", r.StatusByte)
		}
		log.Info("decoded reading", "device", env.Device, "sensor", r.SensorType,
			"temperature", r.Temperature, "humidity", r.Humidity, "fcnt", env.FCnt)
	default:
		return shared.ErrUnknownMessageType
	}

	telegrafChan, ok := (ctx.TelegrafChan).(chan shared.TelegrafChannelMessage)
	if !ok {
		return fmt.Errorf("telegraf channel has unexpected type %T", ctx.TelegrafChan)
	}
	// runs on a paho callback, so never wait for the publisher
	select {
	case telegrafChan <- shared.DecodedUplink{Envelope: env, Result: res}:
	default:
		log.Warn("telegraf queue full, dropping reading", "device", env.Device, "fcnt", env.FCnt)
	}

	if ctx.Client == nil || ctx.DecodedTopic == "" {
		return nil
	}
	return republish(ctx, env, res)
}

func republish(ctx *shared.MqttMessageHandlerContext, env shared.Envelope, res decoder.Result) error {
	s, err := decoder.AsStruct(res)
	if err != nil {
		return err
	}
	b, err := protojson.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal decoded payload: %w", err)
	}

	topic := strings.TrimSuffix(ctx.DecodedTopic, "/") + "/" + env.Device
	token := ctx.Client.Publish(topic, 0, false, b)
	// waiting inside a paho callback can stall the router
	go func() {
		if token.Wait() && token.Error() != nil {
			log.Error("failed to publish decoded payload", "topic", topic, "err", token.Error())
		}
	}()
	log.Debugf("republished decoded payload to %s", topic)
	return nil
}
