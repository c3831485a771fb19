package main

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dht22dec/decoder"
	"dht22dec/shared"
)

var receivedAt = time.Unix(1748779200, 0)

func f64(v float64) *float64 { return &v }

func TestLineProtocol(t *testing.T) {
	env := shared.Envelope{Device: "dht22 ed", FCnt: 9, ReceivedAt: receivedAt}
	cases := []struct {
		name   string
		res    decoder.Result
		expect string
	}{
		{
			"reading",
			decoder.Decode([]byte{0x09, 0x2E, 0x19, 0x64, 0x01, 0x22}, &decoder.Metadata{RSSI: f64(-70), SNR: f64(8.25)}),
			`dht22,device=dht22\ ed,sensor_type=DHT22 temperature=23.5,humidity=65,temperature_valid=true,humidity_valid=true,` +
				`status_byte=1i,sensor_id=34i,bytes_received=6i,fcnt=9i,warnings=0i,rssi=-70,snr=8.25 1748779200000000000`,
		},
		{
			"reading without metadata",
			decoder.Decode([]byte{0xFF, 0x9C, 0x19, 0x64, 0x00, 0x01}, nil),
			`dht22,device=dht22\ ed,sensor_type=Unknown temperature=-1,humidity=65,temperature_valid=false,humidity_valid=false,` +
				`status_byte=0i,sensor_id=1i,bytes_received=6i,fcnt=9i,warnings=2i 1748779200000000000`,
		},
		{
			"short frame",
			decoder.Decode([]byte{0x09, 0x2E}, nil),
			`dht22_short,device=dht22\ ed bytes_received=2i,raw="092e",warning="Payload menor a 6 bytes" 1748779200000000000`,
		},
		{
			"no data",
			decoder.Decode(nil, nil),
			`dht22_error,device=dht22\ ed error="No hay datos en el payload" 1748779200000000000`,
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			line, err := lineProtocol(shared.DecodedUplink{Envelope: env, Result: c.res}, time.Now())
			require.NoError(t, err)
			assert.Equal(t, c.expect, line)
		})
	}
}

func TestLineProtocolUsesNowWithoutReceiveTime(t *testing.T) {
	line, err := lineProtocol(shared.DecodedUplink{
		Envelope: shared.Envelope{Device: "d"},
		Result:   decoder.Decode(nil, nil),
	}, receivedAt)
	require.NoError(t, err)
	assert.Equal(t, `dht22_error,device=d error="No hay datos en el payload" 1748779200000000000`, line)
}

func TestLineProtocolUnknown(t *testing.T) {
	_, err := lineProtocol("not an uplink", time.Now())
	assert.ErrorIs(t, err, shared.ErrUnknownMessageType)

	_, err = lineProtocol(shared.DecodedUplink{}, time.Now())
	assert.ErrorIs(t, err, shared.ErrUnknownMessageType)
}

func TestPostLine(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		got = string(b)
		assert.Equal(t, "text/plain", r.Header.Get("Content-Type"))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	require.NoError(t, postLine(context.Background(), srv.Client(), srv.URL, "dht22 temperature=1"))
	assert.Equal(t, "dht22 temperature=1", got)
}

func TestPostLineReusesConnection(t *testing.T) {
	var conns atomic.Int32
	srv := httptest.NewUnstartedServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		_, _ = io.WriteString(w, "ok\n")
	}))
	srv.Config.ConnState = func(_ net.Conn, state http.ConnState) {
		if state == http.StateNew {
			conns.Add(1)
		}
	}
	srv.Start()
	defer srv.Close()

	client := srv.Client()
	for i := 0; i < 3; i++ {
		require.NoError(t, postLine(context.Background(), client, srv.URL, "dht22 temperature=1"))
	}
	assert.Equal(t, int32(1), conns.Load())
}

func TestPostLineRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	assert.Error(t, postLine(context.Background(), srv.Client(), srv.URL, "bad"))
}

func TestStartPublisher(t *testing.T) {
	lines := make(chan string, 4)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		lines <- string(b)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan shared.TelegrafChannelMessage)
	var wg sync.WaitGroup
	wg.Add(1)
	go startPublisher(ctx, &wg, srv.URL, ch)

	ch <- "skipped"
	ch <- shared.DecodedUplink{
		Envelope: shared.Envelope{Device: "dht22ed", ReceivedAt: receivedAt},
		Result:   decoder.Decode([]byte{0x01}, nil),
	}

	select {
	case line := <-lines:
		assert.Equal(t, `dht22_short,device=dht22ed bytes_received=1i,raw="01",warning="Payload menor a 6 bytes" 1748779200000000000`, line)
	case <-time.After(5 * time.Second):
		t.Fatal("no line posted")
	}

	cancel()
	wg.Wait()
	assert.Empty(t, lines)
}
