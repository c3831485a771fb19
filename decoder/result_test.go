package decoder_test

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"dht22dec/decoder"
)

func TestAsStructFatal(t *testing.T) {
	s, err := decoder.AsStruct(decoder.Decode(nil, nil))
	require.NoError(t, err)
	assert.NotContains(t, s.Fields, "data")
	errs := s.Fields["errors"].GetListValue().GetValues()
	require.Len(t, errs, 1)
	assert.Equal(t, decoder.NoDataError, errs[0].GetStringValue())
}

func TestAsStructDegraded(t *testing.T) {
	s, err := decoder.AsStruct(decoder.Decode([]byte{0x09, 0x2E}, nil))
	require.NoError(t, err)
	assert.NotContains(t, s.Fields, "warnings")
	assert.NotContains(t, s.Fields, "errors")

	data := s.Fields["data"].GetStructValue()
	require.NotNil(t, data)
	raw := data.Fields["raw"].GetListValue().GetValues()
	require.Len(t, raw, 2)
	assert.Equal(t, float64(0x09), raw[0].GetNumberValue())
	assert.Equal(t, float64(0x2E), raw[1].GetNumberValue())
	assert.Equal(t, decoder.WarnShortFrame, data.Fields["warning"].GetStringValue())
}

func TestAsStructReadingNullMetadata(t *testing.T) {
	s, err := decoder.AsStruct(decoder.Decode([]byte{0x09, 0x2E, 0x19, 0x64, 0x01, 0x22}, nil))
	require.NoError(t, err)

	data := s.Fields["data"].GetStructValue()
	require.NotNil(t, data)
	for _, key := range []string{"rssi", "snr"} {
		require.Contains(t, data.Fields, key)
		_, isNull := data.Fields[key].GetKind().(*structpb.Value_NullValue)
		assert.True(t, isNull, key)
	}
	assert.Equal(t, 23.5, data.Fields["temperature"].GetNumberValue())
	assert.Equal(t, "DHT22", data.Fields["sensor_type"].GetStringValue())
	assert.Equal(t, "°C", data.Fields["temperature_unit"].GetStringValue())
	assert.Empty(t, s.Fields["errors"].GetListValue().GetValues())
}

func TestAsStructJSON(t *testing.T) {
	res := decoder.Decode(
		[]byte{0xFF, 0x9C, 0x19, 0x64, 0x00, 0x01},
		&decoder.Metadata{RSSI: f64(-80), SNR: f64(7.5)},
	)
	s, err := decoder.AsStruct(res)
	require.NoError(t, err)
	b, err := protojson.Marshal(s)
	require.NoError(t, err)

	var out struct {
		Data struct {
			Temperature       float64  `json:"temperature"`
			TemperatureStatus string   `json:"temperature_status"`
			SensorType        string   `json:"sensor_type"`
			SensorID          int      `json:"sensor_id"`
			RSSI              *float64 `json:"rssi"`
			SNR               *float64 `json:"snr"`
		} `json:"data"`
		Warnings []string `json:"warnings"`
		Errors   []string `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(b, &out))
	assert.Equal(t, -1.0, out.Data.Temperature)
	assert.Equal(t, "ERROR", out.Data.TemperatureStatus)
	assert.Equal(t, "Unknown", out.Data.SensorType)
	assert.Equal(t, 1, out.Data.SensorID)
	require.NotNil(t, out.Data.RSSI)
	assert.Equal(t, -80.0, *out.Data.RSSI)
	assert.Equal(t, 7.5, *out.Data.SNR)
	assert.Len(t, out.Warnings, 2)
	assert.NotNil(t, out.Errors)
	assert.Empty(t, out.Errors)
}

func TestDecodeConcurrent(t *testing.T) {
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			frame := []byte{0x00, byte(i), 0x19, 0x64, 0x01, 0x22}
			r := decoder.Decode(frame, nil).(*decoder.Reading)
			assert.True(t, r.TemperatureValid)
			assert.Empty(t, r.Warnings)
		}(i)
	}
	wg.Wait()
}
