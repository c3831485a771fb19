package decoder

import (
	"fmt"

	"google.golang.org/protobuf/types/known/structpb"
)

const (
	TemperatureUnit = "°C"
	HumidityUnit    = "%"
)

// Metadata is the optional radio information that travels with an uplink.
// Nil fields are rendered as null.
type Metadata struct {
	RSSI *float64
	SNR  *float64
}

// Result is one of *Fatal, *Degraded or *Reading.
type Result interface {
	// AsMap renders the decoder output object using only types
	// structpb accepts.
	AsMap() map[string]interface{}
	isResult()
}

// Fatal is returned when the uplink carried no bytes at all.
type Fatal struct {
	Errors []string
}

// Degraded is returned for frames shorter than FrameLength. Nothing is
// decoded; the raw bytes are kept for inspection.
type Degraded struct {
	Raw     []byte
	Warning string
}

// Reading is a fully decoded frame.
type Reading struct {
	Temperature       float64
	TemperatureValid  bool
	TemperatureStatus Status
	Humidity          float64
	HumidityValid     bool
	HumidityStatus    Status
	SensorType        SensorName
	SensorID          byte
	BytesReceived     int
	StatusByte        byte
	RSSI              *float64
	SNR               *float64
	Warnings          []string
	Errors            []string
}

func (*Fatal) isResult()    {}
func (*Degraded) isResult() {}
func (*Reading) isResult()  {}

func (f *Fatal) AsMap() map[string]interface{} {
	return map[string]interface{}{
		"errors": stringList(f.Errors),
	}
}

func (d *Degraded) AsMap() map[string]interface{} {
	raw := make([]interface{}, len(d.Raw))
	for i, b := range d.Raw {
		raw[i] = int(b)
	}
	return map[string]interface{}{
		"data": map[string]interface{}{
			"raw":     raw,
			"warning": d.Warning,
		},
	}
}

func (r *Reading) AsMap() map[string]interface{} {
	return map[string]interface{}{
		"data": map[string]interface{}{
			"temperature":        r.Temperature,
			"temperature_valid":  r.TemperatureValid,
			"temperature_status": string(r.TemperatureStatus),
			"humidity":           r.Humidity,
			"humidity_valid":     r.HumidityValid,
			"humidity_status":    string(r.HumidityStatus),
			"temperature_unit":   TemperatureUnit,
			"humidity_unit":      HumidityUnit,
			"sensor_type":        string(r.SensorType),
			"sensor_id":          int(r.SensorID),
			"bytes_received":     r.BytesReceived,
			"status_byte":        int(r.StatusByte),
			"rssi":               optional(r.RSSI),
			"snr":                optional(r.SNR),
		},
		"warnings": stringList(r.Warnings),
		"errors":   stringList(r.Errors),
	}
}

// AsStruct converts a result into the google.protobuf.Struct form used for
// decoded payloads.
func AsStruct(r Result) (*structpb.Struct, error) {
	s, err := structpb.NewStruct(r.AsMap())
	if err != nil {
		return nil, fmt.Errorf("failed to build decoded payload: %w", err)
	}
	return s, nil
}

func optional(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func stringList(in []string) []interface{} {
	out := make([]interface{}, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}
