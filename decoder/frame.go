package decoder

// FrameLength is the size of a complete DHT22 uplink:
// [temp MSB, temp LSB, hum MSB, hum LSB, status, sensor type]
const FrameLength = 6

const (
	// user facing messages of the TTN payload formatter
	NoDataError     = "No hay datos en el payload"
	WarnShortFrame  = "Payload menor a 6 bytes"
	WarnTemperature = "Temperatura: Error o fuera de rango"
	WarnHumidity    = "Humedad: Error o fuera de rango"
)

type frameKind int

const (
	frameEmpty frameKind = iota
	frameShort
	frameFull
)

func checkFrame(frame []byte) frameKind {
	switch {
	case len(frame) == 0:
		return frameEmpty
	case len(frame) < FrameLength:
		return frameShort
	default:
		return frameFull
	}
}
