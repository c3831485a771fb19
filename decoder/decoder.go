package decoder

// Decode turns one uplink frame into a Result. md may be nil.
// Decode keeps no state and is safe to call from several goroutines.
func Decode(frame []byte, md *Metadata) Result {
	switch checkFrame(frame) {
	case frameEmpty:
		return &Fatal{Errors: []string{NoDataError}}
	case frameShort:
		raw := make([]byte, len(frame))
		copy(raw, frame)
		return &Degraded{Raw: raw, Warning: WarnShortFrame}
	}

	temperature := decodeTemperature(frame[0:2])
	humidity := decodeHumidity(frame[2:4])
	status := frame[4]
	sensorID := frame[5]

	validity := Validate(temperature, humidity, status)

	r := &Reading{
		Temperature:       temperature,
		TemperatureValid:  validity.TemperatureValid(),
		TemperatureStatus: statusOf(validity.TemperatureValid()),
		Humidity:          humidity,
		HumidityValid:     validity.HumidityValid(),
		HumidityStatus:    statusOf(validity.HumidityValid()),
		SensorType:        classify(sensorID),
		SensorID:          sensorID,
		BytesReceived:     len(frame),
		StatusByte:        status,
		Warnings:          validity.Warnings(),
		Errors:            []string{},
	}
	if md != nil {
		r.RSSI = copyOptional(md.RSSI)
		r.SNR = copyOptional(md.SNR)
	}
	return r
}

func copyOptional(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
