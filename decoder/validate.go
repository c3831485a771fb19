package decoder

// DHT22 physical limits
const (
	MinTemperature = -40.0
	MaxTemperature = 80.0
	MinHumidity    = 0.0
	MaxHumidity    = 100.0

	// the node reports a failed read as -999; anything below this is a fault
	sentinelThreshold = -900.0

	statusValidBit byte = 0x01
)

type Status string

const (
	StatusOK    Status = "OK"
	StatusError Status = "ERROR"
)

// Validity combines the sensor's own status bit with the range checks.
type Validity struct {
	SensorValid bool
	TempInRange bool
	HumInRange  bool
}

// Validate applies the status bit, the DHT22 ranges and the sentinel
// override, in that order.
func Validate(temperature, humidity float64, status byte) Validity {
	v := Validity{
		SensorValid: status&statusValidBit != 0,
		TempInRange: temperature >= MinTemperature && temperature <= MaxTemperature,
		HumInRange:  humidity >= MinHumidity && humidity <= MaxHumidity,
	}

	if temperature < sentinelThreshold || humidity < sentinelThreshold {
		v = Validity{}
	}
	return v
}

func (v Validity) TemperatureValid() bool {
	return v.SensorValid && v.TempInRange
}

func (v Validity) HumidityValid() bool {
	return v.SensorValid && v.HumInRange
}

// Warnings lists the temperature warning before the humidity one.
func (v Validity) Warnings() []string {
	warnings := []string{}
	if !v.TemperatureValid() {
		warnings = append(warnings, WarnTemperature)
	}
	if !v.HumidityValid() {
		warnings = append(warnings, WarnHumidity)
	}
	return warnings
}

func statusOf(valid bool) Status {
	if valid {
		return StatusOK
	}
	return StatusError
}
