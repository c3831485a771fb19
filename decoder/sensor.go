package decoder

type SensorName string

const (
	SensorDHT22   SensorName = "DHT22"
	SensorUnknown SensorName = "Unknown"
)

const sensorTypeDHT22 byte = 0x22

func classify(sensorType byte) SensorName {
	if sensorType == sensorTypeDHT22 {
		return SensorDHT22
	}
	return SensorUnknown
}
