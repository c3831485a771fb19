package decoder

import (
	"encoding/binary"
	"strconv"

	"github.com/shopspring/decimal"
)

// fields are sent multiplied by 100
const fixedPointScale = 100

// enough fractional digits to print any raw/100 double exactly
const exactDigits = 64

// decodeTemperature reads a big-endian int16 scaled by 100.
// 0xFF9C decodes to -1.0 and 0x8000 to -327.7.
func decodeTemperature(b []byte) float64 {
	raw := int16(binary.BigEndian.Uint16(b[:2]))
	return fixedPoint(int64(raw))
}

// decodeHumidity reads a big-endian uint16 scaled by 100.
func decodeHumidity(b []byte) float64 {
	raw := binary.BigEndian.Uint16(b[:2])
	return fixedPoint(int64(raw))
}

// fixedPoint divides raw by 100 in float64 and rounds the resulting double
// to one decimal by its exact binary value, exact ties away from zero, as the
// TTN payload formatter does. 80.05 is stored below the half and gives 80,
// 23.25 is exact and gives 23.3.
func fixedPoint(raw int64) float64 {
	x := float64(raw) / fixedPointScale
	exact := decimal.RequireFromString(strconv.FormatFloat(x, 'f', exactDigits, 64))
	v, _ := exact.Round(1).Float64()
	return v
}
