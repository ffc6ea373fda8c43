package protocol

import "math"

// IEEE-754 single-precision field masks
const (
	signMask     = 0x80000000
	exponentMask = 0xFF
	mantissaMask = 0x7FFFFF
	implicitBit  = 0x800000
)

// BytesToInt32 assembles a signed 32-bit integer most-significant byte
// first from the four given bytes. Callers control the byte order: for the
// little-endian float payloads the firmware sends, pass the payload bytes
// reversed (see FloatFromPayload).
func BytesToInt32(b0, b1, b2, b3 byte) int32 {
	return int32(uint32(b0)<<24 | uint32(b1)<<16 | uint32(b2)<<8 | uint32(b3))
}

// Int32ToFloat32 reconstructs an IEEE-754 single-precision value from its
// raw bit pattern, rounded to two decimal digits to match firmware
// precision. The reconstruction is done with explicit masking and shifting:
// sign from bit 31, exponent from bits 30-23, mantissa from bits 22-0.
// Subnormal numbers (exponent 0) use mantissa<<1; normal numbers OR in the
// implicit leading bit. The result is sign * mantissa * 2^(exponent-150).
func Int32ToFloat32(bits int32) float32 {
	u := uint32(bits)

	sign := float64(1)
	if u&signMask != 0 {
		sign = -1
	}

	exponent := (u >> 23) & exponentMask
	mantissa := u & mantissaMask
	if exponent == 0 {
		mantissa <<= 1
	} else {
		mantissa |= implicitBit
	}

	v := sign * float64(mantissa) * math.Pow(2, float64(exponent)-150)
	return float32(math.Round(v*100) / 100)
}

// FloatFromPayload decodes the four little-endian float bytes the firmware
// transmits for float sensors. It reports false when the payload is shorter
// than a float requires, in which case the frame should be dropped as
// incomplete telemetry.
func FloatFromPayload(p []byte) (float32, bool) {
	if len(p) < 4 {
		return 0, false
	}
	return Int32ToFloat32(BytesToInt32(p[3], p[2], p[1], p[0])), true
}
