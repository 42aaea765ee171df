package xpt

import (
	"encoding/binary"
	"math"
)

// ibmToFloat64 converts a truncated IBM hexadecimal floating-point value
// to IEEE 754. Values shorter than 8 bytes are zero-extended on the
// right. The layout is one sign bit, a 7-bit base-16 exponent biased by
// 64, and a 56-bit fraction with no implicit leading bit.
func ibmToFloat64(raw []byte) float64 {
	var b [8]byte
	copy(b[:], raw)
	bits := binary.BigEndian.Uint64(b[:])
	if bits == 0 {
		return 0
	}
	sign := 1.0
	if bits&(1<<63) != 0 {
		sign = -1
	}
	exp := int((bits >> 56) & 0x7f)
	frac := bits & 0x00ffffffffffffff
	return sign * math.Ldexp(float64(frac), 4*(exp-64)-56)
}

// isNumericMissing reports whether a raw numeric field holds one of the
// SAS missing markers: '.', '_', or '.A' through '.Z', encoded as the
// marker byte followed by zeros.
func isNumericMissing(raw []byte) bool {
	if len(raw) == 0 {
		return false
	}
	b := raw[0]
	if b != '.' && b != '_' && (b < 'A' || b > 'Z') {
		return false
	}
	for _, x := range raw[1:] {
		if x != 0 {
			return false
		}
	}
	return true
}
