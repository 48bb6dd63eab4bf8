package zoog

import (
	"math"
	"strconv"
)

// FixedPointGain is a signed Q7.8 fixed-point dB value (value / 256.0), the
// encoding used by the Opus identification header's output-gain field and
// by the R128_TRACK_GAIN/R128_ALBUM_GAIN comment tags. Zero means identity.
type FixedPointGain int16

// AsDecibels converts the fixed-point value to Decibels.
func (g FixedPointGain) AsDecibels() Decibels { return Decibels(float64(g) / 256.0) }

// IsZero reports whether g represents no gain adjustment.
func (g FixedPointGain) IsZero() bool { return g == 0 }

// FixedPointGainFromDecibels converts Decibels to a FixedPointGain, rounding
// to the nearest Q7.8 step. Returns a *Error of Kind Semantics wrapping
// ErrGainOutOfBounds if the rounded value does not fit in an int16.
func FixedPointGainFromDecibels(value Decibels) (FixedPointGain, error) {
	fixed := math.Round(float64(value) * 256.0)
	if fixed < math.MinInt16 || fixed > math.MaxInt16 {
		return 0, &Error{Kind: Semantics, Op: "FixedPointGainFromDecibels", Err: ErrGainOutOfBounds}
	}
	return FixedPointGain(int16(fixed)), nil
}

// CheckedAdd returns g + other, and false if the int16 sum would overflow.
func (g FixedPointGain) CheckedAdd(other FixedPointGain) (FixedPointGain, bool) {
	sum := int32(g) + int32(other)
	if sum < math.MinInt16 || sum > math.MaxInt16 {
		return 0, false
	}
	return FixedPointGain(sum), true
}

// CheckedNeg returns -g, and false exactly when g is math.MinInt16 (whose
// negation does not fit in an int16).
func (g FixedPointGain) CheckedNeg() (FixedPointGain, bool) {
	if g == math.MinInt16 {
		return 0, false
	}
	return -g, true
}

func (g FixedPointGain) String() string { return strconv.Itoa(int(g)) }

// ParseFixedPointGain parses the signed decimal textual form written into
// R128 tags.
func ParseFixedPointGain(s string) (FixedPointGain, error) {
	v, err := strconv.ParseInt(s, 10, 16)
	if err != nil {
		return 0, &Error{Kind: Format, Op: "ParseFixedPointGain", Err: ErrInvalidR128TagValue, Cause: err}
	}
	return FixedPointGain(v), nil
}
