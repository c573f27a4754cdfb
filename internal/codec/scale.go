// internal/codec/scale.go
package codec

import (
	"errors"
	"math"
)

// ErrRange reports a value that cannot be narrowed into a register.
var ErrRange = errors.New("codec: value out of register range")

// ErrScaleZero reports an unscale through a zero scale factor.
var ErrScaleZero = errors.New("codec: scale is zero")

// ApplyScale maps a raw register value to engineering units.
func ApplyScale(raw, scale, offset float64) float64 {
	return raw*scale + offset
}

// Unscale inverts ApplyScale. A zero scale yields 0; writers must
// reject it first with CheckScale.
func Unscale(v, scale, offset float64) float64 {
	if scale == 0 {
		return 0
	}
	return (v - offset) / scale
}

// CheckScale rejects scale factors without an inverse.
func CheckScale(scale float64) error {
	if scale == 0 || math.IsNaN(scale) || math.IsInf(scale, 0) {
		return ErrScaleZero
	}
	return nil
}

// IsFinite reports whether v is neither NaN nor infinite.
func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// NarrowInt16 rounds v half away from zero and returns it as a
// two's complement register.
func NarrowInt16(v float64) (uint16, error) {
	r, err := roundIn(v, math.MinInt16, math.MaxInt16)
	if err != nil {
		return 0, err
	}
	return uint16(int16(r)), nil
}

// NarrowUint16 rounds v half away from zero into an unsigned register.
func NarrowUint16(v float64) (uint16, error) {
	r, err := roundIn(v, 0, math.MaxUint16)
	if err != nil {
		return 0, err
	}
	return uint16(r), nil
}

// NarrowInt32 rounds v into a signed 32-bit word.
func NarrowInt32(v float64) (uint32, error) {
	r, err := roundIn(v, math.MinInt32, math.MaxInt32)
	if err != nil {
		return 0, err
	}
	return uint32(int32(r)), nil
}

// NarrowUint32 rounds v into an unsigned 32-bit word.
func NarrowUint32(v float64) (uint32, error) {
	r, err := roundIn(v, 0, math.MaxUint32)
	if err != nil {
		return 0, err
	}
	return uint32(r), nil
}

func roundIn(v float64, lo, hi float64) (int64, error) {
	if !IsFinite(v) {
		return 0, ErrRange
	}
	r := math.Round(v)
	if r < lo || r > hi {
		return 0, ErrRange
	}
	return int64(r), nil
}
