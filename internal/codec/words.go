// internal/codec/words.go
package codec

import (
	"errors"
	"fmt"
	"math"
)

// ---- 32-bit ----

// Join32 combines two registers into one 32-bit word.
// hi is the first register on the wire. With swap the roles are exchanged.
func Join32(hi, lo uint16, swap bool) uint32 {
	if swap {
		return uint32(lo)<<16 | uint32(hi)
	}
	return uint32(hi)<<16 | uint32(lo)
}

// Split32 is the exact inverse of Join32.
func Split32(v uint32, swap bool) (hi, lo uint16) {
	h := uint16(v >> 16)
	l := uint16(v)
	if swap {
		return l, h
	}
	return h, l
}

// Float32FromRegs reinterprets two registers as IEEE-754 single precision.
func Float32FromRegs(regs []uint16, swap bool) (float32, error) {
	if len(regs) < 2 {
		return 0, errShort(2, len(regs))
	}
	return math.Float32frombits(Join32(regs[0], regs[1], swap)), nil
}

// Float32ToRegs is the inverse of Float32FromRegs.
func Float32ToRegs(f float32, swap bool) []uint16 {
	hi, lo := Split32(math.Float32bits(f), swap)
	return []uint16{hi, lo}
}

// Uint32FromRegs joins two registers as an unsigned 32-bit integer.
func Uint32FromRegs(regs []uint16, swap bool) (uint32, error) {
	if len(regs) < 2 {
		return 0, errShort(2, len(regs))
	}
	return Join32(regs[0], regs[1], swap), nil
}

// Int32FromRegs joins two registers as a two's complement 32-bit integer.
func Int32FromRegs(regs []uint16, swap bool) (int32, error) {
	u, err := Uint32FromRegs(regs, swap)
	return int32(u), err
}

// Uint32ToRegs splits v into device-order registers.
func Uint32ToRegs(v uint32, swap bool) []uint16 {
	hi, lo := Split32(v, swap)
	return []uint16{hi, lo}
}

// ---- 64-bit ----

// Join64BE concatenates four canonical-order registers big-endian.
func Join64BE(r [4]uint16) uint64 {
	return uint64(r[0])<<48 | uint64(r[1])<<32 | uint64(r[2])<<16 | uint64(r[3])
}

// Split64BE decomposes u into four big-endian registers.
func Split64BE(u uint64) [4]uint16 {
	return [4]uint16{
		uint16(u >> 48),
		uint16(u >> 32),
		uint16(u >> 16),
		uint16(u),
	}
}

// Float64FromRegs reorders four device registers into canonical order
// and reinterprets them as IEEE-754 double precision.
func Float64FromRegs(regs []uint16, order WordOrder) (float64, error) {
	if len(regs) < 4 {
		return 0, errShort(4, len(regs))
	}
	dev := [4]uint16{regs[0], regs[1], regs[2], regs[3]}
	return math.Float64frombits(Join64BE(order.ToCanonical(dev))), nil
}

// Float64ToRegs is the inverse of Float64FromRegs.
func Float64ToRegs(f float64, order WordOrder) []uint16 {
	dev := order.ToDevice(Split64BE(math.Float64bits(f)))
	return dev[:]
}

// ---- helpers ----

// ErrShortRegisters is returned when fewer registers than needed are supplied.
var ErrShortRegisters = errors.New("codec: not enough registers")

func errShort(want, got int) error {
	return fmt.Errorf("%w: need %d, got %d", ErrShortRegisters, want, got)
}
