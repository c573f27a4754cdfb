// internal/codec/codec_test.go
package codec

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allOrders = []WordOrder{ABCD, BADC, CDAB, DCBA}

func TestJoinSplit32_RoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 2000; i++ {
		hi := uint16(rng.Intn(1 << 16))
		lo := uint16(rng.Intn(1 << 16))
		for _, swap := range []bool{false, true} {
			h, l := Split32(Join32(hi, lo, swap), swap)
			require.Equal(t, hi, h)
			require.Equal(t, lo, l)
		}
	}
}

func TestJoin32_Layout(t *testing.T) {
	assert.Equal(t, uint32(0x12345678), Join32(0x1234, 0x5678, false))
	assert.Equal(t, uint32(0x56781234), Join32(0x1234, 0x5678, true))
}

func TestFloat32_RoundTrip(t *testing.T) {
	values := []float32{0, -0, 1, -1, 3.14159, math.MaxFloat32, math.SmallestNonzeroFloat32, -123456.789}
	for _, f := range values {
		for _, swap := range []bool{false, true} {
			got, err := Float32FromRegs(Float32ToRegs(f, swap), swap)
			require.NoError(t, err)
			assert.Equal(t, math.Float32bits(f), math.Float32bits(got))
		}
	}
}

func TestFloat32_SwapLayout(t *testing.T) {
	// 1.0f = 0x3F800000
	assert.Equal(t, []uint16{0x3F80, 0x0000}, Float32ToRegs(1, false))
	assert.Equal(t, []uint16{0x0000, 0x3F80}, Float32ToRegs(1, true))
}

func TestFloat64_RoundTripAllOrders(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	values := []float64{0, 1, -1, 3.1415926535, 1e-300, -2.5e300, math.MaxFloat64}
	for i := 0; i < 200; i++ {
		values = append(values, (rng.Float64()-0.5)*1e12)
	}
	for _, order := range allOrders {
		for _, d := range values {
			got, err := Float64FromRegs(Float64ToRegs(d, order), order)
			require.NoError(t, err)
			require.Equal(t, math.Float64bits(d), math.Float64bits(got), "order=%s d=%v", order, d)
		}
	}
}

func TestWordOrder_DeviceLayout(t *testing.T) {
	canon := [4]uint16{0xA, 0xB, 0xC, 0xD}
	assert.Equal(t, [4]uint16{0xA, 0xB, 0xC, 0xD}, ABCD.ToDevice(canon))
	assert.Equal(t, [4]uint16{0xB, 0xA, 0xD, 0xC}, BADC.ToDevice(canon))
	assert.Equal(t, [4]uint16{0xC, 0xD, 0xA, 0xB}, CDAB.ToDevice(canon))
	assert.Equal(t, [4]uint16{0xD, 0xC, 0xB, 0xA}, DCBA.ToDevice(canon))

	for _, o := range allOrders {
		assert.Equal(t, canon, o.ToCanonical(o.ToDevice(canon)), "order %s", o)
	}
}

func TestFloat64_KnownPattern(t *testing.T) {
	// 1.0 = 0x3FF0000000000000
	regs := Float64ToRegs(1.0, CDAB)
	assert.Equal(t, []uint16{0, 0, 0x3FF0, 0}, regs)
}

func TestParseWordOrder(t *testing.T) {
	o, err := ParseWordOrder("")
	require.NoError(t, err)
	assert.Equal(t, ABCD, o)

	o, err = ParseWordOrder("DCBA")
	require.NoError(t, err)
	assert.Equal(t, DCBA, o)

	_, err = ParseWordOrder("ABDC")
	assert.Error(t, err)
	assert.False(t, WordOrder("xyz").Valid())
}

func TestShortRegisters(t *testing.T) {
	_, err := Float32FromRegs([]uint16{1}, false)
	assert.ErrorIs(t, err, ErrShortRegisters)
	_, err = Float64FromRegs([]uint16{1, 2, 3}, ABCD)
	assert.ErrorIs(t, err, ErrShortRegisters)
}

func TestScale_RoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 1000; i++ {
		raw := float64(rng.Intn(65536) - 32768)
		scale := (rng.Float64() - 0.5) * 100
		if scale == 0 {
			continue
		}
		offset := (rng.Float64() - 0.5) * 1000
		back := Unscale(ApplyScale(raw, scale, offset), scale, offset)
		require.InDelta(t, raw, back, 1e-6)
	}
	assert.Equal(t, 0.0, Unscale(10, 0, 1))
	assert.ErrorIs(t, CheckScale(0), ErrScaleZero)
	assert.NoError(t, CheckScale(0.1))
}

func TestNarrowInt16(t *testing.T) {
	cases := []struct {
		in   float64
		want uint16
		err  bool
	}{
		{-32768, 0x8000, false},
		{32767, 0x7FFF, false},
		{-1, 0xFFFF, false},
		{2.5, 3, false},
		{-2.5, 0xFFFD, false},
		{32767.4, 0x7FFF, false},
		{32767.5, 0, true},
		{-32769, 0, true},
		{math.NaN(), 0, true},
		{math.Inf(1), 0, true},
	}
	for _, c := range cases {
		got, err := NarrowInt16(c.in)
		if c.err {
			assert.ErrorIs(t, err, ErrRange, "in=%v", c.in)
			continue
		}
		require.NoError(t, err, "in=%v", c.in)
		assert.Equal(t, c.want, got, "in=%v", c.in)
	}
}

func TestNarrowUint16AndWide(t *testing.T) {
	v, err := NarrowUint16(65535)
	require.NoError(t, err)
	assert.Equal(t, uint16(65535), v)
	_, err = NarrowUint16(-0.6)
	assert.ErrorIs(t, err, ErrRange)
	v, err = NarrowUint16(-0.4)
	require.NoError(t, err)
	assert.Equal(t, uint16(0), v)

	u, err := NarrowInt32(-1)
	require.NoError(t, err)
	assert.Equal(t, uint32(0xFFFFFFFF), u)
	_, err = NarrowUint32(4294967296)
	assert.ErrorIs(t, err, ErrRange)
}

func TestBitsAndRegisters(t *testing.T) {
	bits := []bool{true, false, true, true, false, false, false, false, true}
	packed := PackBits(bits)
	assert.Equal(t, []byte{0x0D, 0x01}, packed)
	assert.Equal(t, bits, UnpackBits(packed, len(bits)))
	assert.Equal(t, []bool{true, false, false}, UnpackBits([]byte{0x01}, 3))
	assert.Equal(t, []bool{false, false}, UnpackBits(nil, 2))

	regs := []uint16{0x0102, 0xA0B0}
	assert.Equal(t, []byte{1, 2, 0xA0, 0xB0}, PackRegisters(regs))
	assert.Equal(t, regs, UnpackRegisters([]byte{1, 2, 0xA0, 0xB0, 9}))
}
