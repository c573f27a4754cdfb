// internal/gateway/gateway_test.go
package gateway

import (
	"context"
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tamzrod/modbus-gateway/internal/codec"
	"github.com/tamzrod/modbus-gateway/internal/diagnostics"
	"github.com/tamzrod/modbus-gateway/internal/mberr"
	"github.com/tamzrod/modbus-gateway/internal/reconnect"
	"github.com/tamzrod/modbus-gateway/internal/registry"
	"github.com/tamzrod/modbus-gateway/internal/value"
)

// item builds a config with the defaults the config loader applies.
func item(name string, fn registry.Function, addr, count int, typ registry.DataType) registry.ItemConfig {
	return registry.ItemConfig{
		Name:     name,
		UnitID:   1,
		Function: fn,
		Address:  addr,
		Count:    count,
		CountSet: count > 0,
		Type:     typ,
		Scale:    1.0,
	}
}

type harness struct {
	gw    *Gateway
	tr    *fakeTransport
	waits []time.Duration
}

func newHarness(t *testing.T, policy reconnect.Policy, items ...registry.ItemConfig) *harness {
	t.Helper()
	reg, err := registry.Build(items)
	require.NoError(t, err)

	h := &harness{tr: newFakeTransport()}
	gw, err := New(Options{
		Registry:  reg,
		Transport: h.tr,
		Reconnect: policy,
		Timeout:   250 * time.Millisecond,
		Logger:    zerolog.Nop(),
		Sleep: func(_ context.Context, d time.Duration) error {
			h.waits = append(h.waits, d)
			return nil
		},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = gw.Close() })
	h.gw = gw
	return h
}

func code(err error) mberr.Code { return mberr.CodeOf(err) }

func TestNew_ConnectsAndSetsTimeout(t *testing.T) {
	h := newHarness(t, reconnect.Default(), item("a", registry.ReadHoldingRegisters, 0, 1, registry.Uint16))
	assert.Equal(t, 1, h.tr.connects)
	assert.Equal(t, 250*time.Millisecond, h.tr.timeout)

	_, err := New(Options{Transport: h.tr})
	assert.Error(t, err)
	_, err = New(Options{Registry: h.gw.Registry()})
	assert.Error(t, err)
}

// ---- bits ----

func TestCoils_WriteFC15ReadFC1(t *testing.T) {
	h := newHarness(t, reconnect.Default(),
		item("coils.w", registry.WriteMultipleCoils, 20, 3, registry.Bool),
		item("coils.r", registry.ReadCoils, 20, 3, registry.Bool),
	)
	ctx := context.Background()

	require.NoError(t, h.gw.WriteJSON(ctx, "coils.w", []byte(`[true,false,true]`)))

	v, err := h.gw.Read(ctx, "coils.r")
	require.NoError(t, err)
	assert.True(t, v.Equal(value.Bools([]bool{true, false, true})), "got %s", v)

	raw, err := h.gw.ReadJSON(ctx, "coils.r")
	require.NoError(t, err)
	assert.JSONEq(t, `[true,false,true]`, string(raw))
}

func TestCoils_SingleAndIntegerPayloads(t *testing.T) {
	h := newHarness(t, reconnect.Default(),
		item("coil", registry.WriteSingleCoil, 7, 0, registry.Bool),
		item("coil.r", registry.ReadCoils, 7, 1, registry.Bool),
	)
	ctx := context.Background()

	require.NoError(t, h.gw.WriteJSON(ctx, "coil", []byte(`1`)))
	v, err := h.gw.Read(ctx, "coil.r")
	require.NoError(t, err)
	assert.True(t, v.Equal(value.Bool(true)))

	// FC1 items accept writes through FC5
	require.NoError(t, h.gw.Write(ctx, "coil.r", value.Bool(false)))
	v, err = h.gw.Read(ctx, "coil")
	require.NoError(t, err)
	assert.True(t, v.Equal(value.Bool(false)))
}

func TestCoils_BadArraysNeverReachTransport(t *testing.T) {
	h := newHarness(t, reconnect.Default(), item("coils", registry.WriteMultipleCoils, 0, 3, registry.Bool))
	ctx := context.Background()

	cases := []struct {
		payload string
		want    mberr.Code
	}{
		{`[true]`, mberr.InvalidArg},
		{`[]`, mberr.InvalidArg},
		{`[true,1.5,false]`, mberr.ParseError},
		{`[true,"x",false]`, mberr.ParseError},
		{`true`, mberr.ParseError},
		{`{"a":1}`, mberr.ParseError},
	}
	for _, tc := range cases {
		err := h.gw.WriteJSON(ctx, "coils", []byte(tc.payload))
		assert.Equal(t, tc.want, code(err), tc.payload)
	}
	assert.Zero(t, h.tr.calls)
}

func TestDiscreteInputs_ReadOnly(t *testing.T) {
	h := newHarness(t, reconnect.Default(), item("di", registry.ReadDiscreteInputs, 2, 2, registry.Bool))
	h.tr.mem.Bank().SeedDiscreteInput(3, true)
	ctx := context.Background()

	v, err := h.gw.Read(ctx, "di")
	require.NoError(t, err)
	assert.True(t, v.Equal(value.Bools([]bool{false, true})))

	err = h.gw.Write(ctx, "di", value.Bools([]bool{true, true}))
	assert.Equal(t, mberr.Unsupported, code(err))
}

// ---- registers ----

func TestFloat64_WordOrders(t *testing.T) {
	for _, order := range []codec.WordOrder{codec.ABCD, codec.BADC, codec.CDAB, codec.DCBA} {
		t.Run(string(order), func(t *testing.T) {
			it := item("pi", registry.WriteMultipleRegisters, 90, 4, registry.Float64)
			it.WordOrder = order
			h := newHarness(t, reconnect.Default(), it)
			ctx := context.Background()

			require.NoError(t, h.gw.WriteJSON(ctx, "pi", []byte(`3.1415926535`)))

			v, err := h.gw.Read(ctx, "pi")
			require.NoError(t, err)
			f, ok := v.Float64()
			require.True(t, ok)
			assert.InDelta(t, 3.1415926535, f, 1e-9)

			dev, err := h.tr.mem.Bank().ReadHoldingRegisters(90, 4)
			require.NoError(t, err)
			assert.Equal(t, codec.Float64ToRegs(3.1415926535, order), dev)
		})
	}
}

func TestFloat32_SwapWords(t *testing.T) {
	it := item("f", registry.ReadHoldingRegisters, 10, 0, registry.Float32)
	it.SwapWords = true
	h := newHarness(t, reconnect.Default(), it)
	ctx := context.Background()

	require.NoError(t, h.gw.Write(ctx, "f", value.Float(1.5)))

	regs, err := h.tr.mem.Bank().ReadHoldingRegisters(10, 2)
	require.NoError(t, err)
	assert.Equal(t, []uint16{0x0000, 0x3FC0}, regs)

	v, err := h.gw.Read(ctx, "f")
	require.NoError(t, err)
	assert.True(t, v.Equal(value.Float(1.5)))

	err = h.gw.Write(ctx, "f", value.Float(1e300))
	assert.Equal(t, mberr.ParseError, code(err))
}

func TestFloat32_InputRegisters(t *testing.T) {
	h := newHarness(t, reconnect.Default(), item("ir.f", registry.ReadInputRegisters, 4, 2, registry.Float32))
	h.tr.mem.Bank().SeedInputRegisters(4, 0x4049, 0x0FDB)

	v, err := h.gw.Read(context.Background(), "ir.f")
	require.NoError(t, err)
	f, _ := v.Float64()
	assert.InDelta(t, math.Pi, f, 1e-6)
}

func TestInt16_ScaleAndBounds(t *testing.T) {
	scaled := item("temp", registry.WriteSingleRegister, 2, 0, registry.Int16)
	scaled.Scale, scaled.Offset = 0.1, -10
	h := newHarness(t, reconnect.Default(),
		item("hr.min", registry.WriteSingleRegister, 0, 0, registry.Int16),
		item("hr.max", registry.WriteSingleRegister, 1, 0, registry.Int16),
		item("hr.r", registry.ReadHoldingRegisters, 0, 2, registry.Int16),
		item("hr.min.r", registry.ReadHoldingRegisters, 0, 1, registry.Int16),
		scaled,
	)
	ctx := context.Background()

	require.NoError(t, h.gw.WriteJSON(ctx, "hr.min", []byte(`-32768`)))
	require.NoError(t, h.gw.WriteJSON(ctx, "hr.max", []byte(`32767`)))

	v, err := h.gw.Read(ctx, "hr.min.r")
	require.NoError(t, err)
	assert.True(t, v.Equal(value.Float(-32768)))

	v, err = h.gw.Read(ctx, "hr.r")
	require.NoError(t, err)
	assert.True(t, v.Equal(value.Registers([]uint16{0x8000, 0x7FFF})), "raw list, got %s", v)

	calls := h.tr.calls
	assert.Equal(t, mberr.ParseError, code(h.gw.WriteJSON(ctx, "hr.max", []byte(`32768`))))
	assert.Equal(t, mberr.ParseError, code(h.gw.WriteJSON(ctx, "hr.min", []byte(`-32768.6`))))
	assert.Equal(t, calls, h.tr.calls)

	// (12.34 - -10) / 0.1 = 223.4 -> 223
	require.NoError(t, h.gw.Write(ctx, "temp", value.Float(12.34)))
	raw, err := h.tr.mem.Bank().ReadHoldingRegisters(2, 1)
	require.NoError(t, err)
	assert.Equal(t, []uint16{223}, raw)

	v, err = h.gw.Read(ctx, "temp")
	require.NoError(t, err)
	f, _ := v.Float64()
	assert.InDelta(t, 12.3, f, 1e-9)
}

func TestUint16_ScalarAndArrays(t *testing.T) {
	h := newHarness(t, reconnect.Default(),
		item("u", registry.ReadHoldingRegisters, 30, 1, registry.Uint16),
		item("u16", registry.WriteMultipleRegisters, 31, 1, registry.Uint16),
		item("arr", registry.WriteMultipleRegisters, 40, 3, registry.Uint16),
		item("ir", registry.ReadInputRegisters, 0, 3, registry.Uint16),
	)
	ctx := context.Background()

	require.NoError(t, h.gw.Write(ctx, "u", value.Int(65535)))
	v, err := h.gw.Read(ctx, "u")
	require.NoError(t, err)
	assert.True(t, v.Equal(value.Uint(65535)))

	require.NoError(t, h.gw.Write(ctx, "u16", value.Int(9)))
	raw, _ := h.tr.mem.Bank().ReadHoldingRegisters(31, 1)
	assert.Equal(t, []uint16{9}, raw)

	require.NoError(t, h.gw.WriteJSON(ctx, "arr", []byte(`[1, 2, 65535]`)))
	v, err = h.gw.Read(ctx, "arr")
	require.NoError(t, err)
	assert.True(t, v.Equal(value.Registers([]uint16{1, 2, 65535})))

	assert.Equal(t, mberr.InvalidArg, code(h.gw.Write(ctx, "arr", value.Int(5))))

	h.tr.mem.Bank().SeedInputRegisters(0, 7, 8, 9)
	raw2, err := h.gw.ReadJSON(ctx, "ir")
	require.NoError(t, err)
	assert.JSONEq(t, `[7,8,9]`, string(raw2))
	assert.Equal(t, mberr.Unsupported, code(h.gw.WriteJSON(ctx, "ir", []byte(`[1,2,3]`))))
}

func TestRegisters_BadArraysNeverReachTransport(t *testing.T) {
	h := newHarness(t, reconnect.Default(),
		item("hr.bad", registry.WriteMultipleRegisters, 60, 2, registry.Uint16),
		item("hr.single", registry.WriteSingleRegister, 70, 0, registry.Uint16),
	)
	ctx := context.Background()

	cases := []struct {
		payload string
		want    mberr.Code
	}{
		{`[1,"x"]`, mberr.ParseError},
		{`[1,70000]`, mberr.ParseError},
		{`[1,-1]`, mberr.ParseError},
		{`[1,2.5]`, mberr.ParseError},
		{`[1,true]`, mberr.ParseError},
		{`[1]`, mberr.InvalidArg},
		{`[1,2,3]`, mberr.InvalidArg},
		{`[1,`, mberr.ParseError},
	}
	for _, tc := range cases {
		err := h.gw.WriteJSON(ctx, "hr.bad", []byte(tc.payload))
		assert.Equal(t, tc.want, code(err), tc.payload)
	}

	// function 6 never widens to function 16
	for _, payload := range []string{`[7]`, `[]`, `[1,2]`} {
		err := h.gw.WriteJSON(ctx, "hr.single", []byte(payload))
		assert.Equal(t, mberr.ParseError, code(err), payload)
	}
	assert.Zero(t, h.tr.calls)
}

func TestScaleZero_AlwaysRejected(t *testing.T) {
	zero := item("holding.zero", registry.WriteSingleRegister, 0, 0, registry.Int16)
	zero.Scale = 0
	zeroArr := item("arr.zero", registry.WriteMultipleRegisters, 10, 2, registry.Uint16)
	zeroArr.Scale = 0
	h := newHarness(t, reconnect.Default(), zero, zeroArr)
	ctx := context.Background()

	for _, payload := range []string{`123`, `0`, `-1.5`, `[1]`, `true`} {
		assert.Equal(t, mberr.ParseError, code(h.gw.WriteJSON(ctx, "holding.zero", []byte(payload))), payload)
	}
	assert.Equal(t, mberr.ParseError, code(h.gw.WriteJSON(ctx, "arr.zero", []byte(`[1,2]`))))
	assert.Zero(t, h.tr.calls)
}

func TestNonFinite_Rejected(t *testing.T) {
	h := newHarness(t, reconnect.Default(),
		item("f", registry.WriteMultipleRegisters, 0, 2, registry.Float32),
		item("d", registry.WriteMultipleRegisters, 4, 4, registry.Float64),
	)
	ctx := context.Background()

	for _, payload := range []string{`NaN`, `Infinity`, `-inf`, `1e999`} {
		assert.Equal(t, mberr.ParseError, code(h.gw.WriteJSON(ctx, "d", []byte(payload))), payload)
	}
	assert.Equal(t, mberr.ParseError, code(h.gw.Write(ctx, "f", value.Float(math.NaN()))))
	assert.Equal(t, mberr.ParseError, code(h.gw.Write(ctx, "d", value.Float(math.Inf(-1)))))
	assert.Zero(t, h.tr.calls)
}

func TestInt32_RegisterPair(t *testing.T) {
	it := item("i32", registry.WriteMultipleRegisters, 50, 2, registry.Int32)
	sw := item("u32", registry.ReadHoldingRegisters, 52, 2, registry.Uint32)
	sw.SwapWords = true
	h := newHarness(t, reconnect.Default(), it, sw,
		item("i32.narrow", registry.ReadHoldingRegisters, 54, 1, registry.Int32))
	ctx := context.Background()

	require.NoError(t, h.gw.Write(ctx, "i32", value.Int(-2)))
	raw, _ := h.tr.mem.Bank().ReadHoldingRegisters(50, 2)
	assert.Equal(t, []uint16{0xFFFF, 0xFFFE}, raw)

	v, err := h.gw.Read(ctx, "i32")
	require.NoError(t, err)
	assert.True(t, v.Equal(value.Int(-2)))

	require.NoError(t, h.gw.Write(ctx, "u32", value.Uint(0x00010002)))
	raw, _ = h.tr.mem.Bank().ReadHoldingRegisters(52, 2)
	assert.Equal(t, []uint16{0x0002, 0x0001}, raw)

	v, err = h.gw.Read(ctx, "u32")
	require.NoError(t, err)
	assert.True(t, v.Equal(value.Uint(0x00010002)))

	// count 1 behaves as a plain register
	require.NoError(t, h.gw.Write(ctx, "i32.narrow", value.Int(40000)))
	v, err = h.gw.Read(ctx, "i32.narrow")
	require.NoError(t, err)
	assert.True(t, v.Equal(value.Uint(40000)))

	assert.Equal(t, mberr.ParseError, code(h.gw.Write(ctx, "u32", value.Int(-1))))
}

// ---- link ----

func TestReconnect_BackoffScenario(t *testing.T) {
	policy := reconnect.Policy{Retries: 3, Interval: 100 * time.Millisecond, BackoffMultiplier: 2, MaxInterval: time.Second}
	h := newHarness(t, policy, item("hr", registry.ReadHoldingRegisters, 0, 1, registry.Uint16))
	connectsAfterOpen := h.tr.connects

	h.tr.downFor = 2
	_, err := h.gw.Read(context.Background(), "hr")

	require.NoError(t, err)
	assert.Equal(t, 2, h.tr.connects-connectsAfterOpen)
	assert.Equal(t, []time.Duration{100 * time.Millisecond, 200 * time.Millisecond}, h.waits)
	assert.Equal(t, uint64(1), h.gw.Diagnostics().Snapshot().Counters.Operations)
}

func TestReconnect_ExhaustedAndDisabled(t *testing.T) {
	h := newHarness(t, reconnect.Policy{Retries: 2, BackoffMultiplier: 1}, item("hr", registry.ReadHoldingRegisters, 0, 1, registry.Uint16))

	h.tr.downFor = 10
	_, err := h.gw.Read(context.Background(), "hr")
	assert.Equal(t, mberr.NotConnected, code(err))
	assert.Equal(t, 3, h.tr.calls)

	h2 := newHarness(t, reconnect.Policy{}, item("hr", registry.ReadHoldingRegisters, 0, 1, registry.Uint16))
	h2.tr.downFor = 1
	_, err = h2.gw.Read(context.Background(), "hr")
	assert.Equal(t, mberr.NotConnected, code(err))
	assert.Equal(t, 1, h2.tr.calls)
}

func TestTransportErrorsSurfaceUnchanged(t *testing.T) {
	h := newHarness(t, reconnect.Policy{Retries: 3}, item("hr", registry.ReadHoldingRegisters, 0, 1, registry.Uint16))

	for _, c := range []mberr.Code{mberr.IOTimeout, mberr.IOError, mberr.CRCError, mberr.LRCError} {
		h.tr.calls = 0
		h.tr.err = mberr.New(c, "injected")
		_, err := h.gw.Read(context.Background(), "hr")
		assert.Equal(t, c, code(err))
		assert.Equal(t, 1, h.tr.calls, "%s is not retried", c)
	}
}

// ---- diagnostics ----

func TestException_RecordedAndReset(t *testing.T) {
	h := newHarness(t, reconnect.Default(), item("far", registry.ReadHoldingRegisters, 400, 1, registry.Uint16))
	ctx := context.Background()

	_, err := h.gw.Read(ctx, "far")
	require.Error(t, err)
	assert.Equal(t, mberr.Code(-3202), code(err))

	raw, err := h.gw.Call(ctx, MethodDiagnosticsSnapshot, nil)
	require.NoError(t, err)

	var snap struct {
		Counters struct {
			Operations     uint64 `json:"operations"`
			BroadcastsSent uint64 `json:"broadcasts_sent"`
		} `json:"counters"`
		Exceptions []struct {
			Code    int    `json:"code"`
			Name    string `json:"name"`
			Unit    int    `json:"unit"`
			Address int    `json:"address"`
		} `json:"exceptions"`
	}
	require.NoError(t, json.Unmarshal(raw, &snap))
	assert.Equal(t, uint64(1), snap.Counters.Operations)
	require.Len(t, snap.Exceptions, 1)
	assert.Equal(t, 2, snap.Exceptions[0].Code)
	assert.Equal(t, "ILLEGAL_DATA_ADDRESS", snap.Exceptions[0].Name)
	assert.Equal(t, 1, snap.Exceptions[0].Unit)
	assert.Equal(t, 400, snap.Exceptions[0].Address)

	_, err = h.gw.Call(ctx, MethodDiagnosticsReset, nil)
	require.NoError(t, err)
	s := h.gw.Diagnostics().Snapshot()
	assert.Empty(t, s.Exceptions)
	assert.Zero(t, s.Counters.Operations)
}

func TestOperationsCountedOncePerDispatch(t *testing.T) {
	h := newHarness(t, reconnect.Default(), item("hr", registry.WriteSingleRegister, 0, 0, registry.Int16))
	ctx := context.Background()

	_, _ = h.gw.Read(ctx, "missing")
	_ = h.gw.WriteJSON(ctx, "missing", []byte(`1`))
	_ = h.gw.WriteJSON(ctx, "hr", []byte(`nope`))
	_ = h.gw.WriteJSON(ctx, "hr", []byte(`5`))
	_, _ = h.gw.Read(ctx, "hr")

	_, err := h.gw.Read(ctx, "missing")
	assert.Equal(t, mberr.NotFound, code(err))
	assert.Equal(t, uint64(6), h.gw.Diagnostics().Snapshot().Counters.Operations)
}

func TestBroadcast_CountedAndWriteOnly(t *testing.T) {
	bc := item("all.reset", registry.WriteSingleRegister, 5, 0, registry.Uint16)
	bc.UnitID = registry.BroadcastUnit
	h := newHarness(t, reconnect.Default(), bc)
	ctx := context.Background()

	require.NoError(t, h.gw.Write(ctx, "all.reset", value.Int(1)))
	require.NoError(t, h.gw.Write(ctx, "all.reset", value.Int(0)))
	assert.Equal(t, uint64(2), h.gw.Diagnostics().Snapshot().Counters.BroadcastsSent)

	_, err := h.gw.Read(ctx, "all.reset")
	assert.Equal(t, mberr.Unsupported, code(err))
}

// ---- host ----

func TestCall_HostMethods(t *testing.T) {
	h := newHarness(t, reconnect.Default(),
		item("b", registry.ReadCoils, 0, 1, registry.Bool),
		item("a", registry.ReadHoldingRegisters, 0, 1, registry.Uint16),
	)
	ctx := context.Background()

	_, err := h.gw.Call(ctx, "no.such.method", nil)
	assert.Equal(t, mberr.Unsupported, code(err))

	out, err := h.gw.Call(ctx, MethodLoggerSet, []byte(`{"level":"debug"}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(out))
	_, err = h.gw.Call(ctx, MethodLoggerSet, []byte(`{"level":"loud"}`))
	assert.Equal(t, mberr.InvalidArg, code(err))
	_, err = h.gw.Call(ctx, MethodLoggerSet, []byte(`{`))
	assert.Equal(t, mberr.ParseError, code(err))

	connects := h.tr.connects
	_, err = h.gw.Call(ctx, MethodReconnect, nil)
	require.NoError(t, err)
	assert.Equal(t, connects+1, h.tr.connects)
	assert.Equal(t, 1, h.tr.closes)

	out, err = h.gw.Call(ctx, MethodItemsList, nil)
	require.NoError(t, err)
	var items []ItemInfo
	require.NoError(t, json.Unmarshal(out, &items))
	require.Len(t, items, 2)
	assert.Equal(t, "a", items[0].Name)
	assert.Equal(t, codec.ABCD, items[0].WordOrder)

	assert.Zero(t, h.gw.Diagnostics().Snapshot().Counters.Operations)
}

func TestClose(t *testing.T) {
	h := newHarness(t, reconnect.Default(), item("a", registry.ReadHoldingRegisters, 0, 1, registry.Uint16))
	ctx := context.Background()

	require.NoError(t, h.gw.Close())
	require.NoError(t, h.gw.Close())
	assert.Equal(t, 1, h.tr.closes)

	_, err := h.gw.Read(ctx, "a")
	assert.Equal(t, mberr.NotConnected, code(err))
	assert.Zero(t, h.tr.calls)
	assert.Equal(t, diagnostics.HealthDisabled, h.gw.Diagnostics().Snapshot().Link.Health)

	_, err = h.gw.Call(ctx, MethodReconnect, nil)
	assert.Equal(t, mberr.NotConnected, code(err))
}

func TestEncodeError(t *testing.T) {
	var doc map[string]map[string]any
	require.NoError(t, json.Unmarshal(EncodeError(mberr.Exception(2)), &doc))
	assert.Equal(t, -3202.0, doc["error"]["code"])
	assert.Equal(t, map[string]any{"code": 2.0, "name": "ILLEGAL_DATA_ADDRESS"}, doc["error"]["exception"])

	doc = nil
	require.NoError(t, json.Unmarshal(EncodeError(mberr.New(mberr.NotFound, "x")), &doc))
	assert.Equal(t, -2.0, doc["error"]["code"])
	assert.NotContains(t, doc["error"], "exception")
}
