// internal/gateway/write.go
package gateway

import (
	"context"
	"math"

	"github.com/tamzrod/modbus-gateway/internal/codec"
	"github.com/tamzrod/modbus-gateway/internal/mberr"
	"github.com/tamzrod/modbus-gateway/internal/registry"
	"github.com/tamzrod/modbus-gateway/internal/value"
)

// request is a fully encoded write, ready for the wire.
type request struct {
	fn   registry.Function // 5, 6, 15 or 16
	on   bool
	bits []bool
	reg  uint16
	regs []uint16
}

// Write encodes v for the named item and sends it.
// Every argument check runs before the transport is touched.
func (g *Gateway) Write(ctx context.Context, name string, v value.Value) error {
	return g.dispatch("write", name, func(it registry.ItemConfig) error {
		req, err := encodeWrite(it, v)
		if err != nil {
			return err
		}
		if err := g.send(ctx, it, req); err != nil {
			return err
		}
		if it.Broadcast() {
			g.diag.RecordBroadcast()
		}
		return nil
	})
}

func (g *Gateway) send(ctx context.Context, it registry.ItemConfig, req request) error {
	unit, addr := uint8(it.UnitID), uint16(it.Address)

	return g.call(ctx, it, func() error {
		switch req.fn {
		case registry.WriteSingleCoil:
			return g.tr.WriteSingleCoil(unit, addr, req.on)
		case registry.WriteMultipleCoils:
			return g.tr.WriteMultipleCoils(unit, addr, req.bits)
		case registry.WriteSingleRegister:
			return g.tr.WriteSingleRegister(unit, addr, req.reg)
		default:
			return g.tr.WriteMultipleRegisters(unit, addr, req.regs)
		}
	})
}

// ---- encoding ----

// encodeWrite validates v against the item and picks the wire function.
func encodeWrite(it registry.ItemConfig, v value.Value) (request, error) {
	switch it.Function {
	case registry.ReadDiscreteInputs, registry.ReadInputRegisters:
		return request{}, mberr.New(mberr.Unsupported, "function %d addresses a read-only table", it.Function)
	}
	if v.Kind() == value.Invalid {
		return request{}, mberr.New(mberr.ParseError, "empty payload")
	}

	if it.Function.IsBit() {
		return encodeBits(it, v)
	}
	return encodeRegisters(it, v)
}

func encodeBits(it registry.ItemConfig, v value.Value) (request, error) {
	elems, isList := v.AsList()

	if !isList {
		if it.Function == registry.WriteMultipleCoils {
			return request{}, mberr.New(mberr.ParseError, "function 15 expects an array of %d", it.Count)
		}
		on, ok := v.Truthy()
		if !ok {
			return request{}, mberr.New(mberr.ParseError, "expected bool or integer, got %s", v.Kind())
		}
		return request{fn: registry.WriteSingleCoil, on: on}, nil
	}

	if it.Function == registry.WriteSingleCoil {
		return request{}, mberr.New(mberr.ParseError, "function 5 expects a single value")
	}
	if len(elems) != it.Count {
		return request{}, mberr.New(mberr.InvalidArg, "array length %d, item count %d", len(elems), it.Count)
	}
	bits := make([]bool, len(elems))
	for i, e := range elems {
		on, ok := e.Truthy()
		if !ok {
			return request{}, mberr.New(mberr.ParseError, "element %d: expected bool or integer, got %s", i, e.Kind())
		}
		bits[i] = on
	}
	return request{fn: registry.WriteMultipleCoils, bits: bits}, nil
}

func encodeRegisters(it registry.ItemConfig, v value.Value) (request, error) {
	// a zero scale has no inverse; refuse whatever the payload
	if err := codec.CheckScale(it.Scale); err != nil {
		return request{}, mberr.Wrap(mberr.ParseError, err)
	}

	if elems, isList := v.AsList(); isList {
		if it.Function == registry.WriteSingleRegister {
			return request{}, mberr.New(mberr.ParseError, "function 6 expects a single value")
		}
		return encodeArray(it, elems)
	}

	f, ok := v.Float64()
	if !ok {
		return request{}, mberr.New(mberr.ParseError, "expected number, got %s", v.Kind())
	}
	if !codec.IsFinite(f) {
		return request{}, mberr.New(mberr.ParseError, "non-finite value")
	}

	switch {
	case it.Type == registry.Float32:
		if math.Abs(f) > math.MaxFloat32 {
			return request{}, mberr.New(mberr.ParseError, "value %g overflows float32", f)
		}
		return request{fn: registry.WriteMultipleRegisters, regs: codec.Float32ToRegs(float32(f), it.SwapWords)}, nil

	case it.Type == registry.Float64:
		return request{fn: registry.WriteMultipleRegisters, regs: codec.Float64ToRegs(f, it.WordOrder)}, nil

	case wide32(it):
		var (
			u   uint32
			err error
		)
		if it.Type == registry.Int32 {
			u, err = codec.NarrowInt32(f)
		} else {
			u, err = codec.NarrowUint32(f)
		}
		if err != nil {
			return request{}, mberr.Wrap(mberr.ParseError, err)
		}
		return request{fn: registry.WriteMultipleRegisters, regs: codec.Uint32ToRegs(u, it.SwapWords)}, nil
	}

	if it.Count != 1 {
		return request{}, mberr.New(mberr.InvalidArg, "item spans %d registers, expected an array", it.Count)
	}

	raw := codec.Unscale(f, it.Scale, it.Offset)
	var (
		reg uint16
		err error
	)
	if it.Type == registry.Int16 {
		reg, err = codec.NarrowInt16(raw)
	} else {
		reg, err = codec.NarrowUint16(raw)
	}
	if err != nil {
		return request{}, mberr.Wrap(mberr.ParseError, err)
	}

	if it.Function == registry.WriteMultipleRegisters {
		return request{fn: registry.WriteMultipleRegisters, regs: []uint16{reg}}, nil
	}
	return request{fn: registry.WriteSingleRegister, reg: reg}, nil
}

// encodeArray checks an explicit register array: exact length first, then
// every element an integer in [0,65535].
func encodeArray(it registry.ItemConfig, elems []value.Value) (request, error) {
	if len(elems) != it.Count {
		return request{}, mberr.New(mberr.InvalidArg, "array length %d, item count %d", len(elems), it.Count)
	}
	regs := make([]uint16, len(elems))
	for i, e := range elems {
		n, ok := e.Int64()
		if !ok || !e.IsInteger() {
			return request{}, mberr.New(mberr.ParseError, "element %d: expected integer, got %s", i, e.Kind())
		}
		if n < 0 || n > math.MaxUint16 {
			return request{}, mberr.New(mberr.ParseError, "element %d: %d outside [0,65535]", i, n)
		}
		regs[i] = uint16(n)
	}
	return request{fn: registry.WriteMultipleRegisters, regs: regs}, nil
}
