// internal/gateway/read.go
package gateway

import (
	"context"

	"github.com/tamzrod/modbus-gateway/internal/codec"
	"github.com/tamzrod/modbus-gateway/internal/mberr"
	"github.com/tamzrod/modbus-gateway/internal/registry"
	"github.com/tamzrod/modbus-gateway/internal/value"
)

// Read fetches the named item and decodes it into its typed value.
//
// Write-function items read back the table they write: 5/15 read coils,
// 6/16 read holding registers.
func (g *Gateway) Read(ctx context.Context, name string) (value.Value, error) {
	var out value.Value
	err := g.dispatch("read", name, func(it registry.ItemConfig) error {
		if it.Broadcast() {
			return mberr.New(mberr.Unsupported, "broadcast items are write-only")
		}
		v, err := g.read(ctx, it)
		out = v
		return err
	})
	if err != nil {
		return value.Value{}, err
	}
	return out, nil
}

func (g *Gateway) read(ctx context.Context, it registry.ItemConfig) (value.Value, error) {
	if it.Function.IsBit() {
		bits, err := g.readBits(ctx, it, it.Count)
		if err != nil {
			return value.Value{}, err
		}
		if it.Count == 1 {
			return value.Bool(bits[0]), nil
		}
		return value.Bools(bits), nil
	}

	switch {
	case it.Type == registry.Float32:
		regs, err := g.readRegisters(ctx, it, 2)
		if err != nil {
			return value.Value{}, err
		}
		f, err := codec.Float32FromRegs(regs, it.SwapWords)
		if err != nil {
			return value.Value{}, mberr.Wrap(mberr.ParseError, err)
		}
		return value.Float(float64(f)), nil

	case it.Type == registry.Float64:
		regs, err := g.readRegisters(ctx, it, 4)
		if err != nil {
			return value.Value{}, err
		}
		f, err := codec.Float64FromRegs(regs, it.WordOrder)
		if err != nil {
			return value.Value{}, mberr.Wrap(mberr.ParseError, err)
		}
		return value.Float(f), nil

	case wide32(it):
		regs, err := g.readRegisters(ctx, it, 2)
		if err != nil {
			return value.Value{}, err
		}
		if it.Type == registry.Int32 {
			n, err := codec.Int32FromRegs(regs, it.SwapWords)
			if err != nil {
				return value.Value{}, mberr.Wrap(mberr.ParseError, err)
			}
			return value.Int(int64(n)), nil
		}
		n, err := codec.Uint32FromRegs(regs, it.SwapWords)
		if err != nil {
			return value.Value{}, mberr.Wrap(mberr.ParseError, err)
		}
		return value.Uint(uint64(n)), nil
	}

	regs, err := g.readRegisters(ctx, it, it.Count)
	if err != nil {
		return value.Value{}, err
	}
	if it.Count > 1 {
		return value.Registers(regs), nil
	}
	if it.Type == registry.Int16 {
		return value.Float(codec.ApplyScale(float64(int16(regs[0])), it.Scale, it.Offset)), nil
	}
	return value.Uint(uint64(regs[0])), nil
}

// wide32 reports a 32-bit integer item spanning a register pair.
func wide32(it registry.ItemConfig) bool {
	return (it.Type == registry.Int32 || it.Type == registry.Uint32) && it.Count == 2
}

// readBits reads count bits from the table behind the item's function.
func (g *Gateway) readBits(ctx context.Context, it registry.ItemConfig, count int) ([]bool, error) {
	unit, addr := uint8(it.UnitID), uint16(it.Address)

	var bits []bool
	err := g.call(ctx, it, func() error {
		var err error
		if it.Function == registry.ReadDiscreteInputs {
			bits, err = g.tr.ReadDiscreteInputs(unit, addr, uint16(count))
		} else {
			bits, err = g.tr.ReadCoils(unit, addr, uint16(count))
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	if len(bits) < count {
		return nil, mberr.New(mberr.IOError, "short bit response: %d of %d", len(bits), count)
	}
	return bits[:count], nil
}

// readRegisters reads count registers; function 4 uses input registers,
// every other register function the holding registers.
func (g *Gateway) readRegisters(ctx context.Context, it registry.ItemConfig, count int) ([]uint16, error) {
	unit, addr := uint8(it.UnitID), uint16(it.Address)

	var regs []uint16
	err := g.call(ctx, it, func() error {
		var err error
		if it.Function == registry.ReadInputRegisters {
			regs, err = g.tr.ReadInputRegisters(unit, addr, uint16(count))
		} else {
			regs, err = g.tr.ReadHoldingRegisters(unit, addr, uint16(count))
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	if len(regs) < count {
		return nil, mberr.New(mberr.IOError, "short register response: %d of %d", len(regs), count)
	}
	return regs[:count], nil
}
