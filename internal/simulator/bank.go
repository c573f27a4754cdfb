// internal/simulator/bank.go
package simulator

import (
	"sync"

	"github.com/tamzrod/modbus-gateway/internal/mberr"
)

// Sizes is the number of points in each of the four tables.
type Sizes struct {
	Coils            int
	DiscreteInputs   int
	HoldingRegisters int
	InputRegisters   int
}

// DefaultSizes matches the in-memory device used by tests and the stub transport.
func DefaultSizes() Sizes {
	return Sizes{Coils: 200, DiscreteInputs: 200, HoldingRegisters: 200, InputRegisters: 200}
}

// Bank is an in-memory Modbus device: four bounds-checked tables.
// Accesses outside a table fail with exception 2 (illegal data address).
// Bank ignores unit ids; every unit sees the same memory.
type Bank struct {
	mu       sync.RWMutex
	coils    []bool
	discrete []bool
	holding  []uint16
	input    []uint16
}

// NewBank allocates a zeroed device.
func NewBank(s Sizes) *Bank {
	return &Bank{
		coils:    make([]bool, max0(s.Coils)),
		discrete: make([]bool, max0(s.DiscreteInputs)),
		holding:  make([]uint16, max0(s.HoldingRegisters)),
		input:    make([]uint16, max0(s.InputRegisters)),
	}
}

func max0(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

func span(addr uint16, count, size int) error {
	if int(addr)+count > size {
		return mberr.Exception(2)
	}
	return nil
}

// ---- reads ----

func (b *Bank) ReadCoils(addr, count uint16) ([]bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if err := span(addr, int(count), len(b.coils)); err != nil {
		return nil, err
	}
	out := make([]bool, count)
	copy(out, b.coils[addr:])
	return out, nil
}

func (b *Bank) ReadDiscreteInputs(addr, count uint16) ([]bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if err := span(addr, int(count), len(b.discrete)); err != nil {
		return nil, err
	}
	out := make([]bool, count)
	copy(out, b.discrete[addr:])
	return out, nil
}

func (b *Bank) ReadHoldingRegisters(addr, count uint16) ([]uint16, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if err := span(addr, int(count), len(b.holding)); err != nil {
		return nil, err
	}
	out := make([]uint16, count)
	copy(out, b.holding[addr:])
	return out, nil
}

func (b *Bank) ReadInputRegisters(addr, count uint16) ([]uint16, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if err := span(addr, int(count), len(b.input)); err != nil {
		return nil, err
	}
	out := make([]uint16, count)
	copy(out, b.input[addr:])
	return out, nil
}

// ---- writes ----

func (b *Bank) WriteCoils(addr uint16, bits []bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := span(addr, len(bits), len(b.coils)); err != nil {
		return err
	}
	copy(b.coils[addr:], bits)
	return nil
}

func (b *Bank) WriteHoldingRegisters(addr uint16, regs []uint16) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := span(addr, len(regs), len(b.holding)); err != nil {
		return err
	}
	copy(b.holding[addr:], regs)
	return nil
}

// ---- seeding (read-only tables) ----

// SeedDiscreteInput sets a discrete input. Out-of-range addresses are ignored.
func (b *Bank) SeedDiscreteInput(addr int, on bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if addr >= 0 && addr < len(b.discrete) {
		b.discrete[addr] = on
	}
}

// SeedInputRegisters copies regs into the input table starting at addr.
func (b *Bank) SeedInputRegisters(addr int, regs ...uint16) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, r := range regs {
		if a := addr + i; a >= 0 && a < len(b.input) {
			b.input[a] = r
		}
	}
}
