// internal/transport/memory/memory.go
package memory

import (
	"sync"
	"time"

	"github.com/tamzrod/modbus-gateway/internal/mberr"
	"github.com/tamzrod/modbus-gateway/internal/simulator"
	"github.com/tamzrod/modbus-gateway/internal/transport"
)

// Transport is an in-process link to a simulator.Bank.
// It behaves like a real link with respect to connection state:
// every operation fails with NOT_CONNECTED until Connect is called.
type Transport struct {
	mu        sync.Mutex
	bank      *simulator.Bank
	connected bool
	timeout   time.Duration
}

var _ transport.Transport = (*Transport)(nil)

// New returns a disconnected transport over bank.
// A nil bank allocates one with simulator.DefaultSizes.
func New(bank *simulator.Bank) *Transport {
	if bank == nil {
		bank = simulator.NewBank(simulator.DefaultSizes())
	}
	return &Transport{bank: bank, timeout: time.Second}
}

// Bank exposes the backing device for seeding in tests and demos.
func (t *Transport) Bank() *simulator.Bank { return t.bank }

func (t *Transport) Connect() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.connected = true
	return nil
}

func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.connected = false
	return nil
}

func (t *Transport) SetTimeout(d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.timeout = d
}

func (t *Transport) ready() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.connected {
		return mberr.New(mberr.NotConnected, "memory transport closed")
	}
	return nil
}

// ---- reads ----

func (t *Transport) ReadCoils(_ uint8, addr, count uint16) ([]bool, error) {
	if err := t.ready(); err != nil {
		return nil, err
	}
	return t.bank.ReadCoils(addr, count)
}

func (t *Transport) ReadDiscreteInputs(_ uint8, addr, count uint16) ([]bool, error) {
	if err := t.ready(); err != nil {
		return nil, err
	}
	return t.bank.ReadDiscreteInputs(addr, count)
}

func (t *Transport) ReadHoldingRegisters(_ uint8, addr, count uint16) ([]uint16, error) {
	if err := t.ready(); err != nil {
		return nil, err
	}
	return t.bank.ReadHoldingRegisters(addr, count)
}

func (t *Transport) ReadInputRegisters(_ uint8, addr, count uint16) ([]uint16, error) {
	if err := t.ready(); err != nil {
		return nil, err
	}
	return t.bank.ReadInputRegisters(addr, count)
}

// ---- writes ----

func (t *Transport) WriteSingleCoil(_ uint8, addr uint16, on bool) error {
	if err := t.ready(); err != nil {
		return err
	}
	return t.bank.WriteCoils(addr, []bool{on})
}

func (t *Transport) WriteSingleRegister(_ uint8, addr, v uint16) error {
	if err := t.ready(); err != nil {
		return err
	}
	return t.bank.WriteHoldingRegisters(addr, []uint16{v})
}

func (t *Transport) WriteMultipleCoils(_ uint8, addr uint16, bits []bool) error {
	if err := t.ready(); err != nil {
		return err
	}
	return t.bank.WriteCoils(addr, bits)
}

func (t *Transport) WriteMultipleRegisters(_ uint8, addr uint16, regs []uint16) error {
	if err := t.ready(); err != nil {
		return err
	}
	return t.bank.WriteHoldingRegisters(addr, regs)
}
