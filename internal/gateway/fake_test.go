// internal/gateway/fake_test.go
package gateway

import (
	"time"

	"github.com/tamzrod/modbus-gateway/internal/mberr"
	"github.com/tamzrod/modbus-gateway/internal/transport/memory"
)

// fakeTransport wraps the in-memory transport, counts wire calls and can
// drop the link for a number of requests.
type fakeTransport struct {
	mem *memory.Transport

	connects int
	closes   int
	calls    int
	timeout  time.Duration

	// downFor makes the next n requests fail with NOT_CONNECTED.
	downFor int
	// err, when set, is returned by every request.
	err error
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{mem: memory.New(nil)}
}

func (f *fakeTransport) hit() error {
	f.calls++
	if f.downFor > 0 {
		f.downFor--
		return mberr.New(mberr.NotConnected, "link down")
	}
	return f.err
}

func (f *fakeTransport) Connect() error {
	f.connects++
	return f.mem.Connect()
}

func (f *fakeTransport) Close() error {
	f.closes++
	return f.mem.Close()
}

func (f *fakeTransport) SetTimeout(d time.Duration) { f.timeout = d }

func (f *fakeTransport) ReadCoils(unit uint8, addr, count uint16) ([]bool, error) {
	if err := f.hit(); err != nil {
		return nil, err
	}
	return f.mem.ReadCoils(unit, addr, count)
}

func (f *fakeTransport) ReadDiscreteInputs(unit uint8, addr, count uint16) ([]bool, error) {
	if err := f.hit(); err != nil {
		return nil, err
	}
	return f.mem.ReadDiscreteInputs(unit, addr, count)
}

func (f *fakeTransport) ReadHoldingRegisters(unit uint8, addr, count uint16) ([]uint16, error) {
	if err := f.hit(); err != nil {
		return nil, err
	}
	return f.mem.ReadHoldingRegisters(unit, addr, count)
}

func (f *fakeTransport) ReadInputRegisters(unit uint8, addr, count uint16) ([]uint16, error) {
	if err := f.hit(); err != nil {
		return nil, err
	}
	return f.mem.ReadInputRegisters(unit, addr, count)
}

func (f *fakeTransport) WriteSingleCoil(unit uint8, addr uint16, on bool) error {
	if err := f.hit(); err != nil {
		return err
	}
	return f.mem.WriteSingleCoil(unit, addr, on)
}

func (f *fakeTransport) WriteSingleRegister(unit uint8, addr, v uint16) error {
	if err := f.hit(); err != nil {
		return err
	}
	return f.mem.WriteSingleRegister(unit, addr, v)
}

func (f *fakeTransport) WriteMultipleCoils(unit uint8, addr uint16, bits []bool) error {
	if err := f.hit(); err != nil {
		return err
	}
	return f.mem.WriteMultipleCoils(unit, addr, bits)
}

func (f *fakeTransport) WriteMultipleRegisters(unit uint8, addr uint16, regs []uint16) error {
	if err := f.hit(); err != nil {
		return err
	}
	return f.mem.WriteMultipleRegisters(unit, addr, regs)
}
