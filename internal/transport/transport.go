// internal/transport/transport.go
package transport

import "time"

// Transport is the Modbus link capability the gateway consumes.
// Implementations report failures as *mberr.Error values so the gateway
// can tell NOT_CONNECTED apart from timeouts, I/O errors and exceptions.
//
// A Transport is a single physical link and is not safe for concurrent use;
// the gateway serializes every call.
type Transport interface {
	Connect() error
	Close() error
	SetTimeout(d time.Duration)

	ReadCoils(unit uint8, addr, count uint16) ([]bool, error)              // FC 1
	ReadDiscreteInputs(unit uint8, addr, count uint16) ([]bool, error)     // FC 2
	ReadHoldingRegisters(unit uint8, addr, count uint16) ([]uint16, error) // FC 3
	ReadInputRegisters(unit uint8, addr, count uint16) ([]uint16, error)   // FC 4

	WriteSingleCoil(unit uint8, addr uint16, on bool) error              // FC 5
	WriteSingleRegister(unit uint8, addr, v uint16) error                // FC 6
	WriteMultipleCoils(unit uint8, addr uint16, bits []bool) error       // FC 15
	WriteMultipleRegisters(unit uint8, addr uint16, regs []uint16) error // FC 16
}

// ---- limits ----

// Per-request quantity limits from the Modbus application protocol.
const (
	MaxReadBits       = 2000
	MaxReadRegisters  = 125
	MaxWriteBits      = 1968
	MaxWriteRegisters = 123
)
