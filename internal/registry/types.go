// internal/registry/types.go
package registry

import (
	"fmt"

	"github.com/tamzrod/modbus-gateway/internal/codec"
)

// ---- FUNCTION CODES ----

// Function is a Modbus function code an item is mapped onto.
type Function int

const (
	ReadCoils              Function = 1
	ReadDiscreteInputs     Function = 2
	ReadHoldingRegisters   Function = 3
	ReadInputRegisters     Function = 4
	WriteSingleCoil        Function = 5
	WriteSingleRegister    Function = 6
	WriteMultipleCoils     Function = 15
	WriteMultipleRegisters Function = 16
)

// Valid reports whether f is one of the supported function codes.
func (f Function) Valid() bool {
	switch f {
	case 1, 2, 3, 4, 5, 6, 15, 16:
		return true
	}
	return false
}

// IsBit reports whether f addresses single-bit points (coils, discrete inputs).
func (f Function) IsBit() bool {
	return f == 1 || f == 2 || f == 5 || f == 15
}

// IsRegister reports whether f addresses 16-bit registers.
func (f Function) IsRegister() bool {
	return f == 3 || f == 4 || f == 6 || f == 16
}

// IsWrite reports whether f is a write function.
func (f Function) IsWrite() bool {
	return f == 5 || f == 6 || f == 15 || f == 16
}

// ---- DATA TYPES ----

// DataType is the typed value model an item is decoded into.
type DataType string

const (
	Bool    DataType = "bool"
	Int16   DataType = "int16"
	Uint16  DataType = "uint16"
	Int32   DataType = "int32"
	Uint32  DataType = "uint32"
	Float32 DataType = "float32"
	Float64 DataType = "float64"
)

// ParseDataType accepts the canonical names plus "float" and "double".
func ParseDataType(s string) (DataType, error) {
	switch s {
	case "bool", "int16", "uint16", "int32", "uint32", "float32", "float64":
		return DataType(s), nil
	case "float":
		return Float32, nil
	case "double":
		return Float64, nil
	}
	return "", fmt.Errorf("registry: invalid type %q", s)
}

// Valid reports whether t is a canonical data type.
func (t DataType) Valid() bool {
	switch t {
	case Bool, Int16, Uint16, Int32, Uint32, Float32, Float64:
		return true
	}
	return false
}

// Registers is the fixed register width of t, or 0 when the width
// follows the item count.
func (t DataType) Registers() int {
	switch t {
	case Float32:
		return 2
	case Float64:
		return 4
	}
	return 0
}

// ---- ITEM ----

// MaxUnitID is the highest addressable unit. Unit 0 is the broadcast address.
const MaxUnitID = 247

// BroadcastUnit is the unit id that addresses every device on the link.
const BroadcastUnit = 0

// ItemConfig maps one named item onto the wire.
// Values are copied out of the registry and never mutated after Build.
type ItemConfig struct {
	Name     string
	UnitID   int
	Function Function
	Address  int
	Count    int
	// CountSet records whether Count was given explicitly by configuration.
	CountSet bool
	Type     DataType

	Scale     float64
	Offset    float64
	SwapWords bool
	WordOrder codec.WordOrder

	// PollMs > 0 asks the poller to read the item periodically.
	PollMs int
}

// Broadcast reports whether writes to the item address every unit.
func (c ItemConfig) Broadcast() bool {
	return c.UnitID == BroadcastUnit
}
