// internal/mberr/codes.go
package mberr

import "fmt"

// Code is the numeric result of a gateway or transport operation.
// 0 is success, small negatives are fixed error classes and values
// strictly below ExceptionBase carry a Modbus exception code.
type Code int

const (
	OK           Code = 0
	InvalidArg   Code = -1
	NotFound     Code = -2
	IOTimeout    Code = -3
	IOError      Code = -4
	NotConnected Code = -5
	Unsupported  Code = -6
	ParseError   Code = -7
	CRCError     Code = -8
	LRCError     Code = -9
)

// ExceptionBase is the offset used to fold exception responses into Code.
// Exception code N is reported as ExceptionBase - N.
const ExceptionBase = -3200

// FromException encodes a Modbus exception code (1..255).
func FromException(exc uint8) Code {
	return Code(ExceptionBase - int(exc))
}

// IsException reports whether c lies in the exception range.
func (c Code) IsException() bool {
	return c <= ExceptionBase-1 && c >= ExceptionBase-255
}

// Exception decodes the exception code. Only meaningful when IsException.
func (c Code) Exception() uint8 {
	if !c.IsException() {
		return 0
	}
	return uint8(ExceptionBase - int(c))
}

func (c Code) String() string {
	switch c {
	case OK:
		return "OK"
	case InvalidArg:
		return "INVALID_ARG"
	case NotFound:
		return "NOT_FOUND"
	case IOTimeout:
		return "IO_TIMEOUT"
	case IOError:
		return "IO_ERROR"
	case NotConnected:
		return "NOT_CONNECTED"
	case Unsupported:
		return "UNSUPPORTED"
	case ParseError:
		return "PARSE_ERROR"
	case CRCError:
		return "CRC_ERROR"
	case LRCError:
		return "LRC_ERROR"
	}
	if c.IsException() {
		return fmt.Sprintf("EXCEPTION(%s)", ExceptionName(c.Exception()))
	}
	return fmt.Sprintf("CODE(%d)", int(c))
}

// ---- exception names ----

// ExceptionName maps a Modbus exception code to its symbolic name.
func ExceptionName(exc uint8) string {
	switch exc {
	case 1:
		return "ILLEGAL_FUNCTION"
	case 2:
		return "ILLEGAL_DATA_ADDRESS"
	case 3:
		return "ILLEGAL_DATA_VALUE"
	case 4:
		return "SLAVE_DEVICE_FAILURE"
	case 5:
		return "ACKNOWLEDGE"
	case 6:
		return "SLAVE_DEVICE_BUSY"
	case 8:
		return "MEMORY_PARITY_ERROR"
	case 10:
		return "GATEWAY_PATH_UNAVAILABLE"
	case 11:
		return "GATEWAY_TARGET_FAILED"
	default:
		return "UNKNOWN"
	}
}
