// internal/mberr/errors.go
package mberr

import (
	"errors"
	"fmt"
)

// Error carries a Code through the error chain.
type Error struct {
	Code Code
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Msg != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Msg, e.Err)
	case e.Msg != "":
		return fmt.Sprintf("%s: %s", e.Code, e.Msg)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	}
	return e.Code.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error with the same Code, so sentinels work with errors.Is.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// ModbusCode exposes the numeric code for callers that only know the interface.
func (e *Error) ModbusCode() int { return int(e.Code) }

// Sentinels for errors.Is comparisons.
var (
	ErrInvalidArg   = &Error{Code: InvalidArg}
	ErrNotFound     = &Error{Code: NotFound}
	ErrIOTimeout    = &Error{Code: IOTimeout}
	ErrIOError      = &Error{Code: IOError}
	ErrNotConnected = &Error{Code: NotConnected}
	ErrUnsupported  = &Error{Code: Unsupported}
	ErrParse        = &Error{Code: ParseError}
	ErrCRC          = &Error{Code: CRCError}
	ErrLRC          = &Error{Code: LRCError}
)

// New builds an *Error with a formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches code to err. A nil err yields nil.
func Wrap(code Code, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Err: err}
}

// Exception builds the error for a Modbus exception response.
func Exception(exc uint8) *Error {
	return &Error{Code: FromException(exc), Msg: ExceptionName(exc)}
}

// CodeOf extracts the Code carried by err.
// nil is OK; errors without a Code are reported as IO_ERROR.
func CodeOf(err error) Code {
	if err == nil {
		return OK
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return IOError
}

// IsNotConnected reports whether err carries NOT_CONNECTED.
func IsNotConnected(err error) bool {
	return CodeOf(err) == NotConnected
}
