// internal/transport/goburrow/classify.go
package goburrow

import (
	"errors"
	"io"
	"net"
	"strings"
	"syscall"

	"github.com/goburrow/modbus"

	"github.com/tamzrod/modbus-gateway/internal/mberr"
)

// classify maps goburrow and network errors onto result codes.
// goburrow reports most framing problems as plain formatted errors,
// so the CRC/LRC checks fall back to message matching.
func classify(err error) mberr.Code {
	if err == nil {
		return mberr.OK
	}

	var me *modbus.ModbusError
	if errors.As(err, &me) {
		return mberr.FromException(me.ExceptionCode)
	}

	if isTimeout(err) {
		return mberr.IOTimeout
	}
	if isConnectionError(err) {
		return mberr.NotConnected
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "crc"):
		return mberr.CRCError
	case strings.Contains(msg, "lrc"):
		return mberr.LRCError
	case strings.Contains(msg, "timeout"), strings.Contains(msg, "timed out"):
		return mberr.IOTimeout
	}
	return mberr.IOError
}

func isTimeout(err error) bool {
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	return errors.Is(err, syscall.ETIMEDOUT)
}

// isConnectionError reports link loss. goburrow surfaces a dropped TCP
// peer as io.EOF and a refused or reset socket as *net.OpError.
func isConnectionError(err error) bool {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, net.ErrClosed) {
		return true
	}
	if errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.EPIPE) || errors.Is(err, syscall.ECONNABORTED) {
		return true
	}
	var op *net.OpError
	if errors.As(err, &op) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, s := range []string{"connection reset", "broken pipe", "connection refused", "no route to host", "use of closed network connection"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}
