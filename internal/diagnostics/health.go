// internal/diagnostics/health.go
package diagnostics

import "github.com/tamzrod/modbus-gateway/internal/mberr"

// Health is the link state as seen by the last dispatched request.
type Health uint16

// ---- HEALTH CODES ----

// HealthUnknown is the boot state, before any request completed.
const HealthUnknown Health = 0

// HealthOK means the device answered the last request (possibly with an exception).
const HealthOK Health = 1

// HealthError means the last request failed at the link level.
const HealthError Health = 2

// HealthDisabled means the gateway released its transport.
const HealthDisabled Health = 4

func (h Health) String() string {
	switch h {
	case HealthOK:
		return "ok"
	case HealthError:
		return "error"
	case HealthDisabled:
		return "disabled"
	}
	return "unknown"
}

// MarshalText renders the health as its name.
func (h Health) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

// linkFailure reports whether code describes a failed exchange with the device.
// Argument errors never reach the wire and leave the link state alone.
func linkFailure(code mberr.Code) bool {
	switch code {
	case mberr.IOTimeout, mberr.IOError, mberr.NotConnected, mberr.CRCError, mberr.LRCError:
		return true
	}
	return false
}

// Link is the health part of a Snapshot.
type Link struct {
	Health         Health `json:"health"`
	LastErrorCode  int    `json:"last_error_code"`
	SecondsInError uint64 `json:"seconds_in_error"`
}
