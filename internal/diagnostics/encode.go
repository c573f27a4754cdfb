// internal/diagnostics/encode.go
package diagnostics

import "encoding/json"

// Encode renders a Snapshot as the host-facing JSON document.
// No IO. No side effects.
func Encode(s Snapshot) ([]byte, error) {
	if s.Exceptions == nil {
		s.Exceptions = []Exception{}
	}
	return json.Marshal(s)
}
