// internal/poller/types.go
package poller

import (
	"time"

	"github.com/tamzrod/modbus-gateway/internal/value"
)

// Sample is the outcome of reading one item.
type Sample struct {
	Name  string
	Value value.Value
	Err   error // non-nil means the read failed; Value is Invalid
	At    time.Time
}

// PollResult is a snapshot produced by one poll cycle.
type PollResult struct {
	Group string
	At    time.Time

	Samples []Sample
}

// Failed counts the samples that carry an error.
func (r PollResult) Failed() int {
	n := 0
	for _, s := range r.Samples {
		if s.Err != nil {
			n++
		}
	}
	return n
}
