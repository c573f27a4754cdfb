// internal/diagnostics/diagnostics.go
package diagnostics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/tamzrod/modbus-gateway/internal/mberr"
)

// DefaultMaxExceptions bounds the exception log when Options leaves it zero.
const DefaultMaxExceptions = 64

// Options configures a Diagnostics.
type Options struct {
	MaxExceptions int
	// Registerer receives the prometheus collectors. Nil skips registration.
	Registerer prometheus.Registerer
	// Now is the clock. Nil means time.Now.
	Now func() time.Time
}

// Exception is one recorded exception response.
type Exception struct {
	Code    uint8     `json:"code"`
	Name    string    `json:"name"`
	Unit    uint8     `json:"unit"`
	Address uint16    `json:"address"`
	At      time.Time `json:"at"`
}

// Counters are the resettable totals.
type Counters struct {
	Operations     uint64 `json:"operations"`
	BroadcastsSent uint64 `json:"broadcasts_sent"`
}

// Snapshot is a consistent copy of the diagnostics state.
type Snapshot struct {
	Counters   Counters    `json:"counters"`
	Exceptions []Exception `json:"exceptions"`
	Link       Link        `json:"link"`
}

// Diagnostics collects operation counters, a bounded exception log and the
// link health. All methods are safe for concurrent use.
type Diagnostics struct {
	mu  sync.Mutex
	max int
	now func() time.Time

	counters   Counters
	exceptions []Exception

	health     Health
	lastCode   mberr.Code
	errorSince time.Time

	metrics *metrics
}

// New builds a Diagnostics and registers its collectors.
func New(opts Options) (*Diagnostics, error) {
	d := &Diagnostics{
		max:     opts.MaxExceptions,
		now:     opts.Now,
		metrics: newMetrics(),
	}
	if d.max <= 0 {
		d.max = DefaultMaxExceptions
	}
	if d.now == nil {
		d.now = time.Now
	}
	if opts.Registerer != nil {
		if err := d.metrics.register(opts.Registerer); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// ---- recording ----

// RecordOperation counts one dispatched operation and folds its result into
// the link health.
func (d *Diagnostics) RecordOperation(err error) {
	code := mberr.CodeOf(err)

	d.mu.Lock()
	d.counters.Operations++
	d.observe(code)
	d.mu.Unlock()

	d.metrics.operations.WithLabelValues(resultLabel(code)).Inc()
}

// RecordBroadcast counts one broadcast write.
func (d *Diagnostics) RecordBroadcast() {
	d.mu.Lock()
	d.counters.BroadcastsSent++
	d.mu.Unlock()

	d.metrics.broadcasts.Inc()
}

// RecordException appends an exception to the log, dropping the oldest entry
// once the log is full.
func (d *Diagnostics) RecordException(exc, unit uint8, address uint16) {
	e := Exception{
		Code:    exc,
		Name:    mberr.ExceptionName(exc),
		Unit:    unit,
		Address: address,
	}

	d.mu.Lock()
	e.At = d.now()
	if len(d.exceptions) >= d.max {
		n := copy(d.exceptions, d.exceptions[len(d.exceptions)-d.max+1:])
		d.exceptions = d.exceptions[:n]
	}
	d.exceptions = append(d.exceptions, e)
	d.mu.Unlock()

	d.metrics.exceptions.WithLabelValues(e.Name).Inc()
}

// SetDisabled marks the link as released.
func (d *Diagnostics) SetDisabled() {
	d.mu.Lock()
	d.health = HealthDisabled
	d.errorSince = time.Time{}
	d.mu.Unlock()

	d.metrics.linkUp.Set(0)
}

// observe updates the link state. Caller holds mu.
// A disabled link stays disabled.
func (d *Diagnostics) observe(code mberr.Code) {
	if d.health == HealthDisabled {
		return
	}
	switch {
	case code == mberr.OK || code.IsException():
		d.health = HealthOK
		d.errorSince = time.Time{}
		if code != mberr.OK {
			d.lastCode = code
		}
		d.metrics.linkUp.Set(1)

	case linkFailure(code):
		if d.health != HealthError {
			d.errorSince = d.now()
		}
		d.health = HealthError
		d.lastCode = code
		d.metrics.linkUp.Set(0)
	}
}

// ---- reading ----

// Snapshot returns a copy of the current state.
func (d *Diagnostics) Snapshot() Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()

	s := Snapshot{
		Counters:   d.counters,
		Exceptions: make([]Exception, len(d.exceptions)),
		Link: Link{
			Health:        d.health,
			LastErrorCode: int(d.lastCode),
		},
	}
	copy(s.Exceptions, d.exceptions)
	if d.health == HealthError && !d.errorSince.IsZero() {
		s.Link.SecondsInError = uint64(d.now().Sub(d.errorSince) / time.Second)
	}
	return s
}

// Reset clears the counters and the exception log. Link health is state,
// not a counter, and survives.
func (d *Diagnostics) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.counters = Counters{}
	d.exceptions = d.exceptions[:0]
}

// Collectors exposes the prometheus collectors, e.g. for a private registry.
func (d *Diagnostics) Collectors() []prometheus.Collector {
	return d.metrics.collectors()
}

func resultLabel(code mberr.Code) string {
	if code.IsException() {
		return "exception"
	}
	return code.String()
}
