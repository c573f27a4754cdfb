// internal/reconnect/policy.go
package reconnect

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/tamzrod/modbus-gateway/internal/mberr"
)

// Policy controls how a NOT_CONNECTED result is retried.
type Policy struct {
	// Retries is the number of reconnect attempts. Zero disables them.
	Retries int
	// Interval is the wait before the first attempt. Zero means no wait.
	Interval time.Duration
	// BackoffMultiplier grows the wait after each attempt. Values below 1 act as 1.
	BackoffMultiplier float64
	// MaxInterval caps the wait. Zero means no cap.
	MaxInterval time.Duration
}

// Default is one immediate retry.
func Default() Policy {
	return Policy{Retries: 1, BackoffMultiplier: 1.0}
}

// Validate rejects negative values.
func (p Policy) Validate() error {
	switch {
	case p.Retries < 0:
		return errors.New("reconnect: retries must be >= 0")
	case p.Interval < 0:
		return errors.New("reconnect: interval must be >= 0")
	case p.BackoffMultiplier < 0:
		return errors.New("reconnect: backoff multiplier must be >= 0")
	case p.MaxInterval < 0:
		return errors.New("reconnect: max interval must be >= 0")
	}
	return nil
}

// next returns the wait that follows w.
func (p Policy) next(w time.Duration) time.Duration {
	if w <= 0 {
		return 0
	}
	m := p.BackoffMultiplier
	if m < 1 {
		m = 1
	}
	n := time.Duration(float64(w) * m)
	if p.MaxInterval > 0 && n > p.MaxInterval {
		n = p.MaxInterval
	}
	return n
}

// Waits lists the sleeps Call would perform if every attempt failed.
func (p Policy) Waits() []time.Duration {
	if p.Retries <= 0 {
		return nil
	}
	out := make([]time.Duration, 0, p.Retries)
	w := p.Interval
	for i := 0; i < p.Retries; i++ {
		out = append(out, w)
		w = p.next(w)
	}
	return out
}

// ---- retry loop ----

// Connector re-establishes the link.
type Connector interface {
	Connect() error
}

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Sleep is the real-time SleepFunc.
func Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Retrier runs operations under a Policy.
type Retrier struct {
	Policy Policy
	Sleep  SleepFunc
	Logger zerolog.Logger
}

// New builds a Retrier with real-time sleeping.
func New(p Policy, logger zerolog.Logger) *Retrier {
	return &Retrier{Policy: p, Sleep: Sleep, Logger: logger}
}

// Do runs op. While it reports NOT_CONNECTED and attempts remain, Do waits,
// reconnects through c and runs op again. Connect errors are ignored; the
// retried op reports the link state. The last op result is returned.
func (r *Retrier) Do(ctx context.Context, c Connector, op func() error) error {
	err := op()
	if !mberr.IsNotConnected(err) || r.Policy.Retries <= 0 {
		return err
	}

	sleep := r.Sleep
	if sleep == nil {
		sleep = Sleep
	}

	wait := r.Policy.Interval
	for attempt := 1; attempt <= r.Policy.Retries; attempt++ {
		if wait > 0 {
			if serr := sleep(ctx, wait); serr != nil {
				return err
			}
		}

		cerr := c.Connect()
		r.Logger.Debug().
			Int("attempt", attempt).
			Dur("wait", wait).
			AnErr("connect_err", cerr).
			Msg("reconnect")

		err = op()
		if !mberr.IsNotConnected(err) {
			return err
		}
		wait = r.Policy.next(wait)
	}

	r.Logger.Warn().Int("attempts", r.Policy.Retries).Msg("reconnect exhausted")
	return err
}
