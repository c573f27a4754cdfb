// internal/gateway/gateway.go
package gateway

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tamzrod/modbus-gateway/internal/diagnostics"
	"github.com/tamzrod/modbus-gateway/internal/mberr"
	"github.com/tamzrod/modbus-gateway/internal/reconnect"
	"github.com/tamzrod/modbus-gateway/internal/registry"
	"github.com/tamzrod/modbus-gateway/internal/transport"
)

// Options wires a Gateway. Registry and Transport are required.
type Options struct {
	Registry  *registry.Registry
	Transport transport.Transport
	Reconnect reconnect.Policy
	// Timeout is pushed to the transport when > 0.
	Timeout time.Duration
	// Diagnostics defaults to an unregistered instance.
	Diagnostics *diagnostics.Diagnostics
	Logger      zerolog.Logger
	// Sleep replaces the reconnect wait, for tests.
	Sleep reconnect.SleepFunc
}

// Gateway maps named items onto one Modbus link.
//
// Every Read and Write holds mu for its whole duration, including reconnect
// waits: the link carries one request at a time.
type Gateway struct {
	mu      sync.Mutex
	reg     *registry.Registry
	tr      transport.Transport
	retrier *reconnect.Retrier
	diag    *diagnostics.Diagnostics
	logger  zerolog.Logger
	closed  bool
}

// New builds a Gateway and opens the link. A failed initial connect is
// logged and left to the reconnect policy.
func New(opts Options) (*Gateway, error) {
	if opts.Registry == nil {
		return nil, errors.New("gateway: registry required")
	}
	if opts.Transport == nil {
		return nil, errors.New("gateway: transport required")
	}
	if err := opts.Reconnect.Validate(); err != nil {
		return nil, fmt.Errorf("gateway: %w", err)
	}

	diag := opts.Diagnostics
	if diag == nil {
		var err error
		if diag, err = diagnostics.New(diagnostics.Options{}); err != nil {
			return nil, fmt.Errorf("gateway: %w", err)
		}
	}

	logger := opts.Logger.With().Str("component", "gateway").Logger()
	retrier := reconnect.New(opts.Reconnect, logger)
	if opts.Sleep != nil {
		retrier.Sleep = opts.Sleep
	}

	g := &Gateway{
		reg:     opts.Registry,
		tr:      opts.Transport,
		retrier: retrier,
		diag:    diag,
		logger:  logger,
	}

	if opts.Timeout > 0 {
		g.tr.SetTimeout(opts.Timeout)
	}
	if err := g.tr.Connect(); err != nil {
		g.logger.Warn().Err(err).Msg("initial connect failed")
	}

	g.logger.Info().
		Int("items", g.reg.Len()).
		Int("retries", opts.Reconnect.Retries).
		Dur("interval", opts.Reconnect.Interval).
		Float64("backoff", opts.Reconnect.BackoffMultiplier).
		Dur("max_interval", opts.Reconnect.MaxInterval).
		Msg("gateway ready")

	return g, nil
}

// Registry returns the item registry.
func (g *Gateway) Registry() *registry.Registry { return g.reg }

// Diagnostics returns the diagnostics collector.
func (g *Gateway) Diagnostics() *diagnostics.Diagnostics { return g.diag }

// Close releases the transport. Later operations fail with NOT_CONNECTED.
func (g *Gateway) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return nil
	}
	g.closed = true
	g.diag.SetDisabled()
	g.logger.Info().Msg("gateway closed")
	return g.tr.Close()
}

// ---- dispatch ----

// dispatch runs fn for the named item under the link lock and counts the
// operation exactly once, whatever the outcome.
func (g *Gateway) dispatch(op, name string, fn func(registry.ItemConfig) error) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	err := g.dispatchLocked(name, fn)
	g.diag.RecordOperation(err)

	if err != nil {
		g.logger.Debug().Err(err).Str("op", op).Str("item", name).Int("code", int(mberr.CodeOf(err))).Msg("operation failed")
		return fmt.Errorf("gateway: %s %q: %w", op, name, err)
	}
	g.logger.Trace().Str("op", op).Str("item", name).Msg("operation ok")
	return nil
}

func (g *Gateway) dispatchLocked(name string, fn func(registry.ItemConfig) error) error {
	it, ok := g.reg.Lookup(name)
	if !ok {
		return mberr.New(mberr.NotFound, "no such item")
	}
	if g.closed {
		return mberr.New(mberr.NotConnected, "gateway closed")
	}
	return fn(it)
}

// call runs one transport request through the reconnect policy and records
// exception responses. Caller holds mu.
func (g *Gateway) call(ctx context.Context, it registry.ItemConfig, op func() error) error {
	err := g.retrier.Do(ctx, g.tr, op)
	if code := mberr.CodeOf(err); code.IsException() {
		g.diag.RecordException(code.Exception(), uint8(it.UnitID), uint16(it.Address))
	}
	return err
}
