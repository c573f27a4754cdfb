// internal/poller/poller.go
package poller

import (
	"context"
	"errors"
	"time"

	"github.com/tamzrod/modbus-gateway/internal/value"
)

// Reader abstracts the gateway operation the poller needs.
// The poller depends on item names only.
type Reader interface {
	Read(ctx context.Context, name string) (value.Value, error)
}

// Config is the minimal runtime config the poller needs.
type Config struct {
	Group    string
	Interval time.Duration
	Items    []string
}

// Poller is a dumb, clock-driven reader.
type Poller struct {
	cfg    Config
	reader Reader
	now    func() time.Time
}

// New creates a poller with immutable config.
func New(cfg Config, reader Reader) (*Poller, error) {
	if cfg.Group == "" {
		return nil, errors.New("poller: group required")
	}
	if cfg.Interval <= 0 {
		return nil, errors.New("poller: interval must be > 0")
	}
	if len(cfg.Items) == 0 {
		return nil, errors.New("poller: at least one item required")
	}
	if reader == nil {
		return nil, errors.New("poller: reader required")
	}
	return &Poller{cfg: cfg, reader: reader, now: time.Now}, nil
}

// Config returns the poller configuration.
func (p *Poller) Config() Config { return p.cfg }

// PollOnce performs exactly one poll cycle.
// A failing item does not abort the cycle; its Sample carries the error.
// A cancelled context does.
func (p *Poller) PollOnce(ctx context.Context) PollResult {
	res := PollResult{
		Group:   p.cfg.Group,
		At:      p.now(),
		Samples: make([]Sample, 0, len(p.cfg.Items)),
	}

	for _, name := range p.cfg.Items {
		if ctx.Err() != nil {
			break
		}
		v, err := p.reader.Read(ctx, name)
		res.Samples = append(res.Samples, Sample{
			Name:  name,
			Value: v,
			Err:   err,
			At:    p.now(),
		})
	}

	return res
}
