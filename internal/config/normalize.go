// internal/config/normalize.go
package config

import (
	"strings"
	"time"

	"github.com/tamzrod/modbus-gateway/internal/codec"
	"github.com/tamzrod/modbus-gateway/internal/diagnostics"
	"github.com/tamzrod/modbus-gateway/internal/logging"
	"github.com/tamzrod/modbus-gateway/internal/reconnect"
	"github.com/tamzrod/modbus-gateway/internal/registry"
)

// Defaults applied by Normalize.
const (
	DefaultHost      = "127.0.0.1"
	DefaultPort      = 1502
	DefaultTimeoutMs = 1000
	DefaultBaudRate  = 19200
	DefaultUnitID    = 1
	DefaultFunction  = 3
	DefaultType      = registry.Int16
)

// Normalize applies post-validation normalization.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	cfg.Transport = strings.ToLower(cfg.Transport)
	if cfg.Transport == "" {
		cfg.Transport = TransportTCP
	}

	// ---- tcp ----
	if cfg.TCP.Host == "" {
		cfg.TCP.Host = DefaultHost
	}
	if cfg.TCP.Port == 0 {
		cfg.TCP.Port = DefaultPort
	}
	if cfg.TCP.TimeoutMs == 0 {
		cfg.TCP.TimeoutMs = DefaultTimeoutMs
	}

	// ---- serial ----
	if cfg.Serial.BaudRate == 0 {
		cfg.Serial.BaudRate = DefaultBaudRate
	}
	if cfg.Serial.DataBits == 0 {
		cfg.Serial.DataBits = 8
	}
	if cfg.Serial.StopBits == 0 {
		cfg.Serial.StopBits = 1
	}
	cfg.Serial.Parity = strings.ToUpper(cfg.Serial.Parity)
	if cfg.Serial.Parity == "" {
		cfg.Serial.Parity = "E"
	}
	if cfg.Serial.TimeoutMs == 0 {
		cfg.Serial.TimeoutMs = DefaultTimeoutMs
	}

	// ---- reconnect ----
	if cfg.Reconnect.Retries == nil {
		n := 1
		cfg.Reconnect.Retries = &n
	}
	if cfg.Reconnect.BackoffMultiplier == nil {
		m := 1.0
		cfg.Reconnect.BackoffMultiplier = &m
	}

	// ---- ambient ----
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = logging.FormatJSON
	}
	if cfg.Diagnostics.MaxExceptions == 0 {
		cfg.Diagnostics.MaxExceptions = diagnostics.DefaultMaxExceptions
	}

	// ---- items ----
	for i := range cfg.Items {
		it := &cfg.Items[i]

		if it.UnitID == nil {
			n := DefaultUnitID
			it.UnitID = &n
		}
		if it.Function == nil {
			n := DefaultFunction
			it.Function = &n
		}
		if it.Scale == nil {
			s := 1.0
			it.Scale = &s
		}

		it.Type = strings.ToLower(it.Type)
		if it.Type == "" {
			it.Type = string(DefaultType)
		}
		if t, err := registry.ParseDataType(it.Type); err == nil {
			it.Type = string(t)
		}

		it.WordOrder = strings.ToUpper(it.WordOrder)
		if it.WordOrder == "" {
			it.WordOrder = string(codec.ABCD)
		}
	}
}

// ---- conversion ----

// RegistryItems converts normalized items for registry.Build.
func (c *Config) RegistryItems() []registry.ItemConfig {
	out := make([]registry.ItemConfig, 0, len(c.Items))
	for _, it := range c.Items {
		rc := registry.ItemConfig{
			Name:      it.Name,
			Address:   it.Address,
			Type:      registry.DataType(it.Type),
			Offset:    it.Offset,
			SwapWords: it.SwapWords,
			WordOrder: codec.WordOrder(it.WordOrder),
			PollMs:    it.PollMs,
			Scale:     1.0,
			UnitID:    DefaultUnitID,
			Function:  DefaultFunction,
		}
		if it.UnitID != nil {
			rc.UnitID = *it.UnitID
		}
		if it.Function != nil {
			rc.Function = registry.Function(*it.Function)
		}
		if it.Scale != nil {
			rc.Scale = *it.Scale
		}
		if it.Count != nil {
			rc.Count = *it.Count
			rc.CountSet = true
		}
		out = append(out, rc)
	}
	return out
}

// Policy converts the reconnect block.
func (r ReconnectConfig) Policy() reconnect.Policy {
	p := reconnect.Default()
	if r.Retries != nil {
		p.Retries = *r.Retries
	}
	if r.BackoffMultiplier != nil {
		p.BackoffMultiplier = *r.BackoffMultiplier
	}
	p.Interval = time.Duration(r.IntervalMs) * time.Millisecond
	p.MaxInterval = time.Duration(r.MaxIntervalMs) * time.Millisecond
	return p
}

// LoggerConfig converts the logging block.
func (l LoggingConfig) LoggerConfig() logging.Config {
	return logging.Config{Level: l.Level, Format: l.Format}
}

// Timeout is the response timeout of the selected transport.
func (c *Config) Timeout() time.Duration {
	ms := c.TCP.TimeoutMs
	if c.Transport == TransportRTU || c.Transport == TransportASCII {
		ms = c.Serial.TimeoutMs
	}
	return time.Duration(ms) * time.Millisecond
}
