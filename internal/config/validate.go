// internal/config/validate.go
package config

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/tamzrod/modbus-gateway/internal/codec"
	"github.com/tamzrod/modbus-gateway/internal/registry"
	"github.com/tamzrod/modbus-gateway/internal/transport"
)

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
//
// Item wire rules (type/function compatibility, float widths, unit range)
// are owned by registry.Build; Validate covers the file-level rules.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config: nil config")
	}

	// ------------------------------------------------------------
	// TRANSPORT
	// ------------------------------------------------------------

	switch strings.ToLower(cfg.Transport) {
	case "", TransportTCP, TransportStub:
	case TransportRTU, TransportASCII:
		if cfg.Serial.Device == "" {
			return fmt.Errorf("config: transport %q requires serial.device", cfg.Transport)
		}
	default:
		return fmt.Errorf("config: invalid transport %q (expected tcp|rtu|ascii|stub)", cfg.Transport)
	}

	if cfg.TCP.Port < 0 || cfg.TCP.Port > 65535 {
		return fmt.Errorf("config: tcp.port %d out of range", cfg.TCP.Port)
	}
	if cfg.TCP.TimeoutMs < 0 || cfg.TCP.IdleTimeoutMs < 0 {
		return fmt.Errorf("config: tcp timeouts must be >= 0")
	}

	s := cfg.Serial
	switch strings.ToUpper(s.Parity) {
	case "", "N", "E", "O":
	default:
		return fmt.Errorf("config: serial.parity %q (expected N|E|O)", s.Parity)
	}
	if s.DataBits != 0 && (s.DataBits < 5 || s.DataBits > 8) {
		return fmt.Errorf("config: serial.data_bits %d out of range", s.DataBits)
	}
	if s.StopBits != 0 && s.StopBits != 1 && s.StopBits != 2 {
		return fmt.Errorf("config: serial.stop_bits %d (expected 1|2)", s.StopBits)
	}
	if s.BaudRate < 0 || s.TimeoutMs < 0 {
		return fmt.Errorf("config: serial.baud_rate and serial.timeout_ms must be >= 0")
	}

	// ------------------------------------------------------------
	// RECONNECT
	// ------------------------------------------------------------

	r := cfg.Reconnect
	if r.Retries != nil && *r.Retries < 0 {
		return fmt.Errorf("config: reconnect.retries must be >= 0")
	}
	if r.IntervalMs < 0 || r.MaxIntervalMs < 0 {
		return fmt.Errorf("config: reconnect intervals must be >= 0")
	}
	if r.BackoffMultiplier != nil && *r.BackoffMultiplier < 0 {
		return fmt.Errorf("config: reconnect.backoff_multiplier must be >= 0")
	}

	// ------------------------------------------------------------
	// AMBIENT
	// ------------------------------------------------------------

	if cfg.Logging.Level != "" {
		if _, err := zerolog.ParseLevel(strings.ToLower(cfg.Logging.Level)); err != nil {
			return fmt.Errorf("config: logging.level %q invalid", cfg.Logging.Level)
		}
	}
	switch strings.ToLower(cfg.Logging.Format) {
	case "", "json", "console":
	default:
		return fmt.Errorf("config: logging.format %q (expected json|console)", cfg.Logging.Format)
	}
	if cfg.Diagnostics.MaxExceptions < 0 {
		return fmt.Errorf("config: diagnostics.max_exceptions must be >= 0")
	}

	// ------------------------------------------------------------
	// ITEMS
	// ------------------------------------------------------------

	if len(cfg.Items) == 0 {
		return fmt.Errorf("config: at least one item required")
	}

	seen := make(map[string]int, len(cfg.Items))
	for i, it := range cfg.Items {
		if it.Name == "" {
			return fmt.Errorf("config: items[%d]: name must not be empty", i)
		}
		if prev, dup := seen[it.Name]; dup {
			return fmt.Errorf("config: items[%d]: name %q already used by items[%d]", i, it.Name, prev)
		}
		seen[it.Name] = i

		if it.Type != "" {
			if _, err := registry.ParseDataType(strings.ToLower(it.Type)); err != nil {
				return fmt.Errorf("config: item %q: %w", it.Name, err)
			}
		}
		if _, err := codec.ParseWordOrder(strings.ToUpper(it.WordOrder)); err != nil {
			return fmt.Errorf("config: item %q: %w", it.Name, err)
		}
		if it.PollMs < 0 {
			return fmt.Errorf("config: item %q: poll_ms must be >= 0", it.Name)
		}
		if err := checkQuantity(it); err != nil {
			return fmt.Errorf("config: item %q: %w", it.Name, err)
		}
	}

	return nil
}

// checkQuantity enforces the per-request limits of the Modbus PDU so that
// an item never needs more than one request.
func checkQuantity(it ItemConfig) error {
	if it.Count == nil || it.Function == nil {
		return nil
	}
	n := *it.Count

	var limit int
	switch *it.Function {
	case 1, 2:
		limit = transport.MaxReadBits
	case 3, 4:
		limit = transport.MaxReadRegisters
	case 15:
		limit = transport.MaxWriteBits
	case 16:
		limit = transport.MaxWriteRegisters
	default:
		return nil
	}
	if n > limit {
		return fmt.Errorf("count %d exceeds %d for function %d", n, limit, *it.Function)
	}
	return nil
}
