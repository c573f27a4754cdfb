// cmd/gateway/build.go
package main

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	"github.com/tamzrod/modbus-gateway/internal/config"
	"github.com/tamzrod/modbus-gateway/internal/diagnostics"
	"github.com/tamzrod/modbus-gateway/internal/gateway"
	"github.com/tamzrod/modbus-gateway/internal/registry"
	"github.com/tamzrod/modbus-gateway/internal/transport"
	"github.com/tamzrod/modbus-gateway/internal/transport/goburrow"
	"github.com/tamzrod/modbus-gateway/internal/transport/memory"
)

// app is everything main needs after the config is loaded.
type app struct {
	cfg     *config.Config
	gw      *gateway.Gateway
	metrics *prometheus.Registry
	logger  zerolog.Logger
}

// buildTransport picks the link implementation for cfg.Transport.
func buildTransport(cfg *config.Config, logger zerolog.Logger) (transport.Transport, error) {
	switch cfg.Transport {
	case config.TransportStub:
		return memory.New(nil), nil

	case config.TransportTCP:
		return goburrow.New(goburrow.Config{
			Mode:        goburrow.ModeTCP,
			Address:     net.JoinHostPort(cfg.TCP.Host, strconv.Itoa(cfg.TCP.Port)),
			Timeout:     cfg.Timeout(),
			IdleTimeout: time.Duration(cfg.TCP.IdleTimeoutMs) * time.Millisecond,
		}, logger)

	case config.TransportRTU, config.TransportASCII:
		mode := goburrow.ModeRTU
		if cfg.Transport == config.TransportASCII {
			mode = goburrow.ModeASCII
		}
		return goburrow.New(goburrow.Config{
			Mode:     mode,
			Address:  cfg.Serial.Device,
			Timeout:  cfg.Timeout(),
			BaudRate: cfg.Serial.BaudRate,
			DataBits: cfg.Serial.DataBits,
			Parity:   cfg.Serial.Parity,
			StopBits: cfg.Serial.StopBits,
		}, logger)
	}
	return nil, fmt.Errorf("unknown transport %q", cfg.Transport)
}

// build wires registry, transport, diagnostics and gateway from a
// validated config.
func build(cfg *config.Config, logger zerolog.Logger) (*app, error) {
	reg, err := registry.Build(cfg.RegistryItems())
	if err != nil {
		return nil, fmt.Errorf("registry: %w", err)
	}

	tr, err := buildTransport(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("transport: %w", err)
	}

	metrics := prometheus.NewRegistry()
	metrics.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	diag, err := diagnostics.New(diagnostics.Options{
		MaxExceptions: cfg.Diagnostics.MaxExceptions,
		Registerer:    metrics,
	})
	if err != nil {
		return nil, err
	}

	gw, err := gateway.New(gateway.Options{
		Registry:    reg,
		Transport:   tr,
		Reconnect:   cfg.Reconnect.Policy(),
		Timeout:     cfg.Timeout(),
		Diagnostics: diag,
		Logger:      logger,
	})
	if err != nil {
		return nil, err
	}

	return &app{cfg: cfg, gw: gw, metrics: metrics, logger: logger}, nil
}
