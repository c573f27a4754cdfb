// internal/simulator/server.go
package simulator

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/simonvetter/modbus"
)

// Server is a Modbus TCP device backed by a Bank.
type Server struct {
	Bank *Bank
	srv  *modbus.ModbusServer
}

// ServerConfig configures the listening side.
type ServerConfig struct {
	// URL is where to listen, e.g. tcp://127.0.0.1:1502.
	URL         string
	IdleTimeout time.Duration
	MaxClients  uint
	Sizes       Sizes
}

// NewServer builds a server over a fresh Bank. Call Start to listen.
func NewServer(cfg ServerConfig, logger zerolog.Logger) (*Server, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("simulator: url required")
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = 30 * time.Second
	}
	if cfg.MaxClients == 0 {
		cfg.MaxClients = 5
	}

	bank := NewBank(cfg.Sizes)
	srv, err := modbus.NewServer(&modbus.ServerConfiguration{
		URL:        cfg.URL,
		Timeout:    cfg.IdleTimeout,
		MaxClients: cfg.MaxClients,
	}, NewHandler(bank, logger))
	if err != nil {
		return nil, fmt.Errorf("simulator: %w", err)
	}

	return &Server{Bank: bank, srv: srv}, nil
}

// Start begins accepting clients and returns immediately.
func (s *Server) Start() error { return s.srv.Start() }

// Stop closes the listener and all client sessions.
func (s *Server) Stop() error { return s.srv.Stop() }
