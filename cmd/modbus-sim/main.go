// cmd/modbus-sim/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tamzrod/modbus-gateway/internal/logging"
	"github.com/tamzrod/modbus-gateway/internal/simulator"
)

func main() {
	listen := flag.String("listen", "tcp://127.0.0.1:1502", "listen url")
	size := flag.Int("size", 200, "points per table")
	idle := flag.Duration("idle-timeout", 30*time.Second, "client idle timeout")
	level := flag.String("log-level", "info", "log level")
	format := flag.String("log-format", logging.FormatConsole, "log format (json|console)")
	ramp := flag.Bool("ramp", false, "seed input registers with 0,1,2,... and odd discrete inputs on")
	flag.Parse()

	logger, err := logging.New(logging.Config{Level: *level, Format: *format}, os.Stderr)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	srv, err := simulator.NewServer(simulator.ServerConfig{
		URL:         *listen,
		IdleTimeout: *idle,
		Sizes: simulator.Sizes{
			Coils:            *size,
			DiscreteInputs:   *size,
			HoldingRegisters: *size,
			InputRegisters:   *size,
		},
	}, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("simulator build failed")
	}

	if *ramp {
		for i := 0; i < *size; i++ {
			srv.Bank.SeedInputRegisters(i, uint16(i))
			srv.Bank.SeedDiscreteInput(i, i%2 == 1)
		}
	}

	if err := srv.Start(); err != nil {
		logger.Fatal().Err(err).Msg("simulator start failed")
	}
	logger.Info().Str("listen", *listen).Int("size", *size).Msg("simulator listening")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	if err := srv.Stop(); err != nil {
		logger.Error().Err(err).Msg("simulator stop failed")
	}
	logger.Info().Msg("simulator stopped")
}
