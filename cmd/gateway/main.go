// cmd/gateway/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tamzrod/modbus-gateway/internal/config"
	"github.com/tamzrod/modbus-gateway/internal/gateway"
	"github.com/tamzrod/modbus-gateway/internal/httpapi"
	"github.com/tamzrod/modbus-gateway/internal/logging"
	"github.com/tamzrod/modbus-gateway/internal/poller"
)

const usage = `usage:
  gateway <config.yaml>                        run pollers and the HTTP API
  gateway <config.yaml> read <item>            read one item, print JSON
  gateway <config.yaml> write <item> <json>    write one item
  gateway <config.yaml> call <method> [json]   run a host method`

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	if len(args) < 1 {
		return errors.New(usage)
	}

	// --------------------
	// Load + validate config
	// --------------------

	cfg, err := config.Load(args[0])
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}

	logger, err := logging.New(cfg.Logging.LoggerConfig(), os.Stderr)
	if err != nil {
		return err
	}

	a, err := build(cfg, logger)
	if err != nil {
		return fmt.Errorf("gateway build failed: %w", err)
	}
	defer a.gw.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd, rest := "serve", args[1:]
	if len(rest) > 0 {
		cmd, rest = rest[0], rest[1:]
	}

	switch cmd {
	case "serve":
		return a.serve(ctx)

	case "read":
		if len(rest) != 1 {
			return errors.New(usage)
		}
		out, err := a.gw.ReadJSON(ctx, rest[0])
		return emit(stdout, out, err)

	case "write":
		if len(rest) != 2 {
			return errors.New(usage)
		}
		err := a.gw.WriteJSON(ctx, rest[0], []byte(rest[1]))
		return emit(stdout, []byte(`{"ok":true}`), err)

	case "call":
		if len(rest) < 1 || len(rest) > 2 {
			return errors.New(usage)
		}
		var params []byte
		if len(rest) == 2 {
			params = []byte(rest[1])
		}
		out, err := a.gw.Call(ctx, rest[0], params)
		return emit(stdout, out, err)
	}
	return fmt.Errorf("unknown command %q\n%s", cmd, usage)
}

// emit prints the result document, or the error document followed by a
// non-nil error so the exit status reflects the failure.
func emit(w io.Writer, out []byte, err error) error {
	if err != nil {
		fmt.Fprintln(w, string(gateway.EncodeError(err)))
		return err
	}
	fmt.Fprintln(w, string(out))
	return nil
}

// serve runs the pollers and the HTTP API until ctx is cancelled.
func (a *app) serve(ctx context.Context) error {
	pollers, err := poller.Build(a.gw.Registry(), a.gw)
	if err != nil {
		return fmt.Errorf("poller build failed: %w", err)
	}

	store := poller.NewStore()
	g, ctx := errgroup.WithContext(ctx)

	// ---- pollers -> store ----
	out := make(chan poller.PollResult)
	for _, p := range pollers {
		p := p
		g.Go(func() error {
			p.Run(ctx, out)
			return nil
		})
	}
	g.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return nil
			case res := <-out:
				store.Update(res)
				if n := res.Failed(); n > 0 {
					a.logger.Warn().Str("group", res.Group).Int("failed", n).Msg("poll cycle had errors")
				}
			}
		}
	})

	// ---- http ----
	if a.cfg.HTTP.Listen != "" {
		h, err := httpapi.New(httpapi.Options{
			Gateway:  a.gw,
			Store:    store,
			Gatherer: a.metrics,
			Logger:   a.logger,
		})
		if err != nil {
			return err
		}
		srv := httpapi.NewServer(a.cfg.HTTP.Listen, h)

		g.Go(func() error {
			a.logger.Info().Str("listen", srv.Addr).Msg("http api listening")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("http: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	a.logger.Info().Int("poll_groups", len(pollers)).Msg("gateway serving")
	if len(pollers) == 0 && a.cfg.HTTP.Listen == "" {
		a.logger.Warn().Msg("nothing to serve: no polled items and no http.listen")
	}

	err = g.Wait()
	a.logger.Info().Msg("gateway stopped")
	return err
}
