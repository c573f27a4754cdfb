// internal/httpapi/server.go
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/tamzrod/modbus-gateway/internal/gateway"
	"github.com/tamzrod/modbus-gateway/internal/mberr"
	"github.com/tamzrod/modbus-gateway/internal/poller"
)

// maxBody bounds request payloads; a register array never needs more.
const maxBody = 64 << 10

// Gateway is the subset of *gateway.Gateway the API serves.
type Gateway interface {
	ReadJSON(ctx context.Context, name string) ([]byte, error)
	WriteJSON(ctx context.Context, name string, payload []byte) error
	Call(ctx context.Context, method string, params []byte) ([]byte, error)
}

// Options wires a Handler. Store and Gatherer are optional.
type Options struct {
	Gateway  Gateway
	Store    *poller.Store
	Gatherer prometheus.Gatherer
	Logger   zerolog.Logger
}

// Handler exposes the gateway over HTTP.
type Handler struct {
	gw     Gateway
	store  *poller.Store
	logger zerolog.Logger
	mux    *http.ServeMux
}

// New builds the handler and its routes.
func New(opts Options) (*Handler, error) {
	if opts.Gateway == nil {
		return nil, errors.New("httpapi: gateway required")
	}
	h := &Handler{
		gw:     opts.Gateway,
		store:  opts.Store,
		logger: opts.Logger.With().Str("component", "httpapi").Logger(),
		mux:    http.NewServeMux(),
	}

	h.mux.HandleFunc("GET /items", h.handleListItems)
	h.mux.HandleFunc("GET /items/{name}", h.handleRead)
	h.mux.HandleFunc("PUT /items/{name}", h.handleWrite)
	h.mux.HandleFunc("GET /diagnostics", h.handleDiagnostics)
	h.mux.HandleFunc("POST /diagnostics/reset", h.handleCallFixed(gateway.MethodDiagnosticsReset))
	h.mux.HandleFunc("POST /call/{method}", h.handleCall)
	h.mux.HandleFunc("GET /polled", h.handlePolled)
	h.mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	if opts.Gatherer != nil {
		h.mux.Handle("GET /metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{
			EnableOpenMetrics: true,
		}))
	}
	return h, nil
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// NewServer wraps the handler in an http.Server with sane timeouts.
func NewServer(addr string, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
	}
}

// ---- handlers ----

func (h *Handler) handleListItems(w http.ResponseWriter, r *http.Request) {
	out, err := h.gw.Call(r.Context(), gateway.MethodItemsList, nil)
	h.reply(w, out, err)
}

func (h *Handler) handleRead(w http.ResponseWriter, r *http.Request) {
	out, err := h.gw.ReadJSON(r.Context(), r.PathValue("name"))
	h.reply(w, out, err)
}

func (h *Handler) handleWrite(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
	if err != nil {
		h.reply(w, nil, mberr.Wrap(mberr.IOError, err))
		return
	}
	if err := h.gw.WriteJSON(r.Context(), r.PathValue("name"), body); err != nil {
		h.reply(w, nil, err)
		return
	}
	h.reply(w, []byte(`{"ok":true}`), nil)
}

func (h *Handler) handleDiagnostics(w http.ResponseWriter, r *http.Request) {
	out, err := h.gw.Call(r.Context(), gateway.MethodDiagnosticsSnapshot, nil)
	h.reply(w, out, err)
}

func (h *Handler) handleCallFixed(method string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out, err := h.gw.Call(r.Context(), method, nil)
		h.reply(w, out, err)
	}
}

func (h *Handler) handleCall(w http.ResponseWriter, r *http.Request) {
	params, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
	if err != nil {
		h.reply(w, nil, mberr.Wrap(mberr.IOError, err))
		return
	}
	out, err := h.gw.Call(r.Context(), r.PathValue("method"), params)
	h.reply(w, out, err)
}

type polledSample struct {
	Name  string             `json:"name"`
	Value json.RawMessage    `json:"value,omitempty"`
	Error *gateway.ErrorBody `json:"error,omitempty"`
	At    time.Time          `json:"at"`
}

func (h *Handler) handlePolled(w http.ResponseWriter, _ *http.Request) {
	if h.store == nil {
		h.reply(w, []byte(`[]`), nil)
		return
	}

	samples := h.store.All()
	out := make([]polledSample, 0, len(samples))
	for _, s := range samples {
		ps := polledSample{Name: s.Name, At: s.At}
		if s.Err != nil {
			body := gateway.NewErrorDoc(s.Err).Error
			ps.Error = &body
		} else if raw, err := json.Marshal(s.Value); err == nil {
			ps.Value = raw
		}
		out = append(out, ps)
	}

	body, err := json.Marshal(out)
	h.reply(w, body, err)
}

// ---- replies ----

func (h *Handler) reply(w http.ResponseWriter, body []byte, err error) {
	w.Header().Set("Content-Type", "application/json")
	if err != nil {
		status := StatusFor(err)
		if status >= http.StatusInternalServerError {
			h.logger.Warn().Err(err).Int("status", status).Msg("request failed")
		}
		w.WriteHeader(status)
		_, _ = w.Write(gateway.EncodeError(err))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// StatusFor maps a result code onto an HTTP status.
func StatusFor(err error) int {
	code := mberr.CodeOf(err)
	if code.IsException() {
		return http.StatusBadGateway
	}
	switch code {
	case mberr.OK:
		return http.StatusOK
	case mberr.NotFound:
		return http.StatusNotFound
	case mberr.InvalidArg, mberr.ParseError:
		return http.StatusBadRequest
	case mberr.Unsupported:
		return http.StatusMethodNotAllowed
	case mberr.NotConnected:
		return http.StatusServiceUnavailable
	case mberr.IOTimeout:
		return http.StatusGatewayTimeout
	}
	return http.StatusBadGateway
}
