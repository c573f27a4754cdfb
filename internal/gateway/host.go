// internal/gateway/host.go
package gateway

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/rs/zerolog"

	"github.com/tamzrod/modbus-gateway/internal/codec"
	"github.com/tamzrod/modbus-gateway/internal/diagnostics"
	"github.com/tamzrod/modbus-gateway/internal/mberr"
	"github.com/tamzrod/modbus-gateway/internal/registry"
	"github.com/tamzrod/modbus-gateway/internal/value"
)

// Host methods accepted by Call.
const (
	MethodDiagnosticsSnapshot = "diagnostics.snapshot"
	MethodDiagnosticsReset    = "diagnostics.reset"
	MethodReconnect           = "connection.reconnect"
	MethodLoggerSet           = "logger.set"
	MethodItemsList           = "items.list"
)

var okDoc = []byte(`{"ok":true}`)

// ---- JSON veneer ----

// ReadJSON reads the item and renders the value as a JSON literal.
func (g *Gateway) ReadJSON(ctx context.Context, name string) ([]byte, error) {
	v, err := g.Read(ctx, name)
	if err != nil {
		return nil, err
	}
	return json.Marshal(v)
}

// WriteJSON parses a JSON literal payload and writes it.
// Malformed or non-finite payloads count as an operation and fail with PARSE_ERROR.
func (g *Gateway) WriteJSON(ctx context.Context, name string, payload []byte) error {
	v, err := value.ParseJSON(payload)
	if err != nil {
		perr := mberr.Wrap(mberr.ParseError, err)
		return g.dispatch("write", name, func(registry.ItemConfig) error { return perr })
	}
	return g.Write(ctx, name, v)
}

// ErrorDoc is the host-facing error document.
type ErrorDoc struct {
	Error ErrorBody `json:"error"`
}

// ErrorBody carries the numeric code and, for exception responses, the
// decoded exception.
type ErrorBody struct {
	Code      int            `json:"code"`
	Message   string         `json:"message"`
	Exception *ExceptionBody `json:"exception,omitempty"`
}

// ExceptionBody names a Modbus exception code.
type ExceptionBody struct {
	Code uint8  `json:"code"`
	Name string `json:"name"`
}

// NewErrorDoc describes err for a host.
func NewErrorDoc(err error) ErrorDoc {
	code := mberr.CodeOf(err)
	doc := ErrorDoc{Error: ErrorBody{Code: int(code), Message: err.Error()}}
	if code.IsException() {
		exc := code.Exception()
		doc.Error.Exception = &ExceptionBody{Code: exc, Name: mberr.ExceptionName(exc)}
	}
	return doc
}

// EncodeError renders err as an ErrorDoc.
func EncodeError(err error) []byte {
	b, merr := json.Marshal(NewErrorDoc(err))
	if merr != nil {
		return []byte(`{"error":{"code":-4,"message":"unencodable error"}}`)
	}
	return b
}

// ---- host methods ----

// Call runs a host method. Unknown methods fail with UNSUPPORTED.
// Host methods are not item operations and leave the counters alone.
func (g *Gateway) Call(ctx context.Context, method string, params []byte) ([]byte, error) {
	switch method {
	case MethodDiagnosticsSnapshot:
		return diagnostics.Encode(g.diag.Snapshot())

	case MethodDiagnosticsReset:
		g.diag.Reset()
		return okDoc, nil

	case MethodReconnect:
		if err := g.Reconnect(); err != nil {
			return nil, err
		}
		return okDoc, nil

	case MethodLoggerSet:
		if err := g.setLogLevel(params); err != nil {
			return nil, err
		}
		return okDoc, nil

	case MethodItemsList:
		return json.Marshal(g.items())
	}
	return nil, mberr.New(mberr.Unsupported, "unknown method %q", method)
}

// Reconnect closes and reopens the link.
func (g *Gateway) Reconnect() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return mberr.New(mberr.NotConnected, "gateway closed")
	}
	_ = g.tr.Close()
	if err := g.tr.Connect(); err != nil {
		g.logger.Warn().Err(err).Msg("reconnect failed")
		return err
	}
	g.logger.Info().Msg("reconnected")
	return nil
}

type loggerParams struct {
	Level string `json:"level"`
}

func (g *Gateway) setLogLevel(params []byte) error {
	var p loggerParams
	if err := json.Unmarshal(params, &p); err != nil {
		return mberr.Wrap(mberr.ParseError, err)
	}
	if p.Level == "" {
		return mberr.New(mberr.InvalidArg, "level required")
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(p.Level))
	if err != nil {
		return mberr.Wrap(mberr.InvalidArg, err)
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.logger = g.logger.Level(lvl)
	g.retrier.Logger = g.retrier.Logger.Level(lvl)
	g.logger.Info().Str("level", lvl.String()).Msg("log level changed")
	return nil
}

// ItemInfo is one entry of the items.list result.
type ItemInfo struct {
	Name      string          `json:"name"`
	UnitID    int             `json:"unit_id"`
	Function  int             `json:"function"`
	Address   int             `json:"address"`
	Count     int             `json:"count"`
	Type      string          `json:"type"`
	Scale     float64         `json:"scale"`
	Offset    float64         `json:"offset"`
	SwapWords bool            `json:"swap_words"`
	WordOrder codec.WordOrder `json:"word_order"`
	PollMs    int             `json:"poll_ms,omitempty"`
}

func (g *Gateway) items() []ItemInfo {
	names := g.reg.Names()
	out := make([]ItemInfo, 0, len(names))
	for _, n := range names {
		it, _ := g.reg.Lookup(n)
		out = append(out, ItemInfo{
			Name:      it.Name,
			UnitID:    it.UnitID,
			Function:  int(it.Function),
			Address:   it.Address,
			Count:     it.Count,
			Type:      string(it.Type),
			Scale:     it.Scale,
			Offset:    it.Offset,
			SwapWords: it.SwapWords,
			WordOrder: it.WordOrder,
			PollMs:    it.PollMs,
		})
	}
	return out
}
