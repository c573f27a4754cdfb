// internal/value/json.go
package value

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrSyntax is returned for payloads that are not a JSON literal the
// gateway understands (bool, number, or array of those).
var ErrSyntax = errors.New("value: malformed payload")

// ErrNonFinite is returned for numbers that overflow float64 or spell NaN/Inf.
var ErrNonFinite = errors.New("value: non-finite number")

// ParseJSON decodes a JSON literal into a Value.
// Integers without fraction or exponent become Int or Uint, other numbers Float.
// Strings and objects are kept out: they have no wire representation.
func ParseJSON(data []byte) (Value, error) {
	trimmed := bytes.TrimSpace(data)
	if isNonFiniteLiteral(trimmed) {
		return Value{}, ErrNonFinite
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return Value{}, fmt.Errorf("%w: %v", ErrSyntax, err)
	}
	if dec.More() {
		return Value{}, fmt.Errorf("%w: trailing data", ErrSyntax)
	}
	return fromAny(raw, true)
}

func fromAny(raw any, top bool) (Value, error) {
	switch x := raw.(type) {
	case bool:
		return Bool(x), nil
	case json.Number:
		return fromNumber(x)
	case []any:
		if !top {
			return Value{}, fmt.Errorf("%w: nested arrays", ErrSyntax)
		}
		out := make([]Value, len(x))
		for i, e := range x {
			v, err := fromAny(e, false)
			if err != nil {
				return Value{}, fmt.Errorf("element %d: %w", i, err)
			}
			out[i] = v
		}
		return Value{kind: KindList, list: out}, nil
	case nil:
		return Value{}, fmt.Errorf("%w: null", ErrSyntax)
	case string:
		return Value{}, fmt.Errorf("%w: string %q", ErrSyntax, x)
	default:
		return Value{}, fmt.Errorf("%w: unsupported %T", ErrSyntax, raw)
	}
}

func fromNumber(n json.Number) (Value, error) {
	s := n.String()
	if !strings.ContainsAny(s, ".eE") {
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return Int(i), nil
		}
		if u, err := strconv.ParseUint(s, 10, 64); err == nil {
			return Uint(u), nil
		}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return Value{}, ErrNonFinite
	}
	return Float(f), nil
}

func isNonFiniteLiteral(b []byte) bool {
	s := strings.ToLower(string(b))
	switch s {
	case "nan", "-nan", "inf", "-inf", "+inf", "infinity", "-infinity":
		return true
	}
	return false
}

// MarshalJSON renders the value as a JSON literal.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindBool:
		return json.Marshal(v.b)
	case KindInt:
		return json.Marshal(v.i)
	case KindUint:
		return json.Marshal(v.u)
	case KindFloat:
		if math.IsNaN(v.f) || math.IsInf(v.f, 0) {
			return json.Marshal(v.String())
		}
		return json.Marshal(v.f)
	case KindList:
		if v.list == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.list)
	}
	return []byte("null"), nil
}
