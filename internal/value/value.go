// internal/value/value.go
package value

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind tags the variant held by a Value.
type Kind uint8

const (
	Invalid Kind = iota
	KindBool
	KindInt
	KindUint
	KindFloat
	KindList
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindUint:
		return "uint"
	case KindFloat:
		return "float"
	case KindList:
		return "list"
	}
	return "invalid"
}

// Value is a tagged union of the wire-level value shapes the gateway
// produces and accepts. Exactly one payload field is meaningful per Kind.
// The zero Value is Invalid.
type Value struct {
	kind Kind
	b    bool
	i    int64
	u    uint64
	f    float64
	list []Value
}

// ---- constructors ----

func Bool(b bool) Value     { return Value{kind: KindBool, b: b} }
func Int(i int64) Value     { return Value{kind: KindInt, i: i} }
func Uint(u uint64) Value   { return Value{kind: KindUint, u: u} }
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }

// List builds an ordered sequence. The slice is copied.
func List(vs ...Value) Value {
	out := make([]Value, len(vs))
	copy(out, vs)
	return Value{kind: KindList, list: out}
}

// Bools builds a list of Bool values.
func Bools(bs []bool) Value {
	out := make([]Value, len(bs))
	for i, b := range bs {
		out[i] = Bool(b)
	}
	return Value{kind: KindList, list: out}
}

// Registers builds a list of raw register values.
func Registers(regs []uint16) Value {
	out := make([]Value, len(regs))
	for i, r := range regs {
		out[i] = Uint(uint64(r))
	}
	return Value{kind: KindList, list: out}
}

// ---- accessors ----

func (v Value) Kind() Kind { return v.kind }

// AsBool returns the payload of a Bool.
func (v Value) AsBool() (bool, bool) {
	return v.b, v.kind == KindBool
}

// AsList returns the elements of a List.
func (v Value) AsList() ([]Value, bool) {
	if v.kind != KindList {
		return nil, false
	}
	return v.list, true
}

// Len is the number of list elements, 0 for scalars.
func (v Value) Len() int {
	return len(v.list)
}

// IsNumber reports whether v is Int, Uint or Float.
func (v Value) IsNumber() bool {
	switch v.kind {
	case KindInt, KindUint, KindFloat:
		return true
	}
	return false
}

// IsInteger reports whether v is Int or Uint.
func (v Value) IsInteger() bool {
	return v.kind == KindInt || v.kind == KindUint
}

// Float64 converts any numeric variant.
func (v Value) Float64() (float64, bool) {
	switch v.kind {
	case KindInt:
		return float64(v.i), true
	case KindUint:
		return float64(v.u), true
	case KindFloat:
		return v.f, true
	}
	return 0, false
}

// Int64 returns integer variants. Uint values above MaxInt64 fail.
func (v Value) Int64() (int64, bool) {
	switch v.kind {
	case KindInt:
		return v.i, true
	case KindUint:
		if v.u > math.MaxInt64 {
			return 0, false
		}
		return int64(v.u), true
	}
	return 0, false
}

// Truthy converts a Bool or an integer (non-zero is true).
func (v Value) Truthy() (bool, bool) {
	switch v.kind {
	case KindBool:
		return v.b, true
	case KindInt:
		return v.i != 0, true
	case KindUint:
		return v.u != 0, true
	}
	return false, false
}

// Equal compares kinds and payloads; lists element-wise.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindBool:
		return v.b == o.b
	case KindInt:
		return v.i == o.i
	case KindUint:
		return v.u == o.u
	case KindFloat:
		return v.f == o.f
	case KindList:
		if len(v.list) != len(o.list) {
			return false
		}
		for i := range v.list {
			if !v.list[i].Equal(o.list[i]) {
				return false
			}
		}
		return true
	}
	return true
}

func (v Value) String() string {
	switch v.kind {
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindUint:
		return strconv.FormatUint(v.u, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindList:
		parts := make([]string, len(v.list))
		for i, e := range v.list {
			parts[i] = e.String()
		}
		return "[" + strings.Join(parts, ",") + "]"
	}
	return fmt.Sprintf("<%s>", v.kind)
}
