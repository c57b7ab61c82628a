package tools

import (
	"fmt"
	"strconv"
)

// Kind is the type of a tool parameter value.
type Kind int

const (
	KindString Kind = iota
	KindInteger
	KindNumber
	KindBoolean
)

// String returns the JSON Schema type name for k.
func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInteger:
		return "integer"
	case KindNumber:
		return "number"
	case KindBoolean:
		return "boolean"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Value is a single argument value of one of the supported kinds.
type Value struct {
	kind Kind
	s    string
	i    int64
	f    float64
	b    bool
}

// StringValue returns a string Value.
func StringValue(s string) Value { return Value{kind: KindString, s: s} }

// IntegerValue returns an integer Value.
func IntegerValue(i int64) Value { return Value{kind: KindInteger, i: i} }

// NumberValue returns a number Value.
func NumberValue(f float64) Value { return Value{kind: KindNumber, f: f} }

// BooleanValue returns a boolean Value.
func BooleanValue(b bool) Value { return Value{kind: KindBoolean, b: b} }

// Kind reports the kind of v.
func (v Value) Kind() Kind { return v.kind }

// Interface returns v as a plain Go value (string, int64, float64, bool).
func (v Value) Interface() any {
	switch v.kind {
	case KindInteger:
		return v.i
	case KindNumber:
		return v.f
	case KindBoolean:
		return v.b
	default:
		return v.s
	}
}

// String renders v as text.
func (v Value) String() string {
	switch v.kind {
	case KindInteger:
		return strconv.FormatInt(v.i, 10)
	case KindNumber:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindBoolean:
		return strconv.FormatBool(v.b)
	default:
		return v.s
	}
}

// Args are the validated arguments passed to a tool handler. Every value
// has the kind its parameter declares.
type Args map[string]Value

// Has reports whether name is present.
func (a Args) Has(name string) bool {
	_, ok := a[name]
	return ok
}

// String returns the string argument name, or "" when absent.
func (a Args) String(name string) string {
	v, ok := a[name]
	if !ok || v.kind != KindString {
		return ""
	}
	return v.s
}

// Int returns the integer argument name.
func (a Args) Int(name string) (int64, bool) {
	v, ok := a[name]
	if !ok || v.kind != KindInteger {
		return 0, false
	}
	return v.i, true
}

// IntOr returns the integer argument name, or def when absent.
func (a Args) IntOr(name string, def int64) int64 {
	if i, ok := a.Int(name); ok {
		return i
	}
	return def
}

// Float returns the number argument name. Integer arguments are widened.
func (a Args) Float(name string) (float64, bool) {
	v, ok := a[name]
	if !ok {
		return 0, false
	}
	switch v.kind {
	case KindNumber:
		return v.f, true
	case KindInteger:
		return float64(v.i), true
	}
	return 0, false
}

// Bool returns the boolean argument name.
func (a Args) Bool(name string) (bool, bool) {
	v, ok := a[name]
	if !ok || v.kind != KindBoolean {
		return false, false
	}
	return v.b, true
}

// Map returns the arguments as plain Go values, for logging.
func (a Args) Map() map[string]any {
	m := make(map[string]any, len(a))
	for k, v := range a {
		m[k] = v.Interface()
	}
	return m
}
