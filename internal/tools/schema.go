package tools

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
)

// Param declares one named tool parameter.
type Param struct {
	Name        string
	Kind        Kind
	Description string
	Required    bool
	// Default fills the parameter when the model omits it. It must be
	// convertible to Kind; Register rejects it otherwise.
	Default any
	// Enum restricts a string parameter to the listed values.
	Enum []string
}

// Schema is the parameter list of a tool, in declaration order.
type Schema struct {
	Params []Param
}

// Param returns the declaration for name.
func (s Schema) Param(name string) (Param, bool) {
	for _, p := range s.Params {
		if p.Name == name {
			return p, true
		}
	}
	return Param{}, false
}

// JSON renders the schema as a JSON Schema object for advertising to a
// model.
func (s Schema) JSON() map[string]any {
	props := make(map[string]any, len(s.Params))
	var required []string
	for _, p := range s.Params {
		prop := map[string]any{"type": p.Kind.String()}
		if p.Description != "" {
			prop["description"] = p.Description
		}
		if len(p.Enum) > 0 {
			prop["enum"] = slices.Clone(p.Enum)
		}
		if p.Default != nil {
			prop["default"] = p.Default
		}
		props[p.Name] = prop
		if p.Required {
			required = append(required, p.Name)
		}
	}
	out := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		out["required"] = required
	}
	return out
}

// validate checks that the declarations are usable.
func (s Schema) validate() error {
	seen := make(map[string]bool, len(s.Params))
	for _, p := range s.Params {
		if p.Name == "" {
			return fmt.Errorf("parameter with empty name")
		}
		if seen[p.Name] {
			return fmt.Errorf("duplicate parameter %q", p.Name)
		}
		seen[p.Name] = true
		if p.Kind < KindString || p.Kind > KindBoolean {
			return fmt.Errorf("parameter %q: unsupported kind %v", p.Name, p.Kind)
		}
		if p.Default != nil {
			if _, ok := p.coerce(p.Default); !ok {
				return fmt.Errorf("parameter %q: default %v is not a valid %s", p.Name, p.Default, p.Kind)
			}
		}
	}
	return nil
}

// Coerce builds typed Args from decoded JSON. Undeclared names are
// dropped, as are values that cannot be converted to their declared kind
// without loss. Defaults fill whatever is still absent. The names of
// dropped values are returned for diagnostics.
func (s Schema) Coerce(raw map[string]any) (Args, []string) {
	args := make(Args, len(s.Params))
	var dropped []string

	for name, rv := range raw {
		p, ok := s.Param(name)
		if !ok {
			dropped = append(dropped, name)
			continue
		}
		if rv == nil {
			continue
		}
		v, ok := p.coerce(rv)
		if !ok {
			dropped = append(dropped, name)
			continue
		}
		args[name] = v
	}

	for _, p := range s.Params {
		if _, ok := args[p.Name]; ok || p.Default == nil {
			continue
		}
		if v, ok := p.coerce(p.Default); ok {
			args[p.Name] = v
		}
	}

	slices.Sort(dropped)
	return args, dropped
}

// coerce converts a decoded JSON value (or a Go literal default) to the
// parameter's kind.
func (p Param) coerce(rv any) (Value, bool) {
	var (
		v  Value
		ok bool
	)
	switch p.Kind {
	case KindString:
		v, ok = toString(rv)
		if ok && len(p.Enum) > 0 && !slices.Contains(p.Enum, v.s) {
			ok = false
		}
	case KindInteger:
		v, ok = toInteger(rv)
	case KindNumber:
		v, ok = toNumber(rv)
	case KindBoolean:
		v, ok = toBoolean(rv)
	}
	return v, ok
}

func toString(rv any) (Value, bool) {
	switch x := rv.(type) {
	case string:
		return StringValue(x), true
	case json.Number:
		return StringValue(x.String()), true
	case int:
		return StringValue(strconv.Itoa(x)), true
	case int64:
		return StringValue(strconv.FormatInt(x, 10)), true
	case float64:
		return StringValue(strconv.FormatFloat(x, 'g', -1, 64)), true
	}
	return Value{}, false
}

func toInteger(rv any) (Value, bool) {
	switch x := rv.(type) {
	case int:
		return IntegerValue(int64(x)), true
	case int64:
		return IntegerValue(x), true
	case float64:
		return integralFloat(x)
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return IntegerValue(i), true
		}
		if f, err := x.Float64(); err == nil {
			return integralFloat(f)
		}
	case string:
		s := strings.TrimSpace(x)
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return IntegerValue(i), true
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return integralFloat(f)
		}
	}
	return Value{}, false
}

func integralFloat(f float64) (Value, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || math.Trunc(f) != f {
		return Value{}, false
	}
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return Value{}, false
	}
	return IntegerValue(int64(f)), true
}

func toNumber(rv any) (Value, bool) {
	switch x := rv.(type) {
	case float64:
		return NumberValue(x), true
	case int:
		return NumberValue(float64(x)), true
	case int64:
		return NumberValue(float64(x)), true
	case json.Number:
		if f, err := x.Float64(); err == nil {
			return NumberValue(f), true
		}
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
			return NumberValue(f), true
		}
	}
	return Value{}, false
}

func toBoolean(rv any) (Value, bool) {
	switch x := rv.(type) {
	case bool:
		return BooleanValue(x), true
	case string:
		if b, err := strconv.ParseBool(strings.TrimSpace(x)); err == nil {
			return BooleanValue(b), true
		}
	}
	return Value{}, false
}

// decodeObject parses raw argument text as a JSON object, keeping numbers
// exact. Empty input is an empty object.
func decodeObject(raw string) (map[string]any, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return map[string]any{}, nil
	}
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, err
	}
	if m == nil {
		return nil, fmt.Errorf("arguments are not an object")
	}
	if dec.More() {
		return nil, fmt.Errorf("trailing data after arguments")
	}
	return m, nil
}

// Encode renders a tool result as the text recorded in the conversation.
// Strings pass through unchanged; anything else becomes JSON with sorted
// object keys.
func Encode(result any) string {
	if s, ok := result.(string); ok {
		return s
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(result); err != nil {
		return fmt.Sprintf("%v", result)
	}
	return strings.TrimSuffix(buf.String(), "\n")
}
