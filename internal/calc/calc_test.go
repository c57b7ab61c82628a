package calc

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/nugget/agentic/internal/tools"
)

func TestCalculate(t *testing.T) {
	tests := []struct {
		expr string
		want string
	}{
		{"2+2", "4"},
		{"10/5", "2.0"},
		{"17*23", "391"},
		{"7/2", "3.5"},
		{"1/3", "0.3333333333333333"},
		{".1+.2", "0.30000000000000004"},
		{"7//2", "3"},
		{"-7//2", "-4"},
		{"7//-2", "-4"},
		{"7.5//2", "3.0"},
		{"-7.5//2", "-4.0"},
		{"2**10", "1024"},
		{"2**3**2", "512"},
		{"-2**2", "-4"},
		{"(-2)**2", "4"},
		{"2**-1", "0.5"},
		{"2**0.5", "1.4142135623730951"},
		{"--3", "3"},
		{"+-+3", "-3"},
		{"2 * (3 + 4)", "14"},
		{"((((1))))", "1"},
		{"1.", "1.0"},
		{"0", "0"},
		{"00", "0"},
		{"2**64", "18446744073709551616"},
		{"10.0**16", "1e+16"},
		{"10.0**15", "1000000000000000.0"},
		{"1/10000", "0.0001"},
		{"1/100000", "1e-05"},
		{"-0.0", "-0.0"},
		{"3 - 5.5", "-2.5"},
		{"99999999999999999999 + 1", "100000000000000000000"},
		{"10/3*3", "10.0"},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			if got := Calculate(tt.expr); got != tt.want {
				t.Errorf("Calculate(%q) = %q, want %q", tt.expr, got, tt.want)
			}
		})
	}
}

func TestCalculate_Errors(t *testing.T) {
	tests := []struct {
		expr string
		want string
	}{
		{"1/0", "Error: division by zero"},
		{"1.0/0", "Error: float division by zero"},
		{"1//0", "Error: integer division or modulo by zero"},
		{"1.5//0", "Error: float floor division by zero"},
		{"0**-1", "Error: 0.0 cannot be raised to a negative power"},
		{"(-8)**0.5", "Error: negative number cannot be raised to a fractional power"},
		{"", "Error: invalid syntax"},
		{"   ", "Error: invalid syntax"},
		{"1+", "Error: invalid syntax"},
		{"* 2", "Error: invalid syntax"},
		{"2 3", "Error: invalid syntax"},
		{"1.2.3", "Error: invalid syntax"},
		{".", "Error: invalid syntax"},
		{"()", "Error: invalid syntax"},
		{"2 * * 3", "Error: invalid syntax"},
		{"(1+2", "Error: '(' was never closed"},
		{"(", "Error: '(' was never closed"},
		{"1+2)", "Error: unmatched ')'"},
		{")", "Error: unmatched ')'"},
		{"012", "Error: leading zeros in decimal integer literals are not permitted"},
		{"2**99999999", "Error: exponent too large"},
		{"10.0**400", "Error: (34, 'Numerical result out of range')"},
		{"2**20000", "Error: Exceeds the limit (4300 digits) for integer string conversion"},
		{strings.Repeat("(", 250) + "1" + strings.Repeat(")", 250), "Error: too many nested parentheses"},
	}
	for _, tt := range tests {
		name := tt.expr
		if len(name) > 20 {
			name = name[:20]
		}
		t.Run(name, func(t *testing.T) {
			if got := Calculate(tt.expr); got != tt.want {
				t.Errorf("Calculate(%q) = %q, want %q", name, got, tt.want)
			}
		})
	}
}

func TestCalculate_UnsupportedCharacters(t *testing.T) {
	for _, expr := range []string{
		"__import__('os')",
		"2+x",
		"1e5",
		"3 % 2",
		"2\t+2",
		"2²",
		"1,2",
	} {
		t.Run(expr, func(t *testing.T) {
			if got := Calculate(expr); got != "Error: unsupported characters." {
				t.Errorf("Calculate(%q) = %q", expr, got)
			}
			if _, err := Evaluate(expr); !errors.Is(err, ErrUnsupported) {
				t.Errorf("Evaluate(%q) error = %v, want ErrUnsupported", expr, err)
			}
		})
	}
}

func TestFormatFloat(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{2, "2.0"},
		{0, "0.0"},
		{1.5e300, "1.5e+300"},
		{1.5e-7, "1.5e-07"},
		{123456789.125, "123456789.125"},
		{9999999999999998, "9999999999999998.0"},
	}
	for _, tt := range tests {
		if got := formatFloat(tt.in); got != tt.want {
			t.Errorf("formatFloat(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTool(t *testing.T) {
	r := tools.NewRegistry(nil)
	if err := r.Register(Tool()); err != nil {
		t.Fatalf("Register: %v", err)
	}

	tests := []struct {
		name string
		args string
		want string
	}{
		{"arithmetic", `{"expression":"17*23"}`, "391"},
		{"rejected input", `{"expression":"open('/etc/passwd')"}`, "Error: unsupported characters."},
		// A number where a string is declared is still usable.
		{"numeric expression", `{"expression":42}`, "42"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Invoke(context.Background(), ToolName, tt.args)
			if err != nil {
				t.Fatalf("Invoke: %v", err)
			}
			if got != tt.want {
				t.Errorf("Invoke(%s) = %v, want %q", tt.args, got, tt.want)
			}
		})
	}
}
