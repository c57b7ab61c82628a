package calc

import (
	"errors"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
)

// number is an arbitrary-precision integer or a float64.
type number struct {
	i       *big.Int
	f       float64
	isFloat bool
}

func intNum(i *big.Int) number { return number{i: i} }

func floatNum(f float64) number { return number{f: f, isFloat: true} }

var (
	errIntTooLarge = errors.New("int too large to convert to float")
	errOutOfRange  = errors.New("(34, 'Numerical result out of range')")
	errZeroNegPow  = errors.New("0.0 cannot be raised to a negative power")
)

// float converts n to a float64, failing when an integer is out of range.
func (n number) float() (float64, error) {
	if n.isFloat {
		return n.f, nil
	}
	f, _ := new(big.Float).SetInt(n.i).Float64()
	if math.IsInf(f, 0) {
		return 0, errIntTooLarge
	}
	return f, nil
}

func (n number) neg() number {
	if n.isFloat {
		return floatNum(-n.f)
	}
	return intNum(new(big.Int).Neg(n.i))
}

// floats converts both operands for a mixed or float operation.
func floats(a, b number) (float64, float64, error) {
	x, err := a.float()
	if err != nil {
		return 0, 0, err
	}
	y, err := b.float()
	if err != nil {
		return 0, 0, err
	}
	return x, y, nil
}

func add(a, b number) (number, error) {
	if !a.isFloat && !b.isFloat {
		return intNum(new(big.Int).Add(a.i, b.i)), nil
	}
	x, y, err := floats(a, b)
	if err != nil {
		return number{}, err
	}
	return floatNum(x + y), nil
}

func sub(a, b number) (number, error) {
	if !a.isFloat && !b.isFloat {
		return intNum(new(big.Int).Sub(a.i, b.i)), nil
	}
	x, y, err := floats(a, b)
	if err != nil {
		return number{}, err
	}
	return floatNum(x - y), nil
}

func mul(a, b number) (number, error) {
	if !a.isFloat && !b.isFloat {
		return intNum(new(big.Int).Mul(a.i, b.i)), nil
	}
	x, y, err := floats(a, b)
	if err != nil {
		return number{}, err
	}
	return floatNum(x * y), nil
}

// trueDiv always produces a float. Integer operands are divided exactly
// and rounded once.
func trueDiv(a, b number) (number, error) {
	if !a.isFloat && !b.isFloat {
		if b.i.Sign() == 0 {
			return number{}, errors.New("division by zero")
		}
		f, _ := new(big.Rat).SetFrac(a.i, b.i).Float64()
		if math.IsInf(f, 0) {
			return number{}, errors.New("integer division result too large for a float")
		}
		return floatNum(f), nil
	}
	x, y, err := floats(a, b)
	if err != nil {
		return number{}, err
	}
	if y == 0 {
		return number{}, errors.New("float division by zero")
	}
	return floatNum(x / y), nil
}

// floorDiv rounds the quotient toward negative infinity.
func floorDiv(a, b number) (number, error) {
	if !a.isFloat && !b.isFloat {
		if b.i.Sign() == 0 {
			return number{}, errors.New("integer division or modulo by zero")
		}
		q, m := new(big.Int).QuoRem(a.i, b.i, new(big.Int))
		if m.Sign() != 0 && m.Sign() != b.i.Sign() {
			q.Sub(q, big.NewInt(1))
		}
		return intNum(q), nil
	}
	x, y, err := floats(a, b)
	if err != nil {
		return number{}, err
	}
	if y == 0 {
		return number{}, errors.New("float floor division by zero")
	}
	return floatNum(floatFloorDiv(x, y)), nil
}

// floatFloorDiv computes floor(x/y) from the remainder so that the
// result agrees with x == y*q + r for the matching modulo.
func floatFloorDiv(x, y float64) float64 {
	mod := math.Mod(x, y)
	div := (x - mod) / y
	if mod != 0 && (y < 0) != (mod < 0) {
		div -= 1
	}
	if div == 0 {
		return math.Copysign(0, x/y)
	}
	q := math.Floor(div)
	if div-q > 0.5 {
		q += 1
	}
	return q
}

func pow(a, b number) (number, error) {
	if !a.isFloat && !b.isFloat {
		if b.i.Sign() >= 0 {
			if a.i.CmpAbs(big.NewInt(1)) > 0 {
				bits := int64(a.i.BitLen() - 1)
				if !b.i.IsInt64() || b.i.Int64() > MaxBits/max(bits, 1) {
					return number{}, errors.New("exponent too large")
				}
			}
			return intNum(new(big.Int).Exp(a.i, b.i, nil)), nil
		}
		if a.i.Sign() == 0 {
			return number{}, errZeroNegPow
		}
	}
	x, y, err := floats(a, b)
	if err != nil {
		return number{}, err
	}
	f, err := floatPow(x, y)
	if err != nil {
		return number{}, err
	}
	return floatNum(f), nil
}

func floatPow(x, y float64) (float64, error) {
	switch {
	case y == 0:
		return 1, nil
	case math.IsNaN(x):
		return math.NaN(), nil
	case math.IsNaN(y):
		if x == 1 {
			return 1, nil
		}
		return math.NaN(), nil
	case x == 0 && y < 0 && !math.IsInf(y, 0):
		return 0, errZeroNegPow
	case x < 0 && !math.IsInf(x, 0) && !math.IsInf(y, 0) && math.Trunc(y) != y:
		return 0, errors.New("negative number cannot be raised to a fractional power")
	}
	r := math.Pow(x, y)
	if math.IsInf(r, 0) && !math.IsInf(x, 0) && !math.IsInf(y, 0) {
		return 0, errOutOfRange
	}
	return r, nil
}

// format renders n the way the calculator reports values.
func (n number) format() (string, error) {
	if n.isFloat {
		return formatFloat(n.f), nil
	}
	// Cheap pre-check: 10**MaxDigits needs just under 3.33 bits per digit.
	if n.i.BitLen() > MaxDigits*4 {
		return "", digitLimitError()
	}
	s := n.i.String()
	if len(strings.TrimPrefix(s, "-")) > MaxDigits {
		return "", digitLimitError()
	}
	return s, nil
}

func digitLimitError() error {
	return fmt.Errorf("Exceeds the limit (%d digits) for integer string conversion", MaxDigits)
}

// formatFloat prints the shortest decimal that round-trips, in fixed
// notation when the decimal exponent is in [-4, 16) and with a trailing
// ".0" for integral values; exponent notation otherwise.
func formatFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case math.IsNaN(f):
		return "nan"
	}

	e := strconv.FormatFloat(f, 'e', -1, 64)
	exp, _ := strconv.Atoi(e[strings.IndexByte(e, 'e')+1:])
	if exp < -4 || exp >= 16 {
		return e
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsRune(s, '.') {
		s += ".0"
	}
	return s
}
