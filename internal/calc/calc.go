// Package calc evaluates the small arithmetic language the calculator
// tool accepts: decimal numbers, + - * / // ** and parentheses.
//
// Integers are arbitrary precision and stay integers under + - * // and
// non-negative **. True division always yields a float. ** is right
// associative and binds tighter than a unary sign, so -2**2 is -4.
// Floats print in the shortest form that round-trips, switching to
// exponent notation outside [1e-4, 1e16).
package calc

import (
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
)

// Allowed lists every character an expression may contain.
const Allowed = "0123456789+-*/(). "

// Limits that keep evaluation cheap.
const (
	MaxDigits = 4300    // decimal digits in an integer literal or result
	MaxBits   = 1 << 20 // estimated size of an integer power result
	MaxDepth  = 200     // nesting of parentheses and unary signs
)

// ErrUnsupported reports a character outside Allowed. Nothing is
// evaluated when it is returned.
var ErrUnsupported = errors.New("unsupported characters.")

// Calculate evaluates expr and renders the outcome the way the calculator
// tool reports it: the value on success, "Error: <message>" otherwise.
func Calculate(expr string) string {
	v, err := Evaluate(expr)
	if err != nil {
		return "Error: " + err.Error()
	}
	return v
}

// Evaluate parses and evaluates expr, returning the formatted result.
func Evaluate(expr string) (string, error) {
	for _, r := range expr {
		if !strings.ContainsRune(Allowed, r) {
			return "", ErrUnsupported
		}
	}

	toks, err := tokenize(expr)
	if err != nil {
		return "", err
	}
	p := &parser{toks: toks}
	n, err := p.parse()
	if err != nil {
		return "", err
	}
	return n.format()
}

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNumber
	tokPlus
	tokMinus
	tokStar
	tokSlash
	tokFloorDiv
	tokPow
	tokLParen
	tokRParen
)

type token struct {
	kind tokenKind
	text string
}

var errSyntax = errors.New("invalid syntax")

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func tokenize(s string) ([]token, error) {
	var toks []token
	for i := 0; i < len(s); {
		c := s[i]
		switch {
		case c == ' ':
			i++
		case isDigit(c) || (c == '.' && i+1 < len(s) && isDigit(s[i+1])):
			start := i
			for i < len(s) && isDigit(s[i]) {
				i++
			}
			if i < len(s) && s[i] == '.' {
				i++
				for i < len(s) && isDigit(s[i]) {
					i++
				}
			}
			toks = append(toks, token{kind: tokNumber, text: s[start:i]})
		case c == '*':
			if i+1 < len(s) && s[i+1] == '*' {
				toks = append(toks, token{kind: tokPow, text: "**"})
				i += 2
			} else {
				toks = append(toks, token{kind: tokStar, text: "*"})
				i++
			}
		case c == '/':
			if i+1 < len(s) && s[i+1] == '/' {
				toks = append(toks, token{kind: tokFloorDiv, text: "//"})
				i += 2
			} else {
				toks = append(toks, token{kind: tokSlash, text: "/"})
				i++
			}
		case c == '+':
			toks = append(toks, token{kind: tokPlus, text: "+"})
			i++
		case c == '-':
			toks = append(toks, token{kind: tokMinus, text: "-"})
			i++
		case c == '(':
			toks = append(toks, token{kind: tokLParen, text: "("})
			i++
		case c == ')':
			toks = append(toks, token{kind: tokRParen, text: ")"})
			i++
		default:
			// A lone '.'.
			return nil, errSyntax
		}
	}
	return append(toks, token{kind: tokEOF}), nil
}

// parser is a recursive-descent parser that evaluates as it goes.
//
//	expr   = term { ("+" | "-") term }
//	term   = unary { ("*" | "/" | "//") unary }
//	unary  = ("+" | "-") unary | power
//	power  = atom [ "**" unary ]
//	atom   = number | "(" expr ")"
type parser struct {
	toks  []token
	pos   int
	depth int
	open  int // unclosed parentheses
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) parse() (number, error) {
	if p.peek().kind == tokEOF {
		return number{}, errSyntax
	}
	n, err := p.expr()
	if err != nil {
		return number{}, err
	}
	switch p.peek().kind {
	case tokEOF:
		return n, nil
	case tokRParen:
		return number{}, errors.New("unmatched ')'")
	default:
		return number{}, errSyntax
	}
}

func (p *parser) expr() (number, error) {
	left, err := p.term()
	if err != nil {
		return number{}, err
	}
	for {
		op := p.peek().kind
		if op != tokPlus && op != tokMinus {
			return left, nil
		}
		p.next()
		right, err := p.term()
		if err != nil {
			return number{}, err
		}
		if op == tokPlus {
			left, err = add(left, right)
		} else {
			left, err = sub(left, right)
		}
		if err != nil {
			return number{}, err
		}
	}
}

func (p *parser) term() (number, error) {
	left, err := p.unary()
	if err != nil {
		return number{}, err
	}
	for {
		op := p.peek().kind
		if op != tokStar && op != tokSlash && op != tokFloorDiv {
			return left, nil
		}
		p.next()
		right, err := p.unary()
		if err != nil {
			return number{}, err
		}
		switch op {
		case tokStar:
			left, err = mul(left, right)
		case tokSlash:
			left, err = trueDiv(left, right)
		default:
			left, err = floorDiv(left, right)
		}
		if err != nil {
			return number{}, err
		}
	}
}

func (p *parser) unary() (number, error) {
	switch p.peek().kind {
	case tokPlus, tokMinus:
		op := p.next().kind
		if err := p.enter(); err != nil {
			return number{}, err
		}
		defer p.leave()
		n, err := p.unary()
		if err != nil {
			return number{}, err
		}
		if op == tokMinus {
			return n.neg(), nil
		}
		return n, nil
	}
	return p.power()
}

func (p *parser) power() (number, error) {
	base, err := p.atom()
	if err != nil {
		return number{}, err
	}
	if p.peek().kind != tokPow {
		return base, nil
	}
	p.next()
	exp, err := p.unary()
	if err != nil {
		return number{}, err
	}
	return pow(base, exp)
}

func (p *parser) atom() (number, error) {
	t := p.next()
	switch t.kind {
	case tokNumber:
		return parseLiteral(t.text)
	case tokLParen:
		if err := p.enter(); err != nil {
			return number{}, err
		}
		p.open++
		defer func() {
			p.open--
			p.leave()
		}()
		if p.peek().kind == tokEOF {
			return number{}, errors.New("'(' was never closed")
		}
		n, err := p.expr()
		if err != nil {
			return number{}, err
		}
		switch p.next().kind {
		case tokRParen:
			return n, nil
		case tokEOF:
			return number{}, errors.New("'(' was never closed")
		default:
			return number{}, errSyntax
		}
	case tokRParen:
		if p.open == 0 {
			return number{}, errors.New("unmatched ')'")
		}
		return number{}, errSyntax
	default:
		return number{}, errSyntax
	}
}

func (p *parser) enter() error {
	p.depth++
	if p.depth > MaxDepth {
		return errors.New("too many nested parentheses")
	}
	return nil
}

func (p *parser) leave() { p.depth-- }

func parseLiteral(text string) (number, error) {
	if strings.Contains(text, ".") {
		f, err := strconv.ParseFloat(text, 64)
		if err != nil && !errors.Is(err, strconv.ErrRange) {
			return number{}, errSyntax
		}
		return floatNum(f), nil
	}
	if len(text) > 1 && text[0] == '0' && strings.Trim(text, "0") != "" {
		return number{}, errors.New("leading zeros in decimal integer literals are not permitted")
	}
	if len(text) > MaxDigits {
		return number{}, fmt.Errorf("Exceeds the limit (%d digits) for integer string conversion", MaxDigits)
	}
	i, ok := new(big.Int).SetString(text, 10)
	if !ok {
		return number{}, errSyntax
	}
	return intNum(i), nil
}
