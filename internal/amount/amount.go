// Package amount implements checked arithmetic on 256-bit unsigned amounts.
//
// Every helper allocates a fresh result and never mutates its operands, so
// callers can pass values read from state without cloning them first.
package amount

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/holiman/uint256"
)

var (
	ErrOverflow       = errors.New("amount overflow")
	ErrUnderflow      = errors.New("amount underflow")
	ErrDivisionByZero = errors.New("division by zero")
	ErrInvalidFormat  = errors.New("invalid amount format")
)

// Zero returns a new zero amount.
func Zero() *uint256.Int {
	return new(uint256.Int)
}

// Of returns a new amount holding v.
func Of(v uint64) *uint256.Int {
	return uint256.NewInt(v)
}

// OrZero returns v, or a zero amount when v is nil.
func OrZero(v *uint256.Int) *uint256.Int {
	if v == nil {
		return Zero()
	}
	return v
}

func Add(a, b *uint256.Int) (*uint256.Int, error) {
	z, overflow := new(uint256.Int).AddOverflow(a, b)
	if overflow {
		return nil, fmt.Errorf("%w: %s + %s", ErrOverflow, a.Dec(), b.Dec())
	}
	return z, nil
}

func Sub(a, b *uint256.Int) (*uint256.Int, error) {
	z, underflow := new(uint256.Int).SubOverflow(a, b)
	if underflow {
		return nil, fmt.Errorf("%w: %s - %s", ErrUnderflow, a.Dec(), b.Dec())
	}
	return z, nil
}

func Mul(a, b *uint256.Int) (*uint256.Int, error) {
	z, overflow := new(uint256.Int).MulOverflow(a, b)
	if overflow {
		return nil, fmt.Errorf("%w: %s * %s", ErrOverflow, a.Dec(), b.Dec())
	}
	return z, nil
}

// Div returns floor(a / b).
func Div(a, b *uint256.Int) (*uint256.Int, error) {
	if b.IsZero() {
		return nil, ErrDivisionByZero
	}
	return new(uint256.Int).Div(a, b), nil
}

// MulDiv returns floor(a * b / d), failing if the intermediate product does
// not fit in 256 bits.
func MulDiv(a, b, d *uint256.Int) (*uint256.Int, error) {
	p, err := Mul(a, b)
	if err != nil {
		return nil, err
	}
	return Div(p, d)
}

// Parse reads a base-10 amount. Empty input is rejected.
func Parse(s string) (*uint256.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidFormat)
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidFormat, s)
	}
	if v.Sign() < 0 {
		return nil, fmt.Errorf("%w: negative %q", ErrInvalidFormat, s)
	}
	z, overflow := uint256.FromBig(v)
	if overflow {
		return nil, fmt.Errorf("%w: %q", ErrOverflow, s)
	}
	return z, nil
}

// ParseOrZero is Parse with empty input treated as zero.
func ParseOrZero(s string) (*uint256.Int, error) {
	if strings.TrimSpace(s) == "" {
		return Zero(), nil
	}
	return Parse(s)
}

// String formats v in base 10; nil formats as "0".
func String(v *uint256.Int) string {
	if v == nil {
		return "0"
	}
	return v.Dec()
}
