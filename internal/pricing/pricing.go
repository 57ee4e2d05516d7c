// Package pricing computes constant-product swap amounts with a proportional
// fee retained by the pool.
package pricing

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"

	"exchangeLedger/internal/amount"
)

var (
	ErrInvalidReserves = errors.New("invalid reserves")
	ErrInvalidFee      = errors.New("invalid fee")
)

const (
	DefaultFeeNumerator   = 997
	DefaultFeeDenominator = 1000
)

// Engine holds the fee fraction FeeNumerator/FeeDenominator of each input
// that counts toward the trade. The remainder stays in the pool.
type Engine struct {
	feeNum *uint256.Int
	feeDen *uint256.Int
}

// Default returns the 0.3% fee engine.
func Default() Engine {
	e, _ := New(DefaultFeeNumerator, DefaultFeeDenominator)
	return e
}

func New(feeNumerator, feeDenominator uint64) (Engine, error) {
	if feeDenominator == 0 || feeNumerator == 0 || feeNumerator > feeDenominator {
		return Engine{}, fmt.Errorf("%w: %d/%d", ErrInvalidFee, feeNumerator, feeDenominator)
	}
	return Engine{
		feeNum: uint256.NewInt(feeNumerator),
		feeDen: uint256.NewInt(feeDenominator),
	}, nil
}

// IsZero reports whether e is the unconfigured zero value.
func (e Engine) IsZero() bool { return e.feeDen == nil }

// FeeNumerator returns the numerator of the retained input fraction.
func (e Engine) FeeNumerator() uint64 {
	if e.IsZero() {
		return 0
	}
	return e.feeNum.Uint64()
}

// FeeDenominator returns the denominator of the retained input fraction.
func (e Engine) FeeDenominator() uint64 {
	if e.IsZero() {
		return 0
	}
	return e.feeDen.Uint64()
}

// InputPrice returns the output bought by selling exactly in, given the
// reserves before the trade:
//
//	out = in*num*outReserve / (inReserve*den + in*num)
func (e Engine) InputPrice(in, inReserve, outReserve *uint256.Int) (*uint256.Int, error) {
	if inReserve.IsZero() || outReserve.IsZero() {
		return nil, fmt.Errorf("%w: input %s output %s", ErrInvalidReserves, inReserve.Dec(), outReserve.Dec())
	}

	inWithFee, err := amount.Mul(in, e.feeNum)
	if err != nil {
		return nil, err
	}
	numerator, err := amount.Mul(inWithFee, outReserve)
	if err != nil {
		return nil, err
	}
	scaled, err := amount.Mul(inReserve, e.feeDen)
	if err != nil {
		return nil, err
	}
	denominator, err := amount.Add(scaled, inWithFee)
	if err != nil {
		return nil, err
	}
	return amount.Div(numerator, denominator)
}

// OutputPrice returns the input needed to buy exactly out, rounded up so the
// pool never receives less than the fee-adjusted price:
//
//	in = inReserve*out*den / ((outReserve-out)*num) + 1
func (e Engine) OutputPrice(out, inReserve, outReserve *uint256.Int) (*uint256.Int, error) {
	if inReserve.IsZero() || outReserve.IsZero() {
		return nil, fmt.Errorf("%w: input %s output %s", ErrInvalidReserves, inReserve.Dec(), outReserve.Dec())
	}
	if !out.Lt(outReserve) {
		return nil, fmt.Errorf("%w: want %s of %s", ErrInvalidReserves, out.Dec(), outReserve.Dec())
	}

	numerator, err := amount.Mul(inReserve, out)
	if err != nil {
		return nil, err
	}
	numerator, err = amount.Mul(numerator, e.feeDen)
	if err != nil {
		return nil, err
	}
	remaining, err := amount.Sub(outReserve, out)
	if err != nil {
		return nil, err
	}
	denominator, err := amount.Mul(remaining, e.feeNum)
	if err != nil {
		return nil, err
	}
	q, err := amount.Div(numerator, denominator)
	if err != nil {
		return nil, err
	}
	return amount.Add(q, amount.Of(1))
}
