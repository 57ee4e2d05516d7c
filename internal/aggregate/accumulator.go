package aggregate

import (
	"fmt"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"

	"exchangeLedger/internal/amount"
	"exchangeLedger/internal/model"
)

// Accumulator holds aggregate values for a pool window.
type Accumulator struct {
	PoolAddress      string
	WindowStart      uint64
	WindowEnd        uint64
	SwapCount        uint64
	LiquidityAdds    uint64
	LiquidityRemoves uint64
	NativeVolume     *uint256.Int
	TokenVolume      *uint256.Int
	NativeFee        decimal.Decimal
	TokenFee         decimal.Decimal
	FirstTS          uint64
	LastTS           uint64
}

func NewAccumulator(event model.Event, windowStart, windowEnd uint64) *Accumulator {
	return &Accumulator{
		PoolAddress:  event.Pool,
		WindowStart:  windowStart,
		WindowEnd:    windowEnd,
		NativeVolume: amount.Zero(),
		TokenVolume:  amount.Zero(),
		NativeFee:    decimal.Zero,
		TokenFee:     decimal.Zero,
		FirstTS:      event.Timestamp,
		LastTS:       event.Timestamp,
	}
}

// AddEvent folds one event into the window. feeRate is the share of every
// swap input the pool keeps.
func (a *Accumulator) AddEvent(event model.Event, feeRate decimal.Decimal) error {
	if event.Timestamp > a.LastTS {
		a.LastTS = event.Timestamp
	}
	if event.Timestamp < a.FirstTS {
		a.FirstTS = event.Timestamp
	}

	native, err := amount.ParseOrZero(event.Native)
	if err != nil {
		return fmt.Errorf("native amount: %w", err)
	}
	tokens, err := amount.ParseOrZero(event.Token)
	if err != nil {
		return fmt.Errorf("token amount: %w", err)
	}

	switch event.Type {
	case model.EventTokenPurchase:
		a.SwapCount++
		a.NativeFee = a.NativeFee.Add(feeOf(native, feeRate))
		return a.addVolume(native, tokens)
	case model.EventNativePurchase:
		a.SwapCount++
		a.TokenFee = a.TokenFee.Add(feeOf(tokens, feeRate))
		return a.addVolume(native, tokens)
	case model.EventAddLiquidity:
		a.LiquidityAdds++
	case model.EventRemoveLiquidity:
		a.LiquidityRemoves++
	}
	return nil
}

func (a *Accumulator) addVolume(native, tokens *uint256.Int) error {
	var err error
	if a.NativeVolume, err = amount.Add(a.NativeVolume, native); err != nil {
		return err
	}
	a.TokenVolume, err = amount.Add(a.TokenVolume, tokens)
	return err
}

func feeOf(input *uint256.Int, feeRate decimal.Decimal) decimal.Decimal {
	return decimal.NewFromBigInt(input.ToBig(), 0).Mul(feeRate)
}
