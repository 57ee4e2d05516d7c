package aggregate

import (
	"fmt"

	"github.com/holiman/uint256"

	"exchangeLedger/internal/amount"
	"exchangeLedger/internal/model"
)

// Reserves tracks a pool's holdings by replaying its events from creation.
type Reserves struct {
	Native *uint256.Int
	Token  *uint256.Int
}

func NewReserves() *Reserves {
	return &Reserves{Native: amount.Zero(), Token: amount.Zero()}
}

// Apply moves the reserves by one event. Share events leave them unchanged.
func (r *Reserves) Apply(event model.Event) error {
	native, err := amount.ParseOrZero(event.Native)
	if err != nil {
		return fmt.Errorf("native amount: %w", err)
	}
	tokens, err := amount.ParseOrZero(event.Token)
	if err != nil {
		return fmt.Errorf("token amount: %w", err)
	}

	nativeIn, tokenIn := amount.Zero(), amount.Zero()
	nativeOut, tokenOut := amount.Zero(), amount.Zero()
	switch event.Type {
	case model.EventTokenPurchase:
		nativeIn, tokenOut = native, tokens
	case model.EventNativePurchase:
		tokenIn, nativeOut = tokens, native
	case model.EventAddLiquidity:
		nativeIn, tokenIn = native, tokens
	case model.EventRemoveLiquidity:
		nativeOut, tokenOut = native, tokens
	default:
		return nil
	}

	nextNative, err := step(r.Native, nativeIn, nativeOut)
	if err != nil {
		return fmt.Errorf("%s native reserve: %w", event.Type, err)
	}
	nextToken, err := step(r.Token, tokenIn, tokenOut)
	if err != nil {
		return fmt.Errorf("%s token reserve: %w", event.Type, err)
	}
	r.Native, r.Token = nextNative, nextToken
	return nil
}

func step(cur, in, out *uint256.Int) (*uint256.Int, error) {
	next, err := amount.Add(cur, in)
	if err != nil {
		return nil, err
	}
	return amount.Sub(next, out)
}
