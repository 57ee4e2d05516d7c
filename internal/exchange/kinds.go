package exchange

import (
	"fmt"

	"github.com/holiman/uint256"

	"exchangeLedger/internal/pricing"
)

// Quote kinds accepted by Quote and QuoteReserves.
const (
	QuoteNativeToTokenInput  = "eth-to-token-input"
	QuoteNativeToTokenOutput = "eth-to-token-output"
	QuoteTokenToNativeInput  = "token-to-eth-input"
	QuoteTokenToNativeOutput = "token-to-eth-output"
)

// QuoteKinds lists every supported quote kind.
var QuoteKinds = []string{
	QuoteNativeToTokenInput,
	QuoteNativeToTokenOutput,
	QuoteTokenToNativeInput,
	QuoteTokenToNativeOutput,
}

// Quote dispatches to the quote getter named by kind.
func (e *Exchange) Quote(r Reader, kind string, v *uint256.Int) (*uint256.Int, error) {
	switch kind {
	case QuoteNativeToTokenInput:
		return e.NativeToTokenInputPrice(r, v)
	case QuoteNativeToTokenOutput:
		return e.NativeToTokenOutputPrice(r, v)
	case QuoteTokenToNativeInput:
		return e.TokenToNativeInputPrice(r, v)
	case QuoteTokenToNativeOutput:
		return e.TokenToNativeOutputPrice(r, v)
	default:
		return nil, fmt.Errorf("%w: unknown quote kind %q", ErrInvalidInput, kind)
	}
}

// QuoteReserves prices kind against reserves read elsewhere, such as from a
// deployed pool over RPC.
func QuoteReserves(engine pricing.Engine, kind string, v, nativeReserve, tokenReserve *uint256.Int) (*uint256.Int, error) {
	if err := positive("amount", v); err != nil {
		return nil, err
	}
	switch kind {
	case QuoteNativeToTokenInput:
		return engine.InputPrice(v, nativeReserve, tokenReserve)
	case QuoteNativeToTokenOutput:
		return engine.OutputPrice(v, nativeReserve, tokenReserve)
	case QuoteTokenToNativeInput:
		return engine.InputPrice(v, tokenReserve, nativeReserve)
	case QuoteTokenToNativeOutput:
		return engine.OutputPrice(v, tokenReserve, nativeReserve)
	default:
		return nil, fmt.Errorf("%w: unknown quote kind %q", ErrInvalidInput, kind)
	}
}
