package exchange

import (
	"github.com/holiman/uint256"
)

// Quotes price against the current reserves without touching state. Given
// the same reserves they match the mutating swaps exactly.

// NativeToTokenInputPrice returns the tokens bought by selling nativeSold.
func (e *Exchange) NativeToTokenInputPrice(r Reader, nativeSold *uint256.Int) (*uint256.Int, error) {
	if err := positive("native sold", nativeSold); err != nil {
		return nil, err
	}
	nativeReserve, tokenReserve := e.Reserves(r)
	return e.pricing.InputPrice(nativeSold, nativeReserve, tokenReserve)
}

// NativeToTokenOutputPrice returns the native needed to buy tokensBought.
func (e *Exchange) NativeToTokenOutputPrice(r Reader, tokensBought *uint256.Int) (*uint256.Int, error) {
	if err := positive("tokens bought", tokensBought); err != nil {
		return nil, err
	}
	nativeReserve, tokenReserve := e.Reserves(r)
	return e.pricing.OutputPrice(tokensBought, nativeReserve, tokenReserve)
}

// TokenToNativeInputPrice returns the native bought by selling tokensSold.
func (e *Exchange) TokenToNativeInputPrice(r Reader, tokensSold *uint256.Int) (*uint256.Int, error) {
	if err := positive("tokens sold", tokensSold); err != nil {
		return nil, err
	}
	nativeReserve, tokenReserve := e.Reserves(r)
	return e.pricing.InputPrice(tokensSold, tokenReserve, nativeReserve)
}

// TokenToNativeOutputPrice returns the tokens needed to buy nativeBought.
func (e *Exchange) TokenToNativeOutputPrice(r Reader, nativeBought *uint256.Int) (*uint256.Int, error) {
	if err := positive("native bought", nativeBought); err != nil {
		return nil, err
	}
	nativeReserve, tokenReserve := e.Reserves(r)
	return e.pricing.OutputPrice(nativeBought, tokenReserve, nativeReserve)
}
