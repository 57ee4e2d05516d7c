package exchange

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"exchangeLedger/internal/amount"
	"exchangeLedger/internal/model"
	"exchangeLedger/internal/pricing"
)

// Default handles a bare native payment to the pool: an exact-input swap
// with a minimum of one token and a deadline of now.
func (e *Exchange) Default(b Backend, call Call) (*uint256.Int, error) {
	return e.nativeToTokenInput(b, call, call.value(), amount.Of(1), call.Timestamp, call.From, call.From)
}

// NativeToTokenSwapInput sells call.Value native for at least minTokens.
func (e *Exchange) NativeToTokenSwapInput(b Backend, call Call, minTokens *uint256.Int, deadline uint64) (*uint256.Int, error) {
	return e.nativeToTokenInput(b, call, call.value(), minTokens, deadline, call.From, call.From)
}

// NativeToTokenTransferInput is NativeToTokenSwapInput delivering to recipient.
func (e *Exchange) NativeToTokenTransferInput(b Backend, call Call, minTokens *uint256.Int, deadline uint64, recipient common.Address) (*uint256.Int, error) {
	if err := e.checkRecipient(recipient); err != nil {
		return nil, err
	}
	return e.nativeToTokenInput(b, call, call.value(), minTokens, deadline, call.From, recipient)
}

// NativeToTokenSwapOutput buys exactly tokensBought, spending at most
// call.Value and refunding the rest. It returns the native amount sold.
func (e *Exchange) NativeToTokenSwapOutput(b Backend, call Call, tokensBought *uint256.Int, deadline uint64) (*uint256.Int, error) {
	return e.nativeToTokenOutput(b, call, tokensBought, call.value(), deadline, call.From, call.From)
}

// NativeToTokenTransferOutput is NativeToTokenSwapOutput delivering to recipient.
func (e *Exchange) NativeToTokenTransferOutput(b Backend, call Call, tokensBought *uint256.Int, deadline uint64, recipient common.Address) (*uint256.Int, error) {
	if err := e.checkRecipient(recipient); err != nil {
		return nil, err
	}
	return e.nativeToTokenOutput(b, call, tokensBought, call.value(), deadline, call.From, recipient)
}

// TokenToNativeSwapInput sells exactly tokensSold for at least minNative.
func (e *Exchange) TokenToNativeSwapInput(b Backend, call Call, tokensSold, minNative *uint256.Int, deadline uint64) (*uint256.Int, error) {
	if err := nonPayable(call); err != nil {
		return nil, err
	}
	return e.tokenToNativeInput(b, call, tokensSold, minNative, deadline, call.From, call.From)
}

// TokenToNativeTransferInput is TokenToNativeSwapInput paying recipient.
func (e *Exchange) TokenToNativeTransferInput(b Backend, call Call, tokensSold, minNative *uint256.Int, deadline uint64, recipient common.Address) (*uint256.Int, error) {
	if err := nonPayable(call); err != nil {
		return nil, err
	}
	if err := e.checkRecipient(recipient); err != nil {
		return nil, err
	}
	return e.tokenToNativeInput(b, call, tokensSold, minNative, deadline, call.From, recipient)
}

// TokenToNativeSwapOutput buys exactly nativeBought selling at most
// maxTokens. It returns the tokens sold.
func (e *Exchange) TokenToNativeSwapOutput(b Backend, call Call, nativeBought, maxTokens *uint256.Int, deadline uint64) (*uint256.Int, error) {
	if err := nonPayable(call); err != nil {
		return nil, err
	}
	return e.tokenToNativeOutput(b, call, nativeBought, maxTokens, deadline, call.From, call.From)
}

// TokenToNativeTransferOutput is TokenToNativeSwapOutput paying recipient.
func (e *Exchange) TokenToNativeTransferOutput(b Backend, call Call, nativeBought, maxTokens *uint256.Int, deadline uint64, recipient common.Address) (*uint256.Int, error) {
	if err := nonPayable(call); err != nil {
		return nil, err
	}
	if err := e.checkRecipient(recipient); err != nil {
		return nil, err
	}
	return e.tokenToNativeOutput(b, call, nativeBought, maxTokens, deadline, call.From, recipient)
}

func (e *Exchange) nativeToTokenInput(b Backend, call Call, nativeSold, minTokens *uint256.Int, deadline uint64, buyer, recipient common.Address) (*uint256.Int, error) {
	if err := checkDeadline(call, deadline); err != nil {
		return nil, err
	}
	if err := positive("native sold", nativeSold); err != nil {
		return nil, err
	}
	if err := positive("min tokens", minTokens); err != nil {
		return nil, err
	}
	if err := e.requireSeeded(b); err != nil {
		return nil, err
	}

	tok := b.Token(e.token)
	tokenReserve := tok.BalanceOf(e.address)
	nativeReserve, err := amount.Sub(b.NativeBalance(e.address), nativeSold)
	if err != nil {
		return nil, err
	}

	bought, err := e.pricing.InputPrice(nativeSold, nativeReserve, tokenReserve)
	if err != nil {
		return nil, err
	}
	if bought.Lt(minTokens) {
		return nil, fmt.Errorf("%w: buys %s tokens, min %s", ErrSlippageExceeded, bought.Dec(), minTokens.Dec())
	}

	if err := tok.Transfer(e.address, recipient, bought); err != nil {
		return nil, err
	}
	e.emit(b, call, model.EventTokenPurchase, buyer, common.Address{}, nativeSold, bought, nil)
	return bought, nil
}

func (e *Exchange) nativeToTokenOutput(b Backend, call Call, tokensBought, maxNative *uint256.Int, deadline uint64, buyer, recipient common.Address) (*uint256.Int, error) {
	if err := checkDeadline(call, deadline); err != nil {
		return nil, err
	}
	if err := positive("tokens bought", tokensBought); err != nil {
		return nil, err
	}
	if err := positive("max native", maxNative); err != nil {
		return nil, err
	}
	if err := e.requireSeeded(b); err != nil {
		return nil, err
	}

	tok := b.Token(e.token)
	tokenReserve := tok.BalanceOf(e.address)
	nativeReserve, err := amount.Sub(b.NativeBalance(e.address), maxNative)
	if err != nil {
		return nil, err
	}

	sold, err := e.pricing.OutputPrice(tokensBought, nativeReserve, tokenReserve)
	if err != nil {
		return nil, err
	}
	if sold.Gt(maxNative) {
		return nil, fmt.Errorf("%w: costs %s native, max %s", ErrSlippageExceeded, sold.Dec(), maxNative.Dec())
	}

	if refund := new(uint256.Int).Sub(maxNative, sold); !refund.IsZero() {
		if err := b.SendNative(e.address, buyer, refund); err != nil {
			return nil, err
		}
	}
	if err := tok.Transfer(e.address, recipient, tokensBought); err != nil {
		return nil, err
	}
	e.emit(b, call, model.EventTokenPurchase, buyer, common.Address{}, sold, tokensBought, nil)
	return sold, nil
}

func (e *Exchange) tokenToNativeInput(b Backend, call Call, tokensSold, minNative *uint256.Int, deadline uint64, buyer, recipient common.Address) (*uint256.Int, error) {
	if err := checkDeadline(call, deadline); err != nil {
		return nil, err
	}
	if err := positive("tokens sold", tokensSold); err != nil {
		return nil, err
	}
	if err := positive("min native", minNative); err != nil {
		return nil, err
	}
	if err := e.requireSeeded(b); err != nil {
		return nil, err
	}

	nativeReserve, tokenReserve := e.Reserves(b)
	bought, err := e.pricing.InputPrice(tokensSold, tokenReserve, nativeReserve)
	if err != nil {
		return nil, err
	}
	if bought.Lt(minNative) {
		return nil, fmt.Errorf("%w: buys %s native, min %s", ErrSlippageExceeded, bought.Dec(), minNative.Dec())
	}

	if err := b.SendNative(e.address, recipient, bought); err != nil {
		return nil, err
	}
	if err := b.Token(e.token).TransferFrom(e.address, buyer, e.address, tokensSold); err != nil {
		return nil, err
	}
	e.emit(b, call, model.EventNativePurchase, buyer, common.Address{}, bought, tokensSold, nil)
	return bought, nil
}

func (e *Exchange) tokenToNativeOutput(b Backend, call Call, nativeBought, maxTokens *uint256.Int, deadline uint64, buyer, recipient common.Address) (*uint256.Int, error) {
	if err := checkDeadline(call, deadline); err != nil {
		return nil, err
	}
	if err := positive("native bought", nativeBought); err != nil {
		return nil, err
	}
	if err := positive("max tokens", maxTokens); err != nil {
		return nil, err
	}
	if err := e.requireSeeded(b); err != nil {
		return nil, err
	}

	nativeReserve, tokenReserve := e.Reserves(b)
	sold, err := e.pricing.OutputPrice(nativeBought, tokenReserve, nativeReserve)
	if err != nil {
		return nil, err
	}
	if sold.Gt(maxTokens) {
		return nil, fmt.Errorf("%w: costs %s tokens, max %s", ErrSlippageExceeded, sold.Dec(), maxTokens.Dec())
	}

	if err := b.SendNative(e.address, recipient, nativeBought); err != nil {
		return nil, err
	}
	if err := b.Token(e.token).TransferFrom(e.address, buyer, e.address, sold); err != nil {
		return nil, err
	}
	e.emit(b, call, model.EventNativePurchase, buyer, common.Address{}, nativeBought, sold, nil)
	return sold, nil
}

func (e *Exchange) requireSeeded(r Reader) error {
	if r.Shares(e.address).TotalSupply().IsZero() {
		return fmt.Errorf("%w: pool %s has no liquidity", pricing.ErrInvalidReserves, e.address.Hex())
	}
	return nil
}
