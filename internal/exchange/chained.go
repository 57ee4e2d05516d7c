package exchange

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"exchangeLedger/internal/model"
)

// TokenToTokenSwapInput sells tokensSold of this pool's token for at least
// minTokensBought of boughtToken, routing through the native asset. The
// second pool is found through the registry.
func (e *Exchange) TokenToTokenSwapInput(b Backend, call Call, tokensSold, minTokensBought, minNativeBought *uint256.Int, deadline uint64, boughtToken common.Address) (*uint256.Int, error) {
	if err := nonPayable(call); err != nil {
		return nil, err
	}
	return e.tokenToTokenInput(b, call, tokensSold, minTokensBought, minNativeBought, deadline, call.From, e.registry.Resolve(boughtToken))
}

func (e *Exchange) TokenToTokenTransferInput(b Backend, call Call, tokensSold, minTokensBought, minNativeBought *uint256.Int, deadline uint64, recipient, boughtToken common.Address) (*uint256.Int, error) {
	if err := nonPayable(call); err != nil {
		return nil, err
	}
	if err := e.checkRecipient(recipient); err != nil {
		return nil, err
	}
	return e.tokenToTokenInput(b, call, tokensSold, minTokensBought, minNativeBought, deadline, recipient, e.registry.Resolve(boughtToken))
}

// TokenToTokenSwapOutput buys exactly tokensBought of boughtToken selling at
// most maxTokensSold, with the intermediate native amount capped at
// maxNativeSold. It returns the tokens sold.
func (e *Exchange) TokenToTokenSwapOutput(b Backend, call Call, tokensBought, maxTokensSold, maxNativeSold *uint256.Int, deadline uint64, boughtToken common.Address) (*uint256.Int, error) {
	if err := nonPayable(call); err != nil {
		return nil, err
	}
	return e.tokenToTokenOutput(b, call, tokensBought, maxTokensSold, maxNativeSold, deadline, call.From, e.registry.Resolve(boughtToken))
}

func (e *Exchange) TokenToTokenTransferOutput(b Backend, call Call, tokensBought, maxTokensSold, maxNativeSold *uint256.Int, deadline uint64, recipient, boughtToken common.Address) (*uint256.Int, error) {
	if err := nonPayable(call); err != nil {
		return nil, err
	}
	if err := e.checkRecipient(recipient); err != nil {
		return nil, err
	}
	return e.tokenToTokenOutput(b, call, tokensBought, maxTokensSold, maxNativeSold, deadline, recipient, e.registry.Resolve(boughtToken))
}

// TokenToExchangeSwapInput is TokenToTokenSwapInput with the second pool
// given directly.
func (e *Exchange) TokenToExchangeSwapInput(b Backend, call Call, tokensSold, minTokensBought, minNativeBought *uint256.Int, deadline uint64, target common.Address) (*uint256.Int, error) {
	if err := nonPayable(call); err != nil {
		return nil, err
	}
	return e.tokenToTokenInput(b, call, tokensSold, minTokensBought, minNativeBought, deadline, call.From, target)
}

func (e *Exchange) TokenToExchangeTransferInput(b Backend, call Call, tokensSold, minTokensBought, minNativeBought *uint256.Int, deadline uint64, recipient, target common.Address) (*uint256.Int, error) {
	if err := nonPayable(call); err != nil {
		return nil, err
	}
	if err := e.checkRecipient(recipient); err != nil {
		return nil, err
	}
	return e.tokenToTokenInput(b, call, tokensSold, minTokensBought, minNativeBought, deadline, recipient, target)
}

func (e *Exchange) TokenToExchangeSwapOutput(b Backend, call Call, tokensBought, maxTokensSold, maxNativeSold *uint256.Int, deadline uint64, target common.Address) (*uint256.Int, error) {
	if err := nonPayable(call); err != nil {
		return nil, err
	}
	return e.tokenToTokenOutput(b, call, tokensBought, maxTokensSold, maxNativeSold, deadline, call.From, target)
}

func (e *Exchange) TokenToExchangeTransferOutput(b Backend, call Call, tokensBought, maxTokensSold, maxNativeSold *uint256.Int, deadline uint64, recipient, target common.Address) (*uint256.Int, error) {
	if err := nonPayable(call); err != nil {
		return nil, err
	}
	if err := e.checkRecipient(recipient); err != nil {
		return nil, err
	}
	return e.tokenToTokenOutput(b, call, tokensBought, maxTokensSold, maxNativeSold, deadline, recipient, target)
}

func (e *Exchange) target(b Backend, target, recipient common.Address) (*Exchange, error) {
	if target == e.address || target == (common.Address{}) {
		return nil, fmt.Errorf("%w: cannot route through %s", ErrUnauthorized, target.Hex())
	}
	other, ok := b.Exchange(target)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not a pool", ErrInvalidInput, target.Hex())
	}
	if recipient == other.address {
		return nil, fmt.Errorf("%w: recipient %s", ErrInvalidInput, recipient.Hex())
	}
	return other, nil
}

// The first leg sells tokens here for native; the second leg runs in a
// nested scope on the target pool and is dropped with everything else if it
// fails.
func (e *Exchange) tokenToTokenInput(b Backend, call Call, tokensSold, minTokensBought, minNativeBought *uint256.Int, deadline uint64, recipient, target common.Address) (*uint256.Int, error) {
	if err := checkDeadline(call, deadline); err != nil {
		return nil, err
	}
	if err := positive("tokens sold", tokensSold); err != nil {
		return nil, err
	}
	if err := positive("min tokens bought", minTokensBought); err != nil {
		return nil, err
	}
	if err := positive("min native bought", minNativeBought); err != nil {
		return nil, err
	}
	other, err := e.target(b, target, recipient)
	if err != nil {
		return nil, err
	}
	if err := e.requireSeeded(b); err != nil {
		return nil, err
	}

	nativeReserve, tokenReserve := e.Reserves(b)
	nativeBought, err := e.pricing.InputPrice(tokensSold, tokenReserve, nativeReserve)
	if err != nil {
		return nil, err
	}
	if nativeBought.Lt(minNativeBought) {
		return nil, fmt.Errorf("%w: first leg buys %s native, min %s", ErrSlippageExceeded, nativeBought.Dec(), minNativeBought.Dec())
	}

	if err := b.Token(e.token).TransferFrom(e.address, call.From, e.address, tokensSold); err != nil {
		return nil, err
	}

	leg := Call{From: e.address, To: other.address, Value: nativeBought, Timestamp: call.Timestamp}
	var tokensBought *uint256.Int
	err = b.Nested(leg, func(nb Backend) error {
		var err error
		tokensBought, err = other.nativeToTokenInput(nb, leg, nativeBought, minTokensBought, deadline, e.address, recipient)
		return err
	})
	if err != nil {
		return nil, err
	}

	e.emit(b, call, model.EventNativePurchase, call.From, common.Address{}, nativeBought, tokensSold, nil)
	return tokensBought, nil
}

// The second leg's native cost is quoted first, so the first leg is sized
// against the amount the target pool will actually charge.
func (e *Exchange) tokenToTokenOutput(b Backend, call Call, tokensBought, maxTokensSold, maxNativeSold *uint256.Int, deadline uint64, recipient, target common.Address) (*uint256.Int, error) {
	if err := checkDeadline(call, deadline); err != nil {
		return nil, err
	}
	if err := positive("tokens bought", tokensBought); err != nil {
		return nil, err
	}
	if err := positive("max tokens sold", maxTokensSold); err != nil {
		return nil, err
	}
	if err := positive("max native sold", maxNativeSold); err != nil {
		return nil, err
	}
	other, err := e.target(b, target, recipient)
	if err != nil {
		return nil, err
	}
	if err := e.requireSeeded(b); err != nil {
		return nil, err
	}

	nativeBought, err := other.NativeToTokenOutputPrice(b, tokensBought)
	if err != nil {
		return nil, err
	}

	nativeReserve, tokenReserve := e.Reserves(b)
	tokensSold, err := e.pricing.OutputPrice(nativeBought, tokenReserve, nativeReserve)
	if err != nil {
		return nil, err
	}
	if tokensSold.Gt(maxTokensSold) {
		return nil, fmt.Errorf("%w: costs %s tokens, max %s", ErrSlippageExceeded, tokensSold.Dec(), maxTokensSold.Dec())
	}
	if nativeBought.Gt(maxNativeSold) {
		return nil, fmt.Errorf("%w: routes %s native, max %s", ErrSlippageExceeded, nativeBought.Dec(), maxNativeSold.Dec())
	}

	if err := b.Token(e.token).TransferFrom(e.address, call.From, e.address, tokensSold); err != nil {
		return nil, err
	}

	leg := Call{From: e.address, To: other.address, Value: nativeBought, Timestamp: call.Timestamp}
	err = b.Nested(leg, func(nb Backend) error {
		_, err := other.nativeToTokenOutput(nb, leg, tokensBought, nativeBought, deadline, e.address, recipient)
		return err
	})
	if err != nil {
		return nil, err
	}

	e.emit(b, call, model.EventNativePurchase, call.From, common.Address{}, nativeBought, tokensSold, nil)
	return tokensSold, nil
}
