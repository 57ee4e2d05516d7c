package exchange

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"exchangeLedger/internal/amount"
	"exchangeLedger/internal/model"
	"exchangeLedger/internal/pricing"
)

// AddLiquidity deposits call.Value native plus a matching token amount and
// mints shares to the caller. The first deposit sets the price: it mints
// call.Value shares and pulls exactly maxTokens. Later deposits pull the
// token amount that keeps the current ratio, rounded up.
func (e *Exchange) AddLiquidity(b Backend, call Call, minShares, maxTokens *uint256.Int, deadline uint64) (*uint256.Int, error) {
	if err := checkDeadline(call, deadline); err != nil {
		return nil, err
	}
	if err := positive("max tokens", maxTokens); err != nil {
		return nil, err
	}
	value := call.value()
	if err := positive("value", value); err != nil {
		return nil, err
	}

	shares := b.Shares(e.address)
	total := shares.TotalSupply()
	if total.IsZero() {
		return e.seed(b, call, maxTokens)
	}

	if err := positive("min shares", minShares); err != nil {
		return nil, err
	}

	// value has already arrived, so the pre-deposit reserve excludes it
	nativeReserve, err := amount.Sub(b.NativeBalance(e.address), value)
	if err != nil {
		return nil, err
	}
	tok := b.Token(e.token)
	tokenReserve := tok.BalanceOf(e.address)

	tokenAmount, err := amount.MulDiv(value, tokenReserve, nativeReserve)
	if err != nil {
		return nil, err
	}
	if tokenAmount, err = amount.Add(tokenAmount, amount.Of(1)); err != nil {
		return nil, err
	}
	minted, err := amount.MulDiv(value, total, nativeReserve)
	if err != nil {
		return nil, err
	}

	if tokenAmount.Gt(maxTokens) {
		return nil, fmt.Errorf("%w: deposit needs %s tokens, max %s", ErrSlippageExceeded, tokenAmount.Dec(), maxTokens.Dec())
	}
	if minted.Lt(minShares) {
		return nil, fmt.Errorf("%w: deposit mints %s shares, min %s", ErrSlippageExceeded, minted.Dec(), minShares.Dec())
	}

	if err := shares.Mint(call.From, minted); err != nil {
		return nil, err
	}
	if err := tok.TransferFrom(e.address, call.From, e.address, tokenAmount); err != nil {
		return nil, err
	}

	e.emit(b, call, model.EventAddLiquidity, call.From, common.Address{}, value, tokenAmount, nil)
	e.emit(b, call, model.EventTransfer, common.Address{}, call.From, nil, nil, minted)
	return minted, nil
}

func (e *Exchange) seed(b Backend, call Call, tokenAmount *uint256.Int) (*uint256.Int, error) {
	if e.registry.Resolve(e.token) != e.address {
		return nil, fmt.Errorf("%w: %s is not the registered pool for %s", ErrUnauthorized, e.address.Hex(), e.token.Hex())
	}
	value := call.value()
	if value.Lt(e.minSeed) {
		return nil, fmt.Errorf("%w: seed %s below minimum %s", ErrInvalidInput, value.Dec(), e.minSeed.Dec())
	}

	if err := b.Shares(e.address).Mint(call.From, value); err != nil {
		return nil, err
	}
	if err := b.Token(e.token).TransferFrom(e.address, call.From, e.address, tokenAmount); err != nil {
		return nil, err
	}

	e.logger.Debug("pool seeded",
		zap.String("pool", e.address.Hex()),
		zap.String("provider", call.From.Hex()),
		zap.String("native", value.Dec()),
		zap.String("token", tokenAmount.Dec()),
	)

	e.emit(b, call, model.EventAddLiquidity, call.From, common.Address{}, value, tokenAmount, nil)
	e.emit(b, call, model.EventTransfer, common.Address{}, call.From, nil, nil, value)
	return value.Clone(), nil
}

// RemoveLiquidity burns shares and pays out the pro-rata native and token
// amounts, both rounded down.
func (e *Exchange) RemoveLiquidity(b Backend, call Call, burn, minNative, minTokens *uint256.Int, deadline uint64) (*uint256.Int, *uint256.Int, error) {
	if err := nonPayable(call); err != nil {
		return nil, nil, err
	}
	if err := positive("shares", burn); err != nil {
		return nil, nil, err
	}
	if err := checkDeadline(call, deadline); err != nil {
		return nil, nil, err
	}
	if err := positive("min native", minNative); err != nil {
		return nil, nil, err
	}
	if err := positive("min tokens", minTokens); err != nil {
		return nil, nil, err
	}

	shares := b.Shares(e.address)
	total := shares.TotalSupply()
	if total.IsZero() {
		return nil, nil, fmt.Errorf("%w: pool has no liquidity", pricing.ErrInvalidReserves)
	}

	nativeReserve, tokenReserve := e.Reserves(b)
	nativeOut, err := amount.MulDiv(burn, nativeReserve, total)
	if err != nil {
		return nil, nil, err
	}
	tokenOut, err := amount.MulDiv(burn, tokenReserve, total)
	if err != nil {
		return nil, nil, err
	}
	if nativeOut.Lt(minNative) {
		return nil, nil, fmt.Errorf("%w: withdraw yields %s native, min %s", ErrSlippageExceeded, nativeOut.Dec(), minNative.Dec())
	}
	if tokenOut.Lt(minTokens) {
		return nil, nil, fmt.Errorf("%w: withdraw yields %s tokens, min %s", ErrSlippageExceeded, tokenOut.Dec(), minTokens.Dec())
	}

	if err := shares.Burn(call.From, burn); err != nil {
		return nil, nil, err
	}
	if err := b.SendNative(e.address, call.From, nativeOut); err != nil {
		return nil, nil, err
	}
	if err := b.Token(e.token).Transfer(e.address, call.From, tokenOut); err != nil {
		return nil, nil, err
	}

	e.emit(b, call, model.EventRemoveLiquidity, call.From, common.Address{}, nativeOut, tokenOut, nil)
	e.emit(b, call, model.EventTransfer, call.From, common.Address{}, nil, nil, burn)
	return nativeOut, tokenOut, nil
}
