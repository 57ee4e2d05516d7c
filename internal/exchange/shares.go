package exchange

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"exchangeLedger/internal/model"
)

func (e *Exchange) BalanceOf(r Reader, owner common.Address) *uint256.Int {
	return r.Shares(e.address).BalanceOf(owner)
}

func (e *Exchange) Allowance(r Reader, owner, spender common.Address) *uint256.Int {
	return r.Shares(e.address).Allowance(owner, spender)
}

func (e *Exchange) TotalSupply(r Reader) *uint256.Int {
	return r.Shares(e.address).TotalSupply()
}

// Transfer moves shares from the caller to to.
func (e *Exchange) Transfer(b Backend, call Call, to common.Address, value *uint256.Int) error {
	if err := nonPayable(call); err != nil {
		return err
	}
	if err := b.Shares(e.address).Transfer(call.From, to, value); err != nil {
		return err
	}
	e.emit(b, call, model.EventTransfer, call.From, to, nil, nil, value)
	return nil
}

// TransferFrom moves shares from owner to to, spending the caller's
// allowance.
func (e *Exchange) TransferFrom(b Backend, call Call, owner, to common.Address, value *uint256.Int) error {
	if err := nonPayable(call); err != nil {
		return err
	}
	if err := b.Shares(e.address).TransferFrom(call.From, owner, to, value); err != nil {
		return err
	}
	e.emit(b, call, model.EventTransfer, owner, to, nil, nil, value)
	return nil
}

// Approve sets the caller's allowance for spender, replacing any previous
// value.
func (e *Exchange) Approve(b Backend, call Call, spender common.Address, value *uint256.Int) error {
	if err := nonPayable(call); err != nil {
		return err
	}
	b.Shares(e.address).Approve(call.From, spender, value)
	e.emit(b, call, model.EventApproval, call.From, spender, nil, nil, value)
	return nil
}
