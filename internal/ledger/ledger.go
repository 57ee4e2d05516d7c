// Package ledger implements an ERC20-style balance and allowance ledger over
// a state view. The same code backs pool shares and paired tokens; only the
// state spaces differ.
package ledger

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"exchangeLedger/internal/amount"
	"exchangeLedger/internal/state"
)

var (
	ErrInsufficientBalance   = errors.New("insufficient balance")
	ErrInsufficientAllowance = errors.New("insufficient allowance")
)

type spaces struct {
	balance   state.Space
	allowance state.Space
	supply    state.Space
}

var (
	nativeSpaces = spaces{balance: state.NativeBalance, supply: state.NativeSupply}
	shareSpaces  = spaces{balance: state.ShareBalance, allowance: state.ShareAllowance, supply: state.ShareSupply}
	tokenSpaces  = spaces{balance: state.TokenBalance, allowance: state.TokenAllowance, supply: state.TokenSupply}
)

// Ledger reads and writes one scope of the state. Authorization is the
// caller's job; Ledger only enforces balances, allowances and overflow.
type Ledger struct {
	view   state.View
	scope  common.Address
	spaces spaces
}

// Native returns the native-asset bank. It has no allowances.
func Native(view state.View) *Ledger {
	return &Ledger{view: view, spaces: nativeSpaces}
}

// Shares returns the liquidity-share ledger of pool.
func Shares(view state.View, pool common.Address) *Ledger {
	return &Ledger{view: view, scope: pool, spaces: shareSpaces}
}

// Tokens returns the balance ledger of a paired token.
func Tokens(view state.View, token common.Address) *Ledger {
	return &Ledger{view: view, scope: token, spaces: tokenSpaces}
}

func (l *Ledger) Scope() common.Address { return l.scope }

func (l *Ledger) balanceKey(owner common.Address) state.Key {
	return state.Key{Space: l.spaces.balance, Scope: l.scope, Owner: owner}
}

func (l *Ledger) allowanceKey(owner, spender common.Address) state.Key {
	return state.Key{Space: l.spaces.allowance, Scope: l.scope, Owner: owner, Spender: spender}
}

func (l *Ledger) supplyKey() state.Key {
	return state.Key{Space: l.spaces.supply, Scope: l.scope}
}

func (l *Ledger) BalanceOf(owner common.Address) *uint256.Int {
	return l.view.Get(l.balanceKey(owner))
}

func (l *Ledger) Allowance(owner, spender common.Address) *uint256.Int {
	return l.view.Get(l.allowanceKey(owner, spender))
}

func (l *Ledger) TotalSupply() *uint256.Int {
	return l.view.Get(l.supplyKey())
}

func (l *Ledger) Mint(owner common.Address, value *uint256.Int) error {
	balance, err := amount.Add(l.BalanceOf(owner), value)
	if err != nil {
		return fmt.Errorf("mint balance: %w", err)
	}
	supply, err := amount.Add(l.TotalSupply(), value)
	if err != nil {
		return fmt.Errorf("mint supply: %w", err)
	}
	l.view.Set(l.balanceKey(owner), balance)
	l.view.Set(l.supplyKey(), supply)
	return nil
}

func (l *Ledger) Burn(owner common.Address, value *uint256.Int) error {
	balance, err := l.debit(owner, value)
	if err != nil {
		return err
	}
	supply, err := amount.Sub(l.TotalSupply(), value)
	if err != nil {
		return fmt.Errorf("burn supply: %w", err)
	}
	l.view.Set(l.balanceKey(owner), balance)
	l.view.Set(l.supplyKey(), supply)
	return nil
}

func (l *Ledger) Transfer(from, to common.Address, value *uint256.Int) error {
	fromBalance, err := l.debit(from, value)
	if err != nil {
		return err
	}
	l.view.Set(l.balanceKey(from), fromBalance)

	toBalance, err := amount.Add(l.BalanceOf(to), value)
	if err != nil {
		// undo the debit so a failed transfer leaves this view untouched
		l.view.Set(l.balanceKey(from), new(uint256.Int).Add(fromBalance, value))
		return fmt.Errorf("transfer credit: %w", err)
	}
	l.view.Set(l.balanceKey(to), toBalance)
	return nil
}

// TransferFrom moves value from owner to recipient on behalf of spender and
// spends that much of the owner's allowance.
func (l *Ledger) TransferFrom(spender, owner, to common.Address, value *uint256.Int) error {
	allowed := l.Allowance(owner, spender)
	if allowed.Lt(value) {
		return fmt.Errorf("%w: %s allowed %s, want %s", ErrInsufficientAllowance, spender.Hex(), allowed.Dec(), value.Dec())
	}
	if err := l.Transfer(owner, to, value); err != nil {
		return err
	}
	l.view.Set(l.allowanceKey(owner, spender), new(uint256.Int).Sub(allowed, value))
	return nil
}

// Approve overwrites the allowance.
func (l *Ledger) Approve(owner, spender common.Address, value *uint256.Int) {
	l.view.Set(l.allowanceKey(owner, spender), value)
}

func (l *Ledger) debit(owner common.Address, value *uint256.Int) (*uint256.Int, error) {
	balance := l.BalanceOf(owner)
	if balance.Lt(value) {
		return nil, fmt.Errorf("%w: %s has %s, want %s", ErrInsufficientBalance, owner.Hex(), balance.Dec(), value.Dec())
	}
	return new(uint256.Int).Sub(balance, value), nil
}
