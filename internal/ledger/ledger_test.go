package ledger

import (
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"exchangeLedger/internal/amount"
	"exchangeLedger/internal/state"
)

var (
	pool      = common.HexToAddress("0x00000000000000000000000000000000000000e1")
	owner     = common.HexToAddress("0x0000000000000000000000000000000000000001")
	spender   = common.HexToAddress("0x0000000000000000000000000000000000000002")
	recipient = common.HexToAddress("0x0000000000000000000000000000000000000003")
)

func u(v uint64) *uint256.Int { return uint256.NewInt(v) }

func newShares(t *testing.T) (*Ledger, *state.Tx) {
	t.Helper()
	tx := state.NewStore().Begin()
	return Shares(tx, pool), tx
}

func sumBalances(l *Ledger, owners ...common.Address) *uint256.Int {
	total := new(uint256.Int)
	for _, o := range owners {
		total.Add(total, l.BalanceOf(o))
	}
	return total
}

func TestAllowanceScenario(t *testing.T) {
	l, _ := newShares(t)
	if err := l.Mint(owner, u(100)); err != nil {
		t.Fatalf("mint: %v", err)
	}

	l.Approve(owner, spender, u(50))

	if err := l.TransferFrom(spender, owner, recipient, u(60)); !errors.Is(err, ErrInsufficientAllowance) {
		t.Fatalf("expected ErrInsufficientAllowance, got %v", err)
	}
	if l.BalanceOf(owner).Uint64() != 100 || l.Allowance(owner, spender).Uint64() != 50 {
		t.Fatalf("failed transfer_from changed state")
	}

	if err := l.TransferFrom(spender, owner, recipient, u(40)); err != nil {
		t.Fatalf("transfer_from: %v", err)
	}
	if got := l.Allowance(owner, spender).Uint64(); got != 10 {
		t.Fatalf("allowance = %d, want 10", got)
	}
	if l.BalanceOf(recipient).Uint64() != 40 || l.BalanceOf(owner).Uint64() != 60 {
		t.Fatalf("unexpected balances: owner=%s recipient=%s", l.BalanceOf(owner).Dec(), l.BalanceOf(recipient).Dec())
	}
}

func TestApproveOverwrites(t *testing.T) {
	l, _ := newShares(t)
	l.Approve(owner, spender, u(50))
	l.Approve(owner, spender, u(5))
	if got := l.Allowance(owner, spender).Uint64(); got != 5 {
		t.Fatalf("allowance = %d, want 5", got)
	}
}

func TestTransferFromChecksBalance(t *testing.T) {
	l, _ := newShares(t)
	if err := l.Mint(owner, u(10)); err != nil {
		t.Fatalf("mint: %v", err)
	}
	l.Approve(owner, spender, u(100))
	if err := l.TransferFrom(spender, owner, recipient, u(11)); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
	if l.Allowance(owner, spender).Uint64() != 100 {
		t.Fatalf("allowance spent on failed transfer")
	}
}

func TestMintBurnConservation(t *testing.T) {
	l, _ := newShares(t)
	steps := []struct {
		mint  bool
		who   common.Address
		value uint64
	}{
		{true, owner, 1_000},
		{true, spender, 250},
		{false, owner, 400},
		{true, recipient, 1},
		{false, spender, 250},
	}

	for i, s := range steps {
		var err error
		if s.mint {
			err = l.Mint(s.who, u(s.value))
		} else {
			err = l.Burn(s.who, u(s.value))
		}
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if !l.TotalSupply().Eq(sumBalances(l, owner, spender, recipient)) {
			t.Fatalf("step %d: supply %s != sum of balances", i, l.TotalSupply().Dec())
		}
	}

	if err := l.Burn(recipient, u(2)); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
}

func TestMintOverflow(t *testing.T) {
	l, _ := newShares(t)
	ceiling := new(uint256.Int).SetAllOne()
	if err := l.Mint(owner, ceiling); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if err := l.Mint(spender, u(1)); !errors.Is(err, amount.ErrOverflow) {
		t.Fatalf("expected ErrOverflow, got %v", err)
	}
	if !l.BalanceOf(spender).IsZero() {
		t.Fatalf("failed mint credited balance")
	}
}

func TestTransferToSelf(t *testing.T) {
	l, _ := newShares(t)
	if err := l.Mint(owner, u(7)); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if err := l.Transfer(owner, owner, u(7)); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if l.BalanceOf(owner).Uint64() != 7 {
		t.Fatalf("self transfer changed balance to %s", l.BalanceOf(owner).Dec())
	}
}

func TestScopesAreIsolated(t *testing.T) {
	tx := state.NewStore().Begin()
	shares := Shares(tx, pool)
	tokens := Tokens(tx, pool)
	if err := shares.Mint(owner, u(3)); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if !tokens.BalanceOf(owner).IsZero() || !tokens.TotalSupply().IsZero() {
		t.Fatalf("share mint leaked into token ledger")
	}
}
