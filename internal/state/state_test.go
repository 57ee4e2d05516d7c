package state

import (
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

var (
	alice = common.HexToAddress("0x00000000000000000000000000000000000a11ce")
	bob   = common.HexToAddress("0x0000000000000000000000000000000000000b0b")
)

func nativeKey(owner common.Address) Key {
	return Key{Space: NativeBalance, Owner: owner}
}

func TestMissingReadsZero(t *testing.T) {
	s := NewStore()
	if v := s.Get(nativeKey(alice)); !v.IsZero() {
		t.Fatalf("expected zero, got %s", v.Dec())
	}
}

func TestCommitAppliesAndZeroDeletes(t *testing.T) {
	s := NewStore()

	tx := s.Begin()
	tx.Set(nativeKey(alice), uint256.NewInt(10))
	tx.Set(nativeKey(bob), uint256.NewInt(5))
	if s.Len() != 0 {
		t.Fatalf("store mutated before commit")
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if s.Get(nativeKey(alice)).Uint64() != 10 || s.Len() != 2 {
		t.Fatalf("unexpected store after commit: len=%d", s.Len())
	}

	tx = s.Begin()
	tx.Set(nativeKey(bob), new(uint256.Int))
	if err := tx.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if s.Len() != 1 {
		t.Fatalf("zero write should delete, len=%d", s.Len())
	}
}

func TestDiscardLeavesStore(t *testing.T) {
	s := NewStore()
	tx := s.Begin()
	tx.Set(nativeKey(alice), uint256.NewInt(1))
	tx.Append("event")
	tx.Discard()

	if s.Len() != 0 {
		t.Fatalf("discard leaked writes")
	}
	if err := tx.Commit(); !errors.Is(err, ErrTxClosed) {
		t.Fatalf("expected ErrTxClosed, got %v", err)
	}
}

func TestNestedDiscardKeepsParent(t *testing.T) {
	s := NewStore()
	tx := s.Begin()
	tx.Set(nativeKey(alice), uint256.NewInt(7))
	tx.Append("outer")

	child := tx.Begin()
	if child.Get(nativeKey(alice)).Uint64() != 7 {
		t.Fatalf("child should see parent writes")
	}
	child.Set(nativeKey(alice), uint256.NewInt(1))
	child.Append("inner")
	child.Discard()

	if tx.Get(nativeKey(alice)).Uint64() != 7 {
		t.Fatalf("parent changed by discarded child")
	}
	if got := tx.Journal(); len(got) != 1 || got[0] != "outer" {
		t.Fatalf("unexpected journal: %v", got)
	}
}

func TestNestedCommitMergesIntoParent(t *testing.T) {
	s := NewStore()
	tx := s.Begin()
	child := tx.Begin()
	child.Set(nativeKey(bob), uint256.NewInt(3))
	child.Append("inner")
	if err := child.Commit(); err != nil {
		t.Fatalf("child commit: %v", err)
	}
	if s.Len() != 0 {
		t.Fatalf("nested commit reached the store")
	}
	if tx.Get(nativeKey(bob)).Uint64() != 3 {
		t.Fatalf("parent missing child write")
	}
	if len(tx.Journal()) != 1 {
		t.Fatalf("parent missing child journal")
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if s.Get(nativeKey(bob)).Uint64() != 3 {
		t.Fatalf("store missing write")
	}
}

func TestReturnedValuesAreCopies(t *testing.T) {
	s := NewStore()
	tx := s.Begin()
	v := uint256.NewInt(4)
	tx.Set(nativeKey(alice), v)
	v.SetUint64(99)
	got := tx.Get(nativeKey(alice))
	got.SetUint64(42)
	if tx.Get(nativeKey(alice)).Uint64() != 4 {
		t.Fatalf("stored value aliased")
	}
}

func TestScanOrdered(t *testing.T) {
	s := NewStore()
	pool := common.HexToAddress("0x1")
	tx := s.Begin()
	tx.Set(Key{Space: ShareBalance, Scope: pool, Owner: bob}, uint256.NewInt(2))
	tx.Set(Key{Space: ShareBalance, Scope: pool, Owner: alice}, uint256.NewInt(1))
	tx.Set(Key{Space: TokenBalance, Scope: pool, Owner: alice}, uint256.NewInt(9))
	if err := tx.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}

	got := s.Scan(ShareBalance, pool)
	if len(got) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(got))
	}
	if got[0].Key.Owner != bob || got[1].Key.Owner != alice {
		t.Fatalf("unexpected order: %s, %s", got[0].Key.Owner.Hex(), got[1].Key.Owner.Hex())
	}
}
