// Package state holds the sparse world state shared by the native bank, the
// token ledgers and every pool's share ledger.
//
// Missing keys read as zero and zero writes delete, so no account is ever
// materialized until it holds something. Mutations go through a Tx overlay;
// only the outermost Commit reaches the Store.
package state

import (
	"bytes"
	"errors"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

var ErrTxClosed = errors.New("transaction already closed")

// Space partitions the key space by the kind of amount stored.
type Space uint8

const (
	NativeBalance Space = iota + 1
	NativeSupply
	TokenBalance
	TokenAllowance
	TokenSupply
	ShareBalance
	ShareAllowance
	ShareSupply
)

func (s Space) String() string {
	switch s {
	case NativeBalance:
		return "native_balance"
	case NativeSupply:
		return "native_supply"
	case TokenBalance:
		return "token_balance"
	case TokenAllowance:
		return "token_allowance"
	case TokenSupply:
		return "token_supply"
	case ShareBalance:
		return "share_balance"
	case ShareAllowance:
		return "share_allowance"
	case ShareSupply:
		return "share_supply"
	default:
		return "unknown"
	}
}

// Key addresses one amount. Scope is the token or pool that owns the
// ledger; it is zero for native balances.
type Key struct {
	Space   Space
	Scope   common.Address
	Owner   common.Address
	Spender common.Address
}

// Reader reads amounts. Returned values are owned by the caller.
type Reader interface {
	Get(key Key) *uint256.Int
}

// View is a readable and writable state layer.
type View interface {
	Reader
	Set(key Key, value *uint256.Int)
}

// Entry is one stored amount.
type Entry struct {
	Key   Key
	Value *uint256.Int
}

// Store is the committed state.
type Store struct {
	mu     sync.RWMutex
	values map[Key]*uint256.Int
}

func NewStore() *Store {
	return &Store{values: make(map[Key]*uint256.Int)}
}

func (s *Store) Get(key Key) *uint256.Int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if v, ok := s.values[key]; ok {
		return v.Clone()
	}
	return new(uint256.Int)
}

// Len returns the number of non-zero entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.values)
}

// Scan returns the non-zero entries of one space and scope, ordered by owner
// then spender.
func (s *Store) Scan(space Space, scope common.Address) []Entry {
	s.mu.RLock()
	out := make([]Entry, 0)
	for k, v := range s.values {
		if k.Space == space && k.Scope == scope {
			out = append(out, Entry{Key: k, Value: v.Clone()})
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if c := bytes.Compare(out[i].Key.Owner[:], out[j].Key.Owner[:]); c != 0 {
			return c < 0
		}
		return bytes.Compare(out[i].Key.Spender[:], out[j].Key.Spender[:]) < 0
	})
	return out
}

// Begin opens a top-level transaction over the store.
func (s *Store) Begin() *Tx {
	return &Tx{store: s, writes: make(map[Key]*uint256.Int)}
}

func (s *Store) apply(writes map[Key]*uint256.Int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range writes {
		if v.IsZero() {
			delete(s.values, k)
			continue
		}
		s.values[k] = v
	}
}

// Tx buffers writes and journal entries until Commit. A nested Tx commits
// into its parent, so a child failure can be discarded without touching the
// parent's staged work.
type Tx struct {
	store   *Store
	parent  *Tx
	writes  map[Key]*uint256.Int
	journal []any
	closed  bool
}

func (t *Tx) Get(key Key) *uint256.Int {
	for cur := t; cur != nil; cur = cur.parent {
		if v, ok := cur.writes[key]; ok {
			return v.Clone()
		}
	}
	return t.store.Get(key)
}

func (t *Tx) Set(key Key, value *uint256.Int) {
	if value == nil {
		value = new(uint256.Int)
	}
	t.writes[key] = value.Clone()
}

// Append stages a journal entry that is published with the writes.
func (t *Tx) Append(entry any) {
	t.journal = append(t.journal, entry)
}

// Journal returns the entries staged so far, in order.
func (t *Tx) Journal() []any {
	out := make([]any, len(t.journal))
	copy(out, t.journal)
	return out
}

// Begin opens a nested transaction.
func (t *Tx) Begin() *Tx {
	return &Tx{store: t.store, parent: t, writes: make(map[Key]*uint256.Int)}
}

func (t *Tx) Commit() error {
	if t.closed {
		return ErrTxClosed
	}
	t.closed = true

	if t.parent != nil {
		for k, v := range t.writes {
			t.parent.writes[k] = v
		}
		t.parent.journal = append(t.parent.journal, t.journal...)
		return nil
	}
	t.store.apply(t.writes)
	return nil
}

// Discard drops every staged write. Discarding a closed Tx is a no-op.
func (t *Tx) Discard() {
	if t.closed {
		return
	}
	t.closed = true
	t.writes = nil
	t.journal = nil
}
