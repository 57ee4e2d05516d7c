// Package registry maps paired tokens to their canonical pool addresses.
package registry

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/zeebo/blake3"
)

var (
	ErrZeroToken     = errors.New("token address is zero")
	ErrAlreadyExists = errors.New("pool already exists for token")
)

// Registry is the pool factory's lookup table. Token ids start at 1.
type Registry struct {
	address common.Address

	mu          sync.RWMutex
	poolByToken map[common.Address]common.Address
	tokenByPool map[common.Address]common.Address
	tokenByID   map[uint64]common.Address
	count       uint64
}

func New(address common.Address) *Registry {
	return &Registry{
		address:     address,
		poolByToken: make(map[common.Address]common.Address),
		tokenByPool: make(map[common.Address]common.Address),
		tokenByID:   make(map[uint64]common.Address),
	}
}

// Address identifies the registry itself.
func (r *Registry) Address() common.Address {
	return r.address
}

// Create registers a pool for token and returns its address. The address is
// derived from the registry and token, so replays produce the same pools.
func (r *Registry) Create(token common.Address) (common.Address, error) {
	if token == (common.Address{}) {
		return common.Address{}, ErrZeroToken
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.poolByToken[token]; ok {
		return common.Address{}, fmt.Errorf("%w: %s at %s", ErrAlreadyExists, token.Hex(), existing.Hex())
	}

	pool := PoolAddress(r.address, token)
	r.count++
	r.poolByToken[token] = pool
	r.tokenByPool[pool] = token
	r.tokenByID[r.count] = token
	return pool, nil
}

// Resolve returns the pool for token, or the zero address.
func (r *Registry) Resolve(token common.Address) common.Address {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.poolByToken[token]
}

// TokenOf returns the token traded by pool, or the zero address.
func (r *Registry) TokenOf(pool common.Address) common.Address {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tokenByPool[pool]
}

// TokenWithID returns the token registered under id, or the zero address.
func (r *Registry) TokenWithID(id uint64) common.Address {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tokenByID[id]
}

func (r *Registry) TokenCount() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.count
}

// Pools returns every pool in creation order.
func (r *Registry) Pools() []common.Address {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]common.Address, 0, r.count)
	for id := uint64(1); id <= r.count; id++ {
		out = append(out, r.poolByToken[r.tokenByID[id]])
	}
	return out
}

// PoolAddress derives the pool address for token under registry.
func PoolAddress(registry, token common.Address) common.Address {
	h := blake3.New()
	_, _ = h.Write([]byte("exchange-pool"))
	_, _ = h.Write(registry.Bytes())
	_, _ = h.Write(token.Bytes())
	var digest [32]byte
	_, _ = h.Digest().Read(digest[:])
	return common.BytesToAddress(digest[12:])
}
