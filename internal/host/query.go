package host

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"exchangeLedger/internal/exchange"
	"exchangeLedger/internal/ledger"
	"exchangeLedger/internal/model"
	"exchangeLedger/internal/state"
)

// Reads run against a scratch transaction over the committed state and see
// nothing of calls still in flight.

func (h *Host) view() *backend {
	return &backend{host: h, tx: h.store.Begin()}
}

// Exchange returns the pool at addr.
func (h *Host) Exchange(addr common.Address) (*exchange.Exchange, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	ex, ok := h.pools[addr]
	return ex, ok
}

func (h *Host) NativeBalance(owner common.Address) *uint256.Int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return ledger.Native(h.view().tx).BalanceOf(owner)
}

// NativeSupply returns the total native ever funded.
func (h *Host) NativeSupply() *uint256.Int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return ledger.Native(h.view().tx).TotalSupply()
}

func (h *Host) TokenBalance(tokenID, owner common.Address) *uint256.Int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return ledger.Tokens(h.view().tx, tokenID).BalanceOf(owner)
}

func (h *Host) TokenAllowance(tokenID, owner, spender common.Address) *uint256.Int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return ledger.Tokens(h.view().tx, tokenID).Allowance(owner, spender)
}

func (h *Host) ShareBalance(pool, owner common.Address) *uint256.Int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return ledger.Shares(h.view().tx, pool).BalanceOf(owner)
}

func (h *Host) ShareAllowance(pool, owner, spender common.Address) *uint256.Int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return ledger.Shares(h.view().tx, pool).Allowance(owner, spender)
}

// Quote prices kind on the pool at addr against committed reserves.
func (h *Host) Quote(addr common.Address, kind string, v *uint256.Int) (*uint256.Int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	ex, ok := h.pools[addr]
	if !ok {
		return nil, fmt.Errorf("%w: %s is not a pool", exchange.ErrInvalidInput, addr.Hex())
	}
	return ex.Quote(h.view(), kind, v)
}

// Pool summarizes the pool at addr.
func (h *Host) Pool(addr common.Address) (model.PoolSummary, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	ex, ok := h.pools[addr]
	if !ok {
		return model.PoolSummary{}, false
	}
	return h.summary(ex), true
}

// Pools summarizes every pool in creation order.
func (h *Host) Pools() []model.PoolSummary {
	h.mu.Lock()
	defer h.mu.Unlock()
	addrs := h.registry.Pools()
	out := make([]model.PoolSummary, 0, len(addrs))
	for _, addr := range addrs {
		if ex, ok := h.pools[addr]; ok {
			out = append(out, h.summary(ex))
		}
	}
	return out
}

// Holders lists the share balances of the pool at addr.
func (h *Host) Holders(addr common.Address) []state.Entry {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.store.Scan(state.ShareBalance, addr)
}

func (h *Host) summary(ex *exchange.Exchange) model.PoolSummary {
	b := h.view()
	native, tokens := ex.Reserves(b)
	return model.PoolSummary{
		Pool: model.Pool{
			Address:   ex.Address().Hex(),
			Token:     ex.TokenAddress().Hex(),
			TokenID:   h.tokenID(ex.TokenAddress()),
			Registry:  ex.RegistryAddress().Hex(),
			FirstSeen: h.created[ex.Address()],
		},
		NativeReserve: native.Dec(),
		TokenReserve:  tokens.Dec(),
		TotalShares:   ex.TotalSupply(b).Dec(),
		Holders:       len(h.store.Scan(state.ShareBalance, ex.Address())),
	}
}

func (h *Host) tokenID(token common.Address) uint64 {
	for id := uint64(1); id <= h.registry.TokenCount(); id++ {
		if h.registry.TokenWithID(id) == token {
			return id
		}
	}
	return 0
}
