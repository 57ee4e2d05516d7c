package exchange_test

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"exchangeLedger/internal/amount"
	"exchangeLedger/internal/exchange"
	"exchangeLedger/internal/host"
	"exchangeLedger/internal/model"
)

const (
	now   = uint64(100)
	later = uint64(1000)
)

var (
	alice  = common.HexToAddress("0x00000000000000000000000000000000000a11ce")
	bob    = common.HexToAddress("0x0000000000000000000000000000000000000b0b")
	tokenA = common.HexToAddress("0x000000000000000000000000000000000000aaaa")
	tokenB = common.HexToAddress("0x000000000000000000000000000000000000bbbb")
)

type opFunc func(b exchange.Backend, ex *exchange.Exchange, call exchange.Call) ([]*uint256.Int, error)

type world struct {
	t   *testing.T
	ctx context.Context
	h   *host.Host
}

func newWorld(t *testing.T, cfg host.Config) *world {
	t.Helper()
	if cfg.Registry == (common.Address{}) {
		cfg.Registry = common.HexToAddress("0x0000000000000000000000000000000000000f00")
	}
	return &world{t: t, ctx: context.Background(), h: host.New(cfg, nil, nil, nil)}
}

func (w *world) fund(owner common.Address, v uint64) {
	w.t.Helper()
	_, err := w.h.Fund(w.ctx, owner, amount.Of(v), now)
	require.NoError(w.t, err)
}

func (w *world) mint(tok, owner common.Address, v uint64) {
	w.t.Helper()
	_, err := w.h.MintToken(w.ctx, exchange.Call{From: owner, Timestamp: now}, tok, owner, amount.Of(v))
	require.NoError(w.t, err)
}

func (w *world) approve(tok, owner, spender common.Address, v uint64) {
	w.t.Helper()
	_, err := w.h.ApproveToken(w.ctx, exchange.Call{From: owner, Timestamp: now}, tok, spender, amount.Of(v))
	require.NoError(w.t, err)
}

func (w *world) create(tok common.Address) common.Address {
	w.t.Helper()
	pool, _, err := w.h.CreateExchange(w.ctx, exchange.Call{From: alice, Timestamp: now}, tok)
	require.NoError(w.t, err)
	return pool
}

func (w *world) invoke(op string, from, to common.Address, value uint64, fn opFunc) (model.Receipt, error) {
	call := exchange.Call{From: from, To: to, Value: amount.Of(value), Timestamp: now}
	return w.h.Invoke(w.ctx, op, call, func(b exchange.Backend, ex *exchange.Exchange) ([]*uint256.Int, error) {
		return fn(b, ex, call)
	})
}

func (w *world) addLiquidity(from, pool common.Address, value, minShares, maxTokens uint64) (*uint256.Int, error) {
	var minted *uint256.Int
	_, err := w.invoke("add_liquidity", from, pool, value, func(b exchange.Backend, ex *exchange.Exchange, call exchange.Call) ([]*uint256.Int, error) {
		var err error
		minted, err = ex.AddLiquidity(b, call, amount.Of(minShares), amount.Of(maxTokens), later)
		return nil, err
	})
	return minted, err
}

// seeded funds alice, gives her tok, and seeds a new pool for tok.
func (w *world) seeded(tok common.Address, native, tokens uint64) common.Address {
	w.t.Helper()
	w.fund(alice, native)
	w.mint(tok, alice, tokens)
	pool := w.create(tok)
	w.approve(tok, alice, pool, tokens)
	_, err := w.addLiquidity(alice, pool, native, 0, tokens)
	require.NoError(w.t, err)
	return pool
}

func (w *world) reserves(pool common.Address) (native, tokens *uint256.Int) {
	ex, ok := w.h.Exchange(pool)
	require.True(w.t, ok)
	return w.h.NativeBalance(pool), w.h.TokenBalance(ex.TokenAddress(), pool)
}

func (w *world) k(pool common.Address) *uint256.Int {
	native, tokens := w.reserves(pool)
	k, err := amount.Mul(native, tokens)
	require.NoError(w.t, err)
	return k
}

func (w *world) quote(pool common.Address, kind string, v uint64) *uint256.Int {
	w.t.Helper()
	q, err := w.h.Quote(pool, kind, amount.Of(v))
	require.NoError(w.t, err)
	return q
}

func u(v uint64) *uint256.Int { return amount.Of(v) }
