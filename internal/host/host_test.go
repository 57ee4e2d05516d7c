package host

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"exchangeLedger/internal/amount"
	"exchangeLedger/internal/exchange"
	"exchangeLedger/internal/model"
	"exchangeLedger/internal/registry"
)

var (
	alice        = common.HexToAddress("0x00000000000000000000000000000000000a11ce")
	bob          = common.HexToAddress("0x0000000000000000000000000000000000000b0b")
	tokenA       = common.HexToAddress("0x000000000000000000000000000000000000aaaa")
	registryAddr = common.HexToAddress("0x0000000000000000000000000000000000000f00")
)

type memSink struct {
	events   []model.Event
	receipts []model.Receipt
}

func (s *memSink) PutEvents(events []model.Event) error {
	s.events = append(s.events, events...)
	return nil
}

func (s *memSink) PutReceipts(receipts []model.Receipt) error {
	s.receipts = append(s.receipts, receipts...)
	return nil
}

func seededPool(t *testing.T, h *Host) common.Address {
	t.Helper()
	ctx := context.Background()
	_, err := h.Fund(ctx, alice, amount.Of(10_000_000_000), 1)
	require.NoError(t, err)
	_, err = h.MintToken(ctx, exchange.Call{From: alice, Timestamp: 1}, tokenA, alice, amount.Of(50_000_000_000))
	require.NoError(t, err)
	pool, _, err := h.CreateExchange(ctx, exchange.Call{From: alice, Timestamp: 1}, tokenA)
	require.NoError(t, err)
	_, err = h.ApproveToken(ctx, exchange.Call{From: alice, Timestamp: 1}, tokenA, pool, amount.Of(50_000_000_000))
	require.NoError(t, err)

	call := exchange.Call{From: alice, To: pool, Value: amount.Of(5_000_000_000), Timestamp: 2}
	_, err = h.Invoke(ctx, "add_liquidity", call, func(b exchange.Backend, ex *exchange.Exchange) ([]*uint256.Int, error) {
		minted, err := ex.AddLiquidity(b, call, amount.Of(1), amount.Of(10_000_000_000), 10)
		return []*uint256.Int{minted}, err
	})
	require.NoError(t, err)
	return pool
}

func TestFailedCallLeavesNoTrace(t *testing.T) {
	sink := &memSink{}
	h := New(Config{Registry: registryAddr}, sink, nil, nil)
	pool := seededPool(t, h)

	before := len(sink.events)
	nativeBefore := h.NativeBalance(alice)
	poolBefore := h.NativeBalance(pool)

	call := exchange.Call{From: alice, To: pool, Value: amount.Of(1_000_000), Timestamp: 3}
	rec, err := h.Invoke(context.Background(), "eth_to_token_swap_input", call, func(b exchange.Backend, ex *exchange.Exchange) ([]*uint256.Int, error) {
		bought, err := ex.NativeToTokenSwapInput(b, call, amount.Of(1_000_000_000_000), 10)
		return []*uint256.Int{bought}, err
	})
	require.ErrorIs(t, err, exchange.ErrSlippageExceeded)

	assert.Equal(t, model.StatusFailed, rec.Status)
	assert.Equal(t, exchange.KindSlippageExceeded, rec.ErrorKind)
	assert.Zero(t, rec.Events)
	assert.Empty(t, rec.Outputs)
	assert.Equal(t, before, len(sink.events))
	assert.Equal(t, nativeBefore, h.NativeBalance(alice))
	assert.Equal(t, poolBefore, h.NativeBalance(pool))
	assert.Equal(t, rec, sink.receipts[len(sink.receipts)-1])
}

func TestEventSequenceHasNoGaps(t *testing.T) {
	sink := &memSink{}
	h := New(Config{Registry: registryAddr}, sink, nil, nil)
	pool := seededPool(t, h)

	ctx := context.Background()
	swap := func(minTokens uint64) {
		call := exchange.Call{From: alice, To: pool, Value: amount.Of(1_000_000), Timestamp: 3}
		_, _ = h.Invoke(ctx, "eth_to_token_swap_input", call, func(b exchange.Backend, ex *exchange.Exchange) ([]*uint256.Int, error) {
			bought, err := ex.NativeToTokenSwapInput(b, call, amount.Of(minTokens), 10)
			return []*uint256.Int{bought}, err
		})
	}
	swap(1)
	swap(1 << 62)
	swap(1)

	require.NotEmpty(t, sink.events)
	for i, ev := range sink.events {
		assert.Equal(t, uint64(i+1), ev.Seq)
		assert.NotEmpty(t, ev.CallID)
	}

	seen := make(map[string]bool)
	for i, rec := range sink.receipts {
		assert.Equal(t, uint64(i+1), rec.Seq)
		assert.False(t, seen[rec.ID], "duplicate receipt id %s", rec.ID)
		seen[rec.ID] = true
	}
}

func TestCreateExchange(t *testing.T) {
	ctx := context.Background()
	h := New(Config{Registry: registryAddr}, nil, nil, nil)
	call := exchange.Call{From: alice, Timestamp: 1}

	t.Run("zero token", func(t *testing.T) {
		_, rec, err := h.CreateExchange(ctx, call, common.Address{})
		require.ErrorIs(t, err, exchange.ErrInvalidInput)
		assert.Equal(t, exchange.KindInvalidInput, rec.ErrorKind)
	})

	t.Run("duplicate", func(t *testing.T) {
		pool, _, err := h.CreateExchange(ctx, call, tokenA)
		require.NoError(t, err)
		assert.Equal(t, pool, h.Registry().Resolve(tokenA))

		_, rec, err := h.CreateExchange(ctx, call, tokenA)
		require.ErrorIs(t, err, exchange.ErrUnauthorized)
		assert.Equal(t, exchange.KindUnauthorized, rec.ErrorKind)
		assert.Len(t, h.Pools(), 1)
	})

	t.Run("invoke on non-pool", func(t *testing.T) {
		rec, err := h.Invoke(ctx, "balance_of", exchange.Call{From: alice, To: bob}, func(exchange.Backend, *exchange.Exchange) ([]*uint256.Int, error) {
			return nil, nil
		})
		require.ErrorIs(t, err, exchange.ErrInvalidInput)
		assert.Equal(t, model.StatusFailed, rec.Status)
	})
}

func TestSend(t *testing.T) {
	ctx := context.Background()
	h := New(Config{Registry: registryAddr}, nil, nil, nil)
	pool := seededPool(t, h)

	t.Run("plain transfer", func(t *testing.T) {
		rec, err := h.Send(ctx, exchange.Call{From: alice, To: bob, Value: amount.Of(7), Timestamp: 3})
		require.NoError(t, err)
		assert.Equal(t, model.StatusOK, rec.Status)
		assert.Equal(t, amount.Of(7), h.NativeBalance(bob))
	})

	t.Run("overdraft", func(t *testing.T) {
		rec, err := h.Send(ctx, exchange.Call{From: bob, To: alice, Value: amount.Of(8), Timestamp: 3})
		require.Error(t, err)
		assert.Equal(t, exchange.KindInsufficientBalance, rec.ErrorKind)
		assert.Equal(t, amount.Of(7), h.NativeBalance(bob))
	})

	t.Run("pool runs default swap", func(t *testing.T) {
		quote, err := h.Quote(pool, exchange.QuoteNativeToTokenInput, amount.Of(1_000_000))
		require.NoError(t, err)

		rec, err := h.Send(ctx, exchange.Call{From: alice, To: pool, Value: amount.Of(1_000_000), Timestamp: 3})
		require.NoError(t, err)
		require.Len(t, rec.Outputs, 1)
		assert.Equal(t, quote.Dec(), rec.Outputs[0])
		assert.Equal(t, 1, rec.Events)
	})
}

func TestPoolNativeOnlyMovesThroughOperations(t *testing.T) {
	ctx := context.Background()
	h := New(Config{Registry: registryAddr}, nil, nil, nil)
	pool := seededPool(t, h)
	reserve := h.NativeBalance(pool)

	t.Run("fund pool", func(t *testing.T) {
		rec, err := h.Fund(ctx, pool, amount.Of(500_000_000), 3)
		require.ErrorIs(t, err, exchange.ErrInvalidInput)
		assert.Equal(t, exchange.KindInvalidInput, rec.ErrorKind)
		assert.Equal(t, reserve, h.NativeBalance(pool))
	})

	t.Run("pool as caller", func(t *testing.T) {
		rec, err := h.Send(ctx, exchange.Call{From: pool, To: bob, Value: amount.Of(1), Timestamp: 3})
		require.ErrorIs(t, err, exchange.ErrUnauthorized)
		assert.Equal(t, exchange.KindUnauthorized, rec.ErrorKind)
		assert.Equal(t, reserve, h.NativeBalance(pool))
		assert.True(t, h.NativeBalance(bob).IsZero())
	})

	t.Run("create over prefunded address", func(t *testing.T) {
		tokenB := common.HexToAddress("0x000000000000000000000000000000000000bbbb")
		next := registry.PoolAddress(registryAddr, tokenB)

		_, err := h.Fund(ctx, next, amount.Of(500_000_000), 3)
		require.NoError(t, err)

		_, rec, err := h.CreateExchange(ctx, exchange.Call{From: alice, Timestamp: 3}, tokenB)
		require.ErrorIs(t, err, exchange.ErrInvalidInput)
		assert.Equal(t, exchange.KindInvalidInput, rec.ErrorKind)
		assert.Equal(t, common.Address{}, h.Registry().Resolve(tokenB))
		assert.Len(t, h.Pools(), 1)
	})
}

func TestSeedReserveIsAttachedValue(t *testing.T) {
	ctx := context.Background()
	h := New(Config{Registry: registryAddr}, nil, nil, nil)
	pool := registry.PoolAddress(registryAddr, tokenA)

	// a payment to the pool address before it exists
	_, err := h.Fund(ctx, alice, amount.Of(2_000_000_000), 1)
	require.NoError(t, err)
	_, err = h.Send(ctx, exchange.Call{From: alice, To: pool, Value: amount.Of(500_000_000), Timestamp: 1})
	require.NoError(t, err)

	_, _, err = h.CreateExchange(ctx, exchange.Call{From: alice, Timestamp: 1}, tokenA)
	require.ErrorIs(t, err, exchange.ErrInvalidInput)
	_, ok := h.Exchange(pool)
	assert.False(t, ok)
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	h := New(Config{Registry: registryAddr}, nil, m, nil)
	seededPool(t, h)

	_, err := h.Send(context.Background(), exchange.Call{From: bob, To: alice, Value: amount.Of(1), Timestamp: 3})
	require.Error(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.calls.WithLabelValues(OpFund, model.StatusOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.calls.WithLabelValues(OpSend, model.StatusFailed)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.pools))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.events))
}

func TestPoolSummary(t *testing.T) {
	h := New(Config{Registry: registryAddr}, nil, nil, nil)
	pool := seededPool(t, h)

	summary, ok := h.Pool(pool)
	require.True(t, ok)
	assert.Equal(t, tokenA.Hex(), summary.Token)
	assert.Equal(t, uint64(1), summary.TokenID)
	assert.Equal(t, "5000000000", summary.NativeReserve)
	assert.Equal(t, "10000000000", summary.TokenReserve)
	assert.Equal(t, "5000000000", summary.TotalShares)
	assert.Equal(t, 1, summary.Holders)
	assert.Len(t, h.Holders(pool), 1)

	_, ok = h.Pool(bob)
	assert.False(t, ok)
}
