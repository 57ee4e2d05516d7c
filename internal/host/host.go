// Package host runs external calls against the exchange world state.
//
// Calls are serialized. Each runs in its own transaction: the attached value
// moves first, then the operation; any error discards every write and event
// of the call, success commits them and publishes the events and receipt.
package host

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
	"github.com/zeebo/blake3"
	"go.uber.org/zap"

	"exchangeLedger/internal/amount"
	"exchangeLedger/internal/exchange"
	"exchangeLedger/internal/ledger"
	"exchangeLedger/internal/model"
	"exchangeLedger/internal/pricing"
	"exchangeLedger/internal/registry"
	"exchangeLedger/internal/state"
)

// Operation names of the host-level calls.
const (
	OpFund           = "fund"
	OpSend           = "send"
	OpMintToken      = "mint_token"
	OpApproveToken   = "approve_token"
	OpTransferToken  = "transfer_token"
	OpCreateExchange = "create_exchange"
)

// ErrPublish marks a failure to hand a call's results to the sink. The call
// itself has already committed or rolled back.
var ErrPublish = errors.New("publish")

// Sink receives committed events and every receipt.
type Sink interface {
	PutEvents(events []model.Event) error
	PutReceipts(receipts []model.Receipt) error
}

type Config struct {
	Registry common.Address
	Pricing  pricing.Engine
	MinSeed  *uint256.Int
}

// Func is one pool operation. It returns the operation's output amounts.
type Func func(b exchange.Backend, ex *exchange.Exchange) ([]*uint256.Int, error)

type Host struct {
	mu       sync.Mutex
	cfg      Config
	store    *state.Store
	registry *registry.Registry
	pools    map[common.Address]*exchange.Exchange
	created  map[common.Address]uint64
	sink     Sink
	metrics  *Metrics
	logger   *zap.Logger
	callSeq  uint64
	eventSeq uint64
}

// New creates an empty world. sink and metrics may be nil.
func New(cfg Config, sink Sink, metrics *Metrics, logger *zap.Logger) *Host {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Host{
		cfg:      cfg,
		store:    state.NewStore(),
		registry: registry.New(cfg.Registry),
		pools:    make(map[common.Address]*exchange.Exchange),
		created:  make(map[common.Address]uint64),
		sink:     sink,
		metrics:  metrics,
		logger:   logger,
	}
}

func (h *Host) Registry() *registry.Registry { return h.registry }

// Invoke runs fn against the pool at call.To.
func (h *Host) Invoke(ctx context.Context, op string, call exchange.Call, fn Func) (model.Receipt, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.execute(ctx, op, call, func(b *backend) ([]*uint256.Int, error) {
		ex, ok := h.pools[call.To]
		if !ok {
			return nil, fmt.Errorf("%w: %s is not a pool", exchange.ErrInvalidInput, call.To.Hex())
		}
		return fn(b, ex)
	})
}

// Fund mints native balance to owner; the receipt names owner as its
// recipient. Pools only gain native balance through their own operations.
func (h *Host) Fund(ctx context.Context, owner common.Address, value *uint256.Int, timestamp uint64) (model.Receipt, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	call := exchange.Call{To: owner, Timestamp: timestamp}
	return h.execute(ctx, OpFund, call, func(b *backend) ([]*uint256.Int, error) {
		if _, ok := h.pools[owner]; ok {
			return nil, fmt.Errorf("%w: cannot fund pool %s", exchange.ErrInvalidInput, owner.Hex())
		}
		return nil, ledger.Native(b.tx).Mint(owner, amount.OrZero(value))
	})
}

// Send moves call.Value between two accounts. Paying a pool this way runs
// its default swap.
func (h *Host) Send(ctx context.Context, call exchange.Call) (model.Receipt, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.execute(ctx, OpSend, call, func(b *backend) ([]*uint256.Int, error) {
		if call.To == (common.Address{}) {
			return nil, fmt.Errorf("%w: recipient is zero", exchange.ErrInvalidInput)
		}
		ex, ok := h.pools[call.To]
		if !ok {
			return nil, nil
		}
		bought, err := ex.Default(b, call)
		if err != nil {
			return nil, err
		}
		return []*uint256.Int{bought}, nil
	})
}

// MintToken mints tokens of tokenID to owner.
func (h *Host) MintToken(ctx context.Context, call exchange.Call, tokenID, owner common.Address, value *uint256.Int) (model.Receipt, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.execute(ctx, OpMintToken, call, func(b *backend) ([]*uint256.Int, error) {
		if tokenID == (common.Address{}) || owner == (common.Address{}) {
			return nil, fmt.Errorf("%w: token and owner are required", exchange.ErrInvalidInput)
		}
		return nil, ledger.Tokens(b.tx, tokenID).Mint(owner, amount.OrZero(value))
	})
}

// ApproveToken sets call.From's allowance of tokenID for spender.
func (h *Host) ApproveToken(ctx context.Context, call exchange.Call, tokenID, spender common.Address, value *uint256.Int) (model.Receipt, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.execute(ctx, OpApproveToken, call, func(b *backend) ([]*uint256.Int, error) {
		if tokenID == (common.Address{}) || spender == (common.Address{}) {
			return nil, fmt.Errorf("%w: token and spender are required", exchange.ErrInvalidInput)
		}
		ledger.Tokens(b.tx, tokenID).Approve(call.From, spender, amount.OrZero(value))
		return nil, nil
	})
}

// TransferToken moves call.From's tokens of tokenID to to.
func (h *Host) TransferToken(ctx context.Context, call exchange.Call, tokenID, to common.Address, value *uint256.Int) (model.Receipt, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.execute(ctx, OpTransferToken, call, func(b *backend) ([]*uint256.Int, error) {
		if to == (common.Address{}) {
			return nil, fmt.Errorf("%w: recipient is zero", exchange.ErrInvalidInput)
		}
		return nil, ledger.Tokens(b.tx, tokenID).Transfer(call.From, to, amount.OrZero(value))
	})
}

// CreateExchange registers a pool for tokenID and returns its address. The
// derived address must not already hold native balance, since a pool's
// native reserve is its balance.
func (h *Host) CreateExchange(ctx context.Context, call exchange.Call, tokenID common.Address) (common.Address, model.Receipt, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	var pool common.Address
	rec, err := h.execute(ctx, OpCreateExchange, call, func(b *backend) ([]*uint256.Int, error) {
		if tokenID != (common.Address{}) && h.registry.Resolve(tokenID) == (common.Address{}) {
			addr := registry.PoolAddress(h.registry.Address(), tokenID)
			if bal := ledger.Native(b.tx).BalanceOf(addr); !bal.IsZero() {
				return nil, fmt.Errorf("%w: pool address %s already holds %s native", exchange.ErrInvalidInput, addr.Hex(), bal.Dec())
			}
		}
		addr, err := h.registry.Create(tokenID)
		switch {
		case errors.Is(err, registry.ErrZeroToken):
			return nil, fmt.Errorf("%w: %w", exchange.ErrInvalidInput, err)
		case errors.Is(err, registry.ErrAlreadyExists):
			return nil, fmt.Errorf("%w: %w", exchange.ErrUnauthorized, err)
		case err != nil:
			return nil, err
		}
		ex, err := exchange.New(addr, tokenID, h.registry, exchange.Options{
			Pricing: h.cfg.Pricing,
			MinSeed: h.cfg.MinSeed,
			Logger:  h.logger,
		})
		if err != nil {
			return nil, err
		}
		h.pools[addr] = ex
		h.created[addr] = call.Timestamp
		h.metrics.setPools(len(h.pools))
		pool = addr
		return nil, nil
	})
	return pool, rec, err
}

// Reject records a failed call that never ran, for input the caller could
// not decode. Its value does not move.
func (h *Host) Reject(ctx context.Context, op string, call exchange.Call, cause error) (model.Receipt, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	call.Value = nil
	return h.execute(ctx, op, call, func(*backend) ([]*uint256.Int, error) {
		return nil, cause
	})
}

func (h *Host) execute(ctx context.Context, op string, call exchange.Call, fn func(*backend) ([]*uint256.Int, error)) (model.Receipt, error) {
	start := time.Now()
	h.callSeq++

	rec := model.Receipt{
		ID:        receiptID(h.callSeq, op, call),
		Seq:       h.callSeq,
		Op:        op,
		From:      call.From.Hex(),
		Timestamp: call.Timestamp,
	}
	if call.To != (common.Address{}) {
		rec.To = call.To.Hex()
	}
	if v := amount.OrZero(call.Value); !v.IsZero() {
		rec.Value = v.Dec()
	}

	h.logger.Debug("call",
		zap.String("op", op),
		zap.String("from", rec.From),
		zap.String("pool", rec.To),
	)

	tx := h.store.Begin()
	outputs, err := h.run(&backend{host: h, tx: tx}, call, fn)

	var events []model.Event
	if err == nil {
		events = h.collect(tx.Journal(), rec.ID)
		err = tx.Commit()
	} else {
		tx.Discard()
	}

	if err != nil {
		events = nil
		rec.Status = model.StatusFailed
		rec.ErrorKind = exchange.KindOf(err)
		rec.Error = err.Error()
		h.logger.Warn("call failed",
			zap.String("op", op),
			zap.String("from", rec.From),
			zap.String("to", rec.To),
			zap.String("kind", rec.ErrorKind),
			zap.Error(err),
		)
	} else {
		rec.Status = model.StatusOK
		for _, out := range outputs {
			rec.Outputs = append(rec.Outputs, amount.String(out))
		}
	}
	rec.Events = len(events)
	h.metrics.observe(op, rec.Status, time.Since(start), len(events))

	if perr := h.publish(ctx, events, rec); perr != nil {
		return rec, perr
	}
	return rec, err
}

func (h *Host) run(b *backend, call exchange.Call, fn func(*backend) ([]*uint256.Int, error)) ([]*uint256.Int, error) {
	if _, ok := h.pools[call.From]; ok {
		return nil, fmt.Errorf("%w: pool %s cannot originate calls", exchange.ErrUnauthorized, call.From.Hex())
	}
	if v := amount.OrZero(call.Value); !v.IsZero() {
		if call.To == (common.Address{}) {
			return nil, fmt.Errorf("%w: value sent to zero address", exchange.ErrInvalidInput)
		}
		if err := ledger.Native(b.tx).Transfer(call.From, call.To, v); err != nil {
			return nil, err
		}
	}
	return fn(b)
}

// collect numbers the journaled events. Seq is only advanced for calls that
// commit, so event sequence numbers have no gaps.
func (h *Host) collect(journal []any, callID string) []model.Event {
	events := make([]model.Event, 0, len(journal))
	for _, entry := range journal {
		ev, ok := entry.(model.Event)
		if !ok {
			continue
		}
		h.eventSeq++
		ev.Seq = h.eventSeq
		ev.CallID = callID
		events = append(events, ev)
	}
	return events
}

func (h *Host) publish(ctx context.Context, events []model.Event, rec model.Receipt) error {
	if h.sink == nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrPublish, err)
	}
	if err := h.sink.PutEvents(events); err != nil {
		return fmt.Errorf("%w events: %w", ErrPublish, err)
	}
	if err := h.sink.PutReceipts([]model.Receipt{rec}); err != nil {
		return fmt.Errorf("%w receipt: %w", ErrPublish, err)
	}
	return nil
}

func receiptID(seq uint64, op string, call exchange.Call) string {
	h := blake3.New()
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], seq)
	_, _ = h.Write(buf[:])
	_, _ = h.Write([]byte(op))
	_, _ = h.Write(call.From.Bytes())
	_, _ = h.Write(call.To.Bytes())
	v := amount.OrZero(call.Value).Bytes32()
	_, _ = h.Write(v[:])
	binary.BigEndian.PutUint64(buf[:], call.Timestamp)
	_, _ = h.Write(buf[:])
	return hexutil.Encode(h.Sum(nil))
}
