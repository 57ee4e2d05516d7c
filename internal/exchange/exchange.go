// Package exchange implements a constant-product pool trading the native
// asset against one paired token and issuing liquidity shares.
//
// An Exchange holds only its identity and parameters. Every balance it
// touches lives behind the Backend handed to each call, and every operation
// either returns its result or an error with the caller expected to discard
// the Backend's pending writes.
package exchange

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"exchangeLedger/internal/amount"
	"exchangeLedger/internal/ledger"
	"exchangeLedger/internal/model"
	"exchangeLedger/internal/pricing"
	"exchangeLedger/internal/token"
)

const (
	ShareName     = "Exchange Share"
	ShareSymbol   = "XSH"
	ShareDecimals = 18

	// DefaultMinSeed is the smallest native deposit that can seed a pool.
	DefaultMinSeed = 1_000_000_000
)

// Call is the context of one external invocation.
type Call struct {
	From      common.Address
	To        common.Address
	Value     *uint256.Int
	Timestamp uint64
}

func (c Call) value() *uint256.Int {
	return amount.OrZero(c.Value)
}

// Reader exposes the balances a pool prices against.
type Reader interface {
	NativeBalance(owner common.Address) *uint256.Int
	Token(id common.Address) token.Proxy
	Shares(pool common.Address) *ledger.Ledger
}

// Backend is the execution environment of one call. The host has already
// credited Call.Value to the pool before the operation runs.
type Backend interface {
	Reader
	SendNative(from, to common.Address, value *uint256.Int) error
	Exchange(pool common.Address) (*Exchange, bool)
	// Nested moves call.Value from call.From to call.To and runs fn in a
	// child scope. The child's writes survive only if fn succeeds.
	Nested(call Call, fn func(Backend) error) error
	Emit(event model.Event)
}

// Registry resolves a token to its canonical pool.
type Registry interface {
	Address() common.Address
	Resolve(token common.Address) common.Address
}

type Options struct {
	Pricing pricing.Engine
	MinSeed *uint256.Int
	Logger  *zap.Logger
}

type Exchange struct {
	address  common.Address
	token    common.Address
	registry Registry
	pricing  pricing.Engine
	minSeed  *uint256.Int
	logger   *zap.Logger
}

func New(address, tokenID common.Address, registry Registry, opts Options) (*Exchange, error) {
	if address == (common.Address{}) {
		return nil, fmt.Errorf("%w: pool address is zero", ErrInvalidInput)
	}
	if tokenID == (common.Address{}) {
		return nil, fmt.Errorf("%w: token address is zero", ErrInvalidInput)
	}
	if registry == nil {
		return nil, fmt.Errorf("%w: registry is nil", ErrInvalidInput)
	}

	engine := opts.Pricing
	if engine.IsZero() {
		engine = pricing.Default()
	}
	minSeed := opts.MinSeed
	if minSeed == nil {
		minSeed = amount.Of(DefaultMinSeed)
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Exchange{
		address:  address,
		token:    tokenID,
		registry: registry,
		pricing:  engine,
		minSeed:  minSeed.Clone(),
		logger:   logger,
	}, nil
}

func (e *Exchange) Address() common.Address { return e.address }

// TokenAddress returns the paired token.
func (e *Exchange) TokenAddress() common.Address { return e.token }

// RegistryAddress returns the registry this pool was created by.
func (e *Exchange) RegistryAddress() common.Address { return e.registry.Address() }

func (e *Exchange) Pricing() pricing.Engine { return e.pricing }

// Reserves returns the pool's native and token holdings.
func (e *Exchange) Reserves(r Reader) (native, tokens *uint256.Int) {
	return r.NativeBalance(e.address), r.Token(e.token).BalanceOf(e.address)
}

func checkDeadline(call Call, deadline uint64) error {
	if deadline < call.Timestamp {
		return fmt.Errorf("%w: deadline %d before %d", ErrExpired, deadline, call.Timestamp)
	}
	return nil
}

func positive(name string, v *uint256.Int) error {
	if v == nil || v.IsZero() {
		return fmt.Errorf("%w: %s must be positive", ErrInvalidInput, name)
	}
	return nil
}

func nonPayable(call Call) error {
	if !call.value().IsZero() {
		return fmt.Errorf("%w: operation does not accept native value", ErrInvalidInput)
	}
	return nil
}

func (e *Exchange) checkRecipient(recipient common.Address) error {
	if recipient == e.address || recipient == (common.Address{}) {
		return fmt.Errorf("%w: recipient %s", ErrInvalidInput, recipient.Hex())
	}
	return nil
}

func (e *Exchange) emit(b Backend, call Call, typ string, from, to common.Address, native, tokens, shares *uint256.Int) {
	ev := model.Event{
		Type:      typ,
		Pool:      e.address.Hex(),
		Timestamp: call.Timestamp,
		Native:    optional(native),
		Token:     optional(tokens),
		Shares:    optional(shares),
	}
	if from != (common.Address{}) {
		ev.From = from.Hex()
	}
	if to != (common.Address{}) {
		ev.To = to.Hex()
	}
	b.Emit(ev)
}

func optional(v *uint256.Int) string {
	if v == nil {
		return ""
	}
	return v.Dec()
}
