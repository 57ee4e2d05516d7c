package host

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"exchangeLedger/internal/amount"
	"exchangeLedger/internal/exchange"
	"exchangeLedger/internal/ledger"
	"exchangeLedger/internal/model"
	"exchangeLedger/internal/state"
	"exchangeLedger/internal/token"
)

// backend binds one call to its transaction.
type backend struct {
	host *Host
	tx   *state.Tx
}

func (b *backend) NativeBalance(owner common.Address) *uint256.Int {
	return ledger.Native(b.tx).BalanceOf(owner)
}

func (b *backend) Token(id common.Address) token.Proxy {
	return token.NewLocal(b.tx, id)
}

func (b *backend) Shares(pool common.Address) *ledger.Ledger {
	return ledger.Shares(b.tx, pool)
}

func (b *backend) SendNative(from, to common.Address, value *uint256.Int) error {
	return ledger.Native(b.tx).Transfer(from, to, value)
}

func (b *backend) Exchange(pool common.Address) (*exchange.Exchange, bool) {
	ex, ok := b.host.pools[pool]
	return ex, ok
}

func (b *backend) Nested(call exchange.Call, fn func(exchange.Backend) error) error {
	child := b.tx.Begin()
	if v := amount.OrZero(call.Value); !v.IsZero() {
		if err := ledger.Native(child).Transfer(call.From, call.To, v); err != nil {
			child.Discard()
			return err
		}
	}
	if err := fn(&backend{host: b.host, tx: child}); err != nil {
		child.Discard()
		return err
	}
	return child.Commit()
}

func (b *backend) Emit(event model.Event) {
	b.tx.Append(event)
}
