// Package token is the pool's view of its paired fungible token.
package token

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"exchangeLedger/internal/ledger"
	"exchangeLedger/internal/state"
)

// Proxy is the paired token as a pool sees it. A pool never stores token
// balances itself; its reserve is always BalanceOf(pool).
type Proxy interface {
	BalanceOf(owner common.Address) *uint256.Int
	Transfer(from, to common.Address, value *uint256.Int) error
	TransferFrom(spender, from, to common.Address, value *uint256.Int) error
}

// Local is a Proxy over the in-memory token ledger of one token.
type Local struct {
	*ledger.Ledger
}

func NewLocal(view state.View, id common.Address) Local {
	return Local{Ledger: ledger.Tokens(view, id)}
}
