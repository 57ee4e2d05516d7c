package token

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"exchangeLedger/internal/chain"
)

// Metadata captures ERC20 display fields.
type Metadata struct {
	Address  string `json:"address"`
	Decimals uint8  `json:"decimals"`
	Symbol   string `json:"symbol"`
}

// Reader reads a deployed ERC20 token over RPC.
type Reader struct {
	client     *chain.Client
	maxRetries int
	backoff    time.Duration
	logger     *zap.Logger
}

func NewReader(client *chain.Client, maxRetries int, backoff time.Duration, logger *zap.Logger) *Reader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reader{client: client, maxRetries: maxRetries, backoff: backoff, logger: logger}
}

// BalanceOf returns the token balance of owner at block. A nil block means
// latest.
func (r *Reader) BalanceOf(ctx context.Context, token, owner common.Address, block *big.Int) (*uint256.Int, error) {
	parsed, err := erc20Instance()
	if err != nil {
		return nil, fmt.Errorf("parse erc20 abi: %w", err)
	}
	values, err := r.call(ctx, token, block, parsed, "balanceOf", owner)
	if err != nil {
		return nil, err
	}
	return asAmount(values[0])
}

// Metadata loads decimals and symbol. A missing symbol is logged, not fatal.
func (r *Reader) Metadata(ctx context.Context, token common.Address) (Metadata, error) {
	meta := Metadata{Address: token.Hex()}

	parsed, err := erc20Instance()
	if err != nil {
		return meta, fmt.Errorf("parse erc20 abi: %w", err)
	}
	bytes32ABI, err := erc20Bytes32Instance()
	if err != nil {
		return meta, fmt.Errorf("parse erc20 bytes32 abi: %w", err)
	}

	values, err := r.call(ctx, token, nil, parsed, "decimals")
	if err != nil {
		return meta, err
	}
	if meta.Decimals, err = asUint8(values[0]); err != nil {
		return meta, err
	}

	if values, err := r.call(ctx, token, nil, parsed, "symbol"); err == nil {
		if symbol, ok := values[0].(string); ok {
			meta.Symbol = symbol
		}
	} else if values, err := r.call(ctx, token, nil, bytes32ABI, "symbol"); err == nil {
		if symbol, ok := bytes32ToString(values[0]); ok {
			meta.Symbol = symbol
		}
	} else {
		r.logger.Debug("symbol call failed", zap.String("token", token.Hex()), zap.Error(err))
	}

	return meta, nil
}

func (r *Reader) call(ctx context.Context, token common.Address, block *big.Int, parsed abi.ABI, method string, args ...interface{}) ([]interface{}, error) {
	if r.client == nil {
		return nil, fmt.Errorf("chain client is nil")
	}
	data, err := parsed.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}

	var resp []byte
	err = chain.WithRetry(ctx, r.maxRetries, r.backoff, func(ctx context.Context) error {
		var err error
		resp, err = r.client.CallContract(ctx, ethereum.CallMsg{To: &token, Data: data}, block)
		if err != nil {
			r.logger.Warn("eth_call failed", zap.String("token", token.Hex()), zap.String("method", method), zap.Error(err))
		}
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}

	values, err := parsed.Unpack(method, resp)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	if len(values) != 1 {
		return nil, fmt.Errorf("%s return size %d", method, len(values))
	}
	return values, nil
}
