package token

import (
	"bytes"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/holiman/uint256"
)

const erc20ABIJSON = `[
  {"inputs": [{"internalType": "address", "name": "account", "type": "address"}], "name": "balanceOf", "outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "decimals", "outputs": [{"type": "uint8"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "symbol", "outputs": [{"type": "string"}], "stateMutability": "view", "type": "function"}
]`

// Some older tokens return bytes32 from symbol().
const erc20Bytes32ABIJSON = `[
  {"inputs": [], "name": "symbol", "outputs": [{"type": "bytes32"}], "stateMutability": "view", "type": "function"}
]`

var (
	erc20ABI         abi.ABI
	erc20Once        sync.Once
	erc20ABIErr      error
	erc20Bytes32ABI  abi.ABI
	erc20Bytes32Once sync.Once
	erc20Bytes32Err  error
)

func erc20Instance() (abi.ABI, error) {
	erc20Once.Do(func() {
		erc20ABI, erc20ABIErr = abi.JSON(strings.NewReader(erc20ABIJSON))
	})
	return erc20ABI, erc20ABIErr
}

func erc20Bytes32Instance() (abi.ABI, error) {
	erc20Bytes32Once.Do(func() {
		erc20Bytes32ABI, erc20Bytes32Err = abi.JSON(strings.NewReader(erc20Bytes32ABIJSON))
	})
	return erc20Bytes32ABI, erc20Bytes32Err
}

func asAmount(value interface{}) (*uint256.Int, error) {
	v, ok := value.(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected amount type %T", value)
	}
	if v.Sign() < 0 {
		return nil, fmt.Errorf("negative amount %s", v)
	}
	out, overflow := uint256.FromBig(v)
	if overflow {
		return nil, fmt.Errorf("amount %s exceeds 256 bits", v)
	}
	return out, nil
}

func asUint8(value interface{}) (uint8, error) {
	switch v := value.(type) {
	case uint8:
		return v, nil
	case *big.Int:
		return uint8(v.Uint64()), nil
	default:
		return 0, fmt.Errorf("unsupported uint8 type %T", value)
	}
}

func bytes32ToString(value interface{}) (string, bool) {
	switch v := value.(type) {
	case [32]byte:
		return string(bytes.TrimRight(v[:], "\x00")), true
	case []byte:
		return string(bytes.TrimRight(v, "\x00")), true
	default:
		return "", false
	}
}
