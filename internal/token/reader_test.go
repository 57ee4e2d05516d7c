package token

import (
	"bytes"
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	gethrpc "github.com/ethereum/go-ethereum/rpc"

	"exchangeLedger/internal/chain"
)

type callArgs struct {
	From  *common.Address `json:"from"`
	To    *common.Address `json:"to"`
	Input hexutil.Bytes   `json:"input"`
	Data  hexutil.Bytes   `json:"data"`
}

type fakeEth struct {
	t        *testing.T
	balances map[common.Address]*big.Int
	symbol   string
}

func (f *fakeEth) Call(ctx context.Context, args callArgs, _ gethrpc.BlockNumberOrHash) (hexutil.Bytes, error) {
	parsed, err := erc20Instance()
	if err != nil {
		return nil, err
	}
	input := args.Input
	if len(input) == 0 {
		input = args.Data
	}
	if len(input) < 4 {
		return nil, errors.New("short calldata")
	}

	switch {
	case bytes.Equal(input[:4], parsed.Methods["balanceOf"].ID):
		vals, err := parsed.Methods["balanceOf"].Inputs.Unpack(input[4:])
		if err != nil {
			return nil, err
		}
		owner := vals[0].(common.Address)
		bal, ok := f.balances[owner]
		if !ok {
			bal = new(big.Int)
		}
		return parsed.Methods["balanceOf"].Outputs.Pack(bal)
	case bytes.Equal(input[:4], parsed.Methods["decimals"].ID):
		return parsed.Methods["decimals"].Outputs.Pack(uint8(18))
	case bytes.Equal(input[:4], parsed.Methods["symbol"].ID):
		return parsed.Methods["symbol"].Outputs.Pack(f.symbol)
	}
	return nil, errors.New("unknown selector")
}

func newInprocClient(t *testing.T, fe *fakeEth) *chain.Client {
	t.Helper()
	srv := gethrpc.NewServer()
	if err := srv.RegisterName("eth", fe); err != nil {
		t.Fatalf("register rpc service: %v", err)
	}
	c := chain.NewClientFromRPC(gethrpc.DialInProc(srv))
	t.Cleanup(c.Close)
	return c
}

func TestReaderBalanceOf(t *testing.T) {
	tokenAddr := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	pool := common.HexToAddress("0x0000000000000000000000000000000000000abc")

	fe := &fakeEth{t: t, balances: map[common.Address]*big.Int{pool: big.NewInt(2_000_000)}}
	r := NewReader(newInprocClient(t, fe), 0, 0, nil)

	got, err := r.BalanceOf(context.Background(), tokenAddr, pool, nil)
	if err != nil {
		t.Fatalf("balanceOf: %v", err)
	}
	if got.Uint64() != 2_000_000 {
		t.Fatalf("balance = %s, want 2000000", got.Dec())
	}

	got, err = r.BalanceOf(context.Background(), tokenAddr, common.HexToAddress("0x1"), big.NewInt(7))
	if err != nil {
		t.Fatalf("balanceOf: %v", err)
	}
	if !got.IsZero() {
		t.Fatalf("expected zero balance, got %s", got.Dec())
	}
}

func TestReaderMetadata(t *testing.T) {
	fe := &fakeEth{t: t, symbol: "TKN"}
	r := NewReader(newInprocClient(t, fe), 0, 0, nil)

	meta, err := r.Metadata(context.Background(), common.HexToAddress("0xaa"))
	if err != nil {
		t.Fatalf("metadata: %v", err)
	}
	if meta.Decimals != 18 || meta.Symbol != "TKN" {
		t.Fatalf("unexpected metadata: %+v", meta)
	}
}
