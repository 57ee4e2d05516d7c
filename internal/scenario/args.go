package scenario

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"exchangeLedger/internal/amount"
	"exchangeLedger/internal/exchange"
)

// args reads named operation parameters. The first failure sticks and later
// reads return zero values.
type args struct {
	values map[string]string
	err    error
}

func newArgs(values map[string]string) *args {
	return &args{values: values}
}

func (a *args) fail(key string, err error) {
	if a.err == nil {
		a.err = fmt.Errorf("%w: arg %s: %w", exchange.ErrInvalidInput, key, err)
	}
}

func (a *args) raw(key string) (string, bool) {
	v, ok := a.values[key]
	v = strings.TrimSpace(v)
	if !ok || v == "" {
		a.fail(key, fmt.Errorf("missing"))
		return "", false
	}
	return v, true
}

func (a *args) amount(key string) *uint256.Int {
	s, ok := a.raw(key)
	if !ok {
		return amount.Zero()
	}
	v, err := amount.Parse(s)
	if err != nil {
		a.fail(key, err)
		return amount.Zero()
	}
	return v
}

func (a *args) uint(key string) uint64 {
	s, ok := a.raw(key)
	if !ok {
		return 0
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		a.fail(key, err)
		return 0
	}
	return v
}

func (a *args) address(key string) common.Address {
	s, ok := a.raw(key)
	if !ok {
		return common.Address{}
	}
	addr, err := parseAddress(s)
	if err != nil {
		a.fail(key, err)
	}
	return addr
}

// addressOr is address with a fallback for an absent key.
func (a *args) addressOr(key string, fallback common.Address) common.Address {
	if strings.TrimSpace(a.values[key]) == "" {
		return fallback
	}
	return a.address(key)
}

func parseAddress(s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("bad address %q", s)
	}
	return common.HexToAddress(s), nil
}
