package exchange

import (
	"errors"

	"exchangeLedger/internal/amount"
	"exchangeLedger/internal/ledger"
	"exchangeLedger/internal/pricing"
)

var (
	ErrExpired          = errors.New("deadline expired")
	ErrInvalidInput     = errors.New("invalid input")
	ErrSlippageExceeded = errors.New("slippage exceeded")
	ErrUnauthorized     = errors.New("unauthorized")
)

// Error kinds reported on receipts.
const (
	KindExpired               = "Expired"
	KindInvalidInput          = "InvalidInput"
	KindInvalidReserves       = "InvalidReserves"
	KindSlippageExceeded      = "SlippageExceeded"
	KindInsufficientBalance   = "InsufficientBalance"
	KindInsufficientAllowance = "InsufficientAllowance"
	KindOverflow              = "Overflow"
	KindUnauthorized          = "Unauthorized"
	KindInternal              = "Internal"
)

// KindOf maps an operation error to its kind. Nil maps to "".
func KindOf(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrExpired):
		return KindExpired
	case errors.Is(err, ErrInvalidInput), errors.Is(err, amount.ErrInvalidFormat):
		return KindInvalidInput
	case errors.Is(err, pricing.ErrInvalidReserves), errors.Is(err, amount.ErrDivisionByZero):
		return KindInvalidReserves
	case errors.Is(err, ErrSlippageExceeded):
		return KindSlippageExceeded
	case errors.Is(err, ledger.ErrInsufficientAllowance):
		return KindInsufficientAllowance
	case errors.Is(err, ledger.ErrInsufficientBalance), errors.Is(err, amount.ErrUnderflow):
		return KindInsufficientBalance
	case errors.Is(err, amount.ErrOverflow):
		return KindOverflow
	case errors.Is(err, ErrUnauthorized):
		return KindUnauthorized
	default:
		return KindInternal
	}
}
