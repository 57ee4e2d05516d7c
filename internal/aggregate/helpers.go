package aggregate

import (
	"time"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"

	"exchangeLedger/internal/pricing"
)

const ratioScale = 18

var yearSeconds = decimal.NewFromInt(int64(365 * 24 * time.Hour / time.Second))

// FeeRate returns the share of each swap input the engine keeps, 0.003 for
// the default engine.
func FeeRate(engine pricing.Engine) decimal.Decimal {
	num := decimal.NewFromInt(int64(engine.FeeNumerator()))
	den := decimal.NewFromInt(int64(engine.FeeDenominator()))
	if den.IsZero() {
		return decimal.Zero
	}
	return den.Sub(num).DivRound(den, ratioScale)
}

func toDecimal(v *uint256.Int) decimal.Decimal {
	if v == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(v.ToBig(), 0)
}

func computeFeeRate(fee decimal.Decimal, reserve *uint256.Int) *string {
	tvl := toDecimal(reserve)
	if fee.IsZero() || tvl.IsZero() {
		return nil
	}
	rate := fee.DivRound(tvl, ratioScale).String()
	return &rate
}

// computeAPR values both fees in native at the closing price and annualizes
// them against a TVL of twice the native reserve.
func computeAPR(nativeFee, tokenFee decimal.Decimal, reserves *Reserves, windowSeconds uint64) *string {
	if windowSeconds == 0 || reserves == nil {
		return nil
	}
	native := toDecimal(reserves.Native)
	tokens := toDecimal(reserves.Token)
	if native.IsZero() || tokens.IsZero() {
		return nil
	}

	fees := nativeFee.Add(tokenFee.Mul(native).DivRound(tokens, ratioScale))
	if fees.IsZero() {
		return nil
	}
	rate := fees.DivRound(native.Mul(decimal.NewFromInt(2)), ratioScale)
	apr := rate.Mul(yearSeconds).DivRound(decimal.NewFromInt(int64(windowSeconds)), ratioScale).String()
	return &apr
}
