package model

import "time"

// PoolWindowMetrics stores aggregated metrics for a pool window. Amounts are
// base-unit integers except fees and rates, which are decimals.
type PoolWindowMetrics struct {
	PoolAddress      string    `json:"pool_address"`
	WindowSizeSecs   int64     `json:"window_size_secs"`
	WindowStart      time.Time `json:"window_start"`
	WindowEnd        time.Time `json:"window_end"`
	SwapCount        uint64    `json:"swap_count"`
	NativeVolume     string    `json:"native_volume"`
	TokenVolume      string    `json:"token_volume"`
	NativeFee        string    `json:"native_fee"`
	TokenFee         string    `json:"token_fee"`
	LiquidityAdds    uint64    `json:"liquidity_adds"`
	LiquidityRemoves uint64    `json:"liquidity_removes"`
	NativeReserve    string    `json:"native_reserve"`
	TokenReserve     string    `json:"token_reserve"`
	NativeFeeRate    *string   `json:"native_fee_rate,omitempty"`
	TokenFeeRate     *string   `json:"token_fee_rate,omitempty"`
	APR              *string   `json:"apr,omitempty"`
}
