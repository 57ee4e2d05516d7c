package model

// Pool is a pool record for storage and queries.
type Pool struct {
	Address   string `json:"address"`
	Token     string `json:"token"`
	TokenID   uint64 `json:"token_id,omitempty"`
	Registry  string `json:"registry,omitempty"`
	FirstSeen uint64 `json:"first_seen"`
}

// PoolSummary is the current state of a pool.
type PoolSummary struct {
	Pool
	NativeReserve string `json:"native_reserve"`
	TokenReserve  string `json:"token_reserve"`
	TotalShares   string `json:"total_shares"`
	Holders       int    `json:"holders"`
}
