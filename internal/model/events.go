package model

// Event types emitted by a pool.
const (
	EventTokenPurchase   = "TokenPurchase"
	EventNativePurchase  = "NativePurchase"
	EventAddLiquidity    = "AddLiquidity"
	EventRemoveLiquidity = "RemoveLiquidity"
	EventTransfer        = "Transfer"
	EventApproval        = "Approval"
)

// Event is a pool event as written to the journal. Field use by type:
//
//	TokenPurchase    From=buyer     Native=sold    Token=bought
//	NativePurchase   From=buyer     Token=sold     Native=bought
//	AddLiquidity     From=provider  Native, Token deposited
//	RemoveLiquidity  From=provider  Native, Token withdrawn
//	Transfer         From, To       Shares moved (zero From mints, zero To burns)
//	Approval         From=owner     To=spender     Shares allowed
type Event struct {
	Seq       uint64 `json:"seq"`
	CallID    string `json:"call_id"`
	Type      string `json:"type"`
	Pool      string `json:"pool"`
	Timestamp uint64 `json:"timestamp"`
	From      string `json:"from,omitempty"`
	To        string `json:"to,omitempty"`
	Native    string `json:"native,omitempty"`
	Token     string `json:"token,omitempty"`
	Shares    string `json:"shares,omitempty"`
}
