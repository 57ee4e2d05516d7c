package model

const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// Receipt records the outcome of one external call. A failed call carries
// exactly one error kind and left no state behind.
type Receipt struct {
	ID        string   `json:"id"`
	Seq       uint64   `json:"seq"`
	Op        string   `json:"op"`
	From      string   `json:"from"`
	To        string   `json:"to,omitempty"`
	Value     string   `json:"value,omitempty"`
	Timestamp uint64   `json:"timestamp"`
	Status    string   `json:"status"`
	ErrorKind string   `json:"error_kind,omitempty"`
	Error     string   `json:"error,omitempty"`
	Outputs   []string `json:"outputs,omitempty"`
	Events    int      `json:"events"`
}
