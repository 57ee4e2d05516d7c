package model

// Operation is one line of a scenario file: a call to replay against the
// host. Args holds the operation's named parameters as decimal strings or
// hex addresses.
type Operation struct {
	Op        string            `json:"op"`
	From      string            `json:"from"`
	To        string            `json:"to,omitempty"`
	Value     string            `json:"value,omitempty"`
	Timestamp uint64            `json:"timestamp"`
	Args      map[string]string `json:"args,omitempty"`
}
