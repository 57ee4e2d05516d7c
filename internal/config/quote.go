package config

import (
	"time"

	"github.com/spf13/pflag"
)

// QuoteConfig holds configuration for quoting against a deployed pool.
type QuoteConfig struct {
	RPCURL         string
	Pool           string
	Token          string
	Kind           string
	Amount         string
	MaxRetries     int
	RetryBackoff   time.Duration
	// DeadlineWindow is added to the quoted block's timestamp to suggest a
	// call deadline.
	DeadlineWindow time.Duration
	Exchange       ExchangeParams
	LogLevel       string
}

func LoadQuote(cfgFile string, flags *pflag.FlagSet) (QuoteConfig, error) {
	v, err := load(cfgFile, flags, map[string]any{
		"kind":            "eth-to-token-input",
		"max-retries":     5,
		"retry-backoff":   500 * time.Millisecond,
		"deadline-window": 5 * time.Minute,
	})
	if err != nil {
		return QuoteConfig{}, err
	}

	return QuoteConfig{
		RPCURL:         v.GetString("rpc"),
		Pool:           v.GetString("pool"),
		Token:          v.GetString("token"),
		Kind:           v.GetString("kind"),
		Amount:         v.GetString("amount"),
		MaxRetries:     v.GetInt("max-retries"),
		RetryBackoff:   v.GetDuration("retry-backoff"),
		DeadlineWindow: v.GetDuration("deadline-window"),
		Exchange:       exchangeParams(v),
		LogLevel:       v.GetString("log-level"),
	}, nil
}
