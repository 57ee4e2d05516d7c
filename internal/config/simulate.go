package config

import (
	"github.com/spf13/pflag"
)

// SimulateConfig holds configuration for replaying an operations file.
type SimulateConfig struct {
	Input    string
	Events   string
	Receipts string
	PGDSN    string
	Exchange ExchangeParams
	LogLevel string
}

func LoadSimulate(cfgFile string, flags *pflag.FlagSet) (SimulateConfig, error) {
	v, err := load(cfgFile, flags, map[string]any{
		"events":   "./data/events.jsonl",
		"receipts": "./data/receipts.jsonl",
	})
	if err != nil {
		return SimulateConfig{}, err
	}

	return SimulateConfig{
		Input:    v.GetString("in"),
		Events:   v.GetString("events"),
		Receipts: v.GetString("receipts"),
		PGDSN:    v.GetString("pg-dsn"),
		Exchange: exchangeParams(v),
		LogLevel: v.GetString("log-level"),
	}, nil
}

// ServeConfig holds configuration for the query server.
type ServeConfig struct {
	Input    string
	Addr     string
	Exchange ExchangeParams
	LogLevel string
}

func LoadServe(cfgFile string, flags *pflag.FlagSet) (ServeConfig, error) {
	v, err := load(cfgFile, flags, map[string]any{
		"addr": ":8080",
	})
	if err != nil {
		return ServeConfig{}, err
	}

	return ServeConfig{
		Input:    v.GetString("in"),
		Addr:     v.GetString("addr"),
		Exchange: exchangeParams(v),
		LogLevel: v.GetString("log-level"),
	}, nil
}
