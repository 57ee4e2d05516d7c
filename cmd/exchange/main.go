package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"exchangeLedger/internal/config"
	"exchangeLedger/internal/host"
	"exchangeLedger/internal/pricing"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
		os.Exit(1)
	}

	root := &cobra.Command{
		Use:          "exchange",
		Short:        "Constant-product exchange ledger",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	simulateCmd := &cobra.Command{
		Use:   "simulate",
		Short: "Replay an operations file and record receipts and events",
		RunE:  runSimulate,
	}

	simulateCmd.Flags().String("in", "", "input operations JSONL")
	simulateCmd.Flags().String("events", "./data/events.jsonl", "output events JSONL (empty disables)")
	simulateCmd.Flags().String("receipts", "./data/receipts.jsonl", "output receipts JSONL (empty disables)")
	simulateCmd.Flags().String("pg-dsn", "", "optional Postgres DSN")
	addExchangeFlags(simulateCmd.Flags())
	simulateCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(simulateCmd)

	quoteCmd := &cobra.Command{
		Use:   "quote",
		Short: "Quote a swap against a deployed pool's live reserves",
		RunE:  runQuote,
	}

	quoteCmd.Flags().String("rpc", "", "RPC URL")
	quoteCmd.Flags().String("pool", "", "pool address")
	quoteCmd.Flags().String("token", "", "pool token address")
	quoteCmd.Flags().String("kind", "eth-to-token-input", "quote kind (eth-to-token-input, eth-to-token-output, token-to-eth-input, token-to-eth-output)")
	quoteCmd.Flags().String("amount", "", "amount in base units")
	quoteCmd.Flags().Int("max-retries", 5, "maximum retry attempts")
	quoteCmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	quoteCmd.Flags().Duration("deadline-window", 5*time.Minute, "deadline offset from the quoted block's timestamp")
	addExchangeFlags(quoteCmd.Flags())
	quoteCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(quoteCmd)

	aggregateCmd := &cobra.Command{
		Use:   "aggregate",
		Short: "Aggregate exchange events into window metrics",
		RunE:  runAggregate,
	}

	aggregateCmd.Flags().String("in", "", "input events JSONL")
	aggregateCmd.Flags().String("window", "5m", "aggregation window (e.g. 1m, 5m, 1h)")
	aggregateCmd.Flags().String("pg-dsn", "", "Postgres DSN")
	aggregateCmd.Flags().String("out", "", "output window metrics JSONL when no Postgres DSN is set")
	aggregateCmd.Flags().String("pools-out", "", "output pools JSONL when no Postgres DSN is set")
	aggregateCmd.Flags().Int("batch-size", 1000, "batch size for writes")
	aggregateCmd.Flags().String("state-file", "", "optional local state file for progress tracking")
	aggregateCmd.Flags().String("recompute-from", "", "recompute from timestamp (unix seconds or RFC3339)")
	addExchangeFlags(aggregateCmd.Flags())
	aggregateCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(aggregateCmd)

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Replay an operations file and serve pool queries over HTTP",
		RunE:  runServe,
	}

	serveCmd.Flags().String("in", "", "optional operations JSONL to replay before serving")
	serveCmd.Flags().String("addr", ":8080", "listen address")
	addExchangeFlags(serveCmd.Flags())
	serveCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(serveCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func addExchangeFlags(fs *pflag.FlagSet) {
	fs.Uint64("fee-numerator", pricing.DefaultFeeNumerator, "share of each swap input that trades, numerator")
	fs.Uint64("fee-denominator", pricing.DefaultFeeDenominator, "share of each swap input that trades, denominator")
	fs.String("min-seed", "1000000000", "minimum native deposit that seeds a pool")
	fs.String("registry", "0x0000000000000000000000000000000000000f00", "registry address pools are derived from")
}

func newHost(params config.ExchangeParams, sink host.Sink, metrics *host.Metrics, logger *zap.Logger) (*host.Host, error) {
	engine, err := params.Pricing()
	if err != nil {
		return nil, err
	}
	minSeed, err := params.MinSeedAmount()
	if err != nil {
		return nil, err
	}
	if !common.IsHexAddress(params.Registry) {
		return nil, fmt.Errorf("invalid registry address %q", params.Registry)
	}
	return host.New(host.Config{
		Registry: common.HexToAddress(params.Registry),
		Pricing:  engine,
		MinSeed:  minSeed,
	}, sink, metrics, logger), nil
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}

func redactDSN(dsn string) string {
	if dsn == "" {
		return dsn
	}
	return "***"
}
