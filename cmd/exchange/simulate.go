package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"exchangeLedger/internal/config"
	"exchangeLedger/internal/host"
	"exchangeLedger/internal/model"
	"exchangeLedger/internal/scenario"
	"exchangeLedger/internal/storage"
	"exchangeLedger/internal/storage/postgres"
)

func runSimulate(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadSimulate(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.Input == "" {
		return fmt.Errorf("input path is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sinks := storage.Fanout{storage.NewJsonlStorage(cfg.Events, cfg.Receipts)}

	var store *postgres.Store
	if cfg.PGDSN != "" {
		store, err = postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer store.Close()
		if err := store.EnsureSchema(ctx); err != nil {
			return err
		}
		sinks = append(sinks, store.Sink(ctx))
	}

	h, err := newHost(cfg.Exchange, sinks, host.NewMetrics(prometheus.NewRegistry()), logger)
	if err != nil {
		return err
	}

	logger.Info("simulate start",
		zap.String("input", cfg.Input),
		zap.String("events", cfg.Events),
		zap.String("receipts", cfg.Receipts),
		zap.String("pg_dsn", redactDSN(cfg.PGDSN)),
		zap.Uint64("fee_numerator", cfg.Exchange.FeeNumerator),
		zap.Uint64("fee_denominator", cfg.Exchange.FeeDenominator),
	)

	sum, err := scenario.NewRunner(h, logger).Run(ctx, cfg.Input)
	if err != nil {
		return err
	}

	pools := h.Pools()
	if store != nil && len(pools) > 0 {
		records := make([]model.Pool, 0, len(pools))
		for _, p := range pools {
			records = append(records, p.Pool)
		}
		if err := store.UpsertPools(ctx, records); err != nil {
			return err
		}
	}

	return printSummary(cmd.OutOrStdout(), sum, pools)
}

func printSummary(w io.Writer, sum scenario.Summary, pools []model.PoolSummary) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "calls\t%d\n", sum.Calls)
	fmt.Fprintf(tw, "failed\t%d\n", sum.Failed)
	for _, kind := range sum.Kinds() {
		fmt.Fprintf(tw, "  %s\t%d\n", kind, sum.ByKind[kind])
	}
	fmt.Fprintf(tw, "skipped\t%d\n\n", sum.Skipped)

	fmt.Fprintln(tw, strings.Join([]string{"POOL", "TOKEN", "NATIVE", "TOKENS", "SHARES", "HOLDERS"}, "\t"))
	for _, p := range pools {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\n", p.Address, p.Token, p.NativeReserve, p.TokenReserve, p.TotalShares, p.Holders)
	}
	return tw.Flush()
}
