package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"exchangeLedger/internal/api"
	"exchangeLedger/internal/config"
	"exchangeLedger/internal/host"
	"exchangeLedger/internal/scenario"
)

const shutdownTimeout = 5 * time.Second

func runServe(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadServe(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.Addr == "" {
		return fmt.Errorf("listen address is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	h, err := newHost(cfg.Exchange, nil, host.NewMetrics(reg), logger)
	if err != nil {
		return err
	}

	if cfg.Input != "" {
		if _, err := scenario.NewRunner(h, logger).Run(ctx, cfg.Input); err != nil {
			return err
		}
	}

	srv := api.NewServer(h, cfg.Addr, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	logger.Info("serve start",
		zap.String("addr", cfg.Addr),
		zap.String("input", cfg.Input),
		zap.Int("pools", len(h.Pools())),
	)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Stop(shutdownCtx)
}
