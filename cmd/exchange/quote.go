package main

import (
	"context"
	"fmt"
	"math/big"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"exchangeLedger/internal/amount"
	"exchangeLedger/internal/chain"
	"exchangeLedger/internal/config"
	"exchangeLedger/internal/exchange"
	"exchangeLedger/internal/token"
)

const nativeDecimals = 18

func runQuote(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadQuote(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.RPCURL == "" {
		return fmt.Errorf("rpc url is required")
	}
	if !common.IsHexAddress(cfg.Pool) || !common.IsHexAddress(cfg.Token) {
		return fmt.Errorf("pool and token addresses are required")
	}
	pool, tok := common.HexToAddress(cfg.Pool), common.HexToAddress(cfg.Token)

	v, err := amount.Parse(cfg.Amount)
	if err != nil {
		return fmt.Errorf("amount: %w", err)
	}
	engine, err := cfg.Exchange.Pricing()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	chainClient, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer chainClient.Close()

	var block, blockTime uint64
	err = chain.WithRetry(ctx, cfg.MaxRetries, cfg.RetryBackoff, func(ctx context.Context) error {
		var err error
		if block, err = chainClient.LatestBlockNumber(ctx); err != nil {
			return err
		}
		blockTime, err = chainClient.BlockTimestamp(ctx, block)
		return err
	})
	if err != nil {
		return fmt.Errorf("latest block: %w", err)
	}
	at := new(big.Int).SetUint64(block)

	// both reserves are read at the same block
	var nativeReserve *uint256.Int
	err = chain.WithRetry(ctx, cfg.MaxRetries, cfg.RetryBackoff, func(ctx context.Context) error {
		var err error
		nativeReserve, err = chainClient.BalanceAt(ctx, pool, at)
		return err
	})
	if err != nil {
		return fmt.Errorf("pool balance: %w", err)
	}

	reader := token.NewReader(chainClient, cfg.MaxRetries, cfg.RetryBackoff, logger)
	tokenReserve, err := reader.BalanceOf(ctx, tok, pool, at)
	if err != nil {
		return fmt.Errorf("pool token balance: %w", err)
	}

	meta, err := reader.Metadata(ctx, tok)
	if err != nil {
		logger.Warn("token metadata", zap.String("token", tok.Hex()), zap.Error(err))
		meta.Decimals = nativeDecimals
	}

	out, err := exchange.QuoteReserves(engine, cfg.Kind, v, nativeReserve, tokenReserve)
	if err != nil {
		return err
	}

	inDecimals, outDecimals := quoteDecimals(cfg.Kind, int32(meta.Decimals))
	logger.Info("quote",
		zap.String("pool", pool.Hex()),
		zap.Uint64("block", block),
		zap.String("native_reserve", nativeReserve.Dec()),
		zap.String("token_reserve", tokenReserve.Dec()),
		zap.String("kind", cfg.Kind),
	)

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "reserves  %s native / %s %s\n",
		scaled(nativeReserve, nativeDecimals), scaled(tokenReserve, int32(meta.Decimals)), symbolOr(meta.Symbol))
	fmt.Fprintf(w, "%s  %s -> %s (%s base units)\n", cfg.Kind, scaled(v, inDecimals), scaled(out, outDecimals), out.Dec())
	fmt.Fprintf(w, "block     %d at %d, deadline %d\n", block, blockTime, suggestedDeadline(blockTime, cfg.DeadlineWindow))
	return nil
}

// suggestedDeadline returns blockTime plus window, in whole seconds.
func suggestedDeadline(blockTime uint64, window time.Duration) uint64 {
	if window <= 0 {
		return blockTime
	}
	return blockTime + uint64(window/time.Second)
}

// quoteDecimals returns the display decimals of a quote's amount and result.
func quoteDecimals(kind string, tokenDecimals int32) (in, out int32) {
	switch kind {
	case exchange.QuoteNativeToTokenInput, exchange.QuoteTokenToNativeOutput:
		return nativeDecimals, tokenDecimals
	default:
		return tokenDecimals, nativeDecimals
	}
}

func scaled(v *uint256.Int, decimals int32) string {
	return decimal.NewFromBigInt(v.ToBig(), -decimals).String()
}

func symbolOr(symbol string) string {
	if symbol == "" {
		return "tokens"
	}
	return symbol
}
