// Package scenario replays recorded operations against a host.
package scenario

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"exchangeLedger/internal/amount"
	"exchangeLedger/internal/exchange"
	"exchangeLedger/internal/host"
	"exchangeLedger/internal/model"
	"exchangeLedger/internal/storage"
)

// Summary counts the outcome of a replay.
type Summary struct {
	Lines   int
	Calls   int
	Failed  int
	Skipped int
	ByKind  map[string]int
}

// Kinds returns the failure kinds seen, sorted.
func (s Summary) Kinds() []string {
	kinds := make([]string, 0, len(s.ByKind))
	for k := range s.ByKind {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

type Runner struct {
	host   *host.Host
	logger *zap.Logger
}

func NewRunner(h *host.Host, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{host: h, logger: logger}
}

// Run replays an operations JSONL file. Each decodable line yields exactly
// one receipt; failed calls are counted and the replay continues. Only a
// sink failure or cancellation stops it.
func (r *Runner) Run(ctx context.Context, path string) (Summary, error) {
	sum := Summary{ByKind: make(map[string]int)}
	err := storage.ScanLines(path, func(line []byte) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		sum.Lines++

		var op model.Operation
		if err := json.Unmarshal(line, &op); err != nil {
			sum.Skipped++
			r.logger.Warn("decode operation", zap.Int("line", sum.Lines), zap.Error(err))
			return nil
		}

		rec, err := r.Apply(ctx, op)
		if errors.Is(err, host.ErrPublish) {
			return err
		}
		sum.Calls++
		if rec.Status == model.StatusFailed {
			sum.Failed++
			sum.ByKind[rec.ErrorKind]++
		}
		return nil
	})
	if err != nil {
		return sum, err
	}

	r.logger.Info("replay complete",
		zap.Int("lines", sum.Lines),
		zap.Int("calls", sum.Calls),
		zap.Int("failed", sum.Failed),
		zap.Int("skipped", sum.Skipped),
	)
	return sum, nil
}

// Apply runs one operation. The returned error is the call's failure, if
// any; it wraps host.ErrPublish when the sink rejected the results.
func (r *Runner) Apply(ctx context.Context, op model.Operation) (model.Receipt, error) {
	name := strings.TrimSpace(op.Op)
	call, err := decodeCall(op)
	if err != nil {
		return r.host.Reject(ctx, name, call, err)
	}
	a := newArgs(op.Args)

	switch name {
	case host.OpFund:
		value := a.amount("amount")
		if a.err != nil {
			return r.host.Reject(ctx, name, call, a.err)
		}
		return r.host.Fund(ctx, call.From, value, call.Timestamp)
	case host.OpSend:
		return r.host.Send(ctx, call)
	case host.OpMintToken:
		tok, owner, value := a.address("token"), a.addressOr("owner", call.From), a.amount("amount")
		if a.err != nil {
			return r.host.Reject(ctx, name, call, a.err)
		}
		return r.host.MintToken(ctx, call, tok, owner, value)
	case host.OpApproveToken:
		tok, spender, value := a.address("token"), a.address("spender"), a.amount("amount")
		if a.err != nil {
			return r.host.Reject(ctx, name, call, a.err)
		}
		return r.host.ApproveToken(ctx, call, tok, spender, value)
	case host.OpTransferToken:
		tok, to, value := a.address("token"), a.address("to"), a.amount("amount")
		if a.err != nil {
			return r.host.Reject(ctx, name, call, a.err)
		}
		return r.host.TransferToken(ctx, call, tok, to, value)
	case host.OpCreateExchange:
		tok := a.address("token")
		if a.err != nil {
			return r.host.Reject(ctx, name, call, a.err)
		}
		_, rec, err := r.host.CreateExchange(ctx, call, tok)
		return rec, err
	}

	build, ok := poolOps[name]
	if !ok {
		return r.host.Reject(ctx, name, call, fmt.Errorf("%w: unknown op %q", exchange.ErrInvalidInput, name))
	}
	fn := build(a, call)
	if a.err != nil {
		return r.host.Reject(ctx, name, call, a.err)
	}
	return r.host.Invoke(ctx, name, call, fn)
}

// decodeCall reads the call envelope. On error the returned call still
// carries whatever fields did parse, for the failed receipt.
func decodeCall(op model.Operation) (exchange.Call, error) {
	call := exchange.Call{Timestamp: op.Timestamp}

	from, err := parseAddress(strings.TrimSpace(op.From))
	if err != nil {
		return call, fmt.Errorf("%w: from: %w", exchange.ErrInvalidInput, err)
	}
	call.From = from

	if s := strings.TrimSpace(op.To); s != "" {
		to, err := parseAddress(s)
		if err != nil {
			return call, fmt.Errorf("%w: to: %w", exchange.ErrInvalidInput, err)
		}
		call.To = to
	}

	value, err := amount.ParseOrZero(op.Value)
	if err != nil {
		return call, fmt.Errorf("%w: value: %w", exchange.ErrInvalidInput, err)
	}
	call.Value = value
	return call, nil
}
