package aggregate

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"exchangeLedger/internal/model"
	"exchangeLedger/internal/storage"
)

// Config controls aggregation behavior.
type Config struct {
	WindowSeconds uint64
	BatchSize     int
	RecomputeFrom uint64
	StateStore    StateStore
	FeeRate       decimal.Decimal
}

// Sink receives pool records and finished windows.
type Sink interface {
	UpsertPools(ctx context.Context, pools []model.Pool) error
	UpsertWindowMetrics(ctx context.Context, metrics []model.PoolWindowMetrics) error
}

// Aggregator folds exchange events into pool window metrics.
type Aggregator struct {
	cfg          Config
	sink         Sink
	logger       *zap.Logger
	accumulators map[string]*Accumulator
	reserves     map[string]*Reserves
	poolSeen     map[string]model.Pool
}

func NewAggregator(cfg Config, sink Sink, logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Aggregator{
		cfg:          cfg,
		sink:         sink,
		logger:       logger,
		accumulators: make(map[string]*Accumulator),
		reserves:     make(map[string]*Reserves),
		poolSeen:     make(map[string]model.Pool),
	}
}

// Run aggregates an events JSONL file.
//
// Every event moves the running reserves, but only events after the saved
// checkpoint open or extend windows. The checkpoint never passes the start of
// a window that is still open.
func (a *Aggregator) Run(ctx context.Context, inputPath string) error {
	if a.sink == nil {
		return fmt.Errorf("sink is nil")
	}
	if a.cfg.WindowSeconds == 0 {
		return fmt.Errorf("window seconds must be > 0")
	}
	if a.cfg.BatchSize <= 0 {
		a.cfg.BatchSize = 1000
	}

	startTs, err := a.loadStartTimestamp(ctx)
	if err != nil {
		return err
	}

	batch := make([]model.PoolWindowMetrics, 0, a.cfg.BatchSize)
	pools := make([]model.Pool, 0, 256)
	maxTs := startTs
	var total, windows, skipped, failed int

	err = storage.ScanLines(inputPath, func(line []byte) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		total++

		var event model.Event
		if err := json.Unmarshal(line, &event); err != nil {
			failed++
			a.logger.Warn("decode event", zap.Error(err))
			return nil
		}

		key := poolKey(event.Pool)
		res := a.reserves[key]
		if res == nil {
			res = NewReserves()
			a.reserves[key] = res
		}

		if event.Timestamp <= startTs {
			skipped++
			if err := res.Apply(event); err != nil {
				failed++
				a.logger.Warn("replay reserves", zap.Error(err), zap.String("pool", event.Pool))
			}
			return nil
		}

		start := windowStart(event.Timestamp, a.cfg.WindowSeconds)
		end := start + a.cfg.WindowSeconds

		acc := a.accumulators[key]
		if acc == nil {
			acc = NewAccumulator(event, start, end)
			a.accumulators[key] = acc
		} else if acc.WindowStart != start {
			metrics, pool := a.flushAccumulator(acc)
			batch = append(batch, metrics)
			windows++
			if pool != nil {
				pools = append(pools, *pool)
			}
			acc = NewAccumulator(event, start, end)
			a.accumulators[key] = acc
		}

		if err := res.Apply(event); err != nil {
			failed++
			a.logger.Warn("apply reserves", zap.Error(err), zap.String("pool", event.Pool), zap.String("event", event.Type))
			return nil
		}
		if err := acc.AddEvent(event, a.cfg.FeeRate); err != nil {
			failed++
			a.logger.Warn("aggregate event", zap.Error(err), zap.String("pool", event.Pool), zap.String("event", event.Type))
			return nil
		}

		if event.Timestamp > maxTs {
			maxTs = event.Timestamp
		}

		if len(batch) >= a.cfg.BatchSize {
			if err := a.flushBatches(ctx, batch, pools); err != nil {
				return err
			}
			batch = batch[:0]
			pools = pools[:0]

			if err := a.saveState(ctx); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, key := range sortedKeys(a.accumulators) {
		metrics, pool := a.flushAccumulator(a.accumulators[key])
		batch = append(batch, metrics)
		windows++
		if pool != nil {
			pools = append(pools, *pool)
		}
	}
	a.accumulators = make(map[string]*Accumulator)

	if len(batch) > 0 || len(pools) > 0 {
		if err := a.flushBatches(ctx, batch, pools); err != nil {
			return err
		}
	}

	a.cfg.RecomputeFrom = maxTs
	if err := a.saveState(ctx); err != nil {
		return err
	}

	a.logger.Info("aggregate complete",
		zap.Int("total", total),
		zap.Int("windows", windows),
		zap.Int("skipped", skipped),
		zap.Int("failed", failed),
	)

	return nil
}

// Reserves returns the running reserves of a pool after the last Run.
func (a *Aggregator) Reserves(pool string) (*Reserves, bool) {
	r, ok := a.reserves[poolKey(pool)]
	return r, ok
}

func (a *Aggregator) loadStartTimestamp(ctx context.Context) (uint64, error) {
	if a.cfg.RecomputeFrom > 0 {
		return a.cfg.RecomputeFrom - 1, nil
	}
	if a.cfg.StateStore == nil {
		return 0, nil
	}
	last, ok, err := a.cfg.StateStore.Load(ctx)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}
	return last, nil
}

func (a *Aggregator) saveState(ctx context.Context) error {
	if a.cfg.StateStore == nil {
		return nil
	}

	if len(a.accumulators) == 0 {
		return a.cfg.StateStore.Save(ctx, a.cfg.RecomputeFrom)
	}

	safeTs := minOpenWindowStart(a.accumulators)
	if safeTs > 0 {
		safeTs = safeTs - 1
	}
	if safeTs == 0 {
		safeTs = a.cfg.RecomputeFrom
	}
	return a.cfg.StateStore.Save(ctx, safeTs)
}

func (a *Aggregator) flushBatches(ctx context.Context, batch []model.PoolWindowMetrics, pools []model.Pool) error {
	if len(pools) > 0 {
		if err := a.sink.UpsertPools(ctx, pools); err != nil {
			return err
		}
	}
	if len(batch) > 0 {
		if err := a.sink.UpsertWindowMetrics(ctx, batch); err != nil {
			return err
		}
	}
	return nil
}

// flushAccumulator closes a window against the pool's current reserves,
// which at this point are the reserves at the window's last event.
func (a *Aggregator) flushAccumulator(acc *Accumulator) (model.PoolWindowMetrics, *model.Pool) {
	pool := a.registerPool(acc)
	res := a.reserves[poolKey(acc.PoolAddress)]
	if res == nil {
		res = NewReserves()
	}

	return model.PoolWindowMetrics{
		PoolAddress:      acc.PoolAddress,
		WindowSizeSecs:   int64(a.cfg.WindowSeconds),
		WindowStart:      time.Unix(int64(acc.WindowStart), 0).UTC(),
		WindowEnd:        time.Unix(int64(acc.WindowEnd), 0).UTC(),
		SwapCount:        acc.SwapCount,
		NativeVolume:     acc.NativeVolume.Dec(),
		TokenVolume:      acc.TokenVolume.Dec(),
		NativeFee:        acc.NativeFee.String(),
		TokenFee:         acc.TokenFee.String(),
		LiquidityAdds:    acc.LiquidityAdds,
		LiquidityRemoves: acc.LiquidityRemoves,
		NativeReserve:    res.Native.Dec(),
		TokenReserve:     res.Token.Dec(),
		NativeFeeRate:    computeFeeRate(acc.NativeFee, res.Native),
		TokenFeeRate:     computeFeeRate(acc.TokenFee, res.Token),
		APR:              computeAPR(acc.NativeFee, acc.TokenFee, res, a.cfg.WindowSeconds),
	}, pool
}

func (a *Aggregator) registerPool(acc *Accumulator) *model.Pool {
	key := poolKey(acc.PoolAddress)
	pool := model.Pool{
		Address:   acc.PoolAddress,
		FirstSeen: acc.FirstTS,
	}

	existing, ok := a.poolSeen[key]
	if ok {
		if existing.FirstSeen <= pool.FirstSeen {
			return nil
		}
	}

	a.poolSeen[key] = pool
	return &pool
}

func windowStart(ts uint64, windowSec uint64) uint64 {
	return ts - (ts % windowSec)
}

func poolKey(address string) string {
	return strings.ToLower(address)
}

func sortedKeys(m map[string]*Accumulator) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func minOpenWindowStart(acc map[string]*Accumulator) uint64 {
	var min uint64
	for _, entry := range acc {
		if entry == nil {
			continue
		}
		if min == 0 || entry.WindowStart < min {
			min = entry.WindowStart
		}
	}
	return min
}
