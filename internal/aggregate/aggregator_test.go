package aggregate

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"exchangeLedger/internal/model"
	"exchangeLedger/internal/pricing"
)

type memSink struct {
	pools   []model.Pool
	metrics []model.PoolWindowMetrics
}

func (s *memSink) UpsertPools(_ context.Context, pools []model.Pool) error {
	s.pools = append(s.pools, pools...)
	return nil
}

func (s *memSink) UpsertWindowMetrics(_ context.Context, metrics []model.PoolWindowMetrics) error {
	s.metrics = append(s.metrics, metrics...)
	return nil
}

const testPool = "0x00000000000000000000000000000000000000a1"

func writeEvents(t *testing.T, events []model.Event) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "events.jsonl")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	for _, ev := range events {
		if err := enc.Encode(ev); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	return path
}

func sampleEvents() []model.Event {
	return []model.Event{
		{Seq: 1, Type: model.EventAddLiquidity, Pool: testPool, Timestamp: 10, Native: "1000", Token: "2000"},
		{Seq: 2, Type: model.EventTransfer, Pool: testPool, Timestamp: 10, Shares: "1000"},
		{Seq: 3, Type: model.EventTokenPurchase, Pool: testPool, Timestamp: 20, Native: "100", Token: "181"},
		{Seq: 4, Type: model.EventNativePurchase, Pool: testPool, Timestamp: 70, Native: "60", Token: "200"},
		{Seq: 5, Type: model.EventTransfer, Pool: testPool, Timestamp: 75, Shares: "5"},
	}
}

func TestAggregatorWindows(t *testing.T) {
	path := writeEvents(t, sampleEvents())
	sink := &memSink{}
	agg := NewAggregator(Config{WindowSeconds: 60, FeeRate: FeeRate(pricing.Default())}, sink, nil)

	if err := agg.Run(context.Background(), path); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(sink.metrics) != 2 {
		t.Fatalf("expected 2 windows, got %d", len(sink.metrics))
	}

	first, second := sink.metrics[0], sink.metrics[1]
	if first.WindowStart.Unix() != 0 || second.WindowStart.Unix() != 60 {
		t.Fatalf("unexpected window starts %v %v", first.WindowStart, second.WindowStart)
	}
	if first.SwapCount != 1 || first.LiquidityAdds != 1 {
		t.Fatalf("first window counts: swaps=%d adds=%d", first.SwapCount, first.LiquidityAdds)
	}
	if first.NativeVolume != "100" || first.TokenVolume != "181" {
		t.Fatalf("first window volume: %s/%s", first.NativeVolume, first.TokenVolume)
	}
	if first.NativeFee != "0.3" || first.TokenFee != "0" {
		t.Fatalf("first window fees: %s/%s", first.NativeFee, first.TokenFee)
	}
	if first.NativeReserve != "1100" || first.TokenReserve != "1819" {
		t.Fatalf("first window reserves: %s/%s", first.NativeReserve, first.TokenReserve)
	}
	if first.NativeFeeRate == nil || first.TokenFeeRate != nil || first.APR == nil {
		t.Fatalf("first window rates: %v %v %v", first.NativeFeeRate, first.TokenFeeRate, first.APR)
	}

	if second.TokenFee != "0.6" || second.NativeReserve != "1040" || second.TokenReserve != "2019" {
		t.Fatalf("second window: fee=%s reserves=%s/%s", second.TokenFee, second.NativeReserve, second.TokenReserve)
	}

	if len(sink.pools) != 1 || sink.pools[0].FirstSeen != 10 {
		t.Fatalf("unexpected pools: %+v", sink.pools)
	}
}

func TestAggregatorResumesFromCheckpoint(t *testing.T) {
	path := writeEvents(t, sampleEvents())
	state := &FileStateStore{Path: filepath.Join(t.TempDir(), "state.json"), WindowSeconds: 60}

	first := &memSink{}
	if err := NewAggregator(Config{WindowSeconds: 60, StateStore: state}, first, nil).Run(context.Background(), path); err != nil {
		t.Fatalf("first run: %v", err)
	}
	last, ok, err := state.Load(context.Background())
	if err != nil || !ok || last != 75 {
		t.Fatalf("checkpoint = %d, %v, %v", last, ok, err)
	}

	second := &memSink{}
	agg := NewAggregator(Config{WindowSeconds: 60, StateStore: state}, second, nil)
	if err := agg.Run(context.Background(), path); err != nil {
		t.Fatalf("second run: %v", err)
	}
	if len(second.metrics) != 0 {
		t.Fatalf("expected no new windows, got %d", len(second.metrics))
	}

	res, ok := agg.Reserves(testPool)
	if !ok || res.Native.Uint64() != 1040 || res.Token.Uint64() != 2019 {
		t.Fatalf("replayed reserves: %+v", res)
	}

	other := &FileStateStore{Path: state.Path, WindowSeconds: 300}
	if _, ok, _ := other.Load(context.Background()); ok {
		t.Fatalf("checkpoint for another window size should be ignored")
	}
}

func TestReservesRejectOverdraw(t *testing.T) {
	r := NewReserves()
	err := r.Apply(model.Event{Type: model.EventRemoveLiquidity, Native: "1", Token: "1"})
	if err == nil {
		t.Fatalf("expected underflow")
	}
	if !r.Native.IsZero() || !r.Token.IsZero() {
		t.Fatalf("reserves moved on error")
	}
}
