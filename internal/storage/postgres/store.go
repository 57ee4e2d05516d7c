package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"exchangeLedger/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS pools (
	pool_address     TEXT PRIMARY KEY,
	token            TEXT NOT NULL DEFAULT '',
	token_id         BIGINT NOT NULL DEFAULT 0,
	registry         TEXT NOT NULL DEFAULT '',
	first_seen_ts    BIGINT NOT NULL,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at       TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS exchange_events (
	seq        BIGINT PRIMARY KEY,
	call_id    TEXT NOT NULL,
	type       TEXT NOT NULL,
	pool       TEXT NOT NULL,
	ts         BIGINT NOT NULL,
	from_addr  TEXT,
	to_addr    TEXT,
	native     NUMERIC(78, 0),
	token      NUMERIC(78, 0),
	shares     NUMERIC(78, 0)
);
CREATE INDEX IF NOT EXISTS exchange_events_pool_ts ON exchange_events (pool, ts);
CREATE TABLE IF NOT EXISTS exchange_receipts (
	id          TEXT PRIMARY KEY,
	seq         BIGINT NOT NULL,
	op          TEXT NOT NULL,
	from_addr   TEXT NOT NULL,
	to_addr     TEXT,
	value       NUMERIC(78, 0),
	ts          BIGINT NOT NULL,
	status      TEXT NOT NULL,
	error_kind  TEXT,
	error       TEXT,
	outputs     TEXT[],
	events      INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS pool_window_metrics (
	pool_address        TEXT NOT NULL,
	window_size_seconds BIGINT NOT NULL,
	window_start_ts     TIMESTAMPTZ NOT NULL,
	window_end_ts       TIMESTAMPTZ NOT NULL,
	swap_count          BIGINT NOT NULL,
	native_volume       NUMERIC NOT NULL,
	token_volume        NUMERIC NOT NULL,
	native_fee          NUMERIC NOT NULL,
	token_fee           NUMERIC NOT NULL,
	liquidity_adds      BIGINT NOT NULL,
	liquidity_removes   BIGINT NOT NULL,
	native_reserve      NUMERIC NOT NULL,
	token_reserve       NUMERIC NOT NULL,
	native_fee_rate     NUMERIC,
	token_fee_rate      NUMERIC,
	apr                 NUMERIC,
	created_at          TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at          TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (pool_address, window_size_seconds, window_start_ts)
);
CREATE TABLE IF NOT EXISTS aggregator_state (
	name              TEXT PRIMARY KEY,
	last_processed_ts BIGINT NOT NULL,
	updated_at        TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// Store provides Postgres persistence for events, receipts and metrics.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// EnsureSchema creates the tables if they do not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// InsertEvents stores events, ignoring sequence numbers already present.
func (s *Store) InsertEvents(ctx context.Context, events []model.Event) error {
	if len(events) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, ev := range events {
		batch.Queue(`
			INSERT INTO exchange_events (seq, call_id, type, pool, ts, from_addr, to_addr, native, token, shares)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			ON CONFLICT (seq) DO NOTHING
		`,
			int64(ev.Seq),
			ev.CallID,
			ev.Type,
			ev.Pool,
			int64(ev.Timestamp),
			nullable(ev.From),
			nullable(ev.To),
			nullable(ev.Native),
			nullable(ev.Token),
			nullable(ev.Shares),
		)
	}
	return s.exec(ctx, batch, len(events))
}

// InsertReceipts stores receipts, ignoring ids already present.
func (s *Store) InsertReceipts(ctx context.Context, receipts []model.Receipt) error {
	if len(receipts) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, rec := range receipts {
		batch.Queue(`
			INSERT INTO exchange_receipts (id, seq, op, from_addr, to_addr, value, ts, status, error_kind, error, outputs, events)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			ON CONFLICT (id) DO NOTHING
		`,
			rec.ID,
			int64(rec.Seq),
			rec.Op,
			rec.From,
			nullable(rec.To),
			nullable(rec.Value),
			int64(rec.Timestamp),
			rec.Status,
			nullable(rec.ErrorKind),
			nullable(rec.Error),
			rec.Outputs,
			rec.Events,
		)
	}
	return s.exec(ctx, batch, len(receipts))
}

// UpsertPools inserts or updates pool metadata.
func (s *Store) UpsertPools(ctx context.Context, pools []model.Pool) error {
	if len(pools) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, pool := range pools {
		batch.Queue(`
			INSERT INTO pools (
				pool_address, token, token_id, registry, first_seen_ts, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, now(), now())
			ON CONFLICT (pool_address)
			DO UPDATE SET
				token = COALESCE(NULLIF(EXCLUDED.token, ''), pools.token),
				token_id = GREATEST(pools.token_id, EXCLUDED.token_id),
				registry = COALESCE(NULLIF(EXCLUDED.registry, ''), pools.registry),
				first_seen_ts = LEAST(pools.first_seen_ts, EXCLUDED.first_seen_ts),
				updated_at = now()
		`,
			pool.Address,
			pool.Token,
			int64(pool.TokenID),
			pool.Registry,
			int64(pool.FirstSeen),
		)
	}
	return s.exec(ctx, batch, len(pools))
}

// UpsertWindowMetrics inserts or updates window metrics.
func (s *Store) UpsertWindowMetrics(ctx context.Context, metrics []model.PoolWindowMetrics) error {
	if len(metrics) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, m := range metrics {
		batch.Queue(`
			INSERT INTO pool_window_metrics (
				pool_address, window_size_seconds, window_start_ts, window_end_ts,
				swap_count, native_volume, token_volume, native_fee, token_fee,
				liquidity_adds, liquidity_removes, native_reserve, token_reserve,
				native_fee_rate, token_fee_rate, apr, created_at, updated_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,now(),now())
			ON CONFLICT (pool_address, window_size_seconds, window_start_ts)
			DO UPDATE SET
				window_end_ts = EXCLUDED.window_end_ts,
				swap_count = EXCLUDED.swap_count,
				native_volume = EXCLUDED.native_volume,
				token_volume = EXCLUDED.token_volume,
				native_fee = EXCLUDED.native_fee,
				token_fee = EXCLUDED.token_fee,
				liquidity_adds = EXCLUDED.liquidity_adds,
				liquidity_removes = EXCLUDED.liquidity_removes,
				native_reserve = EXCLUDED.native_reserve,
				token_reserve = EXCLUDED.token_reserve,
				native_fee_rate = EXCLUDED.native_fee_rate,
				token_fee_rate = EXCLUDED.token_fee_rate,
				apr = EXCLUDED.apr,
				updated_at = now()
		`,
			m.PoolAddress,
			m.WindowSizeSecs,
			m.WindowStart,
			m.WindowEnd,
			int64(m.SwapCount),
			m.NativeVolume,
			m.TokenVolume,
			m.NativeFee,
			m.TokenFee,
			int64(m.LiquidityAdds),
			int64(m.LiquidityRemoves),
			m.NativeReserve,
			m.TokenReserve,
			m.NativeFeeRate,
			m.TokenFeeRate,
			m.APR,
		)
	}
	return s.exec(ctx, batch, len(metrics))
}

// LoadState returns last_processed_ts for a name.
func (s *Store) LoadState(ctx context.Context, name string) (uint64, bool, error) {
	if name == "" {
		return 0, false, fmt.Errorf("state name required")
	}
	var ts int64
	row := s.pool.QueryRow(ctx, `SELECT last_processed_ts FROM aggregator_state WHERE name=$1`, name)
	if err := row.Scan(&ts); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return uint64(ts), true, nil
}

// SaveState upserts last_processed_ts for a name.
func (s *Store) SaveState(ctx context.Context, name string, ts uint64) error {
	if name == "" {
		return fmt.Errorf("state name required")
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO aggregator_state (name, last_processed_ts, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (name) DO UPDATE
		SET last_processed_ts = EXCLUDED.last_processed_ts, updated_at = now()
	`, name, int64(ts))
	return err
}

// Sink binds the store to ctx so the host can publish through it.
func (s *Store) Sink(ctx context.Context) *Sink {
	return &Sink{store: s, ctx: ctx}
}

type Sink struct {
	store *Store
	ctx   context.Context
}

func (k *Sink) PutEvents(events []model.Event) error {
	return k.store.InsertEvents(k.ctx, events)
}

func (k *Sink) PutReceipts(receipts []model.Receipt) error {
	return k.store.InsertReceipts(k.ctx, receipts)
}

func (s *Store) exec(ctx context.Context, batch *pgx.Batch, n int) error {
	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := 0; i < n; i++ {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

func nullable(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
