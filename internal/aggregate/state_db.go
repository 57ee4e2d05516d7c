package aggregate

import (
	"context"

	"exchangeLedger/internal/storage/postgres"
)

// DBStateStore keeps the aggregation checkpoint in the aggregator_state
// table: the timestamp of the last exchange event folded into a closed
// window. Name separates checkpoints of different window sizes.
type DBStateStore struct {
	Store *postgres.Store
	Name  string
}

func (s *DBStateStore) Load(ctx context.Context) (uint64, bool, error) {
	if s == nil || s.Store == nil {
		return 0, false, nil
	}
	return s.Store.LoadState(ctx, s.Name)
}

func (s *DBStateStore) Save(ctx context.Context, ts uint64) error {
	if s == nil || s.Store == nil {
		return nil
	}
	return s.Store.SaveState(ctx, s.Name, ts)
}
