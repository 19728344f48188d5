package memory

import (
	"context"

	"xiuxian/internal/domain/cultivation"
)

type HistoryRepo struct {
	store *Store
}

func NewHistoryRepo(store *Store) HistoryRepo {
	return HistoryRepo{store: store}
}

func (r HistoryRepo) AppendRetreat(ctx context.Context, rec cultivation.RetreatRecord) error {
	return r.store.do(ctx, func() error {
		r.store.retreats[rec.CharacterID] = append(r.store.retreats[rec.CharacterID], rec)
		return nil
	})
}

func (r HistoryRepo) AppendBreakthrough(ctx context.Context, rec cultivation.BreakthroughRecord) error {
	return r.store.do(ctx, func() error {
		r.store.breakthroughs[rec.CharacterID] = append(r.store.breakthroughs[rec.CharacterID], rec)
		return nil
	})
}

// ListRetreats returns newest first.
func (r HistoryRepo) ListRetreats(ctx context.Context, characterID string, limit int) ([]cultivation.RetreatRecord, error) {
	var out []cultivation.RetreatRecord
	err := r.store.do(ctx, func() error {
		out = newestFirst(r.store.retreats[characterID], limit)
		return nil
	})
	return out, err
}

func (r HistoryRepo) ListBreakthroughs(ctx context.Context, characterID string, limit int) ([]cultivation.BreakthroughRecord, error) {
	var out []cultivation.BreakthroughRecord
	err := r.store.do(ctx, func() error {
		out = newestFirst(r.store.breakthroughs[characterID], limit)
		return nil
	})
	return out, err
}

func newestFirst[T any](in []T, limit int) []T {
	n := len(in)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]T, 0, n)
	for i := len(in) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, in[i])
	}
	return out
}
