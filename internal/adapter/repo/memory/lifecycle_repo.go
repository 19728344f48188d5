package memory

import (
	"context"

	"xiuxian/internal/app/ports"
)

type LifecycleRepo struct {
	store *Store
}

func NewLifecycleRepo(store *Store) LifecycleRepo {
	return LifecycleRepo{store: store}
}

func (r LifecycleRepo) MarkDeceased(ctx context.Context, rec ports.LifecycleRecord) error {
	return r.store.do(ctx, func() error {
		if existing, ok := r.store.lifecycles[rec.CharacterID]; ok && existing.Status == "deceased" {
			return nil
		}
		rec.Status = "deceased"
		r.store.lifecycles[rec.CharacterID] = rec
		return nil
	})
}

func (r LifecycleRepo) Get(ctx context.Context, characterID string) (ports.LifecycleRecord, error) {
	var out ports.LifecycleRecord
	err := r.store.do(ctx, func() error {
		rec, ok := r.store.lifecycles[characterID]
		if !ok {
			return ports.ErrNotFound
		}
		out = rec
		return nil
	})
	return out, err
}
