package memory

import (
	"context"

	"xiuxian/internal/app/ports"
	"xiuxian/internal/domain/cultivation"
)

type EventRepo struct {
	store *Store
}

func NewEventRepo(store *Store) EventRepo {
	return EventRepo{store: store}
}

func (r EventRepo) Append(ctx context.Context, characterID string, events []cultivation.DomainEvent) error {
	if characterID == "" {
		characterID = "global"
	}
	return r.store.do(ctx, func() error {
		r.store.events[characterID] = append(r.store.events[characterID], events...)
		return nil
	})
}

func (r EventRepo) ListByCharacterID(ctx context.Context, characterID string, limit int) ([]cultivation.DomainEvent, error) {
	var out []cultivation.DomainEvent
	err := r.store.do(ctx, func() error {
		events := r.store.events[characterID]
		if len(events) == 0 {
			return ports.ErrNotFound
		}
		out = newestFirst(events, limit)
		return nil
	})
	return out, err
}
