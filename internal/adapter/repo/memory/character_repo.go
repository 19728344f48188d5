package memory

import (
	"context"

	"xiuxian/internal/app/ports"
	"xiuxian/internal/domain/cultivation"
)

type CharacterRepo struct {
	store *Store
}

func NewCharacterRepo(store *Store) CharacterRepo {
	return CharacterRepo{store: store}
}

func (r CharacterRepo) GetByCharacterID(ctx context.Context, characterID string) (cultivation.Character, error) {
	var out cultivation.Character
	err := r.store.do(ctx, func() error {
		c, ok := r.store.characters[characterID]
		if !ok {
			return ports.ErrNotFound
		}
		out = c.Clone()
		return nil
	})
	return out, err
}

func (r CharacterRepo) SaveWithVersion(ctx context.Context, c cultivation.Character, expectedVersion int64) error {
	return r.store.do(ctx, func() error {
		current, ok := r.store.characters[c.CharacterID]
		if !ok {
			if expectedVersion != 0 {
				return ports.ErrConflict
			}
			r.store.characters[c.CharacterID] = c.Clone()
			return nil
		}
		if current.Version != expectedVersion {
			return ports.ErrConflict
		}
		r.store.characters[c.CharacterID] = c.Clone()
		return nil
	})
}
