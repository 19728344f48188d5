package ports

import (
	"context"
	"time"

	"xiuxian/internal/domain/cultivation"
)

type CharacterRepository interface {
	GetByCharacterID(ctx context.Context, characterID string) (cultivation.Character, error)
	// SaveWithVersion writes c only if the stored version equals
	// expectedVersion; otherwise it returns ErrConflict. expectedVersion 0
	// creates the character.
	SaveWithVersion(ctx context.Context, c cultivation.Character, expectedVersion int64) error
}

type HistoryRepository interface {
	AppendRetreat(ctx context.Context, rec cultivation.RetreatRecord) error
	AppendBreakthrough(ctx context.Context, rec cultivation.BreakthroughRecord) error
	ListRetreats(ctx context.Context, characterID string, limit int) ([]cultivation.RetreatRecord, error)
	ListBreakthroughs(ctx context.Context, characterID string, limit int) ([]cultivation.BreakthroughRecord, error)
}

type EventRepository interface {
	Append(ctx context.Context, characterID string, events []cultivation.DomainEvent) error
	ListByCharacterID(ctx context.Context, characterID string, limit int) ([]cultivation.DomainEvent, error)
}

type LifecycleRecord struct {
	CharacterID string
	Status      string
	Cause       string
	Age         int
	Lifespan    int
	EndedAt     *time.Time
}

type CharacterLifecycleRepository interface {
	MarkDeceased(ctx context.Context, rec LifecycleRecord) error
	Get(ctx context.Context, characterID string) (LifecycleRecord, error)
}
