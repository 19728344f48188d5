package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"xiuxian/internal/app/ports"
	"xiuxian/internal/domain/cultivation"
)

func seed() cultivation.Character {
	return cultivation.Character{
		CharacterID:  "c-1",
		Realm:        cultivation.RealmQiRefining,
		Stage:        cultivation.StageEarly,
		Age:          16,
		Lifespan:     120,
		SpiritStones: 10,
		Inventory:    []cultivation.InventoryItem{{ID: "i-1", Category: cultivation.ItemMaterial, Name: "Spirit Grass", Quantity: 2}},
		Version:      1,
	}
}

func TestTxManagerRestoresStateOnError(t *testing.T) {
	store := NewStore()
	store.SeedCharacter(seed())
	tx := NewTxManager(store)
	chars := NewCharacterRepo(store)
	history := NewHistoryRepo(store)
	boom := errors.New("boom")

	err := tx.RunInTx(context.Background(), func(ctx context.Context) error {
		c, err := chars.GetByCharacterID(ctx, "c-1")
		if err != nil {
			return err
		}
		c.SpiritStones = 0
		c.Inventory[0].Quantity = 99
		c.Version++
		if err := chars.SaveWithVersion(ctx, c, 1); err != nil {
			return err
		}
		if err := history.AppendRetreat(ctx, cultivation.RetreatRecord{CharacterID: "c-1", Years: 5}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	got, err := chars.GetByCharacterID(context.Background(), "c-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.SpiritStones != 10 || got.Inventory[0].Quantity != 2 || got.Version != 1 {
		t.Fatalf("state was not restored: %+v", got)
	}
	recs, _ := history.ListRetreats(context.Background(), "c-1", 0)
	if len(recs) != 0 {
		t.Fatalf("retreat record should be rolled back, got %d", len(recs))
	}
}

func TestTxManagerNestedJoinsOuterScope(t *testing.T) {
	store := NewStore()
	store.SeedCharacter(seed())
	tx := NewTxManager(store)
	chars := NewCharacterRepo(store)
	boom := errors.New("outer failed")

	err := tx.RunInTx(context.Background(), func(ctx context.Context) error {
		if err := tx.RunInTx(ctx, func(inner context.Context) error {
			c, err := chars.GetByCharacterID(inner, "c-1")
			if err != nil {
				return err
			}
			c.SpiritStones = 1
			c.Version = 2
			return chars.SaveWithVersion(inner, c, 1)
		}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected outer error, got %v", err)
	}
	got, _ := chars.GetByCharacterID(context.Background(), "c-1")
	if got.SpiritStones != 10 {
		t.Fatalf("inner write should roll back with outer scope, got %d", got.SpiritStones)
	}
}

func TestCharacterRepoOptimisticVersion(t *testing.T) {
	store := NewStore()
	chars := NewCharacterRepo(store)
	ctx := context.Background()

	c := seed()
	if err := chars.SaveWithVersion(ctx, c, 0); err != nil {
		t.Fatalf("create: %v", err)
	}
	c.Version = 2
	if err := chars.SaveWithVersion(ctx, c, 5); !errors.Is(err, ports.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if err := chars.SaveWithVersion(ctx, c, 1); err != nil {
		t.Fatalf("update: %v", err)
	}
	if _, err := chars.GetByCharacterID(ctx, "missing"); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestHistoryAndEventsNewestFirst(t *testing.T) {
	store := NewStore()
	history := NewHistoryRepo(store)
	events := NewEventRepo(store)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 1; i <= 3; i++ {
		_ = history.AppendRetreat(ctx, cultivation.RetreatRecord{CharacterID: "c-1", Years: i})
		_ = events.Append(ctx, "c-1", []cultivation.DomainEvent{{Type: "cultivation_completed", OccurredAt: base.Add(time.Duration(i) * time.Hour)}})
	}
	recs, _ := history.ListRetreats(ctx, "c-1", 2)
	if len(recs) != 2 || recs[0].Years != 3 || recs[1].Years != 2 {
		t.Fatalf("unexpected order: %+v", recs)
	}
	evts, err := events.ListByCharacterID(ctx, "c-1", 0)
	if err != nil || len(evts) != 3 || !evts[0].OccurredAt.After(evts[2].OccurredAt) {
		t.Fatalf("unexpected events: %+v err=%v", evts, err)
	}
	if _, err := events.ListByCharacterID(ctx, "c-2", 0); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
