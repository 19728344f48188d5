package gormrepo

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"
	"time"

	"xiuxian/internal/adapter/repo/gorm/model"
	"xiuxian/internal/app/ports"
	"xiuxian/internal/domain/cultivation"

	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := os.Getenv("XIUXIAN_DB_DSN")
	if dsn == "" {
		t.Skip("XIUXIAN_DB_DSN is required for integration test")
	}
	db, err := OpenPostgres(dsn, PoolConfig{})
	if err != nil {
		t.Fatalf("open postgres: %v", err)
	}
	if _, err := ApplyMigrations(context.Background(), db, "../../../../db/migrations"); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	return db
}

func seedCharacter(id string) cultivation.Character {
	expires := time.Unix(5000, 0).UTC()
	return cultivation.Character{
		CharacterID:    id,
		Name:           "Han Li",
		Attributes:     cultivation.Attributes{Vitality: 10, Spirit: 12, Wisdom: 30, Speed: 8, Willpower: 40},
		SpiritualRoots: []cultivation.SpiritualRoot{{Element: "wood", Strength: 50}},
		Realm:          cultivation.RealmQiRefining,
		Stage:          cultivation.StageMiddle,
		Age:            20,
		Lifespan:       120,
		SpiritStones:   300,
		Progress: cultivation.Progress{
			CultivationExp:        500,
			ExpCap:                cultivation.ExpCap(cultivation.RealmQiRefining, cultivation.StageMiddle),
			ComprehensionInsight:  20,
			BreakthroughFailures:  1,
			Condition:             cultivation.ConditionBottleneckedInnerDemon,
			EpiphanyBuffExpiresAt: &expires,
		},
		Inventory: []cultivation.InventoryItem{
			{ID: "i-2", Category: cultivation.ItemMaterial, Name: "spirit herb", Quantity: 3},
			{ID: "i-1", Category: cultivation.ItemEquipment, Name: "flying sword", Quantity: 1, Data: json.RawMessage(`{"grade":"low"}`)},
		},
		Version:   1,
		UpdatedAt: time.Unix(1000, 0).UTC(),
	}
}

func TestCharacterRepo_RoundTripConditionAndInventoryOrder(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	id := "it-character-roundtrip"
	_ = db.Exec("DELETE FROM characters WHERE character_id = ?", id).Error

	repo := NewCharacterRepo(db)
	if err := repo.SaveWithVersion(ctx, seedCharacter(id), 0); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := repo.GetByCharacterID(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Realm != cultivation.RealmQiRefining || got.Stage != cultivation.StageMiddle {
		t.Fatalf("unexpected tier: %v", got.Tier())
	}
	if got.Progress.Condition != cultivation.ConditionBottleneckedInnerDemon {
		t.Fatalf("expected bottlenecked inner demon, got %s", got.Progress.Condition)
	}
	if len(got.Inventory) != 2 || got.Inventory[0].ID != "i-2" || got.Inventory[1].ID != "i-1" {
		t.Fatalf("expected inventory order preserved, got %+v", got.Inventory)
	}
	if string(got.Inventory[1].Data) == "" {
		t.Fatalf("expected item data preserved")
	}
	if got.Progress.EpiphanyBuffExpiresAt == nil || !got.Progress.EpiphanyBuffExpiresAt.Equal(time.Unix(5000, 0)) {
		t.Fatalf("unexpected buff expiry: %v", got.Progress.EpiphanyBuffExpiresAt)
	}
	if len(got.SpiritualRoots) != 1 || got.SpiritualRoots[0].Strength != 50 {
		t.Fatalf("unexpected roots: %+v", got.SpiritualRoots)
	}
}

func TestCharacterRepo_SaveWithVersionConflict(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	id := "it-character-version"
	_ = db.Exec("DELETE FROM characters WHERE character_id = ?", id).Error

	repo := NewCharacterRepo(db)
	c := seedCharacter(id)
	if err := repo.SaveWithVersion(ctx, c, 0); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repo.SaveWithVersion(ctx, c, 0); !errors.Is(err, ports.ErrConflict) {
		t.Fatalf("expected conflict on duplicate create, got %v", err)
	}

	c.Version = 2
	c.Inventory = c.Inventory[:1]
	if err := repo.SaveWithVersion(ctx, c, 1); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := repo.SaveWithVersion(ctx, c, 1); !errors.Is(err, ports.ErrConflict) {
		t.Fatalf("expected stale version conflict, got %v", err)
	}

	var count int64
	if err := db.Model(&model.InventoryItem{}).Where("character_id = ?", id).Count(&count).Error; err != nil {
		t.Fatalf("count inventory: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 inventory row after update, got %d", count)
	}
	if _, err := repo.GetByCharacterID(ctx, id+"-missing"); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestHistoryRepo_ListsNewestFirst(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	id := "it-history"
	_ = db.Exec("DELETE FROM retreat_records WHERE character_id = ?", id).Error
	_ = db.Exec("DELETE FROM breakthrough_records WHERE character_id = ?", id).Error

	repo := NewHistoryRepo(db)
	for i, at := range []int64{100, 300, 200} {
		if err := repo.AppendRetreat(ctx, cultivation.RetreatRecord{
			ID:          id + "-r" + string(rune('a'+i)),
			CharacterID: id,
			Realm:       cultivation.RealmQiRefining,
			Stage:       cultivation.StageEarly,
			Years:       10,
			ExpAfter:    100,
			CreatedAt:   time.Unix(at, 0).UTC(),
		}); err != nil {
			t.Fatalf("append retreat: %v", err)
		}
	}
	list, err := repo.ListRetreats(ctx, id, 2)
	if err != nil {
		t.Fatalf("list retreats: %v", err)
	}
	if len(list) != 2 || list[0].ID != id+"-rb" || list[1].ID != id+"-rc" {
		t.Fatalf("unexpected retreat order: %+v", list)
	}

	if err := repo.AppendBreakthrough(ctx, cultivation.BreakthroughRecord{
		ID:          id + "-b",
		CharacterID: id,
		FromRealm:   cultivation.RealmQiRefining,
		FromStage:   cultivation.StagePeak,
		ToRealm:     cultivation.RealmFoundationEstablishment,
		ToStage:     cultivation.StageEarly,
		Type:        cultivation.BreakthroughPerfect,
		CreatedAt:   time.Unix(400, 0).UTC(),
	}); err != nil {
		t.Fatalf("append breakthrough: %v", err)
	}
	bts, err := repo.ListBreakthroughs(ctx, id, 0)
	if err != nil {
		t.Fatalf("list breakthroughs: %v", err)
	}
	if len(bts) != 1 || bts[0].ToRealm != cultivation.RealmFoundationEstablishment || bts[0].Type != cultivation.BreakthroughPerfect {
		t.Fatalf("unexpected breakthroughs: %+v", bts)
	}
}

func TestEventRepo_AppendAndListByCharacterID(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	id := "it-event-repo"
	_ = db.Exec("DELETE FROM domain_events WHERE character_id = ?", id).Error

	repo := NewEventRepo(db)
	if _, err := repo.ListByCharacterID(ctx, id, 0); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("expected not found before append, got %v", err)
	}
	if err := repo.Append(ctx, id, []cultivation.DomainEvent{
		{Type: "e-old", OccurredAt: time.Unix(100, 0), Payload: map[string]any{"k": "v1"}},
		{Type: "e-new", OccurredAt: time.Unix(200, 0), Payload: map[string]any{"k": "v2"}},
	}); err != nil {
		t.Fatalf("append events: %v", err)
	}

	list, err := repo.ListByCharacterID(ctx, id, 1)
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	if len(list) != 1 || list[0].Type != "e-new" || list[0].Payload["k"] != "v2" {
		t.Fatalf("expected only latest event, got=%+v", list)
	}
}

func TestLifecycleRepo_FirstRecordWins(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	id := "it-lifecycle"
	_ = db.Exec("DELETE FROM character_lifecycles WHERE character_id = ?", id).Error

	repo := NewLifecycleRepo(db)
	first := time.Unix(1000, 0).UTC()
	if err := repo.MarkDeceased(ctx, ports.LifecycleRecord{CharacterID: id, Cause: "lifespan_exhausted", Age: 120, Lifespan: 120, EndedAt: &first}); err != nil {
		t.Fatalf("mark deceased: %v", err)
	}
	if err := repo.MarkDeceased(ctx, ports.LifecycleRecord{CharacterID: id, Cause: "other", Age: 121, Lifespan: 120}); err != nil {
		t.Fatalf("mark deceased twice: %v", err)
	}
	got, err := repo.Get(ctx, id)
	if err != nil {
		t.Fatalf("get lifecycle: %v", err)
	}
	if got.Status != "deceased" || got.Cause != "lifespan_exhausted" || got.Age != 120 {
		t.Fatalf("unexpected lifecycle: %+v", got)
	}
}

func TestTxManager_RunInTxCommitAndRollback(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	id := "it-tx-manager"
	_ = db.Exec("DELETE FROM characters WHERE character_id IN (?, ?, ?)", id, id+"-rb", id+"-nested").Error

	txManager := NewTxManager(db)
	repo := NewCharacterRepo(db)

	if err := txManager.RunInTx(ctx, func(txCtx context.Context) error {
		return repo.SaveWithVersion(txCtx, seedCharacter(id), 0)
	}); err != nil {
		t.Fatalf("commit tx failed: %v", err)
	}
	if _, err := repo.GetByCharacterID(ctx, id); err != nil {
		t.Fatalf("expected committed character exists, got err=%v", err)
	}

	rollbackErr := txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := repo.SaveWithVersion(txCtx, seedCharacter(id+"-rb"), 0); err != nil {
			return err
		}
		return errors.New("force rollback")
	})
	if rollbackErr == nil {
		t.Fatalf("expected rollback error")
	}
	if _, err := repo.GetByCharacterID(ctx, id+"-rb"); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("expected rollback to remove character, got err=%v", err)
	}

	outerErr := txManager.RunInTx(ctx, func(outer context.Context) error {
		if err := repo.SaveWithVersion(outer, seedCharacter(id+"-nested"), 0); err != nil {
			return err
		}
		return txManager.RunInTx(outer, func(inner context.Context) error {
			if _, err := repo.GetByCharacterID(inner, id+"-nested"); err != nil {
				t.Errorf("expected inner scope to see outer write, got err=%v", err)
			}
			return errors.New("inner failure")
		})
	})
	if outerErr == nil {
		t.Fatalf("expected inner error to abort outer tx")
	}
	if _, err := repo.GetByCharacterID(ctx, id+"-nested"); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("expected nested failure to roll back outer write, got err=%v", err)
	}
}
