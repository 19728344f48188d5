package ledger

import (
	"time"

	"xiuxian/internal/adapter/repo/memory"
	"xiuxian/internal/domain/cultivation"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func seedCharacter() cultivation.Character {
	return cultivation.Character{
		CharacterID:  "c-1",
		Name:         "Han Li",
		Realm:        cultivation.RealmQiRefining,
		Stage:        cultivation.StageLate,
		Age:          40,
		Lifespan:     120,
		SpiritStones: 50,
		Progress: cultivation.Progress{
			CultivationExp:       20,
			ExpCap:               cultivation.ExpCap(cultivation.RealmQiRefining, cultivation.StageLate),
			ComprehensionInsight: 10,
		},
		Inventory: []cultivation.InventoryItem{
			{ID: "i-1", Category: cultivation.ItemMaterial, Name: "Spirit Grass", Quantity: 4, Data: []byte(`{"name":"Spirit Grass","grade":1}`)},
		},
		Version:   3,
		UpdatedAt: testNow.Add(-time.Hour),
	}
}

func newTestLedger() (Ledger, *memory.Store) {
	store := memory.NewStore()
	store.SeedCharacter(seedCharacter())
	ids := 0
	return Ledger{
		TxManager: memory.NewTxManager(store),
		Chars:     memory.NewCharacterRepo(store),
		Events:    memory.NewEventRepo(store),
		Now:       func() time.Time { return testNow },
		NewID: func() string {
			ids++
			return "item-" + string(rune('a'+ids-1))
		},
	}, store
}
