package status

import (
	"xiuxian/internal/app/progression"
	"xiuxian/internal/domain/cultivation"
)

type Request struct {
	CharacterID string
}

type Response struct {
	Character         progression.Snapshot        `json:"character"`
	SpiritualRoots    []cultivation.SpiritualRoot `json:"spiritual_roots"`
	SpiritStones      int64                       `json:"spirit_stones"`
	Inventory         []cultivation.InventoryItem `json:"inventory"`
	RemainingLifespan int                         `json:"remaining_lifespan"`
	EpiphanyActive    bool                        `json:"epiphany_active"`
	CanBreakthrough   bool                        `json:"can_breakthrough"`
	BreakthroughType  cultivation.BreakthroughType `json:"breakthrough_type,omitempty"`
	NextTier          *cultivation.Tier           `json:"next_tier,omitempty"`
}
