package cultivation

import (
	"encoding/json"
	"time"
)

type Attributes struct {
	Vitality  int `json:"vitality"`
	Spirit    int `json:"spirit"`
	Wisdom    int `json:"wisdom"`
	Speed     int `json:"speed"`
	Willpower int `json:"willpower"`
}

func (a Attributes) Add(delta Attributes) Attributes {
	return Attributes{
		Vitality:  a.Vitality + delta.Vitality,
		Spirit:    a.Spirit + delta.Spirit,
		Wisdom:    a.Wisdom + delta.Wisdom,
		Speed:     a.Speed + delta.Speed,
		Willpower: a.Willpower + delta.Willpower,
	}
}

type SpiritualRoot struct {
	Element  string `json:"element"`
	Strength int    `json:"strength"`
}

type Progress struct {
	CultivationExp        int64      `json:"cultivation_exp"`
	ExpCap                int64      `json:"exp_cap"`
	ComprehensionInsight  int        `json:"comprehension_insight"`
	BreakthroughFailures  int        `json:"breakthrough_failures"`
	Condition             Condition  `json:"condition"`
	EpiphanyBuffExpiresAt *time.Time `json:"epiphany_buff_expires_at,omitempty"`
}

func (p Progress) EpiphanyActive(now time.Time) bool {
	return p.EpiphanyBuffExpiresAt != nil && now.Before(*p.EpiphanyBuffExpiresAt)
}

type ItemCategory string

const (
	ItemMaterial   ItemCategory = "material"
	ItemEquipment  ItemCategory = "equipment"
	ItemConsumable ItemCategory = "consumable"
)

// InventoryItem is a named, quantity-bearing entry. Data is the opaque payload
// produced by content generators and is stored as-is.
type InventoryItem struct {
	ID       string          `json:"id"`
	Category ItemCategory    `json:"category"`
	Name     string          `json:"name"`
	Quantity int             `json:"quantity"`
	Data     json.RawMessage `json:"data,omitempty"`
}

type Character struct {
	CharacterID          string          `json:"character_id"`
	Name                 string          `json:"name"`
	Attributes           Attributes      `json:"attributes"`
	SpiritualRoots       []SpiritualRoot `json:"spiritual_roots"`
	Realm                Realm           `json:"realm"`
	Stage                Stage           `json:"stage"`
	Age                  int             `json:"age"`
	Lifespan             int             `json:"lifespan"`
	SpiritStones         int64           `json:"spirit_stones"`
	ClosedDoorYearsTotal int             `json:"closed_door_years_total"`
	Deceased             bool            `json:"deceased"`
	Progress             Progress        `json:"progress"`
	Inventory            []InventoryItem `json:"inventory"`
	Version              int64           `json:"version"`
	UpdatedAt            time.Time       `json:"updated_at"`
}

func (c Character) Tier() Tier {
	return Tier{Realm: c.Realm, Stage: c.Stage}
}

func (c Character) RemainingLifespan() int {
	if c.Lifespan <= c.Age {
		return 0
	}
	return c.Lifespan - c.Age
}

func (c Character) LifespanExhausted() bool {
	return c.Age >= c.Lifespan
}

func (c Character) StrongestRoot() int {
	best := 0
	for _, root := range c.SpiritualRoots {
		if root.Strength > best {
			best = root.Strength
		}
	}
	return best
}

// ItemQuantity sums the quantity held under name, across categories when
// category is empty.
func (c Character) ItemQuantity(category ItemCategory, name string) int {
	total := 0
	for _, item := range c.Inventory {
		if item.Name != name {
			continue
		}
		if category != "" && item.Category != category {
			continue
		}
		total += item.Quantity
	}
	return total
}

// Clone returns a deep copy; mutating the copy never affects c.
func (c Character) Clone() Character {
	out := c
	if c.SpiritualRoots != nil {
		out.SpiritualRoots = append([]SpiritualRoot(nil), c.SpiritualRoots...)
	}
	if c.Inventory != nil {
		out.Inventory = make([]InventoryItem, len(c.Inventory))
		for i, item := range c.Inventory {
			out.Inventory[i] = item
			if item.Data != nil {
				out.Inventory[i].Data = append(json.RawMessage(nil), item.Data...)
			}
		}
	}
	if c.Progress.EpiphanyBuffExpiresAt != nil {
		at := *c.Progress.EpiphanyBuffExpiresAt
		out.Progress.EpiphanyBuffExpiresAt = &at
	}
	return out
}

type BreakthroughType string

const (
	BreakthroughForced  BreakthroughType = "forced"
	BreakthroughNormal  BreakthroughType = "normal"
	BreakthroughPerfect BreakthroughType = "perfect"
)

// RetreatRecord is the write-once audit entry of one cultivate action.
type RetreatRecord struct {
	ID                string    `json:"id"`
	CharacterID       string    `json:"character_id"`
	Realm             Realm     `json:"realm"`
	Stage             Stage     `json:"stage"`
	Years             int       `json:"years"`
	ExpBefore         int64     `json:"exp_before"`
	ExpAfter          int64     `json:"exp_after"`
	InsightGained     int       `json:"insight_gained"`
	EpiphanyTriggered bool      `json:"epiphany_triggered"`
	CreatedAt         time.Time `json:"created_at"`
}

// BreakthroughRecord is the write-once audit entry of one successful breakthrough.
type BreakthroughRecord struct {
	ID               string           `json:"id"`
	CharacterID      string           `json:"character_id"`
	FromRealm        Realm            `json:"from_realm"`
	FromStage        Stage            `json:"from_stage"`
	ToRealm          Realm            `json:"to_realm"`
	ToStage          Stage            `json:"to_stage"`
	Age              int              `json:"age"`
	YearsSpent       int              `json:"years_spent"`
	ExpProgress      float64          `json:"exp_progress"`
	InsightAtAttempt int              `json:"insight_at_attempt"`
	Type             BreakthroughType `json:"breakthrough_type"`
	CreatedAt        time.Time        `json:"created_at"`
}

type DomainEvent struct {
	Type       string         `json:"type"`
	OccurredAt time.Time      `json:"occurred_at"`
	Payload    map[string]any `json:"payload"`
}
