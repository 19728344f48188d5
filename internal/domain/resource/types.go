package resource

import (
	"encoding/json"
	"fmt"

	"xiuxian/internal/domain/cultivation"
)

type Type string

const (
	SpiritStones Type = "spirit_stones"
	Lifespan     Type = "lifespan"
	Experience   Type = "cultivation_exp"
	Insight      Type = "insight"
	Material     Type = "material"
	Equipment    Type = "equipment"
	Consumable   Type = "consumable"

	// Owned by the narrative subsystem; accepted and ignored here.
	StoryFlag  Type = "story_flag"
	Reputation Type = "reputation"
	Karma      Type = "karma"
)

func (t Type) IsItem() bool {
	return t == Material || t == Equipment || t == Consumable
}

func (t Type) IsNarrative() bool {
	return t == StoryFlag || t == Reputation || t == Karma
}

func (t Type) Known() bool {
	switch t {
	case SpiritStones, Lifespan, Experience, Insight:
		return true
	default:
		return t.IsItem() || t.IsNarrative()
	}
}

func (t Type) itemCategory() cultivation.ItemCategory {
	return cultivation.ItemCategory(t)
}

// Operation is one debit or credit. Value is an unsigned magnitude; the
// direction comes from whether it is passed as a cost or a gain.
type Operation struct {
	Type     Type            `json:"type"`
	Value    int64           `json:"value"`
	Name     string          `json:"name,omitempty"`
	Data     json.RawMessage `json:"data,omitempty"`
	Metadata map[string]any  `json:"metadata,omitempty"`
}

// Shortfall describes one unaffordable requirement.
type Shortfall struct {
	Type      Type   `json:"type"`
	Name      string `json:"name,omitempty"`
	Required  int64  `json:"required"`
	Available int64  `json:"available"`
}

func (s Shortfall) Missing() int64 {
	return s.Required - s.Available
}

func (s Shortfall) String() string {
	label := string(s.Type)
	if s.Name != "" {
		label += " " + s.Name
	}
	return fmt.Sprintf("insufficient %s: need %d, have %d", label, s.Required, s.Available)
}

type OperationError struct {
	Index   int    `json:"index"`
	Type    Type   `json:"type"`
	Name    string `json:"name,omitempty"`
	Message string `json:"message"`
}

func (e OperationError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("%s %q: %s", e.Type, e.Name, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// itemPayload is the only part of a generated item the ledger reads.
type itemPayload struct {
	Name     string `json:"name"`
	Quantity int64  `json:"quantity"`
}

func resolveItem(op Operation) (string, int64) {
	name, qty := op.Name, op.Value
	if len(op.Data) > 0 && (name == "" || qty <= 0) {
		var p itemPayload
		if err := json.Unmarshal(op.Data, &p); err == nil {
			if name == "" {
				name = p.Name
			}
			if qty <= 0 {
				qty = p.Quantity
			}
		}
	}
	return name, qty
}
