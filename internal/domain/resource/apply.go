package resource

import (
	"encoding/json"
	"math"

	"xiuxian/internal/domain/cultivation"
)

// Check reports every cost c cannot afford and every malformed cost. Costs on
// the same resource are summed first, so one Shortfall covers all of them. It
// never mutates c.
func Check(c cultivation.Character, costs []Operation) ([]Shortfall, []OperationError) {
	type costKey struct {
		typ  Type
		name string
	}
	var (
		errs      []OperationError
		order     []costKey
		required  = map[costKey]int64{}
		available = map[costKey]int64{}
	)
	for i, op := range costs {
		if !op.Type.Known() {
			errs = append(errs, OperationError{Index: i, Type: op.Type, Name: op.Name, Message: "unknown resource type"})
			continue
		}
		if op.Type.IsNarrative() {
			continue
		}
		have, name, err := availableFor(c, op)
		if err != "" {
			errs = append(errs, OperationError{Index: i, Type: op.Type, Name: name, Message: err})
			continue
		}
		need := op.Value
		if op.Type.IsItem() {
			_, need = resolveItem(op)
		}
		key := costKey{typ: op.Type, name: name}
		if _, seen := required[key]; !seen {
			order = append(order, key)
			available[key] = have
		}
		required[key] += need
	}

	var missing []Shortfall
	for _, key := range order {
		if available[key] < required[key] {
			missing = append(missing, Shortfall{Type: key.typ, Name: key.name, Required: required[key], Available: available[key]})
		}
	}
	return missing, errs
}

func availableFor(c cultivation.Character, op Operation) (int64, string, string) {
	if op.Type.IsItem() {
		name, qty := resolveItem(op)
		if name == "" {
			return 0, "", "item name is required"
		}
		if qty <= 0 {
			return 0, name, "quantity must be positive"
		}
		return int64(c.ItemQuantity(op.Type.itemCategory(), name)), name, ""
	}
	if op.Value <= 0 {
		return 0, "", "value must be positive"
	}
	switch op.Type {
	case SpiritStones:
		return c.SpiritStones, "", ""
	case Lifespan:
		return int64(c.RemainingLifespan()), "", ""
	case Experience:
		return c.Progress.CultivationExp, "", ""
	case Insight:
		return int64(c.Progress.ComprehensionInsight), "", ""
	}
	return 0, "", "unsupported resource type"
}

// Debit applies costs to c. Callers run Check first; Debit still refuses to
// drive any balance negative and reports the offending operation instead.
func Debit(c *cultivation.Character, costs []Operation) []OperationError {
	var errs []OperationError
	for i, op := range costs {
		if op.Type.IsNarrative() {
			continue
		}
		if missing, opErrs := Check(*c, []Operation{op}); len(missing) > 0 || len(opErrs) > 0 {
			msg := "insufficient balance"
			if len(opErrs) > 0 {
				msg = opErrs[0].Message
			} else {
				msg = missing[0].String()
			}
			errs = append(errs, OperationError{Index: i, Type: op.Type, Name: op.Name, Message: msg})
			continue
		}
		switch op.Type {
		case SpiritStones:
			c.SpiritStones -= op.Value
		case Lifespan:
			c.Lifespan -= int(op.Value)
		case Experience:
			c.Progress.CultivationExp -= op.Value
		case Insight:
			c.Progress.ComprehensionInsight -= int(op.Value)
		case Material, Equipment, Consumable:
			name, qty := resolveItem(op)
			removeItems(c, op.Type.itemCategory(), name, int(qty))
		}
	}
	return errs
}

// MaxCount bounds lifespan and per-item quantities, which are stored as 32-bit
// integers.
const MaxCount = math.MaxInt32

// Credit applies gains to c. Unknown types are reported and skipped; the
// remaining gains are still applied. newID names new inventory entries.
func Credit(c *cultivation.Character, gains []Operation, newID func() string) []OperationError {
	var errs []OperationError
	for i, op := range gains {
		if !op.Type.Known() {
			errs = append(errs, OperationError{Index: i, Type: op.Type, Name: op.Name, Message: "unknown resource type"})
			continue
		}
		if op.Type.IsNarrative() {
			continue
		}
		if op.Type.IsItem() {
			name, qty := resolveItem(op)
			if name == "" || qty <= 0 {
				errs = append(errs, OperationError{Index: i, Type: op.Type, Name: name, Message: "item name and positive quantity are required"})
				continue
			}
			if qty > MaxCount-int64(c.ItemQuantity(op.Type.itemCategory(), name)) {
				errs = append(errs, OperationError{Index: i, Type: op.Type, Name: name, Message: "quantity out of range"})
				continue
			}
			addItem(c, op.Type.itemCategory(), name, int(qty), op.Data, newID)
			continue
		}
		if op.Value <= 0 {
			errs = append(errs, OperationError{Index: i, Type: op.Type, Message: "value must be positive"})
			continue
		}
		switch op.Type {
		case SpiritStones:
			if op.Value > math.MaxInt64-c.SpiritStones {
				errs = append(errs, OperationError{Index: i, Type: op.Type, Message: "value out of range"})
				continue
			}
			c.SpiritStones += op.Value
		case Lifespan:
			if op.Value > MaxCount-int64(c.Lifespan) {
				errs = append(errs, OperationError{Index: i, Type: op.Type, Message: "value out of range"})
				continue
			}
			c.Lifespan += int(op.Value)
		case Experience:
			limit := cultivation.ExpCap(c.Realm, c.Stage)
			if limit > 0 {
				c.Progress.ExpCap = limit
				if op.Value >= limit-c.Progress.CultivationExp {
					c.Progress.CultivationExp = limit
				} else {
					c.Progress.CultivationExp += op.Value
				}
			} else {
				c.Progress.CultivationExp += op.Value
			}
			if cultivation.IsBottleneckReached(c.Progress) {
				c.Progress.Condition = c.Progress.Condition.EnterBottleneck()
			}
		case Insight:
			if op.Value >= int64(cultivation.MaxInsight-c.Progress.ComprehensionInsight) {
				c.Progress.ComprehensionInsight = cultivation.MaxInsight
			} else {
				c.Progress.ComprehensionInsight += int(op.Value)
			}
		}
	}
	return errs
}

// Materials and consumables stack by name; equipment is always a new entry.
func addItem(c *cultivation.Character, category cultivation.ItemCategory, name string, qty int, data json.RawMessage, newID func() string) {
	if category != cultivation.ItemEquipment {
		for i := range c.Inventory {
			if c.Inventory[i].Category == category && c.Inventory[i].Name == name {
				c.Inventory[i].Quantity += qty
				if len(data) > 0 {
					c.Inventory[i].Data = append(json.RawMessage(nil), data...)
				}
				return
			}
		}
	}
	item := cultivation.InventoryItem{
		Category: category,
		Name:     name,
		Quantity: qty,
	}
	if newID != nil {
		item.ID = newID()
	}
	if len(data) > 0 {
		item.Data = append(json.RawMessage(nil), data...)
	}
	c.Inventory = append(c.Inventory, item)
}

func removeItems(c *cultivation.Character, category cultivation.ItemCategory, name string, qty int) {
	kept := c.Inventory[:0]
	for _, item := range c.Inventory {
		if qty > 0 && item.Category == category && item.Name == name {
			take := item.Quantity
			if take > qty {
				take = qty
			}
			item.Quantity -= take
			qty -= take
		}
		if item.Quantity > 0 {
			kept = append(kept, item)
		}
	}
	c.Inventory = kept
}
