package gormrepo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"xiuxian/internal/adapter/repo/gorm/model"
	"xiuxian/internal/app/ports"
	"xiuxian/internal/domain/cultivation"

	"gorm.io/gorm"
)

type CharacterRepo struct {
	db *gorm.DB
}

func NewCharacterRepo(db *gorm.DB) CharacterRepo {
	return CharacterRepo{db: db}
}

func (r CharacterRepo) GetByCharacterID(ctx context.Context, characterID string) (cultivation.Character, error) {
	db := getDBFromCtx(ctx, r.db).WithContext(ctx)
	var m model.Character
	if err := db.Where("character_id = ?", characterID).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return cultivation.Character{}, ports.ErrNotFound
		}
		return cultivation.Character{}, err
	}
	var items []model.InventoryItem
	if err := db.Where("character_id = ?", characterID).Order("position ASC").Find(&items).Error; err != nil {
		return cultivation.Character{}, err
	}
	return toDomainCharacter(m, items)
}

func (r CharacterRepo) SaveWithVersion(ctx context.Context, c cultivation.Character, expectedVersion int64) error {
	db := getDBFromCtx(ctx, r.db).WithContext(ctx)
	m, err := toModelCharacter(c)
	if err != nil {
		return err
	}

	if expectedVersion == 0 {
		if err := db.Create(&m).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ports.ErrConflict
			}
			return err
		}
		return r.replaceInventory(db, c)
	}

	updates := map[string]any{
		"name":                     m.Name,
		"realm":                    m.Realm,
		"stage":                    m.Stage,
		"age":                      m.Age,
		"lifespan":                 m.Lifespan,
		"spirit_stones":            m.SpiritStones,
		"vitality":                 m.Vitality,
		"spirit":                   m.Spirit,
		"wisdom":                   m.Wisdom,
		"speed":                    m.Speed,
		"willpower":                m.Willpower,
		"spiritual_roots":          m.SpiritualRoots,
		"cultivation_exp":          m.CultivationExp,
		"exp_cap":                  m.ExpCap,
		"comprehension_insight":    m.ComprehensionInsight,
		"breakthrough_failures":    m.BreakthroughFailures,
		"bottleneck_state":         m.BottleneckState,
		"inner_demon":              m.InnerDemon,
		"epiphany_buff_expires_at": m.EpiphanyBuffExpiresAt,
		"closed_door_years_total":  m.ClosedDoorYearsTotal,
		"deceased":                 m.Deceased,
		"version":                  m.Version,
		"updated_at":               m.UpdatedAt,
	}
	res := db.Model(&model.Character{}).
		Where("character_id = ? AND version = ?", c.CharacterID, expectedVersion).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ports.ErrConflict
	}
	return r.replaceInventory(db, c)
}

// replaceInventory rewrites the character's item rows so their order matches
// the in-memory slice.
func (r CharacterRepo) replaceInventory(db *gorm.DB, c cultivation.Character) error {
	if err := db.Where("character_id = ?", c.CharacterID).Delete(&model.InventoryItem{}).Error; err != nil {
		return fmt.Errorf("clear inventory: %w", err)
	}
	if len(c.Inventory) == 0 {
		return nil
	}
	rows := make([]model.InventoryItem, 0, len(c.Inventory))
	for i, item := range c.Inventory {
		row := model.InventoryItem{
			ItemID:      item.ID,
			CharacterID: c.CharacterID,
			Position:    int32(i),
			Category:    string(item.Category),
			Name:        item.Name,
			Quantity:    int32(item.Quantity),
		}
		if len(item.Data) > 0 {
			s := string(item.Data)
			row.Data = &s
		}
		rows = append(rows, row)
	}
	if err := db.Create(&rows).Error; err != nil {
		return fmt.Errorf("write inventory: %w", err)
	}
	return nil
}

var errOutOfRange = errors.New("value out of int32 column range")

// checkInt32 guards the int32 columns against silent truncation.
func checkInt32(field string, v int) error {
	if v < math.MinInt32 || v > math.MaxInt32 {
		return fmt.Errorf("%s=%d: %w", field, v, errOutOfRange)
	}
	return nil
}

func toModelCharacter(c cultivation.Character) (model.Character, error) {
	for _, f := range []struct {
		name string
		v    int
	}{
		{"age", c.Age},
		{"lifespan", c.Lifespan},
		{"vitality", c.Attributes.Vitality},
		{"spirit", c.Attributes.Spirit},
		{"wisdom", c.Attributes.Wisdom},
		{"speed", c.Attributes.Speed},
		{"willpower", c.Attributes.Willpower},
		{"comprehension_insight", c.Progress.ComprehensionInsight},
		{"breakthrough_failures", c.Progress.BreakthroughFailures},
		{"closed_door_years_total", c.ClosedDoorYearsTotal},
	} {
		if err := checkInt32(f.name, f.v); err != nil {
			return model.Character{}, err
		}
	}
	for _, item := range c.Inventory {
		if err := checkInt32("quantity of "+item.Name, item.Quantity); err != nil {
			return model.Character{}, err
		}
	}
	roots := c.SpiritualRoots
	if roots == nil {
		roots = []cultivation.SpiritualRoot{}
	}
	rootsJSON, err := json.Marshal(roots)
	if err != nil {
		return model.Character{}, fmt.Errorf("encode spiritual roots: %w", err)
	}
	p := c.Progress
	return model.Character{
		CharacterID:           c.CharacterID,
		Name:                  c.Name,
		Realm:                 c.Realm.String(),
		Stage:                 c.Stage.String(),
		Age:                   int32(c.Age),
		Lifespan:              int32(c.Lifespan),
		SpiritStones:          c.SpiritStones,
		Vitality:              int32(c.Attributes.Vitality),
		Spirit:                int32(c.Attributes.Spirit),
		Wisdom:                int32(c.Attributes.Wisdom),
		Speed:                 int32(c.Attributes.Speed),
		Willpower:             int32(c.Attributes.Willpower),
		SpiritualRoots:        string(rootsJSON),
		CultivationExp:        p.CultivationExp,
		ExpCap:                p.ExpCap,
		ComprehensionInsight:  int32(p.ComprehensionInsight),
		BreakthroughFailures:  int32(p.BreakthroughFailures),
		BottleneckState:       p.Condition.Bottlenecked(),
		InnerDemon:            p.Condition.InnerDemon(),
		EpiphanyBuffExpiresAt: p.EpiphanyBuffExpiresAt,
		ClosedDoorYearsTotal:  int32(c.ClosedDoorYearsTotal),
		Deceased:              c.Deceased,
		Version:               c.Version,
		UpdatedAt:             c.UpdatedAt,
	}, nil
}

func toDomainCharacter(m model.Character, items []model.InventoryItem) (cultivation.Character, error) {
	realm, err := cultivation.ParseRealm(m.Realm)
	if err != nil {
		return cultivation.Character{}, fmt.Errorf("character %s: %w", m.CharacterID, err)
	}
	stage, err := cultivation.ParseStage(m.Stage)
	if err != nil {
		return cultivation.Character{}, fmt.Errorf("character %s: %w", m.CharacterID, err)
	}
	var roots []cultivation.SpiritualRoot
	if m.SpiritualRoots != "" {
		if err := json.Unmarshal([]byte(m.SpiritualRoots), &roots); err != nil {
			return cultivation.Character{}, fmt.Errorf("character %s: decode spiritual roots: %w", m.CharacterID, err)
		}
	}

	c := cultivation.Character{
		CharacterID: m.CharacterID,
		Name:        m.Name,
		Attributes: cultivation.Attributes{
			Vitality:  int(m.Vitality),
			Spirit:    int(m.Spirit),
			Wisdom:    int(m.Wisdom),
			Speed:     int(m.Speed),
			Willpower: int(m.Willpower),
		},
		SpiritualRoots:       roots,
		Realm:                realm,
		Stage:                stage,
		Age:                  int(m.Age),
		Lifespan:             int(m.Lifespan),
		SpiritStones:         m.SpiritStones,
		ClosedDoorYearsTotal: int(m.ClosedDoorYearsTotal),
		Deceased:             m.Deceased,
		Progress: cultivation.Progress{
			CultivationExp:        m.CultivationExp,
			ExpCap:                m.ExpCap,
			ComprehensionInsight:  int(m.ComprehensionInsight),
			BreakthroughFailures:  int(m.BreakthroughFailures),
			Condition:             cultivation.ConditionFromFlags(m.BottleneckState, m.InnerDemon),
			EpiphanyBuffExpiresAt: m.EpiphanyBuffExpiresAt,
		},
		Version:   m.Version,
		UpdatedAt: m.UpdatedAt,
	}
	if len(items) > 0 {
		c.Inventory = make([]cultivation.InventoryItem, 0, len(items))
		for _, row := range items {
			item := cultivation.InventoryItem{
				ID:       row.ItemID,
				Category: cultivation.ItemCategory(row.Category),
				Name:     row.Name,
				Quantity: int(row.Quantity),
			}
			if row.Data != nil {
				item.Data = json.RawMessage(*row.Data)
			}
			c.Inventory = append(c.Inventory, item)
		}
	}
	return c, nil
}
