package gormrepo

import (
	"context"
	"errors"

	"xiuxian/internal/adapter/repo/gorm/model"
	"xiuxian/internal/app/ports"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const statusDeceased = "deceased"

type LifecycleRepo struct {
	db *gorm.DB
}

func NewLifecycleRepo(db *gorm.DB) LifecycleRepo {
	return LifecycleRepo{db: db}
}

// MarkDeceased records the end of a cultivator's life. The first record wins.
func (r LifecycleRepo) MarkDeceased(ctx context.Context, rec ports.LifecycleRecord) error {
	m := model.CharacterLifecycle{
		CharacterID: rec.CharacterID,
		Status:      statusDeceased,
		Cause:       rec.Cause,
		Age:         int32(rec.Age),
		Lifespan:    int32(rec.Lifespan),
		EndedAt:     rec.EndedAt,
	}
	return getDBFromCtx(ctx, r.db).WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&m).Error
}

func (r LifecycleRepo) Get(ctx context.Context, characterID string) (ports.LifecycleRecord, error) {
	var m model.CharacterLifecycle
	err := getDBFromCtx(ctx, r.db).WithContext(ctx).
		Where(&model.CharacterLifecycle{CharacterID: characterID}).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.LifecycleRecord{}, ports.ErrNotFound
		}
		return ports.LifecycleRecord{}, err
	}
	return ports.LifecycleRecord{
		CharacterID: m.CharacterID,
		Status:      m.Status,
		Cause:       m.Cause,
		Age:         int(m.Age),
		Lifespan:    int(m.Lifespan),
		EndedAt:     m.EndedAt,
	}, nil
}
