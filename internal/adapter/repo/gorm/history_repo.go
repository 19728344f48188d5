package gormrepo

import (
	"context"
	"fmt"

	"xiuxian/internal/adapter/repo/gorm/model"
	"xiuxian/internal/domain/cultivation"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type HistoryRepo struct {
	db *gorm.DB
}

func NewHistoryRepo(db *gorm.DB) HistoryRepo {
	return HistoryRepo{db: db}
}

func (r HistoryRepo) AppendRetreat(ctx context.Context, rec cultivation.RetreatRecord) error {
	m := model.RetreatRecord{
		RecordID:          rec.ID,
		CharacterID:       rec.CharacterID,
		Realm:             rec.Realm.String(),
		Stage:             rec.Stage.String(),
		Years:             int32(rec.Years),
		ExpBefore:         rec.ExpBefore,
		ExpAfter:          rec.ExpAfter,
		InsightGained:     int32(rec.InsightGained),
		EpiphanyTriggered: rec.EpiphanyTriggered,
		CreatedAt:         rec.CreatedAt,
	}
	return getDBFromCtx(ctx, r.db).WithContext(ctx).Create(&m).Error
}

func (r HistoryRepo) AppendBreakthrough(ctx context.Context, rec cultivation.BreakthroughRecord) error {
	m := model.BreakthroughRecord{
		RecordID:         rec.ID,
		CharacterID:      rec.CharacterID,
		FromRealm:        rec.FromRealm.String(),
		FromStage:        rec.FromStage.String(),
		ToRealm:          rec.ToRealm.String(),
		ToStage:          rec.ToStage.String(),
		Age:              int32(rec.Age),
		YearsSpent:       int32(rec.YearsSpent),
		ExpProgress:      rec.ExpProgress,
		InsightAtAttempt: int32(rec.InsightAtAttempt),
		BreakthroughType: string(rec.Type),
		CreatedAt:        rec.CreatedAt,
	}
	return getDBFromCtx(ctx, r.db).WithContext(ctx).Create(&m).Error
}

func (r HistoryRepo) ListRetreats(ctx context.Context, characterID string, limit int) ([]cultivation.RetreatRecord, error) {
	rows := []model.RetreatRecord{}
	if err := newestFirst(getDBFromCtx(ctx, r.db).WithContext(ctx), characterID, limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]cultivation.RetreatRecord, 0, len(rows))
	for _, row := range rows {
		realm, err := cultivation.ParseRealm(row.Realm)
		if err != nil {
			return nil, fmt.Errorf("retreat %s: %w", row.RecordID, err)
		}
		stage, err := cultivation.ParseStage(row.Stage)
		if err != nil {
			return nil, fmt.Errorf("retreat %s: %w", row.RecordID, err)
		}
		out = append(out, cultivation.RetreatRecord{
			ID:                row.RecordID,
			CharacterID:       row.CharacterID,
			Realm:             realm,
			Stage:             stage,
			Years:             int(row.Years),
			ExpBefore:         row.ExpBefore,
			ExpAfter:          row.ExpAfter,
			InsightGained:     int(row.InsightGained),
			EpiphanyTriggered: row.EpiphanyTriggered,
			CreatedAt:         row.CreatedAt,
		})
	}
	return out, nil
}

func (r HistoryRepo) ListBreakthroughs(ctx context.Context, characterID string, limit int) ([]cultivation.BreakthroughRecord, error) {
	rows := []model.BreakthroughRecord{}
	if err := newestFirst(getDBFromCtx(ctx, r.db).WithContext(ctx), characterID, limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]cultivation.BreakthroughRecord, 0, len(rows))
	for _, row := range rows {
		from, err := parseTier(row.FromRealm, row.FromStage)
		if err != nil {
			return nil, fmt.Errorf("breakthrough %s: %w", row.RecordID, err)
		}
		to, err := parseTier(row.ToRealm, row.ToStage)
		if err != nil {
			return nil, fmt.Errorf("breakthrough %s: %w", row.RecordID, err)
		}
		out = append(out, cultivation.BreakthroughRecord{
			ID:               row.RecordID,
			CharacterID:      row.CharacterID,
			FromRealm:        from.Realm,
			FromStage:        from.Stage,
			ToRealm:          to.Realm,
			ToStage:          to.Stage,
			Age:              int(row.Age),
			YearsSpent:       int(row.YearsSpent),
			ExpProgress:      row.ExpProgress,
			InsightAtAttempt: int(row.InsightAtAttempt),
			Type:             cultivation.BreakthroughType(row.BreakthroughType),
			CreatedAt:        row.CreatedAt,
		})
	}
	return out, nil
}

func newestFirst(db *gorm.DB, characterID string, limit int) *gorm.DB {
	query := db.Where("character_id = ?", characterID).
		Clauses(clause.OrderBy{
			Columns: []clause.OrderByColumn{
				{Column: clause.Column{Name: "created_at"}, Desc: true},
				{Column: clause.Column{Name: "record_id"}, Desc: true},
			},
		})
	if limit > 0 {
		query = query.Limit(limit)
	}
	return query
}

func parseTier(realm, stage string) (cultivation.Tier, error) {
	r, err := cultivation.ParseRealm(realm)
	if err != nil {
		return cultivation.Tier{}, err
	}
	s, err := cultivation.ParseStage(stage)
	if err != nil {
		return cultivation.Tier{}, err
	}
	return cultivation.Tier{Realm: r, Stage: s}, nil
}
