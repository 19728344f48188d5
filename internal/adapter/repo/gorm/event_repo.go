package gormrepo

import (
	"context"
	"encoding/json"
	"fmt"

	"xiuxian/internal/adapter/repo/gorm/model"
	"xiuxian/internal/app/ports"
	"xiuxian/internal/domain/cultivation"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type EventRepo struct {
	db *gorm.DB
}

func NewEventRepo(db *gorm.DB) EventRepo {
	return EventRepo{db: db}
}

func (r EventRepo) Append(ctx context.Context, characterID string, events []cultivation.DomainEvent) error {
	if len(events) == 0 {
		return nil
	}
	rows := make([]model.DomainEvent, 0, len(events))
	for _, e := range events {
		b, err := json.Marshal(e.Payload)
		if err != nil {
			return fmt.Errorf("encode %s payload: %w", e.Type, err)
		}
		rows = append(rows, model.DomainEvent{
			CharacterID: characterID,
			Type:        e.Type,
			OccurredAt:  e.OccurredAt,
			Payload:     b,
		})
	}
	return getDBFromCtx(ctx, r.db).WithContext(ctx).Create(&rows).Error
}

func (r EventRepo) ListByCharacterID(ctx context.Context, characterID string, limit int) ([]cultivation.DomainEvent, error) {
	rows := []model.DomainEvent{}
	query := getDBFromCtx(ctx, r.db).WithContext(ctx).
		Where(&model.DomainEvent{CharacterID: characterID}).
		Clauses(clause.OrderBy{
			Columns: []clause.OrderByColumn{
				{Column: clause.Column{Name: "occurred_at"}, Desc: true},
				{Column: clause.Column{Name: "event_id"}, Desc: true},
			},
		})
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ports.ErrNotFound
	}

	out := make([]cultivation.DomainEvent, 0, len(rows))
	for _, row := range rows {
		evt, err := toDomainEvent(row)
		if err != nil {
			return nil, err
		}
		out = append(out, evt)
	}
	return out, nil
}

func toDomainEvent(row model.DomainEvent) (cultivation.DomainEvent, error) {
	var payload map[string]any
	if len(row.Payload) > 0 {
		if err := json.Unmarshal(row.Payload, &payload); err != nil {
			return cultivation.DomainEvent{}, fmt.Errorf("decode event %d payload: %w", row.EventID, err)
		}
	}
	return cultivation.DomainEvent{
		Type:       row.Type,
		OccurredAt: row.OccurredAt,
		Payload:    payload,
	}, nil
}
