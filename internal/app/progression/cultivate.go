package progression

import (
	"context"

	"xiuxian/internal/domain/cultivation"
)

// Cultivate spends years in closed-door cultivation. The years are charged to
// the daily retreat quota and refunded if the action does not commit.
func (u UseCase) Cultivate(ctx context.Context, req CultivateRequest) (out CultivateResponse, err error) {
	id, err := normalizeID(req.CharacterID)
	if err != nil {
		return CultivateResponse{}, err
	}
	if req.Years <= 0 {
		return CultivateResponse{}, cultivation.ErrInvalidYears
	}

	ctx, span := u.start(ctx, "progression.cultivate", id)
	defer func() { u.finish(ctx, span, "cultivate", id, "cultivated", err) }()

	release, err := u.acquire(ctx, id)
	if err != nil {
		return CultivateResponse{}, err
	}
	defer release()

	quota, err := u.Guard.CheckAndConsumeQuota(ctx, id, req.Years)
	if err != nil {
		return CultivateResponse{}, err
	}
	if !quota.Allowed {
		return CultivateResponse{}, quota.Err()
	}
	committed := false
	defer func() {
		if committed {
			return
		}
		if _, rbErr := u.Guard.RollbackConsumption(context.WithoutCancel(ctx), quota); rbErr != nil {
			u.logger().ErrorContext(ctx, "rollback retreat quota", "character_id", id, "years", req.Years, "error", rbErr)
		}
	}()

	now := u.now()
	rng := u.rng()
	var result cultivation.CultivationResult
	err = u.TxManager.RunInTx(ctx, func(txCtx context.Context) error {
		current, err := u.Chars.GetByCharacterID(txCtx, id)
		if err != nil {
			return err
		}
		result, err = u.Engine.PerformCultivation(current, req.Years, now, rng)
		if err != nil {
			return err
		}
		if result.Summary.LifespanExhausted {
			if err := u.markDeceased(txCtx, &result.UpdatedCharacter, now); err != nil {
				return err
			}
		}
		if err := u.Chars.SaveWithVersion(txCtx, result.UpdatedCharacter, current.Version); err != nil {
			return err
		}
		result.Record.ID = u.newID()
		if err := u.History.AppendRetreat(txCtx, result.Record); err != nil {
			return err
		}
		tagEvents(result.Events, id)
		return u.Events.Append(txCtx, id, result.Events)
	})
	if err != nil {
		return CultivateResponse{}, classify(err)
	}
	committed = true

	return CultivateResponse{
		Success:   true,
		Character: SnapshotOf(result.UpdatedCharacter),
		Summary:   result.Summary,
		Quota:     quota,
		RecordID:  result.Record.ID,
	}, nil
}
