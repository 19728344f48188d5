package progression

import (
	"context"

	"xiuxian/internal/domain/cultivation"
)

// Preview reports the odds of the next breakthrough attempt without taking
// the lock or writing anything.
func (u UseCase) Preview(ctx context.Context, characterID string) (PreviewResponse, error) {
	id, err := normalizeID(characterID)
	if err != nil {
		return PreviewResponse{}, err
	}
	ctx, span := u.start(ctx, "progression.preview", id)
	defer span.End()

	c, err := u.Chars.GetByCharacterID(ctx, id)
	if err != nil {
		span.RecordError(err)
		return PreviewResponse{}, err
	}
	return BuildPreview(c), nil
}

// BuildPreview derives the preview from a snapshot already in hand.
func BuildPreview(c cultivation.Character) PreviewResponse {
	c.Progress.ExpCap = cultivation.ExpCap(c.Realm, c.Stage)
	out := PreviewResponse{Character: SnapshotOf(c)}

	target, ok := c.Tier().Next()
	switch {
	case c.Deceased:
		out.Reason = cultivation.ErrCharacterDeceased.Error()
		return out
	case !ok:
		out.Reason = cultivation.ErrTerminalTier.Error()
		return out
	}
	out.Target = &target
	odds := cultivation.ComposeBreakthroughOdds(c, c.ClosedDoorYearsTotal)
	out.Odds = &odds
	if !cultivation.CanAttemptBreakthrough(c.Progress) {
		err := &cultivation.InsufficientProgressError{
			ProgressPercent: cultivation.ExpProgress(c.Progress),
			RequiredPercent: cultivation.BreakthroughThresholdPercent,
			CultivationExp:  c.Progress.CultivationExp,
			ExpCap:          c.Progress.ExpCap,
		}
		out.Reason = err.Error()
		return out
	}
	out.CanAttempt = true
	return out
}
