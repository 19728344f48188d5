package progression

import (
	"context"

	"xiuxian/internal/app/ports"
	"xiuxian/internal/domain/cultivation"
)

// Breakthrough rolls for the next tier using the closed-door years gathered
// since the previous breakthrough. A failed roll is still a committed action.
func (u UseCase) Breakthrough(ctx context.Context, req BreakthroughRequest) (out BreakthroughResponse, err error) {
	id, err := normalizeID(req.CharacterID)
	if err != nil {
		return BreakthroughResponse{}, err
	}

	ctx, span := u.start(ctx, "progression.breakthrough", id)
	outcome := "breakthrough_failed"
	defer func() { u.finish(ctx, span, "breakthrough", id, outcome, err) }()

	release, err := u.acquire(ctx, id)
	if err != nil {
		return BreakthroughResponse{}, err
	}
	defer release()

	now := u.now()
	rng := u.rng()
	var result cultivation.BreakthroughResult
	err = u.TxManager.RunInTx(ctx, func(txCtx context.Context) error {
		current, err := u.Chars.GetByCharacterID(txCtx, id)
		if err != nil {
			return err
		}
		result, err = u.Engine.AttemptBreakthrough(current, current.ClosedDoorYearsTotal, now, rng)
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
		if result.Record != nil {
			result.Record.ID = u.newID()
			if err := u.History.AppendBreakthrough(txCtx, *result.Record); err != nil {
				return err
			}
		}
		tagEvents(result.Events, id)
		return u.Events.Append(txCtx, id, result.Events)
	})
	if err != nil {
		return BreakthroughResponse{}, classify(err)
	}

	out = BreakthroughResponse{
		Success:   result.Summary.Success,
		Character: SnapshotOf(result.UpdatedCharacter),
		Summary:   result.Summary,
		Odds:      result.Odds,
	}
	if result.Record != nil {
		out.RecordID = result.Record.ID
	}
	if result.Summary.Success {
		outcome = "breakthrough_succeeded"
		out.Narrative = u.describe(ctx, result)
	}
	return out, nil
}

// describe never fails the action; narrative errors are logged and dropped.
func (u UseCase) describe(ctx context.Context, result cultivation.BreakthroughResult) string {
	if u.Narrative == nil {
		return ""
	}
	timeout := u.NarrativeTimeout
	if timeout <= 0 {
		timeout = defaultNarrativeTimeout
	}
	nctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	text, err := u.Narrative.DescribeBreakthrough(nctx, ports.NarrativeRequest{
		Character: result.UpdatedCharacter,
		Summary:   result.Summary,
	})
	if err != nil {
		u.logger().WarnContext(ctx, "breakthrough narrative unavailable",
			"character_id", result.UpdatedCharacter.CharacterID, "error", err)
		return ""
	}
	return text
}
