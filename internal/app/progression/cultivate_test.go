package progression

import (
	"context"
	"errors"
	"testing"
	"time"

	"xiuxian/internal/adapter/repo/memory"
	"xiuxian/internal/app/guard"
	"xiuxian/internal/app/ports"
	"xiuxian/internal/domain/cultivation"
)

func TestCultivate_CommitsAndChargesQuota(t *testing.T) {
	h := newHarness(t, seedCharacter(0, 0), 0.99)

	out, err := h.uc.Cultivate(context.Background(), CultivateRequest{CharacterID: "c-1", Years: 2})
	if err != nil {
		t.Fatalf("cultivate: %v", err)
	}
	if !out.Success || out.Character.CultivationExp != 40 || out.Character.Age != 18 {
		t.Fatalf("unexpected response: %+v", out)
	}
	if out.Quota.Remaining != 98 || out.RecordID != "rec-1" {
		t.Fatalf("unexpected quota or record: %+v %q", out.Quota, out.RecordID)
	}
	stored := h.character(t)
	if stored.Progress.CultivationExp != 40 || stored.Version != 2 || stored.ClosedDoorYearsTotal != 2 {
		t.Fatalf("unexpected stored state: %+v", stored)
	}
	recs, _ := memory.NewHistoryRepo(h.store).ListRetreats(context.Background(), "c-1", 0)
	if len(recs) != 1 || recs[0].ID != "rec-1" || recs[0].Years != 2 {
		t.Fatalf("unexpected retreat records: %+v", recs)
	}
	events, _ := memory.NewEventRepo(h.store).ListByCharacterID(context.Background(), "c-1", 0)
	if len(events) == 0 || events[len(events)-1].Payload["character_id"] != "c-1" {
		t.Fatalf("events should be tagged with the character: %+v", events)
	}
	if !h.lockFree(t) {
		t.Fatalf("lock should be released")
	}
	if s := h.metrics.Snapshot(); s.ByOutcome["cultivated"] != 1 {
		t.Fatalf("expected cultivated metric, got %+v", s)
	}
}

func TestCultivate_EpiphanyScenario(t *testing.T) {
	h := newHarness(t, seedCharacter(0, 0), 0.0)

	out, err := h.uc.Cultivate(context.Background(), CultivateRequest{CharacterID: "c-1", Years: 10})
	if err != nil {
		t.Fatalf("cultivate: %v", err)
	}
	if !out.Summary.EpiphanyTriggered || out.Summary.InsightGained != cultivation.EpiphanyInsightGain {
		t.Fatalf("expected epiphany, got %+v", out.Summary)
	}
	if out.Character.EpiphanyBuffUntil == nil || !out.Character.EpiphanyBuffUntil.Equal(testNow.Add(72*time.Hour)) {
		t.Fatalf("expected buff 72h ahead, got %v", out.Character.EpiphanyBuffUntil)
	}
}

func TestCultivate_QuotaExceededOnSecondCall(t *testing.T) {
	h := newHarness(t, seedCharacter(0, 0), 0.99)
	ctx := context.Background()

	if _, err := h.uc.Cultivate(ctx, CultivateRequest{CharacterID: "c-1", Years: 60}); err != nil {
		t.Fatalf("first cultivate: %v", err)
	}
	_, err := h.uc.Cultivate(ctx, CultivateRequest{CharacterID: "c-1", Years: 60})
	var qe *guard.QuotaExceededError
	if !errors.As(err, &qe) || qe.Remaining != 40 || qe.Requested != 60 {
		t.Fatalf("expected quota error with 40 remaining, got %v", err)
	}
	if h.character(t).Age != 76 {
		t.Fatalf("rejected call must not age the character")
	}
	if !h.lockFree(t) {
		t.Fatalf("lock should be released after rejection")
	}
	if s := h.metrics.Snapshot(); s.RejectedByReason["quota_exceeded"] != 1 {
		t.Fatalf("expected quota rejection metric, got %+v", s)
	}
}

func TestCultivate_LockHeldFailsFastWithoutSpendingQuota(t *testing.T) {
	h := newHarness(t, seedCharacter(0, 0), 0.99)
	_, _ = h.kv.SetNX(context.Background(), guard.LockKey("c-1"), "someone-else", time.Minute)

	_, err := h.uc.Cultivate(context.Background(), CultivateRequest{CharacterID: "c-1", Years: 5})
	if !errors.Is(err, ErrActionInProgress) {
		t.Fatalf("expected action in progress, got %v", err)
	}
	if got := h.remainingQuota(t); got != 100 {
		t.Fatalf("quota must be untouched, got %d", got)
	}
	if h.character(t).Version != 1 {
		t.Fatalf("state must be untouched")
	}
}

func TestCultivate_PersistenceFailureRollsBackQuotaAndLock(t *testing.T) {
	h := newHarness(t, seedCharacter(10, 0), 0.99)
	h.uc.Chars = failingChars{CharacterRepository: h.uc.Chars, err: errDiskFull}

	_, err := h.uc.Cultivate(context.Background(), CultivateRequest{CharacterID: "c-1", Years: 30})
	if !errors.Is(err, ErrPersistenceFailed) || !errors.Is(err, errDiskFull) {
		t.Fatalf("expected persistence failure, got %v", err)
	}
	if got := h.remainingQuota(t); got != 100 {
		t.Fatalf("quota should be refunded, got %d", got)
	}
	if !h.lockFree(t) {
		t.Fatalf("lock should be released")
	}
	if c := h.character(t); c.Progress.CultivationExp != 10 || c.Age != 16 {
		t.Fatalf("state should be unchanged: %+v", c)
	}
	if s := h.metrics.Snapshot(); s.ProgressionFailure != 1 {
		t.Fatalf("expected failure metric, got %+v", s)
	}
}

func TestCultivate_ConflictIsNotAPersistenceFailure(t *testing.T) {
	h := newHarness(t, seedCharacter(10, 0), 0.99)
	h.uc.Chars = failingChars{CharacterRepository: h.uc.Chars, err: ports.ErrConflict}

	_, err := h.uc.Cultivate(context.Background(), CultivateRequest{CharacterID: "c-1", Years: 3})
	if !errors.Is(err, ports.ErrConflict) || errors.Is(err, ErrPersistenceFailed) {
		t.Fatalf("expected bare conflict, got %v", err)
	}
	if got := h.remainingQuota(t); got != 100 {
		t.Fatalf("quota should be refunded after conflict, got %d", got)
	}
	if s := h.metrics.Snapshot(); s.ProgressionConflict != 1 {
		t.Fatalf("expected conflict metric, got %+v", s)
	}
}

func TestCultivate_LifespanExhaustionMarksDeceased(t *testing.T) {
	c := seedCharacter(0, 0)
	c.Age = 118
	h := newHarness(t, c, 0.99)
	ctx := context.Background()

	out, err := h.uc.Cultivate(ctx, CultivateRequest{CharacterID: "c-1", Years: 5})
	if err != nil {
		t.Fatalf("cultivate: %v", err)
	}
	if !out.Summary.LifespanExhausted || !out.Character.Deceased {
		t.Fatalf("expected lifespan exhaustion, got %+v", out)
	}
	rec, err := memory.NewLifecycleRepo(h.store).Get(ctx, "c-1")
	if err != nil || rec.Status != "deceased" || rec.Cause != "lifespan_exhausted" {
		t.Fatalf("expected lifecycle record, got %+v err=%v", rec, err)
	}

	_, err = h.uc.Cultivate(ctx, CultivateRequest{CharacterID: "c-1", Years: 5})
	if !errors.Is(err, cultivation.ErrCharacterDeceased) {
		t.Fatalf("expected deceased rejection, got %v", err)
	}
	if got := h.remainingQuota(t); got != 95 {
		t.Fatalf("rejected action should refund its years, got %d", got)
	}
}

func TestCultivate_InvalidInput(t *testing.T) {
	h := newHarness(t, seedCharacter(0, 0))
	if _, err := h.uc.Cultivate(context.Background(), CultivateRequest{CharacterID: "c-1", Years: 0}); !errors.Is(err, cultivation.ErrInvalidYears) {
		t.Fatalf("expected invalid years, got %v", err)
	}
	if _, err := h.uc.Cultivate(context.Background(), CultivateRequest{CharacterID: " ", Years: 1}); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected invalid request, got %v", err)
	}
	if _, err := h.uc.Cultivate(context.Background(), CultivateRequest{CharacterID: "ghost", Years: 1}); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
