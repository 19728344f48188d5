package progression

import (
	"time"

	"xiuxian/internal/app/guard"
	"xiuxian/internal/domain/cultivation"
)

// Snapshot is the public view of a character returned by every action.
type Snapshot struct {
	CharacterID          string                 `json:"character_id"`
	Name                 string                 `json:"name"`
	Realm                cultivation.Realm      `json:"realm"`
	Stage                cultivation.Stage      `json:"stage"`
	Age                  int                    `json:"age"`
	Lifespan             int                    `json:"lifespan"`
	Attributes           cultivation.Attributes `json:"attributes"`
	CultivationExp       int64                  `json:"cultivation_exp"`
	ExpCap               int64                  `json:"exp_cap"`
	ExpProgress          float64                `json:"exp_progress"`
	Insight              int                    `json:"comprehension_insight"`
	Condition            cultivation.Condition  `json:"condition"`
	BottleneckState      bool                   `json:"bottleneck_state"`
	InnerDemon           bool                   `json:"inner_demon"`
	BreakthroughFailures int                    `json:"breakthrough_failures"`
	EpiphanyBuffUntil    *time.Time             `json:"epiphany_buff_expires_at,omitempty"`
	ClosedDoorYears      int                    `json:"closed_door_years_total"`
	Deceased             bool                   `json:"deceased"`
	Version              int64                  `json:"version"`
}

func SnapshotOf(c cultivation.Character) Snapshot {
	return Snapshot{
		CharacterID:          c.CharacterID,
		Name:                 c.Name,
		Realm:                c.Realm,
		Stage:                c.Stage,
		Age:                  c.Age,
		Lifespan:             c.Lifespan,
		Attributes:           c.Attributes,
		CultivationExp:       c.Progress.CultivationExp,
		ExpCap:               c.Progress.ExpCap,
		ExpProgress:          cultivation.ExpProgress(c.Progress),
		Insight:              c.Progress.ComprehensionInsight,
		Condition:            c.Progress.Condition,
		BottleneckState:      c.Progress.Condition.Bottlenecked(),
		InnerDemon:           c.Progress.Condition.InnerDemon(),
		BreakthroughFailures: c.Progress.BreakthroughFailures,
		EpiphanyBuffUntil:    c.Progress.EpiphanyBuffExpiresAt,
		ClosedDoorYears:      c.ClosedDoorYearsTotal,
		Deceased:             c.Deceased,
		Version:              c.Version,
	}
}

type CultivateRequest struct {
	CharacterID string `json:"character_id"`
	Years       int    `json:"years"`
}

type CultivateResponse struct {
	Success   bool                           `json:"success"`
	Character Snapshot                       `json:"character"`
	Summary   cultivation.CultivationSummary `json:"summary"`
	Quota     guard.QuotaResult              `json:"quota"`
	RecordID  string                         `json:"record_id"`
}

type BreakthroughRequest struct {
	CharacterID string `json:"character_id"`
}

type BreakthroughResponse struct {
	Success   bool                            `json:"success"`
	Character Snapshot                        `json:"character"`
	Summary   cultivation.BreakthroughSummary `json:"summary"`
	Odds      cultivation.BreakthroughOdds    `json:"odds"`
	RecordID  string                          `json:"record_id,omitempty"`
	Narrative string                          `json:"narrative,omitempty"`
}

type PreviewResponse struct {
	Character  Snapshot                      `json:"character"`
	CanAttempt bool                          `json:"can_attempt"`
	Reason     string                        `json:"reason,omitempty"`
	Target     *cultivation.Tier             `json:"target,omitempty"`
	Odds       *cultivation.BreakthroughOdds `json:"odds,omitempty"`
}
