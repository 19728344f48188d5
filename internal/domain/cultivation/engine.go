package cultivation

import "time"

// Engine runs a single progression action against an owned copy of a character.
// It performs no I/O; persistence is the caller's concern.
type Engine struct{}

type CultivationSummary struct {
	Years                 int        `json:"years"`
	ExpBefore             int64      `json:"exp_before"`
	ExpAfter              int64      `json:"exp_after"`
	ExpGained             int64      `json:"exp_gained"`
	ExpCap                int64      `json:"exp_cap"`
	ExpProgress           float64    `json:"exp_progress"`
	InsightGained         int        `json:"insight_gained"`
	EpiphanyTriggered     bool       `json:"epiphany_triggered"`
	EpiphanyBuffApplied   bool       `json:"epiphany_buff_applied"`
	EpiphanyBuffExpiresAt *time.Time `json:"epiphany_buff_expires_at,omitempty"`
	BottleneckEntered     bool       `json:"bottleneck_entered"`
	Condition             Condition  `json:"condition"`
	AgeAfter              int        `json:"age_after"`
	LifespanExhausted     bool       `json:"lifespan_exhausted"`
}

type CultivationResult struct {
	UpdatedCharacter Character          `json:"updated_character"`
	Summary          CultivationSummary `json:"summary"`
	Record           RetreatRecord      `json:"record"`
	Events           []DomainEvent      `json:"events"`
}

type BreakthroughSummary struct {
	Success              bool             `json:"success"`
	Type                 BreakthroughType `json:"breakthrough_type"`
	Roll                 float64          `json:"roll"`
	FinalChance          float64          `json:"final_chance"`
	From                 Tier             `json:"from"`
	To                   Tier             `json:"to"`
	MajorRealmCrossed    bool             `json:"major_realm_crossed"`
	ExpBefore            int64            `json:"exp_before"`
	ExpAfter             int64            `json:"exp_after"`
	ExpLost              int64            `json:"exp_lost"`
	ExpCap               int64            `json:"exp_cap"`
	InsightBefore        int              `json:"insight_before"`
	InsightAfter         int              `json:"insight_after"`
	InsightPenalty       int              `json:"insight_penalty,omitempty"`
	AttributeGrowth      Attributes       `json:"attribute_growth"`
	LifespanBonus        int              `json:"lifespan_bonus"`
	BreakthroughFailures int              `json:"breakthrough_failures"`
	InnerDemonTriggered  bool             `json:"inner_demon_triggered"`
	Condition            Condition        `json:"condition"`
	LifespanExhausted    bool             `json:"lifespan_exhausted"`
}

type BreakthroughResult struct {
	UpdatedCharacter Character           `json:"updated_character"`
	Summary          BreakthroughSummary `json:"summary"`
	Odds             BreakthroughOdds    `json:"odds"`
	Record           *BreakthroughRecord `json:"record,omitempty"`
	Events           []DomainEvent       `json:"events"`
}

// normalize fixes exp_cap from the tier, keeps exp within [0, cap] and latches
// the bottleneck for a meter already past it.
func normalize(c *Character) error {
	limit := ExpCap(c.Realm, c.Stage)
	if limit <= 0 {
		return ErrInvalidTier
	}
	c.Progress.ExpCap = limit
	if c.Progress.CultivationExp < 0 {
		c.Progress.CultivationExp = 0
	}
	if c.Progress.CultivationExp > limit {
		c.Progress.CultivationExp = limit
	}
	c.Progress.ComprehensionInsight = clampInt(c.Progress.ComprehensionInsight, MinInsight, MaxInsight)
	if c.Progress.BreakthroughFailures < 0 {
		c.Progress.BreakthroughFailures = 0
	}
	// Exp can reach the bottleneck outside of cultivation, e.g. a ledger credit.
	if IsBottleneckReached(c.Progress) {
		c.Progress.Condition = c.Progress.Condition.EnterBottleneck()
	}
	return nil
}

func (Engine) PerformCultivation(state Character, years int, now time.Time, rng Rand) (CultivationResult, error) {
	if years <= 0 {
		return CultivationResult{}, ErrInvalidYears
	}
	if state.Deceased {
		return CultivationResult{}, ErrCharacterDeceased
	}
	next := state.Clone()
	if err := normalize(&next); err != nil {
		return CultivationResult{}, err
	}
	expBefore := next.Progress.CultivationExp
	insightBefore := next.Progress.ComprehensionInsight

	gain := CalculateCultivationExp(next, years, now, rng)

	summary := CultivationSummary{
		Years:               years,
		ExpBefore:           expBefore,
		ExpCap:              next.Progress.ExpCap,
		EpiphanyTriggered:   gain.EpiphanyTriggered,
		EpiphanyBuffApplied: gain.BuffApplied,
	}
	events := make([]DomainEvent, 0, 4)

	if gain.EpiphanyTriggered {
		next.Progress.ComprehensionInsight = clampInt(insightBefore+gain.InsightGained, MinInsight, MaxInsight)
		expiresAt := now.Add(EpiphanyBuffDuration)
		next.Progress.EpiphanyBuffExpiresAt = &expiresAt
		summary.EpiphanyBuffExpiresAt = &expiresAt
		events = append(events, DomainEvent{
			Type:       "epiphany_triggered",
			OccurredAt: now,
			Payload: map[string]any{
				"insight_gained":  next.Progress.ComprehensionInsight - insightBefore,
				"buff_expires_at": expiresAt,
			},
		})
	}

	exp := expBefore + gain.ExpGained
	if exp > next.Progress.ExpCap {
		exp = next.Progress.ExpCap
	}
	next.Progress.CultivationExp = exp

	if !next.Progress.Condition.Bottlenecked() && IsBottleneckReached(next.Progress) {
		next.Progress.Condition = next.Progress.Condition.EnterBottleneck()
		summary.BottleneckEntered = true
		events = append(events, DomainEvent{
			Type:       "bottleneck_entered",
			OccurredAt: now,
			Payload: map[string]any{
				"exp_progress": ExpProgress(next.Progress),
			},
		})
	}

	next.Age += years
	next.ClosedDoorYearsTotal += years
	next.UpdatedAt = now
	next.Version++

	summary.ExpAfter = next.Progress.CultivationExp
	summary.ExpGained = summary.ExpAfter - expBefore
	summary.ExpProgress = ExpProgress(next.Progress)
	summary.InsightGained = next.Progress.ComprehensionInsight - insightBefore
	summary.Condition = next.Progress.Condition
	summary.AgeAfter = next.Age
	summary.LifespanExhausted = next.LifespanExhausted()

	events = append([]DomainEvent{{
		Type:       "cultivation_completed",
		OccurredAt: now,
		Payload: map[string]any{
			"years":          years,
			"exp_before":     expBefore,
			"exp_after":      summary.ExpAfter,
			"insight_gained": summary.InsightGained,
			"age_after":      next.Age,
		},
	}}, events...)
	if summary.LifespanExhausted {
		events = append(events, lifespanExhaustedEvent(next, now))
	}

	return CultivationResult{
		UpdatedCharacter: next,
		Summary:          summary,
		Record: RetreatRecord{
			CharacterID:       next.CharacterID,
			Realm:             state.Realm,
			Stage:             state.Stage,
			Years:             years,
			ExpBefore:         expBefore,
			ExpAfter:          summary.ExpAfter,
			InsightGained:     summary.InsightGained,
			EpiphanyTriggered: gain.EpiphanyTriggered,
			CreatedAt:         now,
		},
		Events: events,
	}, nil
}

// AttemptBreakthrough resolves one breakthrough roll. years is the closed-door
// time invested since the previous breakthrough.
func (Engine) AttemptBreakthrough(state Character, years int, now time.Time, rng Rand) (BreakthroughResult, error) {
	if state.Deceased {
		return BreakthroughResult{}, ErrCharacterDeceased
	}
	next := state.Clone()
	if err := normalize(&next); err != nil {
		return BreakthroughResult{}, err
	}
	from := next.Tier()
	target, ok := from.Next()
	if !ok {
		return BreakthroughResult{}, ErrTerminalTier
	}
	if !CanAttemptBreakthrough(next.Progress) {
		return BreakthroughResult{}, &InsufficientProgressError{
			ProgressPercent: ExpProgress(next.Progress),
			RequiredPercent: BreakthroughThresholdPercent,
			CultivationExp:  next.Progress.CultivationExp,
			ExpCap:          next.Progress.ExpCap,
		}
	}
	if years < 0 {
		years = 0
	}

	odds := ComposeBreakthroughOdds(next, years)
	roll := rng.Float64()
	success := roll <= odds.FinalChance

	summary := BreakthroughSummary{
		Success:       success,
		Type:          odds.Type,
		Roll:          roll,
		FinalChance:   odds.FinalChance,
		From:          from,
		To:            from,
		ExpBefore:     next.Progress.CultivationExp,
		InsightBefore: next.Progress.ComprehensionInsight,
	}
	result := BreakthroughResult{Odds: odds}
	events := make([]DomainEvent, 0, 3)

	if success {
		major := from.CrossesRealm(target)
		lo, hi := GrowthRange(next.Attributes.Wisdom, major)
		growth := rollGrowth(rng, lo, hi, odds.Type)
		next.Attributes = next.Attributes.Add(growth)
		next.Realm, next.Stage = target.Realm, target.Stage
		if major {
			summary.LifespanBonus = LifespanBonus[target.Realm]
			next.Lifespan += summary.LifespanBonus
		}
		next.Progress.CultivationExp = 0
		next.Progress.ExpCap = ExpCap(target.Realm, target.Stage)
		next.Progress.BreakthroughFailures = 0
		next.Progress.Condition = next.Progress.Condition.AfterBreakthrough()
		next.Progress.ComprehensionInsight = clampInt(next.Progress.ComprehensionInsight+insightDeltaOnSuccess[odds.Type], MinInsight, MaxInsight)

		result.Record = &BreakthroughRecord{
			CharacterID:      next.CharacterID,
			FromRealm:        from.Realm,
			FromStage:        from.Stage,
			ToRealm:          target.Realm,
			ToStage:          target.Stage,
			Age:              next.Age,
			YearsSpent:       years,
			ExpProgress:      odds.ExpProgress,
			InsightAtAttempt: odds.Insight,
			Type:             odds.Type,
			CreatedAt:        now,
		}
		next.ClosedDoorYearsTotal = 0

		summary.To = target
		summary.MajorRealmCrossed = major
		summary.AttributeGrowth = growth
		events = append(events, DomainEvent{
			Type:       "breakthrough_succeeded",
			OccurredAt: now,
			Payload: map[string]any{
				"from":              from.String(),
				"to":                target.String(),
				"breakthrough_type": string(odds.Type),
				"roll":              roll,
				"final_chance":      odds.FinalChance,
				"major_realm":       major,
				"lifespan_bonus":    summary.LifespanBonus,
			},
		})
	} else {
		loss := CalculateExpLossOnFailure(next.Progress, rng)
		next.Progress.CultivationExp -= loss
		if next.Progress.CultivationExp < 0 {
			next.Progress.CultivationExp = 0
		}
		summary.InsightPenalty = intBetween(rng, FailureInsightLossMin, FailureInsightLossMax)
		next.Progress.ComprehensionInsight = clampInt(next.Progress.ComprehensionInsight-summary.InsightPenalty, MinInsight, MaxInsight)
		next.Progress.BreakthroughFailures++
		if next.Progress.BreakthroughFailures >= InnerDemonThreshold && !next.Progress.Condition.InnerDemon() {
			next.Progress.Condition = next.Progress.Condition.EnterInnerDemon()
			summary.InnerDemonTriggered = true
		}

		summary.ExpLost = summary.ExpBefore - next.Progress.CultivationExp
		events = append(events, DomainEvent{
			Type:       "breakthrough_failed",
			OccurredAt: now,
			Payload: map[string]any{
				"tier":              from.String(),
				"breakthrough_type": string(odds.Type),
				"roll":              roll,
				"final_chance":      odds.FinalChance,
				"exp_lost":          summary.ExpLost,
				"insight_penalty":   summary.InsightPenalty,
				"failures":          next.Progress.BreakthroughFailures,
			},
		})
		if summary.InnerDemonTriggered {
			events = append(events, DomainEvent{
				Type:       "inner_demon_triggered",
				OccurredAt: now,
				Payload: map[string]any{
					"failures": next.Progress.BreakthroughFailures,
				},
			})
		}
	}

	next.UpdatedAt = now
	next.Version++

	summary.ExpAfter = next.Progress.CultivationExp
	summary.ExpCap = next.Progress.ExpCap
	summary.InsightAfter = next.Progress.ComprehensionInsight
	summary.BreakthroughFailures = next.Progress.BreakthroughFailures
	summary.Condition = next.Progress.Condition
	summary.LifespanExhausted = !success && next.LifespanExhausted()
	if summary.LifespanExhausted {
		events = append(events, lifespanExhaustedEvent(next, now))
	}

	result.UpdatedCharacter = next
	result.Summary = summary
	result.Events = events
	return result, nil
}

func lifespanExhaustedEvent(c Character, now time.Time) DomainEvent {
	return DomainEvent{
		Type:       "lifespan_exhausted",
		OccurredAt: now,
		Payload: map[string]any{
			"age":      c.Age,
			"lifespan": c.Lifespan,
		},
	}
}
