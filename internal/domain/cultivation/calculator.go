package cultivation

import (
	"math"
	"time"
)

type CultivationGain struct {
	ExpGained         int64 `json:"exp_gained"`
	EpiphanyTriggered bool  `json:"epiphany_triggered"`
	InsightGained     int   `json:"insight_gained"`
	BuffApplied       bool  `json:"buff_applied"`
}

// EpiphanyChance grows with wisdom.
func EpiphanyChance(wisdom int) float64 {
	if wisdom < 0 {
		wisdom = 0
	}
	return math.Min(EpiphanyBaseChance+float64(wisdom)*EpiphanyWisdomFactor, EpiphanyMaxChance)
}

// CalculateCultivationExp computes the raw exp a retreat of the given years
// yields. It draws exactly one value from rng. Capping against exp_cap and the
// epiphany side effects are applied by the engine.
func CalculateCultivationExp(c Character, years int, now time.Time, rng Rand) CultivationGain {
	if years <= 0 {
		return CultivationGain{}
	}
	rootFactor := 1 + float64(c.StrongestRoot())/50
	realmFactor := float64(int(c.Realm) + 1)
	gain := float64(years) * ExpPerYear * rootFactor * realmFactor
	if c.Progress.Condition.Bottlenecked() {
		gain *= 0.5
	}
	out := CultivationGain{}
	if c.Progress.EpiphanyActive(now) {
		gain *= 2
		out.BuffApplied = true
	}
	out.ExpGained = int64(math.Floor(gain))

	if rng.Float64() < EpiphanyChance(c.Attributes.Wisdom) {
		out.EpiphanyTriggered = true
		out.InsightGained = EpiphanyInsightGain
	}
	return out
}

// ExpProgress is cultivation_exp as a percentage of exp_cap, within [0,100].
func ExpProgress(p Progress) float64 {
	if p.ExpCap <= 0 {
		return 0
	}
	return clampFloat(float64(p.CultivationExp)/float64(p.ExpCap)*100, 0, 100)
}

func IsBottleneckReached(p Progress) bool {
	return ExpProgress(p) >= BottleneckPercent
}

func CanAttemptBreakthrough(p Progress) bool {
	return ExpProgress(p) >= BreakthroughThresholdPercent
}

// BreakthroughTypeFor classifies an attempt by meter fill. A full meter without
// enough insight falls back to normal. ok is false below the attempt threshold.
func BreakthroughTypeFor(p Progress) (BreakthroughType, bool) {
	pct := ExpProgress(p)
	switch {
	case pct >= FullProgressPercent && p.ComprehensionInsight >= PerfectInsightThreshold:
		return BreakthroughPerfect, true
	case pct >= NormalBreakthroughPercent:
		return BreakthroughNormal, true
	case pct >= BreakthroughThresholdPercent:
		return BreakthroughForced, true
	default:
		return "", false
	}
}

type ModifierKind string

const (
	ModifierBase       ModifierKind = "base"
	ModifierAdditive   ModifierKind = "additive"
	ModifierMultiplier ModifierKind = "multiplier"
	ModifierClamp      ModifierKind = "clamp"
)

// Modifier is one inspectable contribution to a breakthrough chance. Additive
// and clamp values are deltas; multiplier values are factors.
type Modifier struct {
	Name  string       `json:"name"`
	Kind  ModifierKind `json:"kind"`
	Value float64      `json:"value"`
}

type BreakthroughChance struct {
	Chance    float64    `json:"chance"`
	Modifiers []Modifier `json:"modifiers"`
}

// CalculateBreakthroughChance derives the base chance from the tier gap and the
// attribute profile. years is the closed-door time invested since the last
// breakthrough.
func CalculateBreakthroughChance(c Character, years int) BreakthroughChance {
	current := c.Tier()
	next, ok := current.Next()
	if !ok {
		return BreakthroughChance{}
	}

	mods := make([]Modifier, 0, 6)
	var base float64
	if current.CrossesRealm(next) {
		base = math.Max(0.50-0.04*float64(c.Realm), 0.10)
		mods = append(mods, Modifier{Name: "realm_crossing_base", Kind: ModifierBase, Value: base})
	} else {
		base = math.Max(0.80-0.05*float64(c.Realm), 0.30)
		mods = append(mods, Modifier{Name: "stage_base", Kind: ModifierBase, Value: base})
	}
	chance := base

	if c.Attributes.Willpower > 0 {
		v := math.Min(float64(c.Attributes.Willpower)/1000, 0.10)
		mods = append(mods, Modifier{Name: "willpower", Kind: ModifierAdditive, Value: v})
		chance += v
	}
	if c.Attributes.Spirit > 0 {
		v := math.Min(float64(c.Attributes.Spirit)/2000, 0.05)
		mods = append(mods, Modifier{Name: "spirit", Kind: ModifierAdditive, Value: v})
		chance += v
	}
	if years > 0 {
		v := float64(minInt(years, SeclusionYearsCap)) / 500
		mods = append(mods, Modifier{Name: "seclusion", Kind: ModifierAdditive, Value: v})
		chance += v
	}
	if c.Lifespan > 0 && float64(c.Age) > float64(c.Lifespan)*AgePressureRatio {
		mods = append(mods, Modifier{Name: "age_pressure", Kind: ModifierAdditive, Value: AgePressurePenalty})
		chance += AgePressurePenalty
	}

	if clamped := clampFloat(chance, MinBaseChance, MaxBaseChance); clamped != chance {
		mods = append(mods, Modifier{Name: "base_clamp", Kind: ModifierClamp, Value: clamped - chance})
		chance = clamped
	}
	return BreakthroughChance{Chance: chance, Modifiers: mods}
}

// ProgressMultiplier rewards a fuller meter.
func ProgressMultiplier(pct float64) float64 {
	switch {
	case pct < 70:
		return 0.5
	case pct < 80:
		return 0.75
	case pct < 90:
		return 0.95
	case pct < 100:
		return 1.05
	default:
		return 1.2
	}
}

func InsightMultiplier(insight int) float64 {
	return 1 + float64(clampInt(insight, MinInsight, MaxInsight))/150
}

type BreakthroughOdds struct {
	Type                 BreakthroughType `json:"breakthrough_type"`
	ExpProgress          float64          `json:"exp_progress"`
	Insight              int              `json:"insight"`
	BaseChance           float64          `json:"base_chance"`
	ProgressMultiplier   float64          `json:"progress_multiplier"`
	InsightMultiplier    float64          `json:"insight_multiplier"`
	InnerDemonMultiplier float64          `json:"inner_demon_multiplier"`
	FinalChance          float64          `json:"final_chance"`
	Modifiers            []Modifier       `json:"modifiers"`
}

// ComposeBreakthroughOdds is the full probability used by AttemptBreakthrough,
// with every factor itemized in Modifiers.
func ComposeBreakthroughOdds(c Character, years int) BreakthroughOdds {
	p := c.Progress
	pct := ExpProgress(p)
	kind, _ := BreakthroughTypeFor(p)
	base := CalculateBreakthroughChance(c, years)

	odds := BreakthroughOdds{
		Type:                 kind,
		ExpProgress:          pct,
		Insight:              p.ComprehensionInsight,
		BaseChance:           base.Chance,
		ProgressMultiplier:   ProgressMultiplier(pct),
		InsightMultiplier:    InsightMultiplier(p.ComprehensionInsight),
		InnerDemonMultiplier: 1.0,
	}
	if p.Condition.InnerDemon() {
		odds.InnerDemonMultiplier = InnerDemonMultiplier
	}

	mods := append([]Modifier(nil), base.Modifiers...)
	mods = append(mods,
		Modifier{Name: "exp_progress", Kind: ModifierMultiplier, Value: odds.ProgressMultiplier},
		Modifier{Name: "insight", Kind: ModifierMultiplier, Value: odds.InsightMultiplier},
	)
	if odds.InnerDemonMultiplier != 1.0 {
		mods = append(mods, Modifier{Name: "inner_demon", Kind: ModifierMultiplier, Value: odds.InnerDemonMultiplier})
	}

	final := base.Chance * odds.ProgressMultiplier * odds.InsightMultiplier * odds.InnerDemonMultiplier
	if clamped := clampFloat(final, 0, MaxFinalChance); clamped != final {
		mods = append(mods, Modifier{Name: "final_clamp", Kind: ModifierClamp, Value: clamped - final})
		final = clamped
	}
	odds.FinalChance = final
	odds.Modifiers = mods
	return odds
}

// CalculateExpLossOnFailure draws one value from rng and returns the exp lost by
// a failed attempt: a share of exp_cap inside the band of the attempt's type,
// pushed toward the low end by insight, never more than the exp held.
func CalculateExpLossOnFailure(p Progress, rng Rand) int64 {
	kind, ok := BreakthroughTypeFor(p)
	if !ok {
		kind = BreakthroughForced
	}
	band := expLossBands[kind]
	roll := rng.Float64()
	insight := float64(clampInt(p.ComprehensionInsight, MinInsight, MaxInsight))
	t := (roll + 1) / 2 * (1 - insight/101)
	loss := int64(math.Floor(float64(p.ExpCap) * (band.Low + (band.High-band.Low)*t)))
	if loss > p.CultivationExp {
		loss = p.CultivationExp
	}
	if loss < 0 {
		loss = 0
	}
	return loss
}

// GrowthRange is the per-attribute gain range of a successful breakthrough.
func GrowthRange(wisdom int, majorRealm bool) (int, int) {
	bonus := 0
	if wisdom > 0 {
		bonus = wisdom / 25
	}
	if majorRealm {
		return 5, 10 + bonus
	}
	return 1, 3 + bonus
}

func rollGrowth(rng Rand, lo, hi int, kind BreakthroughType) Attributes {
	scale, ok := growthScale[kind]
	if !ok {
		scale = 1
	}
	draw := func() int {
		return int(math.Round(float64(intBetween(rng, lo, hi)) * scale))
	}
	return Attributes{
		Vitality:  draw(),
		Spirit:    draw(),
		Wisdom:    draw(),
		Speed:     draw(),
		Willpower: draw(),
	}
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
