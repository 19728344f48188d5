package cultivation

import "time"

const (
	ExpPerYear = 10

	BreakthroughThresholdPercent = 60.0
	NormalBreakthroughPercent    = 80.0
	BottleneckPercent            = 90.0
	FullProgressPercent          = 100.0
	PerfectInsightThreshold      = 50

	MinInsight = 0
	MaxInsight = 100

	EpiphanyBaseChance   = 0.05
	EpiphanyWisdomFactor = 0.001
	EpiphanyMaxChance    = 0.5
	EpiphanyInsightGain  = 10
	EpiphanyBuffDuration = 72 * time.Hour

	InnerDemonThreshold  = 3
	InnerDemonMultiplier = 0.95

	FailureInsightLossMin = 10
	FailureInsightLossMax = 20

	MinBaseChance  = 0.05
	MaxBaseChance  = 0.95
	MaxFinalChance = 0.95

	AgePressurePenalty = -0.10
	AgePressureRatio   = 0.8

	SeclusionYearsCap = 50
)

type lossBand struct {
	Low  float64
	High float64
}

var expLossBands = map[BreakthroughType]lossBand{
	BreakthroughForced:  {Low: 0.50, High: 0.70},
	BreakthroughNormal:  {Low: 0.30, High: 0.50},
	BreakthroughPerfect: {Low: 0.20, High: 0.30},
}

var insightDeltaOnSuccess = map[BreakthroughType]int{
	BreakthroughPerfect: 15,
	BreakthroughNormal:  5,
	BreakthroughForced:  -10,
}

var growthScale = map[BreakthroughType]float64{
	BreakthroughPerfect: 1.2,
	BreakthroughNormal:  1.0,
	BreakthroughForced:  0.8,
}

// LifespanBonus is granted when a breakthrough enters the keyed realm.
var LifespanBonus = map[Realm]int{
	RealmFoundationEstablishment: 100,
	RealmGoldenCore:              250,
	RealmNascentSoul:             500,
	RealmSpiritSevering:          1_000,
	RealmVoidRefinement:          2_000,
	RealmBodyIntegration:         3_000,
	RealmMahayana:                5_000,
	RealmTribulation:             8_000,
}
