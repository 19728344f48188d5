package cultivation

import "time"

// scriptedRand replays vals in order, wrapping around.
type scriptedRand struct {
	vals []float64
	i    int
}

func newScripted(vals ...float64) *scriptedRand {
	return &scriptedRand{vals: vals}
}

func (r *scriptedRand) Float64() float64 {
	if len(r.vals) == 0 {
		return 0
	}
	v := r.vals[r.i%len(r.vals)]
	r.i++
	return v
}

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func seedCharacter(exp int64, insight int) Character {
	return Character{
		CharacterID:    "c-1",
		Name:           "Han Li",
		SpiritualRoots: []SpiritualRoot{{Element: "wood", Strength: 50}, {Element: "fire", Strength: 20}},
		Realm:          RealmQiRefining,
		Stage:          StageEarly,
		Age:            16,
		Lifespan:       120,
		Progress: Progress{
			CultivationExp:       exp,
			ExpCap:               ExpCap(RealmQiRefining, StageEarly),
			ComprehensionInsight: insight,
		},
		Version: 1,
	}
}
