package cultivation

import (
	"encoding/json"
	"fmt"
)

type Realm int

const (
	RealmQiRefining Realm = iota
	RealmFoundationEstablishment
	RealmGoldenCore
	RealmNascentSoul
	RealmSpiritSevering
	RealmVoidRefinement
	RealmBodyIntegration
	RealmMahayana
	RealmTribulation
)

var realmNames = []string{
	"qi_refining",
	"foundation_establishment",
	"golden_core",
	"nascent_soul",
	"spirit_severing",
	"void_refinement",
	"body_integration",
	"mahayana",
	"tribulation",
}

// realmExpBase is the exp cap of each realm's early stage. Each base is larger than
// the previous realm's peak cap so ExpCap is strictly increasing across tiers.
var realmExpBase = []int64{100, 500, 2_000, 8_000, 30_000, 100_000, 350_000, 1_200_000, 4_000_000}

func (r Realm) Valid() bool {
	return r >= RealmQiRefining && r <= RealmTribulation
}

func (r Realm) String() string {
	if !r.Valid() {
		return fmt.Sprintf("realm(%d)", int(r))
	}
	return realmNames[r]
}

func ParseRealm(s string) (Realm, error) {
	for i, name := range realmNames {
		if name == s {
			return Realm(i), nil
		}
	}
	return 0, fmt.Errorf("unknown realm %q", s)
}

func (r Realm) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}

func (r *Realm) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseRealm(s)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

type Stage int

const (
	StageEarly Stage = iota + 1
	StageMiddle
	StageLate
	StagePeak
)

var stageExpFactor = map[Stage]float64{
	StageEarly:  1,
	StageMiddle: 1.5,
	StageLate:   2,
	StagePeak:   3,
}

func (s Stage) Valid() bool {
	return s >= StageEarly && s <= StagePeak
}

func (s Stage) String() string {
	switch s {
	case StageEarly:
		return "early"
	case StageMiddle:
		return "middle"
	case StageLate:
		return "late"
	case StagePeak:
		return "peak"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

func ParseStage(s string) (Stage, error) {
	for st := StageEarly; st <= StagePeak; st++ {
		if st.String() == s {
			return st, nil
		}
	}
	return 0, fmt.Errorf("unknown stage %q", s)
}

func (s Stage) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Stage) UnmarshalJSON(b []byte) error {
	var name string
	if err := json.Unmarshal(b, &name); err != nil {
		return err
	}
	parsed, err := ParseStage(name)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Tier is a position in the ordered realm/stage sequence.
type Tier struct {
	Realm Realm `json:"realm"`
	Stage Stage `json:"stage"`
}

func (t Tier) Valid() bool {
	return t.Realm.Valid() && t.Stage.Valid()
}

func (t Tier) String() string {
	return t.Realm.String() + "/" + t.Stage.String()
}

// Index is the zero-based position of t in the full tier sequence.
func (t Tier) Index() int {
	return int(t.Realm)*int(StagePeak) + int(t.Stage) - 1
}

func (t Tier) IsTerminal() bool {
	return t.Realm == RealmTribulation && t.Stage == StagePeak
}

// Next returns the tier a successful breakthrough leads to. ok is false at the
// terminal tier.
func (t Tier) Next() (Tier, bool) {
	if !t.Valid() || t.IsTerminal() {
		return Tier{}, false
	}
	if t.Stage < StagePeak {
		return Tier{Realm: t.Realm, Stage: t.Stage + 1}, true
	}
	return Tier{Realm: t.Realm + 1, Stage: StageEarly}, true
}

// CrossesRealm reports whether moving from t to next enters a new major realm.
func (t Tier) CrossesRealm(next Tier) bool {
	return next.Realm > t.Realm
}

// ExpCap is the exp required to fill the meter at realm/stage. It returns 0 for
// tiers outside the sequence.
func ExpCap(realm Realm, stage Stage) int64 {
	if !realm.Valid() || !stage.Valid() {
		return 0
	}
	return int64(float64(realmExpBase[realm]) * stageExpFactor[stage])
}
