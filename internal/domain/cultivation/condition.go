package cultivation

import "encoding/json"

// Condition is the combined bottleneck / inner demon state of a cultivator.
// Both flags are sticky: they are only entered by the transitions below and only
// left together on a successful breakthrough.
type Condition uint8

const (
	ConditionStable Condition = iota
	ConditionBottlenecked
	ConditionInnerDemon
	ConditionBottleneckedInnerDemon
)

func ConditionFromFlags(bottleneck, innerDemon bool) Condition {
	switch {
	case bottleneck && innerDemon:
		return ConditionBottleneckedInnerDemon
	case bottleneck:
		return ConditionBottlenecked
	case innerDemon:
		return ConditionInnerDemon
	default:
		return ConditionStable
	}
}

func (c Condition) Bottlenecked() bool {
	return c == ConditionBottlenecked || c == ConditionBottleneckedInnerDemon
}

func (c Condition) InnerDemon() bool {
	return c == ConditionInnerDemon || c == ConditionBottleneckedInnerDemon
}

func (c Condition) EnterBottleneck() Condition {
	return ConditionFromFlags(true, c.InnerDemon())
}

func (c Condition) EnterInnerDemon() Condition {
	return ConditionFromFlags(c.Bottlenecked(), true)
}

// AfterBreakthrough is the condition following a successful breakthrough.
func (c Condition) AfterBreakthrough() Condition {
	return ConditionStable
}

func (c Condition) String() string {
	switch c {
	case ConditionStable:
		return "stable"
	case ConditionBottlenecked:
		return "bottlenecked"
	case ConditionInnerDemon:
		return "inner_demon"
	case ConditionBottleneckedInnerDemon:
		return "bottlenecked_inner_demon"
	default:
		return "unknown"
	}
}

func (c Condition) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

func (c *Condition) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	switch s {
	case "bottlenecked":
		*c = ConditionBottlenecked
	case "inner_demon":
		*c = ConditionInnerDemon
	case "bottlenecked_inner_demon":
		*c = ConditionBottleneckedInnerDemon
	default:
		*c = ConditionStable
	}
	return nil
}
