package cultivation

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrInvalidYears         = errors.New("years must be positive")
	ErrInsufficientProgress = errors.New("insufficient cultivation progress")
	ErrTerminalTier         = errors.New("no further advancement possible")
	ErrCharacterDeceased    = errors.New("character is deceased")
	ErrInvalidTier          = errors.New("invalid realm or stage")
)

// InsufficientProgressError carries how far the meter is from the breakthrough
// threshold.
type InsufficientProgressError struct {
	ProgressPercent float64
	RequiredPercent float64
	CultivationExp  int64
	ExpCap          int64
}

func (e *InsufficientProgressError) Error() string {
	return fmt.Sprintf("%s: %.1f%% of %.0f%% required", ErrInsufficientProgress.Error(), e.ProgressPercent, e.RequiredPercent)
}

func (e *InsufficientProgressError) Unwrap() error {
	return ErrInsufficientProgress
}

// ExpShortfall is the exp still needed to reach the threshold.
func (e *InsufficientProgressError) ExpShortfall() int64 {
	need := int64(math.Ceil(float64(e.ExpCap)*e.RequiredPercent/100)) - e.CultivationExp
	if need < 0 {
		return 0
	}
	return need
}
