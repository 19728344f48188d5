package ports

import (
	"context"

	"xiuxian/internal/domain/cultivation"
)

type NarrativeRequest struct {
	Character cultivation.Character
	Summary   cultivation.BreakthroughSummary
}

// NarrativeGenerator turns a breakthrough outcome into flavour text. Callers
// treat every error as non-fatal.
type NarrativeGenerator interface {
	DescribeBreakthrough(ctx context.Context, req NarrativeRequest) (string, error)
}
