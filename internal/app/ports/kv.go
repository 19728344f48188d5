package ports

import (
	"context"
	"time"
)

// KeyValueStore is the shared store behind the progression lock and the
// daily retreat quota. Every method is a single atomic step.
type KeyValueStore interface {
	// SetNX stores value under key only if key is absent. ttl <= 0 means no expiry.
	SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	// CompareAndDelete removes key only while it still holds value.
	CompareAndDelete(ctx context.Context, key, value string) (bool, error)
	// DecrementWithFloor initialises an absent key to initial, then subtracts
	// delta unless that would go below zero. It returns the resulting value
	// and whether the decrement happened.
	DecrementWithFloor(ctx context.Context, key string, initial, delta int64) (int64, bool, error)
	// IncrementWithCeiling adds delta to an existing key, never past ceiling.
	// An absent key is left absent and reported as ceiling.
	IncrementWithCeiling(ctx context.Context, key string, delta, ceiling int64) (int64, error)
}
