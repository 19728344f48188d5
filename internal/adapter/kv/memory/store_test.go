package kvmemory

import (
	"context"
	"testing"
	"time"
)

func TestSetNXHonoursTTL(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s := NewStore()
	s.Now = func() time.Time { return now }
	ctx := context.Background()

	ok, _ := s.SetNX(ctx, "lock:a", "t1", 30*time.Second)
	if !ok {
		t.Fatalf("first SetNX should succeed")
	}
	if ok, _ := s.SetNX(ctx, "lock:a", "t2", 30*time.Second); ok {
		t.Fatalf("second SetNX should fail while held")
	}
	now = now.Add(31 * time.Second)
	if ok, _ := s.SetNX(ctx, "lock:a", "t2", 30*time.Second); !ok {
		t.Fatalf("SetNX should succeed after expiry")
	}
}

func TestCompareAndDeleteOnlyOwner(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	_, _ = s.SetNX(ctx, "k", "owner", 0)
	if ok, _ := s.CompareAndDelete(ctx, "k", "intruder"); ok {
		t.Fatalf("foreign token must not delete")
	}
	if ok, _ := s.CompareAndDelete(ctx, "k", "owner"); !ok {
		t.Fatalf("owner should delete")
	}
	if ok, _ := s.CompareAndDelete(ctx, "k", "owner"); ok {
		t.Fatalf("second delete should be a no-op")
	}
}

func TestDecrementAndIncrementBounds(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	v, ok, _ := s.DecrementWithFloor(ctx, "q", 100, 60)
	if !ok || v != 40 {
		t.Fatalf("expected 40 ok, got %d %v", v, ok)
	}
	v, ok, _ = s.DecrementWithFloor(ctx, "q", 100, 60)
	if ok || v != 40 {
		t.Fatalf("expected refusal at 40, got %d %v", v, ok)
	}
	v, _ = s.IncrementWithCeiling(ctx, "q", 60, 100)
	if v != 100 {
		t.Fatalf("expected restore to 100, got %d", v)
	}
	v, _ = s.IncrementWithCeiling(ctx, "q", 60, 100)
	if v != 100 {
		t.Fatalf("ceiling must hold, got %d", v)
	}
	if v, _ := s.IncrementWithCeiling(ctx, "absent", 5, 100); v != 100 {
		t.Fatalf("absent key reports ceiling, got %d", v)
	}
}
