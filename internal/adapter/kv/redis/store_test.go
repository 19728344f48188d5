package kvredis

import (
	"context"
	"errors"
	"testing"
	"time"

	"xiuxian/internal/app/ports"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestStore(t *testing.T) (Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return New(client), mr
}

func TestSetNXAndExpiry(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()

	ok, err := s.SetNX(ctx, "lock:progression:c-1", "token-a", 30*time.Second)
	if err != nil || !ok {
		t.Fatalf("expected first SetNX to win, ok=%v err=%v", ok, err)
	}
	ok, err = s.SetNX(ctx, "lock:progression:c-1", "token-b", 30*time.Second)
	if err != nil || ok {
		t.Fatalf("expected second SetNX to lose, ok=%v err=%v", ok, err)
	}
	if ttl := mr.TTL("lock:progression:c-1"); ttl != 30*time.Second {
		t.Fatalf("expected 30s ttl, got %v", ttl)
	}
	mr.FastForward(31 * time.Second)
	ok, _ = s.SetNX(ctx, "lock:progression:c-1", "token-b", 30*time.Second)
	if !ok {
		t.Fatalf("expected SetNX to succeed after expiry")
	}
}

func TestCompareAndDelete(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()
	_, _ = s.SetNX(ctx, "k", "owner", time.Minute)

	if ok, err := s.CompareAndDelete(ctx, "k", "other"); err != nil || ok {
		t.Fatalf("foreign token deleted the key, ok=%v err=%v", ok, err)
	}
	if ok, err := s.CompareAndDelete(ctx, "k", "owner"); err != nil || !ok {
		t.Fatalf("owner could not delete, ok=%v err=%v", ok, err)
	}
	if mr.Exists("k") {
		t.Fatalf("key should be gone")
	}
}

func TestQuotaScripts(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()
	key := "quota:retreat_years:c-1:2026-03-01"

	v, ok, err := s.DecrementWithFloor(ctx, key, 100, 60)
	if err != nil || !ok || v != 40 {
		t.Fatalf("expected 40 ok, got %d %v %v", v, ok, err)
	}
	v, ok, err = s.DecrementWithFloor(ctx, key, 100, 60)
	if err != nil || ok || v != 40 {
		t.Fatalf("expected refusal at 40, got %d %v %v", v, ok, err)
	}
	got, _ := mr.Get(key)
	if got != "40" {
		t.Fatalf("stored remaining should be 40, got %q", got)
	}
	v, err = s.IncrementWithCeiling(ctx, key, 60, 100)
	if err != nil || v != 100 {
		t.Fatalf("expected restore to 100, got %d %v", v, err)
	}
	v, _ = s.IncrementWithCeiling(ctx, key, 60, 100)
	if v != 100 {
		t.Fatalf("ceiling must hold, got %d", v)
	}
	if mr.TTL(key) != 0 {
		t.Fatalf("quota keys carry no ttl")
	}
}

func TestUnavailableBackend(t *testing.T) {
	s, mr := newTestStore(t)
	mr.Close()
	_, err := s.SetNX(context.Background(), "k", "v", time.Second)
	if !errors.Is(err, ports.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}
