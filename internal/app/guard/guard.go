package guard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"xiuxian/internal/app/ports"

	"github.com/google/uuid"
)

const (
	DefaultLockTTL           = 30 * time.Second
	DefaultDailyRetreatYears = 100
	dayLayout                = "2006-01-02"
)

var (
	ErrQuotaExceeded  = errors.New("daily retreat quota exceeded")
	ErrInvalidRequest = errors.New("invalid guard request")
)

type QuotaExceededError struct {
	Requested int64
	Remaining int64
	Day       string
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("%s: requested %d years, %d remaining for %s", ErrQuotaExceeded, e.Requested, e.Remaining, e.Day)
}

func (e *QuotaExceededError) Unwrap() error {
	return ErrQuotaExceeded
}

// Lease proves ownership of a progression lock. Only the holder of the token
// can release it.
type Lease struct {
	CharacterID string
	Key         string
	Token       string
	ExpiresAt   time.Time
}

// QuotaResult doubles as the receipt for a later rollback.
type QuotaResult struct {
	CharacterID string `json:"character_id"`
	Allowed     bool   `json:"allowed"`
	Remaining   int64  `json:"remaining"`
	Consumed    int64  `json:"consumed"`
	Message     string `json:"message,omitempty"`
	Day         string `json:"day"`
}

func (r QuotaResult) Err() error {
	if r.Allowed {
		return nil
	}
	return &QuotaExceededError{Requested: r.Consumed, Remaining: r.Remaining, Day: r.Day}
}

type Guard struct {
	Store             ports.KeyValueStore
	LockTTL           time.Duration
	DailyRetreatYears int64
	Now               func() time.Time
	NewToken          func() string
	Logger            *slog.Logger
}

func LockKey(characterID string) string {
	return "lock:progression:" + characterID
}

func QuotaKey(characterID, day string) string {
	return "quota:retreat_years:" + characterID + ":" + day
}

func (g Guard) now() time.Time {
	if g.Now != nil {
		return g.Now()
	}
	return time.Now()
}

func (g Guard) logger() *slog.Logger {
	if g.Logger != nil {
		return g.Logger
	}
	return slog.Default()
}

func (g Guard) lockTTL() time.Duration {
	if g.LockTTL > 0 {
		return g.LockTTL
	}
	return DefaultLockTTL
}

func (g Guard) dailyLimit() int64 {
	if g.DailyRetreatYears > 0 {
		return g.DailyRetreatYears
	}
	return DefaultDailyRetreatYears
}

// AcquireLock makes one non-blocking attempt. false means another action is
// already in flight for the character; callers must not retry automatically.
func (g Guard) AcquireLock(ctx context.Context, characterID string) (Lease, bool, error) {
	characterID = strings.TrimSpace(characterID)
	if characterID == "" {
		return Lease{}, false, ErrInvalidRequest
	}
	token := ""
	if g.NewToken != nil {
		token = g.NewToken()
	} else {
		token = uuid.NewString()
	}
	key := LockKey(characterID)
	ttl := g.lockTTL()
	ok, err := g.Store.SetNX(ctx, key, token, ttl)
	if err != nil {
		return Lease{}, false, err
	}
	if !ok {
		return Lease{}, false, nil
	}
	return Lease{CharacterID: characterID, Key: key, Token: token, ExpiresAt: g.now().Add(ttl)}, true, nil
}

// ReleaseLock is idempotent. A lease that already expired, or was taken over
// after expiry, is left alone.
func (g Guard) ReleaseLock(ctx context.Context, lease Lease) error {
	if lease.Key == "" || lease.Token == "" {
		return nil
	}
	released, err := g.Store.CompareAndDelete(ctx, lease.Key, lease.Token)
	if err != nil {
		return err
	}
	if !released {
		g.logger().WarnContext(ctx, "progression lock was no longer held at release",
			"character_id", lease.CharacterID, "expires_at", lease.ExpiresAt)
	}
	return nil
}

// CheckAndConsumeQuota atomically spends years from today's (UTC) budget. A
// refusal is reported in the result, not as an error.
func (g Guard) CheckAndConsumeQuota(ctx context.Context, characterID string, years int) (QuotaResult, error) {
	characterID = strings.TrimSpace(characterID)
	if characterID == "" || years <= 0 {
		return QuotaResult{}, ErrInvalidRequest
	}
	day := g.now().UTC().Format(dayLayout)
	remaining, applied, err := g.Store.DecrementWithFloor(ctx, QuotaKey(characterID, day), g.dailyLimit(), int64(years))
	if err != nil {
		return QuotaResult{}, err
	}
	out := QuotaResult{
		CharacterID: characterID,
		Allowed:     applied,
		Remaining:   remaining,
		Consumed:    int64(years),
		Day:         day,
	}
	if !applied {
		out.Message = fmt.Sprintf("daily retreat budget exhausted: %d years requested, %d remaining today", years, remaining)
	}
	return out, nil
}

// RollbackQuota restores years to today's budget.
func (g Guard) RollbackQuota(ctx context.Context, characterID string, years int) (int64, error) {
	return g.RollbackConsumption(ctx, QuotaResult{
		CharacterID: characterID,
		Allowed:     true,
		Consumed:    int64(years),
		Day:         g.now().UTC().Format(dayLayout),
	})
}

// RollbackConsumption restores a prior consumption on the day it was taken.
// Restoring never exceeds the daily limit, so repeated rollbacks are safe.
func (g Guard) RollbackConsumption(ctx context.Context, receipt QuotaResult) (int64, error) {
	if !receipt.Allowed || receipt.Consumed <= 0 || receipt.CharacterID == "" || receipt.Day == "" {
		return receipt.Remaining, nil
	}
	return g.Store.IncrementWithCeiling(ctx, QuotaKey(receipt.CharacterID, receipt.Day), receipt.Consumed, g.dailyLimit())
}
