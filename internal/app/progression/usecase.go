package progression

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"

	"xiuxian/internal/app/guard"
	"xiuxian/internal/app/ports"
	"xiuxian/internal/domain/cultivation"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const defaultNarrativeTimeout = 3 * time.Second

type UseCase struct {
	TxManager        ports.TxManager
	Chars            ports.CharacterRepository
	History          ports.HistoryRepository
	Events           ports.EventRepository
	Lifecycle        ports.CharacterLifecycleRepository
	Guard            guard.Guard
	Narrative        ports.NarrativeGenerator
	NarrativeTimeout time.Duration
	Metrics          ports.ProgressionMetrics
	Engine           cultivation.Engine
	// NewRand supplies the random source for one action.
	NewRand func() cultivation.Rand
	Now     func() time.Time
	NewID   func() string
	Logger  *slog.Logger
	Tracer  trace.Tracer
}

type globalRand struct{}

func (globalRand) Float64() float64 { return rand.Float64() }

func (u UseCase) rng() cultivation.Rand {
	if u.NewRand != nil {
		return u.NewRand()
	}
	return globalRand{}
}

func (u UseCase) now() time.Time {
	if u.Now != nil {
		return u.Now()
	}
	return time.Now()
}

func (u UseCase) newID() string {
	if u.NewID != nil {
		return u.NewID()
	}
	return uuid.NewString()
}

func (u UseCase) logger() *slog.Logger {
	if u.Logger != nil {
		return u.Logger
	}
	return slog.Default()
}

func (u UseCase) start(ctx context.Context, name, characterID string) (context.Context, trace.Span) {
	tracer := u.Tracer
	if tracer == nil {
		tracer = otel.Tracer("xiuxian/internal/app/progression")
	}
	return tracer.Start(ctx, name, trace.WithAttributes(attribute.String("character.id", characterID)))
}

// acquire takes the per-character lock and returns its release func.
func (u UseCase) acquire(ctx context.Context, characterID string) (func(), error) {
	lease, ok, err := u.Guard.AcquireLock(ctx, characterID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrActionInProgress
	}
	return func() {
		// Release must survive a cancelled request.
		if err := u.Guard.ReleaseLock(context.WithoutCancel(ctx), lease); err != nil {
			u.logger().ErrorContext(ctx, "release progression lock", "character_id", characterID, "error", err)
		}
	}, nil
}

// finish records the outcome on the span, the metrics and the log.
func (u UseCase) finish(ctx context.Context, span trace.Span, action, characterID, outcome string, err error) {
	defer span.End()
	if err == nil {
		span.SetAttributes(attribute.String("progression.outcome", outcome))
		if u.Metrics != nil {
			u.Metrics.RecordSuccess(outcome)
		}
		u.logger().InfoContext(ctx, "progression action completed",
			"action", action, "character_id", characterID, "outcome", outcome)
		return
	}

	span.RecordError(err)
	reason := rejectionReason(err)
	switch {
	case reason != "":
		span.SetAttributes(attribute.String("progression.rejected", reason))
		if u.Metrics != nil {
			u.Metrics.RecordRejected(reason)
		}
		u.logger().InfoContext(ctx, "progression action rejected",
			"action", action, "character_id", characterID, "reason", reason, "error", err)
	case errors.Is(err, ports.ErrConflict):
		span.SetStatus(codes.Error, "version conflict")
		if u.Metrics != nil {
			u.Metrics.RecordConflict()
		}
		u.logger().WarnContext(ctx, "progression action conflicted",
			"action", action, "character_id", characterID, "error", err)
	default:
		span.SetStatus(codes.Error, err.Error())
		if u.Metrics != nil {
			u.Metrics.RecordFailure()
		}
		u.logger().ErrorContext(ctx, "progression action failed",
			"action", action, "character_id", characterID, "error", err)
	}
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, ErrInvalidRequest), errors.Is(err, guard.ErrInvalidRequest):
		return "invalid_request"
	case errors.Is(err, ErrActionInProgress):
		return "action_in_progress"
	case errors.Is(err, guard.ErrQuotaExceeded):
		return "quota_exceeded"
	case errors.Is(err, ports.ErrNotFound):
		return "not_found"
	case isPrecondition(err):
		return "precondition"
	default:
		return ""
	}
}

func tagEvents(events []cultivation.DomainEvent, characterID string) {
	for i := range events {
		if events[i].Payload == nil {
			events[i].Payload = map[string]any{}
		}
		events[i].Payload["character_id"] = characterID
	}
}

// markDeceased records the end of a character whose lifespan ran out during
// the action. It runs inside the action's transaction.
func (u UseCase) markDeceased(ctx context.Context, c *cultivation.Character, now time.Time) error {
	c.Deceased = true
	if u.Lifecycle == nil {
		return nil
	}
	return u.Lifecycle.MarkDeceased(ctx, ports.LifecycleRecord{
		CharacterID: c.CharacterID,
		Cause:       "lifespan_exhausted",
		Age:         c.Age,
		Lifespan:    c.Lifespan,
		EndedAt:     &now,
	})
}

func normalizeID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", ErrInvalidRequest
	}
	return id, nil
}
