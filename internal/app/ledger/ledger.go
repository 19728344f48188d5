package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"xiuxian/internal/app/ports"
	"xiuxian/internal/domain/cultivation"
	"xiuxian/internal/domain/resource"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	ErrInvalidRequest    = errors.New("invalid ledger request")
	ErrTransactionFailed = errors.New("ledger transaction failed")
)

// TransactionError wraps whatever aborted a mutating call. Nothing from that
// call was persisted.
type TransactionError struct {
	Step string
	Err  error
}

func (e *TransactionError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrTransactionFailed, e.Step, e.Err)
}

func (e *TransactionError) Unwrap() []error {
	return []error{ErrTransactionFailed, e.Err}
}

// Action runs inside the same atomic scope as the mutation, after the new
// state is written. Returning an error rolls the whole call back.
type Action func(ctx context.Context, updated cultivation.Character) error

type ValidationResult struct {
	Valid   bool                      `json:"valid"`
	Missing []resource.Shortfall      `json:"missing,omitempty"`
	Errors  []resource.OperationError `json:"errors,omitempty"`
}

type OperationResult struct {
	Success   bool                      `json:"success"`
	DryRun    bool                      `json:"dry_run"`
	Errors    []resource.OperationError `json:"errors,omitempty"`
	Missing   []resource.Shortfall      `json:"missing,omitempty"`
	Character *cultivation.Character    `json:"character,omitempty"`
}

type Request struct {
	CharacterID string
	Costs       []resource.Operation
	Gains       []resource.Operation
	DryRun      bool
	Reason      string
	Action      Action
}

type Ledger struct {
	TxManager ports.TxManager
	Chars     ports.CharacterRepository
	Events    ports.EventRepository
	Now       func() time.Time
	NewID     func() string
	Logger    *slog.Logger
	Tracer    trace.Tracer
}

func (l Ledger) now() time.Time {
	if l.Now != nil {
		return l.Now()
	}
	return time.Now()
}

func (l Ledger) newID() string {
	if l.NewID != nil {
		return l.NewID()
	}
	return uuid.NewString()
}

func (l Ledger) logger() *slog.Logger {
	if l.Logger != nil {
		return l.Logger
	}
	return slog.Default()
}

func (l Ledger) start(ctx context.Context, name string, req Request) (context.Context, trace.Span) {
	tracer := l.Tracer
	if tracer == nil {
		tracer = otel.Tracer("xiuxian/internal/app/ledger")
	}
	return tracer.Start(ctx, name, trace.WithAttributes(
		attribute.String("character.id", req.CharacterID),
		attribute.Int("ledger.costs", len(req.Costs)),
		attribute.Int("ledger.gains", len(req.Gains)),
		attribute.Bool("ledger.dry_run", req.DryRun),
	))
}

// Validate checks costs against the stored character without changing it.
func (l Ledger) Validate(ctx context.Context, characterID string, costs []resource.Operation) (ValidationResult, error) {
	characterID = strings.TrimSpace(characterID)
	if characterID == "" {
		return ValidationResult{}, ErrInvalidRequest
	}
	ctx, span := l.start(ctx, "ledger.validate", Request{CharacterID: characterID, Costs: costs})
	defer span.End()

	c, err := l.Chars.GetByCharacterID(ctx, characterID)
	if err != nil {
		span.RecordError(err)
		return ValidationResult{}, err
	}
	missing, errs := resource.Check(c, costs)
	out := ValidationResult{
		Valid:   len(missing) == 0 && len(errs) == 0,
		Missing: missing,
		Errors:  errs,
	}
	span.SetAttributes(attribute.Bool("ledger.valid", out.Valid))
	return out, nil
}

// Consume debits costs atomically. Shortfalls are reported in the result and
// leave the character untouched.
func (l Ledger) Consume(ctx context.Context, req Request) (OperationResult, error) {
	req.Gains = nil
	return l.run(ctx, "ledger.consume", req)
}

// Gain credits gains atomically. Unknown types are reported and skipped; the
// remaining gains still apply.
func (l Ledger) Gain(ctx context.Context, req Request) (OperationResult, error) {
	req.Costs = nil
	return l.run(ctx, "ledger.gain", req)
}

// Transaction validates every cost, then debits and credits in one atomic
// scope. Any error in either step, or from the action, rolls back both.
func (l Ledger) Transaction(ctx context.Context, req Request) (OperationResult, error) {
	return l.run(ctx, "ledger.transaction", req)
}

func (l Ledger) run(ctx context.Context, name string, req Request) (OperationResult, error) {
	req.CharacterID = strings.TrimSpace(req.CharacterID)
	if req.CharacterID == "" || (len(req.Costs) == 0 && len(req.Gains) == 0) {
		return OperationResult{}, ErrInvalidRequest
	}
	ctx, span := l.start(ctx, name, req)
	defer span.End()

	strictGains := name == "ledger.transaction"
	var out OperationResult
	err := l.TxManager.RunInTx(ctx, func(txCtx context.Context) error {
		current, err := l.Chars.GetByCharacterID(txCtx, req.CharacterID)
		if err != nil {
			return err
		}

		missing, checkErrs := resource.Check(current, req.Costs)
		if len(missing) > 0 || len(checkErrs) > 0 {
			out = OperationResult{DryRun: req.DryRun, Missing: missing, Errors: checkErrs}
			return nil
		}

		next := current.Clone()
		var errs []resource.OperationError
		if debitErrs := resource.Debit(&next, req.Costs); len(debitErrs) > 0 {
			return &TransactionError{Step: "consume", Err: opErrors(debitErrs)}
		}
		creditErrs := resource.Credit(&next, req.Gains, l.newID)
		if len(creditErrs) > 0 {
			if strictGains {
				return &TransactionError{Step: "gain", Err: opErrors(creditErrs)}
			}
			errs = append(errs, creditErrs...)
		}

		if req.DryRun {
			out = OperationResult{Success: len(errs) == 0, DryRun: true, Errors: errs, Character: &next}
			return nil
		}

		now := l.now()
		next.UpdatedAt = now
		next.Version = current.Version + 1
		if err := l.Chars.SaveWithVersion(txCtx, next, current.Version); err != nil {
			return err
		}
		if l.Events != nil {
			if err := l.Events.Append(txCtx, req.CharacterID, ledgerEvents(req, now)); err != nil {
				return err
			}
		}
		if req.Action != nil {
			if err := req.Action(txCtx, next.Clone()); err != nil {
				return &TransactionError{Step: "action", Err: err}
			}
		}
		out = OperationResult{Success: len(errs) == 0, Errors: errs, Character: &next}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		l.logger().ErrorContext(ctx, "ledger call rolled back",
			"op", name, "character_id", req.CharacterID, "reason", req.Reason, "error", err)
		var opErr *TransactionError
		if errors.As(err, &opErr) {
			return OperationResult{Errors: []resource.OperationError{{Index: -1, Message: opErr.Error()}}}, err
		}
		return OperationResult{}, err
	}

	span.SetAttributes(attribute.Bool("ledger.success", out.Success))
	if len(out.Missing) > 0 {
		l.logger().InfoContext(ctx, "ledger call refused",
			"op", name, "character_id", req.CharacterID, "missing", len(out.Missing))
	}
	return out, nil
}

func ledgerEvents(req Request, now time.Time) []cultivation.DomainEvent {
	events := make([]cultivation.DomainEvent, 0, 2)
	if len(req.Costs) > 0 {
		events = append(events, cultivation.DomainEvent{
			Type:       "resources_consumed",
			OccurredAt: now,
			Payload: map[string]any{
				"character_id": req.CharacterID,
				"operations":   operationSummary(req.Costs),
				"reason":       req.Reason,
			},
		})
	}
	if len(req.Gains) > 0 {
		events = append(events, cultivation.DomainEvent{
			Type:       "resources_gained",
			OccurredAt: now,
			Payload: map[string]any{
				"character_id": req.CharacterID,
				"operations":   operationSummary(req.Gains),
				"reason":       req.Reason,
			},
		})
	}
	return events
}

func operationSummary(ops []resource.Operation) []map[string]any {
	out := make([]map[string]any, 0, len(ops))
	for _, op := range ops {
		item := map[string]any{"type": string(op.Type), "value": op.Value}
		if op.Name != "" {
			item["name"] = op.Name
		}
		out = append(out, item)
	}
	return out
}

func opErrors(errs []resource.OperationError) error {
	joined := make([]error, 0, len(errs))
	for _, e := range errs {
		joined = append(joined, e)
	}
	return errors.Join(joined...)
}
