package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"xiuxian/internal/app/guard"
	"xiuxian/internal/app/history"
	"xiuxian/internal/app/ledger"
	"xiuxian/internal/app/ports"
	"xiuxian/internal/app/progression"
	"xiuxian/internal/app/status"
	"xiuxian/internal/domain/cultivation"
	"xiuxian/internal/domain/resource"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
)

type Handler struct {
	ProgressionUC progression.UseCase
	StatusUC      status.UseCase
	HistoryUC     history.UseCase
	Ledger        ledger.Ledger
	KPI           kpiSnapshotProvider
	// AllowOrigin is sent as Access-Control-Allow-Origin; empty means any.
	AllowOrigin   string
}

func (h Handler) RegisterRoutes(s *server.Hertz) {
	s.Use(corsMiddleware(h.AllowOrigin), tracingMiddleware())

	chars := s.Group("/api/characters/:character_id")
	chars.POST("/cultivate", h.cultivate)
	chars.POST("/breakthrough", h.breakthrough)
	chars.GET("/preview", h.preview)
	chars.GET("/status", h.status)
	chars.GET("/history", h.history)

	res := chars.Group("/resources")
	res.POST("/validate", h.validate)
	res.POST("/consume", h.consume)
	res.POST("/gain", h.gain)
	res.POST("/transaction", h.transaction)

	s.GET("/ops/kpi", h.kpi)
}

type cultivateRequest struct {
	Years int `json:"years"`
}

type resourceRequest struct {
	Costs  []resource.Operation `json:"costs"`
	Gains  []resource.Operation `json:"gains"`
	DryRun bool                 `json:"dry_run"`
	Reason string               `json:"reason,omitempty"`
}

func characterID(ctx *app.RequestContext) string {
	return strings.TrimSpace(ctx.Param("character_id"))
}

func (h Handler) cultivate(c context.Context, ctx *app.RequestContext) {
	var body cultivateRequest
	if err := decodeJSON(ctx, &body); err != nil {
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_json", "invalid json")
		return
	}
	resp, err := h.ProgressionUC.Cultivate(c, progression.CultivateRequest{
		CharacterID: characterID(ctx),
		Years:       body.Years,
	})
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, resp)
}

func (h Handler) breakthrough(c context.Context, ctx *app.RequestContext) {
	if hasJSONField(ctx.Request.Body(), "years") {
		writeRejected(ctx, consts.StatusBadRequest, "years_managed_by_server", "breakthrough years are taken from accumulated closed-door time", false, map[string]any{"field": "years"})
		return
	}
	resp, err := h.ProgressionUC.Breakthrough(c, progression.BreakthroughRequest{CharacterID: characterID(ctx)})
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, resp)
}

func (h Handler) preview(c context.Context, ctx *app.RequestContext) {
	resp, err := h.ProgressionUC.Preview(c, characterID(ctx))
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, resp)
}

func (h Handler) status(c context.Context, ctx *app.RequestContext) {
	resp, err := h.StatusUC.Execute(c, status.Request{CharacterID: characterID(ctx)})
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, resp)
}

func (h Handler) history(c context.Context, ctx *app.RequestContext) {
	limit, _ := strconv.Atoi(string(ctx.Query("limit")))
	occurredFrom, _ := strconv.ParseInt(string(ctx.Query("occurred_from")), 10, 64)
	occurredTo, _ := strconv.ParseInt(string(ctx.Query("occurred_to")), 10, 64)
	resp, err := h.HistoryUC.Execute(c, history.Request{
		CharacterID:  characterID(ctx),
		Limit:        limit,
		OccurredFrom: occurredFrom,
		OccurredTo:   occurredTo,
	})
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, resp)
}

func (h Handler) validate(c context.Context, ctx *app.RequestContext) {
	var body resourceRequest
	if err := decodeJSON(ctx, &body); err != nil {
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_json", "invalid json")
		return
	}
	resp, err := h.Ledger.Validate(c, characterID(ctx), body.Costs)
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, resp)
}

func (h Handler) consume(c context.Context, ctx *app.RequestContext) {
	h.runLedger(c, ctx, h.Ledger.Consume)
}

func (h Handler) gain(c context.Context, ctx *app.RequestContext) {
	h.runLedger(c, ctx, h.Ledger.Gain)
}

func (h Handler) transaction(c context.Context, ctx *app.RequestContext) {
	h.runLedger(c, ctx, h.Ledger.Transaction)
}

// runLedger answers 200 for applied calls and 422 when the result reports
// shortfalls or rejected operations.
func (h Handler) runLedger(c context.Context, ctx *app.RequestContext, op func(context.Context, ledger.Request) (ledger.OperationResult, error)) {
	var body resourceRequest
	if err := decodeJSON(ctx, &body); err != nil {
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_json", "invalid json")
		return
	}
	resp, err := op(c, ledger.Request{
		CharacterID: characterID(ctx),
		Costs:       body.Costs,
		Gains:       body.Gains,
		DryRun:      body.DryRun,
		Reason:      body.Reason,
	})
	if err != nil {
		writeError(ctx, err)
		return
	}
	if len(resp.Missing) > 0 {
		ctx.JSON(consts.StatusUnprocessableEntity, resp)
		return
	}
	ctx.JSON(consts.StatusOK, resp)
}

type kpiSnapshotProvider interface {
	SnapshotAny() any
}

func (h Handler) kpi(_ context.Context, ctx *app.RequestContext) {
	if h.KPI == nil {
		writeErrorBody(ctx, consts.StatusNotFound, "not_configured", "kpi provider not configured")
		return
	}
	ctx.JSON(consts.StatusOK, h.KPI.SnapshotAny())
}

func decodeJSON(ctx *app.RequestContext, out any) error {
	body := ctx.Request.Body()
	if len(body) == 0 {
		return nil
	}
	return json.Unmarshal(body, out)
}

func hasJSONField(body []byte, key string) bool {
	if len(body) == 0 {
		return false
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(body, &m); err != nil {
		return false
	}
	_, ok := m[key]
	return ok
}

func writeError(ctx *app.RequestContext, err error) {
	if writeRejectedFromErr(ctx, err) {
		return
	}
	switch {
	case errors.Is(err, progression.ErrInvalidRequest),
		errors.Is(err, status.ErrInvalidRequest),
		errors.Is(err, history.ErrInvalidRequest),
		errors.Is(err, ledger.ErrInvalidRequest),
		errors.Is(err, guard.ErrInvalidRequest):
		writeErrorBody(ctx, consts.StatusBadRequest, "bad_request", err.Error())
	case errors.Is(err, ports.ErrNotFound):
		writeErrorBody(ctx, consts.StatusNotFound, "not_found", err.Error())
	default:
		writeErrorBody(ctx, consts.StatusInternalServerError, "internal_error", "internal error")
	}
}

func writeErrorBody(ctx *app.RequestContext, status int, code, message string) {
	ctx.JSON(status, map[string]any{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}

// writeRejectedFromErr covers the errors a caller can act on: it tells them
// whether a retry may succeed and includes the numbers they need.
func writeRejectedFromErr(ctx *app.RequestContext, err error) bool {
	switch {
	case errors.Is(err, cultivation.ErrInvalidYears):
		writeRejected(ctx, consts.StatusBadRequest, "invalid_years", err.Error(), false, map[string]any{"field": "years"})
	case errors.Is(err, progression.ErrActionInProgress):
		writeRejected(ctx, consts.StatusConflict, "action_in_progress", "another progression action is running for this character, try again shortly", true, nil)
	case errors.Is(err, guard.ErrQuotaExceeded):
		details := map[string]any{}
		var quotaErr *guard.QuotaExceededError
		if errors.As(err, &quotaErr) {
			details["requested_years"] = quotaErr.Requested
			details["remaining_years"] = quotaErr.Remaining
			details["day"] = quotaErr.Day
		}
		writeRejected(ctx, consts.StatusTooManyRequests, "quota_exceeded", err.Error(), false, details)
	case errors.Is(err, cultivation.ErrInsufficientProgress):
		details := map[string]any{}
		var progErr *cultivation.InsufficientProgressError
		if errors.As(err, &progErr) {
			details["exp_progress"] = progErr.ProgressPercent
			details["required_progress"] = progErr.RequiredPercent
			details["exp_shortfall"] = progErr.ExpShortfall()
		}
		writeRejected(ctx, consts.StatusUnprocessableEntity, "insufficient_progress", err.Error(), false, details)
	case errors.Is(err, cultivation.ErrTerminalTier):
		writeRejected(ctx, consts.StatusUnprocessableEntity, "terminal_tier", err.Error(), false, nil)
	case errors.Is(err, cultivation.ErrCharacterDeceased):
		writeRejected(ctx, consts.StatusUnprocessableEntity, "character_deceased", err.Error(), false, nil)
	case errors.Is(err, cultivation.ErrInvalidTier):
		writeRejected(ctx, consts.StatusUnprocessableEntity, "invalid_tier", err.Error(), false, nil)
	case errors.Is(err, ports.ErrConflict):
		writeRejected(ctx, consts.StatusConflict, "version_conflict", "character changed concurrently, reload and retry", true, nil)
	case errors.Is(err, ports.ErrUnavailable):
		writeRejected(ctx, consts.StatusServiceUnavailable, "guard_unavailable", "coordination backend unavailable", true, nil)
	case errors.Is(err, ledger.ErrTransactionFailed):
		details := map[string]any{"rolled_back": true}
		var txErr *ledger.TransactionError
		if errors.As(err, &txErr) {
			details["step"] = txErr.Step
		}
		writeRejected(ctx, consts.StatusUnprocessableEntity, "transaction_failed", err.Error(), false, details)
	case errors.Is(err, progression.ErrPersistenceFailed):
		writeRejected(ctx, consts.StatusInternalServerError, "persistence_failed", "the action was not saved and has been rolled back", true, map[string]any{"rolled_back": true})
	default:
		return false
	}
	return true
}

func writeRejected(ctx *app.RequestContext, status int, code, message string, retryable bool, details map[string]any) {
	if len(details) == 0 {
		details = nil
	}
	ctx.JSON(status, map[string]any{
		"success": false,
		"error": map[string]any{
			"code":      code,
			"message":   message,
			"retryable": retryable,
			"details":   details,
		},
	})
}
