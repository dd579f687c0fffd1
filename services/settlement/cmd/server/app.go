package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/occydefi/solagent-economy/pkg/authn"
	"github.com/occydefi/solagent-economy/pkg/domain"
	"github.com/occydefi/solagent-economy/pkg/engine"
	"github.com/occydefi/solagent-economy/pkg/httpx"
	"github.com/occydefi/solagent-economy/services/settlement/internal/config"
	"github.com/occydefi/solagent-economy/services/settlement/internal/events"
	"github.com/occydefi/solagent-economy/services/settlement/internal/idempotency"
	"github.com/occydefi/solagent-economy/services/settlement/internal/store"
)

type App struct {
	Cfg    config.Config
	Log    *zap.Logger
	Pool   *pgxpool.Pool
	Store  *store.Store
	Events *events.Dispatcher
}

// authenticate resolves the bearer token or writes the 403 itself.
func (app *App) authenticate(w http.ResponseWriter, r *http.Request) (*authn.Caller, bool) {
	caller, err := authn.AuthenticateBearer(r.Context(), app.Pool, r.Header.Get("Authorization"))
	if err != nil {
		if errors.Is(err, authn.ErrUnauthorized) {
			httpx.WriteError(w, http.StatusForbidden, "UNAUTHORIZED", "invalid or missing bearer token", nil)
		} else {
			app.writeErr(w, err)
		}
		return nil, false
	}
	return caller, true
}

// writeErr maps domain and store errors onto the HTTP error taxonomy.
func (app *App) writeErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		httpx.WriteError(w, http.StatusNotFound, "NOT_FOUND", err.Error(), nil)
	case errors.Is(err, domain.ErrUnauthorized):
		httpx.WriteError(w, http.StatusForbidden, "UNAUTHORIZED", err.Error(), nil)
	case errors.Is(err, domain.ErrRefundNotAllowed):
		httpx.WriteError(w, http.StatusForbidden, "REFUND_NOT_ALLOWED", err.Error(), nil)
	case errors.Is(err, domain.ErrInsufficientFunds):
		httpx.WriteError(w, http.StatusPaymentRequired, "INSUFFICIENT_FUNDS", err.Error(), nil)
	case errors.Is(err, domain.ErrAmountOverflow):
		httpx.WriteError(w, http.StatusUnprocessableEntity, "AMOUNT_OVERFLOW", err.Error(), nil)
	case errors.Is(err, domain.ErrInvalidState),
		errors.Is(err, domain.ErrStreamNotActive),
		errors.Is(err, domain.ErrNothingToWithdraw),
		errors.Is(err, domain.ErrDuplicateFeedback):
		httpx.WriteError(w, http.StatusConflict, "INVALID_STATE", err.Error(), nil)
	case isValidationErr(err):
		httpx.WriteError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
	case isUniqueViolation(err):
		httpx.WriteError(w, http.StatusConflict, "ALREADY_EXISTS", "record already exists", nil)
	default:
		app.Log.Error("request failed", zap.Error(err))
		httpx.WriteError(w, http.StatusInternalServerError, "DB_ERROR", err.Error(), nil)
	}
}

func isValidationErr(err error) bool {
	for _, v := range []error{
		domain.ErrNameTooLong, domain.ErrDescriptionTooLong, domain.ErrTooManyCapabilities,
		domain.ErrCapabilityTooLong, domain.ErrEndpointTooLong, domain.ErrTitleTooLong,
		domain.ErrTooManyTags, domain.ErrTagTooLong, domain.ErrZeroAmount,
		domain.ErrInvalidRating, domain.ErrCommentTooLong, domain.ErrIntentTooLong,
		domain.ErrTooManyConditions, domain.ErrConditionTooLong, domain.ErrInvalidTimeout,
		domain.ErrInvalidPriceModel, domain.ErrZeroRate, domain.ErrInvalidDuration,
		domain.ErrInsufficientDeposit,
	} {
		if errors.Is(err, v) {
			return true
		}
	}
	return false
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// replayed short-circuits a mutating handler when the Idempotency-Key was
// seen before; recordResponse pairs with it after a fresh execution.
func (app *App) replayed(w http.ResponseWriter, r *http.Request, agentID, endpoint string) bool {
	actor := idempotency.ActorContext{AgentID: agentID, IdempotencyKey: r.Header.Get("Idempotency-Key")}
	status, body, hit, err := idempotency.Replay(r.Context(), app.Store, actor, endpoint)
	if err != nil {
		app.writeErr(w, err)
		return true
	}
	if hit {
		httpx.WriteJSON(w, status, body)
		return true
	}
	return false
}

func (app *App) recordResponse(r *http.Request, agentID, endpoint string, status int, body map[string]any) {
	actor := idempotency.ActorContext{AgentID: agentID, IdempotencyKey: r.Header.Get("Idempotency-Key")}
	if err := idempotency.Save(r.Context(), app.Store, actor, endpoint, status, body); err != nil {
		app.Log.Warn("save idempotency record", zap.String("endpoint", endpoint), zap.Error(err))
	}
}

func (app *App) respond(w http.ResponseWriter, r *http.Request, agentID, endpoint string, status int, body map[string]any) {
	app.recordResponse(r, agentID, endpoint, status, body)
	httpx.WriteJSON(w, status, body)
}

// emit delivers a committed event asynchronously. The request context is not
// used: delivery must survive the response being written.
func (app *App) emit(eventID string, ev engine.Event) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		app.Events.Deliver(ctx, eventID, ev)
	}()
}
