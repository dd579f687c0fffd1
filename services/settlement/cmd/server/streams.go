package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/occydefi/solagent-economy/pkg/domain"
	"github.com/occydefi/solagent-economy/pkg/engine"
	"github.com/occydefi/solagent-economy/pkg/httpx"
	"github.com/occydefi/solagent-economy/services/settlement/internal/store"
)

func streamView(st *domain.Stream) map[string]any {
	return map[string]any{
		"stream_id":         st.ID,
		"payer_id":          st.Payer,
		"receiver_id":       st.Receiver,
		"rate_per_second":   st.RatePerSecond,
		"deposited":         st.Deposited,
		"withdrawn":         st.Withdrawn,
		"started_at":        st.StartedAt,
		"max_end_at":        st.MaxEndAt,
		"last_withdrawn_at": st.LastWithdrawnAt,
		"is_active":         st.IsActive,
	}
}

func (app *App) registerStreamRoutes(api chi.Router) {

	api.Post("/streams", func(w http.ResponseWriter, r *http.Request) {
		caller, ok := app.authenticate(w, r)
		if !ok {
			return
		}
		endpoint := "POST /streams"
		if app.replayed(w, r, string(caller.AgentID), endpoint) {
			return
		}
		var req struct {
			ReceiverID         string `json:"receiver_id"`
			RatePerSecond      uint64 `json:"rate_per_second"`
			MaxDurationSeconds uint64 `json:"max_duration_seconds"`
			Deposit            uint64 `json:"deposit"`
		}
		if err := httpx.ReadJSON(r, &req); err != nil {
			httpx.WriteError(w, http.StatusBadRequest, "BAD_JSON", err.Error(), nil)
			return
		}

		id := domain.StreamID("str_" + uuid.NewString())
		eventID := "evt_" + uuid.NewString()
		var stream *domain.Stream
		var ev engine.StreamCreated

		err := app.Store.WithTx(r.Context(), func(tx pgx.Tx) error {
			payer, receiver, err := lockAgents(r.Context(), tx, caller.AgentID, domain.AgentID(req.ReceiverID))
			if err != nil {
				return err
			}
			l := store.NewTxLedger(tx, nowUnix())
			stream, ev, err = engine.OpenStream(r.Context(), l, payer, receiver, caller.Authority,
				id, req.RatePerSecond, req.MaxDurationSeconds, req.Deposit)
			if err != nil {
				return err
			}
			if err := store.CreateStream(r.Context(), tx, stream); err != nil {
				return err
			}
			return store.AddEvent(r.Context(), tx, eventID, string(id), ev.Type(), ev)
		})
		if err != nil {
			app.writeErr(w, err)
			return
		}
		app.emit(eventID, ev)
		app.respond(w, r, string(caller.AgentID), endpoint, http.StatusCreated, map[string]any{
			"request_id": httpx.NewRequestID(),
			"stream":     streamView(stream),
		})
	})

	api.Get("/streams/{stream_id}", func(w http.ResponseWriter, r *http.Request) {
		st, err := store.GetStream(r.Context(), app.Pool, domain.StreamID(chi.URLParam(r, "stream_id")))
		if err != nil {
			app.writeErr(w, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, map[string]any{
			"request_id": httpx.NewRequestID(),
			"stream":     streamView(st),
		})
	})

	// Withdrawal is permissionless: any authenticated caller may crank a
	// stream, funds only ever reach the receiver (and remainder the payer).
	api.Post("/streams/{stream_id}/withdraw", func(w http.ResponseWriter, r *http.Request) {
		caller, ok := app.authenticate(w, r)
		if !ok {
			return
		}
		endpoint := "POST /streams/{stream_id}/withdraw"
		if app.replayed(w, r, string(caller.AgentID), endpoint) {
			return
		}

		id := domain.StreamID(chi.URLParam(r, "stream_id"))
		eventID := "evt_" + uuid.NewString()
		var stream *domain.Stream
		var ev engine.StreamWithdrawn

		err := app.Store.WithTx(r.Context(), func(tx pgx.Tx) error {
			var err error
			stream, err = store.GetStreamForUpdate(r.Context(), tx, id)
			if err != nil {
				return err
			}
			receiver, err := store.GetAgentForUpdate(r.Context(), tx, stream.Receiver)
			if err != nil {
				return err
			}
			l := store.NewTxLedger(tx, nowUnix())
			ev, err = engine.WithdrawStream(r.Context(), l, stream, receiver)
			if err != nil {
				return err
			}
			if err := store.SaveStream(r.Context(), tx, stream); err != nil {
				return err
			}
			if err := store.SaveAgent(r.Context(), tx, receiver); err != nil {
				return err
			}
			return store.AddEvent(r.Context(), tx, eventID, string(id), ev.Type(), ev)
		})
		if err != nil {
			app.writeErr(w, err)
			return
		}
		app.emit(eventID, ev)
		app.respond(w, r, string(caller.AgentID), endpoint, http.StatusOK, map[string]any{
			"request_id": httpx.NewRequestID(),
			"stream":     streamView(stream),
			"withdrawn":  ev.Amount,
			"refunded":   ev.RefundedRemainder,
		})
	})
}
