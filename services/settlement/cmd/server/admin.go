package main

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/occydefi/solagent-economy/pkg/domain"
	"github.com/occydefi/solagent-economy/pkg/engine"
	"github.com/occydefi/solagent-economy/pkg/httpx"
	"github.com/occydefi/solagent-economy/services/settlement/internal/store"
)

func (app *App) registerAdminRoutes(api chi.Router) {

	// First-writer-wins; a second init returns the existing row unchanged.
	api.Post("/protocol/init", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Authority string `json:"authority"`
		}
		if err := httpx.ReadJSON(r, &req); err != nil {
			httpx.WriteError(w, http.StatusBadRequest, "BAD_JSON", err.Error(), nil)
			return
		}
		if req.Authority == "" {
			httpx.WriteError(w, http.StatusBadRequest, "VALIDATION", "authority is required", nil)
			return
		}

		eventID := "evt_" + uuid.NewString()
		var p *domain.Protocol
		var created bool
		var ev engine.ProtocolInitialized

		err := app.Store.WithTx(r.Context(), func(tx pgx.Tx) error {
			var err error
			p, created, err = store.InitProtocol(r.Context(), tx, domain.AuthorityKey(req.Authority))
			if err != nil || !created {
				return err
			}
			ev = engine.ProtocolInitialized{Authority: p.Authority, Timestamp: nowUnix()}
			return store.AddEvent(r.Context(), tx, eventID, "protocol", ev.Type(), ev)
		})
		if err != nil {
			app.writeErr(w, err)
			return
		}
		if created {
			app.emit(eventID, ev)
		}
		status := http.StatusOK
		if created {
			status = http.StatusCreated
		}
		httpx.WriteJSON(w, status, map[string]any{
			"request_id": httpx.NewRequestID(),
			"created":    created,
			"protocol":   protocolView(p),
		})
	})

	api.Get("/protocol", func(w http.ResponseWriter, r *http.Request) {
		p, err := store.GetProtocol(r.Context(), app.Pool)
		if err != nil {
			app.writeErr(w, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, map[string]any{
			"request_id": httpx.NewRequestID(),
			"protocol":   protocolView(p),
		})
	})

	api.Get("/events", func(w http.ResponseWriter, r *http.Request) {
		subject := r.URL.Query().Get("subject")
		if subject == "" {
			httpx.WriteError(w, http.StatusBadRequest, "VALIDATION", "subject is required", nil)
			return
		}
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		rows, err := store.ListEvents(r.Context(), app.Pool, subject, limit)
		if err != nil {
			app.writeErr(w, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, map[string]any{
			"request_id": httpx.NewRequestID(),
			"events":     rows,
		})
	})

	// Test-network faucet. Mints into an arbitrary ledger account; gated
	// behind DEV_FAUCET and absent from production deployments.
	if app.Cfg.DevFaucet {
		api.Post("/dev/faucet", func(w http.ResponseWriter, r *http.Request) {
			var req struct {
				Account string `json:"account"`
				Amount  uint64 `json:"amount"`
			}
			if err := httpx.ReadJSON(r, &req); err != nil {
				httpx.WriteError(w, http.StatusBadRequest, "BAD_JSON", err.Error(), nil)
				return
			}
			if req.Account == "" || req.Amount == 0 {
				httpx.WriteError(w, http.StatusBadRequest, "VALIDATION", "account and amount are required", nil)
				return
			}
			if err := store.CreditBalance(r.Context(), app.Pool, req.Account, req.Amount); err != nil {
				app.writeErr(w, err)
				return
			}
			bal, err := store.GetBalance(r.Context(), app.Pool, req.Account)
			if err != nil {
				app.writeErr(w, err)
				return
			}
			httpx.WriteJSON(w, http.StatusOK, map[string]any{
				"request_id": httpx.NewRequestID(),
				"account":    req.Account,
				"balance":    bal,
			})
		})
	}
}

func protocolView(p *domain.Protocol) map[string]any {
	return map[string]any{
		"authority":      p.Authority,
		"treasury":       p.Treasury,
		"fee_bps":        p.FeeBps,
		"total_agents":   p.TotalAgents,
		"total_services": p.TotalServices,
		"total_payments": p.TotalPayments,
		"total_volume":   p.TotalVolume,
		"total_staked":   p.TotalStaked,
	}
}
