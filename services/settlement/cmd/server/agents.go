package main

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/occydefi/solagent-economy/pkg/authn"
	"github.com/occydefi/solagent-economy/pkg/domain"
	"github.com/occydefi/solagent-economy/pkg/engine"
	"github.com/occydefi/solagent-economy/pkg/httpx"
	"github.com/occydefi/solagent-economy/pkg/ledger"
	"github.com/occydefi/solagent-economy/services/settlement/internal/store"
)

func newBearerToken() string {
	buf := make([]byte, 24)
	_, _ = rand.Read(buf)
	return "sat_" + hex.EncodeToString(buf)
}

func agentView(a *domain.Agent) map[string]any {
	return map[string]any{
		"agent_id":           a.ID,
		"authority":          a.Authority,
		"name":               a.Name,
		"description":        a.Description,
		"capabilities":       a.Capabilities,
		"endpoint":           a.Endpoint,
		"reputation_score":   a.ReputationScore,
		"total_staked":       a.TotalStaked,
		"total_earned":       a.TotalEarned,
		"total_spent":        a.TotalSpent,
		"services_completed": a.ServicesCompleted,
		"services_requested": a.ServicesRequested,
		"feedbacks_received": a.FeedbacksReceived,
		"registered_at":      a.RegisteredAt,
		"is_active":          a.IsActive,
	}
}

func (app *App) registerAgentRoutes(api chi.Router) {

	// Registration mints the agent's bearer token; it is returned exactly
	// once and only its hash is stored.
	api.Post("/agents", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Authority    string   `json:"authority"`
			Name         string   `json:"name"`
			Description  string   `json:"description"`
			Capabilities []string `json:"capabilities"`
			Endpoint     string   `json:"endpoint"`
		}
		if err := httpx.ReadJSON(r, &req); err != nil {
			httpx.WriteError(w, http.StatusBadRequest, "BAD_JSON", err.Error(), nil)
			return
		}
		if req.Authority == "" {
			httpx.WriteError(w, http.StatusBadRequest, "VALIDATION", "authority is required", nil)
			return
		}

		id := domain.AgentID("agt_" + uuid.NewString())
		token := newBearerToken()
		eventID := "evt_" + uuid.NewString()
		var agent *domain.Agent
		var ev engine.AgentRegistered

		err := app.Store.WithTx(r.Context(), func(tx pgx.Tx) error {
			protocol, err := store.GetProtocolForUpdate(r.Context(), tx)
			if err != nil {
				return err
			}
			now := nowUnix()
			agent, err = domain.NewAgent(id, domain.AuthorityKey(req.Authority), req.Name, req.Description, req.Capabilities, req.Endpoint, now)
			if err != nil {
				return err
			}
			agents, err := domain.CheckedAdd(protocol.TotalAgents, 1)
			if err != nil {
				return err
			}
			protocol.TotalAgents = agents
			if err := store.CreateAgent(r.Context(), tx, agent); err != nil {
				return err
			}
			if err := store.CreateAgentToken(r.Context(), tx, id, authn.HashToken(token)); err != nil {
				return err
			}
			if err := store.SaveProtocol(r.Context(), tx, protocol); err != nil {
				return err
			}
			ev = engine.AgentRegistered{Agent: id, Authority: agent.Authority, Name: agent.Name, Timestamp: now}
			return store.AddEvent(r.Context(), tx, eventID, string(id), ev.Type(), ev)
		})
		if err != nil {
			app.writeErr(w, err)
			return
		}
		app.emit(eventID, ev)
		httpx.WriteJSON(w, http.StatusCreated, map[string]any{
			"request_id": httpx.NewRequestID(),
			"agent":      agentView(agent),
			"token":      token,
		})
	})

	api.Get("/agents/{agent_id}", func(w http.ResponseWriter, r *http.Request) {
		agent, err := store.GetAgent(r.Context(), app.Pool, domain.AgentID(chi.URLParam(r, "agent_id")))
		if err != nil {
			app.writeErr(w, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, map[string]any{
			"request_id": httpx.NewRequestID(),
			"agent":      agentView(agent),
		})
	})

	api.Get("/agents/{agent_id}/feedback", func(w http.ResponseWriter, r *http.Request) {
		id := domain.AgentID(chi.URLParam(r, "agent_id"))
		if _, err := store.GetAgent(r.Context(), app.Pool, id); err != nil {
			app.writeErr(w, err)
			return
		}
		fbs, err := store.ListFeedbacks(r.Context(), app.Pool, id)
		if err != nil {
			app.writeErr(w, err)
			return
		}
		out := make([]map[string]any, 0, len(fbs))
		for _, f := range fbs {
			out = append(out, map[string]any{
				"rater":     f.Rater,
				"ratee":     f.Ratee,
				"rating":    f.Rating,
				"comment":   f.Comment,
				"timestamp": f.Timestamp,
			})
		}
		httpx.WriteJSON(w, http.StatusOK, map[string]any{
			"request_id": httpx.NewRequestID(),
			"feedbacks":  out,
		})
	})

	api.Post("/agents/{agent_id}/stake", func(w http.ResponseWriter, r *http.Request) {
		caller, ok := app.authenticate(w, r)
		if !ok {
			return
		}
		endpoint := "POST /agents/{agent_id}/stake"
		if app.replayed(w, r, string(caller.AgentID), endpoint) {
			return
		}
		var req struct {
			Amount uint64 `json:"amount"`
		}
		if err := httpx.ReadJSON(r, &req); err != nil {
			httpx.WriteError(w, http.StatusBadRequest, "BAD_JSON", err.Error(), nil)
			return
		}

		id := domain.AgentID(chi.URLParam(r, "agent_id"))
		eventID := "evt_" + uuid.NewString()
		var ev engine.ReputationStaked

		err := app.Store.WithTx(r.Context(), func(tx pgx.Tx) error {
			protocol, err := store.GetProtocolForUpdate(r.Context(), tx)
			if err != nil {
				return err
			}
			agent, err := store.GetAgentForUpdate(r.Context(), tx, id)
			if err != nil {
				return err
			}
			l := store.NewTxLedger(tx, nowUnix())
			ev, err = engine.StakeReputation(r.Context(), l, protocol, agent, caller.Authority, req.Amount)
			if err != nil {
				return err
			}
			if err := store.SaveAgent(r.Context(), tx, agent); err != nil {
				return err
			}
			if err := store.SaveProtocol(r.Context(), tx, protocol); err != nil {
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
			"request_id":   httpx.NewRequestID(),
			"agent_id":     id,
			"new_score":    ev.NewScore,
			"total_staked": ev.TotalStaked,
		})
	})

	api.Get("/agents/{agent_id}/balance", func(w http.ResponseWriter, r *http.Request) {
		id := domain.AgentID(chi.URLParam(r, "agent_id"))
		if _, err := store.GetAgent(r.Context(), app.Pool, id); err != nil {
			app.writeErr(w, err)
			return
		}
		spendable, err := store.GetBalance(r.Context(), app.Pool, string(ledger.Spendable(id)))
		if err != nil {
			app.writeErr(w, err)
			return
		}
		staked, err := store.GetBalance(r.Context(), app.Pool, string(ledger.StakeVault(id)))
		if err != nil {
			app.writeErr(w, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, map[string]any{
			"request_id": httpx.NewRequestID(),
			"agent_id":   id,
			"spendable":  spendable,
			"staked":     staked,
		})
	})
}
