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

func serviceView(sv *domain.Service) map[string]any {
	return map[string]any{
		"service_id":     sv.ID,
		"provider_id":    sv.Provider,
		"title":          sv.Title,
		"description":    sv.Description,
		"price_lamports": sv.PriceLamports,
		"price_model":    sv.PriceModel,
		"tags":           sv.Tags,
		"total_orders":   sv.TotalOrders,
		"total_revenue":  sv.TotalRevenue,
		"is_active":      sv.IsActive,
		"created_at":     sv.CreatedAt,
	}
}

func (app *App) registerMarketplaceRoutes(api chi.Router) {

	api.Post("/services", func(w http.ResponseWriter, r *http.Request) {
		caller, ok := app.authenticate(w, r)
		if !ok {
			return
		}
		endpoint := "POST /services"
		if app.replayed(w, r, string(caller.AgentID), endpoint) {
			return
		}
		var req struct {
			Title         string   `json:"title"`
			Description   string   `json:"description"`
			PriceLamports uint64   `json:"price_lamports"`
			PriceModel    string   `json:"price_model"`
			Tags          []string `json:"tags"`
		}
		if err := httpx.ReadJSON(r, &req); err != nil {
			httpx.WriteError(w, http.StatusBadRequest, "BAD_JSON", err.Error(), nil)
			return
		}

		id := domain.ServiceID("svc_" + uuid.NewString())
		eventID := "evt_" + uuid.NewString()
		var sv *domain.Service
		var ev engine.ServiceCreated

		err := app.Store.WithTx(r.Context(), func(tx pgx.Tx) error {
			protocol, err := store.GetProtocolForUpdate(r.Context(), tx)
			if err != nil {
				return err
			}
			sv, err = domain.NewService(id, caller.AgentID, caller.Authority, req.Title, req.Description,
				req.PriceLamports, domain.PriceModel(req.PriceModel), req.Tags, nowUnix())
			if err != nil {
				return err
			}
			services, err := domain.CheckedAdd(protocol.TotalServices, 1)
			if err != nil {
				return err
			}
			protocol.TotalServices = services
			if err := store.CreateService(r.Context(), tx, sv); err != nil {
				return err
			}
			if err := store.SaveProtocol(r.Context(), tx, protocol); err != nil {
				return err
			}
			ev = engine.ServiceCreated{
				Service:    id,
				Provider:   caller.AgentID,
				Title:      sv.Title,
				Price:      sv.PriceLamports,
				PriceModel: sv.PriceModel,
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
			"service":    serviceView(sv),
		})
	})

	api.Get("/services", func(w http.ResponseWriter, r *http.Request) {
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		svcs, err := store.ListServices(r.Context(), app.Pool, r.URL.Query().Get("tag"), limit)
		if err != nil {
			app.writeErr(w, err)
			return
		}
		out := make([]map[string]any, 0, len(svcs))
		for _, sv := range svcs {
			out = append(out, serviceView(sv))
		}
		httpx.WriteJSON(w, http.StatusOK, map[string]any{
			"request_id": httpx.NewRequestID(),
			"services":   out,
		})
	})

	api.Get("/services/{service_id}", func(w http.ResponseWriter, r *http.Request) {
		sv, err := store.GetService(r.Context(), app.Pool, domain.ServiceID(chi.URLParam(r, "service_id")))
		if err != nil {
			app.writeErr(w, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, map[string]any{
			"request_id": httpx.NewRequestID(),
			"service":    serviceView(sv),
		})
	})

	api.Post("/feedback", func(w http.ResponseWriter, r *http.Request) {
		caller, ok := app.authenticate(w, r)
		if !ok {
			return
		}
		endpoint := "POST /feedback"
		if app.replayed(w, r, string(caller.AgentID), endpoint) {
			return
		}
		var req struct {
			RateeID string `json:"ratee_id"`
			Rating  uint8  `json:"rating"`
			Comment string `json:"comment"`
		}
		if err := httpx.ReadJSON(r, &req); err != nil {
			httpx.WriteError(w, http.StatusBadRequest, "BAD_JSON", err.Error(), nil)
			return
		}

		eventID := "evt_" + uuid.NewString()
		var ev engine.FeedbackSubmitted

		err := app.Store.WithTx(r.Context(), func(tx pgx.Tx) error {
			rater, ratee, err := lockAgents(r.Context(), tx, caller.AgentID, domain.AgentID(req.RateeID))
			if err != nil {
				return err
			}
			l := store.NewTxLedger(tx, nowUnix())
			fb, out, err := engine.SubmitFeedback(l, rater, ratee, caller.Authority, req.Rating, req.Comment)
			if err != nil {
				return err
			}
			ev = out
			if err := store.CreateFeedback(r.Context(), tx, fb); err != nil {
				return err
			}
			if err := store.SaveAgent(r.Context(), tx, ratee); err != nil {
				return err
			}
			return store.AddEvent(r.Context(), tx, eventID, req.RateeID, ev.Type(), ev)
		})
		if err != nil {
			app.writeErr(w, err)
			return
		}
		app.emit(eventID, ev)
		app.respond(w, r, string(caller.AgentID), endpoint, http.StatusCreated, map[string]any{
			"request_id":     httpx.NewRequestID(),
			"from":           ev.From,
			"to":             ev.To,
			"rating":         ev.Rating,
			"new_reputation": ev.NewReputation,
		})
	})
}
