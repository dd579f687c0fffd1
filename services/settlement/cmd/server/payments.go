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

func paymentView(p *domain.Payment) map[string]any {
	return map[string]any{
		"payment_id":   p.ID,
		"payer_id":     p.Payer,
		"receiver_id":  p.Receiver,
		"service_id":   p.Service,
		"amount":       p.Amount,
		"intent":       p.Intent,
		"conditions":   p.Conditions,
		"status":       p.Status,
		"created_at":   p.CreatedAt,
		"timeout_at":   p.TimeoutAt,
		"completed_at": p.CompletedAt,
	}
}

func (app *App) registerPaymentRoutes(api chi.Router) {

	api.Post("/payments", func(w http.ResponseWriter, r *http.Request) {
		caller, ok := app.authenticate(w, r)
		if !ok {
			return
		}
		endpoint := "POST /payments"
		if app.replayed(w, r, string(caller.AgentID), endpoint) {
			return
		}
		var req struct {
			ServiceID      string   `json:"service_id"`
			Amount         uint64   `json:"amount"`
			Intent         string   `json:"intent"`
			Conditions     []string `json:"conditions"`
			TimeoutSeconds int64    `json:"timeout_seconds"`
		}
		if err := httpx.ReadJSON(r, &req); err != nil {
			httpx.WriteError(w, http.StatusBadRequest, "BAD_JSON", err.Error(), nil)
			return
		}

		id := domain.PaymentID("pay_" + uuid.NewString())
		eventID := "evt_" + uuid.NewString()
		var payment *domain.Payment
		var ev engine.PaymentCreated

		err := app.Store.WithTx(r.Context(), func(tx pgx.Tx) error {
			protocol, err := store.GetProtocolForUpdate(r.Context(), tx)
			if err != nil {
				return err
			}
			service, err := store.GetServiceForUpdate(r.Context(), tx, domain.ServiceID(req.ServiceID))
			if err != nil {
				return err
			}
			payer, receiver, err := lockAgents(r.Context(), tx, caller.AgentID, service.Provider)
			if err != nil {
				return err
			}
			l := store.NewTxLedger(tx, nowUnix())
			payment, ev, err = engine.PayForService(r.Context(), l, protocol, payer, receiver, service,
				caller.Authority, id, req.Amount, req.Intent, req.Conditions, req.TimeoutSeconds)
			if err != nil {
				return err
			}
			if err := store.CreatePayment(r.Context(), tx, payment); err != nil {
				return err
			}
			if err := store.SaveAgent(r.Context(), tx, payer); err != nil {
				return err
			}
			if err := store.SaveService(r.Context(), tx, service); err != nil {
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
		app.respond(w, r, string(caller.AgentID), endpoint, http.StatusCreated, map[string]any{
			"request_id": httpx.NewRequestID(),
			"payment":    paymentView(payment),
		})
	})

	api.Get("/payments/{payment_id}", func(w http.ResponseWriter, r *http.Request) {
		p, err := store.GetPayment(r.Context(), app.Pool, domain.PaymentID(chi.URLParam(r, "payment_id")))
		if err != nil {
			app.writeErr(w, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, map[string]any{
			"request_id": httpx.NewRequestID(),
			"payment":    paymentView(p),
		})
	})

	api.Post("/payments/{payment_id}/release", func(w http.ResponseWriter, r *http.Request) {
		caller, ok := app.authenticate(w, r)
		if !ok {
			return
		}
		endpoint := "POST /payments/{payment_id}/release"
		if app.replayed(w, r, string(caller.AgentID), endpoint) {
			return
		}

		id := domain.PaymentID(chi.URLParam(r, "payment_id"))
		eventID := "evt_" + uuid.NewString()
		var payment *domain.Payment
		var ev engine.PaymentReleased

		err := app.Store.WithTx(r.Context(), func(tx pgx.Tx) error {
			var err error
			payment, err = store.GetPaymentForUpdate(r.Context(), tx, id)
			if err != nil {
				return err
			}
			service, err := store.GetServiceForUpdate(r.Context(), tx, payment.Service)
			if err != nil {
				return err
			}
			payer, receiver, err := lockAgents(r.Context(), tx, payment.Payer, payment.Receiver)
			if err != nil {
				return err
			}
			l := store.NewTxLedger(tx, nowUnix())
			ev, err = engine.ReleasePayment(r.Context(), l, payment, payer, receiver, service, caller.Authority)
			if err != nil {
				return err
			}
			if err := store.SavePayment(r.Context(), tx, payment); err != nil {
				return err
			}
			if err := store.SaveAgent(r.Context(), tx, receiver); err != nil {
				return err
			}
			if err := store.SaveService(r.Context(), tx, service); err != nil {
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
			"payment":    paymentView(payment),
			"latency_ms": ev.LatencyMS,
		})
	})

	api.Post("/payments/{payment_id}/refund", func(w http.ResponseWriter, r *http.Request) {
		caller, ok := app.authenticate(w, r)
		if !ok {
			return
		}
		endpoint := "POST /payments/{payment_id}/refund"
		if app.replayed(w, r, string(caller.AgentID), endpoint) {
			return
		}

		id := domain.PaymentID(chi.URLParam(r, "payment_id"))
		eventID := "evt_" + uuid.NewString()
		var payment *domain.Payment
		var ev engine.PaymentRefunded

		err := app.Store.WithTx(r.Context(), func(tx pgx.Tx) error {
			var err error
			payment, err = store.GetPaymentForUpdate(r.Context(), tx, id)
			if err != nil {
				return err
			}
			payer, err := store.GetAgentForUpdate(r.Context(), tx, payment.Payer)
			if err != nil {
				return err
			}
			l := store.NewTxLedger(tx, nowUnix())
			ev, err = engine.RefundPayment(r.Context(), l, payment, payer, caller.Authority)
			if err != nil {
				return err
			}
			if err := store.SavePayment(r.Context(), tx, payment); err != nil {
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
			"payment":    paymentView(payment),
			"reason":     ev.Reason,
		})
	})
}
