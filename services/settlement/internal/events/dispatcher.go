// Package events delivers committed settlement events to a webhook sink.
// Delivery is best-effort and post-commit: the persisted event row in the
// store is the durable record, the webhook is a notification.
package events

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/occydefi/solagent-economy/pkg/engine"
	"github.com/occydefi/solagent-economy/pkg/webhooks"
)

type Dispatcher struct {
	SinkURL string
	Secret  string
	HTTP    *http.Client
	Log     *zap.Logger
}

func NewDispatcher(sinkURL, secret string, log *zap.Logger) *Dispatcher {
	return &Dispatcher{
		SinkURL: sinkURL,
		Secret:  secret,
		HTTP:    &http.Client{Timeout: 10 * time.Second},
		Log:     log,
	}
}

// Deliver signs and POSTs one event. A nil sink configuration is a no-op so
// callers never need to branch on whether webhooks are enabled.
func (d *Dispatcher) Deliver(ctx context.Context, eventID string, ev engine.Event) {
	if d == nil || d.SinkURL == "" {
		return
	}
	body, err := json.Marshal(ev)
	if err != nil {
		d.Log.Error("marshal event", zap.String("event_id", eventID), zap.Error(err))
		return
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.SinkURL, bytes.NewReader(body))
	if err != nil {
		d.Log.Error("build webhook request", zap.String("event_id", eventID), zap.Error(err))
		return
	}
	req.Header.Set("Content-Type", "application/json")
	webhooks.SignRequest(req, d.Secret, eventID, ev.Type(), body)

	resp, err := d.HTTP.Do(req)
	if err != nil {
		d.Log.Warn("webhook delivery failed",
			zap.String("event_id", eventID),
			zap.String("event_type", ev.Type()),
			zap.Error(err))
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		d.Log.Warn("webhook sink rejected event",
			zap.String("event_id", eventID),
			zap.String("event_type", ev.Type()),
			zap.Int("status", resp.StatusCode))
	}
}
