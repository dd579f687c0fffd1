// Package webhooks signs outbound settlement-event deliveries and verifies
// them on the receiving side. Both directions share one scheme:
// HMAC-SHA256 over the raw body, hex-encoded in the signature header.
package webhooks

import "net/http"

const (
	SignatureHeader = "X-Signature"
	EventIDHeader   = "X-Event-Id"
	EventTypeHeader = "X-Event-Type"
	Scheme          = "solagent-hmac-sha256/v1"
)

type VerificationResult struct {
	Valid   bool           `json:"valid"`
	Scheme  string         `json:"scheme"`
	Details map[string]any `json:"details"`
	EventID string         `json:"event_id,omitempty"`
	Type    string         `json:"event_type,omitempty"`
}

type Verifier interface {
	Verify(headers http.Header, rawBody []byte, secret string) (VerificationResult, error)
}
