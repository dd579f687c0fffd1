package webhooks

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
)

// Sign computes the HMAC-SHA256 of rawBody under secret.
func Sign(secret string, rawBody []byte) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write(rawBody)
	return mac.Sum(nil)
}

// SignRequest stamps an outbound delivery with the event identity headers
// and the body signature.
func SignRequest(req *http.Request, secret, eventID, eventType string, rawBody []byte) {
	req.Header.Set(EventIDHeader, eventID)
	req.Header.Set(EventTypeHeader, eventType)
	req.Header.Set(SignatureHeader, hex.EncodeToString(Sign(secret, rawBody)))
}
