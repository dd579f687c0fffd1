package webhooks

import (
	"crypto/hmac"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"
)

type hmacVerifier struct{}

func NewHMACVerifier() Verifier {
	return &hmacVerifier{}
}

func (v *hmacVerifier) Verify(headers http.Header, rawBody []byte, secret string) (VerificationResult, error) {
	if strings.TrimSpace(secret) == "" {
		return VerificationResult{}, fmt.Errorf("webhook verifier secret is empty")
	}

	res := VerificationResult{
		Valid:  false,
		Scheme: Scheme,
		Details: map[string]any{
			"signature_header_present": false,
			"signature_hex_decodable":  false,
			"used_header":              SignatureHeader,
		},
		EventID: strings.TrimSpace(headers.Get(EventIDHeader)),
		Type:    strings.TrimSpace(headers.Get(EventTypeHeader)),
	}
	if res.Type == "" {
		res.Type = "unknown"
	}

	sigHex := strings.TrimSpace(headers.Get(SignatureHeader))
	if sigHex == "" {
		return res, nil
	}
	res.Details["signature_header_present"] = true

	providedSig, err := hex.DecodeString(sigHex)
	if err != nil {
		return res, nil
	}
	res.Details["signature_hex_decodable"] = true

	res.Valid = hmac.Equal(Sign(secret, rawBody), providedSig)
	return res, nil
}
