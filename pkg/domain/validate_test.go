package domain

import (
	"errors"
	"strings"
	"testing"
)

func TestNewAgentBounds(t *testing.T) {
	if _, err := NewAgent("agt_1", "auth", strings.Repeat("x", 33), "", nil, "", 0); !errors.Is(err, ErrNameTooLong) {
		t.Fatalf("expected name bound, got %v", err)
	}
	if _, err := NewAgent("agt_1", "auth", "ok", strings.Repeat("x", 257), nil, "", 0); !errors.Is(err, ErrDescriptionTooLong) {
		t.Fatalf("expected description bound, got %v", err)
	}
	if _, err := NewAgent("agt_1", "auth", "ok", "", make([]string, 11), "", 0); !errors.Is(err, ErrTooManyCapabilities) {
		t.Fatalf("expected capability count bound, got %v", err)
	}
	if _, err := NewAgent("agt_1", "auth", "ok", "", []string{strings.Repeat("x", 33)}, "", 0); !errors.Is(err, ErrCapabilityTooLong) {
		t.Fatalf("expected capability length bound, got %v", err)
	}
	if _, err := NewAgent("agt_1", "auth", "ok", "", nil, strings.Repeat("x", 129), 0); !errors.Is(err, ErrEndpointTooLong) {
		t.Fatalf("expected endpoint bound, got %v", err)
	}

	a, err := NewAgent("agt_1", "auth", "translator", "speaks many tongues", []string{"translate"}, "https://example.com/a2a", 1700000000)
	if err != nil {
		t.Fatalf("unexpected: %v", err)
	}
	if !a.IsActive || a.ReputationScore != 0 || a.RegisteredAt != 1700000000 {
		t.Fatalf("unexpected fresh agent: %+v", a)
	}
}

func TestNewServiceBounds(t *testing.T) {
	if _, err := NewService("svc_1", "agt_1", "auth", strings.Repeat("x", 65), "", 1, PriceFixed, nil, 0); !errors.Is(err, ErrTitleTooLong) {
		t.Fatalf("expected title bound, got %v", err)
	}
	if _, err := NewService("svc_1", "agt_1", "auth", "ok", "", 1, PriceModel("SUBSCRIPTION"), nil, 0); !errors.Is(err, ErrInvalidPriceModel) {
		t.Fatalf("expected price model check, got %v", err)
	}
	if _, err := NewService("svc_1", "agt_1", "auth", "ok", "", 1, PriceFixed, make([]string, 6), 0); !errors.Is(err, ErrTooManyTags) {
		t.Fatalf("expected tag count bound, got %v", err)
	}
}

func TestNewPaymentBounds(t *testing.T) {
	if _, err := NewPayment("pay_1", "agt_a", "agt_b", "svc_1", 0, "", nil, 60, 0); !errors.Is(err, ErrZeroAmount) {
		t.Fatalf("expected zero amount, got %v", err)
	}
	if _, err := NewPayment("pay_1", "agt_a", "agt_b", "svc_1", 1, strings.Repeat("x", 257), nil, 60, 0); !errors.Is(err, ErrIntentTooLong) {
		t.Fatalf("expected intent bound, got %v", err)
	}
	if _, err := NewPayment("pay_1", "agt_a", "agt_b", "svc_1", 1, "", make([]string, 6), 60, 0); !errors.Is(err, ErrTooManyConditions) {
		t.Fatalf("expected condition count bound, got %v", err)
	}
	if _, err := NewPayment("pay_1", "agt_a", "agt_b", "svc_1", 1, "", []string{strings.Repeat("x", 65)}, 60, 0); !errors.Is(err, ErrConditionTooLong) {
		t.Fatalf("expected condition length bound, got %v", err)
	}
	if _, err := NewPayment("pay_1", "agt_a", "agt_b", "svc_1", 1, "", nil, 0, 0); !errors.Is(err, ErrInvalidTimeout) {
		t.Fatalf("expected timeout check, got %v", err)
	}

	p, err := NewPayment("pay_1", "agt_a", "agt_b", "svc_1", 1000, "translate doc", []string{"delivered"}, 3600, 1700000000)
	if err != nil {
		t.Fatalf("unexpected: %v", err)
	}
	if p.Status != StatusEscrowed || p.TimeoutAt != 1700003600 || p.CompletedAt != 0 {
		t.Fatalf("unexpected fresh payment: %+v", p)
	}
}

func TestPaymentStatusTerminal(t *testing.T) {
	if StatusEscrowed.Terminal() {
		t.Fatalf("escrowed must not be terminal")
	}
	for _, s := range []PaymentStatus{StatusReleased, StatusRefunded, StatusDisputed} {
		if !s.Terminal() {
			t.Fatalf("%s must be terminal", s)
		}
	}
}

func TestNewFeedbackBounds(t *testing.T) {
	for _, r := range []uint8{0, 6} {
		if _, err := NewFeedback("agt_a", "agt_b", r, "", 0); !errors.Is(err, ErrInvalidRating) {
			t.Fatalf("expected rating bound for %d, got %v", r, err)
		}
	}
	if _, err := NewFeedback("agt_a", "agt_b", 5, strings.Repeat("x", 257), 0); !errors.Is(err, ErrCommentTooLong) {
		t.Fatalf("expected comment bound, got %v", err)
	}
	fb, err := NewFeedback("agt_a", "agt_b", 4, "fast and correct", 1700000000)
	if err != nil {
		t.Fatalf("unexpected: %v", err)
	}
	if fb.Rating != 4 || fb.Timestamp != 1700000000 {
		t.Fatalf("unexpected feedback: %+v", fb)
	}
}
