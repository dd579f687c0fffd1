package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/occydefi/solagent-economy/pkg/domain"
	"github.com/occydefi/solagent-economy/pkg/ledger"
)

func TestPayForServiceEscrowsExactAmount(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()

	p, ev, err := PayForService(ctx, w.ledger, w.protocol, w.alice, w.bob, w.service, aliceKey, "pay_1", 1000, "translate doc", []string{"delivered"}, 3600)
	if err != nil {
		t.Fatalf("unexpected: %v", err)
	}
	if got := w.balance(t, ledger.Escrow(p.ID)); got != 1000 {
		t.Fatalf("escrow balance = %d, want 1000", got)
	}
	if got := w.balance(t, ledger.Spendable(w.alice.ID)); got != 999_000 {
		t.Fatalf("payer balance = %d, want 999000", got)
	}
	if w.alice.ServicesRequested != 1 || w.alice.TotalSpent != 1000 {
		t.Fatalf("payer counters not advanced: %+v", w.alice)
	}
	if w.service.TotalOrders != 1 {
		t.Fatalf("service orders = %d, want 1", w.service.TotalOrders)
	}
	if w.protocol.TotalPayments != 1 || w.protocol.TotalVolume != 1000 {
		t.Fatalf("protocol counters not advanced: %+v", w.protocol)
	}
	if ev.Amount != 1000 || ev.Payer != w.alice.ID || ev.Receiver != w.bob.ID {
		t.Fatalf("unexpected event: %+v", ev)
	}
}

func TestPayForServiceRequiresPayerAuthority(t *testing.T) {
	w := newWorld(t)
	_, _, err := PayForService(context.Background(), w.ledger, w.protocol, w.alice, w.bob, w.service, bobKey, "pay_1", 1000, "", nil, 3600)
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if w.alice.ServicesRequested != 0 || w.balance(t, ledger.Spendable(w.alice.ID)) != 1_000_000 {
		t.Fatalf("side effects leaked on auth failure")
	}
}

func TestPayForServiceInsufficientFundsLeavesNoEffect(t *testing.T) {
	w := newWorld(t)
	_, _, err := PayForService(context.Background(), w.ledger, w.protocol, w.alice, w.bob, w.service, aliceKey, "pay_1", 2_000_000, "", nil, 3600)
	if !errors.Is(err, domain.ErrInsufficientFunds) {
		t.Fatalf("expected insufficient funds, got %v", err)
	}
	if w.alice.TotalSpent != 0 || w.protocol.TotalVolume != 0 {
		t.Fatalf("counters mutated on failed transfer")
	}
}

func TestReleasePaymentSettlesToReceiver(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()

	p, _, err := PayForService(ctx, w.ledger, w.protocol, w.alice, w.bob, w.service, aliceKey, "pay_1", 1000, "translate doc", nil, 3600)
	if err != nil {
		t.Fatalf("pay: %v", err)
	}

	w.ledger.SetNow(w.ledger.Now() + 30)
	ev, err := ReleasePayment(ctx, w.ledger, p, w.alice, w.bob, w.service, aliceKey)
	if err != nil {
		t.Fatalf("release: %v", err)
	}
	if got := w.balance(t, ledger.Spendable(w.bob.ID)); got != 1_001_000 {
		t.Fatalf("receiver balance = %d, want 1001000", got)
	}
	if got := w.balance(t, ledger.Escrow(p.ID)); got != 0 {
		t.Fatalf("escrow balance = %d, want 0", got)
	}
	if p.Status != domain.StatusReleased || p.CompletedAt == 0 {
		t.Fatalf("payment not terminal: %+v", p)
	}
	if w.bob.ServicesCompleted != 1 || w.bob.TotalEarned != 1000 {
		t.Fatalf("receiver counters not advanced: %+v", w.bob)
	}
	if w.service.TotalRevenue != 1000 {
		t.Fatalf("service revenue = %d, want 1000", w.service.TotalRevenue)
	}
	// One completion, no stake, no feedback.
	if w.bob.ReputationScore != 1 {
		t.Fatalf("receiver reputation = %d, want 1", w.bob.ReputationScore)
	}
	if ev.LatencyMS != 30_000 {
		t.Fatalf("latency = %d, want 30000", ev.LatencyMS)
	}
}

func TestReleasePaymentRequiresPayerAuthority(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	p, _, err := PayForService(ctx, w.ledger, w.protocol, w.alice, w.bob, w.service, aliceKey, "pay_1", 1000, "", nil, 3600)
	if err != nil {
		t.Fatalf("pay: %v", err)
	}
	if _, err := ReleasePayment(ctx, w.ledger, p, w.alice, w.bob, w.service, bobKey); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if p.Status != domain.StatusEscrowed || w.balance(t, ledger.Escrow(p.ID)) != 1000 {
		t.Fatalf("escrow disturbed by unauthorized release")
	}
}

func TestTerminalStatusesAreAbsorbing(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	p, _, err := PayForService(ctx, w.ledger, w.protocol, w.alice, w.bob, w.service, aliceKey, "pay_1", 1000, "", nil, 3600)
	if err != nil {
		t.Fatalf("pay: %v", err)
	}
	if _, err := ReleasePayment(ctx, w.ledger, p, w.alice, w.bob, w.service, aliceKey); err != nil {
		t.Fatalf("release: %v", err)
	}
	if _, err := ReleasePayment(ctx, w.ledger, p, w.alice, w.bob, w.service, aliceKey); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("expected invalid state on double release, got %v", err)
	}
	if _, err := RefundPayment(ctx, w.ledger, p, w.alice, aliceKey); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("expected invalid state on refund after release, got %v", err)
	}
	if w.bob.ServicesCompleted != 1 {
		t.Fatalf("counters advanced past terminal state")
	}
}

func TestRefundBeforeTimeoutOnlyByPayer(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	p, _, err := PayForService(ctx, w.ledger, w.protocol, w.alice, w.bob, w.service, aliceKey, "pay_1", 1000, "", nil, 3600)
	if err != nil {
		t.Fatalf("pay: %v", err)
	}

	if _, err := RefundPayment(ctx, w.ledger, p, w.alice, bobKey); !errors.Is(err, domain.ErrRefundNotAllowed) {
		t.Fatalf("expected refund denied before timeout, got %v", err)
	}

	ev, err := RefundPayment(ctx, w.ledger, p, w.alice, aliceKey)
	if err != nil {
		t.Fatalf("payer cancel: %v", err)
	}
	if ev.Reason != domain.RefundPayerCancelled {
		t.Fatalf("reason = %q, want payer_cancelled", ev.Reason)
	}
	if got := w.balance(t, ledger.Spendable(w.alice.ID)); got != 1_000_000 {
		t.Fatalf("payer balance = %d, want full refund", got)
	}
	if p.Status != domain.StatusRefunded {
		t.Fatalf("status = %q, want refunded", p.Status)
	}
}

func TestRefundAfterTimeoutByAnyone(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	p, _, err := PayForService(ctx, w.ledger, w.protocol, w.alice, w.bob, w.service, aliceKey, "pay_1", 1000, "", nil, 3600)
	if err != nil {
		t.Fatalf("pay: %v", err)
	}

	// Exactly at the deadline is still too early: refund opens at
	// now > timeout_at.
	w.ledger.SetNow(p.TimeoutAt)
	if _, err := RefundPayment(ctx, w.ledger, p, w.alice, "stranger-key"); !errors.Is(err, domain.ErrRefundNotAllowed) {
		t.Fatalf("expected refund denied at deadline, got %v", err)
	}

	w.ledger.SetNow(p.TimeoutAt + 1)
	ev, err := RefundPayment(ctx, w.ledger, p, w.alice, "stranger-key")
	if err != nil {
		t.Fatalf("timeout refund: %v", err)
	}
	if ev.Reason != domain.RefundTimeout {
		t.Fatalf("reason = %q, want timeout", ev.Reason)
	}
	if got := w.balance(t, ledger.Escrow(p.ID)); got != 0 {
		t.Fatalf("escrow balance = %d, want 0", got)
	}
}

func TestRefundByPayerAfterTimeoutRecordsTimeout(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	p, _, err := PayForService(ctx, w.ledger, w.protocol, w.alice, w.bob, w.service, aliceKey, "pay_1", 1000, "", nil, 60)
	if err != nil {
		t.Fatalf("pay: %v", err)
	}
	w.ledger.SetNow(p.TimeoutAt + 10)
	ev, err := RefundPayment(ctx, w.ledger, p, w.alice, aliceKey)
	if err != nil {
		t.Fatalf("refund: %v", err)
	}
	if ev.Reason != domain.RefundTimeout {
		t.Fatalf("reason = %q, want timeout to win over payer_cancelled", ev.Reason)
	}
}
