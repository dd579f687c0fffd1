package engine

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/occydefi/solagent-economy/pkg/domain"
	"github.com/occydefi/solagent-economy/pkg/ledger"
)

func TestOpenStreamValidation(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()

	if _, _, err := OpenStream(ctx, w.ledger, w.alice, w.bob, aliceKey, "str_1", 0, 200, 1000); !errors.Is(err, domain.ErrZeroRate) {
		t.Fatalf("expected zero rate, got %v", err)
	}
	if _, _, err := OpenStream(ctx, w.ledger, w.alice, w.bob, aliceKey, "str_1", 10, 200, 599); !errors.Is(err, domain.ErrInsufficientDeposit) {
		t.Fatalf("expected runway check, got %v", err)
	}
	if _, _, err := OpenStream(ctx, w.ledger, w.alice, w.bob, bobKey, "str_1", 10, 200, 1000); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if got := w.balance(t, ledger.Spendable(w.alice.ID)); got != 1_000_000 {
		t.Fatalf("payer balance disturbed by failed opens: %d", got)
	}
}

// A duration that wraps MaxEndAt negative would make every accrual clamp to
// zero and leave the deposit unreachable; the open must abort with nothing
// escrowed instead.
func TestOpenStreamRejectsWrappingDuration(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()

	_, _, err := OpenStream(ctx, w.ledger, w.alice, w.bob, aliceKey, "str_1", 10, 1<<63, 1000)
	if !errors.Is(err, domain.ErrAmountOverflow) {
		t.Fatalf("expected overflow, got %v", err)
	}
	if _, _, err := OpenStream(ctx, w.ledger, w.alice, w.bob, aliceKey, "str_1", 10, 0, 1000); !errors.Is(err, domain.ErrInvalidDuration) {
		t.Fatalf("expected invalid duration, got %v", err)
	}
	if got := w.balance(t, ledger.Spendable(w.alice.ID)); got != 1_000_000 {
		t.Fatalf("failed open moved funds: %d", got)
	}
	if got := w.balance(t, ledger.StreamVault("str_1")); got != 0 {
		t.Fatalf("vault funded by failed open: %d", got)
	}
}

// The schedule from the settlement properties: rate 10/s, deposit 1000,
// window 200s. At t=50 half the deposit is due; at t=150 the accrued 1000 is
// capped by the remaining 500, the stream exhausts exactly, and nothing is
// left to refund.
func TestWithdrawSchedule(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()

	start := w.ledger.Now()
	s, _, err := OpenStream(ctx, w.ledger, w.alice, w.bob, aliceKey, "str_1", 10, 200, 1000)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if got := w.balance(t, ledger.StreamVault(s.ID)); got != 1000 {
		t.Fatalf("vault = %d, want 1000", got)
	}

	w.ledger.SetNow(start + 50)
	ev, err := WithdrawStream(ctx, w.ledger, s, w.bob)
	if err != nil {
		t.Fatalf("withdraw t=50: %v", err)
	}
	if ev.Amount != 500 || ev.TotalWithdrawn != 500 || !ev.IsActive {
		t.Fatalf("unexpected t=50 result: %+v", ev)
	}

	w.ledger.SetNow(start + 150)
	ev, err = WithdrawStream(ctx, w.ledger, s, w.bob)
	if err != nil {
		t.Fatalf("withdraw t=150: %v", err)
	}
	if ev.Amount != 500 || ev.TotalWithdrawn != 1000 || ev.IsActive || ev.RefundedRemainder != 0 {
		t.Fatalf("unexpected t=150 result: %+v", ev)
	}
	if got := w.balance(t, ledger.StreamVault(s.ID)); got != 0 {
		t.Fatalf("vault = %d, want 0 after exhaustion", got)
	}
	if got := w.balance(t, ledger.Spendable(w.bob.ID)); got != 1_001_000 {
		t.Fatalf("receiver balance = %d, want 1001000", got)
	}
	if w.bob.TotalEarned != 1000 {
		t.Fatalf("receiver earned = %d, want 1000", w.bob.TotalEarned)
	}
	// Stream withdrawals never recompute reputation.
	if w.bob.ReputationScore != 0 {
		t.Fatalf("reputation recomputed by stream withdrawal")
	}
}

func TestWithdrawTwiceWithNoElapsedTime(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()

	start := w.ledger.Now()
	s, _, err := OpenStream(ctx, w.ledger, w.alice, w.bob, aliceKey, "str_1", 10, 200, 1000)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	w.ledger.SetNow(start + 50)
	if _, err := WithdrawStream(ctx, w.ledger, s, w.bob); err != nil {
		t.Fatalf("first withdraw: %v", err)
	}
	if _, err := WithdrawStream(ctx, w.ledger, s, w.bob); !errors.Is(err, domain.ErrNothingToWithdraw) {
		t.Fatalf("expected nothing to withdraw, got %v", err)
	}
}

func TestWithdrawPastWindowRefundsRemainder(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()

	start := w.ledger.Now()
	s, _, err := OpenStream(ctx, w.ledger, w.alice, w.bob, aliceKey, "str_1", 10, 100, 6000)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	w.ledger.SetNow(start + 150)
	ev, err := WithdrawStream(ctx, w.ledger, s, w.bob)
	if err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	// Accrual stops at the window end: 100s * 10 = 1000 due, 5000 back to
	// the payer in the same operation.
	if ev.Amount != 1000 || ev.IsActive || ev.RefundedRemainder != 5000 {
		t.Fatalf("unexpected result: %+v", ev)
	}
	if got := w.balance(t, ledger.Spendable(w.alice.ID)); got != 999_000 {
		t.Fatalf("payer balance = %d, want 999000 after remainder refund", got)
	}
	if got := w.balance(t, ledger.StreamVault(s.ID)); got != 0 {
		t.Fatalf("vault = %d, want 0 after close", got)
	}
	if s.IsActive {
		t.Fatalf("stream still active after close")
	}
	if _, err := WithdrawStream(ctx, w.ledger, s, w.bob); !errors.Is(err, domain.ErrStreamNotActive) {
		t.Fatalf("expected inactive stream error, got %v", err)
	}
}

func TestStreamConservation(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()

	start := w.ledger.Now()
	s, _, err := OpenStream(ctx, w.ledger, w.alice, w.bob, aliceKey, "str_1", 7, 300, 3000)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	var withdrawn, refunded uint64
	prev := uint64(0)
	for _, offset := range []int64{13, 99, 180, 500} {
		w.ledger.SetNow(start + offset)
		ev, err := WithdrawStream(ctx, w.ledger, s, w.bob)
		if errors.Is(err, domain.ErrStreamNotActive) {
			break
		}
		if err != nil {
			t.Fatalf("withdraw at +%ds: %v", offset, err)
		}
		if ev.TotalWithdrawn < prev {
			t.Fatalf("withdrawn decreased: %d -> %d", prev, ev.TotalWithdrawn)
		}
		if ev.TotalWithdrawn > s.Deposited {
			t.Fatalf("withdrawn %d exceeds deposit %d", ev.TotalWithdrawn, s.Deposited)
		}
		prev = ev.TotalWithdrawn
		withdrawn += ev.Amount
		refunded += ev.RefundedRemainder
	}
	if s.IsActive {
		t.Fatalf("stream should have closed past its window")
	}
	if withdrawn+refunded != s.Deposited {
		t.Fatalf("conservation violated: withdrawn %d + refunded %d != deposited %d", withdrawn, refunded, s.Deposited)
	}
}

func TestWithdrawClockRegressionYieldsNothing(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()

	start := w.ledger.Now()
	s, _, err := OpenStream(ctx, w.ledger, w.alice, w.bob, aliceKey, "str_1", 10, 200, 1000)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	w.ledger.SetNow(start + 50)
	if _, err := WithdrawStream(ctx, w.ledger, s, w.bob); err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	w.ledger.SetNow(start + 20)
	if _, err := WithdrawStream(ctx, w.ledger, s, w.bob); !errors.Is(err, domain.ErrNothingToWithdraw) {
		t.Fatalf("expected clamp to zero on regressed clock, got %v", err)
	}
	if s.Withdrawn != 500 {
		t.Fatalf("withdrawn changed on regressed clock: %d", s.Withdrawn)
	}
}

func TestWithdrawOverflowAbortsWithoutEffect(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()

	s := &domain.Stream{
		ID:              "str_hot",
		Payer:           w.alice.ID,
		Receiver:        w.bob.ID,
		RatePerSecond:   math.MaxUint64,
		Deposited:       1000,
		StartedAt:       0,
		MaxEndAt:        math.MaxInt64,
		LastWithdrawnAt: 0,
		IsActive:        true,
	}
	w.ledger.SetNow(1 << 20)
	if _, err := WithdrawStream(ctx, w.ledger, s, w.bob); !errors.Is(err, domain.ErrAmountOverflow) {
		t.Fatalf("expected overflow abort, got %v", err)
	}
	if s.Withdrawn != 0 || s.LastWithdrawnAt != 0 || !s.IsActive {
		t.Fatalf("stream mutated on aborted withdrawal: %+v", s)
	}
	if w.bob.TotalEarned != 0 {
		t.Fatalf("receiver credited on aborted withdrawal")
	}
}
