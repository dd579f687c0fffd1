package inmem

import (
	"context"
	"errors"
	"testing"

	"github.com/occydefi/solagent-economy/pkg/domain"
	"github.com/occydefi/solagent-economy/pkg/ledger"
)

func TestTransferMovesExactAmount(t *testing.T) {
	l := New()
	a := ledger.Spendable("agt_a")
	b := ledger.Spendable("agt_b")
	l.Credit(a, 100)

	if err := l.Transfer(context.Background(), a, b, 40); err != nil {
		t.Fatalf("unexpected: %v", err)
	}
	if l.Balance(a) != 60 || l.Balance(b) != 40 {
		t.Fatalf("balances %d/%d, want 60/40", l.Balance(a), l.Balance(b))
	}
}

func TestTransferFailsOnShortBalance(t *testing.T) {
	l := New()
	a := ledger.Spendable("agt_a")
	b := ledger.Spendable("agt_b")
	l.Credit(a, 10)

	if err := l.Transfer(context.Background(), a, b, 11); !errors.Is(err, domain.ErrInsufficientFunds) {
		t.Fatalf("expected insufficient funds, got %v", err)
	}
	if l.Balance(a) != 10 || l.Balance(b) != 0 {
		t.Fatalf("balances changed on failed transfer")
	}
}

func TestAuthorize(t *testing.T) {
	l := New()
	if !l.Authorize("key-1", "key-1") {
		t.Fatalf("matching keys must authorize")
	}
	if l.Authorize("key-1", "key-2") {
		t.Fatalf("mismatched keys must not authorize")
	}
	if l.Authorize("", "") {
		t.Fatalf("empty caller must never authorize")
	}
}

func TestClock(t *testing.T) {
	l := New()
	l.SetNow(42)
	if l.Now() != 42 {
		t.Fatalf("clock = %d, want 42", l.Now())
	}
}
