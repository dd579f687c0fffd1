package engine

import (
	"testing"

	"github.com/occydefi/solagent-economy/pkg/domain"
	"github.com/occydefi/solagent-economy/pkg/ledger"
	"github.com/occydefi/solagent-economy/pkg/ledger/inmem"
)

const (
	aliceKey = domain.AuthorityKey("alice-authority")
	bobKey   = domain.AuthorityKey("bob-authority")
)

// world is a funded two-agent fixture: alice pays, bob provides a service.
type world struct {
	ledger   *inmem.Ledger
	protocol *domain.Protocol
	alice    *domain.Agent
	bob      *domain.Agent
	service  *domain.Service
}

func newWorld(t *testing.T) *world {
	t.Helper()

	l := inmem.New()
	l.SetNow(1_700_000_000)

	alice, err := domain.NewAgent("agt_alice", aliceKey, "alice", "requester", nil, "https://alice.example", l.Now())
	if err != nil {
		t.Fatalf("alice: %v", err)
	}
	bob, err := domain.NewAgent("agt_bob", bobKey, "bob", "provider", []string{"translate"}, "https://bob.example", l.Now())
	if err != nil {
		t.Fatalf("bob: %v", err)
	}
	svc, err := domain.NewService("svc_translate", bob.ID, bobKey, "Translation", "en->fr", 1000, domain.PriceFixed, []string{"nlp"}, l.Now())
	if err != nil {
		t.Fatalf("service: %v", err)
	}

	l.Credit(ledger.Spendable(alice.ID), 1_000_000)
	l.Credit(ledger.Spendable(bob.ID), 1_000_000)

	return &world{ledger: l, protocol: domain.NewProtocol("protocol-authority"), alice: alice, bob: bob, service: svc}
}

func (w *world) balance(t *testing.T, acct ledger.SubAccount) uint64 {
	t.Helper()
	return w.ledger.Balance(acct)
}
