package main

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/occydefi/solagent-economy/pkg/domain"
	"github.com/occydefi/solagent-economy/services/settlement/internal/store"
)

func nowUnix() int64 { return time.Now().Unix() }

// lockAgents takes FOR UPDATE locks on two agent rows in lexical ID order,
// so concurrent operations over the same pair cannot deadlock. The returned
// records match the argument order.
func lockAgents(ctx context.Context, tx pgx.Tx, first, second domain.AgentID) (*domain.Agent, *domain.Agent, error) {
	if first == second {
		a, err := store.GetAgentForUpdate(ctx, tx, first)
		return a, a, err
	}
	lo, hi := first, second
	if hi < lo {
		lo, hi = hi, lo
	}
	loAgent, err := store.GetAgentForUpdate(ctx, tx, lo)
	if err != nil {
		return nil, nil, err
	}
	hiAgent, err := store.GetAgentForUpdate(ctx, tx, hi)
	if err != nil {
		return nil, nil, err
	}
	if lo == first {
		return loAgent, hiAgent, nil
	}
	return hiAgent, loAgent, nil
}
