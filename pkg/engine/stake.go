// Package engine implements the settlement operations: reputation staking,
// feedback intake, the escrow payment state machine, and streaming-payment
// accrual. Every operation is stateless logic over the records passed in:
// it reads the substrate clock once, validates before any side effect,
// performs the value movement, mutates the owning records, and returns a
// typed event. Atomicity across those effects is the caller's transaction
// boundary; the engines themselves hold no state and take no locks.
package engine

import (
	"context"

	"github.com/occydefi/solagent-economy/pkg/domain"
	"github.com/occydefi/solagent-economy/pkg/ledger"
)

// StakeReputation moves amount from the agent's spendable balance into its
// stake vault and recomputes the reputation score. Only the agent's
// registered authority may stake.
func StakeReputation(ctx context.Context, l ledger.Ledger, protocol *domain.Protocol, agent *domain.Agent, caller domain.AuthorityKey, amount uint64) (ReputationStaked, error) {
	if amount == 0 {
		return ReputationStaked{}, domain.ErrZeroAmount
	}
	if !l.Authorize(caller, agent.Authority) {
		return ReputationStaked{}, domain.ErrUnauthorized
	}

	staked, err := domain.CheckedAdd(agent.TotalStaked, amount)
	if err != nil {
		return ReputationStaked{}, err
	}
	protocolStaked, err := domain.CheckedAdd(protocol.TotalStaked, amount)
	if err != nil {
		return ReputationStaked{}, err
	}

	if err := l.Transfer(ctx, ledger.Spendable(agent.ID), ledger.StakeVault(agent.ID), amount); err != nil {
		return ReputationStaked{}, err
	}

	agent.TotalStaked = staked
	protocol.TotalStaked = protocolStaked
	agent.RecomputeReputation()

	return ReputationStaked{
		Agent:       agent.ID,
		Amount:      amount,
		NewScore:    agent.ReputationScore,
		TotalStaked: agent.TotalStaked,
	}, nil
}
