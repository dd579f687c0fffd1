// Package ledger defines the boundary to the external ledger substrate: an
// atomic balance-transfer primitive over keyed sub-accounts, a monotonic
// clock, and cryptographic caller authorization. The settlement engines
// consume this interface; they never implement consensus, ordering, or key
// management themselves.
package ledger

import (
	"context"

	"github.com/occydefi/solagent-economy/pkg/domain"
)

// SubAccount names a balance bucket on the substrate. Derivations are
// deterministic in the owning record's id, so each payment escrow and each
// stream vault is isolated from every other balance.
type SubAccount string

// Spendable is an agent's freely transferable balance.
func Spendable(id domain.AgentID) SubAccount {
	return SubAccount("wallet:" + string(id))
}

// StakeVault holds an agent's reputation stake.
func StakeVault(id domain.AgentID) SubAccount {
	return SubAccount("stake:" + string(id))
}

// Escrow holds exactly one payment's amount for the payment's lifetime.
func Escrow(id domain.PaymentID) SubAccount {
	return SubAccount("escrow:" + string(id))
}

// StreamVault holds one stream's remaining deposit.
func StreamVault(id domain.StreamID) SubAccount {
	return SubAccount("streamvault:" + string(id))
}

// Ledger is the substrate contract. Implementations must make Transfer
// atomic (debit and credit together or not at all, failing on insufficient
// balance) and must serialize concurrent operations touching the same
// records; the engines perform no locking of their own.
type Ledger interface {
	// Transfer moves amount from one sub-account to another. Fails with
	// domain.ErrInsufficientFunds if the source balance is short.
	Transfer(ctx context.Context, from, to SubAccount, amount uint64) error

	// Now returns the substrate clock in unix seconds. Read once per
	// operation; all duration math within an operation uses that single
	// reading.
	Now() int64

	// Authorize reports whether the acting caller controls the required
	// authority key.
	Authorize(caller, required domain.AuthorityKey) bool
}
