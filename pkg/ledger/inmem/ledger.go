// Package inmem implements the ledger substrate in memory: a mutex-guarded
// balance map with a settable clock. It backs the engine tests and dev mode;
// production runs against the transactional store-backed ledger.
package inmem

import (
	"context"
	"sync"

	"github.com/occydefi/solagent-economy/pkg/domain"
	"github.com/occydefi/solagent-economy/pkg/ledger"
)

type Ledger struct {
	mu       sync.Mutex
	balances map[ledger.SubAccount]uint64
	now      int64
}

var _ ledger.Ledger = (*Ledger)(nil)

func New() *Ledger {
	return &Ledger{balances: map[ledger.SubAccount]uint64{}}
}

// SetNow moves the clock to a fixed reading. The substrate clock is
// monotonic in production; tests that move it backwards are exercising the
// engine's regression clamp, not a supported substrate behavior.
func (l *Ledger) SetNow(now int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.now = now
}

func (l *Ledger) Now() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.now
}

// Credit funds an account directly, outside any settlement operation.
func (l *Ledger) Credit(account ledger.SubAccount, amount uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[account] += amount
}

func (l *Ledger) Balance(account ledger.SubAccount) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[account]
}

func (l *Ledger) Transfer(_ context.Context, from, to ledger.SubAccount, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	src, err := domain.CheckedSub(l.balances[from], amount)
	if err != nil {
		return err
	}
	dst, err := domain.CheckedAdd(l.balances[to], amount)
	if err != nil {
		return err
	}
	l.balances[from] = src
	l.balances[to] = dst
	return nil
}

func (l *Ledger) Authorize(caller, required domain.AuthorityKey) bool {
	return caller != "" && caller == required
}
