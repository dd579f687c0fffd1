package store

import (
	"context"
	"math"

	"github.com/occydefi/solagent-economy/pkg/domain"
	"github.com/occydefi/solagent-economy/pkg/ledger"
)

// TxLedger backs the ledger boundary with the balances table, scoped to one
// transaction. The clock is read once at construction so every arithmetic
// step of an operation sees the same now.
type TxLedger struct {
	db  DBTX
	now int64
}

func NewTxLedger(db DBTX, now int64) *TxLedger {
	return &TxLedger{db: db, now: now}
}

var _ ledger.Ledger = (*TxLedger)(nil)

func (l *TxLedger) Now() int64 { return l.now }

func (l *TxLedger) Authorize(caller, required domain.AuthorityKey) bool {
	return caller != "" && caller == required
}

func (l *TxLedger) Transfer(ctx context.Context, from, to ledger.SubAccount, amount uint64) error {
	if amount == 0 {
		return domain.ErrZeroAmount
	}
	// The balances column is a signed BIGINT; an amount past MaxInt64 would
	// bind as a negative parameter and turn the debit into a credit.
	if amount > math.MaxInt64 {
		return domain.ErrAmountOverflow
	}
	// Debit conditionally; zero rows means the source cannot cover it.
	tag, err := l.db.Exec(ctx, `
UPDATE balances SET balance = balance - $2 WHERE account = $1 AND balance >= $2
`, string(from), int64(amount))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrInsufficientFunds
	}
	_, err = l.db.Exec(ctx, `
INSERT INTO balances(account, balance) VALUES($1,$2)
ON CONFLICT (account) DO UPDATE SET balance = balances.balance + EXCLUDED.balance
`, string(to), int64(amount))
	return err
}
