package engine

import (
	"context"

	"github.com/occydefi/solagent-economy/pkg/domain"
	"github.com/occydefi/solagent-economy/pkg/ledger"
)

// OpenStream funds a continuous payment channel: the deposit moves from the
// payer's spendable balance into a vault scoped to the stream, and accrual
// starts at the current clock reading.
func OpenStream(ctx context.Context, l ledger.Ledger, payer, receiver *domain.Agent, caller domain.AuthorityKey, id domain.StreamID, ratePerSecond, maxDurationSeconds, deposit uint64) (*domain.Stream, StreamCreated, error) {
	now := l.Now()
	stream, err := domain.NewStream(id, payer.ID, receiver.ID, ratePerSecond, maxDurationSeconds, deposit, now)
	if err != nil {
		return nil, StreamCreated{}, err
	}
	if !l.Authorize(caller, payer.Authority) {
		return nil, StreamCreated{}, domain.ErrUnauthorized
	}

	if err := l.Transfer(ctx, ledger.Spendable(payer.ID), ledger.StreamVault(id), deposit); err != nil {
		return nil, StreamCreated{}, err
	}

	return stream, StreamCreated{
		Stream:        stream.ID,
		Payer:         stream.Payer,
		Receiver:      stream.Receiver,
		RatePerSecond: ratePerSecond,
		Deposit:       deposit,
	}, nil
}

// WithdrawStream pays out everything accrued since the last withdrawal,
// capped by the remaining deposit and the duration window. Callable by
// anyone; the funds only ever move to the receiver's spendable balance.
// LastWithdrawnAt advances to now (not the capped end time), so a withdrawal
// exactly at the cap cannot re-trigger accrual on the next call. When the
// deposit is exhausted or the window has closed, the stream deactivates and
// any remainder refunds to the payer in the same operation.
func WithdrawStream(ctx context.Context, l ledger.Ledger, stream *domain.Stream, receiver *domain.Agent) (StreamWithdrawn, error) {
	if !stream.IsActive {
		return StreamWithdrawn{}, domain.ErrStreamNotActive
	}

	now := l.Now()
	acc, err := stream.AccrueAt(now)
	if err != nil {
		return StreamWithdrawn{}, err
	}
	if acc.Withdraw == 0 {
		return StreamWithdrawn{}, domain.ErrNothingToWithdraw
	}

	withdrawn, err := domain.CheckedAdd(stream.Withdrawn, acc.Withdraw)
	if err != nil {
		return StreamWithdrawn{}, err
	}
	earned, err := domain.CheckedAdd(receiver.TotalEarned, acc.Withdraw)
	if err != nil {
		return StreamWithdrawn{}, err
	}

	if err := l.Transfer(ctx, ledger.StreamVault(stream.ID), ledger.Spendable(receiver.ID), acc.Withdraw); err != nil {
		return StreamWithdrawn{}, err
	}

	stream.Withdrawn = withdrawn
	stream.LastWithdrawnAt = now
	receiver.TotalEarned = earned

	var refunded uint64
	if stream.Exhausted(now) {
		stream.IsActive = false
		remaining, err := domain.CheckedSub(stream.Deposited, stream.Withdrawn)
		if err != nil {
			return StreamWithdrawn{}, err
		}
		if remaining > 0 {
			if err := l.Transfer(ctx, ledger.StreamVault(stream.ID), ledger.Spendable(stream.Payer), remaining); err != nil {
				return StreamWithdrawn{}, err
			}
			refunded = remaining
		}
	}

	return StreamWithdrawn{
		Stream:            stream.ID,
		Amount:            acc.Withdraw,
		TotalWithdrawn:    stream.Withdrawn,
		IsActive:          stream.IsActive,
		RefundedRemainder: refunded,
	}, nil
}
