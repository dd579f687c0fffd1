package engine

import (
	"context"

	"github.com/occydefi/solagent-economy/pkg/domain"
	"github.com/occydefi/solagent-economy/pkg/ledger"
)

// PayForService opens an escrow: amount moves from the payer's spendable
// balance into a sub-account scoped to the new payment, and the payer,
// service, and protocol counters advance. All checked arithmetic runs before
// the transfer so a failing increment leaves no effect behind.
func PayForService(ctx context.Context, l ledger.Ledger, protocol *domain.Protocol, payer, receiver *domain.Agent, service *domain.Service, caller domain.AuthorityKey, id domain.PaymentID, amount uint64, intent string, conditions []string, timeoutSeconds int64) (*domain.Payment, PaymentCreated, error) {
	now := l.Now()
	payment, err := domain.NewPayment(id, payer.ID, receiver.ID, service.ID, amount, intent, conditions, timeoutSeconds, now)
	if err != nil {
		return nil, PaymentCreated{}, err
	}
	if !l.Authorize(caller, payer.Authority) {
		return nil, PaymentCreated{}, domain.ErrUnauthorized
	}

	requested, err := domain.CheckedAdd(payer.ServicesRequested, 1)
	if err != nil {
		return nil, PaymentCreated{}, err
	}
	spent, err := domain.CheckedAdd(payer.TotalSpent, amount)
	if err != nil {
		return nil, PaymentCreated{}, err
	}
	orders, err := domain.CheckedAdd(service.TotalOrders, 1)
	if err != nil {
		return nil, PaymentCreated{}, err
	}
	payments, err := domain.CheckedAdd(protocol.TotalPayments, 1)
	if err != nil {
		return nil, PaymentCreated{}, err
	}
	volume, err := domain.CheckedAdd(protocol.TotalVolume, amount)
	if err != nil {
		return nil, PaymentCreated{}, err
	}

	if err := l.Transfer(ctx, ledger.Spendable(payer.ID), ledger.Escrow(id), amount); err != nil {
		return nil, PaymentCreated{}, err
	}

	payer.ServicesRequested = requested
	payer.TotalSpent = spent
	service.TotalOrders = orders
	protocol.TotalPayments = payments
	protocol.TotalVolume = volume

	return payment, PaymentCreated{
		Payment:  payment.ID,
		Payer:    payment.Payer,
		Receiver: payment.Receiver,
		Amount:   amount,
		Intent:   intent,
	}, nil
}

// ReleasePayment settles an escrowed payment to the receiver. Allowed only
// from Escrowed, only by the payer's registered authority. The full escrowed
// amount moves in one transfer; there are no partial releases.
func ReleasePayment(ctx context.Context, l ledger.Ledger, payment *domain.Payment, payer, receiver *domain.Agent, service *domain.Service, caller domain.AuthorityKey) (PaymentReleased, error) {
	if payment.Status != domain.StatusEscrowed {
		return PaymentReleased{}, domain.ErrInvalidState
	}
	if !l.Authorize(caller, payer.Authority) {
		return PaymentReleased{}, domain.ErrUnauthorized
	}

	completed, err := domain.CheckedAdd(receiver.ServicesCompleted, 1)
	if err != nil {
		return PaymentReleased{}, err
	}
	earned, err := domain.CheckedAdd(receiver.TotalEarned, payment.Amount)
	if err != nil {
		return PaymentReleased{}, err
	}
	revenue, err := domain.CheckedAdd(service.TotalRevenue, payment.Amount)
	if err != nil {
		return PaymentReleased{}, err
	}

	if err := l.Transfer(ctx, ledger.Escrow(payment.ID), ledger.Spendable(receiver.ID), payment.Amount); err != nil {
		return PaymentReleased{}, err
	}

	now := l.Now()
	payment.Status = domain.StatusReleased
	payment.CompletedAt = now
	receiver.ServicesCompleted = completed
	receiver.TotalEarned = earned
	service.TotalRevenue = revenue
	receiver.RecomputeReputation()

	return PaymentReleased{
		Payment:   payment.ID,
		Receiver:  payment.Receiver,
		Amount:    payment.Amount,
		LatencyMS: uint64(payment.CompletedAt-payment.CreatedAt) * 1000,
	}, nil
}

// RefundPayment returns an escrowed payment to the payer. Anyone may trigger
// it after the timeout; before the timeout only the payer's authority may
// cancel. When both hold, the recorded reason is timeout.
func RefundPayment(ctx context.Context, l ledger.Ledger, payment *domain.Payment, payer *domain.Agent, caller domain.AuthorityKey) (PaymentRefunded, error) {
	if payment.Status != domain.StatusEscrowed {
		return PaymentRefunded{}, domain.ErrInvalidState
	}

	now := l.Now()
	isTimeout := now > payment.TimeoutAt
	isPayer := l.Authorize(caller, payer.Authority)
	if !isTimeout && !isPayer {
		return PaymentRefunded{}, domain.ErrRefundNotAllowed
	}

	if err := l.Transfer(ctx, ledger.Escrow(payment.ID), ledger.Spendable(payer.ID), payment.Amount); err != nil {
		return PaymentRefunded{}, err
	}

	payment.Status = domain.StatusRefunded
	payment.CompletedAt = now

	reason := domain.RefundPayerCancelled
	if isTimeout {
		reason = domain.RefundTimeout
	}
	return PaymentRefunded{
		Payment: payment.ID,
		Payer:   payment.Payer,
		Amount:  payment.Amount,
		Reason:  reason,
	}, nil
}
