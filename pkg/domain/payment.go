package domain

// PaymentID identifies one escrow instance ("pay_" + uuid).
type PaymentID string

type PaymentStatus string

const (
	StatusEscrowed PaymentStatus = "ESCROWED"
	StatusReleased PaymentStatus = "RELEASED"
	StatusRefunded PaymentStatus = "REFUNDED"
	StatusDisputed PaymentStatus = "DISPUTED"
)

// Terminal reports whether the status is absorbing. Released, Refunded, and
// Disputed permit no further transitions.
func (s PaymentStatus) Terminal() bool {
	return s == StatusReleased || s == StatusRefunded || s == StatusDisputed
}

type RefundReason string

const (
	RefundTimeout        RefundReason = "timeout"
	RefundPayerCancelled RefundReason = "payer_cancelled"
)

const (
	MaxIntentLen    = 256
	MaxConditions   = 5
	MaxConditionLen = 64
)

// Payment is a single escrow instance. Amount is fixed at creation and is
// exactly the value held in the payment's escrow sub-account until a
// terminal status moves it out in full.
type Payment struct {
	ID       PaymentID
	Payer    AgentID
	Receiver AgentID
	Service  ServiceID

	Amount     uint64
	Intent     string
	Conditions []string

	Status      PaymentStatus
	CreatedAt   int64
	TimeoutAt   int64
	CompletedAt int64
}

// NewPayment validates the create-time fields and returns an escrowed
// payment. The caller is responsible for funding the escrow sub-account with
// Amount in the same atomic operation.
func NewPayment(id PaymentID, payer, receiver AgentID, service ServiceID, amount uint64, intent string, conditions []string, timeoutSeconds, now int64) (*Payment, error) {
	if amount == 0 {
		return nil, ErrZeroAmount
	}
	if len(intent) > MaxIntentLen {
		return nil, ErrIntentTooLong
	}
	if len(conditions) > MaxConditions {
		return nil, ErrTooManyConditions
	}
	for _, c := range conditions {
		if len(c) > MaxConditionLen {
			return nil, ErrConditionTooLong
		}
	}
	if timeoutSeconds <= 0 {
		return nil, ErrInvalidTimeout
	}
	return &Payment{
		ID:         id,
		Payer:      payer,
		Receiver:   receiver,
		Service:    service,
		Amount:     amount,
		Intent:     intent,
		Conditions: conditions,
		Status:     StatusEscrowed,
		CreatedAt:  now,
		TimeoutAt:  now + timeoutSeconds,
	}, nil
}
