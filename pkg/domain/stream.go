package domain

import "math"

// StreamID identifies a continuous payment channel ("str_" + uuid).
type StreamID string

// MinStreamRunwaySeconds is the minimum deposit expressed in seconds of
// streaming. A stream must be funded for at least one minute, preventing
// dust streams.
const MinStreamRunwaySeconds = 60

// Stream accrues value continuously at RatePerSecond against a capped
// deposit and duration window. Withdrawn never exceeds Deposited;
// LastWithdrawnAt only moves forward; once IsActive is false it never
// reactivates.
type Stream struct {
	ID       StreamID
	Payer    AgentID
	Receiver AgentID

	RatePerSecond uint64
	Deposited     uint64
	Withdrawn     uint64

	StartedAt       int64
	MaxEndAt        int64
	LastWithdrawnAt int64
	IsActive        bool
}

// NewStream validates the open-time fields. The caller funds the stream's
// vault sub-account with deposit in the same atomic operation.
func NewStream(id StreamID, payer, receiver AgentID, ratePerSecond, maxDurationSeconds, deposit uint64, now int64) (*Stream, error) {
	if ratePerSecond == 0 {
		return nil, ErrZeroRate
	}
	if maxDurationSeconds == 0 {
		return nil, ErrInvalidDuration
	}
	// MaxEndAt must not wrap: a negative end time would clamp accrual to
	// zero forever and strand the deposit in the vault.
	if maxDurationSeconds > uint64(math.MaxInt64) || now > math.MaxInt64-int64(maxDurationSeconds) {
		return nil, ErrAmountOverflow
	}
	runway, err := CheckedMul(ratePerSecond, MinStreamRunwaySeconds)
	if err != nil {
		return nil, err
	}
	if deposit < runway {
		return nil, ErrInsufficientDeposit
	}
	return &Stream{
		ID:              id,
		Payer:           payer,
		Receiver:        receiver,
		RatePerSecond:   ratePerSecond,
		Deposited:       deposit,
		StartedAt:       now,
		MaxEndAt:        now + int64(maxDurationSeconds),
		LastWithdrawnAt: now,
		IsActive:        true,
	}, nil
}

// Accrual is the withdrawal math for one clock reading.
type Accrual struct {
	Elapsed   int64
	AmountDue uint64
	Available uint64
	Withdraw  uint64
}

// AccrueAt computes how much is withdrawable at now. Accrual stops at
// MaxEndAt; a regressed clock clamps elapsed to zero rather than going
// negative. The rate multiplication is overflow-checked and aborts the
// operation on overflow.
func (s *Stream) AccrueAt(now int64) (Accrual, error) {
	end := now
	if s.MaxEndAt < end {
		end = s.MaxEndAt
	}
	elapsed := end - s.LastWithdrawnAt
	if elapsed < 0 {
		elapsed = 0
	}
	due, err := CheckedMul(uint64(elapsed), s.RatePerSecond)
	if err != nil {
		return Accrual{}, err
	}
	available, err := CheckedSub(s.Deposited, s.Withdrawn)
	if err != nil {
		return Accrual{}, err
	}
	return Accrual{
		Elapsed:   elapsed,
		AmountDue: due,
		Available: available,
		Withdraw:  min(due, available),
	}, nil
}

// Exhausted reports whether the stream should auto-close at now: fully
// withdrawn or past its duration window.
func (s *Stream) Exhausted(now int64) bool {
	return s.Withdrawn >= s.Deposited || now >= s.MaxEndAt
}
