package domain

import "errors"

// Validation errors. Rejected before any side effect.
var (
	ErrNameTooLong         = errors.New("name exceeds 32 characters")
	ErrDescriptionTooLong  = errors.New("description exceeds 256 characters")
	ErrTooManyCapabilities = errors.New("too many capabilities (max 10)")
	ErrCapabilityTooLong   = errors.New("capability exceeds 32 characters")
	ErrEndpointTooLong     = errors.New("endpoint exceeds 128 characters")
	ErrTitleTooLong        = errors.New("title exceeds 64 characters")
	ErrTooManyTags         = errors.New("too many tags (max 5)")
	ErrTagTooLong          = errors.New("tag exceeds 32 characters")
	ErrZeroAmount          = errors.New("amount must be greater than zero")
	ErrInvalidRating       = errors.New("rating must be between 1 and 5")
	ErrCommentTooLong      = errors.New("comment exceeds 256 characters")
	ErrIntentTooLong       = errors.New("intent exceeds 256 characters")
	ErrTooManyConditions   = errors.New("too many conditions (max 5)")
	ErrConditionTooLong    = errors.New("condition exceeds 64 characters")
	ErrInvalidTimeout      = errors.New("timeout must be greater than zero")
	ErrInvalidPriceModel   = errors.New("unknown price model")
	ErrZeroRate            = errors.New("rate must be greater than zero")
	ErrInvalidDuration     = errors.New("duration must be greater than zero")
	ErrInsufficientDeposit = errors.New("deposit below one minute of streaming")
)

// State errors. The record is not in the status the operation requires.
var (
	ErrInvalidState      = errors.New("payment is not in escrowed state")
	ErrStreamNotActive   = errors.New("stream is not active")
	ErrNothingToWithdraw = errors.New("nothing to withdraw")
	ErrDuplicateFeedback = errors.New("feedback already submitted for this pair")
)

// Authorization errors.
var (
	ErrUnauthorized     = errors.New("unauthorized")
	ErrRefundNotAllowed = errors.New("refund not allowed")
)

// Arithmetic errors. Fatal to the operation, never saturated or wrapped.
var (
	ErrAmountOverflow    = errors.New("amount overflows 64 bits")
	ErrInsufficientFunds = errors.New("insufficient funds")
)
