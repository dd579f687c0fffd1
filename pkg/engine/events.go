package engine

import "github.com/occydefi/solagent-economy/pkg/domain"

// Event is the structured result every successful operation emits. The
// service layer persists events and delivers them to webhook sinks; the
// engines only construct them.
type Event interface {
	Type() string
}

type ProtocolInitialized struct {
	Authority domain.AuthorityKey `json:"authority"`
	Timestamp int64               `json:"timestamp"`
}

func (ProtocolInitialized) Type() string { return "PROTOCOL_INITIALIZED" }

type AgentRegistered struct {
	Agent     domain.AgentID      `json:"agent"`
	Authority domain.AuthorityKey `json:"authority"`
	Name      string              `json:"name"`
	Timestamp int64               `json:"timestamp"`
}

func (AgentRegistered) Type() string { return "AGENT_REGISTERED" }

type ReputationStaked struct {
	Agent       domain.AgentID `json:"agent"`
	Amount      uint64         `json:"amount"`
	NewScore    uint64         `json:"new_score"`
	TotalStaked uint64         `json:"total_staked"`
}

func (ReputationStaked) Type() string { return "REPUTATION_STAKED" }

type FeedbackSubmitted struct {
	From          domain.AgentID `json:"from"`
	To            domain.AgentID `json:"to"`
	Rating        uint8          `json:"rating"`
	NewReputation uint64         `json:"new_reputation"`
}

func (FeedbackSubmitted) Type() string { return "FEEDBACK_SUBMITTED" }

type ServiceCreated struct {
	Service    domain.ServiceID  `json:"service"`
	Provider   domain.AgentID    `json:"provider"`
	Title      string            `json:"title"`
	Price      uint64            `json:"price"`
	PriceModel domain.PriceModel `json:"price_model"`
}

func (ServiceCreated) Type() string { return "SERVICE_CREATED" }

type PaymentCreated struct {
	Payment  domain.PaymentID `json:"payment"`
	Payer    domain.AgentID   `json:"payer"`
	Receiver domain.AgentID   `json:"receiver"`
	Amount   uint64           `json:"amount"`
	Intent   string           `json:"intent"`
}

func (PaymentCreated) Type() string { return "PAYMENT_CREATED" }

type PaymentReleased struct {
	Payment   domain.PaymentID `json:"payment"`
	Receiver  domain.AgentID   `json:"receiver"`
	Amount    uint64           `json:"amount"`
	LatencyMS uint64           `json:"latency_ms"`
}

func (PaymentReleased) Type() string { return "PAYMENT_RELEASED" }

type PaymentRefunded struct {
	Payment domain.PaymentID    `json:"payment"`
	Payer   domain.AgentID      `json:"payer"`
	Amount  uint64              `json:"amount"`
	Reason  domain.RefundReason `json:"reason"`
}

func (PaymentRefunded) Type() string { return "PAYMENT_REFUNDED" }

type StreamCreated struct {
	Stream        domain.StreamID `json:"stream"`
	Payer         domain.AgentID  `json:"payer"`
	Receiver      domain.AgentID  `json:"receiver"`
	RatePerSecond uint64          `json:"rate_per_second"`
	Deposit       uint64          `json:"deposit"`
}

func (StreamCreated) Type() string { return "STREAM_CREATED" }

type StreamWithdrawn struct {
	Stream            domain.StreamID `json:"stream"`
	Amount            uint64          `json:"amount"`
	TotalWithdrawn    uint64          `json:"total_withdrawn"`
	IsActive          bool            `json:"is_active"`
	RefundedRemainder uint64          `json:"refunded_remainder"`
}

func (StreamWithdrawn) Type() string { return "STREAM_WITHDRAWN" }
