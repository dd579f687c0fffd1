package solagent

// Agent mirrors the service's agent view.
type Agent struct {
	AgentID           string   `json:"agent_id"`
	Authority         string   `json:"authority"`
	Name              string   `json:"name"`
	Description       string   `json:"description"`
	Capabilities      []string `json:"capabilities"`
	Endpoint          string   `json:"endpoint"`
	ReputationScore   uint64   `json:"reputation_score"`
	TotalStaked       uint64   `json:"total_staked"`
	TotalEarned       uint64   `json:"total_earned"`
	TotalSpent        uint64   `json:"total_spent"`
	ServicesCompleted uint64   `json:"services_completed"`
	ServicesRequested uint64   `json:"services_requested"`
	FeedbacksReceived uint64   `json:"feedbacks_received"`
	RegisteredAt      int64    `json:"registered_at"`
	IsActive          bool     `json:"is_active"`
}

type Service struct {
	ServiceID     string   `json:"service_id"`
	ProviderID    string   `json:"provider_id"`
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	PriceLamports uint64   `json:"price_lamports"`
	PriceModel    string   `json:"price_model"`
	Tags          []string `json:"tags"`
	TotalOrders   uint64   `json:"total_orders"`
	TotalRevenue  uint64   `json:"total_revenue"`
	IsActive      bool     `json:"is_active"`
	CreatedAt     int64    `json:"created_at"`
}

type Payment struct {
	PaymentID   string   `json:"payment_id"`
	PayerID     string   `json:"payer_id"`
	ReceiverID  string   `json:"receiver_id"`
	ServiceID   string   `json:"service_id"`
	Amount      uint64   `json:"amount"`
	Intent      string   `json:"intent"`
	Conditions  []string `json:"conditions"`
	Status      string   `json:"status"`
	CreatedAt   int64    `json:"created_at"`
	TimeoutAt   int64    `json:"timeout_at"`
	CompletedAt int64    `json:"completed_at"`
}

type Stream struct {
	StreamID        string `json:"stream_id"`
	PayerID         string `json:"payer_id"`
	ReceiverID      string `json:"receiver_id"`
	RatePerSecond   uint64 `json:"rate_per_second"`
	Deposited       uint64 `json:"deposited"`
	Withdrawn       uint64 `json:"withdrawn"`
	StartedAt       int64  `json:"started_at"`
	MaxEndAt        int64  `json:"max_end_at"`
	LastWithdrawnAt int64  `json:"last_withdrawn_at"`
	IsActive        bool   `json:"is_active"`
}

type Protocol struct {
	Authority     string `json:"authority"`
	Treasury      string `json:"treasury"`
	FeeBps        uint16 `json:"fee_bps"`
	TotalAgents   uint64 `json:"total_agents"`
	TotalServices uint64 `json:"total_services"`
	TotalPayments uint64 `json:"total_payments"`
	TotalVolume   uint64 `json:"total_volume"`
	TotalStaked   uint64 `json:"total_staked"`
}

type Feedback struct {
	Rater     string `json:"rater"`
	Ratee     string `json:"ratee"`
	Rating    uint8  `json:"rating"`
	Comment   string `json:"comment"`
	Timestamp int64  `json:"timestamp"`
}

type Balance struct {
	AgentID   string `json:"agent_id"`
	Spendable uint64 `json:"spendable"`
	Staked    uint64 `json:"staked"`
}

type RegisterAgentRequest struct {
	Authority    string   `json:"authority"`
	Name         string   `json:"name"`
	Description  string   `json:"description,omitempty"`
	Capabilities []string `json:"capabilities,omitempty"`
	Endpoint     string   `json:"endpoint,omitempty"`
}

// RegisterAgentResult carries the bearer token; it is returned exactly once.
type RegisterAgentResult struct {
	Agent Agent  `json:"agent"`
	Token string `json:"token"`
}

type CreateServiceRequest struct {
	Title         string   `json:"title"`
	Description   string   `json:"description,omitempty"`
	PriceLamports uint64   `json:"price_lamports"`
	PriceModel    string   `json:"price_model"`
	Tags          []string `json:"tags,omitempty"`
}

type CreatePaymentRequest struct {
	ServiceID      string   `json:"service_id"`
	Amount         uint64   `json:"amount"`
	Intent         string   `json:"intent,omitempty"`
	Conditions     []string `json:"conditions,omitempty"`
	TimeoutSeconds int64    `json:"timeout_seconds"`
}

type OpenStreamRequest struct {
	ReceiverID         string `json:"receiver_id"`
	RatePerSecond      uint64 `json:"rate_per_second"`
	MaxDurationSeconds uint64 `json:"max_duration_seconds"`
	Deposit            uint64 `json:"deposit"`
}

type SubmitFeedbackRequest struct {
	RateeID string `json:"ratee_id"`
	Rating  uint8  `json:"rating"`
	Comment string `json:"comment,omitempty"`
}

type WithdrawResult struct {
	Stream    Stream `json:"stream"`
	Withdrawn uint64 `json:"withdrawn"`
	Refunded  uint64 `json:"refunded"`
}

type ReleaseResult struct {
	Payment   Payment `json:"payment"`
	LatencyMS uint64  `json:"latency_ms"`
}

type RefundResult struct {
	Payment Payment `json:"payment"`
	Reason  string  `json:"reason"`
}

type FeedbackResult struct {
	From          string `json:"from"`
	To            string `json:"to"`
	Rating        uint8  `json:"rating"`
	NewReputation uint64 `json:"new_reputation"`
}

type StakeResult struct {
	AgentID     string `json:"agent_id"`
	NewScore    uint64 `json:"new_score"`
	TotalStaked uint64 `json:"total_staked"`
}
