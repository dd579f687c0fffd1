package domain

// AgentID identifies an agent record ("agt_" + uuid).
type AgentID string

// AuthorityKey is the key that controls an agent's funds and signs its
// operations. Verified by the ledger substrate, opaque here.
type AuthorityKey string

const (
	MaxNameLen        = 32
	MaxDescriptionLen = 256
	MaxCapabilities   = 10
	MaxCapabilityLen  = 32
	MaxEndpointLen    = 128
)

// Agent is an identity record with cumulative settlement counters. All
// counters are monotonically non-decreasing; ReputationScore is always
// Score(TotalStaked, FeedbacksReceived, ServicesCompleted) and is never set
// independently of those inputs.
type Agent struct {
	ID           AgentID
	Authority    AuthorityKey
	Name         string
	Description  string
	Capabilities []string
	Endpoint     string

	ReputationScore   uint64
	TotalStaked       uint64
	TotalEarned       uint64
	TotalSpent        uint64
	ServicesCompleted uint64
	ServicesRequested uint64
	FeedbacksReceived uint64

	RegisteredAt int64
	IsActive     bool
}

// NewAgent validates the display metadata and returns a fresh record with
// zeroed counters.
func NewAgent(id AgentID, authority AuthorityKey, name, description string, capabilities []string, endpoint string, now int64) (*Agent, error) {
	if len(name) > MaxNameLen {
		return nil, ErrNameTooLong
	}
	if len(description) > MaxDescriptionLen {
		return nil, ErrDescriptionTooLong
	}
	if len(capabilities) > MaxCapabilities {
		return nil, ErrTooManyCapabilities
	}
	for _, c := range capabilities {
		if len(c) > MaxCapabilityLen {
			return nil, ErrCapabilityTooLong
		}
	}
	if len(endpoint) > MaxEndpointLen {
		return nil, ErrEndpointTooLong
	}
	return &Agent{
		ID:           id,
		Authority:    authority,
		Name:         name,
		Description:  description,
		Capabilities: capabilities,
		Endpoint:     endpoint,
		RegisteredAt: now,
		IsActive:     true,
	}, nil
}

// RecomputeReputation re-derives ReputationScore from the counters. Called
// after every mutation of a scoring input.
func (a *Agent) RecomputeReputation() {
	a.ReputationScore = Score(a.TotalStaked, a.FeedbacksReceived, a.ServicesCompleted)
}
