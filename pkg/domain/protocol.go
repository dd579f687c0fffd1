package domain

// DefaultFeeBps is the protocol fee in basis points (0.1%).
const DefaultFeeBps = 10

// Protocol holds the global counters. One row exists; it is loaded and
// updated inside the same transaction as the operation that touches it,
// never held as ambient global state.
type Protocol struct {
	Authority     AuthorityKey
	TotalAgents   uint64
	TotalServices uint64
	TotalPayments uint64
	TotalVolume   uint64
	TotalStaked   uint64
	FeeBps        uint16
	Treasury      AuthorityKey
}

func NewProtocol(authority AuthorityKey) *Protocol {
	return &Protocol{
		Authority: authority,
		FeeBps:    DefaultFeeBps,
		Treasury:  authority,
	}
}
