package domain

// ServiceID identifies a marketplace listing ("svc_" + uuid).
type ServiceID string

type PriceModel string

const (
	PriceFixed      PriceModel = "FIXED"
	PricePerRequest PriceModel = "PER_REQUEST"
	PricePerSecond  PriceModel = "PER_SECOND"
	PricePerToken   PriceModel = "PER_TOKEN"
	PriceAuction    PriceModel = "AUCTION"
)

func ValidPriceModel(m PriceModel) bool {
	switch m {
	case PriceFixed, PricePerRequest, PricePerSecond, PricePerToken, PriceAuction:
		return true
	}
	return false
}

const (
	MaxTitleLen = 64
	MaxTags     = 5
	MaxTagLen   = 32
)

// Service is a marketplace listing owned by one provider agent.
// TotalOrders grows at payment creation, TotalRevenue at release; neither is
// ever decremented.
type Service struct {
	ID            ServiceID
	Provider      AgentID
	Authority     AuthorityKey
	Title         string
	Description   string
	PriceLamports uint64
	PriceModel    PriceModel
	Tags          []string

	TotalOrders  uint64
	TotalRevenue uint64
	AvgRating    uint8
	IsActive     bool
	CreatedAt    int64
}

func NewService(id ServiceID, provider AgentID, authority AuthorityKey, title, description string, priceLamports uint64, model PriceModel, tags []string, now int64) (*Service, error) {
	if len(title) > MaxTitleLen {
		return nil, ErrTitleTooLong
	}
	if len(description) > MaxDescriptionLen {
		return nil, ErrDescriptionTooLong
	}
	if !ValidPriceModel(model) {
		return nil, ErrInvalidPriceModel
	}
	if len(tags) > MaxTags {
		return nil, ErrTooManyTags
	}
	for _, t := range tags {
		if len(t) > MaxTagLen {
			return nil, ErrTagTooLong
		}
	}
	return &Service{
		ID:            id,
		Provider:      provider,
		Authority:     authority,
		Title:         title,
		Description:   description,
		PriceLamports: priceLamports,
		PriceModel:    model,
		Tags:          tags,
		IsActive:      true,
		CreatedAt:     now,
	}, nil
}
