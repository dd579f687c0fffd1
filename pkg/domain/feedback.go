package domain

const (
	MinRating     = 1
	MaxRating     = 5
	MaxCommentLen = 256
)

// Feedback is an immutable rating record. At most one exists per ordered
// (Rater, Ratee) pair; the record store enforces uniqueness on insert.
type Feedback struct {
	Rater     AgentID
	Ratee     AgentID
	Rating    uint8
	Comment   string
	Timestamp int64
}

func NewFeedback(rater, ratee AgentID, rating uint8, comment string, now int64) (*Feedback, error) {
	if rating < MinRating || rating > MaxRating {
		return nil, ErrInvalidRating
	}
	if len(comment) > MaxCommentLen {
		return nil, ErrCommentTooLong
	}
	return &Feedback{
		Rater:     rater,
		Ratee:     ratee,
		Rating:    rating,
		Comment:   comment,
		Timestamp: now,
	}, nil
}
