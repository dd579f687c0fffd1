package engine

import (
	"github.com/occydefi/solagent-economy/pkg/domain"
	"github.com/occydefi/solagent-economy/pkg/ledger"
)

// SubmitFeedback creates an immutable rating record and recomputes the
// ratee's reputation. Uniqueness per (rater, ratee) pair is enforced by the
// record store on insert; the engine assumes the pair is fresh.
func SubmitFeedback(l ledger.Ledger, rater, ratee *domain.Agent, caller domain.AuthorityKey, rating uint8, comment string) (*domain.Feedback, FeedbackSubmitted, error) {
	if !l.Authorize(caller, rater.Authority) {
		return nil, FeedbackSubmitted{}, domain.ErrUnauthorized
	}

	now := l.Now()
	fb, err := domain.NewFeedback(rater.ID, ratee.ID, rating, comment, now)
	if err != nil {
		return nil, FeedbackSubmitted{}, err
	}

	received, err := domain.CheckedAdd(ratee.FeedbacksReceived, 1)
	if err != nil {
		return nil, FeedbackSubmitted{}, err
	}
	ratee.FeedbacksReceived = received
	ratee.RecomputeReputation()

	return fb, FeedbackSubmitted{
		From:          rater.ID,
		To:            ratee.ID,
		Rating:        rating,
		NewReputation: ratee.ReputationScore,
	}, nil
}
