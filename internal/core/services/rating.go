package services

import (
	"context"
	"time"

	"github.com/custodia-labs/linkrank/internal/core/domain"
	"github.com/custodia-labs/linkrank/internal/core/ports/driven"
	"github.com/custodia-labs/linkrank/internal/core/ports/driving"
	"github.com/custodia-labs/linkrank/internal/logger"
)

// Ensure RatingService implements the interface.
var _ driving.RatingService = (*RatingService)(nil)

// RatingService records ratings and rewards first-time raters.
type RatingService struct {
	ratings    driven.RatingStore
	metadata   driven.MetadataStore
	points     driven.PointsLedger
	reward     int
	aggregator *RatingAggregator
	now        func() time.Time
}

// NewRatingService creates a new rating service.
// The metadata and points parameters are optional (can be nil): without
// metadata the link is not checked for existence, without points no
// reward is granted.
func NewRatingService(
	ratings driven.RatingStore,
	metadata driven.MetadataStore,
	points driven.PointsLedger,
	rewards Rewards,
) *RatingService {
	return &RatingService{
		ratings:    ratings,
		metadata:   metadata,
		points:     points,
		reward:     rewards.RatingPoints,
		aggregator: NewRatingAggregator(ratings),
		now:        time.Now,
	}
}

// Rate creates or updates the rating of userID for linkID. The reward is
// granted only when the rating is created, never on update.
func (s *RatingService) Rate(
	ctx context.Context, userID, linkID string, value float64,
) (*domain.RatingOutcome, error) {
	if userID == "" {
		return nil, &domain.ValidationError{Field: "user", Reason: "is required"}
	}
	if linkID == "" {
		return nil, &domain.ValidationError{Field: "link", Reason: "is required"}
	}
	if err := domain.ValidateRatingValue(value); err != nil {
		return nil, err
	}

	if s.metadata != nil {
		docs, err := s.metadata.Get(ctx, []string{linkID})
		if err != nil {
			return nil, domain.NewStoreError("get metadata", linkID, err)
		}
		if len(docs) == 0 {
			return nil, domain.ErrNotFound
		}
	}

	now := s.now().UTC()
	rating := domain.Rating{
		UserID:    userID,
		LinkID:    linkID,
		Value:     value,
		CreatedAt: now,
		UpdatedAt: now,
	}
	created, err := s.ratings.Upsert(ctx, rating)
	if err != nil {
		return nil, domain.NewStoreError("upsert rating", linkID, err)
	}

	outcome := &domain.RatingOutcome{Rating: rating, Created: created}
	if created && s.points != nil && s.reward > 0 {
		if _, err := s.points.Grant(ctx, userID, s.reward); err != nil {
			logger.Warn("Reward for rating of %s not granted to %s: %v", linkID, userID, err)
		} else {
			outcome.PointsAwarded = s.reward
		}
	}

	logger.Info("User %s rated link %s with %g (created=%t)", userID, linkID, value, created)
	return outcome, nil
}

// RatingOf returns the aggregate rating of a link, nil when unrated.
func (s *RatingService) RatingOf(ctx context.Context, linkID string) (*float64, error) {
	return s.aggregator.RatingOf(ctx, linkID)
}

// ListByUser returns every rating a user has given.
func (s *RatingService) ListByUser(ctx context.Context, userID string) ([]domain.Rating, error) {
	ratings, err := s.ratings.ListByUser(ctx, userID)
	if err != nil {
		return nil, domain.NewStoreError("list ratings", userID, err)
	}
	return ratings, nil
}
