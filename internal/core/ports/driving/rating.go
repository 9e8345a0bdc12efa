package driving

import (
	"context"

	"github.com/custodia-labs/linkrank/internal/core/domain"
)

// RatingService records user ratings and exposes aggregates.
type RatingService interface {
	// Rate creates or updates a user's rating for a link.
	Rate(ctx context.Context, userID, linkID string, value float64) (*domain.RatingOutcome, error)

	// RatingOf returns the aggregate rating of a link, nil when unrated.
	RatingOf(ctx context.Context, linkID string) (*float64, error)

	// ListByUser returns every rating a user has given.
	ListByUser(ctx context.Context, userID string) ([]domain.Rating, error)
}

// PointsService exposes user reward balances and tiers.
type PointsService interface {
	// Status returns the balance and tier of a user.
	Status(ctx context.Context, userID string) (*domain.PointsStatus, error)

	// Grant adds points to a user's balance.
	Grant(ctx context.Context, userID string, amount int) (*domain.PointsStatus, error)
}
