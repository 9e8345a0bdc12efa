package driven

import (
	"context"

	"github.com/custodia-labs/linkrank/internal/core/domain"
)

// RatingStore persists user ratings. (user, link) pairs are unique.
type RatingStore interface {
	// Get returns the rating of a user for a link, or domain.ErrNotFound.
	Get(ctx context.Context, userID, linkID string) (*domain.Rating, error)

	// Upsert creates or updates the rating for the pair.
	// created is true only when no rating existed before.
	Upsert(ctx context.Context, rating domain.Rating) (created bool, err error)

	// ListByDocument returns every rating of a link.
	ListByDocument(ctx context.Context, linkID string) ([]domain.Rating, error)

	// ListByUser returns every rating a user has given.
	ListByUser(ctx context.Context, userID string) ([]domain.Rating, error)
}

// PointsLedger keeps user reward balances.
type PointsLedger interface {
	// Grant adds amount to the user's balance, creating it if needed,
	// and returns the new balance.
	Grant(ctx context.Context, userID string, amount int) (int, error)

	// Balance returns the user's balance. Unknown users have 0 points.
	Balance(ctx context.Context, userID string) (int, error)
}
