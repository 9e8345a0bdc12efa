package services

import (
	"context"

	"github.com/custodia-labs/linkrank/internal/core/domain"
	"github.com/custodia-labs/linkrank/internal/core/ports/driven"
	"github.com/custodia-labs/linkrank/internal/core/ports/driving"
)

// Ensure PointsService implements the interface.
var _ driving.PointsService = (*PointsService)(nil)

// DefaultTiers are used when no tiers are configured.
func DefaultTiers() []domain.Tier {
	return []domain.Tier{
		{Name: "Starter", Threshold: 0},
		{Name: "Contributor", Threshold: 250},
		{Name: "Expert", Threshold: 1000},
	}
}

// PointsService reports user balances and tiers.
type PointsService struct {
	ledger driven.PointsLedger
	tiers  []domain.Tier
}

// NewPointsService creates a new points service. Nil tiers means
// DefaultTiers; an empty non-nil slice reports every user as Unknown.
func NewPointsService(ledger driven.PointsLedger, tiers []domain.Tier) *PointsService {
	if tiers == nil {
		tiers = DefaultTiers()
	}
	return &PointsService{ledger: ledger, tiers: tiers}
}

// Status returns the balance and tier of a user.
func (s *PointsService) Status(ctx context.Context, userID string) (*domain.PointsStatus, error) {
	if userID == "" {
		return nil, &domain.ValidationError{Field: "user", Reason: "is required"}
	}
	points, err := s.ledger.Balance(ctx, userID)
	if err != nil {
		return nil, domain.NewStoreError("get points", userID, err)
	}
	return &domain.PointsStatus{
		UserID: userID,
		Points: points,
		Tier:   domain.TierFor(points, s.tiers),
	}, nil
}

// Grant adds a positive amount to a user's balance.
func (s *PointsService) Grant(ctx context.Context, userID string, amount int) (*domain.PointsStatus, error) {
	if userID == "" {
		return nil, &domain.ValidationError{Field: "user", Reason: "is required"}
	}
	if amount <= 0 {
		return nil, &domain.ValidationError{Field: "amount", Reason: "must be positive"}
	}
	points, err := s.ledger.Grant(ctx, userID, amount)
	if err != nil {
		return nil, domain.NewStoreError("grant points", userID, err)
	}
	return &domain.PointsStatus{
		UserID: userID,
		Points: points,
		Tier:   domain.TierFor(points, s.tiers),
	}, nil
}
