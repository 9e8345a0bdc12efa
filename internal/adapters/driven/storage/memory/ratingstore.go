package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/linkrank/internal/core/domain"
	"github.com/custodia-labs/linkrank/internal/core/ports/driven"
)

// Ensure the stores implement the interfaces.
var (
	_ driven.RatingStore  = (*RatingStore)(nil)
	_ driven.PointsLedger = (*PointsLedger)(nil)
)

type ratingKey struct {
	userID string
	linkID string
}

// RatingStore is an in-memory implementation of driven.RatingStore.
type RatingStore struct {
	mu      sync.RWMutex
	ratings map[ratingKey]domain.Rating
}

// NewRatingStore creates a new in-memory rating store.
func NewRatingStore() *RatingStore {
	return &RatingStore{
		ratings: make(map[ratingKey]domain.Rating),
	}
}

// Get returns the rating of a user for a link.
func (s *RatingStore) Get(_ context.Context, userID, linkID string) (*domain.Rating, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.ratings[ratingKey{userID, linkID}]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &r, nil
}

// Upsert creates or updates the rating for the pair.
func (s *RatingStore) Upsert(_ context.Context, rating domain.Rating) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := ratingKey{rating.UserID, rating.LinkID}
	existing, ok := s.ratings[key]
	if ok {
		existing.Value = rating.Value
		existing.UpdatedAt = rating.UpdatedAt
		s.ratings[key] = existing
		return false, nil
	}
	s.ratings[key] = rating
	return true, nil
}

// ListByDocument returns every rating of a link, ordered by user id.
func (s *RatingStore) ListByDocument(_ context.Context, linkID string) ([]domain.Rating, error) {
	return s.filter(func(r domain.Rating) bool { return r.LinkID == linkID }), nil
}

// ListByUser returns every rating a user has given, ordered by link id.
func (s *RatingStore) ListByUser(_ context.Context, userID string) ([]domain.Rating, error) {
	return s.filter(func(r domain.Rating) bool { return r.UserID == userID }), nil
}

func (s *RatingStore) filter(keep func(domain.Rating) bool) []domain.Rating {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Rating, 0)
	for _, r := range s.ratings {
		if keep(r) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].LinkID != out[j].LinkID {
			return out[i].LinkID < out[j].LinkID
		}
		return out[i].UserID < out[j].UserID
	})
	return out
}

// PointsLedger is an in-memory implementation of driven.PointsLedger.
type PointsLedger struct {
	mu       sync.Mutex
	balances map[string]int
}

// NewPointsLedger creates a new in-memory points ledger.
func NewPointsLedger() *PointsLedger {
	return &PointsLedger{balances: make(map[string]int)}
}

// Grant adds amount to the user's balance.
func (l *PointsLedger) Grant(_ context.Context, userID string, amount int) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[userID] += amount
	return l.balances[userID], nil
}

// Balance returns the user's balance, 0 when unknown.
func (l *PointsLedger) Balance(_ context.Context, userID string) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[userID], nil
}
