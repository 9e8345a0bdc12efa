package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/custodia-labs/linkrank/internal/core/domain"
	"github.com/custodia-labs/linkrank/internal/core/ports/driven"
)

// ratingStore implements driven.RatingStore.
type ratingStore struct {
	store *Store
}

var _ driven.RatingStore = (*ratingStore)(nil)

// Get retrieves the rating a user gave a link.
func (s *ratingStore) Get(ctx context.Context, userID, linkID string) (*domain.Rating, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT user_id, link_id, value, created_at, updated_at
		FROM ratings WHERE user_id = ? AND link_id = ?
	`, userID, linkID)

	return scanRating(row)
}

// Upsert creates the rating or updates its value. created reports whether
// the pair was new. The insert claims the pair atomically, so concurrent
// upserts never both report created.
func (s *ratingStore) Upsert(ctx context.Context, rating domain.Rating) (bool, error) {
	res, err := s.store.db.ExecContext(ctx, `
		INSERT INTO ratings (user_id, link_id, value, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id, link_id) DO NOTHING
	`, rating.UserID, rating.LinkID, rating.Value, rating.CreatedAt, rating.UpdatedAt)
	if err != nil {
		return false, fmt.Errorf("inserting rating: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("inserting rating: %w", err)
	}
	if n == 1 {
		return true, nil
	}

	_, err = s.store.db.ExecContext(ctx, `
		UPDATE ratings SET value = ?, updated_at = ?
		WHERE user_id = ? AND link_id = ?
	`, rating.Value, rating.UpdatedAt, rating.UserID, rating.LinkID)
	if err != nil {
		return false, fmt.Errorf("updating rating: %w", err)
	}
	return false, nil
}

// ListByDocument returns every rating of a link, ordered by user id.
func (s *ratingStore) ListByDocument(ctx context.Context, linkID string) ([]domain.Rating, error) {
	return s.list(ctx, `
		SELECT user_id, link_id, value, created_at, updated_at
		FROM ratings WHERE link_id = ? ORDER BY user_id
	`, linkID)
}

// ListByUser returns every rating a user gave, ordered by link id.
func (s *ratingStore) ListByUser(ctx context.Context, userID string) ([]domain.Rating, error) {
	return s.list(ctx, `
		SELECT user_id, link_id, value, created_at, updated_at
		FROM ratings WHERE user_id = ? ORDER BY link_id
	`, userID)
}

func (s *ratingStore) list(ctx context.Context, query string, arg string) ([]domain.Rating, error) {
	rows, err := s.store.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("querying ratings: %w", err)
	}
	defer rows.Close()

	ratings := make([]domain.Rating, 0)
	for rows.Next() {
		r, err := scanRating(rows)
		if err != nil {
			return nil, err
		}
		ratings = append(ratings, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating ratings: %w", err)
	}
	return ratings, nil
}

// scanRating scans a single rating row.
func scanRating(row rowScanner) (*domain.Rating, error) {
	var r domain.Rating
	if err := row.Scan(&r.UserID, &r.LinkID, &r.Value, &r.CreatedAt, &r.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning rating: %w", err)
	}
	return &r, nil
}

// ==================== Points Ledger ====================

// pointsLedger implements driven.PointsLedger.
type pointsLedger struct {
	store *Store
}

var _ driven.PointsLedger = (*pointsLedger)(nil)

// Grant adds amount to the user's balance and returns the new balance.
func (s *pointsLedger) Grant(ctx context.Context, userID string, amount int) (int, error) {
	var balance int
	err := s.store.db.QueryRowContext(ctx, `
		INSERT INTO user_points (user_id, points) VALUES (?, ?)
		ON CONFLICT(user_id) DO UPDATE SET points = points + excluded.points
		RETURNING points
	`, userID, amount).Scan(&balance)
	if err != nil {
		return 0, fmt.Errorf("granting points: %w", err)
	}
	return balance, nil
}

// Balance returns the user's balance, 0 for an unknown user.
func (s *pointsLedger) Balance(ctx context.Context, userID string) (int, error) {
	var balance int
	err := s.store.db.QueryRowContext(ctx,
		"SELECT points FROM user_points WHERE user_id = ?", userID).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("getting points: %w", err)
	}
	return balance, nil
}
