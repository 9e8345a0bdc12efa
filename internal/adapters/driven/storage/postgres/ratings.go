package postgres

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	"github.com/custodia-labs/linkrank/internal/core/domain"
	"github.com/custodia-labs/linkrank/internal/core/ports/driven"
)

type ratingStore struct {
	db *sql.DB
}

var _ driven.RatingStore = (*ratingStore)(nil)

func (s *ratingStore) Get(ctx context.Context, userID, linkID string) (*domain.Rating, error) {
	var r domain.Rating
	err := s.db.QueryRowContext(ctx, `
		SELECT user_id, link_id, value, created_at, updated_at
		FROM ratings WHERE user_id = $1 AND link_id = $2
	`, userID, linkID).Scan(&r.UserID, &r.LinkID, &r.Value, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get rating")
	}
	return &r, nil
}

// upsertRatingStmt reports whether the row was inserted: xmax is 0 only
// for a tuple created by this statement.
const upsertRatingStmt = `
	INSERT INTO ratings (user_id, link_id, value, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (user_id, link_id) DO UPDATE SET
		value = EXCLUDED.value,
		updated_at = EXCLUDED.updated_at
	RETURNING (xmax = 0) AS inserted
`

func (s *ratingStore) Upsert(ctx context.Context, rating domain.Rating) (bool, error) {
	var inserted bool
	err := s.db.QueryRowContext(ctx, upsertRatingStmt,
		rating.UserID, rating.LinkID, rating.Value, rating.CreatedAt, rating.UpdatedAt,
	).Scan(&inserted)
	if err != nil {
		return false, errors.Wrap(err, "failed to upsert rating")
	}
	return inserted, nil
}

func (s *ratingStore) ListByDocument(ctx context.Context, linkID string) ([]domain.Rating, error) {
	return s.list(ctx, `
		SELECT user_id, link_id, value, created_at, updated_at
		FROM ratings WHERE link_id = $1 ORDER BY user_id
	`, linkID)
}

func (s *ratingStore) ListByUser(ctx context.Context, userID string) ([]domain.Rating, error) {
	return s.list(ctx, `
		SELECT user_id, link_id, value, created_at, updated_at
		FROM ratings WHERE user_id = $1 ORDER BY link_id
	`, userID)
}

func (s *ratingStore) list(ctx context.Context, query, arg string) ([]domain.Rating, error) {
	rows, err := s.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list ratings")
	}
	defer rows.Close()

	ratings := []domain.Rating{}
	for rows.Next() {
		var r domain.Rating
		if err := rows.Scan(&r.UserID, &r.LinkID, &r.Value, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, errors.Wrap(err, "failed to scan rating")
		}
		ratings = append(ratings, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ratings, nil
}

type pointsLedger struct {
	db *sql.DB
}

var _ driven.PointsLedger = (*pointsLedger)(nil)

func (s *pointsLedger) Grant(ctx context.Context, userID string, amount int) (int, error) {
	var balance int
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO user_points (user_id, points) VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET points = user_points.points + EXCLUDED.points
		RETURNING points
	`, userID, amount).Scan(&balance)
	if err != nil {
		return 0, errors.Wrap(err, "failed to grant points")
	}
	return balance, nil
}

func (s *pointsLedger) Balance(ctx context.Context, userID string) (int, error) {
	var balance int
	err := s.db.QueryRowContext(ctx,
		"SELECT points FROM user_points WHERE user_id = $1", userID).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, errors.Wrap(err, "failed to get points")
	}
	return balance, nil
}
