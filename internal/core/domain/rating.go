package domain

import (
	"math"
	"time"
)

// Rating bounds.
const (
	MinRating = 0.0
	MaxRating = 5.0
)

// Rating is one user's score for one link. (UserID, LinkID) is unique.
type Rating struct {
	UserID    string    `json:"user_id"`
	LinkID    string    `json:"link_id"`
	Value     float64   `json:"value"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RatingOutcome is the result of a rating upsert.
type RatingOutcome struct {
	Rating Rating `json:"rating"`

	// Created is true when no rating existed for the pair before.
	Created bool `json:"created"`

	// PointsAwarded is the reward granted for this upsert (0 on update).
	PointsAwarded int `json:"points_awarded"`
}

// ValidateRatingValue rejects values outside [MinRating, MaxRating].
func ValidateRatingValue(v float64) error {
	if math.IsNaN(v) || v < MinRating || v > MaxRating {
		return &ValidationError{Field: "rating", Reason: "must be between 0 and 5"}
	}
	return nil
}

// AverageRating returns the mean of the ratings rounded to two decimals,
// or nil when there are none.
func AverageRating(ratings []Rating) *float64 {
	if len(ratings) == 0 {
		return nil
	}
	var sum float64
	for _, r := range ratings {
		sum += r.Value
	}
	avg := math.Round(sum/float64(len(ratings))*100) / 100
	return &avg
}
