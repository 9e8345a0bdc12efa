package services

// Default reward amounts.
const (
	DefaultLinkReward   = 100
	DefaultRatingReward = 10
)

// Rewards configures the points granted for contributions.
type Rewards struct {
	// LinkPoints is granted to the owner of a newly added link.
	LinkPoints int

	// RatingPoints is granted the first time a user rates a link.
	RatingPoints int
}

// DefaultRewards returns the standard reward amounts.
func DefaultRewards() Rewards {
	return Rewards{LinkPoints: DefaultLinkReward, RatingPoints: DefaultRatingReward}
}
