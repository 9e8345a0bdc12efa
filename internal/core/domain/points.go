package domain

import "sort"

// UnknownTier is reported when no tier threshold is reached.
const UnknownTier = "Unknown"

// Tier is a named points threshold.
type Tier struct {
	Name      string `json:"name" mapstructure:"name" toml:"name"`
	Threshold int    `json:"threshold" mapstructure:"threshold" toml:"threshold"`
}

// PointsStatus is a user's balance and the tier it places them in.
type PointsStatus struct {
	UserID string `json:"user_id"`
	Points int    `json:"points"`
	Tier   string `json:"tier"`
}

// TierFor returns the name of the highest tier whose threshold is at or
// below points, or UnknownTier.
func TierFor(points int, tiers []Tier) string {
	sorted := make([]Tier, len(tiers))
	copy(sorted, tiers)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Threshold > sorted[j].Threshold
	})
	for _, t := range sorted {
		if points >= t.Threshold {
			return t.Name
		}
	}
	return UnknownTier
}
