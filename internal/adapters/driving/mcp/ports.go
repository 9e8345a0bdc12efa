package mcp

import (
	"github.com/custodia-labs/linkrank/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Query answers filtered link queries.
	Query driving.QueryService

	// Link manages links. Without it update_link, delete_link and the
	// link resources are not offered.
	Link driving.LinkService

	// Rating records ratings. Without it rate_link is not offered.
	Rating driving.RatingService

	// Points reads balances. Without it user_points is not offered.
	Points driving.PointsService
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Query == nil {
		return ErrMissingQueryService
	}
	return nil
}
