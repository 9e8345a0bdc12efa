package driving

import (
	"context"

	"github.com/custodia-labs/linkrank/internal/core/domain"
)

// QueryService answers filtered semantic queries over indexed links.
type QueryService interface {
	// Query encodes text, applies the filter and returns at most one
	// result per link, best score first. No match is an empty slice.
	Query(ctx context.Context, text string, filter domain.FilterRequest) ([]domain.QueryResult, error)
}
