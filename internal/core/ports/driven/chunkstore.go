package driven

import (
	"context"

	"github.com/custodia-labs/linkrank/internal/core/domain"
)

// ChunkStore persists chunks and answers grouped similarity queries.
type ChunkStore interface {
	// Count returns the total number of stored chunks.
	Count(ctx context.Context) (int, error)

	// Save stores or replaces chunks. Every chunk must carry an embedding.
	Save(ctx context.Context, chunks []domain.Chunk) error

	// GroupedSearch groups hits by link id, keeps req.GroupSize hits per
	// group and returns at most req.Limit groups by descending best score.
	// Implementations document their tie-break for equal scores.
	GroupedSearch(ctx context.Context, req domain.GroupedSearchRequest) ([]domain.ChunkGroup, error)

	// DeleteByLinkID removes every chunk whose link id equals linkID.
	DeleteByLinkID(ctx context.Context, linkID string) error
}
