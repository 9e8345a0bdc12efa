package driven

import (
	"context"

	"github.com/custodia-labs/linkrank/internal/core/domain"
)

// MetadataStore persists link metadata records.
// Stores that mandate a vector per entry generate a placeholder on Save.
type MetadataStore interface {
	// Count returns the total number of stored documents.
	Count(ctx context.Context) (int, error)

	// Scan returns up to limit documents matching the predicate.
	Scan(ctx context.Context, pred domain.Predicate, limit int) ([]domain.Document, error)

	// Get returns the documents with the given ids. Missing ids are skipped.
	Get(ctx context.Context, ids []string) ([]domain.Document, error)

	// Save stores or replaces a document.
	Save(ctx context.Context, doc *domain.Document) error

	// Delete removes the documents with the given ids.
	Delete(ctx context.Context, ids []string) error
}
