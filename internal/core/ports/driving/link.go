package driving

import (
	"context"

	"github.com/custodia-labs/linkrank/internal/core/domain"
)

// LinkService manages the lifecycle of links and their chunks.
type LinkService interface {
	// Add ingests a link with pre-split chunk texts and rewards its owner.
	Add(ctx context.Context, link domain.NewLink) (*domain.Document, error)

	// Get retrieves a link by ID.
	Get(ctx context.Context, id string) (*domain.Document, error)

	// List returns every link, or only those owned by ownerID when set.
	List(ctx context.Context, ownerID string) ([]domain.Document, error)

	// Update merges patch onto an existing link.
	Update(ctx context.Context, id string, patch domain.DocumentPatch) (*domain.Document, error)

	// Delete removes a link's chunks and then the link itself.
	Delete(ctx context.Context, id string) error
}
