package driven

import "context"

// EmbeddingService turns text into vectors for the chunk store.
// It is optional: without one, queries and link ingestion fail with
// domain.ErrEmbeddingUnavailable.
//
// Query vectors and chunk vectors must come from the same model, and
// Dimensions must match the chunk store's vector size.
type EmbeddingService interface {
	// Embed encodes a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch encodes texts in order, one vector per text.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the vector size produced by the model.
	Dimensions() int

	// ModelName returns the model in use.
	ModelName() string

	// Ping checks the provider is reachable.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
