package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/custodia-labs/linkrank/internal/core/domain"
	"github.com/custodia-labs/linkrank/internal/core/ports/driven"
	"github.com/custodia-labs/linkrank/internal/core/ports/driving"
	"github.com/custodia-labs/linkrank/internal/logger"
)

// Ensure LinkService implements the interface.
var _ driving.LinkService = (*LinkService)(nil)

// LinkService manages links and keeps the metadata and chunk stores
// consistent with each other.
type LinkService struct {
	metadata  driven.MetadataStore
	chunks    driven.ChunkStore
	embedding driven.EmbeddingService
	points    driven.PointsLedger
	reward    int
}

// NewLinkService creates a new link service.
// The embeddingService and points parameters are optional (can be nil).
func NewLinkService(
	metadata driven.MetadataStore,
	chunks driven.ChunkStore,
	embeddingService driven.EmbeddingService,
	points driven.PointsLedger,
	rewards Rewards,
) *LinkService {
	return &LinkService{
		metadata:  metadata,
		chunks:    chunks,
		embedding: embeddingService,
		points:    points,
		reward:    rewards.LinkPoints,
	}
}

// Add ingests a link: its chunk texts are embedded, the metadata record is
// written, then the chunks. The owner is rewarded once both writes succeed.
func (s *LinkService) Add(ctx context.Context, link domain.NewLink) (*domain.Document, error) {
	doc := link.Document
	if err := validateNewLink(&link); err != nil {
		return nil, err
	}
	if s.embedding == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}

	vectors, err := s.embedding.EmbedBatch(ctx, link.Chunks)
	if err != nil {
		return nil, fmt.Errorf("embed chunks: %w", err)
	}
	if len(vectors) != len(link.Chunks) {
		return nil, fmt.Errorf("embed chunks: got %d vectors for %d chunks", len(vectors), len(link.Chunks))
	}

	chunks := make([]domain.Chunk, len(link.Chunks))
	for i, text := range link.Chunks {
		chunks[i] = domain.Chunk{
			ID:        uuid.NewString(),
			LinkID:    doc.ID,
			Content:   text,
			URL:       doc.URL,
			Embedding: vectors[i],
		}
	}

	if err := s.metadata.Save(ctx, &doc); err != nil {
		return nil, domain.NewStoreError("save metadata", doc.ID, err)
	}
	if err := s.chunks.Save(ctx, chunks); err != nil {
		// Leave no metadata without chunks behind.
		if delErr := s.metadata.Delete(ctx, []string{doc.ID}); delErr != nil {
			logger.Warn("Rollback of link %s failed: %v", doc.ID, delErr)
		}
		return nil, domain.NewStoreError("save chunks", doc.ID, err)
	}
	logger.Info("Added link %s with %d chunks", doc.ID, len(chunks))

	if s.points != nil && s.reward > 0 {
		// Rewards are best effort once the link is stored.
		if _, err := s.points.Grant(ctx, doc.User.ID, s.reward); err != nil {
			logger.Warn("Reward for link %s not granted to %s: %v", doc.ID, doc.User.ID, err)
		}
	}

	return &doc, nil
}

func validateNewLink(link *domain.NewLink) error {
	if strings.TrimSpace(link.Document.URL) == "" {
		return &domain.ValidationError{Field: "url", Reason: "is required"}
	}
	if link.Document.User.ID == "" {
		return &domain.ValidationError{Field: "user", Reason: "is required"}
	}
	for _, c := range domain.Categories() {
		v, _ := link.Document.Score(c)
		if err := domain.ValidateCategoryScore(c, v); err != nil {
			return err
		}
	}
	if len(link.Chunks) == 0 {
		return &domain.ValidationError{Field: "chunks", Reason: "at least one chunk is required"}
	}
	for i, text := range link.Chunks {
		if strings.TrimSpace(text) == "" {
			return &domain.ValidationError{Field: "chunks", Reason: fmt.Sprintf("chunk %d is empty", i)}
		}
	}
	return nil
}

// Get retrieves a link by ID.
func (s *LinkService) Get(ctx context.Context, id string) (*domain.Document, error) {
	if id == "" {
		return nil, &domain.ValidationError{Field: "id", Reason: "is required"}
	}
	docs, err := s.metadata.Get(ctx, []string{id})
	if err != nil {
		return nil, domain.NewStoreError("get metadata", id, err)
	}
	if len(docs) == 0 {
		return nil, domain.ErrNotFound
	}
	return &docs[0], nil
}

// List returns every link, or only those owned by ownerID.
func (s *LinkService) List(ctx context.Context, ownerID string) ([]domain.Document, error) {
	total, err := s.metadata.Count(ctx)
	if err != nil {
		return nil, domain.NewStoreError("count metadata", "", err)
	}
	if total == 0 {
		return []domain.Document{}, nil
	}
	docs, err := s.metadata.Scan(ctx, domain.Predicate{OwnerID: ownerID}, total)
	if err != nil {
		return nil, domain.NewStoreError("scan metadata", ownerID, err)
	}
	return docs, nil
}

// Update merges patch onto the stored link. Fields absent from the patch
// keep their values. A missing link returns domain.ErrNotFound.
func (s *LinkService) Update(
	ctx context.Context, id string, patch domain.DocumentPatch,
) (*domain.Document, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	doc, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	patch.Apply(doc)
	if err := s.metadata.Save(ctx, doc); err != nil {
		return nil, domain.NewStoreError("save metadata", id, err)
	}
	logger.Info("Updated link %s", id)
	return doc, nil
}

// Delete removes a link and its chunks. A missing link returns
// domain.ErrNotFound without touching either store.
func (s *LinkService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.deleteCascade(ctx, id); err != nil {
		if errors.Is(err, domain.ErrPartialDelete) {
			logger.Error("Link %s left inconsistent: %v", id, err)
		}
		return err
	}
	logger.Info("Deleted link %s", id)
	return nil
}

// deleteCascade removes the chunks of a link, then its metadata record.
// The two phases are not atomic. When the second phase fails the chunks
// are already gone and the error matches domain.ErrPartialDelete.
func (s *LinkService) deleteCascade(ctx context.Context, id string) error {
	if err := s.chunks.DeleteByLinkID(ctx, id); err != nil {
		return domain.NewStoreError("delete chunks", id, err)
	}
	if err := s.metadata.Delete(ctx, []string{id}); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrPartialDelete, domain.NewStoreError("delete metadata", id, err))
	}
	return nil
}
