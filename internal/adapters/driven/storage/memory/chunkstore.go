package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/custodia-labs/linkrank/internal/adapters/driven/storage/ranking"
	"github.com/custodia-labs/linkrank/internal/core/domain"
	"github.com/custodia-labs/linkrank/internal/core/ports/driven"
)

// Ensure ChunkStore implements the interface.
var _ driven.ChunkStore = (*ChunkStore)(nil)

// ChunkStore is an in-memory implementation of driven.ChunkStore.
// GroupedSearch is exhaustive; see package ranking for the tie-break.
type ChunkStore struct {
	mu     sync.RWMutex
	chunks map[string]domain.Chunk
}

// NewChunkStore creates a new in-memory chunk store.
func NewChunkStore() *ChunkStore {
	return &ChunkStore{
		chunks: make(map[string]domain.Chunk),
	}
}

// Count returns the number of stored chunks.
func (s *ChunkStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks), nil
}

// Save stores or replaces chunks.
func (s *ChunkStore) Save(_ context.Context, chunks []domain.Chunk) error {
	for i := range chunks {
		if len(chunks[i].Embedding) == 0 {
			return fmt.Errorf("chunk %s has no embedding", chunks[i].ID)
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range chunks {
		c.Embedding = append([]float32(nil), c.Embedding...)
		s.chunks[c.ID] = c
	}
	return nil
}

// GroupedSearch returns the best chunks per link.
func (s *ChunkStore) GroupedSearch(
	_ context.Context, req domain.GroupedSearchRequest,
) ([]domain.ChunkGroup, error) {
	s.mu.RLock()
	all := make([]domain.Chunk, 0, len(s.chunks))
	for _, c := range s.chunks {
		all = append(all, c)
	}
	s.mu.RUnlock()

	return ranking.Search(all, req)
}

// DeleteByLinkID removes every chunk of a link.
func (s *ChunkStore) DeleteByLinkID(_ context.Context, linkID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, c := range s.chunks {
		if c.LinkID == linkID {
			delete(s.chunks, id)
		}
	}
	return nil
}

// ListByLinkID returns the chunks of a link. Used by tests and tooling.
func (s *ChunkStore) ListByLinkID(linkID string) []domain.Chunk {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Chunk
	for _, c := range s.chunks {
		if c.LinkID == linkID {
			out = append(out, c)
		}
	}
	return out
}
