package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/linkrank/internal/core/domain"
	"github.com/custodia-labs/linkrank/internal/core/ports/driven"
)

// Ensure MetadataStore implements the interface.
var _ driven.MetadataStore = (*MetadataStore)(nil)

// MetadataStore is an in-memory implementation of driven.MetadataStore.
// Scan returns documents ordered by id.
type MetadataStore struct {
	mu        sync.RWMutex
	documents map[string]domain.Document
}

// NewMetadataStore creates a new in-memory metadata store.
func NewMetadataStore() *MetadataStore {
	return &MetadataStore{
		documents: make(map[string]domain.Document),
	}
}

// Count returns the number of stored documents.
func (s *MetadataStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.documents), nil
}

// Scan returns up to limit documents matching the predicate.
func (s *MetadataStore) Scan(_ context.Context, pred domain.Predicate, limit int) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.documents))
	for id := range s.documents {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	docs := make([]domain.Document, 0)
	for _, id := range ids {
		if limit > 0 && len(docs) >= limit {
			break
		}
		doc := s.documents[id]
		if pred.Matches(&doc) {
			docs = append(docs, doc)
		}
	}
	return docs, nil
}

// Get returns the documents with the given ids, in request order.
func (s *MetadataStore) Get(_ context.Context, ids []string) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := make([]domain.Document, 0, len(ids))
	for _, id := range ids {
		if doc, ok := s.documents[id]; ok {
			docs = append(docs, doc)
		}
	}
	return docs, nil
}

// Save stores or replaces a document.
func (s *MetadataStore) Save(_ context.Context, doc *domain.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents[doc.ID] = *doc
	return nil
}

// Delete removes documents by id. Unknown ids are ignored.
func (s *MetadataStore) Delete(_ context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		delete(s.documents, id)
	}
	return nil
}
