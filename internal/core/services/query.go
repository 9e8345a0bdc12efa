package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/custodia-labs/linkrank/internal/core/domain"
	"github.com/custodia-labs/linkrank/internal/core/ports/driven"
	"github.com/custodia-labs/linkrank/internal/core/ports/driving"
	"github.com/custodia-labs/linkrank/internal/logger"
)

// Ensure QueryService implements the interface.
var _ driving.QueryService = (*QueryService)(nil)

// QueryService answers filtered semantic queries.
type QueryService struct {
	metadata   driven.MetadataStore
	chunks     driven.ChunkStore
	embedding  driven.EmbeddingService
	aggregator *RatingAggregator
}

// NewQueryService creates a new query service.
// The embeddingService parameter is optional (can be nil).
func NewQueryService(
	metadata driven.MetadataStore,
	chunks driven.ChunkStore,
	ratings driven.RatingStore,
	embeddingService driven.EmbeddingService,
) *QueryService {
	return &QueryService{
		metadata:   metadata,
		chunks:     chunks,
		embedding:  embeddingService,
		aggregator: NewRatingAggregator(ratings),
	}
}

// Query encodes text, restricts the search to links admitted by the
// filter and returns the best chunk of each matching link.
func (s *QueryService) Query(
	ctx context.Context, text string, req domain.FilterRequest,
) ([]domain.QueryResult, error) {
	ctx = logger.WithRequestID(ctx, uuid.NewString())
	logger.Section("Query Execution")
	logger.DebugContext(ctx, "Query: %q", text)

	text = strings.TrimSpace(text)
	if text == "" {
		logger.DebugContext(ctx, "Empty query, returning no results")
		return []domain.QueryResult{}, nil
	}
	if s.embedding == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}

	filter := CompileFilter(req)
	logger.DebugContext(ctx, "Limit: %d, link types: %v, category ranges: %d, rating: [%g,%g]",
		filter.Limit, filter.Predicate.LinkTypes, len(filter.Predicate.Ranges),
		filter.Rating.Low, filter.Rating.High)

	cache := newRequestCache()

	var candidates []string
	if filter.Restrictive() {
		ids, err := s.resolveCandidates(ctx, filter, cache)
		if err != nil {
			logger.WarnContext(ctx, "Candidate resolution failed: %v", err)
			return nil, fmt.Errorf("resolve candidates: %w", err)
		}
		if len(ids) == 0 {
			logger.InfoContext(ctx, "No candidate links, returning no results")
			return []domain.QueryResult{}, nil
		}
		candidates = ids
		logger.DebugContext(ctx, "Candidates: %d links", len(candidates))
	} else {
		logger.DebugContext(ctx, "Filter not restrictive, searching all links")
	}

	vector, err := s.embedding.Embed(ctx, text)
	if err != nil {
		logger.WarnContext(ctx, "Query embedding failed: %v", err)
		return nil, fmt.Errorf("encode query: %w", err)
	}

	groups, err := s.chunks.GroupedSearch(ctx, domain.GroupedSearchRequest{
		Vector:    vector,
		LinkIDs:   candidates,
		Limit:     filter.Limit,
		GroupSize: 1,
	})
	if err != nil {
		return nil, domain.NewStoreError("grouped search", "", err)
	}
	logger.DebugContext(ctx, "Grouped search: %d groups", len(groups))

	results, err := s.assemble(ctx, groups, cache)
	if err != nil {
		return nil, fmt.Errorf("assemble results: %w", err)
	}

	logger.InfoContext(ctx, "Final results: %d", len(results))
	return results, nil
}

// resolveCandidates scans every link matching the predicate and, when the
// rating range is restrictive, drops links whose aggregate falls outside
// it. Unrated links are always kept. The scan is bounded by the total
// document count, without pagination.
func (s *QueryService) resolveCandidates(
	ctx context.Context, filter domain.CompiledFilter, cache *requestCache,
) ([]string, error) {
	total, err := s.metadata.Count(ctx)
	if err != nil {
		return nil, domain.NewStoreError("count metadata", "", err)
	}
	if total == 0 {
		return []string{}, nil
	}

	docs, err := s.metadata.Scan(ctx, filter.Predicate, total)
	if err != nil {
		return nil, domain.NewStoreError("scan metadata", "", err)
	}
	logger.DebugContext(ctx, "Predicate matched %d of %d links", len(docs), total)

	var ratings map[string]*float64
	if filter.RestrictsRating() {
		ids := make([]string, len(docs))
		for i := range docs {
			ids[i] = docs[i].ID
		}
		ratings, err = s.aggregator.RatingsOf(ctx, ids)
		if err != nil {
			return nil, err
		}
	}

	candidates := make([]string, 0, len(docs))
	for i := range docs {
		id := docs[i].ID
		if ratings != nil {
			r := ratings[id]
			cache.putRating(id, r)
			if r != nil && !filter.Rating.Contains(*r) {
				continue
			}
		}
		cache.putDoc(docs[i])
		candidates = append(candidates, id)
	}
	return candidates, nil
}

// assemble joins each group's best chunk with its link metadata and
// aggregate rating, preserving group order.
func (s *QueryService) assemble(
	ctx context.Context, groups []domain.ChunkGroup, cache *requestCache,
) ([]domain.QueryResult, error) {
	var missingDocs, missingRatings []string
	for _, g := range groups {
		if _, ok := cache.doc(g.LinkID); !ok {
			missingDocs = append(missingDocs, g.LinkID)
		}
		if _, ok := cache.rating(g.LinkID); !ok {
			missingRatings = append(missingRatings, g.LinkID)
		}
	}

	if len(missingDocs) > 0 {
		docs, err := s.metadata.Get(ctx, missingDocs)
		if err != nil {
			return nil, domain.NewStoreError("get metadata", strings.Join(missingDocs, ","), err)
		}
		for i := range docs {
			cache.putDoc(docs[i])
		}
	}

	if len(missingRatings) > 0 {
		ratings, err := s.aggregator.RatingsOf(ctx, missingRatings)
		if err != nil {
			return nil, err
		}
		for id, r := range ratings {
			cache.putRating(id, r)
		}
	}

	results := make([]domain.QueryResult, 0, len(groups))
	seen := make(map[string]bool, len(groups))
	for _, g := range groups {
		if seen[g.LinkID] {
			continue
		}
		hit, ok := g.Best()
		if !ok {
			continue
		}
		doc, ok := cache.doc(g.LinkID)
		if !ok {
			logger.WarnContext(ctx, "Chunk %s references missing link %s, skipping", hit.Chunk.ID, g.LinkID)
			continue
		}
		rating, _ := cache.rating(g.LinkID)
		seen[g.LinkID] = true

		results = append(results, domain.QueryResult{
			DocumentID: g.LinkID,
			Metadata:   doc,
			Chunk:      hit.Chunk.Content,
			Score:      hit.Score,
			UserRating: rating,
		})
	}
	return results, nil
}
