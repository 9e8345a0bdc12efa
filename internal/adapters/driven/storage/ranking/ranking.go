// Package ranking implements exhaustive grouped cosine search for the
// chunk stores that keep vectors in process (memory and SQLite).
//
// Ties on score are broken by ascending link id, then ascending chunk id,
// so results are stable for a given data set.
package ranking

import (
	"fmt"
	"math"
	"sort"

	"github.com/custodia-labs/linkrank/internal/core/domain"
)

// Cosine returns the cosine similarity of a and b. Vectors of different
// length are an error; a zero-magnitude vector scores 0.
func Cosine(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("ranking: dimension mismatch: %d vs %d", len(a), len(b))
	}
	var dot, na2, nb2 float64
	for i := range a {
		va, vb := float64(a[i]), float64(b[i])
		dot += va * vb
		na2 += va * va
		nb2 += vb * vb
	}
	if na2 == 0 || nb2 == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(na2) * math.Sqrt(nb2)), nil
}

// Search scores every chunk admitted by req against req.Vector and
// groups the hits by link id.
func Search(chunks []domain.Chunk, req domain.GroupedSearchRequest) ([]domain.ChunkGroup, error) {
	if req.Restricted() && len(req.LinkIDs) == 0 {
		return []domain.ChunkGroup{}, nil
	}

	var allowed map[string]bool
	if req.Restricted() {
		allowed = make(map[string]bool, len(req.LinkIDs))
		for _, id := range req.LinkIDs {
			allowed[id] = true
		}
	}

	hits := make([]domain.ChunkHit, 0, len(chunks))
	for i := range chunks {
		if allowed != nil && !allowed[chunks[i].LinkID] {
			continue
		}
		score, err := Cosine(req.Vector, chunks[i].Embedding)
		if err != nil {
			return nil, fmt.Errorf("chunk %s: %w", chunks[i].ID, err)
		}
		hit := domain.ChunkHit{Chunk: chunks[i], Score: score}
		hit.Chunk.Embedding = nil
		hits = append(hits, hit)
	}

	return Group(hits, req.Limit, req.GroupSize), nil
}

// Group orders hits by descending score and folds them into at most limit
// groups of at most groupSize hits. Non-positive sizes mean 1 hit per
// group and unlimited groups respectively.
func Group(hits []domain.ChunkHit, limit, groupSize int) []domain.ChunkGroup {
	if groupSize <= 0 {
		groupSize = 1
	}
	sorted := make([]domain.ChunkHit, len(hits))
	copy(sorted, hits)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Chunk.LinkID != b.Chunk.LinkID {
			return a.Chunk.LinkID < b.Chunk.LinkID
		}
		return a.Chunk.ID < b.Chunk.ID
	})

	groups := make([]domain.ChunkGroup, 0)
	index := make(map[string]int)
	for _, hit := range sorted {
		if pos, ok := index[hit.Chunk.LinkID]; ok {
			if len(groups[pos].Hits) < groupSize {
				groups[pos].Hits = append(groups[pos].Hits, hit)
			}
			continue
		}
		if limit > 0 && len(groups) >= limit {
			continue
		}
		index[hit.Chunk.LinkID] = len(groups)
		groups = append(groups, domain.ChunkGroup{LinkID: hit.Chunk.LinkID, Hits: []domain.ChunkHit{hit}})
	}
	return groups
}
