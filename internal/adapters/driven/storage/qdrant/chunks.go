package qdrant

import (
	"context"
	"fmt"
	"net/http"

	"github.com/custodia-labs/linkrank/internal/core/domain"
	"github.com/custodia-labs/linkrank/internal/core/ports/driven"
)

// groupByKey is the chunk payload key results are grouped on.
const groupByKey = "link_id"

type chunkStore struct {
	client     *Client
	collection string
}

var _ driven.ChunkStore = (*chunkStore)(nil)

type chunkPayload struct {
	LinkID string `json:"link_id"`
	Chunk  string `json:"chunk"`
	URL    string `json:"url,omitempty"`
}

type scoredPoint struct {
	ID      pointID      `json:"id"`
	Score   float64      `json:"score"`
	Payload chunkPayload `json:"payload"`
}

func (s *chunkStore) path(suffix string) string {
	return "/collections/" + s.collection + suffix
}

func (s *chunkStore) Count(ctx context.Context) (int, error) {
	var out struct {
		Count int `json:"count"`
	}
	if err := s.client.do(ctx, http.MethodPost, s.path("/points/count"), map[string]any{"exact": true}, &out); err != nil {
		return 0, err
	}
	return out.Count, nil
}

func (s *chunkStore) Save(ctx context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	points := make([]map[string]any, len(chunks))
	for i, c := range chunks {
		if len(c.Embedding) == 0 {
			return fmt.Errorf("chunk %s has no embedding", c.ID)
		}
		points[i] = map[string]any{
			"id":     c.ID,
			"vector": c.Embedding,
			"payload": chunkPayload{
				LinkID: c.LinkID,
				Chunk:  c.Content,
				URL:    c.URL,
			},
		}
	}
	return s.client.do(ctx, http.MethodPut, s.path("/points?wait=true"), map[string]any{"points": points}, nil)
}

func (s *chunkStore) GroupedSearch(
	ctx context.Context, req domain.GroupedSearchRequest,
) ([]domain.ChunkGroup, error) {
	if req.Restricted() && len(req.LinkIDs) == 0 {
		return []domain.ChunkGroup{}, nil
	}
	groupSize := req.GroupSize
	if groupSize <= 0 {
		groupSize = 1
	}

	body := map[string]any{
		"vector":       req.Vector,
		"group_by":     groupByKey,
		"limit":        req.Limit,
		"group_size":   groupSize,
		"with_payload": true,
	}
	if req.Restricted() {
		body["filter"] = filter{Must: []condition{{Key: groupByKey, Match: &match{Any: req.LinkIDs}}}}
	}

	var out struct {
		Groups []struct {
			ID   pointID       `json:"id"`
			Hits []scoredPoint `json:"hits"`
		} `json:"groups"`
	}
	if err := s.client.do(ctx, http.MethodPost, s.path("/points/search/groups"), body, &out); err != nil {
		return nil, err
	}

	groups := make([]domain.ChunkGroup, 0, len(out.Groups))
	for _, g := range out.Groups {
		group := domain.ChunkGroup{LinkID: string(g.ID)}
		for _, h := range g.Hits {
			group.Hits = append(group.Hits, domain.ChunkHit{
				Chunk: domain.Chunk{
					ID:      string(h.ID),
					LinkID:  h.Payload.LinkID,
					Content: h.Payload.Chunk,
					URL:     h.Payload.URL,
				},
				Score: h.Score,
			})
		}
		groups = append(groups, group)
	}
	return groups, nil
}

func (s *chunkStore) DeleteByLinkID(ctx context.Context, linkID string) error {
	body := map[string]any{
		"filter": filter{Must: []condition{{Key: groupByKey, Match: &match{Value: linkID}}}},
	}
	return s.client.do(ctx, http.MethodPost, s.path("/points/delete?wait=true"), body, nil)
}
