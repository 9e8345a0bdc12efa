package qdrant

import (
	"context"
	"math/rand/v2"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/custodia-labs/linkrank/internal/core/domain"
	"github.com/custodia-labs/linkrank/internal/core/ports/driven"
)

// scrollPageSize bounds each scroll request.
const scrollPageSize = 256

type metadataStore struct {
	client     *Client
	collection string
	dimensions int
}

var _ driven.MetadataStore = (*metadataStore)(nil)

// metadataPayload is the stored shape of a link.
type metadataPayload struct {
	Metadata domain.Document `json:"metadata"`
}

type record struct {
	ID      pointID         `json:"id"`
	Payload metadataPayload `json:"payload"`
}

func (r record) document() domain.Document {
	doc := r.Payload.Metadata
	doc.ID = string(r.ID)
	return doc
}

func (s *metadataStore) path(suffix string) string {
	return "/collections/" + s.collection + suffix
}

func (s *metadataStore) Count(ctx context.Context) (int, error) {
	var out struct {
		Count int `json:"count"`
	}
	if err := s.client.do(ctx, http.MethodPost, s.path("/points/count"), map[string]any{"exact": true}, &out); err != nil {
		return 0, err
	}
	return out.Count, nil
}

// Scan pages through the collection in point id order.
func (s *metadataStore) Scan(ctx context.Context, pred domain.Predicate, limit int) ([]domain.Document, error) {
	f := metadataFilter(pred)
	docs := make([]domain.Document, 0)
	var offset any

	for limit <= 0 || len(docs) < limit {
		page := scrollPageSize
		if limit > 0 && limit-len(docs) < page {
			page = limit - len(docs)
		}
		body := map[string]any{
			"limit":        page,
			"with_payload": true,
			"with_vector":  false,
		}
		if f != nil {
			body["filter"] = f
		}
		if offset != nil {
			body["offset"] = offset
		}

		var out struct {
			Points         []record `json:"points"`
			NextPageOffset any      `json:"next_page_offset"`
		}
		if err := s.client.do(ctx, http.MethodPost, s.path("/points/scroll"), body, &out); err != nil {
			return nil, err
		}
		for _, p := range out.Points {
			docs = append(docs, p.document())
		}
		if out.NextPageOffset == nil || len(out.Points) == 0 {
			break
		}
		offset = out.NextPageOffset
	}
	return docs, nil
}

// metadataFilter translates the predicate to a Qdrant filter on the
// "metadata" payload. Nil means unrestricted.
func metadataFilter(pred domain.Predicate) *filter {
	if pred.IsEmpty() {
		return nil
	}
	f := &filter{}
	if len(pred.LinkTypes) > 0 {
		f.Must = append(f.Must, condition{Key: "metadata.link_type", Match: &match{Any: pred.LinkTypes}})
	}
	for _, fr := range pred.Ranges {
		f.Must = append(f.Must, condition{
			Key:   "metadata." + string(fr.Category),
			Range: &rangeCond{Gte: fr.Range.Low, Lte: fr.Range.High},
		})
	}
	if pred.OwnerID != "" {
		f.Must = append(f.Must, condition{Key: "metadata.user.id", Match: &match{Value: pred.OwnerID}})
	}
	return f
}

func (s *metadataStore) Get(ctx context.Context, ids []string) ([]domain.Document, error) {
	valid := validPointIDs(ids)
	if len(valid) == 0 {
		return []domain.Document{}, nil
	}
	body := map[string]any{
		"ids":          valid,
		"with_payload": true,
		"with_vector":  false,
	}
	var out []record
	if err := s.client.do(ctx, http.MethodPost, s.path("/points"), body, &out); err != nil {
		return nil, err
	}

	byID := make(map[string]domain.Document, len(out))
	for _, r := range out {
		byID[string(r.ID)] = r.document()
	}
	docs := make([]domain.Document, 0, len(out))
	for _, id := range ids {
		if d, ok := byID[id]; ok {
			docs = append(docs, d)
			delete(byID, id)
		}
	}
	return docs, nil
}

// validPointIDs drops ids qdrant would reject with a 400. Point ids are
// either UUID strings or unsigned integers sent as JSON numbers.
func validPointIDs(ids []string) []any {
	out := make([]any, 0, len(ids))
	for _, id := range ids {
		if _, err := uuid.Parse(id); err == nil {
			out = append(out, id)
			continue
		}
		if n, err := strconv.ParseUint(id, 10, 64); err == nil {
			out = append(out, n)
		}
	}
	return out
}

// Save upserts the link with a fresh placeholder vector.
func (s *metadataStore) Save(ctx context.Context, doc *domain.Document) error {
	body := map[string]any{
		"points": []map[string]any{{
			"id":      doc.ID,
			"vector":  placeholderVector(s.dimensions),
			"payload": metadataPayload{Metadata: *doc},
		}},
	}
	return s.client.do(ctx, http.MethodPut, s.path("/points?wait=true"), body, nil)
}

func (s *metadataStore) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return s.client.do(ctx, http.MethodPost, s.path("/points/delete?wait=true"), map[string]any{"points": ids}, nil)
}

func placeholderVector(n int) []float32 {
	v := make([]float32, n)
	for i := range v {
		v[i] = rand.Float32()
	}
	return v
}
