package qdrant

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/linkrank/internal/core/domain"
)

// fakeQdrant records requests and answers with canned results per route.
type fakeQdrant struct {
	mu       sync.Mutex
	requests []recordedRequest
	results  map[string][]string // route -> queued result JSON
	status   map[string]int
}

type recordedRequest struct {
	Method string
	Path   string
	Query  string
	APIKey string
	Body   map[string]any
}

func newFakeQdrant(t *testing.T) (*fakeQdrant, *httptest.Server) {
	t.Helper()
	f := &fakeQdrant{results: map[string][]string{}, status: map[string]int{}}
	srv := httptest.NewServer(http.HandlerFunc(f.handle))
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeQdrant) respond(route string, results ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results[route] = append(f.results[route], results...)
}

func (f *fakeQdrant) handle(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	rec := recordedRequest{Method: r.Method, Path: r.URL.Path, Query: r.URL.RawQuery, APIKey: r.Header.Get("api-key")}
	if data, _ := io.ReadAll(r.Body); len(data) > 0 {
		_ = json.Unmarshal(data, &rec.Body)
	}
	f.requests = append(f.requests, rec)

	route := r.Method + " " + r.URL.Path
	if code, ok := f.status[route]; ok {
		w.WriteHeader(code)
		_, _ = w.Write([]byte(`{"status":{"error":"boom"}}`))
		return
	}
	result := "true"
	if queued := f.results[route]; len(queued) > 0 {
		result = queued[0]
		f.results[route] = queued[1:]
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok","time":0.001,"result":` + result + `}`))
}

func (f *fakeQdrant) last() recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

func newTestClient(srv *httptest.Server) *Client {
	return New(Config{URL: srv.URL + "/", APIKey: "secret", ChunkDimensions: 2, MetadataDimensions: 4})
}

func TestNew_Defaults(t *testing.T) {
	c := New(Config{URL: "http://localhost:6333"})
	assert.Equal(t, DefaultMetadataCollection, c.cfg.MetadataCollection)
	assert.Equal(t, DefaultChunkCollection, c.cfg.ChunkCollection)
	assert.Equal(t, DefaultMetadataDimensions, c.cfg.MetadataDimensions)
	assert.Equal(t, DefaultTimeout, c.client.Timeout)
}

func TestEnsureCollections_CreatesMissing(t *testing.T) {
	f, srv := newFakeQdrant(t)
	f.status["GET /collections/"+DefaultMetadataCollection] = http.StatusNotFound
	f.respond("GET /collections/"+DefaultChunkCollection, `{"status":"green"}`)

	require.NoError(t, newTestClient(srv).EnsureCollections(context.Background()))

	var creates []recordedRequest
	for _, r := range f.requests {
		if r.Method == http.MethodPut {
			creates = append(creates, r)
		}
	}
	require.Len(t, creates, 2)
	assert.Equal(t, "/collections/"+DefaultMetadataCollection, creates[0].Path)
	vectors := creates[0].Body["vectors"].(map[string]any)
	assert.Equal(t, 4.0, vectors["size"])
	assert.Equal(t, "Cosine", vectors["distance"])
	assert.Equal(t, "/collections/"+DefaultChunkCollection+"/index", creates[1].Path)
	assert.Equal(t, "secret", creates[0].APIKey)
}

func TestEnsureCollections_RequiresDimensions(t *testing.T) {
	c := New(Config{URL: "http://unused"})
	assert.Error(t, c.EnsureCollections(context.Background()))
}

func TestMetadataStore_ScanBuildsFilter(t *testing.T) {
	f, srv := newFakeQdrant(t)
	f.respond("POST /collections/"+DefaultMetadataCollection+"/points/scroll",
		`{"points":[{"id":"a","payload":{"metadata":{"url":"https://a","link_type":"report","co2_score":50,"user":{"id":"u1"}}}}],"next_page_offset":null}`)

	docs, err := newTestClient(srv).MetadataStore().Scan(context.Background(), domain.Predicate{
		LinkTypes: []string{"report"},
		Ranges:    []domain.FieldRange{{Category: domain.CategoryCO2, Range: domain.Range{Low: 10, High: 60}}},
		OwnerID:   "u1",
	}, 5)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "a", docs[0].ID)
	assert.Equal(t, 50.0, docs[0].CO2Score)
	assert.Equal(t, "u1", docs[0].User.ID)

	req := f.last()
	assert.Equal(t, 5.0, req.Body["limit"])
	must := req.Body["filter"].(map[string]any)["must"].([]any)
	require.Len(t, must, 3)
	assert.Equal(t, map[string]any{"key": "metadata.link_type", "match": map[string]any{"any": []any{"report"}}}, must[0])
	assert.Equal(t, map[string]any{"key": "metadata.co2_score", "range": map[string]any{"gte": 10.0, "lte": 60.0}}, must[1])
	assert.Equal(t, map[string]any{"key": "metadata.user.id", "match": map[string]any{"value": "u1"}}, must[2])
}

func TestMetadataStore_ScanPages(t *testing.T) {
	f, srv := newFakeQdrant(t)
	route := "POST /collections/" + DefaultMetadataCollection + "/points/scroll"
	f.respond(route,
		`{"points":[{"id":"a","payload":{"metadata":{}}}],"next_page_offset":"b"}`,
		`{"points":[{"id":"b","payload":{"metadata":{}}}],"next_page_offset":null}`)

	docs, err := newTestClient(srv).MetadataStore().Scan(context.Background(), domain.Predicate{}, 0)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "b", docs[1].ID)

	req := f.last()
	assert.Equal(t, "b", req.Body["offset"])
	assert.NotContains(t, req.Body, "filter")
}

func TestMetadataStore_GetKeepsRequestOrder(t *testing.T) {
	f, srv := newFakeQdrant(t)
	const (
		idA     = "0b5cbd0e-3f0a-4e43-9a3c-6d1f0e6a7a01"
		idC     = "0b5cbd0e-3f0a-4e43-9a3c-6d1f0e6a7a03"
		missing = "0b5cbd0e-3f0a-4e43-9a3c-6d1f0e6a7a09"
	)
	f.respond("POST /collections/"+DefaultMetadataCollection+"/points",
		`[{"id":"`+idA+`","payload":{"metadata":{"title":"A"}}},{"id":"`+idC+`","payload":{"metadata":{"title":"C"}}}]`)

	docs, err := newTestClient(srv).MetadataStore().Get(context.Background(), []string{idC, missing, idA})
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "C", docs[0].Title)
	assert.Equal(t, "A", docs[1].Title)
}

func TestMetadataStore_GetSkipsMalformedIDs(t *testing.T) {
	f, srv := newFakeQdrant(t)
	route := "POST /collections/" + DefaultMetadataCollection + "/points"
	f.status[route] = http.StatusBadRequest

	docs, err := newTestClient(srv).MetadataStore().Get(context.Background(), []string{"abc", "not-a-uuid"})
	require.NoError(t, err)
	assert.Empty(t, docs)
	assert.Empty(t, f.requests)

	delete(f.status, route)
	const id = "0b5cbd0e-3f0a-4e43-9a3c-6d1f0e6a7a01"
	f.respond(route, `[{"id":"`+id+`","payload":{"metadata":{"title":"A"}}},{"id":7,"payload":{"metadata":{"title":"Seven"}}}]`)

	docs, err = newTestClient(srv).MetadataStore().Get(context.Background(), []string{"abc", id, "7"})
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "A", docs[0].Title)
	assert.Equal(t, "Seven", docs[1].Title)
	assert.Equal(t, []any{id, float64(7)}, f.last().Body["ids"])
}

func TestMetadataStore_SaveRegeneratesPlaceholder(t *testing.T) {
	f, srv := newFakeQdrant(t)
	store := newTestClient(srv).MetadataStore()
	doc := &domain.Document{ID: "a", URL: "https://a", Summary: "s"}

	require.NoError(t, store.Save(context.Background(), doc))
	first := f.last()
	require.NoError(t, store.Save(context.Background(), doc))
	second := f.last()

	assert.Equal(t, "wait=true", first.Query)
	p1 := first.Body["points"].([]any)[0].(map[string]any)
	p2 := second.Body["points"].([]any)[0].(map[string]any)
	assert.Equal(t, "a", p1["id"])
	assert.Len(t, p1["vector"], 4)
	assert.NotEqual(t, p1["vector"], p2["vector"])
	meta := p1["payload"].(map[string]any)["metadata"].(map[string]any)
	assert.Equal(t, "s", meta["summary"])
}

func TestMetadataStore_Count(t *testing.T) {
	f, srv := newFakeQdrant(t)
	f.respond("POST /collections/"+DefaultMetadataCollection+"/points/count", `{"count":7}`)

	n, err := newTestClient(srv).MetadataStore().Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, n)
}

func TestChunkStore_GroupedSearch(t *testing.T) {
	f, srv := newFakeQdrant(t)
	f.respond("POST /collections/"+DefaultChunkCollection+"/points/search/groups", `{"groups":[
		{"id":"a","hits":[{"id":"a1","score":0.9,"payload":{"link_id":"a","chunk":"alpha","url":"https://a"}}]},
		{"id":"b","hits":[{"id":"b1","score":0.5,"payload":{"link_id":"b","chunk":"beta"}}]}
	]}`)

	groups, err := newTestClient(srv).ChunkStore().GroupedSearch(context.Background(), domain.GroupedSearchRequest{
		Vector: []float32{1, 0}, LinkIDs: []string{"a", "b"}, Limit: 3, GroupSize: 1,
	})
	require.NoError(t, err)
	require.Len(t, groups, 2)
	best, ok := groups[0].Best()
	require.True(t, ok)
	assert.Equal(t, "a", groups[0].LinkID)
	assert.Equal(t, "alpha", best.Chunk.Content)
	assert.Equal(t, 0.9, best.Score)

	req := f.last()
	assert.Equal(t, "link_id", req.Body["group_by"])
	assert.Equal(t, 3.0, req.Body["limit"])
	assert.Equal(t, 1.0, req.Body["group_size"])
	must := req.Body["filter"].(map[string]any)["must"].([]any)
	assert.Equal(t, map[string]any{"key": "link_id", "match": map[string]any{"any": []any{"a", "b"}}}, must[0])
}

func TestChunkStore_GroupedSearchEmptyCandidates(t *testing.T) {
	f, srv := newFakeQdrant(t)

	groups, err := newTestClient(srv).ChunkStore().GroupedSearch(context.Background(), domain.GroupedSearchRequest{
		Vector: []float32{1, 0}, LinkIDs: []string{}, Limit: 3,
	})
	require.NoError(t, err)
	assert.Empty(t, groups)
	assert.Empty(t, f.requests)
}

func TestChunkStore_DeleteByLinkID(t *testing.T) {
	f, srv := newFakeQdrant(t)

	require.NoError(t, newTestClient(srv).ChunkStore().DeleteByLinkID(context.Background(), "a"))

	req := f.last()
	assert.Equal(t, "/collections/"+DefaultChunkCollection+"/points/delete", req.Path)
	must := req.Body["filter"].(map[string]any)["must"].([]any)
	assert.Equal(t, map[string]any{"key": "link_id", "match": map[string]any{"value": "a"}}, must[0])
}

func TestChunkStore_SaveRequiresEmbedding(t *testing.T) {
	_, srv := newFakeQdrant(t)
	err := newTestClient(srv).ChunkStore().Save(context.Background(), []domain.Chunk{{ID: "x"}})
	assert.Error(t, err)
}

func TestClient_ErrorStatus(t *testing.T) {
	f, srv := newFakeQdrant(t)
	f.status["POST /collections/"+DefaultChunkCollection+"/points/count"] = http.StatusInternalServerError

	_, err := newTestClient(srv).ChunkStore().Count(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestPointID_AcceptsNumbers(t *testing.T) {
	var ids []pointID
	require.NoError(t, json.Unmarshal([]byte(`["abc", 42]`), &ids))
	assert.Equal(t, []pointID{"abc", "42"}, ids)
}
