package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/linkrank/internal/core/domain"
)

// setupTestStore creates a temporary SQLite store for testing.
func setupTestStore(t *testing.T) (*Store, func()) {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "linkrank-test-*")
	require.NoError(t, err)

	store, err := NewStore(tempDir)
	require.NoError(t, err)
	require.NotNil(t, store)

	cleanup := func() {
		assert.NoError(t, store.Close())
		assert.NoError(t, os.RemoveAll(tempDir))
	}

	return store, cleanup
}

func seedLinks(t *testing.T, store *Store) {
	t.Helper()
	ctx := context.Background()
	ms := store.MetadataStore()
	for _, d := range []domain.Document{
		{ID: "a", URL: "https://a.example", Title: "A", LinkType: "report", CO2Score: 50, User: domain.Owner{ID: "u1", Name: "Ada"}},
		{ID: "b", URL: "https://b.example", Title: "B", LinkType: "news", CO2Score: 10, User: domain.Owner{ID: "u2"}},
		{ID: "c", URL: "https://c.example", Title: "C", LinkType: "report", CO2Score: 90, User: domain.Owner{ID: "u1"}},
	} {
		require.NoError(t, ms.Save(ctx, &d))
	}
}

// ==================== Store Tests ====================

func TestNewStore_CreatesDatabase(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	assert.Equal(t, "linkrank.db", filepath.Base(store.Path()))
	_, err := os.Stat(store.Path())
	assert.NoError(t, err)
}

func TestNewStore_ReopenKeepsData(t *testing.T) {
	tempDir := t.TempDir()

	store, err := NewStore(tempDir)
	require.NoError(t, err)
	seedLinks(t, store)
	require.NoError(t, store.Close())

	store, err = NewStore(tempDir)
	require.NoError(t, err)
	defer store.Close()

	n, err := store.MetadataStore().Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	var version int
	require.NoError(t, store.db.QueryRow("SELECT MAX(version) FROM schema_migrations").Scan(&version))
	assert.Equal(t, 1, version)
}

// ==================== MetadataStore Tests ====================

func TestMetadataStore_SaveAndGet(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	seedLinks(t, store)

	ctx := context.Background()
	ms := store.MetadataStore()

	docs, err := ms.Get(ctx, []string{"c", "missing", "a"})
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "c", docs[0].ID)
	assert.Equal(t, "a", docs[1].ID)
	assert.Equal(t, "Ada", docs[1].User.Name)
	assert.Equal(t, 50.0, docs[1].CO2Score)

	docs, err = ms.Get(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestMetadataStore_SaveOverwrites(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	seedLinks(t, store)

	ctx := context.Background()
	ms := store.MetadataStore()

	docs, err := ms.Get(ctx, []string{"a"})
	require.NoError(t, err)
	doc := docs[0]
	doc.Summary = "updated"
	require.NoError(t, ms.Save(ctx, &doc))

	n, err := ms.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	docs, err = ms.Get(ctx, []string{"a"})
	require.NoError(t, err)
	assert.Equal(t, "updated", docs[0].Summary)
	assert.Equal(t, "A", docs[0].Title)
}

func TestMetadataStore_Scan(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	seedLinks(t, store)

	ctx := context.Background()
	ms := store.MetadataStore()

	tests := []struct {
		name  string
		pred  domain.Predicate
		limit int
		want  []string
	}{
		{"empty predicate", domain.Predicate{}, 10, []string{"a", "b", "c"}},
		{"limit", domain.Predicate{}, 2, []string{"a", "b"}},
		{"link type", domain.Predicate{LinkTypes: []string{"report"}}, 10, []string{"a", "c"}},
		{"range inclusive", domain.Predicate{Ranges: []domain.FieldRange{
			{Category: domain.CategoryCO2, Range: domain.Range{Low: 10, High: 50}},
		}}, 10, []string{"a", "b"}},
		{"conjunction", domain.Predicate{
			LinkTypes: []string{"report"},
			Ranges: []domain.FieldRange{
				{Category: domain.CategoryCO2, Range: domain.Range{Low: 60, High: 100}},
			},
		}, 10, []string{"c"}},
		{"owner", domain.Predicate{OwnerID: "u2"}, 10, []string{"b"}},
		{"no match", domain.Predicate{LinkTypes: []string{"blog"}}, 10, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			docs, err := ms.Scan(ctx, tt.pred, tt.limit)
			require.NoError(t, err)
			ids := make([]string, 0, len(docs))
			for _, d := range docs {
				ids = append(ids, d.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestMetadataStore_ScanRejectsUnknownCategory(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	_, err := store.MetadataStore().Scan(context.Background(), domain.Predicate{
		Ranges: []domain.FieldRange{{Category: "id; DROP TABLE links", Range: domain.Range{High: 1}}},
	}, 10)
	assert.Error(t, err)
}

func TestMetadataStore_Delete(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	seedLinks(t, store)

	ctx := context.Background()
	ms := store.MetadataStore()

	require.NoError(t, ms.Delete(ctx, []string{"a", "missing"}))
	require.NoError(t, ms.Delete(ctx, nil))

	n, err := ms.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

// ==================== ChunkStore Tests ====================

func seedChunks(t *testing.T, store *Store) {
	t.Helper()
	require.NoError(t, store.ChunkStore().Save(context.Background(), []domain.Chunk{
		{ID: "a1", LinkID: "a", Content: "a one", URL: "https://a.example", Embedding: []float32{1, 0}},
		{ID: "a2", LinkID: "a", Content: "a two", Embedding: []float32{0.8, 0.6}},
		{ID: "b1", LinkID: "b", Content: "b one", Embedding: []float32{0.9, 0.3}},
		{ID: "c1", LinkID: "c", Content: "c one", Embedding: []float32{0.5, 0.8}},
	}))
}

func TestChunkStore_GroupedSearch(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	seedChunks(t, store)

	ctx := context.Background()
	cs := store.ChunkStore()

	groups, err := cs.GroupedSearch(ctx, domain.GroupedSearchRequest{
		Vector: []float32{1, 0}, Limit: 10, GroupSize: 1,
	})
	require.NoError(t, err)
	require.Len(t, groups, 3)
	assert.Equal(t, "a", groups[0].LinkID)
	assert.Equal(t, "b", groups[1].LinkID)
	assert.Equal(t, "c", groups[2].LinkID)

	best, ok := groups[0].Best()
	require.True(t, ok)
	assert.Equal(t, "a1", best.Chunk.ID)
	assert.Equal(t, "a one", best.Chunk.Content)
	assert.Equal(t, "https://a.example", best.Chunk.URL)
	assert.InDelta(t, 1.0, best.Score, 1e-6)
	assert.Len(t, groups[0].Hits, 1)
}

func TestChunkStore_GroupedSearchRestricted(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	seedChunks(t, store)

	ctx := context.Background()
	cs := store.ChunkStore()

	groups, err := cs.GroupedSearch(ctx, domain.GroupedSearchRequest{
		Vector: []float32{1, 0}, LinkIDs: []string{"c", "b"}, Limit: 1, GroupSize: 1,
	})
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, "b", groups[0].LinkID)

	groups, err = cs.GroupedSearch(ctx, domain.GroupedSearchRequest{
		Vector: []float32{1, 0}, LinkIDs: []string{}, Limit: 10, GroupSize: 1,
	})
	require.NoError(t, err)
	assert.Empty(t, groups)
}

func TestChunkStore_SaveRequiresEmbedding(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	err := store.ChunkStore().Save(context.Background(), []domain.Chunk{{ID: "x", LinkID: "a", Content: "x"}})
	assert.Error(t, err)
}

func TestChunkStore_DeleteByLinkID(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	seedChunks(t, store)

	ctx := context.Background()
	cs := store.ChunkStore()

	require.NoError(t, cs.DeleteByLinkID(ctx, "a"))
	require.NoError(t, cs.DeleteByLinkID(ctx, "missing"))

	n, err := cs.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestFloat32BlobRoundTrip(t *testing.T) {
	in := []float32{0, 1.5, -2.25, 3e-7}
	assert.Equal(t, in, bytesToFloat32Slice(float32SliceToBytes(in)))
	assert.Nil(t, float32SliceToBytes(nil))
	assert.Nil(t, bytesToFloat32Slice(nil))
}
