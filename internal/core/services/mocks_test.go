package services

import (
	"context"
	"errors"

	"github.com/stretchr/testify/mock"

	"github.com/custodia-labs/linkrank/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/linkrank/internal/core/domain"
)

var errStoreDown = errors.New("store down")

// mockEmbedding is a testify mock of driven.EmbeddingService.
type mockEmbedding struct {
	mock.Mock
}

func (m *mockEmbedding) Embed(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)
	v, _ := args.Get(0).([]float32)
	return v, args.Error(1)
}

func (m *mockEmbedding) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	args := m.Called(ctx, texts)
	v, _ := args.Get(0).([][]float32)
	return v, args.Error(1)
}

func (m *mockEmbedding) Dimensions() int           { return 2 }
func (m *mockEmbedding) ModelName() string         { return "mock" }
func (m *mockEmbedding) Ping(context.Context) error { return nil }
func (m *mockEmbedding) Close() error              { return nil }

// staticEmbedding maps known texts to fixed vectors and everything else to [1,0].
type staticEmbedding struct {
	vectors map[string][]float32
	calls   int
}

func (e *staticEmbedding) Embed(_ context.Context, text string) ([]float32, error) {
	e.calls++
	if v, ok := e.vectors[text]; ok {
		return v, nil
	}
	return []float32{1, 0}, nil
}

func (e *staticEmbedding) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, _ := e.Embed(ctx, t)
		out[i] = v
	}
	return out, nil
}

func (e *staticEmbedding) Dimensions() int           { return 2 }
func (e *staticEmbedding) ModelName() string         { return "static" }
func (e *staticEmbedding) Ping(context.Context) error { return nil }
func (e *staticEmbedding) Close() error              { return nil }

// faultyMetadata wraps a memory store and fails selected operations.
type faultyMetadata struct {
	*memory.MetadataStore
	failCount  bool
	failScan   bool
	failDelete bool
	getCalls   int
}

func (f *faultyMetadata) Count(ctx context.Context) (int, error) {
	if f.failCount {
		return 0, errStoreDown
	}
	return f.MetadataStore.Count(ctx)
}

func (f *faultyMetadata) Scan(ctx context.Context, p domain.Predicate, limit int) ([]domain.Document, error) {
	if f.failScan {
		return nil, errStoreDown
	}
	return f.MetadataStore.Scan(ctx, p, limit)
}

func (f *faultyMetadata) Get(ctx context.Context, ids []string) ([]domain.Document, error) {
	f.getCalls++
	return f.MetadataStore.Get(ctx, ids)
}

func (f *faultyMetadata) Delete(ctx context.Context, ids []string) error {
	if f.failDelete {
		return errStoreDown
	}
	return f.MetadataStore.Delete(ctx, ids)
}

// faultyChunks wraps a memory chunk store and fails selected operations.
type faultyChunks struct {
	*memory.ChunkStore
	failSave   bool
	failDelete bool
	failSearch bool
}

func (f *faultyChunks) Save(ctx context.Context, chunks []domain.Chunk) error {
	if f.failSave {
		return errStoreDown
	}
	return f.ChunkStore.Save(ctx, chunks)
}

func (f *faultyChunks) DeleteByLinkID(ctx context.Context, linkID string) error {
	if f.failDelete {
		return errStoreDown
	}
	return f.ChunkStore.DeleteByLinkID(ctx, linkID)
}

func (f *faultyChunks) GroupedSearch(ctx context.Context, req domain.GroupedSearchRequest) ([]domain.ChunkGroup, error) {
	if f.failSearch {
		return nil, errStoreDown
	}
	return f.ChunkStore.GroupedSearch(ctx, req)
}

// faultyRatings fails every listing.
type faultyRatings struct {
	*memory.RatingStore
}

func (f *faultyRatings) ListByDocument(context.Context, string) ([]domain.Rating, error) {
	return nil, errStoreDown
}

// faultyLedger fails every grant.
type faultyLedger struct {
	*memory.PointsLedger
}

func (f *faultyLedger) Grant(context.Context, string, int) (int, error) {
	return 0, errStoreDown
}

func ptr[T any](v T) *T { return &v }
