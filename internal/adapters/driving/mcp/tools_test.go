package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/linkrank/internal/core/domain"
)

func newTestServer(t *testing.T, ports *Ports) *Server {
	t.Helper()
	server, err := NewServer(ports)
	require.NoError(t, err)
	return server
}

func TestServer_handleQuery(t *testing.T) {
	ctx := context.Background()

	t.Run("returns query results", func(t *testing.T) {
		rating := 4.5
		mockQuery := &mockQueryService{
			results: []domain.QueryResult{{
				DocumentID: "link-1",
				Metadata:   domain.Document{ID: "link-1", Title: "Report", URL: "https://example.org"},
				Chunk:      "matching chunk",
				Score:      0.92,
				UserRating: &rating,
			}},
		}
		server := newTestServer(t, &Ports{Query: mockQuery})

		_, output, err := server.handleQuery(ctx, nil, QueryInput{Query: "emissions", Limit: 5})

		require.NoError(t, err)
		assert.Equal(t, 1, output.Count)
		require.Len(t, output.Results, 1)
		assert.Equal(t, "link-1", output.Results[0].LinkID)
		assert.Equal(t, "Report", output.Results[0].Metadata.Title)
		assert.Equal(t, "matching chunk", output.Results[0].Chunk)
		assert.Equal(t, 0.92, output.Results[0].Score)
		assert.Equal(t, &rating, output.Results[0].UserRating)
		assert.Equal(t, "emissions", mockQuery.lastText)
		assert.Equal(t, 5, mockQuery.lastFilter.QueryLimit)
	})

	t.Run("passes filters through", func(t *testing.T) {
		mockQuery := &mockQueryService{}
		server := newTestServer(t, &Ports{Query: mockQuery})

		input := QueryInput{
			Query:           "x",
			GeneralRating:   []float64{3, 5},
			LinkTypes:       []string{"report"},
			CategoryFilters: map[string][]float64{"co2_score": {10, 60}},
		}
		_, output, err := server.handleQuery(ctx, nil, input)

		require.NoError(t, err)
		assert.Empty(t, output.Results)
		assert.NotNil(t, output.Results)
		assert.Nil(t, mockQuery.lastFilter.QueryLimit)
		assert.Equal(t, []float64{3, 5}, mockQuery.lastFilter.GeneralRating)
		assert.Equal(t, []string{"report"}, mockQuery.lastFilter.LinkTypes)
		assert.Equal(t, []float64{10, 60}, mockQuery.lastFilter.CategoryFilters["co2_score"])
	})

	t.Run("serialises unrated links with null rating", func(t *testing.T) {
		mockQuery := &mockQueryService{
			results: []domain.QueryResult{{DocumentID: "link-2", Metadata: domain.Document{ID: "link-2"}, Chunk: "c"}},
		}
		server := newTestServer(t, &Ports{Query: mockQuery})

		_, output, err := server.handleQuery(ctx, nil, QueryInput{Query: "x"})
		require.NoError(t, err)

		data, err := json.Marshal(output)
		require.NoError(t, err)
		var decoded struct {
			Results []map[string]json.RawMessage `json:"results"`
		}
		require.NoError(t, json.Unmarshal(data, &decoded))
		require.Len(t, decoded.Results, 1)
		raw, ok := decoded.Results[0]["user_rating"]
		require.True(t, ok)
		assert.Equal(t, "null", string(raw))
	})

	t.Run("returns error on query failure", func(t *testing.T) {
		server := newTestServer(t, &Ports{Query: &mockQueryService{err: domain.ErrEmbeddingUnavailable}})

		_, _, err := server.handleQuery(ctx, nil, QueryInput{Query: "x"})

		assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
	})
}

func TestServer_handleRate(t *testing.T) {
	ctx := context.Background()

	t.Run("returns outcome", func(t *testing.T) {
		mockRating := &mockRatingService{outcome: &domain.RatingOutcome{
			Rating:        domain.Rating{UserID: "u1", LinkID: "link-1", Value: 4},
			Created:       true,
			PointsAwarded: 10,
		}}
		server := newTestServer(t, &Ports{Query: &mockQueryService{}, Rating: mockRating})

		_, output, err := server.handleRate(ctx, nil, RateInput{UserID: "u1", LinkID: "link-1", Rating: 4})

		require.NoError(t, err)
		assert.Equal(t, RateOutput{UserID: "u1", LinkID: "link-1", Rating: 4, Created: true, PointsAwarded: 10}, output)
	})

	t.Run("returns validation error", func(t *testing.T) {
		mockRating := &mockRatingService{err: domain.ErrInvalidInput}
		server := newTestServer(t, &Ports{Query: &mockQueryService{}, Rating: mockRating})

		_, _, err := server.handleRate(ctx, nil, RateInput{UserID: "u1", LinkID: "link-1", Rating: 9})

		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestServer_handleUpdate(t *testing.T) {
	ctx := context.Background()
	title := "New title"
	score := 42.0
	mockLink := &mockLinkService{link: &domain.Document{ID: "link-1", Title: title, CO2Score: score}}
	server := newTestServer(t, &Ports{Query: &mockQueryService{}, Link: mockLink})

	_, output, err := server.handleUpdate(ctx, nil, UpdateInput{ID: "link-1", Title: &title, CO2Score: &score})

	require.NoError(t, err)
	assert.Equal(t, "New title", output.Link.Title)
	assert.Equal(t, &title, mockLink.lastPatch.Title)
	assert.Equal(t, &score, mockLink.lastPatch.CO2Score)
	assert.Nil(t, mockLink.lastPatch.URL)
}

func TestServer_handleDelete(t *testing.T) {
	ctx := context.Background()

	t.Run("deletes link", func(t *testing.T) {
		mockLink := &mockLinkService{}
		server := newTestServer(t, &Ports{Query: &mockQueryService{}, Link: mockLink})

		_, output, err := server.handleDelete(ctx, nil, DeleteInput{ID: "link-1"})

		require.NoError(t, err)
		assert.True(t, output.Deleted)
		assert.Equal(t, []string{"link-1"}, mockLink.deleted)
	})

	t.Run("returns error on failure", func(t *testing.T) {
		mockLink := &mockLinkService{err: errors.New("store down")}
		server := newTestServer(t, &Ports{Query: &mockQueryService{}, Link: mockLink})

		_, _, err := server.handleDelete(ctx, nil, DeleteInput{ID: "link-1"})

		assert.Error(t, err)
	})
}

func TestServer_handlePoints(t *testing.T) {
	mockPoints := &mockPointsService{status: &domain.PointsStatus{UserID: "u1", Points: 260, Tier: "Contributor"}}
	server := newTestServer(t, &Ports{Query: &mockQueryService{}, Points: mockPoints})

	_, output, err := server.handlePoints(context.Background(), nil, PointsInput{UserID: "u1"})

	require.NoError(t, err)
	assert.Equal(t, domain.PointsStatus{UserID: "u1", Points: 260, Tier: "Contributor"}, output)
}
