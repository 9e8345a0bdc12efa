package mcp

import (
	"context"

	"github.com/custodia-labs/linkrank/internal/core/domain"
)

// mockQueryService is a mock implementation of driving.QueryService.
type mockQueryService struct {
	results    []domain.QueryResult
	err        error
	lastText   string
	lastFilter domain.FilterRequest
}

func (m *mockQueryService) Query(
	_ context.Context,
	text string,
	filter domain.FilterRequest,
) ([]domain.QueryResult, error) {
	m.lastText = text
	m.lastFilter = filter
	return m.results, m.err
}

// mockLinkService is a mock implementation of driving.LinkService.
type mockLinkService struct {
	links     []domain.Document
	link      *domain.Document
	err       error
	lastPatch domain.DocumentPatch
	deleted   []string
}

func (m *mockLinkService) Add(_ context.Context, link domain.NewLink) (*domain.Document, error) {
	return &link.Document, m.err
}

func (m *mockLinkService) Get(_ context.Context, _ string) (*domain.Document, error) {
	return m.link, m.err
}

func (m *mockLinkService) List(_ context.Context, _ string) ([]domain.Document, error) {
	return m.links, m.err
}

func (m *mockLinkService) Update(_ context.Context, _ string, patch domain.DocumentPatch) (*domain.Document, error) {
	m.lastPatch = patch
	return m.link, m.err
}

func (m *mockLinkService) Delete(_ context.Context, id string) error {
	if m.err != nil {
		return m.err
	}
	m.deleted = append(m.deleted, id)
	return nil
}

// mockRatingService is a mock implementation of driving.RatingService.
type mockRatingService struct {
	outcome *domain.RatingOutcome
	average *float64
	ratings []domain.Rating
	err     error
}

func (m *mockRatingService) Rate(_ context.Context, _, _ string, _ float64) (*domain.RatingOutcome, error) {
	return m.outcome, m.err
}

func (m *mockRatingService) RatingOf(_ context.Context, _ string) (*float64, error) {
	return m.average, m.err
}

func (m *mockRatingService) ListByUser(_ context.Context, _ string) ([]domain.Rating, error) {
	return m.ratings, m.err
}

// mockPointsService is a mock implementation of driving.PointsService.
type mockPointsService struct {
	status *domain.PointsStatus
	err    error
}

func (m *mockPointsService) Status(_ context.Context, _ string) (*domain.PointsStatus, error) {
	return m.status, m.err
}

func (m *mockPointsService) Grant(_ context.Context, _ string, _ int) (*domain.PointsStatus, error) {
	return m.status, m.err
}
