package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/linkrank/internal/core/domain"
)

// QueryInput is the input schema for the query_links tool.
type QueryInput struct {
	Query           string               `json:"query" jsonschema:"natural language text to match against link chunks"`
	Limit           int                  `json:"limit,omitempty" jsonschema:"maximum number of links to return, 1 to 25 (default 10)"`
	GeneralRating   []float64            `json:"general_rating,omitempty" jsonschema:"aggregate user rating range as [low, high] within 0 to 5"`
	LinkTypes       []string             `json:"link_types,omitempty" jsonschema:"only return links of these types"`
	CategoryFilters map[string][]float64 `json:"category_filters,omitempty" jsonschema:"category score ranges keyed by co2_score, reduk_score, regul_score, report_score or sustfin_score"`
}

// QueryOutput is the output schema for the query_links tool.
type QueryOutput struct {
	Results []QueryResultOutput `json:"results"`
	Count   int                 `json:"count"`
}

// QueryResultOutput represents a single matching link.
type QueryResultOutput struct {
	LinkID     string          `json:"id_metadata"`
	Metadata   domain.Document `json:"metadata"`
	Chunk      string          `json:"chunk"`
	Score      float64         `json:"score"`
	UserRating *float64        `json:"user_rating"`
}

// RateInput is the input schema for the rate_link tool.
type RateInput struct {
	UserID string  `json:"user_id" jsonschema:"id of the rating user"`
	LinkID string  `json:"link_id" jsonschema:"id of the rated link"`
	Rating float64 `json:"rating" jsonschema:"rating between 0 and 5"`
}

// RateOutput is the output schema for the rate_link tool.
type RateOutput struct {
	UserID        string  `json:"user_id"`
	LinkID        string  `json:"link_id"`
	Rating        float64 `json:"rating"`
	Created       bool    `json:"created"`
	PointsAwarded int     `json:"points_awarded"`
}

// UpdateInput is the input schema for the update_link tool.
// Omitted fields keep their current value.
type UpdateInput struct {
	ID       string  `json:"id" jsonschema:"id of the link to update"`
	URL      *string `json:"url,omitempty"`
	Title    *string `json:"title,omitempty"`
	Name     *string `json:"name,omitempty"`
	LinkType *string `json:"link_type,omitempty"`
	Summary  *string `json:"summary,omitempty"`

	CO2Score                *float64 `json:"co2_score,omitempty" jsonschema:"score between 0 and 100"`
	ReductionScore          *float64 `json:"reduk_score,omitempty" jsonschema:"score between 0 and 100"`
	RegulationScore         *float64 `json:"regul_score,omitempty" jsonschema:"score between 0 and 100"`
	ReportingScore          *float64 `json:"report_score,omitempty" jsonschema:"score between 0 and 100"`
	SustainableFinanceScore *float64 `json:"sustfin_score,omitempty" jsonschema:"score between 0 and 100"`
}

// UpdateOutput is the output schema for the update_link tool.
type UpdateOutput struct {
	Link domain.Document `json:"link"`
}

// DeleteInput is the input schema for the delete_link tool.
type DeleteInput struct {
	ID string `json:"id" jsonschema:"id of the link to delete"`
}

// DeleteOutput is the output schema for the delete_link tool.
type DeleteOutput struct {
	ID      string `json:"id"`
	Deleted bool   `json:"deleted"`
}

// PointsInput is the input schema for the user_points tool.
type PointsInput struct {
	UserID string `json:"user_id" jsonschema:"id of the user"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "query_links",
		Description: "Find links whose text best matches a query, optionally filtered by type, category scores and user rating",
	}, s.handleQuery)

	if s.ports.Rating != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "rate_link",
			Description: "Create or update a user's 0-5 rating of a link",
		}, s.handleRate)
	}

	if s.ports.Link != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "update_link",
			Description: "Change the metadata of a link",
		}, s.handleUpdate)

		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "delete_link",
			Description: "Delete a link and all of its chunks",
		}, s.handleDelete)
	}

	if s.ports.Points != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "user_points",
			Description: "Show a user's reward points and tier",
		}, s.handlePoints)
	}
}

// handleQuery handles the query_links tool invocation.
func (s *Server) handleQuery(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input QueryInput,
) (*mcp.CallToolResult, QueryOutput, error) {
	filter := domain.FilterRequest{
		GeneralRating:   input.GeneralRating,
		LinkTypes:       input.LinkTypes,
		CategoryFilters: input.CategoryFilters,
	}
	if input.Limit > 0 {
		filter.QueryLimit = input.Limit
	}

	results, err := s.ports.Query.Query(ctx, input.Query, filter)
	if err != nil {
		return nil, QueryOutput{}, err
	}

	output := QueryOutput{
		Results: make([]QueryResultOutput, len(results)),
		Count:   len(results),
	}
	for i := range results {
		output.Results[i] = QueryResultOutput{
			LinkID:     results[i].DocumentID,
			Metadata:   results[i].Metadata,
			Chunk:      results[i].Chunk,
			Score:      results[i].Score,
			UserRating: results[i].UserRating,
		}
	}
	return nil, output, nil
}

// handleRate handles the rate_link tool invocation.
func (s *Server) handleRate(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RateInput,
) (*mcp.CallToolResult, RateOutput, error) {
	outcome, err := s.ports.Rating.Rate(ctx, input.UserID, input.LinkID, input.Rating)
	if err != nil {
		return nil, RateOutput{}, err
	}
	return nil, RateOutput{
		UserID:        outcome.Rating.UserID,
		LinkID:        outcome.Rating.LinkID,
		Rating:        outcome.Rating.Value,
		Created:       outcome.Created,
		PointsAwarded: outcome.PointsAwarded,
	}, nil
}

// handleUpdate handles the update_link tool invocation.
func (s *Server) handleUpdate(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input UpdateInput,
) (*mcp.CallToolResult, UpdateOutput, error) {
	patch := domain.DocumentPatch{
		URL:                     input.URL,
		Title:                   input.Title,
		Name:                    input.Name,
		LinkType:                input.LinkType,
		Summary:                 input.Summary,
		CO2Score:                input.CO2Score,
		ReductionScore:          input.ReductionScore,
		RegulationScore:         input.RegulationScore,
		ReportingScore:          input.ReportingScore,
		SustainableFinanceScore: input.SustainableFinanceScore,
	}

	doc, err := s.ports.Link.Update(ctx, input.ID, patch)
	if err != nil {
		return nil, UpdateOutput{}, err
	}
	return nil, UpdateOutput{Link: *doc}, nil
}

// handleDelete handles the delete_link tool invocation.
func (s *Server) handleDelete(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input DeleteInput,
) (*mcp.CallToolResult, DeleteOutput, error) {
	if err := s.ports.Link.Delete(ctx, input.ID); err != nil {
		return nil, DeleteOutput{}, err
	}
	return nil, DeleteOutput{ID: input.ID, Deleted: true}, nil
}

// handlePoints handles the user_points tool invocation.
func (s *Server) handlePoints(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input PointsInput,
) (*mcp.CallToolResult, domain.PointsStatus, error) {
	status, err := s.ports.Points.Status(ctx, input.UserID)
	if err != nil {
		return nil, domain.PointsStatus{}, err
	}
	return nil, *status, nil
}
