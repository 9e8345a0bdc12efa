package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/linkrank/internal/core/domain"
)

const (
	// uriScheme is the custom URI scheme for linkrank resources.
	uriScheme = "linkrank://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	if s.ports.Link == nil {
		return
	}

	// Static resource for listing links.
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "links",
		Name:        "links",
		Description: "All indexed links",
		MIMEType:    "application/json",
	}, s.handleLinksResource)

	// Template for a single link.
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "links/{linkId}",
		Name:        "link",
		Description: "Metadata and aggregate rating of a specific link",
		MIMEType:    "application/json",
	}, s.handleLinkResource)
}

// handleLinksResource returns a summary of every link.
func (s *Server) handleLinksResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	docs, err := s.ports.Link.List(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("listing links: %w", err)
	}

	// Build simplified link list.
	type linkInfo struct {
		ID       string `json:"id"`
		Title    string `json:"title"`
		URL      string `json:"url"`
		LinkType string `json:"link_type"`
	}

	infos := make([]linkInfo, len(docs))
	for i := range docs {
		infos[i] = linkInfo{
			ID:       docs[i].ID,
			Title:    docs[i].Title,
			URL:      docs[i].URL,
			LinkType: docs[i].LinkType,
		}
	}

	return jsonResource(req.Params.URI, infos)
}

// handleLinkResource returns the metadata of one link with its rating.
func (s *Server) handleLinkResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	linkID := extractLinkID(req.Params.URI)
	if linkID == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	doc, err := s.ports.Link.Get(ctx, linkID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	if err != nil {
		return nil, fmt.Errorf("getting link: %w", err)
	}

	out := struct {
		*domain.Document
		UserRating *float64 `json:"user_rating"`
	}{Document: doc}

	if s.ports.Rating != nil {
		out.UserRating, err = s.ports.Rating.RatingOf(ctx, linkID)
		if err != nil {
			return nil, fmt.Errorf("getting rating: %w", err)
		}
	}

	return jsonResource(req.Params.URI, out)
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling resource: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractLinkID extracts the link ID from a URI like linkrank://links/{linkId}.
func extractLinkID(uri string) string {
	const prefix = uriScheme + "links/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	id := strings.TrimPrefix(uri, prefix)
	if strings.Contains(id, "/") {
		return ""
	}
	return id
}
