// Package mcp provides an MCP (Model Context Protocol) server adapter for linkrank.
// It lets AI assistants run filtered link queries, rate links and read
// reward points.
package mcp

import "errors"

// ErrMissingQueryService is returned when the query service is not provided.
var ErrMissingQueryService = errors.New("mcp: query service is required")
