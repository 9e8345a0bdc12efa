// Package driving declares the operations the CLI and the MCP server call
// on the core: querying, link lifecycle, ratings and points.
//
// The services in internal/core/services implement every interface here.
package driving
