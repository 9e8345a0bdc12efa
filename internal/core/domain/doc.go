// Package domain defines the core business entities for linkrank.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: A submitted link with its category scores and owner
//   - Chunk: A fragment of a link's text carrying its own embedding
//   - Rating: One user's score for one link
//   - FilterRequest / CompiledFilter: Query restrictions before and after compilation
//   - QueryResult: One assembled retrieval hit
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
