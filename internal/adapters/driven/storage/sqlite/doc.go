// Package sqlite provides a unified SQLite-based implementation of the
// linkrank storage ports.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that
// requires no CGO. A single database file backs four stores:
//
//   - MetadataStore: link metadata records
//   - ChunkStore: chunk text and embeddings
//   - RatingStore: per-user ratings
//   - PointsLedger: contributor point balances
//
// # Similarity search
//
// Embeddings are stored as little-endian float32 blobs. GroupedSearch loads
// the admitted chunks and ranks them exhaustively in process, so results and
// tie-breaks match the memory adapter.
//
// # Schema
//
// The schema is managed through versioned migrations embedded from the
// migrations/ directory.
//
// # Data Location
//
// By default, the database is stored at ~/.linkrank/data/linkrank.db
package sqlite
