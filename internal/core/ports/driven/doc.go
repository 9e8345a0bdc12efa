// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - MetadataStore: Link metadata persistence (SQLite, Postgres, Qdrant, memory)
//   - ChunkStore: Chunk persistence and grouped similarity search
//   - RatingStore: Per-user link ratings
//   - PointsLedger: User reward balances
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - EmbeddingService: Encodes text. Without it, queries and link ingestion
//     return domain.ErrEmbeddingUnavailable while management commands still work.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
