package domain

// QueryResult is one assembled retrieval hit. The JSON names are part of
// the public response shape.
type QueryResult struct {
	DocumentID string   `json:"id_metadata"`
	Metadata   Document `json:"metadata"`
	Chunk      string   `json:"chunk"`
	Score      float64  `json:"score"`
	UserRating *float64 `json:"user_rating"`
}

// GroupedSearchRequest asks a chunk store for the best chunk per link.
type GroupedSearchRequest struct {
	// Vector is the encoded query.
	Vector []float32

	// LinkIDs restricts the search to these links. Nil means unrestricted;
	// an empty non-nil slice matches nothing.
	LinkIDs []string

	// Limit is the maximum number of groups returned.
	Limit int

	// GroupSize is the number of hits kept per group.
	GroupSize int
}

// Restricted reports whether a candidate restriction applies.
func (r GroupedSearchRequest) Restricted() bool {
	return r.LinkIDs != nil
}

// ChunkHit is a scored chunk.
type ChunkHit struct {
	Chunk Chunk
	Score float64
}

// ChunkGroup holds the best hits of one link, highest score first.
type ChunkGroup struct {
	LinkID string
	Hits   []ChunkHit
}

// Best returns the highest scoring hit of the group.
func (g ChunkGroup) Best() (ChunkHit, bool) {
	if len(g.Hits) == 0 {
		return ChunkHit{}, false
	}
	return g.Hits[0], true
}
