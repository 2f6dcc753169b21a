package repository

// ChunkMatch is one nearest-neighbor hit from the vector index: the
// owning mail UID and the chunk's distance to the query vector.
type ChunkMatch struct {
	UID      uint32
	Distance float64
}

// VectorRepository defines persistence for per-chunk embeddings. A mail
// record owns zero or more chunk rows sharing its UID.
type VectorRepository interface {
	// InsertChunks writes one row per embedding for the given UID. On
	// any failure it removes rows already written in this call so a
	// record is never partially indexed.
	InsertChunks(uid uint32, embeddings [][]float32) error

	// DeleteByUID removes all chunk rows for a UID (used before
	// re-indexing a re-fetched record).
	DeleteByUID(uid uint32) error

	// SearchNearest returns the k nearest chunks to the query vector,
	// optionally restricted to mails in folder, ordered by distance
	// ascending. Rows are chunk-level; callers dedup per UID.
	SearchNearest(embedding []float32, folder string, k int) ([]ChunkMatch, error)
}
