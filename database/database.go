package database

import (
	"context"

	"github.com/arqlabs/voice-rag-be/types"
)

// IndexMeta describes the embedding space an index was built with. A store
// refuses to serve queries whose meta does not match what it was built with.
type IndexMeta struct {
	Model      string `json:"model"`
	Dimensions int    `json:"dimensions"`
	Metric     string `json:"metric"`
}

// VectorDatabase is the passage index behind retrieval. Build replaces the
// whole index atomically; readers keep seeing the previous contents until the
// new one is fully in place.
type VectorDatabase interface {
	// Build replaces the index with the given passages and their vectors.
	Build(ctx context.Context, meta IndexMeta, passages []types.Passage, vectors [][]float32) error
	// Load opens a previously built index. Returns types.ErrIndexNotFound
	// when none exists, types.ErrIndexConfigMismatch when the stored meta
	// disagrees with the expected one.
	Load(ctx context.Context, expect IndexMeta) error
	// Query returns the k most similar passages to the query vector, best
	// first.
	Query(ctx context.Context, vector []float32, k int) ([]types.ScoredPassage, error)
	// Ready reports whether the index is loaded and queryable.
	Ready() bool
	// Count reports the number of indexed passages.
	Count() int
}
