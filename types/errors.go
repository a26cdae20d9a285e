package types

import "errors"

// Pipeline errors. Each stage of the RAG pipeline fails with its own
// sentinel so callers can map failures to distinct user-facing messages
// via errors.Is.
var (
	// ErrDocumentRead indicates a source PDF could not be read or parsed.
	ErrDocumentRead = errors.New("document read failed")

	// ErrChunking indicates invalid splitting parameters.
	ErrChunking = errors.New("chunking failed")

	// ErrEmbeddingUnavailable indicates the embedding model could not be
	// reached or failed during inference.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrIndexNotFound indicates the index directory is absent or holds no
	// valid index data.
	ErrIndexNotFound = errors.New("index not found")

	// ErrIndexConfigMismatch indicates a persisted index was built with a
	// different embedding model or dimension than the one configured.
	ErrIndexConfigMismatch = errors.New("index configuration mismatch")

	// ErrInvalidQuery indicates a malformed or out-of-range query, including
	// queries against an empty index.
	ErrInvalidQuery = errors.New("invalid query")

	// ErrGenerationBackend indicates the generation backend is unreachable
	// or returned an error status.
	ErrGenerationBackend = errors.New("generation backend failed")

	// ErrNotReady indicates a question was asked before any knowledge base
	// was built or loaded.
	ErrNotReady = errors.New("knowledge base not ready")
)
