package types

// PageUnit is the text of one physical PDF page, in source order. Page
// units are consumed by the chunker and never persisted.
type PageUnit struct {
	DocumentID string // Stable identifier of the source PDF (its path)
	PageIndex  int    // Zero-based page number
	RawText    string // Cleaned page text
}

// Passage is the atomic retrievable unit of the knowledge base.
// CharStart/CharEnd are rune offsets into the cleaned page text; consecutive
// passages from the same page overlap by exactly the configured chunk
// overlap.
type Passage struct {
	ID         string `json:"id"`
	DocumentID string `json:"document_id"`
	PageIndex  int    `json:"page_index"`
	Text       string `json:"text"`
	CharStart  int    `json:"char_start"`
	CharEnd    int    `json:"char_end"`
}

// ScoredPassage pairs a passage with its cosine similarity to a query.
type ScoredPassage struct {
	Passage Passage `json:"passage"`
	Score   float64 `json:"score"`
}

// ChunkerConfig contains configuration options for passage splitting.
type ChunkerConfig struct {
	ChunkSize    int // Maximum passage length in runes
	ChunkOverlap int // Overlap between consecutive passages in runes
}

// BuildStats summarises one knowledge base build.
type BuildStats struct {
	Documents int   `json:"documents"`
	Pages     int   `json:"pages"`
	Passages  int   `json:"passages"`
	ElapsedMs int64 `json:"elapsed_ms"`
}

// BuildProgress reports ingestion progress to the caller, e.g. for SSE
// streaming during an upload-triggered rebuild.
type BuildProgress struct {
	Stage     string  `json:"stage"` // loading | embedding | indexing
	Document  string  `json:"document,omitempty"`
	Processed int     `json:"processed"`
	Total     int     `json:"total"`
	Progress  float64 `json:"progress"`
}
