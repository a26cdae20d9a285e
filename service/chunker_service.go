package service

import (
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/arqlabs/voice-rag-be/types"
)

// Separator cascade tried in priority order when splitting page text.
// The empty separator is the hard character boundary of last resort.
var chunkSeparators = []string{"\n\n", "\n", ".", "?", "!", " ", ""}

// DefaultChunkSize is the default passage length in runes.
const DefaultChunkSize = 1000

// DefaultChunkOverlap is the default overlap between consecutive passages.
const DefaultChunkOverlap = 150

// ChunkerService splits page text into overlapping fixed-size passages.
// Splitting is deterministic: the same pages and parameters always produce
// byte-identical passages, so passage IDs are derived from content position
// rather than random.
type ChunkerService struct {
	chunkSize    int
	chunkOverlap int
}

// NewChunkerService creates a chunker. It fails with types.ErrChunking when
// the overlap is not strictly smaller than the chunk size.
func NewChunkerService(cfg types.ChunkerConfig) (*ChunkerService, error) {
	size := cfg.ChunkSize
	if size <= 0 {
		size = DefaultChunkSize
	}
	overlap := cfg.ChunkOverlap
	if overlap < 0 {
		overlap = DefaultChunkOverlap
	}
	if overlap >= size {
		return nil, fmt.Errorf("%w: chunk_overlap %d must be smaller than chunk_size %d", types.ErrChunking, overlap, size)
	}
	return &ChunkerService{chunkSize: size, chunkOverlap: overlap}, nil
}

// Split turns the ordered page units into the ordered passage sequence.
// Passages never cross page boundaries; within a page each passage overlaps
// its predecessor by exactly the configured overlap.
func (c *ChunkerService) Split(pages []types.PageUnit) ([]types.Passage, error) {
	var passages []types.Passage
	for _, page := range pages {
		passages = append(passages, c.splitPage(page)...)
	}
	return passages, nil
}

// splitPage produces the passages of one page. A page shorter than the chunk
// size yields exactly one passage with no overlap.
func (c *ChunkerService) splitPage(page types.PageUnit) []types.Passage {
	text := []rune(page.RawText)
	if len(text) == 0 {
		return nil
	}
	if len(text) <= c.chunkSize {
		return []types.Passage{c.newPassage(page, text, 0, len(text))}
	}

	bounds := c.boundaries(text)

	var passages []types.Passage
	start := 0
	for start < len(text) {
		end := c.pickEnd(bounds, start)
		passages = append(passages, c.newPassage(page, text, start, end))
		if end == len(text) {
			break
		}
		start = end - c.chunkOverlap
	}
	return passages
}

// pickEnd chooses the passage end for a passage starting at start: the
// furthest split boundary within chunkSize, or a hard cut when no boundary
// lands inside the window. Candidates must clear start+chunkOverlap so the
// next passage always starts after the current one.
func (c *ChunkerService) pickEnd(bounds []int, start int) int {
	limit := start + c.chunkSize
	end := -1
	for _, b := range bounds {
		if b <= start+c.chunkOverlap {
			continue
		}
		if b > limit {
			break
		}
		end = b
	}
	if end < 0 {
		end = limit
	}
	return end
}

// boundaries returns the sorted rune offsets at which the page text may be
// cut, produced by recursively splitting on the separator cascade until
// every piece fits in chunkSize.
func (c *ChunkerService) boundaries(text []rune) []int {
	set := map[int]struct{}{}
	c.segment(text, 0, len(text), 0, set)
	bounds := make([]int, 0, len(set))
	for b := range set {
		bounds = append(bounds, b)
	}
	sort.Ints(bounds)
	return bounds
}

// segment records the end offset of [start,end) if it fits, otherwise splits
// it at the current separator and recurses into oversized pieces with the
// next separator in the cascade.
func (c *ChunkerService) segment(text []rune, start, end, sepIdx int, set map[int]struct{}) {
	if end-start <= c.chunkSize {
		set[end] = struct{}{}
		return
	}

	sep := []rune(chunkSeparators[sepIdx])
	if len(sep) == 0 {
		// Hard character boundary: cut every chunkSize runes.
		for b := start + c.chunkSize; b < end; b += c.chunkSize {
			set[b] = struct{}{}
		}
		set[end] = struct{}{}
		return
	}

	// Cut after each separator occurrence so that concatenating the pieces
	// reconstructs the original text.
	pieceStart := start
	for i := start; i+len(sep) <= end; i++ {
		if !runesEqual(text[i:i+len(sep)], sep) {
			continue
		}
		pieceEnd := i + len(sep)
		c.segment(text, pieceStart, pieceEnd, sepIdx+1, set)
		pieceStart = pieceEnd
	}
	if pieceStart == start {
		// Separator absent from this segment, try the next one.
		c.segment(text, start, end, sepIdx+1, set)
		return
	}
	if pieceStart < end {
		c.segment(text, pieceStart, end, sepIdx+1, set)
	}
}

func (c *ChunkerService) newPassage(page types.PageUnit, text []rune, start, end int) types.Passage {
	// Deterministic ID: UUIDv5 over the passage coordinates.
	name := fmt.Sprintf("%s:%d:%d:%d", page.DocumentID, page.PageIndex, start, end)
	id := uuid.NewSHA1(uuid.NameSpaceURL, []byte(name)).String()
	return types.Passage{
		ID:         id,
		DocumentID: page.DocumentID,
		PageIndex:  page.PageIndex,
		Text:       string(text[start:end]),
		CharStart:  start,
		CharEnd:    end,
	}
}

func runesEqual(a, b []rune) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
