package service

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arqlabs/voice-rag-be/database"
	"github.com/arqlabs/voice-rag-be/types"
)

type fakeLoader struct {
	pages map[string][]types.PageUnit
}

func (f *fakeLoader) LoadPDF(path string) ([]types.PageUnit, error) {
	pages, ok := f.pages[path]
	if !ok {
		return nil, fmt.Errorf("%w: %s", types.ErrDocumentRead, path)
	}
	return pages, nil
}

// fakeEmbedder maps texts onto the unit sphere deterministically, with
// shared words pulling vectors together so similarity is meaningful.
type fakeEmbedder struct{}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vec := make([]float64, 32)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		h.Write([]byte(strings.Trim(word, ".,?!")))
		vec[h.Sum32()%32]++
	}
	var norm float64
	for _, x := range vec {
		norm += x * x
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		norm = 1
	}
	out := make([]float32, 32)
	for i, x := range vec {
		out[i] = float32(x / norm)
	}
	return out, nil
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	var out [][]float32
	for _, t := range texts {
		v, err := f.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (f *fakeEmbedder) Dimensions() int   { return 32 }
func (f *fakeEmbedder) ModelName() string { return "fake-embed" }

type fakeAI struct {
	result types.GenerationResult
	err    error
	prompt string
}

func (f *fakeAI) Generate(ctx context.Context, prompt string, opts types.GenerateOptions) (types.GenerationResult, error) {
	f.prompt = prompt
	if f.err != nil {
		return types.GenerationResult{}, f.err
	}
	return f.result, nil
}

func (f *fakeAI) ModelName() string { return "fake-llm" }

func newTestRAG(t *testing.T, ai AIService) (*RAGService, *fakeLoader) {
	t.Helper()
	loader := &fakeLoader{pages: map[string][]types.PageUnit{
		"geo.pdf": {
			{DocumentID: "geo.pdf", PageIndex: 0, RawText: "Paris is the capital of France."},
			{DocumentID: "geo.pdf", PageIndex: 1, RawText: "Berlin is the capital of Germany."},
			{DocumentID: "geo.pdf", PageIndex: 2, RawText: "Tokyo is the capital of Japan."},
		},
	}}
	chunker := newTestChunker(t, 200, 20)
	store := database.NewLocalStore(filepath.Join(t.TempDir(), "index"))
	rag := NewRAGService(loader, chunker, &fakeEmbedder{}, store, ai, RAGConfig{
		RetrievalK:     2,
		AnswerLanguage: "mr",
		Temperature:    0.1,
	})
	return rag, loader
}

func TestBuildKnowledgeBaseEmptyInput(t *testing.T) {
	rag, _ := newTestRAG(t, &fakeAI{})
	_, err := rag.BuildKnowledgeBase(context.Background(), nil, nil)
	assert.ErrorIs(t, err, types.ErrDocumentRead)
}

func TestAskBeforeBuildReturnsNotReady(t *testing.T) {
	rag, _ := newTestRAG(t, &fakeAI{})
	_, err := rag.Ask(context.Background(), "फ्रान्सची राजधानी कोणती?", 0)
	assert.ErrorIs(t, err, types.ErrNotReady)
}

func TestAskEmptyQuestion(t *testing.T) {
	rag, _ := newTestRAG(t, &fakeAI{})
	_, err := rag.Ask(context.Background(), "   ", 0)
	assert.ErrorIs(t, err, types.ErrInvalidQuery)
}

func TestBuildAndAsk(t *testing.T) {
	ai := &fakeAI{result: types.GenerationResult{Kind: types.GenerationText, Text: "पॅरिस ही फ्रान्सची राजधानी आहे."}}
	rag, _ := newTestRAG(t, ai)

	stats, err := rag.BuildKnowledgeBase(context.Background(), []string{"geo.pdf"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Documents)
	assert.Equal(t, 3, stats.Pages)
	assert.Equal(t, 3, stats.Passages)
	require.True(t, rag.IndexReady())

	resp, err := rag.Ask(context.Background(), "What is the capital of France", 0)
	require.NoError(t, err)
	assert.Equal(t, "पॅरिस ही फ्रान्सची राजधानी आहे.", resp.Answer)
	require.Len(t, resp.Sources, 2)
	assert.Contains(t, resp.Sources[0].Passage.Text, "Paris")

	// The prompt carries the retrieved passages and the question.
	assert.Contains(t, ai.prompt, "Paris is the capital of France.")
	assert.Contains(t, ai.prompt, "What is the capital of France")
	assert.Contains(t, ai.prompt, "[संदर्भ]")
	assert.Contains(t, ai.prompt, "[प्रश्न]")
}

func TestRetrieveRanksBySimilarity(t *testing.T) {
	rag, _ := newTestRAG(t, &fakeAI{})
	_, err := rag.BuildKnowledgeBase(context.Background(), []string{"geo.pdf"}, nil)
	require.NoError(t, err)

	sources, err := rag.Retrieve(context.Background(), "capital of Germany Berlin", 3)
	require.NoError(t, err)
	require.Len(t, sources, 3)
	assert.Contains(t, sources[0].Passage.Text, "Berlin")
	for i := 1; i < len(sources); i++ {
		assert.GreaterOrEqual(t, sources[i-1].Score, sources[i].Score)
	}
}

func TestAskBackendErrorKeepsIndexReady(t *testing.T) {
	ai := &fakeAI{err: fmt.Errorf("%w: connection refused", types.ErrGenerationBackend)}
	rag, _ := newTestRAG(t, ai)
	_, err := rag.BuildKnowledgeBase(context.Background(), []string{"geo.pdf"}, nil)
	require.NoError(t, err)

	_, err = rag.Ask(context.Background(), "capital of France", 0)
	assert.ErrorIs(t, err, types.ErrGenerationBackend)
	// A generation failure does not invalidate the index.
	assert.True(t, rag.IndexReady())
}

func TestAskRawResultIsStringified(t *testing.T) {
	ai := &fakeAI{result: types.GenerationResult{Kind: types.GenerationRaw, Raw: map[string]string{"odd": "shape"}}}
	rag, _ := newTestRAG(t, ai)
	_, err := rag.BuildKnowledgeBase(context.Background(), []string{"geo.pdf"}, nil)
	require.NoError(t, err)

	resp, err := rag.Ask(context.Background(), "capital of France", 0)
	require.NoError(t, err)
	assert.Contains(t, resp.Answer, "odd")
}

// hangingAI never answers until its context is cancelled.
type hangingAI struct{}

func (h *hangingAI) Generate(ctx context.Context, prompt string, opts types.GenerateOptions) (types.GenerationResult, error) {
	<-ctx.Done()
	return types.GenerationResult{}, fmt.Errorf("%w: %v", types.ErrGenerationBackend, ctx.Err())
}

func (h *hangingAI) ModelName() string { return "hanging-llm" }

func TestAskAppliesGenerationTimeout(t *testing.T) {
	loader := &fakeLoader{pages: map[string][]types.PageUnit{
		"geo.pdf": {{DocumentID: "geo.pdf", PageIndex: 0, RawText: "Paris is the capital of France."}},
	}}
	chunker := newTestChunker(t, 200, 20)
	store := database.NewLocalStore(filepath.Join(t.TempDir(), "index"))
	rag := NewRAGService(loader, chunker, &fakeEmbedder{}, store, &hangingAI{}, RAGConfig{
		GenerationTimeout: 50 * time.Millisecond,
	})
	_, err := rag.BuildKnowledgeBase(context.Background(), []string{"geo.pdf"}, nil)
	require.NoError(t, err)

	started := time.Now()
	_, err = rag.Ask(context.Background(), "capital of France", 0)
	assert.ErrorIs(t, err, types.ErrGenerationBackend)
	assert.Less(t, time.Since(started), 3*time.Second, "generation was not cut off by the configured timeout")
}

func TestBuildReportsProgress(t *testing.T) {
	rag, _ := newTestRAG(t, &fakeAI{})

	progress := make(chan types.BuildProgress, 64)
	_, err := rag.BuildKnowledgeBase(context.Background(), []string{"geo.pdf"}, progress)
	require.NoError(t, err)
	close(progress)

	stages := map[string]bool{}
	for p := range progress {
		stages[p.Stage] = true
	}
	assert.True(t, stages["loading"])
	assert.True(t, stages["indexing"])
}

func TestBuildUnknownDocument(t *testing.T) {
	rag, _ := newTestRAG(t, &fakeAI{})
	_, err := rag.BuildKnowledgeBase(context.Background(), []string{"missing.pdf"}, nil)
	assert.ErrorIs(t, err, types.ErrDocumentRead)
}
