package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/arqlabs/voice-rag-be/database"
	"github.com/arqlabs/voice-rag-be/types"
)

// Prompt templates by answer language. The context block carries the
// retrieved passages verbatim; the model is told to refuse when the answer
// is not in them.
var promptTemplates = map[string]string{
	"mr": `आपण एक मदत करणारा सहायक आहात जो नेहमी मराठीत उत्तरे देतो.
फक्त दिलेल्या संदर्भाचा वापर करून उत्तर द्या. संदर्भामध्ये माहिती नसेल तर
ते स्पष्टपणे सांगा.

[संदर्भ]
%s

[प्रश्न]
%s

मराठीमध्ये संक्षिप्त आणि स्पष्ट उत्तर द्या:
`,
	"en": `You are a helpful assistant. Answer using only the provided
context. If the context does not contain the answer, say so clearly.

[Context]
%s

[Question]
%s

Give a short, clear answer:
`,
}

// DefaultRetrievalK is how many passages back each answer by default.
const DefaultRetrievalK = 4

// RAGService ties the pipeline together: it builds the knowledge base from
// documents and answers questions grounded in the retrieved passages.
type RAGService struct {
	loader       DocumentLoader
	chunker      *ChunkerService
	embedder     Embedder
	store        database.VectorDatabase
	ai           AIService
	retrievalK   int
	language     string
	temperature  float32
	genTimeout   time.Duration
}

type RAGConfig struct {
	RetrievalK     int
	AnswerLanguage string
	Temperature    float32

	// GenerationTimeout bounds a single backend call; zero means no limit.
	GenerationTimeout time.Duration
}

func NewRAGService(
	loader DocumentLoader,
	chunker *ChunkerService,
	embedder Embedder,
	store database.VectorDatabase,
	ai AIService,
	cfg RAGConfig,
) *RAGService {
	k := cfg.RetrievalK
	if k <= 0 {
		k = DefaultRetrievalK
	}
	lang := cfg.AnswerLanguage
	if _, ok := promptTemplates[lang]; !ok {
		lang = "mr"
	}
	return &RAGService{
		loader:      loader,
		chunker:     chunker,
		embedder:    embedder,
		store:       store,
		ai:          ai,
		retrievalK:  k,
		language:    lang,
		temperature: cfg.Temperature,
		genTimeout:  cfg.GenerationTimeout,
	}
}

// BuildKnowledgeBase loads the given documents, chunks and embeds them, and
// replaces the index with the result. Progress events are sent to the
// optional progress channel; the channel is not closed by this method.
func (r *RAGService) BuildKnowledgeBase(ctx context.Context, paths []string, progress chan<- types.BuildProgress) (*types.BuildStats, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: no documents given", types.ErrDocumentRead)
	}
	started := time.Now()

	var passages []types.Passage
	totalPages := 0
	for i, path := range paths {
		report(progress, types.BuildProgress{
			Stage:     "loading",
			Document:  path,
			Processed: i,
			Total:     len(paths),
		})
		pages, err := r.loader.LoadPDF(path)
		if err != nil {
			return nil, err
		}
		totalPages += len(pages)

		chunks, err := r.chunker.Split(pages)
		if err != nil {
			return nil, err
		}
		passages = append(passages, chunks...)
		log.Printf("BUILD: %s: %d pages, %d passages", path, len(pages), len(chunks))
	}
	if len(passages) == 0 {
		return nil, fmt.Errorf("%w: documents produced no passages", types.ErrDocumentRead)
	}

	vectors := make([][]float32, 0, len(passages))
	for i, p := range passages {
		vec, err := r.embedder.Embed(ctx, p.Text)
		if err != nil {
			return nil, fmt.Errorf("embedding passage %d of %d: %w", i+1, len(passages), err)
		}
		vectors = append(vectors, vec)
		if (i+1)%50 == 0 || i+1 == len(passages) {
			report(progress, types.BuildProgress{
				Stage:     "embedding",
				Processed: i + 1,
				Total:     len(passages),
				Progress:  float64(i+1) / float64(len(passages)),
			})
		}
	}

	report(progress, types.BuildProgress{Stage: "indexing", Total: len(passages), Processed: len(passages)})
	meta := database.IndexMeta{
		Model:      r.embedder.ModelName(),
		Dimensions: r.embedder.Dimensions(),
		Metric:     database.MetricDot,
	}
	if err := r.store.Build(ctx, meta, passages, vectors); err != nil {
		return nil, err
	}

	stats := &types.BuildStats{
		Documents: len(paths),
		Pages:     totalPages,
		Passages:  len(passages),
		ElapsedMs: time.Since(started).Milliseconds(),
	}
	log.Printf("BUILD: knowledge base ready: %d documents, %d pages, %d passages in %dms",
		stats.Documents, stats.Pages, stats.Passages, stats.ElapsedMs)
	return stats, nil
}

// LoadKnowledgeBase opens a previously built index.
func (r *RAGService) LoadKnowledgeBase(ctx context.Context) error {
	return r.store.Load(ctx, database.IndexMeta{
		Model:      r.embedder.ModelName(),
		Dimensions: r.embedder.Dimensions(),
		Metric:     database.MetricDot,
	})
}

// Retrieve returns the k passages most similar to the question, best first.
// k <= 0 selects the configured default.
func (r *RAGService) Retrieve(ctx context.Context, question string, k int) ([]types.ScoredPassage, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("%w: empty question", types.ErrInvalidQuery)
	}
	if !r.store.Ready() {
		return nil, types.ErrNotReady
	}
	if k <= 0 {
		k = r.retrievalK
	}

	vec, err := r.embedder.Embed(ctx, question)
	if err != nil {
		return nil, err
	}
	return r.store.Query(ctx, vec, k)
}

// Ask answers the question from the knowledge base. The returned sources are
// the passages the answer was grounded on, in retrieval order.
func (r *RAGService) Ask(ctx context.Context, question string, k int) (*types.AskResponse, error) {
	sources, err := r.Retrieve(ctx, question, k)
	if err != nil {
		return nil, err
	}

	contextParts := make([]string, 0, len(sources))
	for _, s := range sources {
		contextParts = append(contextParts, s.Passage.Text)
	}
	prompt := fmt.Sprintf(promptTemplates[r.language],
		strings.Join(contextParts, "\n\n"),
		strings.TrimSpace(question))

	genCtx := ctx
	if r.genTimeout > 0 {
		var cancel context.CancelFunc
		genCtx, cancel = context.WithTimeout(ctx, r.genTimeout)
		defer cancel()
	}
	result, err := r.ai.Generate(genCtx, prompt, types.GenerateOptions{Temperature: r.temperature})
	if err != nil {
		if strings.Contains(err.Error(), "context deadline") {
			log.Printf("ASK: generation timed out for model %s", r.ai.ModelName())
		}
		return nil, err
	}

	answer := result.Text
	if result.Kind == types.GenerationRaw {
		// The backend produced something other than plain text. Surface it
		// stringified rather than failing the request.
		answer = fmt.Sprintf("%v", result.Raw)
		log.Printf("ASK: backend %s returned non-text result", r.ai.ModelName())
	}

	return &types.AskResponse{
		Answer:  strings.TrimSpace(answer),
		Sources: sources,
	}, nil
}

// IndexReady reports whether questions can currently be answered.
func (r *RAGService) IndexReady() bool {
	return r.store.Ready()
}

// IndexCount reports the number of indexed passages.
func (r *RAGService) IndexCount() int {
	return r.store.Count()
}

// EmbeddingModel reports the model the index is built with.
func (r *RAGService) EmbeddingModel() string {
	return r.embedder.ModelName()
}

func report(ch chan<- types.BuildProgress, p types.BuildProgress) {
	if ch == nil {
		return
	}
	select {
	case ch <- p:
	default:
		// Never block the build on a slow progress consumer.
	}
}
