package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/arqlabs/voice-rag-be/config"
	"github.com/arqlabs/voice-rag-be/types"
)

// Embedder converts text into fixed-dimension unit-length vectors. The same
// embedder must be used for indexing and querying so that the vector spaces
// line up.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	ModelName() string
}

// EmbeddingService embeds text through an Ollama-compatible HTTP endpoint.
// All vectors it returns are L2-normalized, so cosine similarity reduces to
// a dot product downstream.
type EmbeddingService struct {
	endpoint   string
	model      string
	dimensions int
	client     *http.Client
}

// NewEmbeddingService creates an embedding client for the configured
// endpoint. It does not contact the endpoint; use Ping for that.
func NewEmbeddingService(cfg config.EmbeddingConfig) *EmbeddingService {
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &EmbeddingService{
		endpoint:   strings.TrimSuffix(cfg.Endpoint, "/"),
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
		client:     &http.Client{Timeout: timeout},
	}
}

var (
	sharedEmbedder     *EmbeddingService
	sharedEmbedderOnce sync.Once
)

// SharedEmbedder returns the process-wide embedding client, creating it on
// first use. Both index building and query answering go through this single
// instance.
func SharedEmbedder(cfg config.EmbeddingConfig) *EmbeddingService {
	sharedEmbedderOnce.Do(func() {
		sharedEmbedder = NewEmbeddingService(cfg)
		log.Printf("EMBEDDER: using model %s at %s", cfg.Model, cfg.Endpoint)
	})
	return sharedEmbedder
}

type ollamaEmbedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type ollamaEmbedResponse struct {
	Embedding []float64 `json:"embedding"`
}

// Embed returns the unit-length vector for a single text.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(ollamaEmbedRequest{Model: s.model, Prompt: text})
	if err != nil {
		return nil, fmt.Errorf("%w: marshal request: %v", types.ErrEmbeddingUnavailable, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint+"/api/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", types.ErrEmbeddingUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrEmbeddingUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: endpoint returned %d: %s", types.ErrEmbeddingUnavailable, resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var parsed ollamaEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", types.ErrEmbeddingUnavailable, err)
	}
	if len(parsed.Embedding) == 0 {
		return nil, fmt.Errorf("%w: endpoint returned empty embedding", types.ErrEmbeddingUnavailable)
	}
	if s.dimensions > 0 && len(parsed.Embedding) != s.dimensions {
		return nil, fmt.Errorf("%w: model %s returned %d dimensions, expected %d",
			types.ErrEmbeddingUnavailable, s.model, len(parsed.Embedding), s.dimensions)
	}

	return normalize(parsed.Embedding), nil
}

// EmbedBatch embeds texts one by one, preserving order. It fails fast on the
// first error so a dead endpoint does not cost one timeout per text.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, 0, len(texts))
	for i, text := range texts {
		vec, err := s.Embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("embedding text %d of %d: %w", i+1, len(texts), err)
		}
		vectors = append(vectors, vec)
	}
	return vectors, nil
}

// Dimensions reports the configured vector width.
func (s *EmbeddingService) Dimensions() int {
	return s.dimensions
}

// ModelName reports the embedding model identifier.
func (s *EmbeddingService) ModelName() string {
	return s.model
}

// Ping verifies the endpoint is reachable and serves the configured model by
// embedding a trivial probe string.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	_, err := s.Embed(ctx, "ping")
	return err
}

// normalize scales the vector to unit length and narrows it to float32.
// A zero vector is returned unchanged rather than divided by zero.
func normalize(v []float64) []float32 {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	norm := math.Sqrt(sum)
	out := make([]float32, len(v))
	if norm == 0 {
		for i, x := range v {
			out[i] = float32(x)
		}
		return out
	}
	for i, x := range v {
		out[i] = float32(x / norm)
	}
	return out
}
