package service

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arqlabs/voice-rag-be/config"
	"github.com/arqlabs/voice-rag-be/types"
)

func fakeOllama(t *testing.T, vectors map[string][]float64) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/embeddings", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)

		var req ollamaEmbedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		vec, ok := vectors[req.Prompt]
		if !ok {
			vec = []float64{1, 0, 0}
		}
		json.NewEncoder(w).Encode(ollamaEmbedResponse{Embedding: vec})
	}))
}

func TestEmbedReturnsUnitVector(t *testing.T) {
	srv := fakeOllama(t, map[string][]float64{
		"hello": {3, 4, 0},
	})
	defer srv.Close()

	svc := NewEmbeddingService(config.EmbeddingConfig{
		Endpoint:   srv.URL,
		Model:      "nomic-embed-text",
		Dimensions: 3,
	})

	vec, err := svc.Embed(context.Background(), "hello")
	require.NoError(t, err)
	require.Len(t, vec, 3)

	assert.InDelta(t, 0.6, vec[0], 1e-6)
	assert.InDelta(t, 0.8, vec[1], 1e-6)

	var norm float64
	for _, x := range vec {
		norm += float64(x) * float64(x)
	}
	assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-6)
}

func TestEmbedDimensionMismatch(t *testing.T) {
	srv := fakeOllama(t, map[string][]float64{
		"hello": {1, 2},
	})
	defer srv.Close()

	svc := NewEmbeddingService(config.EmbeddingConfig{
		Endpoint:   srv.URL,
		Model:      "nomic-embed-text",
		Dimensions: 3,
	})

	_, err := svc.Embed(context.Background(), "hello")
	assert.ErrorIs(t, err, types.ErrEmbeddingUnavailable)
}

func TestEmbedEndpointDown(t *testing.T) {
	srv := fakeOllama(t, nil)
	srv.Close() // refuse connections

	svc := NewEmbeddingService(config.EmbeddingConfig{
		Endpoint:   srv.URL,
		Model:      "nomic-embed-text",
		Dimensions: 3,
	})

	_, err := svc.Embed(context.Background(), "hello")
	assert.ErrorIs(t, err, types.ErrEmbeddingUnavailable)
}

func TestEmbedServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"model not found"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	svc := NewEmbeddingService(config.EmbeddingConfig{Endpoint: srv.URL, Model: "missing"})

	_, err := svc.Embed(context.Background(), "hello")
	require.ErrorIs(t, err, types.ErrEmbeddingUnavailable)
	assert.Contains(t, err.Error(), "404")
}

func TestEmbedBatchPreservesOrder(t *testing.T) {
	srv := fakeOllama(t, map[string][]float64{
		"a": {1, 0, 0},
		"b": {0, 1, 0},
		"c": {0, 0, 1},
	})
	defer srv.Close()

	svc := NewEmbeddingService(config.EmbeddingConfig{
		Endpoint:   srv.URL,
		Model:      "nomic-embed-text",
		Dimensions: 3,
	})

	vecs, err := svc.EmbedBatch(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)
	require.Len(t, vecs, 3)
	assert.InDelta(t, 1.0, vecs[0][0], 1e-6)
	assert.InDelta(t, 1.0, vecs[1][1], 1e-6)
	assert.InDelta(t, 1.0, vecs[2][2], 1e-6)
}

func TestNormalizeZeroVector(t *testing.T) {
	out := normalize([]float64{0, 0, 0})
	assert.Equal(t, []float32{0, 0, 0}, out)
}
