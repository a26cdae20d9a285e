package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arqlabs/voice-rag-be/types"
)

func TestOpenAIGenerate(t *testing.T) {
	var gotModel string
	var gotTemperature float32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)

		var req map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		gotModel, _ = req["model"].(string)
		if temp, ok := req["temperature"].(float64); ok {
			gotTemperature = float32(temp)
		}

		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]interface{}{"role": "assistant", "content": "पॅरिस"}},
			},
		})
	}))
	defer srv.Close()

	svc := NewOpenAIService(srv.URL, "test-key", "llama3")
	result, err := svc.Generate(context.Background(), "prompt", types.GenerateOptions{Temperature: 0.1})
	require.NoError(t, err)

	assert.Equal(t, types.GenerationText, result.Kind)
	assert.Equal(t, "पॅरिस", result.Text)
	assert.Equal(t, "llama3", gotModel)
	assert.InDelta(t, 0.1, gotTemperature, 1e-6)
}

func TestOpenAIGenerateNoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"choices": []interface{}{}})
	}))
	defer srv.Close()

	svc := NewOpenAIService(srv.URL, "test-key", "llama3")
	_, err := svc.Generate(context.Background(), "prompt", types.GenerateOptions{})
	assert.ErrorIs(t, err, types.ErrGenerationBackend)
}

func TestOpenAIGenerateServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"overloaded"}}`, http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	svc := NewOpenAIService(srv.URL, "test-key", "llama3")
	_, err := svc.Generate(context.Background(), "prompt", types.GenerateOptions{})
	assert.ErrorIs(t, err, types.ErrGenerationBackend)
}
