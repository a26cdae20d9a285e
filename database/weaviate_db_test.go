package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arqlabs/voice-rag-be/config"
	"github.com/arqlabs/voice-rag-be/types"
)

func newTestWeaviateStore(t *testing.T) *WeaviateStore {
	t.Helper()
	store, err := NewWeaviateStore(config.WeaviateConfig{Host: "localhost:8080"})
	require.NoError(t, err)
	return store
}

func TestWeaviateStoreQueryBeforeLoad(t *testing.T) {
	store := newTestWeaviateStore(t)
	_, err := store.Query(context.Background(), []float32{1, 0, 0}, 1)
	assert.ErrorIs(t, err, types.ErrNotReady)
}

func TestWeaviateStoreQueryEmptyVector(t *testing.T) {
	store := newTestWeaviateStore(t)
	_, err := store.Query(context.Background(), nil, 1)
	assert.ErrorIs(t, err, types.ErrInvalidQuery)
}

// An empty index is rejected locally, before any network round trip.
func TestWeaviateStoreQueryEmptyIndex(t *testing.T) {
	store := newTestWeaviateStore(t)
	store.mu.Lock()
	store.ready = true
	store.count = 0
	store.mu.Unlock()

	_, err := store.Query(context.Background(), []float32{1, 0, 0}, 1)
	assert.ErrorIs(t, err, types.ErrInvalidQuery)
}

func TestScoreFromAdditional(t *testing.T) {
	tests := []struct {
		name       string
		additional map[string]interface{}
		want       float64
	}{
		{
			name:       "certainty maps back to cosine similarity",
			additional: map[string]interface{}{"certainty": 0.9},
			want:       0.8,
		},
		{
			name:       "distance used when certainty is absent",
			additional: map[string]interface{}{"distance": 0.25},
			want:       0.75,
		},
		{
			name:       "certainty wins over distance",
			additional: map[string]interface{}{"certainty": 1.0, "distance": 0.5},
			want:       1.0,
		},
		{
			name:       "neither field present",
			additional: map[string]interface{}{},
			want:       0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, scoreFromAdditional(tt.additional), 1e-9)
		})
	}
}
