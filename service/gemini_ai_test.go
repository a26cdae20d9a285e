package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGeminiServiceRequiresKeys(t *testing.T) {
	_, err := NewGeminiService(nil, "gemini-2.0-flash")
	assert.Error(t, err)
}

func TestGeminiServiceModelName(t *testing.T) {
	s, err := NewGeminiService([]string{"key-a"}, "gemini-2.0-flash")
	require.NoError(t, err)
	defer s.Close()
	assert.Equal(t, "gemini-2.0-flash", s.ModelName())
}

// Rotation cycles through the configured keys and always leaves a usable
// client behind, even when called from concurrent request goroutines.
func TestGeminiRotateAPIKeyCycles(t *testing.T) {
	s, err := NewGeminiService([]string{"key-a", "key-b"}, "gemini-2.0-flash")
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.rotateAPIKey())
	assert.Equal(t, 1, s.currentKey)
	require.NotNil(t, s.currentClient())

	require.NoError(t, s.rotateAPIKey())
	assert.Equal(t, 0, s.currentKey)
	require.NotNil(t, s.currentClient())
}
