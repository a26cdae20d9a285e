package service

import (
	"context"

	"github.com/arqlabs/voice-rag-be/types"
)

// AIService generates an answer for a fully assembled prompt. Adapters wrap
// transport failures with types.ErrGenerationBackend so callers can map them
// uniformly.
type AIService interface {
	Generate(ctx context.Context, prompt string, opts types.GenerateOptions) (types.GenerationResult, error)
	ModelName() string
}
