package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/arqlabs/voice-rag-be/types"
)

// GeminiService answers prompts through the Gemini API. It rotates across
// the provided API keys when a request fails, which rides out per-key quota
// exhaustion.
type GeminiService struct {
	apiKeys    []string
	currentKey int
	client     *genai.Client
	modelName  string
	mu         sync.Mutex
}

func NewGeminiService(apiKeys []string, modelName string) (*GeminiService, error) {
	if len(apiKeys) == 0 {
		return nil, errors.New("no API keys provided")
	}

	service := &GeminiService{
		apiKeys:   apiKeys,
		modelName: modelName,
	}
	if err := service.initClient(); err != nil {
		return nil, err
	}
	return service, nil
}

func (s *GeminiService) initClient() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	client, err := genai.NewClient(context.Background(), option.WithAPIKey(s.apiKeys[s.currentKey]))
	if err != nil {
		return err
	}
	s.client = client
	return nil
}

// currentClient snapshots the client pointer under the lock; rotateAPIKey
// replaces it concurrently with in-flight requests.
func (s *GeminiService) currentClient() *genai.Client {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.client
}

func (s *GeminiService) rotateAPIKey() error {
	s.mu.Lock()
	s.currentKey = (s.currentKey + 1) % len(s.apiKeys)
	if err := s.client.Close(); err != nil {
		s.mu.Unlock()
		return err
	}
	s.mu.Unlock()
	return s.initClient()
}

// Generate sends the prompt with the configured temperature. When the
// response carries no plain text parts, the raw candidate is returned as a
// GenerationRaw result instead of an error.
func (s *GeminiService) Generate(ctx context.Context, prompt string, opts types.GenerateOptions) (types.GenerationResult, error) {
	model := s.currentClient().GenerativeModel(s.modelName)
	model.SetTemperature(opts.Temperature)
	if opts.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(opts.MaxTokens))
	}

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		// Try rotating API key if there's an error
		if rerr := s.rotateAPIKey(); rerr != nil {
			return types.GenerationResult{}, fmt.Errorf("%w: %v", types.ErrGenerationBackend, rerr)
		}
		model = s.currentClient().GenerativeModel(s.modelName)
		model.SetTemperature(opts.Temperature)
		resp, err = model.GenerateContent(ctx, genai.Text(prompt))
		if err != nil {
			return types.GenerationResult{}, fmt.Errorf("%w: %v", types.ErrGenerationBackend, err)
		}
	}

	if len(resp.Candidates) == 0 {
		return types.GenerationResult{}, fmt.Errorf("%w: no response generated", types.ErrGenerationBackend)
	}

	content := ""
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				content += string(text)
			}
		}
	}
	if content == "" {
		return types.GenerationResult{
			Kind: types.GenerationRaw,
			Raw:  resp.Candidates[0],
		}, nil
	}

	return types.GenerationResult{
		Kind: types.GenerationText,
		Text: content,
	}, nil
}

func (s *GeminiService) ModelName() string {
	return s.modelName
}

// Close releases the underlying API client.
func (s *GeminiService) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.client.Close()
}
