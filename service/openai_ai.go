package service

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"

	"github.com/arqlabs/voice-rag-be/types"
)

// OpenAIService answers prompts through any OpenAI-compatible chat
// completion endpoint, including a local Ollama server's /v1 API.
type OpenAIService struct {
	client *openai.Client
	model  string
}

func NewOpenAIService(baseURL, apiKey, model string) *OpenAIService {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL // Set this to your local LLM server URL
	}
	client := openai.NewClientWithConfig(config)
	return &OpenAIService{
		client: client,
		model:  model,
	}
}

// Generate sends the prompt as a single-turn user message. The retrieval
// context is already baked into the prompt, so no chat history is carried.
func (s *OpenAIService) Generate(ctx context.Context, prompt string, opts types.GenerateOptions) (types.GenerationResult, error) {
	req := openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		Temperature: opts.Temperature,
	}
	if opts.MaxTokens > 0 {
		req.MaxTokens = opts.MaxTokens
	}

	resp, err := s.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return types.GenerationResult{}, fmt.Errorf("%w: %v", types.ErrGenerationBackend, err)
	}
	if len(resp.Choices) == 0 {
		return types.GenerationResult{}, fmt.Errorf("%w: no response generated", types.ErrGenerationBackend)
	}

	return types.GenerationResult{
		Kind: types.GenerationText,
		Text: resp.Choices[0].Message.Content,
	}, nil
}

func (s *OpenAIService) ModelName() string {
	return s.model
}
