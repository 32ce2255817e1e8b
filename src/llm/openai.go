package llm

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/sashabaranov/go-openai"
)

// DefaultOpenAIModel is used when no model is configured.
const DefaultOpenAIModel = "gpt-4o-mini"

// OpenAIGenerator generates text with the OpenAI chat completions API.
type OpenAIGenerator struct {
	client      *openai.Client
	model       string
	temperature float32
}

// OpenAIOption configures an OpenAIGenerator.
type OpenAIOption func(*openai.ClientConfig)

// WithBaseURL points the client at a compatible endpoint.
func WithBaseURL(url string) OpenAIOption {
	return func(c *openai.ClientConfig) { c.BaseURL = url }
}

// NewOpenAIGenerator creates a generator for model using apiKey.
func NewOpenAIGenerator(apiKey, model string, opts ...OpenAIOption) *OpenAIGenerator {
	if model == "" {
		model = DefaultOpenAIModel
	}
	cfg := openai.DefaultConfig(apiKey)
	for _, opt := range opts {
		opt(&cfg)
	}
	return &OpenAIGenerator{
		client:      openai.NewClientWithConfig(cfg),
		model:       model,
		temperature: 0.2,
	}
}

// Complete sends prompt as a single user message.
func (g *OpenAIGenerator) Complete(ctx context.Context, prompt string) Completion {
	start := time.Now()
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: g.temperature,
	})
	latency := time.Since(start)
	if err != nil {
		return failed(g.model, errors.Wrap(err, "openai chat completion"), latency)
	}
	if len(resp.Choices) == 0 {
		return failed(g.model, errors.New("openai returned no choices"), latency)
	}
	return Completion{Text: resp.Choices[0].Message.Content, Model: g.model, Latency: latency}
}
