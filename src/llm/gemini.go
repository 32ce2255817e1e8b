package llm

import (
	"context"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// DefaultGeminiModel is used when no model is configured.
const DefaultGeminiModel = "gemini-1.5-flash"

// GeminiGenerator generates text with the Gemini API.
type GeminiGenerator struct {
	client *genai.Client
	model  *genai.GenerativeModel
	name   string
}

// NewGeminiGenerator creates a generator for model. Extra client options are
// appended after the API key.
func NewGeminiGenerator(ctx context.Context, apiKey, model string, opts ...option.ClientOption) (*GeminiGenerator, error) {
	if model == "" {
		model = DefaultGeminiModel
	}
	client, err := genai.NewClient(ctx, append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)...)
	if err != nil {
		return nil, errors.Wrap(err, "create gemini client")
	}
	m := client.GenerativeModel(model)
	m.SetTemperature(0.2)
	return &GeminiGenerator{client: client, model: m, name: model}, nil
}

// Complete sends prompt as a single text part and joins the text parts of
// the first candidate.
func (g *GeminiGenerator) Complete(ctx context.Context, prompt string) Completion {
	start := time.Now()
	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	latency := time.Since(start)
	if err != nil {
		return failed(g.name, errors.Wrap(err, "gemini generate content"), latency)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return failed(g.name, errors.New("gemini returned no candidates"), latency)
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	return Completion{Text: sb.String(), Model: g.name, Latency: latency}
}

// Close releases the underlying client.
func (g *GeminiGenerator) Close() error {
	return g.client.Close()
}
