// Package llm provides the text generator used by the summarize, remediate
// and govern stages.
//
// A Generator never returns an error. Mock mode and provider failures are
// reported in-band on the Completion so callers can fall back to
// deterministic output and record why.
package llm

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"
	"time"
)

// MockText is the body returned when no real provider is configured.
const MockText = `{"_mock": true, "text": "MOCK_RESPONSE"}`

// Completion is the result of one generation request.
type Completion struct {
	Text  string
	Model string
	// Mock is set when the text came from mock mode.
	Mock bool
	// Failure describes a provider or transport error; Text then holds {"error": "..."}.
	Failure string
	Latency time.Duration
}

// Usable reports whether the text came from a real, successful generation.
func (c Completion) Usable() bool {
	return !c.Mock && c.Failure == ""
}

// Reason explains why a completion is not usable. Empty when it is.
func (c Completion) Reason() string {
	switch {
	case c.Mock:
		return "mock_mode_enabled"
	case c.Failure != "":
		return "api_error: " + c.Failure
	}
	return ""
}

// Generator turns a prompt into text.
type Generator interface {
	Complete(ctx context.Context, prompt string) Completion
}

// MockGenerator returns MockText for every prompt.
type MockGenerator struct{}

// NewMockGenerator creates a mock generator.
func NewMockGenerator() *MockGenerator {
	return &MockGenerator{}
}

// Complete returns the mock payload.
func (MockGenerator) Complete(ctx context.Context, prompt string) Completion {
	return Completion{Text: MockText, Model: "mock", Mock: true}
}

// failed builds the in-band error completion.
func failed(model string, err error, latency time.Duration) Completion {
	body, _ := json.Marshal(map[string]string{"error": err.Error()})
	return Completion{Text: string(body), Model: model, Failure: err.Error(), Latency: latency}
}

var jsonObjectPattern = regexp.MustCompile(`(?s)\{.*\}`)

// ExtractJSON pulls the outermost JSON object out of generated text, which
// may be wrapped in markdown fences or surrounded by prose. It returns nil
// when no object parses.
func ExtractJSON(text string) map[string]any {
	if text == "" {
		return nil
	}
	cleaned := strings.ReplaceAll(text, "```json", "")
	cleaned = strings.TrimSpace(strings.ReplaceAll(cleaned, "```", ""))

	block := jsonObjectPattern.FindString(cleaned)
	if block == "" {
		return nil
	}
	var out map[string]any
	if err := json.Unmarshal([]byte(block), &out); err != nil {
		return nil
	}
	return out
}

// StringField returns obj[key] when it is a non-empty string.
func StringField(obj map[string]any, key string) (string, bool) {
	s, ok := obj[key].(string)
	return s, ok && s != ""
}

// StringList returns obj[key] as a string list. Non-string elements are
// skipped; ok is false when the key is missing or not a list.
func StringList(obj map[string]any, key string) ([]string, bool) {
	raw, ok := obj[key].([]any)
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out, true
}
