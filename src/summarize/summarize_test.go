package summarize

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"incidentops/src/contracts"
	"incidentops/src/llm"
	"incidentops/src/logger"
	"incidentops/src/prompts"
)

type scripted struct {
	completion llm.Completion
	prompts    []string
}

func (s *scripted) Complete(ctx context.Context, prompt string) llm.Completion {
	s.prompts = append(s.prompts, prompt)
	return s.completion
}

var alerts = []contracts.AlertRecord{
	{Timestamp: "2024-01-15 10:30:00", Level: "ERROR", Message: "Database connection timeout", LineNumber: 1},
	{Timestamp: "2024-01-15 10:31:00", Level: "WARNING", Message: "Slow query took 900ms", LineNumber: 2},
	{Timestamp: "2024-01-15 10:32:00", Level: "ERROR", Message: "Slow query took 1400ms", LineNumber: 3},
}

func newSummarizer(gen llm.Generator) *Summarizer {
	return New(gen, prompts.Defaults(), logger.NewSilentLogger())
}

func TestSummarize_MockFallsBack(t *testing.T) {
	out, err := newSummarizer(llm.NewMockGenerator()).Summarize(context.Background(), alerts)
	require.NoError(t, err)

	assert.Equal(t, alerts, out.Alerts)
	d := out.SummaryBlock
	assert.Equal(t, "Detected 3 alerts across 2 severity levels.", d.Summary)
	assert.Equal(t, []string{"ERROR", "WARNING"}, d.Categories)
	assert.Equal(t, map[string]int{"ERROR": 2, "WARNING": 1}, d.SeverityBreakdown)
	assert.Equal(t, []string{FallbackRootCause}, d.RootCauses)
	assert.True(t, d.Degraded)
	assert.Equal(t, "mock_mode_enabled", d.FallbackReason)
}

func TestSummarize_UsesGeneratedDigest(t *testing.T) {
	gen := &scripted{completion: llm.Completion{Text: "```json\n" + `{
		"summary": "Database latency incident",
		"categories": ["database"],
		"severity_breakdown": {"high": 2, "medium": 1},
		"root_causes": ["connection pool exhaustion"]
	}` + "\n```"}}

	out, err := newSummarizer(gen).Summarize(context.Background(), alerts)
	require.NoError(t, err)

	d := out.SummaryBlock
	assert.False(t, d.Degraded)
	assert.Equal(t, "Database latency incident", d.Summary)
	assert.Equal(t, map[string]int{"high": 2, "medium": 1}, d.SeverityBreakdown)

	require.Len(t, gen.prompts, 1)
	assert.Contains(t, gen.prompts[0], "Database connection timeout")
	assert.Contains(t, gen.prompts[0], "slow query took [duration]")
	assert.NotContains(t, gen.prompts[0], "line_number")
}

func TestSummarize_IncompleteJSONFallsBack(t *testing.T) {
	gen := &scripted{completion: llm.Completion{Text: `{"summary": "only a summary"}`}}

	out, err := newSummarizer(gen).Summarize(context.Background(), alerts)
	require.NoError(t, err)
	assert.True(t, out.SummaryBlock.Degraded)
	assert.Equal(t, "unparseable_response", out.SummaryBlock.FallbackReason)
}

func TestSummarize_FailureFallsBack(t *testing.T) {
	gen := &scripted{completion: llm.Completion{Text: `{"error": "boom"}`, Failure: "boom"}}

	out, err := newSummarizer(gen).Summarize(context.Background(), alerts)
	require.NoError(t, err)
	assert.True(t, out.SummaryBlock.Degraded)
	assert.Equal(t, "api_error: boom", out.SummaryBlock.FallbackReason)
}

func TestSummarize_Empty(t *testing.T) {
	gen := &scripted{}
	out, err := newSummarizer(gen).Summarize(context.Background(), nil)
	require.NoError(t, err)

	assert.NotNil(t, out.Alerts)
	assert.Empty(t, out.Alerts)
	assert.Equal(t, "No alerts detected.", out.SummaryBlock.Summary)
	assert.Empty(t, gen.prompts, "no generation for an empty batch")
}

func TestFallback_Deterministic(t *testing.T) {
	a := Fallback(alerts, "r")
	b := Fallback(alerts, "r")
	assert.Equal(t, a, b)
}
