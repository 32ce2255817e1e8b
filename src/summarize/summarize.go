// Package summarize attaches a digest to a batch of alerts. The digest comes
// from the text generator when it produces usable output and from alert
// counts otherwise. Alerts are passed through untouched.
package summarize

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"incidentops/src/contracts"
	"incidentops/src/llm"
	"incidentops/src/logger"
	"incidentops/src/patterns"
	"incidentops/src/prompts"
)

// FallbackRootCause is reported when no generated analysis is available.
const FallbackRootCause = "Analysis unavailable - LLM call failed"

// Summarizer produces AlertDigests.
type Summarizer struct {
	gen      llm.Generator
	template string
	logger   logger.Logger
}

// New creates a summarizer using the alert summary template of set.
func New(gen llm.Generator, set prompts.Set, log logger.Logger) *Summarizer {
	if log == nil {
		log = logger.NewSilentLogger()
	}
	return &Summarizer{gen: gen, template: set.AlertSummary, logger: log}
}

type promptAlert struct {
	Timestamp string `json:"timestamp"`
	Level     string `json:"level"`
	Message   string `json:"message"`
}

// Summarize returns the alerts with a digest attached. It never fails.
func (s *Summarizer) Summarize(ctx context.Context, alerts []contracts.AlertRecord) (contracts.EnrichedAlerts, error) {
	if alerts == nil {
		alerts = []contracts.AlertRecord{}
	}
	if len(alerts) == 0 {
		s.logger.Info("[Summarize] No alerts to summarize")
		return contracts.EnrichedAlerts{Alerts: alerts, SummaryBlock: Empty()}, nil
	}

	s.logger.Info("[Summarize] Processing %d alerts", len(alerts))

	simplified := make([]promptAlert, len(alerts))
	for i, a := range alerts {
		simplified[i] = promptAlert{Timestamp: a.Timestamp, Level: a.Level, Message: a.Message}
	}
	alertsJSON, _ := json.MarshalIndent(simplified, "", "  ")
	patternsJSON, _ := json.MarshalIndent(patterns.Recurring(alerts), "", "  ")

	prompt := prompts.Render(s.template, map[string]string{
		"alerts":   string(alertsJSON),
		"patterns": string(patternsJSON),
	})

	completion := s.gen.Complete(ctx, prompt)
	digest, ok := parse(completion)
	if !ok {
		reason := completion.Reason()
		if reason == "" {
			reason = "unparseable_response"
		}
		s.logger.Info("[Summarize] Using fallback digest (%s)", reason)
		digest = Fallback(alerts, reason)
	}

	s.logger.Info("[Summarize] Summary: %s", digest.Summary)
	return contracts.EnrichedAlerts{Alerts: alerts, SummaryBlock: digest}, nil
}

// Empty is the digest of an empty batch.
func Empty() contracts.AlertDigest {
	return contracts.AlertDigest{
		Summary:           "No alerts detected.",
		Categories:        []string{},
		SeverityBreakdown: map[string]int{},
		RootCauses:        []string{},
	}
}

// Fallback builds a digest from level counts alone.
func Fallback(alerts []contracts.AlertRecord, reason string) contracts.AlertDigest {
	breakdown := make(map[string]int)
	levels := []string{}
	for _, a := range alerts {
		level := a.Level
		if level == "" {
			level = "UNKNOWN"
		}
		if breakdown[level] == 0 {
			levels = append(levels, level)
		}
		breakdown[level]++
	}

	return contracts.AlertDigest{
		Summary:           fmt.Sprintf("Detected %d alerts across %d severity levels.", len(alerts), len(breakdown)),
		Categories:        levels,
		SeverityBreakdown: breakdown,
		RootCauses:        []string{FallbackRootCause},
		Degraded:          true,
		FallbackReason:    reason,
	}
}

// parse accepts a completion only when it is usable and carries every digest key.
func parse(c llm.Completion) (contracts.AlertDigest, bool) {
	if !c.Usable() {
		return contracts.AlertDigest{}, false
	}
	obj := llm.ExtractJSON(c.Text)
	if obj == nil {
		return contracts.AlertDigest{}, false
	}

	summary, ok := llm.StringField(obj, "summary")
	if !ok {
		return contracts.AlertDigest{}, false
	}
	categories, ok := llm.StringList(obj, "categories")
	if !ok {
		return contracts.AlertDigest{}, false
	}
	rootCauses, ok := llm.StringList(obj, "root_causes")
	if !ok {
		return contracts.AlertDigest{}, false
	}
	rawBreakdown, ok := obj["severity_breakdown"].(map[string]any)
	if !ok {
		return contracts.AlertDigest{}, false
	}
	breakdown := make(map[string]int, len(rawBreakdown))
	for k, v := range rawBreakdown {
		if n, ok := v.(float64); ok {
			breakdown[k] = int(math.Round(n))
		}
	}

	return contracts.AlertDigest{
		Summary:           summary,
		Categories:        categories,
		SeverityBreakdown: breakdown,
		RootCauses:        rootCauses,
	}, true
}
