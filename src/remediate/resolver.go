package remediate

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"incidentops/src/contracts"
	"incidentops/src/llm"
	"incidentops/src/logger"
	"incidentops/src/prompts"
)

// Escalation texts used when no generated summary is available.
const (
	EscalationCritical = "Immediate escalation to on-call engineer required"
	EscalationHigh     = "Consider escalation if issues persist"
	EscalationNone     = "None required"
)

// FallbackRecommendations are the steps suggested without a generated summary.
var FallbackRecommendations = []string{"Review resolution plans", "Execute recommended actions in priority order"}

// Resolver builds catalog plans and asks the generator to summarize them.
type Resolver struct {
	catalog  *Catalog
	gen      llm.Generator
	template string
	logger   logger.Logger
}

// NewResolver creates a resolver using the resolution template of set.
func NewResolver(catalog *Catalog, gen llm.Generator, set prompts.Set, log logger.Logger) *Resolver {
	if log == nil {
		log = logger.NewSilentLogger()
	}
	if catalog == nil {
		catalog = NewCatalog(log)
	}
	return &Resolver{catalog: catalog, gen: gen, template: set.Resolution, logger: log}
}

type promptPlan struct {
	Severity           string   `json:"severity"`
	Category           string   `json:"category"`
	Message            string   `json:"message"`
	RecommendedActions []string `json:"recommended_actions"`
	Priority           int      `json:"priority"`
}

// Propose returns the plans for alerts with a resolution summary attached.
// Generation problems never fail the call; the summary is then derived from the plans.
func (r *Resolver) Propose(ctx context.Context, alerts []contracts.ClassifiedAlert) (contracts.ResolutionOutput, error) {
	plans, err := r.catalog.Plans(ctx, alerts)
	if err != nil {
		return contracts.ResolutionOutput{}, err
	}
	if len(plans) == 0 {
		r.logger.Info("[Remediate] No resolution plans to summarize")
		return contracts.ResolutionOutput{ResolutionPlans: plans, ResolutionSummary: EmptySummary()}, nil
	}

	r.logger.Info("[Remediate] Summarizing %d resolution plan(s)", len(plans))

	simplified := make([]promptPlan, len(plans))
	for i, p := range plans {
		simplified[i] = promptPlan{
			Severity:           p.Severity,
			Category:           p.Category,
			Message:            p.Message,
			RecommendedActions: p.RecommendedActions,
			Priority:           p.Priority,
		}
	}
	actionsJSON, _ := json.MarshalIndent(simplified, "", "  ")
	prompt := prompts.Render(r.template, map[string]string{"actions": string(actionsJSON)})

	completion := r.gen.Complete(ctx, prompt)
	summary, ok := parseSummary(completion)
	if !ok {
		reason := completion.Reason()
		if reason == "" {
			reason = "unparseable_response"
		}
		r.logger.Info("[Remediate] Using fallback resolution summary (%s)", reason)
		summary = FallbackSummary(plans, reason)
	}

	r.logger.Info("[Remediate] Summary: %s", summary.Summary)
	r.logger.Info("[Remediate] Escalation: %s", summary.Escalation)
	return contracts.ResolutionOutput{ResolutionPlans: plans, ResolutionSummary: summary}, nil
}

// EmptySummary is the summary of a run without plans.
func EmptySummary() contracts.ResolutionSummary {
	return contracts.ResolutionSummary{
		Summary:         "No resolution plans generated.",
		Recommendations: []string{},
		Escalation:      EscalationNone,
		AffectedSystems: []string{},
	}
}

// FallbackSummary derives a resolution summary from plan counts.
func FallbackSummary(plans []contracts.RemediationPlan, reason string) contracts.ResolutionSummary {
	bySeverity := make(map[string]int)
	categories := []string{}
	seen := make(map[string]bool)
	for _, p := range plans {
		sev := p.Severity
		if sev == "" {
			sev = "unknown"
		}
		bySeverity[sev]++
		if !seen[p.Category] {
			seen[p.Category] = true
			categories = append(categories, p.Category)
		}
	}

	escalation := EscalationNone
	switch {
	case bySeverity[contracts.SeverityCritical] > 0:
		escalation = EscalationCritical
	case bySeverity[contracts.SeverityHigh] > 0:
		escalation = EscalationHigh
	}

	recommendations := make([]string, len(FallbackRecommendations))
	copy(recommendations, FallbackRecommendations)

	return contracts.ResolutionSummary{
		Summary: fmt.Sprintf("Generated %d resolution plan(s) across %d categories. Severity breakdown: %s",
			len(plans), len(categories), formatBreakdown(bySeverity)),
		Recommendations: recommendations,
		Escalation:      escalation,
		AffectedSystems: categories,
		Degraded:        true,
		FallbackReason:  reason,
	}
}

// formatBreakdown renders counts as "high=1, low=2", known severities first.
func formatBreakdown(counts map[string]int) string {
	parts := []string{}
	known := make(map[string]bool, len(contracts.Severities))
	for _, sev := range contracts.Severities {
		known[sev] = true
		if n := counts[sev]; n > 0 {
			parts = append(parts, fmt.Sprintf("%s=%d", sev, n))
		}
	}
	var other []string
	for sev := range counts {
		if !known[sev] {
			other = append(other, sev)
		}
	}
	sort.Strings(other)
	for _, sev := range other {
		parts = append(parts, fmt.Sprintf("%s=%d", sev, counts[sev]))
	}
	return strings.Join(parts, ", ")
}

func parseSummary(c llm.Completion) (contracts.ResolutionSummary, bool) {
	if !c.Usable() {
		return contracts.ResolutionSummary{}, false
	}
	obj := llm.ExtractJSON(c.Text)
	if obj == nil {
		return contracts.ResolutionSummary{}, false
	}

	summary, ok := llm.StringField(obj, "summary")
	if !ok {
		return contracts.ResolutionSummary{}, false
	}
	escalation, ok := llm.StringField(obj, "escalation")
	if !ok {
		return contracts.ResolutionSummary{}, false
	}
	recommendations, ok := llm.StringList(obj, "recommendations")
	if !ok {
		return contracts.ResolutionSummary{}, false
	}
	affected, ok := llm.StringList(obj, "affected_systems")
	if !ok {
		return contracts.ResolutionSummary{}, false
	}

	return contracts.ResolutionSummary{
		Summary:         summary,
		Recommendations: recommendations,
		Escalation:      escalation,
		AffectedSystems: affected,
	}, true
}
