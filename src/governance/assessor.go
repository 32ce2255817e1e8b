// Package governance assesses the risk of a logged pipeline run. The
// assessment comes from the text generator when it answers with a complete
// analysis and from the incident count otherwise. Assess never fails.
package governance

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"incidentops/src/contracts"
	"incidentops/src/llm"
	"incidentops/src/logger"
	"incidentops/src/prompts"
	"incidentops/src/store"
)

// Texts of the count-based assessment.
const (
	NoIncidentsCommentary = "No incidents detected - system operating normally."
	ManualReviewIssue     = "LLM analysis unavailable - manual compliance review recommended"
)

// threshold maps incident counts up to Max to a risk and escalation.
type threshold struct {
	Max        int
	Risk       string
	Escalation string
}

var thresholds = []threshold{
	{0, contracts.RiskLow, "None required"},
	{2, contracts.RiskLow, "Monitor for recurring patterns"},
	{5, contracts.RiskMedium, "Review with team lead if issues persist"},
	{10, contracts.RiskHigh, "Escalate to on-call engineer"},
}

var critical = threshold{Risk: contracts.RiskCritical, Escalation: "Immediate escalation to incident commander required"}

// ScoreCount returns the risk and escalation for an incident count.
func ScoreCount(count int) (risk, escalation string) {
	for _, t := range thresholds {
		if count <= t.Max {
			return t.Risk, t.Escalation
		}
	}
	return critical.Risk, critical.Escalation
}

// Assessor produces governance reports for audit summaries.
type Assessor struct {
	store    store.AuditStore
	gen      llm.Generator
	template string
	logger   logger.Logger
}

// NewAssessor creates an assessor that re-loads entries from st.
func NewAssessor(st store.AuditStore, gen llm.Generator, set prompts.Set, log logger.Logger) *Assessor {
	if log == nil {
		log = logger.NewSilentLogger()
	}
	return &Assessor{store: st, gen: gen, template: set.Governance, logger: log}
}

// Assess returns the governance report for summary. The summary is passed
// through unchanged.
func (a *Assessor) Assess(ctx context.Context, summary contracts.AuditSummary) (contracts.GovernanceReport, error) {
	a.logger.Info("[Governance] Performing governance and compliance analysis...")

	if summary.Status == contracts.AuditNoData {
		a.logger.Info("[Governance] No audit data to analyze")
		return contracts.GovernanceReport{AuditSummary: summary, GovernanceAnalysis: NoData()}, nil
	}

	a.logger.Info("[Governance] Analyzing audit log with %d incident(s)", summary.Count)

	digest := a.digest(ctx, summary)
	digestJSON, _ := json.MarshalIndent(digest, "", "  ")
	prompt := prompts.Render(a.template, map[string]string{"log": string(digestJSON)})

	completion := a.gen.Complete(ctx, prompt)
	analysis, ok := parseAnalysis(completion)
	if !ok {
		reason := completion.Reason()
		if reason == "" {
			reason = "unparseable_response"
		}
		a.logger.Info("[Governance] Using count-based assessment (%s)", reason)
		analysis = Fallback(summary.Count, reason)
	}

	a.logger.Info("[Governance] Risk Level: %s", analysis.Risk)
	a.logger.Info("[Governance] Escalation: %s", analysis.Escalation)
	if n := len(analysis.ComplianceIssues); n > 0 {
		a.logger.Info("[Governance] Compliance Issues: %d", n)
	}
	return contracts.GovernanceReport{AuditSummary: summary, GovernanceAnalysis: analysis}, nil
}

func (a *Assessor) digest(ctx context.Context, summary contracts.AuditSummary) Digest {
	if a.store == nil || summary.EntryID == "" {
		a.logger.Info("[Governance] No entry handle, using summary only")
		return summaryDigest(summary)
	}
	entry, err := a.store.Get(ctx, summary.EntryID)
	if err != nil {
		a.logger.Error("[Governance] Could not load audit entry %s, using summary only: %v", summary.EntryID, err)
		return summaryDigest(summary)
	}
	return BuildDigest(entry)
}

// NoData is the analysis of a run that logged nothing.
func NoData() contracts.GovernanceAnalysis {
	return contracts.GovernanceAnalysis{
		Risk:             contracts.RiskLow,
		Escalation:       "None required",
		ComplianceIssues: []string{},
		Commentary:       NoIncidentsCommentary,
	}
}

// Fallback scores a run from its incident count alone.
func Fallback(count int, reason string) contracts.GovernanceAnalysis {
	risk, escalation := ScoreCount(count)
	return contracts.GovernanceAnalysis{
		Risk:             risk,
		Escalation:       escalation,
		ComplianceIssues: []string{ManualReviewIssue},
		Commentary: fmt.Sprintf("Detected %d incident(s). Risk assessment based on incident count. "+
			"Manual review recommended for detailed compliance analysis.", count),
		Degraded:       true,
		FallbackReason: reason,
	}
}

// NormalizeRisk lowercases risk and maps unknown values to medium.
func NormalizeRisk(risk string) string {
	r := strings.ToLower(strings.TrimSpace(risk))
	switch r {
	case contracts.RiskLow, contracts.RiskMedium, contracts.RiskHigh, contracts.RiskCritical:
		return r
	}
	return contracts.RiskMedium
}

func parseAnalysis(c llm.Completion) (contracts.GovernanceAnalysis, bool) {
	if !c.Usable() {
		return contracts.GovernanceAnalysis{}, false
	}
	obj := llm.ExtractJSON(c.Text)
	if obj == nil {
		return contracts.GovernanceAnalysis{}, false
	}

	risk, ok := llm.StringField(obj, "risk")
	if !ok {
		return contracts.GovernanceAnalysis{}, false
	}
	escalation, ok := llm.StringField(obj, "escalation")
	if !ok {
		return contracts.GovernanceAnalysis{}, false
	}
	issues, ok := llm.StringList(obj, "compliance_issues")
	if !ok {
		return contracts.GovernanceAnalysis{}, false
	}
	commentary, ok := llm.StringField(obj, "commentary")
	if !ok {
		return contracts.GovernanceAnalysis{}, false
	}

	return contracts.GovernanceAnalysis{
		Risk:             NormalizeRisk(risk),
		Escalation:       escalation,
		ComplianceIssues: issues,
		Commentary:       commentary,
	}, true
}
