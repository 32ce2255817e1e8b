package governance

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"incidentops/src/contracts"
	"incidentops/src/llm"
	"incidentops/src/logger"
	"incidentops/src/prompts"
	"incidentops/src/store"
)

type scripted struct {
	completion llm.Completion
	prompts    []string
}

func (s *scripted) Complete(ctx context.Context, prompt string) llm.Completion {
	s.prompts = append(s.prompts, prompt)
	return s.completion
}

func strPtr(s string) *string { return &s }

func logged(count int, entryID string) contracts.AuditSummary {
	return contracts.AuditSummary{
		Status:    contracts.AuditLogged,
		Count:     count,
		Timestamp: strPtr("2024-01-15T10:31:00.000000"),
		Location:  strPtr(store.MemoryLocation),
		EntryID:   entryID,
	}
}

func newAssessor(st store.AuditStore, gen llm.Generator) *Assessor {
	return NewAssessor(st, gen, prompts.Defaults(), logger.NewSilentLogger())
}

func TestScoreCount(t *testing.T) {
	tests := []struct {
		count      int
		risk       string
		escalation string
	}{
		{0, contracts.RiskLow, "None required"},
		{1, contracts.RiskLow, "Monitor for recurring patterns"},
		{2, contracts.RiskLow, "Monitor for recurring patterns"},
		{3, contracts.RiskMedium, "Review with team lead if issues persist"},
		{5, contracts.RiskMedium, "Review with team lead if issues persist"},
		{6, contracts.RiskHigh, "Escalate to on-call engineer"},
		{10, contracts.RiskHigh, "Escalate to on-call engineer"},
		{11, contracts.RiskCritical, "Immediate escalation to incident commander required"},
		{500, contracts.RiskCritical, "Immediate escalation to incident commander required"},
	}
	for _, tt := range tests {
		risk, escalation := ScoreCount(tt.count)
		assert.Equal(t, tt.risk, risk, "count %d", tt.count)
		assert.Equal(t, tt.escalation, escalation, "count %d", tt.count)
	}
}

func TestAssess_NoData(t *testing.T) {
	gen := &scripted{}
	summary := contracts.AuditSummary{Status: contracts.AuditNoData}

	report, err := newAssessor(store.NewMemoryStore(), gen).Assess(context.Background(), summary)
	require.NoError(t, err)

	assert.Equal(t, summary, report.AuditSummary)
	a := report.GovernanceAnalysis
	assert.Equal(t, contracts.RiskLow, a.Risk)
	assert.Equal(t, "None required", a.Escalation)
	assert.NotNil(t, a.ComplianceIssues)
	assert.Empty(t, a.ComplianceIssues)
	assert.Empty(t, gen.prompts)
}

func TestAssess_MockUsesCountFallback(t *testing.T) {
	report, err := newAssessor(store.NewMemoryStore(), llm.NewMockGenerator()).Assess(context.Background(), logged(1, ""))
	require.NoError(t, err)

	a := report.GovernanceAnalysis
	assert.Equal(t, contracts.RiskLow, a.Risk)
	assert.Equal(t, "Monitor for recurring patterns", a.Escalation)
	assert.Equal(t, []string{ManualReviewIssue}, a.ComplianceIssues)
	assert.Equal(t, "Detected 1 incident(s). Risk assessment based on incident count. Manual review recommended for detailed compliance analysis.", a.Commentary)
	assert.True(t, a.Degraded)
	assert.Equal(t, "mock_mode_enabled", a.FallbackReason)
}

func TestAssess_GeneratedAnalysisWithReloadedEntry(t *testing.T) {
	st := store.NewMemoryStore()
	entry := contracts.AuditEntry{
		ExecutionTimestamp: "2024-01-15T10:31:00.000000",
		TotalIncidents:     2,
		ResolutionPlans: []contracts.RemediationPlan{
			{AlertID: "a_1", Severity: contracts.SeverityCritical, Category: "security", Message: "Unauthorized access", RecommendedActions: []string{"Isolate affected systems immediately", "Alert security team"}, Priority: 1},
			{AlertID: "a_2", Severity: contracts.SeverityLow, Category: "disk", Message: "Disk usage at 70%", RecommendedActions: []string{"Log disk usage event"}, Priority: 4},
		},
		AuditMetadata: contracts.AuditMetadata{EntryID: "entry-1"},
	}
	_, err := st.Append(context.Background(), entry)
	require.NoError(t, err)

	gen := &scripted{completion: llm.Completion{Text: "```json\n" + `{
		"risk": "HIGH",
		"escalation": "Page security on-call",
		"compliance_issues": ["Unauthorized access requires breach review"],
		"commentary": "Security incident logged"
	}` + "\n```"}}

	report, err := newAssessor(st, gen).Assess(context.Background(), logged(2, "entry-1"))
	require.NoError(t, err)

	a := report.GovernanceAnalysis
	assert.Equal(t, contracts.RiskHigh, a.Risk)
	assert.Equal(t, "Page security on-call", a.Escalation)
	assert.Equal(t, []string{"Unauthorized access requires breach review"}, a.ComplianceIssues)
	assert.False(t, a.Degraded)

	require.Len(t, gen.prompts, 1)
	assert.Contains(t, gen.prompts[0], `"critical_actions"`)
	assert.Contains(t, gen.prompts[0], "Isolate affected systems immediately")
	assert.Contains(t, gen.prompts[0], `"high_priority_count": 1`)
	assert.Contains(t, gen.prompts[0], `"total_actions": 3`)
}

func TestAssess_UnknownRiskIsMedium(t *testing.T) {
	gen := &scripted{completion: llm.Completion{Text: `{"risk": "catastrophic", "escalation": "x", "compliance_issues": [], "commentary": "y"}`}}
	report, err := newAssessor(nil, gen).Assess(context.Background(), logged(7, ""))
	require.NoError(t, err)
	assert.Equal(t, contracts.RiskMedium, report.GovernanceAnalysis.Risk)
	assert.NotNil(t, report.GovernanceAnalysis.ComplianceIssues)
}

func TestAssess_IncompleteAnalysisFallsBack(t *testing.T) {
	gen := &scripted{completion: llm.Completion{Text: `{"risk": "low"}`}}
	report, err := newAssessor(nil, gen).Assess(context.Background(), logged(7, ""))
	require.NoError(t, err)

	a := report.GovernanceAnalysis
	assert.Equal(t, contracts.RiskHigh, a.Risk)
	assert.Equal(t, "Escalate to on-call engineer", a.Escalation)
	assert.Equal(t, "unparseable_response", a.FallbackReason)
}

func TestAssess_MissingEntryUsesSummary(t *testing.T) {
	gen := &scripted{completion: llm.Completion{Text: "not json at all"}}
	report, err := newAssessor(store.NewMemoryStore(), gen).Assess(context.Background(), logged(12, "gone"))
	require.NoError(t, err)

	assert.Equal(t, contracts.RiskCritical, report.GovernanceAnalysis.Risk)
	require.Len(t, gen.prompts, 1)
	assert.Contains(t, gen.prompts[0], `"total_incidents": 12`)
}

func TestBuildDigest(t *testing.T) {
	entry := contracts.AuditEntry{
		ExecutionTimestamp: "ts",
		TotalIncidents:     3,
		ResolutionPlans: []contracts.RemediationPlan{
			{AlertID: "a_1", Severity: contracts.SeverityLow, Category: "disk", Message: "Disk usage at 70%", RecommendedActions: []string{"x"}, Priority: 4},
			{AlertID: "a_2", Severity: contracts.SeverityHigh, Category: "database", Message: "Query took 900ms", RecommendedActions: []string{"x", "y"}, Priority: 2},
			{AlertID: "a_3", Severity: contracts.SeverityHigh, Category: "database", Message: "Query took 1200ms", RecommendedActions: []string{"x", "y"}, Priority: 2},
		},
	}

	d := BuildDigest(entry)
	require.Len(t, d.ResolutionPlansSummary, entry.TotalIncidents, "one summary per plan")
	assert.Equal(t, "disk", d.ResolutionPlansSummary[0].Category)
	assert.Equal(t, 1, d.ResolutionPlansSummary[0].Recurrence)
	for _, ps := range d.ResolutionPlansSummary[1:] {
		assert.Equal(t, "database", ps.Category)
		assert.Equal(t, 2, ps.Recurrence)
	}

	require.NotNil(t, d.RecommendationsSummary)
	assert.Equal(t, 5, d.RecommendationsSummary.TotalActions)
	assert.Equal(t, 2, d.RecommendationsSummary.HighPriorityCount)
	assert.Equal(t, []string{"disk", "database"}, d.RecommendationsSummary.CategoriesAffected)
	assert.Empty(t, d.RecommendationsSummary.CriticalActions)

	empty := BuildDigest(contracts.AuditEntry{ExecutionTimestamp: "ts"})
	raw, err := json.Marshal(empty)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "recommendations_summary")
}
