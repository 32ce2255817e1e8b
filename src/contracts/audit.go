package contracts

// Audit status values returned by the audit stage.
const (
	AuditLogged = "logged"
	AuditFailed = "failed"
	AuditNoData = "no_data"
)

// AuditEntry is the persisted record of one pipeline run.
// Entries are appended to the audit log and never modified afterwards.
type AuditEntry struct {
	ExecutionTimestamp  string            `json:"execution_timestamp"`
	PipelineName        string            `json:"pipeline_name"`
	AgentExecutionOrder []string          `json:"agent_execution_order"`
	StageOutputs        StageOutputs      `json:"stage_outputs"`
	ResolutionPlans     []RemediationPlan `json:"resolution_plans"`
	TotalIncidents      int               `json:"total_incidents"`
	AuditMetadata       AuditMetadata     `json:"audit_metadata"`
}

// StageOutputs holds factual counts per stage. No interpretation happens here.
type StageOutputs struct {
	MonitorStage    MonitorStageOutput    `json:"monitor_stage"`
	TriageStage     TriageStageOutput     `json:"triage_stage"`
	ResolutionStage ResolutionStageOutput `json:"resolution_stage"`
}

// MonitorStageOutput records what the scanner detected.
type MonitorStageOutput struct {
	AlertsDetected int      `json:"alerts_detected"`
	AlertIDs       []string `json:"alert_ids"`
}

// TriageStageOutput records the label distributions.
type TriageStageOutput struct {
	SeverityDistribution map[string]int `json:"severity_distribution"`
	CategoryDistribution map[string]int `json:"category_distribution"`
}

// ResolutionStageOutput records the plan distribution.
// Priority keys are the decimal priority ("1".."4").
type ResolutionStageOutput struct {
	PlansGenerated       int            `json:"plans_generated"`
	PriorityDistribution map[string]int `json:"priority_distribution"`
}

// AuditMetadata identifies who wrote an entry.
type AuditMetadata struct {
	LoggedBy   string `json:"logged_by"`
	LogVersion string `json:"log_version"`
	// Derived from ExecutionTimestamp.
	EntryID string `json:"entry_id"`
}

// AuditSummary is the only audit-stage output the governance stage sees.
type AuditSummary struct {
	// logged, failed or no_data.
	Status string `json:"status"`
	Count  int    `json:"count"`
	// Nil when nothing was written.
	Timestamp *string `json:"timestamp"`
	// Handle the full entry can be re-loaded from; nil when nothing was written.
	Location *string `json:"location"`
	// Entry id of the appended entry, empty when nothing was written.
	EntryID string `json:"entry_id,omitempty"`
}

// Risk levels produced by governance.
const (
	RiskLow      = "low"
	RiskMedium   = "medium"
	RiskHigh     = "high"
	RiskCritical = "critical"
)

// GovernanceAnalysis is the risk and compliance assessment of one run.
type GovernanceAnalysis struct {
	Risk       string `json:"risk"`
	Escalation string `json:"escalation"`
	// Never nil; an empty list means no issues.
	ComplianceIssues []string `json:"compliance_issues"`
	Commentary       string   `json:"commentary"`
	Degraded         bool     `json:"degraded"`
	FallbackReason   string   `json:"fallback_reason,omitempty"`
}

// GovernanceReport is the terminal artifact of the full pipeline.
type GovernanceReport struct {
	AuditSummary       AuditSummary       `json:"audit_summary"`
	GovernanceAnalysis GovernanceAnalysis `json:"governance_analysis"`
}
