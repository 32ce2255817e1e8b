// Package contracts defines the records that flow between pipeline stages.
package contracts

// Alert levels recognised by the log scanner.
const (
	LevelError   = "ERROR"
	LevelWarning = "WARNING"
)

// Severity labels assigned by triage, highest first.
const (
	SeverityCritical = "critical"
	SeverityHigh     = "high"
	SeverityMedium   = "medium"
	SeverityLow      = "low"
)

// CategoryGeneral is assigned when no category keyword matches.
const CategoryGeneral = "general"

// Severities lists every severity label in priority order.
var Severities = []string{SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow}

// AlertRecord is a single anomaly detected in a log file.
type AlertRecord struct {
	// Time the log line was written ("2006-01-02 15:04:05"), or the scan time when absent.
	Timestamp string `json:"timestamp"`
	// Log level (ERROR or WARNING).
	Level string `json:"level"`
	// Text following the level marker.
	Message string `json:"message"`
	// 1-based line number in the source file.
	LineNumber int `json:"line_number"`
	// Cleaned source line.
	RawText string `json:"raw_text"`
}

// ClassifiedAlert is an AlertRecord with triage labels attached.
// The embedded record is never modified by classification.
type ClassifiedAlert struct {
	AlertRecord
	// One of critical, high, medium, low.
	Severity string `json:"severity"`
	// Category name from the triage rules, or "general".
	Category string `json:"category"`
}

// AlertDigest is the summary block produced for a batch of alerts.
type AlertDigest struct {
	Summary           string         `json:"summary"`
	Categories        []string       `json:"categories"`
	SeverityBreakdown map[string]int `json:"severity_breakdown"`
	RootCauses        []string       `json:"root_causes"`
	// Degraded is set when the digest was produced without a usable generation.
	Degraded       bool   `json:"degraded"`
	FallbackReason string `json:"fallback_reason,omitempty"`
}

// EnrichedAlerts is the output of the summary stage.
type EnrichedAlerts struct {
	// Alerts passed through unchanged and in order.
	Alerts       []AlertRecord `json:"alerts"`
	SummaryBlock AlertDigest   `json:"summary_block"`
}

// RemediationPlan is the proposed response to one classified alert.
type RemediationPlan struct {
	// "<timestamp>_<line_number>"; unique within one run.
	AlertID   string `json:"alert_id"`
	Timestamp string `json:"timestamp"`
	Severity  string `json:"severity"`
	Category  string `json:"category"`
	Message   string `json:"message"`
	// Ordered actions, never empty.
	RecommendedActions []string `json:"recommended_actions"`
	// 1 (critical) through 4 (low).
	Priority  int    `json:"priority"`
	Reasoning string `json:"reasoning"`
}

// ResolutionSummary is the on-call summary of a batch of remediation plans.
type ResolutionSummary struct {
	Summary         string   `json:"summary"`
	Recommendations []string `json:"recommendations"`
	Escalation      string   `json:"escalation"`
	AffectedSystems []string `json:"affected_systems"`
	Degraded        bool     `json:"degraded"`
	FallbackReason  string   `json:"fallback_reason,omitempty"`
}

// ResolutionOutput is the output of the remediation stage.
type ResolutionOutput struct {
	ResolutionPlans   []RemediationPlan `json:"resolution_plans"`
	ResolutionSummary ResolutionSummary `json:"resolution_summary"`
}
