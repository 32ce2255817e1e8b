// Package mcp exposes pipeline runs and the audit log as MCP tools.
package mcp

import (
	"incidentops/src/app"
	"incidentops/src/contracts"
)

// RunResponse is the run_pipeline tool response.
type RunResponse struct {
	RunID        string                        `json:"run_id"`
	Variant      string                        `json:"variant"`
	Stages       []app.StageState              `json:"stages"`
	AuditSummary contracts.AuditSummary        `json:"audit_summary"`
	Governance   *contracts.GovernanceAnalysis `json:"governance_analysis,omitempty"`
	// Priority 1-2 plans, fully expanded.
	UrgentPlans []PlanView `json:"urgent_plans"`
	// Priority 3-4 plans, summarized. Use get_audit_entry for the full plans.
	RoutinePlans []PlanSummary `json:"routine_plans"`
}

// PlanView is a compressed, LLM-ready remediation plan.
type PlanView struct {
	AlertID    string   `json:"alert_id"`
	Rank       int      `json:"rank"`
	Priority   int      `json:"priority"`
	Severity   string   `json:"severity"`
	Category   string   `json:"category"`
	Message    string   `json:"message"`
	Actions    []string `json:"actions"`
	Recurrence int      `json:"recurrence"`
}

// PlanSummary is a lightweight reference to a lower-priority plan.
type PlanSummary struct {
	AlertID  string `json:"alert_id"`
	Rank     int    `json:"rank"`
	Priority int    `json:"priority"`
	Severity string `json:"severity"`
	Category string `json:"category"`
	Message  string `json:"message"` // Truncated to 100 chars
}

// EntryListing is one row of the list_audit_entries response.
type EntryListing struct {
	EntryID            string `json:"entry_id"`
	ExecutionTimestamp string `json:"execution_timestamp"`
	PipelineName       string `json:"pipeline_name"`
	TotalIncidents     int    `json:"total_incidents"`
}

// EntryList is the list_audit_entries response. Entries are newest first.
type EntryList struct {
	Total   int            `json:"total"`
	Entries []EntryListing `json:"entries"`
}
