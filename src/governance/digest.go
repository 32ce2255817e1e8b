package governance

import (
	"incidentops/src/contracts"
	"incidentops/src/patterns"
	"incidentops/src/ranking"
)

// Digest is the condensed view of an audit entry sent to the generator.
// It interprets the facts the audit stage recorded.
type Digest struct {
	Timestamp              string                 `json:"timestamp"`
	TotalIncidents         int                    `json:"total_incidents"`
	StageOutputs           contracts.StageOutputs `json:"stage_outputs"`
	ResolutionPlansSummary []PlanSummary          `json:"resolution_plans_summary,omitempty"`
	RecommendationsSummary *Recommendations       `json:"recommendations_summary,omitempty"`
}

// PlanSummary is a plan without its action text.
type PlanSummary struct {
	Severity    string `json:"severity"`
	Category    string `json:"category"`
	Priority    int    `json:"priority"`
	ActionCount int    `json:"action_count"`
	// Number of plans in the run sharing this plan's message pattern.
	Recurrence int `json:"recurrence"`
}

// Recommendations summarizes what the plans ask operators to do.
type Recommendations struct {
	TotalActions       int              `json:"total_actions"`
	HighPriorityCount  int              `json:"high_priority_count"`
	CategoriesAffected []string         `json:"categories_affected"`
	CriticalActions    []CriticalAction `json:"critical_actions"`
}

// CriticalAction lists the actions of a priority 1 plan.
type CriticalAction struct {
	AlertID  string   `json:"alert_id"`
	Category string   `json:"category"`
	Actions  []string `json:"actions"`
}

// BuildDigest condenses entry. Every plan is listed, in entry order, so the
// summary always has TotalIncidents items.
func BuildDigest(entry contracts.AuditEntry) Digest {
	d := Digest{
		Timestamp:      entry.ExecutionTimestamp,
		TotalIncidents: entry.TotalIncidents,
		StageOutputs:   entry.StageOutputs,
	}
	plans := entry.ResolutionPlans
	if len(plans) == 0 {
		return d
	}

	recurrence := make(map[string]int)
	for _, p := range plans {
		recurrence[patterns.Key(p.Message)]++
	}
	d.ResolutionPlansSummary = make([]PlanSummary, len(plans))
	for i, p := range plans {
		d.ResolutionPlansSummary[i] = PlanSummary{
			Severity:    p.Severity,
			Category:    p.Category,
			Priority:    p.Priority,
			ActionCount: len(p.RecommendedActions),
			Recurrence:  recurrence[patterns.Key(p.Message)],
		}
	}

	rec := &Recommendations{CategoriesAffected: []string{}, CriticalActions: []CriticalAction{}}
	seen := make(map[string]bool)
	for _, p := range plans {
		rec.TotalActions += len(p.RecommendedActions)
		if ranking.ClassifyTier(p) == ranking.TierUrgent {
			rec.HighPriorityCount++
		}
		if !seen[p.Category] {
			seen[p.Category] = true
			rec.CategoriesAffected = append(rec.CategoriesAffected, p.Category)
		}
		if p.Priority == 1 {
			rec.CriticalActions = append(rec.CriticalActions, CriticalAction{
				AlertID:  p.AlertID,
				Category: p.Category,
				Actions:  p.RecommendedActions,
			})
		}
	}
	d.RecommendationsSummary = rec
	return d
}

// summaryDigest is used when the entry cannot be re-loaded.
func summaryDigest(s contracts.AuditSummary) Digest {
	d := Digest{TotalIncidents: s.Count}
	if s.Timestamp != nil {
		d.Timestamp = *s.Timestamp
	}
	return d
}
