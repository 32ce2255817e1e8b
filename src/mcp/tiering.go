package mcp

import (
	"incidentops/src/contracts"
	"incidentops/src/ranking"
	"incidentops/src/sanitize"
)

// Default plan limits per tier.
// Urgent plans are the likely fires; routine plans are only sampled.
const (
	DefaultUrgentLimit  = 15
	DefaultRoutineLimit = 5
)

// summaryMessageLen bounds routine plan messages.
const summaryMessageLen = 100

// tierLimits scales the routine limit with the urgent one.
func tierLimits(limit int) (urgent, routine int) {
	if limit <= 0 || limit == DefaultUrgentLimit {
		return DefaultUrgentLimit, DefaultRoutineLimit
	}
	return limit, max(1, limit/3)
}

// TierPlans ranks plans and splits them into expanded urgent views and
// routine summaries. limit caps the urgent tier; zero uses the default.
// Recurring plans are collapsed by the ranking, so each pattern appears once.
func TierPlans(plans []contracts.RemediationPlan, limit int) ([]PlanView, []PlanSummary) {
	urgentLimit, routineLimit := tierLimits(limit)
	urgent := []PlanView{}
	routine := []PlanSummary{}
	for _, rp := range ranking.RankPlans(plans).FlattenByTier() {
		switch rp.Tier {
		case ranking.TierUrgent:
			if len(urgent) < urgentLimit {
				urgent = append(urgent, toView(rp))
			}
		default:
			if len(routine) < routineLimit {
				routine = append(routine, toSummary(rp))
			}
		}
	}
	compressMessages(urgent)
	return urgent, routine
}

func toView(rp ranking.RankedPlan) PlanView {
	actions := make([]string, len(rp.Plan.RecommendedActions))
	copy(actions, rp.Plan.RecommendedActions)
	return PlanView{
		AlertID:    rp.Plan.AlertID,
		Rank:       rp.Rank,
		Priority:   rp.Plan.Priority,
		Severity:   rp.Plan.Severity,
		Category:   rp.Plan.Category,
		Message:    sanitize.Line(rp.Plan.Message),
		Actions:    actions,
		Recurrence: rp.Recurrence,
	}
}

func toSummary(rp ranking.RankedPlan) PlanSummary {
	msg := sanitize.Line(rp.Plan.Message)
	if runes := []rune(msg); len(runes) > summaryMessageLen {
		msg = string(runes[:summaryMessageLen-3]) + "..."
	}
	return PlanSummary{
		AlertID:  rp.Plan.AlertID,
		Rank:     rp.Rank,
		Priority: rp.Plan.Priority,
		Severity: rp.Plan.Severity,
		Category: rp.Plan.Category,
		Message:  msg,
	}
}

// compressMessages compresses the messages of views in place.
func compressMessages(views []PlanView) {
	msgs := make([]string, len(views))
	for i, v := range views {
		msgs[i] = v.Message
	}
	for i, m := range CompressLines(msgs) {
		views[i].Message = m
	}
}
