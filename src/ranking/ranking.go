// Package ranking orders remediation plans for on-call consumption. The
// governance digest, the MCP server and the CLI all use it so plans are
// presented in the same order everywhere.
package ranking

import (
	"sort"
	"strconv"

	"incidentops/src/contracts"
	"incidentops/src/patterns"
)

// Tier constants for plan classification.
const (
	TierUrgent  = 1 // Priority 1-2: act now
	TierRoutine = 3 // Priority 3-4: schedule
)

// urgentPriority is the highest priority value still counted as urgent.
const urgentPriority = 2

// RankedPlan wraps a RemediationPlan with tier, rank and recurrence.
type RankedPlan struct {
	Plan contracts.RemediationPlan
	Tier int // TierUrgent (1) or TierRoutine (3)
	Rank int // Position within the flattened list (1-indexed)
	// Number of plans in the run whose message normalizes to the same pattern.
	Recurrence int
}

// TieredPlans groups plans by tier.
type TieredPlans struct {
	Urgent  []RankedPlan
	Routine []RankedPlan
}

// RankPlans classifies plans into tiers. Within a tier plans are sorted by
// priority, then recurrence (descending), then original order. Plans whose
// category and message pattern repeat are collapsed into the first one.
func RankPlans(plans []contracts.RemediationPlan) TieredPlans {
	if len(plans) == 0 {
		return TieredPlans{}
	}

	messages := make([]string, len(plans))
	for i, p := range plans {
		messages[i] = p.Message
	}
	recurrence := patterns.Counts(messages)

	sorted := make([]contracts.RemediationPlan, len(plans))
	copy(sorted, plans)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Priority != sorted[j].Priority {
			return sorted[i].Priority < sorted[j].Priority
		}
		return recurrence[patterns.Key(sorted[i].Message)] > recurrence[patterns.Key(sorted[j].Message)]
	})

	seen := make(map[string]bool)
	var urgent, routine []RankedPlan
	for _, plan := range sorted {
		key := plan.Category + "|" + patterns.Key(plan.Message)
		if seen[key] {
			continue
		}
		seen[key] = true

		ranked := RankedPlan{
			Plan:       plan,
			Tier:       ClassifyTier(plan),
			Recurrence: recurrence[patterns.Key(plan.Message)],
		}
		switch ranked.Tier {
		case TierUrgent:
			urgent = append(urgent, ranked)
		default:
			routine = append(routine, ranked)
		}
	}

	return TieredPlans{Urgent: urgent, Routine: routine}
}

// FlattenByTier returns all plans, urgent first, with global 1-indexed ranks.
func (tp TieredPlans) FlattenByTier() []RankedPlan {
	total := len(tp.Urgent) + len(tp.Routine)
	if total == 0 {
		return nil
	}

	result := make([]RankedPlan, 0, total)
	result = append(result, tp.Urgent...)
	result = append(result, tp.Routine...)
	for i := range result {
		result[i].Rank = i + 1
	}
	return result
}

// Counts returns the number of urgent and routine plans.
func (tp TieredPlans) Counts() (urgent, routine int) {
	return len(tp.Urgent), len(tp.Routine)
}

// ClassifyTier determines which tier a plan belongs to.
func ClassifyTier(plan contracts.RemediationPlan) int {
	if plan.Priority >= 1 && plan.Priority <= urgentPriority {
		return TierUrgent
	}
	return TierRoutine
}

// PriorityDistribution counts plans per priority, keyed "1".."4".
func PriorityDistribution(plans []contracts.RemediationPlan) map[string]int {
	dist := make(map[string]int)
	for _, p := range plans {
		dist[strconv.Itoa(p.Priority)]++
	}
	return dist
}
