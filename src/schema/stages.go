package schema

import "sort"

// Stage names, in full-pipeline order.
const (
	StageMonitor   = "monitor"
	StageSummarize = "summarize"
	StageTriage    = "triage"
	StageRemediate = "remediate"
	StageAudit     = "audit"
	StageGovern    = "govern"
)

// priority is checked wherever a plan carries one.
var priority = Opt("priority", IntIn(1, 4))

var (
	Monitor = StageContract{
		Stage:    StageMonitor,
		Variants: []Shape{List(Dict(Required("timestamp", "level", "message")...))},
	}

	Summarize = StageContract{
		Stage: StageSummarize,
		Variants: []Shape{Dict(
			Typed("alerts", AnyList()),
			Typed("summary_block", Dict()),
		)},
	}

	Triage = StageContract{
		Stage:    StageTriage,
		Variants: []Shape{List(Dict(Required("timestamp", "level", "message", "severity", "category")...))},
	}

	// Remediate accepts the resolver's dict output or a bare catalog list.
	Remediate = StageContract{
		Stage: StageRemediate,
		Variants: []Shape{
			Dict(
				Typed("resolution_plans", List(Dict(priority))),
				Typed("resolution_summary", Dict()),
			),
			List(Dict(
				Req("alert_id"),
				Req("severity"),
				Req("category"),
				Typed("recommended_actions", AnyList()),
				priority,
			)),
		},
	}

	Audit = StageContract{
		Stage:    StageAudit,
		Variants: []Shape{Dict(Required("status", "count", "timestamp")...)},
	}

	Govern = StageContract{
		Stage: StageGovern,
		Variants: []Shape{Dict(
			Typed("audit_summary", Dict()),
			Typed("governance_analysis", Dict(
				Req("risk"),
				Req("escalation"),
				Typed("compliance_issues", AnyList()),
				Req("commentary"),
			)),
		)},
	}
)

var byStage = map[string]StageContract{
	StageMonitor:   Monitor,
	StageSummarize: Summarize,
	StageTriage:    Triage,
	StageRemediate: Remediate,
	StageAudit:     Audit,
	StageGovern:    Govern,
}

// ForStage returns the contract guarding the output of the named stage.
func ForStage(name string) (StageContract, bool) {
	c, ok := byStage[name]
	return c, ok
}

// Stages lists the names that have a contract, sorted.
func Stages() []string {
	names := make([]string, 0, len(byStage))
	for n := range byStage {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
