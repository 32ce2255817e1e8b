package pipeline

import (
	"context"

	"incidentops/src/contracts"
	"incidentops/src/schema"
)

// NewFull builds an executor for the full variant:
// monitor -> summarize -> triage -> remediate -> audit -> govern.
func NewFull(s FullStages, opts ...Option) *Executor[contracts.GovernanceReport] {
	stages := []stage{
		monitorStage(s.Source),
		step(schema.Summarize, s.Summarizer.Summarize,
			func(out contracts.EnrichedAlerts) int { return len(out.Alerts) },
			func(out contracts.EnrichedAlerts) any { return out.Alerts }),
		triageStage(s.Classifier),
		step(schema.Remediate, s.Resolver.Propose,
			func(out contracts.ResolutionOutput) int { return len(out.ResolutionPlans) },
			func(out contracts.ResolutionOutput) any { return out.ResolutionPlans }),
		auditStage(s.Audit),
		step(schema.Govern, s.Risk.Assess,
			func(contracts.GovernanceReport) int { return 1 },
			nil),
	}
	return newExecutor[contracts.GovernanceReport](Full, stages, opts)
}

// NewMinimal builds an executor for the minimal variant:
// monitor -> triage -> remediate -> audit.
func NewMinimal(s MinimalStages, opts ...Option) *Executor[contracts.AuditSummary] {
	stages := []stage{
		monitorStage(s.Source),
		triageStage(s.Classifier),
		step(schema.Remediate, s.Planner.Plans,
			func(out []contracts.RemediationPlan) int { return len(out) },
			nil),
		auditStage(s.Audit),
	}
	return newExecutor[contracts.AuditSummary](Minimal, stages, opts)
}

func monitorStage(src AlertSource) stage {
	return step(schema.Monitor,
		func(ctx context.Context, _ struct{}) ([]contracts.AlertRecord, error) { return src.Produce(ctx) },
		func(out []contracts.AlertRecord) int { return len(out) },
		nil)
}

func triageStage(c Classifier) stage {
	return step(schema.Triage, c.Classify,
		func(out []contracts.ClassifiedAlert) int { return len(out) },
		nil)
}

func auditStage(sink AuditSink) stage {
	return step(schema.Audit, sink.Record,
		func(out contracts.AuditSummary) int { return out.Count },
		nil)
}
