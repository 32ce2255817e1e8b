// Package pipeline runs the incident-response stages in a fixed order and
// validates every stage output against its schema.StageContract before the
// next stage sees it.
//
// Execution is sequential and fail-fast: the first collaborator error or
// contract violation stops the run. Stages that already completed are not
// rolled back.
package pipeline

import (
	"context"

	"incidentops/src/contracts"
	"incidentops/src/schema"
)

// Variant selects the stage chain an executor runs.
type Variant string

const (
	// Full runs monitor, summarize, triage, remediate, audit and govern.
	Full Variant = "full"
	// Minimal runs monitor, triage, remediate and audit without any text generation.
	Minimal Variant = "minimal"
)

// Stages returns the stage names of the variant in execution order.
func (v Variant) Stages() []string {
	switch v {
	case Minimal:
		return []string{schema.StageMonitor, schema.StageTriage, schema.StageRemediate, schema.StageAudit}
	default:
		return []string{
			schema.StageMonitor, schema.StageSummarize, schema.StageTriage,
			schema.StageRemediate, schema.StageAudit, schema.StageGovern,
		}
	}
}

// PipelineName is the name recorded in audit entries and stage events.
func (v Variant) PipelineName() string {
	if v == Minimal {
		return "incidentops_minimal"
	}
	return "incidentops_full"
}

// AlertSource produces the alerts a run starts from.
type AlertSource interface {
	Produce(ctx context.Context) ([]contracts.AlertRecord, error)
}

// Summarizer attaches a digest to a batch of alerts.
type Summarizer interface {
	Summarize(ctx context.Context, alerts []contracts.AlertRecord) (contracts.EnrichedAlerts, error)
}

// Classifier labels each alert with a severity and category.
type Classifier interface {
	Classify(ctx context.Context, alerts []contracts.AlertRecord) ([]contracts.ClassifiedAlert, error)
}

// Resolver proposes remediation plans together with a summary.
type Resolver interface {
	Propose(ctx context.Context, alerts []contracts.ClassifiedAlert) (contracts.ResolutionOutput, error)
}

// Planner proposes bare remediation plans.
type Planner interface {
	Plans(ctx context.Context, alerts []contracts.ClassifiedAlert) ([]contracts.RemediationPlan, error)
}

// AuditSink records a run's plans and reports what was written.
type AuditSink interface {
	Record(ctx context.Context, plans []contracts.RemediationPlan) (contracts.AuditSummary, error)
}

// RiskAssessor turns an audit summary into a governance report.
type RiskAssessor interface {
	Assess(ctx context.Context, summary contracts.AuditSummary) (contracts.GovernanceReport, error)
}

// Observer receives every stage transition synchronously, in order.
type Observer interface {
	ObserveStage(event contracts.StageEvent)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(event contracts.StageEvent)

// ObserveStage calls f(event).
func (f ObserverFunc) ObserveStage(event contracts.StageEvent) {
	f(event)
}

// FullStages are the collaborators of the full variant.
type FullStages struct {
	Source     AlertSource
	Summarizer Summarizer
	Classifier Classifier
	Resolver   Resolver
	Audit      AuditSink
	Risk       RiskAssessor
}

// MinimalStages are the collaborators of the minimal variant.
type MinimalStages struct {
	Source     AlertSource
	Classifier Classifier
	Planner    Planner
	Audit      AuditSink
}
