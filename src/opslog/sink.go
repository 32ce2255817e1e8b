// Package opslog turns a run's remediation plans into an AuditEntry,
// appends it to an audit store and reports what was written.
package opslog

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"incidentops/src/contracts"
	"incidentops/src/logger"
	"incidentops/src/pipeline"
	"incidentops/src/ranking"
	"incidentops/src/store"
)

const (
	// LoggedBy identifies this sink in audit metadata.
	LoggedBy = "OpsLog"
	// LogVersion is the audit entry format version.
	LogVersion = "1.0"
	// TimestampLayout is the execution timestamp format. Microseconds keep
	// entry ids distinct for runs within the same second.
	TimestampLayout = "2006-01-02T15:04:05.000000"
)

// EntryID derives an entry id from an execution timestamp.
func EntryID(executionTimestamp string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(executionTimestamp)).String()
}

// Option configures a Sink.
type Option func(*Sink)

// WithClock overrides the time source for execution timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Sink) { s.now = now }
}

// Sink records remediation plans in an AuditStore.
type Sink struct {
	store   store.AuditStore
	variant pipeline.Variant
	logger  logger.Logger
	now     func() time.Time
}

// NewSink creates a sink writing entries for runs of variant.
func NewSink(st store.AuditStore, variant pipeline.Variant, log logger.Logger, opts ...Option) *Sink {
	if log == nil {
		log = logger.NewSilentLogger()
	}
	s := &Sink{store: st, variant: variant, logger: log, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Record appends one entry for plans. An empty batch writes nothing and
// reports no_data. Storage errors are returned with a failed summary; the
// executor stops on the error, so only direct callers ever see failed.
func (s *Sink) Record(ctx context.Context, plans []contracts.RemediationPlan) (contracts.AuditSummary, error) {
	if len(plans) == 0 {
		s.logger.Info("[OpsLog] No resolution plans to log")
		return contracts.AuditSummary{Status: contracts.AuditNoData, Count: 0}, nil
	}

	entry := s.Build(plans)
	s.logger.Info("[OpsLog] Recording %d incident(s) as entry %s", len(plans), entry.AuditMetadata.EntryID)
	for _, p := range plans {
		s.logger.Debug("[OpsLog] Incident %s (%s/%s) -> %d action(s)", p.AlertID, p.Severity, p.Category, len(p.RecommendedActions))
	}

	ts := entry.ExecutionTimestamp
	location, err := s.store.Append(ctx, entry)
	if err != nil {
		s.logger.Error("[OpsLog] Failed to append audit entry: %v", err)
		return contracts.AuditSummary{Status: contracts.AuditFailed, Count: 0, Timestamp: &ts},
			errors.Wrap(err, "append audit entry")
	}

	s.logger.Info("[OpsLog] Logged %d incident(s) to %s", len(plans), location)
	return contracts.AuditSummary{
		Status:    contracts.AuditLogged,
		Count:     len(plans),
		Timestamp: &ts,
		Location:  &location,
		EntryID:   entry.AuditMetadata.EntryID,
	}, nil
}

// Build assembles the audit entry for plans without writing it.
func (s *Sink) Build(plans []contracts.RemediationPlan) contracts.AuditEntry {
	ts := s.now().Format(TimestampLayout)

	alertIDs := make([]string, len(plans))
	bySeverity := make(map[string]int)
	byCategory := make(map[string]int)
	for i, p := range plans {
		alertIDs[i] = p.AlertID
		bySeverity[p.Severity]++
		byCategory[p.Category]++
	}

	recorded := make([]contracts.RemediationPlan, len(plans))
	copy(recorded, plans)

	return contracts.AuditEntry{
		ExecutionTimestamp:  ts,
		PipelineName:        s.variant.PipelineName(),
		AgentExecutionOrder: s.variant.Stages(),
		StageOutputs: contracts.StageOutputs{
			MonitorStage: contracts.MonitorStageOutput{
				AlertsDetected: len(plans),
				AlertIDs:       alertIDs,
			},
			TriageStage: contracts.TriageStageOutput{
				SeverityDistribution: bySeverity,
				CategoryDistribution: byCategory,
			},
			ResolutionStage: contracts.ResolutionStageOutput{
				PlansGenerated:       len(plans),
				PriorityDistribution: ranking.PriorityDistribution(plans),
			},
		},
		ResolutionPlans: recorded,
		TotalIncidents:  len(plans),
		AuditMetadata: contracts.AuditMetadata{
			LoggedBy:   LoggedBy,
			LogVersion: LogVersion,
			EntryID:    EntryID(ts),
		},
	}
}

