// Package events publishes pipeline stage transitions and governance
// reports. Every Emitter is a pipeline.Observer; publishing failures are
// logged and never interrupt a run.
package events

import (
	"encoding/json"
	"time"

	"incidentops/src/contracts"
	"incidentops/src/logger"
)

// Emitter receives the stage events and the terminal report of pipeline runs.
type Emitter interface {
	ObserveStage(event contracts.StageEvent)
	EmitReport(runID string, report contracts.GovernanceReport)
}

// ReportEvent is the wire form of a governance report.
// Published to: incidentops.governance.reports
// Key: {run_id}
type ReportEvent struct {
	RunID     string                     `json:"run_id"`
	Timestamp string                     `json:"timestamp"`
	Report    contracts.GovernanceReport `json:"report"`
}

func newReportEvent(runID string, report contracts.GovernanceReport) ReportEvent {
	return ReportEvent{
		RunID:     runID,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Report:    report,
	}
}

// LogEmitter writes events to a logger as JSON.
type LogEmitter struct {
	logger logger.Logger
}

// NewLogEmitter creates a log emitter.
func NewLogEmitter(log logger.Logger) *LogEmitter {
	if log == nil {
		log = logger.NewSilentLogger()
	}
	return &LogEmitter{logger: log}
}

// ObserveStage logs event.
func (e *LogEmitter) ObserveStage(event contracts.StageEvent) {
	b, err := json.Marshal(event)
	if err != nil {
		e.logger.Error("[Events] Event marshal failed: %v", err)
		return
	}
	e.logger.Debug("[Events] STAGE EVENT: %s", string(b))
}

// EmitReport logs the report.
func (e *LogEmitter) EmitReport(runID string, report contracts.GovernanceReport) {
	b, err := json.Marshal(newReportEvent(runID, report))
	if err != nil {
		e.logger.Error("[Events] Report marshal failed: %v", err)
		return
	}
	e.logger.Info("[Events] GOVERNANCE REPORT: %s", string(b))
}

// MultiEmitter fans every event out to a fixed list of emitters, in order.
type MultiEmitter struct {
	emitters []Emitter
}

// NewMultiEmitter creates a multi emitter. With no emitters it discards everything.
func NewMultiEmitter(emitters ...Emitter) *MultiEmitter {
	return &MultiEmitter{emitters: emitters}
}

// ObserveStage forwards event to every emitter.
func (m *MultiEmitter) ObserveStage(event contracts.StageEvent) {
	for _, e := range m.emitters {
		e.ObserveStage(event)
	}
}

// EmitReport forwards the report to every emitter.
func (m *MultiEmitter) EmitReport(runID string, report contracts.GovernanceReport) {
	for _, e := range m.emitters {
		e.EmitReport(runID, report)
	}
}
