package events

import (
	"context"
	"encoding/json"

	"incidentops/src/broker"
	"incidentops/src/contracts"
	"incidentops/src/logger"
)

// BrokerEmitter publishes events as JSON to broker topics, keyed by run id.
type BrokerEmitter struct {
	ctx    context.Context
	broker broker.Broker
	logger logger.Logger
}

// NewBrokerEmitter creates an emitter publishing through b. ctx bounds every publish.
func NewBrokerEmitter(ctx context.Context, b broker.Broker, log logger.Logger) *BrokerEmitter {
	if log == nil {
		log = logger.NewSilentLogger()
	}
	return &BrokerEmitter{ctx: ctx, broker: b, logger: log}
}

// ObserveStage publishes event to contracts.TopicStageEvents.
func (e *BrokerEmitter) ObserveStage(event contracts.StageEvent) {
	e.publish(contracts.TopicStageEvents, event.RunID, event)
}

// EmitReport publishes the report to contracts.TopicGovernanceReports.
func (e *BrokerEmitter) EmitReport(runID string, report contracts.GovernanceReport) {
	e.publish(contracts.TopicGovernanceReports, runID, newReportEvent(runID, report))
}

func (e *BrokerEmitter) publish(topic, key string, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		e.logger.Error("[Events] Marshal for %s failed: %v", topic, err)
		return
	}
	if err := e.broker.Publish(e.ctx, topic, key, b); err != nil {
		e.logger.Error("[Events] Publish to %s failed: %v", topic, err)
	}
}
