package events

import (
	"context"
	"encoding/json"

	"cloud.google.com/go/pubsub"
	"github.com/cockroachdb/errors"
	"google.golang.org/api/option"

	"incidentops/src/contracts"
	"incidentops/src/logger"
)

// Message attribute values distinguishing the two event kinds on one topic.
const (
	KindStageEvent       = "stage_event"
	KindGovernanceReport = "governance_report"
)

// PubSubEmitter publishes events to a Google Cloud Pub/Sub topic. Each
// publish waits for the server acknowledgement.
type PubSubEmitter struct {
	ctx    context.Context
	client *pubsub.Client
	topic  *pubsub.Topic
	logger logger.Logger
}

// NewPubSubEmitter connects to projectID and publishes to topicID.
func NewPubSubEmitter(ctx context.Context, projectID, topicID string, log logger.Logger, opts ...option.ClientOption) (*PubSubEmitter, error) {
	if log == nil {
		log = logger.NewSilentLogger()
	}
	client, err := pubsub.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, errors.Wrapf(err, "pubsub client for project %s", projectID)
	}

	return &PubSubEmitter{
		ctx:    ctx,
		client: client,
		topic:  client.Topic(topicID),
		logger: log,
	}, nil
}

// ObserveStage publishes event.
func (e *PubSubEmitter) ObserveStage(event contracts.StageEvent) {
	e.publish(event, map[string]string{
		"kind":   KindStageEvent,
		"run_id": event.RunID,
		"stage":  event.Stage,
		"status": event.Status,
	})
}

// EmitReport publishes the report.
func (e *PubSubEmitter) EmitReport(runID string, report contracts.GovernanceReport) {
	e.publish(newReportEvent(runID, report), map[string]string{
		"kind":   KindGovernanceReport,
		"run_id": runID,
		"risk":   report.GovernanceAnalysis.Risk,
	})
}

func (e *PubSubEmitter) publish(v any, attrs map[string]string) {
	b, err := json.Marshal(v)
	if err != nil {
		e.logger.Error("[Events] Pub/Sub marshal failed: %v", err)
		return
	}

	res := e.topic.Publish(e.ctx, &pubsub.Message{Data: b, Attributes: attrs})
	if _, err := res.Get(e.ctx); err != nil {
		e.logger.Error("[Events] Pub/Sub publish failed: %v", err)
		return
	}
	e.logger.Debug("[Events] Published %s to Pub/Sub", attrs["kind"])
}

// Close flushes pending messages and closes the client.
func (e *PubSubEmitter) Close() error {
	e.topic.Stop()
	return e.client.Close()
}
