package events

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/pubsub/pstest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"incidentops/src/broker"
	"incidentops/src/config"
	"incidentops/src/contracts"
)

type captureLogger struct {
	lines []string
}

func (c *captureLogger) Info(msg string, args ...interface{})  { c.lines = append(c.lines, msg) }
func (c *captureLogger) Error(msg string, args ...interface{}) { c.lines = append(c.lines, msg) }
func (c *captureLogger) Debug(msg string, args ...interface{}) { c.lines = append(c.lines, msg) }

var stageEvent = contracts.StageEvent{
	RunID:     "run-1",
	Pipeline:  "incidentops_full",
	Stage:     "triage",
	Status:    contracts.StageCompleted,
	ItemCount: 3,
	Timestamp: "2024-01-15T10:31:00Z",
}

var report = contracts.GovernanceReport{
	AuditSummary: contracts.AuditSummary{Status: contracts.AuditLogged, Count: 1},
	GovernanceAnalysis: contracts.GovernanceAnalysis{
		Risk:             contracts.RiskLow,
		Escalation:       "Monitor for recurring patterns",
		ComplianceIssues: []string{},
	},
}

type recorder struct {
	stages  []contracts.StageEvent
	reports []string
}

func (r *recorder) ObserveStage(e contracts.StageEvent) { r.stages = append(r.stages, e) }
func (r *recorder) EmitReport(runID string, _ contracts.GovernanceReport) {
	r.reports = append(r.reports, runID)
}

func TestMultiEmitter_FansOut(t *testing.T) {
	a, b := &recorder{}, &recorder{}
	m := NewMultiEmitter(a, b)

	m.ObserveStage(stageEvent)
	m.EmitReport("run-1", report)

	for _, r := range []*recorder{a, b} {
		assert.Equal(t, []contracts.StageEvent{stageEvent}, r.stages)
		assert.Equal(t, []string{"run-1"}, r.reports)
	}

	NewMultiEmitter().ObserveStage(stageEvent)
}

func TestLogEmitter(t *testing.T) {
	log := &captureLogger{}
	e := NewLogEmitter(log)
	e.ObserveStage(stageEvent)
	e.EmitReport("run-1", report)

	require.Len(t, log.lines, 2)
	assert.True(t, strings.HasPrefix(log.lines[0], "[Events] STAGE EVENT"))
	assert.True(t, strings.HasPrefix(log.lines[1], "[Events] GOVERNANCE REPORT"))
}

func TestBrokerEmitter_PublishesKeyedJSON(t *testing.T) {
	b := broker.NewInMemoryBroker()
	defer b.Close()
	e := NewBrokerEmitter(context.Background(), b, nil)

	e.ObserveStage(stageEvent)
	e.EmitReport("run-1", report)

	stages := b.Published(contracts.TopicStageEvents)
	require.Len(t, stages, 1)
	assert.Equal(t, "run-1", stages[0].Key)
	var gotStage contracts.StageEvent
	require.NoError(t, json.Unmarshal(stages[0].Value, &gotStage))
	assert.Equal(t, stageEvent, gotStage)

	reports := b.Published(contracts.TopicGovernanceReports)
	require.Len(t, reports, 1)
	var gotReport ReportEvent
	require.NoError(t, json.Unmarshal(reports[0].Value, &gotReport))
	assert.Equal(t, "run-1", gotReport.RunID)
	assert.Equal(t, contracts.RiskLow, gotReport.Report.GovernanceAnalysis.Risk)
}

func TestBrokerEmitter_PublishFailureIsLogged(t *testing.T) {
	b := broker.NewInMemoryBroker()
	b.Close()
	log := &captureLogger{}

	NewBrokerEmitter(context.Background(), b, log).ObserveStage(stageEvent)
	require.Len(t, log.lines, 1)
	assert.Contains(t, log.lines[0], "Publish to %s failed")
}

func TestPubSubEmitter(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	srv := pstest.NewServer()
	defer srv.Close()

	conn, err := grpc.NewClient(srv.Addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	defer conn.Close()

	admin, err := pubsub.NewClient(ctx, "incidentops-test", option.WithGRPCConn(conn))
	require.NoError(t, err)
	_, err = admin.CreateTopic(ctx, "stages")
	require.NoError(t, err)

	e, err := NewPubSubEmitter(ctx, "incidentops-test", "stages", nil, option.WithGRPCConn(conn))
	require.NoError(t, err)

	e.ObserveStage(stageEvent)
	e.EmitReport("run-1", report)

	msgs := srv.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, KindStageEvent, msgs[0].Attributes["kind"])
	assert.Equal(t, "triage", msgs[0].Attributes["stage"])
	assert.Equal(t, KindGovernanceReport, msgs[1].Attributes["kind"])
	assert.Equal(t, contracts.RiskLow, msgs[1].Attributes["risk"])

	var got contracts.StageEvent
	require.NoError(t, json.Unmarshal(msgs[0].Data, &got))
	assert.Equal(t, stageEvent, got)
}

func TestNew_SelectsSink(t *testing.T) {
	ctx := context.Background()
	for sink, want := range map[string]any{
		config.EventsNone:   &MultiEmitter{},
		config.EventsLog:    &LogEmitter{},
		config.EventsMemory: &BrokerEmitter{},
	} {
		cfg := &config.Config{Events: config.EventsConfig{Sink: sink}}
		e, closeFn, err := New(ctx, cfg, nil)
		require.NoError(t, err, sink)
		assert.IsType(t, want, e, sink)
		assert.NoError(t, closeFn())
	}

	_, _, err := New(ctx, &config.Config{Events: config.EventsConfig{Sink: "carrier-pigeon"}}, nil)
	assert.Error(t, err)

	_, _, err = New(ctx, &config.Config{Events: config.EventsConfig{Sink: config.EventsRedpanda}}, nil)
	assert.Error(t, err, "redpanda without brokers")
}
