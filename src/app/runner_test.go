package app

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"incidentops/src/broker"
	"incidentops/src/config"
	"incidentops/src/contracts"
	"incidentops/src/events"
	"incidentops/src/logger"
	"incidentops/src/pipeline"
	"incidentops/src/store"
)

const sampleLog = "2024-01-15 10:30:00 ERROR Database connection timeout\n"

func testConfig() *config.Config {
	return &config.Config{
		LogFile: "does-not-exist.log",
		Audit:   config.AuditConfig{Backend: config.AuditBackendMemory},
		LLM:     config.LLMConfig{Provider: config.ProviderMock, RateLimit: 1, Burst: 1},
		Events:  config.EventsConfig{Sink: config.EventsNone},
	}
}

func TestRun_FullEndToEnd(t *testing.T) {
	ctx := context.Background()
	b := broker.NewInMemoryBroker()
	defer b.Close()

	r, err := New(ctx, testConfig(), logger.NewSilentLogger(),
		WithEmitter(events.NewBrokerEmitter(ctx, b, logger.NewSilentLogger())))
	require.NoError(t, err)
	defer r.Close()

	res, err := r.Run(ctx, RunOptions{LogText: sampleLog})
	require.NoError(t, err)

	assert.Equal(t, pipeline.Full, res.Variant)
	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, contracts.AuditLogged, res.AuditSummary.Status)
	assert.Equal(t, 1, res.AuditSummary.Count)
	require.NotNil(t, res.AuditSummary.Location)
	assert.Equal(t, store.MemoryLocation, *res.AuditSummary.Location)

	require.Len(t, res.Plans, 1)
	plan := res.Plans[0]
	assert.Equal(t, contracts.SeverityHigh, plan.Severity)
	assert.Equal(t, "database", plan.Category)
	assert.Equal(t, 2, plan.Priority)
	assert.Equal(t, "2024-01-15 10:30:00_1", plan.AlertID)

	require.NotNil(t, res.Governance)
	assert.Equal(t, contracts.RiskLow, res.Governance.Risk)
	assert.Equal(t, "Monitor for recurring patterns", res.Governance.Escalation)
	assert.True(t, res.Governance.Degraded)

	require.Len(t, res.ExecutionLog, 12)
	for _, st := range res.StageStates {
		assert.Equal(t, "completed", st.State, st.Stage)
	}

	entries, err := r.Store().List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "incidentops_full", entries[0].PipelineName)

	assert.Len(t, b.Published(contracts.TopicStageEvents), 12)
	reports := b.Published(contracts.TopicGovernanceReports)
	require.Len(t, reports, 1)
	var ev events.ReportEvent
	require.NoError(t, json.Unmarshal(reports[0].Value, &ev))
	assert.Equal(t, res.RunID, ev.RunID)
	assert.Equal(t, contracts.RiskLow, ev.Report.GovernanceAnalysis.Risk)

	assert.Equal(t, 1.0, testutil.ToFloat64(r.Recorder().StageTransitions.WithLabelValues("govern", "completed")))
}

func TestRun_MinimalFromFile(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	logPath := filepath.Join(dir, "app.log")
	content := sampleLog + "2024-01-15 10:31:00 WARNING Disk usage at 85%\n2024-01-15 10:32:00 INFO all good\n"
	require.NoError(t, os.WriteFile(logPath, []byte(content), 0o644))

	cfg := testConfig()
	cfg.Audit = config.AuditConfig{Backend: config.AuditBackendFile, File: filepath.Join(dir, "audit", "output_log.json")}

	r, err := New(ctx, cfg, nil)
	require.NoError(t, err)
	defer r.Close()

	res, err := r.Run(ctx, RunOptions{Minimal: true, LogFile: logPath})
	require.NoError(t, err)

	assert.Equal(t, pipeline.Minimal, res.Variant)
	assert.Nil(t, res.Governance)
	assert.Equal(t, 2, res.AuditSummary.Count)
	require.Len(t, res.Plans, 2)
	assert.Equal(t, "disk", res.Plans[1].Category)
	assert.Len(t, res.StageStates, 4)

	entries, err := store.NewFileStore(cfg.Audit.File, nil).List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "incidentops_minimal", entries[0].PipelineName)
}

func TestRun_MissingLogFileIsNoData(t *testing.T) {
	ctx := context.Background()
	r, err := New(ctx, testConfig(), nil)
	require.NoError(t, err)
	defer r.Close()

	res, err := r.Run(ctx, RunOptions{})
	require.NoError(t, err)

	assert.Equal(t, contracts.AuditNoData, res.AuditSummary.Status)
	assert.Nil(t, res.AuditSummary.Timestamp)
	assert.Empty(t, res.Plans)
	require.NotNil(t, res.Governance)
	assert.Equal(t, contracts.RiskLow, res.Governance.Risk)
	assert.Equal(t, "None required", res.Governance.Escalation)

	entries, err := r.Store().List(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRun_EachRunAppendsOneEntry(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	r, err := New(ctx, testConfig(), nil, WithStore(st))
	require.NoError(t, err)
	defer r.Close()

	for i := 0; i < 3; i++ {
		_, err := r.Run(ctx, RunOptions{LogText: sampleLog})
		require.NoError(t, err)
	}
	entries, err := st.List(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestOpenStore(t *testing.T) {
	ctx := context.Background()

	cfg := testConfig()
	st, err := OpenStore(ctx, cfg, nil)
	require.NoError(t, err)
	assert.IsType(t, &store.MemoryStore{}, st)

	cfg.Audit = config.AuditConfig{Backend: config.AuditBackendFile, File: filepath.Join(t.TempDir(), "a.json")}
	st, err = OpenStore(ctx, cfg, nil)
	require.NoError(t, err)
	assert.IsType(t, &store.FileStore{}, st)

	cfg.Audit = config.AuditConfig{Backend: "s3"}
	_, err = OpenStore(ctx, cfg, nil)
	assert.Error(t, err)
}

func TestNew_BadPromptsFile(t *testing.T) {
	cfg := testConfig()
	cfg.LLM.PromptsFile = filepath.Join(t.TempDir(), "missing.yaml")
	_, err := New(context.Background(), cfg, nil)
	assert.Error(t, err)
}
