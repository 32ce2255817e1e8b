// Package app wires configuration into pipeline collaborators. The CLI and
// the MCP server both run the pipeline through a Runner.
package app

import (
	"context"

	"github.com/cockroachdb/errors"

	"incidentops/src/config"
	"incidentops/src/contracts"
	"incidentops/src/events"
	"incidentops/src/governance"
	"incidentops/src/ingest"
	"incidentops/src/llm"
	"incidentops/src/logger"
	"incidentops/src/metrics"
	"incidentops/src/opslog"
	"incidentops/src/pipeline"
	"incidentops/src/prompts"
	"incidentops/src/remediate"
	"incidentops/src/store"
	"incidentops/src/summarize"
	"incidentops/src/triage"
)

// RunOptions selects the variant and the alert input of one run.
type RunOptions struct {
	Minimal bool
	// LogFile overrides the configured log file.
	LogFile string
	// LogText is scanned instead of a file when non-empty.
	LogText string
}

// StageState is the final state of one stage.
type StageState struct {
	Stage string `json:"stage"`
	State string `json:"state"`
}

// Result describes a finished (or stopped) run.
type Result struct {
	RunID        string                        `json:"run_id"`
	Variant      pipeline.Variant              `json:"variant"`
	ExecutionLog []pipeline.ExecutionLogEntry  `json:"execution_log"`
	StageStates  []StageState                  `json:"stage_states"`
	AuditSummary contracts.AuditSummary        `json:"audit_summary"`
	Governance   *contracts.GovernanceAnalysis `json:"governance_analysis,omitempty"`
	// Plans of the written audit entry, re-loaded from the store.
	Plans []contracts.RemediationPlan `json:"resolution_plans"`
}

// Option overrides a collaborator the Runner would otherwise build from config.
type Option func(*Runner)

// WithStore sets the audit store.
func WithStore(st store.AuditStore) Option {
	return func(r *Runner) { r.store = st }
}

// WithGenerator sets the text generator.
func WithGenerator(gen llm.Generator) Option {
	return func(r *Runner) { r.gen = gen }
}

// WithEmitter sets the event emitter.
func WithEmitter(em events.Emitter) Option {
	return func(r *Runner) { r.emitter = em }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(rec *metrics.Recorder) Option {
	return func(r *Runner) { r.recorder = rec }
}

// Runner holds the long-lived collaborators shared by every run.
type Runner struct {
	cfg      *config.Config
	logger   logger.Logger
	store    store.AuditStore
	gen      llm.Generator
	prompts  prompts.Set
	emitter  events.Emitter
	recorder *metrics.Recorder
	closers  []func() error
}

// New builds a Runner from cfg. Collaborators not supplied through opts are
// created from their config sections.
func New(ctx context.Context, cfg *config.Config, log logger.Logger, opts ...Option) (*Runner, error) {
	if log == nil {
		log = logger.NewSilentLogger()
	}
	r := &Runner{cfg: cfg, logger: log}
	for _, opt := range opts {
		opt(r)
	}

	set, err := prompts.Load(cfg.LLM.PromptsFile)
	if err != nil {
		return nil, err
	}
	r.prompts = set

	if r.store == nil {
		st, err := OpenStore(ctx, cfg, log)
		if err != nil {
			return nil, err
		}
		r.store = st
		r.closers = append(r.closers, st.Close)
	}

	if r.gen == nil {
		gen, closeGen, err := llm.New(ctx, cfg, log)
		if err != nil {
			r.Close()
			return nil, errors.Wrap(err, "text generator")
		}
		r.gen = gen
		r.closers = append(r.closers, closeGen)
	}

	if r.emitter == nil {
		em, closeEm, err := events.New(ctx, cfg, log)
		if err != nil {
			r.Close()
			return nil, err
		}
		r.emitter = em
		r.closers = append(r.closers, closeEm)
	}

	if r.recorder == nil {
		r.recorder = metrics.NewRecorder()
	}
	return r, nil
}

// OpenStore opens the audit store selected by cfg.Audit.Backend.
func OpenStore(ctx context.Context, cfg *config.Config, log logger.Logger) (store.AuditStore, error) {
	switch cfg.Audit.Backend {
	case config.AuditBackendFile, "":
		return store.NewFileStore(cfg.Audit.File, log), nil
	case config.AuditBackendMemory:
		return store.NewMemoryStore(), nil
	case config.AuditBackendPostgres:
		st, err := store.NewPostgresStore(ctx, cfg.Audit.PostgresDSN)
		if err != nil {
			return nil, errors.Wrap(err, "postgres audit store")
		}
		return st, nil
	}
	return nil, errors.Newf("unknown audit backend %q", cfg.Audit.Backend)
}

// Store returns the audit store runs append to.
func (r *Runner) Store() store.AuditStore {
	return r.store
}

// Recorder returns the metrics recorder observing every run.
func (r *Runner) Recorder() *metrics.Recorder {
	return r.recorder
}

// Run executes one pipeline run. On failure the partial Result is returned
// together with the error so callers can show how far the run got.
func (r *Runner) Run(ctx context.Context, opts RunOptions) (*Result, error) {
	source := r.source(opts)
	classifier := triage.NewClassifier(r.logger)
	catalog := remediate.NewCatalog(r.logger)

	execOpts := []pipeline.Option{
		pipeline.WithLogger(r.logger),
		pipeline.WithObserver(r.recorder, r.emitter),
	}

	if opts.Minimal {
		exec := pipeline.NewMinimal(pipeline.MinimalStages{
			Source:     source,
			Classifier: classifier,
			Planner:    catalog,
			Audit:      opslog.NewSink(r.store, pipeline.Minimal, r.logger),
		}, execOpts...)

		summary, err := exec.Execute(ctx)
		res := newResult(exec.RunID(), exec.Variant(), exec.Log(), exec.States())
		if err != nil {
			return res, err
		}
		res.AuditSummary = summary
		r.loadPlans(ctx, res)
		return res, nil
	}

	exec := pipeline.NewFull(pipeline.FullStages{
		Source:     source,
		Summarizer: summarize.New(r.gen, r.prompts, r.logger),
		Classifier: classifier,
		Resolver:   remediate.NewResolver(catalog, r.gen, r.prompts, r.logger),
		Audit:      opslog.NewSink(r.store, pipeline.Full, r.logger),
		Risk:       governance.NewAssessor(r.store, r.gen, r.prompts, r.logger),
	}, execOpts...)

	report, err := exec.Execute(ctx)
	res := newResult(exec.RunID(), exec.Variant(), exec.Log(), exec.States())
	if err != nil {
		return res, err
	}
	res.AuditSummary = report.AuditSummary
	analysis := report.GovernanceAnalysis
	res.Governance = &analysis
	r.emitter.EmitReport(res.RunID, report)
	r.loadPlans(ctx, res)
	return res, nil
}

func (r *Runner) source(opts RunOptions) pipeline.AlertSource {
	if opts.LogText != "" {
		return ingest.NewTextSource(opts.LogText, r.logger)
	}
	path := opts.LogFile
	if path == "" {
		path = r.cfg.LogFile
	}
	return ingest.NewFileSource(path, r.logger)
}

// loadPlans fills res.Plans from the entry the run wrote, if any.
func (r *Runner) loadPlans(ctx context.Context, res *Result) {
	if res.AuditSummary.Status != contracts.AuditLogged || res.AuditSummary.EntryID == "" {
		return
	}
	entry, err := r.store.Get(ctx, res.AuditSummary.EntryID)
	if err != nil {
		r.logger.Error("[App] Could not re-load audit entry %s: %v", res.AuditSummary.EntryID, err)
		return
	}
	res.Plans = entry.ResolutionPlans
}

// Close releases every collaborator the Runner created. The first error is returned.
func (r *Runner) Close() error {
	var first error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	r.closers = nil
	return first
}

func newResult(runID string, variant pipeline.Variant, log []pipeline.ExecutionLogEntry, states []pipeline.StageStatus) *Result {
	res := &Result{
		RunID:        runID,
		Variant:      variant,
		ExecutionLog: log,
		StageStates:  make([]StageState, len(states)),
		Plans:        []contracts.RemediationPlan{},
	}
	for i, s := range states {
		res.StageStates[i] = StageState{Stage: s.Stage, State: s.State.String()}
	}
	return res
}
