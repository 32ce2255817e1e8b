package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"incidentops/src/contracts"
	"incidentops/src/logger"
	"incidentops/src/schema"
)

// ErrAlreadyExecuted is returned when Execute is called on a used executor.
var ErrAlreadyExecuted = errors.New("pipeline already executed")

// State is the lifecycle state of one stage.
type State int

const (
	NotStarted State = iota
	Running
	Completed
	Failed
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "not_started"
	case Running:
		return "running"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// StageStatus is the current state of a named stage.
type StageStatus struct {
	Stage string
	State State
}

// ExecutionLogEntry records one stage transition.
type ExecutionLogEntry struct {
	Stage string `json:"stage"`
	// started, completed or failed.
	Status    string `json:"status"`
	ItemCount int    `json:"item_count"`
}

// StageError reports the stage a run stopped at. It unwraps to the
// collaborator's error or to a *schema.Violation.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// stage is one type-erased step of the chain. run receives the projected
// output of the previous stage and returns the validated output, the
// projection handed to the next stage and the item count.
type stage struct {
	name string
	run  func(ctx context.Context, in any) (out, next any, items int, err error)
}

// step builds a stage from a typed collaborator call.
func step[In, Out any](
	contract schema.StageContract,
	call func(context.Context, In) (Out, error),
	count func(Out) int,
	project func(Out) any,
) stage {
	return stage{
		name: contract.Stage,
		run: func(ctx context.Context, in any) (any, any, int, error) {
			typed, _ := in.(In)
			out, err := call(ctx, typed)
			if err != nil {
				return nil, nil, 0, err
			}
			if _, err := schema.Check(contract, out); err != nil {
				return nil, nil, 0, err
			}
			var next any = out
			if project != nil {
				next = project(out)
			}
			return out, next, count(out), nil
		},
	}
}

// Option configures an Executor.
type Option func(*options)

type options struct {
	logger    logger.Logger
	observers []Observer
	runID     string
	now       func() time.Time
}

// WithLogger sets the executor's logger. Defaults to a silent logger.
func WithLogger(l logger.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithObserver adds observers that receive every stage transition.
func WithObserver(obs ...Observer) Option {
	return func(o *options) { o.observers = append(o.observers, obs...) }
}

// WithRunID sets the run id stamped on stage events. Defaults to a random UUID.
func WithRunID(id string) Option {
	return func(o *options) { o.runID = id }
}

// WithClock overrides the time source used for event timestamps and durations.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// Executor runs one variant of the pipeline once. T is the terminal result type.
type Executor[T any] struct {
	variant Variant
	stages  []stage
	opts    options

	mu       sync.Mutex
	executed bool
	states   []State
	log      []ExecutionLogEntry
}

func newExecutor[T any](variant Variant, stages []stage, opts []Option) *Executor[T] {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logger.NewSilentLogger()
	}
	if o.runID == "" {
		o.runID = uuid.NewString()
	}
	return &Executor[T]{
		variant: variant,
		stages:  stages,
		opts:    o,
		states:  make([]State, len(stages)),
	}
}

// Variant reports which stage chain the executor runs.
func (e *Executor[T]) Variant() Variant {
	return e.variant
}

// RunID identifies this execution in stage events.
func (e *Executor[T]) RunID() string {
	return e.opts.runID
}

// Execute runs every stage in order and returns the terminal stage output.
// The first failure stops the run and is returned as a *StageError.
func (e *Executor[T]) Execute(ctx context.Context) (T, error) {
	var zero T

	e.mu.Lock()
	if e.executed {
		e.mu.Unlock()
		return zero, ErrAlreadyExecuted
	}
	e.executed = true
	e.mu.Unlock()

	log := e.opts.logger
	log.Info("[Pipeline] Starting %s run %s (%d stages)", e.variant, e.opts.runID, len(e.stages))

	var (
		in     any
		result any
	)
	for i, st := range e.stages {
		e.transition(i, Running, 0)
		e.emit(st.name, contracts.StageStarted, 0, 0, nil)
		log.Info("[Pipeline] Stage %s started", st.name)

		start := e.opts.now()
		out, next, items, err := e.invoke(ctx, st, in)
		elapsed := e.opts.now().Sub(start)

		if err != nil {
			e.transition(i, Failed, 0)
			e.emit(st.name, contracts.StageFailed, 0, elapsed, err)
			log.Error("[Pipeline] Stage %s failed: %v", st.name, err)
			return zero, &StageError{Stage: st.name, Err: err}
		}

		e.transition(i, Completed, items)
		e.emit(st.name, contracts.StageCompleted, items, elapsed, nil)
		log.Info("[Pipeline] Stage %s completed with %d item(s)", st.name, items)

		in, result = next, out
	}

	final, ok := result.(T)
	if !ok {
		return zero, errors.AssertionFailedf("terminal stage produced %T", result)
	}
	log.Info("[Pipeline] Run %s completed", e.opts.runID)
	return final, nil
}

func (e *Executor[T]) invoke(ctx context.Context, st stage, in any) (out, next any, items int, err error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, 0, err
	}
	return st.run(ctx, in)
}

func (e *Executor[T]) transition(i int, state State, items int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.states[i] = state

	status := contracts.StageStarted
	switch state {
	case Completed:
		status = contracts.StageCompleted
	case Failed:
		status = contracts.StageFailed
	}
	e.log = append(e.log, ExecutionLogEntry{Stage: e.stages[i].name, Status: status, ItemCount: items})
}

func (e *Executor[T]) emit(stageName, status string, items int, elapsed time.Duration, err error) {
	if len(e.opts.observers) == 0 {
		return
	}
	event := contracts.StageEvent{
		RunID:      e.opts.runID,
		Pipeline:   e.variant.PipelineName(),
		Stage:      stageName,
		Status:     status,
		ItemCount:  items,
		DurationMS: elapsed.Milliseconds(),
		Timestamp:  e.opts.now().UTC().Format(time.RFC3339Nano),
	}
	if err != nil {
		event.Error = err.Error()
	}
	for _, o := range e.opts.observers {
		o.ObserveStage(event)
	}
}

// Log returns a copy of the execution log.
func (e *Executor[T]) Log() []ExecutionLogEntry {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]ExecutionLogEntry, len(e.log))
	copy(out, e.log)
	return out
}

// States returns the current state of every stage, in execution order.
func (e *Executor[T]) States() []StageStatus {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]StageStatus, len(e.stages))
	for i, st := range e.stages {
		out[i] = StageStatus{Stage: st.name, State: e.states[i]}
	}
	return out
}
