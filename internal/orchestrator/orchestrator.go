// Package orchestrator runs analyzer tasks concurrently on a bounded pool,
// isolates their failures and merges the outcomes into one report.
package orchestrator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/elliotchance/orderedmap/v2"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/dbsmedya/assetprof/internal/analyzer"
	"github.com/dbsmedya/assetprof/internal/logger"
)

// Orchestrator fans analyzer tasks out to a worker pool.
type Orchestrator struct {
	workers int
	timeout time.Duration
	log     *logger.Logger
	metrics *Metrics
	now     func() time.Time

	tasks *orderedmap.OrderedMap[string, analyzer.Task]
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithWorkers bounds the number of analyzers running at once. Values below
// 1 mean runtime.NumCPU().
func WithWorkers(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.workers = n
		}
	}
}

// WithTimeout bounds the joined wait for all analyzers. Zero waits forever.
func WithTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		o.timeout = d
	}
}

// WithLogger sets the logger.
func WithLogger(log *logger.Logger) Option {
	return func(o *Orchestrator) {
		if log != nil {
			o.log = log
		}
	}
}

// WithMetrics records run metrics into m.
func WithMetrics(m *Metrics) Option {
	return func(o *Orchestrator) {
		o.metrics = m
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

// New creates an orchestrator with no analyzers registered.
func New(opts ...Option) *Orchestrator {
	o := &Orchestrator{
		workers: runtime.NumCPU(),
		log:     logger.NewNop(),
		now:     time.Now,
		tasks:   orderedmap.NewOrderedMap[string, analyzer.Task](),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Register adds a task. Tasks run and report in registration order.
func (o *Orchestrator) Register(task analyzer.Task) error {
	if task == nil {
		return fmt.Errorf("analyzer is nil")
	}
	name := task.Name()
	if name == "" {
		return fmt.Errorf("analyzer name is empty")
	}
	if _, exists := o.tasks.Get(name); exists {
		return fmt.Errorf("%w: %s", ErrDuplicateAnalyzer, name)
	}
	o.tasks.Set(name, task)
	return nil
}

// Names returns the registered analyzer names in registration order.
func (o *Orchestrator) Names() []string {
	names := make([]string, 0, o.tasks.Len())
	for el := o.tasks.Front(); el != nil; el = el.Next() {
		names = append(names, el.Key)
	}
	return names
}

// outcome is what one task left behind.
type outcome struct {
	result analyzer.Result
	err    error
}

// outcomeTable collects outcomes until the run closes it. Tasks that finish
// after close are discarded.
type outcomeTable struct {
	mu       sync.Mutex
	closed   bool
	outcomes map[string]outcome
}

func newOutcomeTable() *outcomeTable {
	return &outcomeTable{outcomes: make(map[string]outcome)}
}

func (t *outcomeTable) put(name string, out outcome) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return false
	}
	t.outcomes[name] = out
	return true
}

func (t *outcomeTable) close() map[string]outcome {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	return t.outcomes
}

// Run executes every registered analyzer against projectPath and blocks
// until all finish or the wait ends. It returns an error only for invalid
// input; analyzer failures are entries in the report.
//
// A task whose name matches a subdirectory of projectPath scans that
// subdirectory; otherwise it scans projectPath itself.
//
// On timeout or cancellation the unfinished tasks are recorded as abandoned.
// Their goroutines are not interrupted beyond seeing the cancelled context;
// whatever they return later is dropped.
func (o *Orchestrator) Run(ctx context.Context, projectPath string) (*Report, error) {
	if projectPath == "" {
		return nil, fmt.Errorf("project path is empty")
	}
	if o.tasks.Len() == 0 {
		return nil, ErrNoAnalyzers
	}

	runID := uuid.NewString()
	log := o.log.WithRun(runID)
	started := o.now()

	waitCtx := ctx
	if o.timeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	log.Infow("Starting analysis run",
		"project", projectPath,
		"analyzers", o.tasks.Len(),
		"workers", o.workers,
	)

	table := newOutcomeTable()
	done := make(chan struct{})
	go func() {
		defer close(done)
		var g errgroup.Group
		g.SetLimit(o.workers)
		for el := o.tasks.Front(); el != nil; el = el.Next() {
			task := el.Value
			g.Go(func() error {
				if waitCtx.Err() != nil {
					return nil
				}
				o.runTask(waitCtx, log, task, projectPath, table)
				return nil
			})
		}
		_ = g.Wait()
	}()

	select {
	case <-done:
	case <-waitCtx.Done():
		select {
		case <-done:
		default:
			log.Warnw("Analysis wait ended before all analyzers finished", "error", waitCtx.Err())
		}
	}
	outcomes := table.close()

	report := o.merge(outcomes, waitCtx.Err())
	report.Summary.RunID = runID
	report.Summary.ProjectPath = projectPath
	report.Summary.StartedAt = started
	report.Summary.DurationSeconds = o.now().Sub(started).Seconds()

	log.Infow("Analysis run finished",
		"succeeded", report.Summary.AnalyzersRun,
		"failed", report.Summary.AnalyzersFailed,
		"duration", report.Summary.DurationSeconds,
	)
	return report, nil
}

// merge builds the report in registration order. A task with no outcome was
// abandoned by the wait.
func (o *Orchestrator) merge(outcomes map[string]outcome, waitErr error) *Report {
	report := NewReport()
	for el := o.tasks.Front(); el != nil; el = el.Next() {
		name := el.Key
		out, ok := outcomes[name]
		switch {
		case !ok:
			err := ErrAbandoned
			if waitErr != nil {
				err = fmt.Errorf("%w: %w", ErrAbandoned, waitErr)
			}
			report.AddFailure(&AnalyzerFailure{Analyzer: name, Stage: StageWait, Err: err})
		case out.err != nil:
			report.AddFailure(asFailure(name, out.err))
		default:
			report.AddResult(name, out.result)
		}
	}
	return report
}

func asFailure(name string, err error) *AnalyzerFailure {
	if f, ok := err.(*AnalyzerFailure); ok {
		return f
	}
	return &AnalyzerFailure{Analyzer: name, Stage: StageAnalyze, Err: err}
}

func (o *Orchestrator) runTask(ctx context.Context, runLog *logger.Logger, task analyzer.Task, projectPath string, table *outcomeTable) {
	name := task.Name()
	log := runLog.WithAnalyzer(name)
	path := taskPath(projectPath, name)

	log.Debugw("Starting analyzer", "path", path)
	start := o.now()
	result, records, err := execute(ctx, task, path)
	elapsed := o.now().Sub(start)
	o.metrics.observe(name, err, elapsed, records)

	if err != nil {
		log.Errorw("Analyzer failed", "error", err, "duration", elapsed)
	} else {
		log.Infow("Analyzer finished", "records", records, "duration", elapsed)
	}

	if !table.put(name, outcome{result: result, err: err}) {
		log.Warnw("Discarding late analyzer outcome")
	}
}

// execute runs scan then analyze, converting errors and panics into
// *AnalyzerFailure.
func execute(ctx context.Context, task analyzer.Task, path string) (result analyzer.Result, records int, err error) {
	name := task.Name()
	stage := StageScan
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = &AnalyzerFailure{Analyzer: name, Stage: stage, Err: &PanicError{Value: r}}
		}
	}()

	recs, err := task.Scan(ctx, path)
	if err != nil {
		return nil, 0, &AnalyzerFailure{Analyzer: name, Stage: StageScan, Err: err}
	}
	records = len(recs)

	stage = StageAnalyze
	result, err = task.Analyze(ctx, recs)
	if err != nil {
		return nil, records, &AnalyzerFailure{Analyzer: name, Stage: StageAnalyze, Err: err}
	}
	if result == nil {
		return nil, records, &AnalyzerFailure{Analyzer: name, Stage: StageAnalyze, Err: ErrNoResult}
	}
	return result, records, nil
}

// taskPath prefers projectPath/name when that directory exists.
func taskPath(projectPath, name string) string {
	sub := filepath.Join(projectPath, name)
	if info, err := os.Stat(sub); err == nil && info.IsDir() {
		return sub
	}
	return projectPath
}
