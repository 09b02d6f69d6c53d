// Package engine drives performance test runs. The orchestrator compiles the
// load profile into a plan, steers a concurrency gate from a control loop,
// dispatches scenario iterations through the gate and evaluates thresholds
// over the collected metrics.
package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/firedrill-labs/firedrill/internal/config"
	"github.com/firedrill-labs/firedrill/internal/executor"
	"github.com/firedrill-labs/firedrill/internal/gate"
	"github.com/firedrill-labs/firedrill/internal/metrics"
	"github.com/firedrill-labs/firedrill/internal/profile"
	"github.com/firedrill-labs/firedrill/internal/scenario"
	"github.com/firedrill-labs/firedrill/internal/threshold"
)

// controlTick is how often the control loop re-reads the plan and adjusts
// the gate.
const controlTick = 10 * time.Millisecond

// StatusPassed and StatusFailed are the two terminal run states.
const (
	StatusPassed = "passed"
	StatusFailed = "failed"
)

// Outcome is the result of one completed run.
type Outcome struct {
	ID               string             `json:"id"`
	Name             string             `json:"name"`
	Description      string             `json:"description,omitempty"`
	Environment      string             `json:"environment,omitempty"`
	Status           string             `json:"status"`
	StartedAt        time.Time          `json:"started_at"`
	Duration         time.Duration      `json:"-"`
	DurationSecs     float64            `json:"duration_secs"`
	Summary          metrics.Summary    `json:"metrics"`
	ThresholdResults []threshold.Result `json:"threshold_results,omitempty"`
}

// Passed reports whether the run met its success threshold.
func (o Outcome) Passed() bool {
	return o.Status == StatusPassed
}

// Logger receives progress and warning output.
type Logger interface {
	Info(format string, args ...any)
	Warn(format string, args ...any)
}

// SnapshotListener receives periodic live metric snapshots while a run is
// in flight.
type SnapshotListener interface {
	OnSnapshot(metrics.LiveSnapshot)
}

// Orchestrator runs one performance test configuration.
type Orchestrator struct {
	cfg       *config.PerfConfig
	exec      *executor.Executor
	logger    Logger
	collector *metrics.Collector
	listeners []SnapshotListener
}

// New creates an orchestrator for cfg. exec performs the HTTP work.
func New(cfg *config.PerfConfig, exec *executor.Executor, logger Logger) *Orchestrator {
	return &Orchestrator{
		cfg:       cfg,
		exec:      exec,
		logger:    logger,
		collector: metrics.NewCollector(),
	}
}

// Collector exposes the run's metrics collector so live consumers such as
// the dashboard can read snapshots while the run is in flight.
func (o *Orchestrator) Collector() *metrics.Collector {
	return o.collector
}

// AddListener registers a live-snapshot consumer. Must be called before Run.
func (o *Orchestrator) AddListener(l SnapshotListener) {
	if l != nil {
		o.listeners = append(o.listeners, l)
	}
}

// Run executes the configured load profile to completion and returns the
// outcome. It returns an error only for configuration problems; a run that
// finishes below its success threshold returns a failed Outcome and nil
// error.
func (o *Orchestrator) Run(ctx context.Context) (*Outcome, error) {
	if err := o.cfg.Validate(); err != nil {
		return nil, err
	}
	plan, err := profile.Compile(o.cfg.LoadProfile)
	if err != nil {
		return nil, fmt.Errorf("compile load profile: %w", err)
	}
	selector, err := scenario.NewSelector(o.cfg.Scenarios)
	if err != nil {
		return nil, err
	}

	collector := o.collector
	collector.Start()

	initial, _ := plan.TargetAt(0)
	g := gate.New(initial)

	// The control context stops dispatch and streaming when the plan runs
	// out. In-flight iterations keep the caller's context so they drain to
	// their own completion or timeout instead of being pre-empted.
	ctrlCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	if len(o.listeners) > 0 {
		go o.streamSnapshots(ctrlCtx, collector)
	}

	start := time.Now()
	o.logf("starting run %q: %s profile, %d stage(s), up to %d workers",
		o.cfg.Name, o.cfg.LoadProfile.Type, len(o.cfg.LoadProfile.Stages), plan.MaxLevel())

	var wg sync.WaitGroup
	o.dispatch(ctrlCtx, ctx, plan, selector, collector, g, &wg, start)

	cancel()
	wg.Wait()

	summary := collector.Summary()
	results := threshold.NewEvaluator(o.cfg.Thresholds, warnLogger{o.logger}).Evaluate(summary)

	outcome := &Outcome{
		ID:               ulid.Make().String(),
		Name:             o.cfg.Name,
		Description:      o.cfg.Description,
		Environment:      o.cfg.Environment,
		StartedAt:        start,
		Duration:         time.Since(start),
		Summary:          summary,
		ThresholdResults: results,
	}
	outcome.DurationSecs = outcome.Duration.Seconds()
	outcome.Status = o.decideStatus(summary)

	o.logf("run %s finished: %s (%d requests, %.1f%% success)",
		outcome.ID, outcome.Status, summary.TotalRequests, summary.SuccessRate)

	return outcome, nil
}

// dispatch runs the control loop until the plan is exhausted or ctx is
// cancelled. Every acquired permit becomes one iteration goroutine.
func (o *Orchestrator) dispatch(ctrlCtx, iterCtx context.Context, plan *profile.Plan, selector *scenario.Selector,
	collector *metrics.Collector, g *gate.Gate, wg *sync.WaitGroup, start time.Time) {

	ticker := time.NewTicker(controlTick)
	defer ticker.Stop()

	for {
		select {
		case <-ctrlCtx.Done():
			return
		case <-ticker.C:
		}

		target, ok := plan.TargetAt(time.Since(start))
		if !ok {
			return
		}
		if target > g.Capacity() {
			g.Grow(target - g.Capacity())
		}

		// Fill idle capacity. TryAcquire keeps the loop from blocking
		// past the tick; reductions in target take effect as permits
		// held above the new level drain without replacement.
		for g.InUse() < target && g.TryAcquire() {
			wg.Add(1)
			go func() {
				defer wg.Done()
				defer g.Release()
				o.iterate(iterCtx, selector, collector)
			}()
		}
	}
}

func (o *Orchestrator) iterate(ctx context.Context, selector *scenario.Selector, collector *metrics.Collector) {
	sc := selector.Pick()
	reqCtx, cancel := context.WithTimeout(ctx, o.cfg.Timeout())
	defer cancel()
	sample := o.exec.Execute(reqCtx, sc)
	collector.Add(sample)
}

func (o *Orchestrator) streamSnapshots(ctx context.Context, collector *metrics.Collector) {
	ticker := time.NewTicker(o.cfg.MetricsInterval())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			snap := collector.Live()
			for _, l := range o.listeners {
				l.OnSnapshot(snap)
			}
		}
	}
}

// decideStatus applies the pass criterion: overall success rate must meet
// the configured success threshold. Threshold results are recorded on the
// outcome but do not change the status; callers that honor abort_on_fail
// decide for themselves.
func (o *Orchestrator) decideStatus(summary metrics.Summary) string {
	if summary.SuccessRate < o.cfg.SuccessThreshold {
		return StatusFailed
	}
	return StatusPassed
}

func (o *Orchestrator) logf(format string, args ...any) {
	if o.logger != nil {
		o.logger.Info(format, args...)
	}
}

// warnLogger adapts the engine logger to the threshold evaluator's
// interface.
type warnLogger struct {
	l Logger
}

func (w warnLogger) Warn(format string, args ...any) {
	if w.l != nil {
		w.l.Warn(format, args...)
	}
}
