package scan

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/WakiJi/wmscan/internal/progress"
)

// RunnerConfig carries the knobs the runner needs beyond its collaborators.
type RunnerConfig struct {
	Endpoint Endpoint
	Workers  int
}

// Runner drives a scan end to end: one pool batch per date, budget and stop
// checks between batches, a checkpoint whenever the run is cut short, and a
// single result write no matter how the run ends.
type Runner struct {
	cfg     RunnerConfig
	gen     *Generator
	prober  Prober
	guard   Guard
	sink    Sink
	state   *RunState
	emitter progress.Emitter
	clock   Clock
	logger  *zap.Logger

	writeOnce sync.Once
	writeErr  error
}

// NewRunner wires a runner. The emitter may be nil; everything else is
// required.
func NewRunner(cfg RunnerConfig, gen *Generator, prober Prober, guard Guard, sink Sink, state *RunState, emitter progress.Emitter, clock Clock, logger *zap.Logger) *Runner {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		cfg:     cfg,
		gen:     gen,
		prober:  prober,
		guard:   guard,
		sink:    sink,
		state:   state,
		emitter: emitter,
		clock:   clock,
		logger:  logger,
	}
}

// Report summarizes a finished run. Partial means the run stopped before the
// last date and saved a checkpoint for the next invocation.
type Report struct {
	Partial   bool
	Probes    int64
	Hits      int64
	DatesDone int64
	Elapsed   time.Duration
}

// Run executes the scan. Probe failures are never fatal; the returned error
// covers checkpoint and result-file writes only. The result file is written
// exactly once on every exit path, including error paths.
func (r *Runner) Run(ctx context.Context) (Report, error) {
	defer func() { _ = r.finalize() }()

	watchDone := make(chan struct{})
	defer close(watchDone)
	go func() {
		select {
		case <-ctx.Done():
			r.state.Stop()
		case <-watchDone:
		}
	}()

	start := r.clock.Now()
	dates := r.resumedDates()
	planned := int64(len(dates) * r.gen.TargetsPerDate())

	r.emit(progress.Event{Stage: progress.StageRunStart, Probes: planned})
	r.logger.Info("scan starting",
		zap.Int("dates", len(dates)),
		zap.Int64("targets", planned),
		zap.Int("workers", r.cfg.Workers))

	partial, runErr := r.processDates(ctx, dates)

	report := Report{
		Partial:   partial,
		Probes:    r.state.Probes(),
		Hits:      r.state.Hits(),
		DatesDone: r.state.DatesDone(),
		Elapsed:   r.clock.Now().Sub(start),
	}
	done := progress.Event{
		Stage:  progress.StageRunDone,
		Dur:    report.Elapsed,
		Probes: report.Probes,
		Hits:   report.Hits,
	}
	if partial {
		done.Note = "stopped early; progress saved for the next run"
	}
	r.emit(done)

	if runErr != nil {
		return report, runErr
	}
	return report, r.finalize()
}

// Snapshot reports the run's current position for the status API.
func (r *Runner) Snapshot() Snapshot {
	snap := Snapshot{
		RunID:            r.state.ID().String(),
		State:            "running",
		StartedAt:        r.state.StartedAt(),
		CurrentDate:      r.state.CurrentDate(),
		DatesDone:        r.state.DatesDone(),
		Probes:           r.state.Probes(),
		Hits:             r.state.Hits(),
		RemainingSeconds: r.guard.Remaining().Seconds(),
	}
	if r.state.Stopped() {
		snap.State = "stopped"
	}
	return snap
}

// resumedDates returns the grid dates still to be processed, honoring a
// checkpoint from an earlier run. A checkpoint before the grid start is a
// no-op; one past the grid end leaves nothing to do.
func (r *Runner) resumedDates() []time.Time {
	resume, ok := r.guard.ResumeDate()
	if !ok {
		return r.gen.Dates()
	}
	r.logger.Info("resuming from checkpoint", zap.String("date", FormatDate(resume)))
	return r.gen.DatesFrom(resume)
}

func (r *Runner) processDates(ctx context.Context, dates []time.Time) (bool, error) {
	for _, date := range dates {
		if r.guard.NearLimit() {
			r.logger.Warn("time budget nearly spent, stopping",
				zap.Duration("remaining", r.guard.Remaining()))
			return true, r.checkpoint(date)
		}
		if r.state.Stopped() {
			return true, r.checkpoint(date)
		}
		if cut := r.processDate(ctx, date); cut {
			return true, r.checkpoint(date)
		}
	}
	return false, nil
}

// processDate runs one pool batch. It reports true when the stop flag cut the
// batch short, in which case the date does not count as done.
func (r *Runner) processDate(ctx context.Context, date time.Time) bool {
	dateKey := FormatDate(date)
	r.state.SetCurrentDate(dateKey)

	targets := r.gen.TargetsFor(date)
	r.emit(progress.Event{Stage: progress.StageDateStart, Date: dateKey, Probes: int64(len(targets))})

	pool := NewPool(r.cfg.Workers, r.prober, r.state, r.emitter, r.clock, r.logger)
	results := pool.Run(ctx, r.cfg.Endpoint, dateKey, targets)

	var probes, hits int64
	for _, res := range results {
		if res.Outcome.Kind == OutcomeSkipped {
			continue
		}
		probes++
		if res.Outcome.Valid() {
			hits++
			r.state.AddValid(res.Outcome.URL)
		}
	}

	if r.state.Stopped() {
		return true
	}

	r.state.MarkDateDone()
	r.emit(progress.Event{Stage: progress.StageDateDone, Date: dateKey, Probes: probes, Hits: hits})
	r.logger.Info("date complete",
		zap.String("date", dateKey),
		zap.Int64("probes", probes),
		zap.Int64("hits", hits))
	return false
}

// checkpoint records date as the first unprocessed date so the next run picks
// up there. A failed save is fatal.
func (r *Runner) checkpoint(date time.Time) error {
	if err := r.guard.SaveProgress(date); err != nil {
		return fmt.Errorf("saving checkpoint for %s: %w", FormatDate(date), err)
	}
	r.emit(progress.Event{Stage: progress.StageCheckpoint, Date: FormatDate(date)})
	return nil
}

// finalize writes the collected links exactly once per run.
func (r *Runner) finalize() error {
	r.writeOnce.Do(func() {
		r.writeErr = r.sink.Write(r.state.ValidLinks())
		if r.writeErr != nil {
			r.logger.Error("result write failed", zap.Error(r.writeErr))
		}
	})
	return r.writeErr
}

// emit stamps the shared fields and forwards to the hub. Lifecycle events all
// carry the remaining budget so sinks can surface it.
func (r *Runner) emit(evt progress.Event) {
	if r.emitter == nil {
		return
	}
	evt.RunID = progress.UUIDToBytes(r.state.ID())
	evt.TS = r.clock.Now()
	evt.Remaining = r.guard.Remaining()
	r.emitter.Emit(evt)
}
