package scan

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/WakiJi/wmscan/internal/progress"
)

// Pool probes one date's worth of targets with bounded concurrency. Pools are
// cheap to build; the runner constructs a fresh one per batch.
type Pool struct {
	workers int
	prober  Prober
	state   *RunState
	emitter progress.Emitter
	clock   Clock
	logger  *zap.Logger
}

// NewPool builds a pool of the given width. A nil emitter disables progress
// events for the batch.
func NewPool(workers int, prober Prober, state *RunState, emitter progress.Emitter, clock Clock, logger *zap.Logger) *Pool {
	if workers <= 0 {
		workers = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pool{
		workers: workers,
		prober:  prober,
		state:   state,
		emitter: emitter,
		clock:   clock,
		logger:  logger,
	}
}

// Run probes every target and returns exactly one result per submitted
// target, in completion order. When the run state's stop flag trips, the
// remaining unsubmitted targets are dropped and in-flight ones come back
// skipped.
func (p *Pool) Run(ctx context.Context, endpoint Endpoint, date string, targets []Target) []Result {
	jobs := make(chan Target)
	results := make(chan Result, len(targets))

	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for tgt := range jobs {
				results <- p.probe(ctx, endpoint, date, tgt)
			}
		}()
	}

	submitted := 0
	for _, tgt := range targets {
		if p.state.Stopped() {
			break
		}
		jobs <- tgt
		submitted++
	}
	close(jobs)
	wg.Wait()

	out := make([]Result, 0, submitted)
	for i := 0; i < submitted; i++ {
		out = append(out, <-results)
	}
	return out
}

func (p *Pool) probe(ctx context.Context, endpoint Endpoint, date string, tgt Target) Result {
	if p.state.Stopped() {
		return Result{Target: tgt, Outcome: Skipped()}
	}

	url := endpoint.URL(tgt)
	start := p.clock.Now()
	outcome := p.prober.Check(ctx, url)
	dur := p.clock.Now().Sub(start)

	if outcome.Kind != OutcomeSkipped {
		p.state.MarkProbe()
	}
	p.emit(date, url, outcome, dur)
	return Result{Target: tgt, Outcome: outcome}
}

func (p *Pool) emit(date, url string, outcome Outcome, dur time.Duration) {
	if p.emitter == nil || outcome.Kind == OutcomeSkipped {
		return
	}
	evt := progress.Event{
		RunID:       progress.UUIDToBytes(p.state.ID()),
		TS:          p.clock.Now(),
		Stage:       progress.StageProbeDone,
		Date:        date,
		URL:         url,
		StatusCode:  outcome.StatusCode,
		StatusClass: classifyOutcome(outcome),
		Valid:       outcome.Valid(),
		Dur:         dur,
	}
	if outcome.Err != nil {
		evt.Note = outcome.Err.Error()
	}
	p.emitter.Emit(evt)
}

func classifyOutcome(outcome Outcome) progress.StatusClass {
	if outcome.Kind == OutcomeNetworkFailure {
		return progress.StatusOther
	}
	return progress.ClassifyStatus(outcome.StatusCode)
}
