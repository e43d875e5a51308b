// Package budget tracks the wall-clock ceiling of a run and drives checkpoint
// persistence when the ceiling approaches.
package budget

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

// SafetyMargin is how much budget must remain before the guard trips. It
// leaves room to drain in-flight probes and persist state.
const SafetyMargin = 5 * time.Minute

// Store persists the resume date between runs.
type Store interface {
	Load() (time.Time, bool, error)
	Save(date time.Time) error
}

// Clock returns the current time.
type Clock interface {
	Now() time.Time
}

// Guard tracks elapsed wall-clock time against a fixed budget. A non-positive
// budget disables the ceiling entirely; NearLimit never trips and the run
// continues until the grid is exhausted or an interrupt arrives.
type Guard struct {
	max       time.Duration
	clock     Clock
	start     time.Time
	store     Store
	resume    time.Time
	hasResume bool
	logger    *zap.Logger
}

// New builds a Guard, loading any prior checkpoint from store. A corrupt
// checkpoint aborts construction; the caller must treat it as fatal.
func New(maxRuntime time.Duration, store Store, clock Clock, logger *zap.Logger) (*Guard, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	g := &Guard{
		max:    maxRuntime,
		clock:  clock,
		start:  clock.Now(),
		store:  store,
		logger: logger,
	}
	if store != nil {
		date, ok, err := store.Load()
		if err != nil {
			return nil, fmt.Errorf("load checkpoint: %w", err)
		}
		if ok {
			g.resume = date
			g.hasResume = true
			logger.Info("checkpoint loaded", zap.String("resume_date", date.Format("20060102")))
		}
	}
	return g, nil
}

// Enabled reports whether a wall-clock ceiling is in force.
func (g *Guard) Enabled() bool {
	return g.max > 0
}

// Remaining returns the budget left. It is zero when the ceiling is disabled
// and may go negative once the budget is overrun.
func (g *Guard) Remaining() time.Duration {
	if !g.Enabled() {
		return 0
	}
	return g.max - g.clock.Now().Sub(g.start)
}

// NearLimit reports whether the remaining budget is under the safety margin.
func (g *Guard) NearLimit() bool {
	if !g.Enabled() {
		return false
	}
	return g.Remaining() < SafetyMargin
}

// SaveProgress records the date to resume from on the next run.
func (g *Guard) SaveProgress(date time.Time) error {
	if g.store == nil {
		return nil
	}
	if err := g.store.Save(date); err != nil {
		return fmt.Errorf("save checkpoint: %w", err)
	}
	g.logger.Info("checkpoint saved", zap.String("resume_date", date.Format("20060102")))
	return nil
}

// ResumeDate returns the checkpointed date from a previous run, if any.
func (g *Guard) ResumeDate() (time.Time, bool) {
	return g.resume, g.hasResume
}
