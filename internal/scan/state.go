package scan

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// RunState carries the mutable state shared by one probe run: the monotonic
// stop flag, the append-only valid-link list, and the progress counters the
// status endpoint reads. A process hosts at most one active run.
type RunState struct {
	id      uuid.UUID
	started time.Time

	stopped atomic.Bool
	probes  atomic.Int64
	dates   atomic.Int64

	mu      sync.Mutex
	valid   []string
	current string
}

// NewRunState initializes run state for a run starting now.
func NewRunState(id uuid.UUID, started time.Time) *RunState {
	return &RunState{id: id, started: started}
}

// ID returns the run identifier.
func (s *RunState) ID() uuid.UUID { return s.id }

// StartedAt returns the instant the run began.
func (s *RunState) StartedAt() time.Time { return s.started }

// Stop raises the stop flag. The flag is monotonic: once set it is never
// cleared for the remainder of the run.
func (s *RunState) Stop() { s.stopped.Store(true) }

// Stopped reports whether the stop flag has been raised.
func (s *RunState) Stopped() bool { return s.stopped.Load() }

// AddValid appends a discovered link.
func (s *RunState) AddValid(url string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.valid = append(s.valid, url)
}

// ValidLinks returns a copy of the discovered links in discovery order.
func (s *RunState) ValidLinks() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.valid))
	copy(out, s.valid)
	return out
}

// Hits counts the discovered links so far.
func (s *RunState) Hits() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.valid))
}

// MarkProbe counts one completed probe.
func (s *RunState) MarkProbe() { s.probes.Add(1) }

// Probes counts the probes completed so far.
func (s *RunState) Probes() int64 { return s.probes.Load() }

// MarkDateDone counts one fully processed date.
func (s *RunState) MarkDateDone() { s.dates.Add(1) }

// DatesDone counts the fully processed dates.
func (s *RunState) DatesDone() int64 { return s.dates.Load() }

// SetCurrentDate records the date batch in flight.
func (s *RunState) SetCurrentDate(date string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = date
}

// CurrentDate returns the date batch in flight, if any.
func (s *RunState) CurrentDate() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Snapshot is a point-in-time view of a run for status reporting.
type Snapshot struct {
	RunID            string    `json:"run_id"`
	State            string    `json:"state"`
	StartedAt        time.Time `json:"started_at"`
	CurrentDate      string    `json:"current_date,omitempty"`
	DatesDone        int64     `json:"dates_done"`
	Probes           int64     `json:"probes"`
	Hits             int64     `json:"hits"`
	RemainingSeconds float64   `json:"remaining_seconds"`
}
