package scan

import (
	"context"
	"time"
)

// Prober performs one existence check and classifies the answer. It must be
// safe for concurrent use by the worker pool.
type Prober interface {
	Check(ctx context.Context, url string) Outcome
}

// Guard tracks the wall-clock budget and owns checkpoint persistence.
type Guard interface {
	// NearLimit reports whether the remaining budget is under the safety
	// margin. A disabled budget never trips.
	NearLimit() bool
	// Remaining returns the budget left; zero when the budget is disabled.
	Remaining() time.Duration
	// SaveProgress records the date to resume from on the next run.
	SaveProgress(date time.Time) error
	// ResumeDate returns the checkpointed date from a previous run, if any.
	ResumeDate() (time.Time, bool)
}

// Sink persists the accumulated valid links. Write replaces any prior
// content; identical input must produce identical bytes.
type Sink interface {
	Write(urls []string) error
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}
