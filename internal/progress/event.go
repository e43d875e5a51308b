package progress

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Stage denotes the type of milestone represented by an Event.
type Stage string

// Supported progress stages.
const (
	StageRunStart   Stage = "RUN_START"
	StageRunDone    Stage = "RUN_DONE"
	StageDateStart  Stage = "DATE_START"
	StageDateDone   Stage = "DATE_DONE"
	StageProbeDone  Stage = "PROBE_DONE"
	StageCheckpoint Stage = "CHECKPOINT"
)

// StatusClass is a coarse HTTP response grouping.
type StatusClass string

// Supported HTTP status classes tracked for probe completions. Probes that
// fail without a status code fall into StatusOther.
const (
	Status2xx   StatusClass = "2xx"
	Status3xx   StatusClass = "3xx"
	Status4xx   StatusClass = "4xx"
	Status5xx   StatusClass = "5xx"
	StatusOther StatusClass = "other"
)

// Event captures a single milestone of scan progress.
type Event struct {
	// RunID identifies the run using the 16-byte UUID form.
	RunID [16]byte
	// TS is the UTC timestamp recorded by the emitter.
	TS time.Time
	// Stage denotes which lifecycle or probe milestone occurred.
	Stage Stage
	// Date scopes date and probe events to a YYYYMMDD batch.
	Date string
	// URL is the probed URL for probe events.
	URL string
	// StatusCode is the final HTTP status, zero when none was received.
	StatusCode int
	// StatusClass groups the final answer (2xx, 5xx, other, ...).
	StatusClass StatusClass
	// Valid marks probe events that discovered a link.
	Valid bool
	// Dur captures probe latency or, on RUN_DONE, total run time.
	Dur time.Duration
	// Probes carries batch or run probe totals on DATE_DONE and RUN_DONE.
	Probes int64
	// Hits carries batch or run hit totals on DATE_DONE and RUN_DONE.
	Hits int64
	// Remaining is the wall-clock budget left at emit time, when tracked.
	Remaining time.Duration
	// Note lets emitters attach low-volume context (e.g. error text).
	Note string
}

// Validate performs coarse validation on Event payloads.
func (e Event) Validate() error {
	if e.RunID == [16]byte{} {
		return errors.New("run id is required")
	}
	if e.TS.IsZero() {
		return errors.New("timestamp is required")
	}
	switch e.Stage {
	case StageRunStart, StageRunDone:
	case StageDateStart, StageDateDone, StageCheckpoint:
		if e.Date == "" {
			return fmt.Errorf("%s requires date", e.Stage)
		}
	case StageProbeDone:
		if e.URL == "" {
			return errors.New("probe done requires url")
		}
		if e.StatusClass == "" {
			return errors.New("probe done requires status class")
		}
	default:
		return fmt.Errorf("unknown stage %q", e.Stage)
	}
	if e.Dur < 0 {
		return errors.New("duration must be >= 0")
	}
	return nil
}

// RunUUID converts the binary run ID to uuid.UUID for display.
func (e Event) RunUUID() uuid.UUID {
	return uuid.UUID(e.RunID)
}

// UUIDToBytes encodes a uuid.UUID into the Event form.
func UUIDToBytes(id uuid.UUID) [16]byte {
	var dest [16]byte
	copy(dest[:], id[:])
	return dest
}

// ClassifyStatus groups HTTP status codes for probe events. Zero (no response)
// maps to StatusOther.
func ClassifyStatus(code int) StatusClass {
	switch {
	case code >= 200 && code < 300:
		return Status2xx
	case code >= 300 && code < 400:
		return Status3xx
	case code >= 400 && code < 500:
		return Status4xx
	case code >= 500 && code < 600:
		return Status5xx
	default:
		return StatusOther
	}
}
