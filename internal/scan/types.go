package scan

// Target identifies one candidate recording instant. Immutable once generated.
type Target struct {
	// FileHead is the date-scoped identity prefix, "{base}_{YYYYMMDD}".
	FileHead string
	// TimeCode is the zero-padded HHMMSS second-of-day.
	TimeCode string
}

// Endpoint holds the host and path prefix under which targets are probed.
// Both are resolved once from configuration and constant across a run.
type Endpoint struct {
	Domain string
	Path   string
}

// URL builds the full probe URL for a target.
func (e Endpoint) URL(t Target) string {
	return "https://" + e.Domain + e.Path + t.FileHead + t.TimeCode + "_0.opt"
}

// OutcomeKind classifies the terminal state of one probe.
type OutcomeKind string

// Supported probe outcome kinds.
const (
	OutcomeSuccess        OutcomeKind = "success"
	OutcomeHTTPFailure    OutcomeKind = "http_failure"
	OutcomeNetworkFailure OutcomeKind = "network_failure"
	OutcomeSkipped        OutcomeKind = "skipped"
)

// Outcome is the result of probing a single target. Exactly one is produced
// per submitted target; probe failures are ordinary negative outcomes, never
// errors that cross the worker boundary.
type Outcome struct {
	Kind OutcomeKind
	// URL is set for successful probes; it is the link recorded in the sink.
	URL string
	// StatusCode carries the HTTP status for success and http_failure kinds.
	StatusCode int
	// Err carries the transport error for network_failure kinds.
	Err error
}

// Success marks a target that resolved.
func Success(url string, status int) Outcome {
	return Outcome{Kind: OutcomeSuccess, URL: url, StatusCode: status}
}

// HTTPFailure marks a definitive negative HTTP answer.
func HTTPFailure(status int) Outcome {
	return Outcome{Kind: OutcomeHTTPFailure, StatusCode: status}
}

// NetworkFailure marks a probe that exhausted retries on transport errors.
func NetworkFailure(err error) Outcome {
	return Outcome{Kind: OutcomeNetworkFailure, Err: err}
}

// Skipped marks a target dropped by cancellation before or during its probe.
func Skipped() Outcome {
	return Outcome{Kind: OutcomeSkipped}
}

// Valid reports whether the outcome represents a discovered link.
func (o Outcome) Valid() bool {
	return o.Kind == OutcomeSuccess
}

// Result pairs a target with its outcome.
type Result struct {
	Target  Target
	Outcome Outcome
}
