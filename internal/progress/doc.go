// Package progress provides the event primitives, non-blocking hub, and
// emitter interfaces that probe workers use to report scan progress. It
// batches events on a background goroutine and fans them out to pluggable
// sinks such as Prometheus metrics, structured logs, or the console.
package progress
