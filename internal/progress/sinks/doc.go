// Package sinks implements concrete progress consumers: Prometheus metrics,
// structured logging, and the colored console renderer. Each sink satisfies
// the progress.Sink interface and is safe for repeated Consume/Close cycles.
package sinks
