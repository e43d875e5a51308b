// Package scan implements the probe scheduling core: the date/time grid
// generator, the shared run state, the bounded per-date worker pool, and the
// runner that drives batches under budget and cancellation control.
package scan
