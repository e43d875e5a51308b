// Package probe implements the HEAD existence check client: a shared pooled
// transport, a jittered retry policy for transient failures, per-probe
// pacing, and an optional process-wide request rate ceiling.
package probe
