// Package api hosts the optional HTTP server for operator access to a
// running scan. Notable routes:
//   - GET /healthz for liveness probes.
//   - GET /status for a JSON snapshot of run progress.
//   - GET /metrics for Prometheus scraping.
package api
