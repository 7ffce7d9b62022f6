// Package observability provides structured logging and Prometheus metrics
// for the authorization core. The logger is a thin slog wrapper that plumbs
// request and principal ids through context; the metrics cover decision
// outcomes, resolution paths, tuple store operations, and audit writes.
package observability
