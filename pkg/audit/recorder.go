// Package audit persists policy decision records: one append-only row per
// enforcement call, used for tenant-isolation review and incident
// forensics. Recording is best effort; a failed write is logged and never
// blocks or fails the request that produced the decision.
package audit

import (
	"context"
)

// Recorder is the sink for policy decision records.
type Recorder interface {
	// Record appends a decision record.
	Record(ctx context.Context, decision *PolicyDecision) error

	// Close flushes and releases the recorder.
	Close() error
}

// NopRecorder discards all records. Used when decision auditing is off.
type NopRecorder struct{}

// Record discards the decision.
func (NopRecorder) Record(ctx context.Context, decision *PolicyDecision) error { return nil }

// Close is a no-op.
func (NopRecorder) Close() error { return nil }

// MultiRecorder fans records out to several sinks. The first error is
// returned after every sink has been attempted.
type MultiRecorder struct {
	recorders []Recorder
}

// NewMultiRecorder creates a fan-out recorder.
func NewMultiRecorder(recorders ...Recorder) *MultiRecorder {
	return &MultiRecorder{recorders: recorders}
}

// Record appends the decision to every sink.
func (m *MultiRecorder) Record(ctx context.Context, decision *PolicyDecision) error {
	var firstErr error
	for _, r := range m.recorders {
		if err := r.Record(ctx, decision); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Close closes every sink.
func (m *MultiRecorder) Close() error {
	var firstErr error
	for _, r := range m.recorders {
		if err := r.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
