package audit

import (
	"context"
	"fmt"
	"os"
	"sync"
)

// FileRecorder appends decision records to a file as newline-delimited
// JSON. Suited to shipping into an external log pipeline.
type FileRecorder struct {
	mu   sync.Mutex
	file *os.File
}

// NewFileRecorder opens (or creates) the NDJSON file in append mode.
func NewFileRecorder(path string) (*FileRecorder, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("failed to open decision log: %w", err)
	}
	return &FileRecorder{file: f}, nil
}

// Record appends one JSON line per decision.
func (r *FileRecorder) Record(ctx context.Context, d *PolicyDecision) error {
	data, err := d.ToJSON()
	if err != nil {
		return fmt.Errorf("failed to serialize decision: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, err := r.file.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write decision: %w", err)
	}
	return nil
}

// Close syncs and closes the file.
func (r *FileRecorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.file.Sync(); err != nil {
		r.file.Close()
		return err
	}
	return r.file.Close()
}
