// Package relations persists and evaluates relationship tuples: facts of
// the form "subject S holds relation R on object O within firm F". Every
// operation takes a firm id and is firm-scoped structurally; there is no
// cross-firm operation on this surface.
package relations

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/caseward/caseward/pkg/observability"
)

// ErrStoreUnavailable wraps transient tuple-store failures.
var ErrStoreUnavailable = errors.New("relations: store unavailable")

// Store is the persistence surface for relation tuples.
type Store interface {
	// Grant records a tuple. Granting an identical tuple twice is
	// idempotent and leaves the visible relation set unchanged.
	Grant(ctx context.Context, firmID string, ns Namespace, objectID, relation string, subject Subject, metadata map[string]string) error

	// Revoke removes a tuple. Revoking an absent tuple is a no-op.
	Revoke(ctx context.Context, firmID string, ns Namespace, objectID, relation string, subject Subject) error

	// RevokeAllForObject removes every tuple on an object. Called by
	// resource-deletion hooks.
	RevokeAllForObject(ctx context.Context, firmID string, ns Namespace, objectID string) error

	// Expand lists the subjects holding a relation on an object.
	Expand(ctx context.Context, firmID string, ns Namespace, objectID, relation string) ([]Subject, error)

	// Check reports whether the subject holds the relation on the object.
	Check(ctx context.Context, firmID string, ns Namespace, objectID, relation string, subject Subject) (bool, error)
}

// SQLStore implements Store over a SQL database.
type SQLStore struct {
	db      *sql.DB
	metrics *observability.Metrics
}

// StoreOption configures a SQLStore.
type StoreOption func(*SQLStore)

// WithStoreMetrics attaches tuple operation instrumentation.
func WithStoreMetrics(m *observability.Metrics) StoreOption {
	return func(s *SQLStore) { s.metrics = m }
}

// NewSQLStore creates a tuple store over the given database handle.
func NewSQLStore(db *sql.DB, opts ...StoreOption) *SQLStore {
	s := &SQLStore{db: db}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// observe counts the operation and, when err is non-nil, the failure, then
// wraps the error for callers.
func (s *SQLStore) observe(op string, err error) error {
	if s.metrics != nil {
		s.metrics.TupleOperationsTotal.WithLabelValues(op).Inc()
		if err != nil {
			s.metrics.TupleErrorsTotal.WithLabelValues(op).Inc()
		}
	}
	if err != nil {
		return wrapStoreErr(err, op)
	}
	return nil
}

// Grant records a tuple, idempotently.
func (s *SQLStore) Grant(ctx context.Context, firmID string, ns Namespace, objectID, relation string, subject Subject, metadata map[string]string) error {
	var metaJSON interface{}
	if len(metadata) > 0 {
		raw, err := json.Marshal(metadata)
		if err != nil {
			return fmt.Errorf("relations: marshal metadata: %w", err)
		}
		metaJSON = string(raw)
	}

	query := `
		INSERT INTO relation_tuples (firm_id, namespace, object_id, relation, subject_namespace, subject_id, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, CURRENT_TIMESTAMP)
		ON CONFLICT (firm_id, namespace, object_id, relation, subject_namespace, subject_id) DO NOTHING
	`
	_, err := s.db.ExecContext(ctx, query, firmID, string(ns), objectID, relation, subject.Namespace, subject.ID, metaJSON)
	return s.observe("grant", err)
}

// Revoke removes a tuple.
func (s *SQLStore) Revoke(ctx context.Context, firmID string, ns Namespace, objectID, relation string, subject Subject) error {
	query := `
		DELETE FROM relation_tuples
		WHERE firm_id = $1 AND namespace = $2 AND object_id = $3 AND relation = $4
		  AND subject_namespace = $5 AND subject_id = $6
	`
	_, err := s.db.ExecContext(ctx, query, firmID, string(ns), objectID, relation, subject.Namespace, subject.ID)
	return s.observe("revoke", err)
}

// RevokeAllForObject removes every tuple on an object.
func (s *SQLStore) RevokeAllForObject(ctx context.Context, firmID string, ns Namespace, objectID string) error {
	query := `
		DELETE FROM relation_tuples
		WHERE firm_id = $1 AND namespace = $2 AND object_id = $3
	`
	_, err := s.db.ExecContext(ctx, query, firmID, string(ns), objectID)
	return s.observe("revoke_all", err)
}

// Expand lists the subjects holding a relation on an object.
func (s *SQLStore) Expand(ctx context.Context, firmID string, ns Namespace, objectID, relation string) ([]Subject, error) {
	query := `
		SELECT subject_namespace, subject_id
		FROM relation_tuples
		WHERE firm_id = $1 AND namespace = $2 AND object_id = $3 AND relation = $4
		ORDER BY subject_namespace, subject_id
	`
	rows, err := s.db.QueryContext(ctx, query, firmID, string(ns), objectID, relation)
	if err != nil {
		return nil, s.observe("expand", err)
	}
	defer rows.Close()

	var subjects []Subject
	for rows.Next() {
		var sub Subject
		if err := rows.Scan(&sub.Namespace, &sub.ID); err != nil {
			return nil, s.observe("expand", err)
		}
		subjects = append(subjects, sub)
	}
	return subjects, s.observe("expand", rows.Err())
}

// Check reports whether the subject holds the relation on the object,
// using a direct indexed lookup rather than materializing the expansion.
func (s *SQLStore) Check(ctx context.Context, firmID string, ns Namespace, objectID, relation string, subject Subject) (bool, error) {
	query := `
		SELECT 1
		FROM relation_tuples
		WHERE firm_id = $1 AND namespace = $2 AND object_id = $3 AND relation = $4
		  AND subject_namespace = $5 AND subject_id = $6
	`
	var one int
	err := s.db.QueryRowContext(ctx, query, firmID, string(ns), objectID, relation, subject.Namespace, subject.ID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, s.observe("check", nil)
	}
	if err != nil {
		return false, s.observe("check", err)
	}
	return true, s.observe("check", nil)
}

func wrapStoreErr(err error, op string) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return fmt.Errorf("%w: %s: postgres %s", ErrStoreUnavailable, op, pqErr.Code)
	}
	return fmt.Errorf("%w: %s: %v", ErrStoreUnavailable, op, err)
}
