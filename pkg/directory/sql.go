package directory

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/caseward/caseward/pkg/authz"
)

// SQLReader implements Reader over a SQL database. Production deployments
// use PostgreSQL (lib/pq); tests run the same queries against sqlite.
type SQLReader struct {
	db *sql.DB
}

// NewSQLReader creates a reader over the given database handle.
func NewSQLReader(db *sql.DB) *SQLReader {
	return &SQLReader{db: db}
}

// GetPrincipal returns the principal with the given id.
func (r *SQLReader) GetPrincipal(ctx context.Context, principalID string) (*Principal, error) {
	query := `
		SELECT id, email, full_name, global_role, firm_id, independent, is_active, created_at
		FROM principals
		WHERE id = $1
	`

	var p Principal
	var firmID sql.NullString
	var fullName sql.NullString
	err := r.db.QueryRowContext(ctx, query, principalID).Scan(
		&p.ID,
		&p.Email,
		&fullName,
		&p.GlobalRole,
		&firmID,
		&p.Independent,
		&p.IsActive,
		&p.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrPrincipalNotFound
	}
	if err != nil {
		return nil, classify(err, "get principal")
	}

	p.FullName = fullName.String
	p.FirmID = firmID.String
	return &p, nil
}

// GetMember returns the membership record linking a principal to a firm.
func (r *SQLReader) GetMember(ctx context.Context, firmID, principalID string) (*Member, error) {
	query := `
		SELECT firm_id, principal_id, role, status, override, assigned_resource_ids, joined_at
		FROM firm_members
		WHERE firm_id = $1 AND principal_id = $2
	`

	var m Member
	var overrideJSON sql.NullString
	var assignedJSON sql.NullString
	err := r.db.QueryRowContext(ctx, query, firmID, principalID).Scan(
		&m.FirmID,
		&m.PrincipalID,
		&m.Role,
		&m.Status,
		&overrideJSON,
		&assignedJSON,
		&m.JoinedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrMemberNotFound
	}
	if err != nil {
		return nil, classify(err, "get member")
	}

	if overrideJSON.Valid && overrideJSON.String != "" {
		if err := json.Unmarshal([]byte(overrideJSON.String), &m.Override); err != nil {
			// A corrupt override must not widen access: fall back to the
			// empty override so the role defaults alone apply.
			m.Override = authz.PermissionSet{}
		}
	}
	if assignedJSON.Valid && assignedJSON.String != "" {
		if err := json.Unmarshal([]byte(assignedJSON.String), &m.AssignedResourceIDs); err != nil {
			m.AssignedResourceIDs = nil
		}
	}
	return &m, nil
}

// GetFirm returns the firm with the given id.
func (r *SQLReader) GetFirm(ctx context.Context, firmID string) (*Firm, error) {
	query := `
		SELECT id, name, is_active, created_at
		FROM firms
		WHERE id = $1
	`

	var f Firm
	err := r.db.QueryRowContext(ctx, query, firmID).Scan(&f.ID, &f.Name, &f.IsActive, &f.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrFirmNotFound
	}
	if err != nil {
		return nil, classify(err, "get firm")
	}
	return &f, nil
}

// classify wraps a database error as ErrUnavailable so callers fail closed.
// Postgres connection-class errors are tagged explicitly for log filtering.
func classify(err error, op string) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		// Class 08 = connection exception, class 53 = insufficient resources.
		if pqErr.Code.Class() == "08" || pqErr.Code.Class() == "53" {
			return fmt.Errorf("%w: %s: transient postgres error %s", ErrUnavailable, op, pqErr.Code)
		}
	}
	return fmt.Errorf("%w: %s: %v", ErrUnavailable, op, err)
}
