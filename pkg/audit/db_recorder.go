package audit

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// DBRecorder persists decision records to a SQL database.
type DBRecorder struct {
	db *sql.DB
}

// NewDBRecorder creates a recorder and ensures the decisions table exists.
func NewDBRecorder(db *sql.DB) (*DBRecorder, error) {
	r := &DBRecorder{db: db}
	if err := r.createTable(); err != nil {
		return nil, fmt.Errorf("failed to create policy_decisions table: %w", err)
	}
	return r, nil
}

func (r *DBRecorder) createTable() error {
	_, err := r.db.Exec(`
		CREATE TABLE IF NOT EXISTS policy_decisions (
			id VARCHAR(64) PRIMARY KEY,
			timestamp TIMESTAMP NOT NULL,
			principal_id VARCHAR(64) NOT NULL,
			mode VARCHAR(32) NOT NULL,
			firm_id VARCHAR(64),
			resource_namespace VARCHAR(64) NOT NULL,
			resource_id VARCHAR(255),
			action VARCHAR(64) NOT NULL,
			allowed BOOLEAN NOT NULL,
			reason_code VARCHAR(64) NOT NULL,
			request_id VARCHAR(64),
			eval_time_us BIGINT NOT NULL
		)
	`)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(`CREATE INDEX IF NOT EXISTS idx_policy_decisions_principal ON policy_decisions(principal_id, timestamp)`)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(`CREATE INDEX IF NOT EXISTS idx_policy_decisions_firm ON policy_decisions(firm_id, timestamp)`)
	return err
}

// Record appends a decision record.
func (r *DBRecorder) Record(ctx context.Context, d *PolicyDecision) error {
	query := `
		INSERT INTO policy_decisions (id, timestamp, principal_id, mode, firm_id, resource_namespace, resource_id, action, allowed, reason_code, request_id, eval_time_us)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := r.db.ExecContext(ctx, query,
		d.ID,
		d.Timestamp,
		d.PrincipalID,
		d.Mode,
		nullable(d.FirmID),
		d.ResourceNamespace,
		nullable(d.ResourceID),
		d.Action,
		d.Allowed,
		d.ReasonCode,
		nullable(d.RequestID),
		d.EvalTime.Microseconds(),
	)
	if err != nil {
		return fmt.Errorf("failed to record decision: %w", err)
	}
	return nil
}

// Search returns decision records matching the filter, newest first.
func (r *DBRecorder) Search(ctx context.Context, filter SearchFilter) ([]*PolicyDecision, error) {
	query := `
		SELECT id, timestamp, principal_id, mode, firm_id, resource_namespace, resource_id, action, allowed, reason_code, request_id, eval_time_us
		FROM policy_decisions
		WHERE 1 = 1
	`
	var args []interface{}
	idx := 1

	addCond := func(cond string, val interface{}) {
		query += fmt.Sprintf(" AND %s = $%d", cond, idx)
		args = append(args, val)
		idx++
	}

	if filter.PrincipalID != "" {
		addCond("principal_id", filter.PrincipalID)
	}
	if filter.FirmID != "" {
		addCond("firm_id", filter.FirmID)
	}
	if filter.Namespace != "" {
		addCond("resource_namespace", filter.Namespace)
	}
	if filter.ReasonCode != "" {
		addCond("reason_code", filter.ReasonCode)
	}
	if filter.Allowed != nil {
		addCond("allowed", *filter.Allowed)
	}
	if filter.StartTime != nil {
		query += fmt.Sprintf(" AND timestamp >= $%d", idx)
		args = append(args, *filter.StartTime)
		idx++
	}
	if filter.EndTime != nil {
		query += fmt.Sprintf(" AND timestamp <= $%d", idx)
		args = append(args, *filter.EndTime)
		idx++
	}

	query += " ORDER BY timestamp DESC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search decisions: %w", err)
	}
	defer rows.Close()

	var decisions []*PolicyDecision
	for rows.Next() {
		var d PolicyDecision
		var firmID, resourceID, requestID sql.NullString
		var evalUS int64
		err := rows.Scan(
			&d.ID, &d.Timestamp, &d.PrincipalID, &d.Mode, &firmID,
			&d.ResourceNamespace, &resourceID, &d.Action, &d.Allowed,
			&d.ReasonCode, &requestID, &evalUS,
		)
		if err != nil {
			return nil, err
		}
		d.FirmID = firmID.String
		d.ResourceID = resourceID.String
		d.RequestID = requestID.String
		d.EvalTime = time.Duration(evalUS) * time.Microsecond
		decisions = append(decisions, &d)
	}
	return decisions, rows.Err()
}

// DeleteOlderThan removes records past the retention horizon and returns
// the number of rows dropped. Only the retention sweeper calls this.
func (r *DBRecorder) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM policy_decisions WHERE timestamp < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to sweep decisions: %w", err)
	}
	return res.RowsAffected()
}

// Close releases the recorder. The database handle is owned by the caller.
func (r *DBRecorder) Close() error { return nil }

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
