package relations

import (
	"context"
	"database/sql"
	"fmt"
)

// Migration represents a database migration.
type Migration struct {
	Version     int
	Description string
	SQL         string
}

// GetMigrations returns all relation-store migrations.
func GetMigrations() []Migration {
	return []Migration{
		{
			Version:     1,
			Description: "Create relation_tuples table",
			SQL: `
				CREATE TABLE IF NOT EXISTS relation_tuples (
					firm_id VARCHAR(64) NOT NULL,
					namespace VARCHAR(64) NOT NULL,
					object_id VARCHAR(255) NOT NULL,
					relation VARCHAR(64) NOT NULL,
					subject_namespace VARCHAR(64) NOT NULL,
					subject_id VARCHAR(255) NOT NULL,
					metadata TEXT,
					created_at TIMESTAMP NOT NULL DEFAULT NOW(),
					PRIMARY KEY (firm_id, namespace, object_id, relation, subject_namespace, subject_id)
				);

				CREATE INDEX idx_relation_tuples_object ON relation_tuples(firm_id, namespace, object_id);
				CREATE INDEX idx_relation_tuples_subject ON relation_tuples(firm_id, subject_namespace, subject_id);
			`,
		},
	}
}

// RunMigrations executes all pending relation-store migrations.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS relation_migrations (
			version INT PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at TIMESTAMP NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	rows, err := db.QueryContext(ctx, "SELECT version FROM relation_migrations ORDER BY version")
	if err != nil {
		return fmt.Errorf("failed to query migrations: %w", err)
	}
	applied := make(map[int]bool)
	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan migration version: %w", err)
		}
		applied[version] = true
	}
	rows.Close()

	for _, migration := range GetMigrations() {
		if applied[migration.Version] {
			continue
		}

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to start transaction: %w", err)
		}
		if _, err := tx.ExecContext(ctx, migration.SQL); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to execute migration %d: %w", migration.Version, err)
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO relation_migrations (version, description) VALUES ($1, $2)",
			migration.Version, migration.Description,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, err)
		}
	}

	return nil
}
