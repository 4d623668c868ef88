package sqlite

import (
	"context"
	"database/sql"
	"fmt"
)

const schemaVersion = 1

// schemaStatements are executed in order to create the database schema.
// All use IF NOT EXISTS for idempotent re-application.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS trial_results (
		id             INTEGER PRIMARY KEY AUTOINCREMENT,
		model          TEXT    NOT NULL,
		context_length INTEGER NOT NULL,
		depth_percent  REAL    NOT NULL,
		repeat         INTEGER NOT NULL DEFAULT 0,
		needles        TEXT    NOT NULL DEFAULT '[]',
		question       TEXT    NOT NULL DEFAULT '',
		response       TEXT    NOT NULL DEFAULT '',
		score          REAL,
		status         TEXT    NOT NULL,
		error          TEXT    NOT NULL DEFAULT '',
		attempts       INTEGER NOT NULL DEFAULT 0,
		duration_ns    INTEGER NOT NULL DEFAULT 0,
		started_at     TEXT    NOT NULL,
		created_at     TEXT    NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now'))
	)`,

	`CREATE INDEX IF NOT EXISTS idx_trial_results_cell
		ON trial_results(model, context_length, depth_percent)`,
}

// migrate creates or updates the database schema to the latest version.
// All DDL uses IF NOT EXISTS, making migration idempotent.
func migrate(db *sql.DB) error {
	ctx := context.Background()

	if _, err := db.ExecContext(ctx, "CREATE TABLE IF NOT EXISTS schema_version (version INTEGER PRIMARY KEY)"); err != nil {
		return fmt.Errorf("sqlite: create schema_version: %w", err)
	}

	var current int
	if err := db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&current); err != nil {
		return fmt.Errorf("sqlite: read schema version: %w", err)
	}

	if current >= schemaVersion {
		return nil
	}

	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("sqlite: apply schema: %w", err)
		}
	}

	if _, err := db.ExecContext(ctx, "INSERT OR REPLACE INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("sqlite: record schema version: %w", err)
	}

	return nil
}
