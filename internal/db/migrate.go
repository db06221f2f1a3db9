package db

import (
	"database/sql"
	"fmt"
	"strings"
)

// Migrate runs all schema migrations.
func Migrate(db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			// Tolerate "duplicate column name" errors from ALTER TABLE
			// since the migration system re-runs all statements.
			if strings.Contains(err.Error(), "duplicate column name") {
				continue
			}
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}

var migrations = []string{
	// The single durable "current session" slot. At most one row exists;
	// the slot CHECK pins the primary key to a fixed value.
	`CREATE TABLE IF NOT EXISTS tracker_state (
		slot            TEXT PRIMARY KEY CHECK(slot = 'current'),
		session_id      TEXT NOT NULL,
		started_at      TEXT NOT NULL,
		ended_at        TEXT,
		duration_s      INTEGER NOT NULL DEFAULT 0,
		active          INTEGER NOT NULL DEFAULT 1,
		task_key        TEXT,
		task_summary    TEXT,
		task_project    TEXT,
		screenshot_ids  TEXT NOT NULL DEFAULT '[]',
		updated_at      TEXT NOT NULL
	)`,

	// Per-day totals. Formatted strings are derived at load time so stored
	// values can never go stale.
	`CREATE TABLE IF NOT EXISTS daily_aggregates (
		date_key         TEXT PRIMARY KEY,
		total_seconds    INTEGER NOT NULL DEFAULT 0,
		session_count    INTEGER NOT NULL DEFAULT 0,
		screenshot_count INTEGER NOT NULL DEFAULT 0,
		updated_at       TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS daily_task_totals (
		date_key         TEXT NOT NULL REFERENCES daily_aggregates(date_key) ON DELETE CASCADE,
		task_key         TEXT NOT NULL,
		summary          TEXT NOT NULL,
		project          TEXT NOT NULL,
		seconds          INTEGER NOT NULL DEFAULT 0,
		session_count    INTEGER NOT NULL DEFAULT 0,
		screenshot_count INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (date_key, task_key)
	)`,

	`CREATE INDEX IF NOT EXISTS idx_daily_task_totals_date ON daily_task_totals(date_key)`,
}
