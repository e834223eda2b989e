package db

import "database/sql"

// SchemaSQL is the complete schema for fresh installs, reflecting the state
// after all migrations.
//
// This is the SINGLE SOURCE OF TRUTH for the database schema. Tests load it
// via GetSchemaSQL() and never hardcode CREATE TABLE statements, so a column
// referenced by repository code but missing here fails with "no such column".
//
// When adding new columns or tables:
//  1. Add a migration in migrations.go
//  2. Update SchemaSQL here
const SchemaSQL = `
-- State events (audit trail of lumen changes; never replayed)
CREATE TABLE IF NOT EXISTS state_events (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	occurred_at DATETIME NOT NULL,
	source TEXT NOT NULL,
	command TEXT NOT NULL,
	previous_state TEXT NOT NULL,
	current_state TEXT NOT NULL,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_state_events_occurred ON state_events(occurred_at);
`

// InitSchema brings the database up to date. A fresh database gets SchemaSQL
// directly with every migration marked applied; an existing one is migrated.
func InitSchema(db *sql.DB) error {
	var tableCount int
	err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'").Scan(&tableCount)
	if err != nil {
		return err
	}

	if tableCount > 0 {
		return RunMigrations(db)
	}

	if _, err := db.Exec(SchemaSQL); err != nil {
		return err
	}
	if err := createVersionTable(db); err != nil {
		return err
	}
	for _, m := range migrations {
		if _, err := db.Exec("INSERT INTO schema_version (version) VALUES (?)", m.Version); err != nil {
			return err
		}
	}
	return nil
}

// GetSchemaSQL returns the authoritative schema SQL for use by tests.
func GetSchemaSQL() string {
	return SchemaSQL
}
