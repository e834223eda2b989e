package db

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"
)

func TestOpen_FreshDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "sigos.db")

	conn, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	defer conn.Close()

	if _, err := os.Stat(path); err != nil {
		t.Errorf("database file not created: %v", err)
	}

	version, err := CurrentVersion(conn)
	if err != nil {
		t.Fatalf("CurrentVersion() error: %v", err)
	}
	if version != len(migrations) {
		t.Errorf("CurrentVersion() = %d, want %d", version, len(migrations))
	}

	if _, err := conn.Exec("INSERT INTO state_events (occurred_at, source, command, previous_state, current_state) VALUES (CURRENT_TIMESTAMP, 'a', 'b', 'c', 'd')"); err != nil {
		t.Errorf("insert into state_events failed: %v", err)
	}
}

func TestOpen_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sigos.db")

	conn, err := Open(path)
	if err != nil {
		t.Fatalf("first Open() error: %v", err)
	}
	conn.Close()

	conn, err = Open(path)
	if err != nil {
		t.Fatalf("second Open() error: %v", err)
	}
	defer conn.Close()

	var count int
	if err := conn.QueryRow("SELECT COUNT(*) FROM schema_version").Scan(&count); err != nil {
		t.Fatalf("count schema_version failed: %v", err)
	}
	if count != len(migrations) {
		t.Errorf("schema_version has %d rows, want %d", count, len(migrations))
	}
}

func TestRunMigrations_UpgradesOldDatabase(t *testing.T) {
	conn, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	conn.SetMaxOpenConns(1)
	t.Cleanup(func() {
		conn.Close()
	})

	// A database that only ever saw the first migration
	if err := createVersionTable(conn); err != nil {
		t.Fatalf("createVersionTable() error: %v", err)
	}
	if err := migrationV1(conn); err != nil {
		t.Fatalf("migrationV1() error: %v", err)
	}
	if _, err := conn.Exec("INSERT INTO schema_version (version) VALUES (1)"); err != nil {
		t.Fatalf("record v1 failed: %v", err)
	}

	if err := InitSchema(conn); err != nil {
		t.Fatalf("InitSchema() error: %v", err)
	}

	var indexCount int
	err = conn.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='index' AND name='idx_state_events_occurred'").Scan(&indexCount)
	if err != nil {
		t.Fatalf("index lookup failed: %v", err)
	}
	if indexCount != 1 {
		t.Error("migration 2 did not create the occurred_at index")
	}
	if v, _ := CurrentVersion(conn); v != 2 {
		t.Errorf("CurrentVersion() = %d, want 2", v)
	}
}
