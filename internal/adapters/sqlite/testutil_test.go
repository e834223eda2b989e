// Package sqlite_test contains integration tests for SQLite repositories.
//
// This file is the SINGLE POINT where the database schema is loaded for tests.
// DO NOT hardcode CREATE TABLE statements in test files. Use setupTestDB()
// and the seed* helpers instead.
package sqlite_test

import (
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/example/sigos/internal/db"
)

// setupTestDB creates an in-memory database with the authoritative schema.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	testDB, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	// Each new connection would get its own empty in-memory database
	testDB.SetMaxOpenConns(1)

	_, err = testDB.Exec(db.GetSchemaSQL())
	if err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	t.Cleanup(func() {
		testDB.Close()
	})

	return testDB
}

// seedEvent inserts a state event directly and returns its ID.
func seedEvent(t *testing.T, db *sql.DB, occurredAt time.Time, command string) int64 {
	t.Helper()
	result, err := db.Exec(
		"INSERT INTO state_events (occurred_at, source, command, previous_state, current_state) VALUES (?, '10.0.0.1', ?, 'off', 'on')",
		occurredAt.UTC(), command)
	if err != nil {
		t.Fatalf("failed to seed event: %v", err)
	}
	id, _ := result.LastInsertId()
	return id
}
