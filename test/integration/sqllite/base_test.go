package sqllite

import (
	"database/sql"
	"fmt"
	"os"
	"sync/atomic"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

var dbCounter int32 = 9018

func nextDBNumber() int {
	return int(atomic.AddInt32(&dbCounter, 1))
}

// runTestWithSetup opens a fresh on-disk sqlite database with the full
// schema applied and removes it after the test.
func runTestWithSetup(t *testing.T, testFunc func(t *testing.T, db *sql.DB)) {
	filename := fmt.Sprintf("leaveflow-test-%d.db", nextDBNumber())
	defer os.Remove(filename)

	os.Setenv("LFLOW_DATABASE_TYPE", "SQLLITE")
	os.Setenv("LFLOW_DATABASE_SQLLITE_FILE_NAME", filename)

	db, err := sql.Open("sqlite3", filename)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}
	testFunc(t, db)
}

// Mirrors internal/migrations/sqllite3/1_init.up.sql so the tests can run
// without the migrate machinery.
const schema = `
CREATE TABLE users (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    username TEXT NOT NULL UNIQUE,
    password TEXT NOT NULL,
    full_name TEXT NOT NULL DEFAULT '',
    role TEXT NOT NULL DEFAULT 'employee',
    session_id TEXT,
    api_key TEXT,
    session_expiry TIMESTAMP,
    created TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    enabled BOOLEAN NOT NULL DEFAULT TRUE
);

CREATE TABLE vacation_requests (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    external_id TEXT NOT NULL UNIQUE,
    employee_id INTEGER NOT NULL,
    employee_name TEXT NOT NULL,
    employee_role TEXT NOT NULL,
    start_date TIMESTAMP NOT NULL,
    end_date TIMESTAMP NOT NULL,
    reason TEXT NOT NULL,
    replacement_user_id INTEGER NOT NULL,
    replacement_user_name TEXT NOT NULL,
    status TEXT NOT NULL,
    approvals TEXT NOT NULL,
    created TIMESTAMP NOT NULL,
    modified TIMESTAMP NOT NULL
);

CREATE TABLE request_actions (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    request_id INTEGER NOT NULL,
    actor_id INTEGER NOT NULL,
    actor_name TEXT NOT NULL,
    actor_role TEXT NOT NULL,
    type TEXT NOT NULL,
    text TEXT NOT NULL,
    date_time TIMESTAMP NOT NULL
);
`
