package storage

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SchemaVersion is the version written to the metadata table on creation.
const SchemaVersion = "1.0"

// Open opens (or creates) the metrics database at path and makes sure the
// schema exists. Use ":memory:" for a throwaway database.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}
	if path == ":memory:" {
		// Every connection to :memory: is a separate database
		db.SetMaxOpenConns(1)
	}

	// Enable foreign keys (must be set for each connection)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	version, err := GetSchemaVersion(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	if version == "0" {
		if err := CreateSchema(db); err != nil {
			db.Close()
			return nil, err
		}
	}
	return db, nil
}

// CreateSchema creates all tables and indexes in one transaction and writes
// the schema version.
func CreateSchema(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin schema transaction: %w", err)
	}
	defer tx.Rollback() // Safe to call even after commit

	tables := []struct {
		name string
		ddl  string
	}{
		{"runs", createRunsTable},
		{"function_metrics", createFunctionMetricsTable},
		{"metadata", createMetadataTable},
	}
	for _, table := range tables {
		if _, err := tx.Exec(table.ddl); err != nil {
			return fmt.Errorf("failed to create %s table: %w", table.name, err)
		}
	}

	for i, idx := range getAllIndexes() {
		if _, err := tx.Exec(idx); err != nil {
			return fmt.Errorf("failed to create index %d: %w", i+1, err)
		}
	}

	now := time.Now().UTC().Format(time.RFC3339)
	if _, err := tx.Exec(
		"INSERT INTO metadata (key, value, updated_at) VALUES ('schema_version', ?, ?)",
		SchemaVersion, now,
	); err != nil {
		return fmt.Errorf("failed to bootstrap metadata: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit schema transaction: %w", err)
	}
	return nil
}

// GetSchemaVersion returns the stored schema version, or "0" for a database
// without the metadata table.
func GetSchemaVersion(db *sql.DB) (string, error) {
	var tableExists int
	err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='metadata'").Scan(&tableExists)
	if err != nil {
		return "", fmt.Errorf("failed to check metadata existence: %w", err)
	}
	if tableExists == 0 {
		return "0", nil // New database
	}

	var version string
	err = db.QueryRow("SELECT value FROM metadata WHERE key = 'schema_version'").Scan(&version)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("schema_version key not found in metadata")
	}
	if err != nil {
		return "", fmt.Errorf("failed to query schema version: %w", err)
	}
	return version, nil
}

const createRunsTable = `
CREATE TABLE runs (
    run_id TEXT PRIMARY KEY,                     -- UUID
    language TEXT NOT NULL,                      -- java, python
    root TEXT NOT NULL,                          -- Mined directory
    remote TEXT NOT NULL DEFAULT '',             -- Git remote URL of root, if any
    seed INTEGER NOT NULL DEFAULT 0,             -- Sampling seed
    file_count INTEGER NOT NULL DEFAULT 0,
    function_count INTEGER NOT NULL DEFAULT 0,
    started_at TEXT NOT NULL,                    -- ISO 8601
    finished_at TEXT                             -- NULL while running
)
`

const createFunctionMetricsTable = `
CREATE TABLE function_metrics (
    metric_id INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id TEXT NOT NULL,
    file_path TEXT NOT NULL,
    function TEXT NOT NULL,
    body TEXT NOT NULL,
    start_line INTEGER NOT NULL,
    end_line INTEGER NOT NULL,
    uncaught TEXT NOT NULL DEFAULT '[]',         -- JSON array of origin:Type
    n_try_except INTEGER NOT NULL DEFAULT 0,
    n_try_pass INTEGER NOT NULL DEFAULT 0,
    n_finally INTEGER NOT NULL DEFAULT 0,
    n_generic_except INTEGER NOT NULL DEFAULT 0,
    n_raise INTEGER NOT NULL DEFAULT 0,
    n_captures_broad_raise INTEGER NOT NULL DEFAULT 0,
    n_captures_try_except_raise INTEGER NOT NULL DEFAULT 0,
    n_captures_misplaced_bare_raise INTEGER NOT NULL DEFAULT 0,
    n_try_else INTEGER NOT NULL DEFAULT 0,
    n_try_return INTEGER NOT NULL DEFAULT 0,
    str_except_identifiers TEXT NOT NULL DEFAULT '[]', -- JSON array
    str_raise_identifiers TEXT NOT NULL DEFAULT '[]',  -- JSON array
    str_except_block TEXT NOT NULL DEFAULT '[]',       -- JSON array of handler source
    n_nested_try INTEGER NOT NULL DEFAULT 0,
    n_bare_except INTEGER NOT NULL DEFAULT 0,
    n_bare_raise_finally INTEGER NOT NULL DEFAULT 0,
    FOREIGN KEY (run_id) REFERENCES runs(run_id) ON DELETE CASCADE
)
`

const createMetadataTable = `
CREATE TABLE metadata (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at TEXT NOT NULL
)
`

func getAllIndexes() []string {
	return []string{
		"CREATE INDEX idx_function_metrics_run ON function_metrics(run_id)",
		"CREATE INDEX idx_function_metrics_file ON function_metrics(run_id, file_path)",
		"CREATE INDEX idx_runs_started ON runs(started_at)",
	}
}
