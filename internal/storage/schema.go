package storage

import (
	"database/sql"

	"github.com/mvp-joe/typelink/internal/errors"
)

// SchemaVersion is written to the metadata table on creation.
const SchemaVersion = "1"

const createMetadataTable = `
CREATE TABLE IF NOT EXISTS metadata (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
)`

const createRunsTable = `
CREATE TABLE IF NOT EXISTS runs (
    run_id           TEXT PRIMARY KEY,
    root_dir         TEXT NOT NULL,
    created_at       TEXT NOT NULL,
    duration_ms      INTEGER NOT NULL,
    entry_count      INTEGER NOT NULL,
    diagnostic_count INTEGER NOT NULL
)`

const createNaturesTable = `
CREATE TABLE IF NOT EXISTS natures (
    run_id        TEXT NOT NULL REFERENCES runs(run_id) ON DELETE CASCADE,
    name          TEXT NOT NULL,
    kind          TEXT NOT NULL,
    flat          INTEGER NOT NULL DEFAULT 0,
    self_returned INTEGER NOT NULL DEFAULT 0,
    file          TEXT,
    line          INTEGER,
    definition    TEXT NOT NULL,
    PRIMARY KEY (run_id, name)
)`

const createDiagnosticsTable = `
CREATE TABLE IF NOT EXISTS diagnostics (
    run_id  TEXT NOT NULL REFERENCES runs(run_id) ON DELETE CASCADE,
    file    TEXT NOT NULL,
    line    INTEGER,
    item    TEXT,
    message TEXT NOT NULL
)`

var indexes = []string{
	`CREATE INDEX IF NOT EXISTS idx_natures_kind ON natures(run_id, kind)`,
	`CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_diagnostics_run ON diagnostics(run_id)`,
}

// CreateSchema creates every table and index in one transaction.
func CreateSchema(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return errors.Wrap(err, "failed to begin schema transaction")
	}
	defer tx.Rollback() // Safe to call even after commit

	tables := []struct {
		name string
		ddl  string
	}{
		{"metadata", createMetadataTable},
		{"runs", createRunsTable},
		{"natures", createNaturesTable},
		{"diagnostics", createDiagnosticsTable},
	}
	for _, table := range tables {
		if _, err := tx.Exec(table.ddl); err != nil {
			return errors.Wrapf(err, "failed to create %s table", table.name)
		}
	}

	for i, idx := range indexes {
		if _, err := tx.Exec(idx); err != nil {
			return errors.Wrapf(err, "failed to create index %d", i+1)
		}
	}

	if _, err := tx.Exec(
		"INSERT OR REPLACE INTO metadata (key, value) VALUES ('schema_version', ?)", SchemaVersion,
	); err != nil {
		return errors.Wrap(err, "failed to record schema version")
	}

	return errors.Wrap(tx.Commit(), "failed to commit schema transaction")
}

// GetSchemaVersion returns "0" for a database without a schema.
func GetSchemaVersion(db *sql.DB) (string, error) {
	var tableExists int
	err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='metadata'").Scan(&tableExists)
	if err != nil {
		return "", errors.Wrap(err, "failed to check metadata existence")
	}
	if tableExists == 0 {
		return "0", nil
	}

	var version string
	err = db.QueryRow("SELECT value FROM metadata WHERE key = 'schema_version'").Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		return "", errors.New("schema_version key not found in metadata")
	}
	if err != nil {
		return "", errors.Wrap(err, "failed to query schema version")
	}
	return version, nil
}
