// Package storage persists finished analysis runs to SQLite so the model of
// earlier runs can be queried without re-parsing sources.
package storage

import (
	"database/sql"
	"encoding/json"
	"math"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/mattn/go-sqlite3"

	"github.com/mvp-joe/typelink/internal/analyzer"
	"github.com/mvp-joe/typelink/internal/errors"
	"github.com/mvp-joe/typelink/internal/nature"
)

var (
	// ErrNoRuns is returned when the database holds no run yet.
	ErrNoRuns = errors.New("no runs recorded")

	// ErrNotFound is returned for an unknown nature name or run id.
	ErrNotFound = errors.New("not found")
)

// timeLayout has fixed width so created_at sorts as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store is a snapshot database. It is safe for concurrent use.
type Store struct {
	db *sql.DB
}

// Run describes one recorded analysis run.
type Run struct {
	ID              string        `json:"id"`
	RootDir         string        `json:"root_dir"`
	CreatedAt       time.Time     `json:"created_at"`
	Duration        time.Duration `json:"duration"`
	EntryCount      int           `json:"entry_count"`
	DiagnosticCount int           `json:"diagnostic_count"`
}

// Record is one registered nature of a run.
type Record struct {
	RunID        string          `json:"run_id"`
	Name         string          `json:"name"`
	Kind         string          `json:"kind"`
	Flat         bool            `json:"flat,omitempty"`
	SelfReturned bool            `json:"self_returned,omitempty"`
	File         string          `json:"file,omitempty"`
	Line         int             `json:"line,omitempty"`
	Definition   json.RawMessage `json:"definition"`
}

// Open opens or creates the snapshot database at dbPath.
func Open(dbPath string) (*Store, error) {
	// Foreign keys are per connection; the DSN flag enables them on each one.
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on")
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}

	// :memory: databases are per connection
	db.SetMaxOpenConns(1)

	version, err := GetSchemaVersion(db)
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to check schema version")
	}
	if version == "0" {
		if err := CreateSchema(db); err != nil {
			db.Close()
			return nil, errors.Wrap(err, "failed to create schema")
		}
	}

	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// WriteRun records a finished run with all of its natures and diagnostics.
// All rows are written atomically.
func (s *Store) WriteRun(rootDir string, result *analyzer.Result) error {
	tx, err := s.db.Begin()
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback() // Safe to call even after commit

	_, err = sq.Insert("runs").
		Columns("run_id", "root_dir", "created_at", "duration_ms", "entry_count", "diagnostic_count").
		Values(
			result.RunID,
			rootDir,
			time.Now().UTC().Format(timeLayout),
			result.Duration.Milliseconds(),
			result.Natures.Len(),
			len(result.Diagnostics),
		).
		RunWith(tx).
		Exec()
	if err != nil {
		return errors.Wrapf(err, "failed to insert run %s", result.RunID)
	}

	for _, name := range result.Natures.Names() {
		n, _ := result.Natures.Get(name)
		record, err := newRecord(result.RunID, name, n)
		if err != nil {
			return err
		}

		_, err = sq.Insert("natures").
			Columns("run_id", "name", "kind", "flat", "self_returned", "file", "line", "definition").
			Values(
				record.RunID,
				record.Name,
				record.Kind,
				record.Flat,
				record.SelfReturned,
				nullableString(record.File),
				nullableInt(record.Line),
				string(record.Definition),
			).
			RunWith(tx).
			Exec()
		if err != nil {
			return errors.Wrapf(err, "failed to insert nature %s", name)
		}
	}

	for _, d := range result.Diagnostics {
		_, err := sq.Insert("diagnostics").
			Columns("run_id", "file", "line", "item", "message").
			Values(result.RunID, d.File, nullableInt(d.Line), nullableString(d.Item), d.Message).
			RunWith(tx).
			Exec()
		if err != nil {
			return errors.Wrapf(err, "failed to insert diagnostic for %s", d.File)
		}
	}

	return errors.Wrap(tx.Commit(), "failed to commit transaction")
}

func newRecord(runID, name string, n nature.Nature) (*Record, error) {
	definition, err := json.Marshal(n)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to encode %s", name)
	}

	record := &Record{
		RunID:        runID,
		Name:         name,
		Kind:         n.Kind().String(),
		Flat:         nature.IsFlatEnum(n),
		SelfReturned: nature.IsSelfReturned(n),
		Definition:   definition,
	}
	if named, ok := n.(nature.Named); ok {
		ctx := named.Context()
		record.File = ctx.File
		record.Line = ctx.Line
	}
	return record, nil
}

// Runs returns every recorded run, newest first.
func (s *Store) Runs() ([]Run, error) {
	rows, err := sq.Select("run_id", "root_dir", "created_at", "duration_ms", "entry_count", "diagnostic_count").
		From("runs").
		OrderBy("created_at DESC", "rowid DESC").
		RunWith(s.db).
		Query()
	if err != nil {
		return nil, errors.Wrap(err, "failed to query runs")
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// LatestRun returns the most recent run, or ErrNoRuns.
func (s *Store) LatestRun() (*Run, error) {
	row := sq.Select("run_id", "root_dir", "created_at", "duration_ms", "entry_count", "diagnostic_count").
		From("runs").
		OrderBy("created_at DESC", "rowid DESC").
		Limit(1).
		RunWith(s.db).
		QueryRow()

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoRuns
	}
	return run, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*Run, error) {
	var (
		run        Run
		createdAt  string
		durationMS int64
	)
	if err := row.Scan(&run.ID, &run.RootDir, &createdAt, &durationMS, &run.EntryCount, &run.DiagnosticCount); err != nil {
		return nil, err
	}

	t, err := time.Parse(timeLayout, createdAt)
	if err != nil {
		return nil, errors.Wrapf(err, "run %s has a malformed timestamp", run.ID)
	}
	run.CreatedAt = t
	run.Duration = time.Duration(durationMS) * time.Millisecond
	return &run, nil
}

// Entries returns the natures of a run sorted by name. A non-empty kind
// (e.g. "struct", "enum") narrows the result.
func (s *Store) Entries(runID, kind string) ([]Record, error) {
	query := sq.Select("run_id", "name", "kind", "flat", "self_returned", "file", "line", "definition").
		From("natures").
		Where(sq.Eq{"run_id": runID}).
		OrderBy("name")
	if kind != "" {
		query = query.Where(sq.Eq{"kind": kind})
	}

	rows, err := query.RunWith(s.db).Query()
	if err != nil {
		return nil, errors.Wrap(err, "failed to query natures")
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *record)
	}
	return records, rows.Err()
}

// Entry returns one nature of a run, or ErrNotFound.
func (s *Store) Entry(runID, name string) (*Record, error) {
	row := sq.Select("run_id", "name", "kind", "flat", "self_returned", "file", "line", "definition").
		From("natures").
		Where(sq.Eq{"run_id": runID, "name": name}).
		RunWith(s.db).
		QueryRow()

	record, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.Wrapf(ErrNotFound, "%s", name)
	}
	return record, err
}

func scanRecord(row scanner) (*Record, error) {
	var (
		record     Record
		file       sql.NullString
		line       sql.NullInt64
		definition string
	)
	if err := row.Scan(&record.RunID, &record.Name, &record.Kind, &record.Flat, &record.SelfReturned, &file, &line, &definition); err != nil {
		return nil, err
	}
	record.File = file.String
	record.Line = int(line.Int64)
	record.Definition = json.RawMessage(definition)
	return &record, nil
}

// Diagnostics returns the diagnostics recorded for a run.
func (s *Store) Diagnostics(runID string) ([]analyzer.Diagnostic, error) {
	rows, err := sq.Select("file", "line", "item", "message").
		From("diagnostics").
		Where(sq.Eq{"run_id": runID}).
		OrderBy("rowid").
		RunWith(s.db).
		Query()
	if err != nil {
		return nil, errors.Wrap(err, "failed to query diagnostics")
	}
	defer rows.Close()

	var diags []analyzer.Diagnostic
	for rows.Next() {
		var (
			d    analyzer.Diagnostic
			line sql.NullInt64
			item sql.NullString
		)
		if err := rows.Scan(&d.File, &line, &item, &d.Message); err != nil {
			return nil, err
		}
		d.Line = int(line.Int64)
		d.Item = item.String
		diags = append(diags, d)
	}
	return diags, rows.Err()
}

// PruneRuns deletes all but the newest keep runs and returns how many were
// removed. Their natures and diagnostics go with them.
func (s *Store) PruneRuns(keep int) (int, error) {
	if keep < 0 {
		return 0, errors.Newf("keep must not be negative, got %d", keep)
	}

	stale := sq.Select("run_id").
		From("runs").
		OrderBy("created_at DESC", "rowid DESC").
		Limit(math.MaxInt64).
		Offset(uint64(keep))
	sub, args, err := stale.ToSql()
	if err != nil {
		return 0, errors.Wrap(err, "failed to build prune query")
	}

	res, err := sq.Delete("runs").
		Where("run_id IN ("+sub+")", args...).
		RunWith(s.db).
		Exec()
	if err != nil {
		return 0, errors.Wrap(err, "failed to prune runs")
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func nullableInt(n int) interface{} {
	if n == 0 {
		return nil
	}
	return n
}

func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
