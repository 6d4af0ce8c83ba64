package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/gravescan/internal/model"
)

// FileName is the name of the history database file inside the data dir.
const FileName = "gravescan.db"

// ErrNotFound is returned when a requested run does not exist.
var ErrNotFound = errors.New("run not found")

// HistoryDB provides SQLite-based storage for finished runs.
// Every run keeps its records and per-page statistics so later runs of the
// same surname can be compared against it.
//
// Design decision: We use a single database file for all surnames rather
// than separate files per surname. This keeps "list everything" and backup
// operations trivial.
type HistoryDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures HistoryDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a HistoryDB in dbDir.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*HistoryDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else if err := os.MkdirAll(dbDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// mode=rw refuses to create a missing file, mode=rwc allows it.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	hdb := &HistoryDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}
	if _, err := db.ExecContext(context.Background(), "PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if err := hdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return hdb, nil
}

// Close closes the database connection.
func (hdb *HistoryDB) Close() error {
	return hdb.db.Close()
}

// Path returns the database file path.
func (hdb *HistoryDB) Path() string {
	return hdb.dbPath
}

// createTables creates the database schema if it doesn't exist.
func (hdb *HistoryDB) createTables() error {
	schema := `
	-- One row per collected surname
	CREATE TABLE IF NOT EXISTS runs (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		surname TEXT NOT NULL,
		match_mode TEXT NOT NULL,
		min_birth_year INTEGER NOT NULL,
		max_pages INTEGER NOT NULL,
		state TEXT NOT NULL,
		pages_visited INTEGER NOT NULL,
		record_count INTEGER NOT NULL,
		started_at TEXT NOT NULL,
		finished_at TEXT,
		error TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_runs_surname ON runs(surname);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);

	-- Qualifying records in collection order
	CREATE TABLE IF NOT EXISTS records (
		run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		person_key TEXT NOT NULL,
		last_name TEXT NOT NULL,
		first_name TEXT NOT NULL,
		full_name TEXT NOT NULL,
		rank_branch TEXT NOT NULL,
		date_of_birth TEXT NOT NULL,
		birth_year INTEGER NOT NULL,
		PRIMARY KEY (run_id, position)
	);

	CREATE INDEX IF NOT EXISTS idx_records_key ON records(person_key);

	-- What each visited page contributed
	CREATE TABLE IF NOT EXISTS pages (
		run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		number INTEGER NOT NULL,
		group_count INTEGER NOT NULL,
		matched INTEGER NOT NULL,
		hash TEXT,
		parse_error TEXT,
		PRIMARY KEY (run_id, number)
	);
	`

	_, err := hdb.db.ExecContext(context.Background(), schema)
	return err
}

// SaveRun stores run with its records and pages in one transaction.
// Saving the same run twice replaces the earlier copy.
func (hdb *HistoryDB) SaveRun(ctx context.Context, run *model.Run) (err error) {
	tx, err := hdb.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, table := range []string{"records", "pages", "runs"} {
		col := "run_id"
		if table == "runs" {
			col = "id"
		}
		if _, err = tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE "+col+" = ?", run.ID); err != nil {
			return fmt.Errorf("failed to replace run: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx, `
	INSERT INTO runs (id, surname, match_mode, min_birth_year, max_pages, state,
		pages_visited, record_count, started_at, finished_at, error)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID,
		run.Query.Surname,
		run.Query.MatchMode,
		run.MinBirthYear,
		run.MaxPages,
		run.State.String(),
		run.PagesVisited,
		len(run.Records),
		formatTimestamp(run.StartedAt),
		formatTimestamp(run.FinishedAt),
		run.ErrorMessage,
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	recStmt, err := tx.PrepareContext(ctx, `
	INSERT INTO records (run_id, position, person_key, last_name, first_name,
		full_name, rank_branch, date_of_birth, birth_year)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare record insert: %w", err)
	}
	defer recStmt.Close()

	for i, rec := range run.Records {
		if _, err = recStmt.ExecContext(ctx,
			run.ID, i, rec.Key(), rec.LastName, rec.FirstName,
			rec.FullName, rec.RankBranch, rec.DateOfBirth, rec.BirthYear,
		); err != nil {
			return fmt.Errorf("failed to insert record: %w", err)
		}
	}

	for _, p := range run.Pages {
		if _, err = tx.ExecContext(ctx, `
		INSERT INTO pages (run_id, number, group_count, matched, hash, parse_error)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, number) DO UPDATE SET
			group_count = excluded.group_count,
			matched = excluded.matched,
			hash = excluded.hash,
			parse_error = excluded.parse_error
		`, run.ID, p.Number, p.Groups, p.Matched, p.Hash, p.ParseError); err != nil {
			return fmt.Errorf("failed to insert page: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}
	return nil
}

// ListSurnames returns every surname with at least one stored run.
func (hdb *HistoryDB) ListSurnames(ctx context.Context) ([]string, error) {
	rows, err := hdb.db.QueryContext(ctx, `SELECT DISTINCT surname FROM runs ORDER BY surname`)
	if err != nil {
		return nil, fmt.Errorf("failed to list surnames: %w", err)
	}
	defer rows.Close()

	var surnames []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("failed to scan surname: %w", err)
		}
		surnames = append(surnames, s)
	}
	return surnames, rows.Err()
}

// ListRuns returns the runs of surname, newest first.
// An empty surname lists the runs of every surname.
func (hdb *HistoryDB) ListRuns(ctx context.Context, surname string) ([]model.RunMetadata, error) {
	query := `
	SELECT id, surname, started_at, state, pages_visited, record_count, min_birth_year
	FROM runs
	WHERE 1=1
	`
	args := make([]any, 0, 1)
	if surname != "" {
		query += " AND surname = ?"
		args = append(args, surname)
	}
	query += " ORDER BY started_at DESC, seq DESC"

	rows, err := hdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var results []model.RunMetadata
	for rows.Next() {
		var meta model.RunMetadata
		var startedAt, state string
		if err := rows.Scan(
			&meta.ID,
			&meta.Surname,
			&startedAt,
			&state,
			&meta.PagesVisited,
			&meta.RecordCount,
			&meta.MinBirthYear,
		); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		meta.StartedAt = parseTimestamp(startedAt)
		meta.State = parseState(state)
		results = append(results, meta)
	}
	return results, rows.Err()
}

// GetRun loads a run with its records and pages.
// Returns ErrNotFound when no run has the given ID.
func (hdb *HistoryDB) GetRun(ctx context.Context, id string) (*model.Run, error) {
	run := &model.Run{ID: id}
	var state, startedAt string
	var finishedAt, errMsg sql.NullString

	err := hdb.db.QueryRowContext(ctx, `
	SELECT surname, match_mode, min_birth_year, max_pages, state, pages_visited,
		started_at, finished_at, error
	FROM runs
	WHERE id = ?
	`, id).Scan(
		&run.Query.Surname,
		&run.Query.MatchMode,
		&run.MinBirthYear,
		&run.MaxPages,
		&state,
		&run.PagesVisited,
		&startedAt,
		&finishedAt,
		&errMsg,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	run.State = parseState(state)
	run.StartedAt = parseTimestamp(startedAt)
	if finishedAt.Valid {
		run.FinishedAt = parseTimestamp(finishedAt.String)
	}
	run.ErrorMessage = errMsg.String

	if run.Records, err = hdb.GetRecords(ctx, id); err != nil {
		return nil, err
	}
	if run.Pages, err = hdb.getPages(ctx, id); err != nil {
		return nil, err
	}
	return run, nil
}

// GetRecords returns the records of a run in collection order.
func (hdb *HistoryDB) GetRecords(ctx context.Context, runID string) ([]model.PersonRecord, error) {
	rows, err := hdb.db.QueryContext(ctx, `
	SELECT last_name, first_name, full_name, rank_branch, date_of_birth, birth_year
	FROM records
	WHERE run_id = ?
	ORDER BY position
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get records: %w", err)
	}
	defer rows.Close()

	records := make([]model.PersonRecord, 0)
	for rows.Next() {
		var rec model.PersonRecord
		if err := rows.Scan(
			&rec.LastName,
			&rec.FirstName,
			&rec.FullName,
			&rec.RankBranch,
			&rec.DateOfBirth,
			&rec.BirthYear,
		); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (hdb *HistoryDB) getPages(ctx context.Context, runID string) ([]model.PageStat, error) {
	rows, err := hdb.db.QueryContext(ctx, `
	SELECT number, group_count, matched, hash, parse_error
	FROM pages
	WHERE run_id = ?
	ORDER BY number
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get pages: %w", err)
	}
	defer rows.Close()

	var pages []model.PageStat
	for rows.Next() {
		var p model.PageStat
		var hash, parseErr sql.NullString
		if err := rows.Scan(&p.Number, &p.Groups, &p.Matched, &hash, &parseErr); err != nil {
			return nil, fmt.Errorf("failed to scan page: %w", err)
		}
		p.Hash = hash.String
		p.ParseError = parseErr.String
		pages = append(pages, p)
	}
	return pages, rows.Err()
}

// HasRecentRun reports whether surname was collected successfully within d.
func (hdb *HistoryDB) HasRecentRun(ctx context.Context, surname string, d time.Duration) (bool, error) {
	var count int
	err := hdb.db.QueryRowContext(ctx, `
	SELECT COUNT(*) FROM runs
	WHERE surname = ? AND state = ? AND started_at > ?
	`, surname, model.StateDone.String(), formatTimestamp(time.Now().Add(-d))).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check recent run: %w", err)
	}
	return count > 0, nil
}

// CompareLatest compares the two newest runs of surname.
// Returns ErrNotFound when fewer than two runs are stored.
func (hdb *HistoryDB) CompareLatest(ctx context.Context, surname string) (*model.Comparison, error) {
	runs, err := hdb.ListRuns(ctx, surname)
	if err != nil {
		return nil, err
	}
	if len(runs) < 2 {
		return nil, fmt.Errorf("%w: at least 2 runs of %s are required for comparison (found %d)",
			ErrNotFound, surname, len(runs))
	}
	return hdb.Compare(ctx, runs[1].ID, runs[0].ID)
}

// Compare compares two stored runs by ID.
func (hdb *HistoryDB) Compare(ctx context.Context, previousID, currentID string) (*model.Comparison, error) {
	previous, err := hdb.GetRun(ctx, previousID)
	if err != nil {
		return nil, err
	}
	current, err := hdb.GetRun(ctx, currentID)
	if err != nil {
		return nil, err
	}
	return model.CompareRuns(previous, current), nil
}

// timestampLayout has a fixed width so stored timestamps sort as text.
const timestampLayout = "2006-01-02 15:04:05.000000000"

// formatTimestamp formats t in UTC. The zero time is stored as "".
func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timestampLayout)
}

// timestampFormats contains the timestamp formats that may be stored.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	timestampLayout,
	"2006-01-02 15:04:05",
	time.RFC3339Nano,
	time.RFC3339,
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// parseState maps a stored state name back to model.RunState.
// Unknown names are reported as aborted.
func parseState(s string) model.RunState {
	st, err := model.ParseRunState(s)
	if err != nil {
		return model.StateAborted
	}
	return st
}
