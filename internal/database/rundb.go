package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/prodcheck/internal/model"
)

// FileName is the name of the database file inside the data directory.
const FileName = "prodcheck.db"

// ErrRunNotFound is returned when no stored run matches the query.
var ErrRunNotFound = errors.New("run not found")

// timeLayout stores timestamps in UTC with a fixed width so that text
// ordering matches time ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// RunDB provides SQLite-based storage for completed runs.
type RunDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures RunDB behavior.
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

// Open opens or creates a RunDB in dbDir.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*RunDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s: %w", dbPath, err)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// mode=rw refuses to create a missing file; mode=rwc creates it.
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

	rdb := &RunDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := rdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return rdb, nil
}

// Path returns the database file path.
func (rdb *RunDB) Path() string {
	return rdb.dbPath
}

// Close closes the database connection.
func (rdb *RunDB) Close() error {
	return rdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (rdb *RunDB) createTables() error {
	schema := `
	-- One row per completed run; the full run is kept as JSON
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		source TEXT NOT NULL,
		started_at TEXT NOT NULL,
		status_code INTEGER NOT NULL DEFAULT 0,
		response_valid INTEGER NOT NULL DEFAULT 0,
		payload_digest TEXT,
		total_products INTEGER NOT NULL DEFAULT 0,
		total_defects INTEGER NOT NULL DEFAULT 0,
		summary_json TEXT NOT NULL,
		run_json TEXT NOT NULL,
		defects_json TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_runs_kind ON runs(kind);
	CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
	`

	_, err := rdb.db.ExecContext(context.Background(), schema)
	return err
}

// RunSummary is the listing view of a stored run.
type RunSummary struct {
	ID            string
	Kind          model.RunKind
	Source        string
	StartedAt     time.Time
	StatusCode    int
	ResponseValid bool
	TotalProducts int
	TotalDefects  int
	Summary       model.Summary
}

// SaveRun stores a completed run. Saving the same run twice replaces it.
func (rdb *RunDB) SaveRun(ctx context.Context, run *model.Run) error {
	report := run.Report
	if report == nil {
		report = model.GenerateReport(run.Defects, len(run.Records))
	}

	runJSON, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("failed to serialize run: %w", err)
	}
	defects := run.Defects
	if defects == nil {
		defects = []model.Defect{}
	}
	defectsJSON, err := json.Marshal(defects)
	if err != nil {
		return fmt.Errorf("failed to serialize defects: %w", err)
	}
	summaryJSON, err := json.Marshal(report.Summary)
	if err != nil {
		return fmt.Errorf("failed to serialize summary: %w", err)
	}

	query := `
	INSERT INTO runs (id, kind, source, started_at, status_code, response_valid, payload_digest,
		total_products, total_defects, summary_json, run_json, defects_json)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		status_code = excluded.status_code,
		response_valid = excluded.response_valid,
		payload_digest = excluded.payload_digest,
		total_products = excluded.total_products,
		total_defects = excluded.total_defects,
		summary_json = excluded.summary_json,
		run_json = excluded.run_json,
		defects_json = excluded.defects_json
	`

	_, err = rdb.db.ExecContext(ctx, query,
		run.ID,
		string(run.Kind),
		run.Source,
		run.StartedAt.UTC().Format(timeLayout),
		run.StatusCode,
		run.ResponseValid,
		run.PayloadDigest,
		report.TotalProducts,
		report.TotalDefects,
		string(summaryJSON),
		string(runJSON),
		string(defectsJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}

	return nil
}

// GetRun retrieves a stored run by ID.
// Records and per-record results are not stored and come back empty.
func (rdb *RunDB) GetRun(ctx context.Context, id string) (*model.Run, error) {
	query := `
	SELECT run_json, defects_json FROM runs
	WHERE id = ?
	`

	var runJSON, defectsJSON string
	err := rdb.db.QueryRowContext(ctx, query, id).Scan(&runJSON, &defectsJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	return decodeRun(runJSON, defectsJSON)
}

// ListRuns returns stored runs, newest first.
// An empty kind lists every kind; a limit of 0 or less lists everything.
func (rdb *RunDB) ListRuns(ctx context.Context, kind model.RunKind, limit int) ([]RunSummary, error) {
	query := `
	SELECT id, kind, source, started_at, status_code, response_valid,
		total_products, total_defects, summary_json
	FROM runs
	WHERE (? = '' OR kind = ?)
	ORDER BY started_at DESC, created_at DESC
	LIMIT ?
	`
	if limit <= 0 {
		limit = -1
	}

	rows, err := rdb.db.QueryContext(ctx, query, string(kind), string(kind), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var s RunSummary
		var kindText, startedAt, summaryJSON string
		if err := rows.Scan(
			&s.ID,
			&kindText,
			&s.Source,
			&startedAt,
			&s.StatusCode,
			&s.ResponseValid,
			&s.TotalProducts,
			&s.TotalDefects,
			&summaryJSON,
		); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		s.Kind = model.RunKind(kindText)
		s.StartedAt = parseTimestamp(startedAt)
		if err := json.Unmarshal([]byte(summaryJSON), &s.Summary); err != nil {
			return nil, fmt.Errorf("failed to parse summary of run %s: %w", s.ID, err)
		}
		runs = append(runs, s)
	}

	return runs, rows.Err()
}

// LatestRuns returns up to n complete runs of kind, newest first.
func (rdb *RunDB) LatestRuns(ctx context.Context, kind model.RunKind, n int) ([]*model.Run, error) {
	query := `
	SELECT run_json, defects_json FROM runs
	WHERE kind = ?
	ORDER BY started_at DESC, created_at DESC
	LIMIT ?
	`

	rows, err := rdb.db.QueryContext(ctx, query, string(kind), n)
	if err != nil {
		return nil, fmt.Errorf("failed to query latest runs: %w", err)
	}
	defer rows.Close()

	var runs []*model.Run
	for rows.Next() {
		var runJSON, defectsJSON string
		if err := rows.Scan(&runJSON, &defectsJSON); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		run, err := decodeRun(runJSON, defectsJSON)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

// PruneRuns deletes all but the newest keep runs of kind and returns the
// number of deleted runs.
func (rdb *RunDB) PruneRuns(ctx context.Context, kind model.RunKind, keep int) (int64, error) {
	query := `
	DELETE FROM runs
	WHERE kind = ? AND id NOT IN (
		SELECT id FROM runs WHERE kind = ?
		ORDER BY started_at DESC, created_at DESC
		LIMIT ?
	)
	`

	result, err := rdb.db.ExecContext(ctx, query, string(kind), string(kind), keep)
	if err != nil {
		return 0, fmt.Errorf("failed to prune runs: %w", err)
	}
	return result.RowsAffected()
}

func decodeRun(runJSON, defectsJSON string) (*model.Run, error) {
	var run model.Run
	if err := json.Unmarshal([]byte(runJSON), &run); err != nil {
		return nil, fmt.Errorf("failed to parse run: %w", err)
	}
	if err := json.Unmarshal([]byte(defectsJSON), &run.Defects); err != nil {
		return nil, fmt.Errorf("failed to parse defects of run %s: %w", run.ID, err)
	}
	run.Records = []model.Record{}
	run.Results = []model.RecordResult{}
	return &run, nil
}

// timestampFormats contains the timestamp formats that may be stored.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	timeLayout,
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05", // SQLite default datetime format
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
