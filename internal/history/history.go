package history

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

	"github.com/nao1215/xenforo-dl/internal/model"
)

// FileName is the database file name inside the data directory.
const FileName = "history.db"

// ErrNotFound is returned when the database does not exist and
// CreateIfNotExists is false.
var ErrNotFound = errors.New("history database not found")

// timeFormat is how timestamps are stored. It sorts lexicographically.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// DB is the run history database.
type DB struct {
	db     *sql.DB
	dbPath string
}

// Options configures DB behavior.
type Options struct {
	// CreateIfNotExists creates the directory and database file if missing.
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

// Open opens or creates the history database in dbDir.
func Open(ctx context.Context, dbDir string, opts Options) (*DB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else if err := os.MkdirAll(dbDir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// mode=rw refuses to create a missing file
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	h := &DB{db: db, dbPath: dbPath}

	if opts.EnableWAL {
		if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}
	if err := h.createTables(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return h, nil
}

// Path returns the database file path.
func (h *DB) Path() string {
	return h.dbPath
}

// Close closes the database connection.
func (h *DB) Close() error {
	return h.db.Close()
}

func (h *DB) createTables(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL DEFAULT '',
		targets TEXT NOT NULL,
		started_at TEXT NOT NULL,
		finished_at TEXT NOT NULL,
		status TEXT NOT NULL,
		error TEXT NOT NULL DEFAULT '',
		forums INTEGER NOT NULL DEFAULT 0,
		threads INTEGER NOT NULL DEFAULT 0,
		messages INTEGER NOT NULL DEFAULT 0,
		attachments_downloaded INTEGER NOT NULL DEFAULT 0,
		attachments_skipped INTEGER NOT NULL DEFAULT 0,
		errors INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
	`
	_, err := h.db.ExecContext(ctx, schema)
	return err
}

// RecordRun stores summary and returns its row id.
func (h *DB) RecordRun(ctx context.Context, summary *model.RunSummary) (int64, error) {
	targets, err := json.Marshal(summary.Targets)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize targets: %w", err)
	}

	query := `
	INSERT INTO runs (run_id, targets, started_at, finished_at, status, error,
		forums, threads, messages, attachments_downloaded, attachments_skipped, errors)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	s := summary.Stats
	result, err := h.db.ExecContext(ctx, query,
		summary.RunID,
		string(targets),
		summary.StartedAt.UTC().Format(timeFormat),
		summary.FinishedAt.UTC().Format(timeFormat),
		string(summary.Status),
		summary.Error,
		s.ProcessedForumCount,
		s.ProcessedThreadCount,
		s.ProcessedMessageCount,
		s.DownloadedAttachmentCount,
		s.SkippedExistingAttachmentCount,
		s.ErrorCount,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}
	return result.LastInsertId()
}

// ListRuns returns the most recent runs, newest first. A limit of zero or
// less returns every run.
func (h *DB) ListRuns(ctx context.Context, limit int) ([]model.RunSummary, error) {
	query := `
	SELECT id, run_id, targets, started_at, finished_at, status, error,
		forums, threads, messages, attachments_downloaded, attachments_skipped, errors
	FROM runs
	ORDER BY started_at DESC, id DESC
	`
	args := make([]any, 0, 1)
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := h.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []model.RunSummary
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read runs: %w", err)
	}
	return runs, nil
}

func scanRun(rows *sql.Rows) (model.RunSummary, error) {
	var (
		run                   model.RunSummary
		targets               string
		startedAt, finishedAt string
		status                string
	)
	err := rows.Scan(
		&run.ID,
		&run.RunID,
		&targets,
		&startedAt,
		&finishedAt,
		&status,
		&run.Error,
		&run.Stats.ProcessedForumCount,
		&run.Stats.ProcessedThreadCount,
		&run.Stats.ProcessedMessageCount,
		&run.Stats.DownloadedAttachmentCount,
		&run.Stats.SkippedExistingAttachmentCount,
		&run.Stats.ErrorCount,
	)
	if err != nil {
		return run, fmt.Errorf("failed to scan run: %w", err)
	}

	if err := json.Unmarshal([]byte(targets), &run.Targets); err != nil {
		return run, fmt.Errorf("failed to parse targets of run %d: %w", run.ID, err)
	}
	run.Status = model.RunStatus(status)
	run.StartedAt = parseTimestamp(startedAt)
	run.FinishedAt = parseTimestamp(finishedAt)
	return run, nil
}

// parseTimestamp returns the zero time for values it cannot read.
func parseTimestamp(s string) time.Time {
	t, err := time.Parse(timeFormat, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
