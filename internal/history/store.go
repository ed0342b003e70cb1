// Package history persists verification runs in a SQLite database so past
// results can be inspected with the history subcommands.
package history

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/hollis/snipcheck/internal/models"
)

//go:embed schema.sql
var schemaSQL string

// RunRecord is one persisted verification run.
type RunRecord struct {
	ID        string
	Document  string
	StartedAt time.Time
	Total     int
	Passed    int
	Failed    int
	Skipped   int
	Partial   bool
	Duration  time.Duration
}

// SnippetRecord is one persisted snippet verdict.
type SnippetRecord struct {
	RunID     string
	Section   string
	StartLine int
	EndLine   int
	Status    string
	Expected  string
	Actual    string
	Detail    string
	Duration  time.Duration
}

// Stats aggregates the whole history.
type Stats struct {
	Runs         int
	Documents    int
	TotalPassed  int
	TotalFailed  int
	LastRunAt    time.Time
}

// Store manages the SQLite run history database.
type Store struct {
	db     *sql.DB
	dbPath string
}

// NewStore opens (creating if needed) the history database at dbPath and
// initializes the schema. ":memory:" selects an in-memory database.
func NewStore(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// busy_timeout must be set first so the remaining pragmas wait on locks
	// held by concurrent invocations.
	pragmas := []string{
		"PRAGMA busy_timeout=5000",
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if err := execWithRetry(db, pragma, 5, 10*time.Millisecond); err != nil {
			db.Close()
			return nil, fmt.Errorf("set %s: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &Store{db: db, dbPath: dbPath}, nil
}

// execWithRetry executes a statement with exponential backoff on lock errors.
func execWithRetry(db *sql.DB, stmt string, maxRetries int, baseDelay time.Duration) error {
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		_, err := db.Exec(stmt)
		if err == nil {
			return nil
		}
		if !strings.Contains(err.Error(), "database is locked") {
			return err
		}
		lastErr = err
		time.Sleep(baseDelay * time.Duration(1<<attempt))
	}
	return lastErr
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveRun persists one run summary with all its snippet verdicts and returns
// the generated run ID.
func (s *Store) SaveRun(ctx context.Context, summary models.RunSummary) (string, error) {
	runID := uuid.NewString()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, document, total, passed, failed, skipped, partial, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, summary.DocumentPath, summary.Total, summary.Passed, summary.Failed,
		summary.Skipped, boolToInt(summary.Partial), summary.Duration.Milliseconds())
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	for _, r := range summary.Reports {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO snippet_results (run_id, section, start_line, end_line, status, expected, actual, detail, duration_ms)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			runID, r.Snippet.Section, r.Snippet.StartLine, r.Snippet.EndLine,
			r.Status(), r.Snippet.Expectation.Describe(), r.Actual.Describe(),
			r.Detail, r.Actual.Duration.Milliseconds())
		if err != nil {
			return "", fmt.Errorf("insert snippet result: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit run: %w", err)
	}
	return runID, nil
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, document, started_at, total, passed, failed, skipped, partial, duration_ms
		 FROM runs ORDER BY started_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		var r RunRecord
		var partial int
		var durationMS int64
		if err := rows.Scan(&r.ID, &r.Document, &r.StartedAt, &r.Total, &r.Passed,
			&r.Failed, &r.Skipped, &partial, &durationMS); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.Partial = partial != 0
		r.Duration = time.Duration(durationMS) * time.Millisecond
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// RunResults returns the snippet verdicts of one run in document order.
func (s *Store) RunResults(ctx context.Context, runID string) ([]SnippetRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, section, start_line, end_line, status, expected, actual, detail, duration_ms
		 FROM snippet_results WHERE run_id = ? ORDER BY start_line`, runID)
	if err != nil {
		return nil, fmt.Errorf("query snippet results: %w", err)
	}
	defer rows.Close()

	var results []SnippetRecord
	for rows.Next() {
		var r SnippetRecord
		var durationMS int64
		if err := rows.Scan(&r.RunID, &r.Section, &r.StartLine, &r.EndLine,
			&r.Status, &r.Expected, &r.Actual, &r.Detail, &durationMS); err != nil {
			return nil, fmt.Errorf("scan snippet result: %w", err)
		}
		r.Duration = time.Duration(durationMS) * time.Millisecond
		results = append(results, r)
	}
	return results, rows.Err()
}

// ResolveRunID expands a run ID prefix to the full ID. It errors when the
// prefix matches no run or more than one.
func (s *Store) ResolveRunID(ctx context.Context, prefix string) (string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM runs WHERE id LIKE ? || '%' LIMIT 2`, prefix)
	if err != nil {
		return "", fmt.Errorf("resolve run id: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return "", fmt.Errorf("scan run id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return "", err
	}

	switch len(ids) {
	case 0:
		return "", fmt.Errorf("no run found matching %q", prefix)
	case 1:
		return ids[0], nil
	default:
		return "", fmt.Errorf("run id prefix %q is ambiguous", prefix)
	}
}

// Stats returns aggregate counts across the whole history.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	// MAX() strips the column's TIMESTAMP declared type, so the driver hands
	// the value back as a string; parse it here.
	var lastRun sql.NullString

	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COUNT(DISTINCT document),
		        COALESCE(SUM(passed), 0), COALESCE(SUM(failed), 0), MAX(started_at)
		 FROM runs`).Scan(&st.Runs, &st.Documents, &st.TotalPassed, &st.TotalFailed, &lastRun)
	if err != nil {
		return Stats{}, fmt.Errorf("query stats: %w", err)
	}
	if lastRun.Valid {
		for _, layout := range []string{"2006-01-02 15:04:05.999999999-07:00", "2006-01-02 15:04:05"} {
			if ts, err := time.Parse(layout, lastRun.String); err == nil {
				st.LastRunAt = ts
				break
			}
		}
	}
	return st, nil
}

// Prune keeps only the newest keepRuns runs per document, deleting older
// ones together with their snippet results.
func (s *Store) Prune(ctx context.Context, keepRuns int) error {
	if keepRuns <= 0 {
		return nil
	}
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM runs WHERE id NOT IN (
			SELECT id FROM (
				SELECT id, ROW_NUMBER() OVER (
					PARTITION BY document ORDER BY started_at DESC, id DESC
				) AS rn FROM runs
			) WHERE rn <= ?
		 )`, keepRuns)
	if err != nil {
		return fmt.Errorf("prune runs: %w", err)
	}
	return nil
}

// Clear deletes the entire history.
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM runs`); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
