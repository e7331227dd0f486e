// Package history keeps a SQLite record of analysis runs.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/theimaginaryfoundation/comment-insights/insights"
	"github.com/theimaginaryfoundation/comment-insights/insights/extract"
	"github.com/theimaginaryfoundation/comment-insights/insights/history/migrations"
)

// DBFile is the database file name inside the data directory.
const DBFile = "history.db"

var ErrNotFound = errors.New("run not found")

const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// Run is one recorded analysis.
type Run struct {
	ID              string               `json:"id"`
	StartedAt       time.Time            `json:"started_at"`
	FinishedAt      time.Time            `json:"finished_at"`
	Source          string               `json:"source"`
	Model           string               `json:"model"`
	ReasoningEffort string               `json:"reasoning_effort"`
	TotalComments   int                  `json:"total_comments"`
	ChunkCount      int                  `json:"chunk_count"`
	FailedChunks    int                  `json:"failed_chunks"`
	ReasoningTokens int                  `json:"reasoning_tokens"`
	TotalTokens     int                  `json:"total_tokens"`
	Sentiment       extract.Distribution `json:"sentiment"`
	Themes          []extract.Theme      `json:"themes,omitempty"`
	Status          string               `json:"status"`
	Error           string               `json:"error,omitempty"`
	ReportPath      string               `json:"report_path,omitempty"`
}

// RunFromResult converts a pipeline result into a history row. runErr is the error
// Run returned alongside res, if any.
func RunFromResult(res *insights.Result, source, reportPath string, runErr error) Run {
	r := Run{
		ID:              res.RunID,
		StartedAt:       res.StartedAt,
		FinishedAt:      res.FinishedAt,
		Source:          source,
		Model:           res.SynthesisParams.Model,
		ReasoningEffort: string(res.SynthesisParams.ReasoningEffort),
		TotalComments:   res.TotalComments,
		ChunkCount:      res.ChunkCount,
		FailedChunks:    res.FailedChunks,
		ReasoningTokens: res.Usage.Reasoning,
		TotalTokens:     res.Usage.Total,
		Sentiment:       res.Metrics.Sentiment,
		Themes:          res.Metrics.Themes,
		Status:          StatusOK,
		ReportPath:      reportPath,
	}
	if runErr != nil || !res.Succeeded() {
		r.Status = StatusFailed
		if runErr != nil {
			r.Error = runErr.Error()
		}
	}
	return r
}

type Store struct {
	db   *sql.DB
	path string
}

// Open opens (creating when needed) the history database in dataDir.
func Open(dataDir string) (*Store, error) {
	if dataDir == "" {
		return nil, errors.New("history: empty data directory")
	}
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, DBFile)
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(1)

	s := &Store{db: db, path: dbPath}
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Path() string {
	return s.path
}

func (s *Store) migrate(fsys fs.FS) error {
	if _, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var current int
	if err := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&current); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}
	var upFiles []string
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".up.sql") {
			upFiles = append(upFiles, e.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= current {
			continue
		}
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}
	return nil
}

// Save inserts or replaces a run and its themes.
func (s *Store) Save(ctx context.Context, r Run) error {
	if r.ID == "" {
		return errors.New("history: run id is empty")
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO runs (id, started_at, finished_at, source, model, reasoning_effort,
			total_comments, chunk_count, failed_chunks, reasoning_tokens, total_tokens,
			positive, neutral, negative, status, error, report_path)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			finished_at = excluded.finished_at,
			failed_chunks = excluded.failed_chunks,
			reasoning_tokens = excluded.reasoning_tokens,
			total_tokens = excluded.total_tokens,
			positive = excluded.positive,
			neutral = excluded.neutral,
			negative = excluded.negative,
			status = excluded.status,
			error = excluded.error,
			report_path = excluded.report_path
	`, r.ID, r.StartedAt.UTC(), r.FinishedAt.UTC(), r.Source, r.Model, r.ReasoningEffort,
		r.TotalComments, r.ChunkCount, r.FailedChunks, r.ReasoningTokens, r.TotalTokens,
		r.Sentiment.Positive, r.Sentiment.Neutral, r.Sentiment.Negative, r.Status, r.Error, r.ReportPath); err != nil {
		return fmt.Errorf("saving run: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM run_themes WHERE run_id = ?", r.ID); err != nil {
		return fmt.Errorf("clearing themes: %w", err)
	}
	for i, th := range r.Themes {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO run_themes (run_id, position, name, percentage) VALUES (?, ?, ?, ?)",
			r.ID, i, th.Name, th.Percentage); err != nil {
			return fmt.Errorf("saving theme: %w", err)
		}
	}
	return tx.Commit()
}

const runColumns = `id, started_at, finished_at, source, model, reasoning_effort,
	total_comments, chunk_count, failed_chunks, reasoning_tokens, total_tokens,
	positive, neutral, negative, status, error, report_path`

// List returns the most recent runs first. limit <= 0 returns all of them. Themes are
// not loaded.
func (s *Store) List(ctx context.Context, limit int) ([]Run, error) {
	q := "SELECT " + runColumns + " FROM runs ORDER BY started_at DESC, id"
	args := []any{}
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Get loads one run with its themes.
func (s *Store) Get(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+runColumns+" FROM runs WHERE id = ?", id)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return Run{}, err
	}

	rows, err := s.db.QueryContext(ctx, "SELECT name, percentage FROM run_themes WHERE run_id = ? ORDER BY position", id)
	if err != nil {
		return Run{}, fmt.Errorf("loading themes: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var th extract.Theme
		if err := rows.Scan(&th.Name, &th.Percentage); err != nil {
			return Run{}, fmt.Errorf("scanning theme: %w", err)
		}
		r.Themes = append(r.Themes, th)
	}
	return r, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (Run, error) {
	var r Run
	err := sc.Scan(&r.ID, &r.StartedAt, &r.FinishedAt, &r.Source, &r.Model, &r.ReasoningEffort,
		&r.TotalComments, &r.ChunkCount, &r.FailedChunks, &r.ReasoningTokens, &r.TotalTokens,
		&r.Sentiment.Positive, &r.Sentiment.Neutral, &r.Sentiment.Negative, &r.Status, &r.Error, &r.ReportPath)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("scanning run: %w", err)
	}
	return r, nil
}
