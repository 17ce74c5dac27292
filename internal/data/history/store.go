// # internal/data/history/store.go
package history

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const (
	driverName  = "sqlite"
	maxAttempts = 5
)

// Run is one invocation of the migrator.
type Run struct {
	ID             string
	ProjectKey     string
	Timestamp      time.Time
	TSConfig       string
	DryRun         bool
	FileCount      int
	ModuleCount    int
	CandidateCount int
	FilesWritten   int
	Duration       time.Duration
	Entries        []Entry
}

// Entry is the outcome for one candidate module. Reason is empty for
// converted modules.
type Entry struct {
	File           string
	Module         string
	Artifact       string
	Kind           string
	CarriedImports []string
	Reason         string
	Detail         string
}

func (e Entry) Converted() bool {
	return e.Reason == ""
}

func (r Run) ConvertedCount() int {
	n := 0
	for _, e := range r.Entries {
		if e.Converted() {
			n++
		}
	}
	return n
}

func (r Run) SkippedCount() int {
	return len(r.Entries) - r.ConvertedCount()
}

type Store struct {
	path string
	db   *sql.DB
	mu   sync.Mutex
}

func Open(path string) (*Store, error) {
	cleanPath := strings.TrimSpace(path)
	if cleanPath == "" {
		return nil, fmt.Errorf("history path must not be empty")
	}
	if info, err := os.Stat(cleanPath); err == nil && info.IsDir() {
		return nil, fmt.Errorf("history path %q is a directory, expected file", cleanPath)
	}

	dir := filepath.Dir(cleanPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history directory %q: %w", dir, err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(2000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)", cleanPath)
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite history %q: %w", cleanPath, err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite history %q: %w", cleanPath, err)
	}
	if err := EnsureSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize sqlite schema %q: %w", cleanPath, err)
	}

	return &Store{path: cleanPath, db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// SaveRun stores run with its entries in one transaction and returns the run
// id, generating one when run.ID is empty.
func (s *Store) SaveRun(run Run) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(run.ProjectKey) == "" {
		run.ProjectKey = "default"
	}
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.Timestamp.IsZero() {
		run.Timestamp = time.Now().UTC()
	}

	err := s.withRetry("save run", func() error {
		tx, err := s.db.Begin()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(`
INSERT INTO runs (
  id, project_key, ts_utc, tsconfig, dry_run, file_count, module_count,
  candidate_count, converted_count, skipped_count, files_written, duration_ms
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			run.ID,
			run.ProjectKey,
			run.Timestamp.UTC().Format(time.RFC3339Nano),
			run.TSConfig,
			run.DryRun,
			run.FileCount,
			run.ModuleCount,
			run.CandidateCount,
			run.ConvertedCount(),
			run.SkippedCount(),
			run.FilesWritten,
			run.Duration.Milliseconds(),
		); err != nil {
			_ = tx.Rollback()
			return err
		}
		for i, e := range run.Entries {
			if _, err := tx.Exec(`
INSERT INTO conversions (run_id, seq, file, module, artifact, kind, carried_imports, reason, detail)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				run.ID, i, e.File, e.Module, e.Artifact, e.Kind,
				strings.Join(e.CarriedImports, ","), e.Reason, e.Detail,
			); err != nil {
				_ = tx.Rollback()
				return err
			}
		}
		return tx.Commit()
	})
	if err != nil {
		return "", err
	}
	return run.ID, nil
}

// LoadRuns returns up to limit runs of projectKey, newest first. A limit of
// zero or less returns every run.
func (s *Store) LoadRuns(projectKey string, limit int) ([]Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	projectKey = strings.TrimSpace(projectKey)
	if projectKey == "" {
		projectKey = "default"
	}

	query := `
SELECT id, project_key, ts_utc, tsconfig, dry_run, file_count, module_count,
  candidate_count, files_written, duration_ms
FROM runs
WHERE project_key = ?
ORDER BY ts_utc DESC, id ASC`
	args := []any{projectKey}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	var rows *sql.Rows
	err := s.withRetry("load runs", func() error {
		var qErr error
		rows, qErr = s.db.Query(query, args...)
		return qErr
	})
	if err != nil {
		return nil, err
	}

	var runs []Run
	for rows.Next() {
		var (
			run        Run
			tsRaw      string
			durationMS int64
		)
		if err := rows.Scan(
			&run.ID,
			&run.ProjectKey,
			&tsRaw,
			&run.TSConfig,
			&run.DryRun,
			&run.FileCount,
			&run.ModuleCount,
			&run.CandidateCount,
			&run.FilesWritten,
			&durationMS,
		); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan run row: %w", err)
		}
		ts, err := time.Parse(time.RFC3339Nano, tsRaw)
		if err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("parse run timestamp %q: %w", tsRaw, err)
		}
		run.Timestamp = ts.UTC()
		run.Duration = time.Duration(durationMS) * time.Millisecond
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("iterate run rows: %w", err)
	}
	_ = rows.Close()

	for i := range runs {
		entries, err := s.loadEntries(runs[i].ID)
		if err != nil {
			return nil, err
		}
		runs[i].Entries = entries
	}
	return runs, nil
}

func (s *Store) loadEntries(runID string) ([]Entry, error) {
	rows, err := s.db.Query(`
SELECT file, module, artifact, kind, carried_imports, reason, detail
FROM conversions
WHERE run_id = ?
ORDER BY seq ASC`, runID)
	if err != nil {
		return nil, fmt.Errorf("load conversions of run %s: %w", runID, err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e       Entry
			carried string
		)
		if err := rows.Scan(&e.File, &e.Module, &e.Artifact, &e.Kind, &carried, &e.Reason, &e.Detail); err != nil {
			return nil, fmt.Errorf("scan conversion row: %w", err)
		}
		if carried != "" {
			e.CarriedImports = strings.Split(carried, ",")
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate conversion rows: %w", err)
	}
	return entries, nil
}

func (s *Store) withRetry(op string, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if !isLockError(err) || attempt == maxAttempts {
			break
		}
		time.Sleep(time.Duration(attempt*25) * time.Millisecond)
	}
	return fmt.Errorf("%s: %w", op, lastErr)
}

func isLockError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "busy")
}

func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

func IsCorruptError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "malformed") || strings.Contains(msg, "not a database") || errors.Is(err, os.ErrInvalid)
}
