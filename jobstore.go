package quash

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// JobStore is an append-only ledger of background jobs kept in SQLite.
type JobStore struct {
	db   *sql.DB
	mu   sync.Mutex
	path string
}

// JobRecord is one ledger row.
type JobRecord struct {
	SessionID  string
	JobID      int
	PID        int
	Name       string
	OutputPath string
	StartedAt  time.Time
	FinishedAt *time.Time
	Status     *int
}

func NewJobStore(path string) (*JobStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory for job store: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	store := &JobStore{db: db, path: path}
	if err := store.initDB(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize job store: %w", err)
	}
	return store, nil
}

func (s *JobStore) initDB() error {
	schema := `
	CREATE TABLE IF NOT EXISTS jobs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		job_id INTEGER NOT NULL,
		pid INTEGER NOT NULL,
		name TEXT NOT NULL,
		output_path TEXT NOT NULL,
		started_at INTEGER NOT NULL,
		finished_at INTEGER,
		status INTEGER,
		UNIQUE(session_id, job_id)
	);

	CREATE INDEX IF NOT EXISTS idx_jobs_session ON jobs(session_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *JobStore) Close() error {
	return s.db.Close()
}

// RecordStart inserts a row for a job that has just been launched.
func (s *JobStore) RecordStart(sessionID string, job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(
		`INSERT INTO jobs (session_id, job_id, pid, name, output_path, started_at) VALUES (?, ?, ?, ?, ?, ?)`,
		sessionID, job.ID, job.PID, job.Name, job.OutputPath, job.Started.UnixNano(),
	)
	return err
}

// RecordFinish stamps completion time and exit status on an existing row.
func (s *JobStore) RecordFinish(sessionID string, job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(
		`UPDATE jobs SET finished_at = ?, status = ? WHERE session_id = ? AND job_id = ? AND finished_at IS NULL`,
		job.Finished.UnixNano(), job.ExitStatus, sessionID, job.ID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("job %d of session %s: %w", job.ID, sessionID, ErrNoSuchJob)
	}
	return nil
}

// History returns the jobs of one session in job ID order.
func (s *JobStore) History(sessionID string) ([]JobRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(
		`SELECT session_id, job_id, pid, name, output_path, started_at, finished_at, status
		FROM jobs WHERE session_id = ? ORDER BY job_id`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []JobRecord
	for rows.Next() {
		var (
			rec      JobRecord
			started  int64
			finished sql.NullInt64
			status   sql.NullInt64
		)
		if err := rows.Scan(&rec.SessionID, &rec.JobID, &rec.PID, &rec.Name, &rec.OutputPath, &started, &finished, &status); err != nil {
			return nil, err
		}
		rec.StartedAt = time.Unix(0, started)
		if finished.Valid {
			t := time.Unix(0, finished.Int64)
			rec.FinishedAt = &t
		}
		if status.Valid {
			code := int(status.Int64)
			rec.Status = &code
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
