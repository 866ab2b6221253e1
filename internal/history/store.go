// Package history persists batch runs and archive attempts. It is the only
// shared mutable state in the system: every risky external call is preceded
// by a write here, so a crash leaves an inspectable marker instead of silent
// loss.
package history

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hochfrequenz/case-archiver/internal/domain"
	_ "modernc.org/sqlite"
)

const dateLayout = "2006-01-02"

// Store provides SQLite-backed batch run and archive attempt persistence
type Store struct {
	db *sql.DB
}

// New creates a new Store with the given database path
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, err
	}

	// Run migrations
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateRun inserts a new batch run
func (s *Store) CreateRun(run *domain.BatchRun) error {
	now := time.Now()
	run.CreatedAt = now
	run.UpdatedAt = now

	_, err := s.db.Exec(`
		INSERT INTO batch_runs (id, start_date, end_date, batch_trigger, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID,
		run.Start.Format(dateLayout),
		run.End.Format(dateLayout),
		string(run.Trigger),
		string(run.Status),
		run.CreatedAt,
		run.UpdatedAt,
	)
	return err
}

// GetRun retrieves a batch run by id. Returns nil when no run exists.
func (s *Store) GetRun(id string) (*domain.BatchRun, error) {
	row := s.db.QueryRow(`
		SELECT id, start_date, end_date, batch_trigger, status, created_at, updated_at
		FROM batch_runs WHERE id = ?
	`, id)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return run, err
}

// LatestCompletedRun returns the completed run with the latest end date, or
// nil when no run has completed yet.
func (s *Store) LatestCompletedRun() (*domain.BatchRun, error) {
	row := s.db.QueryRow(`
		SELECT id, start_date, end_date, batch_trigger, status, created_at, updated_at
		FROM batch_runs WHERE status = ?
		ORDER BY end_date DESC, created_at DESC
		LIMIT 1
	`, string(domain.StatusCompleted))

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return run, err
}

// ListOptions specifies filters for listing batch runs
type ListOptions struct {
	Status domain.Status
}

// ListRuns returns batch runs matching the given options, newest first
func (s *Store) ListRuns(opts ListOptions) ([]*domain.BatchRun, error) {
	query := `SELECT id, start_date, end_date, batch_trigger, status, created_at, updated_at FROM batch_runs WHERE 1=1`
	var args []interface{}

	if opts.Status != "" {
		query += " AND status = ?"
		args = append(args, string(opts.Status))
	}

	query += " ORDER BY created_at DESC"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*domain.BatchRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

// UpdateRunStatus updates a batch run's status
func (s *Store) UpdateRunStatus(id string, status domain.Status) error {
	_, err := s.db.Exec(`UPDATE batch_runs SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), time.Now(), id)
	return err
}

// SaveAttempt inserts or updates an archive attempt
func (s *Store) SaveAttempt(attempt *domain.ArchiveAttempt) error {
	now := time.Now()
	if attempt.CreatedAt.IsZero() {
		attempt.CreatedAt = now
	}
	attempt.UpdatedAt = now

	_, err := s.db.Exec(`
		INSERT INTO archive_attempts (id, document_id, case_id, document_name, document_type, batch_run_id, status, archive_id, archive_url, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			batch_run_id = excluded.batch_run_id,
			status = excluded.status,
			archive_id = excluded.archive_id,
			archive_url = excluded.archive_url,
			updated_at = excluded.updated_at
	`,
		attempt.ID,
		attempt.DocumentID,
		attempt.CaseID,
		attempt.DocumentName,
		attempt.DocumentType,
		attempt.BatchRunID,
		string(attempt.Status),
		attempt.ArchiveID,
		attempt.ArchiveURL,
		attempt.CreatedAt,
		attempt.UpdatedAt,
	)
	return err
}

// GetAttempt retrieves the attempt for a (document, case) pair. Returns nil
// when the pair has never been attempted.
func (s *Store) GetAttempt(documentID, caseID string) (*domain.ArchiveAttempt, error) {
	row := s.db.QueryRow(`
		SELECT id, document_id, case_id, document_name, document_type, batch_run_id, status, archive_id, archive_url, created_at, updated_at
		FROM archive_attempts WHERE document_id = ? AND case_id = ?
	`, documentID, caseID)

	attempt, err := scanAttempt(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return attempt, err
}

// AttemptsByRun returns all attempts belonging to a batch run
func (s *Store) AttemptsByRun(batchRunID string) ([]*domain.ArchiveAttempt, error) {
	rows, err := s.db.Query(`
		SELECT id, document_id, case_id, document_name, document_type, batch_run_id, status, archive_id, archive_url, created_at, updated_at
		FROM archive_attempts WHERE batch_run_id = ?
		ORDER BY created_at
	`, batchRunID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attempts []*domain.ArchiveAttempt
	for rows.Next() {
		attempt, err := scanAttempt(rows)
		if err != nil {
			return nil, err
		}
		attempts = append(attempts, attempt)
	}

	return attempts, rows.Err()
}

// DeleteNotCompletedAttemptsByCase removes every unfinished attempt for a
// case. A case that has reached closure invalidates half-finished attempts
// from prior partial runs; the current run re-derives the document set.
func (s *Store) DeleteNotCompletedAttemptsByCase(caseID string) error {
	_, err := s.db.Exec(`DELETE FROM archive_attempts WHERE case_id = ? AND status = ?`,
		caseID, string(domain.StatusNotCompleted))
	return err
}

type scannable interface {
	Scan(dest ...interface{}) error
}

func scanRun(row scannable) (*domain.BatchRun, error) {
	var run domain.BatchRun
	var start, end, trigger, status string

	err := row.Scan(&run.ID, &start, &end, &trigger, &status, &run.CreatedAt, &run.UpdatedAt)
	if err != nil {
		return nil, err
	}

	run.Start, err = time.Parse(dateLayout, start)
	if err != nil {
		return nil, fmt.Errorf("parsing start date %q: %w", start, err)
	}
	run.End, err = time.Parse(dateLayout, end)
	if err != nil {
		return nil, fmt.Errorf("parsing end date %q: %w", end, err)
	}
	run.Trigger = domain.Trigger(trigger)
	run.Status = domain.Status(status)

	return &run, nil
}

func scanAttempt(row scannable) (*domain.ArchiveAttempt, error) {
	var attempt domain.ArchiveAttempt
	var status string
	var documentName, documentType, archiveID, archiveURL sql.NullString

	err := row.Scan(&attempt.ID, &attempt.DocumentID, &attempt.CaseID, &documentName, &documentType,
		&attempt.BatchRunID, &status, &archiveID, &archiveURL, &attempt.CreatedAt, &attempt.UpdatedAt)
	if err != nil {
		return nil, err
	}

	attempt.Status = domain.Status(status)
	attempt.DocumentName = documentName.String
	attempt.DocumentType = documentType.String
	attempt.ArchiveID = archiveID.String
	attempt.ArchiveURL = archiveURL.String

	return &attempt, nil
}
