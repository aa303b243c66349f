package calls

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/Subham170/AI-Recruitment-sub000/internal/domain"
)

// Repository handles call record database operations (core.db).
//
// Mutations carry an optimistic-concurrency guard: the caller passes the
// updated_at it read, and a mismatch means another tick or a user action
// advanced the record first, reported as domain.ErrRaceSkip.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new call record repository.
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "calls").Logger(),
	}
}

const callColumns = `id, execution_id, candidate_id, job_id, status, call_scheduled_at,
	user_scheduled_at, screening_status, screening_score, screening_analyzed_at,
	transcript, assigned_recruiter, notification_sent, retry_count, permanently_failed,
	created_at, updated_at`

// Create persists a new call record keyed by the provider execution id.
func (r *Repository) Create(record *CallRecord) error {
	now := time.Now().UTC().Unix()

	var userScheduled interface{}
	if record.UserScheduledAt != nil {
		userScheduled = record.UserScheduledAt.Unix()
	}

	result, err := r.db.Exec(`
		INSERT INTO call_records (
			execution_id, candidate_id, job_id, status, call_scheduled_at,
			user_scheduled_at, screening_status, notification_sent,
			retry_count, permanently_failed, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, 0, 0, 0, ?, ?)`,
		record.ExecutionID, record.CandidateID, record.JobID,
		string(record.Status), record.CallScheduledAt.Unix(),
		userScheduled, string(record.ScreeningStatus), now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to insert call record %s: %w", record.ExecutionID, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read call record id: %w", err)
	}
	record.ID = id
	record.CreatedAt = time.Unix(now, 0).UTC()
	record.UpdatedAt = record.CreatedAt

	return nil
}

// GetByExecutionID returns one call record, or domain.ErrNotFound.
func (r *Repository) GetByExecutionID(executionID string) (*CallRecord, error) {
	row := r.db.QueryRow(
		`SELECT `+callColumns+` FROM call_records WHERE execution_id = ?`, executionID)
	return scanCallRecord(row)
}

// GetByJobAndCandidate returns the call record for a (job, candidate)
// pair, or domain.ErrNotFound. Used to short-circuit batch scheduling.
func (r *Repository) GetByJobAndCandidate(jobID, candidateID string) (*CallRecord, error) {
	row := r.db.QueryRow(
		`SELECT `+callColumns+` FROM call_records WHERE job_id = ? AND candidate_id = ?`,
		jobID, candidateID)
	return scanCallRecord(row)
}

// ListByJob returns all call records for a job, newest first.
func (r *Repository) ListByJob(jobID string) ([]*CallRecord, error) {
	return r.list(`SELECT `+callColumns+` FROM call_records WHERE job_id = ? ORDER BY created_at DESC`, jobID)
}

// ListStoppable returns the job's records that still satisfy the stop
// invariant at now.
func (r *Repository) ListStoppable(jobID string, now time.Time) ([]*CallRecord, error) {
	return r.list(`
		SELECT `+callColumns+` FROM call_records
		WHERE job_id = ? AND status IN (?, ?) AND call_scheduled_at > ?
		ORDER BY call_scheduled_at`,
		jobID, string(domain.CallStatusScheduled), string(domain.CallStatusInProgress), now.Unix())
}

// ListDueForStatusSync returns records whose scheduled time has passed
// but whose status is not yet terminal, bounded to the lookback window.
func (r *Repository) ListDueForStatusSync(now time.Time, lookback time.Duration) ([]*CallRecord, error) {
	return r.list(`
		SELECT `+callColumns+` FROM call_records
		WHERE status IN (?, ?)
		  AND call_scheduled_at <= ?
		  AND call_scheduled_at >= ?
		ORDER BY call_scheduled_at`,
		string(domain.CallStatusScheduled), string(domain.CallStatusInProgress),
		now.Unix(), now.Add(-lookback).Unix())
}

// ListScreenable returns completed records inside the cool-down window
// that still await a transcript and scoring.
func (r *Repository) ListScreenable(now time.Time, cooldownMin, cooldownMax time.Duration) ([]*CallRecord, error) {
	return r.list(`
		SELECT `+callColumns+` FROM call_records
		WHERE status = ?
		  AND screening_status = ?
		  AND permanently_failed = 0
		  AND (transcript IS NULL OR transcript = '')
		  AND updated_at <= ?
		  AND updated_at >= ?
		ORDER BY updated_at`,
		string(domain.CallStatusCompleted), string(domain.ScreeningPending),
		now.Add(-cooldownMin).Unix(), now.Add(-cooldownMax).Unix())
}

// ListScreeningBacklog returns records that aged past the cool-down
// window while still pending. The dead-letter sweep feeds these back
// through the screening path.
func (r *Repository) ListScreeningBacklog(now time.Time, cooldownMax time.Duration, limit int) ([]*CallRecord, error) {
	return r.list(`
		SELECT `+callColumns+` FROM call_records
		WHERE status = ?
		  AND screening_status = ?
		  AND permanently_failed = 0
		  AND updated_at < ?
		ORDER BY updated_at
		LIMIT ?`,
		string(domain.CallStatusCompleted), string(domain.ScreeningPending),
		now.Add(-cooldownMax).Unix(), limit)
}

// ListAssignable returns completed records inside the lookback window
// that have not been notified yet.
func (r *Repository) ListAssignable(now time.Time, lookback time.Duration) ([]*CallRecord, error) {
	return r.list(`
		SELECT `+callColumns+` FROM call_records
		WHERE status = ?
		  AND notification_sent = 0
		  AND permanently_failed = 0
		  AND updated_at >= ?
		ORDER BY updated_at`,
		string(domain.CallStatusCompleted), now.Add(-lookback).Unix())
}

// CountAssignmentsByRecruiter aggregates recruiter assignments over a
// job's call records. Input to round-robin selection.
func (r *Repository) CountAssignmentsByRecruiter(jobID string) (map[string]int, error) {
	rows, err := r.db.Query(`
		SELECT assigned_recruiter, COUNT(*) FROM call_records
		WHERE job_id = ? AND assigned_recruiter IS NOT NULL AND assigned_recruiter != ''
		GROUP BY assigned_recruiter`,
		jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to count assignments: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var recruiter string
		var count int
		if err := rows.Scan(&recruiter, &count); err != nil {
			return nil, fmt.Errorf("failed to scan assignment count: %w", err)
		}
		counts[recruiter] = count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating assignment counts: %w", err)
	}

	return counts, nil
}

// UpdateStatus transitions a record's call status under the guard.
func (r *Repository) UpdateStatus(executionID string, status domain.CallStatus, expectedUpdatedAt time.Time) error {
	return r.guardedUpdate(executionID, expectedUpdatedAt,
		`status = ?`, string(status))
}

// SetTranscript stores the fetched transcript under the guard.
func (r *Repository) SetTranscript(executionID, transcript string, expectedUpdatedAt time.Time) error {
	return r.guardedUpdate(executionID, expectedUpdatedAt,
		`transcript = ?`, transcript)
}

// SetUserScheduledAt stores the interview time extracted from the
// transcript under the guard.
func (r *Repository) SetUserScheduledAt(executionID string, at time.Time, expectedUpdatedAt time.Time) error {
	return r.guardedUpdate(executionID, expectedUpdatedAt,
		`user_scheduled_at = ?`, at.Unix())
}

// SetScreeningResult records a finished scoring pass under the guard.
func (r *Repository) SetScreeningResult(executionID string, score int, analyzedAt time.Time, expectedUpdatedAt time.Time) error {
	return r.guardedUpdate(executionID, expectedUpdatedAt,
		`screening_status = ?, screening_score = ?, screening_analyzed_at = ?`,
		string(domain.ScreeningCompleted), score, analyzedAt.Unix())
}

// MarkScreeningFailed moves the record to the failed screening state and
// flags it permanently failed so polls exclude it.
func (r *Repository) MarkScreeningFailed(executionID string, expectedUpdatedAt time.Time) error {
	return r.guardedUpdate(executionID, expectedUpdatedAt,
		`screening_status = ?, permanently_failed = 1`,
		string(domain.ScreeningFailed))
}

// MarkPermanentlyFailed retires a record from the polling pipelines
// without touching its screening outcome. Used when the assignment or
// notification stage spends its retry budget after screening already
// completed.
func (r *Repository) MarkPermanentlyFailed(executionID string, expectedUpdatedAt time.Time) error {
	return r.guardedUpdate(executionID, expectedUpdatedAt,
		`permanently_failed = 1`)
}

// IncrementRetry bumps the per-record retry budget under the guard.
func (r *Repository) IncrementRetry(executionID string, expectedUpdatedAt time.Time) error {
	return r.guardedUpdate(executionID, expectedUpdatedAt,
		`retry_count = retry_count + 1`)
}

// AssignRecruiter stores the round-robin selection under the guard.
func (r *Repository) AssignRecruiter(executionID, recruiterID string, expectedUpdatedAt time.Time) error {
	return r.guardedUpdate(executionID, expectedUpdatedAt,
		`assigned_recruiter = ?`, recruiterID)
}

// MarkNotified flips the notification flag under the guard. The flag is
// the idempotence barrier against double-sent invites.
func (r *Repository) MarkNotified(executionID string, expectedUpdatedAt time.Time) error {
	return r.guardedUpdate(executionID, expectedUpdatedAt,
		`notification_sent = 1`)
}

// guardedUpdate applies a SET clause iff updated_at still matches what
// the caller read. Zero rows affected on an existing record means a
// concurrent mutation won: domain.ErrRaceSkip.
func (r *Repository) guardedUpdate(executionID string, expectedUpdatedAt time.Time, setClause string, args ...interface{}) error {
	query := `UPDATE call_records SET ` + setClause + `, updated_at = ? WHERE execution_id = ? AND updated_at = ?`
	args = append(args, time.Now().UTC().Unix(), executionID, expectedUpdatedAt.Unix())

	result, err := r.db.Exec(query, args...)
	if err != nil {
		return fmt.Errorf("failed to update call record %s: %w", executionID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected > 0 {
		return nil
	}

	// Distinguish a lost race from a missing record
	var exists int
	err = r.db.QueryRow(`SELECT 1 FROM call_records WHERE execution_id = ?`, executionID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to check call record %s: %w", executionID, err)
	}

	return domain.ErrRaceSkip
}

func (r *Repository) list(query string, args ...interface{}) ([]*CallRecord, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query call records: %w", err)
	}
	defer rows.Close()

	var records []*CallRecord
	for rows.Next() {
		record, err := scanCallRecordRow(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating call records: %w", err)
	}

	return records, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanCallRecord(row *sql.Row) (*CallRecord, error) {
	record, err := scanFrom(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return record, err
}

func scanCallRecordRow(rows *sql.Rows) (*CallRecord, error) {
	return scanFrom(rows)
}

func scanFrom(s rowScanner) (*CallRecord, error) {
	var record CallRecord
	var status, screeningStatus string
	var callScheduledAt, createdAt, updatedAt int64
	var userScheduledAt, screeningScore, screeningAnalyzedAt sql.NullInt64
	var transcript, assignedRecruiter sql.NullString
	var notificationSent, permanentlyFailed int

	err := s.Scan(
		&record.ID,
		&record.ExecutionID,
		&record.CandidateID,
		&record.JobID,
		&status,
		&callScheduledAt,
		&userScheduledAt,
		&screeningStatus,
		&screeningScore,
		&screeningAnalyzedAt,
		&transcript,
		&assignedRecruiter,
		&notificationSent,
		&record.RetryCount,
		&permanentlyFailed,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan call record: %w", err)
	}

	record.Status = domain.CallStatus(status)
	record.ScreeningStatus = domain.ScreeningStatus(screeningStatus)
	record.CallScheduledAt = time.Unix(callScheduledAt, 0).UTC()
	record.CreatedAt = time.Unix(createdAt, 0).UTC()
	record.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	record.NotificationSent = notificationSent != 0
	record.PermanentlyFailed = permanentlyFailed != 0

	if userScheduledAt.Valid {
		t := time.Unix(userScheduledAt.Int64, 0).UTC()
		record.UserScheduledAt = &t
	}
	if screeningScore.Valid {
		score := int(screeningScore.Int64)
		record.ScreeningScore = &score
	}
	if screeningAnalyzedAt.Valid {
		t := time.Unix(screeningAnalyzedAt.Int64, 0).UTC()
		record.ScreeningAnalyzedAt = &t
	}
	if transcript.Valid {
		record.Transcript = transcript.String
	}
	if assignedRecruiter.Valid {
		record.AssignedRecruiter = assignedRecruiter.String
	}

	return &record, nil
}
