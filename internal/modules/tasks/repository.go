package tasks

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Subham170/AI-Recruitment-sub000/internal/domain"
)

// Repository handles task database operations (core.db).
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new task repository.
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "tasks").Logger(),
	}
}

// Create persists a new task. The call record's execution id carries a
// uniqueness constraint, so a second create for the same call returns
// an error rather than a duplicate task.
func (r *Repository) Create(task *Task) error {
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	if task.Status == "" {
		task.Status = domain.TaskStatusScheduled
	}
	now := time.Now().UTC().Unix()

	_, err := r.db.Exec(`
		INSERT INTO tasks (id, call_record_execution_id, recruiter_id, candidate_id, job_id, interview_time, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		task.ID, task.CallRecordExecutionID, task.RecruiterID, task.CandidateID,
		task.JobID, task.InterviewTime.Unix(), string(task.Status), now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to insert task for call %s: %w", task.CallRecordExecutionID, err)
	}

	task.CreatedAt = time.Unix(now, 0).UTC()
	task.UpdatedAt = task.CreatedAt
	return nil
}

// Get returns one task, or domain.ErrNotFound.
func (r *Repository) Get(id string) (*Task, error) {
	row := r.db.QueryRow(`
		SELECT id, call_record_execution_id, recruiter_id, candidate_id, job_id, interview_time, status, created_at, updated_at
		FROM tasks WHERE id = ?`, id)

	task, err := scanTask(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return task, err
}

// GetByExecutionID returns the task for a call record, or
// domain.ErrNotFound.
func (r *Repository) GetByExecutionID(executionID string) (*Task, error) {
	row := r.db.QueryRow(`
		SELECT id, call_record_execution_id, recruiter_id, candidate_id, job_id, interview_time, status, created_at, updated_at
		FROM tasks WHERE call_record_execution_id = ?`, executionID)

	task, err := scanTask(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return task, err
}

// ListByRecruiter returns a recruiter's tasks ordered by interview time.
func (r *Repository) ListByRecruiter(recruiterID string) ([]*Task, error) {
	rows, err := r.db.Query(`
		SELECT id, call_record_execution_id, recruiter_id, candidate_id, job_id, interview_time, status, created_at, updated_at
		FROM tasks WHERE recruiter_id = ? ORDER BY interview_time`, recruiterID)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

	var result []*Task
	for rows.Next() {
		task, err := scanTask(rows.Scan)
		if err != nil {
			return nil, err
		}
		result = append(result, task)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tasks: %w", err)
	}

	return result, nil
}

// UpdateStatus persists a status change.
func (r *Repository) UpdateStatus(id string, status domain.TaskStatus) error {
	result, err := r.db.Exec(
		`UPDATE tasks SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), time.Now().UTC().Unix(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update task %s: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}

	return nil
}

func scanTask(scan func(dest ...interface{}) error) (*Task, error) {
	var task Task
	var status string
	var interviewTime, createdAt, updatedAt int64

	err := scan(
		&task.ID,
		&task.CallRecordExecutionID,
		&task.RecruiterID,
		&task.CandidateID,
		&task.JobID,
		&interviewTime,
		&status,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan task: %w", err)
	}

	task.Status = domain.TaskStatus(status)
	task.InterviewTime = time.Unix(interviewTime, 0).UTC()
	task.CreatedAt = time.Unix(createdAt, 0).UTC()
	task.UpdatedAt = time.Unix(updatedAt, 0).UTC()

	return &task, nil
}
