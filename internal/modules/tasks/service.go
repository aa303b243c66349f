package tasks

import (
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/Subham170/AI-Recruitment-sub000/internal/domain"
)

// Service implements task queue operations.
type Service struct {
	repo  *Repository
	clock domain.Clock
	log   zerolog.Logger
}

// NewService creates a new task service.
func NewService(repo *Repository, clock domain.Clock, log zerolog.Logger) *Service {
	return &Service{
		repo:  repo,
		clock: clock,
		log:   log.With().Str("component", "tasks").Logger(),
	}
}

// CreateForCall creates the task for one notified call record. When the
// task already exists (the assignment tick retried after a partial
// failure) the existing task is returned unchanged.
func (s *Service) CreateForCall(executionID, recruiterID, candidateID, jobID string, interviewTime time.Time) (*Task, error) {
	if existing, err := s.repo.GetByExecutionID(executionID); err == nil {
		return existing, nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	task := &Task{
		CallRecordExecutionID: executionID,
		RecruiterID:           recruiterID,
		CandidateID:           candidateID,
		JobID:                 jobID,
		InterviewTime:         interviewTime,
		Status:                domain.TaskStatusScheduled,
	}
	if err := s.repo.Create(task); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("task_id", task.ID).
		Str("execution_id", executionID).
		Str("recruiter_id", recruiterID).
		Time("interview_time", interviewTime).
		Msg("Interview task created")

	return task, nil
}

// ListByRecruiter returns a recruiter's task queue.
func (s *Service) ListByRecruiter(recruiterID string) ([]*Task, error) {
	return s.repo.ListByRecruiter(recruiterID)
}

// Get returns one task.
func (s *Service) Get(id string) (*Task, error) {
	return s.repo.Get(id)
}

// SetStatus transitions a task. Completion is only accepted once the
// interview time has passed; the other transitions follow the task
// state machine.
func (s *Service) SetStatus(id string, status domain.TaskStatus) (*Task, error) {
	task, err := s.repo.Get(id)
	if err != nil {
		return nil, err
	}

	if !task.Status.CanTransition(status) {
		return nil, domain.NewInvariantError("task-status",
			"task %s is %s and cannot become %s", id, task.Status, status)
	}
	if status == domain.TaskStatusCompleted && s.clock.Now().Before(task.InterviewTime) {
		return nil, domain.NewInvariantError("task-completion",
			"task %s cannot complete before its interview time", id)
	}

	if err := s.repo.UpdateStatus(id, status); err != nil {
		return nil, err
	}
	task.Status = status

	s.log.Info().
		Str("task_id", id).
		Str("status", string(status)).
		Msg("Task status updated")

	return task, nil
}
