package screening

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/Subham170/AI-Recruitment-sub000/internal/domain"
	"github.com/Subham170/AI-Recruitment-sub000/internal/modules/calls"
	"github.com/Subham170/AI-Recruitment-sub000/internal/modules/tasks"
)

// AssignmentDirectory is the read surface recruiter assignment needs.
type AssignmentDirectory interface {
	GetJob(id string) (*domain.Job, error)
	GetCandidate(id string) (*domain.Candidate, error)
	GetRecruiter(id string) (*domain.Recruiter, error)
}

// AvailabilityChecker filters recruiters to those covering an instant.
type AvailabilityChecker interface {
	AvailableRecruiters(jobID string, recruiterIDs []string, t time.Time) ([]string, error)
}

// Notifier books a calendar invite for the interview.
type Notifier interface {
	CreateBooking(ctx context.Context, candidateName, candidateEmail, recruiterEmail string, when time.Time) (string, error)
}

// Assigner runs recruiter assignment over completed calls: pick a
// recruiter round-robin among those available at the interview time,
// create the interview task, and send the calendar invite once.
type Assigner struct {
	repo     *calls.Repository
	dir      AssignmentDirectory
	avail    AvailabilityChecker
	tasks    *tasks.Service
	notifier Notifier
	cfg      Config
	log      zerolog.Logger
}

// NewAssigner creates a new recruiter assigner. notifier may be nil
// when calendar booking is disabled; tasks are still created.
func NewAssigner(repo *calls.Repository, dir AssignmentDirectory, avail AvailabilityChecker, taskSvc *tasks.Service, notifier Notifier, cfg Config, log zerolog.Logger) *Assigner {
	return &Assigner{
		repo:     repo,
		dir:      dir,
		avail:    avail,
		tasks:    taskSvc,
		notifier: notifier,
		cfg:      cfg,
		log:      log.With().Str("component", "assignment").Logger(),
	}
}

// Assign processes one completed, not-yet-notified call record through
// assignment, task creation and notification. Each sub-step is
// idempotent so a partial failure resumes cleanly on the next tick. A
// job without recruiters is not an error: no task is created and the
// candidate is still notified alone. Failures charge the record's
// retry budget; at the budget the record is retired from the poll
// (lost races charge nothing).
func (a *Assigner) Assign(ctx context.Context, record *calls.CallRecord) error {
	err := a.assign(ctx, record)
	if err != nil && !errors.Is(err, domain.ErrRaceSkip) {
		a.chargeRetry(record.ExecutionID, err)
	}
	return err
}

func (a *Assigner) assign(ctx context.Context, record *calls.CallRecord) error {
	job, err := a.dir.GetJob(record.JobID)
	if err != nil {
		return fmt.Errorf("failed to load job %s: %w", record.JobID, err)
	}

	recruiterID := record.AssignedRecruiter
	if recruiterID == "" {
		recruiterID = a.pick(job, record.InterviewTime())
		if recruiterID == "" {
			a.log.Warn().
				Str("execution_id", record.ExecutionID).
				Str("job_id", job.ID).
				Msg("No recruiter to assign, notifying candidate only")
		} else {
			if err := a.repo.AssignRecruiter(record.ExecutionID, recruiterID, record.UpdatedAt); err != nil {
				return err
			}
			record, err = a.repo.GetByExecutionID(record.ExecutionID)
			if err != nil {
				return err
			}

			a.log.Info().
				Str("execution_id", record.ExecutionID).
				Str("recruiter_id", recruiterID).
				Msg("Recruiter assigned")
		}
	}

	taskID := ""
	if recruiterID != "" {
		task, err := a.tasks.CreateForCall(record.ExecutionID, recruiterID, record.CandidateID, record.JobID, record.InterviewTime())
		if err != nil {
			return fmt.Errorf("failed to create task for %s: %w", record.ExecutionID, err)
		}
		taskID = task.ID
	}

	if record.NotificationSent {
		return nil
	}

	if a.notifier != nil {
		if err := a.notify(ctx, record, recruiterID); err != nil {
			// notification_sent stays 0, the next tick retries
			return err
		}
	}

	if err := a.repo.MarkNotified(record.ExecutionID, record.UpdatedAt); err != nil {
		return err
	}

	a.log.Info().
		Str("execution_id", record.ExecutionID).
		Str("task_id", taskID).
		Str("recruiter_id", recruiterID).
		Msg("Interview notification sent")

	return nil
}

// pick selects the recruiter with the fewest assignments on the job
// among those available at the interview instant, ties broken by the
// job's recruiter order (primary first). When nobody is available, or
// when an availability or count lookup fails, the primary recruiter
// absorbs the interview. The empty result means the job has no
// recruiters at all.
func (a *Assigner) pick(job *domain.Job, interviewTime time.Time) string {
	recruiters := job.Recruiters()
	if len(recruiters) == 0 {
		return ""
	}

	available, err := a.avail.AvailableRecruiters(job.ID, recruiters, interviewTime)
	if err != nil {
		a.log.Warn().Err(err).
			Str("job_id", job.ID).
			Msg("Availability check failed, falling back to primary")
		return recruiters[0]
	}
	if len(available) == 0 {
		a.log.Warn().
			Str("job_id", job.ID).
			Time("interview_time", interviewTime).
			Msg("No recruiter available, falling back to primary")
		return recruiters[0]
	}

	counts, err := a.repo.CountAssignmentsByRecruiter(job.ID)
	if err != nil {
		a.log.Warn().Err(err).
			Str("job_id", job.ID).
			Msg("Assignment count failed, falling back to primary")
		return recruiters[0]
	}

	best := available[0]
	for _, id := range available[1:] {
		if counts[id] < counts[best] {
			best = id
		}
	}

	return best
}

// chargeRetry burns one retry for a failed assignment or notification
// attempt and retires the record once the budget is spent. The budget
// is shared with the screening stage; by the time assignment runs,
// screening has succeeded, so a surviving record normally arrives here
// with most of it intact.
func (a *Assigner) chargeRetry(executionID string, cause error) {
	record, err := a.repo.GetByExecutionID(executionID)
	if err != nil {
		a.log.Warn().Err(err).
			Str("execution_id", executionID).
			Msg("Failed to reload record for retry charge")
		return
	}

	if err := a.repo.IncrementRetry(executionID, record.UpdatedAt); err != nil {
		a.log.Warn().Err(err).
			Str("execution_id", executionID).
			Msg("Failed to charge retry")
		return
	}

	attempts := record.RetryCount + 1
	a.log.Warn().Err(cause).
		Str("execution_id", executionID).
		Int("attempts", attempts).
		Int("max_retries", a.cfg.MaxRetries).
		Msg("Assignment attempt failed")

	if attempts < a.cfg.MaxRetries {
		return
	}

	refreshed, err := a.repo.GetByExecutionID(executionID)
	if err != nil {
		a.log.Warn().Err(err).
			Str("execution_id", executionID).
			Msg("Failed to reload record for permanent failure")
		return
	}
	if err := a.repo.MarkPermanentlyFailed(executionID, refreshed.UpdatedAt); err != nil {
		a.log.Warn().Err(err).
			Str("execution_id", executionID).
			Msg("Failed to retire record")
		return
	}

	a.log.Error().
		Str("execution_id", executionID).
		Msg("Assignment permanently failed, retry budget spent")
}

func (a *Assigner) notify(ctx context.Context, record *calls.CallRecord, recruiterID string) error {
	candidate, err := a.dir.GetCandidate(record.CandidateID)
	if err != nil {
		return fmt.Errorf("failed to load candidate %s: %w", record.CandidateID, err)
	}

	recruiterEmail := ""
	if recruiterID != "" {
		recruiter, err := a.dir.GetRecruiter(recruiterID)
		if err == nil {
			recruiterEmail = recruiter.Email
		} else if !errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("failed to load recruiter %s: %w", recruiterID, err)
		}
	}

	ref, err := a.notifier.CreateBooking(ctx, candidate.Name, candidate.Email, recruiterEmail, record.InterviewTime())
	if err != nil {
		return fmt.Errorf("failed to book interview for %s: %w", record.ExecutionID, err)
	}

	a.log.Debug().
		Str("execution_id", record.ExecutionID).
		Str("booking_ref", ref).
		Msg("Calendar booking created")

	return nil
}
