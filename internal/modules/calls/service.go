// Package calls owns the screening-call lifecycle: scheduling with the
// voice provider, the stop window, status reconciliation and the record
// each downstream stage (screening, assignment) hangs its state on.
package calls

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/Subham170/AI-Recruitment-sub000/internal/clients/bolna"
	"github.com/Subham170/AI-Recruitment-sub000/internal/domain"
)

// CallProvider is the voice-AI provider surface the service needs.
type CallProvider interface {
	ScheduleCall(ctx context.Context, phone string, when time.Time, metadata map[string]string) (string, error)
	StopCall(ctx context.Context, executionID string) error
	GetExecution(ctx context.Context, executionID string) (*bolna.Execution, error)
}

// Directory is the read surface over jobs and candidates.
type Directory interface {
	GetJob(id string) (*domain.Job, error)
	GetCandidate(id string) (*domain.Candidate, error)
}

// Config holds call scheduling tunables.
type Config struct {
	// ScheduleDelay is the lead time between a schedule request and
	// the instant the provider places the call. The stop window.
	ScheduleDelay time.Duration

	// BatchItemGap is the pause between consecutive provider calls
	// in a batch, to stay under provider rate limits.
	BatchItemGap time.Duration
}

// Service implements call lifecycle operations.
type Service struct {
	repo     *Repository
	dir      Directory
	provider CallProvider
	clock    domain.Clock
	cfg      Config
	log      zerolog.Logger
}

// NewService creates a new call lifecycle service.
func NewService(repo *Repository, dir Directory, provider CallProvider, clock domain.Clock, cfg Config, log zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		dir:      dir,
		provider: provider,
		clock:    clock,
		cfg:      cfg,
		log:      log.With().Str("component", "calls").Logger(),
	}
}

// Schedule books one screening call for a candidate against a job at
// when (zero means now). The call is placed ScheduleDelay after the
// requested instant so the candidate keeps a window to stop it.
func (s *Service) Schedule(ctx context.Context, jobID, candidateID string, when time.Time) (*CallRecord, error) {
	if _, err := s.dir.GetJob(jobID); err != nil {
		return nil, fmt.Errorf("failed to load job %s: %w", jobID, err)
	}

	candidate, err := s.dir.GetCandidate(candidateID)
	if err != nil {
		return nil, fmt.Errorf("failed to load candidate %s: %w", candidateID, err)
	}
	if candidate.Phone == "" {
		return nil, domain.NewValidationError("phone", "candidate has no phone number")
	}

	if existing, err := s.repo.GetByJobAndCandidate(jobID, candidateID); err == nil {
		return existing, domain.NewValidationError("candidate_id",
			fmt.Sprintf("candidate %s already has a call for job %s", candidateID, jobID))
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	if when.IsZero() {
		when = s.clock.Now()
	}
	callAt := when.Add(s.cfg.ScheduleDelay)

	executionID, err := s.provider.ScheduleCall(ctx, candidate.Phone, callAt, map[string]string{
		"job_id":       jobID,
		"candidate_id": candidateID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to schedule call for candidate %s: %w", candidateID, err)
	}

	record := &CallRecord{
		ExecutionID:     executionID,
		CandidateID:     candidateID,
		JobID:           jobID,
		Status:          domain.CallStatusScheduled,
		CallScheduledAt: callAt,
		ScreeningStatus: domain.ScreeningPending,
	}
	if err := s.repo.Create(record); err != nil {
		return nil, fmt.Errorf("failed to persist call record %s: %w", executionID, err)
	}

	s.log.Info().
		Str("execution_id", executionID).
		Str("job_id", jobID).
		Str("candidate_id", candidateID).
		Time("call_scheduled_at", callAt).
		Msg("Screening call scheduled")

	return record, nil
}

// ScheduleBatch books calls for a set of candidates against one job,
// sequentially with a rate-limit gap. Item i is scheduled for
// baseTime + i*gap (zero baseTime means now), so the staggering shows
// in the placed call times, not only in the request pacing. Candidates
// that already hold a call for the job are reported, not re-scheduled.
// The batch succeeds when at least one call is booked.
func (s *Service) ScheduleBatch(ctx context.Context, jobID string, candidateIDs []string, baseTime time.Time) (*BatchResult, error) {
	if len(candidateIDs) == 0 {
		return nil, domain.NewValidationError("candidate_ids", "must not be empty")
	}
	if _, err := s.dir.GetJob(jobID); err != nil {
		return nil, fmt.Errorf("failed to load job %s: %w", jobID, err)
	}
	if baseTime.IsZero() {
		baseTime = s.clock.Now()
	}

	result := &BatchResult{Items: make([]BatchItemResult, 0, len(candidateIDs))}

	for i, candidateID := range candidateIDs {
		if i > 0 && s.cfg.BatchItemGap > 0 {
			time.Sleep(s.cfg.BatchItemGap)
		}

		item := s.scheduleOne(ctx, jobID, candidateID, baseTime.Add(time.Duration(i)*s.cfg.BatchItemGap))
		if item.Success && !item.AlreadyScheduled {
			result.Scheduled++
		}
		result.Items = append(result.Items, item)
	}

	result.Success = result.Scheduled > 0

	s.log.Info().
		Str("job_id", jobID).
		Int("requested", len(candidateIDs)).
		Int("scheduled", result.Scheduled).
		Msg("Batch schedule finished")

	return result, nil
}

func (s *Service) scheduleOne(ctx context.Context, jobID, candidateID string, when time.Time) BatchItemResult {
	item := BatchItemResult{CandidateID: candidateID}

	if existing, err := s.repo.GetByJobAndCandidate(jobID, candidateID); err == nil {
		item.Success = true
		item.AlreadyScheduled = true
		item.ExecutionID = existing.ExecutionID
		return item
	} else if !errors.Is(err, domain.ErrNotFound) {
		item.Error = err.Error()
		return item
	}

	record, err := s.Schedule(ctx, jobID, candidateID, when)
	if err != nil {
		item.Error = err.Error()
		if perr, ok := domain.AsProviderError(err); ok {
			item.ErrorCode = perr.Code
			item.HTTPStatus = perr.HTTPStatus
		}
		s.log.Warn().
			Err(err).
			Str("job_id", jobID).
			Str("candidate_id", candidateID).
			Msg("Batch item failed")
		return item
	}

	item.Success = true
	item.ExecutionID = record.ExecutionID
	return item
}

// Stop cancels a call that has not gone live yet. Once the scheduled
// instant passes the call can no longer be stopped.
func (s *Service) Stop(ctx context.Context, executionID string) error {
	record, err := s.repo.GetByExecutionID(executionID)
	if err != nil {
		return err
	}

	now := s.clock.Now()
	if !record.CanStop(now) {
		return domain.NewInvariantError("stop-window",
			"call %s is past its scheduled time and cannot be stopped", executionID)
	}
	if !record.Status.CanTransition(domain.CallStatusStopped) {
		return domain.NewInvariantError("call-status",
			"call %s is %s and cannot be stopped", executionID, record.Status)
	}

	if err := s.provider.StopCall(ctx, executionID); err != nil {
		return fmt.Errorf("provider refused to stop call %s: %w", executionID, err)
	}

	if err := s.repo.UpdateStatus(executionID, domain.CallStatusStopped, record.UpdatedAt); err != nil {
		return err
	}

	s.log.Info().Str("execution_id", executionID).Msg("Call stopped")
	return nil
}

// StopAllForJob cancels every still-stoppable call under a job. Failures
// are collected rather than aborting the loop.
func (s *Service) StopAllForJob(ctx context.Context, jobID string) (*StopAllResult, error) {
	records, err := s.repo.ListStoppable(jobID, s.clock.Now())
	if err != nil {
		return nil, err
	}

	result := &StopAllResult{}
	for _, record := range records {
		if err := s.Stop(ctx, record.ExecutionID); err != nil {
			result.Failures = append(result.Failures, BatchItemResult{
				CandidateID: record.CandidateID,
				ExecutionID: record.ExecutionID,
				Error:       err.Error(),
			})
			continue
		}
		result.Stopped++
	}

	s.log.Info().
		Str("job_id", jobID).
		Int("stopped", result.Stopped).
		Int("failed", len(result.Failures)).
		Msg("Stopped calls for job")

	return result, nil
}

// GetStatus returns the current call status, refreshed from the
// provider when possible. A provider failure degrades to the persisted
// status instead of erroring.
func (s *Service) GetStatus(ctx context.Context, executionID string) (*StatusView, error) {
	record, err := s.repo.GetByExecutionID(executionID)
	if err != nil {
		return nil, err
	}

	view := &StatusView{
		ExecutionID:     record.ExecutionID,
		Status:          record.Status,
		CallScheduledAt: record.CallScheduledAt,
		CanStop:         record.CanStop(s.clock.Now()),
	}

	exec, err := s.provider.GetExecution(ctx, executionID)
	if err != nil {
		s.log.Warn().Err(err).Str("execution_id", executionID).
			Msg("Provider status fetch failed, serving persisted status")
		return view, nil
	}

	providerStatus, err := domain.ParseCallStatus(exec.Status)
	if err != nil {
		s.log.Warn().
			Str("execution_id", executionID).
			Str("provider_status", exec.Status).
			Msg("Unrecognized provider status")
		return view, nil
	}

	view.FromProvider = true
	if providerStatus != record.Status && record.Status.CanTransition(providerStatus) {
		if err := s.repo.UpdateStatus(executionID, providerStatus, record.UpdatedAt); err != nil {
			if !errors.Is(err, domain.ErrRaceSkip) {
				return nil, err
			}
		} else {
			view.Status = providerStatus
		}
	} else if providerStatus == record.Status {
		view.Status = providerStatus
	}

	return view, nil
}

// SyncStatus reconciles one record's status with the provider. Used by
// the polling tick. Returns the refreshed record.
func (s *Service) SyncStatus(ctx context.Context, record *CallRecord) (*CallRecord, error) {
	exec, err := s.provider.GetExecution(ctx, record.ExecutionID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch execution %s: %w", record.ExecutionID, err)
	}

	providerStatus, err := domain.ParseCallStatus(exec.Status)
	if err != nil {
		s.log.Warn().
			Str("execution_id", record.ExecutionID).
			Str("provider_status", exec.Status).
			Msg("Unrecognized provider status, leaving record unchanged")
		return record, nil
	}

	if providerStatus == record.Status {
		return record, nil
	}
	if !record.Status.CanTransition(providerStatus) {
		s.log.Warn().
			Str("execution_id", record.ExecutionID).
			Str("from", string(record.Status)).
			Str("to", string(providerStatus)).
			Msg("Provider reported an illegal transition, ignoring")
		return record, nil
	}

	if err := s.repo.UpdateStatus(record.ExecutionID, providerStatus, record.UpdatedAt); err != nil {
		return nil, err
	}

	return s.repo.GetByExecutionID(record.ExecutionID)
}

// ListByJob returns all call records for a job.
func (s *Service) ListByJob(jobID string) ([]*CallRecord, error) {
	return s.repo.ListByJob(jobID)
}

// Get returns one call record by execution id.
func (s *Service) Get(executionID string) (*CallRecord, error) {
	return s.repo.GetByExecutionID(executionID)
}
