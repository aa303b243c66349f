// Package screening turns a completed call into a scored screening:
// transcript retrieval, model or heuristic scoring, retry bookkeeping
// and the round-robin recruiter assignment that follows a passing call.
package screening

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/Subham170/AI-Recruitment-sub000/internal/clients/bolna"
	"github.com/Subham170/AI-Recruitment-sub000/internal/clients/openai"
	"github.com/Subham170/AI-Recruitment-sub000/internal/domain"
	"github.com/Subham170/AI-Recruitment-sub000/internal/modules/calls"
	"github.com/Subham170/AI-Recruitment-sub000/internal/utils"
)

// ErrTranscriptNotReady reports that the provider has no transcript for
// a completed call yet. The record stays pending and the next tick
// retries; waiting on the provider does not spend the retry budget.
var ErrTranscriptNotReady = errors.New("transcript not ready")

// TranscriptSource fetches a call's provider-side state.
type TranscriptSource interface {
	GetExecution(ctx context.Context, executionID string) (*bolna.Execution, error)
}

// Scorer rates a transcript against a job description.
type Scorer interface {
	ScoreTranscript(ctx context.Context, transcript, jobDescription string) (*openai.ScreeningAnalysis, error)
}

// Archiver stores transcripts long-term. Archival is best-effort and
// never blocks the screening pipeline.
type Archiver interface {
	ArchiveTranscript(ctx context.Context, executionID, transcript string) error
}

// Directory is the job read surface the scorer needs.
type Directory interface {
	GetJob(id string) (*domain.Job, error)
}

// Config holds screening tunables.
type Config struct {
	// MaxRetries bounds how many failed attempts a record gets before
	// it is marked permanently failed.
	MaxRetries int
}

// Service implements the screening pipeline over completed calls.
type Service struct {
	repo     *calls.Repository
	dir      Directory
	source   TranscriptSource
	scorer   Scorer
	archiver Archiver
	clock    domain.Clock
	cfg      Config
	log      zerolog.Logger
}

// NewService creates a new screening service. archiver may be nil when
// transcript archival is disabled.
func NewService(repo *calls.Repository, dir Directory, source TranscriptSource, scorer Scorer, archiver Archiver, clock domain.Clock, cfg Config, log zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		dir:      dir,
		source:   source,
		scorer:   scorer,
		archiver: archiver,
		clock:    clock,
		cfg:      cfg,
		log:      log.With().Str("component", "screening").Logger(),
	}
}

// Process runs the screening pipeline for one completed call record:
// fetch transcript, persist it, score it, persist the score. Already
// screened records short-circuit with their stored score. A record
// another writer touched mid-flight is skipped (domain.ErrRaceSkip),
// and a transcript the provider has not produced yet defers the record
// to the next tick (ErrTranscriptNotReady). Other errors leave the
// record pending and charge its retry budget; at the budget the record
// is marked permanently failed.
func (s *Service) Process(ctx context.Context, record *calls.CallRecord) (int, error) {
	if record.ScreeningStatus == domain.ScreeningCompleted {
		if record.ScreeningScore != nil {
			return *record.ScreeningScore, nil
		}
		return 0, nil
	}
	if record.ScreeningStatus == domain.ScreeningFailed || record.PermanentlyFailed {
		return 0, domain.NewInvariantError("screening-status",
			"call %s has permanently failed screening", record.ExecutionID)
	}

	score, err := s.process(ctx, record)
	if err != nil {
		if errors.Is(err, domain.ErrRaceSkip) || errors.Is(err, ErrTranscriptNotReady) {
			return 0, err
		}
		s.chargeRetry(record, err)
		return 0, err
	}

	return score, nil
}

func (s *Service) process(ctx context.Context, record *calls.CallRecord) (int, error) {
	transcript := record.Transcript
	if transcript == "" {
		exec, err := s.source.GetExecution(ctx, record.ExecutionID)
		if err != nil {
			return 0, fmt.Errorf("failed to fetch execution %s: %w", record.ExecutionID, err)
		}
		if exec.Transcript == "" {
			return 0, fmt.Errorf("execution %s: %w", record.ExecutionID, ErrTranscriptNotReady)
		}
		transcript = exec.Transcript

		if err := s.repo.SetTranscript(record.ExecutionID, transcript, record.UpdatedAt); err != nil {
			return 0, err
		}
		refreshed, err := s.repo.GetByExecutionID(record.ExecutionID)
		if err != nil {
			return 0, err
		}
		record = refreshed

		// The provider reports the interview slot the conversation
		// settled on, when one was agreed
		if exec.ScheduledAt != "" {
			if at, perr := time.Parse(time.RFC3339, exec.ScheduledAt); perr == nil {
				if err := s.repo.SetUserScheduledAt(record.ExecutionID, at.UTC(), record.UpdatedAt); err != nil {
					return 0, err
				}
				record, err = s.repo.GetByExecutionID(record.ExecutionID)
				if err != nil {
					return 0, err
				}
			}
		}
	}

	score, err := s.score(ctx, record.JobID, transcript)
	if err != nil {
		return 0, err
	}

	if err := s.repo.SetScreeningResult(record.ExecutionID, score, s.clock.Now(), record.UpdatedAt); err != nil {
		return 0, err
	}

	s.log.Info().
		Str("execution_id", record.ExecutionID).
		Int("score", score).
		Str("transcript_head", utils.Truncate(transcript, 80)).
		Msg("Screening scored")

	if s.archiver != nil {
		if err := s.archiver.ArchiveTranscript(ctx, record.ExecutionID, transcript); err != nil {
			s.log.Warn().Err(err).
				Str("execution_id", record.ExecutionID).
				Msg("Transcript archive failed")
		}
	}

	return score, nil
}

// score picks the model path when the job carries a description and the
// heuristic otherwise. A model answer outside its schema falls back to
// the heuristic rather than failing the record.
func (s *Service) score(ctx context.Context, jobID, transcript string) (int, error) {
	job, err := s.dir.GetJob(jobID)
	if err != nil {
		return 0, fmt.Errorf("failed to load job %s: %w", jobID, err)
	}

	if job.Description == "" {
		return HeuristicScore(transcript), nil
	}

	analysis, err := s.scorer.ScoreTranscript(ctx, transcript, job.Description)
	if err != nil {
		if errors.Is(err, openai.ErrMalformedOutput) {
			s.log.Warn().
				Str("job_id", jobID).
				Msg("Model output unusable, scoring heuristically")
			return HeuristicScore(transcript), nil
		}
		return 0, fmt.Errorf("failed to score transcript: %w", err)
	}

	return analysis.Score, nil
}

// chargeRetry burns one retry and flips the record to permanently
// failed once the budget is spent. Bookkeeping failures (including lost
// races) only log, the next tick retries from persisted state.
func (s *Service) chargeRetry(record *calls.CallRecord, cause error) {
	if err := s.repo.IncrementRetry(record.ExecutionID, record.UpdatedAt); err != nil {
		s.log.Warn().Err(err).
			Str("execution_id", record.ExecutionID).
			Msg("Failed to charge retry")
		return
	}

	attempts := record.RetryCount + 1
	s.log.Warn().Err(cause).
		Str("execution_id", record.ExecutionID).
		Int("attempts", attempts).
		Int("max_retries", s.cfg.MaxRetries).
		Msg("Screening attempt failed")

	if attempts < s.cfg.MaxRetries {
		return
	}

	refreshed, err := s.repo.GetByExecutionID(record.ExecutionID)
	if err != nil {
		s.log.Warn().Err(err).
			Str("execution_id", record.ExecutionID).
			Msg("Failed to reload record for permanent failure")
		return
	}
	if err := s.repo.MarkScreeningFailed(record.ExecutionID, refreshed.UpdatedAt); err != nil {
		s.log.Warn().Err(err).
			Str("execution_id", record.ExecutionID).
			Msg("Failed to mark screening permanently failed")
		return
	}

	s.log.Error().
		Str("execution_id", record.ExecutionID).
		Msg("Screening permanently failed, retry budget spent")
}
