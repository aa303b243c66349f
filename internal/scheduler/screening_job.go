package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/Subham170/AI-Recruitment-sub000/internal/domain"
	"github.com/Subham170/AI-Recruitment-sub000/internal/modules/calls"
	"github.com/Subham170/AI-Recruitment-sub000/internal/modules/screening"
)

// ScreeningJob is the polling tick that drives calls from "scheduled"
// to a scored screening. Each tick reconciles statuses with the voice
// provider, then screens completed calls inside the cool-down window.
// Records touched by a concurrent writer are skipped, the next tick
// sees the fresh state.
type ScreeningJob struct {
	callsRepo   *calls.Repository
	callsSvc    *calls.Service
	screeningSv *screening.Service
	clock       domain.Clock
	cooldownMin time.Duration
	cooldownMax time.Duration
	itemDelay   time.Duration
	log         zerolog.Logger
}

// NewScreeningJob creates the screening tick.
func NewScreeningJob(callsRepo *calls.Repository, callsSvc *calls.Service, screeningSvc *screening.Service, clock domain.Clock, cooldownMin, cooldownMax, itemDelay time.Duration, log zerolog.Logger) *ScreeningJob {
	return &ScreeningJob{
		callsRepo:   callsRepo,
		callsSvc:    callsSvc,
		screeningSv: screeningSvc,
		clock:       clock,
		cooldownMin: cooldownMin,
		cooldownMax: cooldownMax,
		itemDelay:   itemDelay,
		log:         log.With().Str("job", "screening").Logger(),
	}
}

// Name returns the job name
func (j *ScreeningJob) Name() string {
	return "screening"
}

// Run executes one screening tick
func (j *ScreeningJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	j.syncStatuses(ctx)
	return j.screen(ctx)
}

// syncStatuses pulls provider status for calls whose scheduled time has
// passed but that are not terminal yet.
func (j *ScreeningJob) syncStatuses(ctx context.Context) {
	records, err := j.callsRepo.ListDueForStatusSync(j.clock.Now(), j.cooldownMax)
	if err != nil {
		j.log.Error().Err(err).Msg("Failed to list calls for status sync")
		return
	}

	for i, record := range records {
		j.pace(i)

		if _, err := j.callsSvc.SyncStatus(ctx, record); err != nil {
			if errors.Is(err, domain.ErrRaceSkip) {
				continue
			}
			j.log.Warn().Err(err).
				Str("execution_id", record.ExecutionID).
				Msg("Status sync failed")
		}
	}
}

// screen scores completed calls whose age falls inside the cool-down
// window.
func (j *ScreeningJob) screen(ctx context.Context) error {
	records, err := j.callsRepo.ListScreenable(j.clock.Now(), j.cooldownMin, j.cooldownMax)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return nil
	}

	j.log.Debug().Int("count", len(records)).Msg("Screening tick")

	screened := 0
	for i, record := range records {
		j.pace(i)

		if _, err := j.screeningSv.Process(ctx, record); err != nil {
			if errors.Is(err, domain.ErrRaceSkip) {
				j.log.Debug().
					Str("execution_id", record.ExecutionID).
					Msg("Record changed mid-flight, skipping")
			} else if errors.Is(err, screening.ErrTranscriptNotReady) {
				j.log.Debug().
					Str("execution_id", record.ExecutionID).
					Msg("Transcript not ready, deferring")
			}
			// Other failures already charged the retry budget inside Process
			continue
		}
		screened++
	}

	j.log.Info().
		Int("eligible", len(records)).
		Int("screened", screened).
		Msg("Screening tick finished")

	return nil
}

func (j *ScreeningJob) pace(i int) {
	if i > 0 && j.itemDelay > 0 {
		time.Sleep(j.itemDelay)
	}
}
