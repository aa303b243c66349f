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

// sweepBatchSize bounds how much backlog one sweep tick takes on.
const sweepBatchSize = 100

// SweepJob is the dead-letter pass. Completed calls can age past the
// screening window while their transcript lags or the service is down;
// the hourly sweep feeds them back through the screening pipeline so
// nothing is stranded by window arithmetic alone.
type SweepJob struct {
	callsRepo   *calls.Repository
	screeningSv *screening.Service
	clock       domain.Clock
	cooldownMax time.Duration
	itemDelay   time.Duration
	log         zerolog.Logger
}

// NewSweepJob creates the dead-letter sweep.
func NewSweepJob(callsRepo *calls.Repository, screeningSvc *screening.Service, clock domain.Clock, cooldownMax, itemDelay time.Duration, log zerolog.Logger) *SweepJob {
	return &SweepJob{
		callsRepo:   callsRepo,
		screeningSv: screeningSvc,
		clock:       clock,
		cooldownMax: cooldownMax,
		itemDelay:   itemDelay,
		log:         log.With().Str("job", "sweep").Logger(),
	}
}

// Name returns the job name
func (j *SweepJob) Name() string {
	return "sweep"
}

// Run executes one sweep tick
func (j *SweepJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Minute)
	defer cancel()

	records, err := j.callsRepo.ListScreeningBacklog(j.clock.Now(), j.cooldownMax, sweepBatchSize)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return nil
	}

	j.log.Info().Int("backlog", len(records)).Msg("Sweeping stranded screenings")

	rescued := 0
	for i, record := range records {
		if i > 0 && j.itemDelay > 0 {
			time.Sleep(j.itemDelay)
		}

		if _, err := j.screeningSv.Process(ctx, record); err != nil {
			if !errors.Is(err, domain.ErrRaceSkip) && !errors.Is(err, screening.ErrTranscriptNotReady) {
				j.log.Warn().Err(err).
					Str("execution_id", record.ExecutionID).
					Msg("Sweep screening failed")
			}
			continue
		}
		rescued++
	}

	j.log.Info().
		Int("backlog", len(records)).
		Int("rescued", rescued).
		Msg("Sweep finished")

	return nil
}
