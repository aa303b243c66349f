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

// AssignmentJob is the polling tick that attaches a recruiter, an
// interview task and a calendar invite to each completed call.
type AssignmentJob struct {
	callsRepo *calls.Repository
	assigner  *screening.Assigner
	clock     domain.Clock
	lookback  time.Duration
	itemDelay time.Duration
	log       zerolog.Logger
}

// NewAssignmentJob creates the assignment tick.
func NewAssignmentJob(callsRepo *calls.Repository, assigner *screening.Assigner, clock domain.Clock, lookback, itemDelay time.Duration, log zerolog.Logger) *AssignmentJob {
	return &AssignmentJob{
		callsRepo: callsRepo,
		assigner:  assigner,
		clock:     clock,
		lookback:  lookback,
		itemDelay: itemDelay,
		log:       log.With().Str("job", "assignment").Logger(),
	}
}

// Name returns the job name
func (j *AssignmentJob) Name() string {
	return "assignment"
}

// Run executes one assignment tick
func (j *AssignmentJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	records, err := j.callsRepo.ListAssignable(j.clock.Now(), j.lookback)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return nil
	}

	assigned := 0
	for i, record := range records {
		if i > 0 && j.itemDelay > 0 {
			time.Sleep(j.itemDelay)
		}

		if err := j.assigner.Assign(ctx, record); err != nil {
			if errors.Is(err, domain.ErrRaceSkip) {
				continue
			}
			j.log.Warn().Err(err).
				Str("execution_id", record.ExecutionID).
				Msg("Assignment failed")
			continue
		}
		assigned++
	}

	j.log.Info().
		Int("eligible", len(records)).
		Int("assigned", assigned).
		Msg("Assignment tick finished")

	return nil
}
