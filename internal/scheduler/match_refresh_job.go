package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/Subham170/AI-Recruitment-sub000/internal/domain"
	"github.com/Subham170/AI-Recruitment-sub000/internal/modules/directory"
	"github.com/Subham170/AI-Recruitment-sub000/internal/modules/matching"
)

// MatchRefreshJob periodically re-derives the match index for jobs whose
// projection changed since the last tick. The first tick after startup
// refreshes everything touched in the prior day.
type MatchRefreshJob struct {
	dir       *directory.Repository
	matching  *matching.Service
	clock     domain.Clock
	itemDelay time.Duration
	log       zerolog.Logger

	lastRun time.Time
}

// NewMatchRefreshJob creates the match refresh tick.
func NewMatchRefreshJob(dir *directory.Repository, matchingSvc *matching.Service, clock domain.Clock, itemDelay time.Duration, log zerolog.Logger) *MatchRefreshJob {
	return &MatchRefreshJob{
		dir:       dir,
		matching:  matchingSvc,
		clock:     clock,
		itemDelay: itemDelay,
		log:       log.With().Str("job", "match_refresh").Logger(),
	}
}

// Name returns the job name
func (j *MatchRefreshJob) Name() string {
	return "match_refresh"
}

// Run executes one refresh tick
func (j *MatchRefreshJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	now := j.clock.Now()
	cutoff := j.lastRun
	if cutoff.IsZero() {
		cutoff = now.Add(-24 * time.Hour)
	}

	jobIDs, err := j.dir.ListJobIDsUpdatedSince(cutoff)
	if err != nil {
		return err
	}
	if len(jobIDs) == 0 {
		j.lastRun = now
		return nil
	}

	refreshed := 0
	for i, jobID := range jobIDs {
		if i > 0 && j.itemDelay > 0 {
			time.Sleep(j.itemDelay)
		}

		if _, err := j.matching.RefreshJobMatches(ctx, jobID); err != nil {
			j.log.Warn().Err(err).Str("job_id", jobID).Msg("Match refresh failed")
			continue
		}
		refreshed++
	}

	// The watermark advances even when individual refreshes fail; a
	// failed job is picked up again once its row is touched, and the
	// reverse index self-heals on later refreshes of its counterparts
	j.lastRun = now

	j.log.Info().
		Int("jobs", len(jobIDs)).
		Int("refreshed", refreshed).
		Msg("Match refresh tick finished")

	return nil
}
