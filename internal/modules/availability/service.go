package availability

import (
	"time"

	"github.com/rs/zerolog"
)

// Service implements availability operations.
type Service struct {
	repo *Repository
	log  zerolog.Logger
}

// NewService creates a new availability service.
func NewService(repo *Repository, log zerolog.Logger) *Service {
	return &Service{
		repo: repo,
		log:  log.With().Str("component", "availability").Logger(),
	}
}

// Get returns a recruiter's slots for one job.
func (s *Service) Get(recruiterID, jobID string) ([]*Slot, error) {
	return s.repo.ListForRecruiterJob(recruiterID, jobID)
}

// Replace validates and stores a recruiter's full slot set for one job.
func (s *Service) Replace(recruiterID, jobID string, slots []*Slot) error {
	for _, slot := range slots {
		if err := slot.Validate(); err != nil {
			return err
		}
	}
	return s.repo.ReplaceForRecruiterJob(recruiterID, jobID, slots)
}

// AvailableRecruiters returns, from the given recruiter ids, those with
// a slot covering the instant t for the job. Recruiters keep their
// input order so callers can use encounter order as a tiebreak.
func (s *Service) AvailableRecruiters(jobID string, recruiterIDs []string, t time.Time) ([]string, error) {
	slots, err := s.repo.ListForJobOnDate(jobID, t.UTC().Format("2006-01-02"))
	if err != nil {
		return nil, err
	}

	covered := make(map[string]bool)
	for _, slot := range slots {
		if slot.Covers(t) {
			covered[slot.RecruiterID] = true
		}
	}

	var available []string
	for _, id := range recruiterIDs {
		if covered[id] {
			available = append(available, id)
		}
	}

	return available, nil
}
