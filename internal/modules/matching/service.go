package matching

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/floats"

	"github.com/Subham170/AI-Recruitment-sub000/internal/domain"
	"github.com/Subham170/AI-Recruitment-sub000/internal/modules/directory"
)

// Embedder is the slice of the embedding client the orchestrator needs.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// Config holds matching orchestrator tunables.
type Config struct {
	TopK     int     // directional list cap
	MinScore float64 // similarity floor
}

// Service keeps the bidirectional job/candidate match index consistent.
// Matching is in-process vector search: embeddings come from the
// embedding client, similarity is cosine over the stored vectors.
type Service struct {
	repo     *Repository
	dir      *directory.Repository
	embedder Embedder
	clock    domain.Clock
	cfg      Config
	log      zerolog.Logger
}

// NewService creates a new matching orchestrator.
func NewService(repo *Repository, dir *directory.Repository, embedder Embedder, clock domain.Clock, cfg Config, log zerolog.Logger) *Service {
	if cfg.TopK <= 0 {
		cfg.TopK = 20
	}
	if cfg.MinScore <= 0 {
		cfg.MinScore = 0.5
	}
	return &Service{
		repo:     repo,
		dir:      dir,
		embedder: embedder,
		clock:    clock,
		cfg:      cfg,
		log:      log.With().Str("service", "matching").Logger(),
	}
}

// RefreshJobMatches recomputes a job's candidate matches and re-derives
// the affected candidate-side lists. Recruiter-set application flags on
// existing pairs survive the rewrite. An embedding failure for the job
// itself yields an empty match set rather than an error, so the rest of
// the dashboard keeps working.
//
// The two directions are not written transactionally; a failure between
// them leaves a transient inconsistency that the next refresh heals.
func (s *Service) RefreshJobMatches(ctx context.Context, jobID string) ([]MatchEntry, error) {
	job, err := s.dir.GetJob(jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to load job %s: %w", jobID, err)
	}

	vector, err := s.ensureEmbedding(ctx, "job", job.ID, job.Title+"\n"+job.Description)
	if err != nil {
		s.log.Warn().Err(err).Str("job_id", jobID).Msg("Job embedding unavailable, returning empty match set")
		return []MatchEntry{}, nil
	}

	scored, err := s.search(vector, "candidate")
	if err != nil {
		return nil, fmt.Errorf("failed to search candidates for job %s: %w", jobID, err)
	}

	// Carry forward application flags set by recruiters before the
	// wholesale rewrite below wipes the old rows.
	previous, err := s.repo.GetJobMatchStatuses(jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to load previous match statuses: %w", err)
	}

	now := s.clock.Now()
	entries := make([]MatchEntry, 0, len(scored))
	for _, m := range scored {
		status := domain.MatchStatusPending
		if prev, ok := previous[m.CounterpartID]; ok && prev != "" {
			status = prev
		}
		entries = append(entries, MatchEntry{
			CounterpartID: m.CounterpartID,
			Score:         m.Score,
			MatchedAt:     now,
			Status:        status,
		})
	}

	if err := s.repo.ReplaceJobMatches(jobID, entries); err != nil {
		return nil, fmt.Errorf("failed to write job matches: %w", err)
	}

	for _, e := range entries {
		if err := s.repo.UpsertCandidateMatch(e.CounterpartID, jobID, e.Score, now, s.cfg.TopK); err != nil {
			// Reverse side is self-healing on the next tick
			s.log.Warn().Err(err).
				Str("job_id", jobID).
				Str("candidate_id", e.CounterpartID).
				Msg("Failed to update reverse match entry")
		}
	}

	s.log.Info().
		Str("job_id", jobID).
		Int("matches", len(entries)).
		Msg("Job matches refreshed")

	return entries, nil
}

// RefreshCandidateMatches is the mirror of RefreshJobMatches for the
// candidate side. Job-side reverse updates preserve application flags
// (new pairs start pending).
func (s *Service) RefreshCandidateMatches(ctx context.Context, candidateID string) ([]MatchEntry, error) {
	candidate, err := s.dir.GetCandidate(candidateID)
	if err != nil {
		return nil, fmt.Errorf("failed to load candidate %s: %w", candidateID, err)
	}

	text := candidate.ResumeText
	if text == "" {
		text = candidate.Name
	}

	vector, err := s.ensureEmbedding(ctx, "candidate", candidate.ID, text)
	if err != nil {
		s.log.Warn().Err(err).Str("candidate_id", candidateID).Msg("Candidate embedding unavailable, returning empty match set")
		return []MatchEntry{}, nil
	}

	scored, err := s.search(vector, "job")
	if err != nil {
		return nil, fmt.Errorf("failed to search jobs for candidate %s: %w", candidateID, err)
	}

	now := s.clock.Now()
	entries := make([]MatchEntry, 0, len(scored))
	for _, m := range scored {
		entries = append(entries, MatchEntry{
			CounterpartID: m.CounterpartID,
			Score:         m.Score,
			MatchedAt:     now,
		})
	}

	if err := s.repo.ReplaceCandidateMatches(candidateID, entries); err != nil {
		return nil, fmt.Errorf("failed to write candidate matches: %w", err)
	}

	for _, e := range entries {
		if err := s.repo.UpsertJobMatch(e.CounterpartID, candidateID, e.Score, now, s.cfg.TopK); err != nil {
			s.log.Warn().Err(err).
				Str("candidate_id", candidateID).
				Str("job_id", e.CounterpartID).
				Msg("Failed to update reverse match entry")
		}
	}

	s.log.Info().
		Str("candidate_id", candidateID).
		Int("matches", len(entries)).
		Msg("Candidate matches refreshed")

	return entries, nil
}

// JobMatches returns the stored job-side list.
func (s *Service) JobMatches(jobID string) ([]MatchEntry, error) {
	return s.repo.GetJobMatches(jobID)
}

// CandidateMatches returns the stored candidate-side list.
func (s *Service) CandidateMatches(candidateID string) ([]MatchEntry, error) {
	return s.repo.GetCandidateMatches(candidateID)
}

// SetApplicationStatus marks a matched pair as applied/pending.
func (s *Service) SetApplicationStatus(jobID, candidateID string, status domain.MatchStatus) error {
	return s.repo.SetJobMatchStatus(jobID, candidateID, status)
}

// EmbedEntity computes and persists an entity's embedding vector.
// Exposed so the dashboard's sync path can warm embeddings eagerly.
func (s *Service) EmbedEntity(ctx context.Context, entityType, entityID, text string) error {
	vector, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return fmt.Errorf("failed to embed %s %s: %w", entityType, entityID, err)
	}
	return s.repo.SaveEmbedding(entityType, entityID, vector)
}

// ensureEmbedding loads the subject's stored vector, computing and
// persisting one on the fly when absent.
func (s *Service) ensureEmbedding(ctx context.Context, entityType, entityID, text string) ([]float64, error) {
	vector, err := s.repo.GetEmbedding(entityType, entityID)
	if err == nil {
		return vector, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	vector, err = s.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to embed %s %s: %w", entityType, entityID, err)
	}

	if err := s.repo.SaveEmbedding(entityType, entityID, vector); err != nil {
		return nil, err
	}

	return vector, nil
}

// search scores every stored counterpart vector against the subject,
// filters by the similarity floor and returns the top-K descending.
func (s *Service) search(subject []float64, counterpartType string) ([]MatchEntry, error) {
	vectors, err := s.repo.ListEmbeddings(counterpartType)
	if err != nil {
		return nil, err
	}

	var scored []MatchEntry
	for _, ev := range vectors {
		score := cosineSimilarity(subject, ev.Vector)
		if score < s.cfg.MinScore {
			continue
		}
		scored = append(scored, MatchEntry{CounterpartID: ev.EntityID, Score: score})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if len(scored) > s.cfg.TopK {
		scored = scored[:s.cfg.TopK]
	}

	return scored, nil
}

// cosineSimilarity returns the cosine of the angle between a and b,
// clamped to [0,1]. Mismatched or zero vectors score 0.
func cosineSimilarity(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	normA := floats.Norm(a, 2)
	normB := floats.Norm(b, 2)
	if normA == 0 || normB == 0 {
		return 0
	}

	score := floats.Dot(a, b) / (normA * normB)
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}
