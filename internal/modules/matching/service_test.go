package matching_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Subham170/AI-Recruitment-sub000/internal/domain"
	"github.com/Subham170/AI-Recruitment-sub000/internal/modules/directory"
	"github.com/Subham170/AI-Recruitment-sub000/internal/modules/matching"
	testhelpers "github.com/Subham170/AI-Recruitment-sub000/internal/testing"
)

type fakeEmbedder struct {
	vectors map[string][]float64
	err     error
	calls   int
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if v, ok := f.vectors[text]; ok {
		return v, nil
	}
	return []float64{1, 0, 0}, nil
}

type matchFixture struct {
	svc      *matching.Service
	repo     *matching.Repository
	dir      *directory.Repository
	embedder *fakeEmbedder
	now      time.Time
}

func newMatchFixture(t *testing.T, cfg matching.Config) (*matchFixture, func()) {
	t.Helper()

	indexDB, cleanupIndex := testhelpers.NewTestDB(t, "index")
	coreDB, cleanupCore := testhelpers.NewTestDB(t, "core")
	cleanup := func() {
		cleanupIndex()
		cleanupCore()
	}

	log := zerolog.Nop()
	repo := matching.NewRepository(indexDB.Conn(), log)
	dir := directory.NewRepository(coreDB.Conn(), log)
	embedder := &fakeEmbedder{vectors: map[string][]float64{}}
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	svc := matching.NewService(repo, dir, embedder, domain.FixedClock{Instant: now}, cfg, log)

	return &matchFixture{svc: svc, repo: repo, dir: dir, embedder: embedder, now: now}, cleanup
}

func (f *matchFixture) seedJob(t *testing.T, id, title, description string) {
	t.Helper()
	require.NoError(t, f.dir.SaveJob(&domain.Job{
		ID:               id,
		Title:            title,
		Description:      description,
		PrimaryRecruiter: "rec-1",
		CreatedAt:        f.now,
		UpdatedAt:        f.now,
	}))
}

func (f *matchFixture) seedCandidate(t *testing.T, id, name, resume string) {
	t.Helper()
	require.NoError(t, f.dir.SaveCandidate(&domain.Candidate{
		ID:         id,
		Name:       name,
		Email:      id + "@example.com",
		Phone:      "+1555",
		ResumeText: resume,
		CreatedAt:  f.now,
		UpdatedAt:  f.now,
	}))
}

func TestRefreshJobMatches_RanksBySimilarity(t *testing.T) {
	f, cleanup := newMatchFixture(t, matching.Config{TopK: 10, MinScore: 0.1})
	defer cleanup()

	f.seedJob(t, "job-1", "Backend Engineer", "Go services")
	f.embedder.vectors["Backend Engineer\nGo services"] = []float64{1, 0, 0}

	require.NoError(t, f.repo.SaveEmbedding("candidate", "cand-close", []float64{0.9, 0.1, 0}))
	require.NoError(t, f.repo.SaveEmbedding("candidate", "cand-mid", []float64{0.5, 0.5, 0}))
	require.NoError(t, f.repo.SaveEmbedding("candidate", "cand-far", []float64{0, 0.1, 1}))

	entries, err := f.svc.RefreshJobMatches(context.Background(), "job-1")
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, "cand-close", entries[0].CounterpartID)
	assert.Equal(t, "cand-mid", entries[1].CounterpartID)
	assert.Equal(t, "cand-far", entries[2].CounterpartID)
	assert.Greater(t, entries[0].Score, entries[1].Score)
	assert.Equal(t, domain.MatchStatusPending, entries[0].Status)
	assert.Equal(t, f.now, entries[0].MatchedAt)

	// Reverse direction landed too.
	reverse, err := f.svc.CandidateMatches("cand-close")
	require.NoError(t, err)
	require.Len(t, reverse, 1)
	assert.Equal(t, "job-1", reverse[0].CounterpartID)
}

func TestRefreshJobMatches_MinScoreFloor(t *testing.T) {
	f, cleanup := newMatchFixture(t, matching.Config{TopK: 10, MinScore: 0.8})
	defer cleanup()

	f.seedJob(t, "job-1", "Backend Engineer", "Go services")
	f.embedder.vectors["Backend Engineer\nGo services"] = []float64{1, 0, 0}

	require.NoError(t, f.repo.SaveEmbedding("candidate", "cand-close", []float64{0.95, 0.05, 0}))
	require.NoError(t, f.repo.SaveEmbedding("candidate", "cand-weak", []float64{0.5, 0.5, 0.5}))

	entries, err := f.svc.RefreshJobMatches(context.Background(), "job-1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "cand-close", entries[0].CounterpartID)
}

func TestRefreshJobMatches_TopKCap(t *testing.T) {
	f, cleanup := newMatchFixture(t, matching.Config{TopK: 2, MinScore: 0.1})
	defer cleanup()

	f.seedJob(t, "job-1", "Backend Engineer", "Go services")
	f.embedder.vectors["Backend Engineer\nGo services"] = []float64{1, 0, 0}

	require.NoError(t, f.repo.SaveEmbedding("candidate", "cand-a", []float64{0.9, 0.1, 0}))
	require.NoError(t, f.repo.SaveEmbedding("candidate", "cand-b", []float64{0.8, 0.2, 0}))
	require.NoError(t, f.repo.SaveEmbedding("candidate", "cand-c", []float64{0.7, 0.3, 0}))

	entries, err := f.svc.RefreshJobMatches(context.Background(), "job-1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "cand-a", entries[0].CounterpartID)
	assert.Equal(t, "cand-b", entries[1].CounterpartID)
}

func TestRefreshJobMatches_PreservesApplicationStatus(t *testing.T) {
	f, cleanup := newMatchFixture(t, matching.Config{TopK: 10, MinScore: 0.1})
	defer cleanup()

	f.seedJob(t, "job-1", "Backend Engineer", "Go services")
	f.embedder.vectors["Backend Engineer\nGo services"] = []float64{1, 0, 0}

	require.NoError(t, f.repo.SaveEmbedding("candidate", "cand-applied", []float64{0.9, 0.1, 0}))
	require.NoError(t, f.repo.SaveEmbedding("candidate", "cand-pending", []float64{0.8, 0.2, 0}))

	_, err := f.svc.RefreshJobMatches(context.Background(), "job-1")
	require.NoError(t, err)

	require.NoError(t, f.svc.SetApplicationStatus("job-1", "cand-applied", domain.MatchStatusApplied))

	// A second refresh rewrites the list wholesale but keeps the flag.
	entries, err := f.svc.RefreshJobMatches(context.Background(), "job-1")
	require.NoError(t, err)
	require.Len(t, entries, 2)

	byID := map[string]domain.MatchStatus{}
	for _, e := range entries {
		byID[e.CounterpartID] = e.Status
	}
	assert.Equal(t, domain.MatchStatusApplied, byID["cand-applied"])
	assert.Equal(t, domain.MatchStatusPending, byID["cand-pending"])
}

func TestRefreshJobMatches_EmbedFailureYieldsEmptySet(t *testing.T) {
	f, cleanup := newMatchFixture(t, matching.Config{TopK: 10, MinScore: 0.1})
	defer cleanup()

	f.seedJob(t, "job-1", "Backend Engineer", "Go services")
	f.embedder.err = errors.New("embedding service down")

	entries, err := f.svc.RefreshJobMatches(context.Background(), "job-1")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRefreshJobMatches_UnknownJob(t *testing.T) {
	f, cleanup := newMatchFixture(t, matching.Config{TopK: 10, MinScore: 0.1})
	defer cleanup()

	_, err := f.svc.RefreshJobMatches(context.Background(), "job-missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRefreshCandidateMatches(t *testing.T) {
	f, cleanup := newMatchFixture(t, matching.Config{TopK: 10, MinScore: 0.1})
	defer cleanup()

	f.seedCandidate(t, "cand-1", "Ada", "Go, distributed systems")
	f.embedder.vectors["Go, distributed systems"] = []float64{1, 0, 0}

	require.NoError(t, f.repo.SaveEmbedding("job", "job-go", []float64{0.9, 0.1, 0}))
	require.NoError(t, f.repo.SaveEmbedding("job", "job-design", []float64{0, 1, 0.1}))

	entries, err := f.svc.RefreshCandidateMatches(context.Background(), "cand-1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "job-go", entries[0].CounterpartID)

	// Job-side reverse entry starts pending.
	jobSide, err := f.svc.JobMatches("job-go")
	require.NoError(t, err)
	require.Len(t, jobSide, 1)
	assert.Equal(t, "cand-1", jobSide[0].CounterpartID)
	assert.Equal(t, domain.MatchStatusPending, jobSide[0].Status)
}

func TestRefreshCandidateMatches_ReverseUpdateKeepsAppliedFlag(t *testing.T) {
	f, cleanup := newMatchFixture(t, matching.Config{TopK: 10, MinScore: 0.1})
	defer cleanup()

	f.seedJob(t, "job-1", "Backend Engineer", "Go services")
	f.seedCandidate(t, "cand-1", "Ada", "Go, distributed systems")
	f.embedder.vectors["Backend Engineer\nGo services"] = []float64{1, 0, 0}
	f.embedder.vectors["Go, distributed systems"] = []float64{0.95, 0.05, 0}

	_, err := f.svc.RefreshJobMatches(context.Background(), "job-1")
	require.NoError(t, err)
	require.NoError(t, f.svc.SetApplicationStatus("job-1", "cand-1", domain.MatchStatusApplied))

	_, err = f.svc.RefreshCandidateMatches(context.Background(), "cand-1")
	require.NoError(t, err)

	jobSide, err := f.svc.JobMatches("job-1")
	require.NoError(t, err)
	require.Len(t, jobSide, 1)
	assert.Equal(t, domain.MatchStatusApplied, jobSide[0].Status)
}

func TestSetApplicationStatus_UnmatchedPair(t *testing.T) {
	f, cleanup := newMatchFixture(t, matching.Config{TopK: 10, MinScore: 0.1})
	defer cleanup()

	err := f.svc.SetApplicationStatus("job-1", "cand-none", domain.MatchStatusApplied)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestEnsureEmbedding_ReusesStoredVector(t *testing.T) {
	f, cleanup := newMatchFixture(t, matching.Config{TopK: 10, MinScore: 0.1})
	defer cleanup()

	f.seedJob(t, "job-1", "Backend Engineer", "Go services")
	require.NoError(t, f.repo.SaveEmbedding("job", "job-1", []float64{1, 0, 0}))
	require.NoError(t, f.repo.SaveEmbedding("candidate", "cand-1", []float64{0.9, 0.1, 0}))

	_, err := f.svc.RefreshJobMatches(context.Background(), "job-1")
	require.NoError(t, err)
	assert.Zero(t, f.embedder.calls)
}
