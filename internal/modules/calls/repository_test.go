package calls

import (
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Subham170/AI-Recruitment-sub000/internal/domain"
	testhelpers "github.com/Subham170/AI-Recruitment-sub000/internal/testing"
)

func newTestRepo(t *testing.T) (*Repository, func()) {
	t.Helper()
	db, cleanup := testhelpers.NewTestDB(t, "core")
	return NewRepository(db.Conn(), zerolog.Nop()), cleanup
}

func createRecord(t *testing.T, repo *Repository, executionID, jobID, candidateID string) *CallRecord {
	t.Helper()
	record := &CallRecord{
		ExecutionID:     executionID,
		CandidateID:     candidateID,
		JobID:           jobID,
		Status:          domain.CallStatusScheduled,
		CallScheduledAt: time.Now().UTC().Add(5 * time.Minute).Truncate(time.Second),
		ScreeningStatus: domain.ScreeningPending,
	}
	require.NoError(t, repo.Create(record))
	return record
}

// setUpdatedAt rewrites a record's updated_at directly, bypassing the
// guard, so window queries can be tested without sleeping.
func setUpdatedAt(t *testing.T, repo *Repository, executionID string, at time.Time) {
	t.Helper()
	_, err := repo.db.Exec(`UPDATE call_records SET updated_at = ? WHERE execution_id = ?`, at.Unix(), executionID)
	require.NoError(t, err)
}

func setStatus(t *testing.T, repo *Repository, executionID string, status domain.CallStatus) {
	t.Helper()
	_, err := repo.db.Exec(`UPDATE call_records SET status = ? WHERE execution_id = ?`, string(status), executionID)
	require.NoError(t, err)
}

func TestCreateAndGet(t *testing.T) {
	repo, cleanup := newTestRepo(t)
	defer cleanup()

	created := createRecord(t, repo, "exec-1", "job-1", "cand-1")
	assert.NotZero(t, created.ID)

	got, err := repo.GetByExecutionID("exec-1")
	require.NoError(t, err)
	assert.Equal(t, "cand-1", got.CandidateID)
	assert.Equal(t, domain.CallStatusScheduled, got.Status)
	assert.Equal(t, domain.ScreeningPending, got.ScreeningStatus)
	assert.Equal(t, 0, got.RetryCount)
	assert.False(t, got.PermanentlyFailed)
	assert.Nil(t, got.UserScheduledAt)
	assert.Nil(t, got.ScreeningScore)

	byPair, err := repo.GetByJobAndCandidate("job-1", "cand-1")
	require.NoError(t, err)
	assert.Equal(t, "exec-1", byPair.ExecutionID)

	_, err = repo.GetByExecutionID("missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCreate_DuplicatePairRejected(t *testing.T) {
	repo, cleanup := newTestRepo(t)
	defer cleanup()

	createRecord(t, repo, "exec-1", "job-1", "cand-1")

	dup := &CallRecord{
		ExecutionID:     "exec-2",
		CandidateID:     "cand-1",
		JobID:           "job-1",
		Status:          domain.CallStatusScheduled,
		CallScheduledAt: time.Now().UTC(),
		ScreeningStatus: domain.ScreeningPending,
	}
	assert.Error(t, repo.Create(dup))
}

func TestGuardedUpdate_RaceAndNotFound(t *testing.T) {
	repo, cleanup := newTestRepo(t)
	defer cleanup()

	record := createRecord(t, repo, "exec-1", "job-1", "cand-1")

	// Matching guard succeeds
	require.NoError(t, repo.UpdateStatus("exec-1", domain.CallStatusInProgress, record.UpdatedAt))

	// A second writer with the stale timestamp loses the race
	err := repo.UpdateStatus("exec-1", domain.CallStatusCompleted, record.UpdatedAt.Add(-time.Minute))
	assert.ErrorIs(t, err, domain.ErrRaceSkip)

	// Missing record is not a race
	err = repo.UpdateStatus("missing", domain.CallStatusCompleted, record.UpdatedAt)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestScreeningFields(t *testing.T) {
	repo, cleanup := newTestRepo(t)
	defer cleanup()

	createRecord(t, repo, "exec-1", "job-1", "cand-1")
	record, err := repo.GetByExecutionID("exec-1")
	require.NoError(t, err)

	require.NoError(t, repo.SetTranscript("exec-1", "agent: hello\ncandidate: hi", record.UpdatedAt))
	record, err = repo.GetByExecutionID("exec-1")
	require.NoError(t, err)
	assert.Contains(t, record.Transcript, "hello")

	analyzedAt := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	require.NoError(t, repo.SetScreeningResult("exec-1", 72, analyzedAt, record.UpdatedAt))
	record, err = repo.GetByExecutionID("exec-1")
	require.NoError(t, err)
	assert.Equal(t, domain.ScreeningCompleted, record.ScreeningStatus)
	require.NotNil(t, record.ScreeningScore)
	assert.Equal(t, 72, *record.ScreeningScore)
	require.NotNil(t, record.ScreeningAnalyzedAt)
	assert.Equal(t, analyzedAt, *record.ScreeningAnalyzedAt)
}

func TestRetryAndPermanentFailure(t *testing.T) {
	repo, cleanup := newTestRepo(t)
	defer cleanup()

	createRecord(t, repo, "exec-1", "job-1", "cand-1")
	record, err := repo.GetByExecutionID("exec-1")
	require.NoError(t, err)

	require.NoError(t, repo.IncrementRetry("exec-1", record.UpdatedAt))
	record, err = repo.GetByExecutionID("exec-1")
	require.NoError(t, err)
	assert.Equal(t, 1, record.RetryCount)

	require.NoError(t, repo.MarkScreeningFailed("exec-1", record.UpdatedAt))
	record, err = repo.GetByExecutionID("exec-1")
	require.NoError(t, err)
	assert.Equal(t, domain.ScreeningFailed, record.ScreeningStatus)
	assert.True(t, record.PermanentlyFailed)
}

func TestListScreenable_WindowBounds(t *testing.T) {
	repo, cleanup := newTestRepo(t)
	defer cleanup()

	now := time.Now().UTC().Truncate(time.Second)
	cooldownMin := 10 * time.Minute
	cooldownMax := 60 * time.Minute

	mk := func(executionID, candidateID string, age time.Duration, status domain.CallStatus) {
		createRecord(t, repo, executionID, "job-1", candidateID)
		setStatus(t, repo, executionID, status)
		setUpdatedAt(t, repo, executionID, now.Add(-age))
	}

	mk("exec-in", "cand-1", 30*time.Minute, domain.CallStatusCompleted)
	mk("exec-too-fresh", "cand-2", 5*time.Minute, domain.CallStatusCompleted)
	mk("exec-too-old", "cand-3", 90*time.Minute, domain.CallStatusCompleted)
	mk("exec-not-completed", "cand-4", 30*time.Minute, domain.CallStatusScheduled)

	records, err := repo.ListScreenable(now, cooldownMin, cooldownMax)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "exec-in", records[0].ExecutionID)

	// The aged-out record surfaces in the sweep backlog instead
	backlog, err := repo.ListScreeningBacklog(now, cooldownMax, 10)
	require.NoError(t, err)
	require.Len(t, backlog, 1)
	assert.Equal(t, "exec-too-old", backlog[0].ExecutionID)
}

func TestListAssignable(t *testing.T) {
	repo, cleanup := newTestRepo(t)
	defer cleanup()

	now := time.Now().UTC().Truncate(time.Second)

	createRecord(t, repo, "exec-1", "job-1", "cand-1")
	setStatus(t, repo, "exec-1", domain.CallStatusCompleted)
	setUpdatedAt(t, repo, "exec-1", now.Add(-10*time.Minute))

	createRecord(t, repo, "exec-2", "job-1", "cand-2")
	setStatus(t, repo, "exec-2", domain.CallStatusCompleted)
	setUpdatedAt(t, repo, "exec-2", now.Add(-10*time.Minute))

	records, err := repo.ListAssignable(now, time.Hour)
	require.NoError(t, err)
	assert.Len(t, records, 2)

	// Notified records drop out
	record, err := repo.GetByExecutionID("exec-1")
	require.NoError(t, err)
	require.NoError(t, repo.MarkNotified("exec-1", record.UpdatedAt))

	records, err = repo.ListAssignable(now.Add(time.Minute), time.Hour)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "exec-2", records[0].ExecutionID)
}

func TestListStoppable(t *testing.T) {
	repo, cleanup := newTestRepo(t)
	defer cleanup()

	now := time.Now().UTC().Truncate(time.Second)

	createRecord(t, repo, "exec-future", "job-1", "cand-1")

	past := &CallRecord{
		ExecutionID:     "exec-past",
		CandidateID:     "cand-2",
		JobID:           "job-1",
		Status:          domain.CallStatusScheduled,
		CallScheduledAt: now.Add(-time.Minute),
		ScreeningStatus: domain.ScreeningPending,
	}
	require.NoError(t, repo.Create(past))

	records, err := repo.ListStoppable("job-1", now)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "exec-future", records[0].ExecutionID)
}

func TestCountAssignmentsByRecruiter(t *testing.T) {
	repo, cleanup := newTestRepo(t)
	defer cleanup()

	for _, pair := range []struct{ exec, cand, recruiter string }{
		{"exec-1", "cand-1", "rec-a"},
		{"exec-2", "cand-2", "rec-a"},
		{"exec-3", "cand-3", "rec-b"},
		{"exec-4", "cand-4", ""},
	} {
		createRecord(t, repo, pair.exec, "job-1", pair.cand)
		if pair.recruiter != "" {
			record, err := repo.GetByExecutionID(pair.exec)
			require.NoError(t, err)
			require.NoError(t, repo.AssignRecruiter(pair.exec, pair.recruiter, record.UpdatedAt))
		}
	}

	counts, err := repo.CountAssignmentsByRecruiter("job-1")
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"rec-a": 2, "rec-b": 1}, counts)
}

func TestUserScheduledAt(t *testing.T) {
	repo, cleanup := newTestRepo(t)
	defer cleanup()

	createRecord(t, repo, "exec-1", "job-1", "cand-1")
	record, err := repo.GetByExecutionID("exec-1")
	require.NoError(t, err)

	interview := time.Date(2026, 3, 20, 15, 0, 0, 0, time.UTC)
	require.NoError(t, repo.SetUserScheduledAt("exec-1", interview, record.UpdatedAt))

	record, err = repo.GetByExecutionID("exec-1")
	require.NoError(t, err)
	require.NotNil(t, record.UserScheduledAt)
	assert.Equal(t, interview, *record.UserScheduledAt)
	assert.Equal(t, interview, record.InterviewTime())
}

func TestGuardedUpdate_ErrorsWrapRace(t *testing.T) {
	repo, cleanup := newTestRepo(t)
	defer cleanup()

	record := createRecord(t, repo, "exec-1", "job-1", "cand-1")
	err := repo.MarkNotified("exec-1", record.UpdatedAt.Add(-time.Hour))
	assert.True(t, errors.Is(err, domain.ErrRaceSkip))
}
