package calls

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Subham170/AI-Recruitment-sub000/internal/clients/bolna"
	"github.com/Subham170/AI-Recruitment-sub000/internal/domain"
	"github.com/Subham170/AI-Recruitment-sub000/internal/modules/directory"
	testhelpers "github.com/Subham170/AI-Recruitment-sub000/internal/testing"
)

type fakeProvider struct {
	nextID      int
	scheduled   []string
	stopped     []string
	scheduleErr error
	stopErr     error
	execution   *bolna.Execution
	execErr     error
}

func (f *fakeProvider) ScheduleCall(ctx context.Context, phone string, when time.Time, metadata map[string]string) (string, error) {
	if f.scheduleErr != nil {
		return "", f.scheduleErr
	}
	f.nextID++
	id := fmt.Sprintf("exec-%d", f.nextID)
	f.scheduled = append(f.scheduled, phone)
	return id, nil
}

func (f *fakeProvider) StopCall(ctx context.Context, executionID string) error {
	if f.stopErr != nil {
		return f.stopErr
	}
	f.stopped = append(f.stopped, executionID)
	return nil
}

func (f *fakeProvider) GetExecution(ctx context.Context, executionID string) (*bolna.Execution, error) {
	if f.execErr != nil {
		return nil, f.execErr
	}
	if f.execution != nil {
		return f.execution, nil
	}
	return &bolna.Execution{ID: executionID, Status: "scheduled"}, nil
}

func newTestService(t *testing.T, provider *fakeProvider, now time.Time) (*Service, *directory.Repository, func()) {
	t.Helper()
	db, cleanup := testhelpers.NewTestDB(t, "core")

	dirRepo := directory.NewRepository(db.Conn(), zerolog.Nop())
	repo := NewRepository(db.Conn(), zerolog.Nop())

	svc := NewService(repo, dirRepo, provider, domain.FixedClock{Instant: now}, Config{
		ScheduleDelay: 5 * time.Minute,
	}, zerolog.Nop())

	return svc, dirRepo, cleanup
}

func seedDirectory(t *testing.T, dir *directory.Repository) {
	t.Helper()
	require.NoError(t, dir.SaveJob(&domain.Job{ID: "job-1", Title: "Backend Engineer", Description: "Go services"}))
	require.NoError(t, dir.SaveCandidate(&domain.Candidate{ID: "cand-1", Name: "Pat", Email: "pat@example.com", Phone: "+15550001"}))
	require.NoError(t, dir.SaveCandidate(&domain.Candidate{ID: "cand-2", Name: "Sam", Email: "sam@example.com", Phone: "+15550002"}))
	require.NoError(t, dir.SaveCandidate(&domain.Candidate{ID: "cand-nophone", Name: "Max", Email: "max@example.com"}))
}

func TestSchedule(t *testing.T) {
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	provider := &fakeProvider{}
	svc, dir, cleanup := newTestService(t, provider, now)
	defer cleanup()
	seedDirectory(t, dir)

	record, err := svc.Schedule(context.Background(), "job-1", "cand-1", time.Time{})
	require.NoError(t, err)
	assert.Equal(t, "exec-1", record.ExecutionID)
	assert.Equal(t, domain.CallStatusScheduled, record.Status)
	assert.Equal(t, now.Add(5*time.Minute), record.CallScheduledAt)
	assert.Equal(t, []string{"+15550001"}, provider.scheduled)
}

func TestSchedule_ExplicitTime(t *testing.T) {
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	provider := &fakeProvider{}
	svc, dir, cleanup := newTestService(t, provider, now)
	defer cleanup()
	seedDirectory(t, dir)

	when := time.Date(2026, 3, 20, 9, 30, 0, 0, time.UTC)
	record, err := svc.Schedule(context.Background(), "job-1", "cand-1", when)
	require.NoError(t, err)
	assert.Equal(t, when.Add(5*time.Minute), record.CallScheduledAt)
}

func TestScheduleBatch_StaggersFromBaseTime(t *testing.T) {
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	provider := &fakeProvider{}

	db, cleanup := testhelpers.NewTestDB(t, "core")
	defer cleanup()

	dirRepo := directory.NewRepository(db.Conn(), zerolog.Nop())
	repo := NewRepository(db.Conn(), zerolog.Nop())
	seedDirectory(t, dirRepo)

	svc := NewService(repo, dirRepo, provider, domain.FixedClock{Instant: now}, Config{
		ScheduleDelay: 5 * time.Minute,
		BatchItemGap:  time.Millisecond,
	}, zerolog.Nop())

	base := time.Date(2026, 3, 21, 14, 0, 0, 0, time.UTC)
	result, err := svc.ScheduleBatch(context.Background(), "job-1", []string{"cand-1", "cand-2"}, base)
	require.NoError(t, err)
	require.Equal(t, 2, result.Scheduled)

	first, err := svc.Get(result.Items[0].ExecutionID)
	require.NoError(t, err)
	second, err := svc.Get(result.Items[1].ExecutionID)
	require.NoError(t, err)

	assert.Equal(t, base.Add(5*time.Minute), first.CallScheduledAt)
	assert.Equal(t, base.Add(time.Millisecond).Add(5*time.Minute), second.CallScheduledAt)
}

func TestSchedule_MissingPhone(t *testing.T) {
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	provider := &fakeProvider{}
	svc, dir, cleanup := newTestService(t, provider, now)
	defer cleanup()
	seedDirectory(t, dir)

	_, err := svc.Schedule(context.Background(), "job-1", "cand-nophone", time.Time{})
	assert.True(t, domain.IsValidation(err))
	assert.Empty(t, provider.scheduled, "provider must not be called")
}

func TestSchedule_UnknownJob(t *testing.T) {
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	svc, dir, cleanup := newTestService(t, &fakeProvider{}, now)
	defer cleanup()
	seedDirectory(t, dir)

	_, err := svc.Schedule(context.Background(), "job-ghost", "cand-1", time.Time{})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestScheduleBatch_PartitionsAndPartialFailure(t *testing.T) {
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	provider := &fakeProvider{}
	svc, dir, cleanup := newTestService(t, provider, now)
	defer cleanup()
	seedDirectory(t, dir)

	// cand-1 already holds a call for the job
	_, err := svc.Schedule(context.Background(), "job-1", "cand-1", time.Time{})
	require.NoError(t, err)

	result, err := svc.ScheduleBatch(context.Background(), "job-1", []string{"cand-1", "cand-2", "cand-nophone"}, time.Time{})
	require.NoError(t, err)

	assert.True(t, result.Success, "one fresh schedule is enough")
	assert.Equal(t, 1, result.Scheduled)
	require.Len(t, result.Items, 3)

	assert.True(t, result.Items[0].AlreadyScheduled)
	assert.True(t, result.Items[0].Success)
	assert.Equal(t, "exec-1", result.Items[0].ExecutionID)

	assert.True(t, result.Items[1].Success)
	assert.False(t, result.Items[1].AlreadyScheduled)

	assert.False(t, result.Items[2].Success)
	assert.NotEmpty(t, result.Items[2].Error)
}

func TestScheduleBatch_AllFailed(t *testing.T) {
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	provider := &fakeProvider{
		scheduleErr: &domain.ProviderError{Provider: "bolna", Code: "rate_limited", HTTPStatus: 429, Message: "slow down"},
	}
	svc, dir, cleanup := newTestService(t, provider, now)
	defer cleanup()
	seedDirectory(t, dir)

	result, err := svc.ScheduleBatch(context.Background(), "job-1", []string{"cand-1", "cand-2"}, time.Time{})
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Equal(t, 0, result.Scheduled)
	assert.Equal(t, "rate_limited", result.Items[0].ErrorCode)
	assert.Equal(t, 429, result.Items[0].HTTPStatus)
}

func TestScheduleBatch_EmptyInput(t *testing.T) {
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	svc, dir, cleanup := newTestService(t, &fakeProvider{}, now)
	defer cleanup()
	seedDirectory(t, dir)

	_, err := svc.ScheduleBatch(context.Background(), "job-1", nil, time.Time{})
	assert.True(t, domain.IsValidation(err))
}

func TestStop_WithinWindow(t *testing.T) {
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	provider := &fakeProvider{}
	svc, dir, cleanup := newTestService(t, provider, now)
	defer cleanup()
	seedDirectory(t, dir)

	record, err := svc.Schedule(context.Background(), "job-1", "cand-1", time.Time{})
	require.NoError(t, err)

	require.NoError(t, svc.Stop(context.Background(), record.ExecutionID))
	assert.Equal(t, []string{record.ExecutionID}, provider.stopped)

	stored, err := svc.Get(record.ExecutionID)
	require.NoError(t, err)
	assert.Equal(t, domain.CallStatusStopped, stored.Status)
}

func TestStop_PastWindowRejected(t *testing.T) {
	start := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	provider := &fakeProvider{}

	db, cleanup := testhelpers.NewTestDB(t, "core")
	defer cleanup()

	dirRepo := directory.NewRepository(db.Conn(), zerolog.Nop())
	repo := NewRepository(db.Conn(), zerolog.Nop())
	seedDirectory(t, dirRepo)

	scheduleSvc := NewService(repo, dirRepo, provider, domain.FixedClock{Instant: start}, Config{ScheduleDelay: 5 * time.Minute}, zerolog.Nop())
	record, err := scheduleSvc.Schedule(context.Background(), "job-1", "cand-1", time.Time{})
	require.NoError(t, err)

	// Same stores, later clock: the call is now live
	lateSvc := NewService(repo, dirRepo, provider, domain.FixedClock{Instant: start.Add(10 * time.Minute)}, Config{ScheduleDelay: 5 * time.Minute}, zerolog.Nop())
	err = lateSvc.Stop(context.Background(), record.ExecutionID)
	assert.True(t, domain.IsInvariant(err))
	assert.Empty(t, provider.stopped, "provider must not be called past the window")
}

func TestGetStatus_ProviderDown(t *testing.T) {
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	provider := &fakeProvider{}
	svc, dir, cleanup := newTestService(t, provider, now)
	defer cleanup()
	seedDirectory(t, dir)

	record, err := svc.Schedule(context.Background(), "job-1", "cand-1", time.Time{})
	require.NoError(t, err)

	provider.execErr = &domain.ProviderError{Provider: "bolna", Message: "down"}
	view, err := svc.GetStatus(context.Background(), record.ExecutionID)
	require.NoError(t, err, "provider outage degrades to persisted state")
	assert.Equal(t, domain.CallStatusScheduled, view.Status)
	assert.False(t, view.FromProvider)
	assert.True(t, view.CanStop)
}

func TestGetStatus_AdvancesLegalTransition(t *testing.T) {
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	provider := &fakeProvider{}
	svc, dir, cleanup := newTestService(t, provider, now)
	defer cleanup()
	seedDirectory(t, dir)

	record, err := svc.Schedule(context.Background(), "job-1", "cand-1", time.Time{})
	require.NoError(t, err)

	provider.execution = &bolna.Execution{ID: record.ExecutionID, Status: "done"}
	view, err := svc.GetStatus(context.Background(), record.ExecutionID)
	require.NoError(t, err)
	assert.True(t, view.FromProvider)
	assert.Equal(t, domain.CallStatusCompleted, view.Status)

	stored, err := svc.Get(record.ExecutionID)
	require.NoError(t, err)
	assert.Equal(t, domain.CallStatusCompleted, stored.Status)
}

func TestSyncStatus_IgnoresIllegalTransition(t *testing.T) {
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	provider := &fakeProvider{}
	svc, dir, cleanup := newTestService(t, provider, now)
	defer cleanup()
	seedDirectory(t, dir)

	record, err := svc.Schedule(context.Background(), "job-1", "cand-1", time.Time{})
	require.NoError(t, err)

	// Drive to completed
	provider.execution = &bolna.Execution{ID: record.ExecutionID, Status: "completed"}
	record, err = svc.SyncStatus(context.Background(), record)
	require.NoError(t, err)
	require.Equal(t, domain.CallStatusCompleted, record.Status)

	// Provider regressing to ringing must not move the record back
	provider.execution = &bolna.Execution{ID: record.ExecutionID, Status: "ringing"}
	record, err = svc.SyncStatus(context.Background(), record)
	require.NoError(t, err)
	assert.Equal(t, domain.CallStatusCompleted, record.Status)
}

func TestStopAllForJob(t *testing.T) {
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	provider := &fakeProvider{}
	svc, dir, cleanup := newTestService(t, provider, now)
	defer cleanup()
	seedDirectory(t, dir)

	_, err := svc.Schedule(context.Background(), "job-1", "cand-1", time.Time{})
	require.NoError(t, err)
	_, err = svc.Schedule(context.Background(), "job-1", "cand-2", time.Time{})
	require.NoError(t, err)

	result, err := svc.StopAllForJob(context.Background(), "job-1")
	require.NoError(t, err)
	assert.Equal(t, 2, result.Stopped)
	assert.Empty(t, result.Failures)
	assert.Len(t, provider.stopped, 2)
}
