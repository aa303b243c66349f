package calls

import (
	"time"

	"github.com/Subham170/AI-Recruitment-sub000/internal/domain"
)

// CallRecord is the persistent state machine for one scheduled screening
// call. Records are created on schedule, mutated by the polling jobs and
// explicit stop actions, and never deleted.
type CallRecord struct {
	ID                  int64                  `json:"id"`
	ExecutionID         string                 `json:"executionId"`
	CandidateID         string                 `json:"candidateId"`
	JobID               string                 `json:"jobId"`
	Status              domain.CallStatus      `json:"status"`
	CallScheduledAt     time.Time              `json:"callScheduledAt"`
	UserScheduledAt     *time.Time             `json:"userScheduledAt,omitempty"`
	ScreeningStatus     domain.ScreeningStatus `json:"screeningStatus"`
	ScreeningScore      *int                   `json:"screeningScore,omitempty"`
	ScreeningAnalyzedAt *time.Time             `json:"screeningAnalyzedAt,omitempty"`
	Transcript          string                 `json:"transcript,omitempty"`
	AssignedRecruiter   string                 `json:"assignedRecruiter,omitempty"`
	NotificationSent    bool                   `json:"notificationSent"`
	RetryCount          int                    `json:"retryCount"`
	PermanentlyFailed   bool                   `json:"permanentlyFailed"`
	CreatedAt           time.Time              `json:"createdAt"`
	UpdatedAt           time.Time              `json:"updatedAt"`
}

// CanStop reports whether the stop invariant still holds at now:
// a call can only be cancelled strictly before its scheduled time.
func (c *CallRecord) CanStop(now time.Time) bool {
	return now.Before(c.CallScheduledAt)
}

// InterviewTime returns the instant the screening conversation settled
// on, falling back to the call's own scheduled time when none was
// extracted from the transcript.
func (c *CallRecord) InterviewTime() time.Time {
	if c.UserScheduledAt != nil {
		return *c.UserScheduledAt
	}
	return c.CallScheduledAt
}

// StatusView is the user-facing status of one call, including the
// derived stop predicate.
type StatusView struct {
	ExecutionID     string            `json:"executionId"`
	Status          domain.CallStatus `json:"status"`
	CallScheduledAt time.Time         `json:"callScheduledAt"`
	CanStop         bool              `json:"canStop"`
	FromProvider    bool              `json:"fromProvider"` // false when serving last-known persisted state
}

// BatchItemResult is the outcome for one candidate in a batch schedule.
type BatchItemResult struct {
	CandidateID      string `json:"candidateId"`
	Success          bool   `json:"success"`
	AlreadyScheduled bool   `json:"alreadyScheduled,omitempty"`
	ExecutionID      string `json:"executionId,omitempty"`
	Error            string `json:"error,omitempty"`
	ErrorCode        string `json:"errorCode,omitempty"`
	HTTPStatus       int    `json:"httpStatus,omitempty"`
}

// BatchResult aggregates a batch schedule. Success requires at least one
// successful schedule; partial failure is a reportable outcome, not an
// exception.
type BatchResult struct {
	Success   bool              `json:"success"`
	Scheduled int               `json:"scheduled"`
	Items     []BatchItemResult `json:"items"`
}

// StopAllResult reports a stop-all sweep over one job's calls.
type StopAllResult struct {
	Stopped  int               `json:"stopped"`
	Failures []BatchItemResult `json:"failures,omitempty"`
}
