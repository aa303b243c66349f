package domain

import "fmt"

// CallStatus is the lifecycle state of a screening call.
type CallStatus string

const (
	CallStatusScheduled  CallStatus = "scheduled"
	CallStatusInProgress CallStatus = "in_progress"
	CallStatusCompleted  CallStatus = "completed"
	CallStatusFailed     CallStatus = "failed"
	CallStatusStopped    CallStatus = "stopped"
)

// callTransitions is the allowed forward edges of the call state machine.
// The stopped edge is additionally gated by the schedule-time invariant,
// enforced in the lifecycle service (a live call cannot be stopped).
var callTransitions = map[CallStatus][]CallStatus{
	CallStatusScheduled:  {CallStatusInProgress, CallStatusCompleted, CallStatusFailed, CallStatusStopped},
	CallStatusInProgress: {CallStatusCompleted, CallStatusFailed, CallStatusStopped},
	CallStatusCompleted:  {},
	CallStatusFailed:     {},
	CallStatusStopped:    {},
}

// CanTransition reports whether moving from s to next is a legal edge.
func (s CallStatus) CanTransition(next CallStatus) bool {
	for _, allowed := range callTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the call can no longer change state.
func (s CallStatus) IsTerminal() bool {
	return len(callTransitions[s]) == 0
}

// ParseCallStatus normalizes a provider-reported status string.
// Providers report a handful of synonyms for the same states.
func ParseCallStatus(raw string) (CallStatus, error) {
	switch raw {
	case "scheduled", "queued", "initiated":
		return CallStatusScheduled, nil
	case "in_progress", "in-progress", "ringing", "busy":
		return CallStatusInProgress, nil
	case "completed", "done":
		return CallStatusCompleted, nil
	case "failed", "error", "no-answer":
		return CallStatusFailed, nil
	case "stopped", "cancelled", "canceled":
		return CallStatusStopped, nil
	}
	return "", fmt.Errorf("unknown call status %q", raw)
}

// ScreeningStatus tracks transcript scoring for a completed call.
// It only moves forward: pending -> completed or pending -> failed.
type ScreeningStatus string

const (
	ScreeningPending   ScreeningStatus = "pending"
	ScreeningCompleted ScreeningStatus = "completed"
	ScreeningFailed    ScreeningStatus = "failed"
)

// CanTransition reports whether the screening status may advance to next.
func (s ScreeningStatus) CanTransition(next ScreeningStatus) bool {
	return s == ScreeningPending && (next == ScreeningCompleted || next == ScreeningFailed)
}

// TaskStatus is the human-facing status of an assigned interview task.
type TaskStatus string

const (
	TaskStatusScheduled   TaskStatus = "scheduled"
	TaskStatusCompleted   TaskStatus = "completed"
	TaskStatusCancelled   TaskStatus = "cancelled"
	TaskStatusRescheduled TaskStatus = "rescheduled"
)

var taskTransitions = map[TaskStatus][]TaskStatus{
	TaskStatusScheduled:   {TaskStatusCompleted, TaskStatusCancelled, TaskStatusRescheduled},
	TaskStatusRescheduled: {TaskStatusCompleted, TaskStatusCancelled},
	TaskStatusCompleted:   {},
	TaskStatusCancelled:   {},
}

// CanTransition reports whether moving from s to next is a legal edge.
func (s TaskStatus) CanTransition(next TaskStatus) bool {
	for _, allowed := range taskTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// ParseTaskStatus validates a user-supplied task status.
func ParseTaskStatus(raw string) (TaskStatus, error) {
	switch TaskStatus(raw) {
	case TaskStatusScheduled, TaskStatusCompleted, TaskStatusCancelled, TaskStatusRescheduled:
		return TaskStatus(raw), nil
	}
	return "", fmt.Errorf("unknown task status %q", raw)
}

// MatchStatus is the application flag carried on a job-side match entry.
type MatchStatus string

const (
	MatchStatusPending MatchStatus = "pending"
	MatchStatusApplied MatchStatus = "applied"
)

// ParseMatchStatus validates a user-supplied match status.
func ParseMatchStatus(raw string) (MatchStatus, error) {
	switch MatchStatus(raw) {
	case MatchStatusPending, MatchStatusApplied:
		return MatchStatus(raw), nil
	}
	return "", fmt.Errorf("unknown match status %q", raw)
}
