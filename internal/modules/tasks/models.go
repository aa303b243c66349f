// Package tasks manages recruiter interview tasks. One task exists per
// notified call record; recruiters drive its status from their queue.
package tasks

import (
	"time"

	"github.com/Subham170/AI-Recruitment-sub000/internal/domain"
)

// Task is one interview item on a recruiter's queue.
type Task struct {
	ID                    string            `json:"id"`
	CallRecordExecutionID string            `json:"callRecordExecutionId"`
	RecruiterID           string            `json:"recruiterId"`
	CandidateID           string            `json:"candidateId"`
	JobID                 string            `json:"jobId"`
	InterviewTime         time.Time         `json:"interviewTime"`
	Status                domain.TaskStatus `json:"status"`
	CreatedAt             time.Time         `json:"createdAt"`
	UpdatedAt             time.Time         `json:"updatedAt"`
}
