// Package availability manages recruiter availability windows per job.
// Slots are date-scoped half-open intervals; the assignment pass asks
// whether a recruiter covers an interview instant.
package availability

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Subham170/AI-Recruitment-sub000/internal/domain"
)

// Slot is one availability window for a recruiter on a job.
// StartTime is inclusive, EndTime exclusive.
type Slot struct {
	ID          int64  `json:"id"`
	RecruiterID string `json:"recruiterId"`
	JobID       string `json:"jobId"`
	SlotDate    string `json:"slotDate"`  // YYYY-MM-DD
	StartTime   string `json:"startTime"` // HH:MM
	EndTime     string `json:"endTime"`   // HH:MM
	IsAvailable bool   `json:"isAvailable"`
}

// Validate checks the slot's date and time formats and interval order.
func (s *Slot) Validate() error {
	if _, err := time.Parse("2006-01-02", s.SlotDate); err != nil {
		return domain.NewValidationError("slotDate", "must be YYYY-MM-DD")
	}
	start, err := parseMinutes(s.StartTime)
	if err != nil {
		return domain.NewValidationError("startTime", "must be HH:MM")
	}
	end, err := parseMinutes(s.EndTime)
	if err != nil {
		return domain.NewValidationError("endTime", "must be HH:MM")
	}
	if start >= end {
		return domain.NewValidationError("endTime", "must be after startTime")
	}
	return nil
}

// Covers reports whether the slot contains the instant t (UTC).
func (s *Slot) Covers(t time.Time) bool {
	if !s.IsAvailable {
		return false
	}
	t = t.UTC()
	if t.Format("2006-01-02") != s.SlotDate {
		return false
	}
	minutes := t.Hour()*60 + t.Minute()

	start, err := parseMinutes(s.StartTime)
	if err != nil {
		return false
	}
	end, err := parseMinutes(s.EndTime)
	if err != nil {
		return false
	}
	return minutes >= start && minutes < end
}

// parseMinutes converts HH:MM to minutes since midnight.
func parseMinutes(hhmm string) (int, error) {
	parts := strings.SplitN(hhmm, ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid time %q", hhmm)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("invalid hour in %q", hhmm)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid minute in %q", hhmm)
	}
	return h*60 + m, nil
}
