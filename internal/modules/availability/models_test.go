package availability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSlotValidate(t *testing.T) {
	valid := Slot{SlotDate: "2026-03-14", StartTime: "09:00", EndTime: "12:30"}
	assert.NoError(t, valid.Validate())

	tests := []struct {
		name string
		slot Slot
	}{
		{"bad date", Slot{SlotDate: "14-03-2026", StartTime: "09:00", EndTime: "10:00"}},
		{"bad start", Slot{SlotDate: "2026-03-14", StartTime: "9am", EndTime: "10:00"}},
		{"bad end", Slot{SlotDate: "2026-03-14", StartTime: "09:00", EndTime: "25:00"}},
		{"inverted interval", Slot{SlotDate: "2026-03-14", StartTime: "12:00", EndTime: "09:00"}},
		{"empty interval", Slot{SlotDate: "2026-03-14", StartTime: "09:00", EndTime: "09:00"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.slot.Validate())
		})
	}
}

func TestSlotCovers(t *testing.T) {
	slot := Slot{
		RecruiterID: "rec-1",
		JobID:       "job-1",
		SlotDate:    "2026-03-14",
		StartTime:   "09:00",
		EndTime:     "12:00",
		IsAvailable: true,
	}

	at := func(hour, minute int) time.Time {
		return time.Date(2026, 3, 14, hour, minute, 0, 0, time.UTC)
	}

	assert.True(t, slot.Covers(at(9, 0)), "start is inclusive")
	assert.True(t, slot.Covers(at(11, 59)))
	assert.False(t, slot.Covers(at(12, 0)), "end is exclusive")
	assert.False(t, slot.Covers(at(8, 59)))

	otherDay := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	assert.False(t, slot.Covers(otherDay))

	blocked := slot
	blocked.IsAvailable = false
	assert.False(t, blocked.Covers(at(10, 0)))
}
