package availability

import (
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/Subham170/AI-Recruitment-sub000/internal/database"
)

// Repository handles availability slot database operations (core.db).
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new availability repository.
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "availability").Logger(),
	}
}

// ListForRecruiterJob returns a recruiter's slots for one job, ordered
// by date then start time.
func (r *Repository) ListForRecruiterJob(recruiterID, jobID string) ([]*Slot, error) {
	return r.list(`
		SELECT id, recruiter_id, job_id, slot_date, start_time, end_time, is_available
		FROM availability_slots
		WHERE recruiter_id = ? AND job_id = ?
		ORDER BY slot_date, start_time`,
		recruiterID, jobID)
}

// ListForJobOnDate returns every recruiter's slots for a job on one
// date. Input to the assignment pass's coverage check.
func (r *Repository) ListForJobOnDate(jobID, slotDate string) ([]*Slot, error) {
	return r.list(`
		SELECT id, recruiter_id, job_id, slot_date, start_time, end_time, is_available
		FROM availability_slots
		WHERE job_id = ? AND slot_date = ?
		ORDER BY recruiter_id, start_time`,
		jobID, slotDate)
}

// ReplaceForRecruiterJob swaps a recruiter's full slot set for one job
// in a single transaction. The calendar UI always submits the whole set.
func (r *Repository) ReplaceForRecruiterJob(recruiterID, jobID string, slots []*Slot) error {
	err := database.WithTransaction(r.db, func(tx *sql.Tx) error {
		if _, err := tx.Exec(
			`DELETE FROM availability_slots WHERE recruiter_id = ? AND job_id = ?`,
			recruiterID, jobID,
		); err != nil {
			return fmt.Errorf("failed to clear slots: %w", err)
		}

		for _, slot := range slots {
			available := 0
			if slot.IsAvailable {
				available = 1
			}
			if _, err := tx.Exec(`
				INSERT INTO availability_slots (recruiter_id, job_id, slot_date, start_time, end_time, is_available)
				VALUES (?, ?, ?, ?, ?, ?)`,
				recruiterID, jobID, slot.SlotDate, slot.StartTime, slot.EndTime, available,
			); err != nil {
				return fmt.Errorf("failed to insert slot %s %s: %w", slot.SlotDate, slot.StartTime, err)
			}
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to replace slots for recruiter %s job %s: %w", recruiterID, jobID, err)
	}

	r.log.Debug().
		Str("recruiter_id", recruiterID).
		Str("job_id", jobID).
		Int("slots", len(slots)).
		Msg("Availability slots replaced")

	return nil
}

func (r *Repository) list(query string, args ...interface{}) ([]*Slot, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query availability slots: %w", err)
	}
	defer rows.Close()

	var slots []*Slot
	for rows.Next() {
		var slot Slot
		var available int
		if err := rows.Scan(
			&slot.ID, &slot.RecruiterID, &slot.JobID,
			&slot.SlotDate, &slot.StartTime, &slot.EndTime, &available,
		); err != nil {
			return nil, fmt.Errorf("failed to scan availability slot: %w", err)
		}
		slot.IsAvailable = available != 0
		slots = append(slots, &slot)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating availability slots: %w", err)
	}

	return slots, nil
}
