// Package directory stores the pipeline's projections of jobs,
// candidates and recruiters. Full CRUD for these lives in the dashboard
// application; the pipeline reads them and the dashboard syncs them in.
package directory

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/Subham170/AI-Recruitment-sub000/internal/domain"
)

// Repository handles directory database operations (core.db).
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new directory repository.
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "directory").Logger(),
	}
}

// GetJob returns one job, or domain.ErrNotFound.
func (r *Repository) GetJob(id string) (*domain.Job, error) {
	query := `SELECT id, title, description, primary_recruiter, secondary_recruiter, created_at, updated_at
	          FROM jobs WHERE id = ?`

	var job domain.Job
	var createdAt, updatedAt int64

	err := r.db.QueryRow(query, id).Scan(
		&job.ID,
		&job.Title,
		&job.Description,
		&job.PrimaryRecruiter,
		&job.SecondaryRecruiter,
		&createdAt,
		&updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query job %s: %w", id, err)
	}

	job.CreatedAt = time.Unix(createdAt, 0).UTC()
	job.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	return &job, nil
}

// GetCandidate returns one candidate, or domain.ErrNotFound.
func (r *Repository) GetCandidate(id string) (*domain.Candidate, error) {
	query := `SELECT id, name, email, phone, resume_text, created_at, updated_at
	          FROM candidates WHERE id = ?`

	var c domain.Candidate
	var createdAt, updatedAt int64

	err := r.db.QueryRow(query, id).Scan(
		&c.ID,
		&c.Name,
		&c.Email,
		&c.Phone,
		&c.ResumeText,
		&createdAt,
		&updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query candidate %s: %w", id, err)
	}

	c.CreatedAt = time.Unix(createdAt, 0).UTC()
	c.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	return &c, nil
}

// GetRecruiter returns one recruiter, or domain.ErrNotFound.
func (r *Repository) GetRecruiter(id string) (*domain.Recruiter, error) {
	var rec domain.Recruiter

	err := r.db.QueryRow(`SELECT id, name, email FROM recruiters WHERE id = ?`, id).
		Scan(&rec.ID, &rec.Name, &rec.Email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query recruiter %s: %w", id, err)
	}

	return &rec, nil
}

// ListJobIDsUpdatedSince returns ids of jobs touched after the cutoff.
// Used by the match refresh tick to bound its work.
func (r *Repository) ListJobIDsUpdatedSince(cutoff time.Time) ([]string, error) {
	rows, err := r.db.Query(`SELECT id FROM jobs WHERE updated_at >= ? ORDER BY updated_at`, cutoff.Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to query updated jobs: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan job id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating jobs: %w", err)
	}

	return ids, nil
}

// SaveJob upserts a job projection (dashboard sync and tests).
func (r *Repository) SaveJob(job *domain.Job) error {
	now := time.Now().UTC().Unix()
	created := now
	if !job.CreatedAt.IsZero() {
		created = job.CreatedAt.Unix()
	}

	_, err := r.db.Exec(`
		INSERT INTO jobs (id, title, description, primary_recruiter, secondary_recruiter, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			description = excluded.description,
			primary_recruiter = excluded.primary_recruiter,
			secondary_recruiter = excluded.secondary_recruiter,
			updated_at = excluded.updated_at`,
		job.ID, job.Title, job.Description, job.PrimaryRecruiter, job.SecondaryRecruiter, created, now,
	)
	if err != nil {
		return fmt.Errorf("failed to save job %s: %w", job.ID, err)
	}

	return nil
}

// SaveCandidate upserts a candidate projection.
func (r *Repository) SaveCandidate(c *domain.Candidate) error {
	now := time.Now().UTC().Unix()
	created := now
	if !c.CreatedAt.IsZero() {
		created = c.CreatedAt.Unix()
	}

	_, err := r.db.Exec(`
		INSERT INTO candidates (id, name, email, phone, resume_text, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			email = excluded.email,
			phone = excluded.phone,
			resume_text = excluded.resume_text,
			updated_at = excluded.updated_at`,
		c.ID, c.Name, c.Email, c.Phone, c.ResumeText, created, now,
	)
	if err != nil {
		return fmt.Errorf("failed to save candidate %s: %w", c.ID, err)
	}

	return nil
}

// SaveRecruiter upserts a recruiter projection.
func (r *Repository) SaveRecruiter(rec *domain.Recruiter) error {
	_, err := r.db.Exec(`
		INSERT INTO recruiters (id, name, email) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, email = excluded.email`,
		rec.ID, rec.Name, rec.Email,
	)
	if err != nil {
		return fmt.Errorf("failed to save recruiter %s: %w", rec.ID, err)
	}

	return nil
}
