package domain

import "time"

// Job is the pipeline's projection of a job posting. Job CRUD lives in
// the dashboard application; this service only reads what it needs for
// matching, call scheduling and recruiter assignment.
type Job struct {
	ID                 string
	Title              string
	Description        string
	PrimaryRecruiter   string // recruiter id, may be empty
	SecondaryRecruiter string // recruiter id, may be empty
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Recruiters returns the recruiters attached to the job, primary first.
func (j *Job) Recruiters() []string {
	var out []string
	if j.PrimaryRecruiter != "" {
		out = append(out, j.PrimaryRecruiter)
	}
	if j.SecondaryRecruiter != "" && j.SecondaryRecruiter != j.PrimaryRecruiter {
		out = append(out, j.SecondaryRecruiter)
	}
	return out
}

// Candidate is the pipeline's projection of a candidate profile.
type Candidate struct {
	ID         string
	Name       string
	Email      string
	Phone      string // may be empty; call scheduling rejects those
	ResumeText string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Recruiter is a dashboard user who conducts interviews.
type Recruiter struct {
	ID    string
	Name  string
	Email string
}
