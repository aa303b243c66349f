package matching

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/Subham170/AI-Recruitment-sub000/internal/database"
	"github.com/Subham170/AI-Recruitment-sub000/internal/domain"
)

// Repository handles match index database operations (index.db):
// embedding vectors and both directional match lists.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new matching repository.
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "matching").Logger(),
	}
}

// SaveEmbedding upserts an entity's embedding vector.
// Vectors are stored as msgpack blobs.
func (r *Repository) SaveEmbedding(entityType, entityID string, vector []float64) error {
	blob, err := msgpack.Marshal(vector)
	if err != nil {
		return fmt.Errorf("failed to encode embedding for %s %s: %w", entityType, entityID, err)
	}

	_, err = r.db.Exec(`
		INSERT INTO embeddings (entity_type, entity_id, vector, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(entity_type, entity_id) DO UPDATE SET
			vector = excluded.vector,
			updated_at = excluded.updated_at`,
		entityType, entityID, blob, time.Now().UTC().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to save embedding for %s %s: %w", entityType, entityID, err)
	}

	return nil
}

// GetEmbedding returns an entity's embedding vector, or domain.ErrNotFound.
func (r *Repository) GetEmbedding(entityType, entityID string) ([]float64, error) {
	var blob []byte

	err := r.db.QueryRow(
		`SELECT vector FROM embeddings WHERE entity_type = ? AND entity_id = ?`,
		entityType, entityID,
	).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query embedding for %s %s: %w", entityType, entityID, err)
	}

	var vector []float64
	if err := msgpack.Unmarshal(blob, &vector); err != nil {
		return nil, fmt.Errorf("failed to decode embedding for %s %s: %w", entityType, entityID, err)
	}

	return vector, nil
}

// ListEmbeddings returns all stored vectors of one entity type.
func (r *Repository) ListEmbeddings(entityType string) ([]EntityVector, error) {
	rows, err := r.db.Query(
		`SELECT entity_id, vector FROM embeddings WHERE entity_type = ? ORDER BY entity_id`,
		entityType,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query embeddings for %s: %w", entityType, err)
	}
	defer rows.Close()

	var out []EntityVector
	for rows.Next() {
		var ev EntityVector
		var blob []byte
		if err := rows.Scan(&ev.EntityID, &blob); err != nil {
			return nil, fmt.Errorf("failed to scan embedding row: %w", err)
		}
		if err := msgpack.Unmarshal(blob, &ev.Vector); err != nil {
			return nil, fmt.Errorf("failed to decode embedding for %s: %w", ev.EntityID, err)
		}
		out = append(out, ev)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating embeddings: %w", err)
	}

	return out, nil
}

// GetJobMatches returns the job-side match list, score descending.
func (r *Repository) GetJobMatches(jobID string) ([]MatchEntry, error) {
	rows, err := r.db.Query(`
		SELECT candidate_id, score, status, matched_at
		FROM job_matches WHERE job_id = ?
		ORDER BY score DESC, candidate_id`,
		jobID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query job matches: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows, true)
}

// GetCandidateMatches returns the candidate-side match list, score descending.
func (r *Repository) GetCandidateMatches(candidateID string) ([]MatchEntry, error) {
	rows, err := r.db.Query(`
		SELECT job_id, score, matched_at
		FROM candidate_matches WHERE candidate_id = ?
		ORDER BY score DESC, job_id`,
		candidateID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query candidate matches: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows, false)
}

func scanEntries(rows *sql.Rows, withStatus bool) ([]MatchEntry, error) {
	var entries []MatchEntry
	for rows.Next() {
		var e MatchEntry
		var matchedAt int64
		var err error
		if withStatus {
			var status string
			err = rows.Scan(&e.CounterpartID, &e.Score, &status, &matchedAt)
			e.Status = domain.MatchStatus(status)
		} else {
			err = rows.Scan(&e.CounterpartID, &e.Score, &matchedAt)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to scan match entry: %w", err)
		}
		e.MatchedAt = time.Unix(matchedAt, 0).UTC()
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating match entries: %w", err)
	}

	return entries, nil
}

// GetJobMatchStatuses returns the application flag per candidate for a
// job's current match list. The refresh path uses this snapshot to carry
// recruiter-set flags across a wholesale rewrite.
func (r *Repository) GetJobMatchStatuses(jobID string) (map[string]domain.MatchStatus, error) {
	rows, err := r.db.Query(`SELECT candidate_id, status FROM job_matches WHERE job_id = ?`, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to query job match statuses: %w", err)
	}
	defer rows.Close()

	statuses := make(map[string]domain.MatchStatus)
	for rows.Next() {
		var candidateID, status string
		if err := rows.Scan(&candidateID, &status); err != nil {
			return nil, fmt.Errorf("failed to scan match status: %w", err)
		}
		statuses[candidateID] = domain.MatchStatus(status)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating match statuses: %w", err)
	}

	return statuses, nil
}

// ReplaceJobMatches rewrites a job's match list wholesale.
// Entries must already carry their preserved status flags.
func (r *Repository) ReplaceJobMatches(jobID string, entries []MatchEntry) error {
	return database.WithTransaction(r.db, func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM job_matches WHERE job_id = ?`, jobID); err != nil {
			return fmt.Errorf("failed to clear job matches: %w", err)
		}

		for _, e := range entries {
			status := e.Status
			if status == "" {
				status = domain.MatchStatusPending
			}
			if _, err := tx.Exec(`
				INSERT INTO job_matches (job_id, candidate_id, score, status, matched_at)
				VALUES (?, ?, ?, ?, ?)`,
				jobID, e.CounterpartID, e.Score, string(status), e.MatchedAt.Unix(),
			); err != nil {
				return fmt.Errorf("failed to insert job match %s: %w", e.CounterpartID, err)
			}
		}

		return nil
	})
}

// ReplaceCandidateMatches rewrites a candidate's match list wholesale.
func (r *Repository) ReplaceCandidateMatches(candidateID string, entries []MatchEntry) error {
	return database.WithTransaction(r.db, func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM candidate_matches WHERE candidate_id = ?`, candidateID); err != nil {
			return fmt.Errorf("failed to clear candidate matches: %w", err)
		}

		for _, e := range entries {
			if _, err := tx.Exec(`
				INSERT INTO candidate_matches (candidate_id, job_id, score, matched_at)
				VALUES (?, ?, ?, ?)`,
				candidateID, e.CounterpartID, e.Score, e.MatchedAt.Unix(),
			); err != nil {
				return fmt.Errorf("failed to insert candidate match %s: %w", e.CounterpartID, err)
			}
		}

		return nil
	})
}

// UpsertCandidateMatch updates one reverse-direction entry on the
// candidate side, then prunes the list back to topN by score.
func (r *Repository) UpsertCandidateMatch(candidateID, jobID string, score float64, matchedAt time.Time, topN int) error {
	_, err := r.db.Exec(`
		INSERT INTO candidate_matches (candidate_id, job_id, score, matched_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(candidate_id, job_id) DO UPDATE SET
			score = excluded.score,
			matched_at = excluded.matched_at`,
		candidateID, jobID, score, matchedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert candidate match: %w", err)
	}

	return r.pruneCandidateMatches(candidateID, topN)
}

// UpsertJobMatch updates one reverse-direction entry on the job side,
// preserving any recruiter-set status, then prunes to topN.
func (r *Repository) UpsertJobMatch(jobID, candidateID string, score float64, matchedAt time.Time, topN int) error {
	_, err := r.db.Exec(`
		INSERT INTO job_matches (job_id, candidate_id, score, status, matched_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(job_id, candidate_id) DO UPDATE SET
			score = excluded.score,
			matched_at = excluded.matched_at`,
		jobID, candidateID, score, string(domain.MatchStatusPending), matchedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert job match: %w", err)
	}

	return r.pruneJobMatches(jobID, topN)
}

func (r *Repository) pruneCandidateMatches(candidateID string, topN int) error {
	_, err := r.db.Exec(`
		DELETE FROM candidate_matches
		WHERE candidate_id = ? AND job_id NOT IN (
			SELECT job_id FROM candidate_matches
			WHERE candidate_id = ?
			ORDER BY score DESC, job_id
			LIMIT ?
		)`,
		candidateID, candidateID, topN,
	)
	if err != nil {
		return fmt.Errorf("failed to prune candidate matches: %w", err)
	}
	return nil
}

func (r *Repository) pruneJobMatches(jobID string, topN int) error {
	_, err := r.db.Exec(`
		DELETE FROM job_matches
		WHERE job_id = ? AND candidate_id NOT IN (
			SELECT candidate_id FROM job_matches
			WHERE job_id = ?
			ORDER BY score DESC, candidate_id
			LIMIT ?
		)`,
		jobID, jobID, topN,
	)
	if err != nil {
		return fmt.Errorf("failed to prune job matches: %w", err)
	}
	return nil
}

// SetJobMatchStatus updates the application flag on a job-side entry.
// Returns domain.ErrNotFound when the pair is not currently matched.
func (r *Repository) SetJobMatchStatus(jobID, candidateID string, status domain.MatchStatus) error {
	result, err := r.db.Exec(
		`UPDATE job_matches SET status = ? WHERE job_id = ? AND candidate_id = ?`,
		string(status), jobID, candidateID,
	)
	if err != nil {
		return fmt.Errorf("failed to update match status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}

	return nil
}
