// Package handlers provides HTTP handlers for match index operations.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/Subham170/AI-Recruitment-sub000/internal/domain"
	"github.com/Subham170/AI-Recruitment-sub000/internal/modules/matching"
)

// Handler handles match index HTTP requests
type Handler struct {
	service  *matching.Service
	validate *validator.Validate
	log      zerolog.Logger
}

// NewHandler creates a new matching handler
func NewHandler(service *matching.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service:  service,
		validate: validator.New(),
		log:      log.With().Str("handler", "matching").Logger(),
	}
}

// StatusUpdateRequest marks a matched pair's application flag.
type StatusUpdateRequest struct {
	Status string `json:"status" validate:"required,oneof=pending applied"`
}

// HandleRefreshJob handles POST /api/matching/jobs/{id}/refresh
func (h *Handler) HandleRefreshJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "id")

	entries, err := h.service.RefreshJobMatches(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			http.Error(w, "job not found", http.StatusNotFound)
			return
		}
		h.log.Error().Err(err).Str("job_id", jobID).Msg("Failed to refresh job matches")
		http.Error(w, "failed to refresh matches", http.StatusBadGateway)
		return
	}

	writeJSON(w, map[string]interface{}{"jobId": jobID, "matches": entries})
}

// HandleRefreshCandidate handles POST /api/matching/candidates/{id}/refresh
func (h *Handler) HandleRefreshCandidate(w http.ResponseWriter, r *http.Request) {
	candidateID := chi.URLParam(r, "id")

	entries, err := h.service.RefreshCandidateMatches(r.Context(), candidateID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			http.Error(w, "candidate not found", http.StatusNotFound)
			return
		}
		h.log.Error().Err(err).Str("candidate_id", candidateID).Msg("Failed to refresh candidate matches")
		http.Error(w, "failed to refresh matches", http.StatusBadGateway)
		return
	}

	writeJSON(w, map[string]interface{}{"candidateId": candidateID, "matches": entries})
}

// HandleGetJobMatches handles GET /api/matching/jobs/{id}
func (h *Handler) HandleGetJobMatches(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "id")

	entries, err := h.service.JobMatches(jobID)
	if err != nil {
		h.log.Error().Err(err).Str("job_id", jobID).Msg("Failed to load job matches")
		http.Error(w, "failed to load matches", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]interface{}{"jobId": jobID, "matches": entries})
}

// HandleGetCandidateMatches handles GET /api/matching/candidates/{id}
func (h *Handler) HandleGetCandidateMatches(w http.ResponseWriter, r *http.Request) {
	candidateID := chi.URLParam(r, "id")

	entries, err := h.service.CandidateMatches(candidateID)
	if err != nil {
		h.log.Error().Err(err).Str("candidate_id", candidateID).Msg("Failed to load candidate matches")
		http.Error(w, "failed to load matches", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]interface{}{"candidateId": candidateID, "matches": entries})
}

// HandleSetStatus handles PUT /api/matching/jobs/{jobID}/candidates/{candidateID}/status
func (h *Handler) HandleSetStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	candidateID := chi.URLParam(r, "candidateID")

	var req StatusUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	status, err := domain.ParseMatchStatus(req.Status)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.service.SetApplicationStatus(jobID, candidateID, status); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			http.Error(w, "pair is not currently matched", http.StatusNotFound)
			return
		}
		h.log.Error().Err(err).
			Str("job_id", jobID).
			Str("candidate_id", candidateID).
			Msg("Failed to update match status")
		http.Error(w, "failed to update status", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]interface{}{"jobId": jobID, "candidateId": candidateID, "status": req.Status})
}

func writeJSON(w http.ResponseWriter, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}
