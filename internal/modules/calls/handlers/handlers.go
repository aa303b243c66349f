// Package handlers provides HTTP handlers for call lifecycle operations.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/Subham170/AI-Recruitment-sub000/internal/domain"
	"github.com/Subham170/AI-Recruitment-sub000/internal/modules/calls"
)

// Handler handles call lifecycle HTTP requests
type Handler struct {
	service  *calls.Service
	validate *validator.Validate
	log      zerolog.Logger
}

// NewHandler creates a new calls handler
func NewHandler(service *calls.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service:  service,
		validate: validator.New(),
		log:      log.With().Str("handler", "calls").Logger(),
	}
}

// ScheduleRequest books one screening call. ScheduleAt is the RFC3339
// instant the call should be placed around; omitted means now.
type ScheduleRequest struct {
	JobID       string `json:"jobId" validate:"required"`
	CandidateID string `json:"candidateId" validate:"required"`
	ScheduleAt  string `json:"scheduleAt,omitempty" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
}

// BatchScheduleRequest books calls for many candidates against one job,
// staggered from BaseTime (RFC3339, omitted means now).
type BatchScheduleRequest struct {
	JobID        string   `json:"jobId" validate:"required"`
	CandidateIDs []string `json:"candidateIds" validate:"required,min=1,dive,required"`
	BaseTime     string   `json:"baseTime,omitempty" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
}

// parseInstant turns an optional RFC3339 field into a time, zero when
// absent. Validation upstream guarantees the format.
func parseInstant(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}

// HandleSchedule handles POST /api/calls/schedule
func (h *Handler) HandleSchedule(w http.ResponseWriter, r *http.Request) {
	var req ScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	record, err := h.service.Schedule(r.Context(), req.JobID, req.CandidateID, parseInstant(req.ScheduleAt))
	if err != nil {
		h.writeScheduleError(w, req.JobID, req.CandidateID, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	writeJSON(w, record)
}

// HandleScheduleBatch handles POST /api/calls/schedule/batch
func (h *Handler) HandleScheduleBatch(w http.ResponseWriter, r *http.Request) {
	var req BatchScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := h.service.ScheduleBatch(r.Context(), req.JobID, req.CandidateIDs, parseInstant(req.BaseTime))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			http.Error(w, "job not found", http.StatusNotFound)
			return
		}
		if domain.IsValidation(err) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.log.Error().Err(err).Str("job_id", req.JobID).Msg("Batch schedule failed")
		http.Error(w, "failed to schedule batch", http.StatusInternalServerError)
		return
	}

	// A batch with zero successes is still a well-formed response, but
	// signalled as a failed dependency rather than success.
	if !result.Success {
		w.WriteHeader(http.StatusBadGateway)
	}
	writeJSON(w, result)
}

// HandleGetStatus handles GET /api/calls/{executionID}/status
func (h *Handler) HandleGetStatus(w http.ResponseWriter, r *http.Request) {
	executionID := chi.URLParam(r, "executionID")

	view, err := h.service.GetStatus(r.Context(), executionID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			http.Error(w, "call not found", http.StatusNotFound)
			return
		}
		h.log.Error().Err(err).Str("execution_id", executionID).Msg("Failed to load call status")
		http.Error(w, "failed to load status", http.StatusInternalServerError)
		return
	}

	writeJSON(w, view)
}

// HandleGet handles GET /api/calls/{executionID}
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	executionID := chi.URLParam(r, "executionID")

	record, err := h.service.Get(executionID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			http.Error(w, "call not found", http.StatusNotFound)
			return
		}
		h.log.Error().Err(err).Str("execution_id", executionID).Msg("Failed to load call record")
		http.Error(w, "failed to load call", http.StatusInternalServerError)
		return
	}

	writeJSON(w, record)
}

// HandleListByJob handles GET /api/calls/jobs/{jobID}
func (h *Handler) HandleListByJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")

	records, err := h.service.ListByJob(jobID)
	if err != nil {
		h.log.Error().Err(err).Str("job_id", jobID).Msg("Failed to list calls")
		http.Error(w, "failed to list calls", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]interface{}{"jobId": jobID, "calls": records})
}

// HandleStop handles POST /api/calls/{executionID}/stop
func (h *Handler) HandleStop(w http.ResponseWriter, r *http.Request) {
	executionID := chi.URLParam(r, "executionID")

	if err := h.service.Stop(r.Context(), executionID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			http.Error(w, "call not found", http.StatusNotFound)
			return
		}
		if domain.IsInvariant(err) {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		if perr, ok := domain.AsProviderError(err); ok {
			http.Error(w, perr.Error(), http.StatusBadGateway)
			return
		}
		h.log.Error().Err(err).Str("execution_id", executionID).Msg("Failed to stop call")
		http.Error(w, "failed to stop call", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]interface{}{"executionId": executionID, "status": "stopped"})
}

// HandleStopAllForJob handles POST /api/calls/jobs/{jobID}/stop
func (h *Handler) HandleStopAllForJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")

	result, err := h.service.StopAllForJob(r.Context(), jobID)
	if err != nil {
		h.log.Error().Err(err).Str("job_id", jobID).Msg("Failed to stop calls for job")
		http.Error(w, "failed to stop calls", http.StatusInternalServerError)
		return
	}

	writeJSON(w, result)
}

func (h *Handler) writeScheduleError(w http.ResponseWriter, jobID, candidateID string, err error) {
	if errors.Is(err, domain.ErrNotFound) {
		http.Error(w, "job or candidate not found", http.StatusNotFound)
		return
	}
	if domain.IsValidation(err) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if perr, ok := domain.AsProviderError(err); ok {
		http.Error(w, perr.Error(), http.StatusBadGateway)
		return
	}
	h.log.Error().Err(err).
		Str("job_id", jobID).
		Str("candidate_id", candidateID).
		Msg("Failed to schedule call")
	http.Error(w, "failed to schedule call", http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}
