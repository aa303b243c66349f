// Package handlers provides HTTP handlers for availability management.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/Subham170/AI-Recruitment-sub000/internal/domain"
	"github.com/Subham170/AI-Recruitment-sub000/internal/modules/availability"
)

// Handler handles availability HTTP requests
type Handler struct {
	service  *availability.Service
	validate *validator.Validate
	log      zerolog.Logger
}

// NewHandler creates a new availability handler
func NewHandler(service *availability.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service:  service,
		validate: validator.New(),
		log:      log.With().Str("handler", "availability").Logger(),
	}
}

// SlotPayload is one slot in a replace request.
type SlotPayload struct {
	SlotDate    string `json:"slotDate" validate:"required"`
	StartTime   string `json:"startTime" validate:"required"`
	EndTime     string `json:"endTime" validate:"required"`
	IsAvailable *bool  `json:"isAvailable"`
}

// ReplaceRequest swaps a recruiter's full slot set for one job.
type ReplaceRequest struct {
	Slots []SlotPayload `json:"slots" validate:"required,dive"`
}

// HandleGet handles GET /api/availability/{recruiterID}/{jobID}
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	recruiterID := chi.URLParam(r, "recruiterID")
	jobID := chi.URLParam(r, "jobID")

	slots, err := h.service.Get(recruiterID, jobID)
	if err != nil {
		h.log.Error().Err(err).
			Str("recruiter_id", recruiterID).
			Str("job_id", jobID).
			Msg("Failed to load availability")
		http.Error(w, "failed to load availability", http.StatusInternalServerError)
		return
	}

	if slots == nil {
		slots = []*availability.Slot{}
	}
	writeJSON(w, map[string]interface{}{
		"recruiterId": recruiterID,
		"jobId":       jobID,
		"slots":       slots,
	})
}

// HandleReplace handles PUT /api/availability/{recruiterID}/{jobID}
func (h *Handler) HandleReplace(w http.ResponseWriter, r *http.Request) {
	recruiterID := chi.URLParam(r, "recruiterID")
	jobID := chi.URLParam(r, "jobID")

	var req ReplaceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	slots := make([]*availability.Slot, 0, len(req.Slots))
	for _, p := range req.Slots {
		available := true
		if p.IsAvailable != nil {
			available = *p.IsAvailable
		}
		slots = append(slots, &availability.Slot{
			RecruiterID: recruiterID,
			JobID:       jobID,
			SlotDate:    p.SlotDate,
			StartTime:   p.StartTime,
			EndTime:     p.EndTime,
			IsAvailable: available,
		})
	}

	if err := h.service.Replace(recruiterID, jobID, slots); err != nil {
		if domain.IsValidation(err) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.log.Error().Err(err).
			Str("recruiter_id", recruiterID).
			Str("job_id", jobID).
			Msg("Failed to replace availability")
		http.Error(w, "failed to save availability", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]interface{}{
		"recruiterId": recruiterID,
		"jobId":       jobID,
		"slots":       len(slots),
	})
}

func writeJSON(w http.ResponseWriter, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}
