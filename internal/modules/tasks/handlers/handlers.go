// Package handlers provides HTTP handlers for the recruiter task queue.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/Subham170/AI-Recruitment-sub000/internal/domain"
	"github.com/Subham170/AI-Recruitment-sub000/internal/modules/tasks"
)

// Handler handles task queue HTTP requests
type Handler struct {
	service  *tasks.Service
	validate *validator.Validate
	log      zerolog.Logger
}

// NewHandler creates a new tasks handler
func NewHandler(service *tasks.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service:  service,
		validate: validator.New(),
		log:      log.With().Str("handler", "tasks").Logger(),
	}
}

// StatusRequest moves a task through its state machine.
type StatusRequest struct {
	Status string `json:"status" validate:"required,oneof=completed cancelled rescheduled"`
}

// HandleList handles GET /api/tasks?recruiter={id}
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	recruiterID := r.URL.Query().Get("recruiter")
	if recruiterID == "" {
		http.Error(w, "recruiter query parameter is required", http.StatusBadRequest)
		return
	}

	list, err := h.service.ListByRecruiter(recruiterID)
	if err != nil {
		h.log.Error().Err(err).Str("recruiter_id", recruiterID).Msg("Failed to list tasks")
		http.Error(w, "failed to list tasks", http.StatusInternalServerError)
		return
	}

	if list == nil {
		list = []*tasks.Task{}
	}
	writeJSON(w, map[string]interface{}{"recruiterId": recruiterID, "tasks": list})
}

// HandleGet handles GET /api/tasks/{id}
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	task, err := h.service.Get(id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			http.Error(w, "task not found", http.StatusNotFound)
			return
		}
		h.log.Error().Err(err).Str("task_id", id).Msg("Failed to load task")
		http.Error(w, "failed to load task", http.StatusInternalServerError)
		return
	}

	writeJSON(w, task)
}

// HandleSetStatus handles POST /api/tasks/{id}/status
func (h *Handler) HandleSetStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req StatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	status, err := domain.ParseTaskStatus(req.Status)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	task, err := h.service.SetStatus(id, status)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			http.Error(w, "task not found", http.StatusNotFound)
			return
		}
		if domain.IsInvariant(err) {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		h.log.Error().Err(err).Str("task_id", id).Msg("Failed to update task status")
		http.Error(w, "failed to update task", http.StatusInternalServerError)
		return
	}

	writeJSON(w, task)
}

func writeJSON(w http.ResponseWriter, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}
