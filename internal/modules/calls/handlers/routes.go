package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all call lifecycle routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/calls", func(r chi.Router) {
		r.Post("/schedule", h.HandleSchedule)
		r.Post("/schedule/batch", h.HandleScheduleBatch)

		r.Get("/jobs/{jobID}", h.HandleListByJob)
		r.Post("/jobs/{jobID}/stop", h.HandleStopAllForJob)

		r.Get("/{executionID}", h.HandleGet)
		r.Get("/{executionID}/status", h.HandleGetStatus)
		r.Post("/{executionID}/stop", h.HandleStop)
	})
}
