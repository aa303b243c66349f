package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all match index routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/matching", func(r chi.Router) {
		r.Post("/jobs/{id}/refresh", h.HandleRefreshJob)
		r.Get("/jobs/{id}", h.HandleGetJobMatches)
		r.Put("/jobs/{jobID}/candidates/{candidateID}/status", h.HandleSetStatus)

		r.Post("/candidates/{id}/refresh", h.HandleRefreshCandidate)
		r.Get("/candidates/{id}", h.HandleGetCandidateMatches)
	})
}
