package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all task queue routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/tasks", func(r chi.Router) {
		r.Get("/", h.HandleList)
		r.Get("/{id}", h.HandleGet)
		r.Post("/{id}/status", h.HandleSetStatus)
	})
}
