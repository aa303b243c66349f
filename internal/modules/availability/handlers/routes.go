package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all availability routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/availability", func(r chi.Router) {
		r.Get("/{recruiterID}/{jobID}", h.HandleGet)
		r.Put("/{recruiterID}/{jobID}", h.HandleReplace)
	})
}
