package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers the feedback routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/feedback/price", func(r chi.Router) {
		r.Post("/", h.HandleSubmit)
		r.Get("/", h.HandleStats)
	})
}
