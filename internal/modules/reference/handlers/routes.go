package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers the reference price routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/reference/range", h.HandleRange)
}
