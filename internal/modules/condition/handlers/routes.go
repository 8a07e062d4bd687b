package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers the condition routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/condition/analyze", h.HandleAnalyze)
}
