package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers the market price routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/market-price", func(r chi.Router) {
		r.Post("/", h.HandleEstimate)
		r.Get("/", h.HandleStatus)
	})
	r.Get("/exchange-rate", h.HandleExchangeRate)
}
