// Package handlers provides HTTP handlers for market price operations.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/vintagescan/pricer/internal/domain"
	"github.com/vintagescan/pricer/internal/modules/market"
)

// Estimator is the market price pipeline.
type Estimator interface {
	Estimate(ctx context.Context, req market.Request) (*domain.MarketPriceResult, error)
	Status() market.Status
}

// Handler handles market price HTTP requests
type Handler struct {
	estimator Estimator
	rates     domain.RateProvider
	log       zerolog.Logger
}

// NewHandler creates a new market price handler
func NewHandler(estimator Estimator, rates domain.RateProvider, log zerolog.Logger) *Handler {
	return &Handler{
		estimator: estimator,
		rates:     rates,
		log:       log.With().Str("handler", "market").Logger(),
	}
}

// HandleEstimate handles POST /api/market-price
func (h *Handler) HandleEstimate(w http.ResponseWriter, r *http.Request) {
	var req market.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Warn().Err(err).Msg("Failed to decode request body")
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.ProductName == "" || req.Brand == "" {
		h.writeError(w, http.StatusBadRequest, "product_name and brand are required")
		return
	}

	result, err := h.estimator.Estimate(r.Context(), req)
	if errors.Is(err, domain.ErrNoSources) {
		h.writeError(w, http.StatusServiceUnavailable, "No price data available")
		return
	}
	if err != nil {
		h.log.Error().Err(err).Msg("Market pricing failed")
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error":   "Internal server error",
			"message": err.Error(),
		})
		return
	}

	h.writeJSON(w, http.StatusOK, result)
}

// HandleStatus handles GET /api/market-price
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.estimator.Status())
}

// HandleExchangeRate handles GET /api/exchange-rate
func (h *Handler) HandleExchangeRate(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.rates.GetRate(r.Context()))
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
