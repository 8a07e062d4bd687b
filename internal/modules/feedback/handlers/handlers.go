// Package handlers provides HTTP handlers for price feedback.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/vintagescan/pricer/internal/domain"
	"github.com/vintagescan/pricer/internal/modules/feedback"
)

// Handler handles feedback HTTP requests
type Handler struct {
	service *feedback.Service
	log     zerolog.Logger
}

// NewHandler creates a new feedback handler
func NewHandler(service *feedback.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "feedback").Logger(),
	}
}

// SubmitRequest is the body of POST /api/feedback/price. Prices are in
// local currency.
type SubmitRequest struct {
	ActualSold   *float64            `json:"actual_sold,omitempty"`
	Brand        string              `json:"brand"`
	ProductName  string              `json:"product_name"`
	FeedbackType domain.FeedbackType `json:"feedback_type,omitempty"`
	Marketplace  string              `json:"marketplace,omitempty"`
	Notes        string              `json:"notes,omitempty"`
	AIEstimated  float64             `json:"ai_estimated"`
}

// HandleSubmit handles POST /api/feedback/price
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	var req SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		return
	}

	id, err := h.service.Submit(r.Context(), domain.PriceFeedback{
		Brand:        req.Brand,
		ProductName:  req.ProductName,
		AIEstimated:  req.AIEstimated,
		ActualSold:   req.ActualSold,
		FeedbackType: req.FeedbackType,
		Marketplace:  req.Marketplace,
		Notes:        req.Notes,
	})
	if errors.Is(err, feedback.ErrInvalidFeedback) {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to submit feedback")
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to submit feedback"})
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"id":      id,
		"message": "Thank you for your feedback!",
	})
}

// HandleStats handles GET /api/feedback/price?brand=
func (h *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context(), r.URL.Query().Get("brand"))
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to get accuracy stats")
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to get accuracy stats"})
		return
	}
	h.writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
