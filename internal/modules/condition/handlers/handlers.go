// Package handlers provides HTTP handlers for condition grading.
package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/vintagescan/pricer/internal/domain"
	"github.com/vintagescan/pricer/internal/modules/condition"
)

// Handler handles condition grading HTTP requests
type Handler struct {
	log zerolog.Logger
}

// NewHandler creates a new condition handler
func NewHandler(log zerolog.Logger) *Handler {
	return &Handler{log: log.With().Str("handler", "condition").Logger()}
}

// AnalyzeRequest is the body of POST /api/condition/analyze. BasePrice is an
// optional good-condition price in local currency.
type AnalyzeRequest struct {
	BasePrice   *float64 `json:"base_price,omitempty"`
	Description string   `json:"description"`
}

// AnalyzeResponse carries the grade, its label and, when a base price was
// given, the condition-adjusted price.
type AnalyzeResponse struct {
	AdjustedPrice *int64                `json:"adjusted_price,omitempty"`
	Label         condition.Description `json:"label"`
	domain.ConditionAnalysis
}

// HandleAnalyze handles POST /api/condition/analyze
func (h *Handler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		return
	}
	if strings.TrimSpace(req.Description) == "" {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "description is required"})
		return
	}
	if req.BasePrice != nil && *req.BasePrice < 0 {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "base_price must not be negative"})
		return
	}

	analysis := condition.Analyze(req.Description)
	resp := AnalyzeResponse{
		ConditionAnalysis: analysis,
		Label:             condition.Describe(analysis.Grade),
	}
	if req.BasePrice != nil {
		adjusted := condition.ApplyMultiplier(*req.BasePrice, analysis)
		resp.AdjustedPrice = &adjusted
	}

	h.log.Debug().
		Str("grade", string(analysis.Grade)).
		Int("confidence", analysis.Confidence).
		Msg("Condition analyzed")

	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
