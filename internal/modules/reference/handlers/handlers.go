// Package handlers provides HTTP handlers for reference price lookups.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/vintagescan/pricer/internal/domain"
)

// RangeReader aggregates reference rows over an era window.
type RangeReader interface {
	Range(ctx context.Context, brand, productType string, eraStart, eraEnd int) (*domain.ReferenceRange, error)
}

// Handler handles reference price HTTP requests
type Handler struct {
	repo RangeReader
	log  zerolog.Logger
}

// NewHandler creates a new reference price handler
func NewHandler(repo RangeReader, log zerolog.Logger) *Handler {
	return &Handler{
		repo: repo,
		log:  log.With().Str("handler", "reference").Logger(),
	}
}

// RangeResponse is the body of GET /api/reference/range. Prices are USD.
type RangeResponse struct {
	domain.ReferenceRange
	Brand       string `json:"brand"`
	ProductType string `json:"product_type"`
	EraStart    int    `json:"era_start"`
	EraEnd      int    `json:"era_end"`
}

// HandleRange handles GET /api/reference/range?brand=&product_type=&era_start=&era_end=
func (h *Handler) HandleRange(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	brand, productType := q.Get("brand"), q.Get("product_type")
	if brand == "" || productType == "" {
		h.writeError(w, http.StatusBadRequest, "brand and product_type are required")
		return
	}

	eraStart, err := strconv.Atoi(q.Get("era_start"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "era_start must be a year")
		return
	}
	eraEnd := eraStart
	if raw := q.Get("era_end"); raw != "" {
		if eraEnd, err = strconv.Atoi(raw); err != nil {
			h.writeError(w, http.StatusBadRequest, "era_end must be a year")
			return
		}
	}
	if eraEnd < eraStart {
		h.writeError(w, http.StatusBadRequest, "era_end must not precede era_start")
		return
	}

	rng, err := h.repo.Range(r.Context(), brand, productType, eraStart, eraEnd)
	if err != nil {
		h.log.Error().Err(err).Str("brand", brand).Msg("Reference range lookup failed")
		h.writeError(w, http.StatusInternalServerError, "Failed to read reference prices")
		return
	}
	if rng == nil {
		h.writeError(w, http.StatusNotFound, "No reference prices for this era")
		return
	}

	h.writeJSON(w, http.StatusOK, RangeResponse{
		ReferenceRange: *rng,
		Brand:          brand,
		ProductType:    productType,
		EraStart:       eraStart,
		EraEnd:         eraEnd,
	})
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
