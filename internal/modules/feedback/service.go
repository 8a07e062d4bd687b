// Package feedback records user verdicts on price estimates and reports
// estimate accuracy per brand.
package feedback

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vintagescan/pricer/internal/domain"
)

// ErrInvalidFeedback wraps every validation failure of Submit.
var ErrInvalidFeedback = errors.New("invalid feedback")

// Service manages the feedback log.
type Service struct {
	store Store
	log   zerolog.Logger
	now   func() time.Time
	newID func() string
}

// NewService creates a feedback service.
func NewService(store Store, log zerolog.Logger) *Service {
	return &Service{
		store: store,
		log:   log.With().Str("service", "feedback").Logger(),
		now:   time.Now,
		newID: func() string { return uuid.New().String() },
	}
}

// Submit validates and appends an entry, returning its id.
func (s *Service) Submit(ctx context.Context, fb domain.PriceFeedback) (string, error) {
	fb.Brand = domain.NormalizeBrand(fb.Brand)
	fb.ProductName = strings.TrimSpace(fb.ProductName)

	switch {
	case fb.Brand == "" || fb.ProductName == "":
		return "", fmt.Errorf("%w: brand and product_name are required", ErrInvalidFeedback)
	case fb.AIEstimated <= 0:
		return "", fmt.Errorf("%w: ai_estimated must be positive", ErrInvalidFeedback)
	case fb.ActualSold != nil && *fb.ActualSold <= 0:
		return "", fmt.Errorf("%w: actual_sold must be positive", ErrInvalidFeedback)
	case fb.FeedbackType != "" && !fb.FeedbackType.Valid():
		return "", fmt.Errorf("%w: unknown feedback_type %q", ErrInvalidFeedback, fb.FeedbackType)
	}

	fb.ID = s.newID()
	fb.CreatedAt = s.now()
	if err := s.store.Insert(ctx, fb); err != nil {
		return "", err
	}

	s.log.Info().
		Str("id", fb.ID).
		Str("brand", fb.Brand).
		Str("type", string(fb.FeedbackType)).
		Bool("has_actual_price", fb.ActualSold != nil).
		Msg("Price feedback received")
	return fb.ID, nil
}

// Stats summarises feedback for brand, or for every brand when empty.
// MeanAbsErrorPct covers entries with an actual sold price and is rounded
// to one decimal.
func (s *Service) Stats(ctx context.Context, brand string) (domain.AccuracyStats, error) {
	brand = domain.NormalizeBrand(brand)
	entries, err := s.store.List(ctx, brand)
	if err != nil {
		return domain.AccuracyStats{}, err
	}

	stats := domain.AccuracyStats{Brand: brand, Total: len(entries)}
	var (
		errSum float64
		priced int
	)
	for _, fb := range entries {
		switch fb.FeedbackType {
		case domain.FeedbackAccurate:
			stats.Accurate++
		case domain.FeedbackTooHigh:
			stats.TooHigh++
		case domain.FeedbackTooLow:
			stats.TooLow++
		case domain.FeedbackSold:
			stats.Sold++
		}
		if fb.ActualSold != nil && *fb.ActualSold > 0 {
			errSum += math.Abs(fb.AIEstimated-*fb.ActualSold) / *fb.ActualSold * 100
			priced++
		}
	}
	if priced > 0 {
		mean := math.Round(errSum/float64(priced)*10) / 10
		stats.MeanAbsErrorPct = &mean
	}
	return stats, nil
}
