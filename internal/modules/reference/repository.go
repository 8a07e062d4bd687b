// Package reference looks up curated historical price bands and uses them
// to pull outlier AI estimates back toward observed market data.
package reference

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/vintagescan/pricer/internal/domain"
)

// Repository serves reference lookups over a Store.
type Repository struct {
	store Store
	log   zerolog.Logger
	now   func() time.Time
}

// NewRepository creates a repository.
func NewRepository(store Store, log zerolog.Logger) *Repository {
	return &Repository{
		store: store,
		log:   log.With().Str("component", "reference_prices").Logger(),
		now:   time.Now,
	}
}

func normalize(brand, productType string) (string, string) {
	return domain.NormalizeBrand(brand), strings.ToLower(strings.TrimSpace(productType))
}

// Lookup returns the record whose era contains year for the exact
// brand/productType/condition. When several match, the narrowest era wins,
// then the one with more samples. No match returns nil without error.
func (r *Repository) Lookup(ctx context.Context, brand, productType string, year int, condition domain.ConditionGrade) (*domain.ReferencePriceRecord, error) {
	b, pt := normalize(brand, productType)
	records, err := r.store.Containing(ctx, b, pt, year, condition)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		r.log.Debug().
			Str("brand", b).
			Str("product_type", pt).
			Int("year", year).
			Str("condition", string(condition)).
			Msg("No reference price found")
		return nil, nil
	}

	best := records[0]
	for _, rec := range records[1:] {
		width, bestWidth := rec.EraEnd-rec.EraStart, best.EraEnd-best.EraStart
		if width < bestWidth || (width == bestWidth && rec.SampleCount > best.SampleCount) {
			best = rec
		}
	}
	return &best, nil
}

// Range aggregates all records overlapping [eraStart, eraEnd]: min of
// minimums, max of maximums, rounded mean of averages. Nil when none overlap.
func (r *Repository) Range(ctx context.Context, brand, productType string, eraStart, eraEnd int) (*domain.ReferenceRange, error) {
	b, pt := normalize(brand, productType)
	records, err := r.store.Overlapping(ctx, b, pt, eraStart, eraEnd)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}

	out := domain.ReferenceRange{
		Min:     math.Inf(1),
		Max:     math.Inf(-1),
		Records: len(records),
	}
	var sum float64
	for _, rec := range records {
		out.Min = math.Min(out.Min, rec.MinPrice)
		out.Max = math.Max(out.Max, rec.MaxPrice)
		sum += rec.AvgPrice
	}
	out.Avg = math.Round(sum / float64(len(records)))
	return &out, nil
}

// Upsert validates and stores a record, keyed by brand, type, era and condition.
func (r *Repository) Upsert(ctx context.Context, rec domain.ReferencePriceRecord) error {
	rec, err := r.prepare(rec)
	if err != nil {
		return err
	}
	return r.store.Upsert(ctx, rec)
}

// batchUpserter is implemented by stores that can write many records in
// one round trip.
type batchUpserter interface {
	UpsertBatch(ctx context.Context, records []domain.ReferencePriceRecord) (int, error)
}

// UpsertAll stores every record and returns how many succeeded. Invalid or
// failing records are logged and skipped; the last error is returned.
func (r *Repository) UpsertAll(ctx context.Context, records []domain.ReferencePriceRecord) (int, error) {
	var (
		stored  int
		lastErr error
	)

	if batch, ok := r.store.(batchUpserter); ok {
		valid := make([]domain.ReferencePriceRecord, 0, len(records))
		for _, rec := range records {
			rec, err := r.prepare(rec)
			if err != nil {
				r.log.Warn().Err(err).Msg("Skipping reference record")
				lastErr = err
				continue
			}
			valid = append(valid, rec)
		}
		n, err := batch.UpsertBatch(ctx, valid)
		if err != nil {
			lastErr = err
		}
		return n, lastErr
	}

	for _, rec := range records {
		if err := r.Upsert(ctx, rec); err != nil {
			r.log.Warn().Err(err).Msg("Skipping reference record")
			lastErr = err
			continue
		}
		stored++
	}
	return stored, lastErr
}

func (r *Repository) prepare(rec domain.ReferencePriceRecord) (domain.ReferencePriceRecord, error) {
	rec.Brand, rec.ProductType = normalize(rec.Brand, rec.ProductType)
	if rec.Rarity == "" {
		rec.Rarity = domain.RarityCommon
	}
	if err := rec.Validate(); err != nil {
		return rec, fmt.Errorf("invalid reference record %s/%s %d-%d: %w",
			rec.Brand, rec.ProductType, rec.EraStart, rec.EraEnd, err)
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = r.now()
	}
	return rec, nil
}
