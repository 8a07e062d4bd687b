package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vintagescan/pricer/internal/domain"
	"github.com/vintagescan/pricer/internal/modules/reference"
)

var _ reference.Store = (*ReferenceStore)(nil)

const (
	referenceColumns = `SELECT id, brand, product_type, era_start, era_end, condition,
	min_price, avg_price, max_price, rarity, sample_count, notes, updated_at
	FROM reference_prices`

	upsertReference = `
		INSERT INTO reference_prices (brand, product_type, era_start, era_end, condition,
			min_price, avg_price, max_price, rarity, sample_count, notes, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (brand, product_type, era_start, era_end, condition) DO UPDATE SET
			min_price = EXCLUDED.min_price,
			avg_price = EXCLUDED.avg_price,
			max_price = EXCLUDED.max_price,
			rarity = EXCLUDED.rarity,
			sample_count = EXCLUDED.sample_count,
			notes = EXCLUDED.notes,
			updated_at = EXCLUDED.updated_at`
)

// ReferenceStore is a reference.Store over the reference_prices table.
type ReferenceStore struct {
	pool *pgxpool.Pool
}

// NewReferenceStore creates a reference store.
func NewReferenceStore(pool *pgxpool.Pool) *ReferenceStore {
	return &ReferenceStore{pool: pool}
}

// Containing implements reference.Store.
func (s *ReferenceStore) Containing(ctx context.Context, brand, productType string, year int, condition domain.ConditionGrade) ([]domain.ReferencePriceRecord, error) {
	rows, err := s.pool.Query(ctx,
		referenceColumns+` WHERE brand = $1 AND product_type = $2 AND condition = $3
			AND era_start <= $4 AND era_end >= $4`,
		brand, productType, string(condition), year,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query reference_prices: %w", err)
	}
	return collectReferences(rows)
}

// Overlapping implements reference.Store.
func (s *ReferenceStore) Overlapping(ctx context.Context, brand, productType string, eraStart, eraEnd int) ([]domain.ReferencePriceRecord, error) {
	rows, err := s.pool.Query(ctx,
		referenceColumns+` WHERE brand = $1 AND product_type = $2 AND era_end >= $3 AND era_start <= $4`,
		brand, productType, eraStart, eraEnd,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query reference_prices: %w", err)
	}
	return collectReferences(rows)
}

// Upsert implements reference.Store.
func (s *ReferenceStore) Upsert(ctx context.Context, rec domain.ReferencePriceRecord) error {
	if _, err := s.pool.Exec(ctx, upsertReference, referenceArgs(rec)...); err != nil {
		return fmt.Errorf("failed to upsert reference price: %w", err)
	}
	return nil
}

// UpsertBatch writes many records in one round trip.
func (s *ReferenceStore) UpsertBatch(ctx context.Context, records []domain.ReferencePriceRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	b := &pgx.Batch{}
	for _, rec := range records {
		b.Queue(upsertReference, referenceArgs(rec)...)
	}

	br := s.pool.SendBatch(ctx, b)
	stored := 0
	for range records {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return stored, fmt.Errorf("failed to upsert reference price: %w", err)
		}
		stored++
	}
	return stored, br.Close()
}

func referenceArgs(rec domain.ReferencePriceRecord) []interface{} {
	return []interface{}{
		rec.Brand, rec.ProductType, rec.EraStart, rec.EraEnd, string(rec.Condition),
		rec.MinPrice, rec.AvgPrice, rec.MaxPrice, string(rec.Rarity), rec.SampleCount, rec.Notes,
		rec.UpdatedAt,
	}
}

func collectReferences(rows pgx.Rows) ([]domain.ReferencePriceRecord, error) {
	defer rows.Close()

	var records []domain.ReferencePriceRecord
	for rows.Next() {
		var (
			rec       domain.ReferencePriceRecord
			condition string
			rarity    string
		)
		if err := rows.Scan(&rec.ID, &rec.Brand, &rec.ProductType, &rec.EraStart, &rec.EraEnd, &condition,
			&rec.MinPrice, &rec.AvgPrice, &rec.MaxPrice, &rarity, &rec.SampleCount, &rec.Notes, &rec.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan reference price: %w", err)
		}
		rec.Condition = domain.ConditionGrade(condition)
		rec.Rarity = domain.Rarity(rarity)
		records = append(records, rec)
	}
	return records, rows.Err()
}
