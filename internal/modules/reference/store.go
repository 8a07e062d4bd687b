package reference

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/vintagescan/pricer/internal/domain"
)

// Store is the persistence primitive behind the reference table.
type Store interface {
	// Containing returns every record for brand/productType/condition whose
	// era interval contains year.
	Containing(ctx context.Context, brand, productType string, year int, condition domain.ConditionGrade) ([]domain.ReferencePriceRecord, error)
	// Overlapping returns every record for brand/productType whose era
	// interval overlaps [eraStart, eraEnd], regardless of condition.
	Overlapping(ctx context.Context, brand, productType string, eraStart, eraEnd int) ([]domain.ReferencePriceRecord, error)
	// Upsert inserts or replaces the record identified by
	// (brand, product_type, era_start, era_end, condition).
	Upsert(ctx context.Context, rec domain.ReferencePriceRecord) error
}

const selectColumns = `SELECT id, brand, product_type, era_start, era_end, condition,
	min_price, avg_price, max_price, rarity, sample_count, notes, updated_at
	FROM reference_prices`

// SQLiteStore reads and writes the reference_prices table.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a store over a connection with the pricing schema applied.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Containing implements Store.
func (s *SQLiteStore) Containing(ctx context.Context, brand, productType string, year int, condition domain.ConditionGrade) ([]domain.ReferencePriceRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		selectColumns+` WHERE brand = ? AND product_type = ? AND condition = ?
			AND era_start <= ? AND era_end >= ?`,
		brand, productType, string(condition), year, year,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query reference_prices: %w", err)
	}
	return scanRecords(rows)
}

// Overlapping implements Store.
func (s *SQLiteStore) Overlapping(ctx context.Context, brand, productType string, eraStart, eraEnd int) ([]domain.ReferencePriceRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		selectColumns+` WHERE brand = ? AND product_type = ? AND era_end >= ? AND era_start <= ?`,
		brand, productType, eraStart, eraEnd,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query reference_prices: %w", err)
	}
	return scanRecords(rows)
}

// Upsert implements Store.
func (s *SQLiteStore) Upsert(ctx context.Context, rec domain.ReferencePriceRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO reference_prices (brand, product_type, era_start, era_end, condition,
			min_price, avg_price, max_price, rarity, sample_count, notes, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (brand, product_type, era_start, era_end, condition) DO UPDATE SET
			min_price = excluded.min_price,
			avg_price = excluded.avg_price,
			max_price = excluded.max_price,
			rarity = excluded.rarity,
			sample_count = excluded.sample_count,
			notes = excluded.notes,
			updated_at = excluded.updated_at`,
		rec.Brand, rec.ProductType, rec.EraStart, rec.EraEnd, string(rec.Condition),
		rec.MinPrice, rec.AvgPrice, rec.MaxPrice, string(rec.Rarity), rec.SampleCount, rec.Notes,
		rec.UpdatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert reference price: %w", err)
	}
	return nil
}

func scanRecords(rows *sql.Rows) ([]domain.ReferencePriceRecord, error) {
	defer rows.Close()

	var records []domain.ReferencePriceRecord
	for rows.Next() {
		var (
			rec       domain.ReferencePriceRecord
			condition string
			rarity    string
			updatedAt int64
		)
		if err := rows.Scan(&rec.ID, &rec.Brand, &rec.ProductType, &rec.EraStart, &rec.EraEnd, &condition,
			&rec.MinPrice, &rec.AvgPrice, &rec.MaxPrice, &rarity, &rec.SampleCount, &rec.Notes, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan reference price: %w", err)
		}
		rec.Condition = domain.ConditionGrade(condition)
		rec.Rarity = domain.Rarity(rarity)
		rec.UpdatedAt = time.Unix(updatedAt, 0)
		records = append(records, rec)
	}
	return records, rows.Err()
}
