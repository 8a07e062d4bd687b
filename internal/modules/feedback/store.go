package feedback

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/vintagescan/pricer/internal/domain"
)

// Store is the append-only feedback log.
type Store interface {
	Insert(ctx context.Context, fb domain.PriceFeedback) error
	// List returns entries for brand (all brands when empty), newest first.
	List(ctx context.Context, brand string) ([]domain.PriceFeedback, error)
}

// SQLiteStore persists feedback in the price_feedback table.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a store over a connection with the pricing schema applied.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Insert implements Store.
func (s *SQLiteStore) Insert(ctx context.Context, fb domain.PriceFeedback) error {
	var actual sql.NullFloat64
	if fb.ActualSold != nil {
		actual = sql.NullFloat64{Float64: *fb.ActualSold, Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO price_feedback (id, brand, product_name, ai_estimated, actual_sold,
			feedback_type, marketplace, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		fb.ID, fb.Brand, fb.ProductName, fb.AIEstimated, actual,
		string(fb.FeedbackType), fb.Marketplace, fb.Notes, fb.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert price feedback: %w", err)
	}
	return nil
}

// List implements Store.
func (s *SQLiteStore) List(ctx context.Context, brand string) ([]domain.PriceFeedback, error) {
	query := `SELECT id, brand, product_name, ai_estimated, actual_sold, feedback_type,
		marketplace, notes, created_at FROM price_feedback`
	var args []interface{}
	if brand != "" {
		query += " WHERE brand = ?"
		args = append(args, brand)
	}
	query += " ORDER BY created_at DESC, id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query price feedback: %w", err)
	}
	defer rows.Close()

	var out []domain.PriceFeedback
	for rows.Next() {
		var (
			fb        domain.PriceFeedback
			actual    sql.NullFloat64
			fbType    string
			createdAt int64
		)
		if err := rows.Scan(&fb.ID, &fb.Brand, &fb.ProductName, &fb.AIEstimated, &actual,
			&fbType, &fb.Marketplace, &fb.Notes, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan price feedback: %w", err)
		}
		if actual.Valid {
			v := actual.Float64
			fb.ActualSold = &v
		}
		fb.FeedbackType = domain.FeedbackType(fbType)
		fb.CreatedAt = time.Unix(createdAt, 0)
		out = append(out, fb)
	}
	return out, rows.Err()
}
