package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vintagescan/pricer/internal/domain"
	"github.com/vintagescan/pricer/internal/modules/feedback"
)

var _ feedback.Store = (*FeedbackStore)(nil)

// FeedbackStore is a feedback.Store over the price_feedback table.
type FeedbackStore struct {
	pool *pgxpool.Pool
}

// NewFeedbackStore creates a feedback store.
func NewFeedbackStore(pool *pgxpool.Pool) *FeedbackStore {
	return &FeedbackStore{pool: pool}
}

// Insert implements feedback.Store.
func (s *FeedbackStore) Insert(ctx context.Context, fb domain.PriceFeedback) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO price_feedback (id, brand, product_name, ai_estimated, actual_sold,
			feedback_type, marketplace, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		fb.ID, fb.Brand, fb.ProductName, fb.AIEstimated, fb.ActualSold,
		string(fb.FeedbackType), fb.Marketplace, fb.Notes, fb.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert price feedback: %w", err)
	}
	return nil
}

// List implements feedback.Store.
func (s *FeedbackStore) List(ctx context.Context, brand string) ([]domain.PriceFeedback, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, brand, product_name, ai_estimated, actual_sold, feedback_type,
			marketplace, notes, created_at
		FROM price_feedback
		WHERE $1 = '' OR brand = $1
		ORDER BY created_at DESC, id`, brand)
	if err != nil {
		return nil, fmt.Errorf("failed to query price feedback: %w", err)
	}
	defer rows.Close()

	var out []domain.PriceFeedback
	for rows.Next() {
		var (
			fb     domain.PriceFeedback
			fbType string
		)
		if err := rows.Scan(&fb.ID, &fb.Brand, &fb.ProductName, &fb.AIEstimated, &fb.ActualSold,
			&fbType, &fb.Marketplace, &fb.Notes, &fb.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan price feedback: %w", err)
		}
		fb.FeedbackType = domain.FeedbackType(fbType)
		out = append(out, fb)
	}
	return out, rows.Err()
}
