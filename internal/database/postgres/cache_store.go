package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vintagescan/pricer/internal/clientdata"
)

var _ clientdata.Store = (*CacheStore)(nil)

// CacheStore is a clientdata.Store over the price_cache table.
type CacheStore struct {
	pool *pgxpool.Pool
}

// NewCacheStore creates a cache store.
func NewCacheStore(pool *pgxpool.Pool) *CacheStore {
	return &CacheStore{pool: pool}
}

// Load implements clientdata.Store.
func (s *CacheStore) Load(ctx context.Context, key, source string) (*clientdata.Row, error) {
	row := clientdata.Row{Key: key, Source: source}
	err := s.pool.QueryRow(ctx,
		"SELECT brand, data, created_at, expires_at FROM price_cache WHERE search_query = $1 AND source = $2",
		key, source,
	).Scan(&row.Brand, &row.Data, &row.CreatedAt, &row.ExpiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read price_cache: %w", err)
	}
	return &row, nil
}

// Save implements clientdata.Store.
func (s *CacheStore) Save(ctx context.Context, row clientdata.Row) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO price_cache (search_query, brand, source, data, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (search_query, source) DO UPDATE SET
			brand = EXCLUDED.brand,
			data = EXCLUDED.data,
			created_at = EXCLUDED.created_at,
			expires_at = EXCLUDED.expires_at`,
		row.Key, row.Brand, row.Source, row.Data, row.CreatedAt, row.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("failed to write price_cache: %w", err)
	}
	return nil
}

// DeleteExpired implements clientdata.Store.
func (s *CacheStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, "DELETE FROM price_cache WHERE expires_at <= $1", now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// CountFresh implements clientdata.Store.
func (s *CacheStore) CountFresh(ctx context.Context, now time.Time) (map[string]int64, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT source, COUNT(*) FROM price_cache WHERE expires_at > $1 GROUP BY source", now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var (
			source string
			n      int64
		)
		if err := rows.Scan(&source, &n); err != nil {
			return nil, err
		}
		counts[source] = n
	}
	return counts, rows.Err()
}
