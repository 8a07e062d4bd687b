package clientdata

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// SQLiteStore persists cache rows in the price_cache table.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a store over an open connection with the cache schema applied.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Load implements Store.
func (s *SQLiteStore) Load(ctx context.Context, key, source string) (*Row, error) {
	var (
		row       = Row{Key: key, Source: source}
		createdAt int64
		expiresAt int64
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT brand, data, created_at, expires_at FROM price_cache WHERE search_query = ? AND source = ?",
		key, source,
	).Scan(&row.Brand, &row.Data, &createdAt, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read price_cache: %w", err)
	}

	row.CreatedAt = time.Unix(createdAt, 0)
	row.ExpiresAt = time.Unix(expiresAt, 0)
	return &row, nil
}

// Save implements Store.
func (s *SQLiteStore) Save(ctx context.Context, row Row) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO price_cache (search_query, brand, source, data, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (search_query, source) DO UPDATE SET
			brand = excluded.brand,
			data = excluded.data,
			created_at = excluded.created_at,
			expires_at = excluded.expires_at`,
		row.Key, row.Brand, row.Source, row.Data, row.CreatedAt.Unix(), row.ExpiresAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to write price_cache: %w", err)
	}
	return nil
}

// DeleteExpired implements Store.
func (s *SQLiteStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, "DELETE FROM price_cache WHERE expires_at <= ?", now.Unix())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// CountFresh implements Store.
func (s *SQLiteStore) CountFresh(ctx context.Context, now time.Time) (map[string]int64, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT source, COUNT(*) FROM price_cache WHERE expires_at > ? GROUP BY source",
		now.Unix(),
	)
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
