// Package clientdata provides the persistent cache for external price lookups.
// Entries are msgpack blobs keyed by (search query, source) with an expiry
// timestamp; expired rows are treated as misses on read and purged by a
// scheduled cleanup job.
package clientdata

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/vintagescan/pricer/internal/domain"
)

// Row is a raw cache row as persisted by a Store.
type Row struct {
	CreatedAt time.Time
	ExpiresAt time.Time
	Key       string
	Brand     string
	Source    string
	Data      []byte
}

// Store is the persistence primitive behind the cache. Implementations exist
// for SQLite (SQLiteStore) and Postgres (internal/database/postgres).
type Store interface {
	// Load returns the row for (key, source) regardless of expiry, or nil.
	Load(ctx context.Context, key, source string) (*Row, error)
	// Save upserts on (key, source).
	Save(ctx context.Context, row Row) error
	// DeleteExpired removes rows with expires_at <= now.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
	// CountFresh counts rows with expires_at > now, per source.
	CountFresh(ctx context.Context, now time.Time) (map[string]int64, error)
}

// Stats summarises non-expired cache contents.
type Stats struct {
	BySource map[string]int64 `json:"by_source"`
	Total    int64            `json:"total"`
}

// Repository provides cache operations for price estimates and rates.
type Repository struct {
	store Store
	log   zerolog.Logger
	now   func() time.Time
}

// NewRepository creates a new cache repository.
func NewRepository(store Store, log zerolog.Logger) *Repository {
	return &Repository{
		store: store,
		log:   log.With().Str("component", "price_cache").Logger(),
		now:   time.Now,
	}
}

// WithClock replaces the clock used for expiry decisions.
func (r *Repository) WithClock(now func() time.Time) *Repository {
	r.now = now
	return r
}

var invalidKeyChars = regexp.MustCompile(`[^a-z0-9_]`)

// GenerateKey builds the cache key for a product search. Equal inputs always
// produce equal keys; a missing era is spelled "unknown".
func GenerateKey(brand, productName, era string) string {
	if strings.TrimSpace(era) == "" {
		era = "unknown"
	}
	raw := strings.ToLower(brand + "_" + productName + "_" + era)
	return invalidKeyChars.ReplaceAllString(raw, "_")
}

// Get returns the cached estimate for (key, source), or nil when missing or
// expired. Read and decode failures are logged and reported as a miss.
func (r *Repository) Get(ctx context.Context, key string, source domain.SourceType) *domain.PriceEstimate {
	var estimate domain.PriceEstimate
	if !r.GetValue(ctx, key, string(source), &estimate) {
		return nil
	}
	return &estimate
}

// Set stores an estimate for ttl.
func (r *Repository) Set(ctx context.Context, key, brand string, source domain.SourceType, data *domain.PriceEstimate, ttl time.Duration) error {
	if data == nil {
		return fmt.Errorf("nothing to cache for %s", key)
	}
	return r.SetValue(ctx, key, brand, string(source), data, ttl)
}

// GetValue decodes a fresh entry into v and reports whether it was found.
func (r *Repository) GetValue(ctx context.Context, key, source string, v interface{}) bool {
	return r.load(ctx, key, source, v, false)
}

// GetStaleValue is GetValue without the expiry check. Use it as a fallback
// when the upstream API fails: stale data beats no data.
func (r *Repository) GetStaleValue(ctx context.Context, key, source string, v interface{}) bool {
	return r.load(ctx, key, source, v, true)
}

func (r *Repository) load(ctx context.Context, key, source string, v interface{}, allowStale bool) bool {
	row, err := r.store.Load(ctx, key, source)
	if err != nil {
		r.log.Warn().Err(err).Str("key", key).Str("source", source).Msg("Cache read failed")
		return false
	}
	if row == nil {
		return false
	}
	if !allowStale && !r.now().Before(row.ExpiresAt) {
		r.log.Debug().Str("key", key).Str("source", source).Msg("Cache entry expired")
		return false
	}

	if err := msgpack.Unmarshal(row.Data, v); err != nil {
		r.log.Warn().Err(err).Str("key", key).Str("source", source).Msg("Failed to decode cache entry")
		return false
	}

	r.log.Debug().Str("key", key).Str("source", source).Msg("Cache hit")
	return true
}

// SetValue encodes v and upserts it with expires_at = now + ttl.
func (r *Repository) SetValue(ctx context.Context, key, brand, source string, v interface{}, ttl time.Duration) error {
	data, err := msgpack.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}

	now := r.now()
	row := Row{
		Key:       key,
		Brand:     brand,
		Source:    source,
		Data:      data,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}

	if err := r.store.Save(ctx, row); err != nil {
		r.log.Warn().Err(err).Str("key", key).Str("source", source).Msg("Cache write failed")
		return fmt.Errorf("failed to store cache entry %s/%s: %w", key, source, err)
	}

	r.log.Debug().
		Str("key", key).
		Str("source", source).
		Dur("ttl", ttl).
		Msg("Cached entry")
	return nil
}

// CleanExpired deletes every expired entry and returns how many were removed.
func (r *Repository) CleanExpired(ctx context.Context) (int64, error) {
	n, err := r.store.DeleteExpired(ctx, r.now())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired cache entries: %w", err)
	}
	return n, nil
}

// Stats counts fresh entries per source.
func (r *Repository) Stats(ctx context.Context) (Stats, error) {
	counts, err := r.store.CountFresh(ctx, r.now())
	if err != nil {
		return Stats{}, fmt.Errorf("failed to count cache entries: %w", err)
	}

	stats := Stats{BySource: counts}
	if stats.BySource == nil {
		stats.BySource = map[string]int64{}
	}
	for _, n := range stats.BySource {
		stats.Total += n
	}
	return stats, nil
}
