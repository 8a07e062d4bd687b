package clientdata

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// CleanupJob removes expired entries from the price cache.
// It is scheduled daily; reads already ignore expired rows, so this only
// reclaims space.
type CleanupJob struct {
	repo    *Repository
	log     zerolog.Logger
	timeout time.Duration
}

// NewCleanupJob creates a new cache cleanup job.
func NewCleanupJob(repo *Repository, log zerolog.Logger) *CleanupJob {
	return &CleanupJob{
		repo:    repo,
		log:     log.With().Str("job", "price_cache_cleanup").Logger(),
		timeout: time.Minute,
	}
}

// Run executes the cleanup job.
func (j *CleanupJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	deleted, err := j.repo.CleanExpired(ctx)
	if err != nil {
		j.log.Error().Err(err).Msg("Failed to delete expired cache entries")
		return err
	}

	if deleted > 0 {
		j.log.Info().Int64("deleted", deleted).Msg("Price cache cleanup completed")
	}
	return nil
}

// Name returns the job name for scheduling and logging.
func (j *CleanupJob) Name() string {
	return "price_cache_cleanup"
}
