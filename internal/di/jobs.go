package di

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/vintagescan/pricer/internal/clientdata"
	"github.com/vintagescan/pricer/internal/config"
	"github.com/vintagescan/pricer/internal/scheduler"
)

// RegisterJobs creates the background jobs and registers them with the
// container's scheduler. The scheduler is not started.
func RegisterJobs(container *Container, cfg *config.Config, log zerolog.Logger) (*JobInstances, error) {
	if container == nil || container.CacheRepo == nil {
		return nil, fmt.Errorf("container is not initialized")
	}

	container.Scheduler = scheduler.New(log)
	instances := &JobInstances{
		CacheCleanup: clientdata.NewCleanupJob(container.CacheRepo, log),
	}

	if err := container.Scheduler.AddJob(cfg.CacheCleanupSchedule, instances.CacheCleanup); err != nil {
		return nil, fmt.Errorf("failed to register %s: %w", instances.CacheCleanup.Name(), err)
	}

	return instances, nil
}
