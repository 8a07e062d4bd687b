package di

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/vintagescan/pricer/internal/clientdata"
	"github.com/vintagescan/pricer/internal/config"
	"github.com/vintagescan/pricer/internal/database"
	"github.com/vintagescan/pricer/internal/database/postgres"
	"github.com/vintagescan/pricer/internal/modules/feedback"
	"github.com/vintagescan/pricer/internal/modules/reference"
)

// InitializeDatabases opens the configured backend, applies schemas and
// creates the stores.
func InitializeDatabases(cfg *config.Config, log zerolog.Logger) (*Container, error) {
	switch cfg.DatabaseDriver {
	case config.DriverPostgres:
		return initializePostgres(cfg, log)
	default:
		return initializeSQLite(cfg, log)
	}
}

func initializeSQLite(cfg *config.Config, log zerolog.Logger) (*Container, error) {
	container := &Container{}

	// cache.db - source results and exchange rates, always refetchable
	cacheDB, err := openSQLite(cfg.DataDir, database.NameCache, database.ProfileCache)
	if err != nil {
		return nil, err
	}
	container.CacheDB = cacheDB

	// pricing.db - curated reference prices and feedback
	pricingDB, err := openSQLite(cfg.DataDir, database.NamePricing, database.ProfileStandard)
	if err != nil {
		cacheDB.Close()
		return nil, err
	}
	container.PricingDB = pricingDB

	container.CacheStore = clientdata.NewSQLiteStore(cacheDB.Conn())
	container.ReferenceStore = reference.NewSQLiteStore(pricingDB.Conn())
	container.FeedbackStore = feedback.NewSQLiteStore(pricingDB.Conn())

	log.Info().Str("dir", cfg.DataDir).Msg("SQLite databases initialized")
	return container, nil
}

func openSQLite(dataDir, name string, profile database.DatabaseProfile) (*database.DB, error) {
	db, err := database.New(database.Config{
		Path:    filepath.Join(dataDir, name+".db"),
		Profile: profile,
		Name:    name,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize %s database: %w", name, err)
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate %s database: %w", name, err)
	}
	return db, nil
}

func initializePostgres(cfg *config.Config, log zerolog.Logger) (*Container, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	pool, err := postgres.Open(ctx, cfg.DatabaseURL, 8)
	if err != nil {
		return nil, err
	}
	if err := postgres.Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	log.Info().Msg("Postgres pool initialized")
	return &Container{
		Pool:           pool,
		CacheStore:     postgres.NewCacheStore(pool),
		ReferenceStore: postgres.NewReferenceStore(pool),
		FeedbackStore:  postgres.NewFeedbackStore(pool),
	}, nil
}
