// Package di wires the service's databases, clients, repositories and
// services into a single Container.
package di

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vintagescan/pricer/internal/clientdata"
	"github.com/vintagescan/pricer/internal/clients/exchangerate"
	"github.com/vintagescan/pricer/internal/clients/resale"
	"github.com/vintagescan/pricer/internal/clients/soldlistings"
	"github.com/vintagescan/pricer/internal/clients/telegram"
	"github.com/vintagescan/pricer/internal/database"
	"github.com/vintagescan/pricer/internal/modules/aggregation"
	"github.com/vintagescan/pricer/internal/modules/feedback"
	"github.com/vintagescan/pricer/internal/modules/market"
	"github.com/vintagescan/pricer/internal/modules/reference"
	"github.com/vintagescan/pricer/internal/modules/validation"
	"github.com/vintagescan/pricer/internal/scheduler"
)

// Container holds every dependency of the running service. It is created by
// Wire and handed to the HTTP server.
type Container struct {
	// Databases. With the sqlite driver CacheDB and PricingDB are set;
	// with postgres only Pool is.
	CacheDB   *database.DB
	PricingDB *database.DB
	Pool      *pgxpool.Pool

	// Stores
	CacheStore     clientdata.Store
	ReferenceStore reference.Store
	FeedbackStore  feedback.Store

	// Clients
	ExchangeRateClient *exchangerate.Client
	SoldListingsClient *soldlistings.Client
	ResaleClient       *resale.Client
	TelegramClient     *telegram.Client // nil when alerts are disabled

	// Repositories
	CacheRepo     *clientdata.Repository
	ReferenceRepo *reference.Repository

	// Services
	Validator       *validation.Validator
	Aggregator      *aggregation.Aggregator
	MarketService   *market.Service
	FeedbackService *feedback.Service

	Scheduler *scheduler.Scheduler
}

// JobInstances holds job references for manual triggering via the API.
type JobInstances struct {
	CacheCleanup scheduler.Job
}

// Close releases the database handles.
func (c *Container) Close() error {
	var firstErr error
	for _, db := range []*database.DB{c.CacheDB, c.PricingDB} {
		if db == nil {
			continue
		}
		if err := db.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if c.Pool != nil {
		c.Pool.Close()
	}
	return firstErr
}
