package di

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/vintagescan/pricer/internal/clientdata"
	"github.com/vintagescan/pricer/internal/clients/exchangerate"
	"github.com/vintagescan/pricer/internal/clients/resale"
	"github.com/vintagescan/pricer/internal/clients/soldlistings"
	"github.com/vintagescan/pricer/internal/clients/telegram"
	"github.com/vintagescan/pricer/internal/config"
	"github.com/vintagescan/pricer/internal/domain"
	"github.com/vintagescan/pricer/internal/modules/aggregation"
	"github.com/vintagescan/pricer/internal/modules/feedback"
	"github.com/vintagescan/pricer/internal/modules/market"
	"github.com/vintagescan/pricer/internal/modules/reference"
	"github.com/vintagescan/pricer/internal/modules/validation"
)

// InitializeServices creates clients, repositories and services on top of
// the stores in container.
func InitializeServices(container *Container, cfg *config.Config, log zerolog.Logger) error {
	if container == nil {
		return fmt.Errorf("container cannot be nil")
	}

	container.CacheRepo = clientdata.NewRepository(container.CacheStore, log)
	container.ReferenceRepo = reference.NewRepository(container.ReferenceStore, log)

	container.ExchangeRateClient = exchangerate.NewClient(exchangerate.Config{
		BaseURL:     cfg.ExchangeRate.BaseURL,
		APIKey:      cfg.ExchangeRate.APIKey,
		From:        cfg.ExchangeRate.OriginCurrency,
		To:          cfg.ExchangeRate.LocalCurrency,
		TTL:         cfg.ExchangeRate.TTL,
		DefaultRate: cfg.ExchangeRate.DefaultRate,
	}, container.CacheRepo, log)

	container.SoldListingsClient = soldlistings.NewClient(soldlistings.Config{
		BaseURL:    cfg.CompletedSales.BaseURL,
		AppID:      cfg.CompletedSales.AppID,
		Enabled:    cfg.CompletedSales.Enabled,
		MaxResults: cfg.CompletedSales.MaxResults,
		Timeout:    cfg.CompletedSales.Timeout,
	}, log)

	container.ResaleClient = resale.NewClient(resale.Config{
		BaseURL:        cfg.ResaleMarket.BaseURL,
		Enabled:        cfg.ResaleMarket.Enabled,
		MaxResults:     cfg.ResaleMarket.MaxResults,
		Timeout:        cfg.ResaleMarket.Timeout,
		MaxRetries:     cfg.ResaleMarket.MaxRetries,
		RetryBaseDelay: cfg.ResaleMarket.RetryBaseDelay,
	}, log)

	table := validation.DefaultTable()
	if cfg.PriceLimitsFile != "" {
		loaded, err := validation.LoadTable(cfg.PriceLimitsFile)
		if err != nil {
			return fmt.Errorf("failed to load price limits: %w", err)
		}
		table = loaded
	}
	container.Validator = validation.NewValidator(table, log)

	container.Aggregator = aggregation.NewAggregator(aggregation.Weights{
		CompletedSales: cfg.CompletedSales.Weight,
		ResaleMarket:   cfg.ResaleMarket.Weight,
		AI:             cfg.AIWeight,
	}, cfg.ExchangeRate.LocalCurrency, log)

	container.MarketService = market.NewService(
		[]domain.PriceSource{container.SoldListingsClient, container.ResaleClient},
		container.ExchangeRateClient,
		container.CacheRepo,
		container.Validator,
		container.ReferenceRepo,
		container.Aggregator,
		market.Config{
			Currency:     cfg.ExchangeRate.LocalCurrency,
			PriceTTL:     cfg.PriceCacheTTL,
			AIConfidence: cfg.AIConfidence,
		},
		log,
	)

	if cfg.Telegram.Enabled {
		tg, err := telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.ChatID, log)
		if err != nil {
			// Alerts are optional; pricing keeps working without them.
			log.Warn().Err(err).Msg("Telegram alerts disabled")
		} else {
			container.TelegramClient = tg
			container.MarketService.SetNotifier(tg)
		}
	}

	container.FeedbackService = feedback.NewService(container.FeedbackStore, log)

	return nil
}
