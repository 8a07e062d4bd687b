// Package market answers market price requests by combining the marketplace
// connectors, the corrected AI estimate and the aggregator.
package market

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/vintagescan/pricer/internal/clientdata"
	"github.com/vintagescan/pricer/internal/domain"
	"github.com/vintagescan/pricer/internal/modules/aggregation"
	"github.com/vintagescan/pricer/internal/modules/condition"
	"github.com/vintagescan/pricer/internal/modules/reference"
	"github.com/vintagescan/pricer/internal/modules/validation"
)

const (
	// AIOnlyMessage annotates responses priced from the AI estimate alone.
	AIOnlyMessage = "Market data temporarily unavailable, using AI estimate only"

	aiOnlyConfidence = 30
	aiOnlySpread     = 0.2
)

// PriceCache is the keyed get/set-with-TTL primitive used for source results.
type PriceCache interface {
	Get(ctx context.Context, key string, source domain.SourceType) *domain.PriceEstimate
	Set(ctx context.Context, key, brand string, source domain.SourceType, data *domain.PriceEstimate, ttl time.Duration) error
}

// ReferenceLookup finds a reference record for an item.
type ReferenceLookup interface {
	Lookup(ctx context.Context, brand, productType string, year int, grade domain.ConditionGrade) (*domain.ReferencePriceRecord, error)
}

// Config holds the service tunables.
type Config struct {
	Currency     string
	PriceTTL     time.Duration
	AIConfidence int
}

// Request is a market price request. AIEstimate is in local currency.
type Request struct {
	AIEstimate  *float64 `json:"ai_estimate,omitempty"`
	ProductName string   `json:"product_name"`
	Brand       string   `json:"brand"`
	Era         string   `json:"era,omitempty"`
	Rationale   string   `json:"rationale,omitempty"`
}

// Status reports which sources are enabled and how they are weighted.
type Status struct {
	Timestamp time.Time                  `json:"timestamp"`
	Config    map[domain.SourceType]bool `json:"config"`
	Failures  map[domain.SourceType]int  `json:"consecutive_failures,omitempty"`
	Status    string                     `json:"status"`
	Weights   aggregation.Weights        `json:"weights"`
}

// Service runs the market price pipeline.
type Service struct {
	sources    []domain.PriceSource
	rates      domain.RateProvider
	cache      PriceCache
	validator  *validation.Validator
	references ReferenceLookup
	aggregator *aggregation.Aggregator
	notifier   Notifier
	outages    *outageTracker
	cfg        Config
	log        zerolog.Logger
	now        func() time.Time
}

// NewService creates a market price service. references may be nil.
func NewService(
	sources []domain.PriceSource,
	rates domain.RateProvider,
	cache PriceCache,
	validator *validation.Validator,
	references ReferenceLookup,
	aggregator *aggregation.Aggregator,
	cfg Config,
	log zerolog.Logger,
) *Service {
	if cfg.AIConfidence <= 0 {
		cfg.AIConfidence = 70
	}
	if cfg.PriceTTL <= 0 {
		cfg.PriceTTL = clientdata.TTLPriceEstimate
	}
	if cfg.Currency == "" {
		cfg.Currency = domain.CurrencyKRW
	}
	return &Service{
		sources:    sources,
		rates:      rates,
		cache:      cache,
		validator:  validator,
		references: references,
		aggregator: aggregator,
		outages:    newOutageTracker(),
		cfg:        cfg,
		log:        log.With().Str("service", "market").Logger(),
		now:        time.Now,
	}
}

// SetNotifier sets the outage notifier.
func (s *Service) SetNotifier(n Notifier) {
	s.notifier = n
}

// Status returns the enabled flags and weights. It has no side effects.
func (s *Service) Status() Status {
	cfg := make(map[domain.SourceType]bool, len(s.sources))
	for _, src := range s.sources {
		cfg[src.Name()] = src.Enabled()
	}
	return Status{
		Status:    "operational",
		Config:    cfg,
		Failures:  s.outages.snapshot(),
		Weights:   s.aggregator.Weights(),
		Timestamp: s.now(),
	}
}

// Estimate prices an item. It fails only with domain.ErrNoSources when no
// market source answered and no AI estimate was given.
func (s *Service) Estimate(ctx context.Context, req Request) (*domain.MarketPriceResult, error) {
	rate := s.rates.GetRate(ctx)
	query := domain.SearchQuery{ProductName: req.ProductName, Brand: req.Brand, Era: req.Era}

	s.log.Info().
		Str("product_name", req.ProductName).
		Str("brand", req.Brand).
		Str("era", req.Era).
		Float64("rate", rate.Rate).
		Msg("Market price request received")

	var ai *domain.PriceEstimate
	if req.AIEstimate != nil && *req.AIEstimate > 0 {
		ai = s.correctAIEstimate(ctx, req, rate.Rate)
	}

	market, missing := s.fetchMarket(ctx, query, rate.Rate)

	if len(market) == 0 {
		if ai == nil {
			s.log.Warn().Strs("missing", missing).Msg("No price sources available")
			return nil, domain.ErrNoSources
		}
		return s.aiOnly(*ai, rate), nil
	}

	sources := market
	if ai != nil {
		sources = append(sources, *ai)
	}

	agg, err := s.aggregator.Aggregate(sources)
	if err != nil {
		return nil, err
	}

	var notes []string
	if len(missing) > 0 {
		notes = append(notes, fmt.Sprintf("Some market sources unavailable: %s", strings.Join(missing, ", ")))
	}
	if agg.Fallback {
		notes = append(notes, aggregation.FallbackMessage)
	}

	now := s.now()
	result := &domain.MarketPriceResult{
		Sources:      sources,
		Aggregated:   agg.Aggregated,
		ExchangeRate: &rate,
		CachedAt:     &now,
		Error:        strings.Join(notes, "; "),
	}

	s.log.Info().
		Int("sources", len(sources)).
		Int64("estimated_price", result.Aggregated.EstimatedPrice).
		Int("confidence", result.Aggregated.Confidence).
		Msg("Market price aggregation complete")

	return result, nil
}

func (s *Service) aiOnly(ai domain.PriceEstimate, rate domain.ExchangeRate) *domain.MarketPriceResult {
	ai.Confidence = aiOnlyConfidence
	s.log.Warn().Float64("ai_estimate", ai.PriceLocal).Msg("No market sources available, using AI estimate only")

	return &domain.MarketPriceResult{
		Sources: []domain.PriceEstimate{ai},
		Aggregated: domain.AggregatedEstimate{
			EstimatedPrice: int64(math.Round(ai.PriceLocal)),
			PriceRange: domain.PriceRange{
				Min: math.Round(ai.PriceLocal * (1 - aiOnlySpread)),
				Max: math.Round(ai.PriceLocal * (1 + aiOnlySpread)),
			},
			Confidence: aiOnlyConfidence,
			Currency:   s.cfg.Currency,
		},
		ExchangeRate: &rate,
		Error:        AIOnlyMessage,
	}
}

// correctAIEstimate runs the local-currency AI estimate through the sanity
// validator, the rationale quality score, the condition classifier and the
// reference lookup in origin currency and converts the result back. The
// quality score is applied to the validated confidence.
func (s *Service) correctAIEstimate(ctx context.Context, req Request, rate float64) *domain.PriceEstimate {
	local := *req.AIEstimate
	price := local / rate
	confidence := s.cfg.AIConfidence

	v := s.validator.Validate(req.Brand, req.ProductName, price, confidence, req.Era)
	price, confidence = v.AdjustedPrice, v.Confidence

	if req.Rationale != "" {
		confidence = validation.AdjustConfidenceByQuality(req.Rationale, confidence)
	}

	grade := domain.ConditionGood
	if req.Rationale != "" {
		analysis := condition.Analyze(req.Rationale)
		grade = analysis.Grade
		if analysis.PriceMultiplier != 1 {
			s.log.Info().
				Str("grade", string(grade)).
				Float64("multiplier", analysis.PriceMultiplier).
				Float64("price_before", price).
				Float64("price_after", price*analysis.PriceMultiplier).
				Msg("Condition adjustment applied")
		}
		price *= analysis.PriceMultiplier
	}

	if s.references != nil {
		productType := reference.ExtractProductType(req.ProductName)
		year := reference.ExtractYear(req.Era, s.now())
		ref, err := s.references.Lookup(ctx, req.Brand, productType, year, grade)
		if err != nil {
			s.log.Warn().Err(err).Msg("Reference lookup failed, keeping AI estimate")
		}
		adj := reference.Adjust(price, confidence, ref)
		if adj.Blended {
			s.log.Warn().
				Float64("price_before", price).
				Float64("price_after", adj.Price).
				Float64("reference_avg", ref.AvgPrice).
				Float64("deviation", adj.Deviation).
				Int("confidence", adj.Confidence).
				Msg("AI estimate deviates from reference, blended")
		}
		price, confidence = adj.Price, adj.Confidence
	}

	return &domain.PriceEstimate{
		Source:     domain.SourceAI,
		Currency:   domain.CurrencyUSD,
		Price:      math.Round(price*100) / 100,
		PriceLocal: math.Round(price * rate),
		Confidence: confidence,
		FetchedAt:  s.now(),
	}
}

func (s *Service) ttlFor(source domain.SourceType) time.Duration {
	if source == domain.SourceResaleMarket {
		return s.cfg.PriceTTL / 2
	}
	return s.cfg.PriceTTL
}

// fetchMarket queries every enabled connector concurrently, cache first.
// It returns the estimates in connector order and the names of the sources
// that failed.
func (s *Service) fetchMarket(ctx context.Context, q domain.SearchQuery, rate float64) ([]domain.PriceEstimate, []string) {
	key := clientdata.GenerateKey(q.Brand, q.ProductName, q.Era)
	results := make([]*domain.PriceEstimate, len(s.sources))
	failed := make([]bool, len(s.sources))

	var wg sync.WaitGroup
	for i, src := range s.sources {
		if !src.Enabled() {
			continue
		}
		wg.Add(1)
		go func(i int, src domain.PriceSource) {
			defer wg.Done()
			est, err := s.fetchSource(ctx, src, key, q, rate)
			if err != nil {
				failed[i] = true
				return
			}
			results[i] = est
		}(i, src)
	}
	wg.Wait()

	var (
		estimates []domain.PriceEstimate
		missing   []string
	)
	for i, est := range results {
		if est != nil {
			estimates = append(estimates, *est)
		}
		if failed[i] {
			missing = append(missing, string(s.sources[i].Name()))
		}
	}
	return estimates, missing
}

func (s *Service) fetchSource(ctx context.Context, src domain.PriceSource, key string, q domain.SearchQuery, rate float64) (*domain.PriceEstimate, error) {
	name := src.Name()
	if cached := s.cache.Get(ctx, key, name); cached != nil {
		s.log.Debug().Str("source", string(name)).Msg("Using cached prices")
		return s.reconvert(cached, rate), nil
	}

	est, err := src.Fetch(ctx, q, rate)
	if err != nil {
		s.log.Warn().Err(err).Str("source", string(name)).Msg("Price fetch failed")
		s.recordFailure(name, err)
		return nil, err
	}
	s.recordSuccess(name)

	if err := s.cache.Set(ctx, key, q.Brand, name, est, s.ttlFor(name)); err != nil {
		s.log.Warn().Err(err).Str("source", string(name)).Msg("Failed to cache prices")
	}
	return est, nil
}

// reconvert re-derives the local price of a cached estimate when it was
// converted at a rate that no longer holds. Min and max follow through the
// implied rate.
func (s *Service) reconvert(cached *domain.PriceEstimate, rate float64) *domain.PriceEstimate {
	check := validation.CheckConsistency(cached.Price, cached.PriceLocal, rate)
	if check.Consistent {
		return cached
	}
	s.log.Info().
		Str("source", string(cached.Source)).
		Float64("price_local_before", cached.PriceLocal).
		Float64("price_local_after", check.SuggestedLocal).
		Float64("rate", rate).
		Msg("Cached price converted at stale rate, re-deriving")

	est := *cached
	est.PriceLocal = check.SuggestedLocal
	return &est
}

// recordFailure only counts failures that mean the source is unreachable;
// an empty result is a valid answer.
func (s *Service) recordFailure(source domain.SourceType, err error) {
	if errors.Is(err, domain.ErrNoListingsFound) || errors.Is(err, domain.ErrSourceDisabled) {
		return
	}
	if !s.outages.failure(source) || s.notifier == nil {
		return
	}
	go func() {
		if nerr := s.notifier.NotifySourceDown(source, err); nerr != nil {
			s.log.Warn().Err(nerr).Str("source", string(source)).Msg("Failed to send outage notification")
		}
	}()
}

func (s *Service) recordSuccess(source domain.SourceType) {
	failures := s.outages.success(source)
	if failures == 0 || s.notifier == nil {
		return
	}
	go func() {
		if err := s.notifier.NotifySourceRecovered(source, failures); err != nil {
			s.log.Warn().Err(err).Str("source", string(source)).Msg("Failed to send recovery notification")
		}
	}()
}
