// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds application configuration
type Config struct {
	DataDir       string // Base directory for the sqlite databases (always absolute)
	LogLevel      string
	Port          int
	DevMode       bool
	LogBufferSize int

	DatabaseDriver string
	DatabaseURL    string // Postgres DSN, only used when DatabaseDriver is postgres

	CompletedSales SourceConfig
	ResaleMarket   SourceConfig
	AIWeight       float64
	AIConfidence   int

	PriceCacheTTL time.Duration

	ExchangeRate ExchangeRateConfig

	PriceLimitsFile      string
	CacheCleanupSchedule string

	Telegram TelegramConfig
}

// SourceConfig configures a single market data connector.
type SourceConfig struct {
	BaseURL        string
	AppID          string // Credential; only the completed-sales source needs one
	Enabled        bool
	MaxResults     int
	Timeout        time.Duration
	Weight         float64
	MaxRetries     int
	RetryBaseDelay time.Duration
}

// ExchangeRateConfig configures the exchange rate provider.
type ExchangeRateConfig struct {
	APIKey         string
	BaseURL        string
	OriginCurrency string
	LocalCurrency  string
	TTL            time.Duration
	DefaultRate    float64
}

// TelegramConfig configures operator alerts.
type TelegramConfig struct {
	BotToken string
	ChatID   string
	Enabled  bool
}

// Load reads configuration from the environment (and .env, when present).
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("PRICER_DATA_DIR", "./data")
	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:       absDataDir,
		Port:          getEnvAsInt("PRICER_PORT", 8080),
		DevMode:       getEnvAsBool("DEV_MODE", false),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogBufferSize: getEnvAsInt("LOG_BUFFER_SIZE", 1000),

		DatabaseDriver: getEnv("DATABASE_DRIVER", DriverSQLite),
		DatabaseURL:    getEnv("DATABASE_URL", ""),

		CompletedSales: SourceConfig{
			Enabled:    getEnvAsBool("SOLD_LISTINGS_ENABLED", true),
			AppID:      getEnv("SOLD_LISTINGS_APP_ID", ""),
			BaseURL:    getEnv("SOLD_LISTINGS_BASE_URL", "https://svcs.ebay.com/services/search/FindingService/v1"),
			MaxResults: getEnvAsInt("SOLD_LISTINGS_MAX_RESULTS", 50),
			Timeout:    getEnvAsDuration("SOLD_LISTINGS_TIMEOUT", 10*time.Second),
			Weight:     getEnvAsFloat("SOLD_LISTINGS_WEIGHT", 0.4),
		},
		ResaleMarket: SourceConfig{
			Enabled:        getEnvAsBool("RESALE_ENABLED", true),
			BaseURL:        getEnv("RESALE_BASE_URL", "https://www.grailed.com/api"),
			MaxResults:     getEnvAsInt("RESALE_MAX_RESULTS", 20),
			Timeout:        getEnvAsDuration("RESALE_TIMEOUT", 15*time.Second),
			Weight:         getEnvAsFloat("RESALE_WEIGHT", 0.3),
			MaxRetries:     getEnvAsInt("RESALE_MAX_RETRIES", 3),
			RetryBaseDelay: getEnvAsDuration("RESALE_RETRY_BASE_DELAY", 2*time.Second),
		},
		AIWeight:     getEnvAsFloat("AI_WEIGHT", 0.3),
		AIConfidence: getEnvAsInt("AI_DEFAULT_CONFIDENCE", 70),

		PriceCacheTTL: getEnvAsDuration("PRICE_CACHE_TTL", 24*time.Hour),

		ExchangeRate: ExchangeRateConfig{
			APIKey:         getEnv("EXCHANGE_RATE_API_KEY", ""),
			BaseURL:        getEnv("EXCHANGE_RATE_BASE_URL", "https://v6.exchangerate-api.com"),
			TTL:            getEnvAsDuration("EXCHANGE_RATE_TTL", 6*time.Hour),
			DefaultRate:    getEnvAsFloat("DEFAULT_EXCHANGE_RATE", 1334),
			OriginCurrency: getEnv("ORIGIN_CURRENCY", "USD"),
			LocalCurrency:  getEnv("LOCAL_CURRENCY", "KRW"),
		},

		PriceLimitsFile:      getEnv("PRICE_LIMITS_FILE", ""),
		CacheCleanupSchedule: getEnv("CACHE_CLEANUP_SCHEDULE", "0 0 4 * * *"),

		Telegram: TelegramConfig{
			Enabled:  getEnvAsBool("TELEGRAM_ENABLED", false),
			BotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
			ChatID:   getEnv("TELEGRAM_CHAT_ID", ""),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the configuration for values the service cannot run with.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}

	switch c.DatabaseDriver {
	case DriverSQLite:
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when DATABASE_DRIVER=postgres")
		}
	default:
		return fmt.Errorf("unknown database driver: %s", c.DatabaseDriver)
	}

	weights := []float64{c.CompletedSales.Weight, c.ResaleMarket.Weight, c.AIWeight}
	var total float64
	for _, w := range weights {
		if w < 0 || w > 1 {
			return fmt.Errorf("source weights must be within [0,1], got %.2f", w)
		}
		total += w
	}
	if total == 0 {
		return fmt.Errorf("at least one source weight must be positive")
	}

	if c.CompletedSales.Timeout <= 0 || c.ResaleMarket.Timeout <= 0 {
		return fmt.Errorf("source timeouts must be positive")
	}
	if c.PriceCacheTTL <= 0 || c.ExchangeRate.TTL <= 0 {
		return fmt.Errorf("cache TTLs must be positive")
	}
	if c.ExchangeRate.DefaultRate <= 0 {
		return fmt.Errorf("default exchange rate must be positive")
	}
	if c.AIConfidence < 0 || c.AIConfidence > 100 {
		return fmt.Errorf("AI confidence must be within [0,100], got %d", c.AIConfidence)
	}

	if c.Telegram.Enabled && (c.Telegram.BotToken == "" || c.Telegram.ChatID == "") {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN and TELEGRAM_CHAT_ID are required when TELEGRAM_ENABLED=true")
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// getEnvAsDuration accepts Go duration strings ("90s", "12h") or plain
// seconds.
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}
