package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL    string
	Port           string
	IsProduction   bool
	EnableDBCheck  bool
	MigrationsPath string
	DBMaxConns     int

	// Market data provider
	ProviderBaseURL string
	ProviderTimeout time.Duration

	// Price cache tuning
	PriceCoverageThreshold float64
	PriceGapExpansionDays  int
	HolidayPromotionCount  int
	NearestCloseWindowDays int

	// Currency conversion
	ConversionMemoryTTL time.Duration
	DefaultUSDCADRate   string
	DefaultCADUSDRate   string

	// Analysis cache
	AnalysisMemoryTTL time.Duration

	// Background jobs (cron expressions)
	RefreshCronSpec      string
	TokenSweepCronSpec   string
	EnableBackgroundJobs bool

	// HTTP rate limiting, in limiter format e.g. "100-M"
	RateLimit string
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("ENABLE_DB_CHECK", false)
	viper.SetDefault("MIGRATIONS_PATH", "file://migrations")
	viper.SetDefault("DB_MAX_CONNS", 8)
	viper.SetDefault("PROVIDER_BASE_URL", "https://query1.finance.yahoo.com")
	viper.SetDefault("PROVIDER_TIMEOUT", "15s")
	viper.SetDefault("PRICE_COVERAGE_THRESHOLD", 0.70)
	viper.SetDefault("PRICE_GAP_EXPANSION_DAYS", 35)
	viper.SetDefault("HOLIDAY_PROMOTION_COUNT", 5)
	viper.SetDefault("NEAREST_CLOSE_WINDOW_DAYS", 7)
	viper.SetDefault("CONVERSION_MEMORY_TTL", "5m")
	viper.SetDefault("DEFAULT_USD_CAD_RATE", "1.35")
	viper.SetDefault("DEFAULT_CAD_USD_RATE", "0.74")
	viper.SetDefault("ANALYSIS_MEMORY_TTL", "5m")
	viper.SetDefault("REFRESH_CRON_SPEC", "30 6 * * *")
	viper.SetDefault("TOKEN_SWEEP_CRON_SPEC", "0 3 * * *")
	viper.SetDefault("ENABLE_BACKGROUND_JOBS", true)
	viper.SetDefault("RATE_LIMIT", "300-M")

	viper.AutomaticEnv()

	cfg := &Config{}

	cfg.DatabaseURL = viper.GetString("PGSQL_URL")
	if cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set.")
	}

	cfg.Port = viper.GetString("PORT")
	cfg.IsProduction = viper.GetBool("IS_PRODUCTION")
	cfg.EnableDBCheck = viper.GetBool("ENABLE_DB_CHECK")
	cfg.MigrationsPath = viper.GetString("MIGRATIONS_PATH")
	cfg.DBMaxConns = viper.GetInt("DB_MAX_CONNS")
	cfg.ProviderBaseURL = viper.GetString("PROVIDER_BASE_URL")
	cfg.ProviderTimeout = parseDurationOr("PROVIDER_TIMEOUT", 15*time.Second)
	cfg.PriceCoverageThreshold = viper.GetFloat64("PRICE_COVERAGE_THRESHOLD")
	cfg.PriceGapExpansionDays = viper.GetInt("PRICE_GAP_EXPANSION_DAYS")
	cfg.HolidayPromotionCount = viper.GetInt("HOLIDAY_PROMOTION_COUNT")
	cfg.NearestCloseWindowDays = viper.GetInt("NEAREST_CLOSE_WINDOW_DAYS")
	cfg.ConversionMemoryTTL = parseDurationOr("CONVERSION_MEMORY_TTL", 5*time.Minute)
	cfg.DefaultUSDCADRate = viper.GetString("DEFAULT_USD_CAD_RATE")
	cfg.DefaultCADUSDRate = viper.GetString("DEFAULT_CAD_USD_RATE")
	cfg.AnalysisMemoryTTL = parseDurationOr("ANALYSIS_MEMORY_TTL", 5*time.Minute)
	cfg.RefreshCronSpec = viper.GetString("REFRESH_CRON_SPEC")
	cfg.TokenSweepCronSpec = viper.GetString("TOKEN_SWEEP_CRON_SPEC")
	cfg.EnableBackgroundJobs = viper.GetBool("ENABLE_BACKGROUND_JOBS")
	cfg.RateLimit = viper.GetString("RATE_LIMIT")

	return cfg, nil
}

func parseDurationOr(key string, fallback time.Duration) time.Duration {
	raw := viper.GetString(key)
	d, err := time.ParseDuration(raw)
	if err != nil {
		if raw != "" {
			log.Printf("Warning: Invalid value for %s ('%s'). Defaulting to %s.\n", key, raw, fallback)
		}
		return fallback
	}
	return d
}
