// Package config loads service configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"wallet-analytics/internal/advisor"
	"wallet-analytics/internal/domain"
	"wallet-analytics/internal/logging"
	"wallet-analytics/internal/risk"
	"wallet-analytics/internal/taxlot"
)

// FirstTaxYear is the earliest accepted tax year.
const FirstTaxYear = 2009

// Config is the full service configuration.
type Config struct {
	Server       ServerConfig
	Solana       SolanaConfig
	Prices       PriceConfig
	Cache        CacheConfig
	Storage      StorageConfig
	Tax          TaxConfig
	Risk         RiskConfig
	Orchestrator OrchestratorConfig
	Logging      logging.Options
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	GracefulTimeout time.Duration
	GinMode         string
}

// SolanaConfig contains RPC and WebSocket endpoints.
type SolanaConfig struct {
	Network      string // mainnet-beta, devnet, testnet
	RPCEndpoint  string
	WSEndpoint   string
	RPCTimeout   time.Duration
	MaxRetries   int
	HistoryLimit int // max signatures fetched per wallet
}

// PriceConfig contains the price provider settings.
type PriceConfig struct {
	BaseURL           string
	APIKey            string
	RequestsPerMinute int
	Timeout           time.Duration
	ReferenceAsset    string // beta reference
}

// CacheConfig selects and configures the price cache.
type CacheConfig struct {
	Backend        string // local, redis, memcached
	TTL            time.Duration
	MaxSize        int64
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	MemcachedHosts []string
}

// StorageConfig selects archive backends.
type StorageConfig struct {
	UseMemory     bool
	PostgresDSN   string
	ClickHouseDSN string
}

// TaxConfig contains lot accounting settings.
type TaxConfig struct {
	Method            domain.AccountingMethod
	IncludeGasInBasis bool
	IncludeRewards    bool
	LongTermDays      int
	Year              int
}

// RiskConfig contains risk and advisor settings.
type RiskConfig struct {
	Tolerance    domain.RiskTolerance
	Confidence   float64
	RiskFreeRate float64
}

// OrchestratorConfig contains cycle scheduling settings.
type OrchestratorConfig struct {
	Period          domain.Period
	Debounce        time.Duration
	Concurrency     int
	RefreshSchedule string   // cron spec, empty disables
	WatchWallets    []string // wallets refreshed on schedule and on activity
}

// Load reads .env files (missing files are ignored), then the environment,
// and validates the result.
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load env file: %w", err)
	}

	cfg := FromEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromEnv builds a configuration from environment variables with defaults.
func FromEnv() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            getEnv("SERVER_ADDR", ":8080"),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 60*time.Second),
			GracefulTimeout: getEnvAsDuration("SERVER_GRACEFUL_TIMEOUT", 15*time.Second),
			GinMode:         getEnv("GIN_MODE", "release"),
		},
		Solana: SolanaConfig{
			Network:      getEnv("SOLANA_NETWORK", "mainnet-beta"),
			RPCEndpoint:  getEnv("SOLANA_RPC_ENDPOINT", "https://api.mainnet-beta.solana.com"),
			WSEndpoint:   getEnv("SOLANA_WS_ENDPOINT", ""),
			RPCTimeout:   getEnvAsDuration("SOLANA_RPC_TIMEOUT", 30*time.Second),
			MaxRetries:   getEnvAsInt("SOLANA_RPC_MAX_RETRIES", 3),
			HistoryLimit: getEnvAsInt("SOLANA_HISTORY_LIMIT", 500),
		},
		Prices: PriceConfig{
			BaseURL:           getEnv("PRICE_API_URL", "https://api.coingecko.com/api/v3"),
			APIKey:            getEnv("PRICE_API_KEY", ""),
			RequestsPerMinute: getEnvAsInt("PRICE_API_RATE_LIMIT", 30),
			Timeout:           getEnvAsDuration("PRICE_API_TIMEOUT", 15*time.Second),
			ReferenceAsset:    getEnv("PRICE_REFERENCE_ASSET", "BTC"),
		},
		Cache: CacheConfig{
			Backend:        getEnv("CACHE_BACKEND", "local"),
			TTL:            getEnvAsDuration("CACHE_TTL", time.Hour),
			MaxSize:        int64(getEnvAsInt("CACHE_MAX_SIZE", 5000)),
			RedisAddr:      getEnv("REDIS_ADDR", "localhost:6379"),
			RedisPassword:  getEnv("REDIS_PASSWORD", ""),
			RedisDB:        getEnvAsInt("REDIS_DB", 0),
			MemcachedHosts: getEnvAsList("MEMCACHED_HOSTS", nil),
		},
		Storage: StorageConfig{
			UseMemory:     getEnvAsBool("USE_MEMORY", true),
			PostgresDSN:   getEnv("POSTGRES_DSN", ""),
			ClickHouseDSN: getEnv("CLICKHOUSE_DSN", ""),
		},
		Tax: TaxConfig{
			Method:            domain.AccountingMethod(strings.ToLower(getEnv("TAX_METHOD", string(domain.MethodFIFO)))),
			IncludeGasInBasis: getEnvAsBool("TAX_INCLUDE_GAS", true),
			IncludeRewards:    getEnvAsBool("TAX_INCLUDE_REWARDS", true),
			LongTermDays:      getEnvAsInt("TAX_LONG_TERM_DAYS", 365),
			Year:              getEnvAsInt("TAX_YEAR", time.Now().Year()),
		},
		Risk: RiskConfig{
			Tolerance:    domain.RiskTolerance(strings.ToLower(getEnv("RISK_TOLERANCE", string(domain.ToleranceModerate)))),
			Confidence:   getEnvAsFloat64("VAR_CONFIDENCE", risk.DefaultConfidence),
			RiskFreeRate: getEnvAsFloat64("RISK_FREE_RATE", risk.DefaultRiskFreeRate),
		},
		Orchestrator: OrchestratorConfig{
			Period:          domain.Period(strings.ToLower(getEnv("ANALYTICS_PERIOD", string(domain.Period30D)))),
			Debounce:        getEnvAsDuration("ANALYTICS_DEBOUNCE", 5*time.Second),
			Concurrency:     getEnvAsInt("ANALYTICS_CONCURRENCY", 8),
			RefreshSchedule: getEnv("ANALYTICS_REFRESH_SCHEDULE", "@every 1h"),
			WatchWallets:    getEnvAsList("WATCH_WALLETS", nil),
		},
		Logging: logging.Options{
			Level:      getEnv("LOG_LEVEL", "info"),
			Format:     getEnv("LOG_FORMAT", "json"),
			Output:     getEnv("LOG_OUTPUT", "stdout"),
			Filename:   getEnv("LOG_FILE", ""),
			MaxSizeMB:  getEnvAsInt("LOG_MAX_SIZE_MB", 100),
			MaxAgeDays: getEnvAsInt("LOG_MAX_AGE_DAYS", 30),
			MaxBackups: getEnvAsInt("LOG_MAX_BACKUPS", 5),
			Compress:   getEnvAsBool("LOG_COMPRESS", true),
		},
	}
}

// Validate validates the configuration against the current year.
func (c *Config) Validate() error {
	return c.validate(time.Now().Year())
}

func (c *Config) validate(currentYear int) error {
	if c.Tax.Year < FirstTaxYear || c.Tax.Year > currentYear+1 {
		return invalid("tax year %d outside %d..%d", c.Tax.Year, FirstTaxYear, currentYear+1)
	}
	if !c.Tax.Method.IsValid() {
		return invalid("unknown accounting method %q", c.Tax.Method)
	}
	if c.Tax.LongTermDays < 0 {
		return invalid("long-term threshold cannot be negative: %d", c.Tax.LongTermDays)
	}
	if !c.Risk.Tolerance.IsValid() {
		return invalid("unknown risk tolerance %q", c.Risk.Tolerance)
	}
	if _, ok := risk.ZScore(c.Risk.Confidence); !ok {
		return invalid("unsupported VaR confidence %v", c.Risk.Confidence)
	}
	if !c.Orchestrator.Period.IsValid() {
		return invalid("unknown analytics period %q", c.Orchestrator.Period)
	}
	if c.Orchestrator.Debounce <= 0 {
		return invalid("debounce must be positive")
	}
	if c.Orchestrator.Concurrency <= 0 {
		return invalid("concurrency must be positive")
	}
	if c.Cache.TTL <= 0 {
		return invalid("cache TTL must be positive")
	}
	switch c.Cache.Backend {
	case "local", "redis":
	case "memcached":
		if len(c.Cache.MemcachedHosts) == 0 {
			return invalid("memcached backend requires MEMCACHED_HOSTS")
		}
	default:
		return invalid("unknown cache backend %q", c.Cache.Backend)
	}
	if c.Solana.RPCEndpoint == "" {
		return invalid("SOLANA_RPC_ENDPOINT is required")
	}
	if !c.Storage.UseMemory && (c.Storage.PostgresDSN == "" || c.Storage.ClickHouseDSN == "") {
		return invalid("POSTGRES_DSN and CLICKHOUSE_DSN are required unless USE_MEMORY is set")
	}
	if c.Prices.RequestsPerMinute <= 0 {
		return invalid("price API rate limit must be positive")
	}
	return nil
}

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", domain.ErrInvalidConfig, fmt.Sprintf(format, args...))
}

// TaxOptions converts the tax settings into lot engine options.
func (c *Config) TaxOptions() taxlot.Options {
	return taxlot.Options{
		Method:            c.Tax.Method,
		IncludeGasInBasis: c.Tax.IncludeGasInBasis,
		IncludeRewards:    c.Tax.IncludeRewards,
		LongTermThreshold: time.Duration(c.Tax.LongTermDays) * 24 * time.Hour,
	}
}

// RiskEngineConfig converts the risk settings into engine configuration.
func (c *Config) RiskEngineConfig() risk.Config {
	return risk.Config{
		RiskFreeRate:      c.Risk.RiskFreeRate,
		Confidence:        c.Risk.Confidence,
		AnnualizationDays: risk.DefaultAnnualizationDays,
	}
}

// AdvisorOptions returns advisor thresholds.
func (c *Config) AdvisorOptions() advisor.Options {
	return advisor.DefaultOptions()
}

// Helper functions to parse environment variables

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
