package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wallet-analytics/internal/domain"
)

func validConfig() *Config {
	os.Clearenv()
	return FromEnv()
}

func TestFromEnv_Defaults(t *testing.T) {
	cfg := validConfig()

	assert.Equal(t, domain.MethodFIFO, cfg.Tax.Method)
	assert.Equal(t, 365, cfg.Tax.LongTermDays)
	assert.Equal(t, 5*time.Second, cfg.Orchestrator.Debounce)
	assert.Equal(t, time.Hour, cfg.Cache.TTL)
	assert.Equal(t, 0.95, cfg.Risk.Confidence)
	assert.Equal(t, domain.Period30D, cfg.Orchestrator.Period)
	assert.NoError(t, cfg.Validate())
}

func TestFromEnv_Overrides(t *testing.T) {
	os.Clearenv()
	t.Setenv("TAX_METHOD", "LIFO")
	t.Setenv("TAX_LONG_TERM_DAYS", "730")
	t.Setenv("WATCH_WALLETS", " walletA, ,walletB ")
	t.Setenv("ANALYTICS_DEBOUNCE", "2s")
	t.Setenv("VAR_CONFIDENCE", "0.99")

	cfg := FromEnv()

	assert.Equal(t, domain.MethodLIFO, cfg.Tax.Method)
	assert.Equal(t, []string{"walletA", "walletB"}, cfg.Orchestrator.WatchWallets)
	assert.Equal(t, 2*time.Second, cfg.Orchestrator.Debounce)
	assert.Equal(t, 730*24*time.Hour, cfg.TaxOptions().LongTermThreshold)
	assert.Equal(t, 0.99, cfg.RiskEngineConfig().Confidence)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"tax year too early", func(c *Config) { c.Tax.Year = 2008 }},
		{"tax year too late", func(c *Config) { c.Tax.Year = 2027 }},
		{"negative threshold", func(c *Config) { c.Tax.LongTermDays = -1 }},
		{"unknown method", func(c *Config) { c.Tax.Method = "hifo" }},
		{"unknown tolerance", func(c *Config) { c.Risk.Tolerance = "yolo" }},
		{"unsupported confidence", func(c *Config) { c.Risk.Confidence = 0.5 }},
		{"zero debounce", func(c *Config) { c.Orchestrator.Debounce = 0 }},
		{"zero ttl", func(c *Config) { c.Cache.TTL = 0 }},
		{"memcached without hosts", func(c *Config) { c.Cache.Backend = "memcached" }},
		{"unknown backend", func(c *Config) { c.Cache.Backend = "disk" }},
		{"databases required", func(c *Config) { c.Storage.UseMemory = false }},
		{"bad period", func(c *Config) { c.Orchestrator.Period = "2w" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.Tax.Year = 2025
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.validate(2025), domain.ErrInvalidConfig)
		})
	}
}

func TestValidate_YearBounds(t *testing.T) {
	cfg := validConfig()
	cfg.Tax.Year = 2009
	assert.NoError(t, cfg.validate(2025))
	cfg.Tax.Year = 2026
	assert.NoError(t, cfg.validate(2025))
}

func TestLoad_EnvFile(t *testing.T) {
	os.Clearenv()
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("RISK_TOLERANCE=aggressive\nCACHE_BACKEND=redis\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, domain.ToleranceAggressive, cfg.Risk.Tolerance)
	assert.Equal(t, "redis", cfg.Cache.Backend)
}

func TestLoad_MissingFileIgnored(t *testing.T) {
	os.Clearenv()
	_, err := Load(filepath.Join(t.TempDir(), "absent.env"))
	assert.NoError(t, err)
}

func TestLoad_InvalidConfig(t *testing.T) {
	os.Clearenv()
	t.Setenv("TAX_YEAR", "1999")
	_, err := Load(filepath.Join(t.TempDir(), "absent.env"))
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
}
