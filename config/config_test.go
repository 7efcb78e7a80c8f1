package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		prev, had := os.LookupEnv(k)
		os.Unsetenv(k)
		t.Cleanup(func() {
			if had {
				os.Setenv(k, prev)
			}
		})
	}
}

func TestLoadDefaultsWhenEnvUnset(t *testing.T) {
	clearEnv(t, "FLYWHEEL_INTERVAL_SECONDS", "MAX_TRADES_PER_MINUTE", "REACTIVE_TRADING_ENABLED", "CLAIM_HONORS_PAUSE")
	cfg := Load()
	assert.Equal(t, 60, cfg.FlywheelIntervalSeconds)
	assert.Equal(t, 30, cfg.MaxTradesPerMinute)
	assert.False(t, cfg.ReactiveTradingEnabled)
	assert.False(t, cfg.ClaimHonorsPause)
	assert.Equal(t, 120*time.Second, cfg.LeaseSafetyWindow)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	clearEnv(t, "FLYWHEEL_INTERVAL_SECONDS", "REACTIVE_TRADING_ENABLED")
	os.Setenv("FLYWHEEL_INTERVAL_SECONDS", "15")
	os.Setenv("REACTIVE_TRADING_ENABLED", "true")

	cfg := Load()
	assert.Equal(t, 15, cfg.FlywheelIntervalSeconds)
	assert.True(t, cfg.ReactiveTradingEnabled)
}

func TestLoadIgnoresUnparseableEnvValue(t *testing.T) {
	clearEnv(t, "MAX_CONCURRENT_TOKENS")
	os.Setenv("MAX_CONCURRENT_TOKENS", "not-a-number")
	cfg := Load()
	assert.Equal(t, 8, cfg.MaxConcurrentTokens, "unparseable value falls back to the default")
}

func TestDefaultTokenConfigMatchesDocumentedDefaults(t *testing.T) {
	cfg := DefaultTokenConfig()
	assert.Equal(t, 20, cfg.BuyPercent)
	assert.Equal(t, 5, cfg.NBuy)
	assert.Equal(t, 5, cfg.NSell)
	assert.True(t, cfg.PauseOnExtremeVolatility)
	assert.Equal(t, 10*time.Minute, cfg.DynamicPauseDuration)
}

func TestLoadTokenConfigDefaultsMissingFileReturnsHardcoded(t *testing.T) {
	cfg, err := LoadTokenConfigDefaults(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultTokenConfig(), cfg)
}

func TestLoadTokenConfigDefaultsMergesYAMLOverPositiveFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "defaults.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
buy_percent: 35
n_buy: 8
twap_enabled: true
algorithm_mode: dynamic
`), 0o644))

	cfg, err := LoadTokenConfigDefaults(path)
	require.NoError(t, err)
	assert.Equal(t, 35, cfg.BuyPercent)
	assert.Equal(t, 8, cfg.NBuy)
	assert.True(t, cfg.TwapEnabled)
	assert.Equal(t, "dynamic", string(cfg.AlgorithmMode))
	// Unset numeric fields in the YAML fall back to the hardcoded default.
	assert.Equal(t, DefaultTokenConfig().MaxBuySol, cfg.MaxBuySol)
}
