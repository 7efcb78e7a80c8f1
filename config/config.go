// Package config loads process-level configuration the way the teacher's
// AutoTraderConfig does: sane defaults filled in at construction time, then
// overridden by environment variables, matching spec §6's recognized
// env vars. A .env file is loaded first (if present) via godotenv, exactly
// as the source repo does for local development.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// ProcessConfig holds everything read from the environment at boot (§6).
type ProcessConfig struct {
	FlywheelIntervalSeconds int
	ClaimIntervalSeconds    int
	MaxTradesPerMinute      int
	MaxConcurrentTokens     int
	PlatformFeePercent      float64

	SignerAuthKey string
	VenueAPIKey   string
	ChainRPCURL   string
	ChainWSURL    string
	StoreURL      string

	InitialAdminID string

	// ReactiveTradingEnabled is the process-level half of the reactive
	// feature gate (SPEC_FULL §12): both this AND the per-token
	// reactiveEnabled config must be true.
	ReactiveTradingEnabled bool

	// ClaimHonorsPause surfaces the spec §9 open question about the claim
	// scheduler's pause asymmetry as a runtime flag. Default false
	// preserves the documented asymmetry (claims happen even while paused).
	ClaimHonorsPause bool

	// LeaseSafetyWindow is loaded from LEASE_SAFETY_WINDOW_SECONDS. No
	// scheduler reads it: held leases are not released or logged when they
	// outlive it.
	LeaseSafetyWindow time.Duration
}

// Load reads process configuration from the environment, loading a local
// .env file first if one exists (teacher pattern, not an error if absent).
func Load() ProcessConfig {
	_ = godotenv.Load()

	return ProcessConfig{
		FlywheelIntervalSeconds: envInt("FLYWHEEL_INTERVAL_SECONDS", 60),
		ClaimIntervalSeconds:    envInt("CLAIM_INTERVAL_SECONDS", 60),
		MaxTradesPerMinute:      envInt("MAX_TRADES_PER_MINUTE", 30),
		MaxConcurrentTokens:     envInt("MAX_CONCURRENT_TOKENS", 8),
		PlatformFeePercent:      envFloat("PLATFORM_FEE_PERCENT", 10.0),

		SignerAuthKey: os.Getenv("SIGNER_AUTH_KEY"),
		VenueAPIKey:   os.Getenv("VENUE_API_KEY"),
		ChainRPCURL:   os.Getenv("CHAIN_RPC_URL"),
		ChainWSURL:    os.Getenv("CHAIN_WS_URL"),
		StoreURL:      os.Getenv("STORE_URL"),

		InitialAdminID: os.Getenv("INITIAL_ADMIN_ID"),

		ReactiveTradingEnabled: envBool("REACTIVE_TRADING_ENABLED", false),
		ClaimHonorsPause:       envBool("CLAIM_HONORS_PAUSE", false),
		LeaseSafetyWindow:      time.Duration(envInt("LEASE_SAFETY_WINDOW_SECONDS", 120)) * time.Second,
	}
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func envBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
