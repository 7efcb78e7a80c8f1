package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mrbarnaclebot-ux/ClaudeWheel-sub002/domain"
)

// tokenConfigYAML mirrors domain.TokenConfig with yaml tags, used only as
// the on-disk defaults file shape (§3 TokenConfig). Per-token overrides
// still live in the Store; this only supplies the engine-wide defaults new
// tokens are created with, the same two-tier layering the teacher's
// GetDefaultStrategyConfig applies before per-user overrides.
type tokenConfigYAML struct {
	FlywheelActive      bool    `yaml:"flywheel_active"`
	AutoClaimEnabled    bool    `yaml:"auto_claim_enabled"`
	MarketMakingEnabled bool    `yaml:"market_making_enabled"`
	FeeThresholdSol     float64 `yaml:"fee_threshold_sol"`
	SlippageBps         int     `yaml:"slippage_bps"`
	TradingRoute        string  `yaml:"trading_route"`
	AlgorithmMode       string  `yaml:"algorithm_mode"`

	BuyPercent  int     `yaml:"buy_percent"`
	SellPercent int     `yaml:"sell_percent"`
	MinBuySol   float64 `yaml:"min_buy_sol"`
	MaxBuySol   float64 `yaml:"max_buy_sol"`

	TargetSolAllocation   int `yaml:"target_sol_allocation"`
	TargetTokenAllocation int `yaml:"target_token_allocation"`
	RebalanceThreshold    int `yaml:"rebalance_threshold"`
	MaxRebalancePercent   int `yaml:"max_rebalance_percent"`

	TwapEnabled           bool    `yaml:"twap_enabled"`
	TwapSlices            int     `yaml:"twap_slices"`
	TwapWindowMinutes     int     `yaml:"twap_window_minutes"`
	TwapThresholdUsd      float64 `yaml:"twap_threshold_usd"`
	VwapEnabled           bool    `yaml:"vwap_enabled"`
	VwapParticipationRate int     `yaml:"vwap_participation_rate"`
	VwapMinVolumeUsd      float64 `yaml:"vwap_min_volume_usd"`

	DynamicFeeEnabled        bool    `yaml:"dynamic_fee_enabled"`
	ReservePercentNormal     int     `yaml:"reserve_percent_normal"`
	ReservePercentAdverse    int     `yaml:"reserve_percent_adverse"`
	MinSellPercent           int     `yaml:"min_sell_percent"`
	MaxSellPercent           int     `yaml:"max_sell_percent"`
	BuybackBoostOnDump       bool    `yaml:"buyback_boost_on_dump"`
	PauseOnExtremeVolatility bool    `yaml:"pause_on_extreme_volatility"`
	VolatilityPauseThreshold float64 `yaml:"volatility_pause_threshold"`
	DynamicPauseSeconds      int     `yaml:"dynamic_pause_seconds"`

	ReactiveEnabled            bool    `yaml:"reactive_enabled"`
	ReactiveMinTriggerSol      float64 `yaml:"reactive_min_trigger_sol"`
	ReactiveScalePercent       int     `yaml:"reactive_scale_percent"`
	ReactiveMaxResponsePercent int     `yaml:"reactive_max_response_percent"`
	ReactiveCooldownMs         int     `yaml:"reactive_cooldown_ms"`

	NBuy  int `yaml:"n_buy"`
	NSell int `yaml:"n_sell"`
}

// DefaultTokenConfig returns the engine's hardcoded fallback defaults,
// matching the numeric defaults named throughout spec.md §3-4.
func DefaultTokenConfig() domain.TokenConfig {
	return domain.TokenConfig{
		FlywheelActive:      true,
		AutoClaimEnabled:    true,
		MarketMakingEnabled: true,
		FeeThresholdSol:     0.05,
		SlippageBps:         300,
		TradingRoute:        domain.RouteAuto,
		AlgorithmMode:       domain.ModeSimple,

		BuyPercent:  20,
		SellPercent: 20,
		MinBuySol:   0.01,
		MaxBuySol:   0.05,

		TargetSolAllocation:   50,
		TargetTokenAllocation: 50,
		RebalanceThreshold:    10,
		MaxRebalancePercent:   20,

		TwapEnabled:           false,
		TwapSlices:            5,
		TwapWindowMinutes:     30,
		TwapThresholdUsd:      1000,
		VwapEnabled:           false,
		VwapParticipationRate: 10,
		VwapMinVolumeUsd:      5000,

		DynamicFeeEnabled:        false,
		ReservePercentNormal:     20,
		ReservePercentAdverse:    40,
		MinSellPercent:           10,
		MaxSellPercent:           50,
		BuybackBoostOnDump:       false,
		PauseOnExtremeVolatility: true,
		VolatilityPauseThreshold: 15,
		DynamicPauseDuration:     10 * time.Minute,

		ReactiveEnabled:            false,
		ReactiveMinTriggerSol:      0.5,
		ReactiveScalePercent:       50,
		ReactiveMaxResponsePercent: 20,
		ReactiveCooldownMs:         30000,

		NBuy:  5,
		NSell: 5,
	}
}

// LoadTokenConfigDefaults reads a YAML defaults file and merges it over
// DefaultTokenConfig. A missing file is not an error; the hardcoded
// defaults are returned unchanged, the same "use defaults if absent"
// behavior godotenv.Load gets for a missing .env.
func LoadTokenConfigDefaults(path string) (domain.TokenConfig, error) {
	base := DefaultTokenConfig()

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return base, nil
	}
	if err != nil {
		return base, err
	}

	var y tokenConfigYAML
	if err := yaml.Unmarshal(raw, &y); err != nil {
		return base, err
	}

	return mergeYAML(base, y), nil
}

func mergeYAML(base domain.TokenConfig, y tokenConfigYAML) domain.TokenConfig {
	base.FlywheelActive = y.FlywheelActive
	base.AutoClaimEnabled = y.AutoClaimEnabled
	base.MarketMakingEnabled = y.MarketMakingEnabled
	if y.FeeThresholdSol > 0 {
		base.FeeThresholdSol = y.FeeThresholdSol
	}
	if y.SlippageBps > 0 {
		base.SlippageBps = y.SlippageBps
	}
	if y.TradingRoute != "" {
		base.TradingRoute = domain.TradingRoute(y.TradingRoute)
	}
	if y.AlgorithmMode != "" {
		base.AlgorithmMode = domain.AlgorithmMode(y.AlgorithmMode)
	}
	if y.BuyPercent > 0 {
		base.BuyPercent = y.BuyPercent
	}
	if y.SellPercent > 0 {
		base.SellPercent = y.SellPercent
	}
	if y.MinBuySol > 0 {
		base.MinBuySol = y.MinBuySol
	}
	if y.MaxBuySol > 0 {
		base.MaxBuySol = y.MaxBuySol
	}
	if y.TargetSolAllocation > 0 {
		base.TargetSolAllocation = y.TargetSolAllocation
		base.TargetTokenAllocation = y.TargetTokenAllocation
	}
	if y.RebalanceThreshold > 0 {
		base.RebalanceThreshold = y.RebalanceThreshold
	}
	if y.MaxRebalancePercent > 0 {
		base.MaxRebalancePercent = y.MaxRebalancePercent
	}
	base.TwapEnabled = y.TwapEnabled
	if y.TwapSlices > 0 {
		base.TwapSlices = y.TwapSlices
	}
	if y.TwapWindowMinutes > 0 {
		base.TwapWindowMinutes = y.TwapWindowMinutes
	}
	if y.TwapThresholdUsd > 0 {
		base.TwapThresholdUsd = y.TwapThresholdUsd
	}
	base.VwapEnabled = y.VwapEnabled
	if y.VwapParticipationRate > 0 {
		base.VwapParticipationRate = y.VwapParticipationRate
	}
	if y.VwapMinVolumeUsd > 0 {
		base.VwapMinVolumeUsd = y.VwapMinVolumeUsd
	}
	base.DynamicFeeEnabled = y.DynamicFeeEnabled
	if y.ReservePercentNormal > 0 {
		base.ReservePercentNormal = y.ReservePercentNormal
	}
	if y.ReservePercentAdverse > 0 {
		base.ReservePercentAdverse = y.ReservePercentAdverse
	}
	if y.MinSellPercent > 0 {
		base.MinSellPercent = y.MinSellPercent
	}
	if y.MaxSellPercent > 0 {
		base.MaxSellPercent = y.MaxSellPercent
	}
	base.BuybackBoostOnDump = y.BuybackBoostOnDump
	base.PauseOnExtremeVolatility = y.PauseOnExtremeVolatility
	if y.VolatilityPauseThreshold > 0 {
		base.VolatilityPauseThreshold = y.VolatilityPauseThreshold
	}
	if y.DynamicPauseSeconds > 0 {
		base.DynamicPauseDuration = time.Duration(y.DynamicPauseSeconds) * time.Second
	}
	base.ReactiveEnabled = y.ReactiveEnabled
	if y.ReactiveMinTriggerSol > 0 {
		base.ReactiveMinTriggerSol = y.ReactiveMinTriggerSol
	}
	if y.ReactiveScalePercent > 0 {
		base.ReactiveScalePercent = y.ReactiveScalePercent
	}
	if y.ReactiveMaxResponsePercent > 0 {
		base.ReactiveMaxResponsePercent = y.ReactiveMaxResponsePercent
	}
	if y.ReactiveCooldownMs > 0 {
		base.ReactiveCooldownMs = y.ReactiveCooldownMs
	}
	if y.NBuy > 0 {
		base.NBuy = y.NBuy
	}
	if y.NSell > 0 {
		base.NSell = y.NSell
	}
	return base
}
