package algorithm

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrbarnaclebot-ux/ClaudeWheel-sub002/detector"
	"github.com/mrbarnaclebot-ux/ClaudeWheel-sub002/domain"
	"github.com/mrbarnaclebot-ux/ClaudeWheel-sub002/oracle"
)

func TestDecideDynamicExtremeVolatilityPauses(t *testing.T) {
	cfg := domain.TokenConfig{AlgorithmMode: domain.ModeDynamic, PauseOnExtremeVolatility: true}
	state := domain.FlywheelState{}
	cond := detector.Result{Condition: domain.ConditionExtremeVolatility}

	out := decideDynamic(cfg, state, oracle.Snapshot{}, cond, Balances{OpsSolBalance: 10}, time.Now(), func() string { return "id" })
	require.True(t, out.Intent.Skip)
	require.NotNil(t, out.NewState.PausedUntil)
	assert.True(t, out.NewState.PausedUntil.After(time.Now()))
	assert.Equal(t, domain.ConditionExtremeVolatility, out.NewState.MarketCondition)
}

func TestDecideDynamicExtremeVolatilityContinuesWhenPauseDisabled(t *testing.T) {
	cfg := domain.TokenConfig{AlgorithmMode: domain.ModeDynamic, PauseOnExtremeVolatility: false, BuyPercent: 20, MinBuySol: 0.1, MaxBuySol: 10, NBuy: 5}
	state := domain.FlywheelState{CyclePhase: domain.PhaseBuy}
	cond := detector.Result{Condition: domain.ConditionExtremeVolatility}

	out := decideDynamic(cfg, state, oracle.Snapshot{}, cond, Balances{OpsSolBalance: 100}, time.Now(), func() string { return "id" })
	assert.False(t, out.Intent.Skip)
	assert.Nil(t, out.NewState.PausedUntil)
}

func TestDecideDynamicPumpTakesProfit(t *testing.T) {
	cfg := domain.TokenConfig{AlgorithmMode: domain.ModeDynamic, MaxSellPercent: 30}
	cond := detector.Result{Condition: domain.ConditionPump}
	bal := Balances{OpsSolBalance: 50, OpsTokenBalance: 1000}

	out := decideDynamic(cfg, domain.FlywheelState{}, oracle.Snapshot{}, cond, bal, time.Now(), func() string { return "id" })
	require.False(t, out.Intent.Skip)
	assert.Equal(t, domain.SideSell, out.Intent.Side)
	assert.Equal(t, domain.ConditionPump, out.NewState.MarketCondition)
}

func TestDecideDynamicDumpBuysTheDipWithReserveBoost(t *testing.T) {
	cfg := domain.TokenConfig{
		AlgorithmMode:      domain.ModeDynamic,
		BuyPercent:         20,
		MinBuySol:          0.1,
		MaxBuySol:          50,
		BuybackBoostOnDump: true,
		ReservePercentAdverse: 10,
	}
	state := domain.FlywheelState{ReserveBalanceSol: 5}
	cond := detector.Result{Condition: domain.ConditionDump}
	bal := Balances{OpsSolBalance: 100}

	out := decideDynamic(cfg, state, oracle.Snapshot{}, cond, bal, time.Now(), func() string { return "id" })
	require.False(t, out.Intent.Skip)
	assert.Equal(t, domain.SideBuy, out.Intent.Side)
	// Reserve is consumed by the boosted buy, then refilled from the adverse percent.
	assert.Equal(t, 10.0, out.NewState.ReserveBalanceSol)
}

func TestDecideDynamicRangingAlternatesSides(t *testing.T) {
	cfg := domain.TokenConfig{AlgorithmMode: domain.ModeDynamic, MinBuySol: 0.1, MaxBuySol: 50}
	cond := detector.Result{Condition: domain.ConditionRanging}
	bal := Balances{OpsSolBalance: 100}

	out1 := decideDynamic(cfg, domain.FlywheelState{CyclePhase: domain.PhaseBuy}, oracle.Snapshot{}, cond, bal, time.Now(), func() string { return "id" })
	assert.Equal(t, domain.SideBuy, out1.Intent.Side)
	assert.Equal(t, domain.PhaseSell, out1.NewState.CyclePhase)

	out2 := decideDynamic(cfg, domain.FlywheelState{CyclePhase: domain.PhaseSell}, oracle.Snapshot{}, cond, bal, time.Now(), func() string { return "id" })
	assert.Equal(t, domain.SideSell, out2.Intent.Side)
	assert.Equal(t, domain.PhaseBuy, out2.NewState.CyclePhase)
}

func TestDecideDynamicNormalFallsBackToSimple(t *testing.T) {
	cfg := domain.TokenConfig{AlgorithmMode: domain.ModeDynamic, BuyPercent: 20, MinBuySol: 0.1, MaxBuySol: 10, NBuy: 5}
	cond := detector.Result{Condition: domain.ConditionNormal}
	bal := Balances{OpsSolBalance: 100}

	out := decideDynamic(cfg, domain.FlywheelState{CyclePhase: domain.PhaseBuy}, oracle.Snapshot{}, cond, bal, time.Now(), func() string { return "id" })
	require.False(t, out.Intent.Skip)
	assert.Contains(t, out.Intent.Reason, "simple")
}

func TestDecideDynamicRecordsConditionChangeTimestamp(t *testing.T) {
	cfg := domain.TokenConfig{AlgorithmMode: domain.ModeDynamic}
	state := domain.FlywheelState{MarketCondition: domain.ConditionNormal}
	cond := detector.Result{Condition: domain.ConditionPump}

	out := decideDynamic(cfg, state, oracle.Snapshot{}, cond, Balances{OpsSolBalance: 10, OpsTokenBalance: 10}, time.Now(), func() string { return "id" })
	require.NotNil(t, out.NewState.LastConditionChangeAt)
	assert.Equal(t, domain.ConditionNormal, out.NewState.PreviousMarketCondition)
}
