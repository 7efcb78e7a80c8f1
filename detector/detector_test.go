package detector

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mrbarnaclebot-ux/ClaudeWheel-sub002/domain"
	"github.com/mrbarnaclebot-ux/ClaudeWheel-sub002/oracle"
)

func ptr(f float64) *float64 { return &f }

func TestDetectDecisionOrderFirstMatchWins(t *testing.T) {
	th := DefaultThresholds()

	// Extreme volatility wins even though price change also satisfies pump.
	snap := oracle.Snapshot{PriceChange24hPct: 20, Volatility: ptr(20)}
	r := Detect(snap, th)
	assert.Equal(t, domain.ConditionExtremeVolatility, r.Condition)

	// Pump wins over dump/ranging/normal when price change alone crosses the pump threshold.
	snap = oracle.Snapshot{PriceChange24hPct: 15, Volatility: ptr(1)}
	r = Detect(snap, th)
	assert.Equal(t, domain.ConditionPump, r.Condition)

	// Dump fires on oversold RSI alone.
	snap = oracle.Snapshot{PriceChange24hPct: 0, RSI14: ptr(20), Volatility: ptr(1)}
	r = Detect(snap, th)
	assert.Equal(t, domain.ConditionDump, r.Condition)

	// Ranging requires both small price change and low volatility.
	snap = oracle.Snapshot{PriceChange24hPct: 1, Volatility: ptr(1)}
	r = Detect(snap, th)
	assert.Equal(t, domain.ConditionRanging, r.Condition)

	// Normal is the fallback.
	snap = oracle.Snapshot{PriceChange24hPct: 5, Volatility: ptr(5)}
	r = Detect(snap, th)
	assert.Equal(t, domain.ConditionNormal, r.Condition)
}

func TestDetectMissingIndicatorsTreatedAsNeutral(t *testing.T) {
	th := DefaultThresholds()
	snap := oracle.Snapshot{PriceChange24hPct: 0}
	r := Detect(snap, th)
	assert.Equal(t, domain.ConditionRanging, r.Condition, "nil RSI/volatility default to neutral 50/0")
}

func TestDetectConfidenceClampedTo100(t *testing.T) {
	th := DefaultThresholds()
	snap := oracle.Snapshot{PriceChange24hPct: 100, RSI14: ptr(100)}
	r := Detect(snap, th)
	assert.Equal(t, domain.ConditionPump, r.Condition)
	assert.LessOrEqual(t, r.Confidence, 100.0)
}
