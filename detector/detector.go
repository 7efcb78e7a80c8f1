// Package detector implements the market-condition detector (C5, §4.5): a
// pure function mapping oracle output to a categorical condition plus
// confidence, decision order first-match-wins.
package detector

import (
	"fmt"
	"math"

	"github.com/mrbarnaclebot-ux/ClaudeWheel-sub002/domain"
	"github.com/mrbarnaclebot-ux/ClaudeWheel-sub002/oracle"
)

// Thresholds are the detector's tunable cutoffs (§4.5 defaults).
type Thresholds struct {
	Pump      float64 // default +10
	Dump      float64 // default -10
	Range     float64 // default 3
	RangeVol  float64 // default 3
	Extreme   float64 // default 15
	RSIOver   float64 // default 70
	RSIUnder  float64 // default 30
}

// DefaultThresholds returns §4.5's documented defaults.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Pump:     10,
		Dump:     -10,
		Range:    3,
		RangeVol: 3,
		Extreme:  15,
		RSIOver:  70,
		RSIUnder: 30,
	}
}

// Result is the detector's output (§4.5).
type Result struct {
	Condition  domain.MarketCondition
	Confidence float64
	Reasons    []string
}

func clampConfidence(c float64) float64 {
	if c > 100 {
		return 100
	}
	if c < 0 {
		return 0
	}
	return c
}

// Detect evaluates the decision order from §4.5, first match wins.
// Missing RSI/volatility (oracle not yet warmed up) is treated as 0 / neutral
// so the rules that read them simply don't fire, per §4.4's "minimum 20
// samples required before trend outputs are non-null."
func Detect(snap oracle.Snapshot, t Thresholds) Result {
	rsi := 50.0
	if snap.RSI14 != nil {
		rsi = *snap.RSI14
	}
	vol := 0.0
	if snap.Volatility != nil {
		vol = *snap.Volatility
	}
	priceChange := snap.PriceChange24hPct

	// 1. extreme_volatility
	if vol > t.Extreme {
		confidence := clampConfidence(60 + (vol-t.Extreme)*2)
		return Result{
			Condition:  domain.ConditionExtremeVolatility,
			Confidence: confidence,
			Reasons:    []string{fmt.Sprintf("Volatility %.1f%% exceeds extreme threshold %.1f%%", vol, t.Extreme)},
		}
	}

	// 2. pump
	if priceChange > t.Pump || rsi > t.RSIOver {
		confidence := 50.0
		var reasons []string
		if priceChange > t.Pump {
			priceExcess := math.Min(priceChange-t.Pump, 15)
			confidence += (priceExcess / 15) * 30
			reasons = append(reasons, fmt.Sprintf("Price up %.1f%% in 24h", priceChange))
		}
		if rsi > t.RSIOver {
			rsiExcess := math.Min(rsi-t.RSIOver, 30)
			confidence += (rsiExcess / 30) * 30
			reasons = append(reasons, fmt.Sprintf("RSI %.1f above overbought threshold %.1f", rsi, t.RSIOver))
		}
		return Result{Condition: domain.ConditionPump, Confidence: clampConfidence(confidence), Reasons: reasons}
	}

	// 3. dump
	if priceChange < t.Dump || rsi < t.RSIUnder {
		confidence := 50.0
		var reasons []string
		if priceChange < t.Dump {
			priceExcess := math.Min(t.Dump-priceChange, 15)
			confidence += (priceExcess / 15) * 30
			reasons = append(reasons, fmt.Sprintf("Price down %.1f%% in 24h", priceChange))
		}
		if rsi < t.RSIUnder {
			rsiExcess := math.Min(t.RSIUnder-rsi, 30)
			confidence += (rsiExcess / 30) * 30
			reasons = append(reasons, fmt.Sprintf("RSI %.1f below oversold threshold %.1f", rsi, t.RSIUnder))
		}
		return Result{Condition: domain.ConditionDump, Confidence: clampConfidence(confidence), Reasons: reasons}
	}

	// 4. ranging
	if math.Abs(priceChange) < t.Range && vol < t.RangeVol {
		return Result{
			Condition:  domain.ConditionRanging,
			Confidence: 70,
			Reasons:    []string{fmt.Sprintf("Price change %.1f%% and volatility %.1f%% both within range band", priceChange, vol)},
		}
	}

	// 5. normal
	return Result{
		Condition:  domain.ConditionNormal,
		Confidence: 60,
		Reasons:    []string{"No pump/dump/ranging/extreme-volatility rule matched"},
	}
}
