package algorithm

import (
	"fmt"
	"math"

	"github.com/mrbarnaclebot-ux/ClaudeWheel-sub002/domain"
	"github.com/mrbarnaclebot-ux/ClaudeWheel-sub002/oracle"
)

// urgency buckets the rebalance deviation magnitude (§4.7 Rebalance).
type urgency string

const (
	urgencyLow    urgency = "low"
	urgencyMedium urgency = "medium"
	urgencyHigh   urgency = "high"
)

func urgencyFor(deviation float64) urgency {
	d := math.Abs(deviation)
	switch {
	case d >= 30:
		return urgencyHigh
	case d >= 15:
		return urgencyMedium
	default:
		return urgencyLow
	}
}

// decideRebalance maintains the configured SOL:token portfolio ratio
// (§4.7 Rebalance). totalPortfolioUsd and priceUsd come from the caller's
// balances/oracle read; this function stays a pure decision over them.
func decideRebalance(cfg domain.TokenConfig, state domain.FlywheelState, snap oracle.Snapshot, bal Balances) Outcome {
	solUsd := bal.OpsSolBalance // caller passes already-USD-denominated fields via Balances when in rebalance mode
	tokenUsd := bal.OpsTokenBalance
	total := solUsd + tokenUsd
	if total <= 0 {
		return Outcome{Intent: domain.Skip("rebalance: zero portfolio value"), NewState: state}
	}

	currentSolPct := solUsd / total * 100
	targetSolPct := float64(cfg.TargetSolAllocation)
	deviation := currentSolPct - targetSolPct

	if math.Abs(deviation) < float64(cfg.RebalanceThreshold) {
		return Outcome{Intent: domain.Skip("rebalance: in band"), NewState: state}
	}

	u := urgencyFor(deviation)

	rsi := 50.0
	if snap.RSI14 != nil {
		rsi = *snap.RSI14
	}
	// Non-high urgency suppresses counter-trend trades near RSI extremes.
	if u != urgencyHigh {
		if deviation > 0 && rsi > 75 {
			return Outcome{Intent: domain.Skip("rebalance: suppressed buy, RSI overbought"), NewState: state}
		}
		if deviation < 0 && rsi < 25 {
			return Outcome{Intent: domain.Skip("rebalance: suppressed sell, RSI oversold"), NewState: state}
		}
	}

	gapUsd := math.Abs(deviation) / 100 * total
	maxPct := cfg.MaxRebalancePercent
	if maxPct <= 0 {
		maxPct = 20
	}
	cappedUsd := math.Min(gapUsd, total*float64(maxPct)/100)

	side := domain.SideBuy
	if deviation <= 0 {
		side = domain.SideSell
	}

	return Outcome{
		Intent: domain.TradeIntent{
			Side:   side,
			Amount: cappedUsd, // caller converts USD gap to SOL at current price
			Style:  domain.StyleInstant,
			Reason: fmt.Sprintf("rebalance: %s urgency, deviation %.1f%%", u, deviation),
		},
		NewState: state,
	}
}
