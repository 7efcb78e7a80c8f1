// Package chooser implements the execution-style chooser (C6, §4.6): given
// an intended trade and current oracle data, decides instant / twap / vwap
// and the resulting amount.
package chooser

import (
	"time"

	"github.com/mrbarnaclebot-ux/ClaudeWheel-sub002/domain"
	"github.com/mrbarnaclebot-ux/ClaudeWheel-sub002/moneyunits"
	"github.com/mrbarnaclebot-ux/ClaudeWheel-sub002/oracle"
)

// Decision is the chooser's output: a style, amount, and the TWAP queue item
// to enqueue when style is twap (nil otherwise).
type Decision struct {
	Style      domain.ExecutionStyle
	AmountSol  float64
	Reason     string
	EnqueueTwap *domain.TwapQueueItem
}

// Choose implements the decision order of §4.6.
func Choose(cfg domain.TokenConfig, intendedSol float64, side domain.Side, availableSol float64, snap oracle.Snapshot, now time.Time, newID func() string) Decision {
	// 1. No price data ⇒ capped fallback instant trade.
	if snap.PriceUsd <= 0 {
		amt := moneyunits.Min(intendedSol*0.1, availableSol)
		return Decision{Style: domain.StyleInstant, AmountSol: amt, Reason: "capped fallback: no price data"}
	}

	tradeValueUsd := intendedSol * snap.PriceUsd

	// 3. VWAP.
	if cfg.VwapEnabled && snap.Volume24hUsd >= cfg.VwapMinVolumeUsd {
		perMinuteVolume := snap.Volume24hUsd / 1440
		targetUsd := perMinuteVolume * float64(cfg.VwapParticipationRate) / 100
		targetSol := targetUsd / snap.PriceUsd
		amt := moneyunits.Min(targetSol, availableSol, intendedSol)
		return Decision{Style: domain.StyleVwap, AmountSol: amt, Reason: "vwap participation"}
	}

	// 4. TWAP.
	if cfg.TwapEnabled && tradeValueUsd > cfg.TwapThresholdUsd {
		slices := cfg.TwapSlices
		if slices <= 0 {
			slices = 1
		}
		sliceSize := intendedSol / float64(slices)
		intervalMinutes := cfg.TwapWindowMinutes / slices
		if intervalMinutes <= 0 {
			intervalMinutes = 1
		}
		tradeType := domain.TradeBuy
		if side == domain.SideSell {
			tradeType = domain.TradeSell
		}
		item := domain.TwapQueueItem{
			ID:              newID(),
			TradeType:       tradeType,
			TotalAmount:     intendedSol,
			SliceSize:       sliceSize,
			SlicesRemaining: slices,
			SlicesTotal:     slices,
			NextExecuteAt:   now, // first slice is immediate, §4.6
			IntervalMinutes: intervalMinutes,
			CreatedAt:       now,
		}
		return Decision{
			Style:       domain.StyleTwap,
			AmountSol:   sliceSize,
			Reason:      "twap slicing",
			EnqueueTwap: &item,
		}
	}

	// 5. Instant.
	amt := moneyunits.Min(intendedSol, availableSol)
	return Decision{Style: domain.StyleInstant, AmountSol: amt, Reason: "instant"}
}
