package algorithm

import (
	"github.com/mrbarnaclebot-ux/ClaudeWheel-sub002/domain"
	"github.com/mrbarnaclebot-ux/ClaudeWheel-sub002/moneyunits"
)

// ObservedSwap is what the reactive subscriber parses from an on-chain log
// event before invoking DecideReactive (§4.11).
type ObservedSwap struct {
	Side          domain.Side
	ObservedSol   float64
}

// DecideReactive implements §4.7 Reactive: mirror the observed side, scaled
// and capped by the token's reactive config. Cooldown enforcement is the
// subscriber's job (§4.11), not this pure function's.
func DecideReactive(cfg domain.TokenConfig, swap ObservedSwap, opsSolBalance float64) domain.TradeIntent {
	if swap.ObservedSol < cfg.ReactiveMinTriggerSol {
		return domain.Skip("reactive: below minimum trigger")
	}

	scaled := swap.ObservedSol * float64(cfg.ReactiveScalePercent) / 100
	capped := opsSolBalance * float64(cfg.ReactiveMaxResponsePercent) / 100
	amount := moneyunits.Min(scaled, capped)

	if amount <= 0 {
		return domain.Skip("reactive: zero sizing")
	}

	return domain.TradeIntent{
		Side:   swap.Side,
		Amount: amount,
		Style:  domain.StyleInstant,
		Reason: "reactive: mirroring observed swap",
	}
}
