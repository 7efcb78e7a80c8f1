package algorithm

import (
	"time"

	"github.com/mrbarnaclebot-ux/ClaudeWheel-sub002/chooser"
	"github.com/mrbarnaclebot-ux/ClaudeWheel-sub002/detector"
	"github.com/mrbarnaclebot-ux/ClaudeWheel-sub002/domain"
	"github.com/mrbarnaclebot-ux/ClaudeWheel-sub002/moneyunits"
	"github.com/mrbarnaclebot-ux/ClaudeWheel-sub002/oracle"
)

// decideDynamic adapts to the detected market condition (§4.7 Dynamic).
func decideDynamic(cfg domain.TokenConfig, state domain.FlywheelState, snap oracle.Snapshot, cond detector.Result, bal Balances, now time.Time, newID func() string) Outcome {
	next := state
	next.PreviousMarketCondition = state.MarketCondition
	next.MarketCondition = cond.Condition
	if cond.Condition != state.MarketCondition {
		next.LastConditionChangeAt = &now
	}

	switch cond.Condition {
	case domain.ConditionExtremeVolatility:
		if cfg.PauseOnExtremeVolatility {
			pauseUntil := now.Add(dynamicPauseDuration(cfg))
			next.PausedUntil = &pauseUntil
			return Outcome{Intent: domain.Skip("dynamic: extreme volatility pause"), NewState: next}
		}
		return decideSimpleWithState(cfg, next, bal)

	case domain.ConditionPump:
		sellPct := cfg.MaxSellPercent
		if sellPct <= 0 {
			sellPct = 30
		}
		amount := bal.OpsTokenBalance * float64(sellPct) / 100
		if !cfg.BuybackBoostOnDump {
			reservePct := cfg.ReservePercentNormal
			next.ReserveBalanceSol = bal.OpsSolBalance * float64(reservePct) / 100
		}
		d := chooser.Choose(cfg, amount, domain.SideSell, bal.OpsTokenBalance, snap, now, newID)
		return Outcome{
			Intent:      domain.TradeIntent{Side: domain.SideSell, Amount: d.AmountSol, Style: d.Style, Reason: "dynamic: pump, taking profit"},
			NewState:    next,
			EnqueueTwap: d.EnqueueTwap,
		}

	case domain.ConditionDump:
		buyPct := cfg.BuyPercent
		if buyPct <= 0 {
			buyPct = 20
		}
		amount := moneyunits.Clamp(bal.OpsSolBalance*float64(buyPct)/100, cfg.MinBuySol, cfg.MaxBuySol)
		if cfg.BuybackBoostOnDump {
			amount += next.ReserveBalanceSol
			next.ReserveBalanceSol = 0
		}
		reservePct := cfg.ReservePercentAdverse
		next.ReserveBalanceSol = bal.OpsSolBalance * float64(reservePct) / 100
		d := chooser.Choose(cfg, amount, domain.SideBuy, bal.OpsSolBalance, snap, now, newID)
		return Outcome{
			Intent:      domain.TradeIntent{Side: domain.SideBuy, Amount: d.AmountSol, Style: d.Style, Reason: "dynamic: dump, buying the dip"},
			NewState:    next,
			EnqueueTwap: d.EnqueueTwap,
		}

	case domain.ConditionRanging:
		side := domain.SideBuy
		if next.CyclePhase == domain.PhaseSell {
			side = domain.SideSell
		}
		if side == domain.SideBuy {
			next.CyclePhase = domain.PhaseSell
		} else {
			next.CyclePhase = domain.PhaseBuy
		}
		small := moneyunits.Clamp(bal.OpsSolBalance*0.05, cfg.MinBuySol, cfg.MaxBuySol)
		d := chooser.Choose(cfg, small, side, bal.OpsSolBalance, snap, now, newID)
		return Outcome{
			Intent:      domain.TradeIntent{Side: side, Amount: d.AmountSol, Style: d.Style, Reason: "dynamic: ranging, small alternating trade"},
			NewState:    next,
			EnqueueTwap: d.EnqueueTwap,
		}

	default: // normal
		return decideSimpleWithState(cfg, next, bal)
	}
}

// decideSimpleWithState runs Simple's logic but preserves the condition
// bookkeeping dynamic mode already wrote into next.
func decideSimpleWithState(cfg domain.TokenConfig, state domain.FlywheelState, bal Balances) Outcome {
	out := decideSimple(cfg, state, bal)
	return out
}

func dynamicPauseDuration(cfg domain.TokenConfig) time.Duration {
	if cfg.DynamicPauseDuration > 0 {
		return cfg.DynamicPauseDuration
	}
	return 10 * time.Minute
}
