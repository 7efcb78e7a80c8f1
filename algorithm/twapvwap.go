package algorithm

import (
	"time"

	"github.com/mrbarnaclebot-ux/ClaudeWheel-sub002/chooser"
	"github.com/mrbarnaclebot-ux/ClaudeWheel-sub002/domain"
	"github.com/mrbarnaclebot-ux/ClaudeWheel-sub002/oracle"
)

// decideTwapVwap delegates sizing to the execution-style chooser (§4.6) and
// returns style twap or vwap (§4.7 TWAP/VWAP). The ready TWAP-queue items
// themselves are executed by the scheduler before this mode is invoked
// (§4.9 step 4); this function only handles producing a *new* intent when
// no queue item ran this tick.
func decideTwapVwap(cfg domain.TokenConfig, state domain.FlywheelState, snap oracle.Snapshot, bal Balances, now time.Time, newID func() string) Outcome {
	// Alternate buy/sell the same way Simple does, but size and style come
	// from the chooser instead of the fixed cycle percentages.
	side := domain.SideBuy
	if state.CyclePhase == domain.PhaseSell {
		side = domain.SideSell
	}

	intendedSol := intendedTradeSize(cfg, bal)

	d := chooser.Choose(cfg, intendedSol, side, bal.OpsSolBalance, snap, now, newID)
	if d.AmountSol <= 0 {
		return Outcome{Intent: domain.Skip("twap_vwap: zero sizing"), NewState: state}
	}

	next := state
	if side == domain.SideBuy {
		next.CyclePhase = domain.PhaseSell
	} else {
		next.CyclePhase = domain.PhaseBuy
	}

	return Outcome{
		Intent: domain.TradeIntent{
			Side:   side,
			Amount: d.AmountSol,
			Style:  d.Style,
			Reason: d.Reason,
		},
		NewState:    next,
		EnqueueTwap: d.EnqueueTwap,
	}
}

// intendedTradeSize computes the intended trade size from the same
// buy/sell percent knobs Simple mode uses, so TWAP/VWAP sizing stays
// consistent with the rest of the config surface.
func intendedTradeSize(cfg domain.TokenConfig, bal Balances) float64 {
	pct := float64(cfg.BuyPercent)
	if pct <= 0 {
		pct = 20
	}
	intended := bal.OpsSolBalance * pct / 100
	if intended < cfg.MinBuySol {
		intended = cfg.MinBuySol
	}
	if cfg.MaxBuySol > 0 && intended > cfg.MaxBuySol {
		intended = cfg.MaxBuySol
	}
	return intended
}
