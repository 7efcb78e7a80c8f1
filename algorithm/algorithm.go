// Package algorithm implements the four algorithm-mode decision functions
// (C7, §4.7) plus the reactive-mode rule set (§4.7 Reactive, triggered by
// the subscriber rather than the scheduler), dispatched over the closed
// AlgorithmMode tag per spec §9's "avoid open polymorphism" design note.
package algorithm

import (
	"time"

	"github.com/mrbarnaclebot-ux/ClaudeWheel-sub002/chooser"
	"github.com/mrbarnaclebot-ux/ClaudeWheel-sub002/detector"
	"github.com/mrbarnaclebot-ux/ClaudeWheel-sub002/domain"
	"github.com/mrbarnaclebot-ux/ClaudeWheel-sub002/moneyunits"
	"github.com/mrbarnaclebot-ux/ClaudeWheel-sub002/oracle"
)

// Balances is the token's current holdings, read fresh at the start of
// every decision (§5 "Configuration is read within a lease at the start of
// every decision").
type Balances struct {
	OpsSolBalance   float64
	OpsTokenBalance float64
}

// Outcome is a mode's decision plus any state mutations it implies. The
// executor applies NewState after a successful trade; modes never mutate
// state directly, keeping them pure functions per spec §9.
//
// NeedsPostTradeSnapshot is set when the buy→sell boundary was just crossed
// (§3 "transition to sell... snapshots current token balance"): the token
// balance at decision time does not yet reflect the tokens this very trade
// is about to buy, so the executor re-queries the ops wallet's token
// balance after the trade confirms and fills SellPhaseTokenSnapshot /
// SellAmountPerTx in before persisting NewState.
type Outcome struct {
	Intent                 domain.TradeIntent
	NewState               domain.FlywheelState
	NeedsPostTradeSnapshot bool
	EnqueueTwap            *domain.TwapQueueItem
}

// Decide dispatches to one of the four modes by cfg.AlgorithmMode. Adding a
// mode requires adding both the tag in domain and a case here (§9).
func Decide(cfg domain.TokenConfig, state domain.FlywheelState, snap oracle.Snapshot, cond detector.Result, bal Balances, now time.Time, newID func() string) Outcome {
	switch cfg.AlgorithmMode {
	case domain.ModeRebalance:
		return decideRebalance(cfg, state, snap, bal)
	case domain.ModeTwapVwap:
		return decideTwapVwap(cfg, state, snap, bal, now, newID)
	case domain.ModeDynamic:
		return decideDynamic(cfg, state, snap, cond, bal, now, newID)
	case domain.ModeSimple, domain.ModeTurboLite:
		fallthrough
	default:
		return decideSimple(cfg, state, bal)
	}
}

// decideSimple implements the deterministic rotating cycle (§4.7 Simple).
func decideSimple(cfg domain.TokenConfig, state domain.FlywheelState, bal Balances) Outcome {
	next := state

	if state.CyclePhase == domain.PhaseSell {
		amount := next.SellAmountPerTx
		next.SellCount++
		if next.SellCount == cfg.NSell {
			next.BuyCount = 0
			next.SellCount = 0
			next.CyclePhase = domain.PhaseBuy
		}
		return Outcome{
			Intent:   domain.TradeIntent{Side: domain.SideSell, Amount: amount, Style: domain.StyleInstant, Reason: "simple cycle sell"},
			NewState: next,
		}
	}

	amount := moneyunits.Clamp(bal.OpsSolBalance*float64(cfg.BuyPercent)/100, cfg.MinBuySol, cfg.MaxBuySol)
	next.BuyCount++
	needsSnapshot := false
	if next.BuyCount == cfg.NBuy {
		next.CyclePhase = domain.PhaseSell
		needsSnapshot = true
	}
	return Outcome{
		Intent:                 domain.TradeIntent{Side: domain.SideBuy, Amount: amount, Style: domain.StyleInstant, Reason: "simple cycle buy"},
		NewState:               next,
		NeedsPostTradeSnapshot: needsSnapshot,
	}
}

// FinalizeSellSnapshot fills in SellPhaseTokenSnapshot/SellAmountPerTx from
// the post-trade token balance, called by the executor when
// Outcome.NeedsPostTradeSnapshot is true (§3).
func FinalizeSellSnapshot(state domain.FlywheelState, postTradeTokenBalance float64, nSell int) domain.FlywheelState {
	if nSell <= 0 {
		nSell = 1
	}
	state.SellPhaseTokenSnapshot = postTradeTokenBalance
	state.SellAmountPerTx = postTradeTokenBalance / float64(nSell)
	return state
}
