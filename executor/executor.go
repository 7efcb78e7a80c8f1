// Package executor implements the trade executor (C8, §4.8): the single
// pipeline every mode's TradeIntent passes through, modeled on the
// teacher's AutoTrader.runCycle/ExecuteDecision pipeline (precondition
// check, build, send, classify, record) but driven by TradeIntent instead
// of an AI decision.
package executor

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sirupsen/logrus"

	"github.com/mrbarnaclebot-ux/ClaudeWheel-sub002/algorithm"
	"github.com/mrbarnaclebot-ux/ClaudeWheel-sub002/domain"
	"github.com/mrbarnaclebot-ux/ClaudeWheel-sub002/metrics"
	"github.com/mrbarnaclebot-ux/ClaudeWheel-sub002/moneyunits"
	"github.com/mrbarnaclebot-ux/ClaudeWheel-sub002/oracle"
	"github.com/mrbarnaclebot-ux/ClaudeWheel-sub002/signer"
	"github.com/mrbarnaclebot-ux/ClaudeWheel-sub002/store"
	"github.com/mrbarnaclebot-ux/ClaudeWheel-sub002/venue"
)

// maxBlockhashRetries bounds the rebuild loop on BLOCKHASH_EXPIRED (§4.8 step 5).
const maxBlockhashRetries = 3

// baseCooldown is the unit the exponential pause formula scales (§4.8 step 6).
const baseCooldown = 30 * time.Second

// Deadlines are the per-call timeouts (§5 "Cancellation & timeouts").
type Deadlines struct {
	Quote      time.Duration
	Build      time.Duration
	SignAndSend time.Duration
}

// DefaultDeadlines returns §5's documented defaults.
func DefaultDeadlines() Deadlines {
	return Deadlines{Quote: 5 * time.Second, Build: 5 * time.Second, SignAndSend: 30 * time.Second}
}

// Executor runs a single TradeIntent to completion under a caller-held
// lease. It never acquires the lease itself — schedulers and the reactive
// subscriber do that, per §5's "only mutation happens inside a lease."
type Executor struct {
	store     store.Store
	venue     venue.Client
	signer    signer.Signer
	oracle    oracle.Oracle
	deadlines Deadlines
	chainID   string
	log       zerolog.Logger
	audit     *logrus.Logger
}

// New builds an Executor from its collaborators (§9 "dependency injection
// over globals"). chainID is the fixed chain identifier passed to every
// Signer call (§6). audit may be nil, in which case the durable audit-trail
// mirror (SPEC_FULL §10) is skipped.
func New(st store.Store, v venue.Client, sgn signer.Signer, orc oracle.Oracle, deadlines Deadlines, chainID string, log zerolog.Logger, audit *logrus.Logger) *Executor {
	return &Executor{store: st, venue: v, signer: sgn, oracle: orc, deadlines: deadlines, chainID: chainID, log: log.With().Str("component", "executor").Logger(), audit: audit}
}

// Run executes one intent for a token already held under lease by the
// caller. view is the token's current read model; outcome is the mode
// decision the caller already computed from this tick's oracle and
// detector reads.
func (e *Executor) Run(ctx context.Context, view domain.TokenView, outcome algorithm.Outcome) error {
	log := e.log.With().Str("token_id", view.Token.TokenID).Logger()

	if outcome.Intent.Skip {
		log.Debug().Str("reason", outcome.Intent.Reason).Msg("skip")
		return e.persistState(ctx, view.Token.TokenID, outcome.NewState)
	}

	now := time.Now()
	if !view.Config.MarketMakingEnabled {
		log.Debug().Msg("skip: market making disabled")
		return e.recordPreconditionSkip(ctx, view.Token.TokenID, now, "market making disabled")
	}
	if view.State.IsPaused(now) {
		log.Debug().Time("paused_until", *view.State.PausedUntil).Msg("skip: paused")
		return e.recordPreconditionSkip(ctx, view.Token.TokenID, now, "paused")
	}

	bal, err := e.venue.WalletBalances(ctx, view.Ops.Address, view.Token.MintAddress)
	if err != nil {
		return fmt.Errorf("read ops wallet balances: %w", err)
	}
	feeReserve := 0.001 // lamports' worth of SOL held back for network fees
	required := outcome.Intent.Amount
	if outcome.Intent.Side == domain.SideBuy {
		required += feeReserve
	}
	available := bal.SolBalance
	if outcome.Intent.Side == domain.SideSell {
		available = bal.TokenBalance
	}
	if available < required {
		log.Debug().Float64("required", required).Float64("available", available).Msg("skip: insufficient balance")
		return e.recordPreconditionSkip(ctx, view.Token.TokenID, now, "insufficient balance")
	}

	result, classified := e.tradeWithRetry(ctx, view, outcome.Intent)
	if classified != nil {
		return e.recordFailure(ctx, view, *classified, now)
	}

	return e.recordSuccess(ctx, view, outcome, result, bal, now)
}

// recordPreconditionSkip implements PRECONDITION_SKIP (§7): a silent,
// uncounted skip whose occurrence is still recorded in lastCheckedAt/
// lastCheckResult so an operator can tell a quiet token apart from one that
// is failing.
func (e *Executor) recordPreconditionSkip(ctx context.Context, tokenID string, now time.Time, reason string) error {
	if err := e.store.UpdateState(ctx, tokenID, store.StatePatch{LastCheckedAt: &now, LastCheckResult: &reason}); err != nil {
		return domain.NewClassifiedError(domain.KindStoreTransient, "persist precondition skip result", err)
	}
	return nil
}

func (e *Executor) tradeWithRetry(ctx context.Context, view domain.TokenView, intent domain.TradeIntent) (signer.Result, *domain.ClassifiedError) {
	side := venue.SideBuy
	inputMint, outputMint := "SOL", view.Token.MintAddress
	if intent.Side == domain.SideSell {
		side = venue.SideSell
		inputMint, outputMint = view.Token.MintAddress, "SOL"
	}

	var amountUnits int64
	if intent.Side == domain.SideBuy {
		amountUnits = moneyunits.SolToLamports(intent.Amount)
	} else {
		amountUnits = moneyunits.AmountToTokenUnits(intent.Amount, view.Token.Decimals)
	}

	for attempt := 1; attempt <= maxBlockhashRetries; attempt++ {
		qctx, cancel := context.WithTimeout(ctx, e.deadlines.Quote)
		quote, err := e.venue.Quote(qctx, inputMint, outputMint, amountUnits, side, view.Config.SlippageBps)
		cancel()
		if err != nil {
			return signer.Result{}, &domain.ClassifiedError{Kind: domain.KindQuoteUnavailable, Message: err.Error()}
		}

		bctx, cancel := context.WithTimeout(ctx, e.deadlines.Build)
		tx, err := e.venue.BuildSwapTx(bctx, view.Ops.Address, quote)
		cancel()
		if err != nil {
			return signer.Result{}, &domain.ClassifiedError{Kind: domain.KindOther, Message: err.Error()}
		}

		sctx, cancel := context.WithTimeout(ctx, e.deadlines.SignAndSend)
		result, classified := e.signer.SignAndSend(sctx, view.Ops.WalletID, tx, e.chainID)
		cancel()

		if classified == nil {
			return result, nil
		}
		if classified.Kind == domain.KindSignerUnavailable {
			return signer.Result{}, classified
		}
		if classified.Kind == domain.KindBlockhashExpired && attempt < maxBlockhashRetries {
			continue
		}
		return signer.Result{}, classified
	}
	return signer.Result{}, &domain.ClassifiedError{Kind: domain.KindBlockhashExpired, Message: "exhausted blockhash retries"}
}

func (e *Executor) recordSuccess(ctx context.Context, view domain.TokenView, outcome algorithm.Outcome, result signer.Result, preTradeBal venue.Balances, now time.Time) error {
	hash := result.Hash
	txType := domain.TradeBuy
	if outcome.Intent.Side == domain.SideSell {
		txType = domain.TradeSell
	}
	if err := e.store.AppendTransaction(ctx, domain.Transaction{
		ID:           uuid.NewString(),
		TokenID:      view.Token.TokenID,
		Type:         txType,
		Amount:       outcome.Intent.Amount,
		Signature:    &hash,
		Status:       domain.StatusConfirmed,
		Message:      outcome.Intent.Reason,
		TradingRoute: view.Config.TradingRoute,
		CreatedAt:    now,
	}); err != nil {
		return domain.NewClassifiedError(domain.KindStoreTransient, "append transaction", err)
	}
	metrics.TradesTotal.WithLabelValues(string(outcome.Intent.Side), "confirmed").Inc()
	if e.audit != nil {
		e.audit.WithFields(logrus.Fields{
			"token_id":  view.Token.TokenID,
			"mint":      view.Token.MintAddress,
			"side":      outcome.Intent.Side,
			"amount":    outcome.Intent.Amount,
			"style":     outcome.Intent.Style,
			"signature": hash,
			"route":     view.Config.TradingRoute,
		}).Info("trade confirmed")
	}

	next := outcome.NewState
	next.LastTradeAt = &now
	next.ConsecutiveFailures = 0
	next.PausedUntil = nil
	if outcome.Intent.Style == domain.StyleTwap && outcome.EnqueueTwap != nil {
		next.TwapQueue = append(next.TwapQueue, *outcome.EnqueueTwap)
	}

	if outcome.NeedsPostTradeSnapshot {
		postBal, err := e.venue.WalletBalances(ctx, view.Ops.Address, view.Token.MintAddress)
		if err != nil {
			e.log.Warn().Err(err).Str("token_id", view.Token.TokenID).Msg("post-trade balance read failed, snapshot deferred")
		} else {
			next = algorithm.FinalizeSellSnapshot(next, postBal.TokenBalance, view.Config.NSell)
		}
	}

	return e.persistState(ctx, view.Token.TokenID, next)
}

func (e *Executor) recordFailure(ctx context.Context, view domain.TokenView, classified domain.ClassifiedError, now time.Time) error {
	if !classified.Kind.Counted() {
		e.log.Info().Str("token_id", view.Token.TokenID).Str("kind", string(classified.Kind)).Msg("uncounted skip/unavailable, no state change")
		return nil
	}

	state := view.State
	consecutive := state.ConsecutiveFailures + 1
	pauseExp := consecutive
	if pauseExp > 6 {
		pauseExp = 6
	}
	pausedUntil := now.Add(time.Duration(1<<uint(pauseExp)) * baseCooldown)

	reason := classified.Message
	if reason == "" {
		reason = string(classified.Kind)
	}

	metrics.TradeFailuresTotal.WithLabelValues(string(classified.Kind)).Inc()

	patch := store.StatePatch{
		ConsecutiveFailures: &consecutive,
		LastFailureReason:   &reason,
		LastFailureAt:       &now,
		PausedUntil:         &pausedUntil,
	}
	totalFailures := state.TotalFailures + 1
	patch.TotalFailures = &totalFailures
	if err := e.store.UpdateState(ctx, view.Token.TokenID, patch); err != nil {
		return domain.NewClassifiedError(domain.KindStoreTransient, "persist failure state", err)
	}
	return nil
}

func (e *Executor) persistState(ctx context.Context, tokenID string, state domain.FlywheelState) error {
	phase := state.CyclePhase
	buyCount := state.BuyCount
	sellCount := state.SellCount
	snapshot := state.SellPhaseTokenSnapshot
	perTx := state.SellAmountPerTx
	cond := state.MarketCondition
	prevCond := state.PreviousMarketCondition

	patch := store.StatePatch{
		CyclePhase:             &phase,
		BuyCount:               &buyCount,
		SellCount:               &sellCount,
		SellPhaseTokenSnapshot:  &snapshot,
		SellAmountPerTx:         &perTx,
		MarketCondition:         &cond,
		PreviousMarketCondition: &prevCond,
		ReplaceTwapQueue:        true,
		TwapQueue:               state.TwapQueue,
	}
	if state.LastTradeAt != nil {
		patch.LastTradeAt = state.LastTradeAt
	}
	if state.LastConditionChangeAt != nil {
		patch.LastConditionChangeAt = state.LastConditionChangeAt
	}
	if state.PausedUntil == nil {
		patch.ClearPausedUntil = true
	}
	consecutive := state.ConsecutiveFailures
	patch.ConsecutiveFailures = &consecutive
	reserve := state.ReserveBalanceSol
	patch.ReserveBalanceSol = &reserve

	if err := e.store.UpdateState(ctx, tokenID, patch); err != nil {
		return domain.NewClassifiedError(domain.KindStoreTransient, "persist state", err)
	}
	return nil
}
