package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/mrbarnaclebot-ux/ClaudeWheel-sub002/domain"
	"github.com/mrbarnaclebot-ux/ClaudeWheel-sub002/metrics"
	"github.com/mrbarnaclebot-ux/ClaudeWheel-sub002/moneyunits"
	"github.com/mrbarnaclebot-ux/ClaudeWheel-sub002/signer"
	"github.com/mrbarnaclebot-ux/ClaudeWheel-sub002/store"
	"github.com/mrbarnaclebot-ux/ClaudeWheel-sub002/venue"
)

// ClaimScheduler drives C10: per eligible token, claim accumulated fees and
// split them between the platform and the token's ops wallet. Unlike the
// flywheel scheduler it does not honor pausedUntil by default (§4.10,
// SPEC_FULL §12 CLAIM_HONORS_PAUSE).
type ClaimScheduler struct {
	store              store.Store
	venue              venue.Client
	signer             signer.Signer
	chainID            string
	platformFeePercent float64
	honorsPause        bool
	maxParallel        int
	claimDeadline      time.Duration
	cron               *cron.Cron
	intervalSec        int
	log                zerolog.Logger
	audit              *logrus.Logger
	fatal              chan error
}

// NewClaim builds a ClaimScheduler. audit may be nil, in which case the
// durable audit-trail mirror (SPEC_FULL §10) is skipped.
func NewClaim(st store.Store, v venue.Client, sgn signer.Signer, chainID string, platformFeePercent float64, honorsPause bool, intervalSeconds, maxParallel int, log zerolog.Logger, audit *logrus.Logger) *ClaimScheduler {
	return &ClaimScheduler{
		store:              st,
		venue:              v,
		signer:             sgn,
		chainID:            chainID,
		platformFeePercent: platformFeePercent,
		honorsPause:        honorsPause,
		maxParallel:        maxParallel,
		claimDeadline:      10 * time.Second,
		cron:               cron.New(),
		intervalSec:        intervalSeconds,
		log:                log.With().Str("component", "claim_scheduler").Logger(),
		audit:              audit,
		fatal:              make(chan error, 1),
	}
}

// Fatal reports STORE_FATAL errors raised by Tick (§7).
func (c *ClaimScheduler) Fatal() <-chan error {
	return c.fatal
}

// Start registers the recurring claim tick (§4.10).
func (c *ClaimScheduler) Start(ctx context.Context) error {
	spec := fmt.Sprintf("@every %ds", c.intervalSec)
	_, err := c.cron.AddFunc(spec, func() {
		if err := c.Tick(ctx); err != nil {
			c.log.Error().Err(err).Msg("claim tick failed")
			if domain.IsStoreFatal(err) {
				select {
				case c.fatal <- err:
				default:
				}
			}
		}
	})
	if err != nil {
		return fmt.Errorf("schedule claim tick: %w", err)
	}
	c.cron.Start()
	return nil
}

// Stop halts the cron runner (§5 cooperative shutdown).
func (c *ClaimScheduler) Stop() {
	stopCtx := c.cron.Stop()
	<-stopCtx.Done()
}

// Tick runs one claim pass over every eligible token (§4.10).
func (c *ClaimScheduler) Tick(ctx context.Context) error {
	views, err := c.store.SelectClaimEligible(ctx)
	if err != nil {
		return domain.NewClassifiedError(domain.KindStoreFatal, "select claim eligible", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.maxParallel)
	for _, view := range views {
		view := view
		g.Go(func() error {
			c.processToken(gctx, view)
			return nil
		})
	}
	return g.Wait()
}

func (c *ClaimScheduler) processToken(ctx context.Context, view domain.TokenView) {
	log := c.log.With().Str("token_id", view.Token.TokenID).Logger()

	// honorsPause's default false preserves the documented asymmetry: claims
	// run even while pausedUntil is in the future (§4.10).
	if c.honorsPause && view.State.IsPaused(time.Now()) {
		log.Debug().Msg("skip: paused and CLAIM_HONORS_PAUSE is set")
		return
	}

	lease, err := c.store.Lease(ctx, view.Token.TokenID)
	if err != nil {
		if err == store.ErrBusy {
			metrics.LeaseBusyTotal.WithLabelValues("claim").Inc()
			return
		}
		log.Error().Err(err).Msg("lease acquire failed")
		return
	}
	defer lease.Close()

	qctx, cancel := context.WithTimeout(ctx, c.claimDeadline)
	positions, err := c.venue.ClaimablePositions(qctx, view.Dev.Address)
	cancel()
	if err != nil {
		log.Warn().Err(err).Msg("claimable-positions query failed")
		return
	}

	var claimableSol float64
	found := false
	for _, p := range positions {
		if p.MintAddress == view.Token.MintAddress {
			claimableSol = p.ClaimableSol
			found = true
			break
		}
	}
	if !found || claimableSol < view.Config.FeeThresholdSol {
		return
	}

	tx, err := c.venue.BuildClaimTx(ctx, view.Dev.Address, view.Token.MintAddress)
	if err != nil {
		log.Error().Err(err).Msg("build claim tx failed")
		return
	}
	result, classified := c.signer.SignAndSend(ctx, view.Dev.WalletID, tx, c.chainID)
	if classified != nil {
		metrics.ClaimsTotal.WithLabelValues("failed").Inc()
		log.Warn().Str("kind", string(classified.Kind)).Msg("claim sign+send failed")
		return
	}

	platformFee, userReceived := moneyunits.SplitPercent(claimableSol, int(c.platformFeePercent))
	now := time.Now()
	claim := domain.ClaimHistory{
		ID:             uuid.NewString(),
		TokenID:        view.Token.TokenID,
		AmountSol:      claimableSol,
		PlatformFeeSol: platformFee,
		UserReceivedSol: userReceived,
		Signature:      strPtr(result.Hash),
		Status:         domain.StatusConfirmed,
		ClaimedAt:      now,
		CompletedAt:    &now,
	}

	transferUnits := moneyunits.SolToLamports(userReceived)
	transferTx, err := c.venue.BuildTransferTx(ctx, view.Dev.Address, view.Ops.Address, "SOL", transferUnits)
	if err != nil {
		claim.Status = domain.StatusPartial
		c.appendClaim(ctx, claim)
		log.Warn().Err(err).Msg("build transfer tx failed, claim recorded partial")
		return
	}
	if _, classified := c.signer.SignAndSend(ctx, view.Dev.WalletID, transferTx, c.chainID); classified != nil {
		claim.Status = domain.StatusPartial
		c.appendClaim(ctx, claim)
		log.Warn().Str("kind", string(classified.Kind)).Msg("transfer sign+send failed, claim recorded partial")
		return
	}

	c.appendClaim(ctx, claim)
	metrics.ClaimsTotal.WithLabelValues("confirmed").Inc()
	metrics.ClaimedSolTotal.WithLabelValues(view.Token.TokenID).Add(claimableSol)
	if c.audit != nil {
		c.audit.WithFields(logrus.Fields{
			"token_id":     view.Token.TokenID,
			"mint":         view.Token.MintAddress,
			"amount_sol":   claimableSol,
			"platform_fee": platformFee,
			"user_received": userReceived,
			"signature":    result.Hash,
		}).Info("claim confirmed")
	}
}

func (c *ClaimScheduler) appendClaim(ctx context.Context, claim domain.ClaimHistory) {
	if err := c.store.AppendClaim(ctx, claim); err != nil {
		c.log.Error().Err(err).Str("token_id", claim.TokenID).Msg("append claim failed")
	}
}

func strPtr(s string) *string { return &s }
