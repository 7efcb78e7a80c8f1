package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrbarnaclebot-ux/ClaudeWheel-sub002/domain"
	"github.com/mrbarnaclebot-ux/ClaudeWheel-sub002/internal/testfakes"
	"github.com/mrbarnaclebot-ux/ClaudeWheel-sub002/signer"
	"github.com/mrbarnaclebot-ux/ClaudeWheel-sub002/venue"
)

func claimableView(tokenID string, feeThreshold float64) domain.TokenView {
	return domain.TokenView{
		Token: domain.Token{TokenID: tokenID, MintAddress: "Mint" + tokenID, Active: true},
		Config: domain.TokenConfig{AutoClaimEnabled: true, FeeThresholdSol: feeThreshold},
		State:  domain.FlywheelState{TokenID: tokenID},
		Dev:    domain.Wallet{WalletID: tokenID + "-dev", Address: "DevAddr"},
		Ops:    domain.Wallet{WalletID: tokenID + "-ops", Address: "OpsAddr"},
	}
}

func TestClaimTickSplitsFeeExactly(t *testing.T) {
	st := testfakes.NewStore()
	view := claimableView("tok-1", 0.01)
	st.ClaimEligible = []domain.TokenView{view}

	v := &testfakes.Venue{Positions: []venue.Position{{MintAddress: "Minttok-1", ClaimableSol: 1.0}}}
	sgn := &testfakes.Signer{Result: signer.Result{Hash: "sig-claim"}}
	c := NewClaim(st, v, sgn, "solana-mainnet", 10, false, 300, 4, zerolog.Nop(), nil)

	require.NoError(t, c.Tick(context.Background()))

	require.Len(t, st.Claims, 1)
	claim := st.Claims[0]
	assert.InDelta(t, claim.PlatformFeeSol+claim.UserReceivedSol, claim.AmountSol, 1e-9)
	assert.InDelta(t, 0.1, claim.PlatformFeeSol, 1e-9)
	assert.Equal(t, domain.StatusConfirmed, claim.Status)
}

func TestClaimTickSkipsBelowFeeThreshold(t *testing.T) {
	st := testfakes.NewStore()
	view := claimableView("tok-1", 5.0)
	st.ClaimEligible = []domain.TokenView{view}

	v := &testfakes.Venue{Positions: []venue.Position{{MintAddress: "Minttok-1", ClaimableSol: 1.0}}}
	c := NewClaim(st, v, &testfakes.Signer{}, "solana-mainnet", 10, false, 300, 4, zerolog.Nop(), nil)

	require.NoError(t, c.Tick(context.Background()))
	assert.Empty(t, st.Claims)
}

func TestClaimTickHonorsPauseWhenConfigured(t *testing.T) {
	st := testfakes.NewStore()
	view := claimableView("tok-1", 0.01)
	future := time.Now().Add(time.Hour)
	view.State.PausedUntil = &future
	st.ClaimEligible = []domain.TokenView{view}

	v := &testfakes.Venue{Positions: []venue.Position{{MintAddress: "Minttok-1", ClaimableSol: 1.0}}}
	c := NewClaim(st, v, &testfakes.Signer{Result: signer.Result{Hash: "sig"}}, "solana-mainnet", 10, true, 300, 4, zerolog.Nop(), nil)

	require.NoError(t, c.Tick(context.Background()))
	assert.Empty(t, st.Claims, "CLAIM_HONORS_PAUSE=true should skip paused tokens")
}

func TestClaimTickReportsStoreFatalOnEligibilityQueryFailure(t *testing.T) {
	st := testfakes.NewStore()
	st.ClaimEligibleErr = assert.AnError

	c := NewClaim(st, &testfakes.Venue{}, &testfakes.Signer{}, "solana-mainnet", 10, false, 300, 4, zerolog.Nop(), nil)
	err := c.Tick(context.Background())
	require.Error(t, err)
	assert.True(t, domain.IsStoreFatal(err))
}

func TestClaimTickDefaultDoesNotHonorPause(t *testing.T) {
	st := testfakes.NewStore()
	view := claimableView("tok-1", 0.01)
	future := time.Now().Add(time.Hour)
	view.State.PausedUntil = &future
	st.ClaimEligible = []domain.TokenView{view}

	v := &testfakes.Venue{Positions: []venue.Position{{MintAddress: "Minttok-1", ClaimableSol: 1.0}}}
	c := NewClaim(st, v, &testfakes.Signer{Result: signer.Result{Hash: "sig"}}, "solana-mainnet", 10, false, 300, 4, zerolog.Nop(), nil)

	require.NoError(t, c.Tick(context.Background()))
	assert.Len(t, st.Claims, 1, "default CLAIM_HONORS_PAUSE=false still claims while paused")
}
