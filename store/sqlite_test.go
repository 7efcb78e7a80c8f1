package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrbarnaclebot-ux/ClaudeWheel-sub002/domain"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func seedToken(t *testing.T, s *SQLiteStore, tokenID string, cfg domain.TokenConfig) {
	t.Helper()
	ctx := context.Background()
	dev := domain.Wallet{WalletID: tokenID + "-dev", Address: "DevAddr", ChainType: domain.ChainSolana, Type: domain.WalletDev}
	ops := domain.Wallet{WalletID: tokenID + "-ops", Address: "OpsAddr", ChainType: domain.ChainSolana, Type: domain.WalletOps}
	token := domain.Token{
		TokenID: tokenID, TenantID: "tenant-1", MintAddress: "Mint" + tokenID,
		Symbol: "TOK", Decimals: 6, DevWalletID: dev.WalletID, OpsWalletID: ops.WalletID,
		Active: true, CreatedAt: time.Now(),
	}
	cfg.TokenID = tokenID
	require.NoError(t, s.CreateTokenBundle(ctx, token, dev, ops, cfg))
}

func TestSQLiteCreateTokenBundleAndReadBack(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedToken(t, s, "tok-1", domain.TokenConfig{FlywheelActive: true, MarketMakingEnabled: true, BuyPercent: 20})

	token, err := s.GetToken(ctx, "tok-1")
	require.NoError(t, err)
	assert.Equal(t, "Minttok-1", token.MintAddress)
	assert.True(t, token.Active)

	cfg, err := s.GetConfig(ctx, "tok-1")
	require.NoError(t, err)
	assert.True(t, cfg.FlywheelActive)
	assert.Equal(t, 20, cfg.BuyPercent)

	state, err := s.GetState(ctx, "tok-1")
	require.NoError(t, err)
	assert.Equal(t, domain.PhaseBuy, state.CyclePhase)
}

func TestSQLiteUpdateStateShallowMerge(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedToken(t, s, "tok-1", domain.TokenConfig{})

	buyCount := 3
	require.NoError(t, s.UpdateState(ctx, "tok-1", StatePatch{BuyCount: &buyCount}))

	state, err := s.GetState(ctx, "tok-1")
	require.NoError(t, err)
	assert.Equal(t, 3, state.BuyCount)
	assert.Equal(t, domain.PhaseBuy, state.CyclePhase, "unspecified fields are left unchanged by the merge")
}

func TestSQLiteLeaseExclusivity(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedToken(t, s, "tok-1", domain.TokenConfig{})

	lease, err := s.Lease(ctx, "tok-1")
	require.NoError(t, err)

	_, err = s.Lease(ctx, "tok-1")
	assert.ErrorIs(t, err, ErrBusy)

	require.NoError(t, lease.Close())

	lease2, err := s.Lease(ctx, "tok-1")
	require.NoError(t, err)
	require.NoError(t, lease2.Close())
}

func TestSQLiteSelectFlywheelEligibleFiltersByFlags(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedToken(t, s, "tok-on", domain.TokenConfig{FlywheelActive: true, MarketMakingEnabled: true})
	seedToken(t, s, "tok-off", domain.TokenConfig{FlywheelActive: false, MarketMakingEnabled: true})

	views, err := s.SelectFlywheelEligible(ctx)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "tok-on", views[0].Token.TokenID)
}

func TestSQLiteSelectFlywheelEligibleExcludesPausedTokens(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedToken(t, s, "tok-paused", domain.TokenConfig{FlywheelActive: true, MarketMakingEnabled: true})
	seedToken(t, s, "tok-expired-pause", domain.TokenConfig{FlywheelActive: true, MarketMakingEnabled: true})
	seedToken(t, s, "tok-unpaused", domain.TokenConfig{FlywheelActive: true, MarketMakingEnabled: true})

	future := time.Now().Add(time.Hour)
	require.NoError(t, s.UpdateState(ctx, "tok-paused", StatePatch{PausedUntil: &future}))

	past := time.Now().Add(-time.Hour)
	require.NoError(t, s.UpdateState(ctx, "tok-expired-pause", StatePatch{PausedUntil: &past}))

	views, err := s.SelectFlywheelEligible(ctx)
	require.NoError(t, err)

	ids := make([]string, 0, len(views))
	for _, v := range views {
		ids = append(ids, v.Token.TokenID)
	}
	assert.ElementsMatch(t, []string{"tok-expired-pause", "tok-unpaused"}, ids)
}

func TestSQLiteSelectClaimEligibleFiltersByAutoClaim(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedToken(t, s, "tok-claim", domain.TokenConfig{AutoClaimEnabled: true})
	seedToken(t, s, "tok-noclaim", domain.TokenConfig{AutoClaimEnabled: false})

	views, err := s.SelectClaimEligible(ctx)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "tok-claim", views[0].Token.TokenID)
}

func TestSQLiteListReactiveTokens(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedToken(t, s, "tok-reactive", domain.TokenConfig{ReactiveEnabled: true})
	seedToken(t, s, "tok-plain", domain.TokenConfig{ReactiveEnabled: false})

	views, err := s.ListReactiveTokens(ctx)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "tok-reactive", views[0].Token.TokenID)
}

func TestSQLiteAppendTransactionAndSnapshot(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedToken(t, s, "tok-1", domain.TokenConfig{})

	sig := "sig-abc"
	require.NoError(t, s.AppendTransaction(ctx, domain.Transaction{
		ID: "tx-1", TokenID: "tok-1", Type: domain.TradeBuy, Amount: 1.5,
		Signature: &sig, Status: domain.StatusConfirmed, CreatedAt: time.Now(),
	}))

	snap, err := s.Snapshot(ctx, "tok-1", 10)
	require.NoError(t, err)
	require.Len(t, snap.RecentTrades, 1)
	assert.Equal(t, "tx-1", snap.RecentTrades[0].ID)
}

func TestSQLiteDeactivateToken(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedToken(t, s, "tok-1", domain.TokenConfig{})

	require.NoError(t, s.DeactivateToken(ctx, "tok-1", "manual shutdown"))
	token, err := s.GetToken(ctx, "tok-1")
	require.NoError(t, err)
	assert.False(t, token.Active)
}
