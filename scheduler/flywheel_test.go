package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrbarnaclebot-ux/ClaudeWheel-sub002/domain"
	"github.com/mrbarnaclebot-ux/ClaudeWheel-sub002/executor"
	"github.com/mrbarnaclebot-ux/ClaudeWheel-sub002/internal/testfakes"
	"github.com/mrbarnaclebot-ux/ClaudeWheel-sub002/signer"
	"github.com/mrbarnaclebot-ux/ClaudeWheel-sub002/venue"
)

func simpleTokenView(tokenID string) domain.TokenView {
	return domain.TokenView{
		Token: domain.Token{TokenID: tokenID, MintAddress: "Mint" + tokenID, Decimals: 6, Active: true},
		Config: domain.TokenConfig{
			FlywheelActive:      true,
			MarketMakingEnabled: true,
			AlgorithmMode:       domain.ModeSimple,
			BuyPercent:          20,
			MinBuySol:           0.1,
			MaxBuySol:           10,
			NBuy:                5,
			NSell:               5,
		},
		State: domain.FlywheelState{TokenID: tokenID, CyclePhase: domain.PhaseBuy},
		Dev:   domain.Wallet{WalletID: tokenID + "-dev", Address: "DevAddr"},
		Ops:   domain.Wallet{WalletID: tokenID + "-ops", Address: "OpsAddr"},
	}
}

func newTestFlywheel(t *testing.T, st *testfakes.Store, v *testfakes.Venue, orc *testfakes.Oracle) *FlywheelScheduler {
	t.Helper()
	sgn := &testfakes.Signer{Result: signer.Result{Hash: "sig"}}
	exec := executor.New(st, v, sgn, orc, executor.DefaultDeadlines(), "solana-mainnet", zerolog.Nop(), nil)
	return New(st, v, orc, exec, 60, 600, 4, zerolog.Nop())
}

func TestFlywheelTickRunsOneTradePerEligibleToken(t *testing.T) {
	st := testfakes.NewStore()
	view := simpleTokenView("tok-1")
	st.Eligible = []domain.TokenView{view}
	st.States[view.Token.TokenID] = view.State
	st.Configs[view.Token.TokenID] = view.Config

	v := &testfakes.Venue{Balances: venue.Balances{SolBalance: 100}}
	orc := &testfakes.Oracle{}

	f := newTestFlywheel(t, st, v, orc)
	require.NoError(t, f.Tick(context.Background()))

	require.Len(t, st.Transactions, 1)
	assert.Equal(t, domain.TradeBuy, st.Transactions[0].Type)
	state := st.States["tok-1"]
	assert.Equal(t, 1, state.BuyCount)
}

func TestFlywheelTickSkipsPausedToken(t *testing.T) {
	st := testfakes.NewStore()
	view := simpleTokenView("tok-1")
	future := time.Now().Add(time.Hour)
	view.State.PausedUntil = &future
	st.Eligible = []domain.TokenView{view}
	st.States[view.Token.TokenID] = view.State
	st.Configs[view.Token.TokenID] = view.Config

	v := &testfakes.Venue{Balances: venue.Balances{SolBalance: 100}}
	f := newTestFlywheel(t, st, v, &testfakes.Oracle{})
	require.NoError(t, f.Tick(context.Background()))

	assert.Empty(t, st.Transactions, "paused tokens must not trade (§8 pause correctness property)")
}

func TestFlywheelTickRunsReadyTwapSliceInsteadOfNewIntent(t *testing.T) {
	st := testfakes.NewStore()
	view := simpleTokenView("tok-1")
	view.Config.AlgorithmMode = domain.ModeTwapVwap
	view.State.TwapQueue = []domain.TwapQueueItem{{
		ID: "q-1", TokenID: "tok-1", TradeType: domain.TradeBuy,
		TotalAmount: 10, SliceSize: 2, SlicesRemaining: 5, SlicesTotal: 5,
		NextExecuteAt: time.Now().Add(-time.Minute), IntervalMinutes: 5,
	}}
	st.Eligible = []domain.TokenView{view}
	st.States[view.Token.TokenID] = view.State
	st.Configs[view.Token.TokenID] = view.Config

	v := &testfakes.Venue{Balances: venue.Balances{SolBalance: 100}}
	f := newTestFlywheel(t, st, v, &testfakes.Oracle{})
	require.NoError(t, f.Tick(context.Background()))

	require.Len(t, st.Transactions, 1)
	assert.Equal(t, 2.0, st.Transactions[0].Amount)
	state := st.States["tok-1"]
	require.Len(t, state.TwapQueue, 1)
	assert.Equal(t, 4, state.TwapQueue[0].SlicesRemaining)
}

func TestFlywheelTickDeactivatesTokenOnInvalidConfig(t *testing.T) {
	st := testfakes.NewStore()
	view := simpleTokenView("tok-1")
	view.Config.BuyPercent = 0 // out of [1,100], structurally invalid
	st.Eligible = []domain.TokenView{view}
	st.States[view.Token.TokenID] = view.State
	st.Configs[view.Token.TokenID] = view.Config
	st.Tokens[view.Token.TokenID] = view.Token

	v := &testfakes.Venue{Balances: venue.Balances{SolBalance: 100}}
	f := newTestFlywheel(t, st, v, &testfakes.Oracle{})
	require.NoError(t, f.Tick(context.Background()))

	assert.Empty(t, st.Transactions, "invalid config must not trade")
	assert.False(t, st.Tokens["tok-1"].Active, "invalid config deactivates the token")
	state := st.States["tok-1"]
	require.NotNil(t, state.LastCheckedAt)
	assert.NotEmpty(t, state.LastCheckResult)
}

func TestFlywheelTickReportsStoreFatalOnEligibilityQueryFailure(t *testing.T) {
	st := testfakes.NewStore()
	st.EligibleErr = assert.AnError

	f := newTestFlywheel(t, st, &testfakes.Venue{}, &testfakes.Oracle{})
	err := f.Tick(context.Background())
	require.Error(t, err)
	assert.True(t, domain.IsStoreFatal(err))
}

func TestFlywheelTickSkipsWhenLeaseBusy(t *testing.T) {
	st := testfakes.NewStore()
	view := simpleTokenView("tok-1")
	st.Eligible = []domain.TokenView{view}
	st.States[view.Token.TokenID] = view.State
	st.Configs[view.Token.TokenID] = view.Config
	st.LeaseErr = nil

	lease, err := st.Lease(context.Background(), "tok-1")
	require.NoError(t, err)
	defer lease.Close()

	v := &testfakes.Venue{Balances: venue.Balances{SolBalance: 100}}
	f := newTestFlywheel(t, st, v, &testfakes.Oracle{})
	require.NoError(t, f.Tick(context.Background()))

	assert.Empty(t, st.Transactions)
}
