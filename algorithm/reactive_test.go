package algorithm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrbarnaclebot-ux/ClaudeWheel-sub002/domain"
)

func reactiveCfg() domain.TokenConfig {
	return domain.TokenConfig{
		ReactiveEnabled:            true,
		ReactiveMinTriggerSol:      1,
		ReactiveScalePercent:       50,
		ReactiveMaxResponsePercent: 10,
	}
}

func TestDecideReactiveBelowTriggerSkips(t *testing.T) {
	cfg := reactiveCfg()
	out := DecideReactive(cfg, ObservedSwap{Side: domain.SideBuy, ObservedSol: 0.5}, 100)
	assert.True(t, out.Skip)
}

func TestDecideReactiveMirrorsSideAndScales(t *testing.T) {
	cfg := reactiveCfg()
	out := DecideReactive(cfg, ObservedSwap{Side: domain.SideBuy, ObservedSol: 10}, 100)
	require.False(t, out.Skip)
	assert.Equal(t, domain.SideBuy, out.Side)
	assert.Equal(t, domain.StyleInstant, out.Style)
	assert.Equal(t, 5.0, out.Amount, "50%% scale of the observed 10 SOL swap")
}

func TestDecideReactiveCapsToMaxResponsePercent(t *testing.T) {
	cfg := reactiveCfg()
	// Scaled would be 50, but the 10%% of 100 SOL cap is 10.
	out := DecideReactive(cfg, ObservedSwap{Side: domain.SideSell, ObservedSol: 100}, 100)
	require.False(t, out.Skip)
	assert.Equal(t, 10.0, out.Amount)
	assert.Equal(t, domain.SideSell, out.Side)
}

func TestDecideReactiveZeroBalanceSkips(t *testing.T) {
	cfg := reactiveCfg()
	out := DecideReactive(cfg, ObservedSwap{Side: domain.SideBuy, ObservedSol: 10}, 0)
	assert.True(t, out.Skip)
}
