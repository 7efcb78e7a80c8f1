// Package store is the persistence layer (C1, §4.1, §6): tokens, wallets,
// per-token config and flywheel state, the append-only trade and claim
// history, and the per-token lease used to guarantee at-most-one
// concurrent operation.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/mrbarnaclebot-ux/ClaudeWheel-sub002/domain"
)

// ErrBusy is returned by Lease when the token is already held.
var ErrBusy = errors.New("store: token lease busy")

// Lease is a scoped, exclusive right to mutate one token's state, released
// on Close from every exit path including panics (spec §9 "scoped lease
// semantics").
type Lease interface {
	TokenID() string
	Close() error
}

// Store is the narrow operation set the schedulers and executor depend on
// (§4.1). Every operation is atomic.
type Store interface {
	SelectFlywheelEligible(ctx context.Context) ([]domain.TokenView, error)
	SelectClaimEligible(ctx context.Context) ([]domain.TokenView, error)
	ListReactiveTokens(ctx context.Context) ([]domain.TokenView, error)

	Lease(ctx context.Context, tokenID string) (Lease, error)

	GetState(ctx context.Context, tokenID string) (domain.FlywheelState, error)
	UpdateState(ctx context.Context, tokenID string, patch StatePatch) error

	GetConfig(ctx context.Context, tokenID string) (domain.TokenConfig, error)
	UpdateConfig(ctx context.Context, tokenID string, patch ConfigPatch) error

	GetToken(ctx context.Context, tokenID string) (domain.Token, error)
	GetWallet(ctx context.Context, walletID string) (domain.Wallet, error)

	AppendTransaction(ctx context.Context, tx domain.Transaction) error
	AppendClaim(ctx context.Context, claim domain.ClaimHistory) error

	// CreateTokenBundle atomically creates Token, Wallets, Config, and
	// FlywheelState in one transaction (§3 "Lifecycle summary").
	CreateTokenBundle(ctx context.Context, token domain.Token, dev, ops domain.Wallet, cfg domain.TokenConfig) error

	// DeactivateToken sets active=false without deleting any row (§3).
	DeactivateToken(ctx context.Context, tokenID string, reason string) error

	// Snapshot is the read-only status accessor an external HTTP layer can
	// wrap (SPEC_FULL §12); it is not itself an HTTP endpoint.
	Snapshot(ctx context.Context, tokenID string, recentLimit int) (TokenSnapshot, error)
}

// StatePatch is a shallow merge over FlywheelState; nil fields are left
// unchanged (§4.1 "patches are shallow merges").
type StatePatch struct {
	CyclePhase              *domain.CyclePhase
	BuyCount                *int
	SellCount                *int
	SellPhaseTokenSnapshot   *float64
	SellAmountPerTx          *float64
	LastTradeAt              *time.Time
	ConsecutiveFailures      *int
	LastFailureReason        *string
	LastFailureAt            *time.Time
	PausedUntil              *time.Time
	ClearPausedUntil         bool
	TotalFailures            *int
	LastCheckedAt            *time.Time
	LastCheckResult          *string
	MarketCondition          *domain.MarketCondition
	PreviousMarketCondition  *domain.MarketCondition
	LastConditionChangeAt    *time.Time
	ReserveBalanceSol        *float64
	TwapQueue                []domain.TwapQueueItem
	ReplaceTwapQueue         bool
}

// ConfigPatch is a shallow merge over TokenConfig; nil fields are unchanged.
type ConfigPatch struct {
	FlywheelActive      *bool
	AutoClaimEnabled    *bool
	MarketMakingEnabled *bool
}

// TokenSnapshot is the read-only DTO returned by Store.Snapshot
// (SPEC_FULL §12): phase, counts, failure streak, cooldowns, recent history.
type TokenSnapshot struct {
	Token          domain.Token
	Config         domain.TokenConfig
	State          domain.FlywheelState
	RecentTrades   []domain.Transaction
	RecentClaims   []domain.ClaimHistory
}
