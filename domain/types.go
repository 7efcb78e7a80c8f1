// Package domain holds the shared entity and value types used across the
// flywheel engine: tokens, wallets, per-token configuration, flywheel state,
// trade intents, and the append-only history records.
package domain

import "time"

// ChainType identifies which chain a wallet's address belongs to.
type ChainType string

const (
	ChainSolana ChainType = "solana"
	ChainEVM    ChainType = "evm"
)

// WrappedSolMint is the canonical wrapped-SOL mint address, used to look up
// SOL's own USD price from the same oracle that prices every other mint.
const WrappedSolMint = "So11111111111111111111111111111111111111112"

// WalletType distinguishes the two wallet roles a token owns.
type WalletType string

const (
	WalletDev WalletType = "dev"
	WalletOps WalletType = "ops"
)

// Wallet is an immutable on-chain identity handed to the Signer by ID.
type Wallet struct {
	WalletID  string
	Address   string
	ChainType ChainType
	Type      WalletType
}

// Token is a tenant-owned mint under flywheel management.
type Token struct {
	TokenID     string
	TenantID    string
	MintAddress string
	Symbol      string
	Decimals    int
	DevWalletID string
	OpsWalletID string
	Active      bool
	Graduated   bool
	CreatedAt   time.Time
}

// TradingRoute selects which venue path a trade takes.
type TradingRoute string

const (
	RouteBags    TradingRoute = "bags"
	RouteJupiter TradingRoute = "jupiter"
	RouteAuto    TradingRoute = "auto"
)

// AlgorithmMode is the closed set of decision strategies (§4.7, §4.9 of the spec).
type AlgorithmMode string

const (
	ModeSimple    AlgorithmMode = "simple"
	ModeRebalance AlgorithmMode = "rebalance"
	ModeTwapVwap  AlgorithmMode = "twap_vwap"
	ModeDynamic   AlgorithmMode = "dynamic"
	ModeTurboLite AlgorithmMode = "turbo_lite"
)

// TokenConfig carries every tunable recognized by the engine (data model §3).
type TokenConfig struct {
	TokenID string

	FlywheelActive      bool
	AutoClaimEnabled    bool
	MarketMakingEnabled bool
	FeeThresholdSol     float64
	SlippageBps         int
	TradingRoute        TradingRoute
	AlgorithmMode       AlgorithmMode

	BuyPercent  int
	SellPercent int
	MinBuySol   float64
	MaxBuySol   float64

	TargetSolAllocation   int
	TargetTokenAllocation int
	RebalanceThreshold    int
	MaxRebalancePercent   int // default 20, §4.7 Rebalance

	TwapEnabled         bool
	TwapSlices          int
	TwapWindowMinutes   int
	TwapThresholdUsd    float64
	VwapEnabled         bool
	VwapParticipationRate int
	VwapMinVolumeUsd      float64

	DynamicFeeEnabled         bool
	ReservePercentNormal      int
	ReservePercentAdverse     int
	MinSellPercent            int
	MaxSellPercent            int
	BuybackBoostOnDump        bool
	PauseOnExtremeVolatility  bool
	VolatilityPauseThreshold  float64
	DynamicPauseDuration      time.Duration

	ReactiveEnabled             bool
	ReactiveMinTriggerSol       float64
	ReactiveScalePercent        int
	ReactiveMaxResponsePercent  int
	ReactiveCooldownMs          int

	NBuy  int // cycle size, default 5
	NSell int // cycle size, default 5
}

// CyclePhase is the Simple-mode buy/sell rotation phase (§3 FlywheelState).
type CyclePhase string

const (
	PhaseBuy  CyclePhase = "buy"
	PhaseSell CyclePhase = "sell"
)

// MarketCondition is the detector's categorical output (§4.5).
type MarketCondition string

const (
	ConditionPump             MarketCondition = "pump"
	ConditionDump             MarketCondition = "dump"
	ConditionRanging          MarketCondition = "ranging"
	ConditionNormal           MarketCondition = "normal"
	ConditionExtremeVolatility MarketCondition = "extreme_volatility"
)

// TwapQueueItem is a scheduled partition of a logical trade into equal
// time-spaced slices (§3).
type TwapQueueItem struct {
	ID              string
	TokenID         string
	TradeType       TradeType
	TotalAmount     float64
	SliceSize       float64
	SlicesRemaining int
	SlicesTotal     int
	NextExecuteAt   time.Time
	IntervalMinutes int
	CreatedAt       time.Time
}

// Ready reports whether this item should execute now (§3).
func (t TwapQueueItem) Ready(now time.Time) bool {
	return t.SlicesRemaining > 0 && !t.NextExecuteAt.After(now)
}

// FlywheelState is the one-row-per-token mutable state machine (§3).
type FlywheelState struct {
	TokenID                string
	CyclePhase             CyclePhase
	BuyCount               int
	SellCount              int
	SellPhaseTokenSnapshot float64
	SellAmountPerTx        float64
	LastTradeAt            *time.Time
	ConsecutiveFailures    int
	LastFailureReason      string
	LastFailureAt          *time.Time
	PausedUntil            *time.Time
	TotalFailures          int
	LastCheckedAt          *time.Time
	LastCheckResult        string
	MarketCondition        MarketCondition
	PreviousMarketCondition MarketCondition
	LastConditionChangeAt  *time.Time
	ReserveBalanceSol      float64
	TwapQueue              []TwapQueueItem
}

// IsPaused reports whether the token is currently in cooldown.
func (s FlywheelState) IsPaused(now time.Time) bool {
	return s.PausedUntil != nil && s.PausedUntil.After(now)
}

// TradeType enumerates the trade-log entry kinds (§3 Transaction).
type TradeType string

const (
	TradeBuy      TradeType = "buy"
	TradeSell     TradeType = "sell"
	TradeTransfer TradeType = "transfer"
	TradeClaim    TradeType = "claim"
	TradeInfo     TradeType = "info"
)

// TxStatus is the trade-log/claim-history status column.
type TxStatus string

const (
	StatusConfirmed TxStatus = "confirmed"
	StatusFailed    TxStatus = "failed"
	StatusPending   TxStatus = "pending"
	StatusPartial   TxStatus = "partial"
)

// Transaction is one append-only trade-log row.
type Transaction struct {
	ID           string
	TokenID      string
	Type         TradeType
	Amount       float64
	Signature    *string
	Status       TxStatus
	Message      string
	TradingRoute TradingRoute
	CreatedAt    time.Time
}

// ClaimHistory is one append-only fee-harvest row.
type ClaimHistory struct {
	ID              string
	TokenID         string
	AmountSol       float64
	PlatformFeeSol  float64
	UserReceivedSol float64
	Signature       *string
	Status          TxStatus
	ClaimedAt       time.Time
	CompletedAt     *time.Time
}

// Side is a trade direction, shared by TradeIntent and reactive events.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// ExecutionStyle is the chooser's output (§4.6).
type ExecutionStyle string

const (
	StyleInstant ExecutionStyle = "instant"
	StyleTwap    ExecutionStyle = "twap"
	StyleVwap    ExecutionStyle = "vwap"
)

// TradeIntent is the algorithm-mode output consumed by the executor (§4.7).
type TradeIntent struct {
	Side   Side
	Amount float64
	Style  ExecutionStyle
	Reason string
	Skip   bool
}

// Skip builds a SKIP intent carrying a reason (§4.7).
func Skip(reason string) TradeIntent {
	return TradeIntent{Skip: true, Reason: reason}
}

// TokenView is the read model the scheduler iterates over (§4.1).
type TokenView struct {
	Token  Token
	Config TokenConfig
	State  FlywheelState
	Dev    Wallet
	Ops    Wallet
}
