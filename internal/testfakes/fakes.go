// Package testfakes provides in-memory fakes for the store, venue, signer,
// and oracle interfaces shared by the executor, scheduler, and reactive test
// suites, grounded the same way the teacher's tests substitute a fake
// exchange client: no network I/O, deterministic canned responses, and a
// call log for assertions.
package testfakes

import (
	"context"
	"sync"

	"github.com/mrbarnaclebot-ux/ClaudeWheel-sub002/domain"
	"github.com/mrbarnaclebot-ux/ClaudeWheel-sub002/oracle"
	"github.com/mrbarnaclebot-ux/ClaudeWheel-sub002/signer"
	"github.com/mrbarnaclebot-ux/ClaudeWheel-sub002/store"
	"github.com/mrbarnaclebot-ux/ClaudeWheel-sub002/venue"
)

// Store is an in-memory store.Store fake keyed by tokenID.
type Store struct {
	mu sync.Mutex

	Tokens  map[string]domain.Token
	Wallets map[string]domain.Wallet
	Configs map[string]domain.TokenConfig
	States  map[string]domain.FlywheelState
	Eligible       []domain.TokenView
	ClaimEligible  []domain.TokenView
	ReactiveTokens []domain.TokenView

	// EligibleErr and ClaimEligibleErr, when set, are returned by
	// SelectFlywheelEligible/SelectClaimEligible to model a store outage
	// (STORE_FATAL).
	EligibleErr      error
	ClaimEligibleErr error

	Transactions []domain.Transaction
	Claims       []domain.ClaimHistory

	leased map[string]bool

	// LeaseErr, when set, is returned by every Lease call.
	LeaseErr error
}

// NewStore builds an empty Store fake.
func NewStore() *Store {
	return &Store{
		Tokens:  map[string]domain.Token{},
		Wallets: map[string]domain.Wallet{},
		Configs: map[string]domain.TokenConfig{},
		States:  map[string]domain.FlywheelState{},
		leased:  map[string]bool{},
	}
}

type fakeLease struct {
	s       *Store
	tokenID string
}

func (l *fakeLease) TokenID() string { return l.tokenID }

func (l *fakeLease) Close() error {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	delete(l.s.leased, l.tokenID)
	return nil
}

func (s *Store) SelectFlywheelEligible(ctx context.Context) ([]domain.TokenView, error) {
	if s.EligibleErr != nil {
		return nil, s.EligibleErr
	}
	return s.Eligible, nil
}

func (s *Store) SelectClaimEligible(ctx context.Context) ([]domain.TokenView, error) {
	if s.ClaimEligibleErr != nil {
		return nil, s.ClaimEligibleErr
	}
	return s.ClaimEligible, nil
}

func (s *Store) ListReactiveTokens(ctx context.Context) ([]domain.TokenView, error) {
	return s.ReactiveTokens, nil
}

func (s *Store) Lease(ctx context.Context, tokenID string) (store.Lease, error) {
	if s.LeaseErr != nil {
		return nil, s.LeaseErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.leased[tokenID] {
		return nil, store.ErrBusy
	}
	s.leased[tokenID] = true
	return &fakeLease{s: s, tokenID: tokenID}, nil
}

func (s *Store) GetState(ctx context.Context, tokenID string) (domain.FlywheelState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.States[tokenID], nil
}

func (s *Store) UpdateState(ctx context.Context, tokenID string, patch store.StatePatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	state := s.States[tokenID]
	if patch.CyclePhase != nil {
		state.CyclePhase = *patch.CyclePhase
	}
	if patch.BuyCount != nil {
		state.BuyCount = *patch.BuyCount
	}
	if patch.SellCount != nil {
		state.SellCount = *patch.SellCount
	}
	if patch.SellPhaseTokenSnapshot != nil {
		state.SellPhaseTokenSnapshot = *patch.SellPhaseTokenSnapshot
	}
	if patch.SellAmountPerTx != nil {
		state.SellAmountPerTx = *patch.SellAmountPerTx
	}
	if patch.LastTradeAt != nil {
		state.LastTradeAt = patch.LastTradeAt
	}
	if patch.ConsecutiveFailures != nil {
		state.ConsecutiveFailures = *patch.ConsecutiveFailures
	}
	if patch.LastFailureReason != nil {
		state.LastFailureReason = *patch.LastFailureReason
	}
	if patch.LastFailureAt != nil {
		state.LastFailureAt = patch.LastFailureAt
	}
	if patch.PausedUntil != nil {
		state.PausedUntil = patch.PausedUntil
	}
	if patch.ClearPausedUntil {
		state.PausedUntil = nil
	}
	if patch.TotalFailures != nil {
		state.TotalFailures = *patch.TotalFailures
	}
	if patch.MarketCondition != nil {
		state.MarketCondition = *patch.MarketCondition
	}
	if patch.PreviousMarketCondition != nil {
		state.PreviousMarketCondition = *patch.PreviousMarketCondition
	}
	if patch.LastConditionChangeAt != nil {
		state.LastConditionChangeAt = patch.LastConditionChangeAt
	}
	if patch.ReserveBalanceSol != nil {
		state.ReserveBalanceSol = *patch.ReserveBalanceSol
	}
	if patch.ReplaceTwapQueue {
		state.TwapQueue = patch.TwapQueue
	}
	if patch.LastCheckedAt != nil {
		state.LastCheckedAt = patch.LastCheckedAt
	}
	if patch.LastCheckResult != nil {
		state.LastCheckResult = *patch.LastCheckResult
	}
	s.States[tokenID] = state
	return nil
}

func (s *Store) GetConfig(ctx context.Context, tokenID string) (domain.TokenConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Configs[tokenID], nil
}

func (s *Store) UpdateConfig(ctx context.Context, tokenID string, patch store.ConfigPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cfg := s.Configs[tokenID]
	if patch.FlywheelActive != nil {
		cfg.FlywheelActive = *patch.FlywheelActive
	}
	if patch.AutoClaimEnabled != nil {
		cfg.AutoClaimEnabled = *patch.AutoClaimEnabled
	}
	if patch.MarketMakingEnabled != nil {
		cfg.MarketMakingEnabled = *patch.MarketMakingEnabled
	}
	s.Configs[tokenID] = cfg
	return nil
}

func (s *Store) GetToken(ctx context.Context, tokenID string) (domain.Token, error) {
	return s.Tokens[tokenID], nil
}

func (s *Store) GetWallet(ctx context.Context, walletID string) (domain.Wallet, error) {
	return s.Wallets[walletID], nil
}

func (s *Store) AppendTransaction(ctx context.Context, tx domain.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Transactions = append(s.Transactions, tx)
	return nil
}

func (s *Store) AppendClaim(ctx context.Context, claim domain.ClaimHistory) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Claims = append(s.Claims, claim)
	return nil
}

func (s *Store) CreateTokenBundle(ctx context.Context, token domain.Token, dev, ops domain.Wallet, cfg domain.TokenConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Tokens[token.TokenID] = token
	s.Wallets[dev.WalletID] = dev
	s.Wallets[ops.WalletID] = ops
	s.Configs[token.TokenID] = cfg
	s.States[token.TokenID] = domain.FlywheelState{TokenID: token.TokenID, CyclePhase: domain.PhaseBuy}
	return nil
}

func (s *Store) DeactivateToken(ctx context.Context, tokenID string, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tok := s.Tokens[tokenID]
	tok.Active = false
	s.Tokens[tokenID] = tok
	return nil
}

func (s *Store) Snapshot(ctx context.Context, tokenID string, recentLimit int) (store.TokenSnapshot, error) {
	return store.TokenSnapshot{
		Token:  s.Tokens[tokenID],
		Config: s.Configs[tokenID],
		State:  s.States[tokenID],
	}, nil
}

// Venue is an in-memory venue.Client fake.
type Venue struct {
	QuoteResp     venue.Quote
	QuoteErr      error
	BuildSwapErr  error
	ClaimTxErr    error
	TransferTxErr error
	Positions     []venue.Position
	Balances      venue.Balances
	BalancesErr   error
	Info          venue.Info

	BuildSwapCalls int
}

func (v *Venue) Quote(ctx context.Context, inputMint, outputMint string, amountUnits int64, side venue.Side, slippageBps int) (venue.Quote, error) {
	return v.QuoteResp, v.QuoteErr
}

func (v *Venue) BuildSwapTx(ctx context.Context, walletAddress string, quote venue.Quote) (signer.Tx, error) {
	v.BuildSwapCalls++
	if v.BuildSwapErr != nil {
		return signer.Tx{}, v.BuildSwapErr
	}
	return signer.Tx{Opaque: []byte("swap-tx")}, nil
}

func (v *Venue) BuildClaimTx(ctx context.Context, devWalletAddress, mintAddress string) (signer.Tx, error) {
	if v.ClaimTxErr != nil {
		return signer.Tx{}, v.ClaimTxErr
	}
	return signer.Tx{Opaque: []byte("claim-tx")}, nil
}

func (v *Venue) BuildTransferTx(ctx context.Context, fromWalletAddress, toWalletAddress, mintAddress string, amountUnits int64) (signer.Tx, error) {
	if v.TransferTxErr != nil {
		return signer.Tx{}, v.TransferTxErr
	}
	return signer.Tx{Opaque: []byte("transfer-tx")}, nil
}

func (v *Venue) ClaimablePositions(ctx context.Context, devWalletAddress string) ([]venue.Position, error) {
	return v.Positions, nil
}

func (v *Venue) TokenInfo(ctx context.Context, mint string) (venue.Info, error) {
	return v.Info, nil
}

func (v *Venue) WalletBalances(ctx context.Context, walletAddress, mintAddress string) (venue.Balances, error) {
	if v.BalancesErr != nil {
		return venue.Balances{}, v.BalancesErr
	}
	return v.Balances, nil
}

// Signer is an in-memory signer.Signer fake.
type Signer struct {
	Result     signer.Result
	Classified *domain.ClassifiedError
	Calls      int
	// FailUntilCall makes SignAndSend return Classified for every call up to
	// (but not including) this call number, then succeed, modeling the
	// blockhash-retry scenario.
	FailUntilCall int
}

func (s *Signer) SignAndSend(ctx context.Context, walletID string, tx signer.Tx, chainID string) (signer.Result, *domain.ClassifiedError) {
	s.Calls++
	if s.FailUntilCall > 0 && s.Calls < s.FailUntilCall {
		return signer.Result{}, domain.NewClassifiedError(domain.KindBlockhashExpired, "stale blockhash", nil)
	}
	if s.Classified != nil {
		return signer.Result{}, s.Classified
	}
	return s.Result, nil
}

// Oracle is an in-memory oracle.Oracle fake.
type Oracle struct {
	Snap oracle.Snapshot
	Err  error
}

func (o *Oracle) Snapshot(ctx context.Context, mint string) (oracle.Snapshot, error) {
	return o.Snap, o.Err
}
