package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/mrbarnaclebot-ux/ClaudeWheel-sub002/domain"
)

// SQLiteStore is the concrete Store implementation, grounded on the
// teacher's TacticStore/StrategyStore pattern: raw DDL in initTables,
// `CREATE TABLE IF NOT EXISTS`, explicit indexes, an `updated_at` trigger.
// Query execution goes through sqlx for struct scanning instead of the
// teacher's manual sql.Rows loops.
type SQLiteStore struct {
	db *sqlx.DB

	leaseMu sync.Mutex
	leases  map[string]time.Time // tokenID -> acquired-at, in-process half of the lease
}

// Open creates (or attaches to) the sqlite database at path and runs schema
// migrations.
func Open(path string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1) // sqlite single-writer; serialize at the handle
	s := &SQLiteStore{db: db, leases: make(map[string]time.Time)}
	if err := s.initTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init tables: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

func (s *SQLiteStore) initTables() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS tenants (
			tenant_id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS wallets (
			wallet_id TEXT PRIMARY KEY,
			address TEXT NOT NULL,
			chain_type TEXT NOT NULL,
			wallet_type TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS tokens (
			token_id TEXT PRIMARY KEY,
			tenant_id TEXT NOT NULL,
			mint_address TEXT NOT NULL,
			symbol TEXT NOT NULL,
			decimals INTEGER NOT NULL DEFAULT 9,
			dev_wallet_id TEXT NOT NULL,
			ops_wallet_id TEXT NOT NULL,
			active BOOLEAN NOT NULL DEFAULT 1,
			graduated BOOLEAN NOT NULL DEFAULT 0,
			deactivated_reason TEXT DEFAULT '',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_tokens_tenant_id ON tokens(tenant_id)`,
		`CREATE INDEX IF NOT EXISTS idx_tokens_active ON tokens(active)`,
		`CREATE TABLE IF NOT EXISTS token_configs (
			token_id TEXT PRIMARY KEY REFERENCES tokens(token_id),
			flywheel_active BOOLEAN NOT NULL DEFAULT 0,
			auto_claim_enabled BOOLEAN NOT NULL DEFAULT 0,
			market_making_enabled BOOLEAN NOT NULL DEFAULT 0,
			config_json TEXT NOT NULL DEFAULT '{}'
		)`,
		`CREATE TABLE IF NOT EXISTS flywheel_states (
			token_id TEXT PRIMARY KEY REFERENCES tokens(token_id),
			state_json TEXT NOT NULL DEFAULT '{}',
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TRIGGER IF NOT EXISTS update_flywheel_states_updated_at
		 AFTER UPDATE ON flywheel_states
		 BEGIN
			UPDATE flywheel_states SET updated_at = CURRENT_TIMESTAMP WHERE token_id = NEW.token_id;
		 END`,
		`CREATE TABLE IF NOT EXISTS transactions (
			id TEXT PRIMARY KEY,
			token_id TEXT NOT NULL,
			type TEXT NOT NULL,
			amount REAL NOT NULL,
			signature TEXT,
			status TEXT NOT NULL,
			message TEXT DEFAULT '',
			trading_route TEXT DEFAULT '',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_token_id ON transactions(token_id, created_at)`,
		`CREATE TABLE IF NOT EXISTS claim_history (
			id TEXT PRIMARY KEY,
			token_id TEXT NOT NULL,
			amount_sol REAL NOT NULL,
			platform_fee_sol REAL NOT NULL,
			user_received_sol REAL NOT NULL,
			signature TEXT,
			status TEXT NOT NULL,
			claimed_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			completed_at DATETIME
		)`,
		`CREATE INDEX IF NOT EXISTS idx_claim_history_token_id ON claim_history(token_id, claimed_at)`,
		`CREATE TABLE IF NOT EXISTS leases (
			token_id TEXT PRIMARY KEY,
			acquired_at DATETIME NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt, err)
		}
	}
	return nil
}

// sqliteLease is the Lease handle returned by Lease: it marks the row (and
// in-process map entry) busy until Close, which is always deferred by the
// caller immediately after acquisition (§5 "scoped lease semantics").
type sqliteLease struct {
	store   *SQLiteStore
	tokenID string
}

func (l *sqliteLease) TokenID() string { return l.tokenID }

func (l *sqliteLease) Close() error {
	l.store.leaseMu.Lock()
	delete(l.store.leases, l.tokenID)
	l.store.leaseMu.Unlock()
	_, err := l.store.db.Exec(`DELETE FROM leases WHERE token_id = ?`, l.tokenID)
	return err
}

// Lease acquires the per-token exclusive lease (§5, §9): an in-process
// sync.Map-style guard (fast path, single process) backed by a sqlite row
// recording acquired_at. The row and the map entry are removed by the
// handle's Close or by ForceRelease; neither scheduler calls ForceRelease,
// so no lease is released on a timer. Mirrors the teacher's single-writer
// sqlite handle discipline (MaxOpenConns=1) rather than introducing a
// separate lock manager.
func (s *SQLiteStore) Lease(ctx context.Context, tokenID string) (Lease, error) {
	s.leaseMu.Lock()
	if _, busy := s.leases[tokenID]; busy {
		s.leaseMu.Unlock()
		return nil, ErrBusy
	}
	s.leases[tokenID] = time.Now()
	s.leaseMu.Unlock()

	_, err := s.db.ExecContext(ctx, `INSERT INTO leases (token_id, acquired_at) VALUES (?, ?)
		ON CONFLICT(token_id) DO NOTHING`, tokenID, time.Now())
	if err != nil {
		s.leaseMu.Lock()
		delete(s.leases, tokenID)
		s.leaseMu.Unlock()
		return nil, fmt.Errorf("insert lease row: %w", err)
	}

	return &sqliteLease{store: s, tokenID: tokenID}, nil
}

// ForceRelease clears a token's lease row and in-process entry
// unconditionally, without checking its age and without logging. Nothing
// in this module calls it.
func (s *SQLiteStore) ForceRelease(ctx context.Context, tokenID string) error {
	s.leaseMu.Lock()
	delete(s.leases, tokenID)
	s.leaseMu.Unlock()
	_, err := s.db.ExecContext(ctx, `DELETE FROM leases WHERE token_id = ?`, tokenID)
	return err
}

type tokenRow struct {
	TokenID      string    `db:"token_id"`
	TenantID     string    `db:"tenant_id"`
	MintAddress  string    `db:"mint_address"`
	Symbol       string    `db:"symbol"`
	Decimals     int       `db:"decimals"`
	DevWalletID  string    `db:"dev_wallet_id"`
	OpsWalletID  string    `db:"ops_wallet_id"`
	Active       bool      `db:"active"`
	Graduated    bool      `db:"graduated"`
	CreatedAt    time.Time `db:"created_at"`
}

func (r tokenRow) toDomain() domain.Token {
	return domain.Token{
		TokenID: r.TokenID, TenantID: r.TenantID, MintAddress: r.MintAddress,
		Symbol: r.Symbol, Decimals: r.Decimals, DevWalletID: r.DevWalletID,
		OpsWalletID: r.OpsWalletID, Active: r.Active, Graduated: r.Graduated, CreatedAt: r.CreatedAt,
	}
}

type walletRow struct {
	WalletID   string `db:"wallet_id"`
	Address    string `db:"address"`
	ChainType  string `db:"chain_type"`
	WalletType string `db:"wallet_type"`
}

func (r walletRow) toDomain() domain.Wallet {
	return domain.Wallet{WalletID: r.WalletID, Address: r.Address, ChainType: domain.ChainType(r.ChainType), Type: domain.WalletType(r.WalletType)}
}

func (s *SQLiteStore) GetToken(ctx context.Context, tokenID string) (domain.Token, error) {
	var r tokenRow
	if err := s.db.GetContext(ctx, &r, `SELECT token_id, tenant_id, mint_address, symbol, decimals, dev_wallet_id, ops_wallet_id, active, graduated, created_at FROM tokens WHERE token_id = ?`, tokenID); err != nil {
		return domain.Token{}, fmt.Errorf("get token %s: %w", tokenID, err)
	}
	return r.toDomain(), nil
}

func (s *SQLiteStore) GetWallet(ctx context.Context, walletID string) (domain.Wallet, error) {
	var r walletRow
	if err := s.db.GetContext(ctx, &r, `SELECT * FROM wallets WHERE wallet_id = ?`, walletID); err != nil {
		return domain.Wallet{}, fmt.Errorf("get wallet %s: %w", walletID, err)
	}
	return r.toDomain(), nil
}

// configRow stores the bulk of TokenConfig as a JSON blob, promoting only
// the three columns the eligibility queries filter on — mirrors the
// teacher's strategy.go pattern of a handful of indexed columns plus a
// config_json catch-all.
type configRow struct {
	TokenID             string `db:"token_id"`
	FlywheelActive      bool   `db:"flywheel_active"`
	AutoClaimEnabled    bool   `db:"auto_claim_enabled"`
	MarketMakingEnabled bool   `db:"market_making_enabled"`
	ConfigJSON          string `db:"config_json"`
}

func (r configRow) toDomain() (domain.TokenConfig, error) {
	var cfg domain.TokenConfig
	if err := json.Unmarshal([]byte(r.ConfigJSON), &cfg); err != nil {
		return domain.TokenConfig{}, fmt.Errorf("unmarshal config_json: %w", err)
	}
	cfg.TokenID = r.TokenID
	cfg.FlywheelActive = r.FlywheelActive
	cfg.AutoClaimEnabled = r.AutoClaimEnabled
	cfg.MarketMakingEnabled = r.MarketMakingEnabled
	return cfg, nil
}

func (s *SQLiteStore) GetConfig(ctx context.Context, tokenID string) (domain.TokenConfig, error) {
	var r configRow
	if err := s.db.GetContext(ctx, &r, `SELECT * FROM token_configs WHERE token_id = ?`, tokenID); err != nil {
		return domain.TokenConfig{}, fmt.Errorf("get config %s: %w", tokenID, err)
	}
	return r.toDomain()
}

func (s *SQLiteStore) UpdateConfig(ctx context.Context, tokenID string, patch ConfigPatch) error {
	cfg, err := s.GetConfig(ctx, tokenID)
	if err != nil {
		return err
	}
	if patch.FlywheelActive != nil {
		cfg.FlywheelActive = *patch.FlywheelActive
	}
	if patch.AutoClaimEnabled != nil {
		cfg.AutoClaimEnabled = *patch.AutoClaimEnabled
	}
	if patch.MarketMakingEnabled != nil {
		cfg.MarketMakingEnabled = *patch.MarketMakingEnabled
	}
	blob, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `UPDATE token_configs SET flywheel_active=?, auto_claim_enabled=?, market_making_enabled=?, config_json=? WHERE token_id=?`,
		cfg.FlywheelActive, cfg.AutoClaimEnabled, cfg.MarketMakingEnabled, string(blob), tokenID)
	if err != nil {
		return fmt.Errorf("update config %s: %w", tokenID, err)
	}
	return nil
}

type stateRow struct {
	TokenID   string `db:"token_id"`
	StateJSON string `db:"state_json"`
}

func (r stateRow) toDomain() (domain.FlywheelState, error) {
	var st domain.FlywheelState
	if err := json.Unmarshal([]byte(r.StateJSON), &st); err != nil {
		return domain.FlywheelState{}, fmt.Errorf("unmarshal state_json: %w", err)
	}
	st.TokenID = r.TokenID
	return st, nil
}

func (s *SQLiteStore) GetState(ctx context.Context, tokenID string) (domain.FlywheelState, error) {
	var r stateRow
	if err := s.db.GetContext(ctx, &r, `SELECT token_id, state_json FROM flywheel_states WHERE token_id = ?`, tokenID); err != nil {
		return domain.FlywheelState{}, fmt.Errorf("get state %s: %w", tokenID, err)
	}
	return r.toDomain()
}

// UpdateState applies patch as a shallow merge (§4.1) then writes the whole
// state back as one JSON blob inside a single statement, keeping the
// read-modify-write atomic under the caller's held lease.
func (s *SQLiteStore) UpdateState(ctx context.Context, tokenID string, patch StatePatch) error {
	st, err := s.GetState(ctx, tokenID)
	if err != nil {
		return err
	}
	applyStatePatch(&st, patch)

	blob, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `UPDATE flywheel_states SET state_json=? WHERE token_id=?`, string(blob), tokenID)
	if err != nil {
		return fmt.Errorf("update state %s: %w", tokenID, err)
	}
	return nil
}

func applyStatePatch(st *domain.FlywheelState, patch StatePatch) {
	if patch.CyclePhase != nil {
		st.CyclePhase = *patch.CyclePhase
	}
	if patch.BuyCount != nil {
		st.BuyCount = *patch.BuyCount
	}
	if patch.SellCount != nil {
		st.SellCount = *patch.SellCount
	}
	if patch.SellPhaseTokenSnapshot != nil {
		st.SellPhaseTokenSnapshot = *patch.SellPhaseTokenSnapshot
	}
	if patch.SellAmountPerTx != nil {
		st.SellAmountPerTx = *patch.SellAmountPerTx
	}
	if patch.LastTradeAt != nil {
		st.LastTradeAt = patch.LastTradeAt
	}
	if patch.ConsecutiveFailures != nil {
		st.ConsecutiveFailures = *patch.ConsecutiveFailures
	}
	if patch.LastFailureReason != nil {
		st.LastFailureReason = *patch.LastFailureReason
	}
	if patch.LastFailureAt != nil {
		st.LastFailureAt = patch.LastFailureAt
	}
	if patch.ClearPausedUntil {
		st.PausedUntil = nil
	} else if patch.PausedUntil != nil {
		st.PausedUntil = patch.PausedUntil
	}
	if patch.TotalFailures != nil {
		st.TotalFailures = *patch.TotalFailures
	}
	if patch.LastCheckedAt != nil {
		st.LastCheckedAt = patch.LastCheckedAt
	}
	if patch.LastCheckResult != nil {
		st.LastCheckResult = *patch.LastCheckResult
	}
	if patch.MarketCondition != nil {
		st.MarketCondition = *patch.MarketCondition
	}
	if patch.PreviousMarketCondition != nil {
		st.PreviousMarketCondition = *patch.PreviousMarketCondition
	}
	if patch.LastConditionChangeAt != nil {
		st.LastConditionChangeAt = patch.LastConditionChangeAt
	}
	if patch.ReserveBalanceSol != nil {
		st.ReserveBalanceSol = *patch.ReserveBalanceSol
	}
	if patch.ReplaceTwapQueue {
		st.TwapQueue = patch.TwapQueue
	}
}

func (s *SQLiteStore) AppendTransaction(ctx context.Context, tx domain.Transaction) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO transactions (id, token_id, type, amount, signature, status, message, trading_route, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tx.ID, tx.TokenID, string(tx.Type), tx.Amount, tx.Signature, string(tx.Status), tx.Message, string(tx.TradingRoute), tx.CreatedAt)
	if err != nil {
		return fmt.Errorf("append transaction: %w", err)
	}
	return nil
}

func (s *SQLiteStore) AppendClaim(ctx context.Context, claim domain.ClaimHistory) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO claim_history (id, token_id, amount_sol, platform_fee_sol, user_received_sol, signature, status, claimed_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		claim.ID, claim.TokenID, claim.AmountSol, claim.PlatformFeeSol, claim.UserReceivedSol, claim.Signature, string(claim.Status), claim.ClaimedAt, claim.CompletedAt)
	if err != nil {
		return fmt.Errorf("append claim: %w", err)
	}
	return nil
}

func (s *SQLiteStore) CreateTokenBundle(ctx context.Context, token domain.Token, dev, ops domain.Wallet, cfg domain.TokenConfig) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, w := range []domain.Wallet{dev, ops} {
		if _, err := tx.ExecContext(ctx, `INSERT INTO wallets (wallet_id, address, chain_type, wallet_type) VALUES (?, ?, ?, ?)`,
			w.WalletID, w.Address, string(w.ChainType), string(w.Type)); err != nil {
			return fmt.Errorf("insert wallet %s: %w", w.WalletID, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `INSERT INTO tokens (token_id, tenant_id, mint_address, symbol, decimals, dev_wallet_id, ops_wallet_id, active, graduated, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		token.TokenID, token.TenantID, token.MintAddress, token.Symbol, token.Decimals, token.DevWalletID, token.OpsWalletID, token.Active, token.Graduated, token.CreatedAt); err != nil {
		return fmt.Errorf("insert token: %w", err)
	}

	blob, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO token_configs (token_id, flywheel_active, auto_claim_enabled, market_making_enabled, config_json)
		VALUES (?, ?, ?, ?, ?)`,
		token.TokenID, cfg.FlywheelActive, cfg.AutoClaimEnabled, cfg.MarketMakingEnabled, string(blob)); err != nil {
		return fmt.Errorf("insert config: %w", err)
	}

	stateBlob, err := json.Marshal(domain.FlywheelState{TokenID: token.TokenID, CyclePhase: domain.PhaseBuy})
	if err != nil {
		return fmt.Errorf("marshal initial state: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO flywheel_states (token_id, state_json) VALUES (?, ?)`, token.TokenID, string(stateBlob)); err != nil {
		return fmt.Errorf("insert initial state: %w", err)
	}

	return tx.Commit()
}

func (s *SQLiteStore) DeactivateToken(ctx context.Context, tokenID string, reason string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE tokens SET active=0, deactivated_reason=? WHERE token_id=?`, reason, tokenID)
	if err != nil {
		return fmt.Errorf("deactivate token %s: %w", tokenID, err)
	}
	return nil
}

func (s *SQLiteStore) selectEligible(ctx context.Context, extraWhere string) ([]domain.TokenView, error) {
	query := `SELECT t.token_id FROM tokens t
		JOIN token_configs c ON c.token_id = t.token_id
		WHERE t.active = 1 ` + extraWhere
	var ids []string
	if err := s.db.SelectContext(ctx, &ids, query); err != nil {
		return nil, fmt.Errorf("select eligible: %w", err)
	}

	views := make([]domain.TokenView, 0, len(ids))
	for _, id := range ids {
		v, err := s.buildTokenView(ctx, id)
		if err != nil {
			return nil, err
		}
		views = append(views, v)
	}
	return views, nil
}

func (s *SQLiteStore) buildTokenView(ctx context.Context, tokenID string) (domain.TokenView, error) {
	token, err := s.GetToken(ctx, tokenID)
	if err != nil {
		return domain.TokenView{}, err
	}
	cfg, err := s.GetConfig(ctx, tokenID)
	if err != nil {
		return domain.TokenView{}, err
	}
	state, err := s.GetState(ctx, tokenID)
	if err != nil {
		return domain.TokenView{}, err
	}
	dev, err := s.GetWallet(ctx, token.DevWalletID)
	if err != nil {
		return domain.TokenView{}, err
	}
	ops, err := s.GetWallet(ctx, token.OpsWalletID)
	if err != nil {
		return domain.TokenView{}, err
	}
	return domain.TokenView{Token: token, Config: cfg, State: state, Dev: dev, Ops: ops}, nil
}

// SelectFlywheelEligible implements Store (§4.9 step 1): active ∧
// config.flywheelActive ∧ state.pausedUntil ≤ now. market_making_enabled is
// deliberately NOT filtered here — that precondition belongs to the
// executor's per-run check, not to tick eligibility.
func (s *SQLiteStore) SelectFlywheelEligible(ctx context.Context) ([]domain.TokenView, error) {
	query := `SELECT t.token_id FROM tokens t
		JOIN token_configs c ON c.token_id = t.token_id
		JOIN flywheel_states s ON s.token_id = t.token_id
		WHERE t.active = 1
		  AND c.flywheel_active = 1
		  AND (
		    json_extract(s.state_json, '$.PausedUntil') IS NULL
		    OR datetime(json_extract(s.state_json, '$.PausedUntil')) <= datetime('now')
		  )`
	var ids []string
	if err := s.db.SelectContext(ctx, &ids, query); err != nil {
		return nil, fmt.Errorf("select flywheel eligible: %w", err)
	}
	views := make([]domain.TokenView, 0, len(ids))
	for _, id := range ids {
		v, err := s.buildTokenView(ctx, id)
		if err != nil {
			return nil, err
		}
		views = append(views, v)
	}
	return views, nil
}

// SelectClaimEligible implements Store (§4.10).
func (s *SQLiteStore) SelectClaimEligible(ctx context.Context) ([]domain.TokenView, error) {
	return s.selectEligible(ctx, "AND c.auto_claim_enabled = 1")
}

// ListReactiveTokens implements Store (§4.11): the per-token half of the
// reactive double-gate (SPEC_FULL §12); the process-level half is checked
// by reactive.Subscriber.Run itself.
func (s *SQLiteStore) ListReactiveTokens(ctx context.Context) ([]domain.TokenView, error) {
	views, err := s.selectEligible(ctx, "")
	if err != nil {
		return nil, err
	}
	out := views[:0]
	for _, v := range views {
		if v.Config.ReactiveEnabled {
			out = append(out, v)
		}
	}
	return out, nil
}

// Snapshot implements Store (SPEC_FULL §12 admin accessor).
func (s *SQLiteStore) Snapshot(ctx context.Context, tokenID string, recentLimit int) (TokenSnapshot, error) {
	view, err := s.buildTokenView(ctx, tokenID)
	if err != nil {
		return TokenSnapshot{}, err
	}
	if recentLimit <= 0 {
		recentLimit = 20
	}

	var txRows []struct {
		ID           string         `db:"id"`
		TokenID      string         `db:"token_id"`
		Type         string         `db:"type"`
		Amount       float64        `db:"amount"`
		Signature    sql.NullString `db:"signature"`
		Status       string         `db:"status"`
		Message      string         `db:"message"`
		TradingRoute string         `db:"trading_route"`
		CreatedAt    time.Time      `db:"created_at"`
	}
	if err := s.db.SelectContext(ctx, &txRows,
		`SELECT * FROM transactions WHERE token_id = ? ORDER BY created_at DESC LIMIT ?`, tokenID, recentLimit); err != nil {
		return TokenSnapshot{}, fmt.Errorf("select recent transactions: %w", err)
	}
	trades := make([]domain.Transaction, 0, len(txRows))
	for _, r := range txRows {
		var sig *string
		if r.Signature.Valid {
			sig = &r.Signature.String
		}
		trades = append(trades, domain.Transaction{
			ID: r.ID, TokenID: r.TokenID, Type: domain.TradeType(r.Type), Amount: r.Amount,
			Signature: sig, Status: domain.TxStatus(r.Status), Message: r.Message,
			TradingRoute: domain.TradingRoute(r.TradingRoute), CreatedAt: r.CreatedAt,
		})
	}

	var claimRows []struct {
		ID              string         `db:"id"`
		TokenID         string         `db:"token_id"`
		AmountSol       float64        `db:"amount_sol"`
		PlatformFeeSol  float64        `db:"platform_fee_sol"`
		UserReceivedSol float64        `db:"user_received_sol"`
		Signature       sql.NullString `db:"signature"`
		Status          string         `db:"status"`
		ClaimedAt       time.Time      `db:"claimed_at"`
		CompletedAt     *time.Time     `db:"completed_at"`
	}
	if err := s.db.SelectContext(ctx, &claimRows,
		`SELECT * FROM claim_history WHERE token_id = ? ORDER BY claimed_at DESC LIMIT ?`, tokenID, recentLimit); err != nil {
		return TokenSnapshot{}, fmt.Errorf("select recent claims: %w", err)
	}
	claims := make([]domain.ClaimHistory, 0, len(claimRows))
	for _, r := range claimRows {
		var sig *string
		if r.Signature.Valid {
			sig = &r.Signature.String
		}
		claims = append(claims, domain.ClaimHistory{
			ID: r.ID, TokenID: r.TokenID, AmountSol: r.AmountSol, PlatformFeeSol: r.PlatformFeeSol,
			UserReceivedSol: r.UserReceivedSol, Signature: sig, Status: domain.TxStatus(r.Status),
			ClaimedAt: r.ClaimedAt, CompletedAt: r.CompletedAt,
		})
	}

	return TokenSnapshot{Token: view.Token, Config: view.Config, State: view.State, RecentTrades: trades, RecentClaims: claims}, nil
}

var _ Store = (*SQLiteStore)(nil)
