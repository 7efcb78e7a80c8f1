// Package reactive implements C11, the reactive subscriber (§4.11): a
// websocket listener over on-chain log events for every reactive-enabled
// token, dispatching a mirrored trade through the same executor and lease
// discipline the periodic schedulers use. Grounded on
// DimaJoyti-ai-agentic-crypto-browser's internal/binance/websocket.go
// reconnect loop and poorman-SynapseStrike's dependency on
// gorilla/websocket, restructured around the spec's per-token cooldown and
// self-trade-suppression rules rather than exchange market-data streaming.
package reactive

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/mrbarnaclebot-ux/ClaudeWheel-sub002/algorithm"
	"github.com/mrbarnaclebot-ux/ClaudeWheel-sub002/domain"
	"github.com/mrbarnaclebot-ux/ClaudeWheel-sub002/executor"
	"github.com/mrbarnaclebot-ux/ClaudeWheel-sub002/metrics"
	"github.com/mrbarnaclebot-ux/ClaudeWheel-sub002/moneyunits"
	"github.com/mrbarnaclebot-ux/ClaudeWheel-sub002/store"
	"github.com/mrbarnaclebot-ux/ClaudeWheel-sub002/venue"
)

// defaultMaxReconnects is §4.11's documented default reconnect cap.
const defaultMaxReconnects = 10

// reconnectBaseDelay and reconnectMaxDelay bound the exponential backoff
// between dial attempts: baseDelay * 2^(attempt-1), capped at maxDelay.
const (
	reconnectBaseDelay = time.Second
	reconnectMaxDelay  = 30 * time.Second
)

// Subscriber drives C11. enabled is the process-level half of the
// belt-and-suspenders reactive gate (SPEC_FULL §12); a token is only ever
// dispatched when both this AND its own Config.ReactiveEnabled are true,
// because the log parser's lamports heuristic (see parser.go) is not
// trustworthy enough to run unconditionally (spec §9 Open Question).
type Subscriber struct {
	store         store.Store
	venue         venue.Client
	exec          *executor.Executor
	dialer        Dialer
	wsURL         string
	enabled       bool
	maxReconnects int

	// reconnectLimiter throttles dial attempts independently of the
	// per-attempt exponential backoff below, capping the sustained
	// reconnect rate (defense against a flapping socket burning through
	// maxReconnects in seconds).
	reconnectLimiter *rate.Limiter

	cooldowns sync.Map // tokenID -> time.Time of next allowed dispatch
	wg        sync.WaitGroup
	log       zerolog.Logger
}

// New builds a Subscriber (§9 dependency injection).
func New(st store.Store, v venue.Client, exec *executor.Executor, dialer Dialer, wsURL string, enabled bool, log zerolog.Logger) *Subscriber {
	return &Subscriber{
		store:            st,
		venue:            v,
		exec:             exec,
		dialer:           dialer,
		wsURL:            wsURL,
		enabled:          enabled,
		maxReconnects:    defaultMaxReconnects,
		reconnectLimiter: rate.NewLimiter(rate.Every(reconnectBaseDelay), 1),
		log:              log.With().Str("component", "reactive_subscriber").Logger(),
	}
}

// Run drives the subscribe/reconnect loop until ctx is cancelled
// (cooperative shutdown, §4.11: "unsubscribe all, drain in-flight
// executors, then exit" — the unsubscribe is implicit in closing the
// connection, draining is s.wg.Wait()).
func (s *Subscriber) Run(ctx context.Context) error {
	if !s.enabled {
		s.log.Info().Msg("reactive trading disabled (REACTIVE_TRADING_ENABLED=false), subscriber inert")
		return nil
	}

	tokens, err := s.reactiveEnabledTokens(ctx)
	if err != nil {
		return fmt.Errorf("reactive subscriber: list reactive tokens: %w", err)
	}
	if len(tokens) == 0 {
		s.log.Info().Msg("no reactive-enabled tokens, subscriber idle")
		return nil
	}

	attempt := 0
	for {
		select {
		case <-ctx.Done():
			s.wg.Wait()
			return nil
		default:
		}

		if err := s.reconnectLimiter.Wait(ctx); err != nil {
			s.wg.Wait()
			return nil
		}

		conn, dialErr := s.dialer.Dial(ctx, s.wsURL)
		if dialErr != nil {
			attempt++
			metrics.ReactiveReconnectsTotal.WithLabelValues().Inc()
			if attempt > s.maxReconnects {
				return fmt.Errorf("reactive subscriber: exceeded %d reconnect attempts: %w", s.maxReconnects, dialErr)
			}
			backoff := exponentialBackoff(attempt)
			s.log.Warn().Err(dialErr).Int("attempt", attempt).Dur("backoff", backoff).Msg("websocket dial failed, retrying")
			select {
			case <-ctx.Done():
				s.wg.Wait()
				return nil
			case <-time.After(backoff):
			}
			continue
		}
		attempt = 0

		subToToken, subErr := s.subscribeAll(conn, tokens)
		if subErr != nil {
			s.log.Warn().Err(subErr).Msg("subscribe failed, reconnecting")
			conn.Close()
			continue
		}

		closeOnCancel := make(chan struct{})
		go func() {
			select {
			case <-ctx.Done():
				conn.Close()
			case <-closeOnCancel:
			}
		}()

		readErr := s.readLoop(ctx, conn, subToToken)
		close(closeOnCancel)
		conn.Close()

		if ctx.Err() != nil {
			s.wg.Wait()
			return nil
		}
		if readErr != nil {
			s.log.Warn().Err(readErr).Msg("websocket read loop ended, reconnecting")
		}
	}
}

// exponentialBackoff returns reconnectBaseDelay * 2^(attempt-1), capped at
// reconnectMaxDelay. attempt is 1-indexed.
func exponentialBackoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	shift := attempt - 1
	if shift > 10 { // guard against overflow before the cap kicks in
		shift = 10
	}
	delay := reconnectBaseDelay * time.Duration(1<<uint(shift))
	if delay > reconnectMaxDelay {
		delay = reconnectMaxDelay
	}
	return delay
}

func (s *Subscriber) reactiveEnabledTokens(ctx context.Context) ([]domain.TokenView, error) {
	all, err := s.store.ListReactiveTokens(ctx)
	if err != nil {
		return nil, err
	}
	enabled := all[:0]
	for _, t := range all {
		if t.Config.ReactiveEnabled {
			enabled = append(enabled, t)
		}
	}
	return enabled, nil
}

// subscribeAll sends one logsSubscribe request per monitored mint and maps
// each acknowledged subscription id back to its TokenView.
func (s *Subscriber) subscribeAll(conn Conn, tokens []domain.TokenView) (map[int]domain.TokenView, error) {
	pending := make(map[int]domain.TokenView, len(tokens))
	for i, t := range tokens {
		req := map[string]any{
			"jsonrpc": "2.0",
			"id":      i,
			"method":  "logsSubscribe",
			"params": []any{
				map[string]any{"mentions": []string{t.Token.MintAddress}},
				map[string]any{"commitment": "confirmed"},
			},
		}
		if err := conn.WriteJSON(req); err != nil {
			return nil, fmt.Errorf("subscribe %s: %w", t.Token.MintAddress, err)
		}
		pending[i] = t
	}

	subToToken := make(map[int]domain.TokenView, len(tokens))
	for i := 0; i < len(tokens); i++ {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return nil, err
		}
		var ack subscribeAck
		if err := json.Unmarshal(raw, &ack); err != nil {
			continue
		}
		if tok, ok := pending[ack.ID]; ok {
			subToToken[ack.Result] = tok
		}
	}
	return subToToken, nil
}

// readLoop consumes notifications until the connection errors or ctx is
// cancelled, dispatching each to its own goroutine so a slow executor run
// never blocks the socket read (§5 "suspension points... must allow
// cancellation").
func (s *Subscriber) readLoop(ctx context.Context, conn Conn, subToToken map[int]domain.TokenView) error {
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		var ev logEvent
		if err := json.Unmarshal(raw, &ev); err != nil || ev.Method != "logsNotification" {
			continue
		}
		if ev.Params.Result.Value.Err != nil {
			continue // failed transaction, not a real swap
		}
		tok, ok := subToToken[ev.Params.Subscription]
		if !ok {
			continue
		}

		logs := ev.Params.Result.Value.Logs
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleEvent(ctx, tok, logs)
		}()
	}
}

// handleEvent implements §4.11 steps 1-3 for one observed transaction.
func (s *Subscriber) handleEvent(ctx context.Context, tok domain.TokenView, logs []string) {
	side, lamports, ok := parseSwapLog(logs)
	if !ok {
		metrics.ReactiveEventsTotal.WithLabelValues("ignored").Inc()
		return
	}
	if isSelfTrade(logs, tok.Ops.Address, tok.Ops.ChainType) {
		metrics.ReactiveEventsTotal.WithLabelValues("self_trade").Inc()
		return
	}

	now := time.Now()
	if untilAny, found := s.cooldowns.Load(tok.Token.TokenID); found {
		if until := untilAny.(time.Time); now.Before(until) {
			metrics.ReactiveEventsTotal.WithLabelValues("cooldown").Inc()
			return
		}
	}

	lease, err := s.store.Lease(ctx, tok.Token.TokenID)
	if err != nil {
		if err == store.ErrBusy {
			metrics.LeaseBusyTotal.WithLabelValues("reactive").Inc()
		} else {
			s.log.Error().Err(err).Str("token_id", tok.Token.TokenID).Msg("lease acquire failed")
		}
		return
	}
	defer lease.Close()

	cfg, err := s.store.GetConfig(ctx, tok.Token.TokenID)
	if err != nil || !cfg.ReactiveEnabled {
		return
	}
	state, err := s.store.GetState(ctx, tok.Token.TokenID)
	if err != nil {
		s.log.Error().Err(err).Str("token_id", tok.Token.TokenID).Msg("refresh state failed")
		return
	}
	tok.Config = cfg
	tok.State = state

	bal, err := s.venue.WalletBalances(ctx, tok.Ops.Address, tok.Token.MintAddress)
	if err != nil {
		s.log.Warn().Err(err).Str("token_id", tok.Token.TokenID).Msg("balance read failed, skipping reactive trade")
		return
	}

	observedSol := moneyunits.LamportsToSol(lamports)
	intent := algorithm.DecideReactive(cfg, algorithm.ObservedSwap{Side: side, ObservedSol: observedSol}, bal.SolBalance)
	if intent.Skip {
		metrics.ReactiveEventsTotal.WithLabelValues("ignored").Inc()
		return
	}

	outcome := algorithm.Outcome{Intent: intent, NewState: state}
	if err := s.exec.Run(ctx, tok, outcome); err != nil {
		s.log.Error().Err(err).Str("token_id", tok.Token.TokenID).Msg("reactive executor run failed")
		return
	}

	metrics.ReactiveEventsTotal.WithLabelValues("dispatched").Inc()
	s.cooldowns.Store(tok.Token.TokenID, now.Add(time.Duration(cfg.ReactiveCooldownMs)*time.Millisecond))
}
