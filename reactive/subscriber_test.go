package reactive

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrbarnaclebot-ux/ClaudeWheel-sub002/domain"
	"github.com/mrbarnaclebot-ux/ClaudeWheel-sub002/executor"
	"github.com/mrbarnaclebot-ux/ClaudeWheel-sub002/internal/testfakes"
	"github.com/mrbarnaclebot-ux/ClaudeWheel-sub002/signer"
	"github.com/mrbarnaclebot-ux/ClaudeWheel-sub002/venue"
)

// fakeConn is a scripted Conn: WriteJSON records subscribe requests, and
// ReadMessage plays back a queued sequence of messages before blocking until
// closed, mirroring how the teacher's tests substitute a canned websocket
// transcript instead of dialing out.
type fakeConn struct {
	mu       sync.Mutex
	writes   []any
	messages [][]byte
	idx      int
	closed   chan struct{}
}

func newFakeConn(messages [][]byte) *fakeConn {
	return &fakeConn{messages: messages, closed: make(chan struct{})}
}

func (c *fakeConn) WriteJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writes = append(c.writes, v)
	return nil
}

func (c *fakeConn) ReadMessage() (int, []byte, error) {
	c.mu.Lock()
	if c.idx < len(c.messages) {
		msg := c.messages[c.idx]
		c.idx++
		c.mu.Unlock()
		return websocket.TextMessage, msg, nil
	}
	c.mu.Unlock()
	<-c.closed
	return 0, nil, errors.New("connection closed")
}

func (c *fakeConn) Close() error {
	select {
	case <-c.closed:
	default:
		close(c.closed)
	}
	return nil
}

type fakeDialer struct {
	conn Conn
	err  error
}

func (d *fakeDialer) Dial(ctx context.Context, url string) (Conn, error) {
	if d.err != nil {
		return nil, d.err
	}
	return d.conn, nil
}

func reactiveTokenView(tokenID string) domain.TokenView {
	return domain.TokenView{
		Token: domain.Token{TokenID: tokenID, MintAddress: "Mint" + tokenID, Decimals: 6, Active: true},
		Config: domain.TokenConfig{
			ReactiveEnabled:            true,
			MarketMakingEnabled:        true,
			ReactiveMinTriggerSol:      0.1,
			ReactiveScalePercent:       50,
			ReactiveMaxResponsePercent: 50,
			ReactiveCooldownMs:         60_000,
		},
		State: domain.FlywheelState{TokenID: tokenID},
		Dev:   domain.Wallet{WalletID: tokenID + "-dev", Address: "DevAddr"},
		Ops:   domain.Wallet{WalletID: tokenID + "-ops", Address: "OpsAddr", ChainType: domain.ChainSolana},
	}
}

func subscribeAckMsg(id, result int) []byte {
	b, _ := json.Marshal(subscribeAck{ID: id, Result: result})
	return b
}

func logNotificationMsg(subscription int, logs []string) []byte {
	ev := map[string]any{
		"method": "logsNotification",
		"params": map[string]any{
			"subscription": subscription,
			"result": map[string]any{
				"value": map[string]any{
					"signature": "sig-1",
					"err":       nil,
					"logs":      logs,
				},
			},
		},
	}
	b, _ := json.Marshal(ev)
	return b
}

func TestSubscriberDispatchesObservedSwap(t *testing.T) {
	st := testfakes.NewStore()
	view := reactiveTokenView("tok-1")
	st.ReactiveTokens = []domain.TokenView{view}
	st.Configs["tok-1"] = view.Config
	st.States["tok-1"] = view.State

	v := &testfakes.Venue{Balances: venue.Balances{SolBalance: 100}}
	sgn := &testfakes.Signer{Result: signer.Result{Hash: "sig-reactive"}}
	exec := executor.New(st, v, sgn, &testfakes.Oracle{}, executor.DefaultDeadlines(), "solana-mainnet", zerolog.Nop(), nil)

	conn := newFakeConn([][]byte{
		subscribeAckMsg(0, 42),
		logNotificationMsg(42, []string{"Program log: Instruction: Buy", "Program log: amount_in=5000000000"}),
	})
	dialer := &fakeDialer{conn: conn}

	sub := New(st, v, exec, dialer, "wss://example.invalid", true, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sub.Run(ctx) }()

	require.Eventually(t, func() bool {
		return len(st.Transactions) == 1
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, domain.TradeBuy, st.Transactions[0].Type)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("subscriber did not stop after context cancellation")
	}
}

func TestSubscriberDisabledIsInert(t *testing.T) {
	st := testfakes.NewStore()
	st.ReactiveTokens = []domain.TokenView{reactiveTokenView("tok-1")}
	v := &testfakes.Venue{}
	exec := executor.New(st, v, &testfakes.Signer{}, &testfakes.Oracle{}, executor.DefaultDeadlines(), "solana-mainnet", zerolog.Nop(), nil)

	sub := New(st, v, exec, &fakeDialer{}, "wss://example.invalid", false, zerolog.Nop())
	err := sub.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, st.Transactions)
}

func TestSubscriberNoReactiveTokensIsIdle(t *testing.T) {
	st := testfakes.NewStore()
	v := &testfakes.Venue{}
	exec := executor.New(st, v, &testfakes.Signer{}, &testfakes.Oracle{}, executor.DefaultDeadlines(), "solana-mainnet", zerolog.Nop(), nil)

	sub := New(st, v, exec, &fakeDialer{}, "wss://example.invalid", true, zerolog.Nop())
	err := sub.Run(context.Background())
	require.NoError(t, err)
}
