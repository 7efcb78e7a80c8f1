package reactive

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// Conn is the minimal websocket surface the subscriber depends on, narrowed
// from *websocket.Conn so tests can substitute a fake without dialing a real
// socket — the same seam the teacher's WSConnection wraps around
// *websocket.Conn for its binance streams.
type Conn interface {
	WriteJSON(v interface{}) error
	ReadMessage() (messageType int, p []byte, err error)
	Close() error
}

// Dialer opens a Conn to a chain WS endpoint.
type Dialer interface {
	Dial(ctx context.Context, url string) (Conn, error)
}

// gorillaDialer is the production Dialer, a thin wrapper over
// gorilla/websocket.Dialer (grounded on
// poorman-SynapseStrike/go.mod and DimaJoyti-ai-agentic-crypto-browser's
// internal/binance/websocket.go).
type gorillaDialer struct {
	handshakeTimeout time.Duration
}

// NewDialer builds the default production Dialer.
func NewDialer() Dialer {
	return &gorillaDialer{handshakeTimeout: 10 * time.Second}
}

func (d *gorillaDialer) Dial(ctx context.Context, url string) (Conn, error) {
	dialer := websocket.Dialer{HandshakeTimeout: d.handshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, url, http.Header{})
	if err != nil {
		return nil, err
	}
	return conn, nil
}
