package signer

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/mrbarnaclebot-ux/ClaudeWheel-sub002/domain"
)

// ClientOption configures an HTTPClient, mirroring the teacher's
// mcp.ClientOption functional-options pattern.
type ClientOption func(*HTTPClient)

// WithBaseURL overrides the signer service's base URL.
func WithBaseURL(url string) ClientOption {
	return func(c *HTTPClient) { c.baseURL = url }
}

// WithHTTPClient swaps the underlying *http.Client (for tests).
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *HTTPClient) { c.http = hc }
}

// HTTPClient is the concrete Signer implementation over HTTPS (§6).
//
// If authKey is empty the client is constructed but every call returns
// SIGNER_UNAVAILABLE without attempting a request, mirroring the spec's
// "must be initialized with an authorization credential; if absent, every
// call returns SIGNER_UNAVAILABLE" contract and the teacher's
// azidentity-style credential-gated client construction.
type HTTPClient struct {
	baseURL string
	authKey string
	rpcURL  string
	http    *http.Client
	logger  zerolog.Logger
}

// NewHTTPClient builds a Signer HTTP client. authKey may be empty, in which
// case the client is "configured off" per §6. rpcURL is the chain RPC
// endpoint the signer service broadcasts the signed transaction to
// (CHAIN_RPC_URL, §6) — distinct from baseURL, which is the signer
// service's own address.
func NewHTTPClient(baseURL, authKey, rpcURL string, logger zerolog.Logger, opts ...ClientOption) *HTTPClient {
	c := &HTTPClient{
		baseURL: baseURL,
		authKey: authKey,
		rpcURL:  rpcURL,
		http:    &http.Client{Timeout: 30 * time.Second},
		logger:  logger,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type signAndSendRequest struct {
	WalletID string `json:"walletId"`
	TxBase64 string `json:"tx"`
	ChainID  string `json:"chainId"`
	RpcURL   string `json:"rpcUrl"`
}

type signAndSendResponse struct {
	Hash  string `json:"hash"`
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// bearerAssertion signs a short-lived JWT bearer token attached to every
// Signer request (the venue client authenticates with its API key header
// only), matching the teacher's go.mod
// dependency on golang-jwt for service-to-service auth.
func (c *HTTPClient) bearerAssertion() (string, error) {
	claims := jwt.RegisteredClaims{
		Issuer:    "flywheel-engine",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(30 * time.Second)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString([]byte(c.authKey))
}

// SignAndSend implements Signer.
func (c *HTTPClient) SignAndSend(ctx context.Context, walletID string, tx Tx, chainID string) (Result, *domain.ClassifiedError) {
	if c.authKey == "" {
		return Result{}, domain.NewClassifiedError(domain.KindSignerUnavailable, "signer not configured", nil)
	}

	assertion, err := c.bearerAssertion()
	if err != nil {
		return Result{}, domain.NewClassifiedError(domain.KindSignerUnavailable, "failed to build auth assertion", err)
	}

	body, err := json.Marshal(signAndSendRequest{
		WalletID: walletID,
		TxBase64: string(tx.Opaque),
		ChainID:  chainID,
		RpcURL:   c.rpcURL,
	})
	if err != nil {
		return Result{}, domain.NewClassifiedError(domain.KindOther, "failed to marshal request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/sign-and-send", bytes.NewReader(body))
	if err != nil {
		return Result{}, domain.NewClassifiedError(domain.KindOther, "failed to build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+assertion)

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return Result{}, domain.NewClassifiedError(domain.KindBroadcastFailed, "deadline exceeded", err)
		}
		return Result{}, domain.NewClassifiedError(domain.KindBroadcastFailed, "request failed", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, domain.NewClassifiedError(domain.KindBroadcastFailed, "failed to read response", err)
	}

	if resp.StatusCode == http.StatusServiceUnavailable {
		return Result{}, domain.NewClassifiedError(domain.KindSignerUnavailable, "signer service unavailable", nil)
	}

	var out signAndSendResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return Result{}, domain.NewClassifiedError(domain.KindOther, "malformed response", err)
	}

	if out.Error != "" {
		kind := classifyKind(out.Kind)
		return Result{}, domain.NewClassifiedError(kind, out.Error, nil)
	}

	if out.Hash == "" {
		return Result{}, domain.NewClassifiedError(domain.KindOther, "empty hash in success response", nil)
	}

	return Result{Hash: out.Hash}, nil
}

func classifyKind(kind string) domain.ErrorKind {
	switch domain.ErrorKind(kind) {
	case domain.KindBlockhashExpired, domain.KindSignatureVerificationFail, domain.KindBroadcastFailed, domain.KindSignerUnavailable:
		return domain.ErrorKind(kind)
	default:
		return domain.KindOther
	}
}

var _ Signer = (*HTTPClient)(nil)
