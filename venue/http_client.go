package venue

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/mrbarnaclebot-ux/ClaudeWheel-sub002/signer"
)

// HTTPClient is the concrete Venue implementation, JSON over HTTPS
// authenticated by an API key (§6).
type HTTPClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewHTTPClient builds a Venue HTTP client against the configured venue
// aggregator endpoint.
func NewHTTPClient(baseURL, apiKey string) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 5 * time.Second},
	}
}

func (c *HTTPClient) withAuth(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}
}

type quoteResponse struct {
	InAmount    string  `json:"inAmount"`
	OutAmount   string  `json:"outAmount"`
	PriceImpact float64 `json:"priceImpactPct"`
	RouteRaw    json.RawMessage `json:"routePlan"`
}

// Quote implements Client.
func (c *HTTPClient) Quote(ctx context.Context, inputMint, outputMint string, amountUnits int64, side Side, slippageBps int) (Quote, error) {
	q := url.Values{}
	q.Set("inputMint", inputMint)
	q.Set("outputMint", outputMint)
	q.Set("amount", strconv.FormatInt(amountUnits, 10))
	q.Set("slippageBps", strconv.Itoa(slippageBps))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/quote?"+q.Encode(), nil)
	if err != nil {
		return Quote{}, fmt.Errorf("build quote request: %w", err)
	}
	c.withAuth(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return Quote{}, fmt.Errorf("quote request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Quote{}, fmt.Errorf("quote request returned status %d", resp.StatusCode)
	}

	var qr quoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&qr); err != nil {
		return Quote{}, fmt.Errorf("decode quote response: %w", err)
	}

	inAmt, _ := strconv.ParseInt(qr.InAmount, 10, 64)
	outAmt, _ := strconv.ParseInt(qr.OutAmount, 10, 64)
	if inAmt == 0 || outAmt == 0 {
		return Quote{}, fmt.Errorf("empty or invalid quote")
	}

	return Quote{
		InputMint:   inputMint,
		OutputMint:  outputMint,
		InAmount:    inAmt,
		OutAmount:   outAmt,
		PriceImpact: qr.PriceImpact,
		Opaque:      qr.RouteRaw,
	}, nil
}

type swapTxResponse struct {
	SwapTransaction string `json:"swapTransaction"`
}

// BuildSwapTx implements Client.
func (c *HTTPClient) BuildSwapTx(ctx context.Context, walletAddress string, quote Quote) (signer.Tx, error) {
	body, err := json.Marshal(map[string]any{
		"userPublicKey": walletAddress,
		"quoteResponse": json.RawMessage(quote.Opaque),
	})
	if err != nil {
		return signer.Tx{}, fmt.Errorf("marshal build-swap-tx request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/swap", bytes.NewReader(body))
	if err != nil {
		return signer.Tx{}, fmt.Errorf("build swap-tx request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.withAuth(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return signer.Tx{}, fmt.Errorf("swap-tx request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return signer.Tx{}, fmt.Errorf("swap-tx request returned status %d", resp.StatusCode)
	}

	var out swapTxResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return signer.Tx{}, fmt.Errorf("decode swap-tx response: %w", err)
	}

	return signer.Tx{Opaque: []byte(out.SwapTransaction)}, nil
}

type claimTxResponse struct {
	ClaimTransaction string `json:"claimTransaction"`
}

// BuildClaimTx implements Client.
func (c *HTTPClient) BuildClaimTx(ctx context.Context, devWalletAddress, mintAddress string) (signer.Tx, error) {
	body, err := json.Marshal(map[string]any{
		"devWallet": devWalletAddress,
		"mint":      mintAddress,
	})
	if err != nil {
		return signer.Tx{}, fmt.Errorf("marshal claim-tx request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/claim-tx", bytes.NewReader(body))
	if err != nil {
		return signer.Tx{}, fmt.Errorf("build claim-tx request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.withAuth(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return signer.Tx{}, fmt.Errorf("claim-tx request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return signer.Tx{}, fmt.Errorf("claim-tx request returned status %d", resp.StatusCode)
	}

	var out claimTxResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return signer.Tx{}, fmt.Errorf("decode claim-tx response: %w", err)
	}

	return signer.Tx{Opaque: []byte(out.ClaimTransaction)}, nil
}

type positionsResponse struct {
	Positions []struct {
		Mint         string  `json:"mint"`
		ClaimableSol float64 `json:"claimableSol"`
	} `json:"positions"`
}

// ClaimablePositions implements Client.
func (c *HTTPClient) ClaimablePositions(ctx context.Context, devWalletAddress string) ([]Position, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/positions?wallet=%s", c.baseURL, url.QueryEscape(devWalletAddress)), nil)
	if err != nil {
		return nil, fmt.Errorf("build positions request: %w", err)
	}
	c.withAuth(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("positions request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("positions request returned status %d", resp.StatusCode)
	}

	var out positionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode positions response: %w", err)
	}

	positions := make([]Position, 0, len(out.Positions))
	for _, p := range out.Positions {
		positions = append(positions, Position{MintAddress: p.Mint, ClaimableSol: p.ClaimableSol})
	}
	return positions, nil
}

type tokenInfoResponse struct {
	Mint      string  `json:"mint"`
	Graduated bool    `json:"graduated"`
	PriceUsd  float64 `json:"priceUsd"`
}

// TokenInfo implements Client.
func (c *HTTPClient) TokenInfo(ctx context.Context, mint string) (Info, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/token/"+url.PathEscape(mint), nil)
	if err != nil {
		return Info{}, fmt.Errorf("build token-info request: %w", err)
	}
	c.withAuth(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return Info{}, fmt.Errorf("token-info request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Info{}, fmt.Errorf("token-info request returned status %d", resp.StatusCode)
	}

	var out tokenInfoResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Info{}, fmt.Errorf("decode token-info response: %w", err)
	}

	return Info{MintAddress: out.Mint, Graduated: out.Graduated, PriceUsd: out.PriceUsd}, nil
}

type transferTxResponse struct {
	TransferTransaction string `json:"transferTransaction"`
}

// BuildTransferTx implements Client (used by the claim scheduler to move
// the user share from dev wallet to ops wallet, §4.10 step 3).
func (c *HTTPClient) BuildTransferTx(ctx context.Context, fromWalletAddress, toWalletAddress, mintAddress string, amountUnits int64) (signer.Tx, error) {
	body, err := json.Marshal(map[string]any{
		"from":   fromWalletAddress,
		"to":     toWalletAddress,
		"mint":   mintAddress,
		"amount": strconv.FormatInt(amountUnits, 10),
	})
	if err != nil {
		return signer.Tx{}, fmt.Errorf("marshal transfer-tx request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/transfer-tx", bytes.NewReader(body))
	if err != nil {
		return signer.Tx{}, fmt.Errorf("build transfer-tx request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.withAuth(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return signer.Tx{}, fmt.Errorf("transfer-tx request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return signer.Tx{}, fmt.Errorf("transfer-tx request returned status %d", resp.StatusCode)
	}

	var out transferTxResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return signer.Tx{}, fmt.Errorf("decode transfer-tx response: %w", err)
	}

	return signer.Tx{Opaque: []byte(out.TransferTransaction)}, nil
}

type balancesResponse struct {
	SolBalance   float64 `json:"solBalance"`
	TokenBalance float64 `json:"tokenBalance"`
}

// WalletBalances implements Client.
func (c *HTTPClient) WalletBalances(ctx context.Context, walletAddress, mintAddress string) (Balances, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/balances?wallet=%s&mint=%s", c.baseURL, url.QueryEscape(walletAddress), url.QueryEscape(mintAddress)), nil)
	if err != nil {
		return Balances{}, fmt.Errorf("build balances request: %w", err)
	}
	c.withAuth(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return Balances{}, fmt.Errorf("balances request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Balances{}, fmt.Errorf("balances request returned status %d", resp.StatusCode)
	}

	var out balancesResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Balances{}, fmt.Errorf("decode balances response: %w", err)
	}

	return Balances{SolBalance: out.SolBalance, TokenBalance: out.TokenBalance}, nil
}

var _ Client = (*HTTPClient)(nil)
