// Package venue is the client for the external trading venue (Venue B's
// bonding curve, graduating to Venue J's AMM aggregator) — §4.3, §6.
package venue

import (
	"context"

	"github.com/mrbarnaclebot-ux/ClaudeWheel-sub002/signer"
)

// Side mirrors domain.Side without importing it, keeping this package's
// public contract self-contained the way the teacher's market package
// stays independent of the decision package's types.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// Quote is the venue's response to a quote request. Opaque must be passed
// back to BuildSwapTx without interpretation (§4.3).
type Quote struct {
	InputMint   string
	OutputMint  string
	InAmount    int64
	OutAmount   int64
	PriceImpact float64
	Opaque      []byte
}

// Position is one claimable fee position returned by ClaimablePositions.
type Position struct {
	MintAddress   string
	ClaimableSol  float64
}

// Info is a lightweight token descriptor (§4.3 tokenInfo).
type Info struct {
	MintAddress string
	Graduated   bool
	PriceUsd    float64
}

// Balances is a wallet's current SOL and mint-token holdings.
type Balances struct {
	SolBalance   float64
	TokenBalance float64
}

// Client is the abstract Venue contract consumed by the executor and claim
// scheduler (§4.3).
type Client interface {
	Quote(ctx context.Context, inputMint, outputMint string, amountUnits int64, side Side, slippageBps int) (Quote, error)
	BuildSwapTx(ctx context.Context, walletAddress string, quote Quote) (signer.Tx, error)
	BuildClaimTx(ctx context.Context, devWalletAddress, mintAddress string) (signer.Tx, error)
	BuildTransferTx(ctx context.Context, fromWalletAddress, toWalletAddress, mintAddress string, amountUnits int64) (signer.Tx, error)
	ClaimablePositions(ctx context.Context, devWalletAddress string) ([]Position, error)
	TokenInfo(ctx context.Context, mint string) (Info, error)
	WalletBalances(ctx context.Context, walletAddress, mintAddress string) (Balances, error)
}
