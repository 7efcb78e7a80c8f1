// Package signer is the client for the external wallet-custody service
// (§4.2, §6). It never holds key material itself: every call is delegated
// to a remote signer identified by a stable walletId.
package signer

import (
	"context"

	"github.com/mrbarnaclebot-ux/ClaudeWheel-sub002/domain"
)

// Tx is an opaque, implementation-defined transaction handle produced by
// the Venue client and passed to the Signer without interpretation.
type Tx struct {
	Opaque []byte
}

// Result is the Signer's success response (§6: hash is base58).
type Result struct {
	Hash string
}

// Signer is the abstract contract consumed by the executor (§4.2).
type Signer interface {
	SignAndSend(ctx context.Context, walletID string, tx Tx, chainID string) (Result, *domain.ClassifiedError)
}
