// Package oracle is the price oracle client (C4, §4.4): a pure read side
// over a per-mint rolling price series, computing EMA/RSI/volatility the
// way the teacher's decision engine consumes precomputed RSI14Values.
package oracle

import "context"

// Snapshot is the oracle's per-mint read (§4.4). ShortEMA, LongEMA, RSI14,
// and Volatility are nil until the rolling series has at least MinSamples
// points.
type Snapshot struct {
	PriceUsd          float64
	PriceChange24hPct float64
	Volume24hUsd      float64
	LiquidityUsd      float64
	ShortEMA          *float64
	LongEMA           *float64
	RSI14             *float64
	Volatility        *float64
}

// MinSamples is the minimum rolling-series length before trend outputs are
// non-null (§4.4).
const MinSamples = 20

// MaxSeriesLength bounds the rolling series; older points are evicted FIFO
// (§4.4).
const MaxSeriesLength = 1000

// Oracle is the abstract price-oracle contract.
type Oracle interface {
	Snapshot(ctx context.Context, mint string) (Snapshot, error)
}
