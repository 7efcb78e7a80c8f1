// Package moneyunits converts between integer minor units (lamports for the
// native coin, raw integer units for tokens) and the decimal representation
// used in interior computation. All cross-boundary comparisons happen in
// minor units per the spec's money-representation design note.
package moneyunits

import "github.com/shopspring/decimal"

// LamportsPerSol is the conversion factor between SOL and lamports.
const LamportsPerSol = 1_000_000_000

// SolToLamports converts a SOL amount to integer lamports, rounding down.
func SolToLamports(sol float64) int64 {
	d := decimal.NewFromFloat(sol).Mul(decimal.NewFromInt(LamportsPerSol))
	return d.IntPart()
}

// LamportsToSol converts integer lamports back to a SOL float.
func LamportsToSol(lamports int64) float64 {
	d := decimal.NewFromInt(lamports).Div(decimal.NewFromInt(LamportsPerSol))
	f, _ := d.Float64()
	return f
}

// TokenUnitsToAmount converts raw integer token units to a decimal amount
// given the token's configured decimals.
func TokenUnitsToAmount(units int64, decimals int) float64 {
	scale := decimal.New(1, int32(decimals))
	d := decimal.NewFromInt(units).Div(scale)
	f, _ := d.Float64()
	return f
}

// AmountToTokenUnits converts a decimal token amount to raw integer units.
func AmountToTokenUnits(amount float64, decimals int) int64 {
	scale := decimal.New(1, int32(decimals))
	d := decimal.NewFromFloat(amount).Mul(scale)
	return d.IntPart()
}

// SplitPercent divides amount into (a share of pct%, the remainder), using
// banker-safe decimal math so platformFee + userReceived == amount exactly
// (§8 property 8, the claim-split testable property).
func SplitPercent(amount float64, pct int) (share, remainder float64) {
	d := decimal.NewFromFloat(amount)
	shareD := d.Mul(decimal.NewFromInt(int64(pct))).Div(decimal.NewFromInt(100))
	remD := d.Sub(shareD)
	s, _ := shareD.Float64()
	r, _ := remD.Float64()
	return s, r
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Min returns the smaller of a set of floats.
func Min(vals ...float64) float64 {
	m := vals[0]
	for _, v := range vals[1:] {
		if v < m {
			m = v
		}
	}
	return m
}
