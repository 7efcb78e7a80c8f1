package moneyunits

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSolLamportsRoundTrip(t *testing.T) {
	lamports := SolToLamports(1.5)
	assert.Equal(t, int64(1_500_000_000), lamports)
	assert.Equal(t, 1.5, LamportsToSol(lamports))
}

func TestSolToLamportsRoundsDown(t *testing.T) {
	// 0.0000000019999 SOL is 1.9999 lamports, which rounds down to 1.
	assert.Equal(t, int64(1), SolToLamports(0.0000000019999))
}

func TestTokenUnitsRoundTrip(t *testing.T) {
	units := AmountToTokenUnits(123.456, 6)
	assert.Equal(t, int64(123456000), units)
	assert.Equal(t, 123.456, TokenUnitsToAmount(units, 6))
}

func TestSplitPercentExactness(t *testing.T) {
	for _, tc := range []struct {
		amount float64
		pct    int
	}{
		{100, 10}, {33.33, 7}, {0.0001, 50}, {999.999, 1},
	} {
		share, remainder := SplitPercent(tc.amount, tc.pct)
		assert.InDelta(t, tc.amount, share+remainder, 1e-9, "platformFee + userReceived must equal amount")
	}
}

func TestSplitPercentZero(t *testing.T) {
	share, remainder := SplitPercent(100, 0)
	assert.Equal(t, 0.0, share)
	assert.Equal(t, 100.0, remainder)
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 5.0, Clamp(1, 5, 10))
	assert.Equal(t, 10.0, Clamp(20, 5, 10))
	assert.Equal(t, 7.0, Clamp(7, 5, 10))
}

func TestMin(t *testing.T) {
	assert.Equal(t, 1.0, Min(5, 3, 1, 4))
	assert.Equal(t, 5.0, Min(5))
}
