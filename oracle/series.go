package oracle

import "math"

// series is a per-mint FIFO-bounded rolling price series and the indicator
// computations over it, grounded on the teacher's RSI14Values/EMA
// precomputation style in decision/localfunc.go.
type series struct {
	prices []float64
}

func newSeries() *series {
	return &series{prices: make([]float64, 0, MaxSeriesLength)}
}

// push appends a new sample, evicting the oldest if the series is full.
func (s *series) push(price float64) {
	s.prices = append(s.prices, price)
	if len(s.prices) > MaxSeriesLength {
		s.prices = s.prices[len(s.prices)-MaxSeriesLength:]
	}
}

func (s *series) ready() bool {
	return len(s.prices) >= MinSamples
}

// ema computes the exponential moving average over the whole series,
// seeded with its first sample; period only sets the smoothing factor
// 2/(period+1).
func ema(prices []float64, period int) float64 {
	if len(prices) == 0 {
		return 0
	}
	if period <= 0 {
		period = 1
	}
	k := 2.0 / (float64(period) + 1.0)
	e := prices[0]
	for _, p := range prices[1:] {
		e = p*k + e*(1-k)
	}
	return e
}

// rsi14 computes the 14-period relative strength index over the series.
func rsi14(prices []float64) float64 {
	const period = 14
	if len(prices) < period+1 {
		return 50
	}
	window := prices[len(prices)-period-1:]
	var gains, losses float64
	for i := 1; i < len(window); i++ {
		delta := window[i] - window[i-1]
		if delta > 0 {
			gains += delta
		} else {
			losses += -delta
		}
	}
	avgGain := gains / period
	avgLoss := losses / period
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - (100 / (1 + rs))
}

// volatilityPct computes the standard deviation of returns over the series,
// expressed as a percentage, used by the detector's extreme_volatility rule.
func volatilityPct(prices []float64) float64 {
	if len(prices) < 2 {
		return 0
	}
	returns := make([]float64, 0, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		if prices[i-1] == 0 {
			continue
		}
		returns = append(returns, (prices[i]-prices[i-1])/prices[i-1])
	}
	if len(returns) == 0 {
		return 0
	}
	var mean float64
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	var variance float64
	for _, r := range returns {
		d := r - mean
		variance += d * d
	}
	variance /= float64(len(returns))

	return math.Sqrt(variance) * 100
}

// indicators computes ShortEMA/LongEMA/RSI14/Volatility if the series has
// enough samples, returning nils otherwise (§4.4).
func (s *series) indicators() (shortEMA, longEMA, rsi, vol *float64) {
	if !s.ready() {
		return nil, nil, nil, nil
	}
	se := ema(s.prices, 12)
	le := ema(s.prices, 26)
	r := rsi14(s.prices)
	v := volatilityPct(s.prices)
	return &se, &le, &r, &v
}
