// Package indicators is the pure, deterministic IndicatorEngine: every
// function here takes a tail window of candles/series and returns scalar
// values with no global state and no side effects, reused unchanged by
// live, paper, and backtest harnesses (spec §4.3).
//
// Internally indicators operate on float64, per spec §9 ("the indicator
// engine may use floating-point internally but must round at API
// boundaries"); callers convert decimal Candles at the boundary via
// model.Candle.CloseFloat and friends.
package indicators

import "math"

// SMA returns the simple moving average series for period n. Indices
// before n-1 are NaN (insufficient history).
func SMA(values []float64, n int) []float64 {
	out := make([]float64, len(values))
	for i := range out {
		out[i] = math.NaN()
	}
	if n <= 0 || len(values) < n {
		return out
	}
	sum := 0.0
	for i, v := range values {
		sum += v
		if i >= n {
			sum -= values[i-n]
		}
		if i >= n-1 {
			out[i] = sum / float64(n)
		}
	}
	return out
}

// EMA returns the exponential moving average series for period n, seeded
// by the SMA of the first n elements (spec §4.3's EMA-seeding convention,
// grounded on the teacher's trend_analyzer.go calculateEMA helper).
// Indices before n-1 are NaN.
func EMA(values []float64, n int) []float64 {
	out := make([]float64, len(values))
	for i := range out {
		out[i] = math.NaN()
	}
	if n <= 0 || len(values) < n {
		return out
	}
	k := 2.0 / float64(n+1)
	sum := 0.0
	for i := 0; i < n; i++ {
		sum += values[i]
	}
	seed := sum / float64(n)
	out[n-1] = seed
	prev := seed
	for i := n; i < len(values); i++ {
		prev = values[i]*k + prev*(1-k)
		out[i] = prev
	}
	return out
}

// EMALast returns just the final EMA value, or NaN if there isn't enough
// history.
func EMALast(values []float64, n int) float64 {
	s := EMA(values, n)
	if len(s) == 0 {
		return math.NaN()
	}
	return s[len(s)-1]
}

// WMA returns the weighted moving average series for period n (linear
// weights, most recent heaviest), used for OBV's WMA(20) smoothing line.
func WMA(values []float64, n int) []float64 {
	out := make([]float64, len(values))
	for i := range out {
		out[i] = math.NaN()
	}
	if n <= 0 || len(values) < n {
		return out
	}
	denom := float64(n*(n+1)) / 2
	for i := n - 1; i < len(values); i++ {
		sum := 0.0
		weight := 1.0
		for j := i - n + 1; j <= i; j++ {
			sum += values[j] * weight
			weight++
		}
		out[i] = sum / denom
	}
	return out
}

// StdDev returns the rolling population standard deviation series for
// period n.
func StdDev(values []float64, n int) []float64 {
	out := make([]float64, len(values))
	for i := range out {
		out[i] = math.NaN()
	}
	if n <= 0 || len(values) < n {
		return out
	}
	for i := n - 1; i < len(values); i++ {
		mean := 0.0
		for j := i - n + 1; j <= i; j++ {
			mean += values[j]
		}
		mean /= float64(n)
		variance := 0.0
		for j := i - n + 1; j <= i; j++ {
			d := values[j] - mean
			variance += d * d
		}
		variance /= float64(n)
		out[i] = math.Sqrt(math.Max(variance, 1e-12))
	}
	return out
}

// WilderSmooth applies Wilder's smoothing recurrence
// avg_t = (avg_{t-1}*(n-1) + value_t) / n, seeded by the simple average of
// the first n values. Grounded on chidi150c-coinbase/indicators.go's RSI
// implementation, the one corpus file that gets Wilder smoothing right.
func WilderSmooth(values []float64, n int) []float64 {
	out := make([]float64, len(values))
	for i := range out {
		out[i] = math.NaN()
	}
	if n <= 0 || len(values) < n {
		return out
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		sum += values[i]
	}
	avg := sum / float64(n)
	out[n-1] = avg
	for i := n; i < len(values); i++ {
		avg = (avg*float64(n-1) + values[i]) / float64(n)
		out[i] = avg
	}
	return out
}

func last(s []float64) float64 {
	if len(s) == 0 {
		return math.NaN()
	}
	return s[len(s)-1]
}
