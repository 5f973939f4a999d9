package indicators

import "math"

// RSISeries computes the Wilder-smoothed RSI(n) series, grounded on
// chidi150c-coinbase/indicators.go's RSI (the one corpus implementation
// that smooths correctly, unlike the teacher's per-call, non-Wilder
// calculateRSI in trend_analyzer.go).
func RSISeries(closes []float64, n int) []float64 {
	out := make([]float64, len(closes))
	for i := range out {
		out[i] = math.NaN()
	}
	if len(closes) < n+1 {
		return out
	}
	gains := make([]float64, len(closes))
	losses := make([]float64, len(closes))
	for i := 1; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			gains[i] = change
		} else {
			losses[i] = -change
		}
	}
	avgGain := 0.0
	avgLoss := 0.0
	for i := 1; i <= n; i++ {
		avgGain += gains[i]
		avgLoss += losses[i]
	}
	avgGain /= float64(n)
	avgLoss /= float64(n)
	out[n] = rsiFromAvgs(avgGain, avgLoss)
	for i := n + 1; i < len(closes); i++ {
		avgGain = (avgGain*float64(n-1) + gains[i]) / float64(n)
		avgLoss = (avgLoss*float64(n-1) + losses[i]) / float64(n)
		out[i] = rsiFromAvgs(avgGain, avgLoss)
	}
	return out
}

func rsiFromAvgs(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		if avgGain == 0 {
			return 50
		}
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - (100 / (1 + rs))
}

// WilliamsR computes the Williams %R(n) series: ((highestHigh - close) /
// (highestHigh - lowestLow)) * -100.
func WilliamsR(highs, lows, closes []float64, n int) []float64 {
	out := make([]float64, len(closes))
	for i := range out {
		out[i] = math.NaN()
	}
	if len(closes) < n {
		return out
	}
	for i := n - 1; i < len(closes); i++ {
		hh, ll := highs[i], lows[i]
		for j := i - n + 1; j <= i; j++ {
			if highs[j] > hh {
				hh = highs[j]
			}
			if lows[j] < ll {
				ll = lows[j]
			}
		}
		denom := hh - ll
		if denom == 0 {
			out[i] = -50
			continue
		}
		out[i] = ((hh - closes[i]) / denom) * -100
	}
	return out
}

// StochasticKD computes the classic Stochastic Oscillator %K(n) and its
// %D(smooth) SMA, over highs/lows/closes.
func StochasticKD(highs, lows, closes []float64, n, smooth int) (k, d []float64) {
	k = make([]float64, len(closes))
	for i := range k {
		k[i] = math.NaN()
	}
	if len(closes) < n {
		d = SMA(k, smooth)
		return
	}
	for i := n - 1; i < len(closes); i++ {
		hh, ll := highs[i], lows[i]
		for j := i - n + 1; j <= i; j++ {
			if highs[j] > hh {
				hh = highs[j]
			}
			if lows[j] < ll {
				ll = lows[j]
			}
		}
		denom := hh - ll
		if denom == 0 {
			k[i] = 50
			continue
		}
		k[i] = ((closes[i] - ll) / denom) * 100
	}
	d = SMA(k, smooth)
	return
}

// StochRSI computes the Stochastic RSI: the Stochastic oscillator applied
// to the RSI series itself, starting from the first valid RSI value per
// spec §4.3 ("Stochastic-RSI and KDJ start from the first valid RSI/RSV
// value").
func StochRSI(closes []float64, rsiPeriod, stochPeriod, kSmooth, dSmooth int) (k, d []float64) {
	rsi := RSISeries(closes, rsiPeriod)
	firstValid := -1
	for i, v := range rsi {
		if !math.IsNaN(v) {
			firstValid = i
			break
		}
	}
	k = make([]float64, len(closes))
	for i := range k {
		k[i] = math.NaN()
	}
	if firstValid < 0 {
		d = SMA(k, dSmooth)
		return
	}
	tail := rsi[firstValid:]
	raw := make([]float64, len(tail))
	for i := range raw {
		raw[i] = math.NaN()
	}
	for i := stochPeriod - 1; i < len(tail); i++ {
		hh, ll := tail[i], tail[i]
		for j := i - stochPeriod + 1; j <= i; j++ {
			if tail[j] > hh {
				hh = tail[j]
			}
			if tail[j] < ll {
				ll = tail[j]
			}
		}
		denom := hh - ll
		if denom == 0 {
			raw[i] = 50
			continue
		}
		raw[i] = ((tail[i] - ll) / denom) * 100
	}
	smoothedK := SMA(raw, kSmooth)
	for i, v := range smoothedK {
		k[firstValid+i] = v
	}
	d = SMA(k, dSmooth)
	return
}
