package indicators

import "math"

// KDJ computes the KDJ(rsvPeriod, kSmooth, dSmooth) series: %K/%D as
// smoothed moving averages of the raw stochastic value (RSV), and
// J = 3K - 2D. Starts from the first valid RSV per spec §4.3.
func KDJ(highs, lows, closes []float64, rsvPeriod, kSmooth, dSmooth int) (k, d, j []float64) {
	n := len(closes)
	rsv := make([]float64, n)
	for i := range rsv {
		rsv[i] = math.NaN()
	}
	for i := rsvPeriod - 1; i < n; i++ {
		hh, ll := highs[i], lows[i]
		for x := i - rsvPeriod + 1; x <= i; x++ {
			if highs[x] > hh {
				hh = highs[x]
			}
			if lows[x] < ll {
				ll = lows[x]
			}
		}
		denom := hh - ll
		if denom == 0 {
			rsv[i] = 50
			continue
		}
		rsv[i] = ((closes[i] - ll) / denom) * 100
	}

	k = make([]float64, n)
	d = make([]float64, n)
	j = make([]float64, n)
	for i := range k {
		k[i], d[i], j[i] = math.NaN(), math.NaN(), math.NaN()
	}

	prevK, prevD := 50.0, 50.0
	started := false
	for i := 0; i < n; i++ {
		if math.IsNaN(rsv[i]) {
			continue
		}
		if !started {
			prevK, prevD = rsv[i], rsv[i]
			started = true
		} else {
			// smoothed moving average: avg = (prev*(m-1)+val)/m
			prevK = (prevK*float64(kSmooth-1) + rsv[i]) / float64(kSmooth)
			prevD = (prevD*float64(dSmooth-1) + prevK) / float64(dSmooth)
		}
		k[i] = prevK
		d[i] = prevD
		j[i] = 3*prevK - 2*prevD
	}
	return
}

// MACDSeries computes the MACD line (fast EMA - slow EMA), its signal line
// (EMA of the MACD line), and the histogram (line - signal).
func MACDSeries(closes []float64, fast, slow, signal int) (line, sig, hist []float64) {
	n := len(closes)
	emaFast := EMA(closes, fast)
	emaSlow := EMA(closes, slow)
	line = make([]float64, n)
	for i := 0; i < n; i++ {
		if math.IsNaN(emaFast[i]) || math.IsNaN(emaSlow[i]) {
			line[i] = math.NaN()
			continue
		}
		line[i] = emaFast[i] - emaSlow[i]
	}
	// EMA() requires a clean leading run without NaNs; compact the valid
	// suffix of `line` before seeding the signal EMA, then scatter back.
	firstValid := -1
	for i, v := range line {
		if !math.IsNaN(v) {
			firstValid = i
			break
		}
	}
	sig = make([]float64, n)
	hist = make([]float64, n)
	for i := range sig {
		sig[i], hist[i] = math.NaN(), math.NaN()
	}
	if firstValid < 0 {
		return
	}
	compact := line[firstValid:]
	sigCompact := EMA(compact, signal)
	for i, v := range sigCompact {
		sig[firstValid+i] = v
		if !math.IsNaN(v) {
			hist[firstValid+i] = line[firstValid+i] - v
		}
	}
	return
}

// AwesomeOscillator computes AO(fast, slow): SMA(fast) - SMA(slow) of the
// median price (high+low)/2.
func AwesomeOscillator(highs, lows []float64, fast, slow int) []float64 {
	n := len(highs)
	median := make([]float64, n)
	for i := range median {
		median[i] = (highs[i] + lows[i]) / 2
	}
	smaFast := SMA(median, fast)
	smaSlow := SMA(median, slow)
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		if math.IsNaN(smaFast[i]) || math.IsNaN(smaSlow[i]) {
			out[i] = math.NaN()
			continue
		}
		out[i] = smaFast[i] - smaSlow[i]
	}
	return out
}
