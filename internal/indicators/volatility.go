package indicators

import "math"

// BollingerBands computes the Bollinger Band(n, k-sigma) series: middle is
// the SMA(n), upper/lower are middle +/- k*stddev(n), %B is the close's
// position within the band, and bandwidth is (upper-lower)/middle.
func BollingerBands(closes []float64, n int, k float64) (upper, middle, lower, percentB, bandwidth []float64) {
	middle = SMA(closes, n)
	sd := StdDev(closes, n)
	sz := len(closes)
	upper = make([]float64, sz)
	lower = make([]float64, sz)
	percentB = make([]float64, sz)
	bandwidth = make([]float64, sz)
	for i := 0; i < sz; i++ {
		if math.IsNaN(middle[i]) || math.IsNaN(sd[i]) {
			upper[i], lower[i], percentB[i], bandwidth[i] = math.NaN(), math.NaN(), math.NaN(), math.NaN()
			continue
		}
		upper[i] = middle[i] + k*sd[i]
		lower[i] = middle[i] - k*sd[i]
		denom := upper[i] - lower[i]
		if denom == 0 {
			percentB[i] = 0.5
		} else {
			percentB[i] = (closes[i] - lower[i]) / denom
		}
		if middle[i] != 0 {
			bandwidth[i] = denom / middle[i]
		}
	}
	return
}

// TrueRange computes the per-bar true range series:
// max(high-low, |high-prevClose|, |low-prevClose|).
func TrueRange(highs, lows, closes []float64) []float64 {
	n := len(closes)
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		if i == 0 {
			out[i] = highs[i] - lows[i]
			continue
		}
		tr1 := highs[i] - lows[i]
		tr2 := math.Abs(highs[i] - closes[i-1])
		tr3 := math.Abs(lows[i] - closes[i-1])
		out[i] = math.Max(tr1, math.Max(tr2, tr3))
	}
	return out
}

// ATRSeries computes the Wilder-smoothed Average True Range(n) series,
// per spec §4.3's Wilder-smoothing convention (the teacher's
// CalculateATR is a plain unweighted average, not Wilder-smoothed, so this
// diverges from the teacher in favor of the spec).
func ATRSeries(highs, lows, closes []float64, n int) []float64 {
	tr := TrueRange(highs, lows, closes)
	return WilderSmooth(tr, n)
}

// ADXSeries computes the Average Directional Index(n): Wilder-smoothed
// +DI/-DI from directional movement, then a Wilder-smoothed DX.
func ADXSeries(highs, lows, closes []float64, n int) []float64 {
	sz := len(closes)
	plusDM := make([]float64, sz)
	minusDM := make([]float64, sz)
	for i := 1; i < sz; i++ {
		upMove := highs[i] - highs[i-1]
		downMove := lows[i-1] - lows[i]
		if upMove > downMove && upMove > 0 {
			plusDM[i] = upMove
		}
		if downMove > upMove && downMove > 0 {
			minusDM[i] = downMove
		}
	}
	tr := TrueRange(highs, lows, closes)
	smoothTR := WilderSmooth(tr, n)
	smoothPlusDM := WilderSmooth(plusDM, n)
	smoothMinusDM := WilderSmooth(minusDM, n)

	dx := make([]float64, sz)
	for i := range dx {
		dx[i] = math.NaN()
	}
	for i := 0; i < sz; i++ {
		if math.IsNaN(smoothTR[i]) || smoothTR[i] == 0 {
			continue
		}
		plusDI := 100 * smoothPlusDM[i] / smoothTR[i]
		minusDI := 100 * smoothMinusDM[i] / smoothTR[i]
		denom := plusDI + minusDI
		if denom == 0 {
			dx[i] = 0
			continue
		}
		dx[i] = 100 * math.Abs(plusDI-minusDI) / denom
	}
	firstValid := -1
	for i, v := range dx {
		if !math.IsNaN(v) {
			firstValid = i
			break
		}
	}
	out := make([]float64, sz)
	for i := range out {
		out[i] = math.NaN()
	}
	if firstValid < 0 {
		return out
	}
	smoothed := WilderSmooth(dx[firstValid:], n)
	for i, v := range smoothed {
		out[firstValid+i] = v
	}
	return out
}
