package indicators

import "math"

// OBVSeries computes On-Balance-Volume: a running sum that adds volume on
// an up close, subtracts it on a down close, and holds on an unchanged
// close.
func OBVSeries(closes, volumes []float64) []float64 {
	n := len(closes)
	out := make([]float64, n)
	for i := 1; i < n; i++ {
		switch {
		case closes[i] > closes[i-1]:
			out[i] = out[i-1] + volumes[i]
		case closes[i] < closes[i-1]:
			out[i] = out[i-1] - volumes[i]
		default:
			out[i] = out[i-1]
		}
	}
	return out
}

// CMFSeries computes the Chaikin Money Flow(n): the n-period sum of
// money-flow-volume divided by the n-period sum of volume.
func CMFSeries(highs, lows, closes, volumes []float64, n int) []float64 {
	sz := len(closes)
	mfv := make([]float64, sz)
	for i := 0; i < sz; i++ {
		hl := highs[i] - lows[i]
		if hl == 0 {
			continue
		}
		mult := ((closes[i] - lows[i]) - (highs[i] - closes[i])) / hl
		mfv[i] = mult * volumes[i]
	}
	out := make([]float64, sz)
	for i := range out {
		out[i] = math.NaN()
	}
	if sz < n {
		return out
	}
	mfvSum, volSum := 0.0, 0.0
	for i := 0; i < sz; i++ {
		mfvSum += mfv[i]
		volSum += volumes[i]
		if i >= n {
			mfvSum -= mfv[i-n]
			volSum -= volumes[i-n]
		}
		if i >= n-1 {
			if volSum == 0 {
				out[i] = 0
			} else {
				out[i] = mfvSum / volSum
			}
		}
	}
	return out
}
