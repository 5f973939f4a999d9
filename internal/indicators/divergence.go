package indicators

import "math"

// localExtrema returns the indices, within the last `lookback` bars of
// series, of strict interior local extrema (peaks if wantPeaks, else
// troughs): series[i-1] < series[i] > series[i+1] for peaks, mirrored for
// troughs.
func localExtrema(series []float64, lookback int, wantPeaks bool) []int {
	n := len(series)
	start := n - lookback
	if start < 1 {
		start = 1
	}
	var idx []int
	for i := start; i < n-1; i++ {
		if math.IsNaN(series[i-1]) || math.IsNaN(series[i]) || math.IsNaN(series[i+1]) {
			continue
		}
		if wantPeaks && series[i] > series[i-1] && series[i] > series[i+1] {
			idx = append(idx, i)
		}
		if !wantPeaks && series[i] < series[i-1] && series[i] < series[i+1] {
			idx = append(idx, i)
		}
	}
	return idx
}

// DetectDivergence pairs the two most recent local extrema on price and on
// an indicator series over a fixed lookback, per spec §4.3/GLOSSARY:
// regular bullish = price lower low while indicator makes a higher low;
// regular bearish = price higher high while indicator makes a lower high.
func DetectDivergence(price, indicator []float64, lookback int) (bullish, bearish bool) {
	priceTroughs := localExtrema(price, lookback, false)
	indTroughs := localExtrema(indicator, lookback, false)
	if len(priceTroughs) >= 2 && len(indTroughs) >= 2 {
		p1, p2 := priceTroughs[len(priceTroughs)-2], priceTroughs[len(priceTroughs)-1]
		i1, i2 := indTroughs[len(indTroughs)-2], indTroughs[len(indTroughs)-1]
		if price[p2] < price[p1] && indicator[i2] > indicator[i1] {
			bullish = true
		}
	}
	pricePeaks := localExtrema(price, lookback, true)
	indPeaks := localExtrema(indicator, lookback, true)
	if len(pricePeaks) >= 2 && len(indPeaks) >= 2 {
		p1, p2 := pricePeaks[len(pricePeaks)-2], pricePeaks[len(pricePeaks)-1]
		i1, i2 := indPeaks[len(indPeaks)-2], indPeaks[len(indPeaks)-1]
		if price[p2] > price[p1] && indicator[i2] < indicator[i1] {
			bearish = true
		}
	}
	return
}
