// Package signal implements the composite-scoring SignalGenerator: it folds
// an IndicatorBundle (plus optional multi-timeframe bundles, a
// microstructure snapshot, and a regime tag) into a single CompositeSignal,
// the unit RiskAgent and Screener operate on.
package signal

// weightCaps bounds each indicator's contribution to the composite score
// before summing, per spec §4.4 ("individual indicator contribution <= that
// indicator's weight cap"). ADX is trend-strength only and never fires a
// directional event, so it carries no cap — it only informs confidence.
var weightCaps = map[string]float64{
	"rsi14":       12,
	"stochrsi":    10,
	"williamsr14": 8,
	"stochastic":  8,
	"kdj":         10,
	"macd":        14,
	"bollinger":   10,
	"ema_triplet": 12,
	"ao":          8,
	"obv":         6,
	"cmf20":       6,
}

// TotalCap is the overall composite score clamp.
const TotalCap = 100.0

// MicrostructureCap bounds the order-book contribution folded into the
// composite score.
const MicrostructureCap = 10.0

func weightCap(indicator string) float64 {
	if w, ok := weightCaps[indicator]; ok {
		return w
	}
	return 0
}
