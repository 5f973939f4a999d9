package indicators

import (
	"math"

	"github.com/sniperterm/futuresengine/internal/model"
)

func strengthFromDistance(dist, moderate, strong, veryStrong float64) model.Strength {
	switch {
	case dist >= veryStrong:
		return model.StrengthVeryStrong
	case dist >= strong:
		return model.StrengthStrong
	case dist >= moderate:
		return model.StrengthModerate
	default:
		return model.StrengthWeak
	}
}

func buildRSI(closes, rsi []float64, lookback int) model.ScalarSeries {
	v := last(rsi)
	if math.IsNaN(v) {
		return model.ScalarSeries{Value: 50}
	}
	var events []model.SignalEvent
	switch {
	case v <= 30:
		events = append(events, model.SignalEvent{
			Indicator: "rsi14", Type: model.EventZone, Direction: model.DirectionBullish,
			Strength: strengthFromDistance(30-v, 3, 8, 13), Scalar: v,
		})
	case v >= 70:
		events = append(events, model.SignalEvent{
			Indicator: "rsi14", Type: model.EventZone, Direction: model.DirectionBearish,
			Strength: strengthFromDistance(v-70, 3, 8, 13), Scalar: v,
		})
	}
	if bullish, bearish := DetectDivergence(closes, rsi, lookback); bullish || bearish {
		dir := model.DirectionBullish
		typ := model.EventDivergenceBullish
		if bearish {
			dir, typ = model.DirectionBearish, model.EventDivergenceBearish
		}
		events = append(events, model.SignalEvent{
			Indicator: "rsi14", Type: typ, Direction: dir,
			Strength: model.StrengthStrong, Scalar: v,
		})
	}
	return model.ScalarSeries{Value: v, Events: events}
}

func buildStochRSI(k, d []float64) model.StochRSI {
	kv, dv := last(k), last(d)
	if math.IsNaN(kv) || math.IsNaN(dv) {
		return model.StochRSI{K: 50, D: 50}
	}
	var events []model.SignalEvent
	if len(k) >= 2 && len(d) >= 2 {
		pk, pd := k[len(k)-2], d[len(d)-2]
		if !math.IsNaN(pk) && !math.IsNaN(pd) {
			if pk <= pd && kv > dv && kv < 30 {
				events = append(events, model.SignalEvent{Indicator: "stochrsi", Type: model.EventKDCross, Direction: model.DirectionBullish, Strength: model.StrengthStrong, Scalar: kv})
			}
			if pk >= pd && kv < dv && kv > 70 {
				events = append(events, model.SignalEvent{Indicator: "stochrsi", Type: model.EventKDCross, Direction: model.DirectionBearish, Strength: model.StrengthStrong, Scalar: kv})
			}
		}
	}
	return model.StochRSI{K: kv, D: dv, Events: events}
}

func buildWilliamsR(wr []float64) model.ScalarSeries {
	v := last(wr)
	if math.IsNaN(v) {
		return model.ScalarSeries{Value: -50}
	}
	var events []model.SignalEvent
	switch {
	case v <= -80:
		events = append(events, model.SignalEvent{Indicator: "williamsr14", Type: model.EventZone, Direction: model.DirectionBullish, Strength: strengthFromDistance(-80-v, 3, 8, 13), Scalar: v})
	case v >= -20:
		events = append(events, model.SignalEvent{Indicator: "williamsr14", Type: model.EventZone, Direction: model.DirectionBearish, Strength: strengthFromDistance(v+20, 3, 8, 13), Scalar: v})
	}
	return model.ScalarSeries{Value: v, Events: events}
}

func buildStochastic(k, d []float64) model.Stochastic {
	kv, dv := last(k), last(d)
	if math.IsNaN(kv) || math.IsNaN(dv) {
		return model.Stochastic{K: 50, D: 50}
	}
	var events []model.SignalEvent
	if len(k) >= 2 && len(d) >= 2 {
		pk, pd := k[len(k)-2], d[len(d)-2]
		if !math.IsNaN(pk) && !math.IsNaN(pd) {
			if pk <= pd && kv > dv && kv < 20 {
				events = append(events, model.SignalEvent{Indicator: "stochastic", Type: model.EventCrossover, Direction: model.DirectionBullish, Strength: model.StrengthModerate, Scalar: kv})
			}
			if pk >= pd && kv < dv && kv > 80 {
				events = append(events, model.SignalEvent{Indicator: "stochastic", Type: model.EventCrossover, Direction: model.DirectionBearish, Strength: model.StrengthModerate, Scalar: kv})
			}
		}
	}
	return model.Stochastic{K: kv, D: dv, Events: events}
}

func buildKDJ(k, d, j []float64) model.KDJ {
	kv, dv, jv := last(k), last(d), last(j)
	if math.IsNaN(kv) {
		return model.KDJ{K: 50, D: 50, J: 50}
	}
	var events []model.SignalEvent
	if len(k) >= 2 && len(d) >= 2 {
		pk, pd := k[len(k)-2], d[len(d)-2]
		if !math.IsNaN(pk) && !math.IsNaN(pd) {
			if pk <= pd && kv > dv {
				events = append(events, model.SignalEvent{Indicator: "kdj", Type: model.EventKDCross, Direction: model.DirectionBullish, Strength: model.StrengthModerate, Scalar: kv})
			}
			if pk >= pd && kv < dv {
				events = append(events, model.SignalEvent{Indicator: "kdj", Type: model.EventKDCross, Direction: model.DirectionBearish, Strength: model.StrengthModerate, Scalar: kv})
			}
		}
	}
	if jv <= 0 {
		events = append(events, model.SignalEvent{Indicator: "kdj", Type: model.EventJExtreme, Direction: model.DirectionBullish, Strength: model.StrengthVeryStrong, Scalar: jv})
	} else if jv >= 100 {
		events = append(events, model.SignalEvent{Indicator: "kdj", Type: model.EventJExtreme, Direction: model.DirectionBearish, Strength: model.StrengthVeryStrong, Scalar: jv})
	}
	return model.KDJ{K: kv, D: dv, J: jv, Events: events}
}

func buildMACD(line, sig, hist []float64) model.MACD {
	lv, sv, hv := last(line), last(sig), last(hist)
	if math.IsNaN(lv) || math.IsNaN(sv) {
		return model.MACD{}
	}
	var events []model.SignalEvent
	if len(line) >= 2 && len(sig) >= 2 {
		pl, ps := line[len(line)-2], sig[len(sig)-2]
		if !math.IsNaN(pl) && !math.IsNaN(ps) {
			if pl <= ps && lv > sv {
				events = append(events, model.SignalEvent{Indicator: "macd", Type: model.EventCrossover, Direction: model.DirectionBullish, Strength: model.StrengthStrong, Scalar: hv})
			}
			if pl >= ps && lv < sv {
				events = append(events, model.SignalEvent{Indicator: "macd", Type: model.EventCrossover, Direction: model.DirectionBearish, Strength: model.StrengthStrong, Scalar: hv})
			}
		}
	}
	if len(line) >= 2 {
		pl := line[len(line)-2]
		if !math.IsNaN(pl) {
			if pl <= 0 && lv > 0 {
				events = append(events, model.SignalEvent{Indicator: "macd", Type: model.EventZeroCross, Direction: model.DirectionBullish, Strength: model.StrengthStrong, Scalar: lv})
			}
			if pl >= 0 && lv < 0 {
				events = append(events, model.SignalEvent{Indicator: "macd", Type: model.EventZeroCross, Direction: model.DirectionBearish, Strength: model.StrengthStrong, Scalar: lv})
			}
		}
	}
	return model.MACD{Line: lv, Signal: sv, Histogram: hv, Events: events}
}

func buildBollinger(closes, up, mid, lo, pb, bw []float64) model.Bollinger {
	uv, mv, lv, pbv, bwv := last(up), last(mid), last(lo), last(pb), last(bw)
	if math.IsNaN(uv) {
		return model.Bollinger{}
	}
	var events []model.SignalEvent
	c := closes[len(closes)-1]
	if c <= lv {
		events = append(events, model.SignalEvent{Indicator: "bollinger", Type: model.EventBreakout, Direction: model.DirectionBullish, Strength: model.StrengthStrong, Scalar: pbv})
	} else if c >= uv {
		events = append(events, model.SignalEvent{Indicator: "bollinger", Type: model.EventBreakout, Direction: model.DirectionBearish, Strength: model.StrengthStrong, Scalar: pbv})
	}
	if !math.IsNaN(bwv) && bwv < 0.03 {
		events = append(events, model.SignalEvent{Indicator: "bollinger", Type: model.EventSqueeze, Direction: model.DirectionNeutral, Strength: model.StrengthModerate, Scalar: bwv})
	}
	return model.Bollinger{Upper: uv, Middle: mv, Lower: lv, PercentB: pbv, Bandwidth: bwv, Events: events}
}

func buildEMATriplet(closes []float64, p Periods) model.EMATriplet {
	fast := EMA(closes, p.EMAFast)
	mid := EMA(closes, p.EMAMid)
	slow := EMA(closes, p.EMASlow)
	fv, mv, sv := last(fast), last(mid), last(slow)
	if math.IsNaN(fv) || math.IsNaN(sv) {
		return model.EMATriplet{}
	}
	var events []model.SignalEvent
	if len(fast) >= 2 && len(slow) >= 2 {
		pf, ps := fast[len(fast)-2], slow[len(slow)-2]
		if !math.IsNaN(pf) && !math.IsNaN(ps) {
			if pf <= ps && fv > sv {
				events = append(events, model.SignalEvent{Indicator: "ema_triplet", Type: model.EventGoldenCross, Direction: model.DirectionBullish, Strength: model.StrengthStrong, Scalar: fv})
			}
			if pf >= ps && fv < sv {
				events = append(events, model.SignalEvent{Indicator: "ema_triplet", Type: model.EventDeathCross, Direction: model.DirectionBearish, Strength: model.StrengthStrong, Scalar: fv})
			}
		}
	}
	return model.EMATriplet{Fast: fv, Mid: mv, Slow: sv, Events: events}
}

func buildAO(ao []float64) model.ScalarSeries {
	v := last(ao)
	if math.IsNaN(v) || len(ao) < 3 {
		return model.ScalarSeries{Value: 0}
	}
	var events []model.SignalEvent
	p1, p2 := ao[len(ao)-2], ao[len(ao)-3]
	if !math.IsNaN(p1) && !math.IsNaN(p2) {
		// Saucer: two consecutive rises from below zero.
		if v < 0 && v > p1 && p1 > p2 {
			events = append(events, model.SignalEvent{Indicator: "ao", Type: model.EventSaucer, Direction: model.DirectionBullish, Strength: model.StrengthModerate, Scalar: v})
		}
		if v > 0 && v < p1 && p1 < p2 {
			events = append(events, model.SignalEvent{Indicator: "ao", Type: model.EventSaucer, Direction: model.DirectionBearish, Strength: model.StrengthModerate, Scalar: v})
		}
		if p1 <= 0 && v > 0 {
			events = append(events, model.SignalEvent{Indicator: "ao", Type: model.EventZeroCross, Direction: model.DirectionBullish, Strength: model.StrengthStrong, Scalar: v})
		}
		if p1 >= 0 && v < 0 {
			events = append(events, model.SignalEvent{Indicator: "ao", Type: model.EventZeroCross, Direction: model.DirectionBearish, Strength: model.StrengthStrong, Scalar: v})
		}
	}
	if twinPeak, ok := detectTwinPeaks(ao); ok {
		events = append(events, twinPeak)
	}
	return model.ScalarSeries{Value: v, Events: events}
}

// detectTwinPeaks scans the AO history for the twin-peaks pattern: two
// consecutive same-side extrema (peaks above zero, troughs below), the more
// recent one weaker than the one before it, confirmed once the latest bar
// continues in the direction the weakening implies — momentum fading on a
// second push, a bigger sibling of the single-peak saucer.
func detectTwinPeaks(ao []float64) (model.SignalEvent, bool) {
	n := len(ao)
	if n < 6 {
		return model.SignalEvent{}, false
	}
	v := ao[n-1]
	if math.IsNaN(v) {
		return model.SignalEvent{}, false
	}

	var peaks, troughs []int // most-recent-first
	for i := n - 2; i >= 1 && (len(peaks) < 2 || len(troughs) < 2); i-- {
		a, b, c := ao[i-1], ao[i], ao[i+1]
		if math.IsNaN(a) || math.IsNaN(b) || math.IsNaN(c) {
			continue
		}
		switch {
		case b > 0 && a < b && b > c:
			peaks = append(peaks, i)
		case b < 0 && a > b && b < c:
			troughs = append(troughs, i)
		}
	}

	if len(peaks) >= 2 {
		recent, older := ao[peaks[0]], ao[peaks[1]]
		if recent < older && v < recent {
			return model.SignalEvent{Indicator: "ao", Type: model.EventTwinPeaks, Direction: model.DirectionBearish, Strength: model.StrengthStrong, Scalar: v}, true
		}
	}
	if len(troughs) >= 2 {
		recent, older := ao[troughs[0]], ao[troughs[1]]
		if recent > older && v > recent {
			return model.SignalEvent{Indicator: "ao", Type: model.EventTwinPeaks, Direction: model.DirectionBullish, Strength: model.StrengthStrong, Scalar: v}, true
		}
	}
	return model.SignalEvent{}, false
}

func buildOBV(obv []float64) model.OBV {
	wma := WMA(obv, 20)
	sma := SMA(obv, 20)
	v, w, s := last(obv), last(wma), last(sma)
	var events []model.SignalEvent
	if !math.IsNaN(w) && len(obv) >= 2 && len(wma) >= 2 {
		pv, pw := obv[len(obv)-2], wma[len(wma)-2]
		if !math.IsNaN(pw) {
			if pv <= pw && v > w {
				events = append(events, model.SignalEvent{Indicator: "obv", Type: model.EventVolumeCross, Direction: model.DirectionBullish, Strength: model.StrengthModerate, Scalar: v})
			}
			if pv >= pw && v < w {
				events = append(events, model.SignalEvent{Indicator: "obv", Type: model.EventVolumeCross, Direction: model.DirectionBearish, Strength: model.StrengthModerate, Scalar: v})
			}
		}
	}
	return model.OBV{Value: v, WMA20: w, SMA20: s, Events: events}
}

func buildCMF(cmf []float64) model.ScalarSeries {
	v := last(cmf)
	if math.IsNaN(v) {
		return model.ScalarSeries{Value: 0}
	}
	var events []model.SignalEvent
	switch {
	case v >= 0.1:
		events = append(events, model.SignalEvent{Indicator: "cmf20", Type: model.EventZone, Direction: model.DirectionBullish, Strength: strengthFromDistance(v-0.1, 0.05, 0.15, 0.25), Scalar: v})
	case v <= -0.1:
		events = append(events, model.SignalEvent{Indicator: "cmf20", Type: model.EventZone, Direction: model.DirectionBearish, Strength: strengthFromDistance(-0.1-v, 0.05, 0.15, 0.25), Scalar: v})
	}
	return model.ScalarSeries{Value: v, Events: events}
}

func buildADX(adx []float64) model.ScalarSeries {
	v := last(adx)
	if math.IsNaN(v) {
		return model.ScalarSeries{Value: 0}
	}
	// ADX is a trend-strength gauge, not itself directional; it fires no
	// directional events, only feeding SignalGenerator's confidence model.
	return model.ScalarSeries{Value: v}
}
