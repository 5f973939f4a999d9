package signal

import (
	"math"
	"testing"
	"time"

	"github.com/sniperterm/futuresengine/internal/model"
)

func TestGenerateBullishSignalIsAuthorized(t *testing.T) {
	g := NewGenerator(DefaultConfig())
	in := Input{
		Instrument: "BTC-USDT",
		Timeframe:  "5m",
		Primary: model.IndicatorBundle{
			RSI14:      model.ScalarSeries{Value: 65, Events: []model.SignalEvent{{Indicator: "rsi14", Type: model.EventZone, Direction: model.DirectionBullish, Strength: model.StrengthStrong}}},
			MACD:       model.MACD{Events: []model.SignalEvent{{Indicator: "macd", Type: model.EventZeroCross, Direction: model.DirectionBullish, Strength: model.StrengthStrong}}},
			Bollinger:  model.Bollinger{Events: []model.SignalEvent{{Indicator: "bollinger", Type: model.EventBreakout, Direction: model.DirectionBullish, Strength: model.StrengthStrong}}},
			EMATriplet: model.EMATriplet{Events: []model.SignalEvent{{Indicator: "ema_triplet", Type: model.EventGoldenCross, Direction: model.DirectionBullish, Strength: model.StrengthStrong}}},
			ADX14:      model.ScalarSeries{Value: 30},
			ATRPercent: 1.5,
		},
		Regime: model.RegimeTrendingLong,
		Now:    time.Now(),
	}
	cs := g.Generate(in)

	if cs.Score <= 0 {
		t.Fatalf("expected positive score, got %v", cs.Score)
	}
	if cs.Side != model.SideLong {
		t.Errorf("side = %v, want SideLong", cs.Side)
	}
	if !cs.Authorized {
		t.Errorf("expected signal to be authorized, blocked by %v", cs.BlockReasons)
	}
	if !cs.Valid() {
		t.Errorf("CompositeSignal fails its own invariants: %+v", cs)
	}
}

func TestGenerateWeakSignalIsBlockedByDeadZone(t *testing.T) {
	g := NewGenerator(DefaultConfig())
	in := Input{
		Instrument: "BTC-USDT",
		Timeframe:  "5m",
		Primary: model.IndicatorBundle{
			RSI14: model.ScalarSeries{Value: 52, Events: []model.SignalEvent{{Indicator: "rsi14", Type: model.EventZone, Direction: model.DirectionBullish, Strength: model.StrengthWeak}}},
			ADX14: model.ScalarSeries{Value: 30},
		},
		Now: time.Now(),
	}
	cs := g.Generate(in)

	if cs.Authorized {
		t.Fatalf("expected a weak signal to be blocked, got authorized with score %v", cs.Score)
	}
	found := false
	for _, r := range cs.BlockReasons {
		if r == "dead_zone" {
			found = true
		}
	}
	if !found {
		t.Errorf("block reasons = %v, want dead_zone present", cs.BlockReasons)
	}
}

func TestScoreNeverExceedsTotalCap(t *testing.T) {
	g := NewGenerator(DefaultConfig())
	events := []model.SignalEvent{}
	for _, ind := range []string{"rsi14", "stochrsi", "williamsr14", "stochastic", "kdj", "macd", "bollinger", "ema_triplet", "ao", "obv", "cmf20"} {
		events = append(events, model.SignalEvent{Indicator: ind, Type: model.EventDivergenceBullish, Direction: model.DirectionBullish, Strength: model.StrengthExtreme})
	}
	bundle := model.IndicatorBundle{RSI14: model.ScalarSeries{Events: events}, ADX14: model.ScalarSeries{Value: 30}}
	cs := g.Generate(Input{Instrument: "BTC-USDT", Timeframe: "5m", Primary: bundle, Now: time.Now()})

	if math.Abs(cs.Score) > TotalCap {
		t.Errorf("score %v exceeds total cap %v", cs.Score, TotalCap)
	}
}

func TestConvergenceGradeARequiresFullAlignment(t *testing.T) {
	g := NewGenerator(DefaultConfig())
	bullish := func() model.IndicatorBundle {
		return model.IndicatorBundle{RSI14: model.ScalarSeries{Events: []model.SignalEvent{{Indicator: "rsi14", Type: model.EventZone, Direction: model.DirectionBullish, Strength: model.StrengthStrong}}}}
	}
	in := Input{
		Other: map[string]model.IndicatorBundle{"15m": bullish(), "1h": bullish()},
	}
	result, factor := g.convergence(model.SideLong, in)
	if result.grade != model.GradeA {
		t.Errorf("grade = %v, want GradeA", result.grade)
	}
	if factor != 1.4 {
		t.Errorf("factor = %v, want 1.4", factor)
	}
}
