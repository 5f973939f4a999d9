package indicators

import (
	"testing"

	"github.com/sniperterm/futuresengine/internal/model"
)

func hasEvent(events []model.SignalEvent, typ model.EventType, dir model.Direction) bool {
	for _, e := range events {
		if e.Type == typ && e.Direction == dir {
			return true
		}
	}
	return false
}

func TestBuildAOTwinPeaksBearish(t *testing.T) {
	// Two peaks above zero, the more recent one weaker than the one
	// before it, confirmed by the latest bar falling below it.
	ao := []float64{0, 2.0, 1.0, 0.5, 1.2, 0.6, 0.3, 0.1, -0.05}
	bundle := buildAO(ao)
	if !hasEvent(bundle.Events, model.EventTwinPeaks, model.DirectionBearish) {
		t.Errorf("events = %+v, want a bearish EventTwinPeaks", bundle.Events)
	}
}

func TestBuildAOTwinPeaksBullish(t *testing.T) {
	ao := []float64{0, -2.0, -1.0, -0.5, -1.2, -0.6, -0.3, -0.1, 0.05}
	bundle := buildAO(ao)
	if !hasEvent(bundle.Events, model.EventTwinPeaks, model.DirectionBullish) {
		t.Errorf("events = %+v, want a bullish EventTwinPeaks", bundle.Events)
	}
}

func TestBuildAONoTwinPeaksWhenSecondPeakStronger(t *testing.T) {
	// Recent peak stronger than the prior one: momentum building, not
	// fading, so no twin-peaks event should fire.
	ao := []float64{0, 1.0, 0.5, 0.2, 2.0, 1.0, 0.5, 0.2, 0.1}
	bundle := buildAO(ao)
	if hasEvent(bundle.Events, model.EventTwinPeaks, model.DirectionBearish) {
		t.Errorf("events = %+v, want no bearish EventTwinPeaks (second peak was stronger)", bundle.Events)
	}
}
