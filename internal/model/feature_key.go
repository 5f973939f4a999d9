package model

import "fmt"

// FeatureKey is a stable fingerprint of a signal archetype in a regime,
// e.g. "bullish_cross@trending". It is the unit of granularity for
// SafetyLayer's per-feature kill switches.
type FeatureKey string

// NewFeatureKey builds a FeatureKey from a signal archetype name and the
// regime it fired in.
func NewFeatureKey(archetype string, regime Regime) FeatureKey {
	tag := "unknown"
	switch regime {
	case RegimeTrendingLong, RegimeTrendingShort:
		tag = "trending"
	case RegimeRanging:
		tag = "ranging"
	case RegimeBreakout:
		tag = "breakout"
	case RegimeVolatile:
		tag = "volatile"
	}
	return FeatureKey(fmt.Sprintf("%s@%s", archetype, tag))
}
