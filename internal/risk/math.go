// Package risk implements RiskAgent: the sizing/leverage/stop math and the
// ordered entry-gate stack that stands between a CompositeSignal and an
// OrderIntent (spec §4.6). Grounded on the teacher's GlobalExposureGuard
// (concurrent-count + total-notional gates) and PredatorEngine's
// ConsecutiveLosses/SafetyModeUntil circuit breaker, with the ATR%-tiered
// leverage table generalized from CalculateDynamicMargin's hardcoded
// per-asset switch.
package risk

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/sniperterm/futuresengine/internal/model"
)

// Sizing computes the raw contract size for a position: notional =
// equity * positionPercent; size = notional * leverage / (price *
// contractMultiplier), rounded down to the venue lot size.
func Sizing(equity, positionPercent decimal.Decimal, leverage int, price, contractMultiplier, lotSize decimal.Decimal) decimal.Decimal {
	if price.IsZero() || contractMultiplier.IsZero() {
		return decimal.Zero
	}
	notional := equity.Mul(positionPercent)
	raw := notional.Mul(decimal.NewFromInt(int64(leverage))).Div(price.Mul(contractMultiplier))
	if lotSize.IsZero() {
		return raw
	}
	steps := raw.Div(lotSize).Floor()
	return steps.Mul(lotSize)
}

// StopLossPrice converts an ROI percent target to an entry-relative stop
// price: price_movement = ROI / leverage / 100.
func StopLossPrice(entry decimal.Decimal, side model.Side, roiPercent decimal.Decimal, leverage int) decimal.Decimal {
	move := priceMovement(entry, roiPercent, leverage)
	if side == model.SideLong {
		return entry.Sub(move)
	}
	return entry.Add(move)
}

// TakeProfitPrice mirrors StopLossPrice in the favorable direction.
func TakeProfitPrice(entry decimal.Decimal, side model.Side, roiPercent decimal.Decimal, leverage int) decimal.Decimal {
	move := priceMovement(entry, roiPercent, leverage)
	if side == model.SideLong {
		return entry.Add(move)
	}
	return entry.Sub(move)
}

func priceMovement(entry, roiPercent decimal.Decimal, leverage int) decimal.Decimal {
	return entry.Mul(roiPercent).Div(decimal.NewFromInt(int64(leverage))).Div(decimal.NewFromInt(100))
}

// LiquidationBuffer computes the distance-from-entry liquidation buffer
// fraction: (1/leverage) * (1 - maintenanceMargin).
func LiquidationBuffer(leverage int, maintenanceMargin decimal.Decimal) decimal.Decimal {
	if leverage == 0 {
		return decimal.Zero
	}
	one := decimal.NewFromInt(1)
	return one.Div(decimal.NewFromInt(int64(leverage))).Mul(one.Sub(maintenanceMargin))
}

// BreakEvenROI computes the minimum ROI percent needed to clear round-trip
// fees plus a fixed buffer: 2*feeRate*leverage*100 + fixedBuffer.
func BreakEvenROI(feeRate decimal.Decimal, leverage int, fixedBufferPercent decimal.Decimal) decimal.Decimal {
	return feeRate.Mul(decimal.NewFromInt(2)).Mul(decimal.NewFromInt(int64(leverage))).Mul(decimal.NewFromInt(100)).Add(fixedBufferPercent)
}

// leverageTier is one ATR%-bucketed leverage band (lower vol -> higher
// leverage), generalized from the teacher's hardcoded per-asset switch in
// CalculateDynamicMargin into a single ATR%-indexed table.
type leverageTier struct {
	maxATRPercent float64
	leverage      int
}

var leverageTiers = []leverageTier{
	{maxATRPercent: 0.5, leverage: 20},
	{maxATRPercent: 1.0, leverage: 15},
	{maxATRPercent: 2.0, leverage: 10},
	{maxATRPercent: 4.0, leverage: 5},
	{maxATRPercent: math.MaxFloat64, leverage: 3},
}

// LeverageFromATR maps an ATR% reading to a leverage tier, clamped to
// [min, max].
func LeverageFromATR(atrPercent float64, min, max int) int {
	lev := leverageTiers[len(leverageTiers)-1].leverage
	for _, t := range leverageTiers {
		if atrPercent <= t.maxATRPercent {
			lev = t.leverage
			break
		}
	}
	if lev < min {
		return min
	}
	if lev > max {
		return max
	}
	return lev
}
