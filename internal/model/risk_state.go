package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// KillState is the kill-switch record for one FeatureKey.
type KillState struct {
	DisabledUntil time.Time
	RecentWins    int
	RecentLosses  int
}

// Active reports whether the kill switch is currently in effect.
func (k KillState) Active(now time.Time) bool {
	return now.Before(k.DisabledUntil)
}

// RiskState is the process-wide, exclusively-owned-by-RiskAgent-and-
// SafetyLayer mutable risk ledger (spec §3, §9). NewRiskState seeds it from a
// starting equity; it lives in memory only and is neither loaded from nor
// written to disk, so its counters start fresh on every process start.
type RiskState struct {
	CurrentEquity    decimal.Decimal
	PeakEquity       decimal.Decimal
	DailyStartEquity decimal.Decimal
	DailyPnL         decimal.Decimal
	MaxIntradayDrawdown decimal.Decimal

	ConsecutiveLosses int
	SafetyModeUntil   time.Time

	KillSwitches map[FeatureKey]KillState

	RecentTradeStarts []time.Time // rolling window, used by burst/hourly caps

	OpenPositions map[string]*Position // instrument -> position

	DayBoundary time.Time // last rollover boundary applied
}

// NewRiskState builds a fresh RiskState seeded with the given starting
// equity, as would happen on deterministic process init.
func NewRiskState(startingEquity decimal.Decimal) *RiskState {
	return &RiskState{
		CurrentEquity:    startingEquity,
		PeakEquity:       startingEquity,
		DailyStartEquity: startingEquity,
		KillSwitches:     make(map[FeatureKey]KillState),
		OpenPositions:    make(map[string]*Position),
		DayBoundary:      time.Now(),
	}
}

// DrawdownPercent returns the current intra-day drawdown from the
// day's starting equity, as a positive fraction (0.05 == 5% down).
func (r *RiskState) DrawdownPercent() decimal.Decimal {
	if r.DailyStartEquity.IsZero() {
		return decimal.Zero
	}
	drop := r.DailyStartEquity.Sub(r.CurrentEquity)
	if drop.IsNegative() {
		return decimal.Zero
	}
	return drop.Div(r.DailyStartEquity)
}

// RolloverIfNeeded resets the daily P&L and start-of-day equity when the
// wall clock has crossed the configured daily boundary (spec §8: "For
// every trading-day rollover: daily_pnl := 0 and peak_equity_of_day :=
// current_equity").
func (r *RiskState) RolloverIfNeeded(now time.Time, boundary time.Duration) bool {
	if now.Sub(r.DayBoundary) < boundary {
		return false
	}
	r.DailyPnL = decimal.Zero
	r.DailyStartEquity = r.CurrentEquity
	r.DayBoundary = now
	return true
}

// RecordClose applies a closed position's realized P&L to the ledger and
// updates the consecutive-loss counter.
func (r *RiskState) RecordClose(realizedPnL decimal.Decimal) {
	r.CurrentEquity = r.CurrentEquity.Add(realizedPnL)
	r.DailyPnL = r.DailyPnL.Add(realizedPnL)
	if r.CurrentEquity.GreaterThan(r.PeakEquity) {
		r.PeakEquity = r.CurrentEquity
	}
	if realizedPnL.IsNegative() {
		r.ConsecutiveLosses++
	} else if realizedPnL.IsPositive() {
		r.ConsecutiveLosses = 0
	}
}

// PruneTradeStarts drops trade-start timestamps older than window from the
// rolling list, keeping it bounded.
func (r *RiskState) PruneTradeStarts(now time.Time, window time.Duration) {
	cut := now.Add(-window)
	kept := r.RecentTradeStarts[:0]
	for _, t := range r.RecentTradeStarts {
		if t.After(cut) {
			kept = append(kept, t)
		}
	}
	r.RecentTradeStarts = kept
}
