package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// PositionState is the PositionManager state machine value (spec §4.7).
type PositionState int

const (
	StatePending PositionState = iota
	StateSubmitted
	StateOpen
	StateAdjusting
	StateClosing
	StateClosed
	StateFailed
)

func (s PositionState) String() string {
	switch s {
	case StatePending:
		return "Pending"
	case StateSubmitted:
		return "Submitted"
	case StateOpen:
		return "Open"
	case StateAdjusting:
		return "Adjusting"
	case StateClosing:
		return "Closing"
	case StateClosed:
		return "Closed"
	case StateFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// Position is the per-instrument lifecycle record owned by PositionManager.
type Position struct {
	Instrument string
	Side       Side
	Entry      decimal.Decimal
	Qty        decimal.Decimal
	Leverage   int
	Margin     decimal.Decimal
	Notional   decimal.Decimal

	CurrentPrice decimal.Decimal
	Stop         decimal.Decimal
	TakeProfit   decimal.Decimal
	InitialStop  decimal.Decimal

	BreakEvenActivated bool
	TrailingActivated  bool
	HighWaterROI       decimal.Decimal

	OpenedAt time.Time
	State    PositionState

	// SignalID relates back to the originating CompositeSignal by id, not
	// by an owning pointer graph (spec §9); the signal's lifetime is the
	// audit log, not the position.
	SignalID string
}

// ValidStops checks the ordering invariant: for long, stop < entry <
// take-profit; for short it is mirrored.
func (p Position) ValidStops() bool {
	switch p.Side {
	case SideLong:
		return p.Stop.LessThan(p.Entry) && p.Entry.LessThan(p.TakeProfit)
	case SideShort:
		return p.TakeProfit.LessThan(p.Entry) && p.Entry.LessThan(p.Stop)
	default:
		return true
	}
}

// FavorableMove reports whether moving the stop from p.Stop to candidate
// is in the favorable direction for p.Side (i.e. would never violate the
// never-untrail invariant).
func (p Position) FavorableMove(candidate decimal.Decimal) bool {
	switch p.Side {
	case SideLong:
		return candidate.GreaterThanOrEqual(p.Stop)
	case SideShort:
		return candidate.LessThanOrEqual(p.Stop)
	default:
		return false
	}
}

// ROI returns the current return-on-margin for the position given the
// current price, as a fraction (0.10 == 10%).
func (p Position) ROI() decimal.Decimal {
	if p.Entry.IsZero() || p.Margin.IsZero() {
		return decimal.Zero
	}
	diff := p.CurrentPrice.Sub(p.Entry)
	if p.Side == SideShort {
		diff = diff.Neg()
	}
	pnl := diff.Mul(p.Qty)
	return pnl.Div(p.Margin)
}
