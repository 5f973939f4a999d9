package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// MicrostructureSnapshot is an immutable point-in-time order-book/trade-flow
// reading for one instrument. Grounded on the teacher's book-ticker-driven
// slippage guard (execution_service.go NewListBookTickersService).
type MicrostructureSnapshot struct {
	Instrument    string
	BestBid       decimal.Decimal
	BestAsk       decimal.Decimal
	Spread        decimal.Decimal
	SpreadBps     decimal.Decimal
	DepthImbalance float64 // (-1..1), bid-heavy positive
	BuySellRatio  float64
	FundingRate   decimal.Decimal
	LastTradeAt   time.Time
	capturedAt    time.Time
}

// NewMicrostructureSnapshot stamps the snapshot with its capture time.
func NewMicrostructureSnapshot(inst string, bid, ask decimal.Decimal) MicrostructureSnapshot {
	spread := ask.Sub(bid)
	mid := bid.Add(ask).Div(decimal.NewFromInt(2))
	var bps decimal.Decimal
	if mid.IsPositive() {
		bps = spread.Div(mid).Mul(decimal.NewFromInt(10000))
	}
	return MicrostructureSnapshot{
		Instrument: inst,
		BestBid:    bid,
		BestAsk:    ask,
		Spread:     spread,
		SpreadBps:  bps,
		capturedAt: time.Now(),
	}
}

// Stale reports whether the snapshot is older than the given freshness
// bound. Per spec §3, a stale snapshot must be treated as absent rather
// than neutral by the caller.
func (m MicrostructureSnapshot) Stale(freshness time.Duration) bool {
	if m.capturedAt.IsZero() {
		return true
	}
	return time.Since(m.capturedAt) > freshness
}

// Mid returns the midpoint price.
func (m MicrostructureSnapshot) Mid() decimal.Decimal {
	return m.BestBid.Add(m.BestAsk).Div(decimal.NewFromInt(2))
}
