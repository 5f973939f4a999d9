// Package model holds the shared data types passed between every
// component of the trading engine: candles, indicator bundles, composite
// signals, positions, order intents, and risk state.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Candle is a single OHLCV bar for one instrument/timeframe boundary.
type Candle struct {
	Boundary time.Time
	Open     decimal.Decimal
	High     decimal.Decimal
	Low      decimal.Decimal
	Close    decimal.Decimal
	Volume   decimal.Decimal
}

// Valid reports whether the candle satisfies the ingest invariants:
// low <= min(open,close) <= max(open,close) <= high, volume >= 0, and not
// all-zero OHLC (a corrupt row).
func (c Candle) Valid() bool {
	if c.Volume.IsNegative() {
		return false
	}
	if c.Open.IsZero() && c.High.IsZero() && c.Low.IsZero() && c.Close.IsZero() {
		return false
	}
	lo := decimal.Min(c.Open, c.Close)
	hi := decimal.Max(c.Open, c.Close)
	if c.Low.GreaterThan(lo) || hi.GreaterThan(c.High) {
		return false
	}
	return true
}

// CloseFloat returns the close price as float64, for use inside the
// indicator engine's internal floating-point math only.
func (c Candle) CloseFloat() float64 {
	f, _ := c.Close.Float64()
	return f
}
