// Package execution implements the Executor: order-book-aware entry price
// selection, a slippage cap, and the sequenced leverage -> limit-entry ->
// reduce-only-stop -> reduce-only-take-profit placement with compensating
// cancellation on failure (spec §4.8). Grounded on the teacher's
// ExecuteTrade smart-offset maker sequence (book-ticker depth read,
// tick-adjusted limit order, stealth-walk, market fallback) and its
// reduce-only SL/TP placement in monitorPositions/MoveStopToBreakEven.
package execution

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sniperterm/futuresengine/internal/model"
)

// PriceLevel is one bid/ask rung of an order book snapshot.
type PriceLevel struct {
	Price decimal.Decimal
	Size  decimal.Decimal
}

// VenueClient is the subset of gateway operations Executor needs, kept as
// an interface so Executor is independently testable against a fake.
type VenueClient interface {
	SetLeverage(ctx context.Context, instrument string, leverage int) error
	PlaceLimitOrder(ctx context.Context, clientOrderID, instrument string, side model.Side, size, price decimal.Decimal) (venueOrderID string, err error)
	PlaceReduceOnlyStop(ctx context.Context, clientOrderID, instrument string, side model.Side, size, stopPrice decimal.Decimal) (venueOrderID string, err error)
	PlaceReduceOnlyTakeProfit(ctx context.Context, clientOrderID, instrument string, side model.Side, size, tpPrice decimal.Decimal) (venueOrderID string, err error)
	CancelOrder(ctx context.Context, instrument, venueOrderID string) error
	OrderBook(ctx context.Context, instrument string, depth int) (bids, asks []PriceLevel, err error)
}

// Config tunes entry-price selection and slippage tolerance.
type Config struct {
	EntryLevel    int     // which bid/ask rung to post at (1-indexed)
	SlippageCapBps float64 // reject entry if the chosen level sits more than this many bps from the book mid
	IdempotencyTTL time.Duration
}

type Executor struct {
	client VenueClient
	cfg    Config
}

func NewExecutor(client VenueClient, cfg Config) *Executor {
	return &Executor{client: client, cfg: cfg}
}

// ErrSlippageExceeded is returned when the selected Nth-level price's
// distance from the book mid exceeds Config.SlippageCapBps.
var ErrSlippageExceeded = errors.New("slippage_exceeded")

// SelectEntryPrice walks the book to the configured Nth level on the side
// that fills the position (bids for a long entry, asks for a short entry)
// and rejects the entry if that level's distance from the book mid —
// |chosen - mid| / mid, per spec §4.8 — exceeds SlippageCapBps.
func (e *Executor) SelectEntryPrice(side model.Side, bids, asks []PriceLevel) (decimal.Decimal, error) {
	if len(bids) == 0 || len(asks) == 0 {
		return decimal.Zero, fmt.Errorf("empty order book")
	}
	levels := bids
	if side == model.SideShort {
		levels = asks
	}
	idx := e.cfg.EntryLevel - 1
	if idx < 0 || idx >= len(levels) {
		return decimal.Zero, fmt.Errorf("entry level %d unavailable: book has %d levels", e.cfg.EntryLevel, len(levels))
	}
	chosen := levels[idx].Price

	bestBid, bestAsk := bids[0].Price, asks[0].Price
	mid := bestBid.Add(bestAsk).Div(decimal.NewFromInt(2))
	if mid.IsZero() {
		return decimal.Zero, fmt.Errorf("zero mid price")
	}
	slippageBps := chosen.Sub(mid).Abs().Div(mid).Mul(decimal.NewFromInt(10000))
	if slippageBps.GreaterThan(decimal.NewFromFloat(e.cfg.SlippageCapBps)) {
		return decimal.Zero, fmt.Errorf("%w: %.2fbps exceeds cap %.2fbps", ErrSlippageExceeded, slippageBps.InexactFloat64(), e.cfg.SlippageCapBps)
	}
	return chosen, nil
}

// PlacedOrder records one leg of a sequenced placement for compensating
// cancellation.
type PlacedOrder struct {
	VenueOrderID string
	Instrument   string
}

// Submit runs the sequenced leverage -> limit-entry -> reduce-only-SL ->
// reduce-only-TP placement. If any leg after the entry fails, it cancels
// every previously placed leg (including the entry) before returning the
// error, so a partial submission never leaves a naked position.
func (e *Executor) Submit(ctx context.Context, intent model.OrderIntent, side model.Side, stopPrice, tpPrice decimal.Decimal) ([]PlacedOrder, error) {
	var placed []PlacedOrder

	if err := e.client.SetLeverage(ctx, intent.Instrument, intent.Leverage); err != nil {
		return nil, fmt.Errorf("set leverage: %w", err)
	}

	entryID, err := e.client.PlaceLimitOrder(ctx, intent.ClientOrderID, intent.Instrument, side, intent.Size, intent.LimitPrice)
	if err != nil {
		return nil, fmt.Errorf("place entry: %w", err)
	}
	placed = append(placed, PlacedOrder{VenueOrderID: entryID, Instrument: intent.Instrument})

	exitSide := model.SideShort
	if side == model.SideShort {
		exitSide = model.SideLong
	}

	slID, err := e.client.PlaceReduceOnlyStop(ctx, intent.ClientOrderID+"-sl", intent.Instrument, exitSide, intent.Size, stopPrice)
	if err != nil {
		e.compensate(ctx, placed)
		return nil, fmt.Errorf("place stop-loss: %w", err)
	}
	placed = append(placed, PlacedOrder{VenueOrderID: slID, Instrument: intent.Instrument})

	tpID, err := e.client.PlaceReduceOnlyTakeProfit(ctx, intent.ClientOrderID+"-tp", intent.Instrument, exitSide, intent.Size, tpPrice)
	if err != nil {
		e.compensate(ctx, placed)
		return nil, fmt.Errorf("place take-profit: %w", err)
	}
	placed = append(placed, PlacedOrder{VenueOrderID: tpID, Instrument: intent.Instrument})

	return placed, nil
}

// compensate cancels every leg already placed, best-effort, in reverse
// order, so an entry that was about to get stopped/taken is unwound first.
func (e *Executor) compensate(ctx context.Context, placed []PlacedOrder) {
	for i := len(placed) - 1; i >= 0; i-- {
		_ = e.client.CancelOrder(ctx, placed[i].Instrument, placed[i].VenueOrderID)
	}
}
