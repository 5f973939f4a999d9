// Package position implements PositionManager: the per-instrument lifecycle
// state machine (Pending -> Submitted -> Open -> Adjusting -> Closing ->
// Closed/Failed), break-even promotion, and staircase trailing with the
// never-untrail invariant (spec §4.7). Grounded on the teacher's
// PredatorPosition/monitorPositions "GREEN GUARD" break-even flow and
// MoveStopToBreakEven, with the trailing-stop ratchet additionally grounded
// on chidi150c-coinbase's updateRunnerTrail — the teacher's own break-even
// logic never ratchets further once set, so the monotonic-trail mechanism
// the specification requires is sourced from the sibling repo.
package position

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/sniperterm/futuresengine/internal/model"
)

// Manager owns the transition logic for one Position at a time; callers
// hold one Manager per open instrument or route through a single Manager
// keyed by instrument — both are safe since Manager carries no state of its
// own beyond the Config it was built with.
type Manager struct {
	breakEvenActivationROI decimal.Decimal
	breakEvenBuffer        decimal.Decimal
	trailingActivationROI  decimal.Decimal
	trailingDistance       decimal.Decimal
	trailingStep           decimal.Decimal
	feeRate                decimal.Decimal
	trailingEnabled        bool
	breakEvenEnabled       bool
}

type Config struct {
	BreakEvenActivationROI float64
	BreakEvenBuffer        float64
	TrailingActivationROI  float64
	TrailingDistance       float64
	TrailingStep           float64
	FeeRate                float64
	TrailingEnabled        bool
	BreakEvenEnabled       bool
}

func NewManager(cfg Config) *Manager {
	return &Manager{
		breakEvenActivationROI: decimal.NewFromFloat(cfg.BreakEvenActivationROI),
		breakEvenBuffer:        decimal.NewFromFloat(cfg.BreakEvenBuffer),
		trailingActivationROI:  decimal.NewFromFloat(cfg.TrailingActivationROI),
		trailingDistance:       decimal.NewFromFloat(cfg.TrailingDistance),
		trailingStep:           decimal.NewFromFloat(cfg.TrailingStep),
		feeRate:                decimal.NewFromFloat(cfg.FeeRate),
		trailingEnabled:        cfg.TrailingEnabled,
		breakEvenEnabled:       cfg.BreakEvenEnabled,
	}
}

// Submit transitions a freshly validated position to Submitted.
func Submit(p *model.Position) error {
	if p.State != model.StatePending {
		return fmt.Errorf("position %s: submit requires Pending, got %s", p.Instrument, p.State)
	}
	p.State = model.StateSubmitted
	return nil
}

// Fill transitions a Submitted position to Open on confirmed fill.
func Fill(p *model.Position, fillPrice decimal.Decimal) error {
	if p.State != model.StateSubmitted {
		return fmt.Errorf("position %s: fill requires Submitted, got %s", p.Instrument, p.State)
	}
	p.Entry = fillPrice
	p.CurrentPrice = fillPrice
	p.InitialStop = p.Stop
	p.State = model.StateOpen
	return nil
}

// Reject transitions a Submitted (or still-Pending) position to Failed,
// e.g. on venue rejection or a cancelled submission.
func Reject(p *model.Position) {
	p.State = model.StateFailed
}

// BeginClose transitions an Open/Adjusting position into Closing.
func BeginClose(p *model.Position) error {
	if p.State != model.StateOpen && p.State != model.StateAdjusting {
		return fmt.Errorf("position %s: close requires Open/Adjusting, got %s", p.Instrument, p.State)
	}
	p.State = model.StateClosing
	return nil
}

// Close finalizes a Closing position.
func Close(p *model.Position) error {
	if p.State != model.StateClosing {
		return fmt.Errorf("position %s: finalize requires Closing, got %s", p.Instrument, p.State)
	}
	p.State = model.StateClosed
	return nil
}

// Tick applies one new current-price observation to an Open/Adjusting
// position: recomputes ROI, tracks the high-water mark, and runs the
// break-even/trailing ladder in order (spec §4.7 steps 1-5). It returns the
// new stop if one was set, or a zero decimal if unchanged.
func (m *Manager) Tick(p *model.Position, currentPrice decimal.Decimal) decimal.Decimal {
	if p.State != model.StateOpen && p.State != model.StateAdjusting {
		return decimal.Zero
	}
	p.CurrentPrice = currentPrice
	roi := p.ROI()
	if roi.GreaterThan(p.HighWaterROI) {
		p.HighWaterROI = roi
	}

	newStop := decimal.Zero

	if m.breakEvenEnabled && !p.BreakEvenActivated && roi.GreaterThanOrEqual(m.breakEvenActivationROI.Div(decimal.NewFromInt(100))) {
		buffer := m.breakEvenBuffer.Add(m.feeRate.Mul(decimal.NewFromInt(2)))
		var candidate decimal.Decimal
		if p.Side == model.SideLong {
			candidate = p.Entry.Mul(decimal.NewFromInt(1).Add(buffer.Div(decimal.NewFromInt(100))))
		} else {
			candidate = p.Entry.Mul(decimal.NewFromInt(1).Sub(buffer.Div(decimal.NewFromInt(100))))
		}
		if p.FavorableMove(candidate) {
			p.Stop = candidate
			p.BreakEvenActivated = true
			p.State = model.StateAdjusting
			newStop = candidate
		}
	}

	if m.trailingEnabled && p.BreakEvenActivated && !p.TrailingActivated &&
		roi.GreaterThanOrEqual(m.trailingActivationROI.Div(decimal.NewFromInt(100))) {
		p.TrailingActivated = true
		p.State = model.StateAdjusting
	}

	if p.TrailingActivated {
		if s := m.trailStep(p, currentPrice); !s.IsZero() {
			newStop = s
		}
	}

	return newStop
}

// trailStep computes a staircase-snapped candidate stop from the current
// price and commits it only if strictly more favorable than the existing
// stop (never-untrail), grounded on chidi150c-coinbase's updateRunnerTrail
// activation-then-ratchet shape.
func (m *Manager) trailStep(p *model.Position, currentPrice decimal.Decimal) decimal.Decimal {
	leverage := decimal.NewFromInt(int64(p.Leverage))
	distFrac := m.trailingDistance.Div(leverage).Div(decimal.NewFromInt(100))
	var raw decimal.Decimal
	if p.Side == model.SideLong {
		raw = currentPrice.Mul(decimal.NewFromInt(1).Sub(distFrac))
	} else {
		raw = currentPrice.Mul(decimal.NewFromInt(1).Add(distFrac))
	}

	// Staircase levels are spaced in trailingStep ROI-percent units of price
	// distance from entry, not raw price, so the ladder scales with leverage
	// the same way the activation/distance thresholds do.
	stepSize := p.Entry.Mul(m.trailingStep).Div(leverage).Div(decimal.NewFromInt(100))
	snapped := snapToStep(raw, p.Entry, stepSize, p.Side)
	if !p.FavorableMove(snapped) || snapped.Equal(p.Stop) {
		return decimal.Zero
	}
	p.Stop = snapped
	return snapped
}

// snapToStep rounds a raw stop price to the nearest stepSize staircase level
// measured from entry (half a step rounds away from entry). The snap alone
// can land on either side of the raw price; trailStep's FavorableMove check
// is what keeps the committed stop from moving backward.
func snapToStep(price, entry, stepSize decimal.Decimal, side model.Side) decimal.Decimal {
	if stepSize.IsZero() {
		return price
	}
	ratio := price.Sub(entry).Div(stepSize)
	return entry.Add(ratio.Round(0).Mul(stepSize))
}
