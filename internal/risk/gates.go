package risk

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/sniperterm/futuresengine/internal/config"
	"github.com/sniperterm/futuresengine/internal/model"
)

// Intent is the proposed trade RiskAgent evaluates: a CompositeSignal
// resolved to a concrete side, entry price, and contract specs. Executor
// builds the actual OrderIntent only after Decision.Approved.
type Intent struct {
	Instrument         string
	Side               model.Side
	Signal             model.CompositeSignal
	EntryPrice         decimal.Decimal
	ContractMultiplier decimal.Decimal
	LotSize            decimal.Decimal
	ATRPercent         float64
	MaintenanceMargin  decimal.Decimal
	FeeRate            decimal.Decimal
	PositionPercent    decimal.Decimal // fraction of equity to risk, e.g. 0.02
}

// Decision is RiskAgent.Validate's verdict: either approved with concrete
// sizing/leverage/SL/TP, or rejected with an ordered list of gate-failure
// reasons (spec §4.6's gate table, evaluated in full rather than
// short-circuited, so a caller can log every reason a signal was blocked).
type Decision struct {
	Approved      bool
	Reasons       []string
	Leverage      int
	Size          decimal.Decimal
	StopLoss      decimal.Decimal
	TakeProfit    decimal.Decimal
	Notional      decimal.Decimal
}

// Agent is the RiskAgent: a pure evaluator over an Intent and the current
// RiskState, configured from the ambient Config.
type Agent struct {
	cfg config.Config
}

func NewAgent(cfg config.Config) *Agent {
	return &Agent{cfg: cfg}
}

// Validate runs the full 8-gate table in order, grounded on the teacher's
// GlobalExposureGuard.CanEnter (concurrent-count + notional gates) and
// ExecuteTrade's ordered duplicate/loss/position/chaos/slippage checks.
func (a *Agent) Validate(in Intent, state *model.RiskState, now time.Time) Decision {
	leverage := LeverageFromATR(in.ATRPercent, a.cfg.LeverageMin, a.cfg.LeverageMax)
	notional := state.CurrentEquity.Mul(in.PositionPercent)
	size := Sizing(state.CurrentEquity, in.PositionPercent, leverage, in.EntryPrice, in.ContractMultiplier, in.LotSize)

	stopROI := decimal.NewFromFloat(a.cfg.StopLossROI)
	tpROI := decimal.NewFromFloat(a.cfg.TakeProfitROI)
	stop := StopLossPrice(in.EntryPrice, in.Side, stopROI, leverage)
	tp := TakeProfitPrice(in.EntryPrice, in.Side, tpROI, leverage)

	d := Decision{Leverage: leverage, Size: size, StopLoss: stop, TakeProfit: tp, Notional: notional, Approved: true}

	if notional.GreaterThan(decimal.NewFromFloat(a.cfg.MaxPositionSizeUSD)) {
		d.reject("position_size")
	}

	if len(state.OpenPositions) >= a.cfg.MaxOpenPositions {
		d.reject("max_positions")
	}

	if leverage < a.cfg.LeverageMin || leverage > a.cfg.LeverageMax {
		d.reject("leverage")
	}

	drawdown := state.DrawdownPercent()
	if drawdown.GreaterThanOrEqual(decimal.NewFromFloat(a.cfg.MaxDailyDrawdown / 100.0)) {
		d.reject("daily_drawdown")
	}

	if state.ConsecutiveLosses >= a.cfg.MaxConsecutiveLosses {
		d.reject("consecutive_losses")
	}

	totalExposure := notional
	for _, p := range state.OpenPositions {
		totalExposure = totalExposure.Add(p.Notional)
	}
	maxTotalExposure := decimal.NewFromFloat(a.cfg.MaxPositionSizeUSD).Mul(decimal.NewFromInt(int64(a.cfg.MaxOpenPositions)))
	if totalExposure.GreaterThan(maxTotalExposure) {
		d.reject("total_exposure")
	}

	liqBuffer := LiquidationBuffer(leverage, in.MaintenanceMargin)
	const minLiquidationBuffer = 0.02 // never enter within 2% of the liquidation price
	if liqBuffer.LessThan(decimal.NewFromFloat(minLiquidationBuffer)) {
		d.reject("liquidation_buffer")
	}

	beROI := BreakEvenROI(in.FeeRate, leverage, decimal.NewFromFloat(a.cfg.BreakEvenBuffer))
	if tpROI.LessThan(beROI) {
		d.reject("break_even")
	}

	return d
}

func (d *Decision) reject(reason string) {
	d.Approved = false
	d.Reasons = append(d.Reasons, reason)
}
