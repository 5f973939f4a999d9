package main

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sniperterm/futuresengine/internal/audit"
	"github.com/sniperterm/futuresengine/internal/config"
	"github.com/sniperterm/futuresengine/internal/execution"
	"github.com/sniperterm/futuresengine/internal/gateway"
	"github.com/sniperterm/futuresengine/internal/marketstore"
	"github.com/sniperterm/futuresengine/internal/model"
	"github.com/sniperterm/futuresengine/internal/position"
	"github.com/sniperterm/futuresengine/internal/risk"
	"github.com/sniperterm/futuresengine/internal/safety"
	"github.com/sniperterm/futuresengine/internal/telemetry"
)

// tradingPipeline carries a candidate CompositeSignal from the Screener
// through RiskAgent and SafetyLayer gating to an Executor submission, and
// separately drives PositionManager.Tick for every open position. Grounded
// on the teacher's ExecuteTrade/monitorPositions split between entry and
// in-flight management.
type tradingPipeline struct {
	cfg         *config.Config
	store       *marketstore.Store
	riskAgent   *risk.Agent
	safety      *safety.Layer
	executor    *execution.Executor
	posManager  *position.Manager
	riskState   *model.RiskState
	auditLog    *audit.Logger
	orderClient *gateway.OrderClient
	hub         *telemetry.Hub

	mu sync.Mutex
}

// handleSignal is invoked by the Screener for each top-ranked candidate.
func (p *tradingPipeline) handleSignal(cs model.CompositeSignal) {
	if !cs.Authorized {
		p.logBlocked(cs)
		return
	}

	_ = p.auditLog.Record(audit.SignalEmitted, cs.Instrument, map[string]any{
		"score":      cs.Score,
		"class":      cs.Class.String(),
		"side":       cs.Side.String(),
		"confidence": cs.Confidence,
	})
	if p.hub != nil {
		p.hub.SignalEmitted(cs)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	now := time.Now()
	if p.riskState.RolloverIfNeeded(now, 24*time.Hour) {
		log.Printf("sniper: daily rollover applied at %s", now.Format(time.RFC3339))
	}

	featureKey := model.NewFeatureKey(dominantArchetypeOf(cs), cs.Regime)
	if reason := p.safety.Check(p.riskState, featureKey, now); reason != "" {
		p.logBlockedReason(cs, reason)
		if reason == "drawdown_breaker" {
			p.closeAllPositionsMarket(context.Background())
		}
		return
	}

	if _, exists := p.riskState.OpenPositions[cs.Instrument]; exists {
		return
	}
	if len(p.riskState.OpenPositions) >= p.cfg.MaxOpenPositions {
		return
	}

	bids, asks, err := p.orderClient.OrderBook(context.Background(), cs.Instrument, 10)
	if err != nil || len(bids) == 0 || len(asks) == 0 {
		log.Printf("sniper: order book unavailable for %s: %v", cs.Instrument, err)
		return
	}
	entryPrice, err := p.executor.SelectEntryPrice(cs.Side, bids, asks)
	if err != nil {
		if errors.Is(err, execution.ErrSlippageExceeded) {
			p.logBlockedReason(cs, "slippage_exceeded")
		} else {
			log.Printf("sniper: entry price rejected for %s: %v", cs.Instrument, err)
		}
		return
	}

	intent := risk.Intent{
		Instrument:         cs.Instrument,
		Side:               cs.Side,
		Signal:             cs,
		EntryPrice:         entryPrice,
		ContractMultiplier: decimal.NewFromInt(1),
		LotSize:            decimal.NewFromFloat(0.001),
		ATRPercent:         2.0,
		MaintenanceMargin:  decimal.NewFromFloat(0.005),
		FeeRate:            decimal.NewFromFloat(0.0004),
		PositionPercent:    decimal.NewFromFloat(0.02),
	}
	decision := p.riskAgent.Validate(intent, p.riskState, now)
	if !decision.Approved {
		for _, reason := range decision.Reasons {
			p.logBlockedReason(cs, reason)
		}
		return
	}

	clientOrderID := model.NewClientOrderID(cs.Instrument, cs.Side, model.OrderLimit,
		decision.Size, entryPrice, decision.StopLoss, cs.FeatureKey, now.Unix()/int64(p.cfg.SignalCooldown.Seconds()+1))

	orderIntent := model.OrderIntent{
		ClientOrderID:     clientOrderID,
		Instrument:        cs.Instrument,
		Side:              cs.Side,
		Type:              model.OrderLimit,
		Size:              decision.Size,
		LimitPrice:        entryPrice,
		StopPrice:         decision.StopLoss,
		Leverage:          decision.Leverage,
		SubmittedAt:       now,
		SignalFingerprint: cs.FeatureKey,
		TTL:               30 * time.Second,
	}

	placed, err := p.executor.Submit(context.Background(), orderIntent, cs.Side, decision.StopLoss, decision.TakeProfit)
	if err != nil {
		log.Printf("sniper: submit failed for %s: %v", cs.Instrument, err)
		return
	}
	_ = p.auditLog.Record(audit.OrderSubmitted, cs.Instrument, map[string]any{
		"client_order_id": clientOrderID,
		"orders":          len(placed),
	})

	pos := &model.Position{
		Instrument:  cs.Instrument,
		Side:        cs.Side,
		Entry:       entryPrice,
		Qty:         decision.Size,
		Leverage:    decision.Leverage,
		Margin:      decision.Notional.Div(decimal.NewFromInt(int64(decision.Leverage))),
		Notional:    decision.Notional,
		Stop:        decision.StopLoss,
		TakeProfit:  decision.TakeProfit,
		InitialStop: decision.StopLoss,
		OpenedAt:    now,
		SignalID:    cs.FeatureKey,
	}
	if err := position.Submit(pos); err != nil {
		log.Printf("sniper: position submit transition rejected for %s: %v", cs.Instrument, err)
		return
	}
	if err := position.Fill(pos, entryPrice); err != nil {
		log.Printf("sniper: position fill transition rejected for %s: %v", cs.Instrument, err)
		return
	}
	p.riskState.OpenPositions[cs.Instrument] = pos
	p.safety.RecordTradeStart(p.riskState, now)

	_ = p.auditLog.Record(audit.PositionOpened, cs.Instrument, map[string]any{
		"side":     cs.Side.String(),
		"entry":    entryPrice.String(),
		"leverage": decision.Leverage,
	})
	if p.hub != nil {
		p.hub.PositionEvent("position_opened", pos)
	}
}

// tickPositions marks every open position to its latest traded price, lets
// PositionManager advance break-even/trailing state, and checks the closed
// bar's low/high against the stop and take-profit — not just its close,
// since an intrabar move can breach either without the close reflecting it
// (spec §4.7 point 6, §8.1: "high >= take-profit => TAKE_PROFIT").
func (p *tradingPipeline) tickPositions(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	drawdownCap := decimal.NewFromFloat(p.cfg.MaxDailyDrawdown / 100.0)
	if p.riskState.DrawdownPercent().GreaterThanOrEqual(drawdownCap) {
		p.closeAllPositionsMarket(ctx)
		return
	}

	for instrument, pos := range p.riskState.OpenPositions {
		tail := p.store.Tail(instrument, "5m", 1)
		if len(tail) == 0 {
			continue
		}
		bar := tail[len(tail)-1]
		pos.CurrentPrice = bar.Close
		p.posManager.Tick(pos, bar.Close)

		if pos.State != model.StateOpen && pos.State != model.StateAdjusting {
			continue
		}

		switch pos.Side {
		case model.SideLong:
			switch {
			case bar.Low.LessThanOrEqual(pos.Stop):
				p.closePositionAt(instrument, pos, pos.Stop)
			case bar.High.GreaterThanOrEqual(pos.TakeProfit):
				p.closePositionAt(instrument, pos, pos.TakeProfit)
			}
		case model.SideShort:
			switch {
			case bar.High.GreaterThanOrEqual(pos.Stop):
				p.closePositionAt(instrument, pos, pos.Stop)
			case bar.Low.LessThanOrEqual(pos.TakeProfit):
				p.closePositionAt(instrument, pos, pos.TakeProfit)
			}
		}
	}
}

// closePositionAt marks the position to the exact trigger price before
// closing, so the realized ROI reflects the stop/take-profit level rather
// than the (possibly different) closing price of the bar that triggered it.
func (p *tradingPipeline) closePositionAt(instrument string, pos *model.Position, exitPrice decimal.Decimal) {
	pos.CurrentPrice = exitPrice
	p.closePosition(instrument, pos, pos.ROI())
}

func (p *tradingPipeline) closePosition(instrument string, pos *model.Position, roi decimal.Decimal) {
	if err := position.BeginClose(pos); err != nil {
		log.Printf("sniper: begin-close rejected for %s: %v", instrument, err)
		return
	}
	if err := position.Close(pos); err != nil {
		log.Printf("sniper: close rejected for %s: %v", instrument, err)
		return
	}
	realizedPnL := roi.Mul(pos.Margin)
	p.riskState.RecordClose(realizedPnL)
	delete(p.riskState.OpenPositions, instrument)

	_ = p.auditLog.Record(audit.PositionClosed, instrument, map[string]any{
		"roi":   roi.String(),
		"side":  pos.Side.String(),
		"entry": pos.Entry.String(),
	})
	if p.hub != nil {
		p.hub.PositionEvent("position_closed", pos)
	}
}

// closeAllPositionsMarket force-closes every open position at its latest
// known price via a market exit, used by the drawdown circuit breaker
// (spec §4.9, §8.5: "all open positions receive market-close intents").
func (p *tradingPipeline) closeAllPositionsMarket(ctx context.Context) {
	for instrument, pos := range p.riskState.OpenPositions {
		if pos.State != model.StateOpen && pos.State != model.StateAdjusting {
			continue
		}
		exitSide := model.SideShort
		if pos.Side == model.SideShort {
			exitSide = model.SideLong
		}
		clientOrderID := model.NewClientOrderID(instrument, pos.Side, model.OrderMarket,
			pos.Qty, decimal.Zero, decimal.Zero, "drawdown_breaker", time.Now().Unix())
		if _, err := p.orderClient.PlaceReduceOnlyStop(ctx, clientOrderID, instrument, exitSide, pos.Qty, pos.CurrentPrice); err != nil {
			log.Printf("sniper: drawdown market-close failed for %s: %v", instrument, err)
			continue
		}
		p.closePositionAt(instrument, pos, pos.CurrentPrice)
		_ = p.auditLog.Record(audit.EmergencyStop, instrument, map[string]any{
			"reason": "drawdown_breaker",
		})
		if p.hub != nil {
			p.hub.PositionEvent("emergency_stop", pos)
		}
	}
}

func (p *tradingPipeline) logBlocked(cs model.CompositeSignal) {
	for _, reason := range cs.BlockReasons {
		p.logBlockedReason(cs, reason)
	}
}

func (p *tradingPipeline) logBlockedReason(cs model.CompositeSignal, reason string) {
	_ = p.auditLog.Record(audit.GateBlocked, cs.Instrument, map[string]any{
		"reason": reason,
		"score":  cs.Score,
	})
}

func dominantArchetypeOf(cs model.CompositeSignal) string {
	if len(cs.Events) == 0 {
		return "composite"
	}
	return cs.Events[0].Indicator
}
