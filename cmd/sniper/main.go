// Command sniper boots the single-venue futures trading engine: it wires
// the Gateway, MarketStore, IndicatorEngine, SignalGenerator, Screener,
// RiskAgent, SafetyLayer, Executor, PositionManager, and AuditLog together
// and runs them under a Supervisor until interrupted. Grounded on the
// teacher's main.go boot sequence (CoinManager/hub construction, goroutine
// fan-out, /healthz), generalized to the component registry this
// specification's broader surface needs.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
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
	"github.com/sniperterm/futuresengine/internal/screener"
	tradesignal "github.com/sniperterm/futuresengine/internal/signal"
	"github.com/sniperterm/futuresengine/internal/supervisor"
	"github.com/sniperterm/futuresengine/internal/telemetry"
)

func main() {
	cfg := config.Load()

	auditLog, err := audit.Open("sniper-audit.jsonl")
	if err != nil {
		log.Fatalf("sniper: opening audit log: %v", err)
	}
	defer auditLog.Close()

	riskState := model.NewRiskState(decimal.NewFromFloat(cfg.InitialBalance))
	store := marketstore.New()

	restClient := gateway.NewRESTClient("https://futures.example-venue.com", gateway.Credentials{
		APIKey:     cfg.VenueAPIKey,
		APISecret:  cfg.VenueAPISecret,
		Passphrase: cfg.VenuePassphrase,
		KeyVersion: cfg.VenueKeyVersion,
	})
	limiter := gateway.NewTokenBucket(20, 10)
	breaker := gateway.NewBreaker(5, 30*time.Second)
	orderClient := gateway.NewOrderClient(restClient, limiter, breaker)

	stream := gateway.NewStream(func(topics []string, token string) string {
		return fmt.Sprintf("wss://futures.example-venue.com/ws?token=%s", token)
	}, restClient.StreamToken)

	signalGen := tradesignal.NewGenerator(tradesignal.Config{
		MinScore:      cfg.SignalMinScore,
		StrongScore:   cfg.SignalStrongScore,
		ExtremeScore:  cfg.SignalExtremeScore,
		MinConfidence: cfg.SignalMinConfidence,
		MinIndicators: cfg.SignalMinIndicators,
		DeadZone:      20,
		MinConfluence: 0.55,
		RequireTrend:  false,
	})

	riskAgent := risk.NewAgent(*cfg)
	safetyLayer := safety.NewLayer(*cfg)
	posManager := position.NewManager(position.Config{
		BreakEvenActivationROI: cfg.BreakEvenActivation,
		BreakEvenBuffer:        cfg.BreakEvenBuffer,
		TrailingActivationROI:  cfg.TrailingActivation,
		TrailingDistance:       cfg.TrailingDistance,
		TrailingStep:           cfg.TrailingStep,
		FeeRate:                0.0004,
		TrailingEnabled:        true,
		BreakEvenEnabled:       true,
	})
	executor := execution.NewExecutor(orderClient, execution.Config{
		EntryLevel:     9,
		SlippageCapBps: 15,
		IdempotencyTTL: 30 * time.Second,
	})

	if err := safetyLayer.GuardLiveMode(cfg.Mode == config.ModeLive); err != nil {
		log.Fatalf("sniper: %v", err)
	}

	hub := telemetry.NewHub()

	pipeline := &tradingPipeline{
		cfg:         cfg,
		store:       store,
		riskAgent:   riskAgent,
		safety:      safetyLayer,
		executor:    executor,
		posManager:  posManager,
		riskState:   riskState,
		auditLog:    auditLog,
		orderClient: orderClient,
		hub:         hub,
	}

	instruments := []string{"BTC-USDT", "ETH-USDT", "SOL-USDT"}
	scr := screener.New(screener.Config{
		Cadence:           5 * time.Second,
		BatchSize:         5,
		TopM:              3,
		InstrumentRefresh: 60,
		HTFRefresh:        12,
		Timeframe:         "5m",
		HTFTimeframes:     cfg.MTFHTFTimeframes,
		TailLength:        200,
	}, store, signalGen, func(ctx context.Context) ([]string, error) {
		return instruments, nil
	})

	sup := supervisor.New(fmt.Sprintf(":%d", cfg.Port))
	sup.Register(streamComponent{stream: stream})
	sup.Register(screenerComponent{screener: scr, handle: pipeline.handleSignal})
	sup.Register(positionMonitorComponent{pipeline: pipeline})
	sup.Register(&telemetry.Component{Hub: hub, Addr: fmt.Sprintf(":%d", cfg.TelemetryPort)})

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	log.Printf("sniper: starting in %s mode on port %d", cfg.Mode, cfg.Port)
	if err := sup.Run(ctx); err != nil {
		log.Printf("sniper: shut down with error: %v", err)
	}
}

type streamComponent struct {
	stream *gateway.Stream
}

func (c streamComponent) Name() string { return "gateway_stream" }
func (c streamComponent) Run(ctx context.Context) error {
	return c.stream.Run(ctx)
}

type screenerComponent struct {
	screener *screener.Screener
	handle   func(model.CompositeSignal)
}

func (c screenerComponent) Name() string { return "screener" }
func (c screenerComponent) Run(ctx context.Context) error {
	c.screener.Run(ctx, c.handle)
	return nil
}

type positionMonitorComponent struct {
	pipeline *tradingPipeline
}

func (c positionMonitorComponent) Name() string { return "position_monitor" }
func (c positionMonitorComponent) Run(ctx context.Context) error {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			c.pipeline.tickPositions(ctx)
		}
	}
}
