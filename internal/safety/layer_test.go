package safety

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sniperterm/futuresengine/internal/config"
	"github.com/sniperterm/futuresengine/internal/model"
)

func baseConfig() config.Config {
	return config.Config{
		BurstRateLimit:   2 * time.Second,
		MaxHourlyTrades:  5,
		MaxDailyDrawdown: 5,
		Mode:             config.ModePaper,
	}
}

func TestCheckPassesCleanState(t *testing.T) {
	l := NewLayer(baseConfig())
	state := model.NewRiskState(decimal.NewFromInt(10000))

	if reason := l.Check(state, "bullish_cross@trending", time.Now()); reason != "" {
		t.Fatalf("Check() = %q, want no rejection", reason)
	}
}

func TestCheckKillSwitchBlocksFeature(t *testing.T) {
	l := NewLayer(baseConfig())
	state := model.NewRiskState(decimal.NewFromInt(10000))
	now := time.Now()
	key := model.FeatureKey("bullish_cross@trending")
	l.TriggerKillSwitch(state, key, now, time.Hour)

	if reason := l.Check(state, key, now); reason != "killswitch_active" {
		t.Errorf("Check() = %q, want killswitch_active", reason)
	}
	// A different feature key must be unaffected.
	if reason := l.Check(state, "bearish_cross@ranging", now); reason != "" {
		t.Errorf("Check() for unrelated key = %q, want no rejection", reason)
	}
}

func TestCheckBurstLimit(t *testing.T) {
	l := NewLayer(baseConfig())
	state := model.NewRiskState(decimal.NewFromInt(10000))
	now := time.Now()
	l.RecordTradeStart(state, now)

	if reason := l.Check(state, "k@trending", now.Add(500*time.Millisecond)); reason != "burst_limit" {
		t.Errorf("Check() = %q, want burst_limit", reason)
	}
	if reason := l.Check(state, "k@trending", now.Add(3*time.Second)); reason != "" {
		t.Errorf("Check() after rate limit elapsed = %q, want no rejection", reason)
	}
}

func TestCheckHourlyCap(t *testing.T) {
	l := NewLayer(baseConfig())
	state := model.NewRiskState(decimal.NewFromInt(10000))
	now := time.Now()
	for i := 0; i < 5; i++ {
		l.RecordTradeStart(state, now.Add(-time.Duration(i)*time.Minute))
	}

	if reason := l.Check(state, "k@trending", now); reason != "hourly_cap" {
		t.Errorf("Check() = %q, want hourly_cap", reason)
	}
}

func TestCheckLossCooldown(t *testing.T) {
	l := NewLayer(baseConfig())
	state := model.NewRiskState(decimal.NewFromInt(10000))
	now := time.Now()
	state.ConsecutiveLosses = 1
	state.SafetyModeUntil = now.Add(time.Hour)

	if reason := l.Check(state, "k@trending", now); reason != "loss_cooldown" {
		t.Errorf("Check() = %q, want loss_cooldown", reason)
	}
	if reason := l.Check(state, "k@trending", now.Add(2*time.Hour)); reason != "" {
		t.Errorf("Check() after cooldown elapsed = %q, want no rejection", reason)
	}
}

func TestCheckDrawdownBreakerLatchesSafetyMode(t *testing.T) {
	l := NewLayer(baseConfig())
	state := model.NewRiskState(decimal.NewFromInt(10000))
	state.CurrentEquity = decimal.NewFromInt(9400) // 6% down, >= 5% cap
	now := time.Now()

	if reason := l.Check(state, "k@trending", now); reason != "drawdown_breaker" {
		t.Errorf("Check() = %q, want drawdown_breaker", reason)
	}
	if !state.SafetyModeUntil.After(now) {
		t.Error("expected drawdown breach to push SafetyModeUntil into the future")
	}
}

func TestCheckGateOrderKillSwitchBeforeBurstLimit(t *testing.T) {
	// Both a kill switch and a burst violation are in effect; the kill
	// switch gate runs first and its reason must win.
	l := NewLayer(baseConfig())
	state := model.NewRiskState(decimal.NewFromInt(10000))
	now := time.Now()
	key := model.FeatureKey("k@trending")
	l.TriggerKillSwitch(state, key, now, time.Hour)
	l.RecordTradeStart(state, now)

	if reason := l.Check(state, key, now.Add(200*time.Millisecond)); reason != "killswitch_active" {
		t.Errorf("Check() = %q, want killswitch_active to take priority", reason)
	}
}

func TestGuardLiveModeRefusesLiveWhenNotConfiguredLive(t *testing.T) {
	l := NewLayer(baseConfig()) // Mode: config.ModePaper
	if err := l.GuardLiveMode(true); err == nil {
		t.Error("expected an error requesting live submission while in paper mode")
	}
	if err := l.GuardLiveMode(false); err != nil {
		t.Errorf("paper-mode submission should be allowed, got %v", err)
	}
}

func TestGuardLiveModeAllowsLiveWhenConfiguredLive(t *testing.T) {
	cfg := baseConfig()
	cfg.Mode = config.ModeLive
	l := NewLayer(cfg)
	if err := l.GuardLiveMode(true); err != nil {
		t.Errorf("live submission in live mode should be allowed, got %v", err)
	}
}
