// Package safety implements SafetyLayer: per-feature kill switches, a burst
// limiter, an hourly trade cap, a post-loss cooldown, the drawdown circuit
// breaker, and the paper/live mode guard (spec §4.9). Grounded on the
// teacher's chaosModeUntil global kill switch (PredatorEngine /
// ExecutionService), the MaxDailyLoss breaker in CheckBalance, and
// SafetyConfig.DryRun/Enabled as the paper/live guard shape.
package safety

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sniperterm/futuresengine/internal/config"
	"github.com/sniperterm/futuresengine/internal/model"
)

// Layer is the process-wide safety gate, consulted immediately before order
// submission — after RiskAgent has already approved an Intent.
type Layer struct {
	cfg config.Config
}

func NewLayer(cfg config.Config) *Layer {
	return &Layer{cfg: cfg}
}

// Check runs every safety gate in order and returns the first failure
// reason, or "" if every gate passes.
func (l *Layer) Check(state *model.RiskState, featureKey model.FeatureKey, now time.Time) string {
	if reason := l.checkKillSwitch(state, featureKey, now); reason != "" {
		return reason
	}
	if reason := l.checkBurstLimit(state, now); reason != "" {
		return reason
	}
	if reason := l.checkHourlyCap(state, now); reason != "" {
		return reason
	}
	if reason := l.checkLossCooldown(state, now); reason != "" {
		return reason
	}
	if reason := l.checkDrawdownBreaker(state, now); reason != "" {
		return reason
	}
	return ""
}

func (l *Layer) checkKillSwitch(state *model.RiskState, key model.FeatureKey, now time.Time) string {
	if ks, ok := state.KillSwitches[key]; ok && ks.Active(now) {
		return "killswitch_active"
	}
	return ""
}

func (l *Layer) checkBurstLimit(state *model.RiskState, now time.Time) string {
	if len(state.RecentTradeStarts) == 0 {
		return ""
	}
	last := state.RecentTradeStarts[len(state.RecentTradeStarts)-1]
	if now.Sub(last) < l.cfg.BurstRateLimit {
		return "burst_limit"
	}
	return ""
}

func (l *Layer) checkHourlyCap(state *model.RiskState, now time.Time) string {
	state.PruneTradeStarts(now, time.Hour)
	if len(state.RecentTradeStarts) >= l.cfg.MaxHourlyTrades {
		return "hourly_cap"
	}
	return ""
}

func (l *Layer) checkLossCooldown(state *model.RiskState, now time.Time) string {
	if state.ConsecutiveLosses == 0 {
		return ""
	}
	if now.Before(state.SafetyModeUntil) {
		return "loss_cooldown"
	}
	return ""
}

// checkDrawdownBreaker forces emergency mode (SafetyModeUntil pushed far
// into the future) once the daily drawdown cap is breached, mirroring the
// teacher's permanent-until-restart MaxDailyLoss kill switch.
func (l *Layer) checkDrawdownBreaker(state *model.RiskState, now time.Time) string {
	cap := decimal.NewFromFloat(l.cfg.MaxDailyDrawdown / 100.0)
	if state.DrawdownPercent().GreaterThanOrEqual(cap) {
		state.SafetyModeUntil = now.Add(24 * time.Hour)
		return "drawdown_breaker"
	}
	return ""
}

// TriggerKillSwitch disables a FeatureKey until now+cooldown and counts one
// more recent loss against it.
func (l *Layer) TriggerKillSwitch(state *model.RiskState, key model.FeatureKey, now time.Time, cooldown time.Duration) {
	ks := state.KillSwitches[key]
	ks.DisabledUntil = now.Add(cooldown)
	ks.RecentLosses++
	state.KillSwitches[key] = ks
}

// RecordTradeStart appends a trade-start timestamp for burst/hourly
// tracking.
func (l *Layer) RecordTradeStart(state *model.RiskState, now time.Time) {
	state.RecentTradeStarts = append(state.RecentTradeStarts, now)
}

// GuardLiveMode enforces the never-silently-live-trade invariant: any
// attempt to submit a live order while the engine is not in live mode is
// rejected outright rather than silently downgraded, since config.Load
// already performed the one legitimate live->paper demotion at boot.
func (l *Layer) GuardLiveMode(wantLive bool) error {
	if wantLive && l.cfg.Mode != config.ModeLive {
		return fmt.Errorf("refusing live order submission: engine is in %s mode", l.cfg.Mode)
	}
	return nil
}
