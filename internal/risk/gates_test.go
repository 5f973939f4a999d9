package risk

import (
	"testing"
	"time"

	"github.com/sniperterm/futuresengine/internal/config"
	"github.com/sniperterm/futuresengine/internal/model"
)

func baseConfig() config.Config {
	return config.Config{
		LeverageMin:          3,
		LeverageMax:          20,
		StopLossROI:          10,
		TakeProfitROI:        30,
		BreakEvenBuffer:      0.2,
		MaxOpenPositions:     3,
		MaxPositionSizeUSD:   2000,
		MaxDailyDrawdown:     5,
		MaxConsecutiveLosses: 4,
	}
}

func baseIntent() Intent {
	return Intent{
		Instrument:         "BTC-USDT",
		Side:               model.SideLong,
		EntryPrice:         d("100"),
		ContractMultiplier: d("1"),
		LotSize:            d("0.001"),
		ATRPercent:         0.5,
		MaintenanceMargin:  d("0.005"),
		FeeRate:            d("0.0004"),
		PositionPercent:    d("0.02"),
	}
}

func TestValidateApproves(t *testing.T) {
	agent := NewAgent(baseConfig())
	state := model.NewRiskState(d("10000"))

	decision := agent.Validate(baseIntent(), state, time.Now())
	if !decision.Approved {
		t.Fatalf("expected approval, got reasons %v", decision.Reasons)
	}
	if decision.Leverage != 20 {
		t.Errorf("leverage = %d, want 20 (ATR 0.5%% tier)", decision.Leverage)
	}
}

func TestValidateRejectsMaxPositions(t *testing.T) {
	cfg := baseConfig()
	agent := NewAgent(cfg)
	state := model.NewRiskState(d("10000"))
	state.OpenPositions["ETH-USDT"] = &model.Position{Instrument: "ETH-USDT", Notional: d("500")}
	state.OpenPositions["SOL-USDT"] = &model.Position{Instrument: "SOL-USDT", Notional: d("500")}
	state.OpenPositions["XRP-USDT"] = &model.Position{Instrument: "XRP-USDT", Notional: d("500")}

	decision := agent.Validate(baseIntent(), state, time.Now())
	if decision.Approved {
		t.Fatal("expected rejection at max_positions")
	}
	if !containsReason(decision.Reasons, "max_positions") {
		t.Errorf("reasons = %v, want to include max_positions", decision.Reasons)
	}
}

func TestValidateRejectsConsecutiveLosses(t *testing.T) {
	agent := NewAgent(baseConfig())
	state := model.NewRiskState(d("10000"))
	state.ConsecutiveLosses = 4

	decision := agent.Validate(baseIntent(), state, time.Now())
	if decision.Approved {
		t.Fatal("expected rejection at consecutive_losses")
	}
	if !containsReason(decision.Reasons, "consecutive_losses") {
		t.Errorf("reasons = %v, want to include consecutive_losses", decision.Reasons)
	}
}

func TestValidateRejectsDailyDrawdown(t *testing.T) {
	agent := NewAgent(baseConfig())
	state := model.NewRiskState(d("10000"))
	state.CurrentEquity = d("9400") // 6% down, exceeds 5% cap

	decision := agent.Validate(baseIntent(), state, time.Now())
	if decision.Approved {
		t.Fatal("expected rejection at daily_drawdown")
	}
	if !containsReason(decision.Reasons, "daily_drawdown") {
		t.Errorf("reasons = %v, want to include daily_drawdown", decision.Reasons)
	}
}

func TestValidateEvaluatesFullGateTable(t *testing.T) {
	// A signal failing multiple gates at once should report every
	// failure reason, not just the first (spec §4.6: gates are not
	// short-circuited).
	cfg := baseConfig()
	agent := NewAgent(cfg)
	state := model.NewRiskState(d("10000"))
	state.ConsecutiveLosses = 4
	state.CurrentEquity = d("9000")

	decision := agent.Validate(baseIntent(), state, time.Now())
	if decision.Approved {
		t.Fatal("expected rejection")
	}
	if !containsReason(decision.Reasons, "consecutive_losses") || !containsReason(decision.Reasons, "daily_drawdown") {
		t.Errorf("reasons = %v, want both consecutive_losses and daily_drawdown", decision.Reasons)
	}
}

func containsReason(reasons []string, want string) bool {
	for _, r := range reasons {
		if r == want {
			return true
		}
	}
	return false
}
