package risk

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/sniperterm/futuresengine/internal/model"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func TestSizing(t *testing.T) {
	cases := []struct {
		name                              string
		equity, positionPercent           decimal.Decimal
		leverage                          int
		price, contractMultiplier, lotSize decimal.Decimal
		want                              decimal.Decimal
	}{
		{
			name: "basic lot-floored size", equity: d("10000"), positionPercent: d("0.02"),
			leverage: 10, price: d("100"), contractMultiplier: d("1"), lotSize: d("0.001"),
			want: d("20"),
		},
		{
			name: "zero price yields zero", equity: d("10000"), positionPercent: d("0.02"),
			leverage: 10, price: d("0"), contractMultiplier: d("1"), lotSize: d("0.001"),
			want: decimal.Zero,
		},
		{
			name: "fractional remainder floored to lot size", equity: d("1000"), positionPercent: d("0.02"),
			leverage: 5, price: d("97"), contractMultiplier: d("1"), lotSize: d("0.01"),
			want: d("1.03"),
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Sizing(tc.equity, tc.positionPercent, tc.leverage, tc.price, tc.contractMultiplier, tc.lotSize)
			if !got.Equal(tc.want) {
				t.Errorf("Sizing() = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestStopLossAndTakeProfitPrice(t *testing.T) {
	entry := d("100")
	roi := d("10")
	leverage := 10

	stopLong := StopLossPrice(entry, model.SideLong, roi, leverage)
	if !stopLong.Equal(d("99")) {
		t.Errorf("long stop = %s, want 99", stopLong)
	}
	tpLong := TakeProfitPrice(entry, model.SideLong, roi, leverage)
	if !tpLong.Equal(d("101")) {
		t.Errorf("long take-profit = %s, want 101", tpLong)
	}

	stopShort := StopLossPrice(entry, model.SideShort, roi, leverage)
	if !stopShort.Equal(d("101")) {
		t.Errorf("short stop = %s, want 101", stopShort)
	}
	tpShort := TakeProfitPrice(entry, model.SideShort, roi, leverage)
	if !tpShort.Equal(d("99")) {
		t.Errorf("short take-profit = %s, want 99", tpShort)
	}
}

func TestLiquidationBuffer(t *testing.T) {
	got := LiquidationBuffer(10, d("0.005"))
	want := d("0.0995")
	if !got.Equal(want) {
		t.Errorf("LiquidationBuffer() = %s, want %s", got, want)
	}
	if got := LiquidationBuffer(0, d("0.005")); !got.IsZero() {
		t.Errorf("LiquidationBuffer(0, ...) = %s, want 0", got)
	}
}

func TestBreakEvenROI(t *testing.T) {
	got := BreakEvenROI(d("0.0004"), 10, d("0.2"))
	want := d("1")
	if !got.Equal(want) {
		t.Errorf("BreakEvenROI() = %s, want %s", got, want)
	}
}

func TestLeverageFromATR(t *testing.T) {
	cases := []struct {
		name       string
		atrPercent float64
		min, max   int
		want       int
	}{
		{"low vol uses top tier", 0.2, 3, 20, 20},
		{"mid vol", 1.5, 3, 20, 10},
		{"top tier clamped to max", 0.2, 3, 15, 15},
		{"high vol tier clamped to min", 10, 5, 20, 5},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := LeverageFromATR(tc.atrPercent, tc.min, tc.max)
			if got != tc.want {
				t.Errorf("LeverageFromATR(%v, %d, %d) = %d, want %d", tc.atrPercent, tc.min, tc.max, got, tc.want)
			}
		})
	}
}
