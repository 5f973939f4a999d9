package marketstore

import (
	"testing"
	"time"

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

func candle(boundary time.Time, open, high, low, close string) model.Candle {
	return model.Candle{
		Boundary: boundary,
		Open:     d(open),
		High:     d(high),
		Low:      d(low),
		Close:    d(close),
		Volume:   d("10"),
	}
}

func TestAppendCandleRejectsZeroOHLC(t *testing.T) {
	s := New()
	zero := model.Candle{Boundary: time.Now(), Volume: d("10")}
	if err := s.AppendCandle("BTC-USDT", "5m", zero); err == nil {
		t.Fatal("expected an all-zero OHLC candle to be rejected")
	}
	if got := s.Tail("BTC-USDT", "5m", 10); got != nil {
		t.Errorf("Tail after a rejected candle = %v, want nil", got)
	}
}

func TestAppendCandleUpdatesSameBoundaryInPlace(t *testing.T) {
	s := New()
	boundary := time.Now()

	if err := s.AppendCandle("BTC-USDT", "5m", candle(boundary, "100", "101", "99", "100.5")); err != nil {
		t.Fatalf("AppendCandle: %v", err)
	}
	if err := s.AppendCandle("BTC-USDT", "5m", candle(boundary, "100", "103", "99", "102")); err != nil {
		t.Fatalf("AppendCandle (update): %v", err)
	}

	tail := s.Tail("BTC-USDT", "5m", 10)
	if len(tail) != 1 {
		t.Fatalf("len(tail) = %d, want 1 (same-boundary candle must update in place)", len(tail))
	}
	if !tail[0].Close.Equal(d("102")) {
		t.Errorf("tail[0].Close = %s, want 102", tail[0].Close)
	}
}

func TestAppendCandleAppendsOnNewBoundary(t *testing.T) {
	s := New()
	t0 := time.Now()
	t1 := t0.Add(5 * time.Minute)

	_ = s.AppendCandle("BTC-USDT", "5m", candle(t0, "100", "101", "99", "100.5"))
	_ = s.AppendCandle("BTC-USDT", "5m", candle(t1, "100.5", "102", "100", "101.5"))

	tail := s.Tail("BTC-USDT", "5m", 10)
	if len(tail) != 2 {
		t.Fatalf("len(tail) = %d, want 2", len(tail))
	}
}

func TestRingBufferEvictsOldestPastCapacity(t *testing.T) {
	s := New()
	base := time.Now()
	for i := 0; i < DefaultCapacity+10; i++ {
		boundary := base.Add(time.Duration(i) * time.Minute)
		_ = s.AppendCandle("BTC-USDT", "1m", candle(boundary, "100", "101", "99", "100"))
	}
	tail := s.Tail("BTC-USDT", "1m", DefaultCapacity+10)
	if len(tail) != DefaultCapacity {
		t.Fatalf("len(tail) = %d, want capped at %d", len(tail), DefaultCapacity)
	}
	// The oldest DefaultCapacity+10-DefaultCapacity == 10 candles should
	// have been evicted, so the earliest remaining boundary is offset by 10.
	wantEarliest := base.Add(10 * time.Minute)
	if !tail[0].Boundary.Equal(wantEarliest) {
		t.Errorf("tail[0].Boundary = %s, want %s", tail[0].Boundary, wantEarliest)
	}
}

func TestTailIsolatesCallerFromMutation(t *testing.T) {
	s := New()
	boundary := time.Now()
	_ = s.AppendCandle("BTC-USDT", "5m", candle(boundary, "100", "101", "99", "100.5"))

	tail := s.Tail("BTC-USDT", "5m", 1)
	tail[0].Close = d("999")

	fresh := s.Tail("BTC-USDT", "5m", 1)
	if fresh[0].Close.Equal(d("999")) {
		t.Error("Tail returned a slice aliasing internal storage; mutation leaked through")
	}
}

func TestMicrostructureRoundTrip(t *testing.T) {
	s := New()
	if _, ok := s.Microstructure("BTC-USDT"); ok {
		t.Fatal("expected no microstructure snapshot before any update")
	}
	snap := model.NewMicrostructureSnapshot("BTC-USDT", d("100"), d("100.1"))
	s.UpdateMicrostructure(snap)

	got, ok := s.Microstructure("BTC-USDT")
	if !ok {
		t.Fatal("expected a microstructure snapshot after update")
	}
	if !got.BestBid.Equal(d("100")) {
		t.Errorf("BestBid = %s, want 100", got.BestBid)
	}
}
