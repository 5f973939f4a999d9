package execution

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/sniperterm/futuresengine/internal/model"
)

func dd(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func book() (bids, asks []PriceLevel) {
	bids = []PriceLevel{{Price: dd("100"), Size: dd("1")}, {Price: dd("99.9"), Size: dd("2")}, {Price: dd("99.8"), Size: dd("3")}}
	asks = []PriceLevel{{Price: dd("100.1"), Size: dd("1")}, {Price: dd("100.2"), Size: dd("2")}, {Price: dd("100.3"), Size: dd("3")}}
	return
}

func TestSelectEntryPriceWalksToConfiguredLevel(t *testing.T) {
	e := NewExecutor(nil, Config{EntryLevel: 2, SlippageCapBps: 100})
	bids, asks := book()

	price, err := e.SelectEntryPrice(model.SideLong, bids, asks)
	if err != nil {
		t.Fatalf("SelectEntryPrice: %v", err)
	}
	if !price.Equal(dd("99.9")) {
		t.Errorf("price = %s, want 99.9 (2nd bid rung)", price)
	}

	price, err = e.SelectEntryPrice(model.SideShort, bids, asks)
	if err != nil {
		t.Fatalf("SelectEntryPrice: %v", err)
	}
	if !price.Equal(dd("100.2")) {
		t.Errorf("price = %s, want 100.2 (2nd ask rung)", price)
	}
}

func TestSelectEntryPriceRejectsExcessiveSlippage(t *testing.T) {
	// Level 3 (99.8) sits ~25bps from the 100.05 mid, past a 5bps cap.
	e := NewExecutor(nil, Config{EntryLevel: 3, SlippageCapBps: 5})
	bids, asks := book()

	_, err := e.SelectEntryPrice(model.SideLong, bids, asks)
	if err == nil {
		t.Fatal("expected a slippage-cap rejection")
	}
	if !errors.Is(err, ErrSlippageExceeded) {
		t.Errorf("err = %v, want ErrSlippageExceeded", err)
	}
}

func TestSelectEntryPriceRejectsUnavailableLevel(t *testing.T) {
	e := NewExecutor(nil, Config{EntryLevel: 10, SlippageCapBps: 1000})
	bids, asks := book()

	if _, err := e.SelectEntryPrice(model.SideLong, bids, asks); err == nil {
		t.Fatal("expected an error when the requested book level does not exist")
	}
}

// fakeVenue is a scripted VenueClient used to exercise Submit's
// compensating-cancellation behavior.
type fakeVenue struct {
	failStop bool
	failTP   bool
	canceled []string
}

func (f *fakeVenue) SetLeverage(ctx context.Context, instrument string, leverage int) error {
	return nil
}

func (f *fakeVenue) PlaceLimitOrder(ctx context.Context, clientOrderID, instrument string, side model.Side, size, price decimal.Decimal) (string, error) {
	return "entry-1", nil
}

func (f *fakeVenue) PlaceReduceOnlyStop(ctx context.Context, clientOrderID, instrument string, side model.Side, size, stopPrice decimal.Decimal) (string, error) {
	if f.failStop {
		return "", errors.New("stop rejected")
	}
	return "sl-1", nil
}

func (f *fakeVenue) PlaceReduceOnlyTakeProfit(ctx context.Context, clientOrderID, instrument string, side model.Side, size, tpPrice decimal.Decimal) (string, error) {
	if f.failTP {
		return "", errors.New("tp rejected")
	}
	return "tp-1", nil
}

func (f *fakeVenue) CancelOrder(ctx context.Context, instrument, venueOrderID string) error {
	f.canceled = append(f.canceled, venueOrderID)
	return nil
}

func (f *fakeVenue) OrderBook(ctx context.Context, instrument string, depth int) ([]PriceLevel, []PriceLevel, error) {
	bids, asks := book()
	return bids, asks, nil
}

func TestSubmitSucceedsWithAllThreeLegs(t *testing.T) {
	fv := &fakeVenue{}
	e := NewExecutor(fv, Config{EntryLevel: 1, SlippageCapBps: 1000})

	placed, err := e.Submit(context.Background(), model.OrderIntent{Instrument: "BTC-USDT", Size: dd("1"), LimitPrice: dd("100")}, model.SideLong, dd("99"), dd("101"))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if len(placed) != 3 {
		t.Fatalf("len(placed) = %d, want 3", len(placed))
	}
	if len(fv.canceled) != 0 {
		t.Errorf("canceled = %v, want none on a clean submission", fv.canceled)
	}
}

func TestSubmitCompensatesOnTakeProfitFailure(t *testing.T) {
	fv := &fakeVenue{failTP: true}
	e := NewExecutor(fv, Config{EntryLevel: 1, SlippageCapBps: 1000})

	_, err := e.Submit(context.Background(), model.OrderIntent{Instrument: "BTC-USDT", Size: dd("1"), LimitPrice: dd("100")}, model.SideLong, dd("99"), dd("101"))
	if err == nil {
		t.Fatal("expected Submit to fail when the take-profit leg is rejected")
	}
	if len(fv.canceled) != 2 {
		t.Fatalf("canceled = %v, want 2 legs unwound (entry + stop-loss)", fv.canceled)
	}
	// Reverse order: the stop-loss leg (placed second) must be canceled first.
	if fv.canceled[0] != "sl-1" || fv.canceled[1] != "entry-1" {
		t.Errorf("canceled order = %v, want [sl-1 entry-1]", fv.canceled)
	}
}

func TestSubmitCompensatesOnStopFailure(t *testing.T) {
	fv := &fakeVenue{failStop: true}
	e := NewExecutor(fv, Config{EntryLevel: 1, SlippageCapBps: 1000})

	_, err := e.Submit(context.Background(), model.OrderIntent{Instrument: "BTC-USDT", Size: dd("1"), LimitPrice: dd("100")}, model.SideLong, dd("99"), dd("101"))
	if err == nil {
		t.Fatal("expected Submit to fail when the stop-loss leg is rejected")
	}
	if len(fv.canceled) != 1 || fv.canceled[0] != "entry-1" {
		t.Errorf("canceled = %v, want only the entry unwound", fv.canceled)
	}
}
