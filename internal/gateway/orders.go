package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/shopspring/decimal"

	"github.com/sniperterm/futuresengine/internal/execution"
	"github.com/sniperterm/futuresengine/internal/model"
)

// OrderClient adapts RESTClient (plus the rate limiter and circuit breaker)
// to execution.VenueClient, so Executor never talks to net/http directly.
type OrderClient struct {
	rest    *RESTClient
	limiter *TokenBucket
	breaker *Breaker
}

func NewOrderClient(rest *RESTClient, limiter *TokenBucket, breaker *Breaker) *OrderClient {
	return &OrderClient{rest: rest, limiter: limiter, breaker: breaker}
}

func (c *OrderClient) guard() error {
	if !c.limiter.Allow() {
		return fmt.Errorf("gateway: rate limit exceeded")
	}
	return c.breaker.Allow()
}

func (c *OrderClient) record(err error) {
	if err != nil {
		c.breaker.RecordFailure()
		return
	}
	c.breaker.RecordSuccess()
}

func (c *OrderClient) SetLeverage(ctx context.Context, instrument string, leverage int) error {
	if err := c.guard(); err != nil {
		return err
	}
	q := url.Values{"symbol": {instrument}, "leverage": {fmt.Sprint(leverage)}}
	_, err := c.rest.Post("/api/v1/leverage", q)
	c.record(err)
	return err
}

func (c *OrderClient) PlaceLimitOrder(ctx context.Context, clientOrderID, instrument string, side model.Side, size, price decimal.Decimal) (string, error) {
	if err := c.guard(); err != nil {
		return "", err
	}
	q := url.Values{
		"symbol":        {instrument},
		"side":          {side.String()},
		"type":          {"LIMIT"},
		"quantity":      {size.String()},
		"price":         {price.String()},
		"newClientOrderId": {clientOrderID},
	}
	body, err := c.rest.Post("/api/v1/order", q)
	c.record(err)
	if err != nil {
		return "", err
	}
	return parseOrderID(body)
}

func (c *OrderClient) PlaceReduceOnlyStop(ctx context.Context, clientOrderID, instrument string, side model.Side, size, stopPrice decimal.Decimal) (string, error) {
	return c.placeReduceOnly(clientOrderID, instrument, side, size, stopPrice, "STOP_MARKET")
}

func (c *OrderClient) PlaceReduceOnlyTakeProfit(ctx context.Context, clientOrderID, instrument string, side model.Side, size, tpPrice decimal.Decimal) (string, error) {
	return c.placeReduceOnly(clientOrderID, instrument, side, size, tpPrice, "TAKE_PROFIT_MARKET")
}

func (c *OrderClient) placeReduceOnly(clientOrderID, instrument string, side model.Side, size, triggerPrice decimal.Decimal, orderType string) (string, error) {
	if err := c.guard(); err != nil {
		return "", err
	}
	q := url.Values{
		"symbol":           {instrument},
		"side":             {side.String()},
		"type":             {orderType},
		"quantity":         {size.String()},
		"stopPrice":        {triggerPrice.String()},
		"reduceOnly":       {"true"},
		"workingType":      {"MARK_PRICE"},
		"priceProtect":     {"true"},
		"newClientOrderId": {clientOrderID},
	}
	body, err := c.rest.Post("/api/v1/order", q)
	c.record(err)
	if err != nil {
		return "", err
	}
	return parseOrderID(body)
}

func (c *OrderClient) CancelOrder(ctx context.Context, instrument, venueOrderID string) error {
	if err := c.guard(); err != nil {
		return err
	}
	q := url.Values{"symbol": {instrument}, "orderId": {venueOrderID}}
	_, err := c.rest.Post("/api/v1/order/cancel", q)
	c.record(err)
	return err
}

func (c *OrderClient) OrderBook(ctx context.Context, instrument string, depth int) (bids, asks []execution.PriceLevel, err error) {
	if err := c.guard(); err != nil {
		return nil, nil, err
	}
	q := url.Values{"symbol": {instrument}, "limit": {fmt.Sprint(depth)}}
	body, err := c.rest.Get("/api/v1/depth", q)
	c.record(err)
	if err != nil {
		return nil, nil, err
	}
	var raw struct {
		Bids [][2]string `json:"bids"`
		Asks [][2]string `json:"asks"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, nil, fmt.Errorf("gateway: decode order book: %w", err)
	}
	bids = toPriceLevels(raw.Bids)
	asks = toPriceLevels(raw.Asks)
	return bids, asks, nil
}

func toPriceLevels(rows [][2]string) []execution.PriceLevel {
	out := make([]execution.PriceLevel, 0, len(rows))
	for _, r := range rows {
		price, _ := decimal.NewFromString(r[0])
		size, _ := decimal.NewFromString(r[1])
		out = append(out, execution.PriceLevel{Price: price, Size: size})
	}
	return out
}

func parseOrderID(body []byte) (string, error) {
	var resp struct {
		OrderID json.Number `json:"orderId"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("gateway: decode order response: %w", err)
	}
	return resp.OrderID.String(), nil
}
