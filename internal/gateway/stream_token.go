package gateway

import (
	"context"
	"encoding/json"
	"fmt"
)

// StreamToken fetches a short-lived token authorizing a WebSocket
// subscription, per spec §4.1 ("the stream client obtains a short-lived
// token via REST before dialing").
func (c *RESTClient) StreamToken(ctx context.Context) (string, error) {
	body, err := c.Get("/api/v1/stream-token", nil)
	if err != nil {
		return "", fmt.Errorf("gateway: fetch stream token: %w", err)
	}
	var resp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("gateway: decode stream token: %w", err)
	}
	return resp.Token, nil
}
