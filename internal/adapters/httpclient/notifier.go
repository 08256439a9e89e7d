package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// GatewayNotifier delivers notification texts to the bot gateway, which owns
// the actual chat transport. Failures are transient from the engine's point
// of view: callers log and retry on the next cycle.
type GatewayNotifier struct {
	http    *http.Client
	baseURL string
}

func NewGatewayNotifier(httpClient *http.Client, baseURL string) *GatewayNotifier {
	return &GatewayNotifier{http: httpClient, baseURL: baseURL}
}

type sendRequest struct {
	UserID int64  `json:"user_id"`
	Text   string `json:"text"`
}

func (n *GatewayNotifier) Send(ctx context.Context, userID int64, text string) error {
	payload, err := json.Marshal(sendRequest{UserID: userID, Text: text})
	if err != nil {
		return fmt.Errorf("failed to marshal notification for user %d: %w", userID, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.baseURL+"/send", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create notification request for user %d: %w", userID, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to deliver notification to user %d: %w", userID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("gateway rejected notification for user %d: %s", userID, resp.Status)
	}
	return nil
}
