package push

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/apex/log"
)

// Client sends push notifications through the FCM HTTP API.
// Nil-safe: an unconfigured client no-ops every send so the dispatch loop
// stays runnable without push credentials.
type Client struct {
	endpoint   string
	serverKey  string
	httpClient *http.Client
}

// NewClient creates an FCM client. Returns nil when serverKey is empty
// (push delivery disabled).
func NewClient(endpoint, serverKey string) *Client {
	if serverKey == "" {
		return nil
	}
	return &Client{
		endpoint:  endpoint,
		serverKey: serverKey,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type fcmNotification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type fcmMessage struct {
	To           string            `json:"to"`
	Notification fcmNotification   `json:"notification"`
	Data         map[string]string `json:"data,omitempty"`
}

type fcmResponse struct {
	Success int `json:"success"`
	Failure int `json:"failure"`
	Results []struct {
		Error string `json:"error"`
	} `json:"results"`
}

// Send delivers one notification to a single device token
func (c *Client) Send(ctx context.Context, token, title, body string, data map[string]string) error {
	if c == nil {
		log.Warnf("Push client not configured, dropping notification %q", title)
		return nil
	}

	payload, err := json.Marshal(fcmMessage{
		To:           token,
		Notification: fcmNotification{Title: title, Body: body},
		Data:         data,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal push message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "key="+c.serverKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call push gateway: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read push gateway response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("push gateway returned status %d: %s", resp.StatusCode, respBody)
	}

	var result fcmResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return fmt.Errorf("failed to parse push gateway response: %w", err)
	}
	if result.Failure > 0 {
		reason := "unknown"
		if len(result.Results) > 0 && result.Results[0].Error != "" {
			reason = result.Results[0].Error
		}
		return fmt.Errorf("push gateway rejected message: %s", reason)
	}

	return nil
}
