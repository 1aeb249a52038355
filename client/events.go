package client

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/websocket"

	"github.com/frictionalfables/fable/models"
)

const (
	wsHandshakeTimeout = 10 * time.Second
	wsPingInterval     = 30 * time.Second
)

// SubscribeToContentEvents connects to the gateway's content-event stream
// and invokes onEvent for every event until ctx is cancelled or the
// connection drops. Malformed frames are logged and skipped.
func (c *Client) SubscribeToContentEvents(ctx context.Context, onEvent func(models.ContentEvent)) error {
	wsScheme := "ws"
	if c.baseURL.Scheme == "https" {
		wsScheme = "wss"
	}

	wsURL := url.URL{
		Scheme: wsScheme,
		Host:   c.baseURL.Host,
		Path:   "/api/v1/events/subscribe",
	}
	query := wsURL.Query()
	if tok := c.token(); tok != "" {
		query.Set("token", tok)
	}
	wsURL.RawQuery = query.Encode()

	header := http.Header{}
	if tok := c.token(); tok != "" {
		header.Set("Authorization", tok)
	}

	skipVerify := false
	if t, ok := c.httpClient.Transport.(*http.Transport); ok && t.TLSClientConfig != nil {
		skipVerify = t.TLSClientConfig.InsecureSkipVerify
	}

	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: wsHandshakeTimeout,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: skipVerify,
		},
	}

	conn, resp, err := dialer.DialContext(ctx, wsURL.String(), header)
	if err != nil {
		if resp != nil {
			c.logger.Error("WebSocket dial error with response", "url", wsURL.String(), "status", resp.Status, "error", err)
			return fmt.Errorf("failed to dial websocket %s (status: %s): %w", wsURL.String(), resp.Status, err)
		}
		c.logger.Error("WebSocket dial error", "url", wsURL.String(), "error", err)
		return fmt.Errorf("failed to dial websocket %s: %w", wsURL.String(), err)
	}
	defer conn.Close()

	conn.SetPongHandler(func(string) error {
		c.logger.Debug("Received pong from server")
		return nil
	})

	// Keep the connection alive; proxies tend to reap idle streams.
	go func() {
		ticker := time.NewTicker(wsPingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					c.logger.Error("Error sending ping", "error", err)
					return
				}
			case <-ctx.Done():
				err := conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				if err != nil {
					c.logger.Error("Error sending close message", "error", err)
				}
				conn.Close()
				return
			}
		}
	}()

	c.logger.Info("Subscribed to content events", "url", wsURL.String())

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.logger.Error("Error reading message from WebSocket", "error", err)
				return fmt.Errorf("websocket read failed: %w", err)
			}
			c.logger.Info("Content event stream closed")
			return nil
		}

		var event models.ContentEvent
		if err := json.Unmarshal(message, &event); err != nil {
			c.logger.Warn("Discarding malformed content event", "error", err)
			continue
		}
		onEvent(event)
	}
}
