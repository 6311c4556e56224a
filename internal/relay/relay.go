// Package relay forwards log lines to a central logging relay over a
// persistent WebSocket. Delivery is best-effort: the relay is advisory and
// must never block or fail the caller.
package relay

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// dialTimeout bounds the lazy dial so a dead relay cannot stall a tool call.
const dialTimeout = 5 * time.Second

// line is the wire format the relay accepts.
type line struct {
	Level     string    `json:"level"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Client is a lazy-connecting relay client. The zero endpoint disables it.
// The mutex serializes writes; gorilla/websocket allows only one concurrent
// writer per connection.
type Client struct {
	endpoint string
	dialer   *websocket.Dialer

	mu   sync.Mutex
	conn *websocket.Conn
}

// NewClient creates a relay client for endpoint. An empty endpoint yields a
// client whose Log is a no-op.
func NewClient(endpoint string) *Client {
	return &Client{endpoint: endpoint, dialer: websocket.DefaultDialer}
}

// Enabled reports whether a relay endpoint is configured.
func (c *Client) Enabled() bool {
	return c.endpoint != ""
}

// Log sends one line to the relay. It dials on first use and drops the line
// on any failure, closing the connection so the next call re-dials.
func (c *Client) Log(level, message string) error {
	if c.endpoint == "" {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
		defer cancel()
		conn, _, err := c.dialer.DialContext(ctx, c.endpoint, nil)
		if err != nil {
			return err
		}
		c.conn = conn
	}

	payload, err := json.Marshal(line{
		Level:     level,
		Message:   message,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		return err
	}

	if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		c.conn.Close()
		c.conn = nil
		return err
	}
	return nil
}

// Close shuts the relay connection down if one is open.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	c.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	err := c.conn.Close()
	c.conn = nil
	return err
}
