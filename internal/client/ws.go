package client

import (
	"context"
	"net/http"
	"strings"

	"github.com/coder/websocket"

	"taskchat/internal/logging"
	"taskchat/internal/types"
)

// websocketURL maps the HTTP base URL onto the ws/wss stream endpoint.
func (c *Client) websocketURL() string {
	base := c.baseURL
	switch {
	case strings.HasPrefix(base, "https://"):
		base = "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		base = "ws://" + strings.TrimPrefix(base, "http://")
	}
	return base + "/api/stream/ws"
}

// openWebSocket reads one JSON event per text message until the
// connection drops or ctx is cancelled.
func (c *Client) openWebSocket(ctx context.Context, deliver func(types.Event) bool, connected func()) (int, error) {
	url := c.websocketURL()
	header := http.Header{}
	header.Set("X-Request-ID", logging.NewRequestID())
	opts := &websocket.DialOptions{HTTPHeader: header}
	if c.http != nil && c.http.Transport != nil {
		opts.HTTPClient = &http.Client{Transport: c.http.Transport}
	}
	conn, _, err := websocket.Dial(ctx, url, opts)
	if err != nil {
		return 0, err
	}
	defer conn.CloseNow()
	conn.SetReadLimit(maxEventLineBytes)
	if connected != nil {
		connected()
	}
	c.streamLog("stream open", logging.F("url", url))

	count := 0
	for {
		typ, data, err := conn.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure {
				c.streamLog("stream close", logging.F("count", count))
			}
			return count, err
		}
		if typ != websocket.MessageText {
			continue
		}
		event, ok := c.decodePayload(strings.TrimSpace(strings.TrimPrefix(string(data), "data:")))
		if !ok {
			continue
		}
		if !deliver(event) {
			_ = conn.Close(websocket.StatusNormalClosure, "")
			return count, nil
		}
		count++
		if count == 1 {
			c.streamLog("stream first event", logging.F("type", string(event.Type)))
		}
	}
}
