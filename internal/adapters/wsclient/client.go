// Package wsclient consumes the simulator's AIS sentence stream.
package wsclient

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"github.com/samirrijal/aissim/internal/core/domain"
)

// Handler processes one received sentence. A non-nil error stops the stream.
type Handler func(ctx context.Context, msg domain.AISSentence) error

// Client reads AIS sentence frames from a WebSocket stream.
type Client struct {
	url    string
	dialer websocket.Dialer
}

// New creates a client for the stream at url (ws:// or wss://).
func New(url string) *Client {
	return &Client{
		url: url,
		dialer: websocket.Dialer{
			HandshakeTimeout:  10 * time.Second,
			EnableCompression: true,
		},
	}
}

// Consume dials the stream and hands every frame to handler until the
// end-of-stream marker arrives. It returns the number of sentences handled.
// Frames that are not valid JSON are logged and skipped.
func (c *Client) Consume(ctx context.Context, handler Handler) (int, error) {
	conn, resp, err := c.dialer.DialContext(ctx, c.url, nil)
	if resp != nil {
		defer resp.Body.Close()
	}
	if err != nil {
		if resp != nil {
			return 0, fmt.Errorf("websocket dial failed (HTTP %d): %w", resp.StatusCode, err)
		}
		return 0, fmt.Errorf("websocket dial: %w", err)
	}
	defer conn.Close()

	// Unblock ReadMessage when the caller gives up.
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	slog.InfoContext(ctx, "stream connected", "url", c.url)

	n := 0
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return n, ctx.Err()
			}
			return n, fmt.Errorf("read frame %d: %w", n+1, err)
		}
		if string(data) == domain.EndOfStream {
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			slog.InfoContext(ctx, "stream finished", "url", c.url, "sentences", n)
			return n, nil
		}

		var msg domain.AISSentence
		if err := json.Unmarshal(data, &msg); err != nil {
			slog.WarnContext(ctx, "skipping undecodable frame", "error", err)
			continue
		}
		if err := handler(ctx, msg); err != nil {
			return n, fmt.Errorf("handle sentence for %s: %w", msg.MMSI, err)
		}
		n++
	}
}
