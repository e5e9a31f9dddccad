package lcu

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/websocket"
)

// Websocket opcodes used by the client API.
const (
	opSubscribe   = 5
	opUnsubscribe = 6
	opEvent       = 8
)

// wampEvent is the firehose subscription covering every client API topic.
const wampEvent = "OnJsonApiEvent"

// FeedEvent is one message from the client's push feed.
type FeedEvent struct {
	URI       string          `json:"uri"`
	EventType string          `json:"eventType"` // Create, Update, Delete
	Data      json.RawMessage `json:"data"`
}

// EventFeed dials the websocket feed and streams events in arrival order.
// The returned channel is closed when the transport fails or ctx is
// cancelled; the caller owns reconnection.
func (c *Client) EventFeed(ctx context.Context) (<-chan FeedEvent, error) {
	c.mu.RLock()
	creds := c.credentials
	authHeader := c.authHeader
	c.mu.RUnlock()

	if creds == nil {
		return nil, ErrClientNotRunning
	}

	dialer := websocket.Dialer{
		TLSClientConfig: &tls.Config{
			// Same self-signed loopback cert as the REST transport.
			InsecureSkipVerify: true,
		},
	}

	url := fmt.Sprintf("wss://127.0.0.1:%s", creds.Port)
	header := http.Header{}
	header.Set("Authorization", authHeader)

	conn, _, err := dialer.DialContext(ctx, url, header)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to event feed: %w", err)
	}

	if err := conn.WriteJSON([]any{opSubscribe, wampEvent}); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to subscribe to event feed: %w", err)
	}

	events := make(chan FeedEvent)
	go c.readFeed(ctx, conn, events)
	return events, nil
}

// readFeed pumps decoded feed events into the channel until the connection
// drops.
func (c *Client) readFeed(ctx context.Context, conn *websocket.Conn, events chan<- FeedEvent) {
	defer close(events)
	defer conn.Close()

	// Unblock the read loop on cancellation.
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				c.log.Warn().Err(err).Msg("event feed closed")
			}
			return
		}

		ev, ok := decodeFeedMessage(message)
		if !ok {
			continue
		}

		select {
		case events <- ev:
		case <-ctx.Done():
			return
		}
	}
}

// decodeFeedMessage parses a raw [opcode, event, payload] frame. Frames that
// are not opEvent payloads (subscription acks, keepalives) are skipped.
func decodeFeedMessage(data []byte) (FeedEvent, bool) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil || len(raw) < 3 {
		return FeedEvent{}, false
	}

	var opcode int
	if err := json.Unmarshal(raw[0], &opcode); err != nil || opcode != opEvent {
		return FeedEvent{}, false
	}

	var ev FeedEvent
	if err := json.Unmarshal(raw[2], &ev); err != nil {
		return FeedEvent{}, false
	}
	return ev, true
}
