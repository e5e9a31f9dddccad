package lcu

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// TestEventFeed tests that the feed subscribes, decodes event frames, skips
// non-event frames, and closes the channel when the server goes away.
func TestEventFeed(t *testing.T) {
	upgrader := websocket.Upgrader{}
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("Upgrade failed: %v", err)
			return
		}
		defer conn.Close()

		// Expect the firehose subscription frame.
		var sub []json.RawMessage
		if err := conn.ReadJSON(&sub); err != nil {
			t.Errorf("Failed to read subscribe frame: %v", err)
			return
		}

		// A subscription ack should be skipped by the reader.
		conn.WriteMessage(websocket.TextMessage, []byte(`[]`))
		conn.WriteMessage(websocket.TextMessage, []byte(
			`[8, "OnJsonApiEvent", {"uri": "/lol-gameflow/v1/gameflow-phase", "eventType": "Update", "data": "ChampSelect"}]`))
	}))

	feed, err := c.EventFeed(context.Background())
	if err != nil {
		t.Fatalf("Expected feed to connect, got: %v", err)
	}

	select {
	case ev := <-feed:
		if ev.URI != "/lol-gameflow/v1/gameflow-phase" {
			t.Errorf("Expected gameflow URI, got: %s", ev.URI)
		}
		if ev.EventType != "Update" {
			t.Errorf("Expected Update event, got: %s", ev.EventType)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Timed out waiting for feed event")
	}

	// Server handler returns and closes the connection; the channel follows.
	select {
	case _, open := <-feed:
		if open {
			t.Error("Expected feed channel to close after server disconnect")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Timed out waiting for feed close")
	}
}

// TestEventFeed_Disconnected tests that subscribing without a session fails
func TestEventFeed_Disconnected(t *testing.T) {
	c := NewClient(zerolog.Nop())
	if _, err := c.EventFeed(context.Background()); err != ErrClientNotRunning {
		t.Errorf("Expected ErrClientNotRunning, got: %v", err)
	}
}

// TestDecodeFeedMessage tests frame filtering
func TestDecodeFeedMessage(t *testing.T) {
	if _, ok := decodeFeedMessage([]byte(`[5, "OnJsonApiEvent"]`)); ok {
		t.Error("Expected subscription frames to be skipped")
	}
	if _, ok := decodeFeedMessage([]byte(`not json`)); ok {
		t.Error("Expected garbage frames to be skipped")
	}

	ev, ok := decodeFeedMessage([]byte(`[8, "OnJsonApiEvent", {"uri": "/x", "eventType": "Create", "data": {}}]`))
	if !ok {
		t.Fatal("Expected event frame to decode")
	}
	if ev.URI != "/x" || ev.EventType != "Create" {
		t.Errorf("Unexpected decoded event: %+v", ev)
	}
}
