package feed_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"

	"github.com/stagecue/stagecue/internal/feed"
	"github.com/stagecue/stagecue/internal/performer"
	"github.com/stagecue/stagecue/internal/vocab"
	"github.com/stagecue/stagecue/internal/voice"
)

// wsURL converts an httptest server HTTP URL to a WebSocket URL.
func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, wsURL(srv), nil)
	if err != nil {
		t.Fatalf("websocket.Dial() error = %v", err)
	}
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "test done") })
	return conn
}

func samplePerformance() *performer.Performance {
	return &performer.Performance{
		CharacterID:   "elder",
		CharacterName: "Greymantle",
		Segments: []performer.Segment{{
			Text:           "The mine is cursed.",
			Voice:          voice.Resolved{Pitch: vocab.PitchLow, Mood: vocab.MoodThoughtful},
			PaceMultiplier: 1.0,
		}},
	}
}

// waitForClients polls until the hub reports n clients or the deadline hits.
func waitForClients(t *testing.T, h *feed.Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if h.ClientCount() == n {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("ClientCount() = %d, want %d", h.ClientCount(), n)
}

func TestHub_BroadcastReachesClient(t *testing.T) {
	hub := feed.NewHub()
	defer hub.Close()
	srv := httptest.NewServer(hub)
	defer srv.Close()

	conn := dial(t, srv)
	waitForClients(t, hub, 1)

	hub.Broadcast(samplePerformance())

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	typ, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if typ != websocket.MessageText {
		t.Errorf("message type = %v, want text", typ)
	}

	var ev feed.Event
	if err := json.Unmarshal(data, &ev); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if ev.Type != "performance" {
		t.Errorf("Type = %q, want performance", ev.Type)
	}
	if ev.Performance == nil || ev.Performance.CharacterID != "elder" {
		t.Fatalf("Performance = %+v, want elder", ev.Performance)
	}
	seg := ev.Performance.Segments[0]
	if seg.Text != "The mine is cursed." || seg.Voice.Pitch != vocab.PitchLow {
		t.Errorf("segment = %+v, want resolved voice state intact", seg)
	}
}

func TestHub_BroadcastToMultipleClients(t *testing.T) {
	hub := feed.NewHub()
	defer hub.Close()
	srv := httptest.NewServer(hub)
	defer srv.Close()

	first := dial(t, srv)
	second := dial(t, srv)
	waitForClients(t, hub, 2)

	hub.Broadcast(samplePerformance())

	for i, conn := range []*websocket.Conn{first, second} {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		_, data, err := conn.Read(ctx)
		cancel()
		if err != nil {
			t.Fatalf("client %d Read() error = %v", i, err)
		}
		if !strings.Contains(string(data), "Greymantle") {
			t.Errorf("client %d payload = %s, want performance event", i, data)
		}
	}
}

func TestHub_ClientDisconnectDecrementsCount(t *testing.T) {
	hub := feed.NewHub()
	defer hub.Close()
	srv := httptest.NewServer(hub)
	defer srv.Close()

	conn := dial(t, srv)
	waitForClients(t, hub, 1)

	conn.Close(websocket.StatusNormalClosure, "leaving")
	waitForClients(t, hub, 0)
}

func TestHub_CloseRejectsNewClients(t *testing.T) {
	hub := feed.NewHub()
	srv := httptest.NewServer(hub)
	defer srv.Close()

	hub.Close()
	hub.Close() // idempotent

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, wsURL(srv), nil)
	if err != nil {
		// The handshake may fail outright once the hub is closed.
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "test done")

	// Or it completes and the server immediately closes the connection.
	if _, _, err := conn.Read(ctx); err == nil {
		t.Error("Read() on closed hub = nil error, want closure")
	}
	if hub.ClientCount() != 0 {
		t.Errorf("ClientCount() = %d, want 0", hub.ClientCount())
	}
}

func TestHub_BroadcastNilIsNoop(t *testing.T) {
	hub := feed.NewHub()
	defer hub.Close()
	hub.Broadcast(nil)
}
