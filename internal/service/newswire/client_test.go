package newswire

import (
	"testing"
	"time"

	pkgcache "NewsEdge/pkg/cache"

	"github.com/gorilla/websocket"
)

func TestDecodeFrameNews(t *testing.T) {
	frame := []byte(`{
		"type": "news",
		"data": [
			{"id": "n1", "headline": "Acme beats estimates", "summary": "Q2 revenue up", "source": "prnews", "url": "https://e.test/a", "datetime": 1718000000000},
			{"id": "n2", "summary": "no headline on this one", "source": "prnews"},
			{"headline": "Widget Corp recalls product", "url": "https://e.test/b", "datetime": 1718000001000}
		]
	}`)

	items := decodeFrame(frame)
	if len(items) != 2 {
		t.Fatalf("decodeFrame returned %d items, want 2", len(items))
	}
	if items[0].ID != "n1" {
		t.Errorf("items[0].ID = %q, want n1", items[0].ID)
	}
	if got, want := items[0].PublishedAt, time.UnixMilli(1718000000000); !got.Equal(want) {
		t.Errorf("items[0].PublishedAt = %v, want %v", got, want)
	}
	if items[0].Body != "Q2 revenue up" {
		t.Errorf("items[0].Body = %q", items[0].Body)
	}
	if want := pkgcache.HashKey("https://e.test/b"); items[1].ID != want {
		t.Errorf("items[1].ID = %q, want URL hash %q", items[1].ID, want)
	}
}

func TestDecodeFrameIgnoresOtherFrames(t *testing.T) {
	tests := []struct {
		name  string
		frame string
	}{
		{"ack", `{"type":"subscribed","channel":"news"}`},
		{"heartbeat", `{"type":"ping"}`},
		{"invalid json", `{"type":"news","data":`},
		{"empty", ``},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if items := decodeFrame([]byte(tt.frame)); len(items) != 0 {
				t.Errorf("decodeFrame(%q) returned %d items, want 0", tt.frame, len(items))
			}
		})
	}
}

func TestItemFromWireIDFallbacks(t *testing.T) {
	withID := itemFromWire(wireItem{ID: "abc", Headline: "h", URL: "https://e.test/x"})
	if withID.ID != "abc" {
		t.Errorf("wire ID not kept: got %q", withID.ID)
	}

	fromURL := itemFromWire(wireItem{Headline: "h", URL: "https://e.test/x"})
	if want := pkgcache.HashKey("https://e.test/x"); fromURL.ID != want {
		t.Errorf("URL fallback ID = %q, want %q", fromURL.ID, want)
	}

	fromText := itemFromWire(wireItem{Headline: "h", Source: "wire"})
	if want := pkgcache.HashKey("wire|h"); fromText.ID != want {
		t.Errorf("source+headline fallback ID = %q, want %q", fromText.ID, want)
	}
	if fromText.ID == fromURL.ID {
		t.Error("fallback IDs should differ for different records")
	}
}

func TestItemFromWireDropsHeadlineless(t *testing.T) {
	if item := itemFromWire(wireItem{ID: "x", Summary: "body only"}); item != nil {
		t.Fatalf("headline-less record produced item %+v", item)
	}
}

func TestConnectionSwapSignal(t *testing.T) {
	c := New("tok", "wss://example.test/ws", time.Second, time.Second).(*Client)
	if c.IsConnected() {
		t.Fatal("new client reports connected")
	}

	conn, swap := c.current()
	if conn != nil {
		t.Fatal("new client has an active connection")
	}

	fake := &websocket.Conn{}
	c.install(fake)
	select {
	case <-swap:
	default:
		t.Fatal("install did not signal the swap channel")
	}
	if got, _ := c.current(); got != fake {
		t.Fatal("current did not return the installed connection")
	}
	if !c.IsConnected() {
		t.Fatal("IsConnected false after install")
	}

	if dropped := c.drop(); dropped != fake {
		t.Fatal("drop did not return the installed connection")
	}
	if c.IsConnected() {
		t.Fatal("IsConnected true after drop")
	}
	if got, _ := c.current(); got != nil {
		t.Fatal("current returned a connection after drop")
	}
}
