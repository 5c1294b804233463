package newswire

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"NewsEdge/internal/domain/models"
	drepo "NewsEdge/internal/domain/repository"
	pkgcache "NewsEdge/pkg/cache"

	"github.com/gorilla/websocket"
)

const (
	itemBuffer  = 256
	controlWait = 5 * time.Second
	readSlack   = 10 * time.Second
)

// Client streams breaking-news frames from the newswire WebSocket feed.
//
// A single Read call survives reconnects: when a read fails the loop parks
// until Reconnect installs a fresh connection, so the channels handed to the
// caller stay valid for the life of the context.
type Client struct {
	token          string
	websocketURL   string
	reconnectDelay time.Duration
	pingInterval   time.Duration

	mu        sync.Mutex
	conn      *websocket.Conn
	connected bool
	swapped   chan struct{}
}

// New creates a newswire NewsStream.
func New(token, websocketURL string, reconnectDelay, pingInterval time.Duration) drepo.NewsStream {
	return &Client{
		token:          token,
		websocketURL:   websocketURL,
		reconnectDelay: reconnectDelay,
		pingInterval:   pingInterval,
		swapped:        make(chan struct{}),
	}
}

// Connect dials the feed and makes the new connection the active one.
func (c *Client) Connect(ctx context.Context) error {
	u := fmt.Sprintf("%s?token=%s", c.websocketURL, c.token)
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u, nil)
	if err != nil {
		return fmt.Errorf("newswire connect: %w", err)
	}
	c.armKeepalive(conn)
	c.install(conn)
	log.Printf("newswire: connected")
	return nil
}

// Subscribe asks the feed for the breaking-news channel.
func (c *Client) Subscribe(ctx context.Context) error {
	conn, _ := c.current()
	if conn == nil {
		return fmt.Errorf("newswire subscribe: not connected")
	}
	sub := map[string]string{"type": "subscribe", "channel": "news"}
	if err := conn.WriteJSON(sub); err != nil {
		return fmt.Errorf("subscribe news: %w", err)
	}
	log.Printf("newswire: subscribed news")
	return nil
}

// Read starts the ping and read loops and returns their output channels.
func (c *Client) Read(ctx context.Context) (<-chan *models.NewsItem, <-chan error) {
	items := make(chan *models.NewsItem, itemBuffer)
	errs := make(chan error, 1)

	go c.pingLoop(ctx)
	go c.readLoop(ctx, items, errs)

	return items, errs
}

// Reconnect tears the connection down, waits out the backoff, and dials
// again. The read loop picks up the replacement on its own.
func (c *Client) Reconnect(ctx context.Context) error {
	if conn := c.drop(); conn != nil {
		_ = conn.Close()
	}
	if c.reconnectDelay > 0 {
		t := time.NewTimer(c.reconnectDelay)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
	if err := c.Connect(ctx); err != nil {
		return err
	}
	return c.Subscribe(ctx)
}

// Close sends a close frame when possible and shuts the connection down.
func (c *Client) Close() error {
	conn := c.drop()
	if conn == nil {
		return nil
	}
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(controlWait))
	return conn.Close()
}

// IsConnected reports whether an active connection is installed.
func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

func (c *Client) pingLoop(ctx context.Context) {
	if c.pingInterval <= 0 {
		return
	}
	ticker := time.NewTicker(c.pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		conn, _ := c.current()
		if conn == nil {
			continue
		}
		// WriteControl is safe alongside WriteJSON on the same connection.
		if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(controlWait)); err != nil {
			log.Printf("newswire: ping failed: %v", err)
		}
	}
}

func (c *Client) readLoop(ctx context.Context, items chan<- *models.NewsItem, errs chan<- error) {
	defer close(items)
	for {
		conn, swap := c.current()
		if conn == nil {
			select {
			case <-ctx.Done():
				return
			case <-swap:
			}
			continue
		}
		_, frame, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			select {
			case errs <- fmt.Errorf("newswire read: %w", err):
			default:
			}
			// Park until a fresh connection replaces this one. Retrying the
			// same socket would spin on the error.
			select {
			case <-ctx.Done():
				return
			case <-swap:
			}
			continue
		}
		c.bumpDeadline(conn)
		for _, item := range decodeFrame(frame) {
			select {
			case items <- item:
			default:
				// A full buffer means the pipeline is behind. Shedding the
				// item beats stalling the socket read.
			}
		}
	}
}

// install makes conn the active connection and wakes any parked reader.
func (c *Client) install(conn *websocket.Conn) {
	c.mu.Lock()
	c.conn = conn
	c.connected = true
	close(c.swapped)
	c.swapped = make(chan struct{})
	c.mu.Unlock()
}

// drop detaches and returns the active connection, leaving the client
// disconnected.
func (c *Client) drop() *websocket.Conn {
	c.mu.Lock()
	defer c.mu.Unlock()
	conn := c.conn
	c.conn = nil
	c.connected = false
	close(c.swapped)
	c.swapped = make(chan struct{})
	return conn
}

// current returns the active connection plus a channel that closes when the
// connection is replaced or dropped.
func (c *Client) current() (*websocket.Conn, <-chan struct{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn, c.swapped
}

// armKeepalive puts a sliding deadline on the connection so a peer that
// stops answering pings is detected instead of blocking the read loop
// forever.
func (c *Client) armKeepalive(conn *websocket.Conn) {
	if c.pingInterval <= 0 {
		return
	}
	conn.SetPongHandler(func(string) error {
		c.bumpDeadline(conn)
		return nil
	})
	c.bumpDeadline(conn)
}

func (c *Client) bumpDeadline(conn *websocket.Conn) {
	if c.pingInterval <= 0 {
		return
	}
	_ = conn.SetReadDeadline(time.Now().Add(2*c.pingInterval + readSlack))
}

type wireItem struct {
	ID       string `json:"id"`
	Headline string `json:"headline"`
	Summary  string `json:"summary"`
	Source   string `json:"source"`
	URL      string `json:"url"`
	Datetime int64  `json:"datetime"` // ms
}

type wireMessage struct {
	Type string     `json:"type"`
	Data []wireItem `json:"data"`
}

// decodeFrame extracts news items from one raw frame. Frames that are not
// news payloads (acks, heartbeats) decode to an empty slice.
func decodeFrame(frame []byte) []*models.NewsItem {
	var m wireMessage
	if err := json.Unmarshal(frame, &m); err != nil || m.Type != "news" {
		return nil
	}
	out := make([]*models.NewsItem, 0, len(m.Data))
	for _, w := range m.Data {
		if item := itemFromWire(w); item != nil {
			out = append(out, item)
		}
	}
	return out
}

// itemFromWire maps one wire record to a NewsItem. Records without a
// headline are unusable downstream and are dropped here. Records without an
// ID get a stable synthetic one so deduplication still works.
func itemFromWire(w wireItem) *models.NewsItem {
	if w.Headline == "" {
		return nil
	}
	id := w.ID
	if id == "" {
		if w.URL != "" {
			id = pkgcache.HashKey(w.URL)
		} else {
			id = pkgcache.HashKey(w.Source + "|" + w.Headline)
		}
	}
	return &models.NewsItem{
		ID:          id,
		Headline:    w.Headline,
		Body:        w.Summary,
		Source:      w.Source,
		URL:         w.URL,
		PublishedAt: time.UnixMilli(w.Datetime),
	}
}
