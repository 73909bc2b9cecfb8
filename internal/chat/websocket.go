package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
)

const (
	// ChannelWebSocket is the channel name used for browser clients.
	ChannelWebSocket = "websocket"

	wsReadLimit = 16 << 10
	wsInboxSize = 8
)

// wsFrame is the JSON frame exchanged with browser clients.
type wsFrame struct {
	Type string `json:"type"` // "message" or "typing"
	Text string `json:"text,omitempty"`
}

type wsConn struct {
	id   string
	conn *websocket.Conn
	mu   sync.Mutex // serializes writes
}

// WebSocketChannel serves learners over WebSocket. Mount it as an http.Handler;
// the learner is taken from the "user" query parameter or assigned per connection,
// and "name" sets the display name. Messages of one connection are handled in order.
type WebSocketChannel struct {
	originPatterns []string

	mu      sync.RWMutex
	conns   map[string]*wsConn
	handler Handler
}

// NewWebSocketChannel creates a channel accepting the given origin patterns.
func NewWebSocketChannel(originPatterns []string) *WebSocketChannel {
	return &WebSocketChannel{
		originPatterns: originPatterns,
		conns:          make(map[string]*wsConn),
	}
}

func (c *WebSocketChannel) Start(_ context.Context, handler Handler) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handler = handler
	return nil
}

func (c *WebSocketChannel) Stop() error {
	c.mu.Lock()
	conns := make([]*wsConn, 0, len(c.conns))
	for userID, wc := range c.conns {
		conns = append(conns, wc)
		delete(c.conns, userID)
	}
	c.mu.Unlock()

	var wg sync.WaitGroup
	for _, wc := range conns {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = wc.conn.Close(websocket.StatusGoingAway, "server shutting down")
		}()
	}
	wg.Wait()
	return nil
}

func (c *WebSocketChannel) SendMessage(ctx context.Context, userID string, msg OutboundMessage) error {
	return c.write(ctx, userID, wsFrame{Type: "message", Text: msg.Text})
}

func (c *WebSocketChannel) SendTyping(ctx context.Context, userID string) error {
	return c.write(ctx, userID, wsFrame{Type: "typing"})
}

// Connections returns the number of open connections.
func (c *WebSocketChannel) Connections() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.conns)
}

func (c *WebSocketChannel) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	c.mu.RLock()
	handler := c.handler
	c.mu.RUnlock()
	if handler == nil {
		http.Error(w, "channel not started", http.StatusServiceUnavailable)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: c.originPatterns})
	if err != nil {
		slog.Warn("websocket accept failed", "error", err)
		return
	}
	conn.SetReadLimit(wsReadLimit)

	query := r.URL.Query()
	wc := &wsConn{id: uuid.NewString(), conn: conn}
	userID := strings.TrimSpace(query.Get("user"))
	if userID == "" {
		userID = wc.id
	}
	name := strings.TrimSpace(query.Get("name"))
	c.attach(userID, wc)
	defer c.detach(userID, wc)

	// ctx ends when the peer disconnects, which abandons any message still in flight.
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	slog.Info("websocket connected", "user_id", userID, "conn_id", wc.id)
	inbox := make(chan InboundMessage, wsInboxSize)
	go c.readLoop(ctx, cancel, wc, inbox, InboundMessage{
		Channel:    ChannelWebSocket,
		UserID:     userID,
		ExternalID: wc.id,
		Name:       name,
	})

	for msg := range inbox {
		handler(ctx, msg)
	}
}

// readLoop feeds text frames into inbox until the connection fails, then
// cancels the connection context and closes inbox.
func (c *WebSocketChannel) readLoop(ctx context.Context, cancel context.CancelFunc, wc *wsConn, inbox chan<- InboundMessage, base InboundMessage) {
	defer close(inbox)
	defer cancel()

	for {
		typ, data, err := wc.conn.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway {
				slog.Debug("websocket read ended", "user_id", base.UserID, "error", err)
			}
			return
		}
		if typ != websocket.MessageText {
			continue
		}

		text := parseInbound(data)
		if text == "" {
			continue
		}
		msg := base
		msg.Text = text
		select {
		case inbox <- msg:
		case <-ctx.Done():
			return
		}
	}
}

// parseInbound accepts a {"text": "..."} frame or plain text.
func parseInbound(data []byte) string {
	var frame wsFrame
	if err := json.Unmarshal(data, &frame); err == nil && frame.Text != "" {
		return strings.TrimSpace(frame.Text)
	}
	return strings.TrimSpace(string(data))
}

func (c *WebSocketChannel) attach(userID string, wc *wsConn) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if old, ok := c.conns[userID]; ok {
		go func() { _ = old.conn.Close(websocket.StatusPolicyViolation, "replaced by a newer connection") }()
	}
	c.conns[userID] = wc
}

func (c *WebSocketChannel) detach(userID string, wc *wsConn) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cur, ok := c.conns[userID]; ok && cur == wc {
		delete(c.conns, userID)
	}
	_ = wc.conn.CloseNow()
}

func (c *WebSocketChannel) write(ctx context.Context, userID string, frame wsFrame) error {
	c.mu.RLock()
	wc, ok := c.conns[userID]
	c.mu.RUnlock()
	if !ok {
		return fmt.Errorf("no websocket connection for user %s", userID)
	}

	wc.mu.Lock()
	defer wc.mu.Unlock()
	if err := wsjson.Write(ctx, wc.conn, frame); err != nil {
		return fmt.Errorf("writing websocket frame: %w", err)
	}
	return nil
}
