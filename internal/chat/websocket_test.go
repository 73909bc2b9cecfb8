package chat_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/hanyumate/hanyumate/internal/chat"
)

type frame struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

func startEchoServer(t *testing.T) (*chat.WebSocketChannel, *httptest.Server, *[]chat.InboundMessage, *sync.Mutex) {
	t.Helper()
	ch := chat.NewWebSocketChannel(nil)
	var (
		mu       sync.Mutex
		received []chat.InboundMessage
	)
	err := ch.Start(context.Background(), func(ctx context.Context, msg chat.InboundMessage) {
		mu.Lock()
		received = append(received, msg)
		mu.Unlock()
		_ = ch.SendTyping(ctx, msg.UserID)
		_ = ch.SendMessage(ctx, msg.UserID, chat.OutboundMessage{Text: "echo: " + msg.Text})
	})
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	srv := httptest.NewServer(ch)
	t.Cleanup(srv.Close)
	return ch, srv, &received, &mu
}

func dial(t *testing.T, ctx context.Context, srv *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/" + query
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	t.Cleanup(func() { _ = conn.CloseNow() })
	return conn
}

func readMessage(t *testing.T, ctx context.Context, conn *websocket.Conn) frame {
	t.Helper()
	for {
		var f frame
		if err := wsjson.Read(ctx, conn, &f); err != nil {
			t.Fatalf("read frame: %v", err)
		}
		if f.Type == "message" {
			return f
		}
	}
}

func TestWebSocketChannel_JSONFrame(t *testing.T) {
	_, srv, received, mu := startEchoServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dial(t, ctx, srv, "?user=alice&name=Mei")
	if err := wsjson.Write(ctx, conn, map[string]string{"text": " /quiz 3 "}); err != nil {
		t.Fatalf("write: %v", err)
	}

	got := readMessage(t, ctx, conn)
	if got.Text != "echo: /quiz 3" {
		t.Errorf("reply = %q, want %q", got.Text, "echo: /quiz 3")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(*received) != 1 {
		t.Fatalf("received = %d, want 1", len(*received))
	}
	msg := (*received)[0]
	if msg.UserID != "alice" || msg.Channel != chat.ChannelWebSocket {
		t.Errorf("inbound = %+v, want alice on websocket", msg)
	}
	if msg.Name != "Mei" {
		t.Errorf("Name = %q, want Mei", msg.Name)
	}
	if msg.ExternalID == "" || msg.ExternalID == "alice" {
		t.Errorf("ExternalID = %q, want a connection id", msg.ExternalID)
	}
}

func TestWebSocketChannel_PlainText(t *testing.T) {
	_, srv, received, mu := startEchoServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dial(t, ctx, srv, "")
	if err := conn.Write(ctx, websocket.MessageText, []byte("1B")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if got := readMessage(t, ctx, conn); got.Text != "echo: 1B" {
		t.Errorf("reply = %q, want %q", got.Text, "echo: 1B")
	}

	mu.Lock()
	defer mu.Unlock()
	msg := (*received)[0]
	if msg.UserID != msg.ExternalID {
		t.Errorf("anonymous UserID = %q, want connection id %q", msg.UserID, msg.ExternalID)
	}
}

func TestWebSocketChannel_SendUnknownUser(t *testing.T) {
	ch := chat.NewWebSocketChannel(nil)
	err := ch.SendMessage(context.Background(), "nobody", chat.OutboundMessage{Text: "hi"})
	if err == nil {
		t.Error("SendMessage() to unknown user should return error")
	}
}

func TestWebSocketChannel_NotStarted(t *testing.T) {
	srv := httptest.NewServer(chat.NewWebSocketChannel(nil))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET error = %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusServiceUnavailable)
	}
}

func TestWebSocketChannel_Stop(t *testing.T) {
	ch, srv, _, _ := startEchoServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dial(t, ctx, srv, "?user=bob")
	if err := wsjson.Write(ctx, conn, map[string]string{"text": "/start"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	readMessage(t, ctx, conn)

	if n := ch.Connections(); n != 1 {
		t.Fatalf("Connections() = %d, want 1", n)
	}

	errc := make(chan error, 1)
	go func() {
		for {
			if _, _, err := conn.Read(ctx); err != nil {
				errc <- err
				return
			}
		}
	}()

	if err := ch.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if n := ch.Connections(); n != 0 {
		t.Errorf("Connections() after Stop = %d, want 0", n)
	}

	err := <-errc
	if status := websocket.CloseStatus(err); status != websocket.StatusGoingAway {
		t.Errorf("close status = %v, want %v", status, websocket.StatusGoingAway)
	}
}

func TestWebSocketChannel_DisconnectCancelsHandler(t *testing.T) {
	ch := chat.NewWebSocketChannel(nil)
	started := make(chan struct{})
	cancelled := make(chan error, 1)
	err := ch.Start(context.Background(), func(ctx context.Context, msg chat.InboundMessage) {
		close(started)
		select {
		case <-ctx.Done():
			cancelled <- ctx.Err()
		case <-time.After(5 * time.Second):
			cancelled <- nil
		}
	})
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	srv := httptest.NewServer(ch)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn := dial(t, ctx, srv, "?user=carol")
	if err := conn.Write(ctx, websocket.MessageText, []byte("/quiz")); err != nil {
		t.Fatalf("write: %v", err)
	}

	select {
	case <-started:
	case <-ctx.Done():
		t.Fatal("handler never started")
	}
	_ = conn.CloseNow()

	if err := <-cancelled; !errors.Is(err, context.Canceled) {
		t.Errorf("handler context error = %v, want context.Canceled", err)
	}
}
