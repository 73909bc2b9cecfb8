package chat

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
)

// ChannelTerminal is the channel name used by the interactive CLI.
const ChannelTerminal = "terminal"

// TerminalChannel reads one command per line from in and prints replies to out.
// Lines are handled one at a time, so replies stay in order.
type TerminalChannel struct {
	in     io.Reader
	out    io.Writer
	userID string
	prompt string

	mu       sync.Mutex
	done     chan struct{}
	stopOnce sync.Once
	stop     chan struct{}
}

// NewTerminalChannel creates a terminal channel for a single local learner.
func NewTerminalChannel(in io.Reader, out io.Writer, userID string) *TerminalChannel {
	return &TerminalChannel{
		in:     in,
		out:    out,
		userID: userID,
		prompt: "> ",
		done:   make(chan struct{}),
		stop:   make(chan struct{}),
	}
}

func (t *TerminalChannel) SendMessage(_ context.Context, _ string, msg OutboundMessage) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, err := fmt.Fprintf(t.out, "%s\n\n", msg.Text)
	return err
}

func (t *TerminalChannel) SendTyping(context.Context, string) error {
	return nil
}

func (t *TerminalChannel) Start(ctx context.Context, handler Handler) error {
	go t.readLoop(ctx, handler)
	return nil
}

func (t *TerminalChannel) Stop() error {
	t.stopOnce.Do(func() { close(t.stop) })
	return nil
}

// Done is closed when input ends or the channel stops.
func (t *TerminalChannel) Done() <-chan struct{} {
	return t.done
}

func (t *TerminalChannel) readLoop(ctx context.Context, handler Handler) {
	defer close(t.done)

	scanner := bufio.NewScanner(t.in)
	for {
		t.printPrompt()
		if !scanner.Scan() {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-t.stop:
			return
		default:
		}

		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		if text == "/quit" || text == "/exit" {
			return
		}
		handler(ctx, InboundMessage{
			Channel:    ChannelTerminal,
			UserID:     t.userID,
			ExternalID: t.userID,
			Text:       text,
			Name:       t.userID,
		})
	}
}

func (t *TerminalChannel) printPrompt() {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, _ = io.WriteString(t.out, t.prompt)
}
