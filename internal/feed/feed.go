// Package feed broadcasts week reports to presentation layers, over NATS
// or in memory.
package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
)

// Publisher sends one message on the feed.
type Publisher interface {
	Publish(ctx context.Context, v any) error
}

// NATS publishes JSON messages on a core NATS subject.
type NATS struct {
	nc      *nats.Conn
	subject string
}

// NewNATS connects to a NATS server.
func NewNATS(url, subject string) (*NATS, error) {
	nc, err := nats.Connect(url,
		nats.Name("touchline"),
		nats.Timeout(2*time.Second),
		nats.RetryOnFailedConnect(false),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return &NATS{nc: nc, subject: subject}, nil
}

// Publish marshals v and publishes it, flushing so delivery failures
// surface here.
func (n *NATS) Publish(_ context.Context, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal feed message: %w", err)
	}
	if err := n.nc.Publish(n.subject, data); err != nil {
		return fmt.Errorf("publish to %s: %w", n.subject, err)
	}
	return n.nc.FlushTimeout(2 * time.Second)
}

// Close drains and closes the connection.
func (n *NATS) Close() error {
	return n.nc.Drain()
}

// Memory keeps recent messages and fans them out to local subscribers.
type Memory struct {
	mu          sync.RWMutex
	messages    []json.RawMessage
	maxMessages int
	subscribers []chan json.RawMessage
}

// NewMemory creates an in-memory feed retaining the last n messages.
func NewMemory(n int) *Memory {
	if n <= 0 {
		n = 100
	}
	return &Memory{maxMessages: n}
}

// Publish stores the message and delivers it to subscribers. Slow
// subscribers miss messages rather than block the publisher.
func (m *Memory) Publish(_ context.Context, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal feed message: %w", err)
	}

	m.mu.Lock()
	m.messages = append(m.messages, data)
	if len(m.messages) > m.maxMessages {
		m.messages = m.messages[len(m.messages)-m.maxMessages:]
	}
	subs := make([]chan json.RawMessage, len(m.subscribers))
	copy(subs, m.subscribers)
	m.mu.Unlock()

	for _, sub := range subs {
		select {
		case sub <- data:
		default:
		}
	}
	return nil
}

// Recent returns up to limit of the newest messages, oldest first.
func (m *Memory) Recent(limit int) []json.RawMessage {
	m.mu.RLock()
	defer m.mu.RUnlock()
	start := 0
	if limit > 0 && len(m.messages) > limit {
		start = len(m.messages) - limit
	}
	return append([]json.RawMessage(nil), m.messages[start:]...)
}

// Subscribe returns a channel receiving every later message.
func (m *Memory) Subscribe() chan json.RawMessage {
	ch := make(chan json.RawMessage, 16)
	m.mu.Lock()
	m.subscribers = append(m.subscribers, ch)
	m.mu.Unlock()
	return ch
}

// Unsubscribe removes and closes a subscription channel.
func (m *Memory) Unsubscribe(ch chan json.RawMessage) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, sub := range m.subscribers {
		if sub == ch {
			m.subscribers = append(m.subscribers[:i], m.subscribers[i+1:]...)
			close(ch)
			return
		}
	}
}

// Multi publishes to several feeds, attempting all of them.
type Multi []Publisher

func (ps Multi) Publish(ctx context.Context, v any) error {
	var errs []error
	for _, p := range ps {
		if err := p.Publish(ctx, v); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
