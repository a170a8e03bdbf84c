package messaging

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"sync"

	"go.uber.org/atomic"
)

// Memory is an in-process Broker. Each group receives every message of a
// topic once; members of the same group compete for it. Failed messages are
// redelivered up to MaxAttempts times.
type Memory struct {
	MaxAttempts int

	seq    atomic.Uint64
	closed atomic.Bool

	mu     sync.RWMutex
	groups map[string]map[string]chan Message
}

// NewMemory returns an empty in-process broker.
func NewMemory() *Memory {
	return &Memory{
		MaxAttempts: 3,
		groups:      map[string]map[string]chan Message{},
	}
}

// Publish enqueues msg for every group subscribed to topic. Messages
// published before any subscription are dropped.
func (m *Memory) Publish(ctx context.Context, topic string, msg Message) error {
	if err := validate(ctx, topic); err != nil {
		return err
	}
	if m.closed.Load() {
		return io.ErrClosedPipe
	}

	msg.Topic = topic
	msg.ID = strconv.FormatUint(m.seq.Inc(), 10)

	m.mu.RLock()
	queues := make([]chan Message, 0, len(m.groups[topic]))
	for _, q := range m.groups[topic] {
		queues = append(queues, q)
	}
	m.mu.RUnlock()

	for _, q := range queues {
		select {
		case q <- msg:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return nil
}

// Subscribe consumes topic as a member of group until ctx is done.
func (m *Memory) Subscribe(ctx context.Context, topic, group string, h Handler) error {
	if err := validateSubscribe(ctx, topic, h); err != nil {
		return err
	}
	if m.closed.Load() {
		return io.ErrClosedPipe
	}

	q := m.queue(topic, group)
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg := <-q:
			m.handle(ctx, h, msg)
		}
	}
}

func (m *Memory) handle(ctx context.Context, h Handler, msg Message) {
	attempts := max(m.MaxAttempts, 1)
	for attempt := 1; attempt <= attempts; attempt++ {
		err := dispatch(ctx, DriverMemory, h, msg)
		if err == nil {
			return
		}
		if ctx.Err() != nil {
			return
		}
		slog.WarnContext(ctx, "memory broker handler failed", "topic", msg.Topic, "id", msg.ID, "attempt", attempt, "error", err)
	}
}

func (m *Memory) queue(topic, group string) chan Message {
	m.mu.Lock()
	defer m.mu.Unlock()

	byGroup, ok := m.groups[topic]
	if !ok {
		byGroup = map[string]chan Message{}
		m.groups[topic] = byGroup
	}
	q, ok := byGroup[group]
	if !ok {
		q = make(chan Message, 64)
		byGroup[group] = q
	}

	return q
}

// Close rejects further publishes and subscriptions.
func (m *Memory) Close() error {
	m.closed.Store(true)
	return nil
}
