package messaging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/nats-io/nats.go"
	"go.uber.org/atomic"
)

// ErrNATSURLRequired is returned when the NATS server URL is missing.
var ErrNATSURLRequired = errors.New("messaging: nats url is required")

// NATSConfig configures the NATS implementation.
type NATSConfig struct {
	// URL is the NATS server address.
	URL string
	// Options are passed to the NATS client.
	Options []nats.Option
}

// NATS is a Broker backed by core NATS. Groups map to queue groups.
type NATS struct {
	conn   *nats.Conn
	closed atomic.Bool
}

// NewNATS connects to the NATS server.
func NewNATS(cfg NATSConfig) (*NATS, error) {
	if cfg.URL == "" {
		return nil, ErrNATSURLRequired
	}

	conn, err := nats.Connect(cfg.URL, cfg.Options...)
	if err != nil {
		return nil, fmt.Errorf("messaging: nats connect: %w", err)
	}

	return &NATS{conn: conn}, nil
}

// Publish sends msg to the subject named topic and flushes the connection.
func (n *NATS) Publish(ctx context.Context, topic string, msg Message) error {
	if err := validate(ctx, topic); err != nil {
		return err
	}
	if n.closed.Load() {
		return io.ErrClosedPipe
	}

	nm := nats.NewMsg(topic)
	nm.Data = msg.Body
	for key, val := range msg.Headers {
		nm.Header.Set(key, val)
	}

	if err := n.conn.PublishMsg(nm); err != nil {
		return fmt.Errorf("messaging: nats publish: %w", err)
	}
	if err := n.conn.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("messaging: nats flush: %w", err)
	}

	return nil
}

// Subscribe joins the queue group for topic until ctx is done.
func (n *NATS) Subscribe(ctx context.Context, topic, group string, h Handler) error {
	if err := validateSubscribe(ctx, topic, h); err != nil {
		return err
	}
	if n.closed.Load() {
		return io.ErrClosedPipe
	}

	sub, err := n.conn.QueueSubscribe(topic, group, func(nm *nats.Msg) {
		msg := Message{
			Topic:   nm.Subject,
			Body:    nm.Data,
			Headers: make(map[string]string, len(nm.Header)),
		}
		for key := range nm.Header {
			msg.Headers[key] = nm.Header.Get(key)
		}

		if herr := dispatch(ctx, DriverNATS, h, msg); herr != nil {
			slog.ErrorContext(ctx, "nats message handler failed, message dropped", "topic", topic, "error", herr)
		}
	})
	if err != nil {
		return fmt.Errorf("messaging: nats subscribe: %w", err)
	}

	<-ctx.Done()

	return sub.Drain()
}

// Close drains the connection.
func (n *NATS) Close() error {
	if n.closed.Swap(true) {
		return nil
	}
	if err := n.conn.Drain(); err != nil {
		n.conn.Close()
		return err
	}
	return nil
}
