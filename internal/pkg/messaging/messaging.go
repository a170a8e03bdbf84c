package messaging

import (
	"context"
	"errors"
	"io"
)

var (
	// ErrTopicRequired is returned when Publish or Subscribe gets an empty topic.
	ErrTopicRequired = errors.New("messaging: topic is required")
	// ErrGroupRequired is returned by drivers that need a consumer group.
	ErrGroupRequired = errors.New("messaging: consumer group is required")
	// ErrHandlerRequired is returned when Subscribe gets a nil handler.
	ErrHandlerRequired = errors.New("messaging: handler is required")
)

// Broker publishes messages to topics and delivers them to subscribed
// handlers.
type Broker interface {
	io.Closer

	// Publish sends msg to topic and returns once the broker accepted it.
	Publish(ctx context.Context, topic string, msg Message) error

	// Subscribe delivers messages from topic to h until ctx is done. Consumers
	// sharing a group split the stream between them. Subscribe blocks.
	Subscribe(ctx context.Context, topic, group string, h Handler) error
}

// Handler processes one delivered message. A non-nil error asks the broker
// for redelivery when it supports it.
type Handler func(ctx context.Context, msg Message) error

// Message is the payload exchanged through a Broker.
type Message struct {
	// ID is the broker assigned id. Empty on publish.
	ID string
	// Topic is filled on delivery.
	Topic string
	// Key groups related messages on brokers with partitions.
	Key []byte
	// Body is the encoded payload.
	Body []byte
	// Headers carry metadata such as the correlation id. NSQ drops them.
	Headers map[string]string
}

// Header returns the value of header key, or "".
func (m Message) Header(key string) string {
	if m.Headers == nil {
		return ""
	}
	return m.Headers[key]
}

func validate(ctx context.Context, topic string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if topic == "" {
		return ErrTopicRequired
	}
	return nil
}

func validateSubscribe(ctx context.Context, topic string, h Handler) error {
	if err := validate(ctx, topic); err != nil {
		return err
	}
	if h == nil {
		return ErrHandlerRequired
	}
	return nil
}
