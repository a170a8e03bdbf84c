package messaging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/atomic"
)

// ErrKafkaBrokersRequired is returned when no Kafka brokers are configured.
var ErrKafkaBrokersRequired = errors.New("messaging: kafka brokers are required")

// KafkaConfig configures the Kafka implementation.
type KafkaConfig struct {
	// Brokers lists Kafka broker addresses.
	Brokers []string
	// Dialer configures consumer connections (TLS, SASL). Optional.
	Dialer *kafka.Dialer
	// Transport configures producer connections. Optional.
	Transport *kafka.Transport
}

// Kafka is a Broker backed by kafka-go. A single writer serves every topic;
// each Subscribe call owns one group reader.
type Kafka struct {
	brokers []string
	dialer  *kafka.Dialer
	writer  *kafka.Writer
	closed  atomic.Bool
}

// NewKafka constructs a Kafka broker.
func NewKafka(cfg KafkaConfig) (*Kafka, error) {
	if len(cfg.Brokers) == 0 {
		return nil, ErrKafkaBrokersRequired
	}

	w := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}
	if cfg.Transport != nil {
		w.Transport = cfg.Transport
	}

	return &Kafka{
		brokers: append([]string{}, cfg.Brokers...),
		dialer:  cfg.Dialer,
		writer:  w,
	}, nil
}

// Publish writes msg to topic. Messages with the same Key land on the same
// partition.
func (k *Kafka) Publish(ctx context.Context, topic string, msg Message) error {
	if err := validate(ctx, topic); err != nil {
		return err
	}
	if k.closed.Load() {
		return io.ErrClosedPipe
	}

	km := kafka.Message{
		Topic: topic,
		Key:   msg.Key,
		Value: msg.Body,
		Time:  time.Now(),
	}
	for key, val := range msg.Headers {
		km.Headers = append(km.Headers, kafka.Header{Key: key, Value: []byte(val)})
	}

	if err := k.writer.WriteMessages(ctx, km); err != nil {
		return fmt.Errorf("messaging: kafka publish: %w", err)
	}

	return nil
}

// Subscribe reads topic as a member of group. Offsets are committed only
// after h succeeds.
func (k *Kafka) Subscribe(ctx context.Context, topic, group string, h Handler) error {
	if err := validateSubscribe(ctx, topic, h); err != nil {
		return err
	}
	if group == "" {
		return ErrGroupRequired
	}
	if k.closed.Load() {
		return io.ErrClosedPipe
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  k.brokers,
		GroupID:  group,
		Topic:    topic,
		MaxBytes: 10e6,
		Dialer:   k.dialer,
	})

	err := k.consume(ctx, reader, h)
	return errors.Join(err, reader.Close())
}

func (k *Kafka) consume(ctx context.Context, reader *kafka.Reader, h Handler) error {
	for {
		km, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("messaging: kafka fetch: %w", err)
		}

		msg := Message{
			ID:      km.Topic + "/" + strconv.Itoa(km.Partition) + "/" + strconv.FormatInt(km.Offset, 10),
			Topic:   km.Topic,
			Key:     km.Key,
			Body:    km.Value,
			Headers: make(map[string]string, len(km.Headers)),
		}
		for _, hd := range km.Headers {
			msg.Headers[hd.Key] = string(hd.Value)
		}

		if herr := dispatch(ctx, DriverKafka, h, msg); herr != nil {
			slog.WarnContext(ctx, "kafka message left uncommitted", "id", msg.ID, "error", herr)
			continue
		}

		if err := reader.CommitMessages(ctx, km); err != nil && ctx.Err() == nil {
			return fmt.Errorf("messaging: kafka commit: %w", err)
		}
	}
}

// Close flushes and closes the writer. Running subscriptions end when their
// context is cancelled.
func (k *Kafka) Close() error {
	if k.closed.Swap(true) {
		return nil
	}
	return k.writer.Close()
}
