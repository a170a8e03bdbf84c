package notify

import (
	"context"
	"encoding/json"

	"github.com/shandysiswandi/otpauth/internal/auth/usecase"
	"github.com/shandysiswandi/otpauth/internal/pkg/instrument"
	"github.com/shandysiswandi/otpauth/internal/pkg/messaging"
	"github.com/shandysiswandi/otpauth/internal/shared/event"
	"go.opentelemetry.io/otel/codes"
)

const keyOfCorrelationID string = "cID"

// Broker hands issued passcodes to the notification module through a message
// broker. Messages are keyed by email so brokers that partition by key keep
// the codes of one address in order.
type Broker struct {
	client messaging.Broker
	topic  string
	ins    instrument.Instrumentation
}

func NewBroker(client messaging.Broker, topic string, ins instrument.Instrumentation) *Broker {
	if topic == "" {
		topic = event.OTPIssuedDestination
	}
	return &Broker{client: client, topic: topic, ins: ins}
}

func (b *Broker) SendOTP(ctx context.Context, msg usecase.OTPIssuedEvent) error {
	ctx, span := b.ins.Tracer("auth.outbound.notify").Start(ctx, "SendOTP")
	defer span.End()

	body, err := json.Marshal(event.OTPIssuedMessage{
		Email:     msg.Email,
		Name:      msg.Name,
		Code:      msg.Code,
		ExpiresAt: msg.ExpiresAt,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	if err := b.client.Publish(ctx, b.topic, messaging.Message{
		Key:     []byte(msg.Email),
		Body:    body,
		Headers: map[string]string{keyOfCorrelationID: instrument.GetCorrelationID(ctx)},
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}
