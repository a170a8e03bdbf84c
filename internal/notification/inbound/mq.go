package inbound

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/otpauth/internal/pkg/goroutine"
	"github.com/shandysiswandi/otpauth/internal/pkg/instrument"
	"github.com/shandysiswandi/otpauth/internal/pkg/messaging"
	"github.com/shandysiswandi/otpauth/internal/pkg/uid"
	"github.com/shandysiswandi/otpauth/internal/shared/event"
)

// ConsumerConfig names the stream the notification consumer reads.
type ConsumerConfig struct {
	Topic string
	Group string
}

// RegisterMQConsumer subscribes to issued passcodes in the background until
// ctx is done. It reports false when the manager refused the task.
func RegisterMQConsumer(
	ctx context.Context,
	cc ConsumerConfig,
	routine *goroutine.Manager,
	broker messaging.Broker,
	uuid uid.StringID,
	uc uc,
	ins instrument.Instrumentation,
) bool {
	if cc.Topic == "" {
		cc.Topic = event.OTPIssuedDestination
	}
	if cc.Group == "" {
		cc.Group = event.OTPIssuedConsumerNotification
	}

	h := &MQHandler{uc: uc, uuid: uuid, ins: ins}

	return routine.Go(ctx, cc.Group, func(pCtx context.Context) error {
		slog.InfoContext(pCtx, "Running job for handling consumer", "consumer", cc.Group, "topic", cc.Topic)
		return broker.Subscribe(pCtx, cc.Topic, cc.Group, h.OTPIssuedNotification)
	})
}
