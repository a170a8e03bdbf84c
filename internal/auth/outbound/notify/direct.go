package notify

import (
	"context"

	"github.com/shandysiswandi/otpauth/internal/auth/usecase"
	"github.com/shandysiswandi/otpauth/internal/pkg/instrument"
	"github.com/shandysiswandi/otpauth/internal/shared/event"
	"go.opentelemetry.io/otel/codes"
)

type deliverer interface {
	DeliverOTP(ctx context.Context, msg event.OTPIssuedMessage) error
}

// Direct delivers passcodes in-process, within the login request.
type Direct struct {
	target deliverer
	ins    instrument.Instrumentation
}

func NewDirect(target deliverer, ins instrument.Instrumentation) *Direct {
	return &Direct{target: target, ins: ins}
}

func (d *Direct) SendOTP(ctx context.Context, msg usecase.OTPIssuedEvent) error {
	ctx, span := d.ins.Tracer("auth.outbound.notify").Start(ctx, "SendOTP")
	defer span.End()

	if err := d.target.DeliverOTP(ctx, event.OTPIssuedMessage{
		Email:     msg.Email,
		Name:      msg.Name,
		Code:      msg.Code,
		ExpiresAt: msg.ExpiresAt,
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}
