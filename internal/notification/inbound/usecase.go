package inbound

import (
	"context"

	"github.com/shandysiswandi/otpauth/internal/shared/event"
)

type uc interface {
	DeliverOTP(ctx context.Context, msg event.OTPIssuedMessage) error
}
