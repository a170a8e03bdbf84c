package email

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/shandysiswandi/otpauth/internal/pkg/instrument"
	"github.com/shandysiswandi/otpauth/internal/pkg/mail"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// RetryOptions bounds how often a failed send is repeated.
type RetryOptions struct {
	// MaxAttempts counts the first try. Values below 1 mean a single try.
	MaxAttempts int
	// BaseDelay is the first backoff, doubled on every retry.
	BaseDelay time.Duration
}

type Mail struct {
	client mail.Mail
	retry  RetryOptions
	ins    instrument.Instrumentation
}

func New(client mail.Mail, opts RetryOptions, ins instrument.Instrumentation) *Mail {
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 1
	}
	if opts.BaseDelay <= 0 {
		opts.BaseDelay = 100 * time.Millisecond
	}

	return &Mail{client: client, retry: opts, ins: ins}
}

// Send delivers msg, retrying transport failures with exponential backoff.
// Messages the provider rejects as incomplete are not retried.
func (m *Mail) Send(ctx context.Context, msg mail.Message) error {
	ctx, span := m.ins.Tracer("notification.outbound.email").Start(ctx, "Send")
	defer span.End()

	b := retry.NewExponential(m.retry.BaseDelay)
	b = retry.WithJitterPercent(10, b)
	b = retry.WithMaxRetries(uint64(m.retry.MaxAttempts-1), b)

	attempt := 0
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		attempt++
		err := m.client.Send(ctx, msg)
		if err == nil {
			return nil
		}
		if errors.Is(err, mail.ErrSMTPNoRecipients) || errors.Is(err, mail.ErrSMTPNoSender) {
			return err
		}

		slog.WarnContext(ctx, "mail send attempt failed", "attempt", attempt, "error", err)
		return retry.RetryableError(err)
	})
	span.SetAttributes(attribute.Int("mail.attempts", attempt))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}
