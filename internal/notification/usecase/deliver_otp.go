package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/shandysiswandi/otpauth/internal/notification/entity"
	"github.com/shandysiswandi/otpauth/internal/pkg/mail"
	"github.com/shandysiswandi/otpauth/internal/shared/event"
)

type deliverOTPInput struct {
	Email string `validate:"required,email"`
	Code  string `validate:"required,otp"`
}

// DeliverOTP emails a freshly issued passcode to its owner.
func (s *Usecase) DeliverOTP(ctx context.Context, msg event.OTPIssuedMessage) error {
	ctx, span := s.startSpan(ctx, "DeliverOTP")
	defer span.End()

	if err := s.validator.Validate(deliverOTPInput{Email: msg.Email, Code: msg.Code}); err != nil {
		slog.ErrorContext(ctx, "invalid otp issued message", "email", msg.Email, "error", err)
		return fmt.Errorf("%w: %w", entity.ErrMalformedMessage, err)
	}

	now := s.clock.Now()
	minutes := s.cfg.GetInt("otp.ttl_minutes")
	if !msg.ExpiresAt.IsZero() {
		minutes = int(math.Ceil(msg.ExpiresAt.Sub(now).Minutes()))
		if minutes < 1 {
			slog.WarnContext(ctx, "otp expired before delivery, email skipped", "email", msg.Email)
			return nil
		}
	}

	body, err := renderOTP(entity.OTPEmail{
		Name:          msg.Name,
		Code:          msg.Code,
		ExpiresAt:     msg.ExpiresAt,
		ExpiryMinutes: minutes,
		FromName:      s.cfg.GetString("mail.from_name"),
		Year:          now.Year(),
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to render otp email", "email", msg.Email, "error", err)
		return err
	}

	if err := s.repoMail.Send(ctx, mail.Message{
		To:       []string{msg.Email},
		Subject:  otpSubject,
		HTMLBody: body,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to send otp email", "email", msg.Email, "error", err)
		return errors.Join(entity.ErrEmailUndelivered, err)
	}

	slog.InfoContext(ctx, "otp email sent", "email", msg.Email)

	return nil
}
