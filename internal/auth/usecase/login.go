package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/otpauth/internal/auth/entity"
	"github.com/shandysiswandi/otpauth/internal/pkg/goerror"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginOutput struct {
	Email string
	// OTP is only set outside production, to ease local testing.
	OTP string
}

func (s *Usecase) Login(ctx context.Context, in LoginInput) (*LoginOutput, error) {
	ctx, span := s.startSpan(ctx, "Login")
	defer span.End()

	in.Email = normalizeEmail(in.Email)

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	user, err := s.repoDB.GetUserByEmail(ctx, in.Email)
	if errors.Is(err, goerror.ErrNotFound) {
		s.password.Verify(s.dummyHash, in.Password)
		slog.WarnContext(ctx, "login for unknown email", "email", in.Email)
		s.countLogin(ctx, "unknown_email")
		return nil, entity.ErrAuthenticationFailed
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get user by email", "email", in.Email, "error", err)
		return nil, goerror.NewServer(err)
	}

	if !s.password.Verify(user.PasswordHash, in.Password) {
		slog.WarnContext(ctx, "login with wrong password", "user_id", user.ID)
		s.countLogin(ctx, "wrong_password")
		return nil, entity.ErrAuthenticationFailed
	}

	var code string
	err = s.locker.WithLock(ctx, user.Email, func(ctx context.Context) (err error) {
		code, err = s.issueOTP(ctx, user)
		return err
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to issue otp", "user_id", user.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	s.countLogin(ctx, "otp_sent")

	out := &LoginOutput{Email: user.Email}
	if s.cfg.GetString("app.env") == "development" {
		out.OTP = code
	}

	return out, nil
}

// issueOTP replaces the pending code of user and hands it to the delivery
// channel. It must run under the per-email lock so the last code stored is
// also the last one sent. Delivery failures are recorded, not returned.
func (s *Usecase) issueOTP(ctx context.Context, user *entity.User) (string, error) {
	code, err := s.otp.Generate()
	if err != nil {
		return "", err
	}

	expiresAt := s.clock.Now().Add(s.cfg.GetMinute("otp.ttl_minutes"))
	if err := s.repoOTP.Replace(ctx, user.Email, code, expiresAt); err != nil {
		return "", err
	}

	if err := s.repoNotify.SendOTP(ctx, OTPIssuedEvent{
		Email:     user.Email,
		Name:      user.Name,
		Code:      code,
		ExpiresAt: expiresAt,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to deliver otp", "user_id", user.ID, "error", errors.Join(entity.ErrUpstreamDeliveryFailed, err))
		if s.deliveryFailures != nil {
			s.deliveryFailures.Add(ctx, 1)
		}
	}

	return code, nil
}

func (s *Usecase) countLogin(ctx context.Context, result string) {
	if s.loginAttempts == nil {
		return
	}
	s.loginAttempts.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}
