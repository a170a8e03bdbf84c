package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/otpauth/internal/auth/entity"
	"github.com/shandysiswandi/otpauth/internal/pkg/goerror"
)

func (s *Usecase) DeleteAccount(ctx context.Context) error {
	ctx, span := s.startSpan(ctx, "DeleteAccount")
	defer span.End()

	user, err := s.authenticatedUser(ctx)
	if err != nil {
		return err
	}

	if err := s.repoImage.Delete(ctx, user.ProfileImage); err != nil {
		slog.ErrorContext(ctx, "failed to delete profile image", "user_id", user.ID, "key", user.ProfileImage, "error", err)
	}

	if err := s.repoOTP.Delete(ctx, user.Email); err != nil {
		slog.WarnContext(ctx, "failed to delete pending otp", "user_id", user.ID, "error", err)
	}

	err = s.repoDB.DeleteUser(ctx, user.ID)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "user already deleted", "user_id", user.ID)
		return entity.ErrUserNotFound
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo delete user", "user_id", user.ID, "error", err)
		return goerror.NewServer(err)
	}

	return nil
}
