package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/otpauth/internal/auth/entity"
	"github.com/shandysiswandi/otpauth/internal/pkg/goerror"
	"github.com/shandysiswandi/otpauth/internal/pkg/jwt"
)

func (s *Usecase) Profile(ctx context.Context) (*UserSummary, error) {
	ctx, span := s.startSpan(ctx, "Profile")
	defer span.End()

	user, err := s.authenticatedUser(ctx)
	if err != nil {
		return nil, err
	}

	out := s.summary(user)
	return &out, nil
}

// authenticatedUser loads the account named by the token claims on ctx.
func (s *Usecase) authenticatedUser(ctx context.Context) (*entity.User, error) {
	clm := jwt.GetAuth(ctx)
	if clm == nil {
		return nil, entity.ErrTokenInvalid
	}

	user, err := s.repoDB.GetUserByID(ctx, clm.UserID)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "token subject not found", "user_id", clm.UserID)
		return nil, entity.ErrUserNotFound
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get user by id", "user_id", clm.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return user, nil
}
