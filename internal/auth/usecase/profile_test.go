package usecase

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/shandysiswandi/otpauth/internal/auth/entity"
	"github.com/shandysiswandi/otpauth/internal/pkg/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfile(t *testing.T) {
	t.Run("NoClaims", func(t *testing.T) {
		h := newHarness(t)

		_, err := h.uc.Profile(context.Background())
		assert.ErrorIs(t, err, entity.ErrTokenInvalid)
		requireStatus(t, err, http.StatusUnauthorized)
	})

	t.Run("UnknownSubject", func(t *testing.T) {
		h := newHarness(t)
		ctx := jwt.SetAuth(context.Background(), jwt.Claims{UserID: 99})

		_, err := h.uc.Profile(ctx)
		assert.ErrorIs(t, err, entity.ErrUserNotFound)
	})

	t.Run("StoreDown", func(t *testing.T) {
		h := newHarness(t)
		h.db.errGet = errors.New("db down")
		ctx := jwt.SetAuth(context.Background(), jwt.Claims{UserID: 99})

		_, err := h.uc.Profile(ctx)
		requireStatus(t, err, http.StatusInternalServerError)
	})
}

func TestDeleteAccount(t *testing.T) {
	t.Run("RemovesEverything", func(t *testing.T) {
		h := newHarness(t)
		reg := registered(t, h)
		h.login(t, "jane@example.com", "Secret123")

		ctx := jwt.SetAuth(context.Background(), jwt.Claims{UserID: reg.ID, UserEmail: reg.Email})
		require.NoError(t, h.uc.DeleteAccount(ctx))

		assert.Equal(t, 0, h.db.count())
		assert.Equal(t, 0, h.image.count())
		assert.False(t, h.redis.Exists("otp:jane@example.com"))

		err := h.uc.DeleteAccount(ctx)
		assert.ErrorIs(t, err, entity.ErrUserNotFound)
	})

	t.Run("ImageFailureDoesNotBlock", func(t *testing.T) {
		h := newHarness(t)
		reg := registered(t, h)
		h.image.errDelete = errors.New("bucket gone")

		ctx := jwt.SetAuth(context.Background(), jwt.Claims{UserID: reg.ID})
		require.NoError(t, h.uc.DeleteAccount(ctx))
		assert.Equal(t, 0, h.db.count())
		assert.Equal(t, []string{"img-1.jpg"}, h.image.deleted)
	})

	t.Run("DeleteFailure", func(t *testing.T) {
		h := newHarness(t)
		reg := registered(t, h)
		h.db.errDelete = errors.New("db down")

		ctx := jwt.SetAuth(context.Background(), jwt.Claims{UserID: reg.ID})
		err := h.uc.DeleteAccount(ctx)
		requireStatus(t, err, http.StatusInternalServerError)
	})

	t.Run("NoClaims", func(t *testing.T) {
		h := newHarness(t)

		err := h.uc.DeleteAccount(context.Background())
		assert.ErrorIs(t, err, entity.ErrTokenInvalid)
	})
}

func TestFullScenario(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	reg, err := h.uc.Register(ctx, h.registerInput(t, "jane@example.com"))
	require.NoError(t, err)

	code := h.login(t, "jane@example.com", "Secret123")

	verified, err := h.uc.VerifyOTP(ctx, VerifyOTPInput{Email: "jane@example.com", OTP: code})
	require.NoError(t, err)

	authCtx := h.authContext(t, verified.Token)

	profile, err := h.uc.Profile(authCtx)
	require.NoError(t, err)
	assert.Equal(t, reg.ID, profile.ID)
	assert.Equal(t, "Jane Doe", profile.Name)
	assert.Equal(t, "jane@example.com", profile.Email)
	assert.Equal(t, "1996-02-29", profile.DateOfBirth.Format(entity.DateLayout))

	require.NoError(t, h.uc.DeleteAccount(authCtx))

	_, err = h.uc.Profile(authCtx)
	assert.ErrorIs(t, err, entity.ErrUserNotFound)

	_, err = h.uc.Login(ctx, LoginInput{Email: "jane@example.com", Password: "Secret123"})
	assert.ErrorIs(t, err, entity.ErrAuthenticationFailed)
}
