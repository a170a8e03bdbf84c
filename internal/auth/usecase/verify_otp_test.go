package usecase

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/shandysiswandi/otpauth/internal/auth/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifyOTP(t *testing.T) {
	t.Run("IssuesTokenOnce", func(t *testing.T) {
		h := newHarness(t)
		reg := registered(t, h)
		code := h.login(t, "jane@example.com", "Secret123")

		out, err := h.uc.VerifyOTP(context.Background(), VerifyOTPInput{Email: "Jane@Example.com", OTP: code})
		require.NoError(t, err)
		assert.NotEmpty(t, out.Token)
		assert.Equal(t, reg.ID, out.User.ID)
		assert.Equal(t, "Acme", out.User.Company)
		assert.Equal(t, 30, out.User.Age)
		assert.Equal(t, "http://localhost:8080/uploads/img-1.jpg", out.User.ProfileImageURL)

		clm, err := h.jwt.Verify(out.Token)
		require.NoError(t, err)
		assert.Equal(t, reg.ID, clm.UserID)
		assert.Equal(t, "jane@example.com", clm.UserEmail)
		assert.Equal(t, h.clock.Now().Add(7*24*time.Hour).Unix(), clm.ExpiresAt.Unix())

		_, err = h.uc.VerifyOTP(context.Background(), VerifyOTPInput{Email: "jane@example.com", OTP: code})
		assert.ErrorIs(t, err, entity.ErrOTPInvalid)
		requireStatus(t, err, http.StatusUnauthorized)
	})

	t.Run("ExpiresAfterTenMinutes", func(t *testing.T) {
		h := newHarness(t)
		registered(t, h)
		code := h.login(t, "jane@example.com", "Secret123")

		h.clock.Advance(10 * time.Minute)

		_, err := h.uc.VerifyOTP(context.Background(), VerifyOTPInput{Email: "jane@example.com", OTP: code})
		assert.ErrorIs(t, err, entity.ErrOTPInvalid)
	})

	t.Run("StillValidJustBeforeExpiry", func(t *testing.T) {
		h := newHarness(t)
		registered(t, h)
		code := h.login(t, "jane@example.com", "Secret123")

		h.clock.Advance(10*time.Minute - time.Second)

		_, err := h.uc.VerifyOTP(context.Background(), VerifyOTPInput{Email: "jane@example.com", OTP: code})
		assert.NoError(t, err)
	})

	t.Run("WrongCodeThenRightCode", func(t *testing.T) {
		h := newHarness(t, withOTP(&sequenceOTP{codes: []string{"123456"}}))
		registered(t, h)
		h.login(t, "jane@example.com", "Secret123")

		_, err := h.uc.VerifyOTP(context.Background(), VerifyOTPInput{Email: "jane@example.com", OTP: "654321"})
		assert.ErrorIs(t, err, entity.ErrOTPInvalid)

		_, err = h.uc.VerifyOTP(context.Background(), VerifyOTPInput{Email: "jane@example.com", OTP: "123456"})
		assert.NoError(t, err)
	})

	t.Run("NoPendingCode", func(t *testing.T) {
		h := newHarness(t)
		registered(t, h)

		_, err := h.uc.VerifyOTP(context.Background(), VerifyOTPInput{Email: "jane@example.com", OTP: "123456"})
		assert.ErrorIs(t, err, entity.ErrOTPInvalid)
	})

	t.Run("UserGone", func(t *testing.T) {
		h := newHarness(t)
		reg := registered(t, h)
		code := h.login(t, "jane@example.com", "Secret123")
		require.NoError(t, h.db.DeleteUser(context.Background(), reg.ID))

		_, err := h.uc.VerifyOTP(context.Background(), VerifyOTPInput{Email: "jane@example.com", OTP: code})
		assert.ErrorIs(t, err, entity.ErrUserNotFound)
		requireStatus(t, err, http.StatusNotFound)
	})

	t.Run("StoreDown", func(t *testing.T) {
		h := newHarness(t)
		h.redis.Close()

		_, err := h.uc.VerifyOTP(context.Background(), VerifyOTPInput{Email: "jane@example.com", OTP: "123456"})
		requireStatus(t, err, http.StatusInternalServerError)
		assert.False(t, errors.Is(err, entity.ErrOTPInvalid))
	})

	t.Run("Validation", func(t *testing.T) {
		h := newHarness(t)

		for _, code := range []string{"", "12345", "1234567", "12a456"} {
			_, err := h.uc.VerifyOTP(context.Background(), VerifyOTPInput{Email: "jane@example.com", OTP: code})
			requireStatus(t, err, http.StatusBadRequest)
		}
	})
}
