package inbound

import (
	"context"

	"github.com/shandysiswandi/otpauth/internal/auth/usecase"
	"github.com/shandysiswandi/otpauth/internal/pkg/router"
)

type uc interface {
	Register(ctx context.Context, in usecase.RegisterInput) (*usecase.RegisterOutput, error)
	Login(ctx context.Context, in usecase.LoginInput) (*usecase.LoginOutput, error)
	VerifyOTP(ctx context.Context, in usecase.VerifyOTPInput) (*usecase.VerifyOTPOutput, error)

	Profile(ctx context.Context) (*usecase.UserSummary, error)
	DeleteAccount(ctx context.Context) error
}

// RegisterHTTPEndpoint mounts the auth routes. maxUploadBytes bounds the
// profile image of a registration.
func RegisterHTTPEndpoint(r *router.Router, uc uc, maxUploadBytes int64) {
	end := &HTTPEndpoint{uc: uc, maxUploadBytes: maxUploadBytes}

	r.POST("/auth/register", end.Register)
	r.POST("/auth/login", end.Login)
	r.POST("/auth/verify-otp", end.VerifyOTP)

	// need authenticated
	r.GET("/auth/profile", end.Profile, r.Authenticated())
	r.DELETE("/auth/account", end.DeleteAccount, r.Authenticated())
}
