package entity

import (
	"errors"

	"github.com/shandysiswandi/otpauth/internal/pkg/goerror"
)

var (
	ErrDuplicateEmail       = goerror.NewBusiness("User already exists with this email", goerror.CodeBadRequest)
	ErrAuthenticationFailed = goerror.NewBusiness("Sorry, we can't log you in.", goerror.CodeUnauthorized)
	ErrOTPInvalid           = goerror.NewBusiness("Invalid or expired OTP", goerror.CodeUnauthorized)
	ErrUserNotFound         = goerror.NewBusiness("User not found", goerror.CodeNotFound)
	ErrTokenInvalid         = goerror.NewBusiness("Invalid or expired token", goerror.CodeUnauthorized)
	ErrProfileImageRequired = goerror.NewBusiness("Profile image is required", goerror.CodeBadRequest)
	ErrProfileImageInvalid  = goerror.NewBusiness("Please upload only images", goerror.CodeBadRequest)
)

var (
	// ErrConfiguration marks a startup configuration problem; the process exits.
	ErrConfiguration = errors.New("auth: invalid configuration")

	// ErrUpstreamDeliveryFailed marks an OTP that could not be handed to the
	// delivery channel. It is logged and never returned to clients.
	ErrUpstreamDeliveryFailed = errors.New("auth: otp delivery failed")
)
