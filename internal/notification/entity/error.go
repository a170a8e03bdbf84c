package entity

import "errors"

var (
	// ErrMalformedMessage marks a broker message that can never be processed.
	ErrMalformedMessage = errors.New("notification: malformed message")
	// ErrEmailUndelivered is returned when every send attempt failed.
	ErrEmailUndelivered = errors.New("notification: email could not be delivered")
)
