package entity

import "time"

// OTPEmail is the data rendered into the passcode email.
type OTPEmail struct {
	Name          string
	Code          string
	ExpiresAt     time.Time
	ExpiryMinutes int
	FromName      string
	Year          int
}
