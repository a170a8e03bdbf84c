package entity

import "time"

// DateLayout is the wire and storage format of a date of birth.
const DateLayout = time.DateOnly

// User is a registered account.
type User struct {
	ID           int64
	Email        string
	PasswordHash string
	Name         string
	Company      string
	Age          int
	DateOfBirth  time.Time
	ProfileImage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CreateUser holds the values persisted when an account is registered.
type CreateUser struct {
	ID           int64
	Email        string
	PasswordHash string
	Name         string
	Company      string
	Age          int
	DateOfBirth  time.Time
	ProfileImage string
}

// OTPRecord is the single pending one-time passcode of an email.
// Code is only populated on the issuing path; stores keep a hash of it.
type OTPRecord struct {
	Email     string
	Code      string
	ExpiresAt time.Time
}

// Expired reports whether the record is no longer usable at now.
func (r OTPRecord) Expired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}
