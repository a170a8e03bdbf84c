// Package otp generates the numeric one-time passcodes mailed to users after
// a successful password check.
//
// Codes are drawn uniformly from [Min, Max] using a cryptographically secure
// source. Leading zeros never occur, so every code is exactly six characters
// without padding.
package otp
