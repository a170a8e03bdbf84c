// Package mail defines the contract for sending email and its SMTP
// implementation.
//
// Usecases depend on Mail and Message only. SMTP speaks to a relay with
// STARTTLS when offered; Log writes messages to slog for local runs without a
// relay.
package mail
