// Package hash provides helpers for hashing and verifying secrets.
//
// Passwords go through a slow, salted algorithm (Bcrypt or Argon2id, picked
// with NewPassword). One-time codes go through HMACSHA256 so the cache only
// ever holds a keyed digest.
package hash
