// Package jwt issues and verifies the session tokens handed out after a
// successful OTP check.
//
// Tokens are stateless HS512 JWTs carrying the user id as subject. There is no
// server-side revocation, so callers must still confirm the user exists.
package jwt
