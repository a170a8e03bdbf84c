// Package clock provides a tiny time abstraction.
//
// Code that reasons about expiry (OTP windows, token lifetimes) reads time
// through Clocker so tests can pin and advance it with Fixed.
package clock
