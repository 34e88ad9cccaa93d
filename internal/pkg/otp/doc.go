// Package otp generates and validates RFC 6238 time-based one-time passwords
// for the TOTP second factor.
package otp
