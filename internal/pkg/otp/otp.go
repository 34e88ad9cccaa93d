package otp

import (
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

// OTP defines the contract for TOTP operations.
type OTP interface {
	// Generate creates a base32 secret and an otpauth:// provisioning URI.
	Generate(accountName string) (secret string, uri string, err error)
	Validate(code, secret string, at time.Time) bool
	GenerateCode(secret string, at time.Time) (string, error)
}

// TOTP implements OTP with SHA-1, the algorithm authenticator apps expect.
type TOTP struct {
	issuer string
	opts   totp.ValidateOpts
}

// NewTOTP builds a TOTP. Unsupported digit counts fall back to 6, a zero
// period to 30 seconds and a zero skew to one step either side.
func NewTOTP(issuer string, period, skew uint, digits otp.Digits) *TOTP {
	if digits != otp.DigitsSix && digits != otp.DigitsEight {
		digits = otp.DigitsSix
	}
	if period == 0 {
		period = 30
	}
	if skew == 0 {
		skew = 1
	}

	return &TOTP{
		issuer: issuer,
		opts: totp.ValidateOpts{
			Period:    period,
			Skew:      skew,
			Digits:    digits,
			Algorithm: otp.AlgorithmSHA1,
		},
	}
}

func (o *TOTP) Generate(accountName string) (string, string, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      o.issuer,
		AccountName: accountName,
		Period:      o.opts.Period,
		SecretSize:  20,
		Digits:      o.opts.Digits,
		Algorithm:   o.opts.Algorithm,
	})
	if err != nil {
		return "", "", err
	}

	return key.Secret(), key.URL(), nil
}

func (o *TOTP) Validate(code, secret string, at time.Time) bool {
	if len(code) != o.opts.Digits.Length() {
		return false
	}
	ok, err := totp.ValidateCustom(code, secret, at, o.opts)
	return ok && err == nil
}

func (o *TOTP) GenerateCode(secret string, at time.Time) (string, error) {
	return totp.GenerateCodeCustom(secret, at, o.opts)
}
