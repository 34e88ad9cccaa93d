package mfa

// Purpose identifies what a ciphertext protects.
type Purpose string

const (
	// PurposeTOTPSeed scopes encryption to a confirmed TOTP factor secret.
	PurposeTOTPSeed Purpose = "totp_seed"
	// PurposeSetupChallenge scopes encryption to a secret waiting for confirmation.
	PurposeSetupChallenge Purpose = "totp_setup_challenge"
)

// Scope binds a ciphertext to its owner and purpose. It is fed to AES-GCM as
// additional authenticated data, so a seed copied to another user's row or
// purpose fails to decrypt.
type Scope struct {
	UserID  int64
	Purpose Purpose
}
