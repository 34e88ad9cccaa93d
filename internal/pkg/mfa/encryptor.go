// Package mfa encrypts second-factor secrets at rest.
package mfa

import (
	"encoding/base64"
	"fmt"
)

// Encryptor encrypts and decrypts secrets bound to a Scope.
type Encryptor interface {
	Encrypt(plaintext []byte, scope Scope) ([]byte, error)
	Decrypt(ciphertext []byte, scope Scope) ([]byte, error)
}

// KeyProvider returns the 32-byte AES key for a scope.
type KeyProvider interface {
	Key(scope Scope) ([]byte, error)
}

// StaticKeyProvider returns the same key for every scope.
type StaticKeyProvider struct {
	KeyBytes []byte
}

// NewStaticKeyProviderBase64 decodes a standard base64 key as stored in config.
func NewStaticKeyProviderBase64(encoded string) (StaticKeyProvider, error) {
	key, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return StaticKeyProvider{}, fmt.Errorf("mfa: decode key: %w", err)
	}
	if len(key) != aesKeyLen {
		return StaticKeyProvider{}, fmt.Errorf("mfa: key is %d bytes, want %d: %w", len(key), aesKeyLen, ErrInvalidKeyLength)
	}
	return StaticKeyProvider{KeyBytes: key}, nil
}

// Key returns a copy of the static key.
func (p StaticKeyProvider) Key(Scope) ([]byte, error) {
	if len(p.KeyBytes) == 0 {
		return nil, ErrMissingStaticKey
	}
	return append([]byte(nil), p.KeyBytes...), nil
}
