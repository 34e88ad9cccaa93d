package jwt

import (
	"github.com/go-jose/go-jose/v4"
	libJWT "github.com/golang-jwt/jwt/v5"
)

type hmacKey struct {
	secret []byte
}

// NewHS512 constructs a JWT implementation signing with HS512.
func NewHS512(cfg Config) (*Manager, error) {
	if len(cfg.Secret) < 64 {
		return nil, ErrSigningKeyTooShort
	}

	return newManager(cfg, &hmacKey{secret: cfg.Secret}), nil
}

func (k *hmacKey) method() libJWT.SigningMethod {
	return libJWT.SigningMethodHS512
}

func (k *hmacKey) signingKey() (any, string, error) {
	return k.secret, "", nil
}

func (k *hmacKey) verifyKey(t *libJWT.Token) (any, error) {
	if t.Method != libJWT.SigningMethodHS512 {
		return nil, ErrInvalidSigningMethod
	}
	return k.secret, nil
}

// jwks is empty: a shared secret is never published.
func (k *hmacKey) jwks() jose.JSONWebKeySet {
	return jose.JSONWebKeySet{Keys: []jose.JSONWebKey{}}
}
