package jwt

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
	"sync"

	"github.com/go-jose/go-jose/v4"
	libJWT "github.com/golang-jwt/jwt/v5"
)

// KeyStore provides access to RS256 signing and verification keys.
type KeyStore interface {
	// SigningKey returns the active private key and its key ID.
	SigningKey() (*rsa.PrivateKey, string, error)
	// PublicKey returns the public key for kid.
	PublicKey(kid string) (*rsa.PublicKey, error)
	// PublicKeys returns every verification key by key ID.
	PublicKeys() map[string]*rsa.PublicKey
}

// StaticKeyStore is an in-memory KeyStore with one active signing key and
// any number of verification-only keys kept around during rotation.
type StaticKeyStore struct {
	mu         sync.RWMutex
	privateKey *rsa.PrivateKey
	keyID      string
	publicKeys map[string]*rsa.PublicKey
}

// NewStaticKeyStore creates a store whose key ID is the RFC 7638 thumbprint of the public key.
func NewStaticKeyStore(privateKey *rsa.PrivateKey) (*StaticKeyStore, error) {
	kid, err := Thumbprint(&privateKey.PublicKey)
	if err != nil {
		return nil, err
	}

	return &StaticKeyStore{
		privateKey: privateKey,
		keyID:      kid,
		publicKeys: map[string]*rsa.PublicKey{kid: &privateKey.PublicKey},
	}, nil
}

// SigningKey returns the active private key and its key ID.
func (s *StaticKeyStore) SigningKey() (*rsa.PrivateKey, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.privateKey == nil {
		return nil, "", errors.New("jwt: no signing key available")
	}
	return s.privateKey, s.keyID, nil
}

// PublicKey returns the public key for kid.
func (s *StaticKeyStore) PublicKey(kid string) (*rsa.PublicKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pk, ok := s.publicKeys[kid]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKeyID, kid)
	}
	return pk, nil
}

// PublicKeys returns a copy of every verification key.
func (s *StaticKeyStore) PublicKeys() map[string]*rsa.PublicKey {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]*rsa.PublicKey, len(s.publicKeys))
	for k, v := range s.publicKeys {
		out[k] = v
	}
	return out
}

// AddPublicKey registers a verification-only key, typically the previous signing key.
func (s *StaticKeyStore) AddPublicKey(key *rsa.PublicKey) (string, error) {
	kid, err := Thumbprint(key)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	s.publicKeys[kid] = key
	s.mu.Unlock()

	return kid, nil
}

// Thumbprint returns the base64url SHA-256 JWK thumbprint used as key ID.
func Thumbprint(pub *rsa.PublicKey) (string, error) {
	sum, err := (&jose.JSONWebKey{Key: pub}).Thumbprint(crypto.SHA256)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(sum), nil
}

// ParseRSAPrivateKeyPEM parses a PKCS#1 or PKCS#8 PEM encoded RSA private key.
func ParseRSAPrivateKeyPEM(data []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, errors.New("jwt: no PEM block found")
	}

	if key, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return key, nil
	}

	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("jwt: parse private key: %w", err)
	}

	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, errors.New("jwt: private key is not RSA")
	}

	return key, nil
}

// ParseRSAPublicKeyPEM parses a PKIX PEM encoded RSA public key.
func ParseRSAPublicKeyPEM(data []byte) (*rsa.PublicKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, errors.New("jwt: no PEM block found")
	}

	parsed, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("jwt: parse public key: %w", err)
	}

	key, ok := parsed.(*rsa.PublicKey)
	if !ok {
		return nil, errors.New("jwt: public key is not RSA")
	}

	return key, nil
}

// GenerateRSAKey creates a new RSA key of the given size.
func GenerateRSAKey(bits int) (*rsa.PrivateKey, error) {
	return rsa.GenerateKey(rand.Reader, bits)
}

type rsaKey struct {
	store KeyStore
}

// NewRS256 constructs a JWT implementation signing with RS256 and publishing a JWKS.
func NewRS256(cfg Config, store KeyStore) (*Manager, error) {
	if store == nil {
		return nil, errors.New("jwt: key store is required")
	}
	if _, _, err := store.SigningKey(); err != nil {
		return nil, err
	}

	return newManager(cfg, &rsaKey{store: store}), nil
}

func (k *rsaKey) method() libJWT.SigningMethod {
	return libJWT.SigningMethodRS256
}

func (k *rsaKey) signingKey() (any, string, error) {
	return k.store.SigningKey()
}

func (k *rsaKey) verifyKey(t *libJWT.Token) (any, error) {
	if _, ok := t.Method.(*libJWT.SigningMethodRSA); !ok {
		return nil, ErrInvalidSigningMethod
	}

	kid, ok := t.Header["kid"].(string)
	if !ok || kid == "" {
		return nil, ErrInvalidToken
	}

	return k.store.PublicKey(kid)
}

func (k *rsaKey) jwks() jose.JSONWebKeySet {
	pubs := k.store.PublicKeys()
	set := jose.JSONWebKeySet{Keys: make([]jose.JSONWebKey, 0, len(pubs))}
	for kid, pub := range pubs {
		set.Keys = append(set.Keys, jose.JSONWebKey{
			Key:       pub,
			KeyID:     kid,
			Algorithm: string(jose.RS256),
			Use:       "sig",
		})
	}
	return set
}
