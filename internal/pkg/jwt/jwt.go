package jwt

import (
	"context"
	"errors"
	"time"

	"github.com/go-jose/go-jose/v4"
	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidSigningMethod is returned when the JWT signing method is not supported.
	ErrInvalidSigningMethod = errors.New("invalid JWT signing method")

	// ErrSigningKeyTooShort is returned when the HS512 signing key is less than 64 bytes.
	ErrSigningKeyTooShort = errors.New("HS512 signing key must be at least 64 bytes (512 bits)")

	// ErrTokenExpired is returned when the JWT token has expired.
	ErrTokenExpired = errors.New("JWT token has expired")

	// ErrInvalidToken is returned when the token is malformed or fails validation.
	ErrInvalidToken = errors.New("invalid token")

	// ErrUnknownKeyID is returned when a token references a key that is not in the key store.
	ErrUnknownKeyID = errors.New("unknown JWT key id")
)

// JWT issues and verifies the tokens used by the API and the OIDC endpoints.
type JWT interface {
	// Generate creates a signed access token for the subject.
	Generate(sub Subject) (Token, error)
	// GenerateIDToken creates a signed OpenID Connect ID token.
	GenerateIDToken(in IDToken) (string, error)
	// Verify parses and validates an access token and returns its claims.
	Verify(tokenStr string) (Claims, error)
	// Algorithm returns the JWS algorithm name used to sign tokens.
	Algorithm() string
	// JWKS returns the public verification keys. It is empty for symmetric signing.
	JWKS() jose.JSONWebKeySet
}

type clocker interface {
	Now() time.Time
}

type generator interface {
	Generate() string
}

type jwtContextKey struct{}

// Config defines the inputs for building a JWT implementation.
type Config struct {
	// Secret is the HMAC signing key (HS512 only).
	Secret []byte
	// Issuer is the token issuer value.
	Issuer string
	// Audiences are the accepted access token audiences.
	Audiences []string
	// TTLMinutes is the access token time-to-live.
	TTLMinutes time.Duration
	// IDTokenTTL is the ID token time-to-live. Defaults to TTLMinutes.
	IDTokenTTL time.Duration
	// Clock provides the current time source.
	Clock clocker
	// UUID generates token IDs.
	UUID generator
}

// Subject describes who an access token is issued to.
type Subject struct {
	UserID   int64
	Email    string
	Role     string
	Scope    string
	ClientID string
}

// Token is a signed access token with its identifier and expiry.
type Token struct {
	Value     string
	ID        string
	ExpiresAt time.Time
}

// IDToken describes the OpenID Connect ID token to issue.
type IDToken struct {
	UserID   int64
	Email    string
	Name     string
	ClientID string
	Nonce    string
	AuthTime time.Time
}

// Claims are the access token claims.
type Claims struct {
	// RegisteredClaims holds the standard JWT claims.
	jwt.RegisteredClaims
	// UserID is the authenticated user identifier.
	UserID int64 `json:"user_id,string"`
	// UserEmail is the authenticated user email.
	UserEmail string `json:"user_email"`
	// Role is the user's authorization role.
	Role string `json:"role,omitempty"`
	// Scope is the space separated OAuth2 scope granted to the token.
	Scope string `json:"scope,omitempty"`
	// ClientID is the OAuth2 client the token was issued to.
	ClientID string `json:"client_id,omitempty"`
}

// idTokenClaims are the OpenID Connect ID token claims.
type idTokenClaims struct {
	jwt.RegisteredClaims
	AuthTime int64  `json:"auth_time,omitempty"`
	AZP      string `json:"azp,omitempty"`
	Nonce    string `json:"nonce,omitempty"`
	Email    string `json:"email,omitempty"`
	Name     string `json:"name,omitempty"`
}

// GetAuth returns the JWT claims stored in the context, if any.
func GetAuth(ctx context.Context) *Claims {
	clm, ok := ctx.Value(jwtContextKey{}).(Claims)
	if !ok {
		return nil
	}

	return &clm
}

// SetAuth stores JWT claims in the context.
func SetAuth(ctx context.Context, clm Claims) context.Context {
	return context.WithValue(ctx, jwtContextKey{}, clm)
}
