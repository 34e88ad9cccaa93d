package jwt

import (
	"errors"
	"strconv"
	"time"

	"github.com/go-jose/go-jose/v4"
	libJWT "github.com/golang-jwt/jwt/v5"
)

// keyMaterial hides the signing algorithm from the token logic.
type keyMaterial interface {
	method() libJWT.SigningMethod
	signingKey() (key any, kid string, err error)
	verifyKey(t *libJWT.Token) (any, error)
	jwks() jose.JSONWebKeySet
}

// Manager implements JWT over a symmetric or asymmetric key.
type Manager struct {
	keys      keyMaterial
	issuer    string
	audiences []string
	ttl       time.Duration
	idTTL     time.Duration
	clock     clocker
	uuid      generator
}

func newManager(cfg Config, keys keyMaterial) *Manager {
	idTTL := cfg.IDTokenTTL
	if idTTL <= 0 {
		idTTL = cfg.TTLMinutes
	}

	return &Manager{
		keys:      keys,
		issuer:    cfg.Issuer,
		audiences: cfg.Audiences,
		ttl:       cfg.TTLMinutes,
		idTTL:     idTTL,
		clock:     cfg.Clock,
		uuid:      cfg.UUID,
	}
}

// Generate creates a signed access token for the subject.
func (m *Manager) Generate(sub Subject) (Token, error) {
	now := m.clock.Now()
	jti := m.uuid.Generate()
	exp := now.Add(m.ttl)

	signed, err := m.sign(Claims{
		RegisteredClaims: libJWT.RegisteredClaims{
			ID:        jti,
			Subject:   strconv.FormatInt(sub.UserID, 10),
			Issuer:    m.issuer,
			Audience:  m.audiences,
			IssuedAt:  libJWT.NewNumericDate(now),
			NotBefore: libJWT.NewNumericDate(now),
			ExpiresAt: libJWT.NewNumericDate(exp),
		},
		UserID:    sub.UserID,
		UserEmail: sub.Email,
		Role:      sub.Role,
		Scope:     sub.Scope,
		ClientID:  sub.ClientID,
	})
	if err != nil {
		return Token{}, err
	}

	return Token{Value: signed, ID: jti, ExpiresAt: exp}, nil
}

// GenerateIDToken creates a signed ID token whose audience is the client.
func (m *Manager) GenerateIDToken(in IDToken) (string, error) {
	now := m.clock.Now()

	clm := idTokenClaims{
		RegisteredClaims: libJWT.RegisteredClaims{
			ID:        m.uuid.Generate(),
			Subject:   strconv.FormatInt(in.UserID, 10),
			Issuer:    m.issuer,
			Audience:  libJWT.ClaimStrings{in.ClientID},
			IssuedAt:  libJWT.NewNumericDate(now),
			ExpiresAt: libJWT.NewNumericDate(now.Add(m.idTTL)),
		},
		AZP:   in.ClientID,
		Nonce: in.Nonce,
		Email: in.Email,
		Name:  in.Name,
	}
	if !in.AuthTime.IsZero() {
		clm.AuthTime = in.AuthTime.Unix()
	}

	return m.sign(clm)
}

// Verify parses and validates an access token.
func (m *Manager) Verify(tokenStr string) (Claims, error) {
	var claims Claims

	opts := []libJWT.ParserOption{
		libJWT.WithIssuer(m.issuer),
		libJWT.WithValidMethods([]string{m.keys.method().Alg()}),
		libJWT.WithTimeFunc(m.clock.Now),
		libJWT.WithIssuedAt(),
		libJWT.WithExpirationRequired(),
	}
	if len(m.audiences) > 0 {
		opts = append(opts, libJWT.WithAudience(m.audiences...))
	}

	token, err := libJWT.ParseWithClaims(tokenStr, &claims, m.keys.verifyKey, opts...)
	if err != nil {
		if errors.Is(err, libJWT.ErrTokenExpired) {
			return Claims{}, ErrTokenExpired
		}
		return Claims{}, err
	}

	if !token.Valid {
		return Claims{}, ErrInvalidToken
	}

	return claims, nil
}

// Algorithm returns the JWS algorithm name.
func (m *Manager) Algorithm() string {
	return m.keys.method().Alg()
}

// JWKS returns the public verification keys.
func (m *Manager) JWKS() jose.JSONWebKeySet {
	return m.keys.jwks()
}

func (m *Manager) sign(clm libJWT.Claims) (string, error) {
	key, kid, err := m.keys.signingKey()
	if err != nil {
		return "", err
	}

	token := libJWT.NewWithClaims(m.keys.method(), clm)
	if kid != "" {
		token.Header["kid"] = kid
	}

	return token.SignedString(key)
}
