package usecase

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-jose/go-jose/v4"
	"github.com/shandysiswandi/gofocus/internal/identity/entity"
	"github.com/shandysiswandi/gofocus/internal/pkg/goerror"
	"github.com/shandysiswandi/gofocus/internal/pkg/jwt"
)

const (
	GrantTypePassword     = "password"
	GrantTypeRefreshToken = "refresh_token"
)

// OAuth2 error codes from RFC 6749 section 5.2.
const (
	OAuth2InvalidRequest       = "invalid_request"
	OAuth2InvalidClient        = "invalid_client"
	OAuth2InvalidGrant         = "invalid_grant"
	OAuth2UnsupportedGrantType = "unsupported_grant_type"
	OAuth2InvalidScope         = "invalid_scope"
	OAuth2ServerError          = "server_error"
)

// OAuth2Error is returned by the token and revocation endpoints.
type OAuth2Error struct {
	Code        string
	Description string
}

func (e *OAuth2Error) Error() string {
	return "oauth2: " + e.Code + ": " + e.Description
}

func (e *OAuth2Error) StatusCode() int {
	if e.Code == OAuth2InvalidClient {
		return http.StatusUnauthorized
	}
	return http.StatusBadRequest
}

func oauth2Error(code, desc string) error {
	return &OAuth2Error{Code: code, Description: desc}
}

type OAuth2TokenInput struct {
	GrantType    string
	ClientID     string
	ClientSecret string
	Username     string
	Password     string
	RefreshToken string
	Scope        string
	Nonce        string
}

type OAuth2TokenOutput struct {
	AccessToken  string
	TokenType    string
	ExpiresIn    int64
	RefreshToken string
	IDToken      string
	Scope        string
}

// OAuth2Token implements the token endpoint for the password and
// refresh_token grants.
func (s *Usecase) OAuth2Token(ctx context.Context, in OAuth2TokenInput) (*OAuth2TokenOutput, error) {
	ctx, span := s.startSpan(ctx, "OAuth2Token")
	defer span.End()

	if err := s.authenticateClient(ctx, in.ClientID, in.ClientSecret); err != nil {
		return nil, err
	}

	switch in.GrantType {
	case "":
		return nil, oauth2Error(OAuth2InvalidRequest, "grant_type is required")
	case GrantTypePassword:
		return s.passwordGrant(ctx, in)
	case GrantTypeRefreshToken:
		return s.refreshTokenGrant(ctx, in)
	default:
		slog.WarnContext(ctx, "unsupported grant type", "grant_type", in.GrantType, "client_id", in.ClientID)
		return nil, oauth2Error(OAuth2UnsupportedGrantType, "grant_type "+in.GrantType+" is not supported")
	}
}

// authenticateClient checks the client against oidc.clients. A client with
// an empty secret is public and must not send one.
func (s *Usecase) authenticateClient(ctx context.Context, id, secret string) error {
	if id == "" {
		return oauth2Error(OAuth2InvalidClient, "client authentication failed")
	}

	expected, ok := s.cfg.GetMap("oidc.clients")[id]
	if !ok || subtle.ConstantTimeCompare([]byte(expected), []byte(secret)) != 1 {
		slog.WarnContext(ctx, "oauth2 client authentication failed", "client_id", id)
		return oauth2Error(OAuth2InvalidClient, "client authentication failed")
	}

	return nil
}

func (s *Usecase) passwordGrant(ctx context.Context, in OAuth2TokenInput) (*OAuth2TokenOutput, error) {
	if in.Username == "" || in.Password == "" {
		return nil, oauth2Error(OAuth2InvalidRequest, "username and password are required")
	}

	scope, ok := entity.ParseScope(in.Scope)
	if !ok {
		return nil, oauth2Error(OAuth2InvalidScope, "requested scope is not supported")
	}

	user, err := s.checkCredentials(ctx, normalizeEmail(in.Username), in.Password)
	if err != nil {
		return nil, asInvalidGrant(err)
	}

	if user.HasMFA {
		slog.WarnContext(ctx, "password grant refused for mfa account", "user_id", user.ID, "client_id", in.ClientID)
		return nil, oauth2Error(OAuth2InvalidGrant, "account requires multi-factor authentication")
	}

	now := s.clock.Now()
	access, err := s.newAccessToken(ctx, user.User, in.ClientID, scope)
	if err != nil {
		return nil, err
	}

	out := &OAuth2TokenOutput{
		AccessToken: access.Value,
		TokenType:   tokenTypeBearer,
		ExpiresIn:   s.expiresIn(access),
		Scope:       scope.String(),
	}

	if scope.Has(entity.ScopeOfflineAccess) {
		refresh, record, err := s.newRefreshToken(ctx, user.ID, in.ClientID, scope, now)
		if err != nil {
			return nil, err
		}
		if err := s.repoDB.CreateRefreshToken(ctx, record); err != nil {
			slog.ErrorContext(ctx, "failed to repo create refresh token", "user_id", user.ID, "client_id", in.ClientID, "error", err)
			return nil, goerror.NewServer(err)
		}
		out.RefreshToken = refresh
	}

	if scope.Has(entity.ScopeOpenID) {
		if out.IDToken, err = s.newIDToken(ctx, user.User, in.ClientID, in.Nonce, now); err != nil {
			return nil, err
		}
	}

	return out, nil
}

func (s *Usecase) refreshTokenGrant(ctx context.Context, in OAuth2TokenInput) (*OAuth2TokenOutput, error) {
	if in.RefreshToken == "" {
		return nil, oauth2Error(OAuth2InvalidRequest, "refresh_token is required")
	}

	requested, ok := entity.ParseScope(in.Scope)
	if !ok {
		return nil, oauth2Error(OAuth2InvalidScope, "requested scope is not supported")
	}

	rot, err := s.rotateRefreshToken(ctx, in.RefreshToken, in.ClientID, requested)
	switch {
	case errors.Is(err, errRefreshScope):
		return nil, oauth2Error(OAuth2InvalidScope, "requested scope exceeds the original grant")
	case errors.Is(err, errRefreshInvalid), errors.Is(err, errRefreshReused):
		return nil, oauth2Error(OAuth2InvalidGrant, "refresh token is invalid, expired or revoked")
	case err != nil:
		return nil, asInvalidGrant(err)
	}

	out := &OAuth2TokenOutput{
		AccessToken:  rot.access.Value,
		TokenType:    tokenTypeBearer,
		ExpiresIn:    s.expiresIn(rot.access),
		RefreshToken: rot.refresh,
		Scope:        rot.scope.String(),
	}

	if rot.scope.Has(entity.ScopeOpenID) {
		if out.IDToken, err = s.newIDToken(ctx, rot.user, in.ClientID, in.Nonce, rot.authTime); err != nil {
			return nil, err
		}
	}

	return out, nil
}

func (s *Usecase) newIDToken(ctx context.Context, u entity.User, clientID, nonce string, authTime time.Time) (string, error) {
	tok, err := s.jwt.GenerateIDToken(jwt.IDToken{
		UserID:   u.ID,
		Email:    u.Email,
		Name:     u.FullName,
		ClientID: clientID,
		Nonce:    nonce,
		AuthTime: authTime,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate id token", "user_id", u.ID, "client_id", clientID, "error", err)
		return "", goerror.NewServer(err)
	}
	return tok, nil
}

// asInvalidGrant turns a business rejection into invalid_grant. Server
// errors pass through.
func asInvalidGrant(err error) error {
	var gerr *goerror.Error
	if errors.As(err, &gerr) && gerr.Type() != goerror.TypeServer {
		return oauth2Error(OAuth2InvalidGrant, strings.ToLower(gerr.Msg()))
	}
	return err
}

type OAuth2RevokeInput struct {
	Token         string
	TokenTypeHint string
	ClientID      string
	ClientSecret  string
}

// OAuth2Revoke implements RFC 7009. Only an unauthenticated client is an
// error; unknown tokens and tokens of other clients are ignored.
func (s *Usecase) OAuth2Revoke(ctx context.Context, in OAuth2RevokeInput) error {
	ctx, span := s.startSpan(ctx, "OAuth2Revoke")
	defer span.End()

	if err := s.authenticateClient(ctx, in.ClientID, in.ClientSecret); err != nil {
		return err
	}
	if in.Token == "" {
		return oauth2Error(OAuth2InvalidRequest, "token is required")
	}

	if in.TokenTypeHint != "access_token" && s.revokeRefreshTokenOf(ctx, in.ClientID, in.Token) {
		return nil
	}

	clm, err := s.jwt.Verify(in.Token)
	if err != nil || clm.ClientID != in.ClientID {
		return nil
	}
	if err := s.revokeAccessToken(ctx, &clm); err != nil {
		slog.WarnContext(ctx, "failed to revoke access token", "client_id", in.ClientID, "error", err)
	}

	return nil
}

// revokeRefreshTokenOf reports whether token is a refresh token of the client.
func (s *Usecase) revokeRefreshTokenOf(ctx context.Context, clientID, token string) bool {
	sum, err := s.digest(ctx, token)
	if err != nil {
		return false
	}

	rt, err := s.repoDB.GetRefreshToken(ctx, sum)
	if err != nil {
		if !errors.Is(err, goerror.ErrNotFound) {
			slog.ErrorContext(ctx, "failed to repo get refresh token", "client_id", clientID, "error", err)
		}
		return false
	}
	if rt.ClientID != clientID {
		slog.WarnContext(ctx, "refresh token belongs to another client", "client_id", clientID)
		return true
	}

	if err := s.repoDB.RevokeRefreshToken(ctx, sum, rt.UserID); err != nil {
		slog.ErrorContext(ctx, "failed to repo revoke refresh token", "user_id", rt.UserID, "error", err)
	}
	return true
}

type UserInfoOutput struct {
	Subject           string
	Email             string
	Name              string
	PreferredUsername string
}

func (s *Usecase) UserInfo(ctx context.Context) (*UserInfoOutput, error) {
	ctx, span := s.startSpan(ctx, "UserInfo")
	defer span.End()

	user, err := s.Profile(ctx)
	if err != nil {
		return nil, err
	}

	return &UserInfoOutput{
		Subject:           strconv.FormatInt(user.ID, 10),
		Email:             user.Email,
		Name:              user.FullName,
		PreferredUsername: user.Email,
	}, nil
}

type DiscoveryOutput struct {
	Issuer                            string
	TokenEndpoint                     string
	UserinfoEndpoint                  string
	JWKSURI                           string
	RevocationEndpoint                string
	GrantTypesSupported               []string
	ResponseTypesSupported            []string
	SubjectTypesSupported             []string
	IDTokenSigningAlgValuesSupported  []string
	ScopesSupported                   []string
	ClaimsSupported                   []string
	TokenEndpointAuthMethodsSupported []string
}

func (s *Usecase) Discovery(ctx context.Context) *DiscoveryOutput {
	_, span := s.startSpan(ctx, "Discovery")
	defer span.End()

	issuer := strings.TrimRight(s.cfg.GetString("oidc.issuer"), "/")

	return &DiscoveryOutput{
		Issuer:                            issuer,
		TokenEndpoint:                     issuer + "/oauth2/token",
		UserinfoEndpoint:                  issuer + "/oauth2/userinfo",
		JWKSURI:                           issuer + "/oauth2/jwks",
		RevocationEndpoint:                issuer + "/oauth2/revoke",
		GrantTypesSupported:               []string{GrantTypePassword, GrantTypeRefreshToken},
		ResponseTypesSupported:            []string{"token"},
		SubjectTypesSupported:             []string{"public"},
		IDTokenSigningAlgValuesSupported:  []string{s.jwt.Algorithm()},
		ScopesSupported:                   entity.SupportedScopes,
		ClaimsSupported:                   []string{"iss", "sub", "aud", "exp", "iat", "auth_time", "azp", "nonce", "email", "name", "preferred_username"},
		TokenEndpointAuthMethodsSupported: []string{"client_secret_basic", "client_secret_post", "none"},
	}
}

func (s *Usecase) JWKS(ctx context.Context) jose.JSONWebKeySet {
	_, span := s.startSpan(ctx, "JWKS")
	defer span.End()

	return s.jwt.JWKS()
}
