package inbound

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-jose/go-jose/v4"
	"github.com/shandysiswandi/gofocus/internal/identity/entity"
	"github.com/shandysiswandi/gofocus/internal/identity/usecase"
	"github.com/shandysiswandi/gofocus/internal/pkg/goerror"
	"github.com/shandysiswandi/gofocus/internal/pkg/instrument"
	"github.com/shandysiswandi/gofocus/internal/pkg/jwt"
	"github.com/shandysiswandi/gofocus/internal/pkg/router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type stubJWT struct{}

func (stubJWT) Generate(jwt.Subject) (jwt.Token, error)     { return jwt.Token{}, nil }
func (stubJWT) GenerateIDToken(jwt.IDToken) (string, error) { return "", nil }
func (stubJWT) Algorithm() string                           { return "HS512" }
func (stubJWT) JWKS() jose.JSONWebKeySet                    { return jose.JSONWebKeySet{Keys: []jose.JSONWebKey{}} }
func (stubJWT) Verify(token string) (jwt.Claims, error) {
	if token != "good" {
		return jwt.Claims{}, jwt.ErrInvalidToken
	}
	return jwt.Claims{UserID: 7}, nil
}

type stubUUID struct{}

func (stubUUID) Generate() string { return "cid" }

type mockUC struct {
	mock.Mock
}

func (m *mockUC) Register(ctx context.Context, in usecase.RegisterInput) (*entity.User, error) {
	args := m.Called(ctx, in)
	u, _ := args.Get(0).(*entity.User)
	return u, args.Error(1)
}

func (m *mockUC) Login(ctx context.Context, in usecase.LoginInput) (*usecase.LoginOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*usecase.LoginOutput)
	return out, args.Error(1)
}

func (m *mockUC) Login2FA(ctx context.Context, in usecase.Login2FAInput) (*usecase.TokenOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*usecase.TokenOutput)
	return out, args.Error(1)
}

func (m *mockUC) RefreshToken(ctx context.Context, in usecase.RefreshTokenInput) (*usecase.TokenOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*usecase.TokenOutput)
	return out, args.Error(1)
}

func (m *mockUC) Logout(ctx context.Context, in usecase.LogoutInput) error {
	return m.Called(ctx, in).Error(0)
}

func (m *mockUC) LogoutAll(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockUC) Profile(ctx context.Context) (*entity.User, error) {
	args := m.Called(ctx)
	u, _ := args.Get(0).(*entity.User)
	return u, args.Error(1)
}

func (m *mockUC) ProfileUpdate(ctx context.Context, in usecase.ProfileUpdateInput) (*entity.User, error) {
	args := m.Called(ctx, in)
	u, _ := args.Get(0).(*entity.User)
	return u, args.Error(1)
}

func (m *mockUC) PasswordChange(ctx context.Context, in usecase.PasswordChangeInput) error {
	return m.Called(ctx, in).Error(0)
}

func (m *mockUC) TOTPSetup(ctx context.Context, in usecase.TOTPSetupInput) (*usecase.TOTPSetupOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*usecase.TOTPSetupOutput)
	return out, args.Error(1)
}

func (m *mockUC) TOTPConfirm(ctx context.Context, in usecase.TOTPConfirmInput) error {
	return m.Called(ctx, in).Error(0)
}

func (m *mockUC) TOTPDisable(ctx context.Context, in usecase.TOTPDisableInput) error {
	return m.Called(ctx, in).Error(0)
}

func (m *mockUC) UserList(ctx context.Context, in usecase.UserListInput) (*usecase.UserListOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*usecase.UserListOutput)
	return out, args.Error(1)
}

func (m *mockUC) OAuth2Token(ctx context.Context, in usecase.OAuth2TokenInput) (*usecase.OAuth2TokenOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*usecase.OAuth2TokenOutput)
	return out, args.Error(1)
}

func (m *mockUC) OAuth2Revoke(ctx context.Context, in usecase.OAuth2RevokeInput) error {
	return m.Called(ctx, in).Error(0)
}

func (m *mockUC) UserInfo(ctx context.Context) (*usecase.UserInfoOutput, error) {
	args := m.Called(ctx)
	out, _ := args.Get(0).(*usecase.UserInfoOutput)
	return out, args.Error(1)
}

func (m *mockUC) Discovery(ctx context.Context) *usecase.DiscoveryOutput {
	return m.Called(ctx).Get(0).(*usecase.DiscoveryOutput)
}

func (m *mockUC) JWKS(ctx context.Context) jose.JSONWebKeySet {
	return m.Called(ctx).Get(0).(jose.JSONWebKeySet)
}

func newServer(t *testing.T) (*mockUC, http.Handler) {
	t.Helper()

	r := router.NewRouter(router.Config{UUID: stubUUID{}, JWT: stubJWT{}, Instrument: instrument.NewNoop()})
	uc := &mockUC{}
	RegisterHTTPEndpoint(r, uc, router.NewRateLimiter(600, 100))

	return uc, r
}

func call(t *testing.T, h http.Handler, method, path, body, token string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var out map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec, out
}

func postForm(t *testing.T, h http.Handler, path string, form url.Values, basicUser, basicPass string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if basicUser != "" {
		req.SetBasicAuth(basicUser, basicPass)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var out map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec, out
}

func TestHTTP_Login(t *testing.T) {
	t.Run("returns the token pair in the envelope", func(t *testing.T) {
		// Arrange
		uc, h := newServer(t)
		uc.On("Login", mock.Anything, usecase.LoginInput{Email: "ada@example.com", Password: "pw"}).
			Return(&usecase.LoginOutput{TokenOutput: usecase.TokenOutput{
				AccessToken:  "at",
				RefreshToken: "rt",
				TokenType:    "Bearer",
				ExpiresIn:    900,
			}}, nil)

		// Act
		rec, body := call(t, h, http.MethodPost, "/api/v1/identity/login", `{"email":"ada@example.com","password":"pw"}`, "")

		// Assert
		assert.Equal(t, http.StatusOK, rec.Code)
		data := body["data"].(map[string]any)
		assert.Equal(t, "at", data["access_token"])
		assert.Equal(t, "rt", data["refresh_token"])
		assert.Equal(t, float64(900), data["expires_in"])
		assert.NotContains(t, data, "mfa_required")
	})

	t.Run("mfa challenge", func(t *testing.T) {
		uc, h := newServer(t)
		uc.On("Login", mock.Anything, mock.Anything).Return(&usecase.LoginOutput{
			MfaRequired:      true,
			ChallengeToken:   "ch",
			AvailableMethods: []string{"totp"},
		}, nil)

		rec, body := call(t, h, http.MethodPost, "/api/v1/identity/login", `{"email":"a@b.co","password":"pw"}`, "")

		assert.Equal(t, http.StatusOK, rec.Code)
		data := body["data"].(map[string]any)
		assert.Equal(t, true, data["mfa_required"])
		assert.Equal(t, "ch", data["challenge_token"])
		assert.NotContains(t, data, "access_token")
	})

	t.Run("business error maps to its status", func(t *testing.T) {
		uc, h := newServer(t)
		uc.On("Login", mock.Anything, mock.Anything).Return(nil, goerror.NewBusiness("Invalid email or password", goerror.CodeUnauthorized))

		rec, body := call(t, h, http.MethodPost, "/api/v1/identity/login", `{"email":"a@b.co","password":"pw"}`, "")

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Invalid email or password", body["message"])
	})

	t.Run("unknown fields are rejected", func(t *testing.T) {
		_, h := newServer(t)

		rec, _ := call(t, h, http.MethodPost, "/api/v1/identity/login", `{"email":"a@b.co","pass":"pw"}`, "")

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHTTP_Register(t *testing.T) {
	// Arrange
	uc, h := newServer(t)
	now := time.Date(2026, 5, 14, 9, 0, 0, 0, time.UTC)
	uc.On("Register", mock.Anything, usecase.RegisterInput{Email: "ada@example.com", Password: "pw", FullName: "Ada"}).
		Return(&entity.User{ID: 42, Email: "ada@example.com", FullName: "Ada", Role: entity.RoleUser, Status: entity.UserStatusActive, CreatedAt: now, UpdatedAt: now}, nil)

	// Act
	rec, body := call(t, h, http.MethodPost, "/api/v1/identity/register", `{"email":"ada@example.com","password":"pw","full_name":"Ada"}`, "")

	// Assert
	assert.Equal(t, http.StatusCreated, rec.Code)
	data := body["data"].(map[string]any)
	assert.Equal(t, "42", data["id"])
	assert.Equal(t, "2026-05-14T09:00:00Z", data["created_at"])
}

func TestHTTP_Logout(t *testing.T) {
	t.Run("empty body", func(t *testing.T) {
		uc, h := newServer(t)
		uc.On("Logout", mock.Anything, usecase.LogoutInput{}).Return(nil)

		rec, _ := call(t, h, http.MethodPost, "/api/v1/identity/logout", "", "good")

		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("with refresh token", func(t *testing.T) {
		uc, h := newServer(t)
		uc.On("Logout", mock.Anything, usecase.LogoutInput{RefreshToken: "rt"}).Return(nil)

		rec, _ := call(t, h, http.MethodPost, "/api/v1/identity/logout", `{"refresh_token":"rt"}`, "good")

		assert.Equal(t, http.StatusNoContent, rec.Code)
		uc.AssertExpectations(t)
	})

	t.Run("requires a bearer token", func(t *testing.T) {
		_, h := newServer(t)

		rec, _ := call(t, h, http.MethodPost, "/api/v1/identity/logout", "", "")

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestHTTP_UserList(t *testing.T) {
	// Arrange
	uc, h := newServer(t)
	uc.On("UserList", mock.Anything, usecase.UserListInput{Search: "ada", Status: "active", Size: 10, Page: 2}).
		Return(&usecase.UserListOutput{Page: 2, Size: 10, Total: 11, Users: []entity.User{{ID: 1, Email: "ada@example.com"}}}, nil)

	// Act
	rec, body := call(t, h, http.MethodGet, "/api/v1/identity/users?search=ada&status=active&size=10&page=2", "", "good")

	// Assert
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(11), body["meta"].(map[string]any)["total"])
	users := body["data"].(map[string]any)["users"].([]any)
	assert.Len(t, users, 1)
}

func TestHTTP_Discovery(t *testing.T) {
	// Arrange
	uc, h := newServer(t)
	uc.On("Discovery", mock.Anything).Return(&usecase.DiscoveryOutput{
		Issuer:              "https://focus.example.com",
		TokenEndpoint:       "https://focus.example.com/oauth2/token",
		GrantTypesSupported: []string{"password", "refresh_token"},
	})

	// Act
	rec, body := call(t, h, http.MethodGet, "/.well-known/openid-configuration", "", "")

	// Assert
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://focus.example.com", body["issuer"])
	assert.Equal(t, "https://focus.example.com/oauth2/token", body["token_endpoint"])
	assert.NotContains(t, body, "data")
}

func TestHTTP_JWKS(t *testing.T) {
	uc, h := newServer(t)
	uc.On("JWKS", mock.Anything).Return(jose.JSONWebKeySet{Keys: []jose.JSONWebKey{}})

	rec, body := call(t, h, http.MethodGet, "/oauth2/jwks", "", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []any{}, body["keys"])
}

func TestHTTP_OAuth2Token(t *testing.T) {
	t.Run("client_secret_post", func(t *testing.T) {
		// Arrange
		uc, h := newServer(t)
		uc.On("OAuth2Token", mock.Anything, usecase.OAuth2TokenInput{
			GrantType:    "password",
			ClientID:     "cli",
			ClientSecret: "s3cret",
			Username:     "ada@example.com",
			Password:     "pw",
			Scope:        "openid",
		}).Return(&usecase.OAuth2TokenOutput{AccessToken: "at", TokenType: "Bearer", ExpiresIn: 900, IDToken: "idt", Scope: "openid"}, nil)

		// Act
		rec, body := postForm(t, h, "/oauth2/token", url.Values{
			"grant_type":    {"password"},
			"client_id":     {"cli"},
			"client_secret": {"s3cret"},
			"username":      {"ada@example.com"},
			"password":      {"pw"},
			"scope":         {"openid"},
		}, "", "")

		// Assert
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
		assert.Equal(t, "at", body["access_token"])
		assert.Equal(t, "idt", body["id_token"])
		assert.NotContains(t, body, "refresh_token")
	})

	t.Run("invalid_client over basic auth asks for credentials", func(t *testing.T) {
		uc, h := newServer(t)
		uc.On("OAuth2Token", mock.Anything, mock.MatchedBy(func(in usecase.OAuth2TokenInput) bool {
			return in.ClientID == "cli" && in.ClientSecret == "a b"
		})).Return(nil, &usecase.OAuth2Error{Code: usecase.OAuth2InvalidClient, Description: "client authentication failed"})

		rec, body := postForm(t, h, "/oauth2/token", url.Values{"grant_type": {"password"}}, "cli", url.QueryEscape("a b"))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "invalid_client", body["error"])
		assert.NotEmpty(t, rec.Header().Get("WWW-Authenticate"))
	})

	t.Run("server failure is server_error", func(t *testing.T) {
		uc, h := newServer(t)
		uc.On("OAuth2Token", mock.Anything, mock.Anything).Return(nil, goerror.NewServer(assert.AnError))

		rec, body := postForm(t, h, "/oauth2/token", url.Values{"grant_type": {"password"}, "client_id": {"web"}}, "", "")

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "server_error", body["error"])
	})

	t.Run("other content types are refused", func(t *testing.T) {
		_, h := newServer(t)
		req := httptest.NewRequest(http.MethodPost, "/oauth2/token", strings.NewReader("grant_type=password"))
		req.Header.Set("Content-Type", "text/plain")
		rec := httptest.NewRecorder()

		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
	})
}

func TestHTTP_OAuth2Revoke(t *testing.T) {
	uc, h := newServer(t)
	uc.On("OAuth2Revoke", mock.Anything, usecase.OAuth2RevokeInput{
		Token:         "rt",
		TokenTypeHint: "refresh_token",
		ClientID:      "web",
	}).Return(nil)

	rec, _ := postForm(t, h, "/oauth2/revoke", url.Values{
		"token":           {"rt"},
		"token_type_hint": {"refresh_token"},
		"client_id":       {"web"},
	}, "", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	uc.AssertExpectations(t)
}

func TestHTTP_UserInfo(t *testing.T) {
	t.Run("plain claims document", func(t *testing.T) {
		uc, h := newServer(t)
		uc.On("UserInfo", mock.Anything).Return(&usecase.UserInfoOutput{
			Subject:           "7",
			Email:             "ada@example.com",
			Name:              "Ada",
			PreferredUsername: "ada@example.com",
		}, nil)

		rec, body := call(t, h, http.MethodGet, "/oauth2/userinfo", "", "good")

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "7", body["sub"])
		assert.Equal(t, "ada@example.com", body["preferred_username"])
	})

	t.Run("banned account is invalid_token", func(t *testing.T) {
		uc, h := newServer(t)
		uc.On("UserInfo", mock.Anything).Return(nil, goerror.NewBusiness("Account is banned", goerror.CodeForbidden))

		rec, body := call(t, h, http.MethodGet, "/oauth2/userinfo", "", "good")

		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, "invalid_token", body["error"])
	})

	t.Run("requires a bearer token", func(t *testing.T) {
		_, h := newServer(t)

		rec, _ := call(t, h, http.MethodGet, "/oauth2/userinfo", "", "")

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
