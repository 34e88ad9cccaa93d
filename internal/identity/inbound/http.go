package inbound

import (
	"context"

	"github.com/go-jose/go-jose/v4"
	"github.com/shandysiswandi/gofocus/internal/identity/entity"
	"github.com/shandysiswandi/gofocus/internal/identity/usecase"
	"github.com/shandysiswandi/gofocus/internal/pkg/router"
)

type uc interface {
	Register(ctx context.Context, in usecase.RegisterInput) (*entity.User, error)
	Login(ctx context.Context, in usecase.LoginInput) (*usecase.LoginOutput, error)
	Login2FA(ctx context.Context, in usecase.Login2FAInput) (*usecase.TokenOutput, error)
	RefreshToken(ctx context.Context, in usecase.RefreshTokenInput) (*usecase.TokenOutput, error)
	Logout(ctx context.Context, in usecase.LogoutInput) error
	LogoutAll(ctx context.Context) error

	Profile(ctx context.Context) (*entity.User, error)
	ProfileUpdate(ctx context.Context, in usecase.ProfileUpdateInput) (*entity.User, error)
	PasswordChange(ctx context.Context, in usecase.PasswordChangeInput) error

	TOTPSetup(ctx context.Context, in usecase.TOTPSetupInput) (*usecase.TOTPSetupOutput, error)
	TOTPConfirm(ctx context.Context, in usecase.TOTPConfirmInput) error
	TOTPDisable(ctx context.Context, in usecase.TOTPDisableInput) error

	UserList(ctx context.Context, in usecase.UserListInput) (*usecase.UserListOutput, error)

	OAuth2Token(ctx context.Context, in usecase.OAuth2TokenInput) (*usecase.OAuth2TokenOutput, error)
	OAuth2Revoke(ctx context.Context, in usecase.OAuth2RevokeInput) error
	UserInfo(ctx context.Context) (*usecase.UserInfoOutput, error)
	Discovery(ctx context.Context) *usecase.DiscoveryOutput
	JWKS(ctx context.Context) jose.JSONWebKeySet
}

// RegisterHTTPEndpoint mounts the identity API and the OAuth2/OIDC surface.
// Credential endpoints share the given rate limiter.
func RegisterHTTPEndpoint(r *router.Router, uc uc, rl *router.RateLimiter) {
	end := &HTTPEndpoint{uc: uc}
	oidc := &OIDCEndpoint{uc: uc}

	var limit router.Middleware
	if rl != nil {
		limit = rl.Middleware()
	}

	// Auth
	r.POST("/api/v1/identity/register", end.Register, limit)
	r.POST("/api/v1/identity/login", end.Login, limit)
	r.POST("/api/v1/identity/login/2fa", end.Login2FA, limit)
	r.POST("/api/v1/identity/refresh", end.RefreshToken, limit)
	r.POST("/api/v1/identity/logout", end.Logout)
	r.POST("/api/v1/identity/logout-all", end.LogoutAll)

	// Profile
	r.GET("/api/v1/identity/profile", end.Profile)
	r.PUT("/api/v1/identity/profile", end.ProfileUpdate)
	r.POST("/api/v1/identity/password/change", end.PasswordChange, limit)

	// MFA (TOTP)
	r.POST("/api/v1/identity/mfa/totp/setup", end.TOTPSetup)
	r.POST("/api/v1/identity/mfa/totp/confirm", end.TOTPConfirm)
	r.POST("/api/v1/identity/mfa/totp/disable", end.TOTPDisable)

	// Admin
	r.GET("/api/v1/identity/users", end.UserList)

	// OAuth2 / OpenID Connect
	r.GETRaw("/.well-known/openid-configuration", oidc.Discovery())
	r.GETRaw("/oauth2/jwks", oidc.JWKS())
	r.POSTRaw("/oauth2/token", oidc.Token(), limit)
	r.POSTRaw("/oauth2/revoke", oidc.Revoke())
	r.GETRaw("/oauth2/userinfo", oidc.UserInfo())
}
