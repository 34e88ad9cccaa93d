package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shandysiswandi/gofocus/internal/identity/entity"
	"github.com/shandysiswandi/gofocus/internal/pkg/goerror"
	"github.com/shandysiswandi/gofocus/internal/pkg/jwt"
)

var (
	errRefreshInvalid = errors.New("identity: refresh token is invalid or expired")
	errRefreshReused  = errors.New("identity: refresh token reuse detected")
	errRefreshScope   = errors.New("identity: requested scope exceeds the grant")
)

type RefreshTokenInput struct {
	RefreshToken string `validate:"required"`
}

func (s *Usecase) RefreshToken(ctx context.Context, in RefreshTokenInput) (*TokenOutput, error) {
	ctx, span := s.startSpan(ctx, "RefreshToken")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	rot, err := s.rotateRefreshToken(ctx, in.RefreshToken, "", nil)
	switch {
	case errors.Is(err, errRefreshReused):
		return nil, goerror.NewBusiness("Token reuse detected, please log in again", goerror.CodeForbidden)
	case errors.Is(err, errRefreshInvalid):
		return nil, goerror.NewBusiness("Invalid or expired refresh token", goerror.CodeUnauthorized)
	case err != nil:
		return nil, err
	}

	return &TokenOutput{
		AccessToken:  rot.access.Value,
		RefreshToken: rot.refresh,
		TokenType:    tokenTypeBearer,
		ExpiresIn:    s.expiresIn(rot.access),
	}, nil
}

type rotation struct {
	user     entity.User
	scope    entity.Scope
	authTime time.Time
	refresh  string
	access   jwt.Token
}

// rotateRefreshToken exchanges a refresh token issued to clientID for a new
// pair. Presenting a token that was already rotated revokes every token of
// the user. A non-empty requested scope narrows the access token; the new
// refresh token keeps the stored scope.
//
// It returns errRefreshInvalid, errRefreshReused, errRefreshScope, or a goerror.
func (s *Usecase) rotateRefreshToken(ctx context.Context, plain, clientID string, requested entity.Scope) (*rotation, error) {
	sum, err := s.digest(ctx, plain)
	if err != nil {
		return nil, err
	}

	rt, err := s.repoDB.GetRefreshToken(ctx, sum)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "refresh token not found")
		return nil, errRefreshInvalid
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get refresh token", "error", err)
		return nil, goerror.NewServer(err)
	}

	if rt.Rotated() {
		if err := s.repoDB.RevokeAllRefreshTokens(ctx, rt.UserID); err != nil {
			slog.ErrorContext(ctx, "failed to repo revoke all refresh token", "user_id", rt.UserID, "error", err)
		}
		slog.WarnContext(ctx, "SECURITY: refresh token reuse detected", "user_id", rt.UserID, "refresh_token_id", rt.ID)
		return nil, errRefreshReused
	}

	if rt.Revoked || !s.clock.Now().Before(rt.ExpiresAt) || rt.ClientID != clientID {
		slog.WarnContext(ctx, "refresh token is revoked, expired or issued to another client", "refresh_token_id", rt.ID)
		return nil, errRefreshInvalid
	}

	granted, _ := entity.ParseScope(rt.Scope)
	scope := granted
	if len(requested) > 0 {
		if !requested.Within(granted) {
			slog.WarnContext(ctx, "requested scope exceeds the grant", "refresh_token_id", rt.ID, "scope", requested.String())
			return nil, errRefreshScope
		}
		scope = requested
	}

	user, err := s.repoDB.GetUserByID(ctx, rt.UserID)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "refresh token user not found", "user_id", rt.UserID)
		return nil, errRefreshInvalid
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get user by id", "user_id", rt.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	if err := s.ensureUserStatusAllowed(ctx, user.ID, user.Status); err != nil {
		return nil, err
	}

	refresh, next, err := s.newRefreshToken(ctx, user.ID, clientID, granted, rt.AuthTime)
	if err != nil {
		return nil, err
	}

	access, err := s.newAccessToken(ctx, *user, clientID, scope)
	if err != nil {
		return nil, err
	}

	err = s.repoDB.RotateRefreshToken(ctx, rt.ID, next)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "refresh token already rotated or revoked", "refresh_token_id", rt.ID)
		return nil, errRefreshInvalid
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo rotate refresh token", "error", err)
		return nil, goerror.NewServer(err)
	}

	return &rotation{
		user:     *user,
		scope:    scope,
		authTime: rt.AuthTime,
		refresh:  refresh,
		access:   access,
	}, nil
}
