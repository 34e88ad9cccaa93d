package usecase

import (
	"context"
	"log/slog"
	"strings"

	"github.com/shandysiswandi/gofocus/internal/pkg/goerror"
	"github.com/shandysiswandi/gofocus/internal/pkg/jwt"
)

type LogoutInput struct {
	RefreshToken string
}

// Logout revokes the given refresh token and the access token of the request.
func (s *Usecase) Logout(ctx context.Context, in LogoutInput) error {
	ctx, span := s.startSpan(ctx, "Logout")
	defer span.End()

	clm, err := s.authenticated(ctx)
	if err != nil {
		return err
	}

	if token := strings.TrimSpace(in.RefreshToken); token != "" {
		sum, err := s.digest(ctx, token)
		if err != nil {
			return err
		}

		if err := s.repoDB.RevokeRefreshToken(ctx, sum, clm.UserID); err != nil {
			slog.ErrorContext(ctx, "failed to repo revoke refresh token", "user_id", clm.UserID, "error", err)
			return goerror.NewServer(err)
		}
	}

	return s.revokeAccessToken(ctx, clm)
}

// LogoutAll revokes every refresh token of the user and the access token of
// the request.
func (s *Usecase) LogoutAll(ctx context.Context) error {
	ctx, span := s.startSpan(ctx, "LogoutAll")
	defer span.End()

	clm, err := s.authenticated(ctx)
	if err != nil {
		return err
	}

	if err := s.repoDB.RevokeAllRefreshTokens(ctx, clm.UserID); err != nil {
		slog.ErrorContext(ctx, "failed to repo revoke all refresh token", "user_id", clm.UserID, "error", err)
		return goerror.NewServer(err)
	}

	return s.revokeAccessToken(ctx, clm)
}

func (s *Usecase) revokeAccessToken(ctx context.Context, clm *jwt.Claims) error {
	if clm.ExpiresAt == nil {
		return nil
	}

	if err := s.revocation.Revoke(ctx, clm.ID, clm.ExpiresAt.Time); err != nil {
		slog.ErrorContext(ctx, "failed to revoke access token", "user_id", clm.UserID, "jti", clm.ID, "error", err)
		return goerror.NewServer(err)
	}

	return nil
}
