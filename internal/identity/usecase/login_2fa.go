package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/shandysiswandi/gofocus/internal/identity/entity"
	"github.com/shandysiswandi/gofocus/internal/pkg/goerror"
	"github.com/shandysiswandi/gofocus/internal/pkg/mfa"
)

type Login2FAInput struct {
	ChallengeToken string `validate:"required"`
	Code           string `validate:"required,len=6,numeric"`
}

func (s *Usecase) Login2FA(ctx context.Context, in Login2FAInput) (*TokenOutput, error) {
	ctx, span := s.startSpan(ctx, "Login2FA")
	defer span.End()

	in.Code = strings.TrimSpace(in.Code)
	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	errInvalid := goerror.NewBusiness("Invalid challenge session or code", goerror.CodeUnauthorized)

	ch, err := s.loadChallenge(ctx, in.ChallengeToken, entity.ChallengePurposeMFALogin)
	if err != nil {
		return nil, err
	}
	if ch == nil {
		return nil, errInvalid
	}

	user, err := s.repoDB.GetLoginInfoByID(ctx, ch.UserID)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "challenge user not found", "user_id", ch.UserID)
		return nil, errInvalid
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get user login info", "user_id", ch.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	if err := s.ensureUserStatusAllowed(ctx, user.ID, user.Status); err != nil {
		return nil, err
	}

	ok, err := s.verifyTOTP(ctx, user.ID, in.Code)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errInvalid
	}

	acToken, err := s.newAccessToken(ctx, user.User, "", nil)
	if err != nil {
		return nil, err
	}

	refToken, record, err := s.newRefreshToken(ctx, user.ID, "", nil, s.clock.Now())
	if err != nil {
		return nil, err
	}

	err = s.repoDB.ConsumeChallengeForRefreshToken(ctx, ch.ID, record)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "challenge already consumed", "user_id", user.ID, "challenge_id", ch.ID)
		return nil, errInvalid
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo consume challenge for refresh token", "user_id", user.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &TokenOutput{
		AccessToken:  acToken.Value,
		RefreshToken: refToken,
		TokenType:    tokenTypeBearer,
		ExpiresIn:    s.expiresIn(acToken),
	}, nil
}

// loadChallenge returns nil without an error when no valid challenge matches
// the token.
func (s *Usecase) loadChallenge(ctx context.Context, token string, p entity.ChallengePurpose) (*entity.Challenge, error) {
	sum, err := s.digest(ctx, token)
	if err != nil {
		return nil, err
	}

	ch, err := s.repoDB.GetChallenge(ctx, sum, p, s.clock.Now())
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "challenge not found or expired", "purpose", p)
		return nil, nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get challenge", "purpose", p, "error", err)
		return nil, goerror.NewServer(err)
	}

	return ch, nil
}

// verifyTOTP checks code against the user's verified TOTP factor. A user
// without one never matches.
func (s *Usecase) verifyTOTP(ctx context.Context, userID int64, code string) (bool, error) {
	factor, err := s.repoDB.GetVerifiedFactor(ctx, userID, entity.MFATypeTOTP)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "mfa factor for totp not found", "user_id", userID)
		return false, nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get verified factor", "user_id", userID, "error", err)
		return false, goerror.NewServer(err)
	}

	secret, err := s.mfaEncryptor.Decrypt(factor.Secret, mfa.Scope{
		UserID:  userID,
		Purpose: mfa.PurposeTOTPSeed,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to decrypt totp secret", "user_id", userID, "mfa_id", factor.ID, "error", err)
		return false, goerror.NewServer(err)
	}

	if !s.totp.Validate(code, string(secret), s.clock.Now()) {
		slog.WarnContext(ctx, "invalid totp code", "user_id", userID, "mfa_id", factor.ID)
		return false, nil
	}

	return true, nil
}
