package usecase

import (
	"context"
	"encoding/base64"
	"errors"
	"log/slog"
	"strings"

	"github.com/shandysiswandi/gofocus/internal/identity/entity"
	"github.com/shandysiswandi/gofocus/internal/pkg/goerror"
	"github.com/shandysiswandi/gofocus/internal/pkg/mfa"
)

type TOTPConfirmInput struct {
	ChallengeToken string `validate:"required"`
	Code           string `validate:"required,len=6,numeric"`
}

func (s *Usecase) TOTPConfirm(ctx context.Context, in TOTPConfirmInput) error {
	ctx, span := s.startSpan(ctx, "TOTPConfirm")
	defer span.End()

	in.Code = strings.TrimSpace(in.Code)
	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	clm, err := s.authenticated(ctx)
	if err != nil {
		return err
	}

	errInvalid := goerror.NewBusiness("Invalid challenge session or code", goerror.CodeUnauthorized)

	ch, err := s.loadChallenge(ctx, in.ChallengeToken, entity.ChallengePurposeMFASetupConfirm)
	if err != nil {
		return err
	}
	if ch == nil {
		return errInvalid
	}

	if ch.UserID != clm.UserID {
		slog.WarnContext(ctx, "challenge user mismatch", "user_id", clm.UserID, "challenge_user_id", ch.UserID)
		return errInvalid
	}

	secretCiphertext, err := base64.StdEncoding.DecodeString(ch.Metadata.GetString("secret"))
	if err != nil || len(secretCiphertext) == 0 {
		slog.WarnContext(ctx, "challenge totp secret missing or malformed", "user_id", ch.UserID, "challenge_id", ch.ID)
		return errInvalid
	}

	secret, err := s.mfaEncryptor.Decrypt(secretCiphertext, mfa.Scope{
		UserID:  ch.UserID,
		Purpose: mfa.PurposeSetupChallenge,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to decrypt totp secret", "user_id", ch.UserID, "challenge_id", ch.ID, "error", err)
		return goerror.NewServer(err)
	}

	if !s.totp.Validate(in.Code, string(secret), s.clock.Now()) {
		slog.WarnContext(ctx, "invalid totp code", "user_id", ch.UserID, "challenge_id", ch.ID)
		return errInvalid
	}

	seed, err := s.mfaEncryptor.Encrypt(secret, mfa.Scope{
		UserID:  ch.UserID,
		Purpose: mfa.PurposeTOTPSeed,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to encrypt totp seed", "user_id", ch.UserID, "error", err)
		return goerror.NewServer(err)
	}

	keyVersion := ch.Metadata.GetInt64("key_version")
	if keyVersion == 0 {
		keyVersion = totpKeyVersion
	}

	err = s.repoDB.ConsumeChallengeForFactor(ctx, ch.ID, entity.MFAFactor{
		ID:           s.uid.Generate(),
		UserID:       ch.UserID,
		Type:         entity.MFATypeTOTP,
		FriendlyName: ch.Metadata.GetString("friendly_name"),
		Secret:       seed,
		KeyVersion:   int16(keyVersion),
		IsVerified:   true,
	})
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "challenge already consumed", "user_id", ch.UserID, "challenge_id", ch.ID)
		return errInvalid
	}
	if errors.Is(err, goerror.ErrConflict) {
		return goerror.NewBusiness("A verified TOTP factor already exists", goerror.CodeConflict)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo consume challenge for factor", "user_id", ch.UserID, "challenge_id", ch.ID, "error", err)
		return goerror.NewServer(err)
	}

	return nil
}
