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
	"github.com/shandysiswandi/gofocus/internal/pkg/valueobject"
)

const totpKeyVersion = 1

type TOTPSetupInput struct {
	FriendlyName    string `validate:"omitempty,min=2,max=100"`
	CurrentPassword string `validate:"required"`
}

type TOTPSetupOutput struct {
	ChallengeToken string
	Key            string
	URI            string
}

func (s *Usecase) TOTPSetup(ctx context.Context, in TOTPSetupInput) (*TOTPSetupOutput, error) {
	ctx, span := s.startSpan(ctx, "TOTPSetup")
	defer span.End()

	in.FriendlyName = strings.TrimSpace(in.FriendlyName)
	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}
	if in.FriendlyName == "" {
		in.FriendlyName = "Authenticator"
	}

	clm, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}

	user, err := s.verifyPassword(ctx, clm, in.CurrentPassword)
	if err != nil {
		return nil, err
	}

	if err := s.ensureNoTOTPFactor(ctx, user.ID); err != nil {
		return nil, err
	}

	secret, uri, err := s.totp.Generate(user.Email)
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate totp secret", "user_id", user.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	encryptedSecret, err := s.mfaEncryptor.Encrypt([]byte(secret), mfa.Scope{
		UserID:  user.ID,
		Purpose: mfa.PurposeSetupChallenge,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to encrypt totp secret", "user_id", user.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	cToken := s.oid.Generate()
	cTokenHash, err := s.digest(ctx, cToken)
	if err != nil {
		return nil, err
	}

	if err := s.repoDB.CreateChallenge(ctx, entity.Challenge{
		ID:        s.uid.Generate(),
		UserID:    user.ID,
		Token:     cTokenHash,
		Purpose:   entity.ChallengePurposeMFASetupConfirm,
		ExpiresAt: s.clock.Now().Add(s.cfg.GetMinute("modules.identity.mfa_setup_confirm_ttl_minutes")),
		Metadata: valueobject.JSONMap{
			"secret":        base64.StdEncoding.EncodeToString(encryptedSecret),
			"friendly_name": in.FriendlyName,
			"key_version":   totpKeyVersion,
		},
	}); err != nil {
		slog.ErrorContext(ctx, "failed to create mfa challenge", "user_id", user.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &TOTPSetupOutput{
		ChallengeToken: cToken,
		Key:            secret,
		URI:            uri,
	}, nil
}

func (s *Usecase) ensureNoTOTPFactor(ctx context.Context, userID int64) error {
	_, err := s.repoDB.GetVerifiedFactor(ctx, userID, entity.MFATypeTOTP)
	if errors.Is(err, goerror.ErrNotFound) {
		return nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get verified mfa factor", "user_id", userID, "error", err)
		return goerror.NewServer(err)
	}

	return goerror.NewBusiness("A verified TOTP factor already exists", goerror.CodeConflict)
}
