package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/gofocus/internal/identity/entity"
	"github.com/shandysiswandi/gofocus/internal/pkg/goerror"
)

type TOTPDisableInput struct {
	CurrentPassword string `validate:"required"`
}

func (s *Usecase) TOTPDisable(ctx context.Context, in TOTPDisableInput) error {
	ctx, span := s.startSpan(ctx, "TOTPDisable")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	clm, err := s.authenticated(ctx)
	if err != nil {
		return err
	}

	user, err := s.verifyPassword(ctx, clm, in.CurrentPassword)
	if err != nil {
		return err
	}

	err = s.repoDB.DeleteFactor(ctx, user.ID, entity.MFATypeTOTP)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "totp factor not found", "user_id", user.ID)
		return goerror.NewBusiness("TOTP is not enabled", goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo delete factor", "user_id", user.ID, "error", err)
		return goerror.NewServer(err)
	}

	return nil
}
