package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/gofocus/internal/identity/entity"
	"github.com/shandysiswandi/gofocus/internal/pkg/goerror"
)

type LoginInput struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

type TokenOutput struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
	ExpiresIn    int64
}

type LoginOutput struct {
	MfaRequired      bool
	ChallengeToken   string
	AvailableMethods []string
	//
	TokenOutput
}

func (s *Usecase) Login(ctx context.Context, in LoginInput) (*LoginOutput, error) {
	ctx, span := s.startSpan(ctx, "Login")
	defer span.End()

	in.Email = normalizeEmail(in.Email)
	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	user, err := s.checkCredentials(ctx, in.Email, in.Password)
	if err != nil {
		return nil, err
	}

	if user.HasMFA {
		cToken := s.oid.Generate()
		cTokenHash, err := s.digest(ctx, cToken)
		if err != nil {
			return nil, err
		}

		if err := s.repoDB.CreateChallenge(ctx, entity.Challenge{
			ID:        s.uid.Generate(),
			UserID:    user.ID,
			Token:     cTokenHash,
			Purpose:   entity.ChallengePurposeMFALogin,
			ExpiresAt: s.clock.Now().Add(s.cfg.GetMinute("modules.identity.mfa_login_ttl_minutes")),
		}); err != nil {
			slog.ErrorContext(ctx, "failed to repo create challange", "user_id", user.ID, "error", err)
			return nil, goerror.NewServer(err)
		}

		return &LoginOutput{
			MfaRequired:      true,
			ChallengeToken:   cToken,
			AvailableMethods: []string{string(entity.MFATypeTOTP)},
		}, nil
	}

	acToken, err := s.newAccessToken(ctx, user.User, "", nil)
	if err != nil {
		return nil, err
	}

	refToken, record, err := s.newRefreshToken(ctx, user.ID, "", nil, s.clock.Now())
	if err != nil {
		return nil, err
	}

	if err := s.repoDB.CreateRefreshToken(ctx, record); err != nil {
		slog.ErrorContext(ctx, "failed to repo create refresh token user", "user_id", user.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &LoginOutput{TokenOutput: TokenOutput{
		AccessToken:  acToken.Value,
		RefreshToken: refToken,
		TokenType:    tokenTypeBearer,
		ExpiresIn:    s.expiresIn(acToken),
	}}, nil
}

// checkCredentials loads the user by email and verifies the password. The
// account status is only checked once the password matched.
func (s *Usecase) checkCredentials(ctx context.Context, email, password string) (*entity.LoginInfo, error) {
	user, err := s.repoDB.GetLoginInfoByEmail(ctx, email)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "user account not found", "email", email)
		return nil, goerror.NewBusiness("Invalid email or password", goerror.CodeUnauthorized)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get user login info", "email", email, "error", err)
		return nil, goerror.NewServer(err)
	}

	if !s.password.Verify(user.Password, password) {
		slog.WarnContext(ctx, "password user account not match", "user_id", user.ID)
		return nil, goerror.NewBusiness("Invalid email or password", goerror.CodeUnauthorized)
	}

	if err := s.ensureUserStatusAllowed(ctx, user.ID, user.Status); err != nil {
		return nil, err
	}

	return user, nil
}
