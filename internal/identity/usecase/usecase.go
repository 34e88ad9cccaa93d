package usecase

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/casbin/casbin/v3"
	"github.com/shandysiswandi/gofocus/internal/identity/entity"
	"github.com/shandysiswandi/gofocus/internal/pkg/cache"
	"github.com/shandysiswandi/gofocus/internal/pkg/clock"
	"github.com/shandysiswandi/gofocus/internal/pkg/config"
	"github.com/shandysiswandi/gofocus/internal/pkg/goerror"
	"github.com/shandysiswandi/gofocus/internal/pkg/hash"
	"github.com/shandysiswandi/gofocus/internal/pkg/instrument"
	"github.com/shandysiswandi/gofocus/internal/pkg/jwt"
	"github.com/shandysiswandi/gofocus/internal/pkg/mfa"
	"github.com/shandysiswandi/gofocus/internal/pkg/otp"
	"github.com/shandysiswandi/gofocus/internal/pkg/uid"
	"github.com/shandysiswandi/gofocus/internal/pkg/validator"
	"go.opentelemetry.io/otel/trace"
)

const tokenTypeBearer = "Bearer"

type UserRegisteredEvent struct {
	UserID       int64
	Email        string
	FullName     string
	RegisteredAt time.Time
}

type repoMessaging interface {
	PublishUserRegistered(ctx context.Context, msg UserRegisteredEvent) error
}

type repoDB interface {
	CreateUser(ctx context.Context, u entity.User, hash string) error
	GetUserByID(ctx context.Context, id int64) (*entity.User, error)
	GetUserByEmail(ctx context.Context, email string) (*entity.User, error)
	GetLoginInfoByEmail(ctx context.Context, email string) (*entity.LoginInfo, error)
	GetLoginInfoByID(ctx context.Context, id int64) (*entity.LoginInfo, error)
	UpdateUserProfile(ctx context.Context, id int64, fullName string) error
	ChangePassword(ctx context.Context, userID int64, hash string) error
	ListUsers(ctx context.Context, f entity.UserFilter) ([]entity.User, int64, error)

	CreateRefreshToken(ctx context.Context, rt entity.RefreshToken) error
	GetRefreshToken(ctx context.Context, token string) (*entity.RefreshToken, error)
	RotateRefreshToken(ctx context.Context, oldID int64, next entity.RefreshToken) error
	RevokeRefreshToken(ctx context.Context, token string, userID int64) error
	RevokeAllRefreshTokens(ctx context.Context, userID int64) error

	CreateChallenge(ctx context.Context, c entity.Challenge) error
	GetChallenge(ctx context.Context, token string, p entity.ChallengePurpose, now time.Time) (*entity.Challenge, error)
	ConsumeChallengeForRefreshToken(ctx context.Context, challengeID int64, rt entity.RefreshToken) error
	ConsumeChallengeForFactor(ctx context.Context, challengeID int64, f entity.MFAFactor) error

	GetVerifiedFactor(ctx context.Context, userID int64, t entity.MFAType) (*entity.MFAFactor, error)
	DeleteFactor(ctx context.Context, userID int64, t entity.MFAType) error
}

type Usecase struct {
	repoDB        repoDB
	repoMessaging repoMessaging
	cache         cache.Cache
	validator     validator.Validator
	cfg           config.Config
	hmac          hash.Hash
	password      hash.Hash
	mfaEncryptor  mfa.Encryptor
	uid           uid.NumberID
	oid           uid.StringID
	totp          otp.OTP
	clock         clock.Clocker
	jwt           jwt.JWT
	revocation    jwt.Revocation
	ins           instrument.Instrumentation
	enforcer      *casbin.Enforcer
}

type Dependency struct {
	RepoDB        repoDB
	RepoMessaging repoMessaging
	Cache         cache.Cache
	Validator     validator.Validator
	Config        config.Config
	HMAC          hash.Hash
	Password      hash.Hash
	MFAEncryptor  mfa.Encryptor
	UID           uid.NumberID
	OID           uid.StringID
	Totp          otp.OTP
	Clock         clock.Clocker
	JWT           jwt.JWT
	Revocation    jwt.Revocation
	Instrument    instrument.Instrumentation
	Enforcer      *casbin.Enforcer
}

func New(dep Dependency) *Usecase {
	return &Usecase{
		repoDB:        dep.RepoDB,
		repoMessaging: dep.RepoMessaging,
		cache:         dep.Cache,
		validator:     dep.Validator,
		cfg:           dep.Config,
		hmac:          dep.HMAC,
		password:      dep.Password,
		mfaEncryptor:  dep.MFAEncryptor,
		uid:           dep.UID,
		oid:           dep.OID,
		totp:          dep.Totp,
		clock:         dep.Clock,
		jwt:           dep.JWT,
		revocation:    dep.Revocation,
		ins:           dep.Instrument,
		enforcer:      dep.Enforcer,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("identity.usecase").Start(ctx, name)
}

func (s *Usecase) ensureUserStatusAllowed(ctx context.Context, userID int64, status entity.UserStatus) error {
	switch status {
	case entity.UserStatusActive:
		return nil

	case entity.UserStatusBanned:
		slog.WarnContext(ctx, "user account is banned", "user_id", userID)
		return goerror.NewBusiness("Account is banned", goerror.CodeForbidden)

	case entity.UserStatusInactive:
		slog.WarnContext(ctx, "user account is deactivated", "user_id", userID)
		return goerror.NewBusiness("Account is deactivated", goerror.CodeForbidden)

	default:
		slog.WarnContext(ctx, "user account status is unrecognized", "user_id", userID, "status", status)
		return goerror.NewBusiness("Account status is unrecognized", goerror.CodeForbidden)
	}
}

func (s *Usecase) authenticated(ctx context.Context) (*jwt.Claims, error) {
	clm := jwt.GetAuth(ctx)
	if clm == nil {
		return nil, goerror.NewBusiness("Authentication required", goerror.CodeUnauthorized)
	}
	return clm, nil
}

func (s *Usecase) authenticatedAndAuthorized(ctx context.Context, obj, act string) (*jwt.Claims, error) {
	clm, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}

	ok, err := s.enforcer.Enforce(clm.Role, obj, act)
	if err != nil {
		slog.ErrorContext(ctx, "failed to check authorization", "user_id", clm.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	if !ok {
		slog.WarnContext(ctx, "access denied", "user_id", clm.UserID, "role", clm.Role, "obj", obj, "act", act)
		return nil, goerror.NewBusiness("Account not allowed", goerror.CodeForbidden)
	}

	return clm, nil
}

// digest returns the HMAC of an opaque token as it is stored.
func (s *Usecase) digest(ctx context.Context, token string) (string, error) {
	sum, err := s.hmac.Hash(token)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash opaque token", "error", err)
		return "", goerror.NewServer(err)
	}
	return string(sum), nil
}

// newRefreshToken returns an opaque refresh token and the record to store
// for it.
func (s *Usecase) newRefreshToken(ctx context.Context, userID int64, clientID string, scope entity.Scope, authTime time.Time) (string, entity.RefreshToken, error) {
	plain := s.oid.Generate()
	sum, err := s.digest(ctx, plain)
	if err != nil {
		return "", entity.RefreshToken{}, err
	}

	return plain, entity.RefreshToken{
		ID:        s.uid.Generate(),
		UserID:    userID,
		Token:     sum,
		ClientID:  clientID,
		Scope:     scope.String(),
		AuthTime:  authTime,
		ExpiresAt: s.clock.Now().Add(s.cfg.GetDay("modules.identity.refresh_token_ttl_days")),
	}, nil
}

func (s *Usecase) newAccessToken(ctx context.Context, u entity.User, clientID string, scope entity.Scope) (jwt.Token, error) {
	tok, err := s.jwt.Generate(jwt.Subject{
		UserID:   u.ID,
		Email:    u.Email,
		Role:     string(u.Role),
		Scope:    scope.String(),
		ClientID: clientID,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate access jwt token", "user_id", u.ID, "error", err)
		return jwt.Token{}, goerror.NewServer(err)
	}
	return tok, nil
}

func (s *Usecase) expiresIn(tok jwt.Token) int64 {
	return int64(max(tok.ExpiresAt.Sub(s.clock.Now()), 0) / time.Second)
}

func (s *Usecase) isAdminEmail(email string) bool {
	for _, v := range s.cfg.GetArray("modules.identity.admin_emails") {
		if normalizeEmail(v) == email {
			return true
		}
	}
	return false
}

func (s *Usecase) profileCacheKey(userID int64) string {
	return "identity:profile:" + strconv.FormatInt(userID, 10)
}
