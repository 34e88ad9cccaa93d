package usecase

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/casbin/casbin/v3"
	"github.com/casbin/casbin/v3/model"
	libOTP "github.com/pquerna/otp"
	"github.com/redis/go-redis/v9"
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
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) CreateUser(ctx context.Context, u entity.User, hash string) error {
	return m.Called(ctx, u, hash).Error(0)
}

func (m *mockRepo) GetUserByID(ctx context.Context, id int64) (*entity.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*entity.User)
	return u, args.Error(1)
}

func (m *mockRepo) GetUserByEmail(ctx context.Context, email string) (*entity.User, error) {
	args := m.Called(ctx, email)
	u, _ := args.Get(0).(*entity.User)
	return u, args.Error(1)
}

func (m *mockRepo) GetLoginInfoByEmail(ctx context.Context, email string) (*entity.LoginInfo, error) {
	args := m.Called(ctx, email)
	u, _ := args.Get(0).(*entity.LoginInfo)
	return u, args.Error(1)
}

func (m *mockRepo) GetLoginInfoByID(ctx context.Context, id int64) (*entity.LoginInfo, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*entity.LoginInfo)
	return u, args.Error(1)
}

func (m *mockRepo) UpdateUserProfile(ctx context.Context, id int64, fullName string) error {
	return m.Called(ctx, id, fullName).Error(0)
}

func (m *mockRepo) ChangePassword(ctx context.Context, userID int64, hash string) error {
	return m.Called(ctx, userID, hash).Error(0)
}

func (m *mockRepo) ListUsers(ctx context.Context, f entity.UserFilter) ([]entity.User, int64, error) {
	args := m.Called(ctx, f)
	items, _ := args.Get(0).([]entity.User)
	return items, args.Get(1).(int64), args.Error(2)
}

func (m *mockRepo) CreateRefreshToken(ctx context.Context, rt entity.RefreshToken) error {
	return m.Called(ctx, rt).Error(0)
}

func (m *mockRepo) GetRefreshToken(ctx context.Context, token string) (*entity.RefreshToken, error) {
	args := m.Called(ctx, token)
	rt, _ := args.Get(0).(*entity.RefreshToken)
	return rt, args.Error(1)
}

func (m *mockRepo) RotateRefreshToken(ctx context.Context, oldID int64, next entity.RefreshToken) error {
	return m.Called(ctx, oldID, next).Error(0)
}

func (m *mockRepo) RevokeRefreshToken(ctx context.Context, token string, userID int64) error {
	return m.Called(ctx, token, userID).Error(0)
}

func (m *mockRepo) RevokeAllRefreshTokens(ctx context.Context, userID int64) error {
	return m.Called(ctx, userID).Error(0)
}

func (m *mockRepo) CreateChallenge(ctx context.Context, c entity.Challenge) error {
	return m.Called(ctx, c).Error(0)
}

func (m *mockRepo) GetChallenge(ctx context.Context, token string, p entity.ChallengePurpose, now time.Time) (*entity.Challenge, error) {
	args := m.Called(ctx, token, p, now)
	c, _ := args.Get(0).(*entity.Challenge)
	return c, args.Error(1)
}

func (m *mockRepo) ConsumeChallengeForRefreshToken(ctx context.Context, challengeID int64, rt entity.RefreshToken) error {
	return m.Called(ctx, challengeID, rt).Error(0)
}

func (m *mockRepo) ConsumeChallengeForFactor(ctx context.Context, challengeID int64, f entity.MFAFactor) error {
	return m.Called(ctx, challengeID, f).Error(0)
}

func (m *mockRepo) GetVerifiedFactor(ctx context.Context, userID int64, t entity.MFAType) (*entity.MFAFactor, error) {
	args := m.Called(ctx, userID, t)
	f, _ := args.Get(0).(*entity.MFAFactor)
	return f, args.Error(1)
}

func (m *mockRepo) DeleteFactor(ctx context.Context, userID int64, t entity.MFAType) error {
	return m.Called(ctx, userID, t).Error(0)
}

type mockMQ struct {
	mock.Mock
}

func (m *mockMQ) PublishUserRegistered(ctx context.Context, msg UserRegisteredEvent) error {
	return m.Called(ctx, msg).Error(0)
}

const testConfig = `
modules:
  identity:
    refresh_token_ttl_days: 30
    mfa_login_ttl_minutes: 5
    mfa_setup_confirm_ttl_minutes: 10
    profile_cache_ttl_seconds: 60
    admin_emails:
      - boss@example.com
oidc:
  issuer: https://focus.example.com/
  clients: "cli:s3cret,web:"
`

const testRBAC = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && (p.obj == "*" || r.obj == p.obj) && (p.act == "*" || r.act == p.act)
`

const testPassword = "Str0ng!Pass"

type fixture struct {
	uc         *Usecase
	repo       *mockRepo
	mq         *mockMQ
	clock      *clock.Fixed
	hmac       hash.Hash
	enc        mfa.Encryptor
	totp       otp.OTP
	jwt        jwt.JWT
	revocation *jwt.RedisRevocation
	pwHash     string
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte(testConfig))
	require.NoError(t, err)

	v, err := validator.NewV10Validator()
	require.NoError(t, err)

	sf, err := uid.NewSnowflakeWithNode(1)
	require.NoError(t, err)

	m, err := model.NewModelFromString(testRBAC)
	require.NoError(t, err)
	enforcer, err := casbin.NewEnforcer(m)
	require.NoError(t, err)
	_, err = enforcer.AddPolicy("admin", "identity.users", "read")
	require.NoError(t, err)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	clk := clock.NewFixed(time.Date(2026, 5, 14, 9, 0, 0, 0, time.UTC))

	tokens, err := jwt.NewHS512(jwt.Config{
		Secret:     bytes.Repeat([]byte("k"), 64),
		Issuer:     "https://focus.example.com",
		TTLMinutes: 15 * time.Minute,
		Clock:      clk,
		UUID:       uid.NewUUID(),
	})
	require.NoError(t, err)

	keys, err := mfa.NewStaticKeyProviderBase64("BwcHBwcHBwcHBwcHBwcHBwcHBwcHBwcHBwcHBwcHBwc=")
	require.NoError(t, err)
	enc := mfa.NewAESGCMEncryptor(keys)

	password := hash.NewBcrypt(4, "pepper")
	pwHash, err := password.Hash(testPassword)
	require.NoError(t, err)

	hmac := hash.NewHMACSHA256("test-hmac-secret")
	totp := otp.NewTOTP("GoFocus", 30, 1, libOTP.DigitsSix)
	revocation := jwt.NewRedisRevocation(rdb, clk)
	repo, mq := &mockRepo{}, &mockMQ{}

	return fixture{
		uc: New(Dependency{
			RepoDB:        repo,
			RepoMessaging: mq,
			Cache:         cache.New(cache.Config{Redis: rdb, Prefix: "test:"}),
			Validator:     v,
			Config:        cfg,
			HMAC:          hmac,
			Password:      password,
			MFAEncryptor:  enc,
			UID:           sf,
			OID:           uid.NewUUID(),
			Totp:          totp,
			Clock:         clk,
			JWT:           tokens,
			Revocation:    revocation,
			Instrument:    instrument.NewNoop(),
			Enforcer:      enforcer,
		}),
		repo:       repo,
		mq:         mq,
		clock:      clk,
		hmac:       hmac,
		enc:        enc,
		totp:       totp,
		jwt:        tokens,
		revocation: revocation,
		pwHash:     string(pwHash),
	}
}

func (f fixture) digest(t *testing.T, token string) string {
	t.Helper()
	sum, err := f.hmac.Hash(token)
	require.NoError(t, err)
	return string(sum)
}

func (f fixture) loginInfo(id int64, status entity.UserStatus, hasMFA bool) *entity.LoginInfo {
	return &entity.LoginInfo{
		User:     *f.user(id, status),
		Password: f.pwHash,
		HasMFA:   hasMFA,
	}
}

func (f fixture) user(id int64, status entity.UserStatus) *entity.User {
	return &entity.User{
		ID:        id,
		Email:     "ada@example.com",
		FullName:  "Ada Lovelace",
		Role:      entity.RoleUser,
		Status:    status,
		CreatedAt: f.clock.Now(),
		UpdatedAt: f.clock.Now(),
	}
}

// authCtx returns a context carrying the verified claims of a freshly issued
// access token.
func (f fixture) authCtx(t *testing.T, userID int64, role entity.Role) (context.Context, jwt.Claims) {
	t.Helper()
	tok, err := f.jwt.Generate(jwt.Subject{UserID: userID, Email: "ada@example.com", Role: string(role)})
	require.NoError(t, err)
	clm, err := f.jwt.Verify(tok.Value)
	require.NoError(t, err)
	return jwt.SetAuth(context.Background(), clm), clm
}

func (f fixture) totpFactor(t *testing.T, userID int64) (*entity.MFAFactor, string) {
	t.Helper()
	secret, _, err := f.totp.Generate("ada@example.com")
	require.NoError(t, err)
	seed, err := f.enc.Encrypt([]byte(secret), mfa.Scope{UserID: userID, Purpose: mfa.PurposeTOTPSeed})
	require.NoError(t, err)
	return &entity.MFAFactor{ID: 99, UserID: userID, Type: entity.MFATypeTOTP, Secret: seed, IsVerified: true}, secret
}

func assertCode(t *testing.T, err error, code goerror.Code) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, goerror.HasCode(err, code), "got %v", err)
}

func TestRegister(t *testing.T) {
	t.Run("creates an active user and publishes the event", func(t *testing.T) {
		// Arrange
		f := newFixture(t)
		f.repo.On("GetUserByEmail", mock.Anything, "ada@example.com").Return(nil, goerror.ErrNotFound)
		f.repo.On("CreateUser", mock.Anything, mock.MatchedBy(func(u entity.User) bool {
			return u.Email == "ada@example.com" && u.Role == entity.RoleUser && u.Status == entity.UserStatusActive
		}), mock.AnythingOfType("string")).Return(nil)
		f.mq.On("PublishUserRegistered", mock.Anything, mock.MatchedBy(func(e UserRegisteredEvent) bool {
			return e.Email == "ada@example.com" && e.FullName == "Ada Lovelace"
		})).Return(nil)

		// Act
		u, err := f.uc.Register(context.Background(), RegisterInput{
			Email:    "  Ada@Example.com ",
			Password: testPassword,
			FullName: "Ada Lovelace",
		})

		// Assert
		require.NoError(t, err)
		assert.NotZero(t, u.ID)
		assert.Equal(t, "ada@example.com", u.Email)
		f.repo.AssertExpectations(t)
		f.mq.AssertExpectations(t)
	})

	t.Run("configured admin email gets the admin role", func(t *testing.T) {
		// Arrange
		f := newFixture(t)
		f.repo.On("GetUserByEmail", mock.Anything, "boss@example.com").Return(nil, goerror.ErrNotFound)
		f.repo.On("CreateUser", mock.Anything, mock.Anything, mock.Anything).Return(nil)
		f.mq.On("PublishUserRegistered", mock.Anything, mock.Anything).Return(errors.New("broker down"))

		// Act
		u, err := f.uc.Register(context.Background(), RegisterInput{
			Email:    "boss@example.com",
			Password: testPassword,
			FullName: "Big Boss",
		})

		// Assert
		require.NoError(t, err)
		assert.Equal(t, entity.RoleAdmin, u.Role)
	})

	t.Run("duplicate email is a conflict", func(t *testing.T) {
		// Arrange
		f := newFixture(t)
		f.repo.On("GetUserByEmail", mock.Anything, "ada@example.com").Return(f.user(1, entity.UserStatusActive), nil)

		// Act
		_, err := f.uc.Register(context.Background(), RegisterInput{
			Email:    "ada@example.com",
			Password: testPassword,
			FullName: "Ada Lovelace",
		})

		// Assert
		assertCode(t, err, goerror.CodeConflict)
		f.repo.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("lost insert race is a conflict", func(t *testing.T) {
		// Arrange
		f := newFixture(t)
		f.repo.On("GetUserByEmail", mock.Anything, "ada@example.com").Return(nil, goerror.ErrNotFound)
		f.repo.On("CreateUser", mock.Anything, mock.Anything, mock.Anything).Return(goerror.ErrConflict)

		// Act
		_, err := f.uc.Register(context.Background(), RegisterInput{
			Email:    "ada@example.com",
			Password: testPassword,
			FullName: "Ada Lovelace",
		})

		// Assert
		assertCode(t, err, goerror.CodeConflict)
		f.mq.AssertNotCalled(t, "PublishUserRegistered", mock.Anything, mock.Anything)
	})

	t.Run("weak password is rejected", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.uc.Register(context.Background(), RegisterInput{
			Email:    "ada@example.com",
			Password: "short",
			FullName: "Ada Lovelace",
		})

		var gerr *goerror.Error
		require.ErrorAs(t, err, &gerr)
		assert.Equal(t, goerror.TypeValidation, gerr.Type())
	})
}

func TestLogin(t *testing.T) {
	t.Run("issues a token pair", func(t *testing.T) {
		// Arrange
		f := newFixture(t)
		f.repo.On("GetLoginInfoByEmail", mock.Anything, "ada@example.com").Return(f.loginInfo(7, entity.UserStatusActive, false), nil)
		f.repo.On("CreateRefreshToken", mock.Anything, mock.MatchedBy(func(rt entity.RefreshToken) bool {
			return rt.UserID == 7 && rt.ClientID == "" && rt.ExpiresAt.Equal(f.clock.Now().Add(30*24*time.Hour))
		})).Return(nil)

		// Act
		out, err := f.uc.Login(context.Background(), LoginInput{Email: "ADA@example.com", Password: testPassword})

		// Assert
		require.NoError(t, err)
		assert.False(t, out.MfaRequired)
		assert.NotEmpty(t, out.RefreshToken)
		assert.Equal(t, "Bearer", out.TokenType)
		assert.Equal(t, int64(900), out.ExpiresIn)

		clm, err := f.jwt.Verify(out.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, int64(7), clm.UserID)
		assert.Equal(t, "user", clm.Role)
	})

	t.Run("wrong password and unknown email look the same", func(t *testing.T) {
		f := newFixture(t)
		f.repo.On("GetLoginInfoByEmail", mock.Anything, "ada@example.com").Return(f.loginInfo(7, entity.UserStatusActive, false), nil)
		f.repo.On("GetLoginInfoByEmail", mock.Anything, "ghost@example.com").Return(nil, goerror.ErrNotFound)

		_, errWrong := f.uc.Login(context.Background(), LoginInput{Email: "ada@example.com", Password: "nope-nope"})
		_, errUnknown := f.uc.Login(context.Background(), LoginInput{Email: "ghost@example.com", Password: testPassword})

		assertCode(t, errWrong, goerror.CodeUnauthorized)
		assertCode(t, errUnknown, goerror.CodeUnauthorized)
		assert.Equal(t, errWrong.Error(), errUnknown.Error())
	})

	t.Run("banned account is forbidden after the password matched", func(t *testing.T) {
		f := newFixture(t)
		f.repo.On("GetLoginInfoByEmail", mock.Anything, "ada@example.com").Return(f.loginInfo(7, entity.UserStatusBanned, false), nil)

		_, err := f.uc.Login(context.Background(), LoginInput{Email: "ada@example.com", Password: testPassword})

		assertCode(t, err, goerror.CodeForbidden)
	})

	t.Run("mfa account gets a challenge instead of tokens", func(t *testing.T) {
		// Arrange
		f := newFixture(t)
		f.repo.On("GetLoginInfoByEmail", mock.Anything, "ada@example.com").Return(f.loginInfo(7, entity.UserStatusActive, true), nil)
		f.repo.On("CreateChallenge", mock.Anything, mock.MatchedBy(func(c entity.Challenge) bool {
			return c.UserID == 7 && c.Purpose == entity.ChallengePurposeMFALogin &&
				c.ExpiresAt.Equal(f.clock.Now().Add(5*time.Minute))
		})).Return(nil)

		// Act
		out, err := f.uc.Login(context.Background(), LoginInput{Email: "ada@example.com", Password: testPassword})

		// Assert
		require.NoError(t, err)
		assert.True(t, out.MfaRequired)
		assert.NotEmpty(t, out.ChallengeToken)
		assert.Equal(t, []string{"totp"}, out.AvailableMethods)
		assert.Empty(t, out.AccessToken)
		f.repo.AssertNotCalled(t, "CreateRefreshToken", mock.Anything, mock.Anything)
	})
}

func TestLogin2FA(t *testing.T) {
	setup := func(t *testing.T) (fixture, string) {
		f := newFixture(t)
		factor, secret := f.totpFactor(t, 7)
		f.repo.On("GetChallenge", mock.Anything, f.digest(t, "challenge"), entity.ChallengePurposeMFALogin, mock.Anything).
			Return(&entity.Challenge{ID: 55, UserID: 7, Purpose: entity.ChallengePurposeMFALogin}, nil)
		f.repo.On("GetLoginInfoByID", mock.Anything, int64(7)).Return(f.loginInfo(7, entity.UserStatusActive, true), nil)
		f.repo.On("GetVerifiedFactor", mock.Anything, int64(7), entity.MFATypeTOTP).Return(factor, nil)
		return f, secret
	}

	t.Run("valid code consumes the challenge and issues tokens", func(t *testing.T) {
		// Arrange
		f, secret := setup(t)
		code, err := f.totp.GenerateCode(secret, f.clock.Now())
		require.NoError(t, err)
		f.repo.On("ConsumeChallengeForRefreshToken", mock.Anything, int64(55), mock.Anything).Return(nil)

		// Act
		out, err := f.uc.Login2FA(context.Background(), Login2FAInput{ChallengeToken: "challenge", Code: code})

		// Assert
		require.NoError(t, err)
		assert.NotEmpty(t, out.AccessToken)
		assert.NotEmpty(t, out.RefreshToken)
	})

	t.Run("wrong code is unauthorized", func(t *testing.T) {
		f, secret := setup(t)
		code, err := f.totp.GenerateCode(secret, f.clock.Now().Add(-time.Hour))
		require.NoError(t, err)

		_, err = f.uc.Login2FA(context.Background(), Login2FAInput{ChallengeToken: "challenge", Code: code})

		assertCode(t, err, goerror.CodeUnauthorized)
		f.repo.AssertNotCalled(t, "ConsumeChallengeForRefreshToken", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("challenge consumed concurrently is unauthorized", func(t *testing.T) {
		f, secret := setup(t)
		code, err := f.totp.GenerateCode(secret, f.clock.Now())
		require.NoError(t, err)
		f.repo.On("ConsumeChallengeForRefreshToken", mock.Anything, int64(55), mock.Anything).Return(goerror.ErrNotFound)

		_, err = f.uc.Login2FA(context.Background(), Login2FAInput{ChallengeToken: "challenge", Code: code})

		assertCode(t, err, goerror.CodeUnauthorized)
	})

	t.Run("unknown challenge is unauthorized", func(t *testing.T) {
		f := newFixture(t)
		f.repo.On("GetChallenge", mock.Anything, mock.Anything, entity.ChallengePurposeMFALogin, mock.Anything).Return(nil, goerror.ErrNotFound)

		_, err := f.uc.Login2FA(context.Background(), Login2FAInput{ChallengeToken: "nope", Code: "123456"})

		assertCode(t, err, goerror.CodeUnauthorized)
	})
}

func TestRefreshToken(t *testing.T) {
	stored := func(f fixture, t *testing.T) *entity.RefreshToken {
		return &entity.RefreshToken{
			ID:        11,
			UserID:    7,
			Token:     f.digest(t, "refresh"),
			AuthTime:  f.clock.Now().Add(-time.Hour),
			ExpiresAt: f.clock.Now().Add(time.Hour),
		}
	}

	t.Run("rotates the token", func(t *testing.T) {
		// Arrange
		f := newFixture(t)
		rt := stored(f, t)
		f.repo.On("GetRefreshToken", mock.Anything, rt.Token).Return(rt, nil)
		f.repo.On("GetUserByID", mock.Anything, int64(7)).Return(f.user(7, entity.UserStatusActive), nil)
		f.repo.On("RotateRefreshToken", mock.Anything, int64(11), mock.MatchedBy(func(next entity.RefreshToken) bool {
			return next.UserID == 7 && next.AuthTime.Equal(rt.AuthTime) && next.Token != rt.Token
		})).Return(nil)

		// Act
		out, err := f.uc.RefreshToken(context.Background(), RefreshTokenInput{RefreshToken: "refresh"})

		// Assert
		require.NoError(t, err)
		assert.NotEqual(t, "refresh", out.RefreshToken)
		assert.NotEmpty(t, out.AccessToken)
		f.repo.AssertExpectations(t)
	})

	t.Run("reusing a rotated token revokes every session", func(t *testing.T) {
		// Arrange
		f := newFixture(t)
		rt := stored(f, t)
		next := int64(12)
		rt.Revoked, rt.ReplacedByTokenID = true, &next
		f.repo.On("GetRefreshToken", mock.Anything, rt.Token).Return(rt, nil)
		f.repo.On("RevokeAllRefreshTokens", mock.Anything, int64(7)).Return(nil)

		// Act
		_, err := f.uc.RefreshToken(context.Background(), RefreshTokenInput{RefreshToken: "refresh"})

		// Assert
		assertCode(t, err, goerror.CodeForbidden)
		f.repo.AssertCalled(t, "RevokeAllRefreshTokens", mock.Anything, int64(7))
	})

	t.Run("expired token is unauthorized", func(t *testing.T) {
		f := newFixture(t)
		rt := stored(f, t)
		rt.ExpiresAt = f.clock.Now()
		f.repo.On("GetRefreshToken", mock.Anything, rt.Token).Return(rt, nil)

		_, err := f.uc.RefreshToken(context.Background(), RefreshTokenInput{RefreshToken: "refresh"})

		assertCode(t, err, goerror.CodeUnauthorized)
	})

	t.Run("token of an oauth2 client is not accepted here", func(t *testing.T) {
		f := newFixture(t)
		rt := stored(f, t)
		rt.ClientID = "cli"
		f.repo.On("GetRefreshToken", mock.Anything, rt.Token).Return(rt, nil)

		_, err := f.uc.RefreshToken(context.Background(), RefreshTokenInput{RefreshToken: "refresh"})

		assertCode(t, err, goerror.CodeUnauthorized)
	})

	t.Run("lost rotation race is unauthorized", func(t *testing.T) {
		f := newFixture(t)
		rt := stored(f, t)
		f.repo.On("GetRefreshToken", mock.Anything, rt.Token).Return(rt, nil)
		f.repo.On("GetUserByID", mock.Anything, int64(7)).Return(f.user(7, entity.UserStatusActive), nil)
		f.repo.On("RotateRefreshToken", mock.Anything, int64(11), mock.Anything).Return(goerror.ErrNotFound)

		_, err := f.uc.RefreshToken(context.Background(), RefreshTokenInput{RefreshToken: "refresh"})

		assertCode(t, err, goerror.CodeUnauthorized)
	})
}

func TestLogout(t *testing.T) {
	t.Run("revokes the refresh token and the access token", func(t *testing.T) {
		// Arrange
		f := newFixture(t)
		ctx, clm := f.authCtx(t, 7, entity.RoleUser)
		f.repo.On("RevokeRefreshToken", mock.Anything, f.digest(t, "refresh"), int64(7)).Return(nil)

		// Act
		err := f.uc.Logout(ctx, LogoutInput{RefreshToken: "refresh"})

		// Assert
		require.NoError(t, err)
		revoked, err := f.revocation.IsRevoked(context.Background(), clm.ID)
		require.NoError(t, err)
		assert.True(t, revoked)
		f.repo.AssertExpectations(t)
	})

	t.Run("logout all revokes every refresh token", func(t *testing.T) {
		f := newFixture(t)
		ctx, clm := f.authCtx(t, 7, entity.RoleUser)
		f.repo.On("RevokeAllRefreshTokens", mock.Anything, int64(7)).Return(nil)

		require.NoError(t, f.uc.LogoutAll(ctx))

		revoked, err := f.revocation.IsRevoked(context.Background(), clm.ID)
		require.NoError(t, err)
		assert.True(t, revoked)
	})

	t.Run("requires authentication", func(t *testing.T) {
		f := newFixture(t)

		err := f.uc.Logout(context.Background(), LogoutInput{})

		assertCode(t, err, goerror.CodeUnauthorized)
	})
}

func TestProfile(t *testing.T) {
	t.Run("is cached until updated", func(t *testing.T) {
		// Arrange
		f := newFixture(t)
		ctx, _ := f.authCtx(t, 7, entity.RoleUser)
		f.repo.On("GetUserByID", mock.Anything, int64(7)).Return(f.user(7, entity.UserStatusActive), nil).Once()

		// Act
		first, err := f.uc.Profile(ctx)
		require.NoError(t, err)
		second, err := f.uc.Profile(ctx)
		require.NoError(t, err)

		// Assert
		assert.Equal(t, first.Email, second.Email)
		f.repo.AssertNumberOfCalls(t, "GetUserByID", 1)
	})

	t.Run("update invalidates the cached profile", func(t *testing.T) {
		// Arrange
		f := newFixture(t)
		ctx, _ := f.authCtx(t, 7, entity.RoleUser)
		renamed := f.user(7, entity.UserStatusActive)
		renamed.FullName = "Ada King"
		f.repo.On("GetUserByID", mock.Anything, int64(7)).Return(f.user(7, entity.UserStatusActive), nil).Once()
		f.repo.On("UpdateUserProfile", mock.Anything, int64(7), "Ada King").Return(nil)
		f.repo.On("GetUserByID", mock.Anything, int64(7)).Return(renamed, nil).Once()

		// Act
		_, err := f.uc.Profile(ctx)
		require.NoError(t, err)
		got, err := f.uc.ProfileUpdate(ctx, ProfileUpdateInput{FullName: "  Ada King "})

		// Assert
		require.NoError(t, err)
		assert.Equal(t, "Ada King", got.FullName)
	})

	t.Run("banned user is forbidden", func(t *testing.T) {
		f := newFixture(t)
		ctx, _ := f.authCtx(t, 7, entity.RoleUser)
		f.repo.On("GetUserByID", mock.Anything, int64(7)).Return(f.user(7, entity.UserStatusBanned), nil)

		_, err := f.uc.Profile(ctx)

		assertCode(t, err, goerror.CodeForbidden)
	})
}

func TestPasswordChange(t *testing.T) {
	t.Run("stores a new hash", func(t *testing.T) {
		// Arrange
		f := newFixture(t)
		ctx, _ := f.authCtx(t, 7, entity.RoleUser)
		f.repo.On("GetLoginInfoByID", mock.Anything, int64(7)).Return(f.loginInfo(7, entity.UserStatusActive, false), nil)
		f.repo.On("ChangePassword", mock.Anything, int64(7), mock.MatchedBy(func(h string) bool {
			return hash.NewBcrypt(4, "pepper").Verify(h, "N3w!Passw0rd")
		})).Return(nil)

		// Act
		err := f.uc.PasswordChange(ctx, PasswordChangeInput{CurrentPassword: testPassword, NewPassword: "N3w!Passw0rd"})

		// Assert
		require.NoError(t, err)
		f.repo.AssertExpectations(t)
	})

	t.Run("wrong current password is unauthorized", func(t *testing.T) {
		f := newFixture(t)
		ctx, _ := f.authCtx(t, 7, entity.RoleUser)
		f.repo.On("GetLoginInfoByID", mock.Anything, int64(7)).Return(f.loginInfo(7, entity.UserStatusActive, false), nil)

		err := f.uc.PasswordChange(ctx, PasswordChangeInput{CurrentPassword: "not-it-at-all", NewPassword: "N3w!Passw0rd"})

		assertCode(t, err, goerror.CodeUnauthorized)
		f.repo.AssertNotCalled(t, "ChangePassword", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestTOTPEnrollment(t *testing.T) {
	// Arrange
	f := newFixture(t)
	ctx, _ := f.authCtx(t, 7, entity.RoleUser)
	f.repo.On("GetLoginInfoByID", mock.Anything, int64(7)).Return(f.loginInfo(7, entity.UserStatusActive, false), nil)
	f.repo.On("GetVerifiedFactor", mock.Anything, int64(7), entity.MFATypeTOTP).Return(nil, goerror.ErrNotFound)

	var challenge entity.Challenge
	f.repo.On("CreateChallenge", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		challenge = args.Get(1).(entity.Challenge)
	}).Return(nil)

	// Act: setup
	setup, err := f.uc.TOTPSetup(ctx, TOTPSetupInput{CurrentPassword: testPassword})

	// Assert: setup
	require.NoError(t, err)
	assert.NotEmpty(t, setup.Key)
	assert.Contains(t, setup.URI, "otpauth://totp/")
	assert.Equal(t, entity.ChallengePurposeMFASetupConfirm, challenge.Purpose)
	assert.Equal(t, "Authenticator", challenge.Metadata.GetString("friendly_name"))
	assert.NotContains(t, challenge.Metadata.GetString("secret"), setup.Key)

	// Arrange: confirm
	challenge.ID = 77
	f.repo.On("GetChallenge", mock.Anything, f.digest(t, setup.ChallengeToken), entity.ChallengePurposeMFASetupConfirm, mock.Anything).
		Return(&challenge, nil)
	var stored entity.MFAFactor
	f.repo.On("ConsumeChallengeForFactor", mock.Anything, int64(77), mock.Anything).Run(func(args mock.Arguments) {
		stored = args.Get(2).(entity.MFAFactor)
	}).Return(nil)
	code, err := f.totp.GenerateCode(setup.Key, f.clock.Now())
	require.NoError(t, err)

	// Act: confirm
	err = f.uc.TOTPConfirm(ctx, TOTPConfirmInput{ChallengeToken: setup.ChallengeToken, Code: code})

	// Assert: confirm
	require.NoError(t, err)
	assert.True(t, stored.IsVerified)
	assert.Equal(t, int16(1), stored.KeyVersion)
	seed, err := f.enc.Decrypt(stored.Secret, mfa.Scope{UserID: 7, Purpose: mfa.PurposeTOTPSeed})
	require.NoError(t, err)
	assert.Equal(t, setup.Key, string(seed))
}

func TestTOTPSetup_AlreadyEnabled(t *testing.T) {
	f := newFixture(t)
	ctx, _ := f.authCtx(t, 7, entity.RoleUser)
	factor, _ := f.totpFactor(t, 7)
	f.repo.On("GetLoginInfoByID", mock.Anything, int64(7)).Return(f.loginInfo(7, entity.UserStatusActive, true), nil)
	f.repo.On("GetVerifiedFactor", mock.Anything, int64(7), entity.MFATypeTOTP).Return(factor, nil)

	_, err := f.uc.TOTPSetup(ctx, TOTPSetupInput{CurrentPassword: testPassword})

	assertCode(t, err, goerror.CodeConflict)
}

func TestTOTPConfirm_OtherUsersChallenge(t *testing.T) {
	f := newFixture(t)
	ctx, _ := f.authCtx(t, 8, entity.RoleUser)
	f.repo.On("GetChallenge", mock.Anything, mock.Anything, entity.ChallengePurposeMFASetupConfirm, mock.Anything).
		Return(&entity.Challenge{ID: 1, UserID: 7}, nil)

	err := f.uc.TOTPConfirm(ctx, TOTPConfirmInput{ChallengeToken: "x", Code: "123456"})

	assertCode(t, err, goerror.CodeUnauthorized)
}

func TestTOTPDisable(t *testing.T) {
	t.Run("removes the factor", func(t *testing.T) {
		f := newFixture(t)
		ctx, _ := f.authCtx(t, 7, entity.RoleUser)
		f.repo.On("GetLoginInfoByID", mock.Anything, int64(7)).Return(f.loginInfo(7, entity.UserStatusActive, true), nil)
		f.repo.On("DeleteFactor", mock.Anything, int64(7), entity.MFATypeTOTP).Return(nil)

		require.NoError(t, f.uc.TOTPDisable(ctx, TOTPDisableInput{CurrentPassword: testPassword}))
	})

	t.Run("not enabled is not found", func(t *testing.T) {
		f := newFixture(t)
		ctx, _ := f.authCtx(t, 7, entity.RoleUser)
		f.repo.On("GetLoginInfoByID", mock.Anything, int64(7)).Return(f.loginInfo(7, entity.UserStatusActive, false), nil)
		f.repo.On("DeleteFactor", mock.Anything, int64(7), entity.MFATypeTOTP).Return(goerror.ErrNotFound)

		err := f.uc.TOTPDisable(ctx, TOTPDisableInput{CurrentPassword: testPassword})

		assertCode(t, err, goerror.CodeNotFound)
	})
}

func TestUserList(t *testing.T) {
	t.Run("admin lists users with paging defaults", func(t *testing.T) {
		// Arrange
		f := newFixture(t)
		ctx, _ := f.authCtx(t, 1, entity.RoleAdmin)
		f.repo.On("ListUsers", mock.Anything, entity.UserFilter{
			Search: "ada",
			Status: entity.UserStatusActive,
			Limit:  20,
			Offset: 20,
		}).Return([]entity.User{*f.user(7, entity.UserStatusActive)}, int64(21), nil)

		// Act
		out, err := f.uc.UserList(ctx, UserListInput{Search: " ada ", Status: "ACTIVE", Page: 2})

		// Assert
		require.NoError(t, err)
		assert.Equal(t, int64(21), out.Total)
		assert.Equal(t, int32(2), out.Page)
		assert.Len(t, out.Users, 1)
	})

	t.Run("regular user is forbidden", func(t *testing.T) {
		f := newFixture(t)
		ctx, _ := f.authCtx(t, 7, entity.RoleUser)

		_, err := f.uc.UserList(ctx, UserListInput{})

		assertCode(t, err, goerror.CodeForbidden)
		f.repo.AssertNotCalled(t, "ListUsers", mock.Anything, mock.Anything)
	})
}
