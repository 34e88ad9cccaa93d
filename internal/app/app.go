package app

import (
	"context"
	"net/http"
	"time"

	"github.com/casbin/casbin/v3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/gofocus/internal/pkg/cache"
	"github.com/shandysiswandi/gofocus/internal/pkg/clock"
	"github.com/shandysiswandi/gofocus/internal/pkg/config"
	"github.com/shandysiswandi/gofocus/internal/pkg/goroutine"
	"github.com/shandysiswandi/gofocus/internal/pkg/hash"
	"github.com/shandysiswandi/gofocus/internal/pkg/idempotency"
	"github.com/shandysiswandi/gofocus/internal/pkg/instrument"
	"github.com/shandysiswandi/gofocus/internal/pkg/jwt"
	"github.com/shandysiswandi/gofocus/internal/pkg/mail"
	"github.com/shandysiswandi/gofocus/internal/pkg/messaging"
	"github.com/shandysiswandi/gofocus/internal/pkg/mfa"
	"github.com/shandysiswandi/gofocus/internal/pkg/otp"
	"github.com/shandysiswandi/gofocus/internal/pkg/router"
	"github.com/shandysiswandi/gofocus/internal/pkg/scheduler"
	"github.com/shandysiswandi/gofocus/internal/pkg/storage"
	"github.com/shandysiswandi/gofocus/internal/pkg/uid"
	"github.com/shandysiswandi/gofocus/internal/pkg/validator"
	"go.uber.org/atomic"
)

// App wires dependencies and manages service lifecycle.
type App struct {
	ctx    context.Context
	cancel context.CancelFunc

	// configuration
	config   config.Config
	ins      instrument.Instrumentation
	location *time.Location

	// libraries
	goroutine    *goroutine.Manager
	validator    validator.Validator
	clock        clock.Clocker
	hmac         hash.Hash
	password     hash.Hash
	uid          uid.NumberID
	oid          uid.StringID
	uuid         uid.StringID
	totp         otp.OTP
	jwt          jwt.JWT
	revocation   jwt.Revocation
	mfaEncryptor mfa.Encryptor

	// resources
	dbConn    *pgxpool.Pool
	redisConn *redis.Client
	cache     cache.Cache
	idemp     idempotency.Idempotency
	mail      mail.Mail
	messaging messaging.Messaging
	publisher messaging.Publisher
	storage   storage.Storage
	casbin    *casbin.Enforcer
	scheduler *scheduler.Scheduler

	// server
	router      *router.Router
	rateLimiter *router.RateLimiter
	httpServer  *http.Server
	ready       *atomic.Bool

	//
	closers []struct {
		name string
		fn   func(context.Context) error
	}
}

// New initializes the application with default wiring and returns an App instance.
func New() *App {
	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		ctx:    ctx,
		cancel: cancel,
		ready:  atomic.NewBool(false),
	}

	app.initConfig()
	app.initInstrument()
	app.initLibraries()
	app.initDatabase()
	app.initMigration()
	app.initRedis()
	app.initJWT()
	app.initMail()
	app.initStorage()
	app.initMessaging()
	app.initCasbin()
	app.initScheduler()
	app.initHTTPServer()
	app.initModules()
	app.initJobs()
	app.initClosers()

	return app
}
