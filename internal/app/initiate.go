package app

import (
	"context"
	"crypto/rsa"
	"embed"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/casbin/casbin/v3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	libOTP "github.com/pquerna/otp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"github.com/segmentio/kafka-go"
	"github.com/sethvargo/go-retry"
	"github.com/shandysiswandi/gofocus/internal/pkg/cache"
	"github.com/shandysiswandi/gofocus/internal/pkg/clock"
	"github.com/shandysiswandi/gofocus/internal/pkg/config"
	"github.com/shandysiswandi/gofocus/internal/pkg/dburl"
	"github.com/shandysiswandi/gofocus/internal/pkg/goroutine"
	"github.com/shandysiswandi/gofocus/internal/pkg/hash"
	"github.com/shandysiswandi/gofocus/internal/pkg/idempotency"
	"github.com/shandysiswandi/gofocus/internal/pkg/instrument"
	"github.com/shandysiswandi/gofocus/internal/pkg/jwt"
	"github.com/shandysiswandi/gofocus/internal/pkg/mail"
	"github.com/shandysiswandi/gofocus/internal/pkg/messaging"
	"github.com/shandysiswandi/gofocus/internal/pkg/mfa"
	"github.com/shandysiswandi/gofocus/internal/pkg/migration"
	"github.com/shandysiswandi/gofocus/internal/pkg/otp"
	"github.com/shandysiswandi/gofocus/internal/pkg/router"
	"github.com/shandysiswandi/gofocus/internal/pkg/scheduler"
	"github.com/shandysiswandi/gofocus/internal/pkg/storage"
	"github.com/shandysiswandi/gofocus/internal/pkg/uid"
	"github.com/shandysiswandi/gofocus/internal/pkg/validator"
	"google.golang.org/api/option"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

func (a *App) initConfig() {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "/config/config.yaml"
		if os.Getenv("LOCAL") == "true" {
			path = "./config/config.yaml"
		}
	}

	cfg, err := config.NewViper(path)
	if err != nil {
		slog.Error("failed to init config", "error", err)
		os.Exit(1)
	}

	loc, err := time.LoadLocation(cfg.GetString("app.tz"))
	if err != nil {
		slog.Error("failed to load app timezone", "tz", cfg.GetString("app.tz"), "error", err)
		os.Exit(1)
	}

	a.config = cfg
	a.location = loc
}

func (a *App) initInstrument() {
	ins, err := instrument.New(context.Background(), &instrument.Config{
		Enabled:          a.config.GetBool("instrument.enabled"),
		ServiceName:      a.config.GetString("instrument.service_name"),
		ServiceVersion:   a.config.GetString("instrument.service_version"),
		Environment:      a.config.GetString("instrument.env"),
		OTLPEndpoint:     a.config.GetString("instrument.otlp_endpoint"),
		OTLPSecure:       a.config.GetBool("instrument.otlp_secure"),
		TraceSampleRatio: a.config.GetFloat64("instrument.trace_sample_ratio"),
		MetricsInterval:  a.config.GetSecond("instrument.metric_interval_seconds"),
		MaskFields:       a.config.GetArray("instrument.log_mask_fields"),
		LogLevel:         a.config.GetString("instrument.log_level"),
	})
	if err != nil {
		slog.Error("failed to init instrumentation", "error", err)
		os.Exit(1)
	}
	a.ins = ins
}

func (a *App) initLibraries() {
	a.clock = clock.NewIn(a.location)
	a.uuid = uid.NewUUID()
	a.goroutine = goroutine.NewManager(a.config.GetInt("app.server.max_goroutine"))
	a.hmac = hash.NewHMACSHA256(a.config.GetString("hash.hmac.secret"))

	password, err := hash.NewPassword(
		a.config.GetString("hash.password.driver"),
		a.config.GetInt("hash.password.bcrypt_cost"),
		a.config.GetString("hash.password.pepper"),
	)
	if err != nil {
		slog.Error("failed to init password hash", "error", err)
		os.Exit(1)
	}
	a.password = password

	validator, err := validator.NewV10Validator()
	if err != nil {
		slog.Error("failed to init validation v10 validator", "error", err)
		os.Exit(1)
	}
	a.validator = validator

	snow, err := uid.NewSnowflake()
	if err != nil {
		slog.Error("failed to init uid number snowflake", "error", err)
		os.Exit(1)
	}
	a.uid = snow

	token, err := uid.NewToken()
	if err != nil {
		slog.Error("failed to init uid opaque token", "error", err)
		os.Exit(1)
	}
	a.oid = token

	a.totp = otp.NewTOTP(
		a.config.GetString("mfa.totp.issuer"),
		a.config.GetUint("mfa.totp.period"),
		a.config.GetUint("mfa.totp.skew"),
		libOTP.DigitsSix,
	)

	keys, err := mfa.NewStaticKeyProviderBase64(a.config.GetString("mfa.secret"))
	if err != nil {
		slog.Error("failed to init mfa key, secret must be base64 of 32 bytes (AES-256)", "error", err)
		os.Exit(1)
	}
	a.mfaEncryptor = mfa.NewAESGCMEncryptor(keys)
}

// withRetry retries fn with capped exponential backoff until it succeeds,
// app.startup.max_retries is exhausted or the app context ends.
func (a *App) withRetry(name string, fn func(ctx context.Context) error) error {
	backoff := retry.NewExponential(time.Duration(a.config.GetInt("app.startup.retry_base_ms")) * time.Millisecond)
	backoff = retry.WithCappedDuration(a.config.GetSecond("app.startup.retry_cap_seconds"), backoff)
	backoff = retry.WithMaxRetries(a.config.GetUint64("app.startup.max_retries"), backoff)

	return retry.Do(a.ctx, backoff, func(ctx context.Context) error {
		if err := fn(ctx); err != nil {
			slog.WarnContext(ctx, "dependency not ready, retrying", "name", name, "error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
}

func (a *App) initDatabase() {
	raw := a.config.GetString("database.url")
	dsn, err := dburl.DSN(raw)
	if err != nil {
		slog.Error("failed to parse DB connection string.", "error", err)
		os.Exit(1)
	}

	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		slog.Error("failed to parse DB connection string.", "error", err)
		os.Exit(1)
	}

	config.MaxConns = a.config.GetInt32("database.pool.max_conns")
	config.MinConns = a.config.GetInt32("database.pool.min_conns")
	config.MaxConnLifetime = a.config.GetSecond("database.pool.max_conn_lifetime_seconds")
	config.MaxConnIdleTime = a.config.GetSecond("database.pool.max_conn_idle_seconds")
	config.HealthCheckPeriod = a.config.GetSecond("database.pool.health_check_period_seconds")

	pool, err := pgxpool.NewWithConfig(a.ctx, config)
	if err != nil {
		slog.Error("failed to create DB connection pool", "error", err)
		os.Exit(1)
	}

	if err := a.withRetry("postgres", func(ctx context.Context) error {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return pool.Ping(pingCtx)
	}); err != nil {
		slog.Error("failed to ping DB", "url", dburl.Redact(raw), "error", err)
		os.Exit(1)
	}

	slog.Info("database connected", "url", dburl.Redact(raw))
	a.dbConn = pool
}

func (a *App) initMigration() {
	if !a.config.GetBool("database.migrate") {
		return
	}

	if err := migration.Up(migrationsFS, "migrations", a.config.GetString("database.url")); err != nil {
		slog.Error("failed to migrate database", "error", err)
		os.Exit(1)
	}
}

func (a *App) initRedis() {
	opt, err := redis.ParseURL(a.config.GetString("redis.url"))
	if err != nil {
		slog.Error("failed to parse redis url", "error", err)
		os.Exit(1)
	}

	rdb := redis.NewClient(opt)

	if err := a.withRetry("redis", func(ctx context.Context) error {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return rdb.Ping(pingCtx).Err()
	}); err != nil {
		slog.Error("failed to init redis", "error", err)
		os.Exit(1)
	}

	a.redisConn = rdb
	a.idemp = idempotency.New(rdb)
	a.revocation = jwt.NewRedisRevocation(rdb, a.clock)
	a.cache = cache.New(cache.Config{
		Size:   a.config.GetInt("cache.size"),
		L1TTL:  a.config.GetSecond("cache.l1_ttl_seconds"),
		Redis:  rdb,
		Prefix: a.config.GetString("cache.prefix"),
	})
}

func (a *App) initJWT() {
	cfg := jwt.Config{
		Secret:     []byte(a.config.GetString("jwt.secret")),
		Issuer:     strings.TrimRight(a.config.GetString("oidc.issuer"), "/"),
		Audiences:  a.config.GetArray("jwt.audiences"),
		TTLMinutes: a.config.GetMinute("jwt.ttl_minutes"),
		IDTokenTTL: a.config.GetMinute("jwt.id_token_ttl_minutes"),
		Clock:      a.clock,
		UUID:       a.uuid,
	}

	if !strings.EqualFold(a.config.GetString("jwt.algorithm"), "RS256") {
		manager, err := jwt.NewHS512(cfg)
		if err != nil {
			slog.Error("failed to init jwt token", "error", err)
			os.Exit(1)
		}
		a.jwt = manager
		return
	}

	key := a.rsaSigningKey()
	store, err := jwt.NewStaticKeyStore(key)
	if err != nil {
		slog.Error("failed to init jwt key store", "error", err)
		os.Exit(1)
	}

	manager, err := jwt.NewRS256(cfg, store)
	if err != nil {
		slog.Error("failed to init jwt token", "error", err)
		os.Exit(1)
	}
	a.jwt = manager
}

func (a *App) rsaSigningKey() *rsa.PrivateKey {
	path := strings.TrimSpace(a.config.GetString("jwt.private_key_file"))
	if path == "" {
		slog.Warn("jwt.private_key_file is empty, generating an ephemeral RSA key")
		key, err := jwt.GenerateRSAKey(2048)
		if err != nil {
			slog.Error("failed to generate RSA key", "error", err)
			os.Exit(1)
		}
		return key
	}

	// #nosec G304 -- path is from trusted config file.
	pem, err := os.ReadFile(path)
	if err != nil {
		slog.Error("failed to read jwt private key", "error", err)
		os.Exit(1)
	}

	key, err := jwt.ParseRSAPrivateKeyPEM(pem)
	if err != nil {
		slog.Error("failed to parse jwt private key", "error", err)
		os.Exit(1)
	}
	return key
}

func (a *App) initMail() {
	client, err := mail.NewFromDriver(a.config.GetString("mail.driver"), mail.SMTPConfig{
		Host:     a.config.GetString("mail.host"),
		Port:     a.config.GetInt("mail.port"),
		Username: a.config.GetString("mail.username"),
		Password: a.config.GetString("mail.password"),
		From:     a.config.GetString("mail.from"),
	})
	if err != nil {
		slog.Error("failed to init mail", "error", err)
		os.Exit(1)
	}

	a.mail = client
}

func (a *App) initStorage() {
	driver := strings.TrimSpace(a.config.GetString("storage.driver"))

	stg, err := storage.NewFromDriver(a.ctx, driver, storage.FactoryOptions{
		Bucket: strings.TrimSpace(a.config.GetString("storage.bucket")),
		S3: storage.S3Options{
			Region:       strings.TrimSpace(a.config.GetString("storage.s3.region")),
			Endpoint:     strings.TrimSpace(a.config.GetString("storage.s3.endpoint")),
			AccessKey:    strings.TrimSpace(a.config.GetString("storage.s3.access_key")),
			SecretKey:    strings.TrimSpace(a.config.GetString("storage.s3.secret_key")),
			SessionToken: strings.TrimSpace(a.config.GetString("storage.s3.session_token")),
			UsePathStyle: a.config.GetBool("storage.s3.use_path_style"),
		},
		MinIO: storage.MinIOOptions{
			Region:       strings.TrimSpace(a.config.GetString("storage.minio.region")),
			Endpoint:     strings.TrimSpace(a.config.GetString("storage.minio.endpoint")),
			AccessKey:    strings.TrimSpace(a.config.GetString("storage.minio.access_key")),
			SecretKey:    strings.TrimSpace(a.config.GetString("storage.minio.secret_key")),
			UseSSL:       a.config.GetBool("storage.minio.use_ssl"),
			CreateBucket: a.config.GetBool("storage.minio.create_bucket"),
		},
		GCS: a.gcsOptions(),
	})
	if err != nil {
		slog.Error("failed to init storage", "driver", driver, "error", err)
		os.Exit(1)
	}

	a.storage = stg
}

// googleClientOptions reads <prefix>.endpoint and <prefix>.without_auth,
// which point a Google client at a local emulator.
func (a *App) googleClientOptions(prefix string) []option.ClientOption {
	var opts []option.ClientOption
	if endpoint := strings.TrimSpace(a.config.GetString(prefix + ".endpoint")); endpoint != "" {
		opts = append(opts, option.WithEndpoint(endpoint))
	}
	if a.config.GetBool(prefix + ".without_auth") {
		opts = append(opts, option.WithoutAuthentication())
	}
	return opts
}

func (a *App) gcsOptions() storage.GCSOptions {
	opts := storage.GCSOptions{
		ClientOptions:  a.googleClientOptions("storage.gcs"),
		GoogleAccessID: strings.TrimSpace(a.config.GetString("storage.gcs.google_access_id")),
	}

	if path := strings.TrimSpace(a.config.GetString("storage.gcs.private_key_file")); path != "" {
		key, err := os.ReadFile(path)
		if err != nil {
			slog.Error("failed to read gcs signing key", "path", path, "error", err)
			os.Exit(1)
		}
		opts.PrivateKey = key
	}

	return opts
}

func (a *App) initMessaging() {
	driver := a.config.GetString("messaging.driver")
	client, err := messaging.NewFromDriver(a.ctx, driver, messaging.FactoryOptions{
		NATS: messaging.NATSConfig{
			URL: a.config.GetString("messaging.nats.url"),
			Options: []nats.Option{
				nats.Name(a.config.GetString("messaging.nats.name")),
				nats.MaxReconnects(a.config.GetInt("messaging.nats.max_reconnects")),
				nats.Timeout(a.config.GetSecond("messaging.nats.timeout_seconds")),
				nats.ReconnectWait(a.config.GetSecond("messaging.nats.reconnect_wait_seconds")),
				nats.PingInterval(a.config.GetSecond("messaging.nats.ping_interval_seconds")),
				nats.MaxPingsOutstanding(a.config.GetInt("messaging.nats.max_pings_outstanding")),
				nats.RetryOnFailedConnect(a.config.GetBool("messaging.nats.retry_on_failed_connect")),
			},
		},
		Kafka: messaging.KafkaConfig{
			Brokers: a.config.GetArray("messaging.kafka.brokers"),
			Dialer: &kafka.Dialer{
				ClientID:  a.config.GetString("messaging.kafka.client_id"),
				Timeout:   a.config.GetSecond("messaging.kafka.dial_timeout_seconds"),
				DualStack: true,
			},
		},
		NSQ: messaging.NSQConfig{
			ProducerAddr: a.config.GetString("messaging.nsq.producer_addr"),
			NSQDAddrs:    a.config.GetArray("messaging.nsq.nsqd_addrs"),
			LookupdAddrs: a.config.GetArray("messaging.nsq.lookupd_addrs"),
		},
		PubSub: messaging.PubSubConfig{
			ProjectID:     a.config.GetString("messaging.pubsub.project_id"),
			ClientOptions: a.googleClientOptions("messaging.pubsub"),
		},
		MemoryBuffer: a.config.GetInt("messaging.memory.buffer"),
	})
	if err != nil {
		slog.Error("failed to init messaging", "error", err, "driver", driver)
		os.Exit(1)
	}

	a.messaging = client
	a.publisher = messaging.NewRetryPublisher(client,
		a.config.GetUint64("messaging.publish.max_attempts"),
		time.Duration(a.config.GetInt("messaging.publish.retry_base_ms"))*time.Millisecond,
	)
}

func (a *App) initCasbin() {
	e, err := casbin.NewEnforcer(a.config.GetString("casbin.model_file"), a.config.GetString("casbin.policy_file"))
	if err != nil {
		slog.Error("failed to init casbin", "error", err)
		os.Exit(1)
	}

	a.casbin = e
}

func (a *App) initScheduler() {
	a.scheduler = scheduler.New(a.location, a.goroutine)
}

func (a *App) initHTTPServer() {
	a.router = router.NewRouter(router.Config{
		Config:     a.config,
		UUID:       a.uuid,
		JWT:        a.jwt,
		Revocation: a.revocation,
		Instrument: a.ins,
	})
	a.rateLimiter = router.NewRateLimiter(
		a.config.GetInt("app.server.rate_limit.per_minute"),
		a.config.GetInt("app.server.rate_limit.burst"),
	)

	a.router.GETRaw("/health", http.HandlerFunc(a.handleHealth))
	a.router.GETRaw("/health/ready", http.HandlerFunc(a.handleReady))

	routerWithCORS := cors.New(cors.Options{
		AllowedOrigins: a.config.GetArray("app.server.cors"),
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders: []string{"Authorization", "Content-Type", "X-Correlation-ID"},
		ExposedHeaders: []string{"X-Correlation-ID", "Retry-After"},
		MaxAge:         600,
	}).Handler(a.router)

	a.httpServer = &http.Server{
		Addr:              a.config.GetString("app.server.http.address"),
		Handler:           routerWithCORS,
		ReadTimeout:       a.config.GetSecond("app.server.http.read_timeout_seconds"),
		ReadHeaderTimeout: a.config.GetSecond("app.server.http.read_header_timeout_seconds"),
		WriteTimeout:      a.config.GetSecond("app.server.http.write_timeout_seconds"),
		IdleTimeout:       a.config.GetSecond("app.server.http.idle_timeout_seconds"),
	}
}

const jobRateLimitCleanup = "app.rate_limit_cleanup"

func (a *App) initJobs() {
	spec := a.config.GetString("app.server.rate_limit.cleanup_cron")
	if spec == "" {
		return
	}

	maxIdle := a.config.GetMinute("app.server.rate_limit.max_idle_minutes")
	if err := a.scheduler.Register(jobRateLimitCleanup, spec, func(ctx context.Context) error {
		removed := a.rateLimiter.Cleanup(maxIdle)
		slog.DebugContext(ctx, "rate limiter cleanup finished", "removed", removed)
		return nil
	}); err != nil {
		slog.Error("failed to register job", "job", jobRateLimitCleanup, "error", err)
		os.Exit(1)
	}
}

func (a *App) initClosers() {
	a.closers = []struct {
		name string
		fn   func(context.Context) error
	}{
		{
			name: "Messaging",
			fn: func(context.Context) error {
				return a.messaging.Close()
			},
		},
		{
			name: "Mail",
			fn: func(context.Context) error {
				return a.mail.Close()
			},
		},
		{
			name: "Storage",
			fn: func(context.Context) error {
				return a.storage.Close()
			},
		},
		{
			name: "Redis",
			fn: func(context.Context) error {
				return a.redisConn.Close()
			},
		},
		{
			name: "Database",
			fn: func(context.Context) error {
				a.dbConn.Close()

				return nil
			},
		},
		{
			name: "Instrument",
			fn: func(ctx context.Context) error {
				return a.ins.Shutdown(ctx)
			},
		},
		{
			name: "Config",
			fn: func(context.Context) error {
				return a.config.Close()
			},
		},
	}
}
