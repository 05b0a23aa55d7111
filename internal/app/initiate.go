package app

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"github.com/segmentio/kafka-go"
	"github.com/shandysiswandi/folio/internal/auth"
	"github.com/shandysiswandi/folio/internal/pkg/clock"
	"github.com/shandysiswandi/folio/internal/pkg/config"
	"github.com/shandysiswandi/folio/internal/pkg/goroutine"
	"github.com/shandysiswandi/folio/internal/pkg/idempotency"
	"github.com/shandysiswandi/folio/internal/pkg/instrument"
	"github.com/shandysiswandi/folio/internal/pkg/jwt"
	"github.com/shandysiswandi/folio/internal/pkg/mail"
	"github.com/shandysiswandi/folio/internal/pkg/messaging"
	"github.com/shandysiswandi/folio/internal/pkg/router"
	"github.com/shandysiswandi/folio/internal/pkg/uid"
	"github.com/shandysiswandi/folio/internal/pkg/validator"
)

const sessionIDBytes = 32

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

	//nolint:errcheck,gosec // ignore error
	os.Setenv("TZ", cfg.GetString("app.tz"))

	a.config = cfg
}

func (a *App) initInstrument() {
	ins, err := instrument.New(context.Background(), &instrument.Config{
		Enabled:          a.config.GetBool("telemetry.enabled"),
		ServiceName:      a.config.GetString("telemetry.service_name"),
		ServiceVersion:   a.config.GetString("telemetry.service_version"),
		Environment:      a.config.GetString("telemetry.env"),
		OTLPEndpoint:     a.config.GetString("telemetry.otlp_endpoint"),
		OTLPSecure:       a.config.GetBool("telemetry.otlp_secure"),
		TraceSampleRatio: a.config.GetFloat64("telemetry.trace_sample_ratio"),
		MetricsInterval:  a.config.GetSecond("telemetry.metric_interval_seconds"),
		MaskFields:       a.config.GetArray("telemetry.log_mask_fields"),
	})
	if err != nil {
		slog.Error("failed to init instrumentation", "error", err)
		os.Exit(1)
	}
	a.ins = ins
}

func (a *App) initLibraries() {
	a.clock = clock.New()
	a.uuid = uid.NewUUID()
	a.sid = uid.NewToken(sessionIDBytes)
	a.goroutine = goroutine.NewManager(a.config.GetInt64("server.max_goroutine"))

	validator, err := validator.NewV10Validator()
	if err != nil {
		slog.Error("failed to init validation v10 validator", "error", err)
		os.Exit(1)
	}
	a.validator = validator

	snow, err := uid.NewSnowflake(a.config.GetInt64("app.node_id"))
	if err != nil {
		slog.Error("failed to init uid number snowflake", "error", err)
		os.Exit(1)
	}
	a.uid = snow
}

func (a *App) initJWT() {
	defaultJWT, err := jwt.NewHS512(jwt.Config{
		Secret:    a.config.GetBinary("jwt.secret"),
		Issuer:    a.config.GetString("jwt.issuer"),
		Audiences: a.config.GetArray("jwt.audiences"),
		TTL:       a.config.GetMinute("jwt.ttl_minute"),
		Clock:     a.clock,
		UUID:      a.uuid,
	})
	if err != nil {
		slog.Error("failed to init jwt token", "error", err)
		os.Exit(1)
	}
	a.jwt = defaultJWT
}

// initDatabase opens the postgres pool. The sqlite user store is owned by the
// auth module.
func (a *App) initDatabase() {
	if a.config.GetString("database.driver") != "postgres" {
		return
	}

	config, err := pgxpool.ParseConfig(a.config.GetString("database.postgres.url"))
	if err != nil {
		slog.Error("failed to parse DB connection string.", "error", err)
		os.Exit(1)
	}

	config.MaxConns = int32(a.config.GetInt("database.postgres.pool.max_conns")) //nolint:gosec // small config value
	config.MinConns = int32(a.config.GetInt("database.postgres.pool.min_conns")) //nolint:gosec // small config value
	config.MaxConnLifetime = a.config.GetSecond("database.postgres.pool.max_conn_lifetime_seconds")
	config.MaxConnIdleTime = a.config.GetSecond("database.postgres.pool.max_conn_idle_seconds")
	config.HealthCheckPeriod = a.config.GetSecond("database.postgres.pool.health_check_period_seconds")

	pool, err := pgxpool.NewWithConfig(a.ctx, config)
	if err != nil {
		slog.Error("failed to create DB connection pool", "error", err)
		os.Exit(1)
	}

	pingCtx, cancel := context.WithTimeout(a.ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		slog.Error("failed to ping DB", "error", err)
		os.Exit(1)
	}

	a.dbConn = pool
}

func (a *App) initCache() {
	opt, err := redis.ParseURL(a.config.GetString("redis.url"))
	if err != nil {
		slog.Error("failed to parse redis url", "error", err)
		os.Exit(1)
	}

	rdb := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(a.ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		slog.Error("failed to init redis", "error", err)
		os.Exit(1)
	}

	a.cacheConn = rdb
	a.idemp = idempotency.New(a.cacheConn)
}

func (a *App) initMail() {
	mail, err := mail.NewSMTP(mail.SMTPConfig{
		Host:     a.config.GetString("smtp.host"),
		Port:     a.config.GetInt("smtp.port"),
		Username: a.config.GetString("smtp.username"),
		Password: a.config.GetString("smtp.password"),
		From:     a.config.GetString("smtp.from"),
		Insecure: a.config.GetBool("smtp.insecure"),
	})
	if err != nil {
		slog.Error("failed to init mail", "error", err)
		os.Exit(1)
	}

	a.mail = mail
}

func (a *App) initMessaging() {
	driver := a.config.GetString("messaging.driver")
	client, err := messaging.NewFromDriver(driver, messaging.FactoryOptions{
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
	})
	if err != nil {
		slog.Error("failed to init messaging", "error", err, "driver", driver)
		os.Exit(1)
	}

	a.messaging = client
}

func (a *App) initHTTPServer() {
	public := map[string][]string{http.MethodGet: {"/health"}}
	for method, paths := range auth.PublicEndpoints {
		public[method] = append(public[method], paths...)
	}

	a.router = router.NewRouter(router.Config{
		Config:     a.config,
		UUID:       a.uuid,
		JWT:        a.jwt,
		Instrument: a.ins,
		Public:     public,
	})
	a.router.GET("/health", a.health)

	routerWithCORS := cors.New(cors.Options{
		AllowedOrigins: a.config.GetArray("cors.allowed_origins"),
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}).Handler(a.router)

	a.httpServer = &http.Server{
		Addr:              a.config.GetString("server.http.address"),
		Handler:           routerWithCORS,
		ReadTimeout:       a.config.GetSecond("server.http.read_timeout_seconds"),
		ReadHeaderTimeout: a.config.GetSecond("server.http.read_header_timeout_seconds"),
		WriteTimeout:      a.config.GetSecond("server.http.write_timeout_seconds"),
		IdleTimeout:       a.config.GetSecond("server.http.idle_timeout_seconds"),
	}
}

func (a *App) initClosers() {
	a.closers = []struct {
		name string
		fn   func(context.Context) error
	}{
		{
			name: "Instrument",
			fn: func(ctx context.Context) error {
				return a.ins.Shutdown(ctx)
			},
		},
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
			name: "Redis",
			fn: func(context.Context) error {
				return a.cacheConn.Close()
			},
		},
		{
			name: "UserStore",
			fn: func(context.Context) error {
				if a.userStore == nil {
					return nil
				}
				return a.userStore.Close()
			},
		},
		{
			name: "Database",
			fn: func(context.Context) error {
				if a.dbConn != nil {
					a.dbConn.Close()
				}

				return nil
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
