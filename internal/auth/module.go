package auth

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/folio/internal/auth/entity"
	"github.com/shandysiswandi/folio/internal/auth/inbound"
	"github.com/shandysiswandi/folio/internal/auth/outbound/cache"
	"github.com/shandysiswandi/folio/internal/auth/outbound/db"
	"github.com/shandysiswandi/folio/internal/auth/outbound/mq"
	"github.com/shandysiswandi/folio/internal/auth/outbound/sqlite"
	"github.com/shandysiswandi/folio/internal/auth/usecase"
	"github.com/shandysiswandi/folio/internal/pkg/clock"
	"github.com/shandysiswandi/folio/internal/pkg/config"
	"github.com/shandysiswandi/folio/internal/pkg/hash"
	"github.com/shandysiswandi/folio/internal/pkg/instrument"
	"github.com/shandysiswandi/folio/internal/pkg/jwt"
	"github.com/shandysiswandi/folio/internal/pkg/messaging"
	"github.com/shandysiswandi/folio/internal/pkg/otp"
	"github.com/shandysiswandi/folio/internal/pkg/router"
	"github.com/shandysiswandi/folio/internal/pkg/uid"
	"github.com/shandysiswandi/folio/internal/pkg/validator"
)

// PublicEndpoints lists the routes served without a bearer token.
var PublicEndpoints = inbound.PublicEndpoints

var errPostgresRequired = errors.New("auth: database.driver is postgres but no pool was given")

type Dependency struct {
	// DBConn is only needed when database.driver is postgres.
	DBConn     *pgxpool.Pool
	CacheConn  *redis.Client              `validate:"required"`
	Router     *router.Router             `validate:"required"`
	Messaging  messaging.Publisher        `validate:"required"`
	Config     config.Config              `validate:"required"`
	Instrument instrument.Instrumentation `validate:"required"`
	UID        uid.NumberID               `validate:"required"`
	SessionID  uid.StringID               `validate:"required"`
	Clock      clock.Clocker              `validate:"required"`
	Validator  validator.Validator        `validate:"required"`
	JWT        *jwt.Symmetric             `validate:"required"`
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// New wires the sign-in module onto the router. The returned closer releases
// the user store when it is owned by the module.
func New(ctx context.Context, dep Dependency) (io.Closer, error) {
	if err := dep.Validator.Validate(dep); err != nil {
		return nil, err
	}

	users, closer, err := newUserStore(ctx, dep)
	if err != nil {
		return nil, err
	}

	cfg := dep.Config

	uc := usecase.New(usecase.Dependency{
		RepoSession:   cache.NewSession(dep.CacheConn, dep.Instrument, cfg.GetMinute("session.retention_minute")),
		RepoUser:      users,
		RepoMessaging: mq.NewMessaging(dep.Messaging, dep.Instrument),
		Validator:     dep.Validator,
		Config:        cfg,
		Hash:          hash.NewHMACSHA256(cfg.GetBinary("otp.secret")),
		Code:          otp.NewHOTP(cfg.GetString("app.name"), cfg.GetInt("otp.digits")),
		UID:           dep.UID,
		SessionID:     dep.SessionID,
		Clock:         dep.Clock,
		JWT:           dep.JWT,
		Links:         dep.JWT,
		Instrument:    dep.Instrument,
	})

	cookie := inbound.NewSessionCookie(
		cfg.GetString("session.cookie_name"),
		cfg.GetBool("session.secure"),
		hash.NewHMACSHA256(cfg.GetBinary("session.secret")),
	)

	inbound.RegisterHTTPEndpoint(dep.Router, uc, cookie)

	return closer, nil
}

type userStore interface {
	UpsertUserByEmail(ctx context.Context, user entity.User) (*entity.User, error)
	GetUserByID(ctx context.Context, id int64) (*entity.User, error)
	UpdateUserName(ctx context.Context, id int64, firstName, lastName string, at time.Time) error
}

func newUserStore(ctx context.Context, dep Dependency) (userStore, io.Closer, error) {
	if dep.Config.GetString("database.driver") == "sqlite" {
		store, err := sqlite.Open(ctx, dep.Config.GetString("database.sqlite.path"), dep.Instrument)
		if err != nil {
			return nil, nil, err
		}
		return store, store, nil
	}

	if dep.DBConn == nil {
		return nil, nil, errPostgresRequired
	}

	store := db.NewDB(dep.DBConn, dep.Instrument)
	if err := store.Migrate(ctx); err != nil {
		return nil, nil, err
	}

	return store, nopCloser{}, nil
}
