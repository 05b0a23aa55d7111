package app

import (
	"context"
	"io"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
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

// App wires dependencies and manages service lifecycle.
type App struct {
	ctx    context.Context
	cancel context.CancelFunc

	// configuration
	config config.Config
	ins    instrument.Instrumentation

	// libraries
	goroutine *goroutine.Manager
	validator validator.Validator
	clock     clock.Clocker
	uid       uid.NumberID
	uuid      uid.StringID
	sid       uid.StringID
	jwt       *jwt.Symmetric

	// resources
	dbConn    *pgxpool.Pool // nil unless database.driver is postgres
	cacheConn *redis.Client
	idemp     idempotency.Idempotency
	mail      mail.Mail
	messaging messaging.Messaging
	userStore io.Closer

	// server
	router     *router.Router
	httpServer *http.Server

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
	}

	app.initConfig()
	app.initInstrument()
	app.initLibraries()
	app.initJWT()
	app.initDatabase()
	app.initCache()
	app.initMail()
	app.initMessaging()
	app.initHTTPServer()
	app.initModules()
	app.initClosers()

	return app
}
