package app

import (
	"log/slog"
	"os"

	"github.com/shandysiswandi/folio/internal/auth"
	"github.com/shandysiswandi/folio/internal/notification"
)

func (a *App) initModules() {
	if a.config.GetBool("modules.auth.enabled") {
		closer, err := auth.New(a.ctx, auth.Dependency{
			DBConn:     a.dbConn,
			CacheConn:  a.cacheConn,
			Router:     a.router,
			Messaging:  a.messaging,
			Config:     a.config,
			Instrument: a.ins,
			UID:        a.uid,
			SessionID:  a.sid,
			Clock:      a.clock,
			Validator:  a.validator,
			JWT:        a.jwt,
		})
		if err != nil {
			slog.Error("failed to init module auth", "error", err)
			os.Exit(1)
		}
		a.userStore = closer
	}

	if a.config.GetBool("modules.notification.enabled") {
		if err := notification.New(notification.Dependency{
			Ctx:         a.ctx,
			Messaging:   a.messaging,
			Idempotency: a.idemp,
			Config:      a.config,
			Instrument:  a.ins,
			UUID:        a.uuid,
			Clock:       a.clock,
			Goroutine:   a.goroutine,
			Validator:   a.validator,
			Mail:        a.mail,
		}); err != nil {
			slog.Error("failed to init module notification", "error", err)
			os.Exit(1)
		}
	}
}
