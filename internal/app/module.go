package app

import (
	"log/slog"
	"os"

	"github.com/shandysiswandi/otpauth/internal/auth"
	"github.com/shandysiswandi/otpauth/internal/notification"
)

func (a *App) initModules() {
	notif, err := notification.New(notification.Dependency{
		Ctx:         a.ctx,
		Messaging:   a.messaging,
		Storage:     a.storage,
		Mail:        a.mail,
		Idempotency: a.idemp,
		Config:      a.config,
		Instrument:  a.ins,
		UUID:        a.uuid,
		Clock:       a.clock,
		Goroutine:   a.goroutine,
		Validator:   a.validator,
	})
	if err != nil {
		slog.Error("failed to init module notification", "error", err)
		os.Exit(1)
	}

	if err := auth.New(auth.Dependency{
		Ctx:        a.ctx,
		DBConn:     a.dbConn,
		CacheConn:  a.cacheConn,
		Messaging:  a.messaging,
		Goroutine:  a.goroutine,
		Router:     a.router,
		Config:     a.config,
		Instrument: a.ins,
		UID:        a.uid,
		UUID:       a.uuid,
		HMAC:       a.hash,
		Clock:      a.clock,
		Generator:  a.generator,
		Validator:  a.validator,
		JWT:        a.jwt,
		Mailer:     notif,
	}); err != nil {
		slog.Error("failed to init module auth", "error", err)
		os.Exit(1)
	}
}
