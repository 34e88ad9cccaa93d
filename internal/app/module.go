package app

import (
	"log/slog"
	"os"

	"github.com/shandysiswandi/gofocus/internal/calendar"
	"github.com/shandysiswandi/gofocus/internal/goal"
	"github.com/shandysiswandi/gofocus/internal/identity"
	"github.com/shandysiswandi/gofocus/internal/note"
	"github.com/shandysiswandi/gofocus/internal/pomodoro"
	"github.com/shandysiswandi/gofocus/internal/reminder"
	"github.com/shandysiswandi/gofocus/internal/todo"
)

//nolint:gocognit // one block per module
func (a *App) initModules() {
	if a.config.GetBool("modules.identity.enabled") {
		if err := identity.New(identity.Dependency{
			DBConn:       a.dbConn,
			Cache:        a.cache,
			Enforcer:     a.casbin,
			Router:       a.router,
			RateLimiter:  a.rateLimiter,
			Publisher:    a.publisher,
			Config:       a.config,
			Instrument:   a.ins,
			UID:          a.uid,
			OID:          a.oid,
			HMAC:         a.hmac,
			Password:     a.password,
			MFAEncryptor: a.mfaEncryptor,
			Clock:        a.clock,
			Totp:         a.totp,
			Validator:    a.validator,
			JWT:          a.jwt,
			Revocation:   a.revocation,
		}); err != nil {
			slog.Error("failed to init module identity", "error", err)
			os.Exit(1)
		}
	}

	if a.config.GetBool("modules.todo.enabled") {
		if err := todo.New(todo.Dependency{
			DBConn:     a.dbConn,
			Router:     a.router,
			Instrument: a.ins,
			UID:        a.uid,
			Clock:      a.clock,
			Validator:  a.validator,
		}); err != nil {
			slog.Error("failed to init module todo", "error", err)
			os.Exit(1)
		}
	}

	if a.config.GetBool("modules.goal.enabled") {
		if err := goal.New(goal.Dependency{
			Ctx:         a.ctx,
			DBConn:      a.dbConn,
			Cache:       a.cache,
			Idempotency: a.idemp,
			Messaging:   a.messaging,
			Scheduler:   a.scheduler,
			Goroutine:   a.goroutine,
			Router:      a.router,
			Config:      a.config,
			Instrument:  a.ins,
			UID:         a.uid,
			UUID:        a.uuid,
			Clock:       a.clock,
			Validator:   a.validator,
		}); err != nil {
			slog.Error("failed to init module goal", "error", err)
			os.Exit(1)
		}
	}

	if a.config.GetBool("modules.note.enabled") {
		if err := note.New(note.Dependency{
			DBConn:     a.dbConn,
			Storage:    a.storage,
			Router:     a.router,
			Config:     a.config,
			Instrument: a.ins,
			UID:        a.uid,
			UUID:       a.uuid,
			Clock:      a.clock,
			Validator:  a.validator,
		}); err != nil {
			slog.Error("failed to init module note", "error", err)
			os.Exit(1)
		}
	}

	if a.config.GetBool("modules.calendar.enabled") {
		if err := calendar.New(calendar.Dependency{
			DBConn:     a.dbConn,
			Router:     a.router,
			Config:     a.config,
			Instrument: a.ins,
			UID:        a.uid,
			Clock:      a.clock,
			Validator:  a.validator,
		}); err != nil {
			slog.Error("failed to init module calendar", "error", err)
			os.Exit(1)
		}
	}

	if a.config.GetBool("modules.pomodoro.enabled") {
		if err := pomodoro.New(pomodoro.Dependency{
			DBConn:     a.dbConn,
			Publisher:  a.publisher,
			Router:     a.router,
			Config:     a.config,
			Instrument: a.ins,
			UID:        a.uid,
			Clock:      a.clock,
			Validator:  a.validator,
		}); err != nil {
			slog.Error("failed to init module pomodoro", "error", err)
			os.Exit(1)
		}
	}

	if a.config.GetBool("modules.reminder.enabled") {
		if err := reminder.New(reminder.Dependency{
			Ctx:         a.ctx,
			DBConn:      a.dbConn,
			Mail:        a.mail,
			Idempotency: a.idemp,
			Messaging:   a.messaging,
			Scheduler:   a.scheduler,
			Goroutine:   a.goroutine,
			Config:      a.config,
			Instrument:  a.ins,
			UUID:        a.uuid,
			Clock:       a.clock,
			Validator:   a.validator,
		}); err != nil {
			slog.Error("failed to init module reminder", "error", err)
			os.Exit(1)
		}
	}
}
