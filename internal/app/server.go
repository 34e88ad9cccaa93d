package app

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shandysiswandi/gofocus/internal/pkg/router"
	"golang.org/x/sync/errgroup"
)

const readinessTimeout = 2 * time.Second

// Start launches the HTTP server and the scheduler and returns a channel
// closed on shutdown.
func (a *App) Start() <-chan struct{} {
	terminateChan := make(chan struct{})

	a.scheduler.Start()
	a.ready.Store(true)

	go func() {
		slog.Info("http server listening", "address", a.httpServer.Addr)

		if err := a.httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			slog.Error("failed to listen and serve http server", "error", err)
			os.Exit(1)
		}
	}()

	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
		defer signal.Stop(sigint)

		<-sigint

		a.ready.Store(false)
		close(terminateChan)

		slog.Info("application gracefully shutdown")
	}()

	return terminateChan
}

// Serve runs the HTTP server on the provided listener for tests.
func (a *App) Serve(l net.Listener) <-chan error {
	errChan := make(chan error, 1)
	a.ready.Store(true)

	go func() {
		errChan <- a.httpServer.Serve(l)
		close(errChan)
	}()

	return errChan
}

// Stop gracefully shuts down in order: readiness, HTTP server, scheduler,
// goroutine pool, then resources.
func (a *App) Stop(ctx context.Context) {
	a.ready.Store(false)

	if err := a.httpServer.Shutdown(ctx); err != nil {
		slog.ErrorContext(ctx, "failed to close resources", "name", "HTTP Server", "error", err)
	}

	if err := a.scheduler.Stop(ctx); err != nil {
		slog.ErrorContext(ctx, "failed to close resources", "name", "Scheduler", "error", err)
	}

	if a.cancel != nil {
		a.cancel()
	}

	slog.InfoContext(ctx, "waiting for all goroutine to finish")
	if err := a.goroutine.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		slog.ErrorContext(ctx, "error from goroutines executions", "error", err)
	}
	slog.InfoContext(ctx, "all goroutines have finished successfully")

	for _, closer := range a.closers {
		if err := closer.fn(ctx); err != nil {
			slog.ErrorContext(ctx, "failed to close resources", "name", closer.name, "error", err)
		}
	}
}

func (a *App) handleHealth(w http.ResponseWriter, _ *http.Request) {
	router.WriteJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
}

// handleReady pings Postgres and Redis concurrently. It reports 503 while
// the app is starting or shutting down.
func (a *App) handleReady(w http.ResponseWriter, r *http.Request) {
	if !a.ready.Load() {
		router.WriteJSON(w, map[string]string{"status": "shutting_down"}, http.StatusServiceUnavailable)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	checks := map[string]string{"postgres": "ok", "redis": "ok"}
	var postgresErr, redisErr error

	var g errgroup.Group
	g.Go(func() error {
		postgresErr = a.dbConn.Ping(ctx)
		return postgresErr
	})
	g.Go(func() error {
		redisErr = a.redisConn.Ping(ctx).Err()
		return redisErr
	})

	if err := g.Wait(); err != nil {
		if postgresErr != nil {
			checks["postgres"] = postgresErr.Error()
		}
		if redisErr != nil {
			checks["redis"] = redisErr.Error()
		}
		slog.WarnContext(r.Context(), "readiness check failed", "checks", checks)
		router.WriteJSON(w, map[string]any{"status": "unavailable", "checks": checks}, http.StatusServiceUnavailable)
		return
	}

	router.WriteJSON(w, map[string]any{"status": "ready", "checks": checks}, http.StatusOK)
}
