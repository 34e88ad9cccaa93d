package router

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/shandysiswandi/gofocus/internal/pkg/stacktrace"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

func middlewareRecoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rvr := recover()
			if rvr == nil {
				return
			}
			//nolint:errorlint // sentinel comparison
			if rvr == http.ErrAbortHandler {
				panic(rvr)
			}

			ctx := r.Context()
			span := trace.SpanFromContext(ctx)
			span.RecordError(fmt.Errorf("panic: %v", rvr))
			span.SetStatus(codes.Error, "panic")

			slog.ErrorContext(ctx, "panic on the server",
				"panic", rvr,
				"method", r.Method,
				"path", matchedRoutePath(r),
				"stack", stacktrace.Capture(1),
			)

			writeJSON(w, errorResponse{Message: "Internal server error"}, http.StatusInternalServerError)
		}()

		next.ServeHTTP(w, r)
	})
}
