package messaging

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shandysiswandi/gofocus/internal/pkg/stacktrace"
)

func callHandlerWithRecover(ctx context.Context, kind string, fn func() error) (err error) {
	defer func() {
		if rvr := recover(); rvr != nil {
			slog.ErrorContext(ctx, "panic in messaging handler", "kind", kind, "panic", rvr, "stack", stacktrace.Capture(1))
			err = fmt.Errorf("messaging: panic in %s handler: %v", kind, rvr)
		}
	}()

	return fn()
}

func ackOrNack(ctx context.Context, msg Message, handlerErr error) error {
	if handlerErr == nil {
		return msg.Ack(ctx)
	}
	if n, ok := msg.(Nackable); ok {
		return n.Nack(ctx)
	}
	return nil
}
