package messaging

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"
)

// RetryPublisher retries failed publishes with exponential backoff.
type RetryPublisher struct {
	next     Publisher
	attempts uint64
	base     time.Duration
}

// NewRetryPublisher wraps next so each Publish is tried up to attempts times.
func NewRetryPublisher(next Publisher, attempts uint64, base time.Duration) *RetryPublisher {
	if attempts == 0 {
		attempts = 1
	}
	if base <= 0 {
		base = 100 * time.Millisecond
	}
	return &RetryPublisher{next: next, attempts: attempts, base: base}
}

// Publish forwards to the wrapped publisher. ErrUnsupported and context
// errors are not retried.
func (p *RetryPublisher) Publish(ctx context.Context, destination string, msg OutgoingMessage) (PublishResult, error) {
	backoff := retry.WithMaxRetries(p.attempts-1, retry.NewExponential(p.base))

	var res PublishResult
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		var err error
		res, err = p.next.Publish(ctx, destination, msg)
		if err == nil || errors.Is(err, ErrUnsupported) || ctx.Err() != nil {
			return err
		}
		slog.WarnContext(ctx, "publish failed, retrying", "destination", destination, "error", err)
		return retry.RetryableError(err)
	})

	return res, err
}
