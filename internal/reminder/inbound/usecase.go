package inbound

import (
	"context"

	"github.com/shandysiswandi/gofocus/internal/reminder/usecase"
)

type uc interface {
	ConsumeUserRegistered(ctx context.Context, in usecase.ConsumeUserRegisteredInput) error
	DailyDigest(ctx context.Context) error
	EventReminders(ctx context.Context) error
}
