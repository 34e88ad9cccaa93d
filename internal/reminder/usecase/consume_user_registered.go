package usecase

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/shandysiswandi/gofocus/internal/pkg/idempotency"
	"github.com/shandysiswandi/gofocus/internal/pkg/mail"
)

type ConsumeUserRegisteredInput struct {
	UserID       int64  `validate:"required,gt=0"`
	Email        string `validate:"required,email"`
	FullName     string `validate:"required"`
	RegisteredAt time.Time
}

type welcomeEmailData struct {
	baseEmailData
	FullName string
}

// ConsumeUserRegistered sends the welcome email once per user. A failed send
// is returned so the broker redelivers it.
func (s *Usecase) ConsumeUserRegistered(ctx context.Context, in ConsumeUserRegisteredInput) error {
	ctx, span := s.startSpan(ctx, "ConsumeUserRegistered")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		slog.ErrorContext(ctx, "Validation failed", "user_id", in.UserID, "error", err)
		return nil
	}

	key := "reminder:welcome:" + strconv.FormatInt(in.UserID, 10)
	err := s.idemp.Exec(ctx, key, func(ctx context.Context) error {
		body, err := s.render("welcome.html", welcomeEmailData{baseEmailData: s.baseEmailData(), FullName: in.FullName})
		if err != nil {
			slog.ErrorContext(ctx, "failed to render welcome email", "user_id", in.UserID, "error", err)
			return err
		}

		return s.repoMail.Send(ctx, mail.Message{
			To:       []string{in.Email},
			Subject:  "Welcome to " + s.cfg.GetString("app.name"),
			HTMLBody: body,
		})
	}, idempotency.WithReleaseOnFailure(), idempotency.WithStateTTL(s.cfg.GetHour("modules.reminder.dedup_ttl_hours")))
	if idempotency.IsDuplicate(err) {
		slog.InfoContext(ctx, "welcome email already sent", "user_id", in.UserID)
		return nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to send welcome email", "user_id", in.UserID, "error", err)
		return err
	}

	slog.InfoContext(ctx, "welcome email sent", "user_id", in.UserID)
	return nil
}
