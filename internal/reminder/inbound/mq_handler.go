package inbound

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/shandysiswandi/gofocus/internal/pkg/instrument"
	"github.com/shandysiswandi/gofocus/internal/pkg/messaging"
	"github.com/shandysiswandi/gofocus/internal/pkg/uid"
	"github.com/shandysiswandi/gofocus/internal/reminder/usecase"
	"github.com/shandysiswandi/gofocus/internal/shared/event"
)

type MQHandler struct {
	uc   uc
	uuid uid.StringID
	ins  instrument.Instrumentation
}

func (h *MQHandler) UserRegistered(ctx context.Context, msg messaging.Message) error {
	ctx = messaging.ContextFrom(ctx, msg, h.uuid.Generate)

	ctx, span := h.ins.Tracer("reminder.inbound.mq").Start(ctx, "UserRegistered")
	defer span.End()

	body := msg.Body()
	slog.InfoContext(ctx, "consume: user registered for welcome email", "msg_body", string(body))

	var payload event.UserRegisteredMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		slog.ErrorContext(ctx, "failed to parse message body of user registered", "msg_body", string(body), "error", err)
		return nil
	}

	if err := h.uc.ConsumeUserRegistered(ctx, usecase.ConsumeUserRegisteredInput{
		UserID:       payload.UserID,
		Email:        payload.Email,
		FullName:     payload.FullName,
		RegisteredAt: payload.RegisteredAt,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to consume user registered", "msg_body", string(body), "error", err)
		return err
	}

	return nil
}
