package inbound

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/shandysiswandi/gofocus/internal/goal/usecase"
	"github.com/shandysiswandi/gofocus/internal/pkg/instrument"
	"github.com/shandysiswandi/gofocus/internal/pkg/messaging"
	"github.com/shandysiswandi/gofocus/internal/pkg/uid"
	"github.com/shandysiswandi/gofocus/internal/shared/event"
)

type MQHandler struct {
	uc   uc
	uuid uid.StringID
	ins  instrument.Instrumentation
}

func (h *MQHandler) PomodoroCompleted(ctx context.Context, msg messaging.Message) error {
	ctx = messaging.ContextFrom(ctx, msg, h.uuid.Generate)

	ctx, span := h.ins.Tracer("goal.inbound.mq").Start(ctx, "PomodoroCompleted")
	defer span.End()

	body := msg.Body()
	slog.InfoContext(ctx, "consume: pomodoro completed for goal", "msg_body", string(body))

	var payload event.PomodoroCompletedMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		slog.ErrorContext(ctx, "failed to parse message body of pomodoro completed", "msg_body", string(body), "error", err)
		return nil
	}

	if err := h.uc.ConsumePomodoroCompleted(ctx, usecase.ConsumePomodoroCompletedInput{
		SessionID:   payload.SessionID,
		UserID:      payload.UserID,
		GoalID:      payload.GoalID,
		CompletedAt: payload.CompletedAt,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to consume pomodoro completed", "msg_body", string(body), "error", err)
		return err
	}

	return nil
}
