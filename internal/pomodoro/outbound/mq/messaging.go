package mq

import (
	"context"
	"strconv"

	"github.com/shandysiswandi/gofocus/internal/pkg/instrument"
	"github.com/shandysiswandi/gofocus/internal/pkg/messaging"
	"github.com/shandysiswandi/gofocus/internal/pomodoro/usecase"
	"github.com/shandysiswandi/gofocus/internal/shared/event"
	"go.opentelemetry.io/otel/codes"
)

type Messaging struct {
	client messaging.Publisher
	ins    instrument.Instrumentation
}

func NewMessaging(client messaging.Publisher, ins instrument.Instrumentation) *Messaging {
	return &Messaging{client: client, ins: ins}
}

func (m *Messaging) PublishPomodoroCompleted(ctx context.Context, msg usecase.PomodoroCompletedEvent) error {
	ctx, span := m.ins.Tracer("pomodoro.outbound.mq").Start(ctx, "PublishPomodoroCompleted")
	defer span.End()

	err := messaging.PublishJSON(ctx, m.client, event.PomodoroCompletedDestination, strconv.FormatInt(msg.UserID, 10), event.PomodoroCompletedMessage{
		SessionID:    msg.SessionID,
		UserID:       msg.UserID,
		GoalID:       msg.GoalID,
		TodoID:       msg.TodoID,
		FocusMinutes: msg.FocusMinutes,
		CompletedAt:  msg.CompletedAt,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}
