package inbound

import (
	"context"
	"log/slog"
	"slices"

	"github.com/shandysiswandi/gofocus/internal/pkg/config"
	"github.com/shandysiswandi/gofocus/internal/pkg/goroutine"
	"github.com/shandysiswandi/gofocus/internal/pkg/instrument"
	"github.com/shandysiswandi/gofocus/internal/pkg/messaging"
	"github.com/shandysiswandi/gofocus/internal/pkg/uid"
	"github.com/shandysiswandi/gofocus/internal/shared/event"
)

func RegisterMQConsumer(
	ctx context.Context,
	cfg config.Config,
	routine *goroutine.Manager,
	messenger messaging.Messaging,
	uuid uid.StringID,
	uc uc,
	ins instrument.Instrumentation,
) {
	mqHandler := &MQHandler{uc: uc, uuid: uuid, ins: ins}

	enableConsumerNames := cfg.GetArray("modules.goal.consumer_names")

	var consumers = []struct {
		name    string
		topic   string // destination where publisher sent message
		handler messaging.Handler
	}{
		{
			name:    event.PomodoroCompletedConsumerGoal,
			topic:   event.PomodoroCompletedDestination,
			handler: mqHandler.PomodoroCompleted,
		},
	}

	for _, consumer := range consumers {
		if !slices.Contains(enableConsumerNames, consumer.name) {
			continue
		}

		routine.Go(ctx, func(pCtx context.Context) error {
			slog.InfoContext(ctx, "Running job for handling consumer", "consumer", consumer.name)
			return messenger.Consume(pCtx,
				consumer.topic,
				consumer.handler,
				messaging.WithQueueGroup(consumer.name),
				messaging.WithGroup(consumer.name),
				messaging.WithAutoAck(true),
				messaging.WithConcurrency(cfg.GetInt("modules.goal.consumer_concurrency")),
			)
		})
	}
}
