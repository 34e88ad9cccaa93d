package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/shandysiswandi/gofocus/internal/goal/entity"
	"github.com/shandysiswandi/gofocus/internal/pkg/goerror"
	"github.com/shandysiswandi/gofocus/internal/pkg/idempotency"
)

type ConsumePomodoroCompletedInput struct {
	SessionID   int64
	UserID      int64
	GoalID      int64
	CompletedAt time.Time
}

// ConsumePomodoroCompleted achieves the linked goal for the period the focus
// session finished in. Redelivery of the same session is a no-op.
func (s *Usecase) ConsumePomodoroCompleted(ctx context.Context, in ConsumePomodoroCompletedInput) error {
	ctx, span := s.startSpan(ctx, "ConsumePomodoroCompleted")
	defer span.End()

	if in.GoalID == 0 {
		return nil
	}

	key := "goal:pomodoro_completed:" + strconv.FormatInt(in.SessionID, 10)
	err := s.idemp.Exec(ctx, key, func(ctx context.Context) error {
		return s.achieveFromSession(ctx, in)
	}, idempotency.WithReleaseOnFailure(), idempotency.WithStateTTL(s.cfg.GetHour("modules.goal.consumer_dedup_ttl_hours")))
	if idempotency.IsDuplicate(err) {
		slog.InfoContext(ctx, "pomodoro session already handled", "session_id", in.SessionID)
		return nil
	}

	return err
}

func (s *Usecase) achieveFromSession(ctx context.Context, in ConsumePomodoroCompletedInput) error {
	g, err := s.repoDB.GetGoal(ctx, in.GoalID, in.UserID)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "linked goal not found", "goal_id", in.GoalID, "user_id", in.UserID)
		return nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get goal", "goal_id", in.GoalID, "error", err)
		return err
	}

	at := in.CompletedAt.In(s.clock.Now().Location())
	_, err = s.achieve(ctx, g, at, "pomodoro session "+strconv.FormatInt(in.SessionID, 10))
	switch {
	case errors.Is(err, entity.ErrAlreadyAchieved),
		errors.Is(err, entity.ErrOutOfOrder),
		errors.Is(err, entity.ErrGoalArchived),
		errors.Is(err, entity.ErrNotStarted),
		errors.Is(err, entity.ErrEnded):
		slog.InfoContext(ctx, "pomodoro session does not achieve goal", "goal_id", g.ID, "reason", err.Error())
		return nil
	case err != nil:
		return err
	}

	slog.InfoContext(ctx, "goal achieved by pomodoro session", "goal_id", g.ID, "session_id", in.SessionID)
	return nil
}
