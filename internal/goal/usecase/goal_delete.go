package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/gofocus/internal/pkg/goerror"
)

func (s *Usecase) GoalDelete(ctx context.Context, id int64) error {
	ctx, span := s.startSpan(ctx, "GoalDelete")
	defer span.End()

	clm, err := s.authenticated(ctx)
	if err != nil {
		return err
	}

	if err := s.repoDB.DeleteGoal(ctx, id, clm.UserID); err != nil {
		if errors.Is(err, goerror.ErrNotFound) {
			slog.WarnContext(ctx, "goal to delete not found", "goal_id", id, "user_id", clm.UserID)
			return goerror.NewBusiness("Goal not found", goerror.CodeNotFound)
		}
		slog.ErrorContext(ctx, "failed to repo delete goal", "goal_id", id, "error", err)
		return goerror.NewServer(err)
	}

	return nil
}
