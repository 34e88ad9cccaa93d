package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/shandysiswandi/gofocus/internal/goal/entity"
	"github.com/shandysiswandi/gofocus/internal/pkg/goerror"
)

type GoalAchievementsInput struct {
	ID   int64
	From time.Time
	To   time.Time
}

func (s *Usecase) GoalAchievements(ctx context.Context, in GoalAchievementsInput) ([]entity.Achievement, error) {
	ctx, span := s.startSpan(ctx, "GoalAchievements")
	defer span.End()

	clm, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}

	if !in.From.IsZero() && !in.To.IsZero() && in.To.Before(in.From) {
		return nil, goerror.NewInvalidInput(nil, "to", "to must not be before from")
	}

	g, err := s.loadGoal(ctx, in.ID, clm.UserID)
	if err != nil {
		return nil, err
	}

	from, to := g.StartDate, s.today()
	if !in.From.IsZero() {
		from = entity.Day(in.From)
	}
	if !in.To.IsZero() {
		to = entity.Day(in.To)
	}

	items, err := s.repoDB.ListAchievements(ctx, g.ID, g.Period.Start(from), to)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo list achievements", "goal_id", g.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return items, nil
}
