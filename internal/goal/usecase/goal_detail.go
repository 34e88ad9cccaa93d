package usecase

import (
	"context"

	"github.com/shandysiswandi/gofocus/internal/goal/entity"
)

func (s *Usecase) GoalDetail(ctx context.Context, id int64) (*entity.Goal, error) {
	ctx, span := s.startSpan(ctx, "GoalDetail")
	defer span.End()

	clm, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}

	g, err := s.loadGoal(ctx, id, clm.UserID)
	if err != nil {
		return nil, err
	}
	g.CurrentStreak = g.EffectiveStreak(s.today())

	return g, nil
}
