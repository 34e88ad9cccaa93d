package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/shandysiswandi/gofocus/internal/goal/entity"
	"github.com/shandysiswandi/gofocus/internal/pkg/goerror"
)

type GoalAchieveInput struct {
	ID   int64  `validate:"required,gt=0"`
	Note string `validate:"max=500"`
}

type GoalAchieveOutput struct {
	Goal        entity.Goal
	PeriodStart time.Time
}

func (s *Usecase) GoalAchieve(ctx context.Context, in GoalAchieveInput) (*GoalAchieveOutput, error) {
	ctx, span := s.startSpan(ctx, "GoalAchieve")
	defer span.End()

	clm, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}

	in.Note = strings.TrimSpace(in.Note)
	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	g, err := s.loadGoal(ctx, in.ID, clm.UserID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	periodStart, err := s.achieve(ctx, g, now, in.Note)
	switch {
	case errors.Is(err, entity.ErrAlreadyAchieved), errors.Is(err, entity.ErrOutOfOrder):
		return nil, goerror.NewBusiness("Goal already achieved for this period", goerror.CodeConflict)
	case errors.Is(err, entity.ErrGoalArchived):
		return nil, goerror.NewBusiness("Goal is archived", goerror.CodeConflict)
	case errors.Is(err, entity.ErrNotStarted):
		return nil, goerror.NewBusiness("Goal has not started yet", goerror.CodeInvalidInput)
	case errors.Is(err, entity.ErrEnded):
		return nil, goerror.NewBusiness("Goal has already ended", goerror.CodeInvalidInput)
	case err != nil:
		return nil, goerror.NewServer(err)
	}

	return &GoalAchieveOutput{Goal: *g, PeriodStart: periodStart}, nil
}

// achieve applies the streak rule at instant at and persists it. A
// concurrent achievement of the same period surfaces as ErrAlreadyAchieved.
func (s *Usecase) achieve(ctx context.Context, g *entity.Goal, at time.Time, note string) (time.Time, error) {
	prev := g.LastAchievedOn

	periodStart, err := g.Achieve(entity.Day(at))
	if err != nil {
		return time.Time{}, err
	}

	err = s.repoDB.AchieveGoal(ctx, *g, prev, entity.Achievement{
		ID:          s.uid.Generate(),
		GoalID:      g.ID,
		PeriodStart: periodStart,
		AchievedAt:  at,
		Note:        note,
	})
	if errors.Is(err, goerror.ErrConflict) {
		slog.WarnContext(ctx, "goal achieved concurrently", "goal_id", g.ID, "period_start", periodStart)
		return time.Time{}, entity.ErrAlreadyAchieved
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo achieve goal", "goal_id", g.ID, "error", err)
		return time.Time{}, err
	}

	return periodStart, nil
}
