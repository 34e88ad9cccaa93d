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

// GoalUpdateInput replaces the editable fields. Period and start date are
// fixed at creation because the streak history is computed from them.
type GoalUpdateInput struct {
	ID          int64  `validate:"required,gt=0"`
	Title       string `validate:"required,max=200"`
	Description string `validate:"max=2000"`
	Status      string `validate:"required,oneof=active archived"`
	EndDate     *time.Time
}

func (s *Usecase) GoalUpdate(ctx context.Context, in GoalUpdateInput) (*entity.Goal, error) {
	ctx, span := s.startSpan(ctx, "GoalUpdate")
	defer span.End()

	clm, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}

	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Status = strings.ToLower(strings.TrimSpace(in.Status))

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	g, err := s.loadGoal(ctx, in.ID, clm.UserID)
	if err != nil {
		return nil, err
	}

	g.EndDate = nil
	if in.EndDate != nil {
		d := entity.Day(*in.EndDate)
		if d.Before(g.StartDate) {
			return nil, goerror.NewInvalidInput(nil, "end_date", "end_date must not be before start_date")
		}
		g.EndDate = &d
	}
	g.Title = in.Title
	g.Description = in.Description
	g.Status = entity.Status(in.Status)
	g.UpdatedAt = s.clock.Now()

	if err := s.repoDB.UpdateGoal(ctx, *g); err != nil {
		if errors.Is(err, goerror.ErrNotFound) {
			return nil, goerror.NewBusiness("Goal not found", goerror.CodeNotFound)
		}
		slog.ErrorContext(ctx, "failed to repo update goal", "goal_id", in.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	g.CurrentStreak = g.EffectiveStreak(s.today())
	return g, nil
}
