package usecase

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/shandysiswandi/gofocus/internal/goal/entity"
	"github.com/shandysiswandi/gofocus/internal/pkg/goerror"
)

type GoalCreateInput struct {
	Title       string `validate:"required,max=200"`
	Description string `validate:"max=2000"`
	Period      string `validate:"required,period"`
	StartDate   time.Time
	EndDate     *time.Time
}

func (s *Usecase) GoalCreate(ctx context.Context, in GoalCreateInput) (*entity.Goal, error) {
	ctx, span := s.startSpan(ctx, "GoalCreate")
	defer span.End()

	clm, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}

	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Period = strings.ToLower(strings.TrimSpace(in.Period))

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	start := s.today()
	if !in.StartDate.IsZero() {
		start = entity.Day(in.StartDate)
	}

	var end *time.Time
	if in.EndDate != nil {
		d := entity.Day(*in.EndDate)
		if d.Before(start) {
			return nil, goerror.NewInvalidInput(nil, "end_date", "end_date must not be before start_date")
		}
		end = &d
	}

	now := s.clock.Now()
	g := entity.Goal{
		ID:          s.uid.Generate(),
		UserID:      clm.UserID,
		Title:       in.Title,
		Description: in.Description,
		Period:      entity.Period(in.Period),
		StartDate:   start,
		EndDate:     end,
		Status:      entity.StatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repoDB.CreateGoal(ctx, g); err != nil {
		slog.ErrorContext(ctx, "failed to repo create goal", "user_id", clm.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &g, nil
}
