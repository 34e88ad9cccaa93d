package usecase

import (
	"context"
	"log/slog"
	"strings"

	"github.com/shandysiswandi/gofocus/internal/goal/entity"
	"github.com/shandysiswandi/gofocus/internal/pkg/goerror"
	"github.com/shandysiswandi/gofocus/internal/shared/paging"
)

type GoalListInput struct {
	Status string `validate:"omitempty,oneof=active archived"`
	Period string `validate:"omitempty,period"`
	Size   int32
	Page   int32
}

type GoalListOutput struct {
	Page  int32
	Size  int32
	Total int64
	Goals []entity.Goal
}

func (s *Usecase) GoalList(ctx context.Context, in GoalListInput) (*GoalListOutput, error) {
	ctx, span := s.startSpan(ctx, "GoalList")
	defer span.End()

	clm, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}

	in.Status = strings.ToLower(in.Status)
	in.Period = strings.ToLower(in.Period)
	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	in.Size = paging.Size(in.Size)
	page := max(in.Page, 1)

	goals, total, err := s.repoDB.ListGoals(ctx, entity.GoalFilter{
		UserID: clm.UserID,
		Status: entity.Status(in.Status),
		Period: entity.Period(in.Period),
		Limit:  in.Size,
		Offset: (page - 1) * in.Size,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo list goals", "user_id", clm.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	today := s.today()
	for i := range goals {
		goals[i].CurrentStreak = goals[i].EffectiveStreak(today)
	}

	return &GoalListOutput{
		Page:  page,
		Size:  in.Size,
		Total: total,
		Goals: goals,
	}, nil
}
