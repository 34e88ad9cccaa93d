package usecase

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/shandysiswandi/gofocus/internal/pkg/goerror"
	"github.com/shandysiswandi/gofocus/internal/shared/paging"
	"github.com/shandysiswandi/gofocus/internal/todo/entity"
)

type TodoListInput struct {
	Status   string `validate:"omitempty,oneof=open done"`
	Priority string `validate:"omitempty,oneof=low medium high"`
	DueFrom  time.Time
	DueTo    time.Time
	Search   string `validate:"max=200"`
	Tag      string `validate:"max=32"`
	Size     int32
	Page     int32
}

type TodoListOutput struct {
	Page  int32
	Size  int32
	Total int64
	Todos []entity.Todo
}

func (s *Usecase) TodoList(ctx context.Context, in TodoListInput) (*TodoListOutput, error) {
	ctx, span := s.startSpan(ctx, "TodoList")
	defer span.End()

	clm, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}

	in.Status = strings.ToLower(in.Status)
	in.Priority = strings.ToLower(in.Priority)
	in.Tag = strings.ToLower(in.Tag)
	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}
	if !in.DueFrom.IsZero() && !in.DueTo.IsZero() && in.DueTo.Before(in.DueFrom) {
		return nil, goerror.NewInvalidInput(nil, "due_to", "due_to must not be before due_from")
	}

	in.Size = paging.Size(in.Size)
	page := max(in.Page, 1)

	todos, total, err := s.repoDB.ListTodos(ctx, entity.TodoFilter{
		UserID:   clm.UserID,
		Status:   entity.Status(in.Status),
		Priority: entity.Priority(in.Priority),
		DueFrom:  in.DueFrom,
		DueTo:    in.DueTo,
		Search:   in.Search,
		Tag:      in.Tag,
		Limit:    in.Size,
		Offset:   (page - 1) * in.Size,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo list todos", "user_id", clm.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &TodoListOutput{
		Page:  page,
		Size:  in.Size,
		Total: total,
		Todos: todos,
	}, nil
}
