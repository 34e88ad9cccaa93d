package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/shandysiswandi/gofocus/internal/pkg/goerror"
	"github.com/shandysiswandi/gofocus/internal/shared/tag"
	"github.com/shandysiswandi/gofocus/internal/todo/entity"
)

type TodoUpdateInput struct {
	ID          int64  `validate:"required,gt=0"`
	Title       string `validate:"required,max=200"`
	Description string `validate:"max=2000"`
	Priority    string `validate:"required,oneof=low medium high"`
	DueDate     *time.Time
	Tags        []string
}

func (s *Usecase) TodoUpdate(ctx context.Context, in TodoUpdateInput) (*entity.Todo, error) {
	ctx, span := s.startSpan(ctx, "TodoUpdate")
	defer span.End()

	clm, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}

	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Priority = strings.ToLower(strings.TrimSpace(in.Priority))
	in.Tags = tag.Normalize(in.Tags)

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}
	if !tag.Valid(in.Tags) {
		return nil, goerror.NewInvalidInput(nil, "tags", "each tag must be at most 32 characters")
	}

	t, err := s.loadTodo(ctx, in.ID, clm.UserID)
	if err != nil {
		return nil, err
	}

	t.Title = in.Title
	t.Description = in.Description
	t.Priority = entity.Priority(in.Priority)
	t.DueDate = in.DueDate
	t.Tags = in.Tags
	t.UpdatedAt = s.clock.Now()

	if err := s.save(ctx, *t); err != nil {
		return nil, err
	}

	return t, nil
}

// TodoToggle flips the completion state of a todo.
func (s *Usecase) TodoToggle(ctx context.Context, id int64) (*entity.Todo, error) {
	ctx, span := s.startSpan(ctx, "TodoToggle")
	defer span.End()

	clm, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}

	t, err := s.loadTodo(ctx, id, clm.UserID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	t.Toggle(now)
	t.UpdatedAt = now

	if err := s.save(ctx, *t); err != nil {
		return nil, err
	}

	return t, nil
}

func (s *Usecase) save(ctx context.Context, t entity.Todo) error {
	err := s.repoDB.UpdateTodo(ctx, t)
	if errors.Is(err, goerror.ErrNotFound) {
		return goerror.NewBusiness("Todo not found", goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo update todo", "todo_id", t.ID, "error", err)
		return goerror.NewServer(err)
	}
	return nil
}
