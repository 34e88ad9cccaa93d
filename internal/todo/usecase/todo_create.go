package usecase

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/shandysiswandi/gofocus/internal/pkg/goerror"
	"github.com/shandysiswandi/gofocus/internal/shared/tag"
	"github.com/shandysiswandi/gofocus/internal/todo/entity"
)

type TodoCreateInput struct {
	Title       string `validate:"required,max=200"`
	Description string `validate:"max=2000"`
	Priority    string `validate:"omitempty,oneof=low medium high"`
	DueDate     *time.Time
	Tags        []string
}

func (s *Usecase) TodoCreate(ctx context.Context, in TodoCreateInput) (*entity.Todo, error) {
	ctx, span := s.startSpan(ctx, "TodoCreate")
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
	if in.Priority == "" {
		in.Priority = string(entity.PriorityMedium)
	}

	now := s.clock.Now()
	t := entity.Todo{
		ID:          s.uid.Generate(),
		UserID:      clm.UserID,
		Title:       in.Title,
		Description: in.Description,
		Priority:    entity.Priority(in.Priority),
		Status:      entity.StatusOpen,
		DueDate:     in.DueDate,
		Tags:        in.Tags,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repoDB.CreateTodo(ctx, t); err != nil {
		slog.ErrorContext(ctx, "failed to repo create todo", "user_id", clm.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &t, nil
}
