package usecase

import (
	"context"

	"github.com/shandysiswandi/gofocus/internal/todo/entity"
)

func (s *Usecase) TodoDetail(ctx context.Context, id int64) (*entity.Todo, error) {
	ctx, span := s.startSpan(ctx, "TodoDetail")
	defer span.End()

	clm, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}

	return s.loadTodo(ctx, id, clm.UserID)
}
