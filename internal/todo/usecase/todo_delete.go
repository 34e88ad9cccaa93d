package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/gofocus/internal/pkg/goerror"
)

func (s *Usecase) TodoDelete(ctx context.Context, id int64) error {
	ctx, span := s.startSpan(ctx, "TodoDelete")
	defer span.End()

	clm, err := s.authenticated(ctx)
	if err != nil {
		return err
	}

	if err := s.repoDB.DeleteTodo(ctx, id, clm.UserID); err != nil {
		if errors.Is(err, goerror.ErrNotFound) {
			slog.WarnContext(ctx, "todo to delete not found", "todo_id", id, "user_id", clm.UserID)
			return goerror.NewBusiness("Todo not found", goerror.CodeNotFound)
		}
		slog.ErrorContext(ctx, "failed to repo delete todo", "todo_id", id, "error", err)
		return goerror.NewServer(err)
	}

	return nil
}
