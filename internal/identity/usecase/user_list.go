package usecase

import (
	"context"
	"log/slog"
	"strings"

	"github.com/shandysiswandi/gofocus/internal/identity/entity"
	"github.com/shandysiswandi/gofocus/internal/pkg/goerror"
	"github.com/shandysiswandi/gofocus/internal/shared/paging"
)

const (
	permObjUsers = "identity.users"
	permActRead  = "read"
)

type UserListInput struct {
	Search string `validate:"max=100"`
	Status string `validate:"omitempty,oneof=active banned inactive"`
	Role   string `validate:"omitempty,oneof=user admin"`
	Size   int32
	Page   int32
}

type UserListOutput struct {
	Page  int32
	Size  int32
	Total int64
	Users []entity.User
}

func (s *Usecase) UserList(ctx context.Context, in UserListInput) (*UserListOutput, error) {
	ctx, span := s.startSpan(ctx, "UserList")
	defer span.End()

	if _, err := s.authenticatedAndAuthorized(ctx, permObjUsers, permActRead); err != nil {
		return nil, err
	}

	in.Search = strings.TrimSpace(in.Search)
	in.Status = strings.ToLower(strings.TrimSpace(in.Status))
	in.Role = strings.ToLower(strings.TrimSpace(in.Role))
	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	in.Size = paging.Size(in.Size)
	in.Page = max(in.Page, 1)

	users, total, err := s.repoDB.ListUsers(ctx, entity.UserFilter{
		Search: in.Search,
		Status: entity.UserStatus(in.Status),
		Role:   entity.Role(in.Role),
		Limit:  in.Size,
		Offset: (in.Page - 1) * in.Size,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo list users", "error", err)
		return nil, goerror.NewServer(err)
	}

	return &UserListOutput{
		Page:  in.Page,
		Size:  in.Size,
		Total: total,
		Users: users,
	}, nil
}
