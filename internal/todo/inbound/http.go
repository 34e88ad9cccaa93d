package inbound

import (
	"context"

	"github.com/shandysiswandi/gofocus/internal/pkg/router"
	"github.com/shandysiswandi/gofocus/internal/todo/entity"
	"github.com/shandysiswandi/gofocus/internal/todo/usecase"
)

type uc interface {
	TodoCreate(ctx context.Context, in usecase.TodoCreateInput) (*entity.Todo, error)
	TodoList(ctx context.Context, in usecase.TodoListInput) (*usecase.TodoListOutput, error)
	TodoDetail(ctx context.Context, id int64) (*entity.Todo, error)
	TodoUpdate(ctx context.Context, in usecase.TodoUpdateInput) (*entity.Todo, error)
	TodoToggle(ctx context.Context, id int64) (*entity.Todo, error)
	TodoDelete(ctx context.Context, id int64) error
}

func RegisterHTTPEndpoint(r *router.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}

	r.POST("/api/v1/todos", end.Create)
	r.GET("/api/v1/todos", end.List)
	r.GET("/api/v1/todos/:id", end.Detail)
	r.PUT("/api/v1/todos/:id", end.Update)
	r.PATCH("/api/v1/todos/:id/complete", end.Complete)
	r.DELETE("/api/v1/todos/:id", end.Delete)
}
