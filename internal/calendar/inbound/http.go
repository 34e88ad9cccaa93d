package inbound

import (
	"context"

	"github.com/shandysiswandi/gofocus/internal/calendar/entity"
	"github.com/shandysiswandi/gofocus/internal/calendar/usecase"
	"github.com/shandysiswandi/gofocus/internal/pkg/router"
)

type uc interface {
	EventCreate(ctx context.Context, in usecase.EventInput) (*entity.Event, error)
	EventList(ctx context.Context, in usecase.EventListInput) (*usecase.EventListOutput, error)
	EventDetail(ctx context.Context, id int64) (*entity.Event, error)
	EventUpdate(ctx context.Context, in usecase.EventInput) (*entity.Event, error)
	EventDelete(ctx context.Context, id int64) error
}

func RegisterHTTPEndpoint(r *router.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}

	r.POST("/api/v1/calendar/events", end.Create)
	r.GET("/api/v1/calendar/events", end.List)
	r.GET("/api/v1/calendar/events/:id", end.Detail)
	r.PUT("/api/v1/calendar/events/:id", end.Update)
	r.DELETE("/api/v1/calendar/events/:id", end.Delete)
}
