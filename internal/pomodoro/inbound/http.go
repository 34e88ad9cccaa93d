package inbound

import (
	"context"

	"github.com/shandysiswandi/gofocus/internal/pkg/router"
	"github.com/shandysiswandi/gofocus/internal/pomodoro/entity"
	"github.com/shandysiswandi/gofocus/internal/pomodoro/usecase"
)

type uc interface {
	SessionStart(ctx context.Context, in usecase.SessionStartInput) (*entity.Session, error)
	SessionCurrent(ctx context.Context) (*usecase.SessionCurrentOutput, error)
	SessionComplete(ctx context.Context, id int64) (*entity.Session, error)
	SessionCancel(ctx context.Context, id int64) (*entity.Session, error)
	SessionHistory(ctx context.Context, in usecase.SessionHistoryInput) (*usecase.SessionHistoryOutput, error)
	Stats(ctx context.Context, in usecase.StatsInput) (*entity.Stats, error)
}

func RegisterHTTPEndpoint(r *router.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}

	r.POST("/api/v1/pomodoro/sessions", end.Start)
	r.GET("/api/v1/pomodoro/sessions", end.History)
	r.GET("/api/v1/pomodoro/sessions/current", end.Current)
	r.POST("/api/v1/pomodoro/sessions/:id/complete", end.Complete)
	r.POST("/api/v1/pomodoro/sessions/:id/cancel", end.Cancel)
	r.GET("/api/v1/pomodoro/stats", end.Stats)
}
