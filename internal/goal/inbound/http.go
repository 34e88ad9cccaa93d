package inbound

import (
	"context"

	"github.com/shandysiswandi/gofocus/internal/goal/entity"
	"github.com/shandysiswandi/gofocus/internal/goal/usecase"
	"github.com/shandysiswandi/gofocus/internal/pkg/router"
)

type uc interface {
	GoalCreate(ctx context.Context, in usecase.GoalCreateInput) (*entity.Goal, error)
	GoalList(ctx context.Context, in usecase.GoalListInput) (*usecase.GoalListOutput, error)
	GoalDetail(ctx context.Context, id int64) (*entity.Goal, error)
	GoalUpdate(ctx context.Context, in usecase.GoalUpdateInput) (*entity.Goal, error)
	GoalDelete(ctx context.Context, id int64) error

	GoalAchieve(ctx context.Context, in usecase.GoalAchieveInput) (*usecase.GoalAchieveOutput, error)
	GoalAchievements(ctx context.Context, in usecase.GoalAchievementsInput) ([]entity.Achievement, error)
	GoalStats(ctx context.Context, in usecase.GoalStatsInput) (*entity.Stats, error)

	ConsumePomodoroCompleted(ctx context.Context, in usecase.ConsumePomodoroCompletedInput) error
	StreakSweep(ctx context.Context) error
}

func RegisterHTTPEndpoint(r *router.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}

	r.POST("/api/v1/goals", end.Create)
	r.GET("/api/v1/goals", end.List)
	r.GET("/api/v1/goals/:id", end.Detail)
	r.PUT("/api/v1/goals/:id", end.Update)
	r.DELETE("/api/v1/goals/:id", end.Delete)

	r.POST("/api/v1/goals/:id/achieve", end.Achieve)
	r.GET("/api/v1/goals/:id/achievements", end.Achievements)
	r.GET("/api/v1/goals/:id/stats", end.Stats)
}
