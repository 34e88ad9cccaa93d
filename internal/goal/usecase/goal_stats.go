package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shandysiswandi/gofocus/internal/goal/entity"
	"github.com/shandysiswandi/gofocus/internal/pkg/cache"
	"github.com/shandysiswandi/gofocus/internal/pkg/goerror"
)

type GoalStatsInput struct {
	ID   int64
	From time.Time
	To   time.Time
}

func (s *Usecase) GoalStats(ctx context.Context, in GoalStatsInput) (*entity.Stats, error) {
	ctx, span := s.startSpan(ctx, "GoalStats")
	defer span.End()

	clm, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}

	if !in.From.IsZero() && !in.To.IsZero() && in.To.Before(in.From) {
		return nil, goerror.NewInvalidInput(nil, "to", "to must not be before from")
	}

	g, err := s.loadGoal(ctx, in.ID, clm.UserID)
	if err != nil {
		return nil, err
	}

	today := s.today()
	start, end, ok := g.StatsWindow(in.From, in.To, today)
	if !ok {
		return &entity.Stats{
			CurrentStreak: g.EffectiveStreak(today),
			MaxStreak:     g.MaxStreak,
			From:          start,
			To:            end,
		}, nil
	}

	// updated_at moves on every achieve, update and sweep reset, so a new
	// version of the goal never reads an old entry.
	key := fmt.Sprintf("goal:stats:%d:%d:%s:%s:%s", g.ID, g.UpdatedAt.UnixNano(),
		today.Format(entity.DateLayout), start.Format(entity.DateLayout), end.Format(entity.DateLayout))

	stats, err := cache.GetOrLoad(ctx, s.cache, key, s.cfg.GetSecond("modules.goal.stats_cache_ttl_seconds"),
		func(ctx context.Context) (entity.Stats, error) {
			achieved, err := s.repoDB.CountAchievements(ctx, g.ID, g.Period.Start(start), end)
			if err != nil {
				return entity.Stats{}, err
			}

			total := g.Period.Between(start, end)
			return entity.Stats{
				CurrentStreak: g.EffectiveStreak(today),
				MaxStreak:     g.MaxStreak,
				Achieved:      achieved,
				TotalPeriods:  total,
				Rate:          entity.AchievementRate(achieved, total),
				From:          start,
				To:            end,
			}, nil
		})
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo count achievements", "goal_id", g.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &stats, nil
}
