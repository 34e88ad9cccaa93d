package usecase

import (
	"context"
	"log/slog"

	"github.com/samber/lo"
	"github.com/shandysiswandi/gofocus/internal/goal/entity"
)

const sweepBatchSize int32 = 500

// StreakSweep persists a zero streak for every goal whose last achievement
// is older than the previous period.
func (s *Usecase) StreakSweep(ctx context.Context) error {
	ctx, span := s.startSpan(ctx, "StreakSweep")
	defer span.End()

	today := s.today()
	var afterID, reset int64

	for {
		goals, err := s.repoDB.ListStreakingGoals(ctx, afterID, sweepBatchSize)
		if err != nil {
			slog.ErrorContext(ctx, "failed to repo list streaking goals", "after_id", afterID, "error", err)
			return err
		}
		if len(goals) == 0 {
			break
		}

		broken := lo.Filter(goals, func(g entity.Goal, _ int) bool {
			return g.StreakBroken(today)
		})
		if len(broken) > 0 {
			n, err := s.repoDB.ResetStreaks(ctx, broken)
			if err != nil {
				slog.ErrorContext(ctx, "failed to repo reset streaks", "count", len(broken), "error", err)
				return err
			}
			reset += n
		}

		afterID = goals[len(goals)-1].ID
		if int32(len(goals)) < sweepBatchSize {
			break
		}
	}

	slog.InfoContext(ctx, "goal streak sweep finished", "reset", reset, "today", today.Format(entity.DateLayout))
	return nil
}
