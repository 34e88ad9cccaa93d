package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/shandysiswandi/gofocus/internal/pkg/goerror"
	"github.com/shandysiswandi/gofocus/internal/pomodoro/entity"
)

const maxStatsDays = 366

type StatsInput struct {
	From time.Time
	To   time.Time
}

// Stats summarizes completed focus sessions per day. The window is a range
// of calendar days, inclusive on both ends, defaulting to the last 7 days.
func (s *Usecase) Stats(ctx context.Context, in StatsInput) (*entity.Stats, error) {
	ctx, span := s.startSpan(ctx, "Stats")
	defer span.End()

	clm, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	loc := now.Location()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)

	to := today
	if !in.To.IsZero() {
		to = time.Date(in.To.Year(), in.To.Month(), in.To.Day(), 0, 0, 0, 0, loc)
	}
	from := to.AddDate(0, 0, -6)
	if !in.From.IsZero() {
		from = time.Date(in.From.Year(), in.From.Month(), in.From.Day(), 0, 0, 0, 0, loc)
	}
	if to.Before(from) {
		return nil, goerror.NewInvalidInput(nil, "to", "to must not be before from")
	}
	if to.Sub(from) >= maxStatsDays*24*time.Hour {
		return nil, goerror.NewInvalidInput(nil, "from", "range must not exceed one year")
	}

	sessions, _, err := s.repoDB.ListSessions(ctx, entity.SessionFilter{
		UserID: clm.UserID,
		From:   from,
		To:     to.AddDate(0, 0, 1),
		Kind:   entity.KindFocus,
		Status: entity.StatusCompleted,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo list sessions for stats", "user_id", clm.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	st := entity.BuildStats(sessions, from, to, loc)
	return &st, nil
}
