package db

import (
	"context"
	"time"

	"github.com/shandysiswandi/gofocus/internal/goal/entity"
)

func (s *DB) ListAchievements(ctx context.Context, goalID int64, from, to time.Time) (_ []entity.Achievement, err error) {
	ctx, span := s.startSpan(ctx, "ListAchievements")
	defer func() { s.endSpan(span, err) }()

	rows, err := s.conn.Query(ctx, `SELECT id, goal_id, period_start, achieved_at, note FROM goal_achievements
		WHERE goal_id = $1 AND period_start BETWEEN $2 AND $3
		ORDER BY period_start DESC`, goalID, from, to)
	if err != nil {
		return nil, s.mapError(err)
	}
	defer rows.Close()

	items := make([]entity.Achievement, 0)
	for rows.Next() {
		var a entity.Achievement
		if err := rows.Scan(&a.ID, &a.GoalID, &a.PeriodStart, &a.AchievedAt, &a.Note); err != nil {
			return nil, s.mapError(err)
		}
		items = append(items, a)
	}

	return items, s.mapError(rows.Err())
}

func (s *DB) CountAchievements(ctx context.Context, goalID int64, from, to time.Time) (_ int, err error) {
	ctx, span := s.startSpan(ctx, "CountAchievements")
	defer func() { s.endSpan(span, err) }()

	var n int
	err = s.conn.QueryRow(ctx, `SELECT count(*) FROM goal_achievements
		WHERE goal_id = $1 AND period_start BETWEEN $2 AND $3`, goalID, from, to).Scan(&n)

	return n, s.mapError(err)
}
