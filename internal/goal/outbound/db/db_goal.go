package db

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shandysiswandi/gofocus/internal/goal/entity"
	"github.com/shandysiswandi/gofocus/internal/pkg/goerror"
)

const goalColumns = `id, user_id, title, description, period, start_date, end_date, status,
	current_streak, max_streak, last_achieved_on, created_at, updated_at`

func scanGoal(row pgx.Row) (*entity.Goal, error) {
	var g entity.Goal
	var period, status string
	if err := row.Scan(&g.ID, &g.UserID, &g.Title, &g.Description, &period, &g.StartDate, &g.EndDate,
		&status, &g.CurrentStreak, &g.MaxStreak, &g.LastAchievedOn, &g.CreatedAt, &g.UpdatedAt); err != nil {
		return nil, err
	}
	g.Period = entity.Period(period)
	g.Status = entity.Status(status)
	return &g, nil
}

func (s *DB) CreateGoal(ctx context.Context, g entity.Goal) (err error) {
	ctx, span := s.startSpan(ctx, "CreateGoal")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, `INSERT INTO goals (id, user_id, title, description, period, start_date, end_date, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		g.ID, g.UserID, g.Title, g.Description, string(g.Period), g.StartDate, g.EndDate, string(g.Status), g.CreatedAt, g.UpdatedAt)

	return s.mapError(err)
}

func (s *DB) GetGoal(ctx context.Context, id, userID int64) (_ *entity.Goal, err error) {
	ctx, span := s.startSpan(ctx, "GetGoal")
	defer func() { s.endSpan(span, err) }()

	g, err := scanGoal(s.conn.QueryRow(ctx, `SELECT `+goalColumns+` FROM goals
		WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL`, id, userID))
	if err != nil {
		return nil, s.mapError(err)
	}

	return g, nil
}

func (s *DB) ListGoals(ctx context.Context, f entity.GoalFilter) (_ []entity.Goal, _ int64, err error) {
	ctx, span := s.startSpan(ctx, "ListGoals")
	defer func() { s.endSpan(span, err) }()

	where := []string{"user_id = $1", "deleted_at IS NULL"}
	args := []any{f.UserID}
	if f.Status != "" {
		args = append(args, string(f.Status))
		where = append(where, "status = $"+strconv.Itoa(len(args)))
	}
	if f.Period != "" {
		args = append(args, string(f.Period))
		where = append(where, "period = $"+strconv.Itoa(len(args)))
	}
	cond := strings.Join(where, " AND ")

	var total int64
	if err = s.conn.QueryRow(ctx, `SELECT count(*) FROM goals WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, s.mapError(err)
	}

	args = append(args, f.Limit, f.Offset)
	rows, err := s.conn.Query(ctx, `SELECT `+goalColumns+` FROM goals WHERE `+cond+
		` ORDER BY status, id DESC LIMIT $`+strconv.Itoa(len(args)-1)+` OFFSET $`+strconv.Itoa(len(args)), args...)
	if err != nil {
		return nil, 0, s.mapError(err)
	}
	defer rows.Close()

	goals := make([]entity.Goal, 0)
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, 0, s.mapError(err)
		}
		goals = append(goals, *g)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, s.mapError(err)
	}

	return goals, total, nil
}

func (s *DB) UpdateGoal(ctx context.Context, g entity.Goal) (err error) {
	ctx, span := s.startSpan(ctx, "UpdateGoal")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, `UPDATE goals SET title = $3, description = $4, end_date = $5, status = $6, updated_at = $7
		WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL`,
		g.ID, g.UserID, g.Title, g.Description, g.EndDate, string(g.Status), g.UpdatedAt)
	if err != nil {
		return s.mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return goerror.ErrNotFound
	}

	return nil
}

func (s *DB) DeleteGoal(ctx context.Context, id, userID int64) (err error) {
	ctx, span := s.startSpan(ctx, "DeleteGoal")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, `UPDATE goals SET deleted_at = now(), updated_at = now()
		WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL`, id, userID)
	if err != nil {
		return s.mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return goerror.ErrNotFound
	}

	return nil
}

// AchieveGoal stores the achievement and the new streak in one transaction.
// The goal row only changes when last_achieved_on still equals
// prevLastAchievedOn; otherwise ErrConflict is returned.
func (s *DB) AchieveGoal(ctx context.Context, g entity.Goal, prevLastAchievedOn *time.Time, a entity.Achievement) (err error) {
	ctx, span := s.startSpan(ctx, "AchieveGoal")
	defer func() { s.endSpan(span, err) }()

	tx, err := s.conn.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if rErr := tx.Rollback(ctx); rErr != nil && !errors.Is(rErr, pgx.ErrTxClosed) {
			slog.ErrorContext(ctx, "failed to rolback", "error", rErr)
		}
	}()

	if _, err := tx.Exec(ctx, `INSERT INTO goal_achievements (id, goal_id, period_start, achieved_at, note)
		VALUES ($1, $2, $3, $4, $5)`, a.ID, a.GoalID, a.PeriodStart, a.AchievedAt, a.Note); err != nil {
		return s.mapError(err)
	}

	tag, err := tx.Exec(ctx, `UPDATE goals SET current_streak = $3, max_streak = $4, last_achieved_on = $5, updated_at = now()
		WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL AND last_achieved_on IS NOT DISTINCT FROM $6`,
		g.ID, g.UserID, g.CurrentStreak, g.MaxStreak, g.LastAchievedOn, prevLastAchievedOn)
	if err != nil {
		return s.mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return goerror.ErrConflict
	}

	if err = tx.Commit(ctx); err != nil {
		return s.mapError(err)
	}

	return nil
}

func (s *DB) ListStreakingGoals(ctx context.Context, afterID int64, limit int32) (_ []entity.Goal, err error) {
	ctx, span := s.startSpan(ctx, "ListStreakingGoals")
	defer func() { s.endSpan(span, err) }()

	rows, err := s.conn.Query(ctx, `SELECT `+goalColumns+` FROM goals
		WHERE deleted_at IS NULL AND current_streak > 0 AND id > $1
		ORDER BY id LIMIT $2`, afterID, limit)
	if err != nil {
		return nil, s.mapError(err)
	}
	defer rows.Close()

	goals := make([]entity.Goal, 0, limit)
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, s.mapError(err)
		}
		goals = append(goals, *g)
	}

	return goals, s.mapError(rows.Err())
}

// ResetStreaks zeroes the streak of goals whose last_achieved_on has not
// moved since they were read.
func (s *DB) ResetStreaks(ctx context.Context, goals []entity.Goal) (_ int64, err error) {
	ctx, span := s.startSpan(ctx, "ResetStreaks")
	defer func() { s.endSpan(span, err) }()

	ids := make([]int64, len(goals))
	lasts := make([]*time.Time, len(goals))
	for i := range goals {
		ids[i] = goals[i].ID
		lasts[i] = goals[i].LastAchievedOn
	}

	tag, err := s.conn.Exec(ctx, `UPDATE goals AS g SET current_streak = 0, updated_at = now()
		FROM unnest($1::bigint[], $2::date[]) AS r(id, last_achieved_on)
		WHERE g.id = r.id AND g.last_achieved_on IS NOT DISTINCT FROM r.last_achieved_on`, ids, lasts)
	if err != nil {
		return 0, s.mapError(err)
	}

	return tag.RowsAffected(), nil
}
