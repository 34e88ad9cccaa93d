package db

import (
	"context"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/shandysiswandi/gofocus/internal/pkg/goerror"
	"github.com/shandysiswandi/gofocus/internal/pomodoro/entity"
)

const sessionColumns = `id, user_id, kind, status, planned_minutes, todo_id, goal_id, started_at, ended_at`

func scanSession(row pgx.Row) (*entity.Session, error) {
	var s entity.Session
	var kind, status string
	var todoID, goalID *int64
	if err := row.Scan(&s.ID, &s.UserID, &kind, &status, &s.PlannedMinutes, &todoID, &goalID, &s.StartedAt, &s.EndedAt); err != nil {
		return nil, err
	}
	s.Kind = entity.Kind(kind)
	s.Status = entity.Status(status)
	if todoID != nil {
		s.TodoID = *todoID
	}
	if goalID != nil {
		s.GoalID = *goalID
	}
	return &s, nil
}

func nullID(id int64) *int64 {
	if id == 0 {
		return nil
	}
	return &id
}

// CreateSession relies on the partial unique index over running sessions;
// a second running session for the user yields ErrConflict.
func (s *DB) CreateSession(ctx context.Context, ss entity.Session) (err error) {
	ctx, span := s.startSpan(ctx, "CreateSession")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, `INSERT INTO pomodoro_sessions (`+sessionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		ss.ID, ss.UserID, string(ss.Kind), string(ss.Status), ss.PlannedMinutes,
		nullID(ss.TodoID), nullID(ss.GoalID), ss.StartedAt, ss.EndedAt)

	return s.mapError(err)
}

func (s *DB) GetSession(ctx context.Context, id, userID int64) (_ *entity.Session, err error) {
	ctx, span := s.startSpan(ctx, "GetSession")
	defer func() { s.endSpan(span, err) }()

	ss, err := scanSession(s.conn.QueryRow(ctx, `SELECT `+sessionColumns+` FROM pomodoro_sessions
		WHERE id = $1 AND user_id = $2`, id, userID))
	if err != nil {
		return nil, s.mapError(err)
	}

	return ss, nil
}

func (s *DB) GetRunningSession(ctx context.Context, userID int64) (_ *entity.Session, err error) {
	ctx, span := s.startSpan(ctx, "GetRunningSession")
	defer func() { s.endSpan(span, err) }()

	ss, err := scanSession(s.conn.QueryRow(ctx, `SELECT `+sessionColumns+` FROM pomodoro_sessions
		WHERE user_id = $1 AND status = 'running'`, userID))
	if err != nil {
		return nil, s.mapError(err)
	}

	return ss, nil
}

// FinishSession stores the final status. It returns ErrConflict when the
// session stopped running in the meantime.
func (s *DB) FinishSession(ctx context.Context, ss entity.Session) (err error) {
	ctx, span := s.startSpan(ctx, "FinishSession")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, `UPDATE pomodoro_sessions SET status = $3, ended_at = $4
		WHERE id = $1 AND user_id = $2 AND status = 'running'`,
		ss.ID, ss.UserID, string(ss.Status), ss.EndedAt)
	if err != nil {
		return s.mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return goerror.ErrConflict
	}

	return nil
}

// ListSessions filters on started_at in [From, To). A zero Limit returns
// every match.
func (s *DB) ListSessions(ctx context.Context, f entity.SessionFilter) (_ []entity.Session, _ int64, err error) {
	ctx, span := s.startSpan(ctx, "ListSessions")
	defer func() { s.endSpan(span, err) }()

	where := []string{"user_id = $1"}
	args := []any{f.UserID}
	if !f.From.IsZero() {
		args = append(args, f.From)
		where = append(where, "started_at >= $"+strconv.Itoa(len(args)))
	}
	if !f.To.IsZero() {
		args = append(args, f.To)
		where = append(where, "started_at < $"+strconv.Itoa(len(args)))
	}
	if f.Kind != "" {
		args = append(args, string(f.Kind))
		where = append(where, "kind = $"+strconv.Itoa(len(args)))
	}
	if f.Status != "" {
		args = append(args, string(f.Status))
		where = append(where, "status = $"+strconv.Itoa(len(args)))
	}
	cond := strings.Join(where, " AND ")

	var total int64
	if err = s.conn.QueryRow(ctx, `SELECT count(*) FROM pomodoro_sessions WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, s.mapError(err)
	}

	query := `SELECT ` + sessionColumns + ` FROM pomodoro_sessions WHERE ` + cond + ` ORDER BY started_at DESC, id DESC`
	if f.Limit > 0 {
		args = append(args, f.Limit, f.Offset)
		query += ` LIMIT $` + strconv.Itoa(len(args)-1) + ` OFFSET $` + strconv.Itoa(len(args))
	}

	rows, err := s.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, s.mapError(err)
	}
	defer rows.Close()

	sessions := make([]entity.Session, 0)
	for rows.Next() {
		ss, err := scanSession(rows)
		if err != nil {
			return nil, 0, s.mapError(err)
		}
		sessions = append(sessions, *ss)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, s.mapError(err)
	}

	return sessions, total, nil
}
