package db

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shandysiswandi/gofocus/internal/reminder/entity"
)

// ListDigestRecipients pages through active users that have an open todo due
// on day or a calendar event touching [from, to).
func (s *DB) ListDigestRecipients(ctx context.Context, day, from, to time.Time, afterID int64, limit int32) (_ []entity.Recipient, err error) {
	ctx, span := s.startSpan(ctx, "ListDigestRecipients")
	defer func() { s.endSpan(span, err) }()

	rows, err := s.conn.Query(ctx, `SELECT u.id, u.email, u.full_name FROM users u
		WHERE u.status = 'active' AND u.deleted_at IS NULL AND u.id > $4
		AND (
			EXISTS (SELECT 1 FROM todos t
				WHERE t.user_id = u.id AND t.deleted_at IS NULL AND t.status = 'open' AND t.due_date = $1)
			OR EXISTS (SELECT 1 FROM calendar_events e
				WHERE e.user_id = u.id AND e.deleted_at IS NULL AND e.start_at < $3
				AND (e.end_at > $2 OR e.start_at = $2))
		)
		ORDER BY u.id LIMIT $5`, day, from, to, afterID, limit)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (entity.Recipient, error) {
		var r entity.Recipient
		err := row.Scan(&r.UserID, &r.Email, &r.FullName)
		return r, err
	})
}

func (s *DB) ListDueTodos(ctx context.Context, userID int64, day time.Time) (_ []entity.DigestTodo, err error) {
	ctx, span := s.startSpan(ctx, "ListDueTodos")
	defer func() { s.endSpan(span, err) }()

	rows, err := s.conn.Query(ctx, `SELECT id, title, priority FROM todos
		WHERE user_id = $1 AND deleted_at IS NULL AND status = 'open' AND due_date = $2
		ORDER BY CASE priority WHEN 'high' THEN 0 WHEN 'medium' THEN 1 ELSE 2 END, id`, userID, day)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (entity.DigestTodo, error) {
		var t entity.DigestTodo
		err := row.Scan(&t.ID, &t.Title, &t.Priority)
		return t, err
	})
}

func (s *DB) ListDayEvents(ctx context.Context, userID int64, from, to time.Time) (_ []entity.DigestEvent, err error) {
	ctx, span := s.startSpan(ctx, "ListDayEvents")
	defer func() { s.endSpan(span, err) }()

	rows, err := s.conn.Query(ctx, `SELECT id, title, location, start_at, end_at, all_day FROM calendar_events
		WHERE user_id = $1 AND deleted_at IS NULL AND start_at < $3 AND (end_at > $2 OR start_at = $2)
		ORDER BY all_day DESC, start_at, id`, userID, from, to)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (entity.DigestEvent, error) {
		var e entity.DigestEvent
		err := row.Scan(&e.ID, &e.Title, &e.Location, &e.StartAt, &e.EndAt, &e.AllDay)
		return e, err
	})
}
