package db

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shandysiswandi/gofocus/internal/reminder/entity"
)

// ListDueReminders returns future events whose reminder window opened at or
// before now and that were not reminded yet.
func (s *DB) ListDueReminders(ctx context.Context, now time.Time, limit int32) (_ []entity.DueReminder, err error) {
	ctx, span := s.startSpan(ctx, "ListDueReminders")
	defer func() { s.endSpan(span, err) }()

	rows, err := s.conn.Query(ctx, `SELECT e.id, e.title, e.location, e.start_at, e.remind_before_minutes,
			u.id, u.email, u.full_name
		FROM calendar_events e
		JOIN users u ON u.id = e.user_id
		WHERE e.deleted_at IS NULL AND e.remind_before_minutes IS NOT NULL AND e.reminded_at IS NULL
		AND e.start_at > $1 AND e.start_at - make_interval(mins => e.remind_before_minutes) <= $1
		AND u.status = 'active' AND u.deleted_at IS NULL
		ORDER BY e.start_at, e.id LIMIT $2`, now, limit)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (entity.DueReminder, error) {
		var r entity.DueReminder
		err := row.Scan(&r.EventID, &r.Title, &r.Location, &r.StartAt, &r.RemindBeforeMinutes,
			&r.Recipient.UserID, &r.Recipient.Email, &r.Recipient.FullName)
		return r, err
	})
}

// MarkReminded stamps reminded_at unless the event was rescheduled, deleted
// or already stamped since it was read.
func (s *DB) MarkReminded(ctx context.Context, eventID int64, startAt, at time.Time) (_ bool, err error) {
	ctx, span := s.startSpan(ctx, "MarkReminded")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, `UPDATE calendar_events SET reminded_at = $3
		WHERE id = $1 AND start_at = $2 AND reminded_at IS NULL AND deleted_at IS NULL`, eventID, startAt, at)
	if err != nil {
		return false, err
	}

	return tag.RowsAffected() == 1, nil
}
