package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/shandysiswandi/gofocus/internal/calendar/entity"
	"github.com/shandysiswandi/gofocus/internal/pkg/goerror"
)

const eventColumns = `id, user_id, title, description, location, start_at, end_at, all_day, color,
	remind_before_minutes, reminded_at, created_at, updated_at`

func scanEvent(row pgx.Row) (*entity.Event, error) {
	var e entity.Event
	if err := row.Scan(&e.ID, &e.UserID, &e.Title, &e.Description, &e.Location, &e.StartAt, &e.EndAt,
		&e.AllDay, &e.Color, &e.RemindBeforeMinutes, &e.RemindedAt, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *DB) CreateEvent(ctx context.Context, e entity.Event) (err error) {
	ctx, span := s.startSpan(ctx, "CreateEvent")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, `INSERT INTO calendar_events (`+eventColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		e.ID, e.UserID, e.Title, e.Description, e.Location, e.StartAt, e.EndAt, e.AllDay, e.Color,
		e.RemindBeforeMinutes, e.RemindedAt, e.CreatedAt, e.UpdatedAt)

	return s.mapError(err)
}

func (s *DB) GetEvent(ctx context.Context, id, userID int64) (_ *entity.Event, err error) {
	ctx, span := s.startSpan(ctx, "GetEvent")
	defer func() { s.endSpan(span, err) }()

	e, err := scanEvent(s.conn.QueryRow(ctx, `SELECT `+eventColumns+` FROM calendar_events
		WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL`, id, userID))
	if err != nil {
		return nil, s.mapError(err)
	}

	return e, nil
}

// ListEvents returns events overlapping [From, To).
func (s *DB) ListEvents(ctx context.Context, f entity.EventFilter) (_ []entity.Event, err error) {
	ctx, span := s.startSpan(ctx, "ListEvents")
	defer func() { s.endSpan(span, err) }()

	rows, err := s.conn.Query(ctx, `SELECT `+eventColumns+` FROM calendar_events
		WHERE user_id = $1 AND deleted_at IS NULL AND start_at < $3 AND end_at > $2
		ORDER BY start_at, id LIMIT $4`, f.UserID, f.From, f.To, f.Limit)
	if err != nil {
		return nil, s.mapError(err)
	}
	defer rows.Close()

	events := make([]entity.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, s.mapError(err)
		}
		events = append(events, *e)
	}
	if err = rows.Err(); err != nil {
		return nil, s.mapError(err)
	}

	return events, nil
}

func (s *DB) UpdateEvent(ctx context.Context, e entity.Event) (err error) {
	ctx, span := s.startSpan(ctx, "UpdateEvent")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, `UPDATE calendar_events SET title = $3, description = $4, location = $5,
		start_at = $6, end_at = $7, all_day = $8, color = $9, remind_before_minutes = $10, reminded_at = $11, updated_at = $12
		WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL`,
		e.ID, e.UserID, e.Title, e.Description, e.Location, e.StartAt, e.EndAt, e.AllDay, e.Color,
		e.RemindBeforeMinutes, e.RemindedAt, e.UpdatedAt)
	if err != nil {
		return s.mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return goerror.ErrNotFound
	}

	return nil
}

func (s *DB) DeleteEvent(ctx context.Context, id, userID int64) (err error) {
	ctx, span := s.startSpan(ctx, "DeleteEvent")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, `UPDATE calendar_events SET deleted_at = now(), updated_at = now()
		WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL`, id, userID)
	if err != nil {
		return s.mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return goerror.ErrNotFound
	}

	return nil
}
