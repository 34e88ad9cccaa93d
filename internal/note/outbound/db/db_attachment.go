package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/shandysiswandi/gofocus/internal/note/entity"
	"github.com/shandysiswandi/gofocus/internal/pkg/goerror"
)

const attachmentColumns = `id, note_id, object_key, file_name, content_type, size, created_at`

func scanAttachment(row pgx.Row) (*entity.Attachment, error) {
	var a entity.Attachment
	if err := row.Scan(&a.ID, &a.NoteID, &a.ObjectKey, &a.FileName, &a.ContentType, &a.Size, &a.CreatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *DB) CreateAttachment(ctx context.Context, a entity.Attachment) (err error) {
	ctx, span := s.startSpan(ctx, "CreateAttachment")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, `INSERT INTO note_attachments (`+attachmentColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		a.ID, a.NoteID, a.ObjectKey, a.FileName, a.ContentType, a.Size, a.CreatedAt)

	return s.mapError(err)
}

func (s *DB) GetAttachment(ctx context.Context, id, noteID int64) (_ *entity.Attachment, err error) {
	ctx, span := s.startSpan(ctx, "GetAttachment")
	defer func() { s.endSpan(span, err) }()

	a, err := scanAttachment(s.conn.QueryRow(ctx, `SELECT `+attachmentColumns+` FROM note_attachments
		WHERE id = $1 AND note_id = $2`, id, noteID))
	if err != nil {
		return nil, s.mapError(err)
	}

	return a, nil
}

func (s *DB) ListAttachments(ctx context.Context, noteID int64) (_ []entity.Attachment, err error) {
	ctx, span := s.startSpan(ctx, "ListAttachments")
	defer func() { s.endSpan(span, err) }()

	rows, err := s.conn.Query(ctx, `SELECT `+attachmentColumns+` FROM note_attachments
		WHERE note_id = $1 ORDER BY id`, noteID)
	if err != nil {
		return nil, s.mapError(err)
	}
	defer rows.Close()

	items := make([]entity.Attachment, 0)
	for rows.Next() {
		a, err := scanAttachment(rows)
		if err != nil {
			return nil, s.mapError(err)
		}
		items = append(items, *a)
	}
	if err = rows.Err(); err != nil {
		return nil, s.mapError(err)
	}

	return items, nil
}

func (s *DB) DeleteAttachment(ctx context.Context, id, noteID int64) (err error) {
	ctx, span := s.startSpan(ctx, "DeleteAttachment")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, `DELETE FROM note_attachments WHERE id = $1 AND note_id = $2`, id, noteID)
	if err != nil {
		return s.mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return goerror.ErrNotFound
	}

	return nil
}
