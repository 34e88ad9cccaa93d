package db

import (
	"context"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/shandysiswandi/gofocus/internal/note/entity"
	"github.com/shandysiswandi/gofocus/internal/pkg/goerror"
)

const noteColumns = `id, user_id, title, content, tags, pinned, created_at, updated_at`

func scanNote(row pgx.Row) (*entity.Note, error) {
	var n entity.Note
	if err := row.Scan(&n.ID, &n.UserID, &n.Title, &n.Content, &n.Tags, &n.Pinned, &n.CreatedAt, &n.UpdatedAt); err != nil {
		return nil, err
	}
	if n.Tags == nil {
		n.Tags = []string{}
	}
	return &n, nil
}

func tags(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}

func (s *DB) CreateNote(ctx context.Context, n entity.Note) (err error) {
	ctx, span := s.startSpan(ctx, "CreateNote")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, `INSERT INTO notes (id, user_id, title, content, tags, pinned, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		n.ID, n.UserID, n.Title, n.Content, tags(n.Tags), n.Pinned, n.CreatedAt, n.UpdatedAt)

	return s.mapError(err)
}

func (s *DB) GetNote(ctx context.Context, id, userID int64) (_ *entity.Note, err error) {
	ctx, span := s.startSpan(ctx, "GetNote")
	defer func() { s.endSpan(span, err) }()

	n, err := scanNote(s.conn.QueryRow(ctx, `SELECT `+noteColumns+` FROM notes
		WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL`, id, userID))
	if err != nil {
		return nil, s.mapError(err)
	}

	return n, nil
}

func (s *DB) ListNotes(ctx context.Context, f entity.NoteFilter) (_ []entity.Note, _ int64, err error) {
	ctx, span := s.startSpan(ctx, "ListNotes")
	defer func() { s.endSpan(span, err) }()

	where := []string{"user_id = $1", "deleted_at IS NULL"}
	args := []any{f.UserID}
	if f.Search != "" {
		args = append(args, "%"+likeEscaper.Replace(f.Search)+"%")
		n := "$" + strconv.Itoa(len(args))
		where = append(where, "(title ILIKE "+n+" OR content ILIKE "+n+")")
	}
	if f.Tag != "" {
		args = append(args, f.Tag)
		where = append(where, "$"+strconv.Itoa(len(args))+" = ANY(tags)")
	}
	if f.Pinned != nil {
		args = append(args, *f.Pinned)
		where = append(where, "pinned = $"+strconv.Itoa(len(args)))
	}
	cond := strings.Join(where, " AND ")

	var total int64
	if err = s.conn.QueryRow(ctx, `SELECT count(*) FROM notes WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, s.mapError(err)
	}

	args = append(args, f.Limit, f.Offset)
	rows, err := s.conn.Query(ctx, `SELECT `+noteColumns+` FROM notes WHERE `+cond+
		` ORDER BY pinned DESC, updated_at DESC, id DESC LIMIT $`+strconv.Itoa(len(args)-1)+` OFFSET $`+strconv.Itoa(len(args)), args...)
	if err != nil {
		return nil, 0, s.mapError(err)
	}
	defer rows.Close()

	notes := make([]entity.Note, 0)
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, 0, s.mapError(err)
		}
		notes = append(notes, *n)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, s.mapError(err)
	}

	return notes, total, nil
}

func (s *DB) UpdateNote(ctx context.Context, n entity.Note) (err error) {
	ctx, span := s.startSpan(ctx, "UpdateNote")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, `UPDATE notes SET title = $3, content = $4, tags = $5, pinned = $6, updated_at = $7
		WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL`,
		n.ID, n.UserID, n.Title, n.Content, tags(n.Tags), n.Pinned, n.UpdatedAt)
	if err != nil {
		return s.mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return goerror.ErrNotFound
	}

	return nil
}

func (s *DB) DeleteNote(ctx context.Context, id, userID int64) (err error) {
	ctx, span := s.startSpan(ctx, "DeleteNote")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, `UPDATE notes SET deleted_at = now(), updated_at = now()
		WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL`, id, userID)
	if err != nil {
		return s.mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return goerror.ErrNotFound
	}

	return nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
