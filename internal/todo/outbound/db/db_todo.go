package db

import (
	"context"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/shandysiswandi/gofocus/internal/pkg/goerror"
	"github.com/shandysiswandi/gofocus/internal/todo/entity"
)

const todoColumns = `id, user_id, title, description, priority, status, due_date, completed_at, tags, created_at, updated_at`

func scanTodo(row pgx.Row) (*entity.Todo, error) {
	var t entity.Todo
	var priority, status string
	if err := row.Scan(&t.ID, &t.UserID, &t.Title, &t.Description, &priority, &status,
		&t.DueDate, &t.CompletedAt, &t.Tags, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	t.Priority = entity.Priority(priority)
	t.Status = entity.Status(status)
	if t.Tags == nil {
		t.Tags = []string{}
	}
	return &t, nil
}

func tagsOrEmpty(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}

func (s *DB) CreateTodo(ctx context.Context, t entity.Todo) (err error) {
	ctx, span := s.startSpan(ctx, "CreateTodo")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, `INSERT INTO todos (id, user_id, title, description, priority, status, due_date, completed_at, tags, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		t.ID, t.UserID, t.Title, t.Description, string(t.Priority), string(t.Status), t.DueDate, t.CompletedAt,
		tagsOrEmpty(t.Tags), t.CreatedAt, t.UpdatedAt)

	return s.mapError(err)
}

func (s *DB) GetTodo(ctx context.Context, id, userID int64) (_ *entity.Todo, err error) {
	ctx, span := s.startSpan(ctx, "GetTodo")
	defer func() { s.endSpan(span, err) }()

	t, err := scanTodo(s.conn.QueryRow(ctx, `SELECT `+todoColumns+` FROM todos
		WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL`, id, userID))
	if err != nil {
		return nil, s.mapError(err)
	}

	return t, nil
}

func (s *DB) ListTodos(ctx context.Context, f entity.TodoFilter) (_ []entity.Todo, _ int64, err error) {
	ctx, span := s.startSpan(ctx, "ListTodos")
	defer func() { s.endSpan(span, err) }()

	where := []string{"user_id = $1", "deleted_at IS NULL"}
	args := []any{f.UserID}
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, strings.ReplaceAll(cond, "?", "$"+strconv.Itoa(len(args))))
	}

	if f.Status != "" {
		add("status = ?", string(f.Status))
	}
	if f.Priority != "" {
		add("priority = ?", string(f.Priority))
	}
	if !f.DueFrom.IsZero() {
		add("due_date >= ?", f.DueFrom)
	}
	if !f.DueTo.IsZero() {
		add("due_date <= ?", f.DueTo)
	}
	if f.Search != "" {
		add("title ILIKE ?", "%"+escapeLike(f.Search)+"%")
	}
	if f.Tag != "" {
		add("? = ANY(tags)", f.Tag)
	}
	cond := strings.Join(where, " AND ")

	var total int64
	if err = s.conn.QueryRow(ctx, `SELECT count(*) FROM todos WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, s.mapError(err)
	}

	args = append(args, f.Limit, f.Offset)
	rows, err := s.conn.Query(ctx, `SELECT `+todoColumns+` FROM todos WHERE `+cond+
		` ORDER BY due_date ASC NULLS LAST, id DESC LIMIT $`+strconv.Itoa(len(args)-1)+` OFFSET $`+strconv.Itoa(len(args)), args...)
	if err != nil {
		return nil, 0, s.mapError(err)
	}
	defer rows.Close()

	todos := make([]entity.Todo, 0)
	for rows.Next() {
		t, err := scanTodo(rows)
		if err != nil {
			return nil, 0, s.mapError(err)
		}
		todos = append(todos, *t)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, s.mapError(err)
	}

	return todos, total, nil
}

func (s *DB) UpdateTodo(ctx context.Context, t entity.Todo) (err error) {
	ctx, span := s.startSpan(ctx, "UpdateTodo")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, `UPDATE todos SET title = $3, description = $4, priority = $5, status = $6,
		due_date = $7, completed_at = $8, tags = $9, updated_at = $10
		WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL`,
		t.ID, t.UserID, t.Title, t.Description, string(t.Priority), string(t.Status),
		t.DueDate, t.CompletedAt, tagsOrEmpty(t.Tags), t.UpdatedAt)
	if err != nil {
		return s.mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return goerror.ErrNotFound
	}

	return nil
}

func (s *DB) DeleteTodo(ctx context.Context, id, userID int64) (err error) {
	ctx, span := s.startSpan(ctx, "DeleteTodo")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, `UPDATE todos SET deleted_at = now(), updated_at = now()
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

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
