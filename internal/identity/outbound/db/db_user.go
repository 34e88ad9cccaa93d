package db

import (
	"context"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/shandysiswandi/gofocus/internal/identity/entity"
	"github.com/shandysiswandi/gofocus/internal/pkg/goerror"
)

const userColumns = `u.id, u.email, u.full_name, u.role, u.status, u.created_at, u.updated_at`

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func scanUser(row pgx.Row, extra ...any) (*entity.User, error) {
	var u entity.User
	var role, status string
	dest := append([]any{&u.ID, &u.Email, &u.FullName, &role, &status, &u.CreatedAt, &u.UpdatedAt}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	u.Role = entity.Role(role)
	u.Status = entity.UserStatus(status)
	return &u, nil
}

// CreateUser inserts the user and its credential. A taken email, compared
// case-insensitively, is ErrConflict.
func (s *DB) CreateUser(ctx context.Context, u entity.User, hash string) (err error) {
	ctx, span := s.startSpan(ctx, "CreateUser")
	defer func() { s.endSpan(span, err) }()

	return s.inTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `INSERT INTO users (id, email, full_name, role, status, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			u.ID, u.Email, u.FullName, string(u.Role), string(u.Status), u.CreatedAt, u.UpdatedAt); err != nil {
			return err
		}

		_, err := tx.Exec(ctx, `INSERT INTO user_credentials (user_id, password, updated_at) VALUES ($1, $2, $3)`,
			u.ID, hash, u.CreatedAt)
		return err
	})
}

func (s *DB) GetUserByID(ctx context.Context, id int64) (_ *entity.User, err error) {
	ctx, span := s.startSpan(ctx, "GetUserByID")
	defer func() { s.endSpan(span, err) }()

	u, err := scanUser(s.conn.QueryRow(ctx, `SELECT `+userColumns+` FROM users u
		WHERE u.id = $1 AND u.deleted_at IS NULL`, id))
	if err != nil {
		return nil, s.mapError(err)
	}

	return u, nil
}

func (s *DB) GetUserByEmail(ctx context.Context, email string) (_ *entity.User, err error) {
	ctx, span := s.startSpan(ctx, "GetUserByEmail")
	defer func() { s.endSpan(span, err) }()

	u, err := scanUser(s.conn.QueryRow(ctx, `SELECT `+userColumns+` FROM users u
		WHERE lower(u.email) = lower($1) AND u.deleted_at IS NULL`, email))
	if err != nil {
		return nil, s.mapError(err)
	}

	return u, nil
}

const loginInfoQuery = `SELECT ` + userColumns + `, c.password,
	EXISTS (SELECT 1 FROM mfa_factors f WHERE f.user_id = u.id AND f.is_verified)
	FROM users u JOIN user_credentials c ON c.user_id = u.id
	WHERE u.deleted_at IS NULL AND `

func (s *DB) scanLoginInfo(row pgx.Row) (*entity.LoginInfo, error) {
	var info entity.LoginInfo
	u, err := scanUser(row, &info.Password, &info.HasMFA)
	if err != nil {
		return nil, s.mapError(err)
	}
	info.User = *u
	return &info, nil
}

func (s *DB) GetLoginInfoByEmail(ctx context.Context, email string) (_ *entity.LoginInfo, err error) {
	ctx, span := s.startSpan(ctx, "GetLoginInfoByEmail")
	defer func() { s.endSpan(span, err) }()

	return s.scanLoginInfo(s.conn.QueryRow(ctx, loginInfoQuery+`lower(u.email) = lower($1)`, email))
}

func (s *DB) GetLoginInfoByID(ctx context.Context, id int64) (_ *entity.LoginInfo, err error) {
	ctx, span := s.startSpan(ctx, "GetLoginInfoByID")
	defer func() { s.endSpan(span, err) }()

	return s.scanLoginInfo(s.conn.QueryRow(ctx, loginInfoQuery+`u.id = $1`, id))
}

func (s *DB) UpdateUserProfile(ctx context.Context, id int64, fullName string) (err error) {
	ctx, span := s.startSpan(ctx, "UpdateUserProfile")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, `UPDATE users SET full_name = $2, updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL`, id, fullName)
	if err != nil {
		return s.mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return goerror.ErrNotFound
	}

	return nil
}

// ChangePassword stores the new hash and revokes every refresh token of the
// user in one transaction.
func (s *DB) ChangePassword(ctx context.Context, userID int64, hash string) (err error) {
	ctx, span := s.startSpan(ctx, "ChangePassword")
	defer func() { s.endSpan(span, err) }()

	return s.inTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `UPDATE user_credentials SET password = $2, updated_at = now() WHERE user_id = $1`, userID, hash)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return goerror.ErrNotFound
		}

		_, err = tx.Exec(ctx, `UPDATE refresh_tokens SET revoked = TRUE WHERE user_id = $1 AND NOT revoked`, userID)
		return err
	})
}

func (s *DB) ListUsers(ctx context.Context, f entity.UserFilter) (_ []entity.User, _ int64, err error) {
	ctx, span := s.startSpan(ctx, "ListUsers")
	defer func() { s.endSpan(span, err) }()

	where := []string{"u.deleted_at IS NULL"}
	var args []any
	if f.Search != "" {
		args = append(args, "%"+likeEscaper.Replace(f.Search)+"%")
		n := strconv.Itoa(len(args))
		where = append(where, "(u.email ILIKE $"+n+" OR u.full_name ILIKE $"+n+")")
	}
	if f.Status != "" {
		args = append(args, string(f.Status))
		where = append(where, "u.status = $"+strconv.Itoa(len(args)))
	}
	if f.Role != "" {
		args = append(args, string(f.Role))
		where = append(where, "u.role = $"+strconv.Itoa(len(args)))
	}
	cond := strings.Join(where, " AND ")

	var total int64
	if err = s.conn.QueryRow(ctx, `SELECT count(*) FROM users u WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, s.mapError(err)
	}

	args = append(args, f.Limit, f.Offset)
	rows, err := s.conn.Query(ctx, `SELECT `+userColumns+` FROM users u WHERE `+cond+
		` ORDER BY u.id DESC LIMIT $`+strconv.Itoa(len(args)-1)+` OFFSET $`+strconv.Itoa(len(args)), args...)
	if err != nil {
		return nil, 0, s.mapError(err)
	}
	defer rows.Close()

	users := make([]entity.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, s.mapError(err)
		}
		users = append(users, *u)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, s.mapError(err)
	}

	return users, total, nil
}
