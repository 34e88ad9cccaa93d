package db

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shandysiswandi/gofocus/internal/identity/entity"
	"github.com/shandysiswandi/gofocus/internal/pkg/goerror"
)

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func insertRefreshToken(ctx context.Context, q execer, rt entity.RefreshToken) error {
	_, err := q.Exec(ctx, `INSERT INTO refresh_tokens (id, user_id, token, client_id, scope, auth_time, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		rt.ID, rt.UserID, rt.Token, rt.ClientID, rt.Scope, rt.AuthTime, rt.ExpiresAt)
	return err
}

func (s *DB) CreateRefreshToken(ctx context.Context, rt entity.RefreshToken) (err error) {
	ctx, span := s.startSpan(ctx, "CreateRefreshToken")
	defer func() { s.endSpan(span, err) }()

	return s.mapError(insertRefreshToken(ctx, s.conn, rt))
}

func (s *DB) GetRefreshToken(ctx context.Context, token string) (_ *entity.RefreshToken, err error) {
	ctx, span := s.startSpan(ctx, "GetRefreshToken")
	defer func() { s.endSpan(span, err) }()

	var rt entity.RefreshToken
	if err = s.conn.QueryRow(ctx, `SELECT id, user_id, token, client_id, scope, auth_time, expires_at, revoked, replaced_by_token_id
		FROM refresh_tokens WHERE token = $1`, token).Scan(
		&rt.ID, &rt.UserID, &rt.Token, &rt.ClientID, &rt.Scope, &rt.AuthTime, &rt.ExpiresAt, &rt.Revoked, &rt.ReplacedByTokenID,
	); err != nil {
		return nil, s.mapError(err)
	}

	return &rt, nil
}

// RotateRefreshToken revokes oldID, links it to next and stores next. It is
// ErrNotFound when oldID was already revoked by a concurrent request.
func (s *DB) RotateRefreshToken(ctx context.Context, oldID int64, next entity.RefreshToken) (err error) {
	ctx, span := s.startSpan(ctx, "RotateRefreshToken")
	defer func() { s.endSpan(span, err) }()

	return s.inTx(ctx, func(tx pgx.Tx) error {
		if err := insertRefreshToken(ctx, tx, next); err != nil {
			return err
		}

		tag, err := tx.Exec(ctx, `UPDATE refresh_tokens SET revoked = TRUE, replaced_by_token_id = $2
			WHERE id = $1 AND NOT revoked`, oldID, next.ID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return goerror.ErrNotFound
		}
		return nil
	})
}

// RevokeRefreshToken revokes the token when it belongs to userID. Unknown
// tokens are not an error.
func (s *DB) RevokeRefreshToken(ctx context.Context, token string, userID int64) (err error) {
	ctx, span := s.startSpan(ctx, "RevokeRefreshToken")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, `UPDATE refresh_tokens SET revoked = TRUE
		WHERE token = $1 AND user_id = $2 AND NOT revoked`, token, userID)
	return s.mapError(err)
}

func (s *DB) RevokeAllRefreshTokens(ctx context.Context, userID int64) (err error) {
	ctx, span := s.startSpan(ctx, "RevokeAllRefreshTokens")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, `UPDATE refresh_tokens SET revoked = TRUE WHERE user_id = $1 AND NOT revoked`, userID)
	return s.mapError(err)
}

func (s *DB) CreateChallenge(ctx context.Context, c entity.Challenge) (err error) {
	ctx, span := s.startSpan(ctx, "CreateChallenge")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, `INSERT INTO identity_challenges (id, user_id, token, purpose, metadata, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		c.ID, c.UserID, c.Token, string(c.Purpose), c.Metadata, c.ExpiresAt)
	return s.mapError(err)
}

// GetChallenge returns the challenge with the token digest and purpose that
// is still valid at now.
func (s *DB) GetChallenge(ctx context.Context, token string, p entity.ChallengePurpose, now time.Time) (_ *entity.Challenge, err error) {
	ctx, span := s.startSpan(ctx, "GetChallenge")
	defer func() { s.endSpan(span, err) }()

	var c entity.Challenge
	var purpose string
	if err = s.conn.QueryRow(ctx, `SELECT id, user_id, token, purpose, metadata, expires_at FROM identity_challenges
		WHERE token = $1 AND purpose = $2 AND expires_at > $3`, token, string(p), now).Scan(
		&c.ID, &c.UserID, &c.Token, &purpose, &c.Metadata, &c.ExpiresAt,
	); err != nil {
		return nil, s.mapError(err)
	}
	c.Purpose = entity.ChallengePurpose(purpose)

	return &c, nil
}

func consumeChallenge(ctx context.Context, tx pgx.Tx, id int64) error {
	tag, err := tx.Exec(ctx, `DELETE FROM identity_challenges WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return goerror.ErrNotFound
	}
	return nil
}

// ConsumeChallengeForRefreshToken deletes the challenge and stores rt in one
// transaction. A challenge already consumed is ErrNotFound.
func (s *DB) ConsumeChallengeForRefreshToken(ctx context.Context, challengeID int64, rt entity.RefreshToken) (err error) {
	ctx, span := s.startSpan(ctx, "ConsumeChallengeForRefreshToken")
	defer func() { s.endSpan(span, err) }()

	return s.inTx(ctx, func(tx pgx.Tx) error {
		if err := consumeChallenge(ctx, tx, challengeID); err != nil {
			return err
		}
		return insertRefreshToken(ctx, tx, rt)
	})
}
