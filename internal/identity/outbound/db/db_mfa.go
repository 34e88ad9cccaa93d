package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/shandysiswandi/gofocus/internal/identity/entity"
	"github.com/shandysiswandi/gofocus/internal/pkg/goerror"
)

func (s *DB) GetVerifiedFactor(ctx context.Context, userID int64, t entity.MFAType) (_ *entity.MFAFactor, err error) {
	ctx, span := s.startSpan(ctx, "GetVerifiedFactor")
	defer func() { s.endSpan(span, err) }()

	var f entity.MFAFactor
	var typ string
	if err = s.conn.QueryRow(ctx, `SELECT id, user_id, type, friendly_name, secret, key_version, is_verified
		FROM mfa_factors WHERE user_id = $1 AND type = $2 AND is_verified`, userID, string(t)).Scan(
		&f.ID, &f.UserID, &typ, &f.FriendlyName, &f.Secret, &f.KeyVersion, &f.IsVerified,
	); err != nil {
		return nil, s.mapError(err)
	}
	f.Type = entity.MFAType(typ)

	return &f, nil
}

// ConsumeChallengeForFactor deletes the setup challenge and stores the
// verified factor in one transaction. An existing factor of the same type is
// ErrConflict.
func (s *DB) ConsumeChallengeForFactor(ctx context.Context, challengeID int64, f entity.MFAFactor) (err error) {
	ctx, span := s.startSpan(ctx, "ConsumeChallengeForFactor")
	defer func() { s.endSpan(span, err) }()

	return s.inTx(ctx, func(tx pgx.Tx) error {
		if err := consumeChallenge(ctx, tx, challengeID); err != nil {
			return err
		}

		_, err := tx.Exec(ctx, `INSERT INTO mfa_factors (id, user_id, type, friendly_name, secret, key_version, is_verified)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			f.ID, f.UserID, string(f.Type), f.FriendlyName, f.Secret, f.KeyVersion, f.IsVerified)
		return err
	})
}

func (s *DB) DeleteFactor(ctx context.Context, userID int64, t entity.MFAType) (err error) {
	ctx, span := s.startSpan(ctx, "DeleteFactor")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, `DELETE FROM mfa_factors WHERE user_id = $1 AND type = $2`, userID, string(t))
	if err != nil {
		return s.mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return goerror.ErrNotFound
	}

	return nil
}
