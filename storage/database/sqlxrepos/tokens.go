package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/swimschool/core"
	"github.com/trezcool/swimschool/core/passwordreset"
	"github.com/trezcool/swimschool/core/session"
)

type passwordResetRepository struct {
	db core.DB
}

var _ passwordreset.Repository = (*passwordResetRepository)(nil) // interface compliance check

func NewPasswordResetRepository(db core.DB) *passwordResetRepository {
	return &passwordResetRepository{db: db}
}

func (repo *passwordResetRepository) ReplaceToken(ctx context.Context, tkn passwordreset.Token) error {
	return withTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM password_reset_tokens WHERE email = $1`, tkn.Email); err != nil {
			return errors.Wrap(err, "deleting password reset tokens")
		}
		_, err := tx.NamedExecContext(ctx,
			`INSERT INTO password_reset_tokens (email, token, created_at) VALUES (:email, :token, :created_at)`, tkn)
		return errors.Wrap(err, "inserting password reset token")
	})
}

func (repo *passwordResetRepository) GetToken(ctx context.Context, token string) (passwordreset.Token, error) {
	var tkn passwordreset.Token
	err := repo.db.GetContext(ctx, &tkn, `SELECT email, token, created_at FROM password_reset_tokens WHERE token = $1`, token)
	if err != nil {
		return passwordreset.Token{}, trapNoRowsErr(err, passwordreset.ErrTokenNotFound, "getting password reset token")
	}
	return tkn, nil
}

func (repo *passwordResetRepository) DeleteTokens(ctx context.Context, email string) error {
	_, err := repo.db.ExecContext(ctx, `DELETE FROM password_reset_tokens WHERE email = $1`, email)
	return errors.Wrap(err, "deleting password reset tokens")
}

type sessionRepository struct {
	exec core.DBExecutor
}

var _ session.Repository = (*sessionRepository)(nil) // interface compliance check

func NewSessionRepository(exec core.DBExecutor) *sessionRepository {
	return &sessionRepository{exec: exec}
}

func (repo *sessionRepository) RevokeToken(ctx context.Context, hash string, expiresAt time.Time) error {
	_, err := repo.exec.ExecContext(ctx,
		`INSERT INTO revoked_tokens (token_hash, expires_at) VALUES ($1, $2) ON CONFLICT (token_hash) DO NOTHING`,
		hash, expiresAt.UTC())
	return errors.Wrap(err, "inserting revoked token")
}

func (repo *sessionRepository) IsTokenRevoked(ctx context.Context, hash string, now time.Time) (bool, error) {
	var revoked bool
	err := repo.exec.GetContext(ctx, &revoked,
		`SELECT EXISTS (SELECT 1 FROM revoked_tokens WHERE token_hash = $1 AND expires_at > $2)`, hash, now.UTC())
	if err != nil {
		return false, errors.Wrap(err, "checking revoked token")
	}
	return revoked, nil
}

func (repo *sessionRepository) PurgeRevokedTokens(ctx context.Context, now time.Time) (int64, error) {
	res, err := repo.exec.ExecContext(ctx, `DELETE FROM revoked_tokens WHERE expires_at <= $1`, now.UTC())
	if err != nil {
		return 0, errors.Wrap(err, "purging revoked tokens")
	}
	return res.RowsAffected()
}
