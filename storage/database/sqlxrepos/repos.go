package sqlxrepos

import (
	"context"
	"database/sql"
	stderrors "errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/swimschool/core"
	"github.com/trezcool/swimschool/core/user"
)

const uniqueViolation = "23505"

// withTx runs fn in a transaction, committed when fn succeeds.
func withTx(ctx context.Context, db core.DB, fn func(tx *sqlx.Tx) error) (err error) {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err = fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return errors.Wrap(tx.Commit(), "committing transaction")
}

// lockUser takes the row lock of an active user until the end of the transaction.
func lockUser(ctx context.Context, exec core.DBExecutor, userID int) error {
	var id int
	err := exec.GetContext(ctx, &id, `SELECT id FROM users WHERE id = $1 AND deleted_at IS NULL FOR UPDATE`, userID)
	if err == sql.ErrNoRows {
		return user.ErrNotFound
	}
	return errors.Wrap(err, "locking user")
}

// withUserLock runs fn in a transaction holding the row lock of the user.
func withUserLock(ctx context.Context, db core.DB, userID int, fn func(tx *sqlx.Tx) error) error {
	return withTx(ctx, db, func(tx *sqlx.Tx) error {
		if err := lockUser(ctx, tx, userID); err != nil {
			return err
		}
		return fn(tx)
	})
}

// uniqueViolationOn returns the name of the violated unique index, "" for any other error.
func uniqueViolationOn(err error) string {
	var pqErr *pq.Error
	if stderrors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return pqErr.Constraint
	}
	return ""
}

// trapNoRowsErr maps sql.ErrNoRows to notFound.
func trapNoRowsErr(err error, notFound error, msg string) error {
	if err == sql.ErrNoRows {
		return notFound
	}
	return errors.Wrap(err, msg)
}
