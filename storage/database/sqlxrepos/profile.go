package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/swimschool/core"
	"github.com/trezcool/swimschool/core/profile"
)

const profileColumns = `p.id, p.user_id, p.type, p.content, p.visible_to, p.created_at, p.updated_at`

type profileRepository struct {
	db   core.DB
	exec core.DBExecutor
}

var _ profile.Repository = (*profileRepository)(nil) // interface compliance check

func NewProfileRepository(db core.DB) *profileRepository {
	return &profileRepository{db: db, exec: db}
}

func (repo *profileRepository) UserEntries(ctx context.Context, userID int) ([]profile.Entry, error) {
	q := `SELECT ` + profileColumns + ` FROM user_profiles p WHERE p.user_id = $1 ORDER BY p.id`
	entries := make([]profile.Entry, 0)
	if err := repo.exec.SelectContext(ctx, &entries, q, userID); err != nil {
		return nil, errors.Wrap(err, "listing profile entries")
	}
	return entries, nil
}

func (repo *profileRepository) ListEntries(ctx context.Context) ([]profile.Entry, error) {
	q := `SELECT ` + profileColumns + ` FROM user_profiles p
		JOIN users u ON u.id = p.user_id AND u.deleted_at IS NULL
		ORDER BY p.user_id, p.id`
	entries := make([]profile.Entry, 0)
	if err := repo.exec.SelectContext(ctx, &entries, q); err != nil {
		return nil, errors.Wrap(err, "listing profile entries")
	}
	return entries, nil
}

func (repo *profileRepository) GetEntry(ctx context.Context, id int) (profile.Entry, error) {
	var e profile.Entry
	if err := repo.exec.GetContext(ctx, &e, `SELECT `+profileColumns+` FROM user_profiles p WHERE p.id = $1`, id); err != nil {
		return profile.Entry{}, trapNoRowsErr(err, profile.ErrNotFound, "getting profile entry")
	}
	return e, nil
}

func (repo *profileRepository) CountEntries(ctx context.Context, userID int, typ profile.Type) (int, error) {
	var n int
	err := repo.exec.GetContext(ctx, &n, `SELECT COUNT(*) FROM user_profiles WHERE user_id = $1 AND type = $2`, userID, typ)
	if err != nil {
		return 0, errors.Wrap(err, "counting profile entries")
	}
	return n, nil
}

func (repo *profileRepository) CreateEntry(ctx context.Context, e profile.Entry) (profile.Entry, error) {
	q := `INSERT INTO user_profiles (user_id, type, content, visible_to, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	err := repo.exec.QueryRowxContext(ctx, q, e.UserID, e.Type, e.Content, e.VisibleTo, e.CreatedAt.UTC(), e.UpdatedAt.UTC()).Scan(&e.ID)
	if err != nil {
		return profile.Entry{}, errors.Wrap(err, "inserting profile entry")
	}
	return e, nil
}

func (repo *profileRepository) UpdateEntry(ctx context.Context, e profile.Entry) (profile.Entry, error) {
	res, err := repo.exec.ExecContext(ctx, `UPDATE user_profiles SET content = $2, updated_at = $3 WHERE id = $1`,
		e.ID, e.Content, e.UpdatedAt.UTC())
	if err != nil {
		return profile.Entry{}, errors.Wrap(err, "updating profile entry")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return profile.Entry{}, profile.ErrNotFound
	}
	return e, nil
}

func (repo *profileRepository) WithUserLock(ctx context.Context, userID int, fn func(profile.Repository) error) error {
	return withUserLock(ctx, repo.db, userID, func(tx *sqlx.Tx) error {
		return fn(&profileRepository{db: repo.db, exec: tx})
	})
}
