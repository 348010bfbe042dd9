package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/swimschool/core"
	"github.com/trezcool/swimschool/core/level"
)

const levelColumns = `id, name, image, skill_1, skill_2, skill_3, description, created_at, updated_at`

type levelRepository struct {
	db   core.DB
	exec core.DBExecutor
}

var _ level.Repository = (*levelRepository)(nil) // interface compliance check

func NewLevelRepository(db core.DB) *levelRepository {
	return &levelRepository{db: db, exec: db}
}

func (repo *levelRepository) ListLevels(ctx context.Context) ([]level.Level, error) {
	levels := make([]level.Level, 0)
	if err := repo.exec.SelectContext(ctx, &levels, `SELECT `+levelColumns+` FROM swimming_levels ORDER BY id`); err != nil {
		return nil, errors.Wrap(err, "listing levels")
	}
	return levels, nil
}

func (repo *levelRepository) GetLevel(ctx context.Context, id int) (level.Level, error) {
	var lvl level.Level
	if err := repo.exec.GetContext(ctx, &lvl, `SELECT `+levelColumns+` FROM swimming_levels WHERE id = $1`, id); err != nil {
		return level.Level{}, trapNoRowsErr(err, level.ErrNotFound, "getting level")
	}
	return lvl, nil
}

func (repo *levelRepository) CountLevels(ctx context.Context) (int, error) {
	var n int
	if err := repo.exec.GetContext(ctx, &n, `SELECT COUNT(*) FROM swimming_levels`); err != nil {
		return 0, errors.Wrap(err, "counting levels")
	}
	return n, nil
}

func (repo *levelRepository) UserLevels(ctx context.Context, userID int) ([]level.UserLevel, error) {
	q := `SELECT sl.id, sl.name, sl.image, sl.skill_1, sl.skill_2, sl.skill_3, sl.description, sl.created_at, sl.updated_at,
		usl.user_id, usl.created_at AS assigned_at
		FROM user_swimming_levels usl
		JOIN swimming_levels sl ON sl.id = usl.swimming_level_id
		WHERE usl.user_id = $1
		ORDER BY sl.id`
	held := make([]level.UserLevel, 0)
	if err := repo.exec.SelectContext(ctx, &held, q, userID); err != nil {
		return nil, errors.Wrap(err, "listing user levels")
	}
	return held, nil
}

func (repo *levelRepository) AddUserLevel(ctx context.Context, userID, levelID int) error {
	q := `INSERT INTO user_swimming_levels (user_id, swimming_level_id, created_at) VALUES ($1, $2, $3)
		ON CONFLICT (user_id, swimming_level_id) DO NOTHING`
	res, err := repo.exec.ExecContext(ctx, q, userID, levelID, core.NowFunc().UTC())
	if err != nil {
		return errors.Wrap(err, "inserting user level")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return level.ErrAlreadyAssigned
	}
	return nil
}

func (repo *levelRepository) WithUserLock(ctx context.Context, userID int, fn func(level.Repository) error) error {
	return withUserLock(ctx, repo.db, userID, func(tx *sqlx.Tx) error {
		return fn(&levelRepository{db: repo.db, exec: tx})
	})
}
