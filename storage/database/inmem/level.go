package inmemdb

import (
	"context"
	"sort"

	"github.com/trezcool/swimschool/core"
	"github.com/trezcool/swimschool/core/level"
)

type levelRepository struct {
	db *DB
}

var _ level.Repository = (*levelRepository)(nil) // interface compliance check

func NewLevelRepository(db *DB) *levelRepository {
	return &levelRepository{db: db}
}

func (repo *levelRepository) ListLevels(_ context.Context) ([]level.Level, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	levels := make([]level.Level, 0, len(repo.db.levels))
	for _, lvl := range repo.db.levels {
		levels = append(levels, lvl)
	}
	sort.Slice(levels, func(i, j int) bool { return levels[i].ID < levels[j].ID })
	return levels, nil
}

func (repo *levelRepository) GetLevel(_ context.Context, id int) (level.Level, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if lvl, ok := repo.db.levels[id]; ok {
		return lvl, nil
	}
	return level.Level{}, level.ErrNotFound
}

func (repo *levelRepository) CountLevels(_ context.Context) (int, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	return len(repo.db.levels), nil
}

func (repo *levelRepository) UserLevels(_ context.Context, userID int) ([]level.UserLevel, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	held := make([]level.UserLevel, 0)
	for _, ul := range repo.db.userLevels {
		if ul.UserID == userID {
			ul.Level = repo.db.levels[ul.ID]
			held = append(held, ul)
		}
	}
	sort.Slice(held, func(i, j int) bool { return held[i].ID < held[j].ID })
	return held, nil
}

func (repo *levelRepository) AddUserLevel(_ context.Context, userID, levelID int) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	for _, ul := range repo.db.userLevels {
		if ul.UserID == userID && ul.ID == levelID {
			return level.ErrAlreadyAssigned
		}
	}
	lvl, ok := repo.db.levels[levelID]
	if !ok {
		return level.ErrNotFound
	}
	repo.db.userLevels = append(repo.db.userLevels, level.UserLevel{
		Level:      lvl,
		UserID:     userID,
		AssignedAt: core.NowFunc().UTC(),
	})
	return nil
}

func (repo *levelRepository) WithUserLock(_ context.Context, userID int, fn func(level.Repository) error) error {
	return repo.db.withUserLock(userID, func() error { return fn(repo) })
}
